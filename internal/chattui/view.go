package chattui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/fchat/internal/dispatch"
	"github.com/tOgg1/fchat/internal/logging"
)

// View renders the transcript, quote, queue banner and input.
func (m *Model) View() string {
	view := m.ctrl.Snapshot()
	blocked := m.sess.Blocked()

	sections := []string{
		m.renderHeader(blocked),
		m.pane.view(&m.styles, m.showTimestamps),
	}
	if view.HasQuote {
		sections = append(sections, m.renderQuote(view))
	}
	if banner := m.renderQueueBanner(view); banner != "" {
		sections = append(sections, banner)
	}
	if line := renderAttachments(view); line != "" {
		sections = append(sections, m.styles.muted.Render(line))
	}
	sections = append(sections, m.renderInput(view, blocked), m.renderStatus())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) renderHeader(blocked bool) string {
	state := "idle"
	if blocked {
		state = "responding"
	}
	if m.closed {
		state = "disconnected"
	}
	return m.styles.header.Render(fmt.Sprintf("fchat · %s (%s)", m.agentName, state))
}

func (m *Model) renderQuote(view dispatch.View) string {
	text := logging.Preview(view.Quote.Text, max(m.width-16, 20))
	return m.styles.quote.Render(text + m.styles.muted.Render("  esc to dismiss"))
}

func (m *Model) renderQueueBanner(view dispatch.View) string {
	n := view.QueueLen()
	if n == 0 {
		return ""
	}
	label := queueLabel(n)
	if m.ctrl.CanClearQueue() {
		label += "  ctrl+x clear"
	}
	return m.styles.queueBanner.Render(label)
}

// queueLabel is the queued-count text shown above the input.
func queueLabel(n int) string {
	if n == 1 {
		return "📬 1 message queued"
	}
	return fmt.Sprintf("📬 %d messages queued", n)
}

func renderAttachments(view dispatch.View) string {
	var parts []string
	if len(view.Draft.Images) > 0 {
		parts = append(parts, "images: "+baseNames(view.Draft.Images))
	}
	if len(view.Draft.Files) > 0 {
		parts = append(parts, "files: "+baseNames(view.Draft.Files))
	}
	if len(parts) == 0 {
		return ""
	}
	return strings.Join(parts, "  ") + "  (ctrl+u to remove)"
}

func baseNames(paths []string) string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return strings.Join(names, ", ")
}

func (m *Model) renderInput(view dispatch.View, blocked bool) string {
	style := m.styles.input
	if m.width > 4 {
		style = style.Width(m.width - 2)
	}
	if view.Draft.Text == "" {
		return style.Render(m.styles.placeholder.Render(placeholderText(blocked, m.agentName)))
	}
	return style.Render(view.Draft.Text + "▏")
}

func placeholderText(blocked bool, agentName string) string {
	if blocked {
		return fmt.Sprintf("%s is responding; messages you send now are queued", agentName)
	}
	return "Type a message (enter to send, alt+enter newline, /attach <path>)"
}

func (m *Model) renderStatus() string {
	if m.status == "" {
		return m.styles.status.Render("ctrl+r quote reply · pgup/pgdown scroll · ctrl+c quit")
	}
	if m.statusErr {
		return m.styles.errStatus.Render(m.status)
	}
	return m.styles.status.Render(m.status)
}
