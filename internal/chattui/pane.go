package chattui

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/tOgg1/fchat/internal/transcript"
)

type paneEntry struct {
	id     string
	role   transcript.Role
	text   string
	attach int
	at     time.Time
}

// transcriptPane is the scrollable message history. It implements
// dispatch.ScrollFollower.
type transcriptPane struct {
	entries []paneEntry
	// offset is the number of lines hidden below the viewport; 0 is pinned
	// to the bottom.
	offset int
	height int
	width  int
}

func (p *transcriptPane) append(e paneEntry) {
	p.entries = append(p.entries, e)
	if p.offset > 0 {
		// keep the user's scroll position stable while new lines arrive
		p.offset += len(p.entryLines(e, nil, false))
	}
}

func (p *transcriptPane) lastAgentEntry() (paneEntry, bool) {
	for i := len(p.entries) - 1; i >= 0; i-- {
		if p.entries[i].role == transcript.RoleAgent {
			return p.entries[i], true
		}
	}
	return paneEntry{}, false
}

func (p *transcriptPane) atBottom() bool { return p.offset == 0 }

func (p *transcriptPane) ScrollToBottom() { p.offset = 0 }

func (p *transcriptPane) scroll(delta int, total int) {
	p.offset += delta
	maxOffset := total - p.height
	if maxOffset < 0 {
		maxOffset = 0
	}
	if p.offset > maxOffset {
		p.offset = maxOffset
	}
	if p.offset < 0 {
		p.offset = 0
	}
}

func (p *transcriptPane) lines(st *styles, showTimes bool) []string {
	var out []string
	for _, e := range p.entries {
		out = append(out, p.entryLines(e, st, showTimes)...)
	}
	return out
}

func (p *transcriptPane) entryLines(e paneEntry, st *styles, showTimes bool) []string {
	prefix := "you"
	if e.role == transcript.RoleAgent {
		prefix = "agent"
	}
	if showTimes && !e.at.IsZero() {
		prefix = e.at.Local().Format("15:04") + " " + prefix
	}
	body := e.text
	if e.attach > 0 {
		body += " [" + pluralize(e.attach, "attachment") + "]"
	}
	raw := strings.Split(prefix+": "+body, "\n")
	if st == nil {
		return raw
	}
	style := st.own
	if e.role == transcript.RoleAgent {
		style = st.agent
	}
	for i := range raw {
		raw[i] = style.Render(raw[i])
	}
	return raw
}

func (p *transcriptPane) view(st *styles, showTimes bool) string {
	all := p.lines(st, showTimes)
	if p.height <= 0 {
		return ""
	}
	end := len(all) - p.offset
	if end < 0 {
		end = 0
	}
	start := end - p.height
	if start < 0 {
		start = 0
	}
	visible := all[start:end]
	for len(visible) < p.height {
		visible = append([]string{""}, visible...)
	}
	return lipgloss.NewStyle().Width(p.width).Render(strings.Join(visible, "\n"))
}
