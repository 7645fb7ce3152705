// Package chattui is the terminal front end for fchat. It turns key presses
// into draft edits and submit triggers for dispatch.Controller and feeds
// session events back into the transcript.
package chattui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/tOgg1/fchat/internal/attach"
	"github.com/tOgg1/fchat/internal/compose"
	"github.com/tOgg1/fchat/internal/dispatch"
	"github.com/tOgg1/fchat/internal/logging"
	"github.com/tOgg1/fchat/internal/session"
	"github.com/tOgg1/fchat/internal/transcript"
)

const (
	attachCommand = "/attach"
	pickTimeout   = 5 * time.Second
	chromeLines   = 6
)

// AgentSession is the part of session.Session the UI depends on.
type AgentSession interface {
	Blocked() bool
	SendNow(d compose.Draft)
	SendQueued(q compose.QueuedMessage)
	Events() <-chan session.Event
}

// Config configures a Model. Zero values fall back to defaults.
type Config struct {
	Theme          string
	AgentName      string
	MaxImages      int
	ShowTimestamps bool
	// History seeds the transcript pane.
	History []transcript.Entry
	Picker  attach.Picker
}

// Model is the bubbletea model for the chat screen.
type Model struct {
	ctrl   *dispatch.Controller
	sess   AgentSession
	picker attach.Picker
	pane   *transcriptPane
	styles styles
	logger zerolog.Logger

	theme          Theme
	agentName      string
	maxImages      int
	showTimestamps bool

	width  int
	height int

	status    string
	statusErr bool
	closed    bool
	// sending is set while a live draft is with the session and not yet
	// delivered or failed.
	sending bool
}

type sessionEventMsg struct {
	event session.Event
}

type sessionClosedMsg struct{}

type attachResultMsg struct {
	sel attach.Selection
	err error
}

// NewModel wires a dispatch controller to sess. The session is both the
// blocked-signal source and the immediate sender.
func NewModel(sess AgentSession, cfg Config) (*Model, error) {
	if sess == nil {
		return nil, fmt.Errorf("session is required")
	}
	theme, err := parseTheme(cfg.Theme)
	if err != nil {
		return nil, err
	}
	maxImages := cfg.MaxImages
	if maxImages <= 0 {
		maxImages = attach.MaxImagesPerMessage
	}
	picker := cfg.Picker
	if picker == nil {
		picker = attach.FSPicker{}
	}
	agentName := strings.TrimSpace(cfg.AgentName)
	if agentName == "" {
		agentName = "agent"
	}

	pane := &transcriptPane{}
	for _, e := range cfg.History {
		pane.append(paneEntry{
			id:     e.ID,
			role:   e.Role,
			text:   e.Text,
			attach: len(e.Images) + len(e.Files),
			at:     e.CreatedAt,
		})
	}

	m := &Model{
		sess:           sess,
		picker:         picker,
		pane:           pane,
		styles:         newStyles(theme),
		logger:         logging.Component("chattui"),
		theme:          theme,
		agentName:      agentName,
		maxImages:      maxImages,
		showTimestamps: cfg.ShowTimestamps,
	}
	state := compose.New()
	// Called under the controller lock, so state is read directly. A
	// non-empty queue blocks too, so new drafts never overtake queued ones.
	blocked := func() bool { return sess.Blocked() || state.QueueLen() > 0 }
	m.ctrl = dispatch.New(state, blocked, sess, dispatch.WithScrollFollower(pane))
	return m, nil
}

// Controller exposes the dispatch controller (used by tests and the CLI).
func (m *Model) Controller() *dispatch.Controller { return m.ctrl }

// Run starts the TUI and blocks until it exits.
func Run(m *Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init starts listening for session events.
func (m *Model) Init() tea.Cmd {
	return waitForEvent(m.sess.Events())
}

func waitForEvent(ch <-chan session.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return sessionClosedMsg{}
		}
		return sessionEventMsg{event: ev}
	}
}

// Update handles keys, resizes, picker results and session events.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case sessionEventMsg:
		m.handleSessionEvent(msg.event)
		return m, waitForEvent(m.sess.Events())
	case sessionClosedMsg:
		m.closed = true
		m.sending = false
		return m, nil
	case attachResultMsg:
		m.applyAttachResult(msg)
		return m, nil
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c":
		return tea.Quit
	case "enter", "ctrl+j":
		return m.submit()
	case "alt+enter":
		m.editText(func(s string) string { return s + "\n" })
		return nil
	case "backspace", "ctrl+h":
		m.editText(dropLastRune)
		return nil
	case "esc":
		m.ctrl.DismissQuote()
		m.afterEdit()
		return nil
	case "ctrl+x":
		if n := m.ctrl.ClearQueue(); n > 0 {
			m.setStatus(fmt.Sprintf("Discarded %s", pluralize(n, "queued message")), false)
		}
		return nil
	case "ctrl+r":
		m.quoteLastReply()
		return nil
	case "ctrl+u":
		m.ctrl.Edit(func(s *compose.State) {
			s.SetImages(nil)
			s.SetFiles(nil)
		})
		m.afterEdit()
		return nil
	case "pgup":
		m.pane.scroll(m.pane.height/2+1, len(m.pane.lines(nil, m.showTimestamps)))
		return nil
	case "pgdown":
		m.pane.scroll(-(m.pane.height/2 + 1), len(m.pane.lines(nil, m.showTimestamps)))
		return nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		if len(msg.Runes) == 0 {
			return nil
		}
		r := string(msg.Runes)
		m.editText(func(s string) string { return s + r })
	case tea.KeySpace:
		m.editText(func(s string) string { return s + " " })
	}
	return nil
}

func (m *Model) editText(fn func(string) string) {
	m.ctrl.Edit(func(s *compose.State) { s.SetText(fn(s.Text())) })
	m.afterEdit()
}

// afterEdit reports the input height so the transcript can stay pinned.
func (m *Model) afterEdit() {
	m.ctrl.NotifyHeightChange(m.inputHeight(), m.pane.atBottom())
	m.layout()
}

func (m *Model) submit() tea.Cmd {
	text := strings.TrimSpace(m.ctrl.Snapshot().Draft.Text)
	if paths, ok := parseAttachCommand(text); ok {
		return m.pickCmd(paths)
	}

	if m.sending {
		m.setStatus("Still sending the previous message", false)
		return nil
	}

	out := m.ctrl.Submit()
	switch out.Decision {
	case dispatch.DecisionEnqueue:
		m.setStatus(fmt.Sprintf("Queued until %s is idle", m.agentName), false)
		m.drainQueue()
	case dispatch.DecisionSendNow:
		m.sending = true
		m.setStatus("Sending...", false)
	}
	m.afterEdit()
	return nil
}

func parseAttachCommand(text string) ([]string, bool) {
	if text != attachCommand && !strings.HasPrefix(text, attachCommand+" ") {
		return nil, false
	}
	return strings.Fields(strings.TrimPrefix(text, attachCommand)), true
}

func (m *Model) pickCmd(paths []string) tea.Cmd {
	view := m.ctrl.Snapshot()
	if attach.Disabled(len(view.Draft.Images), m.maxImages) {
		m.setStatus(fmt.Sprintf("At most %d images per message", m.maxImages), true)
		return nil
	}
	if len(paths) == 0 {
		m.setStatus("Usage: /attach <path> [path...]", true)
		return nil
	}
	picker := m.picker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), pickTimeout)
		defer cancel()
		sel, err := picker.Select(ctx, paths)
		return attachResultMsg{sel: sel, err: err}
	}
}

func (m *Model) applyAttachResult(msg attachResultMsg) {
	if msg.err != nil {
		m.setStatus(msg.err.Error(), true)
		return
	}
	var dropped int
	m.ctrl.Edit(func(s *compose.State) {
		images, files, n := attach.Merge(s.Images(), s.Files(), msg.sel, m.maxImages)
		s.SetImages(images)
		s.SetFiles(files)
		dropped = n
		if parsed, ok := parseAttachCommand(strings.TrimSpace(s.Text())); ok && len(parsed) > 0 {
			s.SetText("")
		}
	})
	status := fmt.Sprintf("Attached %s", pluralize(msg.sel.Len(), "file"))
	if dropped > 0 {
		status += fmt.Sprintf(" (%d over the image limit skipped)", dropped)
	}
	m.setStatus(status, false)
	m.afterEdit()
}

func (m *Model) quoteLastReply() {
	entry, ok := m.pane.lastAgentEntry()
	if !ok {
		m.setStatus("Nothing to quote yet", true)
		return
	}
	m.ctrl.QuoteMessage(compose.Quote{MessageID: entry.id, Text: entry.text})
	m.afterEdit()
}

func (m *Model) handleSessionEvent(ev session.Event) {
	switch ev.Kind {
	case session.EventDelivered:
		m.pane.append(paneEntry{
			id:     ev.MessageID,
			role:   transcript.RoleUser,
			text:   ev.Draft.Text,
			attach: len(ev.Draft.Images) + len(ev.Draft.Files),
			at:     time.Now(),
		})
		if ev.Origin == session.OriginDraft {
			m.sending = false
			m.ctrl.CompleteSend(ev.Draft)
			m.afterEdit()
		}
		m.setStatus(fmt.Sprintf("Waiting for %s...", m.agentName), false)
	case session.EventReply:
		m.pane.append(paneEntry{id: ev.ReplyID, role: transcript.RoleAgent, text: ev.Reply, at: time.Now()})
		m.setStatus("", false)
		m.drainQueue()
	case session.EventFailed:
		if ev.Origin == session.OriginDraft {
			m.sending = false
		}
		m.logger.Warn().Err(ev.Err).Str("message_id", ev.MessageID).Msg("send failed")
		switch {
		case ev.Delivered:
			m.setStatus(fmt.Sprintf("%s did not reply: %v", m.agentName, ev.Err), true)
		case ev.Origin == session.OriginQueue:
			m.setStatus(fmt.Sprintf("Queued message %q was not sent: %v", logging.Preview(ev.Draft.Text, 24), ev.Err), true)
		default:
			m.setStatus(fmt.Sprintf("Send failed, draft kept: %v", ev.Err), true)
		}
		m.drainQueue()
	}
	if m.pane.atBottom() {
		m.pane.ScrollToBottom()
	}
}

// drainQueue hands the oldest queued message to the session once it is idle.
func (m *Model) drainQueue() {
	if m.sess.Blocked() {
		return
	}
	next, ok := m.ctrl.TakeNext()
	if !ok {
		return
	}
	m.sess.SendQueued(next)
}

func (m *Model) setStatus(text string, isErr bool) {
	m.status = text
	m.statusErr = isErr
}

func (m *Model) inputHeight() int {
	view := m.ctrl.Snapshot()
	h := strings.Count(view.Draft.Text, "\n") + 1
	if len(view.Draft.Images)+len(view.Draft.Files) > 0 {
		h++
	}
	if view.HasQuote {
		h++
	}
	if view.QueueLen() > 0 {
		h++
	}
	return h
}

func (m *Model) layout() {
	m.pane.width = m.width
	h := m.height - chromeLines - m.inputHeight()
	if h < 1 {
		h = 1
	}
	m.pane.height = h
}

func dropLastRune(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	return string(runes[:len(runes)-1])
}

func pluralize(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
