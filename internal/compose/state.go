// Package compose holds the in-progress chat draft and the queue of messages
// deferred while the agent is busy.
package compose

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Draft is the not-yet-dispatched composition.
type Draft struct {
	Text   string   `json:"text"`
	Images []string `json:"images,omitempty"`
	Files  []string `json:"files,omitempty"`
}

// Clone returns a deep copy of the draft.
func (d Draft) Clone() Draft {
	return Draft{
		Text:   d.Text,
		Images: cloneRefs(d.Images),
		Files:  cloneRefs(d.Files),
	}
}

// IsEmpty reports whether the draft carries no text and no attachments.
func (d Draft) IsEmpty() bool {
	return d.Text == "" && len(d.Images) == 0 && len(d.Files) == 0
}

// Equal reports whether both drafts carry the same text and attachments.
// Nil and empty attachment lists compare equal.
func (d Draft) Equal(other Draft) bool {
	return d.Text == other.Text &&
		slices.Equal(d.Images, other.Images) &&
		slices.Equal(d.Files, other.Files)
}

// Quote references a prior message the user is replying to.
type Quote struct {
	MessageID string `json:"message_id,omitempty"`
	Text      string `json:"text"`
}

// QueuedMessage is a snapshot of a draft accepted while sending was blocked.
// Its fields are fixed at enqueue time.
type QueuedMessage struct {
	id       string
	text     string
	images   []string
	files    []string
	queuedAt time.Time
}

func newQueuedMessage(d Draft, at time.Time) QueuedMessage {
	return QueuedMessage{
		id:       uuid.New().String(),
		text:     d.Text,
		images:   cloneRefs(d.Images),
		files:    cloneRefs(d.Files),
		queuedAt: at,
	}
}

// ID is the unique identifier assigned at enqueue time.
func (q QueuedMessage) ID() string { return q.id }

// Text is the message text as it was when queued.
func (q QueuedMessage) Text() string { return q.text }

// Images returns a copy of the queued image references.
func (q QueuedMessage) Images() []string { return cloneRefs(q.images) }

// Files returns a copy of the queued file references.
func (q QueuedMessage) Files() []string { return cloneRefs(q.files) }

// QueuedAt is when the message entered the queue.
func (q QueuedMessage) QueuedAt() time.Time { return q.queuedAt }

// Draft returns the queued content as a fresh draft, ready to hand to a sender.
func (q QueuedMessage) Draft() Draft {
	return Draft{Text: q.text, Images: q.Images(), Files: q.Files()}
}

// State is the composition state of a single chat input.
//
// Draft setters never touch the queue and queue operations never touch the
// draft. State is not safe for concurrent use; dispatch.Controller serializes
// access to it.
type State struct {
	text   string
	images []string
	files  []string

	quote    Quote
	hasQuote bool

	queue []QueuedMessage
	now   func() time.Time
}

// New returns an empty composition state.
func New() *State {
	return &State{
		images: []string{},
		files:  []string{},
		now:    time.Now,
	}
}

// SetClock overrides the time source used to stamp queued messages.
func (s *State) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

// Text returns the draft text.
func (s *State) Text() string { return s.text }

// SetText replaces the draft text.
func (s *State) SetText(text string) { s.text = text }

// Images returns a copy of the selected images.
func (s *State) Images() []string { return cloneRefs(s.images) }

// SetImages replaces the selected images. The slice is copied.
func (s *State) SetImages(images []string) { s.images = cloneRefs(images) }

// AddImages appends to the selected images.
func (s *State) AddImages(images ...string) { s.images = append(s.images, images...) }

// Files returns a copy of the selected files.
func (s *State) Files() []string { return cloneRefs(s.files) }

// SetFiles replaces the selected files. The slice is copied.
func (s *State) SetFiles(files []string) { s.files = cloneRefs(files) }

// AddFiles appends to the selected files.
func (s *State) AddFiles(files ...string) { s.files = append(s.files, files...) }

// Draft returns a deep copy of the live draft.
func (s *State) Draft() Draft {
	return Draft{Text: s.text, Images: s.Images(), Files: s.Files()}
}

// ResetDraft clears text and attachments. The quote and queue are untouched.
func (s *State) ResetDraft() {
	s.text = ""
	s.images = []string{}
	s.files = []string{}
}

// ActiveQuote returns the quote being replied to, if any.
func (s *State) ActiveQuote() (Quote, bool) { return s.quote, s.hasQuote }

// SetQuote makes q the active quote.
func (s *State) SetQuote(q Quote) {
	s.quote = q
	s.hasQuote = true
}

// ClearQuote drops the active quote.
func (s *State) ClearQuote() {
	s.quote = Quote{}
	s.hasQuote = false
}

// Enqueue appends a snapshot of d to the tail of the queue.
func (s *State) Enqueue(d Draft) QueuedMessage {
	msg := newQueuedMessage(d, s.now())
	s.queue = append(s.queue, msg)
	return msg
}

// QueuedMessages returns the queue in FIFO order.
func (s *State) QueuedMessages() []QueuedMessage {
	return slices.Clone(s.queue)
}

// QueueLen is the number of queued messages.
func (s *State) QueueLen() int { return len(s.queue) }

// ClearQueue drops every queued message and returns how many were dropped.
func (s *State) ClearQueue() int {
	n := len(s.queue)
	s.queue = nil
	return n
}

// TakeNext removes and returns the head of the queue.
func (s *State) TakeNext() (QueuedMessage, bool) {
	if len(s.queue) == 0 {
		return QueuedMessage{}, false
	}
	head := s.queue[0]
	s.queue[0] = QueuedMessage{}
	s.queue = s.queue[1:]
	return head, true
}

func cloneRefs(refs []string) []string {
	if refs == nil {
		return []string{}
	}
	return slices.Clone(refs)
}
