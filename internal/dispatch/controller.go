// Package dispatch decides, for each submit, whether the current draft is sent
// right away or queued until the agent is idle.
package dispatch

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/tOgg1/fchat/internal/compose"
	"github.com/tOgg1/fchat/internal/logging"
)

// Decision is the outcome of resolving a submit trigger.
type Decision int

const (
	// DecisionSendNow hands the draft to the sender and leaves it in place.
	DecisionSendNow Decision = iota
	// DecisionEnqueue snapshots the draft into the queue and clears it.
	DecisionEnqueue
)

// String returns the log name of the decision.
func (d Decision) String() string {
	switch d {
	case DecisionSendNow:
		return "send_now"
	case DecisionEnqueue:
		return "enqueue"
	default:
		return "unknown"
	}
}

// Decide maps the sending-blocked signal to a decision.
func Decide(blocked bool) Decision {
	if blocked {
		return DecisionEnqueue
	}
	return DecisionSendNow
}

// BlockedFunc reports whether sending is currently blocked. It is owned by
// the session layer and read once per submit.
type BlockedFunc func() bool

// Sender delivers a draft immediately. Implementations own delivery errors
// and resetting the draft on success (see Controller.CompleteSend).
type Sender interface {
	SendNow(d compose.Draft)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(d compose.Draft)

// SendNow calls f.
func (f SenderFunc) SendNow(d compose.Draft) { f(d) }

// ScrollFollower is notified when the input grows or shrinks while the
// transcript is pinned to the bottom.
type ScrollFollower interface {
	ScrollToBottom()
}

// Outcome describes what a single Submit did.
type Outcome struct {
	Decision Decision
	// Draft is what was sent (DecisionSendNow) or snapshotted (DecisionEnqueue).
	Draft compose.Draft
	// Queued is set for DecisionEnqueue.
	Queued   compose.QueuedMessage
	QueueLen int
}

// View is a read-only copy of the composition state for renderers.
type View struct {
	Draft    compose.Draft
	Quote    compose.Quote
	HasQuote bool
	Queue    []compose.QueuedMessage
}

// QueueLen is the number of queued messages in the view.
func (v View) QueueLen() int { return len(v.Queue) }

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Controller) { c.logger = logger }
}

// WithScrollFollower sets the scroll-follow collaborator.
func WithScrollFollower(f ScrollFollower) Option {
	return func(c *Controller) { c.follower = f }
}

// Controller owns a compose.State and serializes every transition on it.
type Controller struct {
	// submitMu spans a whole Submit, including the sender call, so two
	// submits never interleave their read-decide-act steps. mu guards state.
	submitMu sync.Mutex
	mu       sync.Mutex
	state    *compose.State
	blocked  BlockedFunc
	sender   Sender
	follower ScrollFollower
	logger   zerolog.Logger

	height int
}

// New creates a controller. A nil blocked func means never blocked; a nil
// state starts from an empty draft.
func New(state *compose.State, blocked BlockedFunc, sender Sender, opts ...Option) *Controller {
	if state == nil {
		state = compose.New()
	}
	if blocked == nil {
		blocked = func() bool { return false }
	}
	c := &Controller{
		state:   state,
		blocked: blocked,
		sender:  sender,
		logger:  logging.Component("dispatch"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit resolves the current draft to either an immediate send or an
// enqueue. Exactly one of the two happens per call.
func (c *Controller) Submit() Outcome {
	c.submitMu.Lock()
	defer c.submitMu.Unlock()

	c.mu.Lock()
	decision := Decide(c.blocked())
	if decision == DecisionEnqueue {
		out := c.enqueueLocked()
		c.mu.Unlock()
		return out
	}
	draft := c.state.Draft()
	queueLen := c.state.QueueLen()
	sender := c.sender
	c.mu.Unlock()

	// The sender may call back into CompleteSend, so mu is not held here.
	if sender != nil {
		sender.SendNow(draft.Clone())
	}
	c.logger.Debug().
		Int("text_len", len(draft.Text)).
		Int("images", len(draft.Images)).
		Int("files", len(draft.Files)).
		Msg("draft sent")
	return Outcome{Decision: DecisionSendNow, Draft: draft, QueueLen: queueLen}
}

func (c *Controller) enqueueLocked() Outcome {
	draft := c.state.Draft()
	queued := c.state.Enqueue(draft)
	c.state.ResetDraft()
	n := c.state.QueueLen()
	c.logger.Info().
		Str("queue_id", queued.ID()).
		Int("text_len", len(draft.Text)).
		Int("queue_len", n).
		Msg("message queued")
	return Outcome{Decision: DecisionEnqueue, Draft: draft, Queued: queued, QueueLen: n}
}

// CompleteSend is called by a sender after a successful delivery. The draft
// is reset only if it still holds what was sent.
func (c *Controller) CompleteSend(sent compose.Draft) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.state.Draft().Equal(sent) {
		return false
	}
	c.state.ResetDraft()
	return true
}

// CanClearQueue reports whether the clear-queue affordance should be shown.
func (c *Controller) CanClearQueue() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.QueueLen() > 0
}

// ClearQueue discards every queued message. Discarded messages cannot be
// recovered. Returns the number dropped; zero on an empty queue.
func (c *Controller) ClearQueue() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.state.ClearQueue()
	if n > 0 {
		c.logger.Info().Int("dropped", n).Msg("queue cleared")
	}
	return n
}

// TakeNext pops the oldest queued message.
func (c *Controller) TakeNext() (compose.QueuedMessage, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	msg, ok := c.state.TakeNext()
	if ok {
		c.logger.Info().
			Str("queue_id", msg.ID()).
			Int("queue_len", c.state.QueueLen()).
			Msg("message dequeued")
	}
	return msg, ok
}

// DismissQuote clears the active quote. Draft and queue are untouched.
func (c *Controller) DismissQuote() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.ClearQuote()
}

// QuoteMessage makes q the active quote, replacing any previous one.
func (c *Controller) QuoteMessage(q compose.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.SetQuote(q)
}

// Edit applies a user edit to the state under the controller lock.
func (c *Controller) Edit(fn func(s *compose.State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.state)
}

// NotifyHeightChange records the rendered input height. When it differs from
// the previous height and the transcript was at the bottom, the scroll
// follower is told to stay there.
func (c *Controller) NotifyHeightChange(height int, atBottom bool) bool {
	c.mu.Lock()
	changed := height != c.height
	c.height = height
	follower := c.follower
	c.mu.Unlock()

	if !changed || !atBottom || follower == nil {
		return false
	}
	follower.ScrollToBottom()
	return true
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	q, ok := c.state.ActiveQuote()
	return View{
		Draft:    c.state.Draft(),
		Quote:    q,
		HasQuote: ok,
		Queue:    c.state.QueuedMessages(),
	}
}
