// Package session runs the agent conversation behind the chat input. It is the
// source of the sending-blocked signal and the immediate-send collaborator for
// dispatch.Controller.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/tOgg1/fchat/internal/compose"
	"github.com/tOgg1/fchat/internal/logging"
	"github.com/tOgg1/fchat/internal/transcript"
)

const eventBuffer = 64

// ErrAttachmentMissing is reported when an attachment disappeared between
// selection and delivery.
var ErrAttachmentMissing = errors.New("attachment no longer exists")

// Origin tells where a delivered draft came from.
type Origin int

const (
	// OriginDraft is a live draft sent straight from the input.
	OriginDraft Origin = iota
	// OriginQueue is a message drained from the queue.
	OriginQueue
)

// EventKind identifies a session event.
type EventKind int

const (
	// EventDelivered means the user message was accepted and recorded.
	EventDelivered EventKind = iota
	// EventReply carries the agent's answer; the session is idle again.
	EventReply
	// EventFailed reports a delivery or reply error; the session is idle again.
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventDelivered:
		return "delivered"
	case EventReply:
		return "reply"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event reports progress of a single delivery.
type Event struct {
	Kind      EventKind
	Origin    Origin
	MessageID string
	// QueueID is set for OriginQueue.
	QueueID string
	// Draft is the content that was handed to the session.
	Draft compose.Draft
	// Reply is set for EventReply.
	Reply   string
	ReplyID string
	// Delivered is true on EventFailed when the user message got through but
	// the reply did not.
	Delivered bool
	Err       error
}

// Message is what the responder sees.
type Message struct {
	ID        string
	SessionID string
	Text      string
	Images    []string
	Files     []string
}

// Responder produces the agent reply for a delivered message.
type Responder interface {
	Respond(ctx context.Context, msg Message) (string, error)
}

// Recorder persists delivered messages. transcript.Store implements it.
type Recorder interface {
	Append(ctx context.Context, entry *transcript.Entry) error
}

// Options configures a Session.
type Options struct {
	ID        string
	Responder Responder
	Recorder  Recorder
	Logger    *zerolog.Logger
}

// Session delivers messages one at a time and reports blocked while a reply
// is outstanding.
type Session struct {
	id        string
	responder Responder
	recorder  Recorder
	logger    zerolog.Logger

	inflight  atomic.Int32
	deliverMu sync.Mutex
	events    chan Event

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// mu orders start against Close so no delivery is added after Close
	// begins waiting.
	mu     sync.Mutex
	closed bool
}

// New creates a session. A nil responder uses EchoResponder.
func New(opts Options) *Session {
	id := opts.ID
	if id == "" {
		id = uuid.New().String()
	}
	responder := opts.Responder
	if responder == nil {
		responder = EchoResponder{}
	}
	logger := logging.WithSession(id).With().Str("component", "session").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:        id,
		responder: responder,
		recorder:  opts.Recorder,
		logger:    logger,
		events:    make(chan Event, eventBuffer),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Blocked reports whether a delivery or reply is in flight.
func (s *Session) Blocked() bool { return s.inflight.Load() > 0 }

// Events streams delivery progress. The channel closes after Close.
func (s *Session) Events() <-chan Event { return s.events }

// SendNow delivers a live draft. It marks the session blocked before
// returning; delivery and the reply happen in the background.
func (s *Session) SendNow(d compose.Draft) {
	s.start(d.Clone(), OriginDraft, "")
}

// SendQueued delivers a message taken from the queue.
func (s *Session) SendQueued(q compose.QueuedMessage) {
	s.start(q.Draft(), OriginQueue, q.ID())
}

func (s *Session) start(d compose.Draft, origin Origin, queueID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Warn().Msg("send after close ignored")
		return
	}
	s.inflight.Add(1)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.deliver(d, origin, queueID)
	}()
}

func (s *Session) deliver(d compose.Draft, origin Origin, queueID string) {
	s.deliverMu.Lock()
	defer s.deliverMu.Unlock()

	ev := Event{Origin: origin, QueueID: queueID, Draft: d, MessageID: uuid.New().String()}
	fail := func(err error, delivered bool) {
		s.inflight.Add(-1)
		ev.Kind = EventFailed
		ev.Err = err
		ev.Delivered = delivered
		s.logger.Error().Err(err).Str("message_id", ev.MessageID).Bool("delivered", delivered).Msg("delivery failed")
		s.emit(ev)
	}

	if err := checkAttachments(d); err != nil {
		fail(err, false)
		return
	}

	ctx := logging.WithContext(s.ctx, s.logger)
	if s.recorder != nil {
		entry := &transcript.Entry{
			ID:        ev.MessageID,
			SessionID: s.id,
			Role:      transcript.RoleUser,
			Text:      d.Text,
			Images:    d.Images,
			Files:     d.Files,
		}
		if err := s.recorder.Append(ctx, entry); err != nil {
			fail(fmt.Errorf("failed to record message: %w", err), false)
			return
		}
	}
	delivered := ev
	delivered.Kind = EventDelivered
	s.emit(delivered)
	s.logger.Debug().
		Str("message_id", ev.MessageID).
		Str("preview", logging.Preview(d.Text, 40)).
		Msg("message delivered")

	reply, err := s.responder.Respond(ctx, Message{
		ID:        ev.MessageID,
		SessionID: s.id,
		Text:      d.Text,
		Images:    d.Images,
		Files:     d.Files,
	})
	if err != nil {
		fail(fmt.Errorf("agent reply failed: %w", err), true)
		return
	}

	ev.Kind = EventReply
	ev.Reply = reply
	ev.ReplyID = uuid.New().String()
	if s.recorder != nil {
		entry := &transcript.Entry{ID: ev.ReplyID, SessionID: s.id, Role: transcript.RoleAgent, Text: reply}
		if err := s.recorder.Append(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Msg("failed to record reply")
		}
	}
	s.inflight.Add(-1)
	s.emit(ev)
}

func (s *Session) emit(ev Event) {
	select {
	case s.events <- ev:
	case <-s.ctx.Done():
	}
}

func checkAttachments(d compose.Draft) error {
	for _, list := range [][]string{d.Images, d.Files} {
		for _, path := range list {
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("%w: %s", ErrAttachmentMissing, path)
			}
		}
	}
	return nil
}

// Close cancels outstanding work, waits for it and closes Events.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
	close(s.events)
}
