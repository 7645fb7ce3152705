package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/tOgg1/fchat/internal/compose"
)

type recordingSender struct {
	mu    sync.Mutex
	sent  []compose.Draft
	after func(d compose.Draft)
}

func (r *recordingSender) SendNow(d compose.Draft) {
	r.mu.Lock()
	r.sent = append(r.sent, d)
	after := r.after
	r.mu.Unlock()
	if after != nil {
		after(d)
	}
}

func (r *recordingSender) calls() []compose.Draft {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]compose.Draft(nil), r.sent...)
}

type countingFollower struct{ n int }

func (f *countingFollower) ScrollToBottom() { f.n++ }

func newTestController(blocked *atomic.Bool, sender Sender, opts ...Option) (*Controller, *compose.State) {
	state := compose.New()
	opts = append([]Option{WithLogger(zerolog.Nop())}, opts...)
	return New(state, blocked.Load, sender, opts...), state
}

func queuedTexts(v View) []string {
	out := make([]string, 0, len(v.Queue))
	for _, q := range v.Queue {
		out = append(out, q.Text())
	}
	return out
}

func TestDecide(t *testing.T) {
	require.Equal(t, DecisionEnqueue, Decide(true))
	require.Equal(t, DecisionSendNow, Decide(false))
	require.Equal(t, "enqueue", DecisionEnqueue.String())
	require.Equal(t, "send_now", DecisionSendNow.String())
	require.Equal(t, "unknown", Decision(42).String())
}

func TestSubmitWhileBlockedQueuesAndResets(t *testing.T) {
	var blocked atomic.Bool
	blocked.Store(true)
	sender := &recordingSender{}
	c, state := newTestController(&blocked, sender)

	state.SetText("hello")
	out := c.Submit()

	require.Equal(t, DecisionEnqueue, out.Decision)
	require.Equal(t, 1, out.QueueLen)
	require.Empty(t, sender.calls())

	view := c.Snapshot()
	require.Equal(t, []string{"hello"}, queuedTexts(view))
	require.Empty(t, view.Queue[0].Images())
	require.Empty(t, view.Queue[0].Files())
	require.Equal(t, "", view.Draft.Text)
	require.Empty(t, view.Draft.Images)
	require.Empty(t, view.Draft.Files)
}

func TestSubmitWhileBlockedPreservesOrder(t *testing.T) {
	var blocked atomic.Bool
	blocked.Store(true)
	c, state := newTestController(&blocked, &recordingSender{})

	texts := []string{"a", "b", "c", "d"}
	for i, text := range texts {
		state.SetText(text)
		state.AddImages(text + ".png")
		out := c.Submit()
		require.Equal(t, i+1, out.QueueLen)
		require.True(t, c.Snapshot().Draft.IsEmpty())
	}

	view := c.Snapshot()
	require.Equal(t, texts, queuedTexts(view))
	require.Equal(t, []string{"c.png"}, view.Queue[2].Images())
}

func TestSubmitWhenIdleSendsWithoutReset(t *testing.T) {
	var blocked atomic.Bool
	sender := &recordingSender{}
	c, state := newTestController(&blocked, sender)

	state.SetText("ping")
	state.SetImages([]string{"shot.png"})
	state.SetFiles([]string{"main.go"})
	out := c.Submit()

	require.Equal(t, DecisionSendNow, out.Decision)
	want := []compose.Draft{{Text: "ping", Images: []string{"shot.png"}, Files: []string{"main.go"}}}
	if diff := cmp.Diff(want, sender.calls()); diff != "" {
		t.Fatalf("sent drafts mismatch (-want +got):\n%s", diff)
	}

	view := c.Snapshot()
	require.Equal(t, 0, view.QueueLen())
	require.Equal(t, "ping", view.Draft.Text)
	require.Equal(t, []string{"shot.png"}, view.Draft.Images)
}

func TestSubmitSendsEmptyDraft(t *testing.T) {
	var blocked atomic.Bool
	sender := &recordingSender{}
	c, _ := newTestController(&blocked, sender)

	c.Submit()
	require.Len(t, sender.calls(), 1)
	require.Equal(t, "", sender.calls()[0].Text)
}

func TestSubmitReadsBlockedAtCallTime(t *testing.T) {
	var blocked atomic.Bool
	sender := &recordingSender{after: func(compose.Draft) { blocked.Store(true) }}
	c, state := newTestController(&blocked, sender)

	state.SetText("first")
	require.Equal(t, DecisionSendNow, c.Submit().Decision)

	state.SetText("second")
	require.Equal(t, DecisionEnqueue, c.Submit().Decision)

	blocked.Store(false)
	state.SetText("third")
	require.Equal(t, DecisionSendNow, c.Submit().Decision)

	require.Len(t, sender.calls(), 2)
	require.Equal(t, []string{"second"}, queuedTexts(c.Snapshot()))
}

func TestSentDraftDoesNotAliasState(t *testing.T) {
	var blocked atomic.Bool
	sender := &recordingSender{}
	c, state := newTestController(&blocked, sender)

	state.SetImages([]string{"a.png"})
	c.Submit()
	sender.calls()[0].Images[0] = "mutated.png"

	require.Equal(t, []string{"a.png"}, c.Snapshot().Draft.Images)
}

func TestQueuedSnapshotSurvivesLaterEdits(t *testing.T) {
	var blocked atomic.Bool
	blocked.Store(true)
	c, state := newTestController(&blocked, nil)

	state.SetText("original")
	state.SetFiles([]string{"a.txt"})
	out := c.Submit()

	c.Edit(func(s *compose.State) {
		s.SetText("edited")
		s.AddFiles("b.txt")
	})

	head := c.Snapshot().Queue[0]
	require.Equal(t, out.Queued.ID(), head.ID())
	require.Equal(t, "original", head.Text())
	require.Equal(t, []string{"a.txt"}, head.Files())
}

func TestCompleteSendResetsOnlyMatchingDraft(t *testing.T) {
	var blocked atomic.Bool
	sender := &recordingSender{}
	c, state := newTestController(&blocked, sender)

	state.SetText("ping")
	c.Submit()
	sent := sender.calls()[0]

	c.Edit(func(s *compose.State) { s.SetText("ping, and more") })
	require.False(t, c.CompleteSend(sent))
	require.Equal(t, "ping, and more", c.Snapshot().Draft.Text)

	c.Edit(func(s *compose.State) { s.SetText("ping") })
	require.True(t, c.CompleteSend(sent))
	require.True(t, c.Snapshot().Draft.IsEmpty())
}

func TestSenderMayCompleteSynchronously(t *testing.T) {
	var blocked atomic.Bool
	sender := &recordingSender{}
	c, state := newTestController(&blocked, sender)
	sender.after = func(d compose.Draft) { c.CompleteSend(d) }

	state.SetText("instant")
	c.Submit()
	require.True(t, c.Snapshot().Draft.IsEmpty())
}

func TestClearQueue(t *testing.T) {
	var blocked atomic.Bool
	blocked.Store(true)
	c, state := newTestController(&blocked, nil)

	require.False(t, c.CanClearQueue())
	require.Equal(t, 0, c.ClearQueue())

	state.SetText("a")
	c.Submit()
	state.SetText("b")
	c.Submit()
	c.Edit(func(s *compose.State) { s.SetText("draft stays") })

	require.True(t, c.CanClearQueue())
	require.Equal(t, 2, c.ClearQueue())
	require.False(t, c.CanClearQueue())
	require.Equal(t, 0, c.Snapshot().QueueLen())
	require.Equal(t, "draft stays", c.Snapshot().Draft.Text)
}

func TestDismissQuoteIsIndependent(t *testing.T) {
	var blocked atomic.Bool
	blocked.Store(true)
	c, state := newTestController(&blocked, nil)

	c.DismissQuote()
	require.False(t, c.Snapshot().HasQuote)

	state.SetText("queued")
	c.Submit()
	c.QuoteMessage(compose.Quote{MessageID: "m1", Text: "earlier"})
	c.Edit(func(s *compose.State) { s.SetText("typing") })

	require.True(t, c.Snapshot().HasQuote)
	c.DismissQuote()

	view := c.Snapshot()
	require.False(t, view.HasQuote)
	require.Equal(t, "typing", view.Draft.Text)
	require.Equal(t, []string{"queued"}, queuedTexts(view))
}

func TestSubmitKeepsQuote(t *testing.T) {
	var blocked atomic.Bool
	blocked.Store(true)
	c, _ := newTestController(&blocked, nil)
	c.QuoteMessage(compose.Quote{Text: "context"})

	c.Submit()
	require.True(t, c.Snapshot().HasQuote)
}

func TestTakeNextDrainsFIFO(t *testing.T) {
	var blocked atomic.Bool
	blocked.Store(true)
	c, state := newTestController(&blocked, nil)
	for _, text := range []string{"one", "two"} {
		state.SetText(text)
		c.Submit()
	}

	first, ok := c.TakeNext()
	require.True(t, ok)
	require.Equal(t, "one", first.Text())
	second, ok := c.TakeNext()
	require.True(t, ok)
	require.Equal(t, "two", second.Text())
	_, ok = c.TakeNext()
	require.False(t, ok)
}

func TestConcurrentSubmitsAreSerialized(t *testing.T) {
	var blocked atomic.Bool
	var sends atomic.Int32
	c, _ := newTestController(&blocked, nil)
	c.sender = SenderFunc(func(compose.Draft) {
		sends.Add(1)
		blocked.Store(true)
	})

	const n = 50
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Submit()
		}()
	}
	wg.Wait()

	require.EqualValues(t, 1, sends.Load())
	require.Equal(t, n-1, c.Snapshot().QueueLen())
}

func TestNotifyHeightChange(t *testing.T) {
	var blocked atomic.Bool
	follower := &countingFollower{}
	c, _ := newTestController(&blocked, nil, WithScrollFollower(follower))

	require.True(t, c.NotifyHeightChange(3, true))
	require.False(t, c.NotifyHeightChange(3, true))
	require.False(t, c.NotifyHeightChange(4, false))
	require.True(t, c.NotifyHeightChange(2, true))
	require.Equal(t, 2, follower.n)
}

func TestSnapshotIsACopy(t *testing.T) {
	var blocked atomic.Bool
	blocked.Store(true)
	c, state := newTestController(&blocked, nil)
	state.SetText("x")
	c.Submit()

	view := c.Snapshot()
	view.Queue = nil
	view.Draft.Text = "changed"

	again := c.Snapshot()
	if diff := cmp.Diff([]string{"x"}, queuedTexts(again), cmpopts.EquateEmpty()); diff != "" {
		t.Fatalf("queue mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, "", again.Draft.Text)
}
