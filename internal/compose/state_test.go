package compose

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSettersCopyIncomingSlices(t *testing.T) {
	s := New()
	images := []string{"a.png"}
	files := []string{"notes.txt"}
	s.SetImages(images)
	s.SetFiles(files)

	images[0] = "mutated.png"
	files[0] = "mutated.txt"

	require.Equal(t, []string{"a.png"}, s.Images())
	require.Equal(t, []string{"notes.txt"}, s.Files())
}

func TestDraftWritesDoNotTouchQueue(t *testing.T) {
	s := New()
	s.SetText("first")
	s.Enqueue(s.Draft())
	require.Equal(t, 1, s.QueueLen())

	s.SetText("second")
	s.AddImages("b.png")
	s.AddFiles("c.go")
	s.ResetDraft()
	require.Equal(t, 1, s.QueueLen())
	require.Equal(t, "first", s.QueuedMessages()[0].Text())
}

func TestQueueWritesDoNotTouchDraft(t *testing.T) {
	s := New()
	s.SetText("keep me")
	s.AddImages("x.png")
	s.Enqueue(Draft{Text: "other"})
	s.ClearQueue()
	_, _ = s.TakeNext()

	require.Equal(t, "keep me", s.Text())
	require.Equal(t, []string{"x.png"}, s.Images())
}

func TestEnqueueSnapshotIsImmutable(t *testing.T) {
	s := New()
	s.SetText("hello")
	s.SetImages([]string{"cat.png"})
	s.SetFiles([]string{"main.go"})

	d := s.Draft()
	msg := s.Enqueue(d)

	d.Images[0] = "dog.png"
	s.SetText("changed")
	s.AddImages("more.png")
	s.AddFiles("more.go")
	msg.Images()[0] = "tampered.png"

	queued := s.QueuedMessages()[0]
	require.Equal(t, "hello", queued.Text())
	require.Equal(t, []string{"cat.png"}, queued.Images())
	require.Equal(t, []string{"main.go"}, queued.Files())
	require.NotEmpty(t, queued.ID())
}

func TestQueueIsFIFO(t *testing.T) {
	s := New()
	for _, text := range []string{"a", "b", "c"} {
		s.Enqueue(Draft{Text: text})
	}

	var got []string
	for {
		msg, ok := s.TakeNext()
		if !ok {
			break
		}
		got = append(got, msg.Text())
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.Equal(t, 0, s.QueueLen())
}

func TestClearQueue(t *testing.T) {
	s := New()
	require.Equal(t, 0, s.ClearQueue())

	s.Enqueue(Draft{Text: "a"})
	s.Enqueue(Draft{Text: "b"})
	require.Equal(t, 2, s.ClearQueue())
	require.Equal(t, 0, s.QueueLen())
	require.Empty(t, s.QueuedMessages())
}

func TestQuoteLifecycle(t *testing.T) {
	s := New()
	_, ok := s.ActiveQuote()
	require.False(t, ok)

	s.SetQuote(Quote{MessageID: "m1", Text: "earlier reply"})
	q, ok := s.ActiveQuote()
	require.True(t, ok)
	require.Equal(t, "earlier reply", q.Text)

	s.ClearQuote()
	_, ok = s.ActiveQuote()
	require.False(t, ok)
}

func TestEnqueueUsesClock(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s := New()
	s.SetClock(func() time.Time { return at })

	msg := s.Enqueue(Draft{Text: "stamped"})
	require.Equal(t, at, msg.QueuedAt())
}

func TestDraftEqual(t *testing.T) {
	a := Draft{Text: "x"}
	b := Draft{Text: "x", Images: []string{}, Files: []string{}}
	require.True(t, a.Equal(b))
	require.False(t, a.IsEmpty())
	require.True(t, Draft{}.IsEmpty())

	b.Files = append(b.Files, "f")
	require.False(t, a.Equal(b))
}
