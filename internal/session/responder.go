package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tOgg1/fchat/internal/logging"
)

// EchoResponder replies with the message text after Delay. It stands in for
// a real agent backend.
type EchoResponder struct {
	Name  string
	Delay time.Duration
}

// Respond echoes msg back, prefixed with the agent name.
func (r EchoResponder) Respond(ctx context.Context, msg Message) (string, error) {
	if r.Delay > 0 {
		timer := time.NewTimer(r.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	}

	name := r.Name
	if name == "" {
		name = "agent"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", name, strings.TrimSpace(msg.Text))
	if n := len(msg.Images) + len(msg.Files); n > 0 {
		fmt.Fprintf(&b, " (+%d attachment", n)
		if n != 1 {
			b.WriteString("s")
		}
		b.WriteString(")")
	}
	logger := logging.FromContext(ctx)
	logger.Debug().
		Str("message_id", msg.ID).
		Str("preview", logging.Preview(msg.Text, 40)).
		Msg("echo reply")
	return b.String(), nil
}

// ResponderFunc adapts a function to Responder.
type ResponderFunc func(ctx context.Context, msg Message) (string, error)

// Respond calls f.
func (f ResponderFunc) Respond(ctx context.Context, msg Message) (string, error) {
	return f(ctx, msg)
}
