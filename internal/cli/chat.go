package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tOgg1/fchat/internal/chattui"
	"github.com/tOgg1/fchat/internal/config"
	"github.com/tOgg1/fchat/internal/logging"
	"github.com/tOgg1/fchat/internal/session"
	"github.com/tOgg1/fchat/internal/transcript"
)

func (a *app) runChat(cmd *cobra.Command, resume bool) error {
	defer a.close()
	if !hasTTY() {
		return &PreflightError{
			Message:  "fchat requires an interactive terminal",
			Hint:     "Run fchat from a terminal, or inspect past messages without one.",
			NextStep: "fchat history",
		}
	}

	cfg := a.cfg
	logger := logging.Component("cli")
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	store, err := transcript.Open(cfg.TranscriptPath())
	if err != nil {
		return err
	}
	defer store.Close()

	contexts := config.NewContextStore(cfg.ContextPath())
	sessionID, err := resumeSessionID(contexts, resume)
	if err != nil {
		return err
	}

	sess := session.New(session.Options{
		ID: sessionID,
		Responder: session.EchoResponder{
			Name:  cfg.Session.AgentName,
			Delay: cfg.Session.ReplyDelay,
		},
		Recorder: store,
	})
	defer sess.Close()

	var history []transcript.Entry
	if sessionID != "" {
		history, err = store.Recent(contextOrBackground(cmd), sessionID, cfg.Transcript.HistoryLimit)
		if err != nil {
			return fmt.Errorf("load history: %w", err)
		}
	}

	current := &config.Context{}
	current.SetSession(sess.ID(), cfg.Session.AgentName)
	if err := contexts.Save(current); err != nil {
		logger.Warn().Err(err).Msg("failed to save session context")
	}

	model, err := chattui.NewModel(sess, chattui.Config{
		Theme:          cfg.TUI.Theme,
		AgentName:      cfg.Session.AgentName,
		MaxImages:      cfg.TUI.MaxImages,
		ShowTimestamps: cfg.TUI.ShowTimestamps,
		History:        history,
	})
	if err != nil {
		return err
	}

	logger.Info().Str("session", sess.ID()).Int("history", len(history)).Msg("starting chat")
	return chattui.Run(model)
}

// resumeSessionID returns the remembered session when resume is set. A fresh
// session is started when nothing is remembered.
func resumeSessionID(store *config.ContextStore, resume bool) (string, error) {
	if !resume {
		return "", nil
	}
	last, err := store.Load()
	if err != nil {
		return "", err
	}
	return last.SessionID, nil
}

func hasTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// contextOrBackground guards commands executed without a context.
func contextOrBackground(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
