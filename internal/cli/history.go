package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/fchat/internal/config"
	"github.com/tOgg1/fchat/internal/transcript"
)

type historyOptions struct {
	limit   int
	session string
	all     bool
	json    bool
}

func newHistoryCmd(a *app) *cobra.Command {
	opts := &historyOptions{}
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show delivered messages",
		Long:  "Show delivered messages from the transcript, oldest first. Queued messages that were never sent do not appear.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runHistory(cmd, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 20, "maximum number of entries")
	cmd.Flags().StringVar(&opts.session, "session", "", "session id (default: most recent session)")
	cmd.Flags().BoolVar(&opts.all, "all", false, "include every session")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output as JSON")
	return cmd
}

func (a *app) runHistory(cmd *cobra.Command, opts *historyOptions) error {
	if opts.limit <= 0 {
		return fmt.Errorf("--limit must be positive")
	}

	sessionID := opts.session
	if sessionID == "" && !opts.all {
		last, err := config.NewContextStore(a.cfg.ContextPath()).Load()
		if err != nil {
			return err
		}
		sessionID = last.SessionID
	}

	store, err := transcript.Open(a.cfg.TranscriptPath())
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.Recent(contextOrBackground(cmd), sessionID, opts.limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if opts.json {
		return writeHistoryJSON(out, entries)
	}
	return writeHistory(out, entries)
}

type historyRecord struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Text      string    `json:"text"`
	Images    []string  `json:"images,omitempty"`
	Files     []string  `json:"files,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func writeHistoryJSON(out io.Writer, entries []transcript.Entry) error {
	records := make([]historyRecord, 0, len(entries))
	for _, e := range entries {
		records = append(records, historyRecord{
			ID:        e.ID,
			SessionID: e.SessionID,
			Role:      string(e.Role),
			Text:      e.Text,
			Images:    e.Images,
			Files:     e.Files,
			CreatedAt: e.CreatedAt,
		})
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func writeHistory(out io.Writer, entries []transcript.Entry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(out, "No messages yet.")
		return err
	}
	for _, e := range entries {
		line := fmt.Sprintf("%s  %-5s  %s", e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Role, strings.ReplaceAll(e.Text, "\n", " "))
		if n := len(e.Images) + len(e.Files); n > 0 {
			line += fmt.Sprintf("  [+%d attachment(s)]", n)
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
