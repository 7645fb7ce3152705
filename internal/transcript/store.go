// Package transcript records delivered chat messages in SQLite.
//
// Only delivered traffic is written here; queued messages live in memory
// until they are sent.
package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("transcript store closed")

// Role identifies who authored an entry.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Entry is one delivered message.
type Entry struct {
	ID        string
	SessionID string
	Role      Role
	Text      string
	Images    []string
	Files     []string
	CreatedAt time.Time
}

// Store is a SQLite-backed transcript.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the transcript database at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("transcript path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create transcript directory: %w", err)
	}

	dsn := fmt.Sprintf("%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=synchronous(NORMAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open transcript database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to connect to transcript database: %w", err)
	}

	store := &Store{db: db}
	if err := store.ensureSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *Store) ensureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS transcript_entries (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			id TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			role TEXT NOT NULL,
			body TEXT NOT NULL,
			images TEXT NOT NULL DEFAULT '[]',
			files TEXT NOT NULL DEFAULT '[]',
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS transcript_entries_session_idx ON transcript_entries(session_id, seq)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to initialize transcript schema: %w", err)
		}
	}
	return nil
}

// Append writes an entry. ID and CreatedAt are filled in when empty.
func (s *Store) Append(ctx context.Context, entry *Entry) error {
	if s == nil || s.db == nil {
		return ErrClosed
	}
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	images, err := encodeRefs(entry.Images)
	if err != nil {
		return err
	}
	files, err := encodeRefs(entry.Files)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO transcript_entries (id, session_id, role, body, images, files, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.ID, entry.SessionID, string(entry.Role), entry.Text, images, files,
		entry.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert transcript entry: %w", err)
	}
	return nil
}

// Recent returns up to limit most recent entries, oldest first. An empty
// sessionID spans all sessions.
func (s *Store) Recent(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	if s == nil || s.db == nil {
		return nil, ErrClosed
	}
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, session_id, role, body, images, files, created_at
		FROM transcript_entries`
	args := []any{}
	if sessionID != "" {
		query += ` WHERE session_id = ?`
		args = append(args, sessionID)
	}
	query += ` ORDER BY seq DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transcript: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var role, images, files, ts string
		if err := rows.Scan(&e.ID, &e.SessionID, &role, &e.Text, &images, &files, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan transcript entry: %w", err)
		}
		e.Role = Role(role)
		if e.Images, err = decodeRefs(images); err != nil {
			return nil, err
		}
		if e.Files, err = decodeRefs(files); err != nil {
			return nil, err
		}
		if e.CreatedAt, err = time.Parse(time.RFC3339Nano, ts); err != nil {
			return nil, fmt.Errorf("failed to parse transcript timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read transcript: %w", err)
	}

	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func encodeRefs(refs []string) (string, error) {
	if refs == nil {
		refs = []string{}
	}
	data, err := json.Marshal(refs)
	if err != nil {
		return "", fmt.Errorf("failed to encode attachments: %w", err)
	}
	return string(data), nil
}

func decodeRefs(raw string) ([]string, error) {
	var refs []string
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil, fmt.Errorf("failed to decode attachments: %w", err)
	}
	return refs, nil
}
