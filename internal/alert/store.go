package alert

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry is one conversation-log record: a single admin recipient's
// copy of an alert. Each copy is independently mutable after creation
// (approval status); the prose and the machine-readable payload are
// both stored so a consuming UI can render either.
type Entry struct {
	ID            string     `json:"id"`
	RecipientID   string     `json:"recipient_id"`
	EmployeeID    string     `json:"employee_id"`
	Priority      string     `json:"priority"`
	Content       string     `json:"content"`
	Payload       string     `json:"payload"` // embedded JSON
	NeedsApproval bool       `json:"needs_approval"`
	ApprovedAt    *time.Time `json:"approved_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Store persists the conversation log.
type Store struct {
	db *sql.DB
}

// NewStore creates an alert store over db, running migrations on first use.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate alerts: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS conversation_log (
			id             TEXT PRIMARY KEY,
			recipient_id   TEXT NOT NULL,
			employee_id    TEXT NOT NULL,
			priority       TEXT NOT NULL,
			content        TEXT NOT NULL,
			payload        TEXT NOT NULL,
			needs_approval BOOLEAN NOT NULL DEFAULT FALSE,
			approved_at    TIMESTAMP,
			created_at     TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_conversation_log_recipient
			ON conversation_log(recipient_id, created_at);
	`)
	return err
}

// Append inserts one recipient's copy of an alert, assigning its id.
func (s *Store) Append(ctx context.Context, e *Entry) error {
	id, _ := uuid.NewV7()
	e.ID = id.String()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversation_log
			(id, recipient_id, employee_id, priority, content, payload,
			 needs_approval, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.RecipientID, e.EmployeeID, e.Priority, e.Content, e.Payload,
		e.NeedsApproval, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation entry: %w", err)
	}
	return nil
}

// Approve stamps one entry as approved. Only the recipient's own copy
// changes; other recipients' copies are untouched.
func (s *Store) Approve(ctx context.Context, entryID string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversation_log
		SET approved_at = ?
		WHERE id = ? AND needs_approval = TRUE
	`, time.Now().UTC(), entryID)
	if err != nil {
		return fmt.Errorf("approve entry: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("entry %s not found or does not need approval", entryID)
	}
	return nil
}

// Inbox returns the newest entries for a recipient, newest first.
func (s *Store) Inbox(ctx context.Context, recipientID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient_id, employee_id, priority, content, payload,
		       needs_approval, approved_at, created_at
		FROM conversation_log
		WHERE recipient_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("query inbox: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var approvedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.RecipientID, &e.EmployeeID, &e.Priority,
			&e.Content, &e.Payload, &e.NeedsApproval, &approvedAt, &e.CreatedAt); err != nil {
			continue
		}
		if approvedAt.Valid {
			e.ApprovedAt = &approvedAt.Time
		}
		entries = append(entries, e)
	}
	return entries, nil
}
