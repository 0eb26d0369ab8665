// Package reflection keeps the append-only journal of autonomous
// decisions: what an agent did, why, with what confidence, and what
// evidence would change its mind. Entries are immutable once written
// and feed context back into future persona prompts; nothing in the
// control flow depends on them.
package reflection

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Entry is one recorded decision. Confidence is clamped into [0,1] at
// write time.
type Entry struct {
	ID                  string    `json:"id"`
	EmployeeID          string    `json:"employee_id"`
	ActionRef           string    `json:"action_ref"`
	Reasoning           string    `json:"reasoning"`
	ExpectedOutcome     string    `json:"expected_outcome"`
	Confidence          float64   `json:"confidence"`
	WhatWouldChangeMind string    `json:"what_would_change_mind"`
	CreatedAt           time.Time `json:"created_at"`
}

// Journal is the SQLite-backed append-only decision log.
type Journal struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewJournal creates a journal over db, running migrations on first use.
func NewJournal(db *sql.DB, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.Default()
	}
	j := &Journal{db: db, logger: logger.With("component", "reflection")}
	if err := j.migrate(); err != nil {
		return nil, fmt.Errorf("migrate reflections: %w", err)
	}
	return j, nil
}

func (j *Journal) migrate() error {
	_, err := j.db.Exec(`
		CREATE TABLE IF NOT EXISTS reflections (
			id                     TEXT PRIMARY KEY,
			employee_id            TEXT NOT NULL,
			action_ref             TEXT NOT NULL,
			reasoning              TEXT NOT NULL,
			expected_outcome       TEXT NOT NULL,
			confidence             REAL NOT NULL,
			what_would_change_mind TEXT NOT NULL,
			created_at             TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_reflections_employee
			ON reflections(employee_id, created_at);
	`)
	return err
}

// Record appends one entry. The id and timestamp are assigned here;
// entries are never updated or deleted afterward.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.EmployeeID == "" {
		return fmt.Errorf("reflection entry requires employee_id")
	}
	if e.Confidence < 0 {
		e.Confidence = 0
	}
	if e.Confidence > 1 {
		e.Confidence = 1
	}

	id, _ := uuid.NewV7()
	_, err := j.db.ExecContext(ctx, `
		INSERT INTO reflections
			(id, employee_id, action_ref, reasoning, expected_outcome,
			 confidence, what_would_change_mind, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id.String(), e.EmployeeID, e.ActionRef, e.Reasoning, e.ExpectedOutcome,
		e.Confidence, e.WhatWouldChangeMind, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert reflection: %w", err)
	}
	return nil
}

// Recent returns the newest n entries for an employee, newest first.
func (j *Journal) Recent(ctx context.Context, employeeID string, n int) ([]Entry, error) {
	if n <= 0 {
		n = 5
	}
	rows, err := j.db.QueryContext(ctx, `
		SELECT id, employee_id, action_ref, reasoning, expected_outcome,
		       confidence, what_would_change_mind, created_at
		FROM reflections
		WHERE employee_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, employeeID, n)
	if err != nil {
		return nil, fmt.Errorf("query reflections: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.ActionRef, &e.Reasoning,
			&e.ExpectedOutcome, &e.Confidence, &e.WhatWouldChangeMind, &e.CreatedAt); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ContextBlock renders the employee's recent entries as a prompt
// fragment, oldest first so the narrative reads forward. Returns empty
// string when there is no history or the read fails (prompt context is
// advisory, never an error path).
func (j *Journal) ContextBlock(ctx context.Context, employeeID string, n int) string {
	entries, err := j.Recent(ctx, employeeID, n)
	if err != nil {
		j.logger.Warn("reflection context read failed", "employee_id", employeeID, "error", err)
		return ""
	}
	if len(entries) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("Recent decisions you made:\n")
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		fmt.Fprintf(&b, "- [%s] %s (confidence %.2f). Would change mind if: %s\n",
			e.ActionRef, e.Reasoning, e.Confidence, e.WhatWouldChangeMind)
	}
	return b.String()
}
