package escalation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store persists incidents and the rate-limit records an independent
// request-gating layer reads to enforce blocks. The machine decides
// policy; this store only records it.
type Store struct {
	db *sql.DB
}

// NewStore creates an escalation store over db, running migrations on
// first use.
func NewStore(db *sql.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate escalation: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS incidents (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			incident_type TEXT NOT NULL,
			strike_count  INTEGER NOT NULL,
			status        TEXT NOT NULL,
			action_taken  TEXT NOT NULL,
			blocked_until TIMESTAMP,
			created_at    TIMESTAMP NOT NULL,
			updated_at    TIMESTAMP NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_incidents_user_type
			ON incidents(user_id, incident_type, created_at);

		CREATE TABLE IF NOT EXISTS rate_limits (
			user_id       TEXT NOT NULL,
			endpoint      TEXT NOT NULL,
			blocked_until TIMESTAMP,
			updated_at    TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, endpoint)
		);
	`)
	return err
}

// LatestOpen returns the most recent unresolved incident for the
// (userID, incidentType) pair, or nil when none exists. Incident rows
// are history: resolved rows are skipped, never reused.
func (s *Store) LatestOpen(ctx context.Context, userID, incidentType string) (*Incident, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, incident_type, strike_count, status,
		       action_taken, blocked_until, created_at, updated_at
		FROM incidents
		WHERE user_id = ? AND incident_type = ? AND status != 'resolved'
		ORDER BY created_at DESC
		LIMIT 1
	`, userID, incidentType)

	var inc Incident
	var blockedUntil sql.NullTime
	err := row.Scan(&inc.ID, &inc.UserID, &inc.IncidentType, &inc.StrikeCount,
		&inc.Status, &inc.ActionTaken, &blockedUntil, &inc.CreatedAt, &inc.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query open incident: %w", err)
	}
	if blockedUntil.Valid {
		inc.BlockedUntil = &blockedUntil.Time
	}
	return &inc, nil
}

// Insert writes a new incident row, assigning its id.
func (s *Store) Insert(ctx context.Context, inc *Incident) error {
	id, _ := uuid.NewV7()
	inc.ID = id.String()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO incidents
			(id, user_id, incident_type, strike_count, status,
			 action_taken, blocked_until, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, inc.ID, inc.UserID, inc.IncidentType, inc.StrikeCount, inc.Status,
		inc.ActionTaken, nullableTime(inc.BlockedUntil), inc.CreatedAt, inc.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert incident: %w", err)
	}
	return nil
}

// Update rewrites the mutable fields of an existing incident row.
func (s *Store) Update(ctx context.Context, inc *Incident) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE incidents
		SET strike_count = ?, status = ?, action_taken = ?,
		    blocked_until = ?, updated_at = ?
		WHERE id = ?
	`, inc.StrikeCount, inc.Status, inc.ActionTaken,
		nullableTime(inc.BlockedUntil), inc.UpdatedAt, inc.ID)
	if err != nil {
		return fmt.Errorf("update incident: %w", err)
	}
	return nil
}

// UpsertRateLimit writes through the block decision so the request
// gate can enforce it. A nil blockedUntil clears any standing block.
func (s *Store) UpsertRateLimit(ctx context.Context, userID, endpoint string, blockedUntil *time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rate_limits (user_id, endpoint, blocked_until, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, endpoint) DO UPDATE
		SET blocked_until = excluded.blocked_until, updated_at = excluded.updated_at
	`, userID, endpoint, nullableTime(blockedUntil), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert rate limit: %w", err)
	}
	return nil
}

// BlockedUntil returns the standing block expiry for (userID, endpoint),
// or nil when the user is not blocked.
func (s *Store) BlockedUntil(ctx context.Context, userID, endpoint string) (*time.Time, error) {
	var blockedUntil sql.NullTime
	err := s.db.QueryRowContext(ctx, `
		SELECT blocked_until FROM rate_limits WHERE user_id = ? AND endpoint = ?
	`, userID, endpoint).Scan(&blockedUntil)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query rate limit: %w", err)
	}
	if !blockedUntil.Valid {
		return nil, nil
	}
	return &blockedUntil.Time, nil
}

// History returns all incident rows for a user, newest first, for the
// admin review surface.
func (s *Store) History(ctx context.Context, userID string, limit int) ([]Incident, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, incident_type, strike_count, status,
		       action_taken, blocked_until, created_at, updated_at
		FROM incidents
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("query incident history: %w", err)
	}
	defer rows.Close()

	var incidents []Incident
	for rows.Next() {
		var inc Incident
		var blockedUntil sql.NullTime
		if err := rows.Scan(&inc.ID, &inc.UserID, &inc.IncidentType, &inc.StrikeCount,
			&inc.Status, &inc.ActionTaken, &blockedUntil, &inc.CreatedAt, &inc.UpdatedAt); err != nil {
			continue
		}
		if blockedUntil.Valid {
			inc.BlockedUntil = &blockedUntil.Time
		}
		incidents = append(incidents, inc)
	}
	return incidents, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
