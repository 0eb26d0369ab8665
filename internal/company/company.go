// Package company exposes read-only snapshots of slowly-changing
// company aggregates. The rows are owned by an external reporting
// process; this core only reads them to calibrate persona tone and
// prompt context.
package company

import (
	"context"
	"database/sql"
	"fmt"
)

// State is the aggregate mood of the company. StressLevel feeds the
// tone presenter's urgency signal; Momentum and GrowthVelocity are
// prompt context only.
type State struct {
	Momentum       float64 `json:"momentum"`
	StressLevel    float64 `json:"stress_level"`
	GrowthVelocity float64 `json:"growth_velocity"`
}

// Objective is one tracked company goal, read-only from this core.
type Objective struct {
	Title        string  `json:"title"`
	Priority     int     `json:"priority"`
	CurrentValue float64 `json:"current_value"`
	TargetValue  float64 `json:"target_value"`
}

// Provider yields the current snapshot. Implementations must tolerate
// missing data and return zero values rather than failing the caller.
type Provider interface {
	State(ctx context.Context) State
	Objectives(ctx context.Context) []Objective
}

// SQLProvider reads company rows from the shared database. It never
// writes; schema creation is left to the owning process, and absent
// tables or rows degrade to zero-valued snapshots.
type SQLProvider struct {
	db *sql.DB
}

// NewSQLProvider creates a read-only provider over db.
func NewSQLProvider(db *sql.DB) *SQLProvider {
	return &SQLProvider{db: db}
}

// State returns the current company state, or a zero State when the
// row is missing or unreadable.
func (p *SQLProvider) State(ctx context.Context) State {
	var s State
	err := p.db.QueryRowContext(ctx, `
		SELECT momentum, stress_level, growth_velocity
		FROM company_state
		ORDER BY updated_at DESC
		LIMIT 1
	`).Scan(&s.Momentum, &s.StressLevel, &s.GrowthVelocity)
	if err != nil {
		return State{}
	}
	return s
}

// Objectives returns the tracked objectives ordered by priority, or
// nil when none can be read.
func (p *SQLProvider) Objectives(ctx context.Context) []Objective {
	rows, err := p.db.QueryContext(ctx, `
		SELECT title, priority, current_value, target_value
		FROM objectives
		ORDER BY priority ASC
	`)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var objectives []Objective
	for rows.Next() {
		var o Objective
		if err := rows.Scan(&o.Title, &o.Priority, &o.CurrentValue, &o.TargetValue); err != nil {
			continue
		}
		objectives = append(objectives, o)
	}
	return objectives
}

// Static is a fixed-snapshot provider for wiring without a datastore
// (tests, local development).
type Static struct {
	Snapshot State
	Goals    []Objective
}

// State implements Provider.
func (s Static) State(context.Context) State { return s.Snapshot }

// Objectives implements Provider.
func (s Static) Objectives(context.Context) []Objective { return s.Goals }

// EnsureSchema creates the company tables when they do not exist yet.
// Intended for development databases where no external reporting
// process has created them; production deployments share the owning
// process's schema.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS company_state (
			id              INTEGER PRIMARY KEY CHECK (id = 1),
			momentum        REAL NOT NULL DEFAULT 0,
			stress_level    REAL NOT NULL DEFAULT 0,
			growth_velocity REAL NOT NULL DEFAULT 0,
			updated_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS objectives (
			id            TEXT PRIMARY KEY,
			title         TEXT NOT NULL,
			priority      INTEGER NOT NULL DEFAULT 0,
			current_value REAL NOT NULL DEFAULT 0,
			target_value  REAL NOT NULL DEFAULT 0,
			updated_at    TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		return fmt.Errorf("create company schema: %w", err)
	}
	return nil
}
