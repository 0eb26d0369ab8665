package company

import (
	"context"
	"database/sql"
	"testing"

	_ "modernc.org/sqlite"
)

func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLProvider_DegradesWithoutSchema(t *testing.T) {
	db := setupTestDB(t)
	p := NewSQLProvider(db)
	ctx := context.Background()

	// No tables exist. The provider must return zero values, not fail.
	if got := p.State(ctx); got != (State{}) {
		t.Errorf("State = %+v, want zero value", got)
	}
	if got := p.Objectives(ctx); len(got) != 0 {
		t.Errorf("Objectives = %v, want empty", got)
	}
}

func TestSQLProvider_ReadsSnapshot(t *testing.T) {
	db := setupTestDB(t)
	if err := EnsureSchema(db); err != nil {
		t.Fatalf("ensure schema: %v", err)
	}

	_, err := db.Exec(`INSERT INTO company_state (id, momentum, stress_level, growth_velocity)
		VALUES (1, 0.6, 0.8, 0.3)`)
	if err != nil {
		t.Fatalf("seed state: %v", err)
	}
	_, err = db.Exec(`INSERT INTO objectives (id, title, priority, current_value, target_value)
		VALUES ('obj-1', 'MRR', 1, 42000, 100000)`)
	if err != nil {
		t.Fatalf("seed objective: %v", err)
	}

	p := NewSQLProvider(db)
	ctx := context.Background()

	state := p.State(ctx)
	if state.StressLevel != 0.8 || state.Momentum != 0.6 {
		t.Errorf("State = %+v", state)
	}

	objectives := p.Objectives(ctx)
	if len(objectives) != 1 {
		t.Fatalf("objectives = %d, want 1", len(objectives))
	}
	if objectives[0].Title != "MRR" || objectives[0].TargetValue != 100000 {
		t.Errorf("objective = %+v", objectives[0])
	}
}
