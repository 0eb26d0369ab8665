// Package escalation implements the per-(user, incident-type) strike
// counter with time-boxed blocking. The machine decides policy only;
// enforcement belongs to the request-gating layer reading the
// rate-limit records this package writes through.
//
// States: detected → warned → blocked. A blocked incident whose
// blockedUntil has passed is history: the next detection for the same
// pair starts a new incident row rather than resuming the old one.
package escalation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/auton88n/workforce/internal/events"
	"github.com/auton88n/workforce/internal/relay"
	"github.com/auton88n/workforce/internal/roster"
)

// Incident status values.
const (
	StatusDetected = "detected"
	StatusWarned   = "warned"
	StatusBlocked  = "blocked"
)

// Strike thresholds and block durations. Fixed constants: no
// deployment has asked for tuning, and a config surface would invite
// per-environment drift in abuse policy.
const (
	softBlockStrikes  = 3
	hardBlockStrikes  = 5
	softBlockDuration = 30 * time.Minute
	hardBlockDuration = 24 * time.Hour
)

// gatedEndpoint is the rate-limit key the request gate enforces.
const gatedEndpoint = "chat"

// Incident is one escalation record. Rows are never deleted; a
// resolved or expired incident stays as history and a fresh detection
// opens a new row.
type Incident struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id"`
	IncidentType string     `json:"incident_type"`
	StrikeCount  int        `json:"strike_count"`
	Status       string     `json:"status"`
	ActionTaken  string     `json:"action_taken"`
	BlockedUntil *time.Time `json:"blocked_until,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Blocked reports whether the incident carries an active block at t.
func (i *Incident) Blocked(t time.Time) bool {
	return i.Status == StatusBlocked && i.BlockedUntil != nil && i.BlockedUntil.After(t)
}

// Result is what one detection produced. The incident is always
// populated, even when persistence failed, so the caller is never
// silently blind to an event it just witnessed.
type Result struct {
	Incident  Incident `json:"incident"`
	StoodDown bool     `json:"stood_down"`
	// Persisted is false when the strike write failed; the next
	// detection may then re-read a stale count. Accepted limitation.
	Persisted bool `json:"persisted"`
}

// Machine evaluates the transition rule on every detection.
type Machine struct {
	store  *Store
	roster *roster.Roster
	relay  relay.Relay
	bus    *events.Bus
	logger *slog.Logger

	// now is swapped in tests to control block expiry.
	now func() time.Time

	// locks serializes detections per (userID, incidentType) key so
	// concurrent detections cannot race the read-increment-write and
	// under-count strikes.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewMachine creates an escalation machine. relay and bus may be nil.
func NewMachine(store *Store, r *roster.Roster, rel relay.Relay, bus *events.Bus, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Machine{
		store:  store,
		roster: r,
		relay:  rel,
		bus:    bus,
		logger: logger.With("component", "escalation"),
		now:    time.Now,
		locks:  make(map[string]*sync.Mutex),
	}
}

// RecordDetection evaluates one detection of incidentType for userID
// and returns the resulting incident state. Admins and duty-role users
// are never struck: their detections short-circuit to a stood-down
// result with no writes.
func (m *Machine) RecordDetection(ctx context.Context, userID, incidentType string) Result {
	if m.roster != nil && m.roster.Protected(userID) {
		m.logger.Info("detection stood down for protected user",
			"user_id", userID, "incident_type", incidentType)
		m.bus.Publish(events.Event{
			Source: events.SourceEscalation,
			Kind:   events.KindStoodDown,
			Data:   map[string]any{"user_id": userID, "incident_type": incidentType},
		})
		return Result{
			Incident: Incident{
				UserID:       userID,
				IncidentType: incidentType,
				Status:       StatusDetected,
				ActionTaken:  "stood_down",
			},
			StoodDown: true,
		}
	}

	unlock := m.lock(userID, incidentType)
	defer unlock()

	now := m.now().UTC()

	prior, err := m.store.LatestOpen(ctx, userID, incidentType)
	if err != nil {
		// Reading failed; treat as a first detection so the event is
		// still counted somewhere rather than dropped.
		m.logger.Error("incident lookup failed, treating as first strike",
			"user_id", userID, "incident_type", incidentType, "error", err)
		prior = nil
	}

	// An expired block is closed history: start a fresh incident.
	if prior != nil && prior.Status == StatusBlocked && !prior.Blocked(now) {
		prior = nil
	}

	var inc Incident
	fresh := prior == nil
	if fresh {
		inc = Incident{
			UserID:       userID,
			IncidentType: incidentType,
			StrikeCount:  1,
			CreatedAt:    now,
		}
	} else {
		inc = *prior
		inc.StrikeCount++
	}
	inc.UpdatedAt = now
	applyStrikePolicy(&inc, now)

	persisted := m.persist(ctx, &inc, fresh)

	m.logger.Info("strike recorded",
		"user_id", userID,
		"incident_type", incidentType,
		"strike_count", inc.StrikeCount,
		"status", inc.Status,
		"action", inc.ActionTaken,
		"persisted", persisted,
	)
	m.bus.Publish(events.Event{
		Source: events.SourceEscalation,
		Kind:   events.KindStrikeRecorded,
		Data: map[string]any{
			"user_id":       userID,
			"incident_type": incidentType,
			"strike_count":  inc.StrikeCount,
			"status":        inc.Status,
		},
	})

	// A block transition, and only a block transition, goes to the
	// operator channel.
	if inc.Status == StatusBlocked {
		m.notifyBlock(ctx, inc)
	}

	return Result{Incident: inc, Persisted: persisted}
}

// applyStrikePolicy maps the new strike count onto status, action, and
// block window.
func applyStrikePolicy(inc *Incident, now time.Time) {
	switch {
	case inc.StrikeCount >= hardBlockStrikes:
		until := now.Add(hardBlockDuration)
		inc.Status = StatusBlocked
		inc.BlockedUntil = &until
		inc.ActionTaken = "blocked_24h"
	case inc.StrikeCount >= softBlockStrikes:
		until := now.Add(softBlockDuration)
		inc.Status = StatusBlocked
		inc.BlockedUntil = &until
		inc.ActionTaken = "blocked_30min"
	default:
		inc.Status = StatusWarned
		inc.BlockedUntil = nil
		inc.ActionTaken = fmt.Sprintf("warning_%d", inc.StrikeCount)
	}
}

// persist writes the incident and its rate-limit record. Writes are
// best-effort: failures are logged and reported via the return value,
// never raised to the caller.
func (m *Machine) persist(ctx context.Context, inc *Incident, fresh bool) bool {
	var err error
	if fresh {
		err = m.store.Insert(ctx, inc)
	} else {
		err = m.store.Update(ctx, inc)
	}
	if err != nil {
		m.logger.Error("strike write failed, next detection may re-read a stale count",
			"user_id", inc.UserID, "incident_type", inc.IncidentType, "error", err)
		return false
	}

	if err := m.store.UpsertRateLimit(ctx, inc.UserID, gatedEndpoint, inc.BlockedUntil); err != nil {
		m.logger.Error("rate limit write failed",
			"user_id", inc.UserID, "error", err)
		return false
	}
	return true
}

// notifyBlock sends the block to the operator channel, best-effort.
func (m *Machine) notifyBlock(ctx context.Context, inc Incident) {
	m.bus.Publish(events.Event{
		Source: events.SourceEscalation,
		Kind:   events.KindUserBlocked,
		Data: map[string]any{
			"user_id":       inc.UserID,
			"incident_type": inc.IncidentType,
			"action":        inc.ActionTaken,
			"blocked_until": inc.BlockedUntil,
		},
	})

	if m.relay == nil {
		return
	}
	text := fmt.Sprintf("🛡️ user %s blocked (%s, strike %d) until %s",
		inc.UserID, inc.IncidentType, inc.StrikeCount,
		inc.BlockedUntil.UTC().Format(time.RFC3339))
	if err := m.relay.Send(ctx, text); err != nil {
		m.logger.Warn("block notification failed", "user_id", inc.UserID, "error", err)
	}
}

// History returns the user's incident rows, newest first.
func (m *Machine) History(ctx context.Context, userID string, limit int) ([]Incident, error) {
	return m.store.History(ctx, userID, limit)
}

// BlockedUntil reports when the user's chat access unblocks, or nil
// when no active rate limit exists. Used by the request gate.
func (m *Machine) BlockedUntil(ctx context.Context, userID string) (*time.Time, error) {
	return m.store.BlockedUntil(ctx, userID, gatedEndpoint)
}

// lock acquires the per-(user, incident-type) mutex and returns its
// release func. Mutexes are created on demand and kept for the process
// lifetime; the key space is bounded by real users × incident types.
func (m *Machine) lock(userID, incidentType string) func() {
	key := userID + "\x00" + incidentType

	m.mu.Lock()
	l, ok := m.locks[key]
	if !ok {
		l = &sync.Mutex{}
		m.locks[key] = l
	}
	m.mu.Unlock()

	l.Lock()
	return l.Unlock
}
