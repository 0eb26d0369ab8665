// Package router selects which workforce personas should react to an
// inbound message. Selection is a pure function of the message text and
// the registry's static keyword table; the router's only state is an
// in-memory audit log of past decisions.
package router

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/auton88n/workforce/internal/events"
	"github.com/auton88n/workforce/internal/persona"
)

// MaxSelected caps how many agents react to a single message.
const MaxSelected = 4

// casualGreetings are messages that never trigger the workforce.
// Matching is case-insensitive with trailing '!' and '.' stripped.
var casualGreetings = map[string]struct{}{
	"hi":             {},
	"hello":          {},
	"hey":            {},
	"yo":             {},
	"sup":            {},
	"howdy":          {},
	"hiya":           {},
	"good morning":   {},
	"good afternoon": {},
	"good evening":   {},
	"thanks":         {},
	"thank you":      {},
	"ok":             {},
	"okay":           {},
}

// Decision records why agents were (or were not) selected.
type Decision struct {
	Timestamp time.Time `json:"timestamp"`

	// Input analysis
	MessageLength int  `json:"message_length"`
	Greeting      bool `json:"greeting"`

	// Scores maps agent id to keyword-match count (only nonzero
	// entries are kept).
	Scores map[string]int `json:"scores,omitempty"`

	// Outcome
	Selected  []string `json:"selected"`
	Reasoning string   `json:"reasoning"`
}

// Router scores and selects personas for inbound messages.
type Router struct {
	registry *persona.Registry
	bus      *events.Bus
	logger   *slog.Logger

	mu          sync.RWMutex
	auditLog    []Decision
	maxAuditLog int
	stats       Stats
}

// Stats tracks routing statistics.
type Stats struct {
	TotalMessages      int64            `json:"total_messages"`
	GreetingsSuppress  int64            `json:"greetings_suppressed"`
	SilentNoKeyword    int64            `json:"silent_no_keyword"`
	AgentSelectCounts  map[string]int64 `json:"agent_select_counts"`
	AvgSelectedPerMsg  float64          `json:"avg_selected_per_msg"`
	totalSelectedCount int64
}

// New creates a router over the given registry. The bus may be nil.
func New(registry *persona.Registry, bus *events.Bus, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{
		registry:    registry,
		bus:         bus,
		logger:      logger.With("component", "router"),
		maxAuditLog: 1000,
		stats: Stats{
			AgentSelectCounts: make(map[string]int64),
		},
	}
}

// Select returns the agent ids that should react to message, ranked by
// descending keyword-match count, at most MaxSelected long. Greetings
// and keyword-free messages return an empty list: silence is preferred
// over noise.
func (r *Router) Select(message string) []string {
	selected, decision := r.decide(message)
	r.recordDecision(decision)

	r.logger.Debug("agents selected",
		"selected", strings.Join(selected, ","),
		"greeting", decision.Greeting,
		"reasoning", decision.Reasoning,
	)
	r.bus.Publish(events.Event{
		Source: events.SourceRouter,
		Kind:   events.KindAgentsSelected,
		Data: map[string]any{
			"agents":     selected,
			"scores":     decision.Scores,
			"suppressed": len(selected) == 0,
		},
	})

	return selected
}

// Explain runs selection without recording a decision and returns the
// full decision record. Used by the API's dry-run surface and tests.
func (r *Router) Explain(message string) Decision {
	_, d := r.decide(message)
	return d
}

func (r *Router) decide(message string) ([]string, Decision) {
	d := Decision{
		Timestamp:     time.Now(),
		MessageLength: len(message),
	}

	normalized := normalize(message)

	if _, ok := casualGreetings[normalized]; ok {
		d.Greeting = true
		d.Reasoning = "casual greeting, workforce not engaged"
		return nil, d
	}

	// Score every agent: one point per keyword present as a substring.
	// A keyword occurring multiple times still counts once, this is a
	// "does this topic apply" signal, not an intensity measure.
	scores := make(map[string]int)
	for _, p := range r.registry.All() {
		score := 0
		for _, kw := range p.Keywords {
			if strings.Contains(normalized, strings.ToLower(kw)) {
				score++
			}
		}
		if score > 0 {
			scores[p.ID] = score
		}
	}

	if len(scores) == 0 {
		d.Reasoning = "no keywords matched, staying silent"
		return nil, d
	}
	d.Scores = scores

	ranked := make([]string, 0, len(scores))
	for id := range scores {
		ranked = append(ranked, id)
	}
	// Descending score; ties broken by registry declaration order.
	sort.SliceStable(ranked, func(i, j int) bool {
		if scores[ranked[i]] != scores[ranked[j]] {
			return scores[ranked[i]] > scores[ranked[j]]
		}
		return r.registry.Order(ranked[i]) < r.registry.Order(ranked[j])
	})

	if len(ranked) > MaxSelected {
		ranked = ranked[:MaxSelected]
	}

	d.Selected = ranked
	var b strings.Builder
	b.WriteString("selected ")
	for i, id := range ranked {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(id)
	}
	b.WriteString(" by keyword relevance")
	d.Reasoning = b.String()

	return ranked, d
}

// normalize lower-cases the message and strips trailing '!' and '.'
// so "Hello!" and "hello" compare equal for greeting suppression.
func normalize(message string) string {
	s := strings.ToLower(strings.TrimSpace(message))
	return strings.TrimRight(s, "!.")
}

// recordDecision adds a decision to the audit log.
func (r *Router) recordDecision(d Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Trim if over capacity
	if len(r.auditLog) >= r.maxAuditLog {
		r.auditLog = r.auditLog[1:]
	}
	r.auditLog = append(r.auditLog, d)

	r.stats.TotalMessages++
	if d.Greeting {
		r.stats.GreetingsSuppress++
	} else if len(d.Selected) == 0 {
		r.stats.SilentNoKeyword++
	}
	for _, id := range d.Selected {
		r.stats.AgentSelectCounts[id]++
	}
	r.stats.totalSelectedCount += int64(len(d.Selected))
	r.stats.AvgSelectedPerMsg = float64(r.stats.totalSelectedCount) / float64(r.stats.TotalMessages)
}

// AuditLog returns the most recent routing decisions, newest last.
func (r *Router) AuditLog(limit int) []Decision {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if limit <= 0 || limit > len(r.auditLog) {
		limit = len(r.auditLog)
	}
	start := len(r.auditLog) - limit
	result := make([]Decision, limit)
	copy(result, r.auditLog[start:])
	return result
}

// GetStats returns routing statistics.
func (r *Router) GetStats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snapshot := r.stats
	snapshot.AgentSelectCounts = make(map[string]int64, len(r.stats.AgentSelectCounts))
	for k, v := range r.stats.AgentSelectCounts {
		snapshot.AgentSelectCounts[k] = v
	}
	return snapshot
}
