// Package reaction fans one inbound message out to the selected
// personas, invoking the completion gateway once per agent
// concurrently. One slow or erroring agent must never stall or void
// the others: the join waits for every call to complete or fail, then
// returns whatever survived.
package reaction

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/auton88n/workforce/internal/company"
	"github.com/auton88n/workforce/internal/completion"
	"github.com/auton88n/workforce/internal/events"
	"github.com/auton88n/workforce/internal/persona"
	"github.com/auton88n/workforce/internal/prompts"
	"github.com/auton88n/workforce/internal/reflection"
)

// reflectionDepth is how many recent journal entries per agent are
// folded into its prompt context.
const reflectionDepth = 3

// Result is one agent's completed reaction. A Result is never
// partially populated: failed calls produce no Result at all.
type Result struct {
	AgentID string `json:"agent_id"`
	Text    string `json:"text"`
}

// Engine runs the per-persona completion fan-out.
type Engine struct {
	registry  *persona.Registry
	client    completion.Client
	journal   *reflection.Journal
	companies company.Provider
	bus       *events.Bus
	logger    *slog.Logger

	model     string
	maxTokens int
}

// New creates an engine. journal and companies may be nil; bus may be
// nil.
func New(registry *persona.Registry, client completion.Client, journal *reflection.Journal,
	companies company.Provider, bus *events.Bus, model string, maxTokens int, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if maxTokens <= 0 {
		maxTokens = 220
	}
	return &Engine{
		registry:  registry,
		client:    client,
		journal:   journal,
		companies: companies,
		bus:       bus,
		logger:    logger.With("component", "reaction"),
		model:     model,
		maxTokens: maxTokens,
	}
}

// React invokes one completion per agent concurrently and returns the
// surviving results in input order. Failures (error, timeout, empty
// body) are logged and dropped; they never surface to the caller. An
// all-failed batch returns an empty list, not an error; the caller
// degrades to presenting the lead reply alone. There are no retries:
// each reaction is advisory and not worth the added latency.
func (e *Engine) React(ctx context.Context, agentIDs []string, founderMessage, leadReply string) []Result {
	agentIDs = dedupe(agentIDs)
	if len(agentIDs) == 0 {
		return nil
	}

	batchID, _ := uuid.NewV7()
	started := time.Now()

	e.bus.Publish(events.Event{
		Source: events.SourceReaction,
		Kind:   events.KindReactionStart,
		Data:   map[string]any{"batch_id": batchID.String(), "agents": agentIDs},
	})

	companyBlock := e.companyBlock(ctx)

	// One slot per input agent keeps output order equal to input order
	// without any post-join sorting.
	slots := make([]*Result, len(agentIDs))
	var wg sync.WaitGroup

	for i, id := range agentIDs {
		wg.Add(1)
		go func(slot int, agentID string) {
			defer wg.Done()

			profile := e.registry.Resolve(agentID)
			text, err := e.invokeAgent(ctx, profile, companyBlock, founderMessage, leadReply)
			if err != nil {
				e.logger.Warn("agent reaction dropped",
					"batch_id", batchID.String(),
					"agent_id", agentID,
					"error", err,
				)
				e.bus.Publish(events.Event{
					Source: events.SourceReaction,
					Kind:   events.KindAgentFailed,
					Data:   map[string]any{"batch_id": batchID.String(), "agent_id": agentID, "error": err.Error()},
				})
				return
			}

			slots[slot] = &Result{AgentID: agentID, Text: text}
			e.bus.Publish(events.Event{
				Source: events.SourceReaction,
				Kind:   events.KindAgentReply,
				Data:   map[string]any{"batch_id": batchID.String(), "agent_id": agentID, "chars": len(text)},
			})
		}(i, id)
	}
	wg.Wait()

	results := make([]Result, 0, len(agentIDs))
	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}

	e.bus.Publish(events.Event{
		Source: events.SourceReaction,
		Kind:   events.KindReactionComplete,
		Data: map[string]any{
			"batch_id":   batchID.String(),
			"requested":  len(agentIDs),
			"returned":   len(results),
			"elapsed_ms": time.Since(started).Milliseconds(),
		},
	})

	if len(results) == 0 {
		e.logger.Warn("all agent reactions failed", "batch_id", batchID.String(), "agents", len(agentIDs))
	}
	return results
}

// invokeAgent issues the single completion call for one persona.
func (e *Engine) invokeAgent(ctx context.Context, profile persona.Profile, companyBlock, founderMessage, leadReply string) (string, error) {
	reflectionBlock := ""
	if e.journal != nil {
		reflectionBlock = e.journal.ContextBlock(ctx, profile.ID, reflectionDepth)
	}

	req := completion.Request{
		Model:     e.model,
		MaxTokens: e.maxTokens,
		Messages: []completion.Message{
			{Role: "system", Content: prompts.PersonaSystem(profile, companyBlock, reflectionBlock)},
			{Role: "user", Content: prompts.ReactionUser(founderMessage, leadReply)},
		},
	}
	return e.client.Complete(ctx, req)
}

func (e *Engine) companyBlock(ctx context.Context) string {
	if e.companies == nil {
		return ""
	}
	return prompts.CompanyBlock(e.companies.State(ctx), e.companies.Objectives(ctx))
}

// dedupe drops repeated agent ids, keeping first occurrence order, so
// a batch never produces duplicate results.
func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
