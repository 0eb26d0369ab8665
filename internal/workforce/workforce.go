// Package workforce is the orchestration facade the rest of the system
// calls: pick relevant agents, run their reactions in parallel, and
// assemble a single display string. It owns no policy of its own; it
// wires the router, reaction engine, tone presenter, reflection
// journal, and company snapshot together.
package workforce

import (
	"context"
	"log/slog"
	"strings"

	"github.com/auton88n/workforce/internal/company"
	"github.com/auton88n/workforce/internal/persona"
	"github.com/auton88n/workforce/internal/reaction"
	"github.com/auton88n/workforce/internal/reflection"
	"github.com/auton88n/workforce/internal/router"
	"github.com/auton88n/workforce/internal/tone"
)

// Service exposes the agent-reaction surface.
type Service struct {
	registry  *persona.Registry
	router    *router.Router
	engine    *reaction.Engine
	presenter *tone.Presenter
	journal   *reflection.Journal
	companies company.Provider
	logger    *slog.Logger
}

// New wires the orchestration facade. journal and companies may be nil.
func New(registry *persona.Registry, r *router.Router, engine *reaction.Engine,
	presenter *tone.Presenter, journal *reflection.Journal,
	companies company.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		registry:  registry,
		router:    r,
		engine:    engine,
		presenter: presenter,
		journal:   journal,
		companies: companies,
		logger:    logger.With("component", "workforce"),
	}
}

// SelectRelevantAgents returns the agent ids that should react to
// message, in ranked order, and records the routing decision in the
// reflection journal. The journal write is best-effort.
func (s *Service) SelectRelevantAgents(ctx context.Context, message string) []string {
	selected := s.router.Select(message)

	if s.journal != nil {
		decision := s.router.Explain(message)
		entry := reflection.Entry{
			EmployeeID:          s.registry.LeadID(),
			ActionRef:           "route_message",
			Reasoning:           decision.Reasoning,
			ExpectedOutcome:     expectedOutcome(selected),
			Confidence:          routingConfidence(decision),
			WhatWouldChangeMind: "selected agents consistently produce reactions the founder ignores",
		}
		if err := s.journal.Record(ctx, entry); err != nil {
			s.logger.Warn("record routing reflection", "error", err)
		}
	}

	return selected
}

// InvokeAgentsParallel runs every selected agent's reaction
// concurrently and returns the survivors in input order. An empty
// result means every agent failed (or none were given).
func (s *Service) InvokeAgentsParallel(ctx context.Context, agentIDs []string, founderMessage, leadReply string) []reaction.Result {
	return s.engine.React(ctx, agentIDs, founderMessage, leadReply)
}

// FormatAgentReactions assembles the final display string: the lead
// reply followed by each agent reaction, tone-formatted, with the lead
// persona's reaction first when present. With no reactions the lead
// reply is returned unchanged.
func (s *Service) FormatAgentReactions(ctx context.Context, leadReply string, reactions []reaction.Result) string {
	if len(reactions) == 0 {
		return leadReply
	}

	ordered := s.leadFirst(reactions)

	var stress float64
	if s.companies != nil {
		stress = s.companies.State(ctx).StressLevel
	}

	parts := make([]string, 0, len(ordered)+1)
	if leadReply != "" {
		parts = append(parts, leadReply)
	}
	for _, r := range ordered {
		parts = append(parts, s.presenter.FormatNatural(r.AgentID, r.Text, stress))
	}
	return strings.Join(parts, "\n\n")
}

// leadFirst moves the lead persona's result to the front, preserving
// the relative order of everything else. Presentation rule only; the
// engine's input-order guarantee is otherwise untouched.
func (s *Service) leadFirst(reactions []reaction.Result) []reaction.Result {
	leadID := s.registry.LeadID()
	if leadID == "" {
		return reactions
	}
	for i, r := range reactions {
		if r.AgentID != leadID || i == 0 {
			continue
		}
		ordered := make([]reaction.Result, 0, len(reactions))
		ordered = append(ordered, r)
		ordered = append(ordered, reactions[:i]...)
		ordered = append(ordered, reactions[i+1:]...)
		return ordered
	}
	return reactions
}

func expectedOutcome(selected []string) string {
	if len(selected) == 0 {
		return "no agent reactions, founder message handled by lead reply alone"
	}
	return "reactions from " + strings.Join(selected, ", ") + " add value to the reply"
}

// routingConfidence derives a rough confidence from how decisive the
// keyword match was. Greeting suppression is an exact-match table, so
// it scores highest; otherwise confidence scales with the top score.
func routingConfidence(d router.Decision) float64 {
	if d.Greeting {
		return 0.95
	}
	if len(d.Selected) == 0 {
		return 0.8
	}
	top := 0
	for _, score := range d.Scores {
		if score > top {
			top = score
		}
	}
	conf := 0.5 + 0.1*float64(top)
	if conf > 0.9 {
		conf = 0.9
	}
	return conf
}
