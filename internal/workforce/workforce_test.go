package workforce

import (
	"context"
	"strings"
	"testing"

	"github.com/auton88n/workforce/internal/company"
	"github.com/auton88n/workforce/internal/persona"
	"github.com/auton88n/workforce/internal/reaction"
	"github.com/auton88n/workforce/internal/router"
	"github.com/auton88n/workforce/internal/tone"
)

func newFormatService(companies company.Provider) *Service {
	registry := persona.NewDefaultRegistry()
	return New(registry, router.New(registry, nil, nil), nil,
		tone.NewPresenter(registry), nil, companies, nil)
}

func TestFormatAgentReactions_EmptyReturnsLeadUnchanged(t *testing.T) {
	s := newFormatService(nil)

	lead := "I'll take care of it."
	if got := s.FormatAgentReactions(context.Background(), lead, nil); got != lead {
		t.Errorf("got %q, want lead reply unchanged", got)
	}
	if got := s.FormatAgentReactions(context.Background(), lead, []reaction.Result{}); got != lead {
		t.Errorf("got %q, want lead reply unchanged", got)
	}
}

func TestFormatAgentReactions_AppendsFormattedReactions(t *testing.T) {
	s := newFormatService(nil)

	got := s.FormatAgentReactions(context.Background(), "Lead reply.", []reaction.Result{
		{AgentID: "sales", Text: "Chase it."},
		{AgentID: "support", Text: "No tickets on this."},
	})

	parts := strings.Split(got, "\n\n")
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3: %q", len(parts), got)
	}
	if parts[0] != "Lead reply." {
		t.Errorf("parts[0] = %q", parts[0])
	}
	if parts[1] != "💼 Chase it." {
		t.Errorf("parts[1] = %q", parts[1])
	}
	if parts[2] != "🎧 No tickets on this." {
		t.Errorf("parts[2] = %q", parts[2])
	}
}

func TestFormatAgentReactions_LeadPersonaSortsFirst(t *testing.T) {
	s := newFormatService(nil)

	got := s.FormatAgentReactions(context.Background(), "", []reaction.Result{
		{AgentID: "sales", Text: "Chase it."},
		{AgentID: "ayn", Text: "Hold on, priorities first."},
		{AgentID: "support", Text: "No tickets."},
	})

	parts := strings.Split(got, "\n\n")
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3: %q", len(parts), got)
	}
	if !strings.HasPrefix(parts[0], "🦉") {
		t.Errorf("lead persona should sort first, got %q", parts[0])
	}
	// The rest keep their relative order.
	if !strings.HasPrefix(parts[1], "💼") || !strings.HasPrefix(parts[2], "🎧") {
		t.Errorf("non-lead order disturbed: %q", got)
	}
}

func TestFormatAgentReactions_StressForcesIncidentFormatting(t *testing.T) {
	calm := newFormatService(company.Static{})
	stressed := newFormatService(company.Static{
		Snapshot: company.State{StressLevel: 0.9},
	})

	reactions := []reaction.Result{{AgentID: "sales", Text: "routine update"}}

	if got := calm.FormatAgentReactions(context.Background(), "", reactions); strings.Contains(got, "🚨") {
		t.Errorf("calm company should not force incident: %q", got)
	}
	if got := stressed.FormatAgentReactions(context.Background(), "", reactions); !strings.Contains(got, "🚨") {
		t.Errorf("stressed company should force incident: %q", got)
	}
}

func TestSelectRelevantAgents_DelegatesToRouter(t *testing.T) {
	s := newFormatService(nil)

	got := s.SelectRelevantAgents(context.Background(), "chase this lead")
	if len(got) == 0 || got[0] != "sales" {
		t.Errorf("SelectRelevantAgents = %v, want sales ranked first", got)
	}
	if got := s.SelectRelevantAgents(context.Background(), "hello"); len(got) != 0 {
		t.Errorf("greeting should select nobody, got %v", got)
	}
}
