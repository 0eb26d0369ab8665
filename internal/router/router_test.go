package router

import (
	"reflect"
	"testing"

	"github.com/auton88n/workforce/internal/persona"
)

func newTestRouter(t *testing.T) *Router {
	t.Helper()
	return New(persona.NewDefaultRegistry(), nil, nil)
}

func TestSelect_GreetingSuppression(t *testing.T) {
	r := newTestRouter(t)

	greetings := []string{
		"hi", "Hi", "HELLO", "hey!", "Thanks.",
		"good morning", "Good Morning!", "ok", "okay",
		"  hello  ",
	}
	for _, msg := range greetings {
		t.Run(msg, func(t *testing.T) {
			if got := r.Select(msg); len(got) != 0 {
				t.Errorf("Select(%q) = %v, want empty (greeting)", msg, got)
			}
		})
	}
}

func TestSelect_SilentWhenNoKeywords(t *testing.T) {
	r := newTestRouter(t)

	if got := r.Select("the weather is nice today"); len(got) != 0 {
		t.Errorf("Select = %v, want empty (no keywords)", got)
	}
}

func TestSelect_KeywordScoring(t *testing.T) {
	r := newTestRouter(t)

	tests := []struct {
		name    string
		message string
		want    []string
	}{
		{
			name:    "single sales keyword",
			message: "any movement on the pipeline?",
			want:    []string{"sales"},
		},
		{
			name:    "security keyword",
			message: "possible phishing attempt reported",
			want:    []string{"security_guard"},
		},
		{
			name:    "strategy routes to lead",
			message: "what should our roadmap focus on",
			want:    []string{"ayn"},
		},
		{
			// sales, security_guard, and investigator tie at two
			// keywords each; follow_up trails with one. Ties break by
			// registry declaration order.
			name:    "multi agent scenario",
			message: "can you chase this lead and check for security threats",
			want:    []string{"sales", "security_guard", "investigator", "follow_up"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.Select(tt.message)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Select(%q) = %v, want %v", tt.message, got, tt.want)
			}
		})
	}
}

func TestSelect_CapsAtMaxSelected(t *testing.T) {
	r := newTestRouter(t)

	// Touches sales, security, investigator, follow_up, legal, and
	// finance keywords at once.
	msg := "chase the deal, audit the contract for compliance, check the budget deadline for fraud threats"
	got := r.Select(msg)
	if len(got) > MaxSelected {
		t.Errorf("Select returned %d agents, cap is %d", len(got), MaxSelected)
	}
}

func TestExplain_DoesNotRecord(t *testing.T) {
	r := newTestRouter(t)

	d := r.Explain("chase this lead")
	if len(d.Selected) == 0 {
		t.Fatal("expected a selection")
	}
	if d.Reasoning == "" {
		t.Error("decision must carry reasoning")
	}
	if got := r.GetStats().TotalMessages; got != 0 {
		t.Errorf("Explain recorded a decision: TotalMessages = %d, want 0", got)
	}
}

func TestStats(t *testing.T) {
	r := newTestRouter(t)

	r.Select("hello")
	r.Select("nothing relevant here")
	r.Select("chase this lead")

	stats := r.GetStats()
	if stats.TotalMessages != 3 {
		t.Errorf("TotalMessages = %d, want 3", stats.TotalMessages)
	}
	if stats.GreetingsSuppress != 1 {
		t.Errorf("GreetingsSuppress = %d, want 1", stats.GreetingsSuppress)
	}
	if stats.SilentNoKeyword != 1 {
		t.Errorf("SilentNoKeyword = %d, want 1", stats.SilentNoKeyword)
	}
	if stats.AgentSelectCounts["sales"] == 0 {
		t.Error("sales should have been counted")
	}
}

func TestAuditLog(t *testing.T) {
	r := newTestRouter(t)

	r.Select("hello")
	r.Select("chase this lead")

	log := r.AuditLog(10)
	if len(log) != 2 {
		t.Fatalf("audit log length = %d, want 2", len(log))
	}
	if !log[0].Greeting {
		t.Error("first decision should be the greeting")
	}
	if len(log[1].Selected) == 0 {
		t.Error("second decision should carry a selection")
	}

	if got := r.AuditLog(1); len(got) != 1 {
		t.Errorf("AuditLog(1) length = %d, want 1", len(got))
	}
}
