package reaction

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/auton88n/workforce/internal/completion"
	"github.com/auton88n/workforce/internal/persona"
)

// fakeClient answers completions from a canned table keyed by the
// persona name found in the system prompt.
type fakeClient struct {
	mu      sync.Mutex
	replies map[string]string // persona display name -> reply
	fails   map[string]error  // persona display name -> error
	delay   map[string]time.Duration
	calls   int
}

func (f *fakeClient) Complete(ctx context.Context, req completion.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	system := req.Messages[0].Content
	for name, d := range f.delay {
		if strings.Contains(system, name) {
			select {
			case <-time.After(d):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	for name, err := range f.fails {
		if strings.Contains(system, name) {
			return "", err
		}
	}
	for name, reply := range f.replies {
		if strings.Contains(system, name) {
			return reply, nil
		}
	}
	return "", completion.ErrEmptyCompletion
}

func newTestEngine(client completion.Client) *Engine {
	return New(persona.NewDefaultRegistry(), client, nil, nil, nil, "test-model", 220, nil)
}

func TestReact_AllSucceed(t *testing.T) {
	client := &fakeClient{replies: map[string]string{
		"Dex":   "Chase it today.",
		"Brick": "No threat indicators.",
	}}
	e := newTestEngine(client)

	got := e.React(context.Background(), []string{"sales", "security_guard"}, "new lead came in", "On it.")
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
	if got[0].AgentID != "sales" || got[1].AgentID != "security_guard" {
		t.Errorf("order = [%s, %s], want input order", got[0].AgentID, got[1].AgentID)
	}
	if got[0].Text != "Chase it today." {
		t.Errorf("sales text = %q", got[0].Text)
	}
}

func TestReact_PartialFailureDropsSilently(t *testing.T) {
	client := &fakeClient{
		replies: map[string]string{
			"Dex":   "Chase it today.",
			"Scout": "Verified, looks clean.",
		},
		fails: map[string]error{
			"Brick": errors.New("upstream 500"),
		},
	}
	e := newTestEngine(client)

	got := e.React(context.Background(), []string{"sales", "security_guard", "investigator"}, "msg", "lead")
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2 (one dropped)", len(got))
	}
	// Survivors keep input order, the failure leaves no gap marker.
	if got[0].AgentID != "sales" || got[1].AgentID != "investigator" {
		t.Errorf("order = [%s, %s], want [sales, investigator]", got[0].AgentID, got[1].AgentID)
	}
}

func TestReact_AllFailReturnsEmpty(t *testing.T) {
	client := &fakeClient{fails: map[string]error{
		"Dex":   errors.New("boom"),
		"Brick": errors.New("boom"),
	}}
	e := newTestEngine(client)

	got := e.React(context.Background(), []string{"sales", "security_guard"}, "msg", "lead")
	if len(got) != 0 {
		t.Errorf("results = %v, want empty on total failure", got)
	}
}

func TestReact_EmptyInput(t *testing.T) {
	client := &fakeClient{}
	e := newTestEngine(client)

	if got := e.React(context.Background(), nil, "msg", "lead"); len(got) != 0 {
		t.Errorf("results = %v, want empty", got)
	}
	if client.calls != 0 {
		t.Errorf("calls = %d, want 0", client.calls)
	}
}

func TestReact_DeduplicatesAgents(t *testing.T) {
	client := &fakeClient{replies: map[string]string{"Dex": "Once."}}
	e := newTestEngine(client)

	got := e.React(context.Background(), []string{"sales", "sales", "sales"}, "msg", "lead")
	if len(got) != 1 {
		t.Fatalf("results = %d, want 1", len(got))
	}
	if client.calls != 1 {
		t.Errorf("calls = %d, want 1", client.calls)
	}
}

func TestReact_SlowAgentDoesNotVoidOthers(t *testing.T) {
	client := &fakeClient{
		replies: map[string]string{
			"Dex":   "Fast answer.",
			"Brick": "Slow answer.",
		},
		delay: map[string]time.Duration{"Brick": 50 * time.Millisecond},
	}
	e := newTestEngine(client)

	got := e.React(context.Background(), []string{"sales", "security_guard"}, "msg", "lead")
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2 (join waits for the slow agent)", len(got))
	}
}

func TestReact_UnknownAgentStillInvoked(t *testing.T) {
	client := &fakeClient{replies: map[string]string{
		persona.Unknown.DisplayName: "Fallback speaking.",
	}}
	e := newTestEngine(client)

	got := e.React(context.Background(), []string{"ghost"}, "msg", "lead")
	if len(got) != 1 {
		t.Fatalf("results = %d, want 1", len(got))
	}
	if got[0].AgentID != "ghost" {
		t.Errorf("AgentID = %q, want ghost (caller's id, fallback profile)", got[0].AgentID)
	}
}
