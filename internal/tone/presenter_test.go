package tone

import (
	"strings"
	"testing"

	"github.com/auton88n/workforce/internal/persona"
)

func newTestPresenter() *Presenter {
	return NewPresenter(persona.NewDefaultRegistry())
}

func TestClassify(t *testing.T) {
	p := newTestPresenter()

	tests := []struct {
		name    string
		content string
		stress  float64
		want    Context
	}{
		{"plain chat", "sounds good, moving on", 0, ContextCasual},
		{"breach without stress", "possible data breach in the auth service", 0, ContextIncident},
		{"attack", "we are under attack", 0, ContextIncident},
		{"service down", "checkout is down again", 0, ContextIncident},
		{"strategic keyword", "I recommend we revisit pricing", 0, ContextStrategic},
		{"long-term", "think long-term here", 0, ContextStrategic},
		{"high stress forces incident", "routine status update", 0.9, ContextIncident},
		{"stress at threshold stays casual", "routine status update", 0.7, ContextCasual},
		{"incident word beats strategic word", "recommend we react to the attack", 0, ContextIncident},
		{"case insensitive", "BREACH detected", 0, ContextIncident},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.Classify(tt.content, tt.stress); got != tt.want {
				t.Errorf("Classify(%q, %.1f) = %v, want %v", tt.content, tt.stress, got, tt.want)
			}
		})
	}
}

func TestFormat(t *testing.T) {
	p := newTestPresenter()

	t.Run("casual has no name line", func(t *testing.T) {
		got := p.Format("sales", "nice win", ContextCasual)
		if got != "💼 nice win" {
			t.Errorf("got %q", got)
		}
		if strings.Contains(got, "Dex") {
			t.Error("casual output must not contain the display name")
		}
	})

	t.Run("incident adds urgency glyph", func(t *testing.T) {
		got := p.Format("security_guard", "breach detected", ContextIncident)
		if got != "🛡️ 🚨 breach detected" {
			t.Errorf("got %q", got)
		}
	})

	t.Run("strategic prepends name line", func(t *testing.T) {
		got := p.Format("ayn", "recommend we wait", ContextStrategic)
		want := "🦉 Ayn\nrecommend we wait"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("report prepends name line", func(t *testing.T) {
		got := p.Format("finance", "Q3 numbers attached", ContextReport)
		want := "📊 Ledger\nQ3 numbers attached"
		if got != want {
			t.Errorf("got %q, want %q", got, want)
		}
	})

	t.Run("unknown agent uses fallback profile", func(t *testing.T) {
		got := p.Format("ghost", "hello", ContextCasual)
		if !strings.HasPrefix(got, persona.Unknown.Emoji) {
			t.Errorf("got %q, want fallback emoji prefix", got)
		}
	})
}

func TestFormatNatural_BreachAlwaysIncident(t *testing.T) {
	p := newTestPresenter()

	got := p.FormatNatural("security_guard", "minor breach in staging", 0)
	if !strings.Contains(got, "🚨") {
		t.Errorf("got %q, want urgency glyph for breach content with zero stress", got)
	}
}

func TestContextString(t *testing.T) {
	tests := []struct {
		ctx  Context
		want string
	}{
		{ContextCasual, "casual"},
		{ContextIncident, "incident"},
		{ContextStrategic, "strategic"},
		{ContextReport, "report"},
		{Context(99), "unknown"},
	}
	for _, tt := range tests {
		if got := tt.ctx.String(); got != tt.want {
			t.Errorf("String(%d) = %q, want %q", int(tt.ctx), got, tt.want)
		}
	}
}
