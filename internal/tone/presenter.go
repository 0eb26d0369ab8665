// Package tone classifies the urgency of agent output and formats it
// for display. The design intent: routine reactions read like chat
// messages, while genuinely urgent or structured content earns visual
// weight.
package tone

import (
	"fmt"
	"strings"

	"github.com/auton88n/workforce/internal/persona"
)

// Context categorizes how an agent message should be presented.
type Context int

const (
	// ContextCasual renders as a plain chat line. The default.
	ContextCasual Context = iota
	// ContextIncident adds an urgency glyph; crisis-coded content.
	ContextIncident
	// ContextStrategic prepends the persona's name; advisory content.
	ContextStrategic
	// ContextReport prepends the persona's name; structured output.
	ContextReport
)

// String returns the lowercase name of the context.
func (c Context) String() string {
	switch c {
	case ContextCasual:
		return "casual"
	case ContextIncident:
		return "incident"
	case ContextStrategic:
		return "strategic"
	case ContextReport:
		return "report"
	default:
		return "unknown"
	}
}

// stressIncidentThreshold forces incident presentation when the
// company stress signal exceeds it, regardless of content.
const stressIncidentThreshold = 0.7

// incidentWords force ContextIncident regardless of stress level.
var incidentWords = []string{"attack", "down", "critical", "blocked", "breach"}

// strategicWords yield ContextStrategic when no incident word is present.
var strategicWords = []string{"recommend", "long-term", "objective"}

// Presenter formats agent output using registry identity. It holds no
// mutable state.
type Presenter struct {
	registry *persona.Registry
}

// NewPresenter creates a presenter over the registry.
func NewPresenter(registry *persona.Registry) *Presenter {
	return &Presenter{registry: registry}
}

// Classify determines the presentation context for content. Pass the
// current company stress level, or 0 when no signal is available.
// Crisis-coded words win over everything; high stress alone also
// forces incident.
func (p *Presenter) Classify(content string, stressLevel float64) Context {
	lower := strings.ToLower(content)

	for _, w := range incidentWords {
		if strings.Contains(lower, w) {
			return ContextIncident
		}
	}
	if stressLevel > stressIncidentThreshold {
		return ContextIncident
	}
	for _, w := range strategicWords {
		if strings.Contains(lower, w) {
			return ContextStrategic
		}
	}
	return ContextCasual
}

// Format renders one agent's content for display. Casual output never
// gets a name line; strategic and report output do; incident output
// gets an urgency glyph after the persona emoji.
func (p *Presenter) Format(agentID, content string, ctx Context) string {
	profile := p.registry.Resolve(agentID)

	switch ctx {
	case ContextIncident:
		return fmt.Sprintf("%s 🚨 %s", profile.Emoji, content)
	case ContextStrategic, ContextReport:
		return fmt.Sprintf("%s %s\n%s", profile.Emoji, profile.DisplayName, content)
	default:
		return fmt.Sprintf("%s %s", profile.Emoji, content)
	}
}

// FormatNatural classifies and formats in one step, for callers with
// no separate classification need.
func (p *Presenter) FormatNatural(agentID, content string, stressLevel float64) string {
	return p.Format(agentID, content, p.Classify(content, stressLevel))
}
