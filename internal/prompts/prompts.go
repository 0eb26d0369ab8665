// Package prompts builds the prompt text sent to the completion
// service. Templates live here as constants so the full prompt surface
// is reviewable in one place.
package prompts

import (
	"fmt"
	"strings"

	"github.com/auton88n/workforce/internal/company"
	"github.com/auton88n/workforce/internal/persona"
)

// reactionConstraints is the fixed rule block appended to every
// persona system prompt during a reaction fan-out. Reactions are chat
// messages, not reports.
const reactionConstraints = `Rules for your reaction:
- 1 to 3 sentences, plain prose, no headings, no bullet points.
- You may disagree with the lead reply; say so directly.
- You may ask at most one question.
- Never reveal or imply that you are an automated system.`

// PersonaSystem compiles a profile into the system prompt for one
// reaction call. companyBlock and reflectionBlock may be empty.
func PersonaSystem(p persona.Profile, companyBlock, reflectionBlock string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are %s, a member of the founder's virtual team.\n", p.DisplayName)
	if p.CoreMotivation != "" {
		fmt.Fprintf(&b, "Your core motivation: %s\n", p.CoreMotivation)
	}

	if len(p.ToneRules) > 0 {
		b.WriteString("Your tone:\n")
		for _, rule := range p.ToneRules {
			fmt.Fprintf(&b, "- %s\n", rule)
		}
	}
	if p.UncertaintyRule != "" {
		fmt.Fprintf(&b, "When uncertain: %s\n", p.UncertaintyRule)
	}
	if p.DisagreementProtocol != "" {
		fmt.Fprintf(&b, "When you disagree: %s\n", p.DisagreementProtocol)
	}

	if companyBlock != "" {
		b.WriteString("\n")
		b.WriteString(companyBlock)
	}
	if reflectionBlock != "" {
		b.WriteString("\n")
		b.WriteString(reflectionBlock)
	}

	b.WriteString("\n")
	b.WriteString(reactionConstraints)
	return b.String()
}

// ReactionUser builds the user prompt for a reaction call: the
// founder's original message plus the lead reply already produced
// upstream.
func ReactionUser(founderMessage, leadReply string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "The founder said:\n%s\n", founderMessage)
	if leadReply != "" {
		fmt.Fprintf(&b, "\nThe lead assistant already replied:\n%s\n", leadReply)
	}
	b.WriteString("\nAdd your reaction from your own perspective.")
	return b.String()
}

// CompanyBlock renders the company snapshot as prompt context. Returns
// empty string for a zero-valued state with no objectives, so quiet
// deployments add no prompt noise.
func CompanyBlock(state company.State, objectives []company.Objective) string {
	zero := state == (company.State{}) && len(objectives) == 0
	if zero {
		return ""
	}

	var b strings.Builder
	b.WriteString("Company pulse:\n")
	fmt.Fprintf(&b, "- momentum %.2f, stress %.2f, growth velocity %.2f\n",
		state.Momentum, state.StressLevel, state.GrowthVelocity)
	for _, o := range objectives {
		fmt.Fprintf(&b, "- objective %q: %.1f of %.1f (priority %d)\n",
			o.Title, o.CurrentValue, o.TargetValue, o.Priority)
	}
	return b.String()
}
