// Package persona defines the virtual employees of the workforce and
// the registry that is the single source of truth for their identity.
// Profiles are immutable after load; every other component consults the
// registry rather than carrying its own copy of agent identity.
package persona

import (
	"fmt"
	"sort"
	"strings"
)

// Profile describes one virtual employee. All fields are fixed at load
// time; profiles are never created or destroyed at runtime.
type Profile struct {
	// ID is the stable agent key (e.g., "security_guard").
	ID string `yaml:"id"`
	// DisplayName is the human-facing name shown in formatted output.
	DisplayName string `yaml:"display_name"`
	// Emoji prefixes every formatted reaction from this agent.
	Emoji string `yaml:"emoji"`
	// ToneRules are ordered free-text constraints folded into the
	// agent's system prompt.
	ToneRules []string `yaml:"tone_rules"`
	// CoreMotivation is the one-line purpose statement for the agent.
	CoreMotivation string `yaml:"core_motivation"`
	// UncertaintyRule tells the agent what to do when it is not sure.
	UncertaintyRule string `yaml:"uncertainty_rule"`
	// DisagreementProtocol tells the agent how to push back.
	DisagreementProtocol string `yaml:"disagreement_protocol"`
	// Keywords drive relevance scoring. A message containing any of
	// these substrings scores one point per keyword for this agent.
	Keywords []string `yaml:"keywords"`
	// Lead marks the distinguished lead persona whose reaction sorts
	// first in presentation. At most one profile carries it.
	Lead bool `yaml:"lead"`
}

// Unknown is the explicit fallback profile returned by Resolve for ids
// that are not in the registry. It keeps the "registry is the single
// source of truth" invariant observable instead of panicking or
// silently dropping output.
var Unknown = Profile{
	ID:          "unknown",
	DisplayName: "Unknown Agent",
	Emoji:       "❔",
}

// Registry is the immutable, ordered set of known profiles. Declaration
// order is significant: the router breaks score ties by it.
type Registry struct {
	profiles []Profile
	byID     map[string]int
}

// NewRegistry builds a registry from profiles in declaration order.
// Duplicate or empty ids are rejected.
func NewRegistry(profiles []Profile) (*Registry, error) {
	r := &Registry{
		profiles: make([]Profile, 0, len(profiles)),
		byID:     make(map[string]int, len(profiles)),
	}
	for _, p := range profiles {
		if p.ID == "" {
			return nil, fmt.Errorf("persona profile with empty id")
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate persona id %q", p.ID)
		}
		r.byID[p.ID] = len(r.profiles)
		r.profiles = append(r.profiles, p)
	}
	return r, nil
}

// Lookup returns the profile for id and whether it exists.
func (r *Registry) Lookup(id string) (Profile, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Profile{}, false
	}
	return r.profiles[i], true
}

// Resolve returns the profile for id, or the Unknown fallback profile
// when the id is not registered.
func (r *Registry) Resolve(id string) Profile {
	if p, ok := r.Lookup(id); ok {
		return p
	}
	return Unknown
}

// Exists reports whether id is a registered agent.
func (r *Registry) Exists(id string) bool {
	_, ok := r.byID[id]
	return ok
}

// All returns the profiles in declaration order. The returned slice is
// a copy; callers cannot mutate registry state.
func (r *Registry) All() []Profile {
	out := make([]Profile, len(r.profiles))
	copy(out, r.profiles)
	return out
}

// IDs returns all agent ids in declaration order.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.profiles))
	for i, p := range r.profiles {
		ids[i] = p.ID
	}
	return ids
}

// Order returns the declaration index for id, used by the router as a
// tie breaker. Unknown ids sort last.
func (r *Registry) Order(id string) int {
	if i, ok := r.byID[id]; ok {
		return i
	}
	return len(r.profiles)
}

// LeadID returns the id of the lead persona, or empty when none is
// marked.
func (r *Registry) LeadID() string {
	for _, p := range r.profiles {
		if p.Lead {
			return p.ID
		}
	}
	return ""
}

// Len returns the number of registered profiles.
func (r *Registry) Len() int {
	return len(r.profiles)
}

// KeywordIndex returns a sorted, deduplicated list of every keyword
// across all profiles. Useful for diagnostics.
func (r *Registry) KeywordIndex() []string {
	seen := make(map[string]struct{})
	for _, p := range r.profiles {
		for _, k := range p.Keywords {
			seen[strings.ToLower(k)] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
