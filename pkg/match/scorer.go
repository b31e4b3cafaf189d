package match

import (
	"fmt"
	"slices"
	"strings"

	"github.com/vibekit/rulehub/pkg/catalog"
	"github.com/vibekit/rulehub/pkg/wizard"
)

const (
	AlwaysApplyIncrement = 0.5
	StackIncrement       = 1.0
	LanguageIncrement    = 1.0
	ToolIncrement        = 0.8
	FrameworkIncrement   = 1.2
	AssistantIncrement   = 0.3
)

// DefaultAssistants are the sentinel assistant ids that earn the
// [AssistantIncrement].
var DefaultAssistants = []string{"claude", "cursor"}

// Score is the result of scoring one rule.
type Score struct {
	Reasons []string
	Value   float64
}

// Scorer computes relevance scores.
type Scorer struct {
	assistants []string
}

// ScorerOpt configures a [Scorer].
type ScorerOpt func(*Scorer)

// WithAssistants overrides the sentinel assistant ids.
func WithAssistants(ids ...string) ScorerOpt {
	return func(s *Scorer) {
		s.assistants = s.assistants[:0]
		for _, id := range ids {
			id = strings.ToLower(strings.TrimSpace(id))
			if id != "" {
				s.assistants = append(s.assistants, id)
			}
		}
	}
}

// NewScorer creates a new [Scorer].
func NewScorer(opts ...ScorerOpt) *Scorer {
	s := &Scorer{assistants: slices.Clone(DefaultAssistants)}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Score computes the score and reasons for r given the user's choices.
// The result is never negative.
func (s *Scorer) Score(r *catalog.Rule, choices wizard.Choices) Score {
	var sc Score

	add := func(inc float64, reason string) {
		sc.Value += inc
		sc.Reasons = append(sc.Reasons, reason)
	}

	if r.AlwaysApply {
		add(AlwaysApplyIncrement, "Always applicable rule")
	}

	for _, raw := range r.Tags {
		tag := strings.ToLower(strings.TrimSpace(raw))
		if tag == "" {
			continue
		}

		for _, id := range choices.Stacks {
			if overlaps(tag, id) {
				add(StackIncrement, "Matches stack: "+tag)
			}
		}

		for _, id := range choices.Languages {
			if overlaps(tag, id) {
				add(LanguageIncrement, "Matches language: "+tag)
			}
		}

		for _, id := range choices.Tools {
			if overlaps(tag, id) {
				add(ToolIncrement, "Matches tool: "+tag)
			}
		}
	}

	for _, fw := range r.Frameworks() {
		framework := strings.ToLower(strings.TrimSpace(fw))
		if framework == "" {
			continue
		}

		for _, id := range choices.Stacks {
			if overlaps(framework, id) {
				add(FrameworkIncrement, "Compatible framework: "+fw)
			}
		}
	}

	if s.compatibleAssistant(r.AIAssistants()) {
		add(AssistantIncrement, "Compatible with AI assistant")
	}

	return sc
}

func (s *Scorer) compatibleAssistant(assistants []string) bool {
	for _, a := range assistants {
		if slices.Contains(s.assistants, strings.ToLower(strings.TrimSpace(a))) {
			return true
		}
	}

	return false
}

// overlaps reports whether either string contains the other. Both inputs
// must already be lower-cased; empty strings never overlap.
func overlaps(a, b string) bool {
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}

	return strings.Contains(a, b) || strings.Contains(b, a)
}

func (sc Score) String() string {
	return fmt.Sprintf("%.2f (%s)", sc.Value, strings.Join(sc.Reasons, "; "))
}
