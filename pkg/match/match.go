package match

import (
	"cmp"
	"slices"

	"github.com/vibekit/rulehub/pkg/catalog"
	"github.com/vibekit/rulehub/pkg/wizard"
)

// MatchedRule is a rule with a positive score against one configuration.
// It only lives for the duration of one generation call.
type MatchedRule struct {
	catalog.Rule

	Level        Level    `json:"level"`
	MatchReasons []string `json:"matchReasons"`
	MatchScore   float64  `json:"matchScore"`
}

// Matcher scores, filters, classifies and orders a rule catalog.
type Matcher struct {
	scorer *Scorer
}

// NewMatcher creates a new [Matcher] using the given [Scorer]. A nil
// scorer uses the defaults.
func NewMatcher(s *Scorer) *Matcher {
	if s == nil {
		s = NewScorer()
	}

	return &Matcher{scorer: s}
}

// Match returns the rules scoring above zero, classified and sorted.
func (m *Matcher) Match(rules []catalog.Rule, choices wizard.Choices) []MatchedRule {
	matched := make([]MatchedRule, 0, len(rules))

	for i := range rules {
		sc := m.scorer.Score(&rules[i], choices)
		if sc.Value <= 0 {
			continue
		}

		matched = append(matched, MatchedRule{
			Rule:         rules[i],
			Level:        Classify(&rules[i]),
			MatchScore:   sc.Value,
			MatchReasons: sc.Reasons,
		})
	}

	Sort(matched)

	return matched
}

// Sort orders rules by level rank ascending, then by score descending.
// Equal elements keep their relative order.
func Sort(rules []MatchedRule) {
	slices.SortStableFunc(rules, func(a, b MatchedRule) int {
		if c := cmp.Compare(a.Level.Rank(), b.Level.Rank()); c != 0 {
			return c
		}

		return cmp.Compare(b.MatchScore, a.MatchScore)
	})
}

// GroupByLevel splits rules by level, preserving order within each group.
func GroupByLevel(rules []MatchedRule) map[Level][]MatchedRule {
	groups := make(map[Level][]MatchedRule, len(Levels))
	for _, r := range rules {
		groups[r.Level] = append(groups[r.Level], r)
	}

	return groups
}

// IDs returns the rule ids in order.
func IDs(rules []MatchedRule) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}

	return ids
}
