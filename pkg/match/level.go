package match

import (
	"fmt"
	"strings"

	"github.com/vibekit/rulehub/pkg/catalog"
)

// Level is a coarse specificity tier controlling application order.
type Level string

const (
	LevelGeneral     Level = "general"
	LevelStack       Level = "stack"
	LevelLanguage    Level = "language"
	LevelEnvironment Level = "environment"
)

var (
	// Levels lists every level in application order.
	Levels = []Level{LevelGeneral, LevelStack, LevelLanguage, LevelEnvironment}

	environmentKeywords = []string{"node", "npm", "docker", "env", "config"}
	languageKeywords    = []string{"typescript", "javascript", "python", "java"}
	stackKeywords       = []string{"react", "vue", "angular", "next", "nuxt"}
)

// Rank returns the sort rank of the level, general first.
func (l Level) Rank() int {
	switch l {
	case LevelGeneral:
		return 0
	case LevelStack:
		return 1
	case LevelLanguage:
		return 2
	case LevelEnvironment:
		return 3
	}

	return len(Levels)
}

// ParseLevel converts a string into a [Level].
func ParseLevel(s string) (Level, error) {
	l := Level(strings.ToLower(strings.TrimSpace(s)))
	if l.Rank() == len(Levels) {
		return "", fmt.Errorf("unknown level %q", s)
	}

	return l, nil
}

// Classify assigns r to a level by keyword search over its title, content
// and tags. The first matching tier wins, in the order environment,
// language, stack; anything else is general.
func Classify(r *catalog.Rule) Level {
	text := strings.ToLower(r.Title + " " + r.Content + " " + strings.Join(r.Tags, " "))

	switch {
	case containsAny(text, environmentKeywords):
		return LevelEnvironment
	case containsAny(text, languageKeywords):
		return LevelLanguage
	case containsAny(text, stackKeywords):
		return LevelStack
	}

	return LevelGeneral
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}

	return false
}

// FilterLevel returns the rules classified at level. An empty level
// returns rules unchanged.
func FilterLevel(rules []catalog.Rule, level Level) []catalog.Rule {
	if level == "" {
		return rules
	}

	out := make([]catalog.Rule, 0, len(rules))
	for i := range rules {
		if Classify(&rules[i]) == level {
			out = append(out, rules[i])
		}
	}

	return out
}
