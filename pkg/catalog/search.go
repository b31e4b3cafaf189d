package catalog

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// searchSource adapts rules to [fuzzy.Source].
type searchSource []Rule

func (s searchSource) String(i int) string {
	r := &s[i]

	return r.ID + " " + r.Title + " " + strings.Join(r.Tags, " ")
}

func (s searchSource) Len() int {
	return len(s)
}

// Search fuzzy matches query against rule ids, titles and tags and returns
// the matching rules, best match first. A blank query returns rules
// unchanged.
func Search(rules []Rule, query string) []Rule {
	query = strings.TrimSpace(query)
	if query == "" {
		return rules
	}

	matches := fuzzy.FindFrom(query, searchSource(rules))

	out := make([]Rule, 0, len(matches))
	for _, m := range matches {
		out = append(out, rules[m.Index])
	}

	return out
}
