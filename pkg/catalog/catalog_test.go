package catalog_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/pkg/catalog"
)

func TestRuleValidate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		want error
		rule catalog.Rule
	}{
		"valid":         {rule: catalog.Rule{ID: "r1", Title: "Rule"}},
		"blank id":      {rule: catalog.Rule{ID: " ", Title: "Rule"}, want: catalog.ErrMissingID},
		"missing title": {rule: catalog.Rule{ID: "r1"}, want: catalog.ErrMissingTitle},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.rule.Validate()
			if tc.want == nil {
				require.NoError(t, err)

				return
			}

			require.ErrorIs(t, err, tc.want)
		})
	}
}

func TestRuleCompatibility(t *testing.T) {
	t.Parallel()

	var r catalog.Rule
	assert.Nil(t, r.Frameworks())
	assert.Nil(t, r.AIAssistants())
	assert.True(t, r.Compatibility.IsEmpty())

	r.Compatibility = &catalog.Compatibility{IDEs: []string{"cursor"}}
	assert.False(t, r.Compatibility.IsEmpty())
	assert.Nil(t, r.Frameworks())

	r.Compatibility.Frameworks = []string{"react"}
	r.Compatibility.AIAssistants = []string{"claude"}
	assert.Equal(t, []string{"react"}, r.Frameworks())
	assert.Equal(t, []string{"claude"}, r.AIAssistants())
}

func TestDependencyValidate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		dep     catalog.Dependency
		wantErr string
	}{
		"valid conflict": {
			dep: catalog.Dependency{RuleID: "a", DependsOnRuleID: "b", Type: catalog.DependencyConflicts},
		},
		"missing endpoint": {
			dep:     catalog.Dependency{RuleID: "a", Type: catalog.DependencyRequires},
			wantErr: "endpoints must be set",
		},
		"self edge": {
			dep:     catalog.Dependency{RuleID: "a", DependsOnRuleID: "a", Type: catalog.DependencySuggests},
			wantErr: "cannot depend on itself",
		},
		"missing type": {
			dep:     catalog.Dependency{RuleID: "a", DependsOnRuleID: "b"},
			wantErr: "missing type",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.dep.Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.ErrorContains(t, err, tc.wantErr)
		})
	}

	assert.True(t, catalog.Dependency{Type: catalog.DependencyConflicts}.IsConflict())
	assert.False(t, catalog.Dependency{Type: catalog.DependencyRequires}.IsConflict())
}

func TestSearch(t *testing.T) {
	t.Parallel()

	rules := []catalog.Rule{
		{ID: "react-hooks", Title: "React Hooks", Tags: []string{"react"}},
		{ID: "go-errors", Title: "Wrap Errors", Tags: []string{"go"}},
		{ID: "ts-strict", Title: "Strict Mode", Tags: []string{"typescript"}},
	}

	tcs := map[string]struct {
		query string
		want  []string
	}{
		"blank": {
			query: "  ",
			want:  []string{"react-hooks", "go-errors", "ts-strict"},
		},
		"id prefix": {
			query: "react",
			want:  []string{"react-hooks"},
		},
		"tag": {
			query: "typescript",
			want:  []string{"ts-strict"},
		},
		"no match": {
			query: "zzz",
			want:  []string{},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got := catalog.Search(rules, tc.query)

			ids := make([]string, 0, len(got))
			for _, r := range got {
				ids = append(ids, r.ID)
			}

			assert.Equal(t, tc.want, ids)
		})
	}
}
