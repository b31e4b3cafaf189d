package v1beta1_test

import (
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/api/v1beta1"
)

func TestNewTypeMeta(t *testing.T) {
	t.Parallel()

	tm := v1beta1.NewTypeMeta("RuleCatalog")

	assert.Equal(t, "rulehub.vibekit.dev/v1beta1", tm.GetAPIVersion())
	assert.Equal(t, "RuleCatalog", tm.GetKind())
}

func TestTypeMeta_Check(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		tm      v1beta1.TypeMeta
		wantErr string
	}{
		"current": {
			tm: v1beta1.NewTypeMeta("RuleCatalog"),
		},
		"empty": {
			tm: v1beta1.TypeMeta{},
		},
		"wrong kind": {
			tm:      v1beta1.NewTypeMeta("Configuration"),
			wantErr: `expected kind "RuleCatalog"`,
		},
		"unknown version": {
			tm:      v1beta1.TypeMeta{APIVersion: "example.com/v9", Kind: "RuleCatalog"},
			wantErr: "unsupported apiVersion",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.tm.Check("RuleCatalog")
			if tc.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func typeMetaSchema(props ...string) *jsonschema.Schema {
	jss := &jsonschema.Schema{Properties: jsonschema.NewProperties()}
	for _, p := range props {
		jss.Properties.Set(p, &jsonschema.Schema{Type: "string"})
	}

	return jss
}

func TestConstrainTypeMeta(t *testing.T) {
	t.Parallel()

	jss := typeMetaSchema("apiVersion", "kind", "rules")

	v1beta1.ConstrainTypeMeta(jss, "RuleCatalog")

	apiVersion, ok := jss.Properties.Get("apiVersion")
	require.True(t, ok)
	assert.Equal(t, []any{v1beta1.APIVersion}, apiVersion.Enum)

	kind, ok := jss.Properties.Get("kind")
	require.True(t, ok)
	assert.Equal(t, "RuleCatalog", kind.Const)

	rules, ok := jss.Properties.Get("rules")
	require.True(t, ok)
	assert.Nil(t, rules.Const)
	assert.Empty(t, rules.Enum)
}

func TestConstrainTypeMetaPanics(t *testing.T) {
	t.Parallel()

	tcs := map[string]*jsonschema.Schema{
		"no properties": {},
		"no apiVersion": typeMetaSchema("kind"),
		"no kind":       typeMetaSchema("apiVersion"),
	}

	for name, jss := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Panics(t, func() {
				v1beta1.ConstrainTypeMeta(jss, "RuleCatalog")
			})
		})
	}
}
