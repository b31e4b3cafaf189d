package configs_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/api/v1beta1"
	"github.com/vibekit/rulehub/api/v1beta1/configs"
	"github.com/vibekit/rulehub/pkg/config"
	"github.com/vibekit/rulehub/pkg/layout"
	"github.com/vibekit/rulehub/pkg/yaml"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := configs.New()

	assert.Equal(t, v1beta1.APIVersion, cfg.GetAPIVersion())
	assert.Equal(t, "Configuration", cfg.GetKind())
	assert.Equal(t, "rulehub.db", filepath.Base(cfg.Store.Path))
	assert.Equal(t, "packages", filepath.Base(cfg.Artifacts.Dir))
	assert.Equal(t, []string{"claude", "cursor"}, cfg.Scoring.Assistants)
	require.NotNil(t, cfg.Layout)
	assert.Contains(t, cfg.Layout.Profiles, layout.ProfileCursor)
	assert.False(t, cfg.Tracing.Enabled)
	assert.Empty(t, cfg.MCP.Address)
	require.NoError(t, cfg.Validate())
}

func TestDefaultConfigMatchesSchema(t *testing.T) {
	t.Parallel()

	b, err := configs.New().MarshalYAML()
	require.NoError(t, err)

	require.NoError(t, configs.DefaultValidator.ValidateBytes(b))
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		mutate   func(c *configs.Config)
		wantPath string
		wantErr  string
	}{
		"empty assistant": {
			mutate: func(c *configs.Config) {
				c.Scoring.Assistants = []string{""}
			},
			wantPath: "$.scoring.assistants[0]",
		},
		"unknown selector profile": {
			mutate: func(c *configs.Config) {
				c.Layout.Selectors = []*layout.Selector{{Match: "true", Profile: "nope"}}
			},
			wantPath: "$.layout.selectors[0].profile",
		},
		"wrong kind": {
			mutate: func(c *configs.Config) {
				c.Kind = "RuleCatalog"
			},
			wantErr: `expected kind "Configuration"`,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := configs.New()
			tc.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)

			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
			}

			if tc.wantPath != "" {
				var yamlErr *yaml.Error
				require.ErrorAs(t, err, &yamlErr)
				assert.Equal(t, tc.wantPath, yamlErr.Path.String())
			}
		})
	}
}

func TestConfig_Scorer(t *testing.T) {
	t.Parallel()

	cfg := configs.New()
	assert.NotNil(t, cfg.Scorer())

	cfg.Scoring = nil
	assert.NotNil(t, cfg.Scorer())
}

func TestWriteDefaultAndLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rulehub", "config.yaml")

	require.NoError(t, configs.WriteDefault(path, false))

	// A second write keeps the existing file.
	require.NoError(t, os.WriteFile(path, []byte("apiVersion: rulehub.vibekit.dev/v1beta1\nkind: Configuration\nstore:\n  path: /tmp/x.db\n"), 0o600))
	require.NoError(t, configs.WriteDefault(path, false))

	l, err := config.NewLoaderFromFile(path, configs.New, configs.DefaultValidator)
	require.NoError(t, err)

	cfg, err := l.ValidateAndLoad()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", cfg.Store.Path)
	assert.NotEmpty(t, cfg.Artifacts.Dir)
	assert.NotNil(t, cfg.Layout)
}
