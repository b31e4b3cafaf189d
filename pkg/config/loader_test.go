package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/api/v1beta1/catalogs"
	"github.com/vibekit/rulehub/api/v1beta1/configs"
	"github.com/vibekit/rulehub/api/v1beta1/wizards"
	"github.com/vibekit/rulehub/pkg/config"
	"github.com/vibekit/rulehub/pkg/wizard"
	"github.com/vibekit/rulehub/pkg/yaml"
)

func createTempFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "doc.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestNewLoaderFromFile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setupFile func(t *testing.T) string
		wantErr   bool
	}{
		"valid file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return createTempFile(t, "apiVersion: rulehub.vibekit.dev/v1beta1\nkind: Configuration\n")
			},
		},
		"non-existent file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return "/non/existent/file.yaml"
			},
			wantErr: true,
		},
		"directory instead of file": {
			setupFile: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := config.NewLoaderFromFile(tc.setupFile(t), configs.New, configs.DefaultValidator)
			if tc.wantErr {
				require.Error(t, err)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, got)
		})
	}
}

func TestLoader_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		input   string
		wantErr string
	}{
		"valid": {
			input: "apiVersion: rulehub.vibekit.dev/v1beta1\nkind: Configuration\nstore:\n  path: ./hub.db\n",
		},
		"unknown field": {
			input:   "kind: Configuration\nstorage: {}\n",
			wantErr: "storage",
		},
		"wrong type": {
			input:   "kind: Configuration\nscoring:\n  assistants: claude\n",
			wantErr: "[3:",
		},
		"invalid yaml": {
			input:   "kind: [Configuration\n",
			wantErr: "[1:",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := config.NewLoaderFromBytes([]byte(tc.input), configs.New, configs.DefaultValidator).Validate()
			if tc.wantErr == "" {
				require.NoError(t, err)

				return
			}

			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestLoader_WithoutValidator(t *testing.T) {
	t.Parallel()

	// Schema validation is skipped, the document's own checks still run.
	l := config.NewLoaderFromBytes(
		[]byte("kind: Configuration\nscoring:\n  assistants: ['']\n"),
		configs.New,
		configs.DefaultValidator,
		config.WithValidator(nil),
	)

	require.NoError(t, l.Validate())

	_, err := l.Load()

	var yamlErr *yaml.Error
	require.ErrorAs(t, err, &yamlErr)
	assert.Equal(t, "$.scoring.assistants[0]", yamlErr.Path.String())
	assert.Contains(t, err.Error(), "[3:")
}

func TestLoader_Kinds(t *testing.T) {
	t.Parallel()

	cat, err := config.NewLoaderFromBytes(
		[]byte("kind: RuleCatalog\nrules:\n  - id: a\n    title: A\n"),
		catalogs.New,
		catalogs.DefaultValidator,
	).ValidateAndLoad()
	require.NoError(t, err)
	assert.Equal(t, "RuleCatalog", cat.GetKind())
	require.Len(t, cat.Rules, 1)

	wiz, err := config.NewLoaderFromBytes(
		[]byte("outputFormat: config\nlanguageChoices:\n  go: true\n"),
		wizards.Empty,
		wizards.DefaultValidator,
	).ValidateAndLoad()
	require.NoError(t, err)
	assert.Equal(t, wizard.FormatConfig, wiz.OutputFormat)
	assert.Equal(t, "rulehub.vibekit.dev/v1beta1", wiz.GetAPIVersion())

	// A configuration document is not a wizard document.
	_, err = config.NewLoaderFromBytes(
		[]byte("kind: Configuration\noutputFormat: zip\n"),
		wizards.Empty,
		wizards.DefaultValidator,
	).ValidateAndLoad()
	require.Error(t, err)
}

func TestLoadConfiguration(t *testing.T) {
	t.Parallel()

	t.Run("project file", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		nested := filepath.Join(root, "a", "b")
		require.NoError(t, os.MkdirAll(nested, 0o700))
		require.NoError(t, os.WriteFile(
			filepath.Join(root, ".rulehub.yaml"),
			[]byte("kind: Configuration\nartifacts:\n  baseUrl: https://dl.example.com/\n"),
			0o600,
		))

		cfg, path, err := config.LoadConfiguration("", nested)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(root, ".rulehub.yaml"), path)
		assert.Equal(t, "https://dl.example.com/", cfg.Artifacts.BaseURL)
		assert.NotEmpty(t, cfg.Store.Path)
	})

	t.Run("explicit missing file", func(t *testing.T) {
		t.Parallel()

		_, _, err := config.LoadConfiguration(filepath.Join(t.TempDir(), "nope.yaml"), "")
		require.Error(t, err)
	})

	t.Run("explicit invalid file", func(t *testing.T) {
		t.Parallel()

		path := createTempFile(t, "kind: Configuration\nmcp:\n  port: 1\n")

		_, got, err := config.LoadConfiguration(path, "")
		require.Error(t, err)
		assert.Equal(t, path, got)
	})
}
