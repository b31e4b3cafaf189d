package api_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/api"
)

//nolint:paralleltest // Mutates XDG environment variables.
func TestUserPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	assert.Equal(t, "/custom/config/rulehub/config.yaml", api.ConfigPath("config.yaml"))
	assert.Equal(t, "/custom/data/rulehub/rulehub.db", api.DataPath("rulehub.db"))
}

//nolint:paralleltest // Mutates XDG environment variables.
func TestResolveConfigPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	xdg.Reload()
	t.Cleanup(xdg.Reload)

	project := t.TempDir()
	nested := filepath.Join(project, "src", "app")
	require.NoError(t, os.MkdirAll(nested, 0o700))
	require.NoError(t, os.WriteFile(filepath.Join(project, ".rulehub.yaml"), []byte("kind: Configuration\n"), 0o600))

	tcs := map[string]struct {
		explicit string
		dir      string
		want     string
	}{
		"explicit wins": {
			explicit: "/etc/rulehub.yaml",
			dir:      nested,
			want:     "/etc/rulehub.yaml",
		},
		"project file above dir": {
			dir:  nested,
			want: filepath.Join(project, ".rulehub.yaml"),
		},
		"user config fallback": {
			dir:  t.TempDir(),
			want: "/custom/config/rulehub/config.yaml",
		},
		"no dir": {
			want: "/custom/config/rulehub/config.yaml",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, api.ResolveConfigPath(tc.explicit, tc.dir))
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setup   func(t *testing.T) string
		wantErr string
	}{
		"regular file": {
			setup: func(t *testing.T) string {
				t.Helper()

				p := filepath.Join(t.TempDir(), "catalog.yaml")
				require.NoError(t, os.WriteFile(p, []byte("rules: []\n"), 0o600))

				return p
			},
		},
		"missing": {
			setup: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "missing.yaml")
			},
			wantErr: "stat file",
		},
		"directory": {
			setup: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			wantErr: "path is a directory",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			got, err := api.ReadFile(tc.setup(t))
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				assert.Nil(t, got)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "rules: []\n", string(got))
		})
	}
}

func TestMarshalYAML(t *testing.T) {
	t.Parallel()

	type rule struct {
		ID   string   `json:"id"`
		Tags []string `json:"tags"`
	}

	data, err := api.MarshalYAML(rule{ID: "r1", Tags: []string{"react"}})
	require.NoError(t, err)
	assert.Equal(t, "id: r1\ntags:\n  - react\n", string(data))
}

func TestWriteDefaultFile(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		setup      func(t *testing.T) string
		wantErr    string
		wantData   string
		force      bool
		wantBackup bool
	}{
		"new file in nested dir": {
			setup: func(t *testing.T) string {
				t.Helper()

				return filepath.Join(t.TempDir(), "a", "b", "config.yaml")
			},
			wantData: "default",
		},
		"existing file kept": {
			setup: func(t *testing.T) string {
				t.Helper()

				p := filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(p, []byte("mine"), 0o600))

				return p
			},
			wantData: "mine",
		},
		"force backs up": {
			setup: func(t *testing.T) string {
				t.Helper()

				p := filepath.Join(t.TempDir(), "config.yaml")
				require.NoError(t, os.WriteFile(p, []byte("mine"), 0o600))

				return p
			},
			force:      true,
			wantData:   "default",
			wantBackup: true,
		},
		"directory": {
			setup: func(t *testing.T) string {
				t.Helper()

				return t.TempDir()
			},
			wantErr: "path is a directory",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			p := tc.setup(t)

			err := api.WriteDefaultFile(p, []byte("default"), tc.force, "configuration")
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)

			got, err := os.ReadFile(p)
			require.NoError(t, err)
			assert.Equal(t, tc.wantData, string(got))

			backups, err := filepath.Glob(p + ".*.old")
			require.NoError(t, err)

			if !tc.wantBackup {
				assert.Empty(t, backups)

				return
			}

			require.Len(t, backups, 1)

			old, err := os.ReadFile(backups[0])
			require.NoError(t, err)
			assert.Equal(t, "mine", string(old))
		})
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "rulehub.yaml"), []byte("x"), 0o600))

	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o700))

	file := filepath.Join(sub, "main.go")
	require.NoError(t, os.WriteFile(file, []byte("package main"), 0o600))

	for _, start := range []string{dir, sub, file} {
		got, err := api.FindConfigFile(start, api.ProjectConfigNames)
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(dir, "rulehub.yaml"), got)
	}

	got, err := api.FindConfigFile(t.TempDir(), []string{"nope.yaml"})
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = api.FindConfigFile(filepath.Join(dir, "missing"), api.ProjectConfigNames)
	require.Error(t, err)
}
