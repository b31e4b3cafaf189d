package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/api/v1beta1/wizards"
	"github.com/vibekit/rulehub/internal/cli"
	"github.com/vibekit/rulehub/pkg/config"
	"github.com/vibekit/rulehub/pkg/emit"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/store"
)

const testCatalog = `apiVersion: rulehub.vibekit.dev/v1beta1
kind: RuleCatalog
rules:
  - id: react-hooks
    title: React Hooks
    tags: [react, hooks]
    compatibility:
      frameworks: [react]
    content: |
      Prefer hooks over classes.
  - id: general
    title: General Practices
    alwaysApply: true
    content: Keep functions small.
  - id: vue-style
    title: Vue Style Guide
    tags: [vue]
    compatibility:
      frameworks: [vue]
`

type repo struct {
	dir     string
	config  string
	catalog string
}

func newRepo(t *testing.T) *repo {
	t.Helper()

	dir := t.TempDir()
	r := &repo{
		dir:     dir,
		config:  filepath.Join(dir, "config.yaml"),
		catalog: filepath.Join(dir, "catalog.yaml"),
	}

	cfg := strings.Join([]string{
		"apiVersion: rulehub.vibekit.dev/v1beta1",
		"kind: Configuration",
		"store:",
		"  path: " + filepath.Join(dir, "rulehub.db"),
		"artifacts:",
		"  dir: " + filepath.Join(dir, "packages"),
		"  baseUrl: https://dl.example.com",
		"",
	}, "\n")

	require.NoError(t, os.WriteFile(r.config, []byte(cfg), 0o600))
	require.NoError(t, os.WriteFile(r.catalog, []byte(testCatalog), 0o600))

	r.mustRun(t, "import", r.catalog)

	return r
}

func (r *repo) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer

	cmd := cli.NewRootCmd()
	cmd.SetArgs(append([]string{"--config", r.config, "--log-level", "warn"}, args...))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	err := cmd.ExecuteContext(t.Context())

	return stdout.String(), stderr.String(), err
}

func (r *repo) mustRun(t *testing.T, args ...string) string {
	t.Helper()

	stdout, stderr, err := r.run(t, args...)
	require.NoError(t, err, stderr)

	return stdout
}

func (r *repo) packages(t *testing.T) []string {
	t.Helper()

	s, err := store.Open(t.Context(), filepath.Join(r.dir, "rulehub.db"))
	require.NoError(t, err)

	defer func() {
		require.NoError(t, s.Close())
	}()

	pkgs, err := s.ListPackages(t.Context(), time.Now())
	require.NoError(t, err)

	ids := make([]string, 0, len(pkgs))
	for i := range pkgs {
		ids = append(ids, pkgs[i].ID)
	}

	return ids
}

func TestImport(t *testing.T) {
	r := newRepo(t)

	out := r.mustRun(t, "import", r.catalog)
	assert.Contains(t, out, "Imported 3 rules and 0 dependencies")

	_, _, err := r.run(t, "import", filepath.Join(r.dir, "missing.yaml"))
	require.ErrorContains(t, err, "read catalog")
}

func TestGeneratePrintConfig(t *testing.T) {
	r := newRepo(t)

	stdout, stderr, err := r.run(t, "generate", "--stack", "react", "--format", "config", "--print")
	require.NoError(t, err, stderr)

	var doc emit.ConfigBundle
	require.NoError(t, json.Unmarshal([]byte(stdout), &doc))

	assert.Equal(t, 2, doc.RuleCount)

	ids := make([]string, 0, len(doc.Rules))
	for _, ar := range doc.Rules {
		ids = append(ids, ar.ID)
	}

	assert.ElementsMatch(t, []string{"react-hooks", "general"}, ids)
	assert.Contains(t, stderr, "Package")
	assert.Contains(t, stderr, "https://dl.example.com/rulehub-")

	assert.Len(t, r.packages(t), 1)
}

func TestGenerateFromFile(t *testing.T) {
	r := newRepo(t)

	wizardPath := filepath.Join(r.dir, "wizard.yaml")
	require.NoError(t, os.WriteFile(wizardPath, []byte(strings.Join([]string{
		"apiVersion: rulehub.vibekit.dev/v1beta1",
		"kind: WizardConfiguration",
		"outputFormat: bash",
		"stackChoices:",
		"  vue: true",
		"environmentDetails:",
		"  targetIde: cursor",
		"",
	}, "\n")), 0o600))

	script := filepath.Join(r.dir, "setup.sh")
	saved := filepath.Join(r.dir, "saved.yaml")

	r.mustRun(t, "generate", "-f", wizardPath, "--language", "typescript", "-o", script, "--save", saved)

	b, err := os.ReadFile(script)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(b), "#!/bin/sh\n"))
	assert.Contains(t, string(b), "# Vue Style Guide")
	assert.Contains(t, string(b), "for the cursor layout")

	l, err := config.NewLoaderFromFile(saved, wizards.Empty, wizards.DefaultValidator)
	require.NoError(t, err)

	doc, err := l.ValidateAndLoad()
	require.NoError(t, err)
	assert.Equal(t, "cursor", doc.TargetIDE())
	assert.Equal(t, map[string]bool{"vue": true}, doc.StackChoices)
	assert.Equal(t, map[string]bool{"typescript": true}, doc.LanguageChoices)

	out := r.mustRun(t, "generate", "-f", saved, "--diff", script, "--print")
	assert.Contains(t, out, "#!/bin/sh")
}

func TestGenerateErrors(t *testing.T) {
	r := newRepo(t)

	tcs := map[string]struct {
		want string
		args []string
	}{
		"unsupported format": {
			args: []string{"generate", "--format", "tar"},
			want: `failed to generate rule package: unsupported output format "tar"`,
		},
		"empty format": {
			args: []string{"generate", "--format", ""},
			want: "failed to generate rule package: invalid configuration",
		},
		"bad env": {
			args: []string{"generate", "--env", "targetIde"},
			want: "key=value",
		},
		"missing wizard file": {
			args: []string{"generate", "-f", "does-not-exist.yaml"},
			want: "read wizard configuration",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			_, _, err := r.run(t, tc.args...)
			require.ErrorContains(t, err, tc.want)
		})
	}

	assert.Empty(t, r.packages(t))
}

func TestMatch(t *testing.T) {
	r := newRepo(t)

	out := r.mustRun(t, "match", "--stack", "react", "--json")

	var rules []match.MatchedRule
	require.NoError(t, json.Unmarshal([]byte(out), &rules))
	require.Len(t, rules, 2)
	assert.Equal(t, match.LevelGeneral, rules[0].Level)

	out = r.mustRun(t, "match", "--stack", "angular")
	assert.Contains(t, out, "General Practices")
	assert.NotContains(t, out, "React Hooks")

	assert.Empty(t, r.packages(t))
}

func TestRules(t *testing.T) {
	r := newRepo(t)

	tcs := map[string]struct {
		args    []string
		want    []string
		notWant []string
	}{
		"list all": {
			args: []string{"rules", "list"},
			want: []string{"react-hooks", "general", "vue-style", "3 of 3 rules"},
		},
		"fuzzy query": {
			args:    []string{"rules", "list", "--query", "hooks"},
			want:    []string{"react-hooks", "1 of 3 rules"},
			notWant: []string{"vue-style"},
		},
		"level": {
			args:    []string{"rules", "list", "--level", "stack"},
			want:    []string{"react-hooks", "vue-style"},
			notWant: []string{"General Practices"},
		},
		"show": {
			args: []string{"rules", "show", "react-hooks"},
			want: []string{"React Hooks", "Prefer hooks over classes.", "react, hooks"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			out := r.mustRun(t, tc.args...)
			for _, w := range tc.want {
				assert.Contains(t, out, w)
			}
			for _, w := range tc.notWant {
				assert.NotContains(t, out, w)
			}
		})
	}

	_, _, err := r.run(t, "rules", "show", "nope")
	require.ErrorContains(t, err, `rule "nope" not found`)

	_, _, err = r.run(t, "rules", "list", "--level", "expert")
	require.ErrorContains(t, err, `unknown level "expert"`)
}

func TestPackages(t *testing.T) {
	r := newRepo(t)

	r.mustRun(t, "generate", "--stack", "react", "--format", "zip", "-o", filepath.Join(r.dir, "out.zip"))

	ids := r.packages(t)
	require.Len(t, ids, 1)

	out := r.mustRun(t, "packages", "list")
	assert.Contains(t, out, ids[0])
	assert.Contains(t, out, "zip")

	dest := filepath.Join(r.dir, "download.zip")
	r.mustRun(t, "packages", "download", ids[0], "-o", dest)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)

	want, err := os.ReadFile(filepath.Join(r.dir, "out.zip"))
	require.NoError(t, err)
	assert.Equal(t, want, got)

	out = r.mustRun(t, "packages", "show", ids[0])
	assert.Contains(t, out, "downloads: 1")

	_, _, err = r.run(t, "packages", "download", "nope")
	require.ErrorContains(t, err, `package "nope" not found`)

	out = r.mustRun(t, "packages", "purge")
	assert.Contains(t, out, "Purged 0 expired packages")
}

func TestConfigCommands(t *testing.T) {
	r := newRepo(t)

	out := r.mustRun(t, "config", "show")
	assert.Contains(t, out, "kind: Configuration")
	assert.Contains(t, out, "https://dl.example.com")

	out = r.mustRun(t, "config", "path")
	assert.Equal(t, r.config+"\n", out)

	out = r.mustRun(t, "config", "schema", "wizard")

	var schema map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &schema))
	assert.Contains(t, out, "outputFormat")

	_, _, err := r.run(t, "config", "schema", "policy")
	require.Error(t, err)

	fresh := filepath.Join(r.dir, "fresh", "config.yaml")

	cmd := cli.NewRootCmd()
	cmd.SetArgs([]string{"--config", fresh, "config", "init"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	require.NoError(t, cmd.ExecuteContext(t.Context()))

	b, err := os.ReadFile(fresh)
	require.NoError(t, err)
	assert.Contains(t, string(b), "kind: Configuration")
}

func TestTracingEnabled(t *testing.T) {
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	t.Setenv("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", "")

	r := newRepo(t)

	b, err := os.ReadFile(r.config)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(r.config, append(b, []byte("tracing:\n  enabled: true\n")...), 0o600))

	out := r.mustRun(t, "rules", "list")
	assert.Contains(t, out, "3 of 3 rules")
}

func TestWizardRequiresTerminal(t *testing.T) {
	r := newRepo(t)

	_, _, err := r.run(t, "wizard")
	require.ErrorContains(t, err, "interactive terminal")
}
