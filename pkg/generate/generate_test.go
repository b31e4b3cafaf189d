package generate_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/pkg/catalog"
	"github.com/vibekit/rulehub/pkg/emit"
	"github.com/vibekit/rulehub/pkg/generate"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/wizard"
)

var now = time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

type fakeRepo struct {
	rulesErr error
	edgesErr error
	rules    []catalog.Rule
	edges    []catalog.Dependency
}

func (f *fakeRepo) FetchAllRulesWithCompatibility(context.Context) ([]catalog.Rule, error) {
	return f.rules, f.rulesErr
}

func (f *fakeRepo) FetchConflictEdges(context.Context, []string) ([]catalog.Dependency, error) {
	return f.edges, f.edgesErr
}

type fakeStore struct {
	configErr  error
	packageErr error
	configs    []*wizard.Configuration
	packages   []*generate.Package
	mu         sync.Mutex
}

func (f *fakeStore) InsertConfiguration(_ context.Context, cfg *wizard.Configuration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.configErr != nil {
		return "", f.configErr
	}

	f.configs = append(f.configs, cfg)

	return "cfg-1", nil
}

func (f *fakeStore) InsertPackage(_ context.Context, pkg *generate.Package) (*generate.Package, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.packageErr != nil {
		return nil, f.packageErr
	}

	f.packages = append(f.packages, pkg)

	return pkg, nil
}

type fakeStorage struct {
	err error
}

func (f *fakeStorage) Upload(_ context.Context, id string, _ []byte, _ wizard.OutputFormat) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	return "https://example.com/" + id, nil
}

func catalogRules() []catalog.Rule {
	return []catalog.Rule{
		{ID: "A", Title: "Typed hooks", Tags: []string{"react", "typescript"}},
		{ID: "B", Title: "Hooks", Tags: []string{"react"}},
		{ID: "C", Title: "Unrelated", Tags: []string{"rust"}},
	}
}

func config(format wizard.OutputFormat) *wizard.Configuration {
	return &wizard.Configuration{
		StackChoices:    wizard.Select("react"),
		LanguageChoices: wizard.Select("typescript"),
		ToolPreferences: map[string]bool{},
		OutputFormat:    format,
	}
}

func newGenerator(repo *fakeRepo, store *fakeStore, opts ...generate.Opt) *generate.Generator {
	opts = append([]generate.Opt{
		generate.WithClock(func() time.Time { return now }),
		generate.WithIDGenerator(func() string { return "pkg-1" }),
	}, opts...)

	return generate.NewGenerator(repo, store, store, opts...)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{
		rules: catalogRules(),
		edges: []catalog.Dependency{
			{RuleID: "A", DependsOnRuleID: "B", Type: catalog.DependencyConflicts},
		},
	}
	store := &fakeStore{}

	g := newGenerator(repo, store, generate.WithArtifactStorage(&fakeStorage{}))

	res, err := g.GenerateArtifact(t.Context(), config(wizard.FormatConfig))
	require.NoError(t, err)

	pkg := res.Package
	assert.Equal(t, "pkg-1", pkg.ID)
	assert.Equal(t, "cfg-1", pkg.ConfigurationID)
	assert.Equal(t, wizard.FormatConfig, pkg.PackageType)
	assert.Equal(t, "https://example.com/pkg-1", pkg.DownloadURL)
	assert.Equal(t, "rulehub-pkg-1.json", pkg.FileName)
	assert.Equal(t, 1, pkg.RuleCount)
	assert.Equal(t, int64(len(res.Artifact.Data)), pkg.FileSize)
	assert.Equal(t, now.Add(7*24*time.Hour), pkg.ExpiresAt)
	assert.Zero(t, pkg.DownloadCount)
	assert.Equal(t, "generic", res.Profile)

	assert.Equal(t, []string{"A"}, match.IDs(res.Rules))
	assert.InDelta(t, 2.0, res.Rules[0].MatchScore, 1e-9)

	var doc emit.ConfigBundle
	require.NoError(t, json.Unmarshal(res.Artifact.Data, &doc))
	assert.Equal(t, 1, doc.RuleCount)

	require.Len(t, store.configs, 1)
	require.Len(t, store.packages, 1)
}

func TestGenerateFailures(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")

	tests := map[string]struct {
		repo      *fakeRepo
		store     *fakeStore
		cfg       *wizard.Configuration
		wantStage string
		wantMsg   string
	}{
		"save configuration": {
			repo:      &fakeRepo{rules: catalogRules()},
			store:     &fakeStore{configErr: cause},
			cfg:       config(wizard.FormatZip),
			wantStage: generate.StageSaveConfiguration,
			wantMsg:   "failed to generate rule package: failed to save configuration",
		},
		"fetch rules": {
			repo:      &fakeRepo{rulesErr: cause},
			store:     &fakeStore{},
			cfg:       config(wizard.FormatZip),
			wantStage: generate.StageFetchRules,
			wantMsg:   "failed to generate rule package: failed to fetch rules",
		},
		"unsupported format": {
			repo:      &fakeRepo{rules: catalogRules()},
			store:     &fakeStore{},
			cfg:       config("tar"),
			wantStage: `unsupported output format "tar"`,
			wantMsg:   `failed to generate rule package: unsupported output format "tar"`,
		},
		"save package": {
			repo:      &fakeRepo{rules: catalogRules()},
			store:     &fakeStore{packageErr: cause},
			cfg:       config(wizard.FormatBash),
			wantStage: generate.StageSavePackage,
			wantMsg:   "failed to generate rule package: failed to save package",
		},
		"missing format": {
			repo:      &fakeRepo{rules: catalogRules()},
			store:     &fakeStore{},
			cfg:       config(""),
			wantStage: generate.StageInvalidConfiguration,
			wantMsg:   "failed to generate rule package: invalid configuration",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			pkg, err := newGenerator(tc.repo, tc.store).Generate(t.Context(), tc.cfg)
			require.Error(t, err)
			assert.Nil(t, pkg)

			var genErr *generate.PackageGenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tc.wantStage, genErr.Stage)
			assert.Equal(t, tc.wantMsg, err.Error())
			require.ErrorIs(t, err, generate.ErrPackageGeneration)
			assert.NotContains(t, err.Error(), cause.Error())
		})
	}
}

func TestGenerateUnsupportedFormatUnwraps(t *testing.T) {
	t.Parallel()

	_, err := newGenerator(&fakeRepo{}, &fakeStore{}).Generate(t.Context(), config("tar"))

	var unsupported *emit.UnsupportedFormatError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, wizard.OutputFormat("tar"), unsupported.Format)
}

func TestGenerateToleratesCollaboratorFailures(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{rules: catalogRules(), edgesErr: errors.New("timeout")}
	store := &fakeStore{}

	g := newGenerator(repo, store, generate.WithArtifactStorage(&fakeStorage{err: errors.New("bucket missing")}))

	pkg, err := g.Generate(t.Context(), config(wizard.FormatZip))
	require.NoError(t, err)

	// Conflicts were not resolved, and the upload failed.
	assert.Equal(t, 2, pkg.RuleCount)
	assert.Empty(t, pkg.DownloadURL)
	assert.Positive(t, pkg.FileSize)
	assert.Equal(t, "rulehub-pkg-1.zip", pkg.FileName)
}

func TestPreview(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	repo := &fakeRepo{
		rules: catalogRules(),
		edges: []catalog.Dependency{{RuleID: "B", DependsOnRuleID: "A", Type: catalog.DependencyConflicts}},
	}

	rules, err := newGenerator(repo, store).Preview(t.Context(), config(wizard.FormatBash))
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, match.IDs(rules))
	assert.Empty(t, store.configs)
	assert.Empty(t, store.packages)

	_, err = newGenerator(&fakeRepo{rulesErr: errors.New("down")}, store).Preview(t.Context(), config(wizard.FormatBash))
	require.Error(t, err)
}

func TestPackageExpired(t *testing.T) {
	t.Parallel()

	pkg := generate.Package{ExpiresAt: now}
	assert.False(t, pkg.Expired(now.Add(-time.Second)))
	assert.True(t, pkg.Expired(now))
}
