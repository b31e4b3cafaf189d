package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vibekit/rulehub/pkg/conflict"
	"github.com/vibekit/rulehub/pkg/emit"
	"github.com/vibekit/rulehub/pkg/layout"
	"github.com/vibekit/rulehub/pkg/log"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/wizard"
)

const StageInvalidConfiguration = "invalid configuration"

var errMissingConfiguration = errors.New("missing configuration")

// Result is everything produced by one generation call.
type Result struct {
	Package  *Package
	Artifact *emit.Artifact
	Profile  string
	Rules    []match.MatchedRule
}

// Generator runs the generation pipeline. It holds no per-call state, so
// concurrent calls are independent.
type Generator struct {
	rules     RuleRepository
	configs   ConfigurationStore
	packages  PackageStore
	artifacts ArtifactStorage
	layouts   *layout.Config
	emitters  *emit.Registry
	matcher   *match.Matcher
	resolver  *conflict.Resolver
	now       func() time.Time
	newID     func() string
}

// Opt configures a [Generator].
type Opt func(*Generator)

// WithArtifactStorage sets the upload target. Without one, packages have no
// download URL.
func WithArtifactStorage(s ArtifactStorage) Opt {
	return func(g *Generator) {
		g.artifacts = s
	}
}

// WithLayouts sets the IDE layout configuration.
func WithLayouts(c *layout.Config) Opt {
	return func(g *Generator) {
		g.layouts = c
	}
}

// WithEmitters sets the emitter registry.
func WithEmitters(r *emit.Registry) Opt {
	return func(g *Generator) {
		g.emitters = r
	}
}

// WithMatcher sets the matcher.
func WithMatcher(m *match.Matcher) Opt {
	return func(g *Generator) {
		g.matcher = m
	}
}

// WithClock sets the time source.
func WithClock(now func() time.Time) Opt {
	return func(g *Generator) {
		g.now = now
	}
}

// WithIDGenerator sets the package id source.
func WithIDGenerator(newID func() string) Opt {
	return func(g *Generator) {
		g.newID = newID
	}
}

// NewGenerator creates a new [Generator].
func NewGenerator(rules RuleRepository, configs ConfigurationStore, packages PackageStore, opts ...Opt) *Generator {
	g := &Generator{
		rules:    rules,
		configs:  configs,
		packages: packages,
		layouts:  layout.DefaultConfig(),
		emitters: emit.DefaultRegistry(),
		matcher:  match.NewMatcher(nil),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(g)
	}

	g.resolver = conflict.NewResolver(rules)

	return g
}

// Generate runs the full pipeline and returns the persisted descriptor.
func (g *Generator) Generate(ctx context.Context, cfg *wizard.Configuration) (*Package, error) {
	res, err := g.GenerateArtifact(ctx, cfg)
	if err != nil {
		return nil, err
	}

	return res.Package, nil
}

// GenerateArtifact runs the full pipeline and also returns the artifact
// bytes and the matched rules.
func (g *Generator) GenerateArtifact(ctx context.Context, cfg *wizard.Configuration) (*Result, error) {
	tracer := otel.Tracer("generate")

	ctx, span := tracer.Start(ctx, "generate package")
	defer span.End()

	logger := log.WithContext(ctx)

	fail := func(stage string, err error) (*Result, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		logger.ErrorContext(ctx, "package generation failed",
			slog.String("stage", stage),
			slog.Any("err", err),
		)

		return nil, &PackageGenerationError{Stage: stage, Err: err}
	}

	if cfg == nil {
		return fail(StageInvalidConfiguration, errMissingConfiguration)
	}
	if err := cfg.Validate(); err != nil {
		return fail(StageInvalidConfiguration, err)
	}

	span.SetAttributes(attribute.String("format", string(cfg.OutputFormat)))

	configID, err := g.configs.InsertConfiguration(ctx, cfg)
	if err != nil {
		return fail(StageSaveConfiguration, err)
	}

	rules, err := g.match(ctx, cfg)
	if err != nil {
		return fail(StageFetchRules, err)
	}

	rules = g.resolver.Resolve(ctx, rules)

	now := g.now()
	profileName, profile := g.layouts.Select(cfg)

	art, err := g.emitters.Emit(ctx, emit.Input{
		GeneratedAt: now,
		Config:      cfg,
		Profile:     profile,
		ProfileName: profileName,
		Rules:       rules,
	})
	if err != nil {
		var unsupported *emit.UnsupportedFormatError
		if errors.As(err, &unsupported) {
			return fail(unsupported.Error(), err)
		}

		return fail(StageEmit, err)
	}

	pkg := &Package{
		ID:              g.newID(),
		ConfigurationID: configID,
		PackageType:     cfg.OutputFormat,
		FileSize:        art.Size(),
		RuleCount:       len(rules),
		CreatedAt:       now,
		ExpiresAt:       now.Add(Retention),
	}
	pkg.FileName = FileName(pkg.ID, art.Extension)
	pkg.DownloadURL = g.upload(ctx, pkg, art)

	saved, err := g.packages.InsertPackage(ctx, pkg)
	if err != nil {
		return fail(StageSavePackage, err)
	}

	span.SetAttributes(
		attribute.String("package.id", saved.ID),
		attribute.Int("rules", saved.RuleCount),
		attribute.Int64("bytes", saved.FileSize),
	)

	logger.InfoContext(ctx, "generated package",
		slog.String("id", saved.ID),
		slog.String("format", string(saved.PackageType)),
		slog.String("profile", profileName),
		slog.Int("rules", saved.RuleCount),
		slog.Int64("bytes", saved.FileSize),
	)

	return &Result{
		Package:  saved,
		Artifact: art,
		Profile:  profileName,
		Rules:    rules,
	}, nil
}

// Preview fetches, scores, classifies and resolves rules for cfg without
// persisting anything.
func (g *Generator) Preview(ctx context.Context, cfg *wizard.Configuration) ([]match.MatchedRule, error) {
	tracer := otel.Tracer("generate")

	ctx, span := tracer.Start(ctx, "preview package")
	defer span.End()

	rules, err := g.match(ctx, cfg)
	if err != nil {
		span.RecordError(err)

		return nil, err
	}

	return g.resolver.Resolve(ctx, rules), nil
}

func (g *Generator) match(ctx context.Context, cfg *wizard.Configuration) ([]match.MatchedRule, error) {
	if cfg == nil {
		return nil, errMissingConfiguration
	}

	span := trace.SpanFromContext(ctx)

	all, err := g.rules.FetchAllRulesWithCompatibility(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch rules: %w", err)
	}

	matched := g.matcher.Match(all, cfg.Choices())

	span.SetAttributes(
		attribute.Int("catalog", len(all)),
		attribute.Int("matched", len(matched)),
	)

	return matched, nil
}

func (g *Generator) upload(ctx context.Context, pkg *Package, art *emit.Artifact) string {
	if g.artifacts == nil {
		return ""
	}

	url, err := g.artifacts.Upload(ctx, pkg.ID, art.Data, pkg.PackageType)
	if err != nil {
		log.WithContext(ctx).WarnContext(ctx, "artifact upload failed, continuing without download url",
			slog.String("id", pkg.ID),
			slog.Any("err", err),
		)

		return ""
	}

	return url
}
