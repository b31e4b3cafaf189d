package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/wizard"
)

// ConfigFiles holds the well-known config fragments found in rule content.
type ConfigFiles struct {
	PackageJSON  map[string]any `json:"packageJson,omitempty"`
	TSConfig     map[string]any `json:"tsConfig,omitempty"`
	ESLintConfig map[string]any `json:"eslintConfig,omitempty"`
}

// AppliedRule is a manifest entry in a config bundle.
type AppliedRule struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Level       match.Level `json:"level"`
	AlwaysApply bool        `json:"alwaysApply"`
}

// ConfigBundle is the JSON document rendered by [ConfigEmitter].
type ConfigBundle struct {
	GeneratedAt   time.Time             `json:"generatedAt"`
	Configuration *wizard.Configuration `json:"configuration"`
	ConfigFiles   ConfigFiles           `json:"configFiles"`
	Version       string                `json:"version"`
	Profile       string                `json:"profile"`
	Rules         []AppliedRule         `json:"rules"`
	RuleCount     int                   `json:"ruleCount"`
}

// ConfigEmitter renders a single JSON document.
type ConfigEmitter struct{}

// NewConfigEmitter creates a new [ConfigEmitter].
func NewConfigEmitter() *ConfigEmitter {
	return &ConfigEmitter{}
}

func (*ConfigEmitter) Format() wizard.OutputFormat {
	return wizard.FormatConfig
}

func (*ConfigEmitter) Emit(ctx context.Context, in Input) (*Artifact, error) {
	bundle := NewBundle()

	doc := ConfigBundle{
		Version:       ManifestVersion,
		GeneratedAt:   in.GeneratedAt.UTC(),
		Profile:       profileLabel(in.ProfileName),
		Configuration: in.Config,
		Rules:         make([]AppliedRule, 0, len(in.Rules)),
		RuleCount:     len(in.Rules),
	}

	for _, level := range match.Levels {
		for _, r := range match.GroupByLevel(in.Rules)[level] {
			bundle.AddContent(ctx, r.Content)

			doc.Rules = append(doc.Rules, AppliedRule{
				ID:          r.ID,
				Title:       r.Title,
				Level:       r.Level,
				AlwaysApply: r.AlwaysApply,
			})
		}
	}

	if f, ok := bundle.Find(FilePackageJSON); ok && f.IsJSON() {
		doc.ConfigFiles.PackageJSON = f.JSON
	}
	if f, ok := bundle.Find(FileTSConfig); ok && f.IsJSON() {
		doc.ConfigFiles.TSConfig = f.JSON
	}
	if f, ok := bundle.Find(FileESLint, ".eslintrc", "eslint.config.json"); ok && f.IsJSON() {
		doc.ConfigFiles.ESLintConfig = f.JSON
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode config bundle: %w", err)
	}

	return &Artifact{
		Data:        append(data, '\n'),
		Extension:   wizard.FormatConfig.Extension(),
		ContentType: "application/json",
	}, nil
}
