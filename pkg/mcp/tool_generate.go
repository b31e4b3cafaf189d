package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vibekit/rulehub/pkg/generate"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/wizard"
)

// WizardParams describes a project the same way the setup wizard does.
type WizardParams struct {
	Environment        map[string]any `json:"environment,omitempty"        jsonschema:"environment details such as targetIde (cursor, vscode, webstorm) or nodeVersion"`
	OutputFormat       string         `json:"outputFormat,omitempty"       jsonschema:"package format: bash, zip or config"`
	CustomRequirements string         `json:"customRequirements,omitempty" jsonschema:"free-text notes stored with the configuration"`
	Stacks             []string       `json:"stacks,omitempty"             jsonschema:"framework ids, e.g. react or next"`
	Languages          []string       `json:"languages,omitempty"          jsonschema:"language ids, e.g. typescript or go"`
	Tools              []string       `json:"tools,omitempty"              jsonschema:"tool ids, e.g. eslint or docker"`
}

// Configuration converts the parameters to a wizard configuration.
func (p *WizardParams) Configuration() *wizard.Configuration {
	return &wizard.Configuration{
		StackChoices:       wizard.Select(p.Stacks...),
		LanguageChoices:    wizard.Select(p.Languages...),
		ToolPreferences:    wizard.Select(p.Tools...),
		EnvironmentDetails: p.Environment,
		OutputFormat:       wizard.OutputFormat(strings.ToLower(strings.TrimSpace(p.OutputFormat))),
		CustomRequirements: p.CustomRequirements,
	}
}

// MatchedRuleSummary is one rule in a match_rules result.
type MatchedRuleSummary struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Level   string   `json:"level"`
	Reasons []string `json:"reasons,omitempty"`
	Score   float64  `json:"score"`
}

// MatchRulesResult contains the result of previewing a configuration.
type MatchRulesResult struct {
	Levels  map[string]int       `json:"levels"`
	Message string               `json:"message"`
	Rules   []MatchedRuleSummary `json:"rules"`
	Count   int                  `json:"count"`
}

// PackageInfo describes a generated package.
type PackageInfo struct {
	ID              string `json:"id"`
	ConfigurationID string `json:"configurationId"`
	PackageType     string `json:"packageType"`
	DownloadURL     string `json:"downloadUrl,omitempty"`
	FileName        string `json:"fileName"`
	CreatedAt       string `json:"createdAt"`
	ExpiresAt       string `json:"expiresAt"`
	FileSize        int64  `json:"fileSize"`
	RuleCount       int    `json:"ruleCount"`
	DownloadCount   int    `json:"downloadCount"`
	Expired         bool   `json:"expired"`
}

// PackageResult contains a package and a message describing it.
type PackageResult struct {
	Package *PackageInfo `json:"package,omitempty"`
	Message string       `json:"message"`
	Found   bool         `json:"found"`
}

func newPackageInfo(p *generate.Package, now time.Time) *PackageInfo {
	return &PackageInfo{
		ID:              p.ID,
		ConfigurationID: p.ConfigurationID,
		PackageType:     string(p.PackageType),
		DownloadURL:     p.DownloadURL,
		FileName:        p.FileName,
		CreatedAt:       p.CreatedAt.UTC().Format(time.RFC3339),
		ExpiresAt:       p.ExpiresAt.UTC().Format(time.RFC3339),
		FileSize:        p.FileSize,
		RuleCount:       p.RuleCount,
		DownloadCount:   p.DownloadCount,
		Expired:         p.Expired(now),
	}
}

func newPackageResult(result PackageResult) *mcp.CallToolResultFor[PackageResult] {
	return &mcp.CallToolResultFor[PackageResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: result.Message}},
		StructuredContent: result,
	}
}

// handleMatchRules handles the match_rules tool call.
func (s *Server) handleMatchRules(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[WizardParams],
) (*mcp.CallToolResultFor[MatchRulesResult], error) {
	rules, err := s.gen.Preview(ctx, params.Arguments.Configuration())
	if err != nil {
		return nil, fmt.Errorf("match rules: %w", err)
	}

	result := MatchRulesResult{
		Rules:  make([]MatchedRuleSummary, 0, len(rules)),
		Levels: map[string]int{},
		Count:  len(rules),
	}
	for _, r := range rules {
		result.Rules = append(result.Rules, MatchedRuleSummary{
			ID:      r.ID,
			Title:   r.Title,
			Level:   string(r.Level),
			Reasons: r.MatchReasons,
			Score:   r.MatchScore,
		})
		result.Levels[string(r.Level)]++
	}

	counts := make([]string, 0, len(match.Levels))
	for _, l := range match.Levels {
		if n := result.Levels[string(l)]; n > 0 {
			counts = append(counts, fmt.Sprintf("%d %s", n, l))
		}
	}

	result.Message = fmt.Sprintf("Matched %d rules.", result.Count)
	if len(counts) > 0 {
		result.Message = fmt.Sprintf("Matched %d rules: %s.", result.Count, strings.Join(counts, ", "))
	}

	return &mcp.CallToolResultFor[MatchRulesResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: result.Message}},
		StructuredContent: result,
	}, nil
}

// handleGeneratePackage handles the generate_package tool call.
func (s *Server) handleGeneratePackage(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[WizardParams],
) (*mcp.CallToolResultFor[PackageResult], error) {
	pkg, err := s.gen.Generate(ctx, params.Arguments.Configuration())
	if err != nil {
		// The generation error only names the failed stage.
		return nil, err //nolint:wrapcheck // Return the original error.
	}

	msg := fmt.Sprintf("Generated %s package %s with %d rules.", pkg.PackageType, pkg.ID, pkg.RuleCount)
	if pkg.DownloadURL == "" {
		msg += " No download URL is available."
	}

	return newPackageResult(PackageResult{
		Package: newPackageInfo(pkg, s.now()),
		Message: msg,
		Found:   true,
	}), nil
}
