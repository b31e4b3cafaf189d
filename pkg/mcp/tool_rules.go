package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vibekit/rulehub/pkg/catalog"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/store"
)

const defaultListLimit = 50

// ListRulesParams defines parameters for the list_rules tool.
type ListRulesParams struct {
	Query string `json:"query,omitempty" jsonschema:"fuzzy search over rule id, title and tags"`
	Level string `json:"level,omitempty" jsonschema:"only return rules of this level: general, stack, language or environment"`
	Limit int    `json:"limit,omitempty" jsonschema:"maximum number of rules to return, 50 by default"`
}

// RuleSummary is the catalog entry returned by list_rules.
type RuleSummary struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Level       string   `json:"level"`
	Tags        []string `json:"tags,omitempty"`
	Frameworks  []string `json:"frameworks,omitempty"`
	AlwaysApply bool     `json:"alwaysApply,omitempty"`
}

// ListRulesResult contains the result of listing rules.
type ListRulesResult struct {
	Message string        `json:"message"`
	Rules   []RuleSummary `json:"rules"`
	Count   int           `json:"count"`
	Total   int           `json:"total"`
}

// GetRuleParams defines parameters for the get_rule tool.
type GetRuleParams struct {
	ID string `json:"id" jsonschema:"the rule id, exactly as returned by list_rules or match_rules"`
}

// RuleDetails contains the full rule.
type RuleDetails struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Level        string   `json:"level"`
	Slug         string   `json:"slug,omitempty"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags,omitempty"`
	Frameworks   []string `json:"frameworks,omitempty"`
	AIAssistants []string `json:"aiAssistants,omitempty"`
	IDEs         []string `json:"ides,omitempty"`
	AlwaysApply  bool     `json:"alwaysApply,omitempty"`
}

// GetRuleResult contains the result of getting a single rule.
type GetRuleResult struct {
	Rule    *RuleDetails `json:"rule,omitempty"`
	Message string       `json:"message"`
	Found   bool         `json:"found"`
}

func newRuleSummary(r *catalog.Rule) RuleSummary {
	return RuleSummary{
		ID:          r.ID,
		Title:       r.Title,
		Level:       string(match.Classify(r)),
		Tags:        r.Tags,
		Frameworks:  r.Frameworks(),
		AlwaysApply: r.AlwaysApply,
	}
}

func newRuleDetails(r *catalog.Rule) *RuleDetails {
	d := &RuleDetails{
		ID:          r.ID,
		Title:       r.Title,
		Level:       string(match.Classify(r)),
		Slug:        r.Slug,
		Content:     truncateString(r.Content, contentLimit),
		Tags:        r.Tags,
		AlwaysApply: r.AlwaysApply,
	}
	if c := r.Compatibility; c != nil {
		d.Frameworks = c.Frameworks
		d.AIAssistants = c.AIAssistants
		d.IDEs = c.IDEs
	}

	return d
}

// handleListRules handles the list_rules tool call.
func (s *Server) handleListRules(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[ListRulesParams],
) (*mcp.CallToolResultFor[ListRulesResult], error) {
	args := params.Arguments

	var level match.Level
	if args.Level != "" {
		l, err := match.ParseLevel(args.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid level: %w", err)
		}

		level = l
	}

	limit := args.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	all, err := s.rules.ListRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	found := match.FilterLevel(catalog.Search(all, args.Query), level)

	result := ListRulesResult{
		Rules: make([]RuleSummary, 0, min(limit, len(found))),
		Total: len(found),
	}
	for i := range found[:min(limit, len(found))] {
		result.Rules = append(result.Rules, newRuleSummary(&found[i]))
	}

	result.Count = len(result.Rules)
	result.Message = fmt.Sprintf("Found %d rules.", result.Total)
	if result.Count < result.Total {
		result.Message = fmt.Sprintf("Found %d rules, showing the first %d.", result.Total, result.Count)
	}

	return &mcp.CallToolResultFor[ListRulesResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: result.Message}},
		StructuredContent: result,
	}, nil
}

// handleGetRule handles the get_rule tool call.
func (s *Server) handleGetRule(
	ctx context.Context,
	_ *mcp.ServerSession,
	params *mcp.CallToolParamsFor[GetRuleParams],
) (*mcp.CallToolResultFor[GetRuleResult], error) {
	id := strings.TrimSpace(params.Arguments.ID)

	result := GetRuleResult{}

	r, err := s.rules.GetRule(ctx, id)
	switch {
	case err == nil:
		result.Found = true
		result.Rule = newRuleDetails(r)
		result.Message = fmt.Sprintf("Found rule %q.", id)

	case errors.Is(err, store.ErrNotFound):
		result.Message = fmt.Sprintf(
			"INVALID INPUT ERROR: Rule %q not found. Use an EXACT id from the list_rules tool.", id,
		)

	default:
		return nil, fmt.Errorf("get rule %q: %w", id, err)
	}

	return &mcp.CallToolResultFor[GetRuleResult]{
		Content:           []mcp.Content{&mcp.TextContent{Text: result.Message}},
		StructuredContent: result,
	}, nil
}
