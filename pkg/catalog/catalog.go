package catalog

import (
	"errors"
	"fmt"
	"strings"
)

// DependencyType describes how two rules relate to each other.
type DependencyType string

const (
	DependencyRequires  DependencyType = "requires"
	DependencyConflicts DependencyType = "conflicts"
	DependencySuggests  DependencyType = "suggests"
)

var (
	ErrMissingID    = errors.New("missing rule id")
	ErrMissingTitle = errors.New("missing rule title")
)

// Compatibility lists the frameworks, AI assistants and IDEs a rule was
// written for. Absent lists are treated as empty.
type Compatibility struct {
	Frameworks   []string `json:"frameworks,omitempty"   jsonschema:"title=Frameworks"`
	AIAssistants []string `json:"aiAssistants,omitempty" jsonschema:"title=AI Assistants"`
	IDEs         []string `json:"ides,omitempty"         jsonschema:"title=IDEs"`
}

// IsEmpty reports whether c carries no compatibility data.
func (c *Compatibility) IsEmpty() bool {
	return c == nil || (len(c.Frameworks) == 0 && len(c.AIAssistants) == 0 && len(c.IDEs) == 0)
}

// Rule is a read-only catalog entry.
type Rule struct {
	// Compatibility is nil when the rule declares none.
	Compatibility *Compatibility `json:"compatibility,omitempty" jsonschema:"title=Compatibility"`
	// ID uniquely identifies the rule within the repository.
	ID string `json:"id" jsonschema:"title=ID,required"`
	// Title is the human readable name of the rule.
	Title string `json:"title" jsonschema:"title=Title,required"`
	// Slug is an optional URL/file friendly name.
	Slug string `json:"slug,omitempty" jsonschema:"title=Slug"`
	// Content is the full rule text. It may embed fenced code blocks.
	Content string `json:"content,omitempty" jsonschema:"title=Content"`
	// Tags are free-form labels used for matching and categorization.
	Tags []string `json:"tags,omitempty" jsonschema:"title=Tags"`
	// AlwaysApply marks rules that are relevant to every configuration.
	AlwaysApply bool `json:"alwaysApply,omitempty" jsonschema:"title=Always Apply"`
}

// Validate checks the fields every repository requires.
func (r *Rule) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return ErrMissingID
	}
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("rule %q: %w", r.ID, ErrMissingTitle)
	}

	return nil
}

// Frameworks returns the compatible frameworks, or nil.
func (r *Rule) Frameworks() []string {
	if r.Compatibility == nil {
		return nil
	}

	return r.Compatibility.Frameworks
}

// AIAssistants returns the compatible AI assistants, or nil.
func (r *Rule) AIAssistants() []string {
	if r.Compatibility == nil {
		return nil
	}

	return r.Compatibility.AIAssistants
}

// Dependency is a directed edge between two rules.
type Dependency struct {
	RuleID          string         `json:"ruleId"          jsonschema:"title=Rule ID,required"`
	DependsOnRuleID string         `json:"dependsOnRuleId" jsonschema:"title=Depends On Rule ID,required"`
	Type            DependencyType `json:"dependencyType"  jsonschema:"title=Dependency Type,required,enum=requires,enum=conflicts,enum=suggests"`
}

// IsConflict reports whether the edge declares an incompatibility.
func (d Dependency) IsConflict() bool {
	return d.Type == DependencyConflicts
}

// Validate checks that both endpoints are set and distinct.
func (d Dependency) Validate() error {
	if d.RuleID == "" || d.DependsOnRuleID == "" {
		return fmt.Errorf("dependency endpoints must be set: %w", ErrMissingID)
	}
	if d.RuleID == d.DependsOnRuleID {
		return fmt.Errorf("rule %q cannot depend on itself", d.RuleID)
	}
	if d.Type == "" {
		return fmt.Errorf("dependency %s -> %s: missing type", d.RuleID, d.DependsOnRuleID)
	}

	return nil
}
