// Package wizard models the selections a user makes in the setup wizard.
package wizard

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// OutputFormat selects the package rendering path.
type OutputFormat string

const (
	FormatBash   OutputFormat = "bash"
	FormatZip    OutputFormat = "zip"
	FormatConfig OutputFormat = "config"

	// EnvTargetIDE is the environment details key naming the target IDE.
	EnvTargetIDE = "targetIde"
)

var (
	ErrEmptyFormat = errors.New("missing output format")

	AllFormats = []string{
		string(FormatBash),
		string(FormatZip),
		string(FormatConfig),
	}
)

// Extension returns the artifact file extension for the format, or an
// empty string for unknown formats.
func (f OutputFormat) Extension() string {
	switch f {
	case FormatBash:
		return ".sh"
	case FormatZip:
		return ".zip"
	case FormatConfig:
		return ".json"
	}

	return ""
}

// Configuration is the user's input for one generation request. It is
// persisted once and never mutated afterwards.
type Configuration struct {
	// StackChoices maps framework ids (e.g. "react") to a selected flag.
	StackChoices map[string]bool `json:"stackChoices,omitempty" jsonschema:"title=Stack Choices"`
	// LanguageChoices maps language ids (e.g. "typescript") to a selected flag.
	LanguageChoices map[string]bool `json:"languageChoices,omitempty" jsonschema:"title=Language Choices"`
	// ToolPreferences maps tool ids (e.g. "eslint") to a selected flag.
	ToolPreferences map[string]bool `json:"toolPreferences,omitempty" jsonschema:"title=Tool Preferences"`
	// EnvironmentDetails holds free-form string, number or boolean values,
	// such as the target IDE or node version.
	EnvironmentDetails map[string]any `json:"environmentDetails,omitempty" jsonschema:"title=Environment Details"`
	// OutputFormat is one of bash, zip or config.
	OutputFormat OutputFormat `json:"outputFormat" jsonschema:"title=Output Format,required,enum=bash,enum=zip,enum=config"`
	// CustomRequirements is a free-text annotation. It is stored but not
	// used for matching.
	CustomRequirements string `json:"customRequirements,omitempty" jsonschema:"title=Custom Requirements"`
}

// Validate checks that the output format is set. Unknown formats are left
// for the emitter registry to reject.
func (c *Configuration) Validate() error {
	if strings.TrimSpace(string(c.OutputFormat)) == "" {
		return ErrEmptyFormat
	}

	for k, v := range c.EnvironmentDetails {
		switch v.(type) {
		case nil, string, bool, int, int64, uint64, float64:
		default:
			return fmt.Errorf("environment detail %q: unsupported value type %T", k, v)
		}
	}

	return nil
}

// TargetIDE returns the lower-cased target IDE, or an empty string.
func (c *Configuration) TargetIDE() string {
	v, ok := c.EnvironmentDetails[EnvTargetIDE]
	if !ok || v == nil {
		return ""
	}

	return strings.ToLower(strings.TrimSpace(fmt.Sprint(v)))
}

// Choices decomposes the configuration into the inputs of the scorer.
func (c *Configuration) Choices() Choices {
	return Choices{
		Stacks:      Selected(c.StackChoices),
		Languages:   Selected(c.LanguageChoices),
		Tools:       Selected(c.ToolPreferences),
		Environment: c.EnvironmentDetails,
	}
}

// Choices lists the selected ids per category, lower-cased and sorted.
type Choices struct {
	Environment map[string]any
	Stacks      []string
	Languages   []string
	Tools       []string
}

// Selected returns the keys flagged true, lower-cased, de-duplicated and
// sorted. Blank keys are dropped.
func Selected(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		if !m[k] {
			continue
		}

		id := strings.ToLower(strings.TrimSpace(k))
		if id == "" || slices.Contains(out, id) {
			continue
		}

		out = append(out, id)
	}

	slices.Sort(out)

	return out
}

// Select builds a choice map from a list of ids.
func Select(ids ...string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id != "" {
			m[id] = true
		}
	}

	return m
}
