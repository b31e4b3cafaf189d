// Package configs provides the Configuration kind that controls where
// rulehub stores its data and how it renders packages.
package configs

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/vibekit/rulehub/api"
	"github.com/vibekit/rulehub/api/v1beta1"
	"github.com/vibekit/rulehub/pkg/layout"
	"github.com/vibekit/rulehub/pkg/match"
	"github.com/vibekit/rulehub/pkg/yaml"
)

// Kind is the document kind of [Config].
const Kind = "Configuration"

var (
	// DefaultValidator validates configurations against the reflected schema.
	DefaultValidator = yaml.MustNewValidatorFor("/configs.v1beta1.json", &Config{})

	// Compile-time interface checks.
	_ v1beta1.Object = (*Config)(nil)
)

// Store configures the SQLite catalog database.
type Store struct {
	// Path to the database file.
	Path string `json:"path,omitempty" jsonschema:"title=Path"`
}

// Artifacts configures where generated packages are written.
type Artifacts struct {
	// Dir receives rulehub-<id>.<ext> files.
	Dir string `json:"dir,omitempty" jsonschema:"title=Directory"`
	// BaseURL prefixes download URLs. When empty, file:// URLs are used.
	BaseURL string `json:"baseUrl,omitempty" jsonschema:"title=Base URL"`
	// Disabled skips uploads; packages are recorded without a download URL.
	Disabled bool `json:"disabled,omitempty" jsonschema:"title=Disabled"`
}

// Scoring tunes rule matching.
type Scoring struct {
	// Assistants are the AI assistant ids that earn the assistant bonus.
	Assistants []string `json:"assistants,omitempty" jsonschema:"title=Assistants"`
}

// Tracing configures OpenTelemetry export.
type Tracing struct {
	// Endpoint is an OTLP/gRPC collector address.
	Endpoint   string  `json:"endpoint,omitempty"   jsonschema:"title=Endpoint"`
	SampleRate float64 `json:"sampleRate,omitempty" jsonschema:"title=Sample Rate,minimum=0,maximum=1"`
	Enabled    bool    `json:"enabled,omitempty"    jsonschema:"title=Enabled"`
	Insecure   bool    `json:"insecure,omitempty"   jsonschema:"title=Insecure"`
}

// MCP configures the Model Context Protocol server.
type MCP struct {
	// Address is the HTTP listen address. Empty serves over stdio.
	Address string `json:"address,omitempty" jsonschema:"title=Address"`
}

// Config represents the rulehub configuration.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	Store            *Store         `json:"store,omitempty"     jsonschema:"title=Store"`
	Artifacts        *Artifacts     `json:"artifacts,omitempty" jsonschema:"title=Artifacts"`
	Scoring          *Scoring       `json:"scoring,omitempty"   jsonschema:"title=Scoring"`
	Layout           *layout.Config `json:"layout,omitempty"    jsonschema:"title=Layout"`
	Tracing          *Tracing       `json:"tracing,omitempty"   jsonschema:"title=Tracing"`
	MCP              *MCP           `json:"mcp,omitempty"       jsonschema:"title=MCP"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates a new [Config] with default values.
func New() *Config {
	c := &Config{TypeMeta: v1beta1.NewTypeMeta(Kind)}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults initializes unset fields to their default values.
func (c *Config) EnsureDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = v1beta1.APIVersion
	}
	if c.Kind == "" {
		c.Kind = Kind
	}

	if c.Store == nil {
		c.Store = &Store{}
	}
	if c.Store.Path == "" {
		c.Store.Path = api.DataPath("rulehub.db")
	}

	if c.Artifacts == nil {
		c.Artifacts = &Artifacts{}
	}
	if c.Artifacts.Dir == "" {
		c.Artifacts.Dir = api.DataPath("packages")
	}

	if c.Scoring == nil {
		c.Scoring = &Scoring{}
	}
	if c.Scoring.Assistants == nil {
		c.Scoring.Assistants = slices.Clone(match.DefaultAssistants)
	}

	if c.Layout == nil {
		c.Layout = layout.DefaultConfig()
	} else {
		c.Layout.EnsureDefaults()
	}

	if c.Tracing == nil {
		c.Tracing = &Tracing{}
	}
	if c.MCP == nil {
		c.MCP = &MCP{}
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	err := c.Check(Kind)
	if err != nil {
		return err
	}

	if c.Scoring != nil {
		for i, a := range c.Scoring.Assistants {
			if strings.TrimSpace(a) == "" {
				return yaml.NewError(
					errors.New("assistant id must not be empty"),
					yaml.WithPath(yaml.NewPathBuilder().Root().Child("scoring").Child("assistants").Index(uint(i)).Build()), //nolint:gosec // G115: index is non-negative.
				)
			}
		}
	}

	if c.Layout != nil {
		err := c.Layout.Validate()
		if err != nil {
			return yaml.PrefixPath(err, "layout")
		}
	}

	return nil
}

// Scorer builds the rule scorer described by the scoring section.
func (c *Config) Scorer() *match.Scorer {
	if c.Scoring == nil {
		return match.NewScorer()
	}

	return match.NewScorer(match.WithAssistants(c.Scoring.Assistants...))
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ConstrainTypeMeta(jss, Kind)
}

// MarshalYAML serializes the config to YAML.
func (c Config) MarshalYAML() ([]byte, error) {
	type alias Config

	b, err := api.MarshalYAML(alias(c))
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}

	return b, nil
}

// WriteDefault writes the default configuration to path. Existing files
// are kept unless force is set.
func WriteDefault(path string, force bool) error {
	b, err := New().MarshalYAML()
	if err != nil {
		return err
	}

	err = api.WriteDefaultFile(path, b, force, "configuration")
	if err != nil {
		return fmt.Errorf("write default config: %w", err)
	}

	return nil
}

// GetPath returns the path to the user configuration file.
func GetPath() string {
	return api.ConfigPath("config.yaml")
}
