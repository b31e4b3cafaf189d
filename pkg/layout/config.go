package layout

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vibekit/rulehub/pkg/wizard"
	"github.com/vibekit/rulehub/pkg/yaml"
)

const (
	ProfileCursor    = "cursor"
	ProfileVSCode    = "vscode"
	ProfileJetBrains = "jetbrains"
	ProfileGeneric   = "generic"
)

var (
	defaultProfiles = map[string]*Profile{
		ProfileCursor: MustNewProfile(
			WithFormat(FormatMDC),
			WithMirror(".cursor/rules", ""),
		),
		ProfileVSCode: MustNewProfile(
			WithMirror(".github/instructions", ".instructions.md"),
			WithExtraDirs(".vscode"),
		),
		ProfileJetBrains: MustNewProfile(
			WithMirror(".aiassistant/rules", ""),
			WithExtraDirs(".idea"),
		),
		ProfileGeneric: MustNewProfile(),
	}

	defaultSelectors = []*Selector{
		MustNewSelector(ProfileCursor, `ide == "cursor"`),
		MustNewSelector(ProfileVSCode, `ide in ["vscode", "code"]`),
		MustNewSelector(ProfileJetBrains, `ide in ["webstorm", "intellij", "idea", "jetbrains"]`),
		MustNewSelector(ProfileGeneric, `true`),
	}
)

// Config holds the named layout profiles and the selectors choosing between
// them.
type Config struct {
	// Profiles maps profile names to layouts.
	Profiles map[string]*Profile `json:"profiles,omitempty" jsonschema:"title=Profiles"`
	// Selectors are evaluated in order; the first match selects a profile.
	Selectors []*Selector `json:"selectors,omitempty" jsonschema:"title=Selectors"`
}

// NewConfig creates and validates a new [Config].
func NewConfig(ps map[string]*Profile, ss []*Selector) (*Config, error) {
	c := &Config{
		Profiles:  ps,
		Selectors: ss,
	}

	err := c.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate layout config: %w", err)
	}

	return c, nil
}

// DefaultConfig returns a copy of the built-in layouts.
func DefaultConfig() *Config {
	c := &Config{}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults fills unset profiles and selectors with the built-ins.
func (c *Config) EnsureDefaults() {
	if c.Profiles == nil {
		c.Profiles = make(map[string]*Profile, len(defaultProfiles))
		for name, p := range defaultProfiles {
			cp := *p
			cp.ExtraDirs = slices.Clone(p.ExtraDirs)
			c.Profiles[name] = &cp
		}
	}
	if c.Selectors == nil {
		c.Selectors = make([]*Selector, 0, len(defaultSelectors))
		for _, s := range defaultSelectors {
			cp := *s
			c.Selectors = append(c.Selectors, &cp)
		}
	}

	for _, p := range c.Profiles {
		if p != nil {
			p.EnsureDefaults()
		}
	}
}

// Validate compiles every selector and checks that profiles are valid and
// referenced profiles exist. Errors point at the offending YAML path.
func (c *Config) Validate() error {
	pb := yaml.NewPathBuilder()

	for _, name := range slices.Sorted(maps.Keys(c.Profiles)) {
		p := c.Profiles[name]
		if p == nil {
			return yaml.NewError(
				fmt.Errorf("profile %q is empty", name),
				yaml.WithPath(pb.Root().Child("profiles").Child(name).Build()),
			)
		}

		p.EnsureDefaults()

		if err := p.Validate(); err != nil {
			return yaml.NewError(
				fmt.Errorf("invalid profile: %w", err),
				yaml.WithPath(pb.Root().Child("profiles").Child(name).Build()),
			)
		}
	}

	for i, s := range c.Selectors {
		uIdx := uint(i) //nolint:gosec // G115: integer overflow conversion int -> uint.

		if err := s.Compile(); err != nil {
			return yaml.NewError(
				fmt.Errorf("invalid match: %w", err),
				yaml.WithPath(pb.Root().Child("selectors").Index(uIdx).Child("match").Build()),
			)
		}

		if _, ok := c.Profiles[s.Profile]; !ok && s.Profile != ProfileGeneric {
			return yaml.NewError(
				fmt.Errorf("profile %q not found", s.Profile),
				yaml.WithPath(pb.Root().Child("selectors").Index(uIdx).Child("profile").Build()),
			)
		}
	}

	return nil
}

// Select returns the name and profile for cfg. Selectors are evaluated in
// order; when none match, the generic profile is returned.
func (c *Config) Select(cfg *wizard.Configuration) (string, *Profile) {
	vars := Vars(cfg)

	for _, s := range c.Selectors {
		if s.Compile() != nil || !s.Matches(vars) {
			continue
		}

		if p, ok := c.Profiles[s.Profile]; ok {
			return s.Profile, p
		}
	}

	return ProfileGeneric, c.generic()
}

func (c *Config) generic() *Profile {
	if p, ok := c.Profiles[ProfileGeneric]; ok && p != nil {
		return p
	}

	return MustNewProfile()
}
