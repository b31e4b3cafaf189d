// Package catalogs provides the RuleCatalog kind, a YAML document that
// seeds the rule repository.
package catalogs

import (
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/vibekit/rulehub/api/v1beta1"
	"github.com/vibekit/rulehub/pkg/catalog"
	"github.com/vibekit/rulehub/pkg/yaml"
)

// Kind is the document kind of [RuleCatalog].
const Kind = "RuleCatalog"

var (
	// DefaultValidator validates rule catalogs against the reflected schema.
	DefaultValidator = yaml.MustNewValidatorFor("/catalogs.v1beta1.json", &RuleCatalog{})

	_ v1beta1.Object = (*RuleCatalog)(nil)
)

// RuleCatalog lists rules and the dependency edges between them.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type RuleCatalog struct {
	Rules            []catalog.Rule       `json:"rules,omitempty"        jsonschema:"title=Rules"`
	Dependencies     []catalog.Dependency `json:"dependencies,omitempty" jsonschema:"title=Dependencies"`
	v1beta1.TypeMeta `json:",inline"`
}

// New creates an empty [RuleCatalog].
func New() *RuleCatalog {
	c := &RuleCatalog{TypeMeta: v1beta1.NewTypeMeta(Kind)}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults fills the type metadata.
func (c *RuleCatalog) EnsureDefaults() {
	if c.APIVersion == "" {
		c.APIVersion = v1beta1.APIVersion
	}
	if c.Kind == "" {
		c.Kind = Kind
	}
}

// Validate checks every rule and edge, and that rule ids are unique.
func (c *RuleCatalog) Validate() error {
	err := c.Check(Kind)
	if err != nil {
		return err
	}

	pb := yaml.NewPathBuilder()
	seen := make(map[string]int, len(c.Rules))

	for i := range c.Rules {
		uIdx := uint(i) //nolint:gosec // G115: integer overflow conversion int -> uint.
		r := &c.Rules[i]

		err := r.Validate()
		if err != nil {
			return yaml.NewError(err, yaml.WithPath(pb.Root().Child("rules").Index(uIdx).Build()))
		}

		if first, ok := seen[r.ID]; ok {
			return yaml.NewError(
				fmt.Errorf("duplicate rule id %q, first defined at rules[%d]", r.ID, first),
				yaml.WithPath(pb.Root().Child("rules").Index(uIdx).Child("id").Build()),
			)
		}

		seen[r.ID] = i
	}

	for i, d := range c.Dependencies {
		uIdx := uint(i) //nolint:gosec // G115: integer overflow conversion int -> uint.

		err := d.Validate()
		if err != nil {
			return yaml.NewError(err, yaml.WithPath(pb.Root().Child("dependencies").Index(uIdx).Build()))
		}
	}

	return nil
}

func (c RuleCatalog) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ConstrainTypeMeta(jss, Kind)
}
