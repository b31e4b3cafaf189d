// Package wizards provides the WizardConfiguration kind, a saved set of
// wizard answers that can be replayed with "rulehub generate -f".
package wizards

import (
	"errors"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/vibekit/rulehub/api"
	"github.com/vibekit/rulehub/api/v1beta1"
	"github.com/vibekit/rulehub/pkg/wizard"
	"github.com/vibekit/rulehub/pkg/yaml"
)

// Kind is the document kind of [WizardConfiguration].
const Kind = "WizardConfiguration"

var (
	// DefaultValidator validates wizard configurations against the reflected schema.
	DefaultValidator = yaml.MustNewValidatorFor("/wizards.v1beta1.json", &WizardConfiguration{})

	_ v1beta1.Object = (*WizardConfiguration)(nil)
)

// WizardConfiguration wraps a [wizard.Configuration] with type metadata.
//
//nolint:recvcheck // Must satisfy the jsonschema interface.
type WizardConfiguration struct {
	wizard.Configuration `json:",inline"`
	v1beta1.TypeMeta     `json:",inline"`
}

// New creates a [WizardConfiguration] for cfg. A nil cfg yields an empty
// configuration.
func New(cfg *wizard.Configuration) *WizardConfiguration {
	w := &WizardConfiguration{TypeMeta: v1beta1.NewTypeMeta(Kind)}
	if cfg != nil {
		w.Configuration = *cfg
	}

	w.EnsureDefaults()

	return w
}

// Empty creates an empty [WizardConfiguration], for use with loaders.
func Empty() *WizardConfiguration {
	return New(nil)
}

// EnsureDefaults fills the type metadata.
func (w *WizardConfiguration) EnsureDefaults() {
	if w.APIVersion == "" {
		w.APIVersion = v1beta1.APIVersion
	}
	if w.Kind == "" {
		w.Kind = Kind
	}
}

// Validate checks the type metadata and the configuration.
func (w *WizardConfiguration) Validate() error {
	err := w.Check(Kind)
	if err != nil {
		return err
	}

	err = w.Configuration.Validate()
	if err != nil {
		key := "environmentDetails"
		if errors.Is(err, wizard.ErrEmptyFormat) {
			key = "outputFormat"
		}

		return yaml.NewError(err, yaml.WithPath(yaml.NewPathBuilder().Root().Child(key).Build()))
	}

	return nil
}

func (w WizardConfiguration) JSONSchemaExtend(jss *jsonschema.Schema) {
	v1beta1.ConstrainTypeMeta(jss, Kind)
}

// MarshalYAML serializes the document to YAML.
func (w WizardConfiguration) MarshalYAML() ([]byte, error) {
	type alias WizardConfiguration

	b, err := api.MarshalYAML(alias(w))
	if err != nil {
		return nil, fmt.Errorf("marshal wizard configuration: %w", err)
	}

	return b, nil
}
