package wizards_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/api/v1beta1/wizards"
	"github.com/vibekit/rulehub/pkg/config"
	"github.com/vibekit/rulehub/pkg/wizard"
	"github.com/vibekit/rulehub/pkg/yaml"
)

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	in := wizards.New(&wizard.Configuration{
		StackChoices:       map[string]bool{"react": true},
		LanguageChoices:    map[string]bool{"typescript": true},
		EnvironmentDetails: map[string]any{"targetIde": "cursor"},
		OutputFormat:       wizard.FormatZip,
	})

	b, err := in.MarshalYAML()
	require.NoError(t, err)
	assert.Contains(t, string(b), "kind: WizardConfiguration")
	assert.Contains(t, string(b), "outputFormat: zip")

	out, err := config.NewLoaderFromBytes(b, wizards.Empty, wizards.DefaultValidator).ValidateAndLoad()
	require.NoError(t, err)
	assert.Equal(t, in.Configuration, out.Configuration)
	assert.Equal(t, "cursor", out.TargetIDE())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		src      string
		wantPath string
	}{
		"missing format": {
			src:      "stackChoices:\n  react: true\n",
			wantPath: "$",
		},
		"unknown format": {
			src:      "outputFormat: tar\n",
			wantPath: "$.outputFormat",
		},
		"non-boolean choice": {
			src:      "outputFormat: bash\nstackChoices:\n  react: yes please\n",
			wantPath: "$.stackChoices.react",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := config.NewLoaderFromBytes([]byte(tc.src), wizards.Empty, wizards.DefaultValidator).Validate()

			var yamlErr *yaml.Error
			require.ErrorAs(t, err, &yamlErr)
			assert.Equal(t, tc.wantPath, yamlErr.Path.String())
		})
	}

	w := wizards.Empty()
	err := w.Validate()
	require.ErrorIs(t, err, wizard.ErrEmptyFormat)
}

func TestDefaultWizardMatchesSchema(t *testing.T) {
	t.Parallel()

	for _, f := range wizard.AllFormats {
		b, err := wizards.New(&wizard.Configuration{OutputFormat: wizard.OutputFormat(f)}).MarshalYAML()
		require.NoError(t, err)

		require.NoError(t, wizards.DefaultValidator.ValidateBytes(b), f)
	}
}
