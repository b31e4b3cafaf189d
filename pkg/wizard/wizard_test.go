package wizard_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/pkg/wizard"
)

func TestSelected(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		in   map[string]bool
		want []string
	}{
		"nil map": {
			in:   nil,
			want: []string{},
		},
		"only true keys": {
			in:   map[string]bool{"react": true, "vue": false, "next": true},
			want: []string{"next", "react"},
		},
		"lower-cased and de-duplicated": {
			in:   map[string]bool{"React": true, "react": true, " ": true},
			want: []string{"react"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, wizard.Selected(tc.in))
		})
	}
}

func TestConfiguration_Choices(t *testing.T) {
	t.Parallel()

	cfg := wizard.Configuration{
		StackChoices:       wizard.Select("react"),
		LanguageChoices:    wizard.Select("typescript"),
		ToolPreferences:    map[string]bool{"eslint": false},
		EnvironmentDetails: map[string]any{"targetIde": "Cursor"},
		OutputFormat:       wizard.FormatConfig,
	}

	choices := cfg.Choices()
	assert.Equal(t, []string{"react"}, choices.Stacks)
	assert.Equal(t, []string{"typescript"}, choices.Languages)
	assert.Empty(t, choices.Tools)
	assert.Equal(t, "cursor", cfg.TargetIDE())
}

func TestConfiguration_Validate(t *testing.T) {
	t.Parallel()

	cfg := wizard.Configuration{}
	require.ErrorIs(t, cfg.Validate(), wizard.ErrEmptyFormat)

	cfg.OutputFormat = wizard.FormatBash
	require.NoError(t, cfg.Validate())

	cfg.EnvironmentDetails = map[string]any{"nested": map[string]any{}}
	require.Error(t, cfg.Validate())
}

func TestOutputFormat_Extension(t *testing.T) {
	t.Parallel()

	tcs := map[wizard.OutputFormat]string{
		wizard.FormatBash:   ".sh",
		wizard.FormatZip:    ".zip",
		wizard.FormatConfig: ".json",
		"tar":               "",
	}

	for format, want := range tcs {
		t.Run(string(format), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, want, format.Extension())
		})
	}
}
