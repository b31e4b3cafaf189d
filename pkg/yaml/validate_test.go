package yaml_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/pkg/yaml"
)

const wizardSchema = `{
	"type": "object",
	"properties": {
		"outputFormat": {"type": "string", "enum": ["bash", "zip", "config"]},
		"stackChoices": {
			"type": "object",
			"additionalProperties": {"type": "boolean"}
		},
		"rules": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"id": {"type": "string"},
					"tags": {"type": "array", "items": {"type": "string"}}
				},
				"required": ["id"]
			}
		}
	},
	"required": ["outputFormat"]
}`

func TestNewValidator(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		errMsg     string
		schemaData []byte
	}{
		"valid schema": {
			schemaData: []byte(wizardSchema),
		},
		"invalid json": {
			schemaData: []byte(`{"invalid": json}`),
			errMsg:     "unmarshal schema",
		},
		"invalid schema": {
			schemaData: []byte(`{"type": "invalid_type"}`),
			errMsg:     "compile schema",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			v, err := yaml.NewValidator("test", tc.schemaData)
			if tc.errMsg != "" {
				require.ErrorContains(t, err, tc.errMsg)
				assert.Nil(t, v)

				return
			}

			require.NoError(t, err)
			assert.NotNil(t, v)
		})
	}
}

func TestValidatorValidate(t *testing.T) {
	t.Parallel()

	v := yaml.MustNewValidator("wizard.json", []byte(wizardSchema))

	tcs := map[string]struct {
		data     any
		wantPath string
	}{
		"valid": {
			data: map[string]any{
				"outputFormat": "zip",
				"stackChoices": map[string]any{"react": true},
			},
		},
		"missing required": {
			data:     map[string]any{},
			wantPath: "$",
		},
		"bad enum": {
			data:     map[string]any{"outputFormat": "tar"},
			wantPath: "$.outputFormat",
		},
		"bad map value": {
			data: map[string]any{
				"outputFormat": "zip",
				"stackChoices": map[string]any{"react": "yes"},
			},
			wantPath: "$.stackChoices.react",
		},
		"nested array item": {
			data: map[string]any{
				"outputFormat": "zip",
				"rules": []any{
					map[string]any{"id": "a"},
					map[string]any{"id": "b", "tags": []any{"ok", 3}},
				},
			},
			wantPath: "$.rules[1].tags[1]",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := v.Validate(tc.data)
			if tc.wantPath == "" {
				require.NoError(t, err)

				return
			}

			var yamlErr *yaml.Error
			require.ErrorAs(t, err, &yamlErr)
			require.NotNil(t, yamlErr.Path)
			assert.Equal(t, tc.wantPath, yamlErr.Path.String())
		})
	}
}

func TestValidatorValidateBytes(t *testing.T) {
	t.Parallel()

	v := yaml.MustNewValidator("wizard.json", []byte(wizardSchema))

	require.NoError(t, v.ValidateBytes([]byte("outputFormat: bash\n")))

	src := []byte("stackChoices:\n  react: true\noutputFormat: tar\n")
	err := v.ValidateBytes(src)

	var yamlErr *yaml.Error
	require.ErrorAs(t, err, &yamlErr)
	assert.Equal(t, src, yamlErr.Source)
	assert.Contains(t, err.Error(), "[3:1]")
	assert.Contains(t, err.Error(), "outputFormat")
}
