package cli_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/charmbracelet/fang"
	"github.com/stretchr/testify/assert"

	"github.com/vibekit/rulehub/internal/cli"
	"github.com/vibekit/rulehub/pkg/generate"
)

func TestErrorHandler(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		err       error
		want      string
		wantUsage bool
	}{
		"usage": {
			err:       errors.New("unknown flag: --nope"),
			want:      "unknown flag: --nope",
			wantUsage: true,
		},
		"arg count": {
			err:       errors.New("accepts 1 arg(s), received 0"),
			want:      "accepts 1 arg(s)",
			wantUsage: true,
		},
		"generation hides cause": {
			err: &generate.PackageGenerationError{
				Stage: generate.StageFetchRules,
				Err:   errors.New("database is locked"),
			},
			want: "failed to generate rule package: failed to fetch rules",
		},
		"plain": {
			err:  errors.New("package \"x\" not found"),
			want: "package \"x\" not found",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			cli.ErrorHandler(&buf, fang.Styles{}, tc.err)

			out := buf.String()
			assert.Contains(t, out, tc.want)
			assert.NotContains(t, out, "database is locked")

			if tc.wantUsage {
				assert.Contains(t, out, "--help")
			} else {
				assert.NotContains(t, out, "--help")
			}
		})
	}
}
