package version_test

import (
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vibekit/rulehub/pkg/version"
)

func TestString(t *testing.T) {
	t.Parallel()

	s := version.String()

	assert.True(t, strings.HasPrefix(s, version.GetVersion()+" ("))
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
	assert.NotEmpty(t, version.GetVersion())
}
