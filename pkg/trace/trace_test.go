package trace_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/vibekit/rulehub/pkg/trace"
)

func TestNewProvider(t *testing.T) {
	t.Parallel()

	recorder := tracetest.NewSpanRecorder()

	tp, err := trace.NewProvider(t.Context(), trace.Config{
		Enabled:        true,
		ServiceVersion: "test",
		Processors:     []sdktrace.SpanProcessor{recorder},
	})
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(t.Context(), "generate package")
	span.End()

	require.NoError(t, tp.Shutdown(t.Context()))

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "generate package", ended[0].Name())

	attrs := map[string]string{}
	for _, kv := range ended[0].Resource().Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}

	assert.Equal(t, "rulehub", attrs["service.name"])
	assert.Equal(t, "test", attrs["service.version"])
	assert.Equal(t, "go", attrs["telemetry.sdk.language"])
}

func TestEndpointFromEnv(t *testing.T) {
	tcs := map[string]struct {
		env  map[string]string
		want string
	}{
		"unset": {
			env: map[string]string{trace.EnvEndpoint: "", trace.EnvTracesEndpoint: ""},
		},
		"generic": {
			env:  map[string]string{trace.EnvEndpoint: "collector:4317", trace.EnvTracesEndpoint: ""},
			want: "collector:4317",
		},
		"traces wins": {
			env: map[string]string{
				trace.EnvEndpoint:       "collector:4317",
				trace.EnvTracesEndpoint: "http://traces:4317",
			},
			want: "http://traces:4317",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			for k, v := range tc.env {
				t.Setenv(k, v)
			}

			assert.Equal(t, tc.want, trace.EndpointFromEnv())
		})
	}
}

func TestInitDisabled(t *testing.T) {
	t.Parallel()

	shutdown, err := trace.Init(t.Context(), trace.Config{})
	require.NoError(t, err)
	require.NoError(t, shutdown(t.Context()))
}
