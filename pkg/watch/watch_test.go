package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/vibekit/rulehub/pkg/watch"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNew(t *testing.T) {
	t.Parallel()

	_, err := watch.New(nil)
	require.ErrorIs(t, err, watch.ErrNoFiles)

	_, err = watch.New([]string{filepath.Join(t.TempDir(), "missing", "catalog.yaml")})
	require.Error(t, err)
}

func TestWatcher_Run(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	watched := filepath.Join(dir, "catalog.yaml")
	other := filepath.Join(dir, "other.yaml")

	require.NoError(t, os.WriteFile(watched, []byte("a"), 0o600))
	require.NoError(t, os.WriteFile(other, []byte("a"), 0o600))

	w, err := watch.New([]string{watched}, watch.WithDebounce(10*time.Millisecond))
	require.NoError(t, err)

	changed := make(chan string, 10)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	go func() {
		done <- w.Run(ctx, func(_ context.Context, path string) error {
			changed <- path

			return nil
		})
	}()

	// Give the watcher loop a moment to start before writing.
	time.Sleep(50 * time.Millisecond)

	require.NoError(t, os.WriteFile(other, []byte("b"), 0o600))
	require.NoError(t, os.WriteFile(watched, []byte("b"), 0o600))

	select {
	case path := <-changed:
		assert.Equal(t, watched, path)
	case <-time.After(5 * time.Second):
		t.Fatal("handler was not called")
	}

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	require.NoError(t, w.Close())

	for len(changed) > 0 {
		assert.Equal(t, watched, <-changed)
	}
}

func TestWatcher_CloseStopsRun(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o600))

	w, err := watch.New([]string{path})
	require.NoError(t, err)

	done := make(chan error, 1)

	go func() {
		done <- w.Run(t.Context(), func(context.Context, string) error { return nil })
	}()

	require.NoError(t, w.Close())

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after Close")
	}
}
