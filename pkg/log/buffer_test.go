package log_test

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vibekit/rulehub/pkg/log"
)

func TestCircularBuffer(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		writes      []string
		want        []string
		capacity    int
		wantDropped int
		wantFull    bool
	}{
		"empty": {
			capacity: 3,
		},
		"partial": {
			capacity: 3,
			writes:   []string{"a", "b"},
			want:     []string{"a", "b"},
		},
		"exactly full": {
			capacity: 2,
			writes:   []string{"a", "b"},
			want:     []string{"a", "b"},
			wantFull: true,
		},
		"wraps": {
			capacity:    2,
			writes:      []string{"a", "b", "c", "d", "e"},
			want:        []string{"d", "e"},
			wantDropped: 3,
			wantFull:    true,
		},
		"empty writes ignored": {
			capacity: 2,
			writes:   []string{"", "a", ""},
			want:     []string{"a"},
		},
		"default capacity": {
			writes: []string{"a"},
			want:   []string{"a"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cb := log.NewCircularBuffer(tc.capacity)
			for _, w := range tc.writes {
				_, err := cb.Write([]byte(w))
				require.NoError(t, err)
			}

			var got []string
			for _, e := range cb.Entries() {
				got = append(got, string(e))
			}

			assert.Equal(t, tc.want, got)
			assert.Equal(t, len(tc.want), cb.Size())
			assert.Equal(t, tc.wantDropped, cb.Dropped())
			assert.Equal(t, tc.wantFull, cb.IsFull())

			if tc.capacity == 0 {
				assert.Equal(t, 100, cb.Capacity())
			}
		})
	}
}

func TestCircularBufferCopiesInput(t *testing.T) {
	t.Parallel()

	cb := log.NewCircularBuffer(2)
	p := []byte("abc")
	_, err := cb.Write(p)
	require.NoError(t, err)

	p[0] = 'x'
	entries := cb.Entries()
	assert.Equal(t, "abc", string(entries[0]))

	entries[0][0] = 'y'
	assert.Equal(t, "abc", string(cb.Entries()[0]))
}

func TestCircularBufferClear(t *testing.T) {
	t.Parallel()

	cb := log.NewCircularBuffer(1)
	_, _ = cb.Write([]byte("a"))
	_, _ = cb.Write([]byte("b"))

	cb.Clear()

	assert.Zero(t, cb.Size())
	assert.Zero(t, cb.Dropped())
	assert.Nil(t, cb.Entries())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("boom")
}

func TestCircularBufferWriteTo(t *testing.T) {
	t.Parallel()

	cb := log.NewCircularBuffer(4)
	_, _ = cb.Write([]byte("one\n"))
	_, _ = cb.Write([]byte("two\n"))

	var buf bytes.Buffer

	n, err := cb.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)
	assert.Equal(t, "one\ntwo\n", buf.String())

	_, err = cb.WriteTo(failingWriter{})
	require.ErrorContains(t, err, "boom")
}

func TestCircularBufferConcurrentWrites(t *testing.T) {
	t.Parallel()

	cb := log.NewCircularBuffer(10)
	logger := slog.New(slog.NewTextHandler(cb, nil))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Go(func() {
			logger.Info(fmt.Sprintf("entry %d", i))
		})
	}

	wg.Wait()

	assert.Equal(t, 10, cb.Size())
	assert.Equal(t, 40, cb.Dropped())
}
