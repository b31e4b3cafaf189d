package log

import (
	"fmt"
	"io"
	"sync"
)

const defaultBufferCapacity = 100

// CircularBuffer is an [io.Writer] that keeps the most recent writes. The
// wizard routes log output here while the terminal form is active and
// flushes it afterwards.
type CircularBuffer struct {
	entries [][]byte
	start   int
	count   int
	dropped int
	mu      sync.Mutex
}

// NewCircularBuffer creates a buffer that holds up to capacity writes.
// Non-positive capacities use a default.
func NewCircularBuffer(capacity int) *CircularBuffer {
	if capacity <= 0 {
		capacity = defaultBufferCapacity
	}

	return &CircularBuffer{entries: make([][]byte, capacity)}
}

// Write stores a copy of p as one entry, evicting the oldest entry when
// the buffer is full.
func (cb *CircularBuffer) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}

	entry := append([]byte(nil), p...)

	cb.mu.Lock()
	defer cb.mu.Unlock()

	capacity := len(cb.entries)
	if cb.count < capacity {
		cb.entries[(cb.start+cb.count)%capacity] = entry
		cb.count++
	} else {
		cb.entries[cb.start] = entry
		cb.start = (cb.start + 1) % capacity
		cb.dropped++
	}

	return len(p), nil
}

// Entries returns copies of the stored entries, oldest first.
func (cb *CircularBuffer) Entries() [][]byte {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.count == 0 {
		return nil
	}

	out := make([][]byte, 0, cb.count)
	for i := range cb.count {
		e := cb.entries[(cb.start+i)%len(cb.entries)]
		out = append(out, append([]byte(nil), e...))
	}

	return out
}

// Size returns the number of stored entries.
func (cb *CircularBuffer) Size() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.count
}

// Capacity returns the maximum number of stored entries.
func (cb *CircularBuffer) Capacity() int {
	return len(cb.entries)
}

// Dropped returns how many entries were evicted since the last [CircularBuffer.Clear].
func (cb *CircularBuffer) Dropped() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.dropped
}

// IsFull reports whether the next write evicts an entry.
func (cb *CircularBuffer) IsFull() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	return cb.count == len(cb.entries)
}

// Clear drops all entries.
func (cb *CircularBuffer) Clear() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	clear(cb.entries)
	cb.start, cb.count, cb.dropped = 0, 0, 0
}

// WriteTo writes the stored entries to w, oldest first.
func (cb *CircularBuffer) WriteTo(w io.Writer) (int64, error) {
	var total int64

	for _, entry := range cb.Entries() {
		n, err := w.Write(entry)
		total += int64(n)

		if err != nil {
			return total, fmt.Errorf("write entry: %w", err)
		}
	}

	return total, nil
}
