package web

import (
	"sync"

	"e2ectl/pkg/status"
)

// DefaultBufferSize bounds the transcript. a full setup, generate and run of
// one workflow is a few thousand lines at most, so the cap only matters for
// pathologically chatty runs where losing the oldest lines is acceptable.
const DefaultBufferSize = 4096

// Buffer keeps the transcript of the current workflow invocation so browser
// tabs that connect mid-run (or reload after it finished) can replay
// everything emitted so far. it is a fixed-capacity ring: once full, the
// oldest lines fall off.
//
// events are stored in arrival order and there are only three phases, so
// phase filtering is a linear scan at replay time rather than an index
// maintained on every write — replay happens once per tab connect, writes
// happen on every output line.
type Buffer struct {
	mu   sync.RWMutex
	ring []Event
	head int // position of the oldest stored event
	size int // stored events, at most len(ring)
}

// NewBuffer creates a transcript buffer holding up to capacity events.
// zero or negative capacity selects DefaultBufferSize.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultBufferSize
	}
	return &Buffer{ring: make([]Event, capacity)}
}

// Add appends an event, evicting the oldest one when the ring is full.
func (b *Buffer) Add(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.size < len(b.ring) {
		b.ring[(b.head+b.size)%len(b.ring)] = e
		b.size++
		return
	}
	b.ring[b.head] = e
	b.head = (b.head + 1) % len(b.ring)
}

// All returns the stored events in arrival order, nil when empty.
func (b *Buffer) All() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.snapshot()
}

// ByPhase returns the stored events for one workflow phase, in arrival
// order, nil when the phase emitted nothing that is still in the ring.
func (b *Buffer) ByPhase(phase status.Phase) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var result []Event
	for _, e := range b.snapshot() {
		if e.Phase == phase {
			result = append(result, e)
		}
	}
	return result
}

// snapshot copies the ring contents out in arrival order.
// must be called with the lock held.
func (b *Buffer) snapshot() []Event {
	if b.size == 0 {
		return nil
	}

	result := make([]Event, b.size)
	tail := len(b.ring) - b.head
	if b.size <= tail {
		copy(result, b.ring[b.head:b.head+b.size])
	} else {
		copy(result, b.ring[b.head:])
		copy(result[tail:], b.ring[:b.size-tail])
	}
	return result
}

// Count returns the number of events currently stored.
func (b *Buffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return b.size
}

// Clear drops the transcript, keeping the ring allocation for the next run.
func (b *Buffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()

	clear(b.ring)
	b.head = 0
	b.size = 0
}
