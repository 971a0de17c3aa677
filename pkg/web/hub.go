package web

import (
	"sync"
	"sync/atomic"
)

// viewerBuffer sizes the per-tab live channel. workflow output arrives one
// line at a time from a single stream or subprocess, and history replay is
// served from the transcript buffer before the live channel is drained, so
// the channel only has to absorb short bursts: a section header plus a few
// lines, or the result and completion signal at the end of a run.
const viewerBuffer = 64

// Hub fans workflow events out to connected dashboard tabs. the CLI keeps
// serving after the workflow finishes, so tabs come and go; a tab that stops
// draining (backgrounded, suspended laptop) must never stall the producing
// workflow, so sends are non-blocking and overflow is counted instead of
// delivered.
type Hub struct {
	mu      sync.RWMutex
	viewers map[chan Event]struct{}
	closed  bool
	dropped atomic.Int64 // events lost to full viewer channels
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{viewers: make(map[chan Event]struct{})}
}

// Subscribe registers a dashboard tab and returns its live event channel.
// on a closed hub the channel comes back already closed, so the caller's
// read loop exits immediately instead of hanging on a dead hub.
func (h *Hub) Subscribe() chan Event {
	ch := make(chan Event, viewerBuffer)

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		close(ch)
		return ch
	}
	h.viewers[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a tab's channel and closes it.
// safe to call twice with the same channel, and after Close.
func (h *Hub) Unsubscribe(ch chan Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.viewers[ch]; ok {
		delete(h.viewers, ch)
		close(ch)
	}
}

// Broadcast delivers an event to every connected tab without blocking.
// a tab with a full channel misses the event; the transcript buffer still
// holds it, so reloading the page recovers the full log.
func (h *Hub) Broadcast(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for ch := range h.viewers {
		select {
		case ch <- e:
		default:
			h.dropped.Add(1)
		}
	}
}

// Viewers returns the number of connected tabs.
func (h *Hub) Viewers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.viewers)
}

// Dropped returns the total number of events lost to slow tabs.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}

// Close disconnects all tabs. later Subscribe calls get a closed channel.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for ch := range h.viewers {
		close(ch)
		delete(h.viewers, ch)
	}
}
