package session

import (
	"sync"

	"e2ectl/pkg/api"
)

// Setup tracks one project setup run: an append-only ordered sequence of log
// entries plus the run status. entries are never mutated after insertion and
// the whole sequence is discarded when a new run begins.
type Setup struct {
	mu      sync.Mutex
	state   state
	entries []api.LogEntry
}

// NewSetup creates an idle setup session.
func NewSetup() *Setup {
	return &Setup{}
}

// Begin starts a new run, discarding the previous log sequence.
// returns ErrBusy while a run is in flight.
func (s *Setup) Begin() error {
	if err := s.state.start(); err != nil {
		return err
	}
	s.mu.Lock()
	s.entries = nil
	s.mu.Unlock()
	return nil
}

// Append adds an entry to the run's log in arrival order.
func (s *Setup) Append(e api.LogEntry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
}

// Complete marks the run completed. only the first terminal signal applies.
func (s *Setup) Complete() bool { return s.state.complete() }

// Fail marks the run failed without touching entries already collected.
func (s *Setup) Fail() bool { return s.state.fail() }

// Status returns the run status.
func (s *Setup) Status() Status { return s.state.current() }

// Entries returns a copy of the collected log sequence.
func (s *Setup) Entries() []api.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]api.LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}
