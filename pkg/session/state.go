// Package session holds the per-run mutable state: the setup log sequence,
// the run log buffer with its results slot, and the generated script holder.
// each workflow owns one session object; nothing here is process-global.
package session

import (
	"errors"
	"sync"
)

// Status represents the lifecycle of one streamed operation.
type Status string

// status constants. a session moves idle → running → {completed, failed};
// the terminal transition happens exactly once.
const (
	StatusIdle      Status = "idle"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ErrBusy is returned when an operation is started while one is in flight.
// it is the per-session busy flag: no two operations of the same session
// run concurrently.
var ErrBusy = errors.New("operation already running")

// state tracks the lifecycle of one operation with exactly-once terminal
// transitions. zero value is idle and ready to use.
type state struct {
	mu     sync.Mutex
	status Status
}

// start moves idle/terminal → running. returns ErrBusy if already running.
func (s *state) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusRunning {
		return ErrBusy
	}
	s.status = StatusRunning
	return nil
}

// complete moves running → completed. reports whether this call made the
// transition; later terminal signals lose the race and are ignored.
func (s *state) complete() bool { return s.finish(StatusCompleted) }

// fail moves running → failed, first terminal signal wins.
func (s *state) fail() bool { return s.finish(StatusFailed) }

func (s *state) finish(terminal Status) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status != StatusRunning {
		return false
	}
	s.status = terminal
	return true
}

// current returns the status.
func (s *state) current() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == "" {
		return StatusIdle
	}
	return s.status
}
