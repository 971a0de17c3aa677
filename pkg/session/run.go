package session

import (
	"strings"
	"sync"

	"e2ectl/pkg/api"
)

// Run tracks one container test run: a monotonically growing log buffer and
// a single "latest results" slot, overwritten rather than merged.
type Run struct {
	mu     sync.Mutex
	state  state
	log    strings.Builder
	result *api.RunResult
}

// NewRun creates an idle run session.
func NewRun() *Run {
	return &Run{}
}

// Begin starts a new run, clearing the log buffer and the results slot.
// returns ErrBusy while a run is in flight.
func (r *Run) Begin() error {
	if err := r.state.start(); err != nil {
		return err
	}
	r.mu.Lock()
	r.log.Reset()
	r.result = nil
	r.mu.Unlock()
	return nil
}

// Apply folds one stream event into the session: log and raw events append
// text plus a newline, a result event replaces the results slot. events of
// unknown type are dropped.
func (r *Run) Apply(ev api.RunEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch ev.Type {
	case api.EventLog, api.EventRaw:
		r.log.WriteString(ev.Message)
		r.log.WriteString("\n")
	case api.EventResult:
		if ev.Result != nil {
			res := *ev.Result
			r.result = &res
		}
	}
}

// Complete marks the run completed. only the first terminal signal applies.
func (r *Run) Complete() bool { return r.state.complete() }

// Fail marks the run failed, keeping the log collected so far.
func (r *Run) Fail() bool { return r.state.fail() }

// Status returns the run status.
func (r *Run) Status() Status { return r.state.current() }

// Log returns the accumulated log text.
func (r *Run) Log() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.log.String()
}

// Result returns the latest results slot, or false when no result arrived.
func (r *Run) Result() (api.RunResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.result == nil {
		return api.RunResult{}, false
	}
	return *r.result, true
}
