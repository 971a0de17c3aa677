// Package web provides the local HTTP dashboard with SSE streaming of
// workflow output.
package web

import (
	"encoding/json"
	"fmt"
	"time"

	"e2ectl/pkg/api"
	"e2ectl/pkg/status"
)

// EventType represents the type of event being streamed.
type EventType string

// event type constants for SSE streaming.
const (
	EventTypeOutput  EventType = "output"  // regular output line
	EventTypeSection EventType = "section" // section header
	EventTypeError   EventType = "error"   // error message
	EventTypeWarn    EventType = "warn"    // warning message
	EventTypeResult  EventType = "result"  // container run result
	EventTypeSignal  EventType = "signal"  // completion/failure signal
)

// Event represents a single event to be streamed to web clients.
type Event struct {
	Type      EventType      `json:"type"`
	Phase     status.Phase   `json:"phase"`
	Section   string         `json:"section,omitempty"`
	Text      string         `json:"text"`
	Timestamp time.Time      `json:"timestamp"`
	Signal    string         `json:"signal,omitempty"`
	Result    *api.RunResult `json:"result,omitempty"`
}

// NewOutputEvent creates an output event with current timestamp.
func NewOutputEvent(phase status.Phase, text string) Event {
	return Event{
		Type:      EventTypeOutput,
		Phase:     phase,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewSectionEvent creates a section header event.
func NewSectionEvent(phase status.Phase, name string) Event {
	return Event{
		Type:      EventTypeSection,
		Phase:     phase,
		Section:   name,
		Text:      name,
		Timestamp: time.Now(),
	}
}

// NewErrorEvent creates an error event.
func NewErrorEvent(phase status.Phase, text string) Event {
	return Event{
		Type:      EventTypeError,
		Phase:     phase,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewWarnEvent creates a warning event.
func NewWarnEvent(phase status.Phase, text string) Event {
	return Event{
		Type:      EventTypeWarn,
		Phase:     phase,
		Text:      text,
		Timestamp: time.Now(),
	}
}

// NewResultEvent creates a run-result event carrying the tally.
func NewResultEvent(phase status.Phase, r api.RunResult) Event {
	return Event{
		Type:      EventTypeResult,
		Phase:     phase,
		Text:      fmt.Sprintf("%d passed, %d failed of %d", r.Passed, r.Failed, r.Total),
		Timestamp: time.Now(),
		Result:    &r,
	}
}

// NewSignalEvent creates a signal event.
func NewSignalEvent(phase status.Phase, signal string) Event {
	return Event{
		Type:      EventTypeSignal,
		Phase:     phase,
		Text:      signal,
		Signal:    signal,
		Timestamp: time.Now(),
	}
}

// JSON returns the event as JSON bytes for SSE streaming.
func (e Event) JSON() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}
