package api

import "strings"

// EntryType classifies a setup log entry pushed by the backend.
type EntryType string

// entry type constants matching the backend's setup stream payloads.
const (
	EntryInfo    EntryType = "info"
	EntrySuccess EntryType = "success"
	EntryError   EntryType = "error"
)

// LogEntry is a single message from the setup stream.
type LogEntry struct {
	Type    EntryType `json:"type"`
	Message string    `json:"message"`
}

// RunEventType classifies a frame from the container run stream.
type RunEventType string

// run event type constants. EventRaw is client-side only: it marks lines
// that arrived without the frame prefix or with an unparseable payload and
// are displayed verbatim instead of failing the stream.
const (
	EventLog    RunEventType = "log"
	EventResult RunEventType = "result"
	EventRaw    RunEventType = "raw"
)

// RunEvent is a single frame from the container run stream.
type RunEvent struct {
	Type    RunEventType `json:"type"`
	Message string       `json:"message"`
	Result  *RunResult   `json:"result,omitempty"`
}

// RunResult is the pass/fail summary emitted once per container run.
type RunResult struct {
	Passed    int    `json:"passed"`
	Failed    int    `json:"failed"`
	Total     int    `json:"total"`
	ReportURL string `json:"reportUrl,omitempty"`
}

// completionMarker is the substring the backend includes in the final setup
// message. arrival of a message containing it is the success terminal signal.
const completionMarker = "auto-setup complete"

// IsSetupComplete reports whether a setup message carries the completion marker.
func IsSetupComplete(message string) bool {
	return strings.Contains(message, completionMarker)
}
