package web

import (
	"fmt"
	"strings"

	"e2ectl/pkg/api"
	"e2ectl/pkg/status"
)

// Logger is the terminal logger surface wrapped by BroadcastLogger,
// satisfied by progress.Logger.
type Logger interface {
	SetPhase(phase status.Phase)
	Print(format string, args ...any)
	PrintRaw(format string, args ...any)
	PrintAligned(text string)
	Error(format string, args ...any)
	Warn(format string, args ...any)
	Path() string
}

// BroadcastLogger wraps a terminal logger and mirrors output to SSE clients.
// all calls are forwarded to the inner logger while also being converted to
// events for web streaming.
//
// Thread safety: log methods must be called from a single goroutine
// (typically the workflow loop). The phase holder and the hub handle
// concurrent access from SSE clients.
type BroadcastLogger struct {
	inner  Logger
	hub    *Hub
	buffer *Buffer
	phase  *status.PhaseHolder
}

// NewBroadcastLogger creates a logger that wraps inner and broadcasts to the
// given hub, keeping history in buffer for late-joining clients.
func NewBroadcastLogger(inner Logger, hub *Hub, buffer *Buffer) *BroadcastLogger {
	b := &BroadcastLogger{
		inner:  inner,
		hub:    hub,
		buffer: buffer,
		phase:  &status.PhaseHolder{},
	}
	b.phase.Set(status.PhaseSetup) // before OnChange, the initial phase is not a boundary
	b.phase.OnChange(func(_, cur status.Phase) {
		b.broadcast(NewSectionEvent(cur, string(cur)))
	})
	return b
}

// SetPhase sets the current workflow phase; a change emits a section boundary.
func (b *BroadcastLogger) SetPhase(phase status.Phase) {
	b.phase.Set(phase)
	b.inner.SetPhase(phase)
}

// Phase returns the current workflow phase.
func (b *BroadcastLogger) Phase() status.Phase {
	return b.phase.Get()
}

// Print writes a timestamped message and broadcasts it.
func (b *BroadcastLogger) Print(format string, args ...any) {
	b.inner.Print(format, args...)
	text := formatText(format, args...)
	b.broadcast(NewOutputEvent(b.phase.Get(), text))
	b.signalIfComplete(text)
}

// PrintRaw writes without timestamp and broadcasts it.
func (b *BroadcastLogger) PrintRaw(format string, args ...any) {
	b.inner.PrintRaw(format, args...)
	b.broadcast(NewOutputEvent(b.phase.Get(), strings.TrimRight(formatText(format, args...), "\n")))
}

// PrintAligned writes text with timestamp alignment and broadcasts it.
func (b *BroadcastLogger) PrintAligned(text string) {
	b.inner.PrintAligned(text)
	b.broadcast(NewOutputEvent(b.phase.Get(), text))
	b.signalIfComplete(text)
}

// Error writes an error message and broadcasts it.
func (b *BroadcastLogger) Error(format string, args ...any) {
	b.inner.Error(format, args...)
	b.broadcast(NewErrorEvent(b.phase.Get(), formatText(format, args...)))
}

// Warn writes a warning message and broadcasts it.
func (b *BroadcastLogger) Warn(format string, args ...any) {
	b.inner.Warn(format, args...)
	b.broadcast(NewWarnEvent(b.phase.Get(), formatText(format, args...)))
}

// Result broadcasts a container-run result event.
func (b *BroadcastLogger) Result(r api.RunResult) {
	b.broadcast(NewResultEvent(b.phase.Get(), r))
}

// Signal broadcasts a terminal signal (COMPLETED or FAILED).
func (b *BroadcastLogger) Signal(signal string) {
	b.broadcast(NewSignalEvent(b.phase.Get(), signal))
}

// Path returns the inner logger's file path.
func (b *BroadcastLogger) Path() string {
	return b.inner.Path()
}

// signalIfComplete emits a COMPLETED signal when the setup stream announces
// it is done.
func (b *BroadcastLogger) signalIfComplete(text string) {
	if api.IsSetupComplete(text) {
		b.broadcast(NewSignalEvent(b.phase.Get(), "COMPLETED"))
	}
}

// broadcast records the event for replay and pushes it to live clients.
func (b *BroadcastLogger) broadcast(e Event) {
	if b.buffer != nil {
		b.buffer.Add(e)
	}
	if b.hub != nil {
		b.hub.Broadcast(e)
	}
}

// formatText formats a string with args, like fmt.Sprintf.
func formatText(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
