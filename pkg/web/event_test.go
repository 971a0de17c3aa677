package web

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"e2ectl/pkg/api"
	"e2ectl/pkg/status"
)

func TestEventConstructors(t *testing.T) {
	t.Run("output event", func(t *testing.T) {
		e := NewOutputEvent(status.PhaseSetup, "installing browsers")
		assert.Equal(t, EventTypeOutput, e.Type)
		assert.Equal(t, status.PhaseSetup, e.Phase)
		assert.Equal(t, "installing browsers", e.Text)
		assert.False(t, e.Timestamp.IsZero())
	})

	t.Run("section event", func(t *testing.T) {
		e := NewSectionEvent(status.PhaseGenerate, "generate")
		assert.Equal(t, EventTypeSection, e.Type)
		assert.Equal(t, "generate", e.Section)
		assert.Equal(t, "generate", e.Text)
	})

	t.Run("error event", func(t *testing.T) {
		e := NewErrorEvent(status.PhaseRun, "stream dropped")
		assert.Equal(t, EventTypeError, e.Type)
		assert.Equal(t, "stream dropped", e.Text)
	})

	t.Run("warn event", func(t *testing.T) {
		e := NewWarnEvent(status.PhaseRun, "retrying clipboard")
		assert.Equal(t, EventTypeWarn, e.Type)
		assert.Equal(t, "retrying clipboard", e.Text)
	})

	t.Run("result event", func(t *testing.T) {
		e := NewResultEvent(status.PhaseRun, api.RunResult{Passed: 2, Failed: 1, Total: 3})
		assert.Equal(t, EventTypeResult, e.Type)
		assert.Equal(t, "2 passed, 1 failed of 3", e.Text)
		require.NotNil(t, e.Result)
		assert.Equal(t, 3, e.Result.Total)
	})

	t.Run("signal event", func(t *testing.T) {
		e := NewSignalEvent(status.PhaseSetup, "COMPLETED")
		assert.Equal(t, EventTypeSignal, e.Type)
		assert.Equal(t, "COMPLETED", e.Signal)
		assert.Equal(t, "COMPLETED", e.Text)
	})
}

func TestEvent_JSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		e := Event{
			Type:      EventTypeOutput,
			Phase:     status.PhaseRun,
			Text:      "1 passed",
			Timestamp: time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
		}

		data, err := e.JSON()
		require.NoError(t, err)

		var got Event
		require.NoError(t, json.Unmarshal(data, &got))
		assert.Equal(t, e, got)
	})

	t.Run("omits empty optional fields", func(t *testing.T) {
		e := NewOutputEvent(status.PhaseSetup, "text")
		data, err := e.JSON()
		require.NoError(t, err)
		assert.NotContains(t, string(data), "section")
		assert.NotContains(t, string(data), "signal")
		assert.NotContains(t, string(data), "result")
	})

	t.Run("result payload serialized with camelCase report url", func(t *testing.T) {
		e := NewResultEvent(status.PhaseRun, api.RunResult{Passed: 1, Total: 1, ReportURL: "http://localhost:8000/r/1"})
		data, err := e.JSON()
		require.NoError(t, err)
		assert.Contains(t, string(data), `"reportUrl":"http://localhost:8000/r/1"`)
	})
}
