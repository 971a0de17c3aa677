package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"e2ectl/pkg/api"
	"e2ectl/pkg/artifacts"
	"e2ectl/pkg/status"
)

// fakeClient plays back canned streams and records calls.
type fakeClient struct {
	setupEntries []api.LogEntry
	setupErr     error
	script       string
	generateErr  error
	runEvents    []api.RunEvent
	runErr       error

	generateCalls int
	runRequests   []api.RunRequest
}

func (f *fakeClient) SetupProject(_ context.Context, _ string, handler api.SetupHandler) error {
	for _, e := range f.setupEntries {
		handler(e)
	}
	return f.setupErr
}

func (f *fakeClient) GenerateScript(_ context.Context, file io.Reader, _, _ string) (string, error) {
	f.generateCalls++
	if _, err := io.ReadAll(file); err != nil {
		return "", err
	}
	return f.script, f.generateErr
}

func (f *fakeClient) RunTests(_ context.Context, r api.RunRequest, handler api.RunHandler) error {
	f.runRequests = append(f.runRequests, r)
	for _, ev := range f.runEvents {
		handler(ev)
	}
	return f.runErr
}

// captureLogger records log lines by level.
type captureLogger struct {
	phase status.Phase
	lines []string
}

func (c *captureLogger) SetPhase(phase status.Phase) { c.phase = phase }
func (c *captureLogger) Print(format string, args ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}
func (c *captureLogger) PrintRaw(format string, args ...any) {
	c.lines = append(c.lines, fmt.Sprintf(format, args...))
}
func (c *captureLogger) PrintAligned(text string) { c.lines = append(c.lines, text) }
func (c *captureLogger) Error(format string, args ...any) {
	c.lines = append(c.lines, "ERROR: "+fmt.Sprintf(format, args...))
}
func (c *captureLogger) Warn(format string, args ...any) {
	c.lines = append(c.lines, "WARN: "+fmt.Sprintf(format, args...))
}

func (c *captureLogger) joined() string { return strings.Join(c.lines, "\n") }

func writeCases(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "cases.csv")
	require.NoError(t, os.WriteFile(path, []byte("Scenario,Steps to Execute\nlogin,click\n"), 0o600))
	return path
}

func TestWorkflow_Setup(t *testing.T) {
	t.Run("streams entries in order", func(t *testing.T) {
		client := &fakeClient{setupEntries: []api.LogEntry{
			{Type: api.EntryInfo, Message: "Creating virtual environment..."},
			{Type: api.EntrySuccess, Message: "Browsers installed"},
			{Type: api.EntrySuccess, Message: "Python Playwright auto-setup complete!"},
		}}
		log := &captureLogger{}
		w := New(Config{ProjectPath: "/tmp/proj"}, client, log)

		require.NoError(t, w.Setup(context.Background()))
		assert.Equal(t, status.PhaseSetup, log.phase)

		out := log.joined()
		assert.Contains(t, out, "Creating virtual environment...")
		assert.Contains(t, out, "auto-setup complete")
		assert.Contains(t, out, "3 log entries")
		// order preserved
		assert.Less(t, strings.Index(out, "virtual environment"), strings.Index(out, "Browsers installed"))
	})

	t.Run("error entries logged as errors", func(t *testing.T) {
		client := &fakeClient{setupEntries: []api.LogEntry{
			{Type: api.EntryError, Message: "npm not found"},
		}}
		log := &captureLogger{}
		w := New(Config{}, client, log)

		require.NoError(t, w.Setup(context.Background()))
		assert.Contains(t, log.joined(), "ERROR: npm not found")
	})

	t.Run("stream failure returns error", func(t *testing.T) {
		client := &fakeClient{setupErr: errors.New("setup stream: unexpected EOF")}
		w := New(Config{}, client, &captureLogger{})

		err := w.Setup(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "setup:")
	})
}

func TestWorkflow_Generate(t *testing.T) {
	t.Run("writes script file and remembers script", func(t *testing.T) {
		dir := t.TempDir()
		scriptFile := filepath.Join(dir, "test_script.py")
		client := &fakeClient{script: "import pytest\n\ndef test_login(page): pass\n"}
		log := &captureLogger{}
		w := New(Config{
			CasesFile:   writeCases(t, dir),
			ProjectURL:  "https://shop.example.com",
			ScriptFile:  scriptFile,
			NoColor:     true,
			NoClipboard: true,
		}, client, log)

		script, err := w.Generate(context.Background())
		require.NoError(t, err)
		assert.Contains(t, script, "def test_login")

		data, err := os.ReadFile(scriptFile)
		require.NoError(t, err)
		assert.Equal(t, script, string(data))

		held, ok := w.Script()
		assert.True(t, ok)
		assert.Equal(t, script, held)
	})

	t.Run("validation failure issues no request", func(t *testing.T) {
		client := &fakeClient{script: "x"}
		w := New(Config{ProjectURL: "https://shop.example.com"}, client, &captureLogger{})

		_, err := w.Generate(context.Background())
		require.Error(t, err)
		assert.Zero(t, client.generateCalls)
	})

	t.Run("backend failure keeps error text", func(t *testing.T) {
		dir := t.TempDir()
		client := &fakeClient{generateErr: errors.New("backend rejected request: Missing columns")}
		w := New(Config{
			CasesFile:  writeCases(t, dir),
			ProjectURL: "https://shop.example.com",
			ScriptFile: filepath.Join(dir, "test_script.py"),
		}, client, &captureLogger{})

		_, err := w.Generate(context.Background())
		require.Error(t, err)

		text, ok := w.Script()
		assert.False(t, ok)
		assert.Equal(t, "Error: backend rejected request: Missing columns", text)
	})
}

func TestWorkflow_Run(t *testing.T) {
	result := api.RunResult{Passed: 2, Failed: 1, Total: 3, ReportURL: "http://localhost:8000/reports/9"}
	events := []api.RunEvent{
		{Type: api.EventLog, Message: "Starting Docker container..."},
		{Type: api.EventRaw, Message: "collected 3 items"},
		{Type: api.EventResult, Message: "Test run completed", Result: &result},
	}

	newRunWorkflow := func(t *testing.T, client *fakeClient) (*Workflow, *captureLogger, string) {
		t.Helper()
		dir := t.TempDir()
		scriptFile := filepath.Join(dir, "test_script.py")
		require.NoError(t, os.WriteFile(scriptFile, []byte("def test(): pass"), 0o600))
		log := &captureLogger{}
		w := New(Config{
			ProjectURL: "https://shop.example.com",
			ScriptFile: scriptFile,
			ReportFile: filepath.Join(dir, "run-report.yml"),
		}, client, log)
		return w, log, dir
	}

	t.Run("streams output and reports tally", func(t *testing.T) {
		client := &fakeClient{runEvents: events}
		w, log, _ := newRunWorkflow(t, client)

		var hooked api.RunResult
		w.OnResult(func(r api.RunResult) { hooked = r })

		require.NoError(t, w.Run(context.Background()))
		assert.Equal(t, status.PhaseRun, log.phase)

		out := log.joined()
		assert.Contains(t, out, "Starting Docker container...")
		assert.Contains(t, out, "collected 3 items")
		assert.Contains(t, out, "2 passed, 1 failed of 3")
		assert.Contains(t, out, "http://localhost:8000/reports/9")
		assert.Equal(t, result, hooked)

		// script read from file since nothing was generated this session
		require.Len(t, client.runRequests, 1)
		assert.Equal(t, "def test(): pass", client.runRequests[0].TestScript)
		assert.Equal(t, "https://shop.example.com", client.runRequests[0].ProjectURL)
	})

	t.Run("writes yaml report", func(t *testing.T) {
		client := &fakeClient{runEvents: events}
		w, _, dir := newRunWorkflow(t, client)

		require.NoError(t, w.Run(context.Background()))

		data, err := os.ReadFile(filepath.Join(dir, "run-report.yml"))
		require.NoError(t, err)

		var report artifacts.Report
		require.NoError(t, yaml.Unmarshal(data, &report))
		assert.Equal(t, "success", report.Status)
		assert.Equal(t, 2, report.Passed)
		assert.Equal(t, 1, report.Failed)
		assert.Equal(t, 3, report.Total)
		assert.Equal(t, "http://localhost:8000/reports/9", report.ReportURL)
	})

	t.Run("stream error fails the run", func(t *testing.T) {
		client := &fakeClient{runErr: errors.New("unexpected EOF")}
		w, _, dir := newRunWorkflow(t, client)

		err := w.Run(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run:")

		data, readErr := os.ReadFile(filepath.Join(dir, "run-report.yml"))
		require.NoError(t, readErr)
		var report artifacts.Report
		require.NoError(t, yaml.Unmarshal(data, &report))
		assert.Equal(t, "failure", report.Status)
	})

	t.Run("missing result frame warns", func(t *testing.T) {
		client := &fakeClient{runEvents: []api.RunEvent{
			{Type: api.EventLog, Message: "Starting Docker container..."},
		}}
		w, log, _ := newRunWorkflow(t, client)

		require.NoError(t, w.Run(context.Background()))
		assert.Contains(t, log.joined(), "without a result frame")
	})

	t.Run("no script anywhere", func(t *testing.T) {
		client := &fakeClient{}
		w := New(Config{
			ProjectURL: "https://shop.example.com",
			ScriptFile: filepath.Join(t.TempDir(), "missing.py"),
		}, client, &captureLogger{})

		err := w.Run(context.Background())
		assert.ErrorIs(t, err, ErrNoScript)
		assert.Empty(t, client.runRequests, "no request without a script")
	})

	t.Run("prefers freshly generated script over file", func(t *testing.T) {
		dir := t.TempDir()
		scriptFile := filepath.Join(dir, "test_script.py")
		client := &fakeClient{script: "def test_generated(): pass", runEvents: events}
		w := New(Config{
			CasesFile:   writeCases(t, dir),
			ProjectURL:  "https://shop.example.com",
			ScriptFile:  scriptFile,
			NoColor:     true,
			NoClipboard: true,
		}, client, &captureLogger{})

		_, err := w.Generate(context.Background())
		require.NoError(t, err)

		// overwrite the file to prove the in-memory script wins
		require.NoError(t, os.WriteFile(scriptFile, []byte("stale"), 0o600))

		require.NoError(t, w.Run(context.Background()))
		require.Len(t, client.runRequests, 1)
		assert.Equal(t, "def test_generated(): pass", client.runRequests[0].TestScript)
	})
}

func TestWorkflow_RunLocal(t *testing.T) {
	newLocalWorkflow := func(t *testing.T, runner *stubProcessRunner) (*Workflow, *captureLogger, string) {
		t.Helper()
		dir := t.TempDir()
		scriptFile := filepath.Join(dir, "test_script.py")
		require.NoError(t, os.WriteFile(scriptFile, []byte("def test(): pass"), 0o600))
		log := &captureLogger{}
		w := New(Config{
			ProjectURL: "https://shop.example.com",
			ScriptFile: scriptFile,
			RunCommand: "pytest test_script.py",
			ReportFile: filepath.Join(dir, "run-report.yml"),
		}, &fakeClient{}, log)
		w.localRunner = runner
		return w, log, dir
	}

	t.Run("streams output and parses pytest tally", func(t *testing.T) {
		runner := &stubProcessRunner{output: "collected 3 items\ntest_login PASSED\n===== 2 passed, 1 failed in 1.20s =====\n", waitErr: errors.New("exit status 1")}
		w, log, _ := newLocalWorkflow(t, runner)

		var hooked api.RunResult
		w.OnResult(func(r api.RunResult) { hooked = r })

		require.NoError(t, w.RunLocal(context.Background()), "pytest exits non-zero on failures, the tally is still the outcome")
		assert.Equal(t, status.PhaseRun, log.phase)

		assert.Equal(t, "pytest", runner.gotName)
		assert.Equal(t, []string{"test_script.py"}, runner.gotArgs)

		out := log.joined()
		assert.Contains(t, out, "running tests locally: pytest test_script.py")
		assert.Contains(t, out, "collected 3 items")
		assert.Contains(t, out, "2 passed, 1 failed of 3")
		assert.Equal(t, api.RunResult{Passed: 2, Failed: 1, Total: 3}, hooked)
	})

	t.Run("writes yaml report", func(t *testing.T) {
		runner := &stubProcessRunner{output: "===== 3 passed in 0.80s =====\n"}
		w, _, dir := newLocalWorkflow(t, runner)

		require.NoError(t, w.RunLocal(context.Background()))

		data, err := os.ReadFile(filepath.Join(dir, "run-report.yml"))
		require.NoError(t, err)
		var report artifacts.Report
		require.NoError(t, yaml.Unmarshal(data, &report))
		assert.Equal(t, "success", report.Status)
		assert.Equal(t, 3, report.Passed)
		assert.Equal(t, 3, report.Total)
	})

	t.Run("command failure without summary", func(t *testing.T) {
		runner := &stubProcessRunner{output: "pytest: command not found\n", waitErr: errors.New("exit status 127")}
		w, log, _ := newLocalWorkflow(t, runner)

		err := w.RunLocal(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "local run")
		assert.Contains(t, log.joined(), "pytest: command not found")
	})

	t.Run("no script no run", func(t *testing.T) {
		runner := &stubProcessRunner{}
		log := &captureLogger{}
		w := New(Config{
			ScriptFile: filepath.Join(t.TempDir(), "missing.py"),
			RunCommand: "pytest test_script.py",
		}, &fakeClient{}, log)
		w.localRunner = runner

		require.ErrorIs(t, w.RunLocal(context.Background()), ErrNoScript)
		assert.Empty(t, runner.gotName, "command must not start without a script")
	})

	t.Run("in-memory script flushed to disk before the run", func(t *testing.T) {
		runner := &stubProcessRunner{output: "===== 1 passed in 0.10s =====\n"}
		dir := t.TempDir()
		scriptFile := filepath.Join(dir, "test_script.py")
		log := &captureLogger{}
		w := New(Config{
			ScriptFile: scriptFile,
			RunCommand: "pytest test_script.py",
		}, &fakeClient{}, log)
		w.localRunner = runner
		w.scripts.Set("def test_generated(): pass")

		require.NoError(t, w.RunLocal(context.Background()))

		data, err := os.ReadFile(scriptFile)
		require.NoError(t, err)
		assert.Equal(t, "def test_generated(): pass", string(data))
	})
}

// stubProcessRunner satisfies executor.Runner with canned process output.
type stubProcessRunner struct {
	output  string
	waitErr error

	gotName string
	gotArgs []string
}

func (s *stubProcessRunner) Run(_ context.Context, name string, args ...string) (io.Reader, func() error, error) {
	s.gotName = name
	s.gotArgs = args
	return strings.NewReader(s.output), func() error { return s.waitErr }, nil
}

func TestWorkflow_Sample(t *testing.T) {
	dir := t.TempDir()
	samplePath := filepath.Join(dir, "sample_test_cases.csv")
	log := &captureLogger{}
	w := New(Config{SampleFile: samplePath}, &fakeClient{}, log)

	require.NoError(t, w.Sample())

	data, err := os.ReadFile(samplePath)
	require.NoError(t, err)
	assert.Equal(t, artifacts.SampleCSV(), string(data))
	assert.Contains(t, log.joined(), samplePath)
}
