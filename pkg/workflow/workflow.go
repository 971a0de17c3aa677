// Package workflow orchestrates the backend workflows: project setup,
// script generation and test runs, containerized or local.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"

	"e2ectl/pkg/api"
	"e2ectl/pkg/artifacts"
	"e2ectl/pkg/executor"
	"e2ectl/pkg/generator"
	"e2ectl/pkg/notify"
	"e2ectl/pkg/render"
	"e2ectl/pkg/session"
	"e2ectl/pkg/status"
)

// Config holds workflow configuration.
type Config struct {
	ProjectPath string // target directory for playwright project setup
	ProjectURL  string // site under test
	CasesFile   string // spreadsheet with test cases
	ScriptFile  string // where generated scripts are written
	SampleFile  string // where the sample spreadsheet is written
	RunCommand  string // command copied to the clipboard after generation
	ReportFile  string // run summary YAML destination, empty disables
	NoColor     bool   // disable syntax highlighting in script preview
	NoClipboard bool   // skip the clipboard copy after generation
}

// Client is the backend API surface, satisfied by api.Client.
type Client interface {
	SetupProject(ctx context.Context, path string, handler api.SetupHandler) error
	GenerateScript(ctx context.Context, file io.Reader, filename, projectURL string) (string, error)
	RunTests(ctx context.Context, r api.RunRequest, handler api.RunHandler) error
}

// Logger provides logging functionality, satisfied by progress.Logger and
// web.BroadcastLogger.
type Logger interface {
	SetPhase(phase status.Phase)
	Print(format string, args ...any)
	PrintRaw(format string, args ...any)
	PrintAligned(text string)
	Error(format string, args ...any)
	Warn(format string, args ...any)
}

// Workflow drives the backend operations and keeps per-run state.
type Workflow struct {
	cfg      Config
	client   Client
	log      Logger
	scripts  *session.ScriptHolder
	gen      *generator.Generator
	notifier *notify.Service     // nil-safe, may be nil
	onResult func(api.RunResult) // optional dashboard hook

	localRunner executor.Runner // for testing, nil uses the real process runner
}

// New creates a Workflow with the given configuration.
func New(cfg Config, client Client, log Logger) *Workflow {
	scripts := &session.ScriptHolder{}
	return &Workflow{
		cfg:     cfg,
		client:  client,
		log:     log,
		scripts: scripts,
		gen:     generator.New(client, scripts, log),
	}
}

// SetNotifier sets the notification service for run outcomes.
func (w *Workflow) SetNotifier(n *notify.Service) {
	w.notifier = n
}

// OnResult registers a hook invoked with each run result (dashboard wiring).
func (w *Workflow) OnResult(fn func(api.RunResult)) {
	w.onResult = fn
}

// Setup streams the playwright project scaffolding log until the backend
// announces completion. the log is ordered and cleared on each invocation.
func (w *Workflow) Setup(ctx context.Context) error {
	w.log.SetPhase(status.PhaseSetup)

	sess := session.NewSetup()
	if err := sess.Begin(); err != nil {
		return fmt.Errorf("begin setup: %w", err)
	}

	w.log.Print("setting up playwright project at %s", w.cfg.ProjectPath)

	err := w.client.SetupProject(ctx, w.cfg.ProjectPath, func(entry api.LogEntry) {
		sess.Append(entry)
		switch entry.Type {
		case api.EntryError:
			w.log.Error("%s", entry.Message)
		case api.EntrySuccess:
			w.log.Print("%s", entry.Message)
		default:
			w.log.PrintAligned(entry.Message)
		}
	})
	if err != nil {
		sess.Fail()
		return fmt.Errorf("setup: %w", err)
	}

	sess.Complete()
	w.log.Print("setup finished, %d log entries", len(sess.Entries()))
	return nil
}

// Generate produces a test script from the configured spreadsheet, writes it
// to the script file and shows a highlighted preview. validation failures are
// reported before any request is made.
func (w *Workflow) Generate(ctx context.Context) (string, error) {
	w.log.SetPhase(status.PhaseGenerate)

	script, err := w.gen.Generate(ctx, w.cfg.CasesFile, w.cfg.ProjectURL)
	if err != nil {
		return "", err
	}

	if err := w.saveScript(script); err != nil {
		return "", err
	}
	return script, nil
}

// Watch regenerates the script every time the spreadsheet changes, until ctx
// is canceled.
func (w *Workflow) Watch(ctx context.Context) error {
	w.log.SetPhase(status.PhaseGenerate)

	return w.gen.Watch(ctx, w.cfg.CasesFile, w.cfg.ProjectURL, func(script string, err error) {
		if err != nil {
			return // generator already logged it
		}
		if saveErr := w.saveScript(script); saveErr != nil {
			w.log.Error("save regenerated script: %v", saveErr)
		}
	})
}

// Sample writes the sample test-case spreadsheet to the configured path.
func (w *Workflow) Sample() error {
	if err := artifacts.WriteSample(w.cfg.SampleFile); err != nil {
		return fmt.Errorf("write sample: %w", err)
	}
	w.log.Print("sample test cases written to %s", w.cfg.SampleFile)
	return nil
}

// Script returns the current script text and whether it is usable for a run.
func (w *Workflow) Script() (string, bool) {
	return w.scripts.Get()
}

// saveScript persists the script, prints the preview and copies the run
// command to the clipboard.
func (w *Workflow) saveScript(script string) error {
	if err := artifacts.WriteScript(w.cfg.ScriptFile, script); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	w.log.Print("script written to %s", w.cfg.ScriptFile)

	preview, err := render.Script(script, w.cfg.NoColor)
	if err != nil {
		w.log.Warn("script preview unavailable: %v", err)
	} else {
		w.log.PrintRaw("%s\n", preview)
	}

	if !w.cfg.NoClipboard && w.cfg.RunCommand != "" {
		if err := artifacts.CopyRunCommand(w.cfg.RunCommand); err != nil {
			// headless environments have no clipboard, not fatal
			w.log.Warn("clipboard copy failed: %v", err)
		} else {
			w.log.Print("run command copied to clipboard: %s", w.cfg.RunCommand)
		}
	}
	return nil
}

// ErrNoScript is returned by Run when no usable script is available.
var ErrNoScript = errors.New("no test script available, generate one first")
