// Package generator drives the script-generation workflow: input validation,
// the backend request, script storage, and optional watch mode. one flow
// serves all UI variants, parameterized by the configured capability set.
package generator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"

	"e2ectl/pkg/cases"
	"e2ectl/pkg/session"
)

// validation errors, raised before any request is issued.
var (
	ErrNoFile      = errors.New("no test-case file selected")
	ErrNoURL       = errors.New("project URL is required")
	ErrBadFileType = errors.New("file must be .csv, .xlsx or .xls")
)

// ScriptClient generates a test script from an uploaded spreadsheet.
// satisfied by api.Client.
type ScriptClient interface {
	GenerateScript(ctx context.Context, file io.Reader, filename, projectURL string) (string, error)
}

// Logger is the subset of the progress logger the generator needs.
type Logger interface {
	Print(format string, args ...any)
	Error(format string, args ...any)
	Warn(format string, args ...any)
}

// Generator runs generation requests and holds the resulting script.
type Generator struct {
	client  ScriptClient
	scripts *session.ScriptHolder
	log     Logger
	busy    atomic.Bool // per-session gate, no two generations overlap
}

// New creates a generator storing scripts in the given holder.
func New(client ScriptClient, scripts *session.ScriptHolder, log Logger) *Generator {
	return &Generator{client: client, scripts: scripts, log: log}
}

// Validate checks the inputs the way the form gates its submit button:
// a selected file of an accepted type and a non-empty URL. a validation
// failure means no network request is made.
func Validate(filePath, projectURL string) error {
	if filePath == "" {
		return ErrNoFile
	}
	if !cases.SupportedFile(filePath) {
		return fmt.Errorf("%w: %s", ErrBadFileType, filepath.Base(filePath))
	}
	if projectURL == "" {
		return ErrNoURL
	}
	return nil
}

// Generate validates inputs, issues exactly one generation request, and
// stores the outcome in the script holder: the script on success, the
// failure text in place of a script otherwise.
func (g *Generator) Generate(ctx context.Context, filePath, projectURL string) (string, error) {
	if err := Validate(filePath, projectURL); err != nil {
		return "", err
	}

	if !g.busy.CompareAndSwap(false, true) {
		return "", session.ErrBusy
	}
	defer g.busy.Store(false)

	f, err := os.Open(filePath) //nolint:gosec // user-supplied spreadsheet path
	if err != nil {
		return "", fmt.Errorf("open test-case file: %w", err)
	}
	defer f.Close()

	script, err := g.client.GenerateScript(ctx, f, filepath.Base(filePath), projectURL)
	if err != nil {
		g.scripts.SetError(err)
		return "", err
	}

	g.scripts.Set(script)
	return script, nil
}

// Script returns the held script text and whether it is usable.
func (g *Generator) Script() (string, bool) {
	return g.scripts.Get()
}
