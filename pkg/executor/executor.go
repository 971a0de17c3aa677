// Package executor runs the generated test script on the local machine,
// streaming output line by line. it is the offline alternative to the
// backend's container run: the same command that gets copied to the
// clipboard after generation is executed directly, with the pytest summary
// parsed into the shared result tally.
package executor

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"e2ectl/pkg/api"
)

// MaxScannerBuffer limits a single output line; pytest tracebacks can be long.
const MaxScannerBuffer = 1024 * 1024

// Result holds a local run outcome: accumulated output, the parsed tally
// when the summary line was seen, and the execution error if any.
type Result struct {
	Output string
	Tally  *api.RunResult // nil when no summary line appeared
	Error  error
}

// Runner abstracts command execution for testing.
// Returns stdout reader and a wait function for completion.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout io.Reader, wait func() error, err error)
}

// execRunner is the default runner using os/exec with process group cleanup.
type execRunner struct {
	dir string
}

func (r *execRunner) Run(ctx context.Context, name string, args ...string) (io.Reader, func() error, error) {
	// check context before starting to avoid spawning a process that will be immediately killed
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("context already canceled: %w", err)
	}

	// use exec.Command (not CommandContext) because we handle cancellation ourselves
	// to ensure the entire process group is killed, not just the direct child
	cmd := exec.Command(name, args...) //nolint:noctx // intentional: we handle context cancellation via process group kill
	cmd.Dir = r.dir

	// create new process group so we can kill all descendants on cleanup
	setupProcessGroup(cmd)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("stdout pipe: %w", err)
	}
	// merge stderr into stdout
	cmd.Stderr = cmd.Stdout

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start command: %w", err)
	}

	// setup process group cleanup with graceful shutdown on context cancellation
	cleanup := newProcessGroupCleanup(cmd, ctx.Done())

	return stdout, cleanup.Wait, nil
}

// LocalExecutor runs the configured test command and streams its output.
type LocalExecutor struct {
	Command       string            // full command line, e.g. "pytest test_script.py"
	Dir           string            // working directory, empty for cwd
	OutputHandler func(line string) // called for each output line, can be nil
	runner        Runner            // for testing, nil uses default
}

// SetRunner sets the runner for testing purposes.
func (e *LocalExecutor) SetRunner(r Runner) {
	e.runner = r
}

// Run executes the test command and returns the accumulated output together
// with the tally parsed from the pytest summary line. a non-zero exit does
// not mask the tally: pytest exits 1 whenever any test fails.
func (e *LocalExecutor) Run(ctx context.Context) Result {
	fields := strings.Fields(e.Command)
	if len(fields) == 0 {
		return Result{Error: errors.New("run command not configured")}
	}

	runner := e.runner
	if runner == nil {
		runner = &execRunner{dir: e.Dir}
	}

	stdout, wait, err := runner.Run(ctx, fields[0], fields[1:]...)
	if err != nil {
		return Result{Error: fmt.Errorf("start test command: %w", err)}
	}

	output, tally, streamErr := e.processOutput(ctx, stdout)

	waitErr := wait()

	var finalErr error
	switch {
	case streamErr != nil:
		finalErr = streamErr
	case waitErr != nil:
		if ctx.Err() != nil {
			finalErr = fmt.Errorf("context error: %w", ctx.Err())
		} else if tally == nil {
			// exit error without a summary means the command itself broke
			finalErr = fmt.Errorf("test command exited with error: %w", waitErr)
		}
	}

	return Result{Output: output, Tally: tally, Error: finalErr}
}

// processOutput reads stdout line-by-line, streams to OutputHandler, and
// watches for the pytest summary.
func (e *LocalExecutor) processOutput(ctx context.Context, r io.Reader) (output string, tally *api.RunResult, err error) {
	var outputBuf []byte
	scanner := bufio.NewScanner(r)
	// increase buffer size for large output lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, MaxScannerBuffer)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return string(outputBuf), tally, fmt.Errorf("context done: %w", ctx.Err())
		default:
		}

		line := scanner.Text()
		outputBuf = append(outputBuf, line...)
		outputBuf = append(outputBuf, '\n')

		if e.OutputHandler != nil {
			e.OutputHandler(line)
		}

		// later summary lines win, pytest prints exactly one
		if t := parseTally(line); t != nil {
			tally = t
		}
	}

	if err := scanner.Err(); err != nil {
		return string(outputBuf), tally, fmt.Errorf("read output: %w", err)
	}
	return string(outputBuf), tally, nil
}

// passedRe and failedRe match the counts in a pytest summary line like
// "===== 3 passed, 1 failed in 2.34s =====".
var (
	passedRe  = regexp.MustCompile(`(\d+) passed`)
	failedRe  = regexp.MustCompile(`(\d+) failed`)
	erroredRe = regexp.MustCompile(`(\d+) error`)
	summaryRe = regexp.MustCompile(`\d+ (passed|failed|error)`)
)

// parseTally extracts the pass/fail tally from a pytest summary line.
// returns nil for lines that are not a summary.
func parseTally(line string) *api.RunResult {
	if !summaryRe.MatchString(line) {
		return nil
	}

	tally := &api.RunResult{}
	if m := passedRe.FindStringSubmatch(line); m != nil {
		tally.Passed, _ = strconv.Atoi(m[1])
	}
	if m := failedRe.FindStringSubmatch(line); m != nil {
		tally.Failed, _ = strconv.Atoi(m[1])
	}
	// pytest reports collection and fixture problems as "errors", separate
	// from failures. the tally has no error slot, so they count as failed.
	if m := erroredRe.FindStringSubmatch(line); m != nil {
		errored, _ := strconv.Atoi(m[1])
		tally.Failed += errored
	}
	tally.Total = tally.Passed + tally.Failed
	return tally
}
