package workflow

import (
	"context"
	"fmt"
	"os"
	"time"

	"e2ectl/pkg/api"
	"e2ectl/pkg/artifacts"
	"e2ectl/pkg/executor"
	"e2ectl/pkg/notify"
	"e2ectl/pkg/session"
	"e2ectl/pkg/status"
)

// Run sends the current script for a containerized test run and streams the
// chunked output. the run log is displayed line by line; the final result
// replaces any previous run's result.
func (w *Workflow) Run(ctx context.Context) error {
	w.log.SetPhase(status.PhaseRun)

	script, err := w.currentScript()
	if err != nil {
		return err
	}

	sess := session.NewRun()
	if err := sess.Begin(); err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	w.log.Print("running tests against %s", w.cfg.ProjectURL)
	start := time.Now()

	streamErr := w.client.RunTests(ctx, api.RunRequest{TestScript: script, ProjectURL: w.cfg.ProjectURL}, func(ev api.RunEvent) {
		sess.Apply(ev)
		switch ev.Type {
		case api.EventResult:
			if ev.Result != nil && w.onResult != nil {
				w.onResult(*ev.Result)
			}
		default:
			w.log.PrintAligned(ev.Message)
		}
	})

	duration := time.Since(start).Round(time.Second).String()

	if streamErr != nil {
		sess.Fail()
		w.finishRun(ctx, sess, duration, streamErr)
		return fmt.Errorf("run: %w", streamErr)
	}

	sess.Complete()
	w.finishRun(ctx, sess, duration, nil)
	return nil
}

// RunLocal executes the configured run command on this machine instead of
// the backend container. the command references the script file, so a script
// generated in this session is flushed to disk first.
func (w *Workflow) RunLocal(ctx context.Context) error {
	w.log.SetPhase(status.PhaseRun)

	script, err := w.currentScript()
	if err != nil {
		return err
	}
	if _, statErr := os.Stat(w.cfg.ScriptFile); statErr != nil {
		if writeErr := artifacts.WriteScript(w.cfg.ScriptFile, script); writeErr != nil {
			return fmt.Errorf("write script file: %w", writeErr)
		}
	}

	sess := session.NewRun()
	if err := sess.Begin(); err != nil {
		return fmt.Errorf("begin run: %w", err)
	}

	w.log.Print("running tests locally: %s", w.cfg.RunCommand)
	start := time.Now()

	exe := &executor.LocalExecutor{
		Command:       w.cfg.RunCommand,
		OutputHandler: func(line string) { w.log.PrintAligned(line) },
	}
	if w.localRunner != nil {
		exe.SetRunner(w.localRunner)
	}
	res := exe.Run(ctx)
	duration := time.Since(start).Round(time.Second).String()

	if res.Tally != nil {
		sess.Apply(api.RunEvent{Type: api.EventResult, Result: res.Tally})
		if w.onResult != nil {
			w.onResult(*res.Tally)
		}
	}

	if res.Error != nil {
		sess.Fail()
		w.finishRun(ctx, sess, duration, res.Error)
		return fmt.Errorf("local run: %w", res.Error)
	}

	sess.Complete()
	w.finishRun(ctx, sess, duration, nil)
	return nil
}

// currentScript returns the script from this session's generation, falling
// back to the script file on disk.
func (w *Workflow) currentScript() (string, error) {
	if script, ok := w.scripts.Get(); ok {
		return script, nil
	}

	data, err := os.ReadFile(w.cfg.ScriptFile) //nolint:gosec // path comes from config
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoScript
		}
		return "", fmt.Errorf("read script file: %w", err)
	}
	if len(data) == 0 {
		return "", ErrNoScript
	}
	return string(data), nil
}

// finishRun reports the outcome: result summary to the log, YAML report to
// disk and a notification through configured channels. best-effort, only the
// stream error itself fails the run.
func (w *Workflow) finishRun(ctx context.Context, sess *session.Run, duration string, runErr error) {
	result, hasResult := sess.Result()

	nres := notify.Result{
		Status:     "success",
		ProjectURL: w.cfg.ProjectURL,
		ScriptFile: w.cfg.ScriptFile,
		Duration:   duration,
		Passed:     result.Passed,
		Failed:     result.Failed,
		Total:      result.Total,
		ReportURL:  result.ReportURL,
	}
	if runErr != nil {
		nres.Status = "failure"
		nres.Error = runErr.Error()
	}

	if hasResult {
		w.log.Print("run finished in %s: %d passed, %d failed of %d", duration, result.Passed, result.Failed, result.Total)
		if result.ReportURL != "" {
			w.log.Print("report: %s", result.ReportURL)
		}
	} else if runErr == nil {
		w.log.Warn("run stream ended without a result frame")
	}

	if w.cfg.ReportFile != "" {
		report := artifacts.Report{
			Status:     nres.Status,
			ScriptFile: w.cfg.ScriptFile,
			ProjectURL: w.cfg.ProjectURL,
			Passed:     result.Passed,
			Failed:     result.Failed,
			Total:      result.Total,
			ReportURL:  result.ReportURL,
			Duration:   duration,
		}
		if err := artifacts.WriteReport(w.cfg.ReportFile, report); err != nil {
			w.log.Warn("write run report: %v", err)
		} else {
			w.log.Print("run report written to %s", w.cfg.ReportFile)
		}
	}

	w.notifier.Send(ctx, nres)
}
