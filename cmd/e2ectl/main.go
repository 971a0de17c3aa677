// Package main provides e2ectl - a client for the playwright test-generation
// backend: project setup, spreadsheet-to-script generation and containerized
// test runs, with an optional local web dashboard.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jessevdk/go-flags"

	"e2ectl/pkg/api"
	"e2ectl/pkg/config"
	"e2ectl/pkg/input"
	"e2ectl/pkg/notify"
	"e2ectl/pkg/progress"
	"e2ectl/pkg/web"
	"e2ectl/pkg/workflow"
)

// opts holds all command-line options.
type opts struct {
	URL     string `short:"u" long:"url" description:"backend base URL (overrides config)"`
	Project string `long:"project" description:"target site URL for generation and runs"`
	Cases   string `short:"f" long:"cases" description:"test-case spreadsheet (.csv, .xlsx or .xls)"`
	Watch   bool   `short:"w" long:"watch" description:"regenerate when the spreadsheet changes"`
	Local   bool   `short:"l" long:"local" description:"run tests on this machine instead of the backend container"`
	Report  string `long:"report" description:"write run summary YAML to this file"`
	Debug   bool   `short:"d" long:"debug" description:"print resolved configuration"`
	NoColor bool   `long:"no-color" description:"disable color output"`
	NoCopy  bool   `long:"no-copy" description:"skip clipboard copy of the run command"`
	Serve   bool   `short:"s" long:"serve" description:"start web dashboard for real-time streaming"`
	Port    int    `short:"p" long:"port" default:"8080" description:"web dashboard port"`
	Version bool   `short:"v" long:"version" description:"print version and exit"`
}

var revision = "unknown"

func main() {
	fmt.Printf("e2ectl %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	parser.Usage = "[OPTIONS] command [args]\n\nCommands:\n  setup [path]  scaffold a playwright project\n  generate      generate a test script from the spreadsheet\n  run           run the current script in a container\n  sample        write the sample test-case spreadsheet"

	args, err := parser.Parse()
	if err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		os.Exit(0)
	}

	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "error: command required (setup, generate, run or sample)")
		os.Exit(1)
	}

	// setup context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, o, args[0], args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts, command string, args []string) error {
	cfg, err := config.Load("") // empty string uses default location
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// create colors from config (all colors guaranteed populated via fallback)
	colors := progress.NewColors(cfg.Colors)

	// generation needs a spreadsheet; without --cases offer the ones in cwd
	if command == "generate" && o.Cases == "" {
		picked, pickErr := input.PickCasesFile(ctx, input.NewTerminalCollector(), ".")
		if pickErr != nil {
			return pickErr
		}
		o.Cases = picked
	}

	wcfg := mergeConfig(o, cfg, args, command)

	if o.Debug {
		colors.Info().Printf("config: script=%s sample=%s run_cmd=%q\n", wcfg.workflow.ScriptFile, wcfg.workflow.SampleFile, wcfg.workflow.RunCommand)
		colors.Info().Printf("capabilities: run=%v sample=%v watch=%v\n", cfg.Capabilities.Run, cfg.Capabilities.Sample, cfg.Capabilities.Watch)
	}

	if gateErr := checkCapability(command, o, cfg.Capabilities); gateErr != nil {
		return gateErr
	}

	// create progress logger
	baseLog, err := progress.NewLogger(progress.Config{
		Command: command,
		BaseURL: wcfg.baseURL,
		NoColor: o.NoColor,
	}, colors)
	if err != nil {
		return fmt.Errorf("create progress logger: %w", err)
	}
	defer baseLog.Close()

	client := api.New(wcfg.baseURL, http.DefaultClient)
	var wfLog workflow.Logger = baseLog

	// wrap logger with broadcast logger if --serve is enabled
	var srv *web.Server
	if o.Serve {
		hub := web.NewHub()
		buffer := web.NewBuffer(0) // default capacity covers a full workflow transcript

		wfLog = web.NewBroadcastLogger(baseLog, hub, buffer)

		srv = web.NewServer(web.ServerConfig{
			Port:       o.Port,
			ProjectURL: wcfg.workflow.ProjectURL,
			CasesFile:  wcfg.workflow.CasesFile,
		}, hub, buffer)

		go func() {
			if srvErr := srv.Start(ctx); srvErr != nil {
				fmt.Fprintf(os.Stderr, "web server error: %v\n", srvErr)
			}
		}()

		colors.Info().Printf("web dashboard: http://localhost:%d\n", o.Port)
	}

	w := workflow.New(wcfg.workflow, client, wfLog)

	// notifications fire after container runs only
	if command == "run" {
		notifier, notifyErr := notify.New(cfg.Notify, baseLog)
		if notifyErr != nil {
			return fmt.Errorf("setup notifications: %w", notifyErr)
		}
		w.SetNotifier(notifier)
	}

	if srv != nil {
		w.OnResult(func(r api.RunResult) {
			srv.SetResult(r)
			if bl, ok := wfLog.(*web.BroadcastLogger); ok {
				bl.Result(r)
			}
		})
	}

	colors.Info().Printf("backend: %s\n", wcfg.baseURL)
	colors.Info().Printf("progress log: %s\n\n", baseLog.Path())

	if err := dispatch(ctx, w, command, o); err != nil {
		if bl, ok := wfLog.(*web.BroadcastLogger); ok {
			bl.Signal("FAILED")
		}
		return err
	}

	if bl, ok := wfLog.(*web.BroadcastLogger); ok {
		bl.Signal("COMPLETED")
	}
	colors.Info().Printf("\ncompleted in %s\n", baseLog.Elapsed())

	// keep the dashboard up after the workflow finishes so results stay
	// inspectable in the browser, until interrupted
	if srv != nil {
		colors.Info().Printf("dashboard still running on http://localhost:%d, ctrl+c to exit\n", o.Port)
		<-ctx.Done()
	}
	return nil
}

// dispatch routes the command to its workflow operation.
func dispatch(ctx context.Context, w *workflow.Workflow, command string, o opts) error {
	switch command {
	case "setup":
		return w.Setup(ctx)
	case "generate":
		if o.Watch {
			return w.Watch(ctx)
		}
		_, err := w.Generate(ctx)
		return err
	case "run":
		if o.Local {
			return w.RunLocal(ctx)
		}
		return w.Run(ctx)
	case "sample":
		return w.Sample()
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

// mergedConfig pairs the workflow config with the resolved backend URL.
type mergedConfig struct {
	baseURL  string
	workflow workflow.Config
}

// mergeConfig overlays CLI flags on the loaded configuration.
// flags win over config values, config fills in everything unset.
func mergeConfig(o opts, cfg *config.Config, args []string, command string) mergedConfig {
	baseURL := cfg.BaseURL
	if o.URL != "" {
		baseURL = o.URL
	}

	projectPath := "."
	if command == "setup" && len(args) > 0 {
		projectPath = args[0]
	}

	return mergedConfig{
		baseURL: baseURL,
		workflow: workflow.Config{
			ProjectPath: projectPath,
			ProjectURL:  o.Project,
			CasesFile:   o.Cases,
			ScriptFile:  cfg.ScriptFile,
			SampleFile:  cfg.SampleFile,
			RunCommand:  cfg.RunCommand,
			ReportFile:  o.Report,
			NoColor:     o.NoColor,
			NoClipboard: o.NoCopy,
		},
	}
}

// checkCapability rejects commands disabled in the configuration.
func checkCapability(command string, o opts, caps config.Capabilities) error {
	switch command {
	case "run":
		if !caps.Run {
			return errors.New("container runs are disabled (enable_run = false)")
		}
	case "sample":
		if !caps.Sample {
			return errors.New("sample download is disabled (enable_sample = false)")
		}
	case "generate":
		if o.Watch && !caps.Watch {
			return errors.New("watch mode is disabled (enable_watch = false)")
		}
	}
	return nil
}
