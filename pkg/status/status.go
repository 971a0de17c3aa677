// Package status defines the shared workflow phases used by the progress
// logger and the web dashboard for color coding and badges.
package status

// Phase represents the active workflow for color coding.
type Phase string

// Phase constants for the three backend workflows.
const (
	PhaseSetup    Phase = "setup"    // project scaffolding (green)
	PhaseGenerate Phase = "generate" // script generation (cyan)
	PhaseRun      Phase = "run"      // container test run (magenta)
)
