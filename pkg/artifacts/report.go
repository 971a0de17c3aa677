package artifacts

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Report is the exported summary of one container test run.
type Report struct {
	Status     string `yaml:"status"` // "success" or "failure"
	ScriptFile string `yaml:"script_file"`
	ProjectURL string `yaml:"project_url"`
	Passed     int    `yaml:"passed"`
	Failed     int    `yaml:"failed"`
	Total      int    `yaml:"total"`
	ReportURL  string `yaml:"report_url,omitempty"`
	Duration   string `yaml:"duration"`
}

// WriteReport writes the run summary to path as YAML.
func WriteReport(path string, r Report) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write report file: %w", err)
	}
	return nil
}
