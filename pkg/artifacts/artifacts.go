// Package artifacts produces the client-side deliverables: the sample
// spreadsheet, the generated script file, and the clipboard run command.
// none of these require a backend round trip.
package artifacts

import (
	"fmt"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// sampleColumns are the spreadsheet headers of the test-case template. the
// backend requires Scenario, Scenario Description, Steps to Execute, Test
// Data and Expected Result and ignores the rest.
var sampleColumns = []string{
	"Test Case ID",
	"Scenario",
	"Scenario Description",
	"Precondition",
	"Steps to Execute",
	"Test Data",
	"Expected Result",
	"Actual Result",
	"Status",
}

// SampleCSV returns the sample spreadsheet content: the header row only,
// no data rows.
func SampleCSV() string {
	return strings.Join(sampleColumns, ",") + "\n"
}

// WriteSample writes the sample spreadsheet to path.
func WriteSample(path string) error {
	if err := os.WriteFile(path, []byte(SampleCSV()), 0o644); err != nil { //nolint:gosec // template file, meant to be shared
		return fmt.Errorf("write sample file: %w", err)
	}
	return nil
}

// WriteScript writes a generated test script to path, replacing any
// previous version.
func WriteScript(path, script string) error {
	if err := os.WriteFile(path, []byte(script), 0o600); err != nil {
		return fmt.Errorf("write script file: %w", err)
	}
	return nil
}

// CopyRunCommand puts the configured run command on the system clipboard.
func CopyRunCommand(command string) error {
	if err := clipboard.WriteAll(command); err != nil {
		return fmt.Errorf("copy run command: %w", err)
	}
	return nil
}
