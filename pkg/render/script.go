// Package render pretty-prints generated test scripts for terminal display.
package render

import (
	"fmt"

	"github.com/charmbracelet/glamour"
)

// Script renders a generated test script as a syntax-highlighted python code
// block. If noColor is true, returns the script unchanged. Generation failure
// text held in place of a script renders the same way, as plain text.
func Script(script string, noColor bool) (string, error) {
	if noColor {
		return script, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0), // never re-wrap code lines
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	result, err := renderer.Render("```python\n" + script + "\n```")
	if err != nil {
		return "", fmt.Errorf("render script: %w", err)
	}

	return result, nil
}
