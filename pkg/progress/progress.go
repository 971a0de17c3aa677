// Package progress provides timestamped logging to file and stdout with color support.
package progress

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/term"

	"e2ectl/pkg/status"
)

// Logger writes timestamped output to both a log file and stdout.
type Logger struct {
	file      *os.File
	stdout    io.Writer
	colors    *Colors
	startTime time.Time
	phase     status.Phase
}

// Config holds logger configuration.
type Config struct {
	Command string // workflow name (used to derive the log filename)
	BaseURL string // backend base URL, recorded in the header
	NoColor bool   // disable color output (sets color.NoColor globally)
}

// NewLogger creates a logger writing to both a log file and stdout.
func NewLogger(cfg Config, colors *Colors) (*Logger, error) {
	// set global color setting
	if cfg.NoColor {
		color.NoColor = true
	}

	f, err := os.Create(logFilename(cfg.Command))
	if err != nil {
		return nil, fmt.Errorf("create log file: %w", err)
	}

	l := &Logger{
		file:      f,
		stdout:    os.Stdout,
		colors:    colors,
		startTime: time.Now(),
		phase:     status.PhaseSetup,
	}

	l.writeFile("# e2ectl log\n")
	l.writeFile("Command: %s\n", cfg.Command)
	l.writeFile("Backend: %s\n", cfg.BaseURL)
	l.writeFile("Started: %s\n", time.Now().Format("2006-01-02 15:04:05"))
	l.writeFile("%s\n\n", strings.Repeat("-", 60))

	return l, nil
}

// Path returns the log file path.
func (l *Logger) Path() string {
	if l.file == nil {
		return ""
	}
	return l.file.Name()
}

// SetPhase sets the current workflow phase for color coding.
func (l *Logger) SetPhase(phase status.Phase) {
	l.phase = phase
}

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a timestamped message to both file and stdout.
func (l *Logger) Print(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	// write to file without color
	l.writeFile("[%s] %s\n", timestamp, msg)

	// write to stdout with color
	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	msgStr := l.colors.Phase(l.phase).Sprint(msg)
	l.writeStdout("%s %s\n", tsStr, msgStr)
}

// PrintRaw writes without timestamp (for streaming output).
func (l *Logger) PrintRaw(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.writeFile("%s", msg)
	l.writeStdout("%s", msg)
}

// PrintAligned writes text with a timestamp on the first line and indented
// continuation lines, wrapping long lines to the terminal width.
func (l *Logger) PrintAligned(text string) {
	text = strings.TrimRight(text, "\n")
	if text == "" {
		return
	}

	timestamp := time.Now().Format(timestampFormat)
	phaseColor := l.colors.Phase(l.phase)
	tsPrefix := l.colors.timestamp.Sprintf("[%s]", timestamp)
	indent := "                    " // 20 chars to align with "[YY-MM-DD HH:MM:SS] "

	width := getTerminalWidth()

	var lines []string
	for line := range strings.SplitSeq(text, "\n") {
		if len(line) > width {
			for wrappedLine := range strings.SplitSeq(wrapText(line, width), "\n") {
				lines = append(lines, wrappedLine)
			}
		} else {
			lines = append(lines, line)
		}
	}

	for i, line := range lines {
		if line == "" {
			// preserve empty lines within content
			l.writeFile("\n")
			l.writeStdout("\n")
			continue
		}

		if i == 0 {
			l.writeFile("[%s] %s\n", timestamp, line)
			l.writeStdout("%s %s\n", tsPrefix, phaseColor.Sprint(line))
		} else {
			l.writeFile("%s%s\n", indent, line)
			l.writeStdout("%s%s\n", indent, phaseColor.Sprint(line))
		}
	}
}

// Error writes an error message in the error color.
func (l *Logger) Error(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] ERROR: %s\n", timestamp, msg)

	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	errStr := l.colors.err.Sprintf("ERROR: %s", msg)
	l.writeStdout("%s %s\n", tsStr, errStr)
}

// Warn writes a warning message in the warning color.
func (l *Logger) Warn(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	timestamp := time.Now().Format(timestampFormat)

	l.writeFile("[%s] WARN: %s\n", timestamp, msg)

	tsStr := l.colors.timestamp.Sprintf("[%s]", timestamp)
	warnStr := l.colors.warn.Sprintf("WARN: %s", msg)
	l.writeStdout("%s %s\n", tsStr, warnStr)
}

// Elapsed returns formatted elapsed time since start.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Close writes the footer and closes the log file.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}

	l.writeFile("\n%s\n", strings.Repeat("-", 60))
	l.writeFile("Completed: %s (%s)\n", time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())

	if err := l.file.Close(); err != nil {
		return fmt.Errorf("close log file: %w", err)
	}
	return nil
}

func (l *Logger) writeFile(format string, args ...any) {
	if l.file != nil {
		fmt.Fprintf(l.file, format, args...)
	}
}

func (l *Logger) writeStdout(format string, args ...any) {
	fmt.Fprintf(l.stdout, format, args...)
}

// logFilename returns the log file path for the given workflow.
func logFilename(command string) string {
	if command == "" {
		return "e2ectl.log"
	}
	return fmt.Sprintf("e2ectl-%s.log", command)
}

// getTerminalWidth returns the content width (terminal minus timestamp
// prefix), using the COLUMNS env var or a syscall, defaulting to 80 columns.
func getTerminalWidth() int {
	const minWidth = 40

	if cols := os.Getenv("COLUMNS"); cols != "" {
		if w, err := strconv.Atoi(cols); err == nil && w > 0 {
			if contentWidth := w - 20; contentWidth >= minWidth {
				return contentWidth
			}
			return minWidth
		}
	}

	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		if contentWidth := w - 20; contentWidth >= minWidth {
			return contentWidth
		}
		return minWidth
	}

	return 80 - 20
}

// wrapText wraps text to the specified width, breaking on word boundaries.
func wrapText(text string, width int) string {
	if width <= 0 || len(text) <= width {
		return text
	}

	var result strings.Builder
	words := strings.Fields(text)
	lineLen := 0

	for i, word := range words {
		wordLen := len(word)

		if i == 0 {
			result.WriteString(word)
			lineLen = wordLen
			continue
		}

		if lineLen+1+wordLen <= width {
			result.WriteString(" ")
			result.WriteString(word)
			lineLen += 1 + wordLen
		} else {
			result.WriteString("\n")
			result.WriteString(word)
			lineLen = wordLen
		}
	}

	return result.String()
}
