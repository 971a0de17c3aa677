package progress

import (
	"github.com/fatih/color"

	"e2ectl/pkg/config"
	"e2ectl/pkg/status"
)

// Colors holds the terminal palette, built from config color names with
// built-in fallbacks for anything unset or unknown.
type Colors struct {
	phases    map[status.Phase]*color.Color
	warn      *color.Color
	err       *color.Color
	info      *color.Color
	timestamp *color.Color
}

// colorNames maps config color names to fatih/color attributes.
var colorNames = map[string]color.Attribute{
	"black":          color.FgBlack,
	"red":            color.FgRed,
	"green":          color.FgGreen,
	"yellow":         color.FgYellow,
	"blue":           color.FgBlue,
	"magenta":        color.FgMagenta,
	"cyan":           color.FgCyan,
	"white":          color.FgWhite,
	"bright_red":     color.FgHiRed,
	"bright_green":   color.FgHiGreen,
	"bright_yellow":  color.FgHiYellow,
	"bright_blue":    color.FgHiBlue,
	"bright_magenta": color.FgHiMagenta,
	"bright_cyan":    color.FgHiCyan,
	"bright_white":   color.FgHiWhite,
}

// NewColors builds the palette from config color names.
func NewColors(cfg config.ColorConfig) *Colors {
	return &Colors{
		phases: map[status.Phase]*color.Color{
			status.PhaseSetup:    parseColor(cfg.Setup, color.FgGreen),
			status.PhaseGenerate: parseColor(cfg.Generate, color.FgCyan),
			status.PhaseRun:      parseColor(cfg.Run, color.FgMagenta),
		},
		warn:      parseColor(cfg.Warn, color.FgYellow),
		err:       parseColor(cfg.Error, color.FgRed),
		info:      parseColor(cfg.Info, color.FgBlue),
		timestamp: parseColor(cfg.Timestamp, color.FgWhite),
	}
}

// Phase returns the color for the given phase, info color for unknown phases.
func (c *Colors) Phase(p status.Phase) *color.Color {
	if col, ok := c.phases[p]; ok {
		return col
	}
	return c.info
}

// Info returns the informational color, used for startup and status lines.
func (c *Colors) Info() *color.Color { return c.info }

// parseColor resolves a color name, falling back when empty or unknown.
func parseColor(name string, fallback color.Attribute) *color.Color {
	if attr, ok := colorNames[name]; ok {
		return color.New(attr)
	}
	return color.New(fallback)
}
