package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rafq345/callmanager/pkg/diag"
)

// Theme defines the colors of terminal output.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Success lipgloss.Color
	Warn    lipgloss.Color
	Error   lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Success: lipgloss.Color("#3fb950"),
	Warn:    lipgloss.Color("#d29922"),
	Error:   lipgloss.Color("#f85149"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title   lipgloss.Style
	Label   lipgloss.Style
	Help    lipgloss.Style
	Success lipgloss.Style
	Warn    lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Help:    lipgloss.NewStyle().Foreground(t.Dim),
		Success: lipgloss.NewStyle().Foreground(t.Success),
		Warn:    lipgloss.NewStyle().Foreground(t.Warn),
		Error:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
	}
}

// Level returns the style of a diagnostics level.
func (s Styles) Level(l diag.Level) lipgloss.Style {
	switch l {
	case diag.LevelSuccess:
		return s.Success
	case diag.LevelWarn:
		return s.Warn
	case diag.LevelError:
		return s.Error
	case diag.LevelDebug:
		return s.Help
	default:
		return lipgloss.NewStyle()
	}
}

// State styles a session state name.
func (s Styles) State(name string) string {
	switch name {
	case "connected":
		return s.Success.Render(name)
	case "recovering", "negotiating", "acquiring_media":
		return s.Warn.Render(name)
	case "failed":
		return s.Error.Render(name)
	default:
		return s.Help.Render(name)
	}
}

// Entry renders one diagnostics line: "15:04:05.000 WARN  message".
func (s Styles) Entry(e diag.Entry) string {
	level := fmt.Sprintf("%-7s", strings.ToUpper(string(e.Level)))
	return s.Help.Render(e.Time.Format("15:04:05.000")) + " " + s.Level(e.Level).Render(level) + " " + e.Message
}

// WriteEntries renders entries, one per line.
func (s Styles) WriteEntries(w io.Writer, entries []diag.Entry) {
	for _, e := range entries {
		fmt.Fprintln(w, s.Entry(e))
	}
}

// Print helpers for terminal output

// PrintSuccess prints a success message with checkmark
func PrintSuccess(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, NewStyles(DefaultTheme).Success.Render("✓ "+fmt.Sprintf(format, args...)))
}

// PrintWarning prints a warning message
func PrintWarning(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, NewStyles(DefaultTheme).Warn.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// PrintInfo prints an info message
func PrintInfo(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "ℹ "+format+"\n", args...)
}
