// Package output renders captured telemetry for the CLI: styled text,
// NDJSON for agents, and summary tables.
package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/dkovacevic/adscope/internal/domain"
)

// Styles holds all lipgloss styles for text output
var Styles = struct {
	// Load state styles
	NotLoad lipgloss.Style
	Loading lipgloss.Style
	Success lipgloss.Style
	Failed  lipgloss.Style

	// Component styles
	Timestamp lipgloss.Style
	Unit      lipgloss.Style
	Network   lipgloss.Style
	Message   lipgloss.Style
	Revenue   lipgloss.Style

	// Summary styles
	Header  lipgloss.Style
	Label   lipgloss.Style
	Value   lipgloss.Style
	Warning lipgloss.Style
	Danger  lipgloss.Style
}{
	// Load states - distinctive colors
	NotLoad: lipgloss.NewStyle().Foreground(lipgloss.Color("243")),             // Gray
	Loading: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),             // Orange
	Success: lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),   // Green bold
	Failed:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),  // Red bold

	// Components
	Timestamp: lipgloss.NewStyle().Foreground(lipgloss.Color("244")), // Gray
	Unit:      lipgloss.NewStyle().Foreground(lipgloss.Color("33")),  // Blue
	Network:   lipgloss.NewStyle().Foreground(lipgloss.Color("142")), // Yellow-green
	Message:   lipgloss.NewStyle(),
	Revenue:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")), // Green

	// Summary
	Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(lipgloss.Color("239")),
	Label:   lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	Value:   lipgloss.NewStyle().Bold(true),
	Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true), // Orange
	Danger:  lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true), // Red
}

// LoadStateStyle returns the appropriate style for a load state
func LoadStateStyle(state domain.LoadState) lipgloss.Style {
	switch state {
	case domain.LoadStateLoading:
		return Styles.Loading
	case domain.LoadStateSuccess:
		return Styles.Success
	case domain.LoadStateFailed:
		return Styles.Failed
	default:
		return Styles.NotLoad
	}
}

// LoadStateIndicator returns a styled short load state marker
func LoadStateIndicator(state domain.LoadState) string {
	style := LoadStateStyle(state)
	switch state {
	case domain.LoadStateLoading:
		return style.Render("LOAD")
	case domain.LoadStateSuccess:
		return style.Render("OK")
	case domain.LoadStateFailed:
		return style.Render("FAIL")
	default:
		return style.Render("-")
	}
}

// ActionStyle returns a style for a lifecycle action
func ActionStyle(action domain.AdAction) lipgloss.Style {
	switch action {
	case domain.ActionLoadFail, domain.ActionShowFail:
		return Styles.Failed
	case domain.ActionLoadSuccess, domain.ActionShowSuccess:
		return Styles.Success
	case domain.ActionImpression:
		return Styles.Revenue
	default:
		return Styles.Message
	}
}

// IsTerminal reports whether f is an interactive terminal. Styled output
// is only used when it is; pipes get plain text.
func IsTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
