package report

import (
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	primaryColor = lipgloss.Color("#0969DA")
	accentColor  = lipgloss.Color("#2DA44E")
	errorColor   = lipgloss.Color("#CF222E")
	dimColor     = lipgloss.Color("#6E7681")
)

// styles are bound to the writer they render for, so output that is not a
// terminal gets plain text.
type styles struct {
	Pane    lipgloss.Style
	Summary lipgloss.Style
	Error   lipgloss.Style
	Debug   lipgloss.Style
}

func newStyles(w io.Writer) styles {
	r := lipgloss.NewRenderer(w)
	return styles{
		Pane: r.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Underline(true),
		Summary: r.NewStyle().
			Foreground(accentColor).
			Bold(true),
		Error: r.NewStyle().
			Foreground(errorColor).
			Bold(true),
		Debug: r.NewStyle().
			Foreground(dimColor),
	}
}
