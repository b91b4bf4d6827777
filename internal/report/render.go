package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jderrod/GrantStationTool/internal/search"
)

// Render writes the filtered pane, the all-results pane and, when debug is
// on, the debug pane.
func Render(w io.Writer, run *search.Run, debug bool) error {
	st := newStyles(w)
	var b strings.Builder

	title := "Filtered Results"
	if run.RuleName != "" {
		title += " (" + run.RuleName + ")"
	}
	b.WriteString(st.Pane.Render(title) + "\n")
	b.WriteString(st.Summary.Render(Summary(len(run.Filtered()), len(run.All()))) + "\n")
	b.WriteString(FilteredText(run))

	b.WriteString("\n" + st.Pane.Render("All Results") + "\n")
	for _, s := range run.Sections {
		if s.Error != "" {
			b.WriteString(st.Error.Render(fmt.Sprintf("Error extracting data from %s: %s", s.URL, s.Error)) + "\n")
		}
	}
	b.WriteString(AllText(run))

	if debug {
		b.WriteString("\n" + st.Pane.Render("Debug") + "\n")
		for _, line := range run.Trace() {
			b.WriteString(st.Debug.Render("DEBUG: "+line) + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
