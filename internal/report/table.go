package report

import (
	"io"
	"strings"

	"github.com/jderrod/GrantStationTool/internal/filter"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var amountPrinter = message.NewPrinter(language.AmericanEnglish)

// FilterTable prints one row per rule, in the order given.
func FilterTable(w io.Writer, rules []filter.Rule) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Name", "Keywords", "Min Amount", "Max Amount", "Start Date", "End Date"})
	for _, r := range rules {
		t.AppendRow(table.Row{
			r.Name,
			orDash(strings.Join(r.Keywords, ", ")),
			formatAmount(r.MinAmount),
			formatAmount(r.MaxAmount),
			formatDate(r.StartDate),
			formatDate(r.EndDate),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "Total", len(rules)})
	t.Render()
}

func formatAmount(v *float64) string {
	if v == nil {
		return "-"
	}
	return amountPrinter.Sprintf("$%.2f", *v)
}

func formatDate(d *filter.Date) string {
	if d == nil {
		return "-"
	}
	return d.String()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
