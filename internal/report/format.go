package report

import (
	"fmt"
	"strings"

	"github.com/jderrod/GrantStationTool/internal/models"
	"github.com/jderrod/GrantStationTool/internal/search"
	"github.com/jedib0t/go-pretty/v6/text"
)

// LineWidth is the width of the block separators and the description wrap.
const LineWidth = 80

const noEligibility = "No eligibility information available."

// FormatOpportunity renders one record as a plain-text block.
func FormatOpportunity(opp models.Opportunity) string {
	var b strings.Builder

	b.WriteString("\n" + strings.Repeat("=", LineWidth) + "\n")
	fmt.Fprintf(&b, "Opportunity Title: %s\n", orNA(opp.Title))
	b.WriteString(strings.Repeat("-", 40) + "\n\n")

	heading(&b, "OVERVIEW", 8)
	fmt.Fprintf(&b, "Agency: %s\n", orNA(opp.Agency))
	fmt.Fprintf(&b, "Opportunity Number: %s\n", orNA(opp.OpportunityNumber))
	fmt.Fprintf(&b, "Post Date: %s\n", orNA(opp.PostDate))
	fmt.Fprintf(&b, "Close Date: %s\n\n", orNA(opp.CloseDate))

	heading(&b, "DESCRIPTION", 11)
	b.WriteString(wrap(orNA(opp.Description), LineWidth) + "\n\n")

	heading(&b, "ELIGIBLE APPLICANTS", 18)
	if len(opp.EligibleApplicants) == 0 {
		b.WriteString(noEligibility + "\n")
	}
	for _, applicant := range opp.EligibleApplicants {
		b.WriteString("• " + applicant + "\n")
	}
	b.WriteString("\n")

	heading(&b, "ADDITIONAL INFORMATION", 21)
	if len(opp.CFDANumbers) > 0 {
		fmt.Fprintf(&b, "CFDA Numbers: %s\n", strings.Join(opp.CFDANumbers, ", "))
	}
	if opp.GrantsGovURL != "" {
		fmt.Fprintf(&b, "Grants.gov URL: %s\n", opp.GrantsGovURL)
	}
	if opp.AdditionalInfoURL != "" {
		fmt.Fprintf(&b, "Additional Information: %s\n", opp.AdditionalInfoURL)
	}

	b.WriteString("\n" + strings.Repeat("=", LineWidth) + "\n")
	return b.String()
}

func heading(b *strings.Builder, title string, rule int) {
	b.WriteString(title + "\n" + strings.Repeat("-", rule) + "\n")
}

// wrap soft-wraps s at width, collapsing whitespace and dropping the padding
// go-pretty adds to short lines.
func wrap(s string, width int) string {
	wrapped := text.WrapSoft(strings.Join(strings.Fields(s), " "), width)
	lines := strings.Split(wrapped, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " ")
	}
	return strings.Join(lines, "\n")
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return models.NotAvailable
	}
	return s
}

// AllText renders every scraped record, one header per search URL.
func AllText(run *search.Run) string {
	var b strings.Builder
	for _, s := range run.Sections {
		fmt.Fprintf(&b, "\nSearch Results from %s:\n\n", s.URL)
		for _, opp := range s.All {
			b.WriteString(FormatOpportunity(opp))
		}
	}
	return b.String()
}

// FilteredText renders the records that matched the run's rule. Sections with
// no matches get no header. Without a rule it is the same as AllText.
func FilteredText(run *search.Run) string {
	if run.RuleName == "" {
		return AllText(run)
	}

	var b strings.Builder
	for _, s := range run.Sections {
		if len(s.Filtered) == 0 {
			continue
		}
		fmt.Fprintf(&b, "\nFiltered Results matching '%s':\n\n", run.RuleName)
		for _, opp := range s.Filtered {
			b.WriteString(FormatOpportunity(opp))
		}
	}
	return b.String()
}

func Summary(filtered, total int) string {
	return fmt.Sprintf("Found %d matching opportunities out of %d total opportunities", filtered, total)
}

// DebugText prefixes every trace line for the debug pane.
func DebugText(trace []string) string {
	var b strings.Builder
	for _, line := range trace {
		b.WriteString("DEBUG: " + line + "\n")
	}
	return b.String()
}
