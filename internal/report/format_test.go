package report

import (
	"strings"
	"testing"

	"github.com/jderrod/GrantStationTool/internal/models"
	"github.com/jderrod/GrantStationTool/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ruralHealth = models.Opportunity{
	Title:              "Rural Health Outreach",
	Description:        "Supports clinics.",
	Agency:             "HRSA",
	OpportunityNumber:  "HRSA-24-001",
	PostDate:           "03/01/2024",
	CloseDate:          "06/30/2024",
	EligibleApplicants: []string{"Nonprofits", "Tribal governments"},
	CFDANumbers:        []string{"93.912", "93.913"},
	GrantsGovURL:       "https://www.grants.gov/search-results-detail/350001",
}

func TestFormatOpportunity(t *testing.T) {
	rule := strings.Repeat("=", 80)
	want := "\n" + rule + "\n" +
		"Opportunity Title: Rural Health Outreach\n" +
		strings.Repeat("-", 40) + "\n\n" +
		"OVERVIEW\n--------\n" +
		"Agency: HRSA\n" +
		"Opportunity Number: HRSA-24-001\n" +
		"Post Date: 03/01/2024\n" +
		"Close Date: 06/30/2024\n\n" +
		"DESCRIPTION\n-----------\n" +
		"Supports clinics.\n\n" +
		"ELIGIBLE APPLICANTS\n" + strings.Repeat("-", 18) + "\n" +
		"• Nonprofits\n" +
		"• Tribal governments\n\n" +
		"ADDITIONAL INFORMATION\n" + strings.Repeat("-", 21) + "\n" +
		"CFDA Numbers: 93.912, 93.913\n" +
		"Grants.gov URL: https://www.grants.gov/search-results-detail/350001\n" +
		"\n" + rule + "\n"

	assert.Equal(t, want, FormatOpportunity(ruralHealth))
}

func TestFormatOpportunity_Sparse(t *testing.T) {
	out := FormatOpportunity(models.Opportunity{Title: "Bare"})

	assert.Contains(t, out, "Agency: N/A\n")
	assert.Contains(t, out, "DESCRIPTION\n-----------\nN/A\n")
	assert.Contains(t, out, noEligibility)
	assert.NotContains(t, out, "CFDA Numbers")
	assert.NotContains(t, out, "Grants.gov URL")
	assert.NotContains(t, out, "Additional Information:")
}

func TestFormatOpportunity_WrapsDescription(t *testing.T) {
	words := strings.Repeat("community health workers serve rural counties ", 12)
	out := FormatOpportunity(models.Opportunity{Title: "Long", Description: words})

	const anchor = "DESCRIPTION\n-----------\n"
	start := strings.Index(out, anchor) + len(anchor)
	end := strings.Index(out, "\n\nELIGIBLE APPLICANTS")
	require.Greater(t, start, len(anchor)-1)
	require.Greater(t, end, start)
	block := out[start:end]

	lines := strings.Split(block, "\n")
	assert.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 80)
		assert.Equal(t, strings.TrimRight(line, " "), line, "no trailing padding")
	}
	assert.Equal(t, strings.Fields(words), strings.Fields(block))
}

func testRun() *search.Run {
	return &search.Run{
		RuleName: "Health",
		Sections: []search.Section{
			{
				URL:      "https://grantstation.com/search/us-federal?keyword=health&opp_number=&cfda=",
				All:      []models.Opportunity{ruralHealth, {Title: "Arts Fellowship"}},
				Filtered: []models.Opportunity{ruralHealth},
			},
			{
				URL: "https://grantstation.com/search/us-federal?keyword=arts&opp_number=&cfda=",
				All: []models.Opportunity{{Title: "Museum Grants"}},
			},
		},
		ScrapeTrace: []string{"Extracting from URL: x"},
		FilterTrace: []string{"Arts Fellowship failed keyword match"},
	}
}

func TestAllText(t *testing.T) {
	run := testRun()
	out := AllText(run)

	assert.Equal(t, 3, strings.Count(out, "Opportunity Title:"))
	assert.True(t, strings.HasPrefix(out, "\nSearch Results from "+run.Sections[0].URL+":\n\n"))
	assert.Contains(t, out, "\nSearch Results from "+run.Sections[1].URL+":\n\n")
}

func TestFilteredText(t *testing.T) {
	out := FilteredText(testRun())

	assert.Equal(t, 1, strings.Count(out, "Filtered Results matching 'Health':"), "sections without matches get no header")
	assert.Equal(t, 1, strings.Count(out, "Opportunity Title:"))
	assert.Contains(t, out, "Opportunity Title: Rural Health Outreach")
}

func TestFilteredText_NoRule(t *testing.T) {
	run := testRun()
	run.RuleName = ""
	assert.Equal(t, AllText(run), FilteredText(run))
}

func TestSummaryAndDebugText(t *testing.T) {
	assert.Equal(t, "Found 1 matching opportunities out of 3 total opportunities", Summary(1, 3))
	assert.Equal(t, "DEBUG: a\nDEBUG: b\n", DebugText([]string{"a", "b"}))
	assert.Empty(t, DebugText(nil))
}
