package ingest

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"github.com/jderrod/GrantStationTool/internal/models"
	"github.com/microcosm-cc/bluemonday"
)

// TitleNotFound is used when none of the title selectors produced text.
const TitleNotFound = "Title Not Found"

var descriptionPolicy = bluemonday.UGCPolicy()

// HTMLToText converts HTML to plain text, collapsing whitespace.
// Block elements are separated so adjacent paragraphs do not run together.
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html // Fallback to original if parsing fails
	}
	doc.Find("p, li, br, div, tr, h1, h2, h3, h4, h5, h6").AfterHtml("\n")
	text := doc.Text()
	return cleanText(text)
}

// sanitizeHTML strips scripts, iframes and unsafe attributes before text conversion.
func sanitizeHTML(s string) string {
	return descriptionPolicy.Sanitize(s)
}

// FromRaw converts a RawOpportunity into a canonical Opportunity.
func FromRaw(raw RawOpportunity) models.Opportunity {
	opp := models.Opportunity{
		ID:                    uuid.New(),
		Title:                 cleanText(raw.Title),
		Description:           orNotAvailable(HTMLToText(sanitizeHTML(raw.DescriptionHTML))),
		Agency:                orNotAvailable(raw.Agency),
		OpportunityNumber:     orNotAvailable(raw.OpportunityNumber),
		PostDate:              orNotAvailable(cleanDateString(raw.PostDate)),
		CloseDate:             orNotAvailable(cleanDateString(raw.CloseDate)),
		EligibleApplicants:    cleanList(raw.EligibleApplicants),
		AdditionalEligibility: orNotAvailable(raw.AdditionalEligibility),
		CFDANumbers:           cleanList(raw.CFDANumbers),
		AdditionalInfoURL:     strings.TrimSpace(raw.AdditionalInfoURL),
		GrantsGovURL:          strings.TrimSpace(raw.GrantsGovURL),
		DetailURL:             raw.DetailURL,
		SearchURL:             raw.SearchURL,
	}

	if opp.Title == "" {
		opp.Title = TitleNotFound
	}

	return opp
}
