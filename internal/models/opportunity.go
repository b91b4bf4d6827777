package models

import (
	"strings"

	"github.com/google/uuid"
)

// NotAvailable marks a text field whose selector matched nothing on the detail page.
const NotAvailable = "N/A"

// Opportunity is one grant listing scraped from a portal detail page.
// Every field is optional; text fields that could not be extracted hold NotAvailable.
type Opportunity struct {
	ID                    uuid.UUID `json:"id"`
	Title                 string    `json:"title"`
	Description           string    `json:"description"`
	Agency                string    `json:"agency"`
	OpportunityNumber     string    `json:"opportunity_number"`
	PostDate              string    `json:"post_date"`  // Free text, e.g. "03/15/2024"
	CloseDate             string    `json:"close_date"` // Free text
	EligibleApplicants    []string  `json:"eligible_applicants"`
	AdditionalEligibility string    `json:"additional_eligibility"`
	CFDANumbers           []string  `json:"cfda_numbers"`
	AdditionalInfoURL     string    `json:"additional_info_url,omitempty"`
	GrantsGovURL          string    `json:"grants_gov_url,omitempty"`
	DetailURL             string    `json:"detail_url,omitempty"`
	SearchURL             string    `json:"search_url,omitempty"`
}

// SearchText joins title and description, the text keyword and amount checks look at.
func (o Opportunity) SearchText() string {
	return o.Title + " " + o.Description
}

// DisplayTitle returns the title, or "Unknown" when the record has none.
func (o Opportunity) DisplayTitle() string {
	if strings.TrimSpace(o.Title) == "" {
		return "Unknown"
	}
	return o.Title
}

// Has reports whether a free-text field carries a real value.
func Has(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != NotAvailable
}
