package ingest

import (
	"context"

	"github.com/jderrod/GrantStationTool/internal/models"
)

// RawOpportunity represents the untrusted, unnormalized data extracted from a detail page.
type RawOpportunity struct {
	Title                 string
	DescriptionHTML       string
	Agency                string
	OpportunityNumber     string
	PostDate              string
	CloseDate             string
	EligibleApplicants    []string
	AdditionalEligibility string
	CFDANumbers           []string
	AdditionalInfoURL     string
	GrantsGovURL          string
	DetailURL             string
	SearchURL             string
}

// Source produces opportunity records for one search results URL.
type Source interface {
	Scrape(ctx context.Context, searchURL string) ([]models.Opportunity, error)
}

// TracingSource is a Source that can also report a per-field extraction trace.
type TracingSource interface {
	Source
	ScrapeWithTrace(ctx context.Context, searchURL string) (ScrapeResult, error)
}

// ScrapeResult bundles the records from one search URL with debug lines.
type ScrapeResult struct {
	Opportunities []models.Opportunity
	Trace         []string
}
