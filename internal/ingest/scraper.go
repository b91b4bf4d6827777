package ingest

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/jderrod/GrantStationTool/internal/models"
)

// Scraper crawls a portal search results page and every detail page it links to.
// Pages are fetched one at a time; failures are not retried.
type Scraper struct {
	cfg *PortalConfig
	jar http.CookieJar

	// Debug records per-field extraction lines in ScrapeResult.Trace.
	Debug bool
}

// NewScraper creates a scraper. jar may be nil for portals that need no login.
func NewScraper(cfg *PortalConfig, jar http.CookieJar) *Scraper {
	return &Scraper{cfg: cfg, jar: jar}
}

// Scrape implements Source.
func (s *Scraper) Scrape(ctx context.Context, searchURL string) ([]models.Opportunity, error) {
	res, err := s.ScrapeWithTrace(ctx, searchURL)
	return res.Opportunities, err
}

// ScrapeWithTrace collects detail links from up to MaxPages listing pages and
// extracts one Opportunity per detail page. A listing failure aborts the scrape;
// a detail failure only drops that record.
func (s *Scraper) ScrapeWithTrace(ctx context.Context, searchURL string) (ScrapeResult, error) {
	var result ScrapeResult

	parsedURL, err := url.Parse(searchURL)
	if err != nil || parsedURL.Host == "" {
		return result, fmt.Errorf("invalid search URL %q", searchURL)
	}

	collector := s.newCollector(ctx, parsedURL.Hostname())

	var (
		detailURLs  []string
		seen        = make(map[string]bool)
		nextPageURL string
		listErr     error
	)

	collector.OnHTML(s.cfg.Selectors.Link, func(e *colly.HTMLElement) {
		link := strings.TrimSpace(e.Attr(s.cfg.Selectors.LinkAttr))
		if link == "" {
			return
		}
		fullURL := CanonicalizeURL(e.Request.AbsoluteURL(link))
		if seen[fullURL] {
			return
		}
		seen[fullURL] = true
		detailURLs = append(detailURLs, fullURL)
	})

	if s.cfg.Pagination.Next != "" {
		collector.OnHTML(s.cfg.Pagination.Next, func(e *colly.HTMLElement) {
			nextPageURL = e.Request.AbsoluteURL(e.Attr("href"))
		})
	}

	collector.OnRequest(func(r *colly.Request) {
		log.Printf("[Scraper] Visiting: %s", r.URL.String())
	})

	collector.OnError(func(r *colly.Response, err error) {
		listErr = fmt.Errorf("fetch %s: %w", r.Request.URL, err)
	})

	visitedPages := make(map[string]bool)
	currentURL := searchURL
	for page := 1; page <= s.cfg.MaxPages; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		canonPage := CanonicalizeURL(currentURL)
		if visitedPages[canonPage] {
			log.Printf("[Scraper] Pagination cycle detected at %s. Stopping.", canonPage)
			break
		}
		visitedPages[canonPage] = true
		nextPageURL = ""

		if err := collector.Visit(currentURL); err != nil && listErr == nil {
			listErr = fmt.Errorf("visit %s: %w", currentURL, err)
		}
		collector.Wait()

		if listErr != nil {
			return result, listErr
		}
		if nextPageURL == "" {
			break
		}
		currentURL = nextPageURL
	}

	log.Printf("[Scraper] Found %d opportunity links at %s", len(detailURLs), searchURL)

	detail := collector.Clone()
	for _, detailURL := range detailURLs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		opp, trace, err := s.scrapeDetail(detail, detailURL, searchURL)
		if s.Debug {
			result.Trace = append(result.Trace, trace...)
		}
		if err != nil {
			log.Printf("[Scraper] Detail fetch failed for %s: %v", detailURL, err)
			if s.Debug {
				result.Trace = append(result.Trace, fmt.Sprintf("ERROR: Error extracting detailed info: %v", err))
			}
			continue
		}
		result.Opportunities = append(result.Opportunities, opp)
	}

	return result, nil
}

func (s *Scraper) newCollector(ctx context.Context, host string) *colly.Collector {
	c := colly.NewCollector(
		colly.AllowedDomains(host),
		colly.UserAgent(s.cfg.UserAgent),
		colly.DetectCharset(),
		colly.StdlibContext(ctx),
	)

	delay := s.cfg.RequestDelay()
	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: 1,
		Delay:       delay,
		RandomDelay: delay / 2,
	})

	c.SetRequestTimeout(s.cfg.RequestTimeout())

	if s.jar != nil {
		c.SetCookieJar(s.jar)
	}
	return c
}

// scrapeDetail fetches one detail page with a fresh clone of c.
func (s *Scraper) scrapeDetail(c *colly.Collector, detailURL, searchURL string) (models.Opportunity, []string, error) {
	var (
		raw       RawOpportunity
		trace     []string
		fetchErr  error
		extracted bool
	)

	clone := c.Clone()
	clone.OnHTML("html", func(e *colly.HTMLElement) {
		raw, trace = s.extractDetail(e.DOM, e.Request.AbsoluteURL)
		extracted = true
	})
	clone.OnError(func(r *colly.Response, err error) {
		fetchErr = err
	})

	if err := clone.Visit(detailURL); err != nil && fetchErr == nil {
		fetchErr = err
	}
	clone.Wait()

	trace = append([]string{"Extracting from URL: " + detailURL}, trace...)

	if fetchErr != nil {
		return models.Opportunity{}, trace, fetchErr
	}
	if !extracted {
		return models.Opportunity{}, trace, fmt.Errorf("no HTML received for detail page")
	}

	raw.DetailURL = detailURL
	raw.SearchURL = searchURL
	opp := FromRaw(raw)

	trace = append(trace, "Extracted fields:")
	trace = append(trace, describeFields(opp)...)
	return opp, trace, nil
}

// extractDetail reads every configured field from a detail page document.
func (s *Scraper) extractDetail(doc *goquery.Selection, resolve func(string) string) (RawOpportunity, []string) {
	sel := s.cfg.Detail
	var trace []string

	text := func(selector string) string {
		if selector == "" {
			return ""
		}
		v := strings.TrimSpace(fieldNode(doc, selector).Text())
		if v == "" {
			trace = append(trace, fmt.Sprintf("Failed to get text for selector '%s'", selector))
		}
		return v
	}

	raw := RawOpportunity{
		Agency:                text(sel.Agency),
		OpportunityNumber:     text(sel.OpportunityNumber),
		PostDate:              text(sel.PostDate),
		CloseDate:             text(sel.CloseDate),
		AdditionalEligibility: text(sel.AdditionalEligibility),
		EligibleApplicants:    selectAll(doc, sel.EligibleApplicants),
		CFDANumbers:           selectAll(doc, sel.CFDANumbers),
		AdditionalInfoURL:     selectLink(doc, sel.AdditionalInfoLink, resolve),
		GrantsGovURL:          selectLink(doc, sel.GrantsGovLink, resolve),
	}

	for _, candidate := range sel.Title {
		if v := selectValue(doc, candidate); v != "" {
			raw.Title = v
			break
		}
	}

	if sel.Description != "" {
		if html, err := fieldNode(doc, sel.Description).Html(); err == nil {
			raw.DescriptionHTML = strings.TrimSpace(html)
		}
		if raw.DescriptionHTML == "" {
			trace = append(trace, fmt.Sprintf("Failed to get text for selector '%s'", sel.Description))
		}
	}

	if raw.Title != "" {
		slog.Debug("extracted detail page", "title", raw.Title, "agency", raw.Agency)
	}

	trace = append([]string{"Raw title found: " + orTitleNotFound(raw.Title)}, trace...)
	return raw, trace
}

// fieldNode narrows a Drupal field wrapper to its value element so the field
// label ("Post Date") is not mixed into the text.
func fieldNode(doc *goquery.Selection, selector string) *goquery.Selection {
	node := doc.Find(selector).First()
	if item := node.Find(".field__item").First(); item.Length() > 0 {
		return item
	}
	return node
}

// selectValue supports "selector@attr" to read an attribute instead of text.
func selectValue(doc *goquery.Selection, spec string) string {
	selector, attr := spec, ""
	if idx := strings.LastIndex(spec, "@"); idx > 0 {
		selector, attr = spec[:idx], spec[idx+1:]
	}

	node := doc.Find(selector).First()
	if node.Length() == 0 {
		return ""
	}
	if attr != "" {
		return cleanText(node.AttrOr(attr, ""))
	}
	return cleanText(node.Text())
}

func selectAll(doc *goquery.Selection, selector string) []string {
	if selector == "" {
		return nil
	}
	var out []string
	doc.Find(selector).Each(func(_ int, item *goquery.Selection) {
		out = append(out, strings.TrimSpace(item.Text()))
	})
	return out
}

func selectLink(doc *goquery.Selection, selector string, resolve func(string) string) string {
	if selector == "" {
		return ""
	}
	href := strings.TrimSpace(doc.Find(selector).First().AttrOr("href", ""))
	if href == "" {
		return ""
	}
	return resolve(href)
}

func orTitleNotFound(title string) string {
	if title == "" {
		return TitleNotFound
	}
	return title
}

func describeFields(opp models.Opportunity) []string {
	return []string{
		"title: " + opp.Title,
		"description: " + truncate(opp.Description, 200),
		"agency: " + opp.Agency,
		"opportunity_number: " + opp.OpportunityNumber,
		"post_date: " + opp.PostDate,
		"close_date: " + opp.CloseDate,
		"eligible_applicants: " + strings.Join(opp.EligibleApplicants, "; "),
		"additional_eligibility: " + opp.AdditionalEligibility,
		"cfda_numbers: " + strings.Join(opp.CFDANumbers, ", "),
		"additional_info_url: " + opp.AdditionalInfoURL,
		"grants_gov_url: " + opp.GrantsGovURL,
	}
}
