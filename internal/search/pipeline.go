package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jderrod/GrantStationTool/internal/filter"
	"github.com/jderrod/GrantStationTool/internal/ingest"
	"github.com/jderrod/GrantStationTool/internal/models"
)

// Request describes one search run.
type Request struct {
	URLs  []string
	Rule  *filter.Rule // nil keeps every record
	Debug bool
}

// Section holds the records scraped from one search URL.
type Section struct {
	URL      string               `json:"url"`
	All      []models.Opportunity `json:"all"`
	Filtered []models.Opportunity `json:"filtered"`
	Error    string               `json:"error,omitempty"`
}

// Run is the result of scraping a set of search URLs and filtering them.
type Run struct {
	ID          uuid.UUID `json:"id"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	RuleName    string    `json:"rule_name,omitempty"`
	Sections    []Section `json:"sections"`
	ScrapeTrace []string  `json:"scrape_trace,omitempty"`
	FilterTrace []string  `json:"filter_trace,omitempty"`
}

// All returns every scraped record across sections, in scrape order.
func (r *Run) All() []models.Opportunity {
	var out []models.Opportunity
	for _, s := range r.Sections {
		out = append(out, s.All...)
	}
	return out
}

// Filtered returns every matching record across sections, in scrape order.
func (r *Run) Filtered() []models.Opportunity {
	var out []models.Opportunity
	for _, s := range r.Sections {
		out = append(out, s.Filtered...)
	}
	return out
}

// Trace returns scrape lines followed by filter lines.
func (r *Run) Trace() []string {
	out := make([]string, 0, len(r.ScrapeTrace)+len(r.FilterTrace))
	out = append(out, r.ScrapeTrace...)
	return append(out, r.FilterTrace...)
}

// Pipeline scrapes each URL in turn and applies the rule to each URL's records.
type Pipeline struct {
	Source    ingest.Source
	Evaluator filter.Evaluator
}

func NewPipeline(source ingest.Source, evaluator filter.Evaluator) *Pipeline {
	return &Pipeline{Source: source, Evaluator: evaluator}
}

// Run scrapes every URL of req. A failing URL is recorded on its Section and
// the run continues; the run fails only when every URL failed.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Run, error) {
	if len(req.URLs) == 0 {
		return nil, errors.New("no search URLs given")
	}

	run := &Run{
		ID:        uuid.New(),
		StartedAt: time.Now().UTC(),
	}

	var errs []error
	for _, url := range req.URLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		log.Printf("[Search] Scraping %s", url)
		opps, trace, err := p.scrape(ctx, url, req.Debug)
		run.ScrapeTrace = append(run.ScrapeTrace, trace...)

		section := Section{URL: url, All: opps}
		if err != nil {
			log.Printf("[Search] Error extracting data from %s: %v", url, err)
			section.Error = err.Error()
			errs = append(errs, fmt.Errorf("%s: %w", url, err))
		}
		run.Sections = append(run.Sections, section)
	}

	if len(errs) == len(req.URLs) {
		return nil, errors.Join(errs...)
	}

	p.Apply(run, req.Rule, req.Debug)
	run.FinishedAt = time.Now().UTC()

	log.Printf("[Search] Run %s complete: %d/%d opportunities matched", run.ID, len(run.Filtered()), len(run.All()))
	return run, nil
}

// Apply (re)computes every section's filtered records and the filter trace.
// A nil rule keeps everything.
func (p *Pipeline) Apply(run *Run, rule *filter.Rule, debug bool) {
	run.FilterTrace = nil
	run.RuleName = ""
	if rule != nil {
		run.RuleName = rule.Name
	}

	for i := range run.Sections {
		s := &run.Sections[i]
		if rule == nil {
			s.Filtered = s.All
			continue
		}
		res := p.Evaluator.Evaluate(*rule, s.All, debug)
		s.Filtered = res.Matches
		run.FilterTrace = append(run.FilterTrace, res.Trace...)
	}
}

func (p *Pipeline) scrape(ctx context.Context, url string, debug bool) ([]models.Opportunity, []string, error) {
	if ts, ok := p.Source.(ingest.TracingSource); ok && debug {
		res, err := ts.ScrapeWithTrace(ctx, url)
		return res.Opportunities, res.Trace, err
	}
	opps, err := p.Source.Scrape(ctx, url)
	return opps, nil, err
}

// SaveRun writes run as indented JSON.
func SaveRun(path string, run *Run) error {
	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// LoadRun reads a run written by SaveRun.
func LoadRun(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read run: %w", err)
	}
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", path, err)
	}
	return &run, nil
}
