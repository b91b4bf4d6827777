package filter

import (
	"fmt"
	"strings"

	"github.com/jderrod/GrantStationTool/internal/ingest"
	"github.com/jderrod/GrantStationTool/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Evaluator applies a Rule to scraped opportunities. The zero value skips date
// checks it cannot evaluate and scales amounts only for "$X million" matches.
type Evaluator struct {
	Amounts ingest.AmountExtractor

	// FailClosedDates rejects records whose post or close date is missing or
	// unparseable when the rule bounds that date.
	FailClosedDates bool
}

// Result is the outcome of one evaluation.
type Result struct {
	Matches []models.Opportunity
	Trace   []string // one line per failed or skipped check, only when requested
}

// Evaluate returns the opportunities passing every applicable check of rule,
// in input order. With debug set, Result.Trace explains each rejection.
func (ev Evaluator) Evaluate(rule Rule, opps []models.Opportunity, debug bool) Result {
	res := Result{Matches: make([]models.Opportunity, 0, len(opps))}
	lower := cases.Lower(language.Und)

	for _, opp := range opps {
		ok, trace := ev.match(rule, opp, lower)
		if debug {
			res.Trace = append(res.Trace, trace...)
		}
		if ok {
			res.Matches = append(res.Matches, opp)
		}
	}
	return res
}

// Match reports whether a single opportunity passes rule.
func (ev Evaluator) Match(rule Rule, opp models.Opportunity) bool {
	ok, _ := ev.match(rule, opp, cases.Lower(language.Und))
	return ok
}

func (ev Evaluator) match(rule Rule, opp models.Opportunity, lower cases.Caser) (bool, []string) {
	title := opp.DisplayTitle()
	matches := true
	var trace []string

	fail := func(format string, args ...any) {
		matches = false
		trace = append(trace, fmt.Sprintf("%s "+format, append([]any{title}, args...)...))
	}
	skip := func(format string, args ...any) {
		trace = append(trace, fmt.Sprintf("%s "+format, append([]any{title}, args...)...))
	}

	if len(rule.Keywords) > 0 {
		haystack := lower.String(opp.SearchText())
		for _, kw := range rule.Keywords {
			if !strings.Contains(haystack, lower.String(kw)) {
				fail("failed keyword match")
				break
			}
		}
	}

	if rule.StartDate != nil {
		if posted, err := ingest.ParseDate(opp.PostDate); err != nil {
			if ev.FailClosedDates {
				fail("failed start date check: post date %q is not a date", opp.PostDate)
			} else {
				skip("skipped start date check: post date %q is not a date", opp.PostDate)
			}
		} else if posted.Before(rule.StartDate.Time) {
			fail("failed start date check")
		}
	}

	if rule.EndDate != nil {
		if closes, err := ingest.ParseDate(opp.CloseDate); err != nil {
			if ev.FailClosedDates {
				fail("failed end date check: close date %q is not a date", opp.CloseDate)
			} else {
				skip("skipped end date check: close date %q is not a date", opp.CloseDate)
			}
		} else if closes.After(rule.EndDate.Time) {
			fail("failed end date check")
		}
	}

	if rule.MinAmount != nil || rule.MaxAmount != nil {
		if amount, ok := ev.Amounts.Extract(opp.SearchText()); !ok {
			skip("skipped amount check: no dollar amount found")
		} else {
			if rule.MinAmount != nil && amount < *rule.MinAmount {
				fail("failed minimum amount check")
			}
			if rule.MaxAmount != nil && amount > *rule.MaxAmount {
				fail("failed maximum amount check")
			}
		}
	}

	return matches, trace
}

// Apply filters opps with the default Evaluator.
func Apply(rule Rule, opps []models.Opportunity) []models.Opportunity {
	return Evaluator{}.Evaluate(rule, opps, false).Matches
}
