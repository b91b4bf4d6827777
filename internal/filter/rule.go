package filter

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DateLayout is how rule dates are written in the filter file and typed by users.
const DateLayout = "2006-01-02"

// Date is a calendar date without time of day, stored as UTC midnight.
type Date struct {
	time.Time
}

// NewDate keeps only the calendar date of t as seen in t's own location.
func NewDate(t time.Time) Date {
	return Date{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDate reads a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return NewDate(t), nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Rule is a saved search filter. Unset bounds impose no constraint, so the
// zero Rule (apart from its name) matches every opportunity.
type Rule struct {
	Name      string   `json:"name"`
	Keywords  []string `json:"keywords"`
	MinAmount *float64 `json:"min_amount"`
	MaxAmount *float64 `json:"max_amount"`
	StartDate *Date    `json:"start_date"`
	EndDate   *Date    `json:"end_date"`
}

// ValidationError rejects a rule before it reaches the store.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid filter %s: %s", e.Field, e.Reason)
}

// Validate checks the invariants every stored rule must hold.
func (r Rule) Validate() error {
	if strings.TrimSpace(r.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if r.MinAmount != nil && *r.MinAmount < 0 {
		return &ValidationError{Field: "min_amount", Reason: "must not be negative"}
	}
	if r.MaxAmount != nil && *r.MaxAmount < 0 {
		return &ValidationError{Field: "max_amount", Reason: "must not be negative"}
	}
	if r.MinAmount != nil && r.MaxAmount != nil && *r.MinAmount > *r.MaxAmount {
		return &ValidationError{Field: "min_amount", Reason: "must not exceed max_amount"}
	}
	return nil
}

// Unconstrained reports whether the rule has no keyword, amount or date bounds.
func (r Rule) Unconstrained() bool {
	return len(r.Keywords) == 0 &&
		r.MinAmount == nil && r.MaxAmount == nil &&
		r.StartDate == nil && r.EndDate == nil
}

// normalized returns a copy that serializes keywords as an array, never null.
func (r Rule) normalized() Rule {
	r.Name = strings.TrimSpace(r.Name)
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
	return r
}

// RuleInput is a rule as typed by a user: every field is free text.
type RuleInput struct {
	Name      string
	Keywords  string // comma separated
	MinAmount string
	MaxAmount string
	StartDate string
	EndDate   string
}

// ParseRule turns user input into a validated Rule. Blank optional fields
// stay unset.
func ParseRule(in RuleInput) (Rule, error) {
	r := Rule{
		Name:     strings.TrimSpace(in.Name),
		Keywords: SplitKeywords(in.Keywords),
	}

	var err error
	if r.MinAmount, err = parseAmount("min_amount", in.MinAmount); err != nil {
		return Rule{}, err
	}
	if r.MaxAmount, err = parseAmount("max_amount", in.MaxAmount); err != nil {
		return Rule{}, err
	}
	if r.StartDate, err = parseOptionalDate("start_date", in.StartDate); err != nil {
		return Rule{}, err
	}
	if r.EndDate, err = parseOptionalDate("end_date", in.EndDate); err != nil {
		return Rule{}, err
	}

	if err := r.Validate(); err != nil {
		return Rule{}, err
	}
	return r, nil
}

// SplitKeywords splits a comma separated list, dropping blank entries.
func SplitKeywords(s string) []string {
	keywords := []string{}
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	return keywords
}

func parseAmount(field, s string) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	clean := strings.ReplaceAll(strings.TrimPrefix(s, "$"), ",", "")
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a number", s)}
	}
	return &v, nil
}

func parseOptionalDate(field, s string) (*Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := ParseDate(s)
	if err != nil {
		return nil, &ValidationError{Field: field, Reason: fmt.Sprintf("%q is not a YYYY-MM-DD date", s)}
	}
	return &d, nil
}

// Float returns a pointer to v, for building rules in code.
func Float(v float64) *float64 {
	return &v
}
