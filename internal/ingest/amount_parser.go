package ingest

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// "$2 million", "$2M", "$1,500,000.00 million"
	millionAmountRegex = regexp.MustCompile(`\$(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)\s*(?:million|M)`)
	// "$500,000", "$75.50"
	plainAmountRegex = regexp.MustCompile(`\$(\d{1,3}(?:,\d{3})*(?:\.\d{2})?)`)
)

// AmountExtractor pulls a single best-effort dollar figure out of free text.
type AmountExtractor struct {
	// LegacyMillionScaling multiplies any matched figure by one million whenever
	// the text mentions "million" or contains an "M" anywhere, even if the
	// figure came from the plain currency pattern.
	LegacyMillionScaling bool
}

// Extract returns the first amount found in text. The million pattern is tried
// before the plain one. ok is false when no figure could be parsed.
func (a AmountExtractor) Extract(text string) (amount float64, ok bool) {
	patterns := []*regexp.Regexp{millionAmountRegex, plainAmountRegex}

	for i, re := range patterns {
		m := re.FindStringSubmatch(text)
		if len(m) < 2 {
			continue
		}

		val, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
		if err != nil {
			continue
		}

		if a.scale(text, i == 0) {
			val *= 1_000_000
		}
		return val, true
	}

	return 0, false
}

func (a AmountExtractor) scale(text string, millionMatched bool) bool {
	if a.LegacyMillionScaling {
		return strings.Contains(strings.ToLower(text), "million") || strings.Contains(text, "M")
	}
	return millionMatched
}

// ExtractAmount runs the default extractor over text.
func ExtractAmount(text string) (float64, bool) {
	return AmountExtractor{}.Extract(text)
}
