package ingest

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrUnparseableDate is returned when none of the portal date layouts match.
var ErrUnparseableDate = errors.New("unparseable date")

// Layout priority matters: "04/05/2024" is read as April 5th, never May 4th.
var portalDateLayouts = []string{
	"1/2/2006", // MM/DD/YYYY
	"2006-1-2", // YYYY-MM-DD
	"2/1/2006", // DD/MM/YYYY
}

// ParseDate normalizes a free-text portal date into a UTC calendar date.
func ParseDate(text string) (time.Time, error) {
	text = cleanDateString(text)
	if text == "" {
		return time.Time{}, ErrUnparseableDate
	}

	for _, layout := range portalDateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrUnparseableDate, text)
}

// cleanDateString removes field labels the portal renders next to the value.
func cleanDateString(s string) string {
	labels := []string{
		"Post Date:", "Posted Date:", "Close Date:", "Closing Date:", "Deadline:",
	}
	for _, label := range labels {
		s = cutAfterLabel(s, label)
	}
	return strings.TrimSpace(s)
}

// cutAfterLabel drops everything up to and including the first case-insensitive
// occurrence of an ASCII label. Offsets are taken from s itself, since lower
// casing can change the byte length of non-ASCII runes.
func cutAfterLabel(s, label string) string {
	for i := 0; i+len(label) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(label)], label) {
			return s[i+len(label):]
		}
	}
	return s
}
