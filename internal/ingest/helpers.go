package ingest

import (
	"net/url"
	"strings"

	"github.com/jderrod/GrantStationTool/internal/models"
)

// normalizeSpace collapses multiple spaces into one and trims the string.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// cleanText normalizes whitespace (alias for normalizeSpace)
func cleanText(s string) string {
	return normalizeSpace(s)
}

// orNotAvailable returns the cleaned value, or models.NotAvailable when nothing is left.
func orNotAvailable(s string) string {
	s = cleanText(s)
	if s == "" {
		return models.NotAvailable
	}
	return s
}

// cleanList normalizes whitespace in every entry and drops blank ones. Order
// and repeated entries are kept as the page lists them.
func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, raw := range items {
		if s := cleanText(raw); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// truncate cuts text to at most maxLen runes, ending in "..." when shortened.
func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen > 3 {
		return string(runes[:maxLen-3]) + "..."
	}
	return string(runes[:maxLen])
}

// CanonicalizeURL lowercases the host and drops fragments and tracking parameters
// so the same detail page reached from two listing pages is visited once.
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	q := u.Query()
	for k := range q {
		if strings.HasPrefix(k, "utm_") {
			q.Del(k)
		}
	}
	for _, p := range []string{"fbclid", "gclid", "mc_cid", "mc_eid"} {
		q.Del(p)
	}

	u.RawQuery = q.Encode()
	return u.String()
}
