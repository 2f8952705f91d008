package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// minTitleLength is the trimmed title length at or below which free-text
// sources (news, social) discard a report. Weather and federal titles are
// composed by the adapter and always kept.
const minTitleLength = 10

// PrepareReport trims and validates an adapter-built report, defaults its date
// to the fetch time, and assigns its ID. It returns false when the report must
// be discarded.
func PrepareReport(r Report) (Report, bool) {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return Report{}, false
	}
	if freeText(r.Source) && len(r.Title) <= minTitleLength {
		return Report{}, false
	}
	r.Description = strings.TrimSpace(r.Description)
	r.Location = strings.TrimSpace(r.Location)
	r.URL = strings.TrimSpace(r.URL)
	if r.Date.IsZero() {
		r.Date = clock.Now()
	}
	r.Date = r.Date.UTC()
	if r.Severity == "" {
		r.Severity = SeverityLow
	}
	r.IsLocationRelevant = false
	r.MatchedLocation = ""
	r.ID = generateID(r.Source, r.URL, r.Title)
	return r, true
}

func freeText(s Source) bool {
	return s == SourceNews || s == SourceSocial
}

// ParseTimestamp parses an RFC 3339 provider timestamp, returning the zero
// time when absent or malformed so PrepareReport falls back to fetch time.
func ParseTimestamp(value string) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// generateID produces a deterministic ID so the same provider item maps to
// the same archive row across runs.
func generateID(source Source, url, title string) string {
	key := url
	if key == "" {
		key = Normalize(title)
	}
	hash := sha256.Sum256([]byte(fmt.Sprintf("%s|%s", source, key)))
	return string(source) + "-" + hex.EncodeToString(hash[:8])
}
