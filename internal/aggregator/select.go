package aggregator

import (
	"strings"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

// selectGenuine picks the reports relevant to a location in two passes.
//
// The primary pass accepts, as location-relevant, every report whose title or
// description mentions one of the cities (case-insensitively) and whose
// normalized title is new. The secondary pass then accepts, as not relevant,
// any remaining report whose title is similar to an accepted one; those are
// attributed to the query location.
func selectGenuine(all []domain.Report, cities []string, location string) []domain.Report {
	lowered := make([]string, len(cities))
	for i, c := range cities {
		lowered[i] = strings.ToLower(c)
	}

	seen := make(map[string]struct{}, len(all))
	genuine := make([]domain.Report, 0, len(all))

	for _, r := range all {
		city, ok := mentionedCity(r, cities, lowered)
		if !ok {
			continue
		}
		key := domain.Normalize(r.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		r.IsLocationRelevant = true
		r.MatchedLocation = city
		genuine = append(genuine, r)
	}

	for _, r := range all {
		key := domain.Normalize(r.Title)
		if _, dup := seen[key]; dup {
			continue
		}
		for _, g := range genuine {
			if !domain.AreSimilar(r.Title, g.Title) {
				continue
			}
			seen[key] = struct{}{}
			r.IsLocationRelevant = false
			r.MatchedLocation = location
			genuine = append(genuine, r)
			break
		}
	}
	return genuine
}

// mentionedCity returns the first city named in the report's text.
func mentionedCity(r domain.Report, cities, lowered []string) (string, bool) {
	content := strings.ToLower(r.Title + " " + r.Description)
	for i, c := range lowered {
		if c != "" && strings.Contains(content, c) {
			return cities[i], true
		}
	}
	return "", false
}

func newestFirst(a, b domain.Report) int {
	return b.Date.Compare(a.Date)
}

// byRelevanceThenDate orders location-relevant reports first, newest first
// within each group.
func byRelevanceThenDate(a, b domain.Report) int {
	if a.IsLocationRelevant != b.IsLocationRelevant {
		if a.IsLocationRelevant {
			return -1
		}
		return 1
	}
	return newestFirst(a, b)
}

func flatten(batches ...[]domain.Report) []domain.Report {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	out := make([]domain.Report, 0, n)
	for _, b := range batches {
		out = append(out, b...)
	}
	return out
}
