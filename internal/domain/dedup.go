package domain

// Strictness selects how Dedup decides two reports are the same entity.
type Strictness struct {
	threshold float64
}

// ExactKey collapses reports whose normalized titles are equal, or whose
// URLs are both non-empty and equal.
var ExactKey = Strictness{}

// Similar additionally collapses a report whose title scores at least
// threshold against an already kept title (see SimilarityScore).
func Similar(threshold float64) Strictness {
	return Strictness{threshold: threshold}
}

// Fuzzy reports whether title similarity is considered.
func (s Strictness) Fuzzy() bool {
	return s.threshold > 0
}

// Dedup keeps the first-seen report of every equivalence class, preserving order.
func Dedup(reports []Report, s Strictness) []Report {
	out := make([]Report, 0, len(reports))
	titles := make(map[string]struct{}, len(reports))
	urls := make(map[string]struct{}, len(reports))

	for _, r := range reports {
		title := Normalize(r.Title)
		if _, seen := titles[title]; seen {
			continue
		}
		if r.URL != "" {
			if _, seen := urls[r.URL]; seen {
				continue
			}
		}
		if s.Fuzzy() && similarToAny(r.Title, out, s.threshold) {
			continue
		}

		titles[title] = struct{}{}
		if r.URL != "" {
			urls[r.URL] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

func similarToAny(title string, kept []Report, threshold float64) bool {
	for _, k := range kept {
		if SimilarityScore(title, k.Title) >= threshold {
			return true
		}
	}
	return false
}
