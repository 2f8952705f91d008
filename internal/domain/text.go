package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minComparableLength is the normalized length below which two texts are
// considered too short to compare.
const minComparableLength = 10

// SimilarThreshold is the token-overlap ratio at which AreSimilar matches.
const SimilarThreshold = 0.5

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "in": {}, "on": {},
	"at": {}, "for": {}, "of": {}, "and": {}, "or": {},
}

// Normalize canonicalizes text for comparison: diacritics stripped, lower-cased,
// non-alphanumerics removed, stop words dropped, whitespace collapsed.
func Normalize(text string) string {
	if text == "" {
		return ""
	}

	stripped, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn))), text)
	if err != nil {
		stripped = text
	}
	stripped = strings.ToLower(stripped)

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		}
	}

	words := strings.Fields(b.String())
	kept := words[:0]
	for _, w := range words {
		if _, stop := stopWords[w]; !stop {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

// AreSimilar reports whether two texts likely describe the same event.
// Texts shorter than 10 normalized characters never match; containment of
// one in the other always does; otherwise the token overlap must reach 0.5.
func AreSimilar(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if len(na) < minComparableLength || len(nb) < minComparableLength {
		return false
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		return true
	}
	return overlap(na, nb) >= SimilarThreshold
}

// SimilarityScore is the token-overlap ratio of two texts, without the
// length floor or containment shortcut of AreSimilar.
func SimilarityScore(a, b string) float64 {
	return overlap(Normalize(a), Normalize(b))
}

// overlap computes |A ∩ B| / max(|A|, |B|) over significant tokens of two
// normalized strings. Tokens of A are counted with multiplicity.
func overlap(na, nb string) float64 {
	ta, tb := significantTokens(na), significantTokens(nb)
	denom := max(len(ta), len(tb))
	if denom == 0 {
		return 0
	}

	inB := make(map[string]struct{}, len(tb))
	for _, t := range tb {
		inB[t] = struct{}{}
	}
	shared := 0
	for _, t := range ta {
		if _, ok := inB[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(denom)
}

// significantTokens keeps the stems of tokens longer than three characters.
func significantTokens(normalized string) []string {
	fields := strings.Fields(normalized)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > 3 {
			out = append(out, stem(f))
		}
	}
	return out
}

// stem strips a common inflection so "spreads" and "spreading" compare equal.
// Only tokens that keep at least four characters are trimmed.
func stem(token string) string {
	for _, suffix := range []string{"ing", "ed", "es", "s"} {
		if !strings.HasSuffix(token, suffix) {
			continue
		}
		if suffix == "s" && strings.HasSuffix(token, "ss") {
			return token
		}
		if base := strings.TrimSuffix(token, suffix); len(base) >= 4 {
			return base
		}
	}
	return token
}
