// Package domain models disaster reports gathered from public providers and
// the results derived from them.
//
// # Data Sources
//
// Reports come from four independent providers, each behind its own adapter:
//
//	weather  OpenWeather current conditions for a place (has coordinates)
//	news     NewsAPI full-text search over a trailing 7-day window
//	social   Reddit search restricted to a single subreddit, newest first
//	federal  FEMA disaster declaration summaries from the trailing 30 days
//
// Adapters never set location relevance. That is decided by the aggregator
// once the reports of every source have been merged.
//
// # Severity
//
// Severity is a three-level scale (low, medium, high) assigned per source:
//
//	weather: high when the condition matches the severe-weather vocabulary, else low
//	federal: Fire/Tornado/Hurricane high | Flood/Earthquake medium | otherwise low
//	news, social: low (no provider signal)
//
// # Identity
//
// Two reports describe the same entity when their normalized titles are equal,
// or when both carry a URL and the URLs match. See [Normalize] and [Dedup].
//
// Report IDs are deterministic SHA-256 hashes of source|url, falling back to
// source|normalized title for URL-less reports, so the archive can upsert the
// same report across runs. See [generateID].
//
// # Text Normalization
//
//	"Séisme à Nice: the damage" → "seisme nice damage"
//
// Diacritics are stripped, text is lower-cased, everything outside [a-z0-9 ]
// is dropped, and the stop words {the, a, an, in, on, at, for, of, and, or}
// are removed. [Normalize] is idempotent.
package domain
