package domain

import "context"

// GlobalKeywords is the disaster keyword query used when no location is given.
const GlobalKeywords = "disaster OR earthquake OR flood OR wildfire OR hurricane"

// Query is what a source adapter is asked to fetch for. An empty Location
// means the global, location-free view.
type Query struct {
	Location string
	Keywords string
}

// Terms returns Location, falling back to Keywords and then GlobalKeywords.
func (q Query) Terms() string {
	switch {
	case q.Location != "":
		return q.Location
	case q.Keywords != "":
		return q.Keywords
	default:
		return GlobalKeywords
	}
}

// SourceAdapter turns one provider's payload into reports. Fetch never fails:
// a provider outage is logged by the adapter and yields no reports.
type SourceAdapter interface {
	Source() Source
	Fetch(ctx context.Context, q Query) []Report
}
