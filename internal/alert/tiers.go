package alert

import "github.com/couchcryptid/disaster-alert-service/internal/domain"

// Thresholds are the inclusive outer radii of the proximity tiers, in meters.
type Thresholds struct {
	RedMeters    float64
	YellowMeters float64
}

// DefaultThresholds are 50 km for red and 150 km for yellow.
var DefaultThresholds = Thresholds{RedMeters: 50_000, YellowMeters: 150_000}

// Classify buckets genuine reports by distance from user, preserving their
// order. Coordinate-bearing reports within the red or yellow radius land in
// that tier whatever their relevance; any other location-relevant report goes
// to info; the rest are dropped. Each coordinate-bearing report gets its
// distance set.
func Classify(user domain.Coordinates, reports []domain.Report, t Thresholds) domain.Alerts {
	alerts := domain.NewAlerts()
	for _, r := range reports {
		if r.HasCoordinates() {
			d := domain.Distance(user, *r.Coordinates)
			r.DistanceMeters = &d
			switch {
			case d <= t.RedMeters:
				alerts.Red = append(alerts.Red, r)
				continue
			case d <= t.YellowMeters:
				alerts.Yellow = append(alerts.Yellow, r)
				continue
			}
		}
		if r.IsLocationRelevant {
			alerts.Info = append(alerts.Info, r)
		}
	}
	return alerts
}
