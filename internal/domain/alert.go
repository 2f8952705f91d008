package domain

import "time"

// AlertTier is the proximity class of an alert.
type AlertTier string

const (
	TierRed    AlertTier = "red"
	TierYellow AlertTier = "yellow"
	TierInfo   AlertTier = "info"
)

// Alerts holds the three alert buckets of one evaluation, each ordered by the
// aggregator's ranking.
type Alerts struct {
	Red    []Report `json:"red" yaml:"red"`
	Yellow []Report `json:"yellow" yaml:"yellow"`
	Info   []Report `json:"info" yaml:"info"`
}

// NewAlerts returns empty, non-nil buckets.
func NewAlerts() Alerts {
	return Alerts{Red: []Report{}, Yellow: []Report{}, Info: []Report{}}
}

// Bucket returns the reports of the given tier.
func (a Alerts) Bucket(tier AlertTier) []Report {
	switch tier {
	case TierRed:
		return a.Red
	case TierYellow:
		return a.Yellow
	case TierInfo:
		return a.Info
	default:
		return nil
	}
}

// HasDanger is true when any proximity tier is populated.
func (a Alerts) HasDanger() bool {
	return len(a.Red) > 0 || len(a.Yellow) > 0
}

// Position is a device fix reported by a location provider.
type Position struct {
	Lat      float64 `json:"lat" yaml:"lat"`
	Lon      float64 `json:"lon" yaml:"lon"`
	Accuracy float64 `json:"accuracy,omitempty" yaml:"accuracy,omitempty"`
}

// Coordinates drops the accuracy.
func (p Position) Coordinates() Coordinates {
	return Coordinates{Lat: p.Lat, Lon: p.Lon}
}

// CheckStatus describes how an alert evaluation ended.
type CheckStatus string

const (
	CheckSuccess       CheckStatus = "success"
	CheckLocationError CheckStatus = "location_error"
	CheckError         CheckStatus = "error"
)

// AlertCheckResult is the output of one geofenced evaluation.
type AlertCheckResult struct {
	Alerts    Alerts      `json:"alerts" yaml:"alerts"`
	Location  *Position   `json:"location,omitempty" yaml:"location,omitempty"`
	City      string      `json:"city,omitempty" yaml:"city,omitempty"`
	Status    CheckStatus `json:"status" yaml:"status"`
	Error     string      `json:"error,omitempty" yaml:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp" yaml:"timestamp"`
}

// BackgroundCheckResult is the reduced form consumed by a periodic scheduler.
type BackgroundCheckResult struct {
	Success   bool   `json:"success"`
	NewDanger bool   `json:"new_danger"`
	Error     string `json:"error,omitempty"`
}

// Notification is a request to surface a system notification.
type Notification struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Body     string    `json:"body"`
	Category string    `json:"category"`
	Created  time.Time `json:"created_at"`
}

// Notification categories.
const (
	CategoryEmergency  = "emergency"
	CategoryWarning    = "warning"
	CategoryBackground = "background"
)
