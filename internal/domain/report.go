package domain

import "time"

// Source identifies the provider family a report came from.
type Source string

const (
	SourceWeather Source = "weather"
	SourceNews    Source = "news"
	SourceSocial  Source = "social"
	SourceFederal Source = "federal"
)

// Severity is the adapter-assigned urgency of a report.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Report is one normalized disaster-relevant item from a single source.
type Report struct {
	ID          string       `json:"id" yaml:"id"`
	Source      Source       `json:"source" yaml:"source"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description" yaml:"description"`
	URL         string       `json:"url,omitempty" yaml:"url,omitempty"`
	Date        time.Time    `json:"date" yaml:"date"`
	Location    string       `json:"location,omitempty" yaml:"location,omitempty"`
	Coordinates *Coordinates `json:"coordinates,omitempty" yaml:"coordinates,omitempty"`
	Severity    Severity     `json:"severity" yaml:"severity"`

	// Set by the aggregator, never by an adapter.
	IsLocationRelevant bool   `json:"is_location_relevant" yaml:"is_location_relevant"`
	MatchedLocation    string `json:"matched_location,omitempty" yaml:"matched_location,omitempty"`

	// Set by the alert engine for coordinate-bearing reports.
	DistanceMeters *float64 `json:"distance_meters,omitempty" yaml:"distance_meters,omitempty"`

	// Auxiliary provider metadata, not used in scoring.
	Author       string   `json:"author,omitempty" yaml:"author,omitempty"`
	ImageURL     string   `json:"image_url,omitempty" yaml:"image_url,omitempty"`
	Upvotes      int      `json:"upvotes,omitempty" yaml:"upvotes,omitempty"`
	Comments     int      `json:"comments,omitempty" yaml:"comments,omitempty"`
	TemperatureC *float64 `json:"temperature_c,omitempty" yaml:"temperature_c,omitempty"`
	FeelsLikeC   *float64 `json:"feels_like_c,omitempty" yaml:"feels_like_c,omitempty"`
	Humidity     *float64 `json:"humidity,omitempty" yaml:"humidity,omitempty"`
	Icon         string   `json:"icon,omitempty" yaml:"icon,omitempty"`
}

// HasCoordinates reports whether the provider supplied a position.
func (r Report) HasCoordinates() bool {
	return r.Coordinates != nil
}

// ResultStatus describes how an aggregation run ended.
type ResultStatus string

const (
	StatusSuccess     ResultStatus = "success"
	StatusInvalidCity ResultStatus = "invalid_city"
	StatusError       ResultStatus = "error"
)

// AggregationResult is the output of one aggregation run.
type AggregationResult struct {
	RunID            string       `json:"run_id" yaml:"run_id"`
	Timestamp        time.Time    `json:"timestamp" yaml:"timestamp"`
	Global           bool         `json:"global" yaml:"global"`
	SearchedLocation string       `json:"searched_location,omitempty" yaml:"searched_location,omitempty"`
	NearbyCities     []string     `json:"nearby_cities" yaml:"nearby_cities"`
	AllReports       []Report     `json:"all_reports" yaml:"all_reports"`
	GenuineReports   []Report     `json:"genuine_reports" yaml:"genuine_reports"`
	Status           ResultStatus `json:"status" yaml:"status"`
	Error            string       `json:"error,omitempty" yaml:"error,omitempty"`
}

// EmptyResult returns a well-formed result with no reports.
func EmptyResult(runID, location string, at time.Time, status ResultStatus) AggregationResult {
	cities := []string{}
	if location != "" {
		cities = append(cities, location)
	}
	return AggregationResult{
		RunID:            runID,
		Timestamp:        at,
		SearchedLocation: location,
		NearbyCities:     cities,
		AllReports:       []Report{},
		GenuineReports:   []Report{},
		Status:           status,
	}
}
