package domain

import "context"

// CoordinateEntry is a resolved city, as cached by the geo resolver.
type CoordinateEntry struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Country string  `json:"country"`
}

// Coordinates returns the entry's position.
func (e CoordinateEntry) Coordinates() Coordinates {
	return Coordinates{Lat: e.Lat, Lon: e.Lon}
}

// Place is one candidate returned by a geocoding provider.
type Place struct {
	Name       string
	Lat        float64
	Lon        float64
	Country    string
	Population int // 0 when the provider omits it
}

// Geocoder is a provider of forward, reverse, and nearby-place lookups.
type Geocoder interface {
	// Direct resolves a place name to ranked candidates. An empty slice means no match.
	Direct(ctx context.Context, name string, limit int) ([]Place, error)

	// Reverse returns ranked candidates around a position.
	Reverse(ctx context.Context, lat, lon float64, limit int) ([]Place, error)

	// Nearby returns up to count places centered on a position.
	Nearby(ctx context.Context, lat, lon float64, count int) ([]Place, error)
}

// InvalidCitySentinel is the single entry of a nearby-city list when the
// queried name could not be resolved. It is meant to be shown to users as is.
const InvalidCitySentinel = "Please enter a valid city name"
