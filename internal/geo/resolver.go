// Package geo resolves city names to coordinates, expands a city into a set of
// nearby place names, and reverse-geocodes device positions.
package geo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

// ErrInvalidCity is returned when the provider has no match for a name.
var ErrInvalidCity = errors.New("invalid city name")

// Defaults for provider result sizes.
const (
	DefaultNearbyCount  = 5
	DefaultReverseLimit = 5
)

// CityList is the ordered output of NearbyCities. When Valid is false, Names
// holds only domain.InvalidCitySentinel.
type CityList struct {
	Names []string
	Valid bool
}

func invalidCityList() CityList {
	return CityList{Names: []string{domain.InvalidCitySentinel}}
}

// Resolver owns a coordinate cache and answers geographic lookups through a
// domain.Geocoder.
type Resolver struct {
	geocoder    domain.Geocoder
	cache       *CoordinateCache
	logger      *slog.Logger
	metrics     *observability.Metrics
	nearbyCount int
}

// NewResolver creates a Resolver. A nil cache gets a fresh one.
func NewResolver(g domain.Geocoder, cache *CoordinateCache, nearbyCount int, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if cache == nil {
		cache = NewCoordinateCache()
	}
	if nearbyCount <= 0 {
		nearbyCount = DefaultNearbyCount
	}
	return &Resolver{
		geocoder:    g,
		cache:       cache,
		logger:      logger,
		metrics:     metrics,
		nearbyCount: nearbyCount,
	}
}

// Cache exposes the resolver's cache.
func (r *Resolver) Cache() *CoordinateCache {
	return r.cache
}

// ResolveCity returns the coordinates of name, consulting the cache first.
// It returns ErrInvalidCity when the provider has no match; a provider
// failure is returned wrapped.
func (r *Resolver) ResolveCity(ctx context.Context, name string) (domain.CoordinateEntry, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CoordinateEntry{}, ErrInvalidCity
	}

	if e, ok := r.cache.Get(name); ok {
		r.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return e, nil
	}
	r.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	places, err := r.geocoder.Direct(ctx, name, 1)
	if err != nil {
		return domain.CoordinateEntry{}, fmt.Errorf("resolve city %q: %w", name, err)
	}
	if len(places) == 0 {
		return domain.CoordinateEntry{}, ErrInvalidCity
	}

	p := places[0]
	e := domain.CoordinateEntry{Name: p.Name, Lat: p.Lat, Lon: p.Lon, Country: p.Country}
	r.cache.Put(name, e)
	return e, nil
}

// NearbyCities returns the resolved query city followed by distinct nearby
// place names. Candidates containing anything but letters and spaces, or
// whose normalized name overlaps an accepted one, are skipped. An
// unresolvable query yields the invalid-city list; a failing nearby lookup
// yields the query city alone.
func (r *Resolver) NearbyCities(ctx context.Context, name string) CityList {
	entry, err := r.ResolveCity(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrInvalidCity) {
			r.logger.Warn("city resolution failed", "city", name, "error", err)
		}
		return invalidCityList()
	}

	accepted := []string{entry.Name}
	normalized := []string{domain.Normalize(entry.Name)}

	places, err := r.geocoder.Nearby(ctx, entry.Lat, entry.Lon, r.nearbyCount)
	if err != nil {
		r.logger.Warn("nearby city lookup failed, using query city only", "city", entry.Name, "error", err)
		return CityList{Names: accepted, Valid: true}
	}

	for _, p := range places {
		city := strings.TrimSpace(p.Name)
		if city == "" || !lettersAndSpaces(city) {
			continue
		}
		norm := domain.Normalize(city)
		if norm == "" || nearDuplicate(norm, normalized) {
			continue
		}
		accepted = append(accepted, city)
		normalized = append(normalized, norm)
	}

	return CityList{Names: accepted, Valid: true}
}

// ReverseGeocode names the place at a position, preferring the first
// candidate that reports a population. It returns "" when nothing matched.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	places, err := r.geocoder.Reverse(ctx, lat, lon, DefaultReverseLimit)
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	for _, p := range places {
		if p.Population > 0 && p.Name != "" {
			return p.Name, nil
		}
	}
	for _, p := range places {
		if p.Name != "" {
			return p.Name, nil
		}
	}
	return "", nil
}

func lettersAndSpaces(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

func nearDuplicate(norm string, accepted []string) bool {
	for _, a := range accepted {
		if domain.AreSimilar(a, norm) || strings.Contains(a, norm) || strings.Contains(norm, a) {
			return true
		}
	}
	return false
}
