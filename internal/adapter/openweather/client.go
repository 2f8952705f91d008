// Package openweather talks to the OpenWeather geocoding and current-weather
// APIs. Client implements domain.Geocoder; Weather is the weather source adapter.
package openweather

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

// DefaultBaseURL is the public OpenWeather API root.
const DefaultBaseURL = "https://api.openweathermap.org"

// Fetcher retrieves and decodes a JSON document.
type Fetcher interface {
	GetJSON(ctx context.Context, rawURL string, out any) error
}

// Client implements domain.Geocoder using OpenWeather's geo and find endpoints.
type Client struct {
	fetcher Fetcher
	apiKey  string
	baseURL string
}

// NewClient creates an OpenWeather geocoding client. An empty baseURL uses
// DefaultBaseURL.
func NewClient(f Fetcher, apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{fetcher: f, apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/")}
}

// Direct resolves a place name via /geo/1.0/direct.
func (c *Client) Direct(ctx context.Context, name string, limit int) ([]domain.Place, error) {
	params := url.Values{
		"q":     {name},
		"limit": {strconv.Itoa(limit)},
		"appid": {c.apiKey},
	}
	var places []geoPlace
	if err := c.fetcher.GetJSON(ctx, c.endpoint("/geo/1.0/direct", params), &places); err != nil {
		return nil, fmt.Errorf("direct geocode: %w", err)
	}
	return toPlaces(places), nil
}

// Reverse lists places around a position via /geo/1.0/reverse.
func (c *Client) Reverse(ctx context.Context, lat, lon float64, limit int) ([]domain.Place, error) {
	params := url.Values{
		"lat":   {formatCoord(lat)},
		"lon":   {formatCoord(lon)},
		"limit": {strconv.Itoa(limit)},
		"appid": {c.apiKey},
	}
	var places []geoPlace
	if err := c.fetcher.GetJSON(ctx, c.endpoint("/geo/1.0/reverse", params), &places); err != nil {
		return nil, fmt.Errorf("reverse geocode: %w", err)
	}
	return toPlaces(places), nil
}

// Nearby lists up to count places around a position via /data/2.5/find.
func (c *Client) Nearby(ctx context.Context, lat, lon float64, count int) ([]domain.Place, error) {
	params := url.Values{
		"lat":   {formatCoord(lat)},
		"lon":   {formatCoord(lon)},
		"cnt":   {strconv.Itoa(count)},
		"appid": {c.apiKey},
	}
	var resp findResponse
	if err := c.fetcher.GetJSON(ctx, c.endpoint("/data/2.5/find", params), &resp); err != nil {
		return nil, fmt.Errorf("find nearby: %w", err)
	}

	out := make([]domain.Place, 0, len(resp.List))
	for _, e := range resp.List {
		out = append(out, domain.Place{
			Name:    e.Name,
			Lat:     e.Coord.Lat,
			Lon:     e.Coord.Lon,
			Country: e.Sys.Country,
		})
	}
	return out, nil
}

func (c *Client) endpoint(path string, params url.Values) string {
	return c.baseURL + path + "?" + params.Encode()
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func toPlaces(in []geoPlace) []domain.Place {
	out := make([]domain.Place, 0, len(in))
	for _, p := range in {
		out = append(out, domain.Place{
			Name:       p.Name,
			Lat:        p.Lat,
			Lon:        p.Lon,
			Country:    p.Country,
			Population: p.Population,
		})
	}
	return out
}

// OpenWeather API response types.

type geoPlace struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lon        float64 `json:"lon"`
	Country    string  `json:"country"`
	Population int     `json:"population"`
}

type coord struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type findResponse struct {
	List []struct {
		Name  string `json:"name"`
		Coord coord  `json:"coord"`
		Sys   struct {
			Country string `json:"country"`
		} `json:"sys"`
	} `json:"list"`
}

type weatherResponse struct {
	Name    string      `json:"name"`
	Coord   coord       `json:"coord"`
	Weather []condition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  float64 `json:"humidity"`
	} `json:"main"`
}

type condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}
