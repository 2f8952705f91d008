package openweather

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

// severeConditions is matched as a substring of each condition's main group.
var severeConditions = []string{
	"Thunderstorm",
	"Tornado",
	"Hurricane",
	"Extreme",
	"Blizzard",
	"Heavy Rain",
	"Heavy Snow",
	"Hail",
	"Freezing Rain",
}

// Weather reports current conditions for a location as at most one report.
type Weather struct {
	fetcher Fetcher
	apiKey  string
	baseURL string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewWeather creates the weather source adapter.
func NewWeather(f Fetcher, apiKey, baseURL string, logger *slog.Logger, metrics *observability.Metrics) *Weather {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Weather{
		fetcher: f,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		metrics: metrics,
	}
}

// Source implements domain.SourceAdapter.
func (w *Weather) Source() domain.Source {
	return domain.SourceWeather
}

// Fetch implements domain.SourceAdapter. Global queries yield nothing.
func (w *Weather) Fetch(ctx context.Context, q domain.Query) []domain.Report {
	if q.Location == "" {
		return nil
	}

	params := url.Values{
		"q":     {q.Location},
		"appid": {w.apiKey},
		"units": {"metric"},
	}
	var resp weatherResponse
	if err := w.fetcher.GetJSON(ctx, w.baseURL+"/data/2.5/weather?"+params.Encode(), &resp); err != nil {
		w.logger.Warn("weather fetch failed", "source", domain.SourceWeather, "location", q.Location, "error", err)
		w.metrics.AdapterFailures.WithLabelValues(string(domain.SourceWeather)).Inc()
		return nil
	}

	r, ok := toReport(resp)
	if !ok {
		w.logger.Warn("weather response without conditions", "location", q.Location)
		return nil
	}
	w.metrics.AdapterReports.WithLabelValues(string(domain.SourceWeather)).Inc()
	return []domain.Report{r}
}

func toReport(resp weatherResponse) (domain.Report, bool) {
	if len(resp.Weather) == 0 || resp.Name == "" {
		return domain.Report{}, false
	}

	primary := resp.Weather[0]
	temp, feels, humidity := resp.Main.Temp, resp.Main.FeelsLike, resp.Main.Humidity

	return domain.PrepareReport(domain.Report{
		Source: domain.SourceWeather,
		Title:  fmt.Sprintf("%s in %s", primary.Main, resp.Name),
		Description: fmt.Sprintf("%s. Temp: %s°C (Feels like %s°C)",
			primary.Description, formatTemp(temp), formatTemp(feels)),
		Location:     resp.Name,
		Coordinates:  &domain.Coordinates{Lat: resp.Coord.Lat, Lon: resp.Coord.Lon},
		Severity:     classify(resp.Weather),
		TemperatureC: &temp,
		FeelsLikeC:   &feels,
		Humidity:     &humidity,
		Icon:         primary.Icon,
	})
}

// classify is high when any condition names a severe phenomenon.
func classify(conditions []condition) domain.Severity {
	for _, c := range conditions {
		for _, severe := range severeConditions {
			if strings.Contains(c.Main, severe) {
				return domain.SeverityHigh
			}
		}
	}
	return domain.SeverityLow
}

func formatTemp(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
