// Package fema is the federal-declarations source adapter backed by the
// OpenFEMA DisasterDeclarationsSummaries dataset.
package fema

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

// DefaultBaseURL is the public OpenFEMA root.
const DefaultBaseURL = "https://www.fema.gov"

const (
	datasetPath = "/api/open/v2/DisasterDeclarationsSummaries"
	window      = 30 * 24 * time.Hour
	// disasterPage is the public landing page of a declaration.
	disasterPage = "https://www.fema.gov/disaster/%d"
)

// Fetcher retrieves and decodes a JSON document.
type Fetcher interface {
	GetJSON(ctx context.Context, rawURL string, out any) error
}

// Adapter reads recent federal disaster declarations.
type Adapter struct {
	fetcher Fetcher
	baseURL string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates the federal adapter. An empty baseURL uses DefaultBaseURL.
func New(f Fetcher, baseURL string, logger *slog.Logger, metrics *observability.Metrics) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Adapter{
		fetcher: f,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		metrics: metrics,
	}
}

// Source implements domain.SourceAdapter.
func (a *Adapter) Source() domain.Source {
	return domain.SourceFederal
}

// Fetch implements domain.SourceAdapter. The query is ignored: declarations
// are national and matched to locations by the aggregator.
func (a *Adapter) Fetch(ctx context.Context, _ domain.Query) []domain.Report {
	now := domain.Now().UTC()
	cutoff := now.Add(-window)

	var resp response
	if err := a.fetcher.GetJSON(ctx, a.feedURL(cutoff), &resp); err != nil {
		a.logger.Warn("fema fetch failed", "source", domain.SourceFederal, "error", err)
		a.metrics.AdapterFailures.WithLabelValues(string(domain.SourceFederal)).Inc()
		return nil
	}

	reports := make([]domain.Report, 0, len(resp.Declarations))
	for _, d := range resp.Declarations {
		declared := domain.ParseTimestamp(d.DeclarationDate)
		if declared.IsZero() || !declared.After(cutoff) {
			continue
		}
		if r, ok := toReport(d, declared); ok {
			reports = append(reports, r)
		}
	}
	a.metrics.AdapterReports.WithLabelValues(string(domain.SourceFederal)).Add(float64(len(reports)))
	return reports
}

// feedURL asks the server for the recent window newest first; Fetch still
// applies the window itself.
func (a *Adapter) feedURL(cutoff time.Time) string {
	params := url.Values{
		"$filter":  {fmt.Sprintf("declarationDate gt '%s'", cutoff.Format(time.RFC3339))},
		"$orderby": {"declarationDate desc"},
	}
	return a.baseURL + datasetPath + "?" + params.Encode()
}

func toReport(d declaration, declared time.Time) (domain.Report, bool) {
	link := ""
	if d.DisasterNumber > 0 {
		link = fmt.Sprintf(disasterPage, d.DisasterNumber)
	}
	return domain.PrepareReport(domain.Report{
		Source:      domain.SourceFederal,
		Title:       fmt.Sprintf("%s in %s", d.IncidentType, d.State),
		Description: d.DeclarationTitle,
		URL:         link,
		Date:        declared,
		Location:    fmt.Sprintf("%s, %s", d.State, d.DesignatedArea),
		Severity:    Classify(d.IncidentType),
	})
}

// Classify maps an incident type to a severity.
func Classify(incidentType string) domain.Severity {
	switch incidentType {
	case "Fire", "Tornado", "Hurricane":
		return domain.SeverityHigh
	case "Flood", "Earthquake":
		return domain.SeverityMedium
	default:
		return domain.SeverityLow
	}
}

// OpenFEMA response types.

type response struct {
	Declarations []declaration `json:"DisasterDeclarationsSummaries"`
}

type declaration struct {
	DisasterNumber   int    `json:"disasterNumber"`
	IncidentType     string `json:"incidentType"`
	State            string `json:"state"`
	DesignatedArea   string `json:"designatedArea"`
	DeclarationTitle string `json:"declarationTitle"`
	DeclarationDate  string `json:"declarationDate"`
}
