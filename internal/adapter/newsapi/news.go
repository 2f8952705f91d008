// Package newsapi is the news source adapter backed by NewsAPI's
// /v2/everything full-text search.
package newsapi

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

// DefaultBaseURL is the public NewsAPI root.
const DefaultBaseURL = "https://newsapi.org"

const (
	// disasterFilter narrows every search to disaster coverage.
	disasterFilter = "(disaster OR flood OR wildfire OR storm OR earthquake)"
	window         = 7 * 24 * time.Hour
	snippetLength  = 200
	dateLayout     = "2006-01-02"
)

// Fetcher retrieves and decodes a JSON document.
type Fetcher interface {
	GetJSON(ctx context.Context, rawURL string, out any) error
}

// Adapter searches recent news articles.
type Adapter struct {
	fetcher Fetcher
	apiKey  string
	baseURL string
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates the news adapter. An empty baseURL uses DefaultBaseURL.
func New(f Fetcher, apiKey, baseURL string, logger *slog.Logger, metrics *observability.Metrics) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Adapter{
		fetcher: f,
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		metrics: metrics,
	}
}

// Source implements domain.SourceAdapter.
func (a *Adapter) Source() domain.Source {
	return domain.SourceNews
}

// Fetch implements domain.SourceAdapter. It searches q.Terms() combined with
// the disaster filter over the trailing seven days, most relevant first.
func (a *Adapter) Fetch(ctx context.Context, q domain.Query) []domain.Report {
	terms := q.Terms()
	rawURL := a.searchURL(terms, domain.Now())

	var resp response
	if err := a.fetcher.GetJSON(ctx, rawURL, &resp); err != nil {
		a.logger.Warn("news fetch failed", "source", domain.SourceNews, "query", terms, "error", err)
		a.metrics.AdapterFailures.WithLabelValues(string(domain.SourceNews)).Inc()
		return nil
	}

	reports := make([]domain.Report, 0, len(resp.Articles))
	for _, art := range resp.Articles {
		r, ok := domain.PrepareReport(domain.Report{
			Source:      domain.SourceNews,
			Title:       art.Title,
			Description: describe(art),
			URL:         art.URL,
			Date:        domain.ParseTimestamp(art.PublishedAt),
			Author:      art.Source.Name,
			ImageURL:    art.URLToImage,
		})
		if !ok {
			continue
		}
		reports = append(reports, r)
	}
	a.metrics.AdapterReports.WithLabelValues(string(domain.SourceNews)).Add(float64(len(reports)))
	return reports
}

// SearchQuery is the full-text query sent for terms.
func SearchQuery(terms string) string {
	return fmt.Sprintf("%s AND %s", terms, disasterFilter)
}

func (a *Adapter) searchURL(terms string, now time.Time) string {
	now = now.UTC()
	params := url.Values{
		"q":      {SearchQuery(terms)},
		"from":   {now.Add(-window).Format(dateLayout)},
		"to":     {now.Format(dateLayout)},
		"sortBy": {"relevancy"},
		"apiKey": {a.apiKey},
	}
	return a.baseURL + "/v2/everything?" + params.Encode()
}

// describe falls back to the first 200 characters of the content.
func describe(art article) string {
	if art.Description != "" {
		return art.Description
	}
	content := []rune(art.Content)
	if len(content) > snippetLength {
		content = content[:snippetLength]
	}
	return string(content)
}

// NewsAPI response types.

type response struct {
	Status   string    `json:"status"`
	Articles []article `json:"articles"`
}

type article struct {
	Source struct {
		Name string `json:"name"`
	} `json:"source"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	URLToImage  string `json:"urlToImage"`
	PublishedAt string `json:"publishedAt"`
	Content     string `json:"content"`
}
