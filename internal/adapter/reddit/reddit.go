// Package reddit is the social-discussion source adapter: a keyword search
// restricted to one subreddit, newest first.
package reddit

import (
	"context"
	"log/slog"
	"math"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

// Defaults for the search venue.
const (
	DefaultBaseURL   = "https://www.reddit.com"
	DefaultSubreddit = "news"
	// permalinkHost prefixes post permalinks in reports.
	permalinkHost = "https://reddit.com"
	resultLimit   = 15
)

// Fetcher retrieves and decodes a JSON document.
type Fetcher interface {
	GetJSON(ctx context.Context, rawURL string, out any) error
}

// Adapter searches one subreddit for disaster discussion.
type Adapter struct {
	fetcher   Fetcher
	baseURL   string
	subreddit string
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates the social adapter. Empty baseURL or subreddit use the defaults.
func New(f Fetcher, baseURL, subreddit string, logger *slog.Logger, metrics *observability.Metrics) *Adapter {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if subreddit == "" {
		subreddit = DefaultSubreddit
	}
	return &Adapter{
		fetcher:   f,
		baseURL:   strings.TrimRight(baseURL, "/"),
		subreddit: subreddit,
		logger:    logger,
		metrics:   metrics,
	}
}

// Source implements domain.SourceAdapter.
func (a *Adapter) Source() domain.Source {
	return domain.SourceSocial
}

// Fetch implements domain.SourceAdapter. The search always uses disaster
// keywords, never the location: relevance is decided by the aggregator.
func (a *Adapter) Fetch(ctx context.Context, q domain.Query) []domain.Report {
	keywords := q.Keywords
	if keywords == "" {
		keywords = domain.GlobalKeywords
	}
	params := url.Values{
		"q":           {keywords},
		"restrict_sr": {"true"},
		"sort":        {"new"},
		"limit":       {strconv.Itoa(resultLimit)},
	}
	rawURL := a.baseURL + "/r/" + url.PathEscape(a.subreddit) + "/search.json?" + params.Encode()

	var resp listing
	if err := a.fetcher.GetJSON(ctx, rawURL, &resp); err != nil {
		a.logger.Warn("reddit fetch failed", "source", domain.SourceSocial, "subreddit", a.subreddit, "error", err)
		a.metrics.AdapterFailures.WithLabelValues(string(domain.SourceSocial)).Inc()
		return nil
	}

	reports := make([]domain.Report, 0, len(resp.Data.Children))
	for _, child := range resp.Data.Children {
		if r, ok := toReport(child.Data); ok {
			reports = append(reports, r)
		}
	}
	a.metrics.AdapterReports.WithLabelValues(string(domain.SourceSocial)).Add(float64(len(reports)))
	return reports
}

func toReport(p post) (domain.Report, bool) {
	description := p.Selftext
	if description == "" {
		description = p.URL
	}
	link := ""
	if p.Permalink != "" {
		link = permalinkHost + p.Permalink
	}
	return domain.PrepareReport(domain.Report{
		Source:      domain.SourceSocial,
		Title:       p.Title,
		Description: description,
		URL:         link,
		Date:        fromUnix(p.CreatedUTC),
		Upvotes:     p.Ups,
		Comments:    p.NumComments,
	})
}

func fromUnix(seconds float64) time.Time {
	if seconds <= 0 {
		return time.Time{}
	}
	whole, frac := math.Modf(seconds)
	return time.Unix(int64(whole), int64(frac*1e9)).UTC()
}

// Reddit listing response types.

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	CreatedUTC  float64 `json:"created_utc"`
	Ups         int     `json:"ups"`
	NumComments int     `json:"num_comments"`
}
