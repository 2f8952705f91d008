package reddit

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/fetch"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

const listingBody = `{"data":{"children":[
  {"data":{"title":"Massive earthquake hits northern Chile","selftext":"","url":"https://news.example/chile",
           "permalink":"/r/news/comments/abc/quake/","created_utc":1736294400,"ups":1520,"num_comments":310}},
  {"data":{"title":"Flood","selftext":"short","permalink":"/r/news/comments/def/flood/","created_utc":1736290000}},
  {"data":{"title":"Residents describe the wildfire evacuation","selftext":"We left at 3am.",
           "url":"https://reddit.com/r/news/comments/ghi/","permalink":"/r/news/comments/ghi/fire/","created_utc":1736200000.5}}
]}}`

func testAdapter(baseURL, subreddit string) *Adapter {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()
	f := fetch.NewClient(5*time.Second, logger, metrics, fetch.WithRetry(1, time.Millisecond))
	return New(f, baseURL, subreddit, logger, metrics)
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/r/news/search.json", r.URL.Path)
		assert.Equal(t, domain.GlobalKeywords, q.Get("q"))
		assert.Equal(t, "true", q.Get("restrict_sr"))
		assert.Equal(t, "new", q.Get("sort"))
		assert.Equal(t, "15", q.Get("limit"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		_, _ = io.WriteString(w, listingBody)
	}))
	defer srv.Close()

	reports := testAdapter(srv.URL, "").Fetch(context.Background(), domain.Query{Location: "Santiago"})
	require.Len(t, reports, 2)

	quake := reports[0]
	assert.Equal(t, domain.SourceSocial, quake.Source)
	assert.Equal(t, "https://news.example/chile", quake.Description, "link posts describe with their URL")
	assert.Equal(t, "https://reddit.com/r/news/comments/abc/quake/", quake.URL)
	assert.Equal(t, time.Unix(1736294400, 0).UTC(), quake.Date)
	assert.Equal(t, 1520, quake.Upvotes)
	assert.Equal(t, 310, quake.Comments)
	assert.Nil(t, quake.Coordinates)

	assert.Equal(t, "We left at 3am.", reports[1].Description)
}

func TestFetch_CustomSubreddit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/r/worldnews/search.json", r.URL.Path)
		_, _ = io.WriteString(w, `{"data":{"children":[]}}`)
	}))
	defer srv.Close()

	assert.Empty(t, testAdapter(srv.URL, "worldnews").Fetch(context.Background(), domain.Query{}))
}

func TestFetch_ProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	assert.Empty(t, testAdapter(srv.URL, "").Fetch(context.Background(), domain.Query{}))
}

func TestFromUnix(t *testing.T) {
	assert.True(t, fromUnix(0).IsZero())
	assert.Equal(t, time.Unix(10, 500_000_000).UTC(), fromUnix(10.5))
}
