package aggregator

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/geo"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

var baseTime = time.Date(2025, time.January, 8, 12, 0, 0, 0, time.UTC)

// --- fakes ---

type fakeAdapter struct {
	source  domain.Source
	reports []domain.Report
	byQuery map[string][]domain.Report
	panics  bool

	mu      sync.Mutex
	queries []domain.Query
}

func (f *fakeAdapter) Source() domain.Source { return f.source }

func (f *fakeAdapter) Fetch(_ context.Context, q domain.Query) []domain.Report {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	if f.panics {
		panic("adapter exploded")
	}
	if f.byQuery != nil {
		return f.byQuery[q.Terms()]
	}
	return f.reports
}

func (f *fakeAdapter) calls() []domain.Query {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Query(nil), f.queries...)
}

type fakeResolver struct {
	lists map[string]geo.CityList
	calls int
}

func (f *fakeResolver) NearbyCities(_ context.Context, name string) geo.CityList {
	f.calls++
	if l, ok := f.lists[name]; ok {
		return l
	}
	return geo.CityList{Names: []string{domain.InvalidCitySentinel}}
}

type recordingQueue struct {
	inner TaskQueue
	runs  []int
}

func (q *recordingQueue) Run(ctx context.Context, tasks []Task) {
	q.runs = append(q.runs, len(tasks))
	q.inner.Run(ctx, tasks)
}

type fakeArchive struct {
	saved [][]domain.Report
	err   error
}

func (f *fakeArchive) SaveReports(_ context.Context, _ string, reports []domain.Report) error {
	f.saved = append(f.saved, reports)
	return f.err
}

func report(source domain.Source, title, desc, url string, age time.Duration) domain.Report {
	return domain.Report{
		ID:          string(source) + ":" + title,
		Source:      source,
		Title:       title,
		Description: desc,
		URL:         url,
		Date:        baseTime.Add(-age),
		Severity:    domain.SeverityLow,
	}
}

type fixture struct {
	weather, news, social, federal *fakeAdapter
	resolver                       *fakeResolver
	queue                          *recordingQueue
	archive                        *fakeArchive
	agg                            *Aggregator
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(baseTime))
	t.Cleanup(func() { domain.SetClock(nil) })

	f := &fixture{
		weather:  &fakeAdapter{source: domain.SourceWeather},
		news:     &fakeAdapter{source: domain.SourceNews},
		social:   &fakeAdapter{source: domain.SourceSocial},
		federal:  &fakeAdapter{source: domain.SourceFederal},
		resolver: &fakeResolver{lists: map[string]geo.CityList{}},
		queue:    &recordingQueue{inner: NewSerialQueue(0, nil)},
		archive:  &fakeArchive{},
	}
	f.agg = New(
		Sources{Weather: f.weather, News: f.news, Social: f.social, Federal: f.federal},
		f.resolver,
		f.queue,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NewMetricsForTesting(),
		WithArchive(f.archive),
		WithRunIDs(func() string { return "run-1" }),
	)
	return f
}

// --- AggregateGlobal ---

func TestAggregateGlobal(t *testing.T) {
	f := newFixture(t)
	f.news.reports = []domain.Report{
		report(domain.SourceNews, "Earthquake rattles Tokyo suburbs", "", "https://n/1", 3*time.Hour),
		report(domain.SourceNews, "Hurricane makes landfall in Florida", "", "https://n/2", time.Hour),
	}
	f.social.reports = []domain.Report{
		report(domain.SourceSocial, "The earthquake rattles Tokyo suburbs!", "", "https://r/1", 2*time.Hour),
		report(domain.SourceSocial, "Volunteers needed after flooding", "", "https://n/2", 30*time.Minute),
	}
	f.federal.reports = []domain.Report{
		report(domain.SourceFederal, "Fire in CA", "", "https://fema/1", 10*time.Minute),
	}

	res := f.agg.AggregateGlobal(context.Background())

	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.True(t, res.Global)
	assert.Equal(t, "run-1", res.RunID)
	assert.Equal(t, baseTime, res.Timestamp)
	assert.Len(t, res.AllReports, 5)

	titles := titlesOf(res.GenuineReports)
	assert.Equal(t, []string{
		"Fire in CA",
		"Hurricane makes landfall in Florida",
		"Earthquake rattles Tokyo suburbs",
	}, titles, "duplicates by title and URL removed, newest first")

	assert.Empty(t, f.weather.calls(), "weather has no global view")
	require.Len(t, f.news.calls(), 1)
	assert.Equal(t, domain.GlobalKeywords, f.news.calls()[0].Terms())
	assert.Zero(t, f.resolver.calls)
	assert.Empty(t, f.archive.saved)
}

// --- AggregateForLocation ---

func TestAggregateForLocation_TwoPassSelection(t *testing.T) {
	f := newFixture(t)
	f.resolver.lists["LA"] = geo.CityList{Names: []string{"Los Angeles", "Pasadena"}, Valid: true}

	f.news.byQuery = map[string][]domain.Report{
		"LA": {
			report(domain.SourceNews, "Wildfire spreads across Los Angeles hills", "", "https://n/la", 5*time.Hour),
			report(domain.SourceNews, "Stock markets close higher today", "", "https://n/stocks", time.Hour),
		},
		"Los Angeles": {
			report(domain.SourceNews, "LA hills wildfire spreading fast", "Crews struggle.", "https://n/la2", 2*time.Hour),
		},
		"Pasadena": {
			report(domain.SourceNews, "Evacuations ordered near the Rose Bowl", "Pasadena residents told to leave.", "https://n/pas", 4*time.Hour),
		},
	}
	f.social.reports = []domain.Report{
		report(domain.SourceSocial, "Wildfire spreads across Los Angeles hills", "dup title", "https://r/dup", time.Minute),
	}
	f.federal.reports = []domain.Report{
		report(domain.SourceFederal, "Fire in CA", "WILDFIRES", "https://fema/4856", 30*time.Minute),
	}
	weather := report(domain.SourceWeather, "Clear in Los Angeles", "clear sky", "", 0)
	weather.Coordinates = &domain.Coordinates{Lat: 34.05, Lon: -118.24}
	f.weather.reports = []domain.Report{weather}

	res := f.agg.AggregateForLocation(context.Background(), "  LA ")

	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Equal(t, "LA", res.SearchedLocation)
	assert.Equal(t, []string{"Los Angeles", "Pasadena"}, res.NearbyCities)
	assert.Len(t, res.AllReports, 7)

	type row struct {
		Title    string
		Relevant bool
		Matched  string
	}
	var got []row
	for _, r := range res.GenuineReports {
		got = append(got, row{r.Title, r.IsLocationRelevant, r.MatchedLocation})
	}
	want := []row{
		{"Clear in Los Angeles", true, "Los Angeles"},
		{"Evacuations ordered near the Rose Bowl", true, "Pasadena"},
		{"Wildfire spreads across Los Angeles hills", true, "Los Angeles"},
		{"LA hills wildfire spreading fast", false, "LA"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("genuine reports mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, f.archive.saved, 1)
	assert.Len(t, f.archive.saved[0], 4)
}

func TestAggregateForLocation_CityNewsQueued(t *testing.T) {
	f := newFixture(t)
	f.resolver.lists["Paris"] = geo.CityList{Names: []string{"Paris", "Versailles", "Saint Denis"}, Valid: true}

	f.agg.AggregateForLocation(context.Background(), "Paris")

	require.Equal(t, []int{2}, f.queue.runs, "the query city is not queried twice")
	var terms []string
	for _, q := range f.news.calls() {
		terms = append(terms, q.Terms())
	}
	assert.ElementsMatch(t, []string{"Paris", "Versailles", "Saint Denis"}, terms)

	require.Len(t, f.weather.calls(), 1)
	assert.Equal(t, "Paris", f.weather.calls()[0].Location)
	require.Len(t, f.social.calls(), 1)
	require.Len(t, f.federal.calls(), 1)
}

func TestAggregateForLocation_InvalidCity(t *testing.T) {
	f := newFixture(t)

	res := f.agg.AggregateForLocation(context.Background(), "NoSuchPlaceXYZ")

	assert.Equal(t, domain.StatusInvalidCity, res.Status)
	assert.Equal(t, []string{domain.InvalidCitySentinel}, res.NearbyCities)
	assert.Equal(t, domain.InvalidCitySentinel, res.Error)
	assert.NotNil(t, res.GenuineReports)
	assert.Empty(t, res.GenuineReports)
	assert.Empty(t, res.AllReports)

	for _, a := range []*fakeAdapter{f.weather, f.news, f.social, f.federal} {
		assert.Empty(t, a.calls(), "no provider calls for %s", a.source)
	}
	assert.Empty(t, f.queue.runs)
}

func TestAggregateForLocation_FederalDown(t *testing.T) {
	f := newFixture(t)
	f.resolver.lists["Houston"] = geo.CityList{Names: []string{"Houston"}, Valid: true}
	f.federal.panics = true
	f.news.reports = []domain.Report{
		report(domain.SourceNews, "Flooding closes Houston freeways", "", "https://n/hou", time.Hour),
	}

	res := f.agg.AggregateForLocation(context.Background(), "Houston")

	assert.Equal(t, domain.StatusSuccess, res.Status)
	require.NotEmpty(t, res.GenuineReports)
	assert.Equal(t, "Flooding closes Houston freeways", res.GenuineReports[0].Title)
}

func TestAggregateForLocation_ArchiveFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.archive.err = errors.New("disk full")
	f.resolver.lists["Reno"] = geo.CityList{Names: []string{"Reno"}, Valid: true}
	f.news.reports = []domain.Report{report(domain.SourceNews, "Reno snowstorm closes I-80", "", "", time.Hour)}

	res := f.agg.AggregateForLocation(context.Background(), "Reno")
	assert.Equal(t, domain.StatusSuccess, res.Status)
	assert.Len(t, res.GenuineReports, 1)
}

func TestAggregateForLocation_DedupSoundness(t *testing.T) {
	f := newFixture(t)
	f.resolver.lists["Tokyo"] = geo.CityList{Names: []string{"Tokyo", "Yokohama"}, Valid: true}
	f.news.reports = []domain.Report{
		report(domain.SourceNews, "Tokyo earthquake damage report", "", "https://x/1", time.Hour),
		report(domain.SourceNews, "Yokohama port closed by typhoon", "", "https://x/1", 2*time.Hour),
		report(domain.SourceNews, "tokyo EARTHQUAKE damage report", "", "https://x/2", 3*time.Hour),
	}
	f.social.reports = f.news.reports

	res := f.agg.AggregateForLocation(context.Background(), "Tokyo")

	titles := map[string]bool{}
	urls := map[string]bool{}
	for _, r := range res.GenuineReports {
		key := domain.Normalize(r.Title)
		assert.False(t, titles[key], "duplicate title %q", r.Title)
		titles[key] = true
		if r.URL != "" {
			assert.False(t, urls[r.URL], "duplicate url %q", r.URL)
			urls[r.URL] = true
		}
	}
	assert.Len(t, res.GenuineReports, 1)
}

func TestSerialQueue_DelaysBetweenTasks(t *testing.T) {
	clk := clockwork.NewFakeClock()
	q := NewSerialQueue(time.Second, clk)

	var (
		mu    sync.Mutex
		order []int
	)
	task := func(i int) Task {
		return func(context.Context) {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
		}
	}
	ran := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(order)
	}

	done := make(chan struct{})
	go func() {
		q.Run(context.Background(), []Task{task(0), task(1), task(2)})
		close(done)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, clk.BlockUntilContext(ctx, 1))
	assert.Equal(t, 1, ran(), "first task runs immediately")
	clk.Advance(time.Second)

	require.NoError(t, clk.BlockUntilContext(ctx, 1))
	assert.Equal(t, 2, ran())
	clk.Advance(time.Second)

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("queue did not finish")
	}
	assert.Equal(t, []int{0, 1, 2}, order)
}

func TestSerialQueue_StopsOnCancel(t *testing.T) {
	clk := clockwork.NewFakeClock()
	q := NewSerialQueue(time.Minute, clk)

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	done := make(chan struct{})
	go func() {
		q.Run(ctx, []Task{
			func(context.Context) { count++ },
			func(context.Context) { count++ },
		})
		close(done)
	}()

	waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer waitCancel()
	require.NoError(t, clk.BlockUntilContext(waitCtx, 1))
	cancel()
	<-done
	assert.Equal(t, 1, count)
}

func titlesOf(reports []domain.Report) []string {
	out := make([]string, len(reports))
	for i, r := range reports {
		out[i] = r.Title
	}
	return out
}
