// Package aggregator fans out to the source adapters, merges their reports,
// and selects the deduplicated, location-scored subset for a query.
package aggregator

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/geo"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

// Run kinds used as metric labels.
const (
	kindGlobal   = "global"
	kindLocation = "location"
)

// CityResolver expands a query into nearby city names.
type CityResolver interface {
	NearbyCities(ctx context.Context, name string) geo.CityList
}

// Archive records genuine reports of completed runs.
type Archive interface {
	SaveReports(ctx context.Context, runID string, reports []domain.Report) error
}

// Sources groups the adapters by role. Any of them may be nil.
type Sources struct {
	Weather domain.SourceAdapter
	News    domain.SourceAdapter
	Social  domain.SourceAdapter
	Federal domain.SourceAdapter
}

// Aggregator orchestrates one aggregation run per call. It holds no
// per-run state and is safe for concurrent use.
type Aggregator struct {
	sources  Sources
	resolver CityResolver
	queue    TaskQueue
	archive  Archive
	logger   *slog.Logger
	metrics  *observability.Metrics
	newRunID func() string
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithArchive records genuine reports of every location run.
func WithArchive(a Archive) Option {
	return func(ag *Aggregator) { ag.archive = a }
}

// WithRunIDs overrides run ID generation.
func WithRunIDs(f func() string) Option {
	return func(ag *Aggregator) { ag.newRunID = f }
}

// New creates an Aggregator. queue serializes the per-city news queries.
func New(sources Sources, resolver CityResolver, queue TaskQueue, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Aggregator {
	a := &Aggregator{
		sources:  sources,
		resolver: resolver,
		queue:    queue,
		logger:   logger,
		metrics:  metrics,
		newRunID: uuid.NewString,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// AggregateGlobal fetches social, federal, and keyword news in parallel and
// returns them deduplicated and newest first. There is no location scoring.
func (a *Aggregator) AggregateGlobal(ctx context.Context) (res domain.AggregationResult) {
	runID := a.newRunID()
	start := domain.Now()
	defer a.recoverRun(kindGlobal, runID, "", start, &res)

	global := domain.Query{Keywords: domain.GlobalKeywords}
	batches := a.fanOut(ctx, []sourceCall{
		{a.sources.News, global},
		{a.sources.Social, global},
		{a.sources.Federal, global},
	})

	all := flatten(batches...)
	unique := domain.Dedup(all, domain.ExactKey)
	slices.SortStableFunc(unique, newestFirst)

	res = domain.AggregationResult{
		RunID:          runID,
		Timestamp:      start.UTC(),
		Global:         true,
		NearbyCities:   []string{},
		AllReports:     all,
		GenuineReports: unique,
		Status:         domain.StatusSuccess,
	}
	a.finish(kindGlobal, start, res)
	return res
}

// AggregateForLocation expands location into nearby cities, fetches every
// source concurrently while news for each nearby city runs through the
// rate-limited queue, and selects the genuine reports. An unresolvable
// location returns an empty invalid_city result without any source calls.
func (a *Aggregator) AggregateForLocation(ctx context.Context, location string) (res domain.AggregationResult) {
	runID := a.newRunID()
	start := domain.Now()
	location = strings.TrimSpace(location)
	defer a.recoverRun(kindLocation, runID, location, start, &res)

	cities := a.resolver.NearbyCities(ctx, location)
	if !cities.Valid {
		a.logger.Info("location not resolvable", "run_id", runID, "location", location)
		res = domain.EmptyResult(runID, location, start.UTC(), domain.StatusInvalidCity)
		res.NearbyCities = cities.Names
		res.Error = domain.InvalidCitySentinel
		a.finish(kindLocation, start, res)
		return res
	}

	local := domain.Query{Location: location}
	calls := []sourceCall{
		{a.sources.News, local},
		{a.sources.Social, domain.Query{}},
		{a.sources.Federal, domain.Query{}},
		{a.sources.Weather, local},
	}

	var (
		batches  [][]domain.Report
		cityNews [][]domain.Report
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		batches = a.fanOut(gctx, calls)
		return nil
	})
	g.Go(func() error {
		cityNews = a.fetchCityNews(gctx, location, cities.Names)
		return nil
	})
	_ = g.Wait()

	// Merge order decides which duplicate survives: query news, city news,
	// social, federal, weather.
	all := flatten(batches[0])
	all = append(all, flatten(cityNews...)...)
	all = append(all, flatten(batches[1:]...)...)

	genuine := selectGenuine(all, cities.Names, location)
	genuine = domain.Dedup(genuine, domain.ExactKey)
	slices.SortStableFunc(genuine, byRelevanceThenDate)

	res = domain.AggregationResult{
		RunID:            runID,
		Timestamp:        start.UTC(),
		SearchedLocation: location,
		NearbyCities:     cities.Names,
		AllReports:       all,
		GenuineReports:   genuine,
		Status:           domain.StatusSuccess,
	}
	a.metrics.GenuineReports.Observe(float64(len(genuine)))
	a.save(ctx, runID, genuine)
	a.finish(kindLocation, start, res)
	return res
}

type sourceCall struct {
	adapter domain.SourceAdapter
	query   domain.Query
}

// fanOut runs every call concurrently and returns their reports in call
// order. A nil adapter or a panicking one contributes nothing.
func (a *Aggregator) fanOut(ctx context.Context, calls []sourceCall) [][]domain.Report {
	out := make([][]domain.Report, len(calls))
	var g errgroup.Group
	for i, c := range calls {
		g.Go(func() error {
			out[i] = a.collect(ctx, c.adapter, c.query)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// fetchCityNews queries news for every nearby city except the query itself,
// one at a time through the queue.
func (a *Aggregator) fetchCityNews(ctx context.Context, location string, cities []string) [][]domain.Report {
	if a.sources.News == nil {
		return nil
	}

	var (
		mu      sync.Mutex
		results = make([][]domain.Report, 0, len(cities))
		tasks   = make([]Task, 0, len(cities))
	)
	for _, city := range cities {
		if strings.EqualFold(city, location) {
			continue
		}
		tasks = append(tasks, func(ctx context.Context) {
			reports := a.collect(ctx, a.sources.News, domain.Query{Location: city})
			mu.Lock()
			results = append(results, reports)
			mu.Unlock()
		})
	}
	a.queue.Run(ctx, tasks)

	mu.Lock()
	defer mu.Unlock()
	return results
}

func (a *Aggregator) collect(ctx context.Context, adapter domain.SourceAdapter, q domain.Query) (reports []domain.Report) {
	if adapter == nil {
		return nil
	}
	defer func() {
		if rec := recover(); rec != nil {
			a.logger.Error("source adapter panicked", "source", adapter.Source(), "panic", rec)
			a.metrics.AdapterFailures.WithLabelValues(string(adapter.Source())).Inc()
			reports = nil
		}
	}()
	return adapter.Fetch(ctx, q)
}

func (a *Aggregator) save(ctx context.Context, runID string, genuine []domain.Report) {
	if a.archive == nil || len(genuine) == 0 {
		return
	}
	if err := a.archive.SaveReports(ctx, runID, genuine); err != nil {
		a.logger.Warn("archive genuine reports failed", "run_id", runID, "error", err)
		a.metrics.ArchiveWrites.WithLabelValues("error").Inc()
		return
	}
	a.metrics.ArchiveWrites.WithLabelValues("success").Inc()
}

func (a *Aggregator) finish(kind string, start time.Time, res domain.AggregationResult) {
	elapsed := domain.Now().Sub(start)
	a.metrics.AggregationRuns.WithLabelValues(kind, string(res.Status)).Inc()
	a.metrics.AggregationDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
	a.logger.Info("aggregation complete",
		"run_id", res.RunID,
		"kind", kind,
		"location", res.SearchedLocation,
		"status", res.Status,
		"nearby_cities", len(res.NearbyCities),
		"all_reports", len(res.AllReports),
		"genuine_reports", len(res.GenuineReports),
		"duration", elapsed,
	)
}

// recoverRun turns a panic in orchestration into an error result.
func (a *Aggregator) recoverRun(kind, runID, location string, start time.Time, res *domain.AggregationResult) {
	rec := recover()
	if rec == nil {
		return
	}
	a.logger.Error("aggregation panicked", "run_id", runID, "kind", kind, "location", location, "panic", rec)
	*res = domain.EmptyResult(runID, location, start.UTC(), domain.StatusError)
	res.Global = kind == kindGlobal
	res.Error = fmt.Sprintf("aggregation failed: %v", rec)
	a.metrics.AggregationRuns.WithLabelValues(kind, string(domain.StatusError)).Inc()
}
