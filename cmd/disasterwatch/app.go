package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/disaster-alert-service/internal/adapter/fema"
	"github.com/couchcryptid/disaster-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-alert-service/internal/adapter/newsapi"
	"github.com/couchcryptid/disaster-alert-service/internal/adapter/openweather"
	"github.com/couchcryptid/disaster-alert-service/internal/adapter/reddit"
	"github.com/couchcryptid/disaster-alert-service/internal/adapter/sqlite"
	"github.com/couchcryptid/disaster-alert-service/internal/aggregator"
	"github.com/couchcryptid/disaster-alert-service/internal/alert"
	"github.com/couchcryptid/disaster-alert-service/internal/config"
	"github.com/couchcryptid/disaster-alert-service/internal/fetch"
	"github.com/couchcryptid/disaster-alert-service/internal/geo"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

// app holds the wired components shared by every command.
type app struct {
	cfg        *config.Config
	logger     *slog.Logger
	metrics    *observability.Metrics
	resolver   *geo.Resolver
	aggregator *aggregator.Aggregator
	engine     *alert.Engine
	archive    *sqlite.Archive
	closers    []io.Closer
}

type appOptions struct {
	// useKafka allows the configured Kafka notifier; one-shot commands
	// always log notifications instead.
	useKafka bool
	// archive opens the report archive when enabled in config.
	archive bool
}

// loadApp reads configuration and builds the logger and metrics.
func loadApp() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.RequireProviderKeys(); err != nil {
		return nil, nil, err
	}
	logger := observability.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func newApp(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics, opts appOptions) (*app, error) {
	a := &app{cfg: cfg, logger: logger, metrics: metrics}

	client := fetch.NewClient(cfg.HTTPTimeout, logger, metrics,
		fetch.WithRetry(cfg.FetchMaxAttempts, cfg.FetchBaseDelay))

	ow := openweather.NewClient(client, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL)
	a.resolver = geo.NewResolver(ow, geo.NewCoordinateCache(), cfg.NearbyCityCount, logger, metrics)

	sources := aggregator.Sources{
		Weather: openweather.NewWeather(client, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL, logger, metrics),
		News:    newsapi.New(client, cfg.NewsAPIKey, cfg.NewsAPIBaseURL, logger, metrics),
		Social:  reddit.New(client, cfg.RedditBaseURL, cfg.RedditSubreddit, logger, metrics),
		Federal: fema.New(client, cfg.FEMABaseURL, logger, metrics),
	}

	var aggOpts []aggregator.Option
	if opts.archive && cfg.ArchiveEnabled {
		archive, err := sqlite.Open(cfg.ArchivePath)
		if err != nil {
			return nil, err
		}
		logger.Info("report archive enabled", "path", cfg.ArchivePath)
		a.archive = archive
		a.closers = append(a.closers, archive)
		aggOpts = append(aggOpts, aggregator.WithArchive(archive))
	}

	queue := aggregator.NewSerialQueue(cfg.CityNewsDelay, clockwork.NewRealClock())
	a.aggregator = aggregator.New(sources, a.resolver, queue, logger, metrics, aggOpts...)

	var notifier alert.Notifier = alert.NewLogNotifier(logger)
	if opts.useKafka && cfg.Notifier == config.NotifierKafka {
		kn := kafka.NewNotifier(cfg.KafkaBrokers, cfg.KafkaNotifyTopic, logger)
		a.closers = append(a.closers, kn)
		notifier = kn
		logger.Info("kafka notifier enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaNotifyTopic)
	}

	var location alert.LocationProvider = alert.NoLocation{}
	if cfg.UserPosition != nil {
		location = alert.StaticLocation(*cfg.UserPosition)
	}
	thresholds := alert.Thresholds{RedMeters: cfg.RedRadiusMeters, YellowMeters: cfg.YellowRadiusMeters}
	a.engine = alert.NewEngine(a.aggregator, a.resolver, location, notifier, thresholds, logger, metrics)

	return a, nil
}

// Close releases the archive and notifier.
func (a *app) Close() error {
	var errs []error
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
