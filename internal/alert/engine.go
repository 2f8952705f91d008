// Package alert evaluates a device position against aggregated reports and
// raises at most one proximity notification per evaluation.
package alert

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

// FallbackQuery is aggregated when the position cannot be named.
const FallbackQuery = "global"

// ErrNoPosition means the location provider had no fix.
var ErrNoPosition = errors.New("location unavailable")

// LocationAggregator produces genuine reports for a place name.
type LocationAggregator interface {
	AggregateForLocation(ctx context.Context, location string) domain.AggregationResult
}

// CityLocator names the city at a position.
type CityLocator interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (string, error)
}

// Engine is stateless across evaluations and safe for concurrent use.
type Engine struct {
	aggregator LocationAggregator
	locator    CityLocator
	location   LocationProvider
	notifier   Notifier
	thresholds Thresholds
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewEngine creates an Engine. location is the default provider used by
// Check and BackgroundCheck; nil means no position is ever available.
func NewEngine(agg LocationAggregator, locator CityLocator, location LocationProvider, notifier Notifier, t Thresholds, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	if location == nil {
		location = NoLocation{}
	}
	return &Engine{
		aggregator: agg,
		locator:    locator,
		location:   location,
		notifier:   notifier,
		thresholds: t,
		logger:     logger,
		metrics:    metrics,
	}
}

// Check evaluates the default location provider.
func (e *Engine) Check(ctx context.Context) domain.AlertCheckResult {
	return e.CheckFrom(ctx, e.location)
}

// CheckFrom runs one evaluation cycle against p: locate, name the city,
// aggregate, bucket, and notify. It never panics; failures are reported
// through the result status.
func (e *Engine) CheckFrom(ctx context.Context, p LocationProvider) (res domain.AlertCheckResult) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("alert check panicked", "panic", rec)
			res = failed(domain.CheckError, fmt.Sprintf("alert check failed: %v", rec))
		}
		e.metrics.AlertChecks.WithLabelValues(string(res.Status)).Inc()
	}()

	pos, err := p.CurrentPosition(ctx)
	if err == nil && pos == nil {
		err = ErrNoPosition
	}
	if err != nil {
		e.logger.Warn("no device position", "error", err)
		return failed(domain.CheckLocationError, err.Error())
	}

	city := e.cityAt(ctx, *pos)
	query := city
	if query == "" {
		query = FallbackQuery
	}

	agg := e.aggregator.AggregateForLocation(ctx, query)
	alerts := Classify(pos.Coordinates(), agg.GenuineReports, e.thresholds)
	for _, tier := range []domain.AlertTier{domain.TierRed, domain.TierYellow, domain.TierInfo} {
		e.metrics.AlertReports.WithLabelValues(string(tier)).Add(float64(len(alerts.Bucket(tier))))
	}

	e.notify(ctx, alerts)

	e.logger.Info("alert check complete",
		"city", city,
		"query", query,
		"aggregation_status", agg.Status,
		"red", len(alerts.Red),
		"yellow", len(alerts.Yellow),
		"info", len(alerts.Info),
	)
	return domain.AlertCheckResult{
		Alerts:    alerts,
		Location:  pos,
		City:      city,
		Status:    domain.CheckSuccess,
		Timestamp: domain.Now().UTC(),
	}
}

// BackgroundCheck runs Check and reduces it for a periodic scheduler. It
// never panics.
func (e *Engine) BackgroundCheck(ctx context.Context) (res domain.BackgroundCheckResult) {
	defer func() {
		if rec := recover(); rec != nil {
			e.logger.Error("background check panicked", "panic", rec)
			res = domain.BackgroundCheckResult{Error: fmt.Sprintf("background check failed: %v", rec)}
		}
	}()

	result := e.Check(ctx)
	if result.Status != domain.CheckSuccess {
		return domain.BackgroundCheckResult{Error: result.Error}
	}
	return domain.BackgroundCheckResult{Success: true, NewDanger: result.Alerts.HasDanger()}
}

// Notify sends n through the engine's notifier, stamping ID and time.
func (e *Engine) Notify(ctx context.Context, n domain.Notification) {
	if e.notifier == nil {
		return
	}
	n.ID = uuid.NewString()
	n.Created = domain.Now().UTC()
	if err := e.notifier.Notify(ctx, n); err != nil {
		e.logger.Warn("notification request failed", "category", n.Category, "error", err)
		return
	}
	e.metrics.Notifications.WithLabelValues(n.Category).Inc()
}

func (e *Engine) notify(ctx context.Context, alerts domain.Alerts) {
	if n, ok := tierNotification(alerts); ok {
		e.Notify(ctx, n)
	}
}

// cityAt is best effort: a failed lookup is logged and yields "".
func (e *Engine) cityAt(ctx context.Context, pos domain.Position) string {
	if e.locator == nil {
		return ""
	}
	city, err := e.locator.ReverseGeocode(ctx, pos.Lat, pos.Lon)
	if err != nil {
		e.logger.Warn("reverse geocode failed, using fallback query", "error", err)
		return ""
	}
	return city
}

func failed(status domain.CheckStatus, msg string) domain.AlertCheckResult {
	return domain.AlertCheckResult{
		Alerts:    domain.NewAlerts(),
		Status:    status,
		Error:     msg,
		Timestamp: domain.Now().UTC(),
	}
}
