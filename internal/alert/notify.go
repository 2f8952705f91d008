package alert

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/couchcryptid/disaster-alert-service/internal/domain"
)

// Notification titles.
const (
	RedTitle        = "IMMEDIATE DANGER ALERT"
	YellowTitle     = "Nearby Disaster Alert"
	BackgroundTitle = "Danger Alert!"
	backgroundBody  = "A potential disaster has been detected in your area"
)

// Notifier asks the host to surface a notification. Delivery is fire and
// forget; the engine only logs a failed request.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// LogNotifier writes notification requests to the log.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(_ context.Context, note domain.Notification) error {
	n.logger.Warn("notification requested",
		"id", note.ID,
		"category", note.Category,
		"title", note.Title,
		"body", note.Body,
	)
	return nil
}

// tierNotification builds the single notification for an evaluation, if any.
// Only the top red report, or failing that the top yellow one, notifies.
func tierNotification(alerts domain.Alerts) (domain.Notification, bool) {
	if len(alerts.Red) > 0 {
		top := alerts.Red[0]
		return domain.Notification{
			Title:    RedTitle,
			Body:     fmt.Sprintf("%s. Distance: %dkm", top.Title, roundKM(top.DistanceMeters)),
			Category: domain.CategoryEmergency,
		}, true
	}
	if len(alerts.Yellow) > 0 {
		return domain.Notification{
			Title:    YellowTitle,
			Body:     fmt.Sprintf("%s is nearby", alerts.Yellow[0].Title),
			Category: domain.CategoryWarning,
		}, true
	}
	return domain.Notification{}, false
}

// DangerNotification is the follow-up a periodic scheduler raises after a
// background check found danger.
func DangerNotification() domain.Notification {
	return domain.Notification{
		Title:    BackgroundTitle,
		Body:     backgroundBody,
		Category: domain.CategoryBackground,
	}
}

func roundKM(meters *float64) int {
	if meters == nil {
		return 0
	}
	return int(math.Round(*meters / 1000))
}
