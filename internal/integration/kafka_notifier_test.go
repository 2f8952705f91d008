//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"

	"github.com/couchcryptid/disaster-alert-service/internal/adapter/kafka"
	"github.com/couchcryptid/disaster-alert-service/internal/alert"
	"github.com/couchcryptid/disaster-alert-service/internal/domain"
	"github.com/couchcryptid/disaster-alert-service/internal/observability"
)

const testNotifyTopic = "test-notifications"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("disasterwatch-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()
	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)
	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}))
}

type staticAggregator struct {
	result domain.AggregationResult
}

func (s staticAggregator) AggregateForLocation(context.Context, string) domain.AggregationResult {
	return s.result
}

// TestEngineNotifiesThroughKafka runs an alert check whose top report is
// within the red radius and reads the resulting notification off the topic.
func TestEngineNotifiesThroughKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testNotifyTopic)

	notifier := kafka.NewNotifier([]string{broker}, testNotifyTopic, discardLogger())
	t.Cleanup(func() { _ = notifier.Close() })

	agg := staticAggregator{result: domain.AggregationResult{GenuineReports: []domain.Report{{
		Title:              "Wildfire spreads across Los Angeles hills",
		Coordinates:        &domain.Coordinates{Lat: 34.10, Lon: -118.30},
		IsLocationRelevant: true,
	}}}}
	engine := alert.NewEngine(agg, nil, alert.StaticLocation{Lat: 34.05, Lon: -118.24}, notifier,
		alert.DefaultThresholds, discardLogger(), observability.NewMetricsForTesting())

	res := engine.Check(ctx)
	require.Equal(t, domain.CheckSuccess, res.Status)
	require.Len(t, res.Alerts.Red, 1)

	reader := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:   []string{broker},
		Topic:     testNotifyTopic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  1 << 20,
	})
	t.Cleanup(func() { _ = reader.Close() })

	readCtx, readCancel := context.WithTimeout(ctx, 30*time.Second)
	defer readCancel()
	msg, err := reader.ReadMessage(readCtx)
	require.NoError(t, err, "read notification")

	var note domain.Notification
	require.NoError(t, json.Unmarshal(msg.Value, &note))
	assert.Equal(t, alert.RedTitle, note.Title)
	assert.Equal(t, "Wildfire spreads across Los Angeles hills. Distance: 8km", note.Body)
	assert.Equal(t, domain.CategoryEmergency, note.Category)
	assert.Equal(t, note.ID, string(msg.Key))

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "emergency", headers["category"])
}
