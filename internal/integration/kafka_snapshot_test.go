//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/couchcryptid/climate-match-service/internal/adapter/kafka"
	"github.com/couchcryptid/climate-match-service/internal/config"
	"github.com/couchcryptid/climate-match-service/internal/domain"
	"github.com/couchcryptid/climate-match-service/internal/matcher"
	"github.com/couchcryptid/climate-match-service/internal/observability"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSnapshotTopic = "test-snapshots"

// publishedSnapshot holds a deserialized message read from the snapshot topic.
type publishedSnapshot struct {
	ID             string                        `json:"id"`
	Generation     uint64                        `json:"generation"`
	Ranges         map[string]domain.FilterRange `json:"ranges"`
	MatchedRegions int                           `json:"matched_regions"`
	Cities         []domain.CityMatch            `json:"cities"`

	Key     string            `json:"-"`
	Headers map[string]string `json:"-"`
}

func readSnapshot(ctx context.Context, t *testing.T, consumer *kafkago.Reader) publishedSnapshot {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from snapshot topic")

	var snap publishedSnapshot
	require.NoError(t, json.Unmarshal(msg.Value, &snap), "unmarshal snapshot")
	snap.Key = string(msg.Key)
	snap.Headers = make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		snap.Headers[h.Key] = string(h.Value)
	}
	return snap
}

// TestControllerPublishesSnapshots wires the controller to a real broker and
// checks that every recompute lands on the topic in generation order.
func TestControllerPublishesSnapshots(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSnapshotTopic)

	cfg := &config.Config{
		KafkaEnabled: true,
		KafkaBrokers: []string{broker},
		KafkaTopic:   testSnapshotTopic,
	}
	metrics := observability.NewMetricsForTesting()
	publisher := kafka.NewPublisher(cfg, discardLogger(), metrics)
	t.Cleanup(func() { _ = publisher.Close() })

	ip, err := domain.NewInterpolator(domain.DefaultCities())
	require.NoError(t, err)
	engine, err := matcher.NewEngine(ip, domain.DefaultGridStep, domain.DefaultGridStep, 0)
	require.NoError(t, err)

	ctrl, err := matcher.New(ctx, engine, discardLogger(), metrics, matcher.WithPublisher(publisher))
	require.NoError(t, err)

	require.NoError(t, ctrl.SetRange(domain.Sunlight, domain.FilterRange{Min: 7, Max: 12}))
	require.NoError(t, ctrl.Flush(ctx))

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSnapshotTopic,
		GroupID:     fmt.Sprintf("test-snapshots-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	first := readSnapshot(ctx, t, consumer)
	second := readSnapshot(ctx, t, consumer)

	assert.Equal(t, uint64(1), first.Generation)
	assert.Equal(t, "1", first.Headers["generation"])
	assert.Equal(t, domain.FilterRange{Min: 0, Max: 12}, first.Ranges["sunlight"])
	assert.Len(t, first.Cities, 20)

	assert.Equal(t, uint64(2), second.Generation)
	assert.Equal(t, second.ID, second.Key)
	assert.Equal(t, domain.FilterRange{Min: 7, Max: 12}, second.Ranges["sunlight"])
	assert.Less(t, second.MatchedRegions, first.MatchedRegions)
	_, err = time.Parse(time.RFC3339, second.Headers["computed_at"])
	assert.NoError(t, err, "computed_at should be valid RFC3339")
}
