package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/couchcryptid/climate-match-service/internal/config"
	"github.com/couchcryptid/climate-match-service/internal/domain"
	"github.com/couchcryptid/climate-match-service/internal/observability"
	"github.com/goccy/go-json"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

// messageWriter is the subset of *kafkago.Writer the publisher needs.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher produces match snapshots to a Kafka topic behind a circuit breaker.
// It implements matcher.SnapshotPublisher.
type Publisher struct {
	writer  messageWriter
	circuit *gobreaker.CircuitBreaker
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewPublisher creates a Kafka producer for the configured snapshot topic.
func NewPublisher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaTopic,
		Balancer:     &kafkago.LeastBytes{},
		RequiredAcks: kafkago.RequireAll,
	}
	return newPublisher(w, logger, metrics)
}

func newPublisher(w messageWriter, logger *slog.Logger, metrics *observability.Metrics) *Publisher {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "kafka-snapshots",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &Publisher{writer: w, circuit: cb, logger: logger, metrics: metrics}
}

// Publish writes one snapshot. While the breaker is open the write is
// rejected without contacting the broker.
func (p *Publisher) Publish(ctx context.Context, s domain.Snapshot) error {
	msg, err := serializeToMessage(s)
	if err != nil {
		p.metrics.SnapshotsPublished.WithLabelValues("error").Inc()
		return err
	}

	_, err = p.circuit.Execute(func() (any, error) {
		return nil, p.writer.WriteMessages(ctx, msg)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		p.metrics.SnapshotsPublished.WithLabelValues("rejected").Inc()
		return fmt.Errorf("publish snapshot %s: %w", s.ID, err)
	case err != nil:
		p.metrics.SnapshotsPublished.WithLabelValues("error").Inc()
		return fmt.Errorf("publish snapshot %s: %w", s.ID, err)
	}
	p.metrics.SnapshotsPublished.WithLabelValues("success").Inc()
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage marshals a Snapshot into a Kafka message.
func serializeToMessage(s domain.Snapshot) (kafkago.Message, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize snapshot: %w", err)
	}
	return kafkago.Message{
		Key:   []byte(s.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "generation", Value: []byte(strconv.FormatUint(s.Generation, 10))},
			{Key: "computed_at", Value: []byte(s.ComputedAt.Format(time.RFC3339))},
		},
	}, nil
}
