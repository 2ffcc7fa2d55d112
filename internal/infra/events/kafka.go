// Package events publishes integration events after commit.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"learnpay/internal/config"
	"learnpay/internal/domain/ports/adapter"
	"learnpay/internal/infra/metrics"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

var _ adapter.EventPublisher = (*KafkaPublisher)(nil)

type KafkaPublisher struct {
	writer  messageWriter
	timeout time.Duration
	log     *zerolog.Logger
}

func NewKafkaPublisher(cfg config.KafkaConfig, logger *zerolog.Logger) *KafkaPublisher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "kafka_producer").Logger()
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		WriteTimeout:           cfg.WriteTimeout,
		Transport:              &kafka.Transport{ClientID: cfg.ClientID},
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			l.Error().Msgf(msg, args...)
		}),
	}
	l.Info().Strs("brokers", cfg.Brokers).Msg("kafka producer initialized")
	return newKafkaPublisher(w, cfg.WriteTimeout, &l)
}

func newKafkaPublisher(w messageWriter, timeout time.Duration, logger *zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: timeout, log: logger}
}

// Publish writes one message keyed by key, so every event of an order lands
// on the same partition.
func (p *KafkaPublisher) Publish(ctx context.Context, topic, key string, payload []byte) error {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}
	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: payload,
		Time:  time.Now().UTC(),
	})
	if err != nil {
		metrics.IncEventPublished(topic, "failed")
		p.log.Error().Err(err).Str("topic", topic).Str("key", key).Msg("failed to produce message")
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	metrics.IncEventPublished(topic, "ok")
	p.log.Debug().Str("topic", topic).Str("key", key).Msg("produced message")
	return nil
}

func (p *KafkaPublisher) Close() error {
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("close kafka producer: %w", err)
	}
	p.log.Info().Msg("kafka producer closed")
	return nil
}

var _ adapter.EventPublisher = Nop{}

// Nop drops events; used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, []byte) error { return nil }
func (Nop) Close() error                                         { return nil }
