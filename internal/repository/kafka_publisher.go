package repository

import (
	"context"

	domrepo "StockStats/internal/domain/repository"
	pkgkafka "StockStats/pkg/kafka"
)

var (
	_ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
	_ domrepo.EventPublisher = NopPublisher{}
)

type eventProducer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// KafkaEventPublisher writes events as JSON keyed by symbol.
type KafkaEventPublisher struct {
	producer eventProducer
	topic    string
}

func NewKafkaEventPublisher(p *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: p, topic: topic}
}

func (k *KafkaEventPublisher) Publish(ctx context.Context, ev domrepo.Event) error {
	return k.producer.Publish(ctx, k.topic, []byte(ev.Symbol), ev)
}

func (k *KafkaEventPublisher) Close() error {
	return k.producer.Close()
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, domrepo.Event) error { return nil }
func (NopPublisher) Close() error                                 { return nil }
