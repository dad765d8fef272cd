package repository

import (
	"context"
	"testing"
	"time"

	domrepo "StockStats/internal/domain/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingProducer struct {
	topic string
	key   []byte
	value interface{}
}

func (p *recordingProducer) Publish(_ context.Context, topic string, key []byte, value interface{}) error {
	p.topic, p.key, p.value = topic, key, value
	return nil
}

func (p *recordingProducer) Close() error { return nil }

func TestKafkaEventPublisherKeysBySymbol(t *testing.T) {
	rp := &recordingProducer{}
	pub := &KafkaEventPublisher{producer: rp, topic: "stockstats.events"}

	ev := domrepo.Event{Type: domrepo.EventStatsComputed, Symbol: "AAPL", Timestamp: time.Now()}
	require.NoError(t, pub.Publish(context.Background(), ev))

	assert.Equal(t, "stockstats.events", rp.topic)
	assert.Equal(t, []byte("AAPL"), rp.key)
	assert.Equal(t, ev, rp.value)
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NopPublisher{}.Publish(context.Background(), domrepo.Event{}))
	assert.NoError(t, NopPublisher{}.Close())
}
