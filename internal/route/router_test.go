package route

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetstream/internal/config"
	"fleetstream/internal/message"
)

type fakeProducer struct {
	mu     sync.Mutex
	topics []string
	keys   []string
}

func (p *fakeProducer) Publish(_ context.Context, topic string, key, _ []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.keys = append(p.keys, string(key))
	return nil
}

func (p *fakeProducer) Close() error { return nil }

func TestPublishRoutesByKind(t *testing.T) {
	producer := &fakeProducer{}
	router := NewRouter(producer, config.TopicsConfig{
		Telemetry: "stream.telemetry",
		Events:    "stream.events",
		V2X:       "stream.v2x",
	})
	ctx := context.Background()

	require.NoError(t, router.Publish(ctx, message.KindTelemetry, "DEVICE_0001", map[string]string{"a": "1"}))
	require.NoError(t, router.Publish(ctx, message.KindEvents, "DEVICE_0002", map[string]string{"b": "2"}))
	require.NoError(t, router.Publish(ctx, message.KindV2X, "DEVICE_0003", map[string]string{"c": "3"}))

	assert.Equal(t, []string{"stream.telemetry", "stream.events", "stream.v2x"}, producer.topics)
	assert.Equal(t, []string{"DEVICE_0001", "DEVICE_0002", "DEVICE_0003"}, producer.keys)
}

func TestPublishUnknownKind(t *testing.T) {
	router := NewRouter(&fakeProducer{}, config.TopicsConfig{})

	err := router.Publish(context.Background(), message.Kind("diagnostics"), "DEVICE_0001", nil)
	assert.Error(t, err)
}
