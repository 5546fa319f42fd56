package route

import (
	"context"
	"encoding/json"
	"fmt"

	"fleetstream/internal/broker"
	"fleetstream/internal/config"
	"fleetstream/internal/message"
)

// Router forwards enriched messages to the per-kind output topics. Each kind
// maps to exactly one topic; there is no cross-kind coupling.
type Router struct {
	producer broker.Producer
	topics   map[message.Kind]string
}

func NewRouter(producer broker.Producer, topics config.TopicsConfig) *Router {
	return &Router{
		producer: producer,
		topics: map[message.Kind]string{
			message.KindTelemetry: topics.Telemetry,
			message.KindEvents:    topics.Events,
			message.KindV2X:       topics.V2X,
		},
	}
}

// Publish marshals the enriched message and writes it keyed by device id, so
// a device's records stay ordered within their partition.
func (r *Router) Publish(ctx context.Context, kind message.Kind, deviceID string, payload interface{}) error {
	topic, ok := r.topics[kind]
	if !ok {
		return fmt.Errorf("no output topic configured for kind %q", kind)
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s message: %w", kind, err)
	}

	return r.producer.Publish(ctx, topic, []byte(deviceID), value)
}
