package broker

import "context"

// InboundMessage is one raw message pulled off the inbound subscription.
type InboundMessage struct {
	Topic   string
	Payload []byte
}

// Subscriber delivers inbound messages into a channel until closed.
type Subscriber interface {
	Start(ctx context.Context) (<-chan InboundMessage, error)
	Close() error
}

// Producer publishes keyed messages to a named topic.
type Producer interface {
	Publish(ctx context.Context, topic string, key, value []byte) error
	Close() error
}
