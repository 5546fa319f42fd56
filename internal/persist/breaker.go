package persist

import (
	"context"

	"fleetstream/pkg/circuitbreaker"
)

// BreakerSink wraps a sink with a circuit breaker so a struggling store fails
// fast instead of holding every flush for its full timeout.
type BreakerSink struct {
	sink    Sink
	breaker *circuitbreaker.Wrapper
}

func NewBreakerSink(sink Sink, breaker *circuitbreaker.Wrapper) *BreakerSink {
	return &BreakerSink{
		sink:    sink,
		breaker: breaker,
	}
}

func (b *BreakerSink) Name() string {
	return b.sink.Name()
}

func (b *BreakerSink) Write(ctx context.Context, records []Record) error {
	_, err := b.breaker.ExecuteWithContext(ctx, func() (interface{}, error) {
		return nil, b.sink.Write(ctx, records)
	})
	return err
}
