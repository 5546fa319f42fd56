package persist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fleetstream/internal/logger"
	"fleetstream/pkg/metrics"
	"fleetstream/pkg/retry"
)

// Sink performs one bulk write per batch. Writes must tolerate replays: a
// batch whose commit failed is redelivered in full.
type Sink interface {
	Write(ctx context.Context, records []Record) error
	Name() string
}

// Consumer pulls records from a source and flushes them in batches, on size
// or on a timer, whichever fires first. Offsets are committed only after a
// successful write, giving at-least-once delivery.
type Consumer struct {
	source        Source
	sink          Sink
	batchSize     int
	flushInterval time.Duration
	retryPolicy   retry.Policy
	logger        logger.Logger
}

func NewConsumer(source Source, sink Sink, batchSize int, flushInterval time.Duration, policy retry.Policy, log logger.Logger) *Consumer {
	return &Consumer{
		source:        source,
		sink:          sink,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		retryPolicy:   policy,
		logger:        log,
	}
}

// Run loops until the context ends, then drains the pending batch. A write
// failure that survives the retry policy is returned: the caller is expected
// to exit non-zero so the uncommitted batch is redelivered after restart.
func (c *Consumer) Run(ctx context.Context) error {
	c.logger.Infow("batch consumer started",
		"channel", c.sink.Name(),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval)

	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]Record, 0, c.batchSize)
	fetched := make(chan fetchResult, 1)
	go c.fetchLoop(ctx, fetched)

	for {
		select {
		case <-ctx.Done():
			return c.flush(context.Background(), batch, "drain")

		case <-ticker.C:
			if len(batch) == 0 {
				continue
			}
			if err := c.flush(ctx, batch, "interval"); err != nil {
				return err
			}
			batch = batch[:0]

		case res, ok := <-fetched:
			if !ok {
				return c.flush(context.Background(), batch, "drain")
			}
			if res.err != nil {
				if errors.Is(res.err, context.Canceled) {
					return c.flush(context.Background(), batch, "drain")
				}
				c.logger.Errorw("fetch failed",
					"channel", c.sink.Name(),
					"error", res.err)
				continue
			}

			batch = append(batch, res.record)
			if len(batch) >= c.batchSize {
				if err := c.flush(ctx, batch, "size"); err != nil {
					return err
				}
				batch = batch[:0]
				ticker.Reset(c.flushInterval)
			}
		}
	}
}

type fetchResult struct {
	record Record
	err    error
}

// fetchRetryDelay spaces out fetch attempts while the broker is unreachable,
// so a persistent error does not turn the loop into a hot spin.
const fetchRetryDelay = 500 * time.Millisecond

func (c *Consumer) fetchLoop(ctx context.Context, out chan<- fetchResult) {
	defer close(out)
	for {
		record, err := c.source.Fetch(ctx)
		select {
		case out <- fetchResult{record: record, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			select {
			case <-time.After(fetchRetryDelay):
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Consumer) flush(ctx context.Context, batch []Record, trigger string) error {
	if len(batch) == 0 {
		return nil
	}

	started := time.Now()
	err := retry.RetryWithCallback(ctx, c.retryPolicy, func() error {
		return c.sink.Write(ctx, batch)
	}, func(attempt int, retryErr error, nextDelay time.Duration) {
		metrics.RetryAttemptsTotal.WithLabelValues("persist_" + c.sink.Name()).Inc()
		c.logger.Warnw("batch write failed, retrying",
			"channel", c.sink.Name(),
			"attempt", attempt,
			"next_delay", nextDelay,
			"error", retryErr)
	})
	if err != nil {
		metrics.ObserveBatchFlush(c.sink.Name(), trigger, len(batch), time.Since(started), "error")
		return fmt.Errorf("batch write to %s failed after retries: %w", c.sink.Name(), err)
	}

	if err := c.source.Commit(ctx, batch); err != nil {
		// The write landed but offsets did not advance; the batch will be
		// redelivered and the write must absorb the duplicates.
		c.logger.Errorw("offset commit failed, batch will be redelivered",
			"channel", c.sink.Name(),
			"error", err)
	}

	metrics.ObserveBatchFlush(c.sink.Name(), trigger, len(batch), time.Since(started), "success")
	c.logger.Debugw("batch flushed",
		"channel", c.sink.Name(),
		"size", len(batch),
		"trigger", trigger)
	return nil
}
