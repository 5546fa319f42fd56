package persist

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetstream/internal/logger"
	"fleetstream/pkg/retry"
)

type fakeSource struct {
	mu        sync.Mutex
	records   []Record
	committed int
}

func (s *fakeSource) Fetch(ctx context.Context) (Record, error) {
	s.mu.Lock()
	if len(s.records) > 0 {
		record := s.records[0]
		s.records = s.records[1:]
		s.mu.Unlock()
		return record, nil
	}
	s.mu.Unlock()

	<-ctx.Done()
	return Record{}, ctx.Err()
}

func (s *fakeSource) Commit(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed += len(records)
	return nil
}

func (s *fakeSource) Close() error { return nil }

type fakeSink struct {
	mu      sync.Mutex
	batches [][]Record
	failN   int
}

func (s *fakeSink) Name() string { return "fake" }

func (s *fakeSink) Write(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failN > 0 {
		s.failN--
		return fmt.Errorf("store unavailable")
	}
	batch := make([]Record, len(records))
	copy(batch, records)
	s.batches = append(s.batches, batch)
	return nil
}

func (s *fakeSink) batchSizes() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	sizes := make([]int, len(s.batches))
	for i, b := range s.batches {
		sizes[i] = len(b)
	}
	return sizes
}

type erroringSource struct {
	mu      sync.Mutex
	fetches int
}

func (s *erroringSource) Fetch(ctx context.Context) (Record, error) {
	s.mu.Lock()
	s.fetches++
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	return Record{}, fmt.Errorf("broker unreachable")
}

func (s *erroringSource) Commit(context.Context, []Record) error { return nil }

func (s *erroringSource) Close() error { return nil }

func (s *erroringSource) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func fastPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
		Multiplier:      2.0,
	}
}

func records(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = Record{
			Key:   []byte("DEVICE_0001"),
			Value: []byte(fmt.Sprintf(`{"n":%d}`, i)),
		}
	}
	return out
}

func TestBatchTriggerSizeThenInterval(t *testing.T) {
	source := &fakeSource{records: records(3)}
	sink := &fakeSink{}
	consumer := NewConsumer(source, sink, 2, 50*time.Millisecond, fastPolicy(), logger.NopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, consumer.Run(ctx))

	// Three back-to-back records with batch_size=2 produce exactly two
	// flushes: one on size, one on the interval timer.
	assert.Equal(t, []int{2, 1}, sink.batchSizes())
	assert.Equal(t, 3, source.committed)
}

func TestDrainFlushesPendingBatchOnShutdown(t *testing.T) {
	source := &fakeSource{records: records(1)}
	sink := &fakeSink{}
	consumer := NewConsumer(source, sink, 100, time.Hour, fastPolicy(), logger.NopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	require.NoError(t, consumer.Run(ctx))
	assert.Equal(t, []int{1}, sink.batchSizes())
}

func TestWriteRetriesThenSucceeds(t *testing.T) {
	source := &fakeSource{records: records(2)}
	sink := &fakeSink{failN: 2}
	consumer := NewConsumer(source, sink, 2, 50*time.Millisecond, fastPolicy(), logger.NopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	require.NoError(t, consumer.Run(ctx))
	assert.Equal(t, []int{2}, sink.batchSizes())
	assert.Equal(t, 2, source.committed)
}

func TestPersistentFetchErrorsArePaced(t *testing.T) {
	source := &erroringSource{}
	sink := &fakeSink{}
	consumer := NewConsumer(source, sink, 10, time.Hour, fastPolicy(), logger.NopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 1200*time.Millisecond)
	defer cancel()

	require.NoError(t, consumer.Run(ctx))

	// The fetch loop pauses between failed attempts, so an unreachable broker
	// yields a handful of fetches over the window rather than thousands.
	assert.LessOrEqual(t, source.fetchCount(), 6)
	assert.Empty(t, sink.batchSizes())
}

func TestWriteFailureAfterRetriesIsReturned(t *testing.T) {
	source := &fakeSource{records: records(2)}
	sink := &fakeSink{failN: 100}
	consumer := NewConsumer(source, sink, 2, 50*time.Millisecond, fastPolicy(), logger.NopLogger())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	err := consumer.Run(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after retries")

	// Nothing was committed, so the batch will be redelivered.
	assert.Equal(t, 0, source.committed)
}
