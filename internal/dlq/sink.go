package dlq

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"

	"fleetstream/internal/broker"
	"fleetstream/internal/logger"
	"fleetstream/internal/message"
	"fleetstream/pkg/errors"
	"fleetstream/pkg/logging"
	"fleetstream/pkg/metrics"
)

// Stats mirrors the running counters kept by the sink.
type Stats struct {
	TotalMessages    int64 `json:"total_messages"`
	ValidationErrors int64 `json:"validation_errors"`
	JSONErrors       int64 `json:"json_errors"`
	ProcessingErrors int64 `json:"processing_errors"`
}

// Sink records rejected inputs. Record never fails from the caller's point of
// view: losing a DLQ record is preferable to stalling ingestion.
type Sink struct {
	producer broker.Producer
	topic    string
	logger   logger.Logger

	mu    sync.Mutex
	stats Stats
}

func NewSink(producer broker.Producer, topic string, log logger.Logger) *Sink {
	return &Sink{
		producer: producer,
		topic:    topic,
		logger:   log,
	}
}

// Record builds an immutable DLQRecord and publishes it keyed by device id.
// Counters are updated even when the publish fails, so stats reflect every
// rejection the pipeline saw.
func (s *Sink) Record(ctx context.Context, original []byte, reason, deviceID string, errType errors.ErrorType, metadata map[string]string) {
	s.count(errType)

	if deviceID == "" {
		deviceID = "unknown"
	}

	record := message.DLQRecord{
		ID:              uuid.NewString(),
		OriginalPayload: message.WrapPayload(original),
		ErrorReason:     reason,
		ErrorType:       errType,
		DeviceID:        deviceID,
		Timestamp:       time.Now().UTC(),
		Metadata:        metadata,
	}

	// Failure logs carry the record id so a lost record can be traced.
	ctx = logging.WithMessageID(logging.WithDeviceID(ctx, deviceID), record.ID)

	payload, err := json.Marshal(record)
	if err != nil {
		metrics.DLQPublishFailuresTotal.Inc()
		s.logger.ErrorwCtx(ctx, "failed to marshal DLQ record",
			"error_type", errType,
			"error", err)
		return
	}

	if err := s.producer.Publish(ctx, s.topic, []byte(deviceID), payload); err != nil {
		metrics.DLQPublishFailuresTotal.Inc()
		s.logger.ErrorwCtx(ctx, "failed to publish DLQ record",
			"error_type", errType,
			"error", err)
		return
	}

	metrics.DLQMessagesTotal.WithLabelValues(string(errType)).Inc()
}

func (s *Sink) count(errType errors.ErrorType) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stats.TotalMessages++
	switch errType {
	case errors.TypeValidation:
		s.stats.ValidationErrors++
	case errors.TypeJSON:
		s.stats.JSONErrors++
	case errors.TypeProcessing:
		s.stats.ProcessingErrors++
	}
}

// Stats returns a copy of the running counters.
func (s *Sink) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}
