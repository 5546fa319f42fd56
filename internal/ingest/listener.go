package ingest

import (
	"context"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"fleetstream/internal/broker"
	"fleetstream/internal/dlq"
	"fleetstream/internal/enrich"
	"fleetstream/internal/logger"
	"fleetstream/internal/message"
	"fleetstream/internal/ratelimit"
	"fleetstream/internal/route"
	"fleetstream/internal/validate"
	"fleetstream/pkg/errors"
	"fleetstream/pkg/logging"
	"fleetstream/pkg/metrics"
)

// Listener is the single logical reader over the inbound subscription. Each
// message runs the full pipeline sequentially: topic parse, rate limit,
// payload parse, validation, enrichment, publish. Per-message failures never
// escape the loop.
type Listener struct {
	messages  <-chan broker.InboundMessage
	limiter   *ratelimit.Limiter
	validator *validate.Validator
	engine    *enrich.Engine
	router    *route.Router
	sink      *dlq.Sink
	logger    logger.Logger

	// Rate-limit drops are expected to come in bursts; log a sample, count
	// the rest.
	dropLogLimiter *rate.Sometimes
}

func NewListener(
	messages <-chan broker.InboundMessage,
	limiter *ratelimit.Limiter,
	validator *validate.Validator,
	engine *enrich.Engine,
	router *route.Router,
	sink *dlq.Sink,
	log logger.Logger,
) *Listener {
	return &Listener{
		messages:       messages,
		limiter:        limiter,
		validator:      validator,
		engine:         engine,
		router:         router,
		sink:           sink,
		logger:         log,
		dropLogLimiter: &rate.Sometimes{Interval: 10 * time.Second},
	}
}

// Run consumes inbound messages until the context ends or the channel closes.
func (l *Listener) Run(ctx context.Context) error {
	l.logger.Info("ingestion listener started")

	for {
		select {
		case <-ctx.Done():
			l.logger.Info("ingestion listener stopping")
			return nil
		case msg, ok := <-l.messages:
			if !ok {
				l.logger.Info("inbound channel closed, ingestion listener stopping")
				return nil
			}
			l.handle(ctx, msg)
		}
	}
}

func (l *Listener) handle(ctx context.Context, msg broker.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			err := errors.RecoverPanic(r)
			l.logger.Errorw("panic while processing inbound message",
				"topic", msg.Topic,
				"error", err)
			l.sink.Record(ctx, msg.Payload, err.Error(), "", errors.TypeProcessing, map[string]string{
				"topic": msg.Topic,
			})
		}
	}()

	info, err := ParseTopic(msg.Topic)
	if err != nil {
		// The device cannot be attributed, so no DLQ record.
		metrics.TopicDropsTotal.Inc()
		l.logger.Debugw("dropping message with malformed topic", "topic", msg.Topic, "error", err)
		return
	}

	// Every log line for this message carries the device and kind.
	mctx := logging.WithMessageKind(logging.WithDeviceID(ctx, info.DeviceID), string(info.Kind))

	if !l.limiter.Admit(info.DeviceID, time.Now()) {
		metrics.RateLimitDropsTotal.Inc()
		l.dropLogLimiter.Do(func() {
			l.logger.WarnwCtx(mctx, "rate limit exceeded, dropping messages")
		})
		return
	}

	var rejection *errors.RejectionError
	switch info.Kind {
	case message.KindTelemetry:
		rejection = l.handleTelemetry(mctx, info, msg.Payload)
	case message.KindEvents:
		rejection = l.handleEvent(mctx, info, msg.Payload)
	case message.KindV2X:
		rejection = l.handleV2X(mctx, info, msg.Payload)
	}

	if rejection != nil {
		l.reject(mctx, info, msg.Payload, rejection)
	}
}

func (l *Listener) handleTelemetry(ctx context.Context, info TopicInfo, payload []byte) *errors.RejectionError {
	t, err := message.ParseTelemetry(payload)
	if err != nil {
		return errors.NewRejection(errors.TypeJSON, err.Error(), err)
	}

	result := l.validator.ValidateAndEnrich(*t)
	if !result.Valid {
		return errors.NewRejection(errors.TypeValidation, strings.Join(result.Errors, "; "), nil)
	}
	for _, warning := range result.Warnings {
		l.logger.DebugwCtx(ctx, "telemetry quality warning", "warning", warning)
	}

	return l.publish(ctx, info, result.Enriched.DeviceID, result.Enriched)
}

func (l *Listener) handleEvent(ctx context.Context, info TopicInfo, payload []byte) *errors.RejectionError {
	ev, err := message.ParseEvent(payload)
	if err != nil {
		return errors.NewRejection(errors.TypeJSON, err.Error(), err)
	}

	if errs := l.validator.ValidateEvent(*ev); len(errs) > 0 {
		return errors.NewRejection(errors.TypeValidation, strings.Join(errs, "; "), nil)
	}

	enriched := l.engine.EnrichEvent(*ev)
	return l.publish(ctx, info, enriched.DeviceID, enriched)
}

func (l *Listener) handleV2X(ctx context.Context, info TopicInfo, payload []byte) *errors.RejectionError {
	v, err := message.ParseV2X(payload)
	if err != nil {
		return errors.NewRejection(errors.TypeJSON, err.Error(), err)
	}

	if errs := l.validator.ValidateV2X(*v); len(errs) > 0 {
		return errors.NewRejection(errors.TypeValidation, strings.Join(errs, "; "), nil)
	}

	enriched := l.engine.EnrichV2X(*v)
	return l.publish(ctx, info, enriched.DeviceID, enriched)
}

func (l *Listener) publish(ctx context.Context, info TopicInfo, deviceID string, enriched interface{}) *errors.RejectionError {
	if err := l.router.Publish(ctx, info.Kind, deviceID, enriched); err != nil {
		l.logger.ErrorwCtx(ctx, "failed to publish enriched message", "error", err)
		return errors.NewRejection(errors.TypeProcessing, err.Error(), err)
	}
	metrics.IngestMessagesTotal.WithLabelValues(string(info.Kind), "published").Inc()
	return nil
}

func (l *Listener) reject(ctx context.Context, info TopicInfo, payload []byte, rejection *errors.RejectionError) {
	metrics.IngestMessagesTotal.WithLabelValues(string(info.Kind), "rejected").Inc()
	l.sink.Record(ctx, payload, rejection.Reason, info.DeviceID, rejection.Type, map[string]string{
		"org_id": info.OrgID,
		"kind":   string(info.Kind),
	})
}
