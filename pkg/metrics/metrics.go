package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	IngestMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ingest_messages_total",
			Help: "Total number of inbound messages handled by the listener (count)",
		},
		[]string{"kind", "status"},
	)

	TopicDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_topic_drops_total",
			Help: "Total number of messages dropped because the inbound topic was malformed (count)",
		},
	)

	RateLimitDropsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_rate_limit_drops_total",
			Help: "Total number of messages dropped by per-device rate limiting (count)",
		},
	)

	RateLimitTrackedDevices = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_rate_limit_tracked_devices",
			Help: "Number of devices currently tracked by the rate limiter (count)",
		},
	)

	ValidationFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "validation_failures_total",
			Help: "Total number of messages that failed validation (count)",
		},
		[]string{"kind"},
	)

	ValidationWarningsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "validation_warnings_total",
			Help: "Total number of data-quality warnings attached to valid messages (count)",
		},
	)

	EnrichmentDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "enrichment_duration_ms",
			Help:    "Duration of message enrichment in milliseconds",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 25, 50, 100},
		},
		[]string{"kind"},
	)

	RoadSegmentMatchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "road_segment_matches_total",
			Help: "Total number of map-matching attempts (count)",
		},
		[]string{"result"},
	)

	SpeedViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "speed_violations_total",
			Help: "Total number of detected speed violations (count)",
		},
		[]string{"severity"},
	)

	DLQMessagesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dlq_messages_total",
			Help: "Total number of records sent to the dead-letter sink (count)",
		},
		[]string{"error_type"},
	)

	DLQPublishFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dlq_publish_failures_total",
			Help: "Total number of DLQ records that could not be published (count)",
		},
	)

	BatchFlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persist_batch_flushes_total",
			Help: "Total number of batch flushes by channel and trigger (count)",
		},
		[]string{"channel", "trigger"},
	)

	BatchFlushSize = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "persist_batch_flush_size",
			Help:    "Number of records per batch flush",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
		},
		[]string{"channel"},
	)

	BatchFlushDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "persist_batch_flush_duration_ms",
			Help:    "Duration of batch storage writes in milliseconds",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		},
		[]string{"channel", "status"},
	)

	KafkaMessagesReadTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_read_total",
			Help: "Total number of messages read from Kafka (count)",
		},
		[]string{"topic"},
	)

	KafkaMessagesWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kafka_messages_written_total",
			Help: "Total number of messages written to Kafka (count)",
		},
		[]string{"topic"},
	)

	RetryAttemptsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retry_attempts_total",
			Help: "Total number of retry attempts (count)",
		},
		[]string{"operation"},
	)

	RoadSegmentsLoaded = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "roadnet_segments_loaded",
			Help: "Number of road segments in the active reference snapshot (count)",
		},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)
)

func RegisterIngestMetrics() {
	prometheus.MustRegister(IngestMessagesTotal)
	prometheus.MustRegister(TopicDropsTotal)
	prometheus.MustRegister(RateLimitDropsTotal)
	prometheus.MustRegister(RateLimitTrackedDevices)
	prometheus.MustRegister(ValidationFailuresTotal)
	prometheus.MustRegister(ValidationWarningsTotal)
	prometheus.MustRegister(EnrichmentDuration)
	prometheus.MustRegister(RoadSegmentMatchesTotal)
	prometheus.MustRegister(SpeedViolationsTotal)
	prometheus.MustRegister(DLQMessagesTotal)
	prometheus.MustRegister(DLQPublishFailuresTotal)
	prometheus.MustRegister(RoadSegmentsLoaded)
}

func RegisterPersistMetrics() {
	prometheus.MustRegister(BatchFlushesTotal)
	prometheus.MustRegister(BatchFlushSize)
	prometheus.MustRegister(BatchFlushDuration)
	prometheus.MustRegister(RetryAttemptsTotal)
}

func RegisterBrokerMetrics() {
	prometheus.MustRegister(KafkaMessagesReadTotal)
	prometheus.MustRegister(KafkaMessagesWrittenTotal)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(CircuitBreakerState)
}

func ObserveEnrichmentDuration(kind string, duration time.Duration) {
	EnrichmentDuration.WithLabelValues(kind).Observe(float64(duration.Microseconds()) / 1000.0)
}

func ObserveBatchFlush(channel, trigger string, size int, duration time.Duration, status string) {
	BatchFlushesTotal.WithLabelValues(channel, trigger).Inc()
	BatchFlushSize.WithLabelValues(channel).Observe(float64(size))
	BatchFlushDuration.WithLabelValues(channel, status).Observe(float64(duration.Milliseconds()))
}

func SetRateLimitTrackedDevices(count int) {
	RateLimitTrackedDevices.Set(float64(count))
}

func SetRoadSegmentsLoaded(count int) {
	RoadSegmentsLoaded.Set(float64(count))
}
