package constants

import "time"

const (
	KafkaBatchTimeout = 10 * time.Millisecond
	KafkaWriteTimeout = 10 * time.Second
)

const (
	TopicTelemetry = "stream.telemetry"
	TopicEvents    = "stream.events"
	TopicV2X       = "stream.v2x"
	TopicDLQ       = "stream.dlq"
)

const (
	// Inbound MQTT filters. The + wildcards match orgId and deviceId.
	MQTTTelemetryFilter = "/org/+/device/+/telemetry"
	MQTTEventsFilter    = "/org/+/device/+/events"
	MQTTV2XFilter       = "/org/+/device/+/v2x"
)

const (
	CacheKeyPrefixV2X      = "v2x:"
	CacheKeyPrefixPosition = "position:"
)

const (
	PositionTTL = 5 * time.Minute
)

const (
	DefaultRateLimitPerWindow = 60
	DefaultRateLimitWindow    = 60 * time.Second
	DefaultBatchSize          = 100
	DefaultFlushInterval      = 5 * time.Second
	DefaultMaxFutureSkew      = 5 * time.Minute
	DefaultV2XTTLSeconds      = 5
)

const (
	ShutdownTimeout = 5 * time.Second
)

const (
	ValidatorVersion = "1.0.0"
)
