package config

import (
	"fmt"
	"strings"

	"fleetstream/internal/constants"
)

func ApplyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}

	if cfg.MQTT.ClientID == "" {
		cfg.MQTT.ClientID = "stream-processor"
	}
	if cfg.MQTT.QoS == 0 {
		cfg.MQTT.QoS = 1
	}
	if cfg.MQTT.QueueLength == 0 {
		cfg.MQTT.QueueLength = 1024
	}

	if cfg.Broker.Kafka.GroupIDPrefix == "" {
		cfg.Broker.Kafka.GroupIDPrefix = "stream-processor"
	}
	if cfg.Broker.Kafka.Topics.Telemetry == "" {
		cfg.Broker.Kafka.Topics.Telemetry = constants.TopicTelemetry
	}
	if cfg.Broker.Kafka.Topics.Events == "" {
		cfg.Broker.Kafka.Topics.Events = constants.TopicEvents
	}
	if cfg.Broker.Kafka.Topics.V2X == "" {
		cfg.Broker.Kafka.Topics.V2X = constants.TopicV2X
	}
	if cfg.Broker.Kafka.Topics.DLQ == "" {
		cfg.Broker.Kafka.Topics.DLQ = constants.TopicDLQ
	}

	if cfg.Pipeline.RateLimit.MessagesPerWindow == 0 {
		cfg.Pipeline.RateLimit.MessagesPerWindow = constants.DefaultRateLimitPerWindow
	}
	if cfg.Pipeline.RateLimit.Window == 0 {
		cfg.Pipeline.RateLimit.Window = constants.DefaultRateLimitWindow
	}
	if cfg.Pipeline.RateLimit.CleanupInterval == 0 {
		cfg.Pipeline.RateLimit.CleanupInterval = 5 * constants.DefaultRateLimitWindow
	}
	if cfg.Pipeline.RateLimit.IdleMaxAge == 0 {
		cfg.Pipeline.RateLimit.IdleMaxAge = 10 * constants.DefaultRateLimitWindow
	}

	if cfg.Pipeline.Batch.Size == 0 {
		cfg.Pipeline.Batch.Size = constants.DefaultBatchSize
	}
	if cfg.Pipeline.Batch.FlushInterval == 0 {
		cfg.Pipeline.Batch.FlushInterval = constants.DefaultFlushInterval
	}

	if cfg.Pipeline.Validator.MaxFutureSkew == 0 {
		cfg.Pipeline.Validator.MaxFutureSkew = constants.DefaultMaxFutureSkew
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

func ValidateStatic(cfg *Config) error {
	var problems []string

	if cfg.MQTT.BrokerURL == "" {
		problems = append(problems, "mqtt.broker_url is required")
	}
	if cfg.MQTT.QoS < 0 || cfg.MQTT.QoS > 2 {
		problems = append(problems, "mqtt.qos must be 0, 1 or 2")
	}

	if len(cfg.Broker.Kafka.Brokers) == 0 {
		problems = append(problems, "broker.kafka.brokers is required")
	}

	if cfg.Database.Postgres.Host == "" {
		problems = append(problems, "database.postgres.host is required")
	}
	if cfg.Database.Redis.Host == "" {
		problems = append(problems, "database.redis.host is required")
	}

	if cfg.Pipeline.RateLimit.MessagesPerWindow < 1 {
		problems = append(problems, "pipeline.rate_limit.messages_per_window must be positive")
	}
	if cfg.Pipeline.RateLimit.Window <= 0 {
		problems = append(problems, "pipeline.rate_limit.window must be positive")
	}
	if cfg.Pipeline.Batch.Size < 1 {
		problems = append(problems, "pipeline.batch.size must be positive")
	}
	if cfg.Pipeline.Batch.FlushInterval <= 0 {
		problems = append(problems, "pipeline.batch.flush_interval must be positive")
	}

	for i, seg := range cfg.Pipeline.Roadnet.Segments {
		if seg.SegmentID == "" {
			problems = append(problems, fmt.Sprintf("pipeline.roadnet.segments[%d].segment_id is required", i))
		}
		if seg.SpeedLimit <= 0 {
			problems = append(problems, fmt.Sprintf("pipeline.roadnet.segments[%d].speed_limit must be positive", i))
		}
		switch seg.RoadType {
		case "urban", "highway", "residential":
		default:
			problems = append(problems, fmt.Sprintf("pipeline.roadnet.segments[%d].road_type must be urban, highway or residential", i))
		}
	}

	for i, gf := range cfg.Pipeline.Roadnet.Geofences {
		if gf.Name == "" {
			problems = append(problems, fmt.Sprintf("pipeline.roadnet.geofences[%d].name is required", i))
		}
		if gf.Radius <= 0 {
			problems = append(problems, fmt.Sprintf("pipeline.roadnet.geofences[%d].radius must be positive", i))
		}
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
