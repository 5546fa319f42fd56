package config

import (
	"time"
)

type Config struct {
	Server         ServerConfig         `mapstructure:"server"`
	MQTT           MQTTConfig           `mapstructure:"mqtt"`
	Broker         BrokerConfig         `mapstructure:"broker"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Pipeline       PipelineConfig       `mapstructure:"pipeline"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type MQTTConfig struct {
	BrokerURL   string `mapstructure:"broker_url"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	QoS         int    `mapstructure:"qos"`
	QueueLength int    `mapstructure:"queue_length"`
}

type BrokerConfig struct {
	Kafka KafkaConfig `mapstructure:"kafka"`
}

type KafkaConfig struct {
	Brokers       []string     `mapstructure:"brokers"`
	GroupIDPrefix string       `mapstructure:"group_id_prefix"`
	Topics        TopicsConfig `mapstructure:"topics"`
	Retry         RetryConfig  `mapstructure:"retry"`
}

type TopicsConfig struct {
	Telemetry string `mapstructure:"telemetry"`
	Events    string `mapstructure:"events"`
	V2X       string `mapstructure:"v2x"`
	DLQ       string `mapstructure:"dlq"`
}

type RetryConfig struct {
	MaxAttempts     int           `mapstructure:"max_attempts"`
	InitialInterval time.Duration `mapstructure:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval"`
	Multiplier      float64       `mapstructure:"multiplier"`
	MaxElapsedTime  time.Duration `mapstructure:"max_elapsed_time"`
}

type DatabaseConfig struct {
	Postgres      PostgresConfig `mapstructure:"postgres"`
	Redis         RedisConfig    `mapstructure:"redis"`
	MongoDB       MongoDBConfig  `mapstructure:"mongodb"`
	RunMigrations bool           `mapstructure:"run_migrations"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type RedisConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MongoDBConfig struct {
	URI      string `mapstructure:"uri"`
	Database string `mapstructure:"database"`
}

type PipelineConfig struct {
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Batch     BatchConfig     `mapstructure:"batch"`
	Validator ValidatorConfig `mapstructure:"validator"`
	Roadnet   RoadnetConfig   `mapstructure:"roadnet"`
}

type RateLimitConfig struct {
	MessagesPerWindow int           `mapstructure:"messages_per_window"`
	Window            time.Duration `mapstructure:"window"`
	CleanupInterval   time.Duration `mapstructure:"cleanup_interval"`
	IdleMaxAge        time.Duration `mapstructure:"idle_max_age"`
}

type BatchConfig struct {
	Size          int           `mapstructure:"size"`
	FlushInterval time.Duration `mapstructure:"flush_interval"`
}

type ValidatorConfig struct {
	MaxFutureSkew time.Duration `mapstructure:"max_future_skew"`
}

type RoadnetConfig struct {
	RefreshInterval time.Duration  `mapstructure:"refresh_interval"`
	Segments        []SegmentSeed  `mapstructure:"segments"`
	Geofences       []GeofenceSeed `mapstructure:"geofences"`
}

// SegmentSeed and GeofenceSeed let small deployments ship the reference data
// in the config file instead of MongoDB.
type SegmentSeed struct {
	SegmentID  string  `mapstructure:"segment_id"`
	SpeedLimit int     `mapstructure:"speed_limit"`
	RoadType   string  `mapstructure:"road_type"`
	TollZone   bool    `mapstructure:"toll_zone"`
	Lat        float64 `mapstructure:"lat"`
	Lon        float64 `mapstructure:"lon"`
}

type GeofenceSeed struct {
	Name   string  `mapstructure:"name"`
	Lat    float64 `mapstructure:"lat"`
	Lon    float64 `mapstructure:"lon"`
	Radius float64 `mapstructure:"radius"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type CircuitBreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max_requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	FailureRatio float64       `mapstructure:"failure_ratio"`
	MinRequests  uint32        `mapstructure:"min_requests"`
}

func Load(configFile string) (*Config, error) {
	return LoadConfig(configFile)
}
