package config

import (
	"os"
	"strings"
	"time"
)

// Config captures process-level configuration. Subsystems with an empty URL or
// broker list are disabled and the in-memory fallbacks are wired instead, which
// keeps local development dependency-free.
type Config struct {
	Addr          string
	DatabaseURL   string
	Redis         RedisConfig
	Kafka         KafkaConfig
	JWTSigningKey string
	SessionTTL    time.Duration
}

// RedisConfig configures the session store connection.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the event relay producer and the platform-events
// ingest consumer.
type KafkaConfig struct {
	Brokers       []string
	EventsTopic   string
	PlatformTopic string
	ConsumerGroup string
}

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	cfg := Config{
		Addr:          getenv("TRADEMATCH_ADDR", ":8080"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		JWTSigningKey: getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		SessionTTL:    24 * time.Hour,
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			EventsTopic:   getenv("KAFKA_EVENTS_TOPIC", "tradematch.domain-events"),
			PlatformTopic: getenv("KAFKA_PLATFORM_TOPIC", "tradematch.platform-events"),
			ConsumerGroup: getenv("KAFKA_CONSUMER_GROUP", "tradematch-notifier"),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Kafka.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
