package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Config keeps the runtime configuration for the service.
type Config struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	HTTP     HTTPConfig
	Store    StoreConfig
	Redis    RedisConfig
	Cache    CacheConfig
	JWT      JWTConfig
	RabbitMQ RabbitMQConfig
	Kafka    KafkaConfig
	Log      LogConfig
}

// HTTPConfig holds HTTP server related settings.
type HTTPConfig struct {
	Host string `env:"HTTP_HOST" envDefault:"0.0.0.0"`
	Port int    `env:"HTTP_PORT" envDefault:"8080"`
}

// Addr renders the listen address in host:port form.
func (h HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}

// StoreConfig selects the ledger and broker directory backend.
type StoreConfig struct {
	Driver string `env:"STORE_DRIVER" envDefault:"memory"`
	DSN    string `env:"DATABASE_DSN"`
}

// RedisConfig stores Redis connection parameters. An empty Addr disables the cache.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// CacheConfig stores cache behavior.
type CacheConfig struct {
	TTL time.Duration `env:"CACHE_TTL" envDefault:"30s"`
}

type JWTConfig struct {
	Key    string        `env:"JWT_KEY"`
	Issuer string        `env:"JWT_ISSUER" envDefault:"stockexchange"`
	TTL    time.Duration `env:"JWT_TTL" envDefault:"1h"`
}

// RabbitMQConfig stores broker settings. An empty URL disables the consumer and
// the RabbitMQ event publisher.
//
// NotificationsQueue is durable so notifications published while the service is down
// are kept. Messages that cannot be decoded go to its dead-letter exchange.
type RabbitMQConfig struct {
	URL                   string        `env:"RABBITMQ_URL"`
	NotificationsExchange string        `env:"RABBITMQ_NOTIFICATIONS_EXCHANGE" envDefault:"stockexchange.notifications"`
	NotificationsQueue    string        `env:"RABBITMQ_NOTIFICATIONS_QUEUE" envDefault:"stockexchange.notifications.ledger"`
	EventsExchange        string        `env:"RABBITMQ_EVENTS_EXCHANGE"`
	Prefetch              int           `env:"RABBITMQ_PREFETCH" envDefault:"16"`
	RetryDelay            time.Duration `env:"RABBITMQ_RETRY_DELAY" envDefault:"5s"`
}

// KafkaConfig enables the Kafka event publisher when brokers are set.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
	Topic   string   `env:"KAFKA_TOPIC" envDefault:"stockexchange.trades"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// Load builds Config from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks rules spanning several fields.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case StoreMemory:
	case StorePostgres:
		if c.Store.DSN == "" {
			errs = append(errs, errors.New("DATABASE_DSN is required for the postgres store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported STORE_DRIVER %q", c.Store.Driver))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("HTTP_PORT out of range: %d", c.HTTP.Port))
	}
	if c.JWT.Key == "" {
		errs = append(errs, errors.New("JWT_KEY is required"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if c.Redis.Addr != "" && c.Cache.TTL <= 0 {
		errs = append(errs, errors.New("CACHE_TTL must be positive when redis is enabled"))
	}
	if c.RabbitMQ.URL != "" && c.RabbitMQ.NotificationsExchange == "" {
		errs = append(errs, errors.New("RABBITMQ_NOTIFICATIONS_EXCHANGE is required"))
	}
	if c.RabbitMQ.RetryDelay < 0 {
		errs = append(errs, errors.New("RABBITMQ_RETRY_DELAY must not be negative"))
	}
	if c.RabbitMQ.EventsExchange != "" && c.RabbitMQ.URL == "" {
		errs = append(errs, errors.New("RABBITMQ_EVENTS_EXCHANGE needs RABBITMQ_URL"))
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}
