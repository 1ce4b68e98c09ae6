package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	id "custody/pkg/domain"
	liststr "custody/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr             string
	AdminIdentity    string
	JWTSigningKey    string
	JWTIssuer        string
	LogLevel         string
	SeedFile         string
	TxTimeout        time.Duration
	RegistryCacheTTL time.Duration

	Database DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Outbox   OutboxConfig
}

// DatabaseConfig selects the Postgres backend. An empty URL keeps every store
// in memory.
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig enables the role cache and the pub/sub publisher.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the Kafka notification publisher.
type KafkaConfig struct {
	Brokers  []string
	Topic    string
	ClientID string
}

type OutboxConfig struct {
	PollInterval time.Duration
	BatchSize    int
}

const devSigningKey = "dev-secret-key-change-in-production"

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:             envOr("CUSTODY_ADDR", ":8080"),
		AdminIdentity:    os.Getenv("CUSTODY_ADMIN_IDENTITY"),
		JWTSigningKey:    envOr("JWT_SIGNING_KEY", devSigningKey),
		JWTIssuer:        envOr("JWT_ISSUER", "custody"),
		LogLevel:         envOr("LOG_LEVEL", "info"),
		SeedFile:         os.Getenv("SEED_FILE"),
		TxTimeout:        envDuration("TX_TIMEOUT", 5*time.Second),
		RegistryCacheTTL: envDuration("REGISTRY_CACHE_TTL", 5*time.Minute),
		Database: DatabaseConfig{
			URL:          os.Getenv("DATABASE_URL"),
			MaxOpenConns: envInt("DATABASE_MAX_OPEN_CONNS", 20),
			MaxIdleConns: 5,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Kafka: KafkaConfig{
			Brokers:  liststr.SplitList(os.Getenv("KAFKA_BROKERS")),
			Topic:    envOr("KAFKA_TOPIC", "custody.events"),
			ClientID: "custody",
		},
		Outbox: OutboxConfig{
			PollInterval: envDuration("OUTBOX_POLL_INTERVAL", time.Second),
			BatchSize:    envInt("OUTBOX_BATCH_SIZE", 100),
		},
	}
}

// Validate reports configuration that would leave the service unusable.
func (s Server) Validate() error {
	var errs []error
	if s.AdminIdentity == "" {
		errs = append(errs, errors.New("CUSTODY_ADMIN_IDENTITY is required"))
	} else if _, err := id.ParseIdentity(s.AdminIdentity); err != nil {
		errs = append(errs, fmt.Errorf("CUSTODY_ADMIN_IDENTITY: %w", err))
	}
	if s.JWTSigningKey == "" {
		errs = append(errs, errors.New("JWT_SIGNING_KEY is required"))
	}
	if s.TxTimeout <= 0 {
		errs = append(errs, errors.New("TX_TIMEOUT must be positive"))
	}
	if s.Outbox.BatchSize <= 0 {
		errs = append(errs, errors.New("OUTBOX_BATCH_SIZE must be positive"))
	}
	if s.Outbox.PollInterval <= 0 {
		errs = append(errs, errors.New("OUTBOX_POLL_INTERVAL must be positive"))
	}
	if len(s.Kafka.Brokers) > 0 && s.Kafka.Topic == "" {
		errs = append(errs, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set"))
	}
	return errors.Join(errs...)
}

// Admin returns the parsed administrator identity. Call Validate first.
func (s Server) Admin() id.Identity {
	admin, _ := id.ParseIdentity(s.AdminIdentity)
	return admin
}

// UsesDevSigningKey reports whether the built-in development key is active.
func (s Server) UsesDevSigningKey() bool {
	return s.JWTSigningKey == devSigningKey
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
