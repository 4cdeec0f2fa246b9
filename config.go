package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"restaurant-service/database"
	"restaurant-service/events"
	"restaurant-service/middleware"
	"restaurant-service/models"
	aws_pkg "restaurant-service/pkg/aws"

	"github.com/joho/godotenv"
)

const dbSecretName = "restaurant/DB_CREDENTIALS"

// Config holds all configuration for the restaurant service.
type Config struct {
	Port string
	Env  string

	Postgres database.PostgresConfig

	JWTSecret      string
	AllowedOrigins []string
	RateLimit      int
	RateBurst      int

	StatusPolicy string

	// Order events
	EventsBackend       string
	OrderEventsTopicARN string
	KafkaBrokers        []string
	KafkaOrderTopic     string
	RabbitMQURL         string
	RabbitMQExchange    string

	RedisURL       string
	ReportCacheTTL time.Duration
	ReportTimezone string
	ReportLocation *time.Location

	CatalogServiceURL string
	KitchenQueueURL   string

	MetricsEnabled     bool
	MetricsNamespace   string
	CloudWatchLogs     bool
	CloudWatchLogGroup string
}

// LoadConfig reads configuration from the environment (and .env when present),
// with an optional Secrets Manager override for credentials.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnv("PORT", "8080"),
		Env:  getEnv("ENV", "development"),
		Postgres: database.PostgresConfig{
			User:     os.Getenv("POSTGRES_USER"),
			Password: os.Getenv("POSTGRES_PASSWORD"),
			DBName:   os.Getenv("POSTGRES_DB"),
			Host:     os.Getenv("POSTGRES_HOST"),
			Port:     getEnv("POSTGRES_PORT", "5432"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
			TimeZone: getEnv("POSTGRES_TIMEZONE", "UTC"),
		},
		JWTSecret:           os.Getenv("JWT_SECRET"),
		AllowedOrigins:      middleware.ParseAllowedOrigins(os.Getenv("ALLOWED_ORIGINS")),
		StatusPolicy:        strings.ToLower(getEnv("ORDER_STATUS_POLICY", models.StatusPolicyPermissive)),
		EventsBackend:       strings.ToLower(getEnv("EVENTS_BACKEND", events.BackendSNS)),
		OrderEventsTopicARN: os.Getenv("ORDER_EVENTS_TOPIC_ARN"),
		KafkaBrokers:        splitList(os.Getenv("KAFKA_BROKERS")),
		KafkaOrderTopic:     getEnv("KAFKA_ORDER_TOPIC", "order-events"),
		RabbitMQURL:         os.Getenv("RABBITMQ_URL"),
		RabbitMQExchange:    getEnv("RABBITMQ_EXCHANGE", "orders_topic"),
		RedisURL:            os.Getenv("REDIS_URL"),
		ReportTimezone:      getEnv("REPORT_TIMEZONE", "UTC"),
		CatalogServiceURL:   os.Getenv("CATALOG_SERVICE_URL"),
		KitchenQueueURL:     os.Getenv("KITCHEN_QUEUE_URL"),
		MetricsEnabled:      os.Getenv("METRICS_ENABLED") == "true",
		MetricsNamespace:    getEnv("METRICS_NAMESPACE", "Restaurant"),
		CloudWatchLogs:      os.Getenv("CLOUDWATCH_LOGS_ENABLED") == "true",
		CloudWatchLogGroup:  getEnv("CLOUDWATCH_LOG_GROUP", "/restaurant/restaurant-service"),
	}

	var err error
	if cfg.RateLimit, err = getEnvInt("RATE_LIMIT_PER_MINUTE", 100); err != nil {
		return nil, err
	}
	if cfg.RateBurst, err = getEnvInt("RATE_LIMIT_BURST", 50); err != nil {
		return nil, err
	}
	if cfg.ReportCacheTTL, err = time.ParseDuration(getEnv("REPORT_CACHE_TTL", "30s")); err != nil {
		return nil, fmt.Errorf("invalid REPORT_CACHE_TTL: %w", err)
	}

	// Override credentials from Secrets Manager when running on AWS
	if os.Getenv("AWS_USE_SECRETS") == "true" {
		if awsCfg, err := aws_pkg.LoadAWSConfig(context.Background()); err == nil {
			sm := aws_pkg.NewSecretsClient(awsCfg)
			if values, err := sm.GetSecretMap(context.Background(), dbSecretName); err == nil {
				cfg.applySecrets(values)
			}
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applySecrets(values map[string]string) {
	overrides := map[string]*string{
		"POSTGRES_USER":     &c.Postgres.User,
		"POSTGRES_PASSWORD": &c.Postgres.Password,
		"POSTGRES_DB":       &c.Postgres.DBName,
		"POSTGRES_HOST":     &c.Postgres.Host,
		"POSTGRES_PORT":     &c.Postgres.Port,
		"JWT_SECRET":        &c.JWTSecret,
	}
	for key, dst := range overrides {
		if v := values[key]; v != "" {
			*dst = v
		}
	}
}

func (c *Config) validate() error {
	p := c.Postgres
	if p.User == "" || p.Password == "" || p.DBName == "" || p.Host == "" {
		return fmt.Errorf("database config incomplete")
	}

	if _, err := models.NewStatusPolicy(c.StatusPolicy); err != nil {
		return fmt.Errorf("invalid ORDER_STATUS_POLICY: %w", err)
	}

	switch c.EventsBackend {
	case events.BackendSNS, events.BackendNone:
	case events.BackendKafka:
		if len(c.KafkaBrokers) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required for the kafka events backend")
		}
	case events.BackendRabbitMQ:
		if c.RabbitMQURL == "" {
			return fmt.Errorf("RABBITMQ_URL is required for the rabbitmq events backend")
		}
	default:
		return fmt.Errorf("unknown EVENTS_BACKEND %q", c.EventsBackend)
	}

	loc, err := time.LoadLocation(c.ReportTimezone)
	if err != nil {
		return fmt.Errorf("invalid REPORT_TIMEZONE: %w", err)
	}
	c.ReportLocation = loc
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
