package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит все настройки Notification Worker
type Config struct {
	Server   ServerConfig
	Kafka    KafkaConfig
	SendGrid SendGridConfig
	Tracing  TracingConfig
	LogLevel string
}

// ServerConfig - HTTP сервер только для /health и /metrics
type ServerConfig struct {
	Port string
}

type KafkaConfig struct {
	Brokers  []string
	Topic    string
	GroupID  string
	MinBytes int
	MaxBytes int
}

// SendGridConfig - доступ к API и id динамических шаблонов по типу события
type SendGridConfig struct {
	APIKey    string
	BaseURL   string
	Sender    string
	Timeout   time.Duration
	Templates map[string]string
}

type TracingConfig struct {
	JaegerEndpoint string
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	timeout, err := getEnvDuration("SENDGRID_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8081"),
		},
		Kafka: KafkaConfig{
			Brokers:  splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:    getEnv("KAFKA_TOPIC", "storefront_events"),
			GroupID:  getEnv("KAFKA_GROUP_ID", "notification-worker"),
			MinBytes: getEnvInt("KAFKA_MIN_BYTES", 1),
			MaxBytes: getEnvInt("KAFKA_MAX_BYTES", 10e6),
		},
		SendGrid: SendGridConfig{
			APIKey:  getEnv("SENDGRID_API_KEY", ""),
			BaseURL: getEnv("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
			Sender:  getEnv("SENDER", ""),
			Timeout: timeout,
			Templates: map[string]string{
				"ORDER_PAID":      getEnv("SENDGRID_TEMPLATE_ORDER_PAID", ""),
				"ORDER_DELIVERED": getEnv("SENDGRID_TEMPLATE_ORDER_DELIVERED", ""),
				"CONTACT_REPLY":   getEnv("SENDGRID_TEMPLATE_CONTACT_REPLY", ""),
			},
		},
		Tracing: TracingConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.SendGrid.Sender == "" {
		return nil, fmt.Errorf("SENDER is required")
	}

	return cfg, nil
}

func (c *ServerConfig) Address() string {
	return ":" + c.Port
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
