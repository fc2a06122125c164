package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config содержит все настройки Storefront Service
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Postgres DatabaseConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	JWT      JWTConfig
	Cron     CronScheduleConfig
	Tracing  TracingConfig
	LogLevel string
}

type ServerConfig struct {
	Host string // Адрес хоста (по умолчанию 0.0.0.0)
	Port string // Порт сервера (по умолчанию 8080)
}

// MongoDBConfig - каталог, отзывы, заказы, настройки налога и outbox
type MongoDBConfig struct {
	URI      string
	Database string
}

// DatabaseConfig - PostgreSQL: пользователи (pgx) и журнал расхождений остатков (gorm)
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig - кеш снимка TaxNShipping и блокировка outbox relay
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	TTL      time.Duration // TTL кеша снимка налога/доставки
}

// KafkaConfig - топик, в который outbox relay публикует события
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type JWTConfig struct {
	Secret string // Должен совпадать с секретом сервиса аутентификации
}

// CronScheduleConfig - расписания фоновых задач (формат robfig/cron с секундами)
type CronScheduleConfig struct {
	OutboxRelay    string
	StockReconcile string
	OutboxBatch    int

	// После стольких неудачных публикаций событие уходит в failed
	OutboxMaxAttempts int
}

type TracingConfig struct {
	JaegerEndpoint string // Пусто - экспорт span'ов выключен
}

// Load загружает конфигурацию из переменных окружения
func Load() (*Config, error) {
	cacheTTL, err := getEnvDuration("REDIS_TAX_TTL", 10*time.Minute)
	if err != nil {
		return nil, err
	}

	return &Config{
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("SERVER_PORT", "8080"),
		},
		MongoDB: MongoDBConfig{
			URI:      getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			Database: getEnv("MONGODB_DATABASE", "storefront"),
		},
		Postgres: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "storefront"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
			TTL:      cacheTTL,
		},
		Kafka: KafkaConfig{
			Brokers: splitList(getEnv("KAFKA_BROKERS", "localhost:9092")),
			Topic:   getEnv("KAFKA_TOPIC", "storefront_events"),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", "your-secret-key-change-this-in-production"),
		},
		Cron: CronScheduleConfig{
			OutboxRelay:       getEnv("CRON_OUTBOX_RELAY", "*/5 * * * * *"),
			StockReconcile:    getEnv("CRON_STOCK_RECONCILE", "0 */10 * * * *"),
			OutboxBatch:       getEnvInt("OUTBOX_BATCH_SIZE", 100),
			OutboxMaxAttempts: getEnvInt("OUTBOX_MAX_ATTEMPTS", 10),
		},
		Tracing: TracingConfig{
			JaegerEndpoint: getEnv("JAEGER_ENDPOINT", ""),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}, nil
}

func (c *ServerConfig) Address() string {
	return c.Host + ":" + c.Port
}

// DSN возвращает строку подключения в формате libpq (понимают и pgx, и gorm)
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func (c *RedisConfig) Address() string {
	return c.Host + ":" + c.Port
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
