package config

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Kafka    KafkaConfig
	Redis    RedisConfig
	FMP      FMPConfig
	LLM      LLMConfig
	Auth     AuthConfig
	Ledger   LedgerConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         string        `env:"SERVER_PORT" env-default:"8081"`
	Host         string        `env:"SERVER_HOST" env-default:"0.0.0.0"`
	ReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" env-default:"15s"`
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" env-default:"90s"`
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host           string `env:"DB_HOST" env-default:"postgres"`
	Port           string `env:"DB_PORT" env-default:"5432"`
	User           string `env:"DB_USER" env-default:"investor"`
	Password       string `env:"DB_PASSWORD" env-default:"investor"`
	DBName         string `env:"DB_NAME" env-default:"portfolio"`
	SSLMode        string `env:"DB_SSLMODE" env-default:"disable"`
	MigrationsPath string `env:"DB_MIGRATIONS_PATH" env-default:"file://./db/migrations"`
}

// KafkaConfig holds Kafka/Redpanda configuration
type KafkaConfig struct {
	Enabled       bool     `env:"KAFKA_ENABLED" env-default:"true"`
	Brokers       []string `env:"KAFKA_BROKERS" env-separator:"," env-default:"localhost:19092"`
	EventsTopic   string   `env:"KAFKA_EVENTS_TOPIC" env-default:"portfolio.holdings"`
	OrdersTopic   string   `env:"KAFKA_ORDERS_TOPIC" env-default:"paper.orders"`
	ConsumerGroup string   `env:"KAFKA_CONSUMER_GROUP" env-default:"portfolio-service"`
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string `env:"REDIS_HOST" env-default:"localhost"`
	Port     string `env:"REDIS_PORT" env-default:"6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" env-default:"0"`
}

// FMPConfig holds Financial Modeling Prep configuration.
// Timeout applies to every market-data call.
type FMPConfig struct {
	APIKey  string        `env:"FMP_API_KEY"`
	BaseURL string        `env:"FMP_BASE_URL" env-default:"https://financialmodelingprep.com/api/v3"`
	Timeout time.Duration `env:"FMP_TIMEOUT" env-default:"30s"`
}

// LLMConfig holds language model configuration
type LLMConfig struct {
	APIKey   string        `env:"LLM_API_KEY"`
	Model    string        `env:"LLM_MODEL" env-default:"gemini-2.0-flash"`
	CacheTTL time.Duration `env:"LLM_CACHE_TTL" env-default:"1h"`
}

// AuthConfig holds token signing configuration
type AuthConfig struct {
	Secret          string        `env:"AUTH_SECRET" env-required:"true"`
	AccessTokenTTL  time.Duration `env:"AUTH_ACCESS_TOKEN_TTL" env-default:"30m"`
	RefreshTokenTTL time.Duration `env:"AUTH_REFRESH_TOKEN_TTL" env-default:"168h"`
}

// LedgerConfig bounds the quote fan-out when valuing a portfolio
type LedgerConfig struct {
	QuoteConcurrency int `env:"LEDGER_QUOTE_CONCURRENCY" env-default:"8"`
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL" env-default:"info"`
	Format string `env:"LOG_FORMAT" env-default:"text"`
}

// Load reads configuration from an optional .env file and the environment
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug("no .env file found, reading from environment variables")
	}

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if strings.TrimSpace(cfg.Auth.Secret) == "" {
		return nil, fmt.Errorf("failed to read config: AUTH_SECRET must not be empty")
	}
	if cfg.Ledger.QuoteConcurrency < 1 {
		cfg.Ledger.QuoteConcurrency = 1
	}
	return &cfg, nil
}

// ConnectionString returns the PostgreSQL connection string
func (d *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     net.JoinHostPort(d.Host, d.Port),
		Path:     "/" + d.DBName,
		RawQuery: url.Values{"sslmode": {d.SSLMode}}.Encode(),
	}
	return u.String()
}

// Address returns the Redis address in host:port format
func (r *RedisConfig) Address() string {
	return net.JoinHostPort(r.Host, r.Port)
}

// Addr returns the HTTP listen address
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, s.Port)
}

// ConfigureLogging applies level and format to the standard logrus logger
func (l *LogConfig) ConfigureLogging() error {
	level, err := log.ParseLevel(l.Level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", l.Level, err)
	}
	log.SetLevel(level)

	switch l.Format {
	case "json":
		log.SetFormatter(&log.JSONFormatter{})
	default:
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return nil
}
