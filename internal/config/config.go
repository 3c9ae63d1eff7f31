package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	env "github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string        `env:"DATABASE_URL,required"`
	JWTSecret   string        `env:"JWT_SECRET,required"`
	JWTExpiry   time.Duration `env:"JWT_EXPIRY" envDefault:"24h"`
	Port        int           `env:"PORT" envDefault:"3000"`
	LogLevel    string        `env:"LOG_LEVEL" envDefault:"info"`
	AppEnv      string        `env:"APP_ENV" envDefault:"production"`
	BcryptCost  int           `env:"BCRYPT_COST" envDefault:"12"`

	ExchangeAPIURL     string        `env:"EXCHANGE_API_URL" envDefault:"https://api.exchangerate-api.com/v4/latest"`
	ExchangeAPITimeout time.Duration `env:"EXCHANGE_API_TIMEOUT" envDefault:"10s"`
	RateCacheTTL       time.Duration `env:"RATE_CACHE_TTL" envDefault:"1h"`
	RateFallbackTTL    time.Duration `env:"RATE_FALLBACK_TTL" envDefault:"5m"`

	GatewayLatency      time.Duration `env:"GATEWAY_LATENCY" envDefault:"2s"`
	GatewayFailureRate  float64       `env:"GATEWAY_FAILURE_RATE" envDefault:"0.05"`
	SettlementWorkers   int           `env:"SETTLEMENT_WORKERS" envDefault:"4"`
	SettlementQueueSize int           `env:"SETTLEMENT_QUEUE_SIZE" envDefault:"256"`

	// Optional integrations. Empty disables them.
	RedisURL       string   `env:"REDIS_URL"`
	RabbitMQURL    string   `env:"RABBITMQ_URL"`
	AllowedOrigins []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	IdempotencyTTL             time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	IdempotencyCleanupSchedule string        `env:"IDEMPOTENCY_CLEANUP_SCHEDULE" envDefault:"@hourly"`
	StaleScanSchedule          string        `env:"STALE_SCAN_SCHEDULE" envDefault:"@every 5m"`
	StaleProcessingAfter       time.Duration `env:"STALE_PROCESSING_AFTER" envDefault:"10m"`

	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`

	DBMaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	DBMaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	DBConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"5m"`
	DBConnMaxIdleTime time.Duration `env:"DB_CONN_MAX_IDLE_TIME" envDefault:"1m"`
	DBConnectAttempts int           `env:"DB_CONNECT_ATTEMPTS" envDefault:"30"`
}

// Load reads an optional .env file, then the process environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config.Load: %w", err)
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config.Load: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.GatewayFailureRate < 0 || c.GatewayFailureRate > 1 {
		return fmt.Errorf("GATEWAY_FAILURE_RATE must be within [0, 1], got %v", c.GatewayFailureRate)
	}
	if c.SettlementWorkers < 1 {
		return fmt.Errorf("SETTLEMENT_WORKERS must be at least 1, got %d", c.SettlementWorkers)
	}
	if c.SettlementQueueSize < 1 {
		return fmt.Errorf("SETTLEMENT_QUEUE_SIZE must be at least 1, got %d", c.SettlementQueueSize)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
