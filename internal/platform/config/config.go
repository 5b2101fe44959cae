package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Config holds runtime configuration values for the Folio server.
type Config struct {
	DBDriver      string
	DBPath        string
	DatabaseURL   string
	ServerPort    int
	LogLevel      string
	SentryDSN     string
	Environment   string
	ShutdownGrace time.Duration

	JWTSecret string
	TokenTTL  time.Duration

	LLMEndpoint string
	LLMAPIKey   string
	LLMModel    string
	LLMTimeout  time.Duration

	AIHourlyLimit int
	RedisURL      string

	RateLimit RateLimitConfig
}

// RateLimitConfig configures the per-client HTTP token bucket.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int
	ClientTTL         time.Duration
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultDBDriver      = DriverSQLite
	defaultDBPath        = "./data/folio.db"
	defaultServerPort    = 8080
	defaultLogLevel      = "info"
	defaultEnvironment   = "development"
	defaultShutdownGrace = 10 * time.Second
	defaultTokenTTL      = 24 * time.Hour
	defaultLLMModel      = "gpt-4o-mini"
	defaultLLMTimeout    = 30 * time.Second
	defaultHourlyLimit   = 10
	defaultRPS           = 5
	defaultBurst         = 20
	defaultClientTTL     = 10 * time.Minute
)

// Load reads configuration values from environment variables, applying defaults where necessary.
func Load() (*Config, error) {
	cfg := &Config{
		DBDriver:      strings.ToLower(getEnv("DB_DRIVER", defaultDBDriver)),
		DBPath:        getEnv("DB_PATH", defaultDBPath),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		LogLevel:      getEnv("LOG_LEVEL", defaultLogLevel),
		SentryDSN:     os.Getenv("SENTRY_DSN"),
		Environment:   getEnv("ENV", defaultEnvironment),
		ShutdownGrace: defaultShutdownGrace,
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LLMEndpoint:   os.Getenv("LLM_ENDPOINT"),
		LLMAPIKey:     os.Getenv("LLM_API_KEY"),
		LLMModel:      getEnv("LLM_MODEL", defaultLLMModel),
		RedisURL:      os.Getenv("REDIS_URL"),
	}

	switch cfg.DBDriver {
	case DriverSQLite:
	case DriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			return nil, eris.New("DATABASE_URL is required when DB_DRIVER is postgres")
		}
	default:
		return nil, eris.Errorf("unsupported DB_DRIVER value: %s", cfg.DBDriver)
	}

	var err error

	if cfg.ServerPort, err = getInt("SERVER_PORT", defaultServerPort); err != nil {
		return nil, err
	}
	if cfg.AIHourlyLimit, err = getInt("AI_HOURLY_LIMIT", defaultHourlyLimit); err != nil {
		return nil, err
	}
	if cfg.AIHourlyLimit <= 0 {
		return nil, eris.Errorf("AI_HOURLY_LIMIT must be positive, got %d", cfg.AIHourlyLimit)
	}

	if cfg.TokenTTL, err = getDuration("TOKEN_TTL", defaultTokenTTL); err != nil {
		return nil, err
	}
	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", defaultLLMTimeout); err != nil {
		return nil, err
	}

	if cfg.RateLimit.RequestsPerSecond, err = getFloat("RATE_LIMIT_RPS", defaultRPS); err != nil {
		return nil, err
	}
	if cfg.RateLimit.Burst, err = getInt("RATE_LIMIT_BURST", defaultBurst); err != nil {
		return nil, err
	}
	if cfg.RateLimit.ClientTTL, err = getDuration("RATE_LIMIT_CLIENT_TTL", defaultClientTTL); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := getEnv(key, strconv.Itoa(fallback))
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func getFloat(key string, fallback float64) (float64, error) {
	raw := getEnv(key, strconv.FormatFloat(fallback, 'f', -1, 64))
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := getEnv(key, fallback.String())
	value, err := time.ParseDuration(raw)
	if err != nil {
		return 0, eris.Wrapf(err, "invalid %s value: %s", key, raw)
	}
	return value, nil
}
