package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	JWT           JWTConfig           `yaml:"jwt"`
	Standings     StandingsConfig     `yaml:"standings"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
}

// HTTPConfig holds the query API listener settings.
type HTTPConfig struct {
	Address        string  `yaml:"address"`
	RateLimit      float64 `yaml:"rate_limit"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// JWTConfig holds the secret used to verify judge tokens.
type JWTConfig struct {
	Secret string `yaml:"secret"`
}

// StandingsConfig holds the scoring policy and cache/feed tuning.
type StandingsConfig struct {
	PenaltyPerWrong      time.Duration `yaml:"penalty_per_wrong"`
	FreezeWindow         time.Duration `yaml:"freeze_window"`
	NonPenalizedVerdicts []string      `yaml:"non_penalized_verdicts"`
	CacheStaleness       time.Duration `yaml:"cache_staleness"`
	FeedPageSize         int           `yaml:"feed_page_size"`
	WarmOnInvalidate     bool          `yaml:"warm_on_invalidate"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	Environment  string `yaml:"environment"`
	LogLevel     string `yaml:"log_level"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	OTLPInsecure bool   `yaml:"otlp_insecure"`
	ServiceName  string `yaml:"service_name"`
}

// Defaults returns the configuration used when neither file nor env sets a value.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Address:        ":8080",
			RateLimit:      20,
			RateLimitBurst: 40,
		},
		Standings: StandingsConfig{
			PenaltyPerWrong:      20 * time.Minute,
			NonPenalizedVerdicts: []string{"CE", "SE"},
			FeedPageSize:         500,
			WarmOnInvalidate:     true,
		},
		Observability: ObservabilityConfig{
			Environment: "production",
			LogLevel:    "info",
			ServiceName: "judge-standings",
		},
	}
}

// LoadConfig loads the configuration from a YAML file, then applies .env and
// environment overrides. A missing file falls back to environment only.
func LoadConfig(filename string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := Defaults()

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", filename, err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	// --- OVERRIDE WITH ENV VARS IF PRESENT ---
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("HTTP_ADDRESS"); v != "" {
		cfg.HTTP.Address = v
	}
	if v := os.Getenv("JWT_SECRET"); v != "" {
		cfg.JWT.Secret = v
	}
	if v := os.Getenv("OTLP_ENDPOINT"); v != "" {
		cfg.Observability.OTLPEndpoint = v
	}
	if v := os.Getenv("OTLP_INSECURE"); v != "" {
		cfg.Observability.OTLPInsecure = v == "true"
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("NON_PENALIZED_VERDICTS"); v != "" {
		cfg.Standings.NonPenalizedVerdicts = strings.Split(v, ",")
	}

	durations := []struct {
		env string
		dst *time.Duration
	}{
		{"PENALTY_PER_WRONG", &cfg.Standings.PenaltyPerWrong},
		{"FREEZE_WINDOW", &cfg.Standings.FreezeWindow},
		{"CACHE_STALENESS", &cfg.Standings.CacheStaleness},
	}
	for _, d := range durations {
		v := os.Getenv(d.env)
		if v == "" {
			continue
		}
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s value: %w", d.env, err)
		}
		*d.dst = parsed
	}

	if v := os.Getenv("FEED_PAGE_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid FEED_PAGE_SIZE value: %w", err)
		}
		cfg.Standings.FeedPageSize = n
	}
	if v := os.Getenv("RATE_LIMIT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT value: %w", err)
		}
		cfg.HTTP.RateLimit = f
	}
	return nil
}

// Validate rejects settings the engine cannot run with.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return fmt.Errorf("postgres dsn is required (DATABASE_URL)")
	}
	if c.Standings.PenaltyPerWrong < 0 {
		return fmt.Errorf("penalty_per_wrong must not be negative")
	}
	if c.Standings.FreezeWindow < 0 {
		return fmt.Errorf("freeze_window must not be negative")
	}
	if c.Standings.CacheStaleness < 0 {
		return fmt.Errorf("cache_staleness must not be negative")
	}
	if c.Standings.FeedPageSize <= 0 {
		return fmt.Errorf("feed_page_size must be positive")
	}
	return nil
}
