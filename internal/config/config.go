package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends accepted by STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
	BackendMemory   = "memory"
)

type Config struct {
	Port                string        `mapstructure:"PORT"`
	Env                 string        `mapstructure:"ENV"`
	StoreBackend        string        `mapstructure:"STORE_BACKEND"`
	DatabaseURL         string        `mapstructure:"DATABASE_URL"`
	DBMaxConns          int32         `mapstructure:"DB_MAX_CONNS"`
	DBMinConns          int32         `mapstructure:"DB_MIN_CONNS"`
	MongoURI            string        `mapstructure:"MONGODB_URI"`
	MongoDatabase       string        `mapstructure:"MONGODB_DATABASE"`
	RedisURL            string        `mapstructure:"REDIS_URL"`
	ReportCacheTTL      time.Duration `mapstructure:"REPORT_CACHE_TTL"`
	AuthSecret          string        `mapstructure:"AUTH_SECRET"`
	AuthTokenTTL        time.Duration `mapstructure:"AUTH_TOKEN_TTL"`
	AdminEmail          string        `mapstructure:"ADMIN_EMAIL"`
	AdminPasswordHash   string        `mapstructure:"ADMIN_PASSWORD_HASH"`
	CORSOrigins         []string      `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS        float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst      int           `mapstructure:"RATE_LIMIT_BURST"`
	RequestTimeout      time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	Timezone            string        `mapstructure:"TIMEZONE"`
	InactivePatientDays int           `mapstructure:"INACTIVE_PATIENT_DAYS"`
}

var envKeys = []string{
	"PORT", "ENV", "STORE_BACKEND",
	"DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS",
	"MONGODB_URI", "MONGODB_DATABASE",
	"REDIS_URL", "REPORT_CACHE_TTL",
	"AUTH_SECRET", "AUTH_TOKEN_TTL", "ADMIN_EMAIL", "ADMIN_PASSWORD_HASH",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "REQUEST_TIMEOUT",
	"TIMEZONE", "INACTIVE_PATIENT_DAYS",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("STORE_BACKEND", BackendPostgres)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("MONGODB_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGODB_DATABASE", "patient-reception")
	v.SetDefault("REPORT_CACHE_TTL", "30s")
	v.SetDefault("AUTH_TOKEN_TTL", "12h")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)
	v.SetDefault("REQUEST_TIMEOUT", "15s")
	v.SetDefault("TIMEZONE", "Local")
	v.SetDefault("INACTIVE_PATIENT_DAYS", 30)

	for _, key := range envKeys {
		_ = v.BindEnv(key)
	}

	// .env is optional
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if len(cfg.CORSOrigins) == 1 && strings.Contains(cfg.CORSOrigins[0], ",") {
		cfg.CORSOrigins = strings.Split(cfg.CORSOrigins[0], ",")
	}
	cfg.StoreBackend = strings.ToLower(strings.TrimSpace(cfg.StoreBackend))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.IsDev() {
		log.Println("WARNING: running in DEVELOPMENT mode (ENV=development); unauthenticated requests get admin access.")
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Location resolves TIMEZONE. Report windows are computed in this location.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" || strings.EqualFold(c.Timezone, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Validate checks that the selected store backend has what it needs and that
// production deployments carry a signing secret.
func (c *Config) Validate() error {
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORE_BACKEND is %q", BackendPostgres)
		}
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGODB_URI is required when STORE_BACKEND is %q", BackendMongo)
		}
		if c.MongoDatabase == "" {
			return fmt.Errorf("MONGODB_DATABASE is required when STORE_BACKEND is %q", BackendMongo)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("STORE_BACKEND must be %q, %q, or %q, got %q",
			BackendPostgres, BackendMongo, BackendMemory, c.StoreBackend)
	}

	if !c.IsDev() && c.AuthSecret == "" {
		return fmt.Errorf("AUTH_SECRET is required outside development")
	}
	if c.AuthSecret != "" && len(c.AuthSecret) < 32 {
		return fmt.Errorf("AUTH_SECRET must be at least 32 characters, got %d", len(c.AuthSecret))
	}
	if c.InactivePatientDays < 0 {
		return fmt.Errorf("INACTIVE_PATIENT_DAYS must not be negative")
	}
	// RATE_LIMIT_RPS of zero turns limiting off.
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_BURST must be at least 1 when RATE_LIMIT_RPS is set, got %d", c.RateLimitBurst)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}
