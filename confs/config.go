package confs

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime setting of the server. Values come from the
// environment, optionally seeded from a .env file.
type Config struct {
	Port                string
	LocalDBPath         string
	JWTSecret           string
	TokenTTL            time.Duration
	HistoryLimit        int
	DefaultLanguage     string
	CacheTTL            time.Duration
	MaintenanceInterval time.Duration
	SeedDemoUser        bool
	DBDebug             bool
	LogLevel            string
	Remote              RemoteDBConfig
}

// RemoteDBConfig describes the cloud database used in authenticated mode.
type RemoteDBConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Configured reports whether enough settings exist to build a DSN.
func (r RemoteDBConfig) Configured() bool {
	if r.URL != "" {
		return true
	}
	return r.Host != "" && r.Port != "" && r.User != "" && r.Password != "" && r.Name != ""
}

const minSecretLength = 32

// LoadConfig loads environment variables from a .env file if present
// and validates essential settings.
func LoadConfig() (*Config, error) {
	// Load .env if it exists; ignore error if file not found
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.Printf("warning: could not load .env: %v", err)
		}
	}
	return FromEnv()
}

// FromEnv builds a Config from the current process environment.
func FromEnv() (*Config, error) {
	cfg := &Config{
		Port:            getenv("PORT", "3536"),
		LocalDBPath:     getenv("LOCAL_DB_PATH", "query-local.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		DefaultLanguage: getenv("DEFAULT_LANGUAGE", "es"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		Remote: RemoteDBConfig{
			URL:      os.Getenv("DB_URL"),
			Host:     os.Getenv("DB_HOST"),
			Port:     os.Getenv("DB_PORT"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     os.Getenv("DB_NAME"),
		},
	}

	var err error
	if cfg.TokenTTL, err = durationEnv("TOKEN_TTL", 720*time.Hour); err != nil {
		return nil, err
	}
	if cfg.CacheTTL, err = durationEnv("CACHE_TTL", 5*time.Minute); err != nil {
		return nil, err
	}
	if cfg.MaintenanceInterval, err = durationEnv("MAINTENANCE_INTERVAL", time.Hour); err != nil {
		return nil, err
	}
	if cfg.HistoryLimit, err = intEnv("HISTORY_LIMIT", 50); err != nil {
		return nil, err
	}
	if cfg.SeedDemoUser, err = boolEnv("SEED_DEMO_USER", true); err != nil {
		return nil, err
	}
	if cfg.DBDebug, err = boolEnv("DB_DEBUG", false); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no sane default.
func (c *Config) Validate() error {
	if len(c.JWTSecret) < minSecretLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters", minSecretLength)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL must be positive")
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return d, nil
}

func intEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return n, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	return b, nil
}
