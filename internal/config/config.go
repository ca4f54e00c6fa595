package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App     AppConfig
	Local   LocalConfig
	Remote  RemoteConfig
	Sync    SyncConfig
	Tap     TapConfig
	Absence AbsenceConfig
	Admin   AdminConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port        int
	Env         string
	LogLevel    string
	ReadersPath string
}

// LocalConfig holds the embedded database configuration
type LocalConfig struct {
	Path string
}

// RemoteConfig holds the central server database configuration. An
// empty Host means the terminal runs offline-only.
type RemoteConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

type SyncConfig struct {
	Interval time.Duration
}

type TapConfig struct {
	Tolerance time.Duration
	Debounce  time.Duration
}

type AbsenceConfig struct {
	CutoffHour int
	Site       string
}

// AdminConfig guards the administrative HTTP API. Tokens are issued by
// the central server; the terminal only verifies them.
type AdminConfig struct {
	JWTSecret string
}

func Load() (*Config, error) {
	// A missing .env is fine; the environment may carry everything.
	_ = godotenv.Load()

	config := &Config{}

	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}
	config.App = AppConfig{
		Port:        appPort,
		Env:         getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		ReadersPath: getEnv("READERS_PATH", "readers.json"),
	}

	config.Local = LocalConfig{
		Path: getEnv("LOCAL_DB_PATH", "attendance.db"),
	}

	remotePort, err := strconv.Atoi(getEnv("REMOTE_DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid REMOTE_DB_PORT: %w", err)
	}
	config.Remote = RemoteConfig{
		Host:     getEnv("REMOTE_DB_HOST", ""),
		Port:     remotePort,
		User:     getEnv("REMOTE_DB_USER", "postgres"),
		Password: getEnv("REMOTE_DB_PASSWORD", ""),
		Name:     getEnv("REMOTE_DB_NAME", "attendance"),
		SSLMode:  getEnv("REMOTE_DB_SSL_MODE", "disable"),
	}

	syncInterval, err := time.ParseDuration(getEnv("SYNC_INTERVAL", "60s"))
	if err != nil {
		return nil, fmt.Errorf("invalid SYNC_INTERVAL: %w", err)
	}
	config.Sync = SyncConfig{Interval: syncInterval}

	tolerance, err := time.ParseDuration(getEnv("TAP_TOLERANCE", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAP_TOLERANCE: %w", err)
	}
	debounce, err := time.ParseDuration(getEnv("TAP_DEBOUNCE", "5s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TAP_DEBOUNCE: %w", err)
	}
	config.Tap = TapConfig{Tolerance: tolerance, Debounce: debounce}

	cutoff, err := strconv.Atoi(getEnv("ABSENCE_CUTOFF_HOUR", "12"))
	if err != nil {
		return nil, fmt.Errorf("invalid ABSENCE_CUTOFF_HOUR: %w", err)
	}
	config.Absence = AbsenceConfig{
		CutoffHour: cutoff,
		Site:       getEnv("ABSENCE_SITE", "office"),
	}

	config.Admin = AdminConfig{
		JWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Local.Path == "" {
		return fmt.Errorf("LOCAL_DB_PATH is required")
	}
	if c.Remote.Host != "" && c.Remote.Password == "" {
		return fmt.Errorf("REMOTE_DB_PASSWORD is required when REMOTE_DB_HOST is set")
	}
	if c.Admin.JWTSecret == "" {
		return fmt.Errorf("ADMIN_JWT_SECRET is required")
	}
	if c.Absence.CutoffHour < 0 || c.Absence.CutoffHour > 23 {
		return fmt.Errorf("ABSENCE_CUTOFF_HOUR must be between 0 and 23")
	}
	if c.Sync.Interval < time.Second {
		return fmt.Errorf("SYNC_INTERVAL must be at least 1s")
	}
	return nil
}

// RemoteEnabled reports whether a central server is configured.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.Host != ""
}

// RemoteURL returns the PostgreSQL connection string
func (c *Config) RemoteURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Remote.User,
		c.Remote.Password,
		c.Remote.Host,
		c.Remote.Port,
		c.Remote.Name,
		c.Remote.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
