package config

import (
	"errors"
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Sweeper  SweeperConfig  `yaml:"sweeper"`
	Shop     ShopConfig     `yaml:"shop"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Notifier NotifierConfig `yaml:"notifier"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int     `yaml:"rate_limit_burst"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// SweeperConfig controls the periodic reservation status sweep.
type SweeperConfig struct {
	Enabled         bool          `yaml:"enabled"`
	IntervalSeconds int           `yaml:"interval_seconds"`
	Interval        time.Duration `yaml:"-"` // Ignored by YAML parser
	Timezone        string        `yaml:"timezone"`
}

// ShopConfig holds the default operating parameters, used until an
// administrator stores their own.
type ShopConfig struct {
	OpenTime                  string `yaml:"open_time"`
	CloseTime                 string `yaml:"close_time"`
	SlotDurationMinutes       int    `yaml:"slot_duration_minutes"`
	GracePeriodMinutes        int    `yaml:"grace_period_minutes"`
	CleaningBufferMinutes     int    `yaml:"cleaning_buffer_minutes"`
	MaxSessionDurationMinutes int    `yaml:"max_session_duration_minutes"`
	SeedDefaultTables         bool   `yaml:"seed_default_tables"`
}

// AuthConfig holds the admin gate settings.
type AuthConfig struct {
	JWTSecret         string `yaml:"jwt_secret"`
	AdminPasswordHash string `yaml:"admin_password_hash"` // bcrypt
	TokenTTLMinutes   int    `yaml:"token_ttl_minutes"`
}

// Validate rejects an admin gate that is only half configured. Leaving both
// fields empty is allowed and keeps the admin routes open.
func (a AuthConfig) Validate() error {
	switch {
	case a.JWTSecret != "" && a.AdminPasswordHash == "":
		return errors.New("auth.jwt_secret is set but auth.admin_password_hash is empty")
	case a.JWTSecret == "" && a.AdminPasswordHash != "":
		return errors.New("auth.admin_password_hash is set but auth.jwt_secret is empty")
	}
	return nil
}

// RedisConfig enables cross-process change fan-out when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Channel  string `yaml:"channel"`
}

// NotifierConfig holds the configuration for the change notification dispatcher.
type NotifierConfig struct {
	Buffer int `yaml:"buffer"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	cfg := Default()
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.ApplyDefaults()
	return &cfg, nil
}

// Default returns a configuration populated with default values. Load decodes
// the YAML file on top of it, so keys missing from the file keep these values.
func Default() Config {
	return Config{
		Shop: ShopConfig{
			OpenTime:                  "04:00",
			CloseTime:                 "24:00",
			SlotDurationMinutes:       60,
			GracePeriodMinutes:        15,
			CleaningBufferMinutes:     5,
			MaxSessionDurationMinutes: 120,
			SeedDefaultTables:         true,
		},
		Sweeper: SweeperConfig{Enabled: true},
	}
}

// ApplyDefaults replaces unset or invalid values with their defaults.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 30
	}

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" && cfg.Database.Driver == "sqlite" {
		cfg.Database.DSN = "reservations.db"
	}

	if cfg.Sweeper.IntervalSeconds <= 0 {
		cfg.Sweeper.IntervalSeconds = 60
	}
	cfg.Sweeper.Interval = time.Duration(cfg.Sweeper.IntervalSeconds) * time.Second
	if cfg.Sweeper.Timezone == "" {
		cfg.Sweeper.Timezone = "Local"
	}

	if cfg.Shop.OpenTime == "" {
		cfg.Shop.OpenTime = "04:00"
	}
	if cfg.Shop.CloseTime == "" {
		cfg.Shop.CloseTime = "24:00"
	}
	if cfg.Shop.SlotDurationMinutes <= 0 {
		cfg.Shop.SlotDurationMinutes = 60
	}
	if cfg.Shop.GracePeriodMinutes < 0 {
		cfg.Shop.GracePeriodMinutes = 15
	}
	if cfg.Shop.CleaningBufferMinutes < 0 {
		cfg.Shop.CleaningBufferMinutes = 5
	}
	if cfg.Shop.MaxSessionDurationMinutes <= 0 {
		cfg.Shop.MaxSessionDurationMinutes = 120
	}

	if cfg.Auth.TokenTTLMinutes <= 0 {
		cfg.Auth.TokenTTLMinutes = 12 * 60
	}

	if cfg.Redis.Channel == "" {
		cfg.Redis.Channel = "reservations-changed"
	}

	if cfg.Notifier.Buffer <= 0 {
		log.Printf("notifier.buffer is not set or invalid; defaulting to 16")
		cfg.Notifier.Buffer = 16
	}
}
