package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	libconfig "cdm/backend/libs/config"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config defines station service configuration.
type Config struct {
	HTTP      HTTPConfig      `yaml:"http"`
	Storage   StorageConfig   `yaml:"storage"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Cache     CacheConfig     `yaml:"cache"`
	Bootstrap BootstrapConfig `yaml:"bootstrap"`
}

type HTTPConfig struct {
	Port string `yaml:"port" env:"STATIONS_HTTP_PORT"`
	// RateLimit is requests per second per client IP; zero disables limiting.
	RateLimit float64 `yaml:"rateLimit" env:"STATIONS_RATE_LIMIT"`
	RateBurst int     `yaml:"rateBurst" env:"STATIONS_RATE_BURST"`
}

type StorageConfig struct {
	Driver string `yaml:"driver" env:"STATIONS_STORAGE_DRIVER"`
}

type DatabaseConfig struct {
	DSN          string        `yaml:"dsn" env:"STATIONS_POSTGRES_DSN"`
	Migrate      bool          `yaml:"migrate" env:"STATIONS_POSTGRES_MIGRATE"`
	MaxOpenConns int           `yaml:"maxOpenConns" env:"STATIONS_POSTGRES_MAX_OPEN_CONNS"`
	TxTimeout    time.Duration `yaml:"txTimeout" env:"STATIONS_TX_TIMEOUT"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr" env:"STATIONS_REDIS_ADDR"`
	Password string `yaml:"password" env:"STATIONS_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"STATIONS_REDIS_DB"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret" env:"STATIONS_JWT_SECRET"`
	Expiry time.Duration `yaml:"expiry" env:"STATIONS_JWT_EXPIRY"`
}

type CacheConfig struct {
	ListingTTL time.Duration `yaml:"listingTTL" env:"STATIONS_LISTING_CACHE_TTL"`
}

// BootstrapConfig seeds an administrator on startup when the email is not taken yet.
type BootstrapConfig struct {
	AdminEmail    string `yaml:"adminEmail" env:"STATIONS_BOOTSTRAP_ADMIN_EMAIL"`
	AdminPassword string `yaml:"adminPassword" env:"STATIONS_BOOTSTRAP_ADMIN_PASSWORD"`
	AdminName     string `yaml:"adminName" env:"STATIONS_BOOTSTRAP_ADMIN_NAME"`
}

func defaults() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Port:      "8085",
			RateLimit: 20,
			RateBurst: 40,
		},
		Storage: StorageConfig{Driver: DriverPostgres},
		Database: DatabaseConfig{
			Migrate:   true,
			TxTimeout: 5 * time.Second,
		},
		JWT:       JWTConfig{Expiry: 12 * time.Hour},
		Cache:     CacheConfig{ListingTTL: 5 * time.Second},
		Bootstrap: BootstrapConfig{AdminName: "Administrator"},
	}
}

// Load reads configuration via shared helper.
func Load() (*Config, error) {
	cfg := defaults()
	if err := libconfig.LoadConfig(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate normalizes and checks cross-field requirements.
func (c *Config) Validate() error {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	switch c.Storage.Driver {
	case DriverPostgres:
		if strings.TrimSpace(c.Database.DSN) == "" {
			return errors.New("config: database dsn required")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.JWT.Secret) == "" {
		return errors.New("config: jwt secret required")
	}
	if c.JWT.Expiry <= 0 {
		return errors.New("config: jwt expiry must be positive")
	}
	if c.Database.TxTimeout < 0 {
		return errors.New("config: tx timeout must not be negative")
	}
	if c.HTTP.RateLimit < 0 {
		return errors.New("config: rate limit must not be negative")
	}
	if (c.Bootstrap.AdminEmail == "") != (c.Bootstrap.AdminPassword == "") {
		return errors.New("config: bootstrap admin needs both email and password")
	}
	return nil
}

// HTTPAddress returns :port style.
func (c *Config) HTTPAddress() string {
	port := strings.TrimSpace(c.HTTP.Port)
	if port == "" {
		port = "8085"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return fmt.Sprintf(":%s", port)
}

// UseRedisSessions reports whether sessions go to redis rather than process memory.
func (c *Config) UseRedisSessions() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}
