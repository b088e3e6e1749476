package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultHistogramDays is how many daily view buckets the dashboard returns
// when dashboard.histogram_days is not set.
const DefaultHistogramDays = 30

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	// URL selects the backend by scheme: sqlite://, postgres://, postgresql:// or mysql://.
	URL             string        `mapstructure:"url"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
}

// AdminConfig holds the credentials that guard mutating routes.
type AdminConfig struct {
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

type DashboardConfig struct {
	HistogramDays int `mapstructure:"histogram_days"`
}

// Config holds the core runtime configuration for the service.
// Values come from an optional config.yaml, .env files and
// SALESINSIGHT_* environment variables, in increasing precedence.
type Config struct {
	Debug      bool            `mapstructure:"debug"`
	SentryDSN  string          `mapstructure:"sentry_dsn"`
	ListenAddr string          `mapstructure:"listen_addr"`
	Seed       bool            `mapstructure:"seed"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Admin      AdminConfig     `mapstructure:"admin"`
	Dashboard  DashboardConfig `mapstructure:"dashboard"`
}

// Load reads configuration from configFile (optional) and the environment.
// envPath is the directory searched for .env and .env.local.
func Load(configFile string, envPath string) (*Config, error) {
	v := configureViper(configFile, envPath)

	v.SetDefault("debug", false)
	v.SetDefault("listen_addr", ":8080")
	v.SetDefault("seed", false)
	v.SetDefault("database.url", "sqlite://salesinsight.db")
	v.SetDefault("admin.user", "admin")
	v.SetDefault("admin.password", "changeme")
	v.SetDefault("dashboard.histogram_days", DefaultHistogramDays)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.Database.URL = strings.TrimSpace(c.Database.URL)
	if c.Database.URL == "" {
		return errors.New("database.url is required")
	}
	if c.Dashboard.HistogramDays <= 0 {
		return fmt.Errorf("dashboard.histogram_days must be positive, got %d", c.Dashboard.HistogramDays)
	}
	if c.Admin.User == "" || c.Admin.Password == "" {
		return errors.New("admin.user and admin.password are required")
	}
	return nil
}

func configureViper(configFile string, envPath string) *viper.Viper {
	v := viper.New()

	loadEnv(envPath)

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("config/")
	}

	v.SetEnvPrefix("SALESINSIGHT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars binds every key so Unmarshal sees env values even
// when no config file exists.
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		"listen_addr",
		"seed",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		"admin.user",
		"admin.password",
		"dashboard.histogram_days",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}

	// Hosting platforms export a bare DATABASE_URL.
	_ = v.BindEnv("database.url", "SALESINSIGHT_DATABASE_URL", "DATABASE_URL")
}

func loadEnv(envPath string) {
	if envPath == "" {
		envPath = "."
	}
	for _, envFile := range []string{".env", ".env.local"} {
		_ = godotenv.Overload(filepath.Join(envPath, envFile))
	}
}
