package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. DIETTRACKER_API_BASE_URL.
const envPrefix = "DIETTRACKER"

// APIConfig holds the settings for the remote backend.
type APIConfig struct {
	// BaseURL is the root URL every resource path is joined onto.
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`

	// TimeoutSec bounds a single HTTP round trip.
	TimeoutSec int `mapstructure:"timeout_sec" yaml:"timeout_sec"`

	// MaxRetries is how many times a 429 response is retried.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries"`

	// RateLimitRPS caps outgoing requests per second. Zero disables it.
	RateLimitRPS float64 `mapstructure:"rate_limit_rps" yaml:"rate_limit_rps"`

	// RateLimitBurst is the limiter's bucket size.
	RateLimitBurst int `mapstructure:"rate_limit_burst" yaml:"rate_limit_burst"`
}

// CacheConfig holds the settings for the local SQLite cache.
type CacheConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// CredentialsConfig controls where the auth token is kept.
type CredentialsConfig struct {
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	FileDir     string `mapstructure:"file_dir" yaml:"file_dir"`
}

// DashboardConfig holds dashboard refresh preferences.
type DashboardConfig struct {
	RefreshIntervalSec int `mapstructure:"refresh_interval_sec" yaml:"refresh_interval_sec"`
}

// DisplayConfig holds UI/rendering preferences.
type DisplayConfig struct {
	// Theme is "default" (follow the terminal), "dark" or "light".
	Theme string `mapstructure:"theme" yaml:"theme"`
}

// AppConfig is the top-level application configuration.
type AppConfig struct {
	API         APIConfig         `mapstructure:"api" yaml:"api"`
	Cache       CacheConfig       `mapstructure:"cache" yaml:"cache"`
	Credentials CredentialsConfig `mapstructure:"credentials" yaml:"credentials"`
	Dashboard   DashboardConfig   `mapstructure:"dashboard" yaml:"dashboard"`
	Display     DisplayConfig     `mapstructure:"display" yaml:"display"`
}

// configDir returns ~/.config/diettracker, or the working directory when
// the home directory cannot be resolved.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "diettracker")
}

// DefaultConfigPath returns the default path for the configuration file,
// located at ~/.config/diettracker/config.yaml.
func DefaultConfigPath() string {
	return filepath.Join(configDir(), "config.yaml")
}

// defaultAppConfig returns a sensible default configuration.
func defaultAppConfig() *AppConfig {
	dir := configDir()
	return &AppConfig{
		API: APIConfig{
			BaseURL:        "http://localhost:3000/",
			TimeoutSec:     30,
			MaxRetries:     3,
			RateLimitRPS:   10,
			RateLimitBurst: 5,
		},
		Cache: CacheConfig{
			DBPath: filepath.Join(dir, "cache.db"),
		},
		Credentials: CredentialsConfig{
			ServiceName: "diettracker",
			FileDir:     filepath.Join(dir, "credentials"),
		},
		Dashboard: DashboardConfig{
			RefreshIntervalSec: 60,
		},
		Display: DisplayConfig{
			Theme: "default",
		},
	}
}

// setDefaults mirrors defaultAppConfig into v so missing keys resolve to
// sensible values after Unmarshal.
func setDefaults(v *viper.Viper) {
	def := defaultAppConfig()
	v.SetDefault("api.base_url", def.API.BaseURL)
	v.SetDefault("api.timeout_sec", def.API.TimeoutSec)
	v.SetDefault("api.max_retries", def.API.MaxRetries)
	v.SetDefault("api.rate_limit_rps", def.API.RateLimitRPS)
	v.SetDefault("api.rate_limit_burst", def.API.RateLimitBurst)
	v.SetDefault("cache.db_path", def.Cache.DBPath)
	v.SetDefault("credentials.service_name", def.Credentials.ServiceName)
	v.SetDefault("credentials.file_dir", def.Credentials.FileDir)
	v.SetDefault("dashboard.refresh_interval_sec", def.Dashboard.RefreshIntervalSec)
	v.SetDefault("display.theme", def.Display.Theme)
}

// LoadConfig reads configuration from the given YAML file path using Viper.
// Values from a .env file in the working directory and DIETTRACKER_*
// environment variables override the file. If the file does not exist,
// defaults plus environment overrides are returned.
func LoadConfig(path string) (*AppConfig, error) {
	// A missing .env is the common case and not an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		var pathErr *os.PathError
		if !errors.As(err, &notFound) && !errors.As(err, &pathErr) {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	cfg := defaultAppConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks the settings that would otherwise fail later with a
// confusing error.
func (c *AppConfig) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("api.base_url is required")
	}
	if !strings.Contains(c.API.BaseURL, "://") {
		return fmt.Errorf("api.base_url %q must include a scheme", c.API.BaseURL)
	}
	if c.API.TimeoutSec <= 0 {
		c.API.TimeoutSec = 30
	}
	if c.API.MaxRetries < 0 {
		c.API.MaxRetries = 0
	}
	if c.Dashboard.RefreshIntervalSec <= 0 {
		c.Dashboard.RefreshIntervalSec = 60
	}
	switch c.Display.Theme {
	case "":
		c.Display.Theme = "default"
	case "default", "dark", "light":
	default:
		return fmt.Errorf("display.theme %q must be default, dark or light", c.Display.Theme)
	}
	return nil
}

// SaveConfig writes the given configuration to a YAML file at path,
// creating parent directories if needed.
func SaveConfig(path string, cfg *AppConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory %s: %w", dir, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	v.Set("api", cfg.API)
	v.Set("cache", cfg.Cache)
	v.Set("credentials", cfg.Credentials)
	v.Set("dashboard", cfg.Dashboard)
	v.Set("display", cfg.Display)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}

	return nil
}
