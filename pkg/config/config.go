package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pjbaur/potaplan/pkg/telemetry"
)

// DefaultPath is where the config file is looked up when no --config
// flag is given.
const DefaultPath = "~/.config/potaplan/config.yaml"

// Duration wraps time.Duration so YAML values like "15s" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return fmt.Errorf("duration must be a string like \"15s\": %w", err)
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the application configuration loaded from YAML.
type Config struct {
	Database  DatabaseConfig          `yaml:"database"`
	Directory DirectoryConfig         `yaml:"directory"`
	Weather   WeatherConfig           `yaml:"weather"`
	Logging   telemetry.LoggingConfig `yaml:"logging"`
}

// DatabaseConfig locates the embedded store.
type DatabaseConfig struct {
	// Path is the SQLite file location; "~" expands to the user's home.
	Path string `yaml:"path" validate:"required"`

	// FreshnessThreshold is how old the last catalog sync may be before
	// search results carry a staleness warning.
	FreshnessThreshold Duration `yaml:"freshness_threshold"`
}

// DirectoryConfig configures the POTA park directory client.
type DirectoryConfig struct {
	BaseURL string   `yaml:"base_url" validate:"required,url"`
	Timeout Duration `yaml:"timeout"`
	Entity  string   `yaml:"entity"`
}

// WeatherConfig configures the forecast client and cache expiry.
type WeatherConfig struct {
	BaseURL      string   `yaml:"base_url" validate:"required,url"`
	Timeout      Duration `yaml:"timeout"`
	CacheTTL     Duration `yaml:"cache_ttl"`
	ForecastDays int      `yaml:"forecast_days" validate:"min=1,max=16"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:               "~/.local/share/potaplan/potaplan.db",
			FreshnessThreshold: Duration(7 * 24 * time.Hour),
		},
		Directory: DirectoryConfig{
			BaseURL: "https://api.pota.app",
			Timeout: Duration(15 * time.Second),
			Entity:  "US",
		},
		Weather: WeatherConfig{
			BaseURL:      "https://api.open-meteo.com",
			Timeout:      Duration(10 * time.Second),
			CacheTTL:     Duration(6 * time.Hour),
			ForecastDays: 7,
		},
		Logging: telemetry.LoggingConfig{
			Level:  "info",
			Format: "console",
			Output: "stderr",
		},
	}
}

// Load reads the config file at path, layering it over the defaults and
// validating the result. A missing file yields the defaults; a malformed
// or invalid file is an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = DefaultPath
	}

	expanded, err := expandHome(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(expanded)
	if os.IsNotExist(err) {
		return cfg, cfg.Validate()
	}
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", expanded, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", expanded, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", expanded, err)
	}
	return cfg, nil
}

// Validate checks the configuration against its struct tags plus the
// duration bounds the tags cannot express.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}
	if c.Directory.Timeout.Std() < time.Second {
		return fmt.Errorf("directory.timeout must be at least 1s")
	}
	if c.Weather.Timeout.Std() < time.Second {
		return fmt.Errorf("weather.timeout must be at least 1s")
	}
	if c.Weather.CacheTTL.Std() < time.Minute {
		return fmt.Errorf("weather.cache_ttl must be at least 1m")
	}
	if c.Database.FreshnessThreshold.Std() < 0 {
		return fmt.Errorf("database.freshness_threshold must not be negative")
	}
	return nil
}

func expandHome(path string) (string, error) {
	if len(path) >= 2 && path[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		return home + path[1:], nil
	}
	return path, nil
}
