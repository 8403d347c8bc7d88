package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSourceBaseURL is where generated mission code is published.
const DefaultSourceBaseURL = "https://github.com/beam-me/user-code/blob/main/"

// Config is the top-level client configuration loaded from YAML and ENV.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Source  SourceConfig  `mapstructure:"source"`
	Logging LoggingConfig `mapstructure:"logging"`
	UI      UIConfig      `mapstructure:"ui"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// APIConfig points at the mission orchestration backend.
type APIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"` // zero means no timeout
}

// SourceConfig controls "view source" links.
type SourceConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

// LoggingConfig controls logger behaviour.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // console or json
	File   string `mapstructure:"file"`   // empty disables logging
}

// UIConfig holds terminal presentation switches.
type UIConfig struct {
	AltScreen bool `mapstructure:"alt_screen"`
	Launcher  bool `mapstructure:"launcher"`
}

// MetricsConfig enables the optional Prometheus listener.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Overrides carries command-line values that win over file and ENV.
type Overrides struct {
	APIURL   string
	LogLevel string
}

// Load reads configuration from path, or from beamdeck.yaml in the working
// directory or ./configs when path is empty. A missing default file is not an
// error. Variables from a local .env file are loaded first, then environment
// variables override file values (prefix BEAMDECK_, dots become underscores).
func Load(path string, overrides Overrides) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("BEAMDECK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		v.SetConfigName("beamdeck")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	} else {
		v.SetConfigFile(path)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !(errors.As(err, &notFound) && path == "") {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if strings.TrimSpace(overrides.APIURL) != "" {
		cfg.API.BaseURL = strings.TrimSpace(overrides.APIURL)
	}
	if strings.TrimSpace(overrides.LogLevel) != "" {
		cfg.Logging.Level = strings.TrimSpace(overrides.LogLevel)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "http://127.0.0.1:8000")
	v.SetDefault("api.timeout", time.Duration(0))
	v.SetDefault("source.base_url", DefaultSourceBaseURL)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file", "beamdeck.log")
	v.SetDefault("ui.alt_screen", true)
	v.SetDefault("ui.launcher", true)
	v.SetDefault("metrics.addr", "")
}

// Validate performs basic sanity checks.
func (c *Config) Validate() error {
	if err := validateHTTPURL("api.base_url", c.API.BaseURL); err != nil {
		return err
	}
	if err := validateHTTPURL("source.base_url", c.Source.BaseURL); err != nil {
		return err
	}
	if c.API.Timeout < 0 {
		return errors.New("api.timeout must not be negative")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	return nil
}

func validateHTTPURL(key, raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s must be an http(s) URL, got %q", key, raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s is missing a host", key)
	}
	return nil
}
