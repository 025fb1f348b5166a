package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pfrederiksen/hltv-stats/internal/logger"
	"github.com/pfrederiksen/hltv-stats/internal/scraper"
)

// Environment variables read by Load.
const (
	EnvConfig   = "HLTV_STATS_CONFIG"
	EnvLogLevel = "HLTV_STATS_LOG_LEVEL"
)

// Config holds every tunable of a run.
type Config struct {
	BaseURL     string        `yaml:"base_url"`
	OutputDir   string        `yaml:"output_dir"`
	ConfigDir   string        `yaml:"config_dir"`
	UserAgent   string        `yaml:"user_agent"`
	Timeout     time.Duration `yaml:"timeout"`
	DelayMin    time.Duration `yaml:"delay_min"`
	DelayMax    time.Duration `yaml:"delay_max"`
	MaxRetries  int           `yaml:"max_retries"`
	IncludeLive bool          `yaml:"include_live"`
	LogLevel    string        `yaml:"log_level"`
	Location    string        `yaml:"location"` // IANA zone name; "Local" or empty for the host zone
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		BaseURL:     scraper.BaseURL,
		OutputDir:   "output",
		ConfigDir:   "configs",
		UserAgent:   scraper.UserAgent,
		Timeout:     scraper.Timeout,
		DelayMin:    scraper.DefaultDelay.Min,
		DelayMax:    scraper.DefaultDelay.Max,
		MaxRetries:  0,
		IncludeLive: true,
		LogLevel:    string(logger.LevelInfo),
		Location:    "Local",
	}
}

// Load builds the configuration. path may be empty.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv(EnvConfig)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if level := os.Getenv(EnvLogLevel); level != "" {
		cfg.LogLevel = level
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(c.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("base_url %q must be an absolute URL", c.BaseURL))
	}
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must be set"))
	}
	if c.ConfigDir == "" {
		errs = append(errs, errors.New("config_dir must be set"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout %s must not be negative", c.Timeout))
	}
	if c.DelayMin < 0 || c.DelayMax < c.DelayMin {
		errs = append(errs, fmt.Errorf("delay range [%s, %s] is invalid", c.DelayMin, c.DelayMax))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max_retries %d must not be negative", c.MaxRetries))
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.TimeLocation(); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Level returns the parsed log level, falling back to INFO.
func (c *Config) Level() logger.Level {
	level, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return logger.LevelInfo
	}
	return level
}

// TimeLocation resolves Location.
func (c *Config) TimeLocation() (*time.Location, error) {
	if c.Location == "" || c.Location == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return nil, fmt.Errorf("location %q: %w", c.Location, err)
	}
	return loc, nil
}

// FetcherOptions maps the transport settings onto scraper options.
func (c *Config) FetcherOptions(log *logger.Logger, metrics *logger.Metrics) scraper.Options {
	return scraper.Options{
		UserAgent:  c.UserAgent,
		Timeout:    c.Timeout,
		Delay:      scraper.Delay{Min: c.DelayMin, Max: c.DelayMax},
		MaxRetries: c.MaxRetries,
		Logger:     log,
		Metrics:    metrics,
	}
}
