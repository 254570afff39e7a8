package config

import (
	"Go2InputSpectra/internal/snapshot"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrConfiguration marks any failure to load or validate the configuration.
var ErrConfiguration = errors.New("configuration error")

const (
	DefaultPeriodMs    = 1000
	DefaultLogLevel    = "info"
	DefaultPostfix     = ".json"
	DefaultSourceType  = "stdin"
	DefaultNATSSubject = "inputspectra.events"
	DefaultLogFile     = "/tmp/inputspectra.log"

	OnErrorRetry = "retry"
	OnErrorFatal = "fatal"
)

// LoggingConfig selects the single evolving snapshot file.
// PeriodMs is the legacy location of the flush interval.
type LoggingConfig struct {
	Path     string `yaml:"path"`
	PeriodMs int    `yaml:"period_ms"`
}

// StatsConfig selects date-segmented snapshot files.
type StatsConfig struct {
	Dir     string `yaml:"dir"`
	Postfix string `yaml:"postfix"`
	OnError string `yaml:"on_error"`
}

// SourceConfig selects where input events come from.
type SourceConfig struct {
	Type    string `yaml:"type"`
	Path    string `yaml:"path"`
	NATSURL string `yaml:"nats_url"`
	Subject string `yaml:"subject"`
}

// DaemonConfig configures background mode. The pid file is a fixed well-known path
// chosen on the command line so that stop works without a configuration file.
type DaemonConfig struct {
	LogFile string `yaml:"log_file"`
}

// Config is the top-level configuration struct for the entire application.
type Config struct {
	Logging  LoggingConfig `yaml:"logging"`
	Stats    StatsConfig   `yaml:"stats"`
	PeriodMs int           `yaml:"period_ms"`
	LogLevel string        `yaml:"log_level"`
	Source   SourceConfig  `yaml:"source"`
	Daemon   DaemonConfig  `yaml:"daemon"`

	// Path is the file the configuration was loaded from.
	Path string `yaml:"-"`
}

// Overrides carries command-line values that take precedence over the file.
// Zero values leave the file's setting untouched.
type Overrides struct {
	PeriodMs int
	LogLevel string
	LogFile  string
}

// LoadConfig reads the configuration from a YAML file, applies overrides and validates it.
// Every error it returns wraps ErrConfiguration.
func LoadConfig(filePath string, ov Overrides) (*Config, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("%w: no config file given", ErrConfiguration)
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: config file does not exist: %s", ErrConfiguration, filePath)
		}
		return nil, fmt.Errorf("%w: failed to read config file: %w", ErrConfiguration, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = filePath
	cfg.apply(ov)
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Parse decodes YAML configuration. Unknown keys are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: failed to unmarshal config YAML: %w", ErrConfiguration, err)
	}
	return &cfg, nil
}

func (c *Config) apply(ov Overrides) {
	if ov.PeriodMs > 0 {
		c.PeriodMs = ov.PeriodMs
	}
	if ov.LogLevel != "" {
		c.LogLevel = ov.LogLevel
	}
	if ov.LogFile != "" {
		c.Daemon.LogFile = ov.LogFile
	}
}

func (c *Config) normalize() {
	c.Logging.Path = strings.TrimSpace(c.Logging.Path)
	c.Stats.Dir = strings.TrimSpace(c.Stats.Dir)

	if c.PeriodMs <= 0 {
		c.PeriodMs = c.Logging.PeriodMs
	}
	if c.PeriodMs <= 0 {
		c.PeriodMs = DefaultPeriodMs
	}
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.Stats.Dir != "" && c.Stats.Postfix == "" {
		c.Stats.Postfix = DefaultPostfix
	}
	if c.Stats.OnError == "" {
		c.Stats.OnError = OnErrorRetry
	}
	if c.Source.Type == "" {
		c.Source.Type = DefaultSourceType
	}
	if c.Source.Subject == "" {
		c.Source.Subject = DefaultNATSSubject
	}
	if c.Daemon.LogFile == "" {
		c.Daemon.LogFile = DefaultLogFile
	}
}

// Validate ensures essential configuration values are present and sensible.
func (c *Config) Validate() error {
	switch {
	case c.Logging.Path != "" && c.Stats.Dir != "":
		return fmt.Errorf("%w: logging.path and stats.dir are mutually exclusive", ErrConfiguration)
	case c.Logging.Path == "" && c.Stats.Dir == "":
		return fmt.Errorf("%w: one of logging.path or stats.dir is required", ErrConfiguration)
	}
	if strings.ContainsRune(c.Stats.Postfix, filepath.Separator) {
		return fmt.Errorf("%w: stats.postfix must not contain a path separator", ErrConfiguration)
	}
	switch c.Stats.OnError {
	case OnErrorRetry, OnErrorFatal:
	default:
		return fmt.Errorf("%w: stats.on_error must be %q or %q, got %q", ErrConfiguration, OnErrorRetry, OnErrorFatal, c.Stats.OnError)
	}
	switch c.LogLevel {
	case "debug", "info":
	default:
		return fmt.Errorf("%w: unsupported log level %q (want debug or info)", ErrConfiguration, c.LogLevel)
	}
	if c.PeriodMs <= 0 {
		return fmt.Errorf("%w: period_ms must be positive", ErrConfiguration)
	}
	return nil
}

// Period returns the flush interval.
func (c *Config) Period() time.Duration {
	return time.Duration(c.PeriodMs) * time.Millisecond
}

// Resolver returns the snapshot path strategy selected by the configuration.
func (c *Config) Resolver() snapshot.PathResolver {
	if c.Logging.Path != "" {
		return snapshot.FixedPath(c.Logging.Path)
	}
	return snapshot.DailySegments{Directory: c.Stats.Dir, Postfix: c.Stats.Postfix}
}

// PrepareStorage creates the snapshot directory if needed.
// An existing non-directory at that path is a configuration error.
func (c *Config) PrepareStorage() (snapshot.PathResolver, error) {
	r := c.Resolver()
	if err := snapshot.EnsureDir(r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	return r, nil
}
