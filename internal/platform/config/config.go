package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FileName   = "shiftbuddy.yaml"
	EnvPrefix  = "SHIFTBUDDY_"
	stateDir   = ".shiftbuddy"
	dbFileName = "shiftbuddy.db"
)

type RetryConfig struct {
	Mode       string        `yaml:"mode" env:"MODE"`
	Initial    time.Duration `yaml:"initial" env:"INITIAL"`
	Max        time.Duration `yaml:"max" env:"MAX"`
	MaxRetries int           `yaml:"max_retries" env:"MAX_RETRIES"`
}

type Config struct {
	DataDir string `yaml:"-"`
	DBPath  string `yaml:"-"`

	APIURL         string        `yaml:"api_url" env:"API_URL"`
	APIToken       string        `yaml:"api_token" env:"API_TOKEN"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"REQUEST_TIMEOUT"`
	WatchInterval  time.Duration `yaml:"watch_interval" env:"WATCH_INTERVAL"`
	LogLevel       string        `yaml:"log_level" env:"LOG_LEVEL"`
	LogJSON        bool          `yaml:"log_json" env:"LOG_JSON"`
	Retry          RetryConfig   `yaml:"retry" envPrefix:"RETRY_"`
}

// New returns the defaults rooted at dataDir without reading any file or environment.
func New(dataDir string) (Config, error) {
	if dataDir == "" {
		return Config{}, fmt.Errorf("data dir is required")
	}
	return Config{
		DataDir:        dataDir,
		DBPath:         filepath.Join(dataDir, stateDir, dbFileName),
		RequestTimeout: 10 * time.Second,
		WatchInterval:  15 * time.Second,
		LogLevel:       "info",
		Retry:          RetryConfig{Mode: "linear"},
	}, nil
}

// Load layers <dataDir>/shiftbuddy.yaml and SHIFTBUDDY_* variables over the defaults.
func Load(dataDir string) (Config, error) {
	cfg, err := New(dataDir)
	if err != nil {
		return Config{}, err
	}
	raw, err := os.ReadFile(filepath.Join(dataDir, FileName))
	switch {
	case err == nil:
		if err := decodeYAML(raw, &cfg); err != nil {
			return Config{}, err
		}
	case !errors.Is(err, os.ErrNotExist):
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(raw []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s: %w", FileName, err)
	}
	return nil
}

func (c Config) Validate() error {
	if c.APIURL != "" {
		u, err := url.Parse(c.APIURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("api_url must be an absolute http(s) url, got %q", c.APIURL)
		}
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	if c.WatchInterval <= 0 {
		return fmt.Errorf("watch_interval must be positive")
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries cannot be negative")
	}
	return nil
}

// StateDir is where per-process state (active journey, database) lives.
func (c Config) StateDir() string {
	return filepath.Join(c.DataDir, stateDir)
}
