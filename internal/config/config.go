// Package config loads tool configuration from a YAML file and applies
// defaults matching the production Portal da Transparência setup.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/opengov-br/transparencia-contratos/pkg/client"
)

// Config represents the overall tool configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Fetch   FetchConfig   `yaml:"fetch"`
	Output  OutputConfig  `yaml:"output"`
	Metrics MetricsConfig `yaml:"metrics"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig holds the API connection settings.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	KeyFile        string        `yaml:"key_file"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"` // Derived from TimeoutSeconds
}

// FetchConfig holds the pagination settings.
type FetchConfig struct {
	// Orgao is the organization code scoping the contracts query.
	Orgao string `yaml:"orgao"`

	// StartPage is the first page requested.
	StartPage int `yaml:"start_page"`

	// Restricted forces the most conservative rate limit tier.
	Restricted bool `yaml:"restricted"`
}

// OutputConfig holds the output artifact paths.
type OutputConfig struct {
	// CSV is the delimited output file path.
	CSV string `yaml:"csv"`

	// SQLite, when set, additionally persists runs and records to a
	// local database.
	SQLite string `yaml:"sqlite"`
}

// MetricsConfig holds the optional Prometheus listener settings.
type MetricsConfig struct {
	// Addr, when set (e.g. ":9090"), exposes /metrics while fetching.
	Addr string `yaml:"addr"`
}

// LoggingConfig holds the logger settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// Default returns the configuration used when no file is given: the
// production API, the api_key.txt credential file, organization 20701
// from page 1, writing contratos_FULL.csv.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads the configuration from the given path and fills in defaults
// for anything left unset.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.API.BaseURL == "" {
		c.API.BaseURL = client.DefaultBaseURL
	}
	if c.API.KeyFile == "" {
		c.API.KeyFile = "api_key.txt"
	}
	if c.API.TimeoutSeconds <= 0 {
		c.API.TimeoutSeconds = 30
	}
	c.API.Timeout = time.Duration(c.API.TimeoutSeconds) * time.Second

	if c.Fetch.Orgao == "" {
		c.Fetch.Orgao = "20701"
	}
	if c.Fetch.StartPage <= 0 {
		c.Fetch.StartPage = 1
	}

	if c.Output.CSV == "" {
		c.Output.CSV = "contratos_FULL.csv"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}
