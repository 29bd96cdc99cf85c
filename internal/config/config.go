package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all mednerd configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Knowledge base persistence
	Knowledge KnowledgeConfig `yaml:"knowledge"`

	// Live fallback fetcher
	Fetch FetchConfig `yaml:"fetch"`

	// HTTP surface
	Server ServerConfig `yaml:"server"`

	// Offline seeding crawler
	Seed SeedConfig `yaml:"seed"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// KnowledgeConfig selects where the knowledge base lives.
type KnowledgeConfig struct {
	Backend string `yaml:"backend" validate:"oneof=json sqlite"` // json, sqlite
	Path    string `yaml:"path" validate:"required"`
}

// FetchConfig configures the live fallback fetcher.
type FetchConfig struct {
	Enabled          bool               `yaml:"enabled"`
	Source           string             `yaml:"source" validate:"oneof=http browser"` // http, browser
	BaseURL          string             `yaml:"base_url" validate:"required,url"`
	UserAgent        string             `yaml:"user_agent" validate:"required"`
	CandidateTimeout string             `yaml:"candidate_timeout"`
	RequestTimeout   string             `yaml:"request_timeout"`
	MaxBodyBytes     int64              `yaml:"max_body_bytes" validate:"gt=0"`
	MaxConcurrent    int64              `yaml:"max_concurrent" validate:"gt=0"`
	SpellingVariants []SpellingVariant  `yaml:"spelling_variants" validate:"dive"`
	Browser          BrowserFetchConfig `yaml:"browser"`
}

// SpellingVariant is one locale substitution tried as an extra URL candidate.
type SpellingVariant struct {
	From string `yaml:"from" validate:"required"`
	To   string `yaml:"to" validate:"required"`
}

// BrowserFetchConfig configures the headless browser page source.
type BrowserFetchConfig struct {
	Bin      string `yaml:"bin"` // empty = let rod download/locate Chromium
	Headless bool   `yaml:"headless"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr          string `yaml:"addr" validate:"required"`
	MaxUploadSize int64  `yaml:"max_upload_size" validate:"gt=0"`
}

// SeedConfig configures the offline crawler that builds the initial knowledge base.
type SeedConfig struct {
	IndexURL       string  `yaml:"index_url" validate:"required,url"`
	TargetCount    int     `yaml:"target_count" validate:"gt=0"`
	RatePerSecond  float64 `yaml:"rate_per_second" validate:"gt=0"`
	PageTimeout    string  `yaml:"page_timeout"`
	IndexUserAgent string  `yaml:"index_user_agent"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "mednerd",
		Version: "0.4.0",

		Knowledge: KnowledgeConfig{
			Backend: "json",
			Path:    "medical_data.json",
		},

		Fetch: FetchConfig{
			Enabled:          true,
			Source:           "http",
			BaseURL:          "https://www.nhs.uk/conditions/",
			UserAgent:        "Mozilla/5.0",
			CandidateTimeout: "3s",
			RequestTimeout:   "20s",
			MaxBodyBytes:     2 << 20,
			MaxConcurrent:    8,
			SpellingVariants: []SpellingVariant{
				{From: "tumor", To: "tumour"},
				{From: "edema", To: "oedema"},
				{From: "anemia", To: "anaemia"},
			},
			Browser: BrowserFetchConfig{Headless: true},
		},

		Server: ServerConfig{
			Addr:          ":8000",
			MaxUploadSize: 20 << 20,
		},

		Seed: SeedConfig{
			IndexURL:       "https://www.nhs.uk/conditions/",
			TargetCount:    550,
			RatePerSecond:  10,
			PageTimeout:    "5s",
			IndexUserAgent: "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Defaults plus environment when no config file exists
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("MEDNERD_KB_PATH"); path != "" {
		c.Knowledge.Path = path
	}
	if backend := os.Getenv("MEDNERD_KB_BACKEND"); backend != "" {
		c.Knowledge.Backend = strings.ToLower(backend)
	}
	if url := os.Getenv("MEDNERD_FETCH_BASE_URL"); url != "" {
		c.Fetch.BaseURL = url
	}
	if addr := os.Getenv("MEDNERD_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if level := os.Getenv("MEDNERD_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// GetCandidateTimeout returns the per-URL fetch timeout as a duration.
func (c *Config) GetCandidateTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.CandidateTimeout)
	if err != nil || d <= 0 {
		return 3 * time.Second
	}
	return d
}

// GetRequestTimeout returns the timeout wrapping a whole resolve-then-fetch sequence.
func (c *Config) GetRequestTimeout() time.Duration {
	d, err := time.ParseDuration(c.Fetch.RequestTimeout)
	if err != nil || d <= 0 {
		return 20 * time.Second
	}
	return d
}

// GetSeedPageTimeout returns the per-page timeout used by the seeding crawler.
func (c *Config) GetSeedPageTimeout() time.Duration {
	d, err := time.ParseDuration(c.Seed.PageTimeout)
	if err != nil || d <= 0 {
		return 5 * time.Second
	}
	return d
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}
