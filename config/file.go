package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pevans/tally/scraper"
	"gopkg.in/yaml.v3"
)

// StorageConfig says where counts and handoff messages live.
type StorageConfig struct {
	Counts struct {
		DSN string `yaml:"dsn" validate:"required"`
	} `yaml:"counts"`
	Handoff struct {
		Dir string `yaml:"dir" validate:"required"`
	} `yaml:"handoff"`
}

// CalendarConfig lists the weekend days and holidays ("YYYY-MM-DD").
type CalendarConfig struct {
	Weekend  []string `yaml:"weekend" validate:"dive,required"`
	Holidays []string `yaml:"holidays" validate:"dive,datetime=2006-01-02"`
}

// ReportConfig controls aggregation.
type ReportConfig struct {
	PeriodRange int `yaml:"period_range" validate:"gte=0,lte=120"`
	MaxItems    int `yaml:"max_items" validate:"gte=0"`
}

// FetchConfig controls the HTTP page source.
type FetchConfig struct {
	Timeout       time.Duration `yaml:"timeout" validate:"gte=0"`
	RatePerSecond float64       `yaml:"rate_per_second" validate:"gte=0"`
	UserAgent     string        `yaml:"user_agent"`
	// PagesDir switches to saved pages on disk instead of HTTP.
	PagesDir string `yaml:"pages_dir"`
}

// ScanConfig scopes a scan.
type ScanConfig struct {
	Only       []string `yaml:"only"`
	MonthLimit int      `yaml:"month_limit" validate:"gte=0"`
}

// FileConfig represents the structure of ~/.tally/config.yaml. Folder, month
// and item selectors sit at the top level of the file.
type FileConfig struct {
	RootURL  string                `yaml:"root_url" validate:"omitempty,url"`
	Storage  StorageConfig         `yaml:"storage"`
	Calendar CalendarConfig        `yaml:"calendar"`
	Scraper  scraper.ScraperConfig `yaml:",inline"`
	// People maps initials to display names.
	People map[string]string `yaml:"people" validate:"dive,keys,required,endkeys,required"`
	Report ReportConfig      `yaml:"report"`
	Fetch  FetchConfig       `yaml:"fetch"`
	Scan   ScanConfig        `yaml:"scan"`
}

// Default returns the configuration used when no file sets a value.
func Default() *FileConfig {
	cfg := &FileConfig{
		Scraper: *scraper.NewScraperConfig(),
		Calendar: CalendarConfig{
			Weekend: []string{"saturday", "sunday"},
		},
		People: map[string]string{},
		Report: ReportConfig{PeriodRange: 12},
		Fetch: FetchConfig{
			Timeout:       10 * time.Second,
			RatePerSecond: 2,
			UserAgent:     scraper.DefaultUserAgent,
		},
	}
	cfg.Storage.Counts.DSN = "tally.db"
	cfg.Storage.Handoff.Dir = ".tally-handoff"
	return cfg
}

// DefaultPath returns ~/.tally/config.yaml.
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".tally", "config.yaml"), nil
}

// LoadConfigFile loads configuration from ~/.tally/config.yaml over the
// defaults. Returns nil if the file doesn't exist (not an error). Returns
// error if the file exists but cannot be parsed.
func LoadConfigFile() (*FileConfig, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}

	// Check if file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, nil // File doesn't exist -- not an error
	}

	return LoadFile(configPath)
}

// LoadFile loads configuration from path over the defaults. Unlike
// LoadConfigFile, a missing file is an error.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Load resolves the effective configuration with precedence:
// 1. Environment variables (highest priority)
// 2. Configuration file (path, or ~/.tally/config.yaml when path is empty)
// 3. Default values (lowest priority)
//
// The result is validated.
func Load(path string) (*FileConfig, error) {
	var cfg *FileConfig
	var err error
	if path != "" {
		cfg, err = LoadFile(path)
	} else {
		cfg, err = LoadConfigFile()
	}
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = Default()
	}

	ApplyEnv(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides storage locations from TALLY_DSN and
// TALLY_HANDOFF_DIR.
func ApplyEnv(cfg *FileConfig) {
	if val := os.Getenv("TALLY_DSN"); val != "" {
		cfg.Storage.Counts.DSN = val
	}
	if val := os.Getenv("TALLY_HANDOFF_DIR"); val != "" {
		cfg.Storage.Handoff.Dir = val
	}
}
