// Package config loads the geodex configuration: a YAML file with
// ${VAR} environment expansion, overlaid by a .env file when present.
package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/geodex/geodex/internal/provider"
	"github.com/geodex/geodex/internal/provider/httparchive"
)

// Config holds the complete geodex configuration.
type Config struct {
	// DataDir is the root under which product files are materialized.
	DataDir string `yaml:"data_dir"`

	// CatalogPath is the encrypted catalog database file.
	CatalogPath string `yaml:"catalog_path"`

	// Passphrase unlocks the catalog and the account store. Usually
	// injected as ${GEODEX_PASSPHRASE} rather than written literally.
	Passphrase string `yaml:"passphrase"`

	// ProductsFile optionally adds product definitions to the builtins.
	ProductsFile string `yaml:"products_file"`

	LogLevel    string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	MetricsAddr string `yaml:"metrics_addr"`

	Providers []httparchive.Config `yaml:"providers" validate:"dive"`
	Fetch     FetchConfig          `yaml:"fetch"`
	Watch     WatchConfig          `yaml:"watch"`
}

// FetchConfig tunes the retrieval pipeline.
type FetchConfig struct {
	Concurrency     int           `yaml:"concurrency" validate:"omitempty,min=1,max=64"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxRetries      int           `yaml:"max_retries"`
	InitialInterval time.Duration `yaml:"initial_interval"`
	MaxInterval     time.Duration `yaml:"max_interval"`
}

// WatchConfig tunes watch mode.
type WatchConfig struct {
	// Interval between periodic fetches.
	Interval time.Duration `yaml:"interval"`

	// Lookback bounds the first fetch window when a product has no
	// local data yet.
	Lookback time.Duration `yaml:"lookback"`
}

// Load reads the configuration file at path. A .env file next to the
// working directory is loaded first so ${VAR} references in the YAML
// can resolve from it. A missing config file yields the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("INFO: no .env file loaded: %v", err)
	}

	cfg := &Config{}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Defaults only.
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		data = []byte(expandEnvVars(string(data)))
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyDefaults(cfg)

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// expandEnvVars expands ${VAR} patterns in the string.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
}

func applyDefaults(cfg *Config) {
	home, _ := os.UserHomeDir()
	if cfg.DataDir == "" {
		cfg.DataDir = home + "/.geodex/data"
	}
	if cfg.CatalogPath == "" {
		cfg.CatalogPath = home + "/.geodex/catalog.db"
	}
	if cfg.Passphrase == "" {
		cfg.Passphrase = os.Getenv("GEODEX_PASSPHRASE")
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.Fetch.Concurrency == 0 {
		cfg.Fetch.Concurrency = 4
	}
	if cfg.Fetch.Timeout == 0 {
		cfg.Fetch.Timeout = 5 * time.Minute
	}
	if cfg.Watch.Interval == 0 {
		cfg.Watch.Interval = 15 * time.Minute
	}
	if cfg.Watch.Lookback == 0 {
		cfg.Watch.Lookback = 24 * time.Hour
	}

	backoff := provider.DefaultBackoff
	if cfg.Fetch.MaxRetries > 0 {
		backoff.MaxRetries = cfg.Fetch.MaxRetries
	}
	if cfg.Fetch.InitialInterval > 0 {
		backoff.InitialInterval = cfg.Fetch.InitialInterval
	}
	if cfg.Fetch.MaxInterval > 0 {
		backoff.MaxInterval = cfg.Fetch.MaxInterval
	}
	for i := range cfg.Providers {
		cfg.Providers[i].Backoff = backoff
		if cfg.Providers[i].Timeout == 0 {
			cfg.Providers[i].Timeout = cfg.Fetch.Timeout
		}
	}
}
