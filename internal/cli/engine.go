// Package cli: engine wiring. Builds the runtime from configuration:
// registries, account store, catalog, fetcher, and the optional
// metrics listener.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/geodex/geodex/internal/account"
	"github.com/geodex/geodex/internal/config"
	"github.com/geodex/geodex/internal/core"
	"github.com/geodex/geodex/internal/metrics"
	"github.com/geodex/geodex/internal/product"
	"github.com/geodex/geodex/internal/provider"
	"github.com/geodex/geodex/internal/provider/httparchive"
)

// Engine holds the geodex runtime.
type Engine struct {
	Cfg       *config.Config
	Log       *slog.Logger
	Products  *product.Registry
	Providers *provider.Registry
	Accounts  account.Store
	Catalog   *core.Catalog
	Resolver  *core.Resolver
	Fetcher   *core.Fetcher
	Scanner   *core.Scanner
	Metrics   *metrics.Collector

	accountStore *account.SQLiteStore
}

// Global engine instance
var engine *Engine

// GetEngine returns the engine, initializing it on first use.
func GetEngine() (*Engine, error) {
	if engine != nil {
		return engine, nil
	}
	e, err := initEngine()
	if err != nil {
		return nil, err
	}
	engine = e
	return engine, nil
}

func initEngine() (*Engine, error) {
	cfg, err := config.Load(configPath())
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}

	log := newLogger(cfg.LogLevel)

	products := product.NewRegistry()
	defs := product.Builtins()
	if cfg.ProductsFile != "" {
		extra, err := product.LoadDefinitions(cfg.ProductsFile)
		if err != nil {
			return nil, err
		}
		defs = append(defs, extra...)
	}
	if err := product.RegisterDefinitions(products, defs); err != nil {
		return nil, err
	}
	products.Freeze()

	if err := os.MkdirAll(filepath.Dir(cfg.CatalogPath), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state directory: %w", err)
	}

	accountsPath := filepath.Join(filepath.Dir(cfg.CatalogPath), "accounts.db")
	accounts, err := account.OpenSQLiteStore(accountsPath, cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("failed to open account store: %w", err)
	}

	providers := provider.NewRegistry()
	for _, pcfg := range cfg.Providers {
		if err := providers.Register(httparchive.New(pcfg, accounts, log)); err != nil {
			return nil, err
		}
	}

	catalog, err := openCatalog(cfg, log)
	if err != nil {
		return nil, err
	}

	collector := metrics.NewCollector("geodex")
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, collector, log)
	}

	resolver := core.NewResolver(products, providers, log)
	fetcher := core.NewFetcher(resolver, catalog, cfg.DataDir, cfg.Fetch.Concurrency, collector, log)

	return &Engine{
		Cfg:          cfg,
		Log:          log,
		Products:     products,
		Providers:    providers,
		Accounts:     accounts,
		Catalog:      catalog,
		Resolver:     resolver,
		Fetcher:      fetcher,
		Scanner:      core.NewScanner(catalog, log),
		Metrics:      collector,
		accountStore: accounts,
	}, nil
}

// openCatalog loads the persisted catalog. A missing file yields an
// empty catalog; a corrupt one is an error the user resolves by
// removing the file and rebuilding with scan.
func openCatalog(cfg *config.Config, log *slog.Logger) (*core.Catalog, error) {
	if _, err := os.Stat(cfg.CatalogPath); os.IsNotExist(err) {
		log.Debug("no catalog yet, starting empty", "path", cfg.CatalogPath)
		return core.NewCatalog(), nil
	}
	catalog, err := core.LoadCatalog(context.Background(), cfg.CatalogPath, cfg.Passphrase)
	if err != nil {
		return nil, fmt.Errorf("%w\nremove the file and run 'geodex scan' to rebuild it", err)
	}
	return catalog, nil
}

// SaveCatalog persists the catalog. Commands that mutate the catalog
// call this before returning.
func (e *Engine) SaveCatalog(ctx context.Context) error {
	if err := core.SaveCatalog(ctx, e.Catalog, e.Cfg.CatalogPath, e.Cfg.Passphrase); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}
	e.Metrics.CatalogSaves.Inc()
	return nil
}

// Close releases the engine's resources.
func (e *Engine) Close() error {
	if e.accountStore != nil {
		return e.accountStore.Close()
	}
	return nil
}

func configPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if env := os.Getenv("GEODEX_CONFIG"); env != "" {
		return env
	}
	if _, err := os.Stat("geodex.yaml"); err == nil {
		return "geodex.yaml"
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "geodex.yaml"
	}
	return filepath.Join(home, ".geodex", "geodex.yaml")
}

func newLogger(level string) *slog.Logger {
	lvl := slog.LevelInfo
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func serveMetrics(addr string, collector *metrics.Collector, log *slog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", collector.Handler())
	log.Info("metrics listener started", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics listener failed", "error", err)
	}
}
