package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/geodex/geodex/internal/metrics"
	"github.com/geodex/geodex/internal/model"
	"github.com/geodex/geodex/internal/product"
	"github.com/geodex/geodex/internal/provider"
)

// Resolver turns a product name and time range into the deduplicated
// set of remote files serving it, across all providers that claim the
// product.
type Resolver struct {
	products  *product.Registry
	providers *provider.Registry
	log       *slog.Logger
}

// NewResolver creates a resolver over the given registries.
func NewResolver(products *product.Registry, providers *provider.Registry, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{products: products, providers: providers, log: log}
}

// FindFiles queries every provider claiming the product and merges the
// results, deduplicating by filename so mirrored archives do not cause
// double downloads.
//
// A product with zero claiming providers is a configuration problem
// (*NoProviderError). Providers all returning empty results is a
// legitimate answer and surfaces as ErrNoData. A provider search
// failure is tolerated as long as another provider succeeds.
func (r *Resolver) FindFiles(ctx context.Context, productName string, tr model.TimeRange) ([]model.FileRecord, error) {
	p, ok := r.products.Get(productName)
	if !ok {
		return nil, fmt.Errorf("unknown product %q", productName)
	}

	candidates := r.providers.For(productName)
	if len(candidates) == 0 {
		return nil, &NoProviderError{Product: productName}
	}

	var (
		records   []model.FileRecord
		seen      = map[string]bool{}
		succeeded bool
		lastErr   error
	)
	for _, prov := range candidates {
		if err := prov.Authenticate(ctx); err != nil {
			return nil, err
		}
		found, err := prov.FindFiles(ctx, p, tr)
		if err != nil {
			r.log.Warn("provider search failed", "provider", prov.Name(),
				"product", productName, "error", err)
			lastErr = err
			continue
		}
		succeeded = true
		for _, rec := range found {
			if seen[rec.Filename] {
				continue
			}
			seen[rec.Filename] = true
			records = append(records, rec)
		}
	}

	if !succeeded {
		return nil, fmt.Errorf("all providers failed for product %q: %w", productName, lastErr)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("product %q in %s: %w", productName, tr, ErrNoData)
	}

	sort.Slice(records, func(i, j int) bool {
		return records[i].Coverage.Start.Before(records[j].Coverage.Start)
	})
	return records, nil
}

// ProviderFor returns the first registered provider claiming a record's
// product that can serve its remote locator.
func (r *Resolver) ProviderFor(rec model.FileRecord) (provider.DataProvider, error) {
	candidates := r.providers.For(rec.Product)
	if len(candidates) == 0 {
		return nil, &NoProviderError{Product: rec.Product}
	}
	return candidates[0], nil
}

// Fetcher drives the retrieval pipeline: resolve, download what is
// missing, index what arrived.
type Fetcher struct {
	resolver *Resolver
	catalog  *Catalog
	dataDir  string
	workers  int
	metrics  *metrics.Collector
	log      *slog.Logger
}

// NewFetcher creates a fetcher. workers bounds the number of
// concurrent downloads; metrics may be nil.
func NewFetcher(resolver *Resolver, catalog *Catalog, dataDir string, workers int, collector *metrics.Collector, log *slog.Logger) *Fetcher {
	if workers <= 0 {
		workers = 4
	}
	if log == nil {
		log = slog.Default()
	}
	return &Fetcher{
		resolver: resolver,
		catalog:  catalog,
		dataDir:  dataDir,
		workers:  workers,
		metrics:  collector,
		log:      log,
	}
}

// Fetch materializes all files of a product covering tr. Files already
// indexed locally are not re-downloaded. Downloads run on a bounded
// worker pool, each isolated by its own temporary path; a granule only
// enters the catalog after its file is atomically in place. Partial
// failures do not abort the batch: the successfully fetched records are
// returned together with the joined errors.
func (f *Fetcher) Fetch(ctx context.Context, productName string, tr model.TimeRange) ([]model.FileRecord, error) {
	p, ok := f.resolver.products.Get(productName)
	if !ok {
		return nil, fmt.Errorf("unknown product %q", productName)
	}

	records, err := f.resolver.FindFiles(ctx, productName, tr)
	if err != nil {
		return nil, err
	}
	destDir := filepath.Join(f.dataDir, filepath.FromSlash(p.Destination()))

	var (
		mu   sync.Mutex
		out  []model.FileRecord
		errs []error
		sem  = make(chan struct{}, f.workers)
		wg   sync.WaitGroup
	)
	for _, rec := range records {
		if local := f.catalog.FindLocalPath(rec); local != "" {
			f.log.Debug("already indexed, skipping", "file", rec.Filename)
			if f.metrics != nil {
				f.metrics.DownloadsSkipped.Inc()
			}
			mu.Lock()
			out = append(out, rec.WithLocalPath(local))
			mu.Unlock()
			continue
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(rec model.FileRecord) {
			defer wg.Done()
			defer func() { <-sem }()

			got, err := f.download(ctx, rec, destDir)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			out = append(out, got)
		}(rec)
	}
	wg.Wait()

	sort.Slice(out, func(i, j int) bool {
		return out[i].Coverage.Start.Before(out[j].Coverage.Start)
	})
	return out, errors.Join(errs...)
}

// Get returns a local file for the record, downloading it only when the
// catalog has no materialized copy.
func (f *Fetcher) Get(ctx context.Context, rec model.FileRecord) (model.FileRecord, error) {
	if rec.IsLocal() {
		return rec, nil
	}
	if local := f.catalog.FindLocalPath(rec); local != "" {
		return rec.WithLocalPath(local), nil
	}

	p, ok := f.resolver.products.Get(rec.Product)
	if !ok {
		return rec, fmt.Errorf("unknown product %q", rec.Product)
	}
	destDir := filepath.Join(f.dataDir, filepath.FromSlash(p.Destination()))
	return f.download(ctx, rec, destDir)
}

// download retrieves one record through its provider and indexes the
// result.
func (f *Fetcher) download(ctx context.Context, rec model.FileRecord, destDir string) (model.FileRecord, error) {
	prov, err := f.resolver.ProviderFor(rec)
	if err != nil {
		return rec, err
	}
	if err := prov.Authenticate(ctx); err != nil {
		return rec, err
	}

	started := time.Now()
	got, err := prov.Download(ctx, rec, destDir)
	if f.metrics != nil {
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		f.metrics.DownloadsTotal.WithLabelValues(prov.Name(), rec.Product, outcome).Inc()
		f.metrics.DownloadDuration.Observe(time.Since(started).Seconds())
	}
	if err != nil {
		return rec, fmt.Errorf("download of %s from %s failed: %w", rec.Filename, prov.Name(), err)
	}
	if f.metrics != nil {
		f.metrics.DownloadBytes.Add(float64(got.Size))
	}

	if err := f.catalog.Insert(model.NewGranule(got)); err != nil {
		return got, fmt.Errorf("failed to index %s: %w", got.Filename, err)
	}
	if f.metrics != nil {
		f.metrics.IndexGranules.WithLabelValues(rec.Product).Set(float64(f.catalog.Index(rec.Product).Len()))
	}
	f.log.Info("file materialized", "product", rec.Product, "file", got.Filename,
		"provider", prov.Name(), "bytes", got.Size)
	return got, nil
}
