package core

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/geodex/geodex/internal/model"
	"github.com/geodex/geodex/internal/product"
)

// Scanner rebuilds or extends a catalog from files already on disk.
// It never touches the network and never mutates the filesystem.
type Scanner struct {
	catalog *Catalog
	log     *slog.Logger
}

// NewScanner creates a scanner feeding the given catalog.
func NewScanner(catalog *Catalog, log *slog.Logger) *Scanner {
	if log == nil {
		log = slog.Default()
	}
	return &Scanner{catalog: catalog, log: log}
}

// ScanResult summarizes one scan.
type ScanResult struct {
	Indexed int // files matched and indexed
	Skipped int // files not matching the product
	Failed  int // files matching but with unparseable coverage
}

// Scan walks dir and indexes every file matching the product. Files
// whose name does not yield a time coverage are counted and skipped.
func (s *Scanner) Scan(ctx context.Context, p product.Product, dir string) (ScanResult, error) {
	var result ScanResult

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			return nil
		}
		if !p.Matches(d.Name()) {
			result.Skipped++
			return nil
		}

		coverage, err := p.TimeCoverage(d.Name())
		if err != nil {
			s.log.Warn("matching file has unparseable timestamp", "file", path, "error", err)
			result.Failed++
			return nil
		}

		rec := model.NewLocalRecord(p.Name(), path, coverage)
		if info, err := d.Info(); err == nil {
			rec.Size = info.Size()
		}
		if err := s.catalog.Insert(model.NewGranule(rec)); err != nil {
			return fmt.Errorf("failed to index %s: %w", path, err)
		}
		result.Indexed++
		return nil
	})
	if err != nil {
		return result, fmt.Errorf("scan of %s failed: %w", dir, err)
	}

	s.log.Info("scan complete", "product", p.Name(), "dir", dir,
		"indexed", result.Indexed, "skipped", result.Skipped)
	return result, nil
}

// ScanAll scans the per-product destination directories of every
// registered product under dataDir. Missing destination directories
// are not errors, they simply contribute nothing.
func (s *Scanner) ScanAll(ctx context.Context, products *product.Registry, dataDir string) (ScanResult, error) {
	var total ScanResult
	for _, p := range products.All() {
		dir := filepath.Join(dataDir, filepath.FromSlash(p.Destination()))
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			continue
		}
		result, err := s.Scan(ctx, p, dir)
		total.Indexed += result.Indexed
		total.Skipped += result.Skipped
		total.Failed += result.Failed
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
