package core

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/geodex/geodex/internal/model"
	"github.com/geodex/geodex/internal/storage"
)

// Catalog aggregates per-product indices and answers coverage and
// collocation queries across products. It persists to a SQLite
// database, encrypted when a passphrase is configured.
type Catalog struct {
	mu      sync.RWMutex
	indices map[string]*Index
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{indices: make(map[string]*Index)}
}

// Index returns the index for a product, creating it if absent.
func (c *Catalog) Index(product string) *Index {
	c.mu.Lock()
	defer c.mu.Unlock()

	ix, ok := c.indices[product]
	if !ok {
		ix = NewIndex(product)
		c.indices[product] = ix
	}
	return ix
}

// Get returns the index for a product without creating it.
func (c *Catalog) Get(product string) (*Index, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ix, ok := c.indices[product]
	return ix, ok
}

// Products returns the product names with an index, sorted.
func (c *Catalog) Products() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]string, 0, len(c.indices))
	for name := range c.indices {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Insert registers a granule under its product's index.
func (c *Catalog) Insert(g model.Granule) error {
	return c.Index(g.Record.Product).Insert(g)
}

// FindLocalPath looks up the local path for a file record across the
// catalog. Returns "" when the file is not materialized locally.
func (c *Catalog) FindLocalPath(rec model.FileRecord) string {
	ix, ok := c.Get(rec.Product)
	if !ok {
		return ""
	}
	return ix.FindLocalPath(rec)
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS granules (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    product       TEXT NOT NULL,
    filename      TEXT NOT NULL,
    local_path    TEXT NOT NULL DEFAULT '',
    remote        TEXT NOT NULL DEFAULT '',
    size          INTEGER NOT NULL DEFAULT 0,
    content_hash  TEXT NOT NULL DEFAULT '',
    file_start    TEXT NOT NULL,
    file_end      TEXT NOT NULL,
    start_time    TEXT NOT NULL,
    end_time      TEXT NOT NULL,
    lat_min       REAL NOT NULL DEFAULT 0,
    lat_max       REAL NOT NULL DEFAULT 0,
    lon_min       REAL NOT NULL DEFAULT 0,
    lon_max       REAL NOT NULL DEFAULT 0,
    index_name    TEXT NOT NULL DEFAULT '',
    index_start   INTEGER NOT NULL DEFAULT 0,
    index_end     INTEGER NOT NULL DEFAULT 0,
    UNIQUE(product, filename, index_name, index_start, index_end)
);
CREATE INDEX IF NOT EXISTS idx_granules_product_start ON granules(product, start_time);

CREATE TABLE IF NOT EXISTS catalog_meta (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
INSERT OR IGNORE INTO catalog_meta (key, value) VALUES ('schema_version', '%s');
`

// schemaVersion is bumped whenever the granules table changes shape.
// LoadCatalog refuses databases written with any other version.
const schemaVersion = "1"

// timeFormat keeps sub-second precision so persisted bounds round-trip
// exactly.
const timeFormat = time.RFC3339Nano

// SaveCatalog persists the catalog to a SQLite database at path,
// replacing its prior content.
func SaveCatalog(ctx context.Context, c *Catalog, path, passphrase string) error {
	db, err := storage.Open(path, passphrase)
	if err != nil {
		return err
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, fmt.Sprintf(catalogSchema, schemaVersion)); err != nil {
		return fmt.Errorf("failed to initialize catalog schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin catalog transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM granules`); err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO granules (
		    product, filename, local_path, remote, size, content_hash,
		    file_start, file_end, start_time, end_time,
		    lat_min, lat_max, lon_min, lon_max,
		    index_name, index_start, index_end
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, product := range c.Products() {
		ix, _ := c.Get(product)
		for _, g := range ix.Granules() {
			_, err := stmt.ExecContext(ctx,
				g.Record.Product, g.Record.Filename, g.Record.LocalPath,
				g.Record.Remote, g.Record.Size, g.Record.ContentHash,
				g.Record.Coverage.Start.UTC().Format(timeFormat),
				g.Record.Coverage.End.UTC().Format(timeFormat),
				g.Coverage.Start.UTC().Format(timeFormat),
				g.Coverage.End.UTC().Format(timeFormat),
				g.Footprint.LatMin, g.Footprint.LatMax,
				g.Footprint.LonMin, g.Footprint.LonMax,
				g.IndexName, g.IndexStart, g.IndexEnd)
			if err != nil {
				return fmt.Errorf("failed to persist granule %q: %w", g.Record.Filename, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog: %w", err)
	}
	return nil
}

// LoadCatalog reads a catalog persisted by SaveCatalog. A database that
// cannot be opened or parsed surfaces as *CorruptCatalogError so the
// caller can fall back to a rebuild from a filesystem scan.
func LoadCatalog(ctx context.Context, path, passphrase string) (*Catalog, error) {
	db, err := storage.Open(path, passphrase)
	if err != nil {
		return nil, &CorruptCatalogError{Path: path, Err: err}
	}
	defer db.Close()

	var version string
	err = db.QueryRowContext(ctx,
		`SELECT value FROM catalog_meta WHERE key = 'schema_version'`).Scan(&version)
	if err != nil {
		return nil, &CorruptCatalogError{Path: path, Err: fmt.Errorf("failed to read schema version: %w", err)}
	}
	if version != schemaVersion {
		return nil, &CorruptCatalogError{Path: path,
			Err: fmt.Errorf("unsupported catalog schema version %q, want %q", version, schemaVersion)}
	}

	rows, err := db.QueryContext(ctx, `
		SELECT product, filename, local_path, remote, size, content_hash,
		       file_start, file_end, start_time, end_time,
		       lat_min, lat_max, lon_min, lon_max,
		       index_name, index_start, index_end
		FROM granules
		ORDER BY product, start_time
	`)
	if err != nil {
		return nil, &CorruptCatalogError{Path: path, Err: err}
	}
	defer rows.Close()

	catalog := NewCatalog()
	for rows.Next() {
		g, err := scanGranule(rows)
		if err != nil {
			return nil, &CorruptCatalogError{Path: path, Err: err}
		}
		if err := catalog.Insert(g); err != nil {
			return nil, &CorruptCatalogError{Path: path, Err: err}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, &CorruptCatalogError{Path: path, Err: err}
	}
	return catalog, nil
}

func scanGranule(rows *sql.Rows) (model.Granule, error) {
	var g model.Granule
	var fileStart, fileEnd, start, end string

	err := rows.Scan(
		&g.Record.Product, &g.Record.Filename, &g.Record.LocalPath,
		&g.Record.Remote, &g.Record.Size, &g.Record.ContentHash,
		&fileStart, &fileEnd, &start, &end,
		&g.Footprint.LatMin, &g.Footprint.LatMax,
		&g.Footprint.LonMin, &g.Footprint.LonMax,
		&g.IndexName, &g.IndexStart, &g.IndexEnd)
	if err != nil {
		return g, err
	}

	g.Record.Coverage, err = parseRange(fileStart, fileEnd)
	if err != nil {
		return g, err
	}
	g.Coverage, err = parseRange(start, end)
	if err != nil {
		return g, err
	}
	return g, nil
}

func parseRange(start, end string) (model.TimeRange, error) {
	s, err := time.Parse(timeFormat, start)
	if err != nil {
		return model.NoTimeInfo, fmt.Errorf("bad start time %q: %w", start, err)
	}
	e, err := time.Parse(timeFormat, end)
	if err != nil {
		return model.NoTimeInfo, fmt.Errorf("bad end time %q: %w", end, err)
	}
	return model.NewTimeRange(s, e), nil
}
