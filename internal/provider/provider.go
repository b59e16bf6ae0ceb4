// Package provider defines the data provider interface and registry.
// A provider encapsulates one remote archive: how to authenticate
// against it, how to list its files for a time range, and how to
// retrieve bytes for a listed file. Providers are plugins; no
// archive-specific logic lives in the core.
package provider

import (
	"context"

	"github.com/geodex/geodex/internal/model"
	"github.com/geodex/geodex/internal/product"
)

// DataProvider is the contract every remote archive adapter implements.
//
// Within one retrieval the call order is Authenticate, then FindFiles,
// then Download. FindFiles is read-only and safe to repeat. Download is
// idempotent by content identity and must never leave a partial file at
// the final destination. A search or download that times out surfaces
// as a *TransientError, never hangs.
type DataProvider interface {
	// Name returns the unique provider name, e.g. "icare".
	Name() string

	// Provides returns the names of the products this archive serves.
	Provides() []string

	// Authenticate establishes credentials with the archive. Idempotent;
	// a failure is an *AuthError distinguishing a missing credential
	// from a rejected one.
	Authenticate(ctx context.Context) error

	// FindFiles lists remote files of a product whose filename-derived
	// coverage overlaps the time range. Returned records have no local
	// path.
	FindFiles(ctx context.Context, p product.Product, tr model.TimeRange) ([]model.FileRecord, error)

	// Download retrieves the bytes for a record into destDir and
	// returns the record with its local path, size, and content hash
	// filled in. If a file with matching content already exists at the
	// destination, no bytes are fetched.
	Download(ctx context.Context, rec model.FileRecord, destDir string) (model.FileRecord, error)
}
