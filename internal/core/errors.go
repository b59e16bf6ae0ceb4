package core

import (
	"errors"
	"fmt"
)

// ErrNoData marks a valid request for which no provider had files in
// the queried time range. It is a legitimate empty-window answer, not a
// configuration problem.
var ErrNoData = errors.New("no data available in the requested time range")

// NoProviderError reports that no registered provider claims a product.
// This is a configuration problem the user must fix.
type NoProviderError struct {
	Product string
}

func (e *NoProviderError) Error() string {
	return fmt.Sprintf("no provider registered for product %q", e.Product)
}

// CorruptCatalogError reports that a persisted catalog failed to load.
// Callers may fall back to an empty catalog and rebuild it from a
// filesystem scan.
type CorruptCatalogError struct {
	Path string
	Err  error
}

func (e *CorruptCatalogError) Error() string {
	return fmt.Sprintf("catalog at %s is corrupt: %v", e.Path, e.Err)
}

func (e *CorruptCatalogError) Unwrap() error { return e.Err }
