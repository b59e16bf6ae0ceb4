package model

import (
	"fmt"
	"path"
	"path/filepath"
)

// FileRecord identifies one data file of a product, available locally,
// remotely, or both.
//
// INVARIANT: at least one of Remote and LocalPath is set. Two records
// refer to the same physical file when product and filename match; the
// filename is derived from the remote locator when not given explicitly.
type FileRecord struct {
	Product     string    `json:"product"`
	Filename    string    `json:"filename"`
	Remote      string    `json:"remote,omitempty"`
	LocalPath   string    `json:"local_path,omitempty"`
	Size        int64     `json:"size,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"` // SHA-256
	Coverage    TimeRange `json:"coverage"`
}

// NewLocalRecord builds a record for a file that exists on disk.
func NewLocalRecord(product, localPath string, coverage TimeRange) FileRecord {
	return FileRecord{
		Product:   product,
		Filename:  filepath.Base(localPath),
		LocalPath: localPath,
		Coverage:  coverage,
	}
}

// NewRemoteRecord builds a record for a file known only by its remote
// locator. The filename is the final element of the locator.
func NewRemoteRecord(product, remote string, coverage TimeRange) FileRecord {
	return FileRecord{
		Product:  product,
		Filename: path.Base(remote),
		Remote:   remote,
		Coverage: coverage,
	}
}

// Validate checks the record invariants.
func (r FileRecord) Validate() error {
	if r.Product == "" {
		return fmt.Errorf("file record %q has no product", r.Filename)
	}
	if r.Remote == "" && r.LocalPath == "" {
		return fmt.Errorf("file record %q has neither remote locator nor local path", r.Filename)
	}
	if r.Filename == "" {
		return fmt.Errorf("file record for product %q has no filename", r.Product)
	}
	return nil
}

// SameFile reports whether both records identify the same physical file.
func (r FileRecord) SameFile(other FileRecord) bool {
	return r.Product == other.Product && r.Filename == other.Filename
}

// IsLocal reports whether the file has been materialized locally.
func (r FileRecord) IsLocal() bool {
	return r.LocalPath != ""
}

// WithLocalPath returns a copy of the record with the local path filled
// in. The original record is not mutated.
func (r FileRecord) WithLocalPath(localPath string) FileRecord {
	r.LocalPath = localPath
	return r
}

func (r FileRecord) String() string {
	loc := r.Remote
	if r.IsLocal() {
		loc = r.LocalPath
	}
	return fmt.Sprintf("%s/%s (%s)", r.Product, r.Filename, loc)
}
