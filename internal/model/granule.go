package model

import (
	"fmt"
	"sort"
	"time"
)

// Granule is the finest unit of indexed coverage: a file record plus a
// precise temporal footprint, optionally a spatial footprint, and
// optionally a scan-index range when the granule covers only a
// sub-section of its file.
//
// INVARIANT: Coverage lies within the file record's nominal coverage,
// unless the record carries no time information.
type Granule struct {
	Record    FileRecord `json:"record"`
	Coverage  TimeRange  `json:"coverage"`
	Footprint LatLonBox  `json:"footprint,omitempty"`

	// IndexName names the scan dimension the granule spans within its
	// file; empty for whole-file granules. The range is half-open
	// [IndexStart, IndexEnd).
	IndexName  string `json:"index_name,omitempty"`
	IndexStart int    `json:"index_start,omitempty"`
	IndexEnd   int    `json:"index_end,omitempty"`
}

// GranuleKey identifies a granule within an index. Whole-file granules
// of the same product and filename collapse onto one key, which gives
// Insert its upsert semantics.
type GranuleKey struct {
	Product    string
	Filename   string
	IndexName  string
	IndexStart int
	IndexEnd   int
}

// NewGranule builds a whole-file granule from a record.
func NewGranule(rec FileRecord) Granule {
	return Granule{Record: rec, Coverage: rec.Coverage}
}

// Key returns the granule's index identity.
func (g Granule) Key() GranuleKey {
	return GranuleKey{
		Product:    g.Record.Product,
		Filename:   g.Record.Filename,
		IndexName:  g.IndexName,
		IndexStart: g.IndexStart,
		IndexEnd:   g.IndexEnd,
	}
}

// Validate checks the granule invariants.
func (g Granule) Validate() error {
	if err := g.Record.Validate(); err != nil {
		return err
	}
	if g.Coverage.IsZero() {
		return fmt.Errorf("granule of %q has no time coverage", g.Record.Filename)
	}
	if !g.Record.Coverage.IsZero() && !g.Record.Coverage.Covers(g.Coverage) {
		return fmt.Errorf("granule coverage %s exceeds file coverage %s of %q",
			g.Coverage, g.Record.Coverage, g.Record.Filename)
	}
	return nil
}

// Adjacent reports whether two granules belong to the same file and
// have touching or overlapping scan-index ranges, so that merging them
// loses no information.
func (g Granule) Adjacent(other Granule) bool {
	if !g.Record.SameFile(other.Record) {
		return false
	}
	if g.IndexName != other.IndexName {
		return false
	}
	if g.IndexName == "" {
		return true
	}
	return g.IndexStart <= other.IndexEnd && other.IndexStart <= g.IndexEnd
}

// Merge combines two adjacent granules into one covering the union of
// their temporal, spatial, and index extents.
func (g Granule) Merge(other Granule) (Granule, error) {
	if !g.Adjacent(other) {
		return Granule{}, fmt.Errorf("granules %s and %s are not adjacent",
			g.Record.Filename, other.Record.Filename)
	}
	out := g
	out.Coverage = NewTimeRange(
		minTime(g.Coverage.Start, other.Coverage.Start),
		maxTime(g.Coverage.End, other.Coverage.End),
	)
	out.Footprint = g.Footprint.Merge(other.Footprint)
	if g.IndexName != "" {
		if other.IndexStart < out.IndexStart {
			out.IndexStart = other.IndexStart
		}
		if other.IndexEnd > out.IndexEnd {
			out.IndexEnd = other.IndexEnd
		}
	}
	return out, nil
}

// MergeGranules coalesces adjacent granules. The input is sorted by
// coverage start first, so adjacent granules end up at consecutive
// positions.
func MergeGranules(granules []Granule) []Granule {
	if len(granules) == 0 {
		return nil
	}
	sorted := make([]Granule, len(granules))
	copy(sorted, granules)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Coverage.Start.Before(sorted[j].Coverage.Start)
	})

	merged := make([]Granule, 0, len(sorted))
	current := sorted[0]
	for _, g := range sorted[1:] {
		m, err := current.Merge(g)
		if err != nil {
			merged = append(merged, current)
			current = g
			continue
		}
		current = m
	}
	return append(merged, current)
}

func minTime(a, b time.Time) time.Time {
	if b.Before(a) {
		return b
	}
	return a
}

func maxTime(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
