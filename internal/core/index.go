// Package core provides the engine of geodex: the granule index, the
// catalog, provider resolution, retrieval, and collocation matching.
package core

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/geodex/geodex/internal/model"
)

// Index tracks the granules of one product, ordered by coverage start
// time.
//
// The collection is a sorted slice: lookups locate their window with
// binary search in O(log n), insertion keeps order with an O(n) copy.
// For the repository sizes geodex handles (tens of thousands of
// granules) queries dominate, so the slice wins over a tree.
//
// INVARIANTS: granules referencing different files never share a local
// path; re-insertion of the same granule key replaces the prior entry.
// Overlapping granules from different files are permitted.
type Index struct {
	mu       sync.RWMutex
	product  string
	granules []model.Granule

	// maxDur is an upper bound on the coverage duration of any granule
	// ever inserted. It bounds how far before a query window a granule
	// can start and still reach into it. Removals never shrink it, so
	// it stays a valid bound.
	maxDur time.Duration
}

// NewIndex creates an empty index for a product.
func NewIndex(product string) *Index {
	return &Index{product: product}
}

// Product returns the product this index tracks.
func (ix *Index) Product() string { return ix.product }

// Len returns the number of indexed granules.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.granules)
}

// Insert adds a granule, replacing any prior granule with the same key.
func (ix *Index) Insert(g model.Granule) error {
	if err := g.Validate(); err != nil {
		return err
	}
	if g.Record.Product != ix.product {
		return fmt.Errorf("granule of product %q does not belong in index of %q",
			g.Record.Product, ix.product)
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	// Check the path invariant over the whole collection before any
	// splicing, so a rejected insert leaves the index untouched.
	key := g.Key()
	replace := -1
	for i, existing := range ix.granules {
		if existing.Key() == key {
			replace = i
			continue
		}
		if g.Record.LocalPath != "" &&
			existing.Record.LocalPath == g.Record.LocalPath &&
			existing.Record.Filename != g.Record.Filename {
			return fmt.Errorf("local path %q already indexed for file %q",
				g.Record.LocalPath, existing.Record.Filename)
		}
	}
	if replace >= 0 {
		ix.granules = append(ix.granules[:replace], ix.granules[replace+1:]...)
	}
	if d := g.Coverage.Duration(); d > ix.maxDur {
		ix.maxDur = d
	}

	pos := sort.Search(len(ix.granules), func(i int) bool {
		return ix.granules[i].Coverage.Start.After(g.Coverage.Start)
	})
	ix.granules = append(ix.granules, model.Granule{})
	copy(ix.granules[pos+1:], ix.granules[pos:])
	ix.granules[pos] = g
	return nil
}

// Remove drops the granule with the given key. Returns true when a
// granule was removed.
func (ix *Index) Remove(key model.GranuleKey) bool {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	for i, g := range ix.granules {
		if g.Key() == key {
			ix.granules = append(ix.granules[:i], ix.granules[i+1:]...)
			return true
		}
	}
	return false
}

// Granules returns a copy of all granules in ascending start order.
func (ix *Index) Granules() []model.Granule {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	out := make([]model.Granule, len(ix.granules))
	copy(out, ix.granules)
	return out
}

// FindOverlapping returns the granules whose coverage overlaps tr, in
// ascending start order.
func (ix *Index) FindOverlapping(tr model.TimeRange) []model.Granule {
	return ix.Find(tr, model.LatLonBox{})
}

// Find returns the granules whose coverage overlaps tr and whose
// footprint intersects region, in ascending start order. A zero region
// means no spatial filter; a granule without a footprint passes any
// region, since its extent is unknown rather than disjoint.
//
// Granule start times are sorted, but end times are not monotonic
// (swath lengths vary), so the scan starts at the first granule that
// could still reach into tr: no granule beginning more than the
// longest-seen coverage before tr.Start can overlap it.
func (ix *Index) Find(tr model.TimeRange, region model.LatLonBox) []model.Granule {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	earliest := tr.Start.Add(-ix.maxDur)
	lo := sort.Search(len(ix.granules), func(i int) bool {
		return !ix.granules[i].Coverage.Start.Before(earliest)
	})

	var out []model.Granule
	for i := lo; i < len(ix.granules); i++ {
		g := ix.granules[i]
		if g.Coverage.Start.After(tr.End) {
			break
		}
		if !g.Coverage.Overlaps(tr) {
			continue
		}
		if !region.IsZero() && !g.Footprint.IsZero() && !g.Footprint.Intersects(region) {
			continue
		}
		out = append(out, g)
	}
	return out
}

// FindLocalPath returns the indexed local path for a file record, or ""
// when the file is not materialized in this index.
func (ix *Index) FindLocalPath(rec model.FileRecord) string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	for _, g := range ix.granules {
		if g.Record.Filename == rec.Filename && g.Record.LocalPath != "" {
			return g.Record.LocalPath
		}
	}
	return ""
}

// CoveredRanges returns the minimal sorted sequence of non-overlapping,
// non-adjacent time ranges covering all granules: the classic interval
// merge over start-sorted ranges.
func (ix *Index) CoveredRanges() []model.TimeRange {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	if len(ix.granules) == 0 {
		return nil
	}

	out := []model.TimeRange{ix.granules[0].Coverage}
	for _, g := range ix.granules[1:] {
		last := &out[len(out)-1]
		if merged, err := last.Merge(g.Coverage); err == nil {
			*last = merged
			continue
		}
		out = append(out, g.Coverage)
	}
	return out
}

// Gaps returns the complement of the covered ranges within tr: the
// sub-ranges of tr for which no local data exists.
func (ix *Index) Gaps(tr model.TimeRange) []model.TimeRange {
	var gaps []model.TimeRange
	cursor := tr.Start

	for _, covered := range ix.CoveredRanges() {
		if !covered.Overlaps(tr) {
			continue
		}
		if covered.Start.After(cursor) {
			gaps = append(gaps, model.NewTimeRange(cursor, covered.Start))
		}
		if covered.End.After(cursor) {
			cursor = covered.End
		}
	}
	if cursor.Before(tr.End) {
		gaps = append(gaps, model.NewTimeRange(cursor, tr.End))
	}
	return gaps
}
