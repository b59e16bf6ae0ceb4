package core

import (
	"time"

	"github.com/geodex/geodex/internal/model"
)

// MatchPair is one collocation result: a granule of the left product
// paired with the best-matching granule of the right product.
type MatchPair struct {
	Left  model.Granule
	Right model.Granule
}

// Match finds collocation candidates between two products: for every
// granule of productA overlapping tr, the productB granule whose
// coverage overlaps it or lies within maxTimeDiff of it. When several
// qualify, the one with the smallest time-center distance wins, ties
// broken by earliest start. A granule with no qualifying B granule
// produces no pair. A non-zero region restricts both sides to granules
// whose footprint intersects it.
func (c *Catalog) Match(productA, productB string, tr model.TimeRange, region model.LatLonBox, maxTimeDiff time.Duration) []MatchPair {
	ixA, okA := c.Get(productA)
	ixB, okB := c.Get(productB)
	if !okA || !okB {
		return nil
	}

	var pairs []MatchPair
	for _, left := range ixA.Find(tr, region) {
		candidates := ixB.Find(left.Coverage.Expand(maxTimeDiff), region)

		best, found := pickClosest(left, candidates, maxTimeDiff)
		if !found {
			continue
		}
		pairs = append(pairs, MatchPair{Left: left, Right: best})
	}
	return pairs
}

// MatchMerged behaves like Match but coalesces runs of pairs whose left
// and right granules are both adjacent (sub-file granules of the same
// files), so a match extending over several granules comes back as one
// extended pair.
func (c *Catalog) MatchMerged(productA, productB string, tr model.TimeRange, region model.LatLonBox, maxTimeDiff time.Duration) []MatchPair {
	pairs := c.Match(productA, productB, tr, region, maxTimeDiff)
	if len(pairs) < 2 {
		return pairs
	}

	merged := pairs[:1]
	for _, pair := range pairs[1:] {
		last := &merged[len(merged)-1]
		left, err := last.Left.Merge(pair.Left)
		if err != nil {
			merged = append(merged, pair)
			continue
		}
		right, err := last.Right.Merge(pair.Right)
		if err != nil {
			merged = append(merged, pair)
			continue
		}
		last.Left = left
		last.Right = right
	}
	return merged
}

// pickClosest selects the candidate overlapping or within maxTimeDiff
// of left, preferring the smallest time-center distance and then the
// earliest start.
func pickClosest(left model.Granule, candidates []model.Granule, maxTimeDiff time.Duration) (model.Granule, bool) {
	var best model.Granule
	var bestCenterDiff time.Duration
	found := false

	center := left.Coverage.Center()
	for _, cand := range candidates {
		if left.Coverage.Distance(cand.Coverage) > maxTimeDiff {
			continue
		}
		centerDiff := center.Sub(cand.Coverage.Center())
		if centerDiff < 0 {
			centerDiff = -centerDiff
		}
		if !found || centerDiff < bestCenterDiff ||
			(centerDiff == bestCenterDiff && cand.Coverage.Start.Before(best.Coverage.Start)) {
			best = cand
			bestCenterDiff = centerDiff
			found = true
		}
	}
	return best, found
}
