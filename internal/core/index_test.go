package core

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodex/geodex/internal/model"
	"github.com/geodex/geodex/internal/product"
)

func mustRange(t *testing.T, start, end string) model.TimeRange {
	t.Helper()
	tr, err := model.ParseTimeRange(start, end)
	require.NoError(t, err)
	return tr
}

func testProduct(t *testing.T, name string) product.Product {
	t.Helper()
	p, err := product.NewPatternProduct(product.Definition{
		Name:            name,
		Level:           "2B",
		Version:         "1",
		Pattern:         `^` + name + `_(?P<year>\d{4})(?P<month>\d{2})(?P<day>\d{2})(?P<hour>\d{2})(?P<minute>\d{2})\.dat$`,
		GranuleDuration: "5m",
		Destination:     name,
	})
	require.NoError(t, err)
	return p
}

func localGranule(t *testing.T, productName, filename, start, end string) model.Granule {
	t.Helper()
	rec := model.NewLocalRecord(productName, "/data/"+productName+"/"+filename, mustRange(t, start, end))
	rec.Size = 1024
	return model.NewGranule(rec)
}

func TestIndexInsertKeepsOrder(t *testing.T) {
	ix := NewIndex("swath")

	require.NoError(t, ix.Insert(localGranule(t, "swath", "c.dat", "2020-01-01T12:00:00", "2020-01-01T13:00:00")))
	require.NoError(t, ix.Insert(localGranule(t, "swath", "a.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00")))
	require.NoError(t, ix.Insert(localGranule(t, "swath", "b.dat", "2020-01-01T10:00:00", "2020-01-01T11:00:00")))

	granules := ix.Granules()
	require.Len(t, granules, 3)
	assert.Equal(t, "a.dat", granules[0].Record.Filename)
	assert.Equal(t, "b.dat", granules[1].Record.Filename)
	assert.Equal(t, "c.dat", granules[2].Record.Filename)
}

func TestIndexRejectsForeignProduct(t *testing.T) {
	ix := NewIndex("swath")
	err := ix.Insert(localGranule(t, "grid", "a.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00"))
	assert.Error(t, err)
	assert.Equal(t, 0, ix.Len())
}

func TestIndexUpsertIsIdempotent(t *testing.T) {
	ix := NewIndex("swath")
	g := localGranule(t, "swath", "a.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00")
	window := mustRange(t, "2020-01-01T00:00:00", "2020-01-02T00:00:00")

	require.NoError(t, ix.Insert(g))
	before := ix.FindOverlapping(window)

	require.NoError(t, ix.Insert(g))
	after := ix.FindOverlapping(window)

	assert.Equal(t, 1, ix.Len())
	assert.Equal(t, before, after)
}

func TestIndexUpsertReplacesChangedRecord(t *testing.T) {
	ix := NewIndex("swath")
	g := localGranule(t, "swath", "a.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00")
	require.NoError(t, ix.Insert(g))

	g.Record.Size = 2048
	require.NoError(t, ix.Insert(g))

	granules := ix.Granules()
	require.Len(t, granules, 1)
	assert.Equal(t, int64(2048), granules[0].Record.Size)
}

func TestIndexLocalPathCollision(t *testing.T) {
	ix := NewIndex("swath")
	a := localGranule(t, "swath", "a.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00")
	require.NoError(t, ix.Insert(a))

	b := localGranule(t, "swath", "b.dat", "2020-01-01T10:00:00", "2020-01-01T11:00:00")
	b.Record.LocalPath = a.Record.LocalPath
	err := ix.Insert(b)
	assert.Error(t, err)
	assert.Equal(t, 1, ix.Len())
}

func TestIndexLocalPathCollisionWithLaterEntry(t *testing.T) {
	ix := NewIndex("swath")
	a := localGranule(t, "swath", "a.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00")
	b := localGranule(t, "swath", "b.dat", "2020-01-01T10:00:00", "2020-01-01T11:00:00")
	require.NoError(t, ix.Insert(a))
	require.NoError(t, ix.Insert(b))

	// Re-inserting a claims b's path. The collision sits after a's own
	// slot, and the rejected upsert must leave both entries intact.
	bad := a
	bad.Record.LocalPath = b.Record.LocalPath
	require.Error(t, ix.Insert(bad))

	granules := ix.Granules()
	require.Len(t, granules, 2)
	assert.Equal(t, a.Record.LocalPath, granules[0].Record.LocalPath)
	assert.Equal(t, b.Record.LocalPath, granules[1].Record.LocalPath)
}

func TestIndexFindOverlapping(t *testing.T) {
	ix := NewIndex("swath")
	require.NoError(t, ix.Insert(localGranule(t, "swath", "a.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00")))
	require.NoError(t, ix.Insert(localGranule(t, "swath", "b.dat", "2020-01-01T10:00:00", "2020-01-01T11:00:00")))
	require.NoError(t, ix.Insert(localGranule(t, "swath", "c.dat", "2020-01-01T12:00:00", "2020-01-01T13:00:00")))

	hits := ix.FindOverlapping(mustRange(t, "2020-01-01T08:30:00", "2020-01-01T10:30:00"))
	require.Len(t, hits, 2)
	assert.Equal(t, "a.dat", hits[0].Record.Filename)
	assert.Equal(t, "b.dat", hits[1].Record.Filename)

	// Half-open ranges: a query starting exactly at a granule's end
	// does not hit it.
	hits = ix.FindOverlapping(mustRange(t, "2020-01-01T09:00:00", "2020-01-01T09:30:00"))
	assert.Empty(t, hits)

	// An instant inside a granule still finds it.
	instant := model.InstantRange(mustRange(t, "2020-01-01T10:30:00", "2020-01-01T10:30:00").Start)
	hits = ix.FindOverlapping(instant)
	require.Len(t, hits, 1)
	assert.Equal(t, "b.dat", hits[0].Record.Filename)
}

func TestIndexFindOverlappingLongGranule(t *testing.T) {
	ix := NewIndex("swath")
	// A multi-day granule followed by many short ones. Queries landing
	// well past the long granule's start must still find it.
	require.NoError(t, ix.Insert(localGranule(t, "swath", "long.dat", "2020-01-01T00:00:00", "2020-01-04T00:00:00")))
	for hour := 0; hour < 24; hour++ {
		start := time.Date(2020, 1, 5, hour, 0, 0, 0, time.UTC)
		g := localGranule(t, "swath",
			fmt.Sprintf("short%02d.dat", hour),
			start.Format("2006-01-02T15:04:05"),
			start.Add(time.Hour).Format("2006-01-02T15:04:05"))
		require.NoError(t, ix.Insert(g))
	}

	hits := ix.FindOverlapping(mustRange(t, "2020-01-03T12:00:00", "2020-01-03T13:00:00"))
	require.Len(t, hits, 1)
	assert.Equal(t, "long.dat", hits[0].Record.Filename)
}

func TestIndexFindWithRegion(t *testing.T) {
	ix := NewIndex("swath")

	tropics := localGranule(t, "swath", "tropics.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00")
	tropics.Footprint = model.LatLonBox{LatMin: -20, LonMin: 100, LatMax: 20, LonMax: 140}
	require.NoError(t, ix.Insert(tropics))

	polar := localGranule(t, "swath", "polar.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00")
	polar.Footprint = model.LatLonBox{LatMin: 60, LonMin: -180, LatMax: 90, LonMax: 180}
	require.NoError(t, ix.Insert(polar))

	// No footprint recorded, so the extent is unknown rather than disjoint.
	unknown := localGranule(t, "swath", "unknown.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00")
	require.NoError(t, ix.Insert(unknown))

	window := mustRange(t, "2020-01-01T00:00:00", "2020-01-02T00:00:00")
	region := model.LatLonBox{LatMin: -10, LonMin: 110, LatMax: 10, LonMax: 130}

	hits := ix.Find(window, region)
	require.Len(t, hits, 2)
	assert.Equal(t, "tropics.dat", hits[0].Record.Filename)
	assert.Equal(t, "unknown.dat", hits[1].Record.Filename)

	// A zero region applies no spatial filter.
	assert.Len(t, ix.Find(window, model.LatLonBox{}), 3)
}

func TestIndexCoveredRanges(t *testing.T) {
	ix := NewIndex("swath")
	// Two adjacent granules and one detached granule.
	require.NoError(t, ix.Insert(localGranule(t, "swath", "a.dat", "2020-01-01T00:00:00", "2020-01-02T00:00:00")))
	require.NoError(t, ix.Insert(localGranule(t, "swath", "b.dat", "2020-01-02T00:00:00", "2020-01-03T00:00:00")))
	require.NoError(t, ix.Insert(localGranule(t, "swath", "c.dat", "2020-01-05T00:00:00", "2020-01-06T00:00:00")))

	covered := ix.CoveredRanges()
	require.Len(t, covered, 2)
	assert.True(t, covered[0].Equal(mustRange(t, "2020-01-01T00:00:00", "2020-01-03T00:00:00")))
	assert.True(t, covered[1].Equal(mustRange(t, "2020-01-05T00:00:00", "2020-01-06T00:00:00")))
}

func TestIndexGaps(t *testing.T) {
	ix := NewIndex("swath")
	require.NoError(t, ix.Insert(localGranule(t, "swath", "a.dat", "2020-01-01T00:00:00", "2020-01-03T00:00:00")))
	require.NoError(t, ix.Insert(localGranule(t, "swath", "b.dat", "2020-01-05T00:00:00", "2020-01-06T00:00:00")))

	gaps := ix.Gaps(mustRange(t, "2020-01-01T00:00:00", "2020-01-07T00:00:00"))
	require.Len(t, gaps, 2)
	assert.True(t, gaps[0].Equal(mustRange(t, "2020-01-03T00:00:00", "2020-01-05T00:00:00")))
	assert.True(t, gaps[1].Equal(mustRange(t, "2020-01-06T00:00:00", "2020-01-07T00:00:00")))

	// A fully covered window has no gaps.
	assert.Empty(t, ix.Gaps(mustRange(t, "2020-01-01T06:00:00", "2020-01-02T06:00:00")))

	// An empty index gaps the entire window.
	empty := NewIndex("swath")
	gaps = empty.Gaps(mustRange(t, "2020-01-01T00:00:00", "2020-01-02T00:00:00"))
	require.Len(t, gaps, 1)
	assert.True(t, gaps[0].Equal(mustRange(t, "2020-01-01T00:00:00", "2020-01-02T00:00:00")))
}

func TestIndexRemove(t *testing.T) {
	ix := NewIndex("swath")
	g := localGranule(t, "swath", "a.dat", "2020-01-01T08:00:00", "2020-01-01T09:00:00")
	require.NoError(t, ix.Insert(g))

	assert.True(t, ix.Remove(g.Key()))
	assert.False(t, ix.Remove(g.Key()))
	assert.Equal(t, 0, ix.Len())
}
