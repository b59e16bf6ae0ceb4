package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geodex/geodex/internal/core"
	"github.com/geodex/geodex/internal/model"
	"github.com/geodex/geodex/internal/product"
	"github.com/geodex/geodex/internal/provider"
)

// windowProvider records the windows it was asked to search.
type windowProvider struct {
	product string
	windows atomic.Value // []model.TimeRange
	calls   atomic.Int64
}

func (w *windowProvider) Name() string       { return "window" }
func (w *windowProvider) Provides() []string { return []string{w.product} }

func (w *windowProvider) Authenticate(ctx context.Context) error { return nil }

func (w *windowProvider) FindFiles(ctx context.Context, p product.Product, tr model.TimeRange) ([]model.FileRecord, error) {
	w.calls.Add(1)
	w.windows.Store(tr)
	return nil, nil
}

func (w *windowProvider) Download(ctx context.Context, rec model.FileRecord, destDir string) (model.FileRecord, error) {
	return rec, nil
}

func watchFixture(t *testing.T, prov provider.DataProvider) (*core.Fetcher, *core.Catalog) {
	t.Helper()

	def := product.Definition{
		Name:            "obs",
		Pattern:         `^obs_(?P<year>\d{4})(?P<month>\d{2})(?P<day>\d{2})(?P<hour>\d{2})(?P<minute>\d{2})\.dat$`,
		GranuleDuration: "5m",
		Destination:     "obs",
	}
	p, err := product.NewPatternProduct(def)
	require.NoError(t, err)

	products := product.NewRegistry()
	require.NoError(t, products.Register(p))
	products.Freeze()

	providers := provider.NewRegistry()
	require.NoError(t, providers.Register(prov))

	catalog := core.NewCatalog()
	fetcher := core.NewFetcher(core.NewResolver(products, providers, nil),
		catalog, t.TempDir(), 1, nil, nil)
	return fetcher, catalog
}

func TestRunOnceUsesLookbackWhenEmpty(t *testing.T) {
	prov := &windowProvider{product: "obs"}
	fetcher, catalog := watchFixture(t, prov)

	s := New(fetcher, catalog, []string{"obs"}, time.Minute, 24*time.Hour, nil)
	before := time.Now().UTC()
	s.RunOnce(context.Background())

	require.Equal(t, int64(1), prov.calls.Load())
	window := prov.windows.Load().(model.TimeRange)
	assert.WithinDuration(t, before.Add(-24*time.Hour), window.Start, 5*time.Second)
	assert.WithinDuration(t, before, window.End, 5*time.Second)
}

func TestRunOnceResumesFromCoverage(t *testing.T) {
	prov := &windowProvider{product: "obs"}
	fetcher, catalog := watchFixture(t, prov)

	// Local data up to one hour ago.
	covered := model.NewTimeRange(time.Now().UTC().Add(-3*time.Hour), time.Now().UTC().Add(-time.Hour))
	rec := model.NewLocalRecord("obs", "/data/obs/obs_202001011000.dat", covered)
	require.NoError(t, catalog.Insert(model.NewGranule(rec)))

	s := New(fetcher, catalog, []string{"obs"}, time.Minute, 24*time.Hour, nil)
	s.RunOnce(context.Background())

	window := prov.windows.Load().(model.TimeRange)
	assert.WithinDuration(t, covered.End, window.Start, time.Second)
}

func TestRunOnceSkipsStaleCoverage(t *testing.T) {
	prov := &windowProvider{product: "obs"}
	fetcher, catalog := watchFixture(t, prov)

	// Coverage older than the lookback does not drag the window back.
	old := model.NewTimeRange(time.Now().UTC().Add(-80*time.Hour), time.Now().UTC().Add(-70*time.Hour))
	rec := model.NewLocalRecord("obs", "/data/obs/obs_202001011000.dat", old)
	require.NoError(t, catalog.Insert(model.NewGranule(rec)))

	s := New(fetcher, catalog, []string{"obs"}, time.Minute, 24*time.Hour, nil)
	before := time.Now().UTC()
	s.RunOnce(context.Background())

	window := prov.windows.Load().(model.TimeRange)
	assert.WithinDuration(t, before.Add(-24*time.Hour), window.Start, 5*time.Second)
}
