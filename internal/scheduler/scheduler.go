// Package scheduler implements watch mode: periodic incremental
// fetches that keep local product archives synchronized with their
// remote sources.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/geodex/geodex/internal/core"
	"github.com/geodex/geodex/internal/model"
)

// Scheduler periodically fetches new files for a set of products.
type Scheduler struct {
	scheduler *gocron.Scheduler
	fetcher   *core.Fetcher
	catalog   *core.Catalog
	products  []string
	interval  time.Duration
	lookback  time.Duration
	log       *slog.Logger
	afterRun  func(context.Context)
}

// New creates a scheduler fetching the given products every interval.
// lookback bounds the first window for products with no local data.
func New(fetcher *core.Fetcher, catalog *core.Catalog, products []string,
	interval, lookback time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		fetcher:   fetcher,
		catalog:   catalog,
		products:  products,
		interval:  interval,
		lookback:  lookback,
		log:       log,
	}
}

// AfterRun registers a hook invoked after every fetch cycle, typically
// to persist the catalog. Must be called before Start.
func (s *Scheduler) AfterRun(fn func(context.Context)) {
	s.afterRun = fn
}

// Start schedules the periodic job and starts the underlying
// scheduler. The first run fires immediately.
func (s *Scheduler) Start() error {
	if len(s.products) == 0 {
		s.log.Info("no products configured for watching")
		return nil
	}

	_, err := s.scheduler.Every(s.interval).StartImmediately().Do(func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.interval)
		defer cancel()
		s.RunOnce(ctx)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	return nil
}

// RunOnce fetches each watched product once. For every product the
// window runs from the end of its local coverage to now; a product
// with no local data starts from now minus the lookback.
func (s *Scheduler) RunOnce(ctx context.Context) {
	now := time.Now().UTC()
	for _, product := range s.products {
		window := model.NewTimeRange(s.resumePoint(product, now), now)
		if window.Duration() <= 0 {
			continue
		}

		records, err := s.fetcher.Fetch(ctx, product, window)
		switch {
		case errors.Is(err, core.ErrNoData):
			s.log.Debug("nothing new", "product", product, "window", window.String())
		case err != nil:
			s.log.Error("watch fetch failed", "product", product, "error", err)
		default:
			s.log.Info("watch fetch complete", "product", product, "files", len(records))
		}
	}
	if s.afterRun != nil {
		s.afterRun(ctx)
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Scheduler) resumePoint(product string, now time.Time) time.Time {
	floor := now.Add(-s.lookback)
	ix, ok := s.catalog.Get(product)
	if !ok {
		return floor
	}
	covered := ix.CoveredRanges()
	if len(covered) == 0 {
		return floor
	}
	last := covered[len(covered)-1].End
	if last.Before(floor) {
		return floor
	}
	return last
}
