package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/geodex/geodex/internal/scheduler"
)

var watchCmd = &cobra.Command{
	Use:   "watch <product>...",
	Short: "Keep local archives synchronized with their remote sources",
	Long: `Watch fetches new files for the given products on a fixed interval,
resuming each product from the end of its local coverage. It runs
until interrupted; the catalog is saved after every cycle.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		for _, name := range args {
			if _, ok := e.Products.Get(name); !ok {
				return fmt.Errorf("unknown product %q", name)
			}
		}

		s := scheduler.New(e.Fetcher, e.Catalog, args,
			e.Cfg.Watch.Interval, e.Cfg.Watch.Lookback, e.Log)
		s.AfterRun(func(ctx context.Context) {
			if err := e.SaveCatalog(ctx); err != nil {
				e.Log.Error("catalog save failed", "error", err)
			}
		})
		if err := s.Start(); err != nil {
			return err
		}
		defer s.Stop()

		e.Log.Info("watching", "products", args, "interval", e.Cfg.Watch.Interval)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop

		e.Log.Info("shutting down")
		return e.SaveCatalog(cmd.Context())
	},
}
