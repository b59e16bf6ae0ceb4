package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geodex/geodex/internal/core"
	"github.com/geodex/geodex/internal/model"
)

var searchCmd = &cobra.Command{
	Use:   "search <product> <start> <end>",
	Short: "List remote files covering a time range without downloading",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		tr, err := model.ParseTimeRange(args[1], args[2])
		if err != nil {
			return err
		}

		records, err := e.Resolver.FindFiles(cmd.Context(), args[0], tr)
		e.Metrics.SearchesTotal.WithLabelValues(args[0], outcome(err)).Inc()
		if errors.Is(err, core.ErrNoData) {
			fmt.Println("No files found in the requested time range.")
			return nil
		}
		if err != nil {
			return err
		}

		for _, rec := range records {
			fmt.Printf("%s  %s\n", rec.Coverage, rec.Filename)
		}
		fmt.Printf("%d file(s)\n", len(records))
		return nil
	},
}

var fetchCmd = &cobra.Command{
	Use:   "fetch <product> <start> <end>",
	Short: "Download and index all files covering a time range",
	Long: `Fetch downloads every file of a product whose coverage overlaps the
given time range. Files already present in the catalog are skipped,
so fetch can be re-run safely to fill gaps after partial failures.`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		tr, err := model.ParseTimeRange(args[1], args[2])
		if err != nil {
			return err
		}

		records, fetchErr := e.Fetcher.Fetch(cmd.Context(), args[0], tr)
		if errors.Is(fetchErr, core.ErrNoData) {
			fmt.Println("No files available in the requested time range.")
			return nil
		}

		// Persist whatever arrived even when some downloads failed.
		if len(records) > 0 {
			if err := e.SaveCatalog(cmd.Context()); err != nil {
				return errors.Join(fetchErr, err)
			}
		}
		if fetchErr != nil {
			return fetchErr
		}

		for _, rec := range records {
			fmt.Printf("%s  %s\n", rec.Coverage, rec.LocalPath)
		}
		fmt.Printf("%d file(s) materialized\n", len(records))
		return nil
	},
}

func outcome(err error) string {
	if err != nil && !errors.Is(err, core.ErrNoData) {
		return "error"
	}
	return "ok"
}
