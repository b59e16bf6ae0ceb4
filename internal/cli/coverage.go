package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/geodex/geodex/internal/model"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage <product>",
	Short: "Show the time ranges covered by local data",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		ix, ok := e.Catalog.Get(args[0])
		if !ok || ix.Len() == 0 {
			fmt.Println("No local data.")
			return nil
		}

		for _, tr := range ix.CoveredRanges() {
			fmt.Printf("%s  (%s)\n", tr, tr.Duration())
		}
		fmt.Printf("%d granule(s) indexed\n", ix.Len())
		return nil
	},
}

var gapsCmd = &cobra.Command{
	Use:   "gaps <product> <start> <end>",
	Short: "Show the sub-ranges of a window with no local data",
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

		ix, ok := e.Catalog.Get(args[0])
		if !ok {
			fmt.Printf("%s  (%s)\n", tr, tr.Duration())
			return nil
		}

		gaps := ix.Gaps(tr)
		if len(gaps) == 0 {
			fmt.Println("Fully covered.")
			return nil
		}
		for _, gap := range gaps {
			fmt.Printf("%s  (%s)\n", gap, gap.Duration())
		}
		return nil
	},
}
