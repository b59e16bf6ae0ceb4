package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/geodex/geodex/internal/core"
	"github.com/geodex/geodex/internal/model"
)

var (
	matchMaxDiff time.Duration
	matchMerged  bool
	matchRegion  string
)

var matchCmd = &cobra.Command{
	Use:   "match <product-a> <product-b> <start> <end>",
	Short: "Find collocated granule pairs of two products",
	Long: `Match pairs every local granule of product A in the window with the
granule of product B closest to it in time, within --max-time-diff.
With --merged, runs of pairs spanning consecutive sub-file granules
are coalesced into one extended pair. With --region, only granules
whose footprint intersects the box are considered.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		tr, err := model.ParseTimeRange(args[2], args[3])
		if err != nil {
			return err
		}
		var region model.LatLonBox
		if matchRegion != "" {
			if region, err = model.ParseLatLonBox(matchRegion); err != nil {
				return err
			}
		}

		var pairs []core.MatchPair
		if matchMerged {
			pairs = e.Catalog.MatchMerged(args[0], args[1], tr, region, matchMaxDiff)
		} else {
			pairs = e.Catalog.Match(args[0], args[1], tr, region, matchMaxDiff)
		}

		if len(pairs) == 0 {
			fmt.Println("No matches.")
			return nil
		}
		for _, pair := range pairs {
			fmt.Printf("%s %s  <->  %s %s\n",
				pair.Left.Coverage, pair.Left.Record.Filename,
				pair.Right.Coverage, pair.Right.Record.Filename)
		}
		fmt.Printf("%d pair(s)\n", len(pairs))
		return nil
	},
}

func init() {
	matchCmd.Flags().DurationVar(&matchMaxDiff, "max-time-diff", 15*time.Minute,
		"Largest allowed time separation between paired granules")
	matchCmd.Flags().BoolVar(&matchMerged, "merged", false,
		"Coalesce pairs spanning consecutive sub-file granules")
	matchCmd.Flags().StringVar(&matchRegion, "region", "",
		"Restrict matching to a latmin,lonmin,latmax,lonmax box")
}
