// Package cli implements the geodex command-line interface.
package cli

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
	dataDir string
)

// rootCmd is the base command for geodex.
var rootCmd = &cobra.Command{
	Use:   "geodex",
	Short: "Locate, retrieve, and index geophysical data files",
	Long: `geodex finds satellite swaths and reanalysis grids in remote
archives, downloads the files covering a time range, and keeps an
encrypted local catalog of everything it has materialized.

Products identify datasets; providers know how to reach the archives
serving them. The catalog maps time to local files, so repeated
requests never touch the network twice for the same content.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "Override the data directory")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(searchCmd)
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(coverageCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(matchCmd)
	rootCmd.AddCommand(productsCmd)
	rootCmd.AddCommand(providersCmd)
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(watchCmd)
}
