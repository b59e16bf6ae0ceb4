package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var scanCmd = &cobra.Command{
	Use:   "scan [product]",
	Short: "Index already-downloaded files from the data directory",
	Long: `Scan walks the data directory and indexes every file matching a known
product, without touching the network. With no argument all products
are scanned. Use it to adopt files downloaded by other means or to
rebuild a lost catalog.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		var total int
		if len(args) == 1 {
			p, ok := e.Products.Get(args[0])
			if !ok {
				return fmt.Errorf("unknown product %q", args[0])
			}
			result, err := e.Scanner.Scan(cmd.Context(), p, e.Cfg.DataDir)
			if err != nil {
				return err
			}
			total = result.Indexed
		} else {
			result, err := e.Scanner.ScanAll(cmd.Context(), e.Products, e.Cfg.DataDir)
			if err != nil {
				return err
			}
			total = result.Indexed
		}

		if err := e.SaveCatalog(cmd.Context()); err != nil {
			return err
		}
		fmt.Printf("%d file(s) indexed\n", total)
		return nil
	},
}
