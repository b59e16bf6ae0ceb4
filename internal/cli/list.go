package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var productsCmd = &cobra.Command{
	Use:   "products",
	Short: "List the known products",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		for _, p := range e.Products.All() {
			granules := 0
			if ix, ok := e.Catalog.Get(p.Name()); ok {
				granules = ix.Len()
			}
			fmt.Printf("%-28s level=%-4s version=%-6s %d granule(s) local\n",
				p.Name(), p.Level(), p.Version(), granules)
		}
		return nil
	},
}

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List the configured providers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := GetEngine()
		if err != nil {
			return err
		}
		defer e.Close()

		all := e.Providers.All()
		if len(all) == 0 {
			fmt.Println("No providers configured.")
			return nil
		}
		for _, prov := range all {
			fmt.Printf("%-16s serves: %s\n", prov.Name(), strings.Join(prov.Provides(), ", "))
		}
		return nil
	},
}
