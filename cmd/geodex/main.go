// Package main provides the geodex CLI entry point.
// geodex locates, retrieves, and indexes geophysical data files from
// heterogeneous remote archives.
package main

import (
	"fmt"
	"os"

	"github.com/geodex/geodex/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
