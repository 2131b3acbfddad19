package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"peregrine/internal/diagfmt"
	"peregrine/internal/driver"
	"peregrine/internal/loader"
)

// useColor decides whether to colorize output from the --color flag and the
// terminal state of stdout.
func useColor(cmd *cobra.Command) bool {
	mode, _ := cmd.Flags().GetString("color")
	switch mode {
	case "on":
		return true
	case "off":
		return false
	default:
		return isTerminal(os.Stdout)
	}
}

func maxDiagnostics(cmd *cobra.Command) int {
	n, _ := cmd.Flags().GetInt("max-diagnostics")
	if n <= 0 {
		n = 100
	}
	return n
}

// loadGraph loads every manifest under dir and prints per-file diagnostics.
// Hard errors (unreadable directory, cancellation) come back as error.
func loadGraph(cmd *cobra.Command, dir string, opts driver.Options) (*loader.Graph, error) {
	graph, results, err := driver.LoadDir(cmd.Context(), dir, opts)
	if err != nil {
		return nil, err
	}
	colored := useColor(cmd)
	quiet, _ := cmd.Flags().GetBool("quiet")
	failed := false
	for _, res := range results {
		if res.Bag.HasErrors() {
			failed = true
		}
		if !quiet || res.Bag.HasErrors() {
			diagfmt.RenderBag(cmd.OutOrStdout(), res.Bag, colored)
		}
	}
	if graph.Len() == 0 {
		if failed {
			return nil, fmt.Errorf("no assemblies loaded from %s", dir)
		}
		return nil, fmt.Errorf("no assembly manifests found in %s", dir)
	}
	return graph, nil
}
