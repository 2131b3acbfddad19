package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"peregrine/internal/diagfmt"
	"peregrine/internal/driver"
	"peregrine/internal/loader"
	"peregrine/internal/observ"
	"peregrine/internal/ui"
)

func init() {
	resolveCmd.Flags().Int("jobs", 0, "number of parallel workers (0 = all CPUs)")
	resolveCmd.Flags().Bool("ignore-case", false, "match type names case-insensitively")
	resolveCmd.Flags().Bool("ui", false, "show interactive progress (TTY only)")
	resolveCmd.Flags().Bool("timings", false, "show phase timings")
	resolveCmd.Flags().String("cache-dir", "", "manifest disk cache directory (empty = no cache)")
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <manifest-dir> <Assembly::Type>...",
	Short: "Resolve top-level type names through forwarding chains",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, _ := cmd.Flags().GetInt("jobs")
		ignoreCase, _ := cmd.Flags().GetBool("ignore-case")
		showTimings, _ := cmd.Flags().GetBool("timings")
		cacheDir, _ := cmd.Flags().GetString("cache-dir")
		withUI, _ := cmd.Flags().GetBool("ui")

		queries := make([]driver.Query, 0, len(args)-1)
		for _, raw := range args[1:] {
			q, err := driver.ParseQuery(raw, ignoreCase)
			if err != nil {
				return err
			}
			queries = append(queries, q)
		}

		timer := observ.NewTimer()
		opts := driver.Options{
			Jobs:           jobs,
			MaxDiagnostics: maxDiagnostics(cmd),
			Timer:          timer,
		}
		if cacheDir != "" {
			cache, err := driver.OpenDiskCacheAt(cacheDir)
			if err != nil {
				return fmt.Errorf("open cache: %w", err)
			}
			opts.Cache = cache
		}

		graph, err := loadGraph(cmd, args[0], opts)
		if err != nil {
			return err
		}

		var results []driver.ResolveResult
		if withUI && isTerminal(os.Stdout) {
			results, err = resolveWithUI(cmd, graph, queries, opts)
		} else {
			results, err = driver.ResolveAll(cmd.Context(), graph, queries, opts)
		}
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		colored := useColor(cmd)
		failed := false
		for _, res := range results {
			fmt.Fprintln(out, res.Summary())
			if res.Bag.HasErrors() {
				failed = true
			}
			diagfmt.RenderBag(out, res.Bag, colored)
		}
		if showTimings {
			fmt.Fprint(out, timer.Summary())
		}
		if failed {
			return fmt.Errorf("resolution finished with errors")
		}
		return nil
	},
}

// resolveWithUI runs the batch under a Bubble Tea progress view. Driver
// events pump through a channel the model drains; the channel closes when
// the batch finishes, which quits the program.
func resolveWithUI(cmd *cobra.Command, graph *loader.Graph, queries []driver.Query, opts driver.Options) ([]driver.ResolveResult, error) {
	// Buffer for every event the batch can emit, so the driver never blocks
	// if the view quits early.
	events := make(chan driver.Event, 2*len(queries)+1)
	opts.Events = func(ev driver.Event) { events <- ev }

	names := make([]string, len(queries))
	for i, q := range queries {
		names[i] = q.String()
	}
	model := ui.NewProgressModel("resolving types", names, events)
	prog := tea.NewProgram(model, tea.WithOutput(os.Stderr))

	var (
		results []driver.ResolveResult
		runErr  error
	)
	go func() {
		results, runErr = driver.ResolveAll(cmd.Context(), graph, queries, opts)
		close(events)
	}()
	if _, err := prog.Run(); err != nil {
		return nil, err
	}
	if runErr != nil {
		return nil, runErr
	}
	return results, nil
}
