package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"peregrine/internal/driver"
	"peregrine/internal/symbols"
)

func init() {
	forwardsCmd.Flags().Int("jobs", 0, "number of parallel workers (0 = all CPUs)")
	forwardsCmd.Flags().Bool("resolve", false, "resolve each forward to its final assembly")
}

var forwardsCmd = &cobra.Command{
	Use:   "forwards <manifest-dir> [assembly...]",
	Short: "List declared type forwards",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		jobs, _ := cmd.Flags().GetInt("jobs")
		graph, err := loadGraph(cmd, args[0], driver.Options{
			Jobs:           jobs,
			MaxDiagnostics: maxDiagnostics(cmd),
		})
		if err != nil {
			return err
		}

		var selected []*symbols.AssemblySymbol
		if len(args) > 1 {
			for _, name := range args[1:] {
				asm, ok := graph.Lookup(name)
				if !ok {
					return fmt.Errorf("assembly %q is not in the loaded set", name)
				}
				selected = append(selected, asm)
			}
		} else {
			selected = graph.Assemblies()
		}

		out := cmd.OutOrStdout()
		doResolve, _ := cmd.Flags().GetBool("resolve")
		for _, asm := range selected {
			names := asm.TopLevelForwardedTypes()
			if len(names) == 0 {
				continue
			}
			fmt.Fprintf(out, "%s\n", asm.Identity())
			for _, name := range names {
				if !doResolve {
					fmt.Fprintf(out, "  %s\n", name)
					continue
				}
				result := asm.LookupTopLevelType(name, false)
				switch result.Kind {
				case symbols.TypeNamed:
					fmt.Fprintf(out, "  %s -> %s\n", name, result.Assembly.Identity().Name)
				case symbols.TypeError:
					fmt.Fprintf(out, "  %s -> error: %s\n", name, result.Err.Diagnostic().Message)
				default:
					fmt.Fprintf(out, "  %s -> unresolved\n", name)
				}
			}
		}
		return nil
	},
}
