package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"peregrine/internal/diagfmt"
	"peregrine/internal/driver"
	"peregrine/internal/symbols"
)

func init() {
	inspectCmd.Flags().Int("jobs", 0, "number of parallel workers (0 = all CPUs)")
	inspectCmd.Flags().Bool("attributes", false, "list custom attributes")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <manifest-dir> [assembly...]",
	Short: "Show identity and derived facts for loaded assemblies",
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
		showAttrs, _ := cmd.Flags().GetBool("attributes")
		colored := useColor(cmd)
		for _, asm := range selected {
			fmt.Fprintf(out, "%s\n", asm.Identity())
			fmt.Fprintf(out, "  linked:            %v\n", asm.IsLinked())
			fmt.Fprintf(out, "  modules:           %d", len(asm.Modules()))
			for _, mod := range asm.Modules() {
				fmt.Fprintf(out, " %s", mod.Name())
			}
			fmt.Fprintln(out)
			fmt.Fprintf(out, "  extension methods: %v\n", asm.MightContainExtensionMethods())
			if guid, ok := asm.GuidAttribute(); ok {
				fmt.Fprintf(out, "  guid:              %s\n", guid)
			}
			fmt.Fprintf(out, "  forwarded types:   %d\n", len(asm.TopLevelForwardedTypes()))
			if showAttrs {
				for _, attr := range asm.Attributes() {
					fmt.Fprintf(out, "  attribute:         %s\n", attr.FullName())
				}
			}
			if d := asm.CompilerFeatureRequiredDiagnostic(); d != nil {
				diagfmt.RenderDiagnostic(out, *d, colored)
			}
		}
		return nil
	},
}
