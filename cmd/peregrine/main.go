package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"peregrine/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "peregrine",
	Short: "Peregrine assembly metadata toolchain",
	Long:  `Peregrine inspects compiled assembly metadata and resolves type forwarding`,
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(forwardsCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")
	rootCmd.PersistentFlags().Int("max-diagnostics", 100, "maximum number of diagnostics to show")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
