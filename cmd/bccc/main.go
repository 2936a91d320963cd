// Command bccc is the bytecode-container compiler CLI.
//
// Usage:
//
//	bccc compile [flags] <input.bcir...>
//	bccc dump <container.bc>
//
// Examples:
//
//	bccc compile kernel.bcir             # Compile to kernel.bc
//	bccc compile -o out.bc a.bcir b.bcir # Two translation units
//	bccc dump out.bc                     # Inspect a container
package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const bcccVersion = "0.1.0-dev"

var rootCmd = &cobra.Command{
	Use:   "bccc",
	Short: "Bytecode container compiler",
	Long:  "bccc serializes lowered shader IR into the slang\\0bc bytecode container.",
}

func main() {
	rootCmd.Version = bcccVersion

	rootCmd.AddCommand(compileCmd)
	rootCmd.AddCommand(dumpCmd)

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Bool("quiet", false, "suppress non-essential output")

	cobra.OnInitialize(applyColorMode)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func applyColorMode() {
	switch mode, _ := rootCmd.PersistentFlags().GetString("color"); mode {
	case "on":
		color.NoColor = false
	case "off":
		color.NoColor = true
	}
}

func quiet(cmd *cobra.Command) bool {
	q, _ := cmd.Flags().GetBool("quiet")
	return q
}
