package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// rootCmd is the base command for the svca CLI
var rootCmd = &cobra.Command{
	Use:   "svca",
	Short: "Shared variance component analysis",
	Long: `svca estimates how many dimensions of a recording's variance are shared
between two interleaved groups of features and reproduce on held-out observations.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
