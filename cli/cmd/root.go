package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trialflow",
	Short: "trialflow - behavioral experiment flow engine",
	Long: `trialflow interprets declarative experiment flows: routines, nested
loops with runtime-computed repetition counts, and per-frame parameter
expressions.`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serveCmd)
}
