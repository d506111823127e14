package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "edfgen",
	Short: "Generate global-EDF multiprocessor schedulability datasets",
	Long: `edfgen generates random task tables and processor platforms, then
decides schedulability of every sampled subset using recursive
subset-decomposition search backed by a discrete-event global-EDF
simulator. Results stream to CSV as they are decided.`,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(versionCmd)
}
