package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:   "specloom",
	Short: "⬡ specloom · interview-driven document synthesis",
	Long: "⬡ specloom turns a rough seed (a draft document or a one-line description)\n" +
		"into a complete, sectioned specification by asking batched clarifying questions.",
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.AddCommand(interviewCmd)
	rootCmd.AddCommand(templatesCmd)
}
