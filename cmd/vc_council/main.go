// Package main provides the entry point for the VC Council HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "vc_council",
	Short: "VC Council investment analysis server",
	Long:  "VC Council runs a simulated investment committee: eight analyst personas debate a company over five rounds and produce an INVEST/MAYBE/PASS decision with scheduled follow-ups.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
