// Package main provides the career_agent CLI: run the career pipeline locally or serve it over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/jonathan/career-navigator/internal/logging"
)

const appName = "career_agent"

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "Career navigator",
	Long:  "Career navigator analyzes a resume for skill gaps, ranks career paths and matching jobs, and writes a career plan.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logging.Init(appName, logging.RuntimeProfile().FromEnv())
	},
	SilenceUsage: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
