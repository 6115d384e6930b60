package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-navigator/internal/schemas"
)

var validateCmd = &cobra.Command{
	Use:   "validate <profile.json>",
	Short: "Validate a profile JSON file against the profile schema",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := schemas.ValidateProfileFile(args[0]); err != nil {
			return err
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is a valid profile\n", args[0])
		return err
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
