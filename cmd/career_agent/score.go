package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-navigator/internal/matching"
)

var (
	scoreSkills []string
	scoreGaps   []string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score a list of required skills against your skill gaps",
	Long: `Computes the match score used for career paths and jobs: the share of
required skills that are not among your gaps, from 0 to 100.`,
	Example: `  career_agent score --skills React,GraphQL,Node.js --gaps GraphQL,Docker`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if len(scoreSkills) == 0 {
			return fmt.Errorf("--skills must list at least one skill")
		}
		return printScore(cmd.OutOrStdout(), scoreSkills, scoreGaps)
	},
}

func init() {
	scoreCmd.Flags().StringSliceVarP(&scoreSkills, "skills", "s", nil, "Required skills, comma separated")
	scoreCmd.Flags().StringSliceVarP(&scoreGaps, "gaps", "g", nil, "Your skill gaps, comma separated")
	rootCmd.AddCommand(scoreCmd)
}

func printScore(out io.Writer, skills, gaps []string) error {
	score := matching.Score(skills, gaps)
	coverage := matching.CoverageOf(skills, gaps)
	missing := matching.MissingSkills(skills, gaps)

	lines := []string{
		fmt.Sprintf("Score:    %d%% (%s)", score, matching.Band(score)),
		fmt.Sprintf("Coverage: %d/%d skills", coverage.Matched, coverage.Total),
	}
	if len(missing) > 0 {
		lines = append(lines, "Missing:  "+strings.Join(missing, ", "))
	}
	lines = append(lines, matching.Explain(skills, gaps))

	_, err := fmt.Fprintln(out, strings.Join(lines, "\n"))
	return err
}
