package matching

import (
	"fmt"
	"strings"
)

// Explain writes a one-line summary of a match for CLI and API output
func Explain(candidate, gaps []string) string {
	cov := CoverageOf(candidate, gaps)
	score := Score(candidate, gaps)

	var parts []string
	switch Band(score) {
	case BandHigh:
		parts = append(parts, fmt.Sprintf("Strong match (%d%%)", score))
	case BandMedium:
		parts = append(parts, fmt.Sprintf("Moderate match (%d%%)", score))
	default:
		parts = append(parts, fmt.Sprintf("Weak match (%d%%)", score))
	}

	if cov.Total > 0 {
		parts = append(parts, fmt.Sprintf("%d/%d skills", cov.Matched, cov.Total))
	}
	if len(cov.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("Missing: %s", strings.Join(cov.Missing, ", ")))
	}

	return strings.Join(parts, ". ")
}
