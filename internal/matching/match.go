// Package matching scores career paths and jobs by how few of their required
// skills fall inside the user's skill gaps.
package matching

import "math"

// MatchBand buckets a score for presentation
type MatchBand string

// Match bands
const (
	BandHigh   MatchBand = "high"
	BandMedium MatchBand = "medium"
	BandLow    MatchBand = "low"
)

// Band thresholds
const (
	HighMatchThreshold   = 80
	MediumMatchThreshold = 60
)

// Coverage is the "matched of total" view of a requirement set
type Coverage struct {
	Matched int      `json:"matched"`
	Missing []string `json:"missing"`
	Total   int      `json:"total"`
}

// Score returns the percentage of candidate skills not in gaps, rounded to the
// nearest integer. Both inputs are treated as sets of normalized skill names.
// An empty requirement set scores 100.
func Score(candidate, gaps []string) int {
	required := distinct(candidate)
	if len(required) == 0 {
		return 100
	}

	gapSet := keySet(gaps)
	covered := 0
	for _, skill := range required {
		if !gapSet[skillKey(skill)] {
			covered++
		}
	}

	score := int(math.Round(100 * float64(covered) / float64(len(required))))
	return clamp(score, 0, 100)
}

// MissingSkills returns the candidate skills that are also gaps, in candidate
// order and spelling, without duplicates
func MissingSkills(candidate, gaps []string) []string {
	gapSet := keySet(gaps)
	missing := make([]string, 0)
	for _, skill := range distinct(candidate) {
		if gapSet[skillKey(skill)] {
			missing = append(missing, skill)
		}
	}
	return missing
}

// CoverageOf reports how many distinct candidate skills the user already has
func CoverageOf(candidate, gaps []string) Coverage {
	required := distinct(candidate)
	missing := MissingSkills(required, gaps)
	return Coverage{
		Matched: len(required) - len(missing),
		Missing: missing,
		Total:   len(required),
	}
}

// Band classifies a score
func Band(score int) MatchBand {
	switch {
	case score >= HighMatchThreshold:
		return BandHigh
	case score >= MediumMatchThreshold:
		return BandMedium
	default:
		return BandLow
	}
}

// distinct drops empty names and later duplicates by comparison key
func distinct(skills []string) []string {
	seen := make(map[string]bool, len(skills))
	out := make([]string, 0, len(skills))
	for _, skill := range skills {
		key := skillKey(skill)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill)
	}
	return out
}

func keySet(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, skill := range skills {
		if key := skillKey(skill); key != "" {
			set[key] = true
		}
	}
	return set
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
