// Package ranking orders scored career paths and jobs and filters them for display.
package ranking

import (
	"cmp"
	"slices"

	"github.com/jonathan/career-navigator/internal/types"
)

// Scored is an identified candidate with a precomputed score
type Scored struct {
	ID    string
	Title string
	Score int
}

// RankBy filters items by every predicate and returns them sorted by score,
// highest first. Equal scores keep their input order. The input is not modified.
func RankBy[T any](items []T, score func(T) int, preds ...Predicate[T]) []T {
	ranked := Filter(items, preds...)
	slices.SortStableFunc(ranked, func(a, b T) int {
		return cmp.Compare(score(b), score(a))
	})
	return ranked
}

// Rank returns the ids of the candidates that pass every predicate, by score
// descending with ties in input order
func Rank(cands []Scored, preds ...Predicate[Scored]) []string {
	ranked := RankBy(cands, func(c Scored) int { return c.Score }, preds...)
	ids := make([]string, len(ranked))
	for i, c := range ranked {
		ids[i] = c.ID
	}
	return ids
}

// RankJobs orders jobs by score
func RankJobs(jobs []types.JobCandidate, preds ...Predicate[types.JobCandidate]) []types.JobCandidate {
	return RankBy(jobs, func(j types.JobCandidate) int { return j.Score }, preds...)
}

// RankPaths orders career paths by score
func RankPaths(paths []types.CareerPathCandidate, preds ...Predicate[types.CareerPathCandidate]) []types.CareerPathCandidate {
	return RankBy(paths, func(p types.CareerPathCandidate) int { return p.Score }, preds...)
}
