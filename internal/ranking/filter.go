package ranking

import (
	"strings"

	"github.com/jonathan/career-navigator/internal/types"
)

// Predicate selects candidates to keep
type Predicate[T any] func(T) bool

// Filter returns a new slice holding the items that pass every predicate
func Filter[T any](items []T, preds ...Predicate[T]) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item, preds) {
			out = append(out, item)
		}
	}
	return out
}

func keep[T any](item T, preds []Predicate[T]) bool {
	for _, pred := range preds {
		if !pred(item) {
			return false
		}
	}
	return true
}

// Scorer exposes a candidate's score to generic predicates
type Scorer interface {
	types.JobCandidate | types.CareerPathCandidate | Scored
}

// MinScore keeps candidates scoring at least threshold
func MinScore[T Scorer](threshold int) Predicate[T] {
	return func(item T) bool {
		return scoreOf(item) >= threshold
	}
}

// TitleContains keeps candidates whose title contains substr, ignoring case
func TitleContains[T Scorer](substr string) Predicate[T] {
	needle := strings.ToLower(substr)
	return func(item T) bool {
		return strings.Contains(strings.ToLower(titleOf(item)), needle)
	}
}

// JobSearch keeps jobs whose title or company contains the query, ignoring case.
// An empty query keeps everything.
func JobSearch(query string) Predicate[types.JobCandidate] {
	needle := strings.ToLower(strings.TrimSpace(query))
	return func(job types.JobCandidate) bool {
		if needle == "" {
			return true
		}
		return strings.Contains(strings.ToLower(job.Title), needle) ||
			strings.Contains(strings.ToLower(job.Company), needle)
	}
}

// EntryLevel keeps jobs whose title marks them as junior or entry level
func EntryLevel() Predicate[types.JobCandidate] {
	return func(job types.JobCandidate) bool {
		title := strings.ToLower(job.Title)
		return strings.Contains(title, "junior") || strings.Contains(title, "entry")
	}
}

func scoreOf[T Scorer](item T) int {
	switch v := any(item).(type) {
	case types.JobCandidate:
		return v.Score
	case types.CareerPathCandidate:
		return v.Score
	case Scored:
		return v.Score
	}
	return 0
}

func titleOf[T Scorer](item T) string {
	switch v := any(item).(type) {
	case types.JobCandidate:
		return v.Title
	case types.CareerPathCandidate:
		return v.Title
	case Scored:
		return v.Title
	}
	return ""
}
