// Package stages defines the career-planning stages, the profile field each one
// requires, and which stages a profile can currently reach.
package stages

import (
	"github.com/jonathan/career-navigator/internal/types"
)

// StageID identifies a pipeline stage
type StageID string

// Stages in pipeline order
const (
	Upload StageID = "upload"
	Skills StageID = "skills"
	Paths  StageID = "paths"
	Jobs   StageID = "jobs"
	Plan   StageID = "plan"
)

// Order lists every stage in pipeline order
var Order = []StageID{Upload, Skills, Paths, Jobs, Plan}

// Definition defines metadata for a stage
type Definition struct {
	ID    StageID
	Label string
	// Requires is the field that must be set to enter the stage. Empty means always reachable.
	Requires types.ProfileField
	Produces []types.ProfileField
	Next     StageID
}

// Registry holds all stage definitions
var Registry = map[StageID]Definition{
	Upload: {
		ID:       Upload,
		Label:    "Upload Resume",
		Produces: []types.ProfileField{types.FieldResumeText},
		Next:     Skills,
	},
	Skills: {
		ID:       Skills,
		Label:    "Skill Gap Analysis",
		Requires: types.FieldResumeText,
		Produces: []types.ProfileField{types.FieldSkillGaps, types.FieldSkillCategories},
		Next:     Paths,
	},
	Paths: {
		ID:       Paths,
		Label:    "Career Paths",
		Requires: types.FieldSkillGaps,
		Produces: []types.ProfileField{types.FieldCareerPaths, types.FieldCareerGoal},
		Next:     Jobs,
	},
	Jobs: {
		ID:       Jobs,
		Label:    "Job Matches",
		Requires: types.FieldCareerGoal,
		Produces: []types.ProfileField{types.FieldRecommendedJobs},
		Next:     Plan,
	},
	Plan: {
		ID:       Plan,
		Label:    "Career Plan",
		Requires: types.FieldRecommendedJobs,
		Produces: []types.ProfileField{types.FieldCareerPlan},
	},
}

// Parse converts a raw stage name into a StageID
func Parse(name string) (StageID, error) {
	id := StageID(name)
	if _, ok := Registry[id]; !ok {
		return "", &UnknownStageError{Stage: name}
	}
	return id, nil
}

// Check returns nil if the stage may run against the profile, or a
// StageLockedError naming the missing field
func Check(p types.Profile, stage StageID) error {
	def, ok := Registry[stage]
	if !ok {
		return &UnknownStageError{Stage: string(stage)}
	}
	if def.Requires != "" && !p.IsSet(def.Requires) {
		return &StageLockedError{Stage: stage, MissingField: def.Requires}
	}
	return nil
}

// Reachable returns the stages whose required field is set, in pipeline order.
// Upload is always included.
func Reachable(p types.Profile) []StageID {
	reachable := make([]StageID, 0, len(Order))
	for _, id := range Order {
		if Check(p, id) == nil {
			reachable = append(reachable, id)
		}
	}
	return reachable
}

// Furthest returns the last reachable stage in pipeline order
func Furthest(p types.Profile) StageID {
	reachable := Reachable(p)
	return reachable[len(reachable)-1]
}
