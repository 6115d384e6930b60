// Package types provides type definitions for structured data used throughout the career-navigator system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "slices"

// ProfileField names a single field of the Profile
type ProfileField string

// Profile fields
const (
	FieldResumeText      ProfileField = "resumeText"
	FieldCareerGoal      ProfileField = "careerGoal"
	FieldSkillGaps       ProfileField = "skillGaps"
	FieldRecommendedJobs ProfileField = "recommendedJobs"
	FieldCareerPlan      ProfileField = "careerPlan"
	FieldSkillCategories ProfileField = "skillCategories"
	FieldCareerPaths     ProfileField = "careerPaths"
)

// Profile is the user's career profile built up stage by stage.
// A nil pointer or nil slice means the field is unset. A non-nil empty slice is set.
type Profile struct {
	ResumeText      *string               `json:"resume_text"`
	CareerGoal      *string               `json:"career_goal"`
	SkillGaps       []string              `json:"skill_gaps"`
	RecommendedJobs []JobCandidate        `json:"recommended_jobs"`
	CareerPlan      *string               `json:"career_plan"`
	SkillCategories []SkillCategory       `json:"skill_categories"`
	CareerPaths     []CareerPathCandidate `json:"career_paths"`
}

// IsSet reports whether the given field holds a value
func (p Profile) IsSet(field ProfileField) bool {
	switch field {
	case FieldResumeText:
		return p.ResumeText != nil
	case FieldCareerGoal:
		return p.CareerGoal != nil
	case FieldSkillGaps:
		return p.SkillGaps != nil
	case FieldRecommendedJobs:
		return p.RecommendedJobs != nil
	case FieldCareerPlan:
		return p.CareerPlan != nil
	case FieldSkillCategories:
		return p.SkillCategories != nil
	case FieldCareerPaths:
		return p.CareerPaths != nil
	default:
		return false
	}
}

// Clone returns a deep copy of the profile. Unset fields stay unset.
func (p Profile) Clone() Profile {
	out := Profile{
		ResumeText: cloneString(p.ResumeText),
		CareerGoal: cloneString(p.CareerGoal),
		CareerPlan: cloneString(p.CareerPlan),
		SkillGaps:  slices.Clone(p.SkillGaps),
	}
	if p.RecommendedJobs != nil {
		out.RecommendedJobs = make([]JobCandidate, len(p.RecommendedJobs))
		for i, job := range p.RecommendedJobs {
			out.RecommendedJobs[i] = job.Clone()
		}
	}
	if p.SkillCategories != nil {
		out.SkillCategories = make([]SkillCategory, len(p.SkillCategories))
		for i, cat := range p.SkillCategories {
			out.SkillCategories[i] = cat.Clone()
		}
	}
	if p.CareerPaths != nil {
		out.CareerPaths = make([]CareerPathCandidate, len(p.CareerPaths))
		for i, path := range p.CareerPaths {
			out.CareerPaths[i] = path.Clone()
		}
	}
	return out
}

// Patch is a partial profile. Nil fields are not supplied.
type Patch struct {
	ResumeText      *string
	CareerGoal      *string
	SkillGaps       []string
	RecommendedJobs []JobCandidate
	CareerPlan      *string
	SkillCategories []SkillCategory
	CareerPaths     []CareerPathCandidate
}

// Fields returns the fields supplied by the patch, in declaration order
func (p Patch) Fields() []ProfileField {
	var fields []ProfileField
	if p.ResumeText != nil {
		fields = append(fields, FieldResumeText)
	}
	if p.CareerGoal != nil {
		fields = append(fields, FieldCareerGoal)
	}
	if p.SkillGaps != nil {
		fields = append(fields, FieldSkillGaps)
	}
	if p.RecommendedJobs != nil {
		fields = append(fields, FieldRecommendedJobs)
	}
	if p.CareerPlan != nil {
		fields = append(fields, FieldCareerPlan)
	}
	if p.SkillCategories != nil {
		fields = append(fields, FieldSkillCategories)
	}
	if p.CareerPaths != nil {
		fields = append(fields, FieldCareerPaths)
	}
	return fields
}

// Empty reports whether the patch supplies no fields
func (p Patch) Empty() bool {
	return len(p.Fields()) == 0
}

// StringPtr returns a pointer to s
func StringPtr(s string) *string {
	return &s
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
