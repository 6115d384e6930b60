// Package types provides type definitions for structured data used throughout the career-navigator system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import "slices"

// SkillStatus is the assessed state of a single skill
type SkillStatus string

// Skill statuses
const (
	SkillStrong  SkillStatus = "strong"
	SkillWeak    SkillStatus = "weak"
	SkillMissing SkillStatus = "missing"
)

// SkillRecord is one assessed skill. Level is only present for strong and weak skills.
type SkillRecord struct {
	Name   string      `json:"name" validate:"required"`
	Status SkillStatus `json:"status" validate:"required,oneof=strong weak missing"`
	Level  *int        `json:"level,omitempty" validate:"omitempty,min=0,max=100"`
}

// SkillCategory groups skill records under a heading
type SkillCategory struct {
	Name    string        `json:"name" validate:"required"`
	Records []SkillRecord `json:"records" validate:"dive"`
}

// Clone returns a deep copy of the category
func (c SkillCategory) Clone() SkillCategory {
	out := SkillCategory{Name: c.Name}
	if c.Records != nil {
		out.Records = make([]SkillRecord, len(c.Records))
		for i, r := range c.Records {
			out.Records[i] = r
			if r.Level != nil {
				out.Records[i].Level = IntPtr(*r.Level)
			}
		}
	}
	return out
}

// SkillAnalysis is the output of the skill analysis stage
type SkillAnalysis struct {
	Gaps       []string        `json:"gaps" validate:"dive,required"`
	Categories []SkillCategory `json:"categories" validate:"dive"`
}

// StepKind classifies a career path step
type StepKind string

// Step kinds
const (
	StepJob       StepKind = "job"
	StepSkill     StepKind = "skill"
	StepEducation StepKind = "education"
)

// PathStep is a milestone on a career path
type PathStep struct {
	Title       string   `json:"title" validate:"required"`
	Kind        StepKind `json:"type" validate:"required,oneof=job skill education"`
	Description string   `json:"description"`
	Timeframe   string   `json:"timeframe"`
}

// CareerPathCandidate is a proposed career path. Score and MissingSkills are
// computed from RequiredSkills against the user's gaps.
type CareerPathCandidate struct {
	Title          string     `json:"title" validate:"required"`
	Timeline       string     `json:"timeline"`
	Description    string     `json:"description"`
	Steps          []PathStep `json:"steps" validate:"dive"`
	RequiredSkills []string   `json:"required_skills"`
	MissingSkills  []string   `json:"missing_skills,omitempty"`
	Score          int        `json:"score" validate:"min=0,max=100"`
}

// Clone returns a deep copy of the path
func (c CareerPathCandidate) Clone() CareerPathCandidate {
	out := c
	out.Steps = slices.Clone(c.Steps)
	out.RequiredSkills = slices.Clone(c.RequiredSkills)
	out.MissingSkills = slices.Clone(c.MissingSkills)
	return out
}

// JobCandidate is a job posting matched against the user's gaps
type JobCandidate struct {
	ID             string   `json:"id" validate:"required"`
	Title          string   `json:"title" validate:"required"`
	Company        string   `json:"company"`
	Location       string   `json:"location"`
	Salary         string   `json:"salary"`
	RequiredSkills []string `json:"required_skills"`
	MissingSkills  []string `json:"missing_skills,omitempty"`
	Description    string   `json:"description"`
	Score          int      `json:"score" validate:"min=0,max=100"`
}

// Clone returns a deep copy of the job
func (j JobCandidate) Clone() JobCandidate {
	out := j
	out.RequiredSkills = slices.Clone(j.RequiredSkills)
	out.MissingSkills = slices.Clone(j.MissingSkills)
	return out
}

// ResumeBlob is an uploaded resume file
type ResumeBlob struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data"`
}
