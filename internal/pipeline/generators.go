package pipeline

import (
	"context"

	"github.com/jonathan/career-navigator/internal/types"
)

// ResumeExtractor turns an uploaded resume file into plain text
type ResumeExtractor interface {
	ExtractResumeText(ctx context.Context, file types.ResumeBlob) (string, error)
}

// SkillAnalyzer finds skill gaps in a resume. Gaps are ordered most significant first.
type SkillAnalyzer interface {
	AnalyzeSkills(ctx context.Context, resumeText string) (*types.SkillAnalysis, error)
}

// PathGenerator proposes career paths. Scores on the returned paths are ignored.
type PathGenerator interface {
	GeneratePaths(ctx context.Context, careerGoalHint string, gaps []string) ([]types.CareerPathCandidate, error)
}

// JobFetcher returns job postings for a goal. Scores on the returned jobs are ignored.
type JobFetcher interface {
	FetchJobs(ctx context.Context, careerGoal string, gaps []string) ([]types.JobCandidate, error)
}

// PlanGenerator writes a free-text career plan
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, careerGoal string, gaps []string, jobs []types.JobCandidate) (string, error)
}

// Generators bundles the external collaborators, one per stage
type Generators struct {
	Extractor ResumeExtractor
	Analyzer  SkillAnalyzer
	Paths     PathGenerator
	Jobs      JobFetcher
	Planner   PlanGenerator
}

// Advisor is a single collaborator serving every generated stage
type Advisor interface {
	SkillAnalyzer
	PathGenerator
	JobFetcher
	PlanGenerator
}

// FromAdvisor builds Generators from an extractor and one advisor
func FromAdvisor(extractor ResumeExtractor, advisor Advisor) Generators {
	return Generators{
		Extractor: extractor,
		Analyzer:  advisor,
		Paths:     advisor,
		Jobs:      advisor,
		Planner:   advisor,
	}
}
