package advisor

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/jonathan/career-navigator/internal/types"
)

// Static serves a fixed data set. It ignores the resume and the hint, which
// makes it useful for offline runs and demos.
type Static struct{}

// NewStatic creates the static advisor
func NewStatic() *Static {
	return &Static{}
}

// AnalyzeSkills returns the sample analysis
func (s *Static) AnalyzeSkills(ctx context.Context, _ string) (*types.SkillAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	analysis := &types.SkillAnalysis{
		Gaps:       slices.Clone(sampleGaps),
		Categories: make([]types.SkillCategory, len(sampleCategories)),
	}
	for i, c := range sampleCategories {
		analysis.Categories[i] = c.Clone()
	}
	return analysis, nil
}

// GeneratePaths returns the sample paths
func (s *Static) GeneratePaths(ctx context.Context, _ string, _ []string) ([]types.CareerPathCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]types.CareerPathCandidate, len(samplePaths))
	for i, p := range samplePaths {
		out[i] = p.Clone()
	}
	return out, nil
}

// FetchJobs returns the sample jobs
func (s *Static) FetchJobs(ctx context.Context, _ string, _ []string) ([]types.JobCandidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]types.JobCandidate, len(sampleJobs))
	for i, j := range sampleJobs {
		out[i] = j.Clone()
	}
	return out, nil
}

// GeneratePlan writes a templated plan from the goal, gaps and best job
func (s *Static) GeneratePlan(ctx context.Context, careerGoal string, gaps []string, jobs []types.JobCandidate) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var paragraphs []string
	for _, gap := range gaps {
		paragraphs = append(paragraphs, fmt.Sprintf(
			"Close the %s gap: finish a focused course and ship a small project that uses it.", gap))
	}
	paragraphs = append(paragraphs,
		fmt.Sprintf("Build a portfolio project that shows the core skills of a %s.", careerGoal),
		"Join 2-3 local tech meetups or virtual communities to expand your network.",
	)
	if len(jobs) > 0 {
		paragraphs = append(paragraphs, fmt.Sprintf(
			"Apply for 3-5 roles per week, starting with %s at %s.", jobs[0].Title, jobs[0].Company))
	}
	paragraphs = append(paragraphs,
		"Set up informational interviews with 2-3 professionals working in your target role.",
		"Create a study schedule for technical interviews.",
	)
	return strings.Join(paragraphs, "\n\n"), nil
}

var sampleGaps = []string{
	"React Advanced Patterns",
	"GraphQL",
	"Docker & Kubernetes",
	"TypeScript",
	"CI/CD Pipelines",
}

func strong(name string, level int) types.SkillRecord {
	return types.SkillRecord{Name: name, Status: types.SkillStrong, Level: types.IntPtr(level)}
}

func weak(name string, level int) types.SkillRecord {
	return types.SkillRecord{Name: name, Status: types.SkillWeak, Level: types.IntPtr(level)}
}

func missing(name string) types.SkillRecord {
	return types.SkillRecord{Name: name, Status: types.SkillMissing}
}

var sampleCategories = []types.SkillCategory{
	{Name: "Frontend Development", Records: []types.SkillRecord{
		strong("HTML/CSS", 90),
		strong("JavaScript", 85),
		strong("React Basics", 80),
		missing("React Advanced Patterns"),
		strong("Responsive Design", 75),
		missing("TypeScript"),
	}},
	{Name: "Backend Development", Records: []types.SkillRecord{
		weak("Node.js", 60),
		weak("RESTful APIs", 65),
		missing("GraphQL"),
		weak("Python", 50),
	}},
	{Name: "DevOps & Tools", Records: []types.SkillRecord{
		strong("Git", 80),
		missing("Docker & Kubernetes"),
		missing("CI/CD Pipelines"),
		strong("VS Code", 90),
	}},
	{Name: "Soft Skills", Records: []types.SkillRecord{
		strong("Team Collaboration", 85),
		strong("Communication", 80),
		strong("Problem Solving", 75),
		weak("Project Management", 55),
	}},
}

var samplePaths = []types.CareerPathCandidate{
	{
		Title:       "Full-Stack Developer",
		Timeline:    "1-2 years",
		Description: "Build end-to-end web applications with modern JavaScript frameworks and backend technologies.",
		Steps: []types.PathStep{
			{Title: "Master React Advanced Patterns", Kind: types.StepSkill, Description: "Learn context, hooks, render props and HOCs.", Timeframe: "2-3 months"},
			{Title: "Learn GraphQL & TypeScript", Kind: types.StepSkill, Description: "GraphQL API design and type-safe development.", Timeframe: "3-4 months"},
			{Title: "Junior Full-Stack Developer", Kind: types.StepJob, Description: "Frontend and backend work with React and Node.js.", Timeframe: "4-6 months"},
			{Title: "Learn DevOps Fundamentals", Kind: types.StepSkill, Description: "Docker, Kubernetes and CI/CD pipelines.", Timeframe: "3-4 months"},
			{Title: "Mid-Level Full-Stack Developer", Kind: types.StepJob, Description: "More responsibility in architecture and team leadership.", Timeframe: "1-2 years"},
		},
		RequiredSkills: []string{"React", "Node.js", "GraphQL", "TypeScript", "JavaScript", "REST APIs"},
	},
	{
		Title:       "Frontend Specialist",
		Timeline:    "1-1.5 years",
		Description: "Specialize in user interfaces and experiences with advanced frontend technologies.",
		Steps: []types.PathStep{
			{Title: "Master React & TypeScript", Kind: types.StepSkill, Description: "Advanced React patterns and TypeScript.", Timeframe: "3-4 months"},
			{Title: "Learn UI/UX Design Principles", Kind: types.StepEducation, Description: "Design systems, accessibility and user experience.", Timeframe: "2-3 months"},
			{Title: "Frontend Developer", Kind: types.StepJob, Description: "Build modern, responsive user interfaces.", Timeframe: "3-5 months"},
			{Title: "Master State Management & Performance", Kind: types.StepSkill, Description: "Redux, Context API and performance optimization.", Timeframe: "2-3 months"},
			{Title: "Senior Frontend Developer", Kind: types.StepJob, Description: "Lead frontend architecture and initiatives.", Timeframe: "1-1.5 years"},
		},
		RequiredSkills: []string{"React", "JavaScript", "HTML/CSS", "Responsive Design", "React Advanced Patterns", "Accessibility"},
	},
	{
		Title:       "DevOps Engineer",
		Timeline:    "1.5-2 years",
		Description: "Automate and optimize development and deployment workflows.",
		Steps: []types.PathStep{
			{Title: "Learn Docker & Kubernetes", Kind: types.StepSkill, Description: "Containerization and orchestration.", Timeframe: "3-4 months"},
			{Title: "CI/CD & Infrastructure as Code", Kind: types.StepSkill, Description: "GitHub Actions, Terraform and CloudFormation.", Timeframe: "3-4 months"},
			{Title: "Cloud Certification", Kind: types.StepEducation, Description: "AWS, Azure or GCP certification.", Timeframe: "2-3 months"},
			{Title: "Junior DevOps Engineer", Kind: types.StepJob, Description: "Entry-level DevOps position.", Timeframe: "4-6 months"},
			{Title: "DevOps Engineer", Kind: types.StepJob, Description: "Own the CI/CD pipeline end to end.", Timeframe: "1.5-2 years"},
		},
		RequiredSkills: []string{"Docker & Kubernetes", "CI/CD Pipelines", "Git", "Python", "AWS"},
	},
}

var sampleJobs = []types.JobCandidate{
	{ID: "job-1", Title: "Junior Frontend Developer", Company: "TechSolutions Inc.", Location: "San Francisco, CA", Salary: "$75,000 - $95,000",
		RequiredSkills: []string{"React", "JavaScript", "HTML/CSS", "Git", "Responsive Design"},
		Description:    "Implement the visual elements users see and interact with, working closely with designers."},
	{ID: "job-2", Title: "Full-Stack Developer", Company: "InnovateApp", Location: "Remote", Salary: "$90,000 - $120,000",
		RequiredSkills: []string{"React", "Node.js", "GraphQL", "MongoDB", "TypeScript"},
		Description:    "Build and maintain web applications across the frontend and backend."},
	{ID: "job-3", Title: "React Developer", Company: "WebFusion", Location: "New York, NY", Salary: "$85,000 - $110,000",
		RequiredSkills: []string{"React", "JavaScript", "Redux", "HTML/CSS", "RESTful APIs"},
		Description:    "Develop user interface components with React and its ecosystem."},
	{ID: "job-4", Title: "Junior Software Engineer", Company: "GrowthTech", Location: "Austin, TX", Salary: "$70,000 - $90,000",
		RequiredSkills: []string{"JavaScript", "React", "Git", "Problem Solving", "Team Collaboration"},
		Description:    "Early-career role with a solid programming foundation and room to grow."},
	{ID: "job-5", Title: "Frontend Engineer", Company: "PixelPerfect", Location: "Seattle, WA", Salary: "$95,000 - $125,000",
		RequiredSkills: []string{"React", "TypeScript", "CSS-in-JS", "Performance Optimization", "Accessibility"},
		Description:    "Create accessible, high-performance web applications."},
	{ID: "job-6", Title: "Full-Stack JavaScript Developer", Company: "ConnectTech", Location: "Chicago, IL", Salary: "$85,000 - $115,000",
		RequiredSkills: []string{"JavaScript", "React", "Node.js", "Express", "MongoDB", "REST APIs"},
		Description:    "Build and scale JavaScript applications on the frontend and backend."},
	{ID: "job-7", Title: "Junior UI Developer", Company: "DesignFirst", Location: "Portland, OR", Salary: "$65,000 - $85,000",
		RequiredSkills: []string{"HTML/CSS", "JavaScript", "React", "UI/UX", "Responsive Design"},
		Description:    "Translate design mockups into functional user interfaces."},
	{ID: "job-8", Title: "Web Developer", Company: "Digital Solutions", Location: "Denver, CO", Salary: "$80,000 - $100,000",
		RequiredSkills: []string{"JavaScript", "React", "HTML/CSS", "RESTful APIs", "Git"},
		Description:    "Implement frontend components and integrate them with backend services."},
}
