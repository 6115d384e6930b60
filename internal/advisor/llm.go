// Package advisor provides the skill analysis, career path, job and plan
// generators used by the pipeline: one backed by an LLM and one static data
// set for offline runs.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/career-navigator/internal/llm"
	"github.com/jonathan/career-navigator/internal/matching"
	"github.com/jonathan/career-navigator/internal/prompts"
	"github.com/jonathan/career-navigator/internal/types"
)

// LLM generates every stage's output with a language model
type LLM struct {
	client llm.Client
}

// NewLLM wraps an LLM client. The caller owns the client and closes it.
func NewLLM(client llm.Client) *LLM {
	return &LLM{client: client}
}

// AnalyzeSkills asks the model for skill categories and gaps
func (a *LLM) AnalyzeSkills(ctx context.Context, resumeText string) (*types.SkillAnalysis, error) {
	instructions, err := prompts.Render(prompts.Advisor, "analyze-skills", nil)
	if err != nil {
		return nil, err
	}
	prompt := llm.BuildExtractionPrompt(llm.SkillAnalysisSchema(), instructions, resumeText)

	var analysis types.SkillAnalysis
	if err := a.generateJSON(ctx, "analyze skills", prompt, llm.TierStandard, &analysis); err != nil {
		return nil, err
	}

	analysis.Gaps = normalizeSkills(analysis.Gaps)
	for i := range analysis.Categories {
		for j := range analysis.Categories[i].Records {
			r := &analysis.Categories[i].Records[j]
			r.Name = matching.NormalizeSkillName(r.Name)
			// Models tend to emit "level": 0 for missing skills.
			if r.Status == types.SkillMissing {
				r.Level = nil
			}
		}
	}
	return &analysis, nil
}

// GeneratePaths asks the model for career paths toward the hint
func (a *LLM) GeneratePaths(ctx context.Context, careerGoalHint string, gaps []string) ([]types.CareerPathCandidate, error) {
	hint := careerGoalHint
	if hint == "" {
		hint = "none, suggest the most natural next roles"
	}
	instructions, err := prompts.Render(prompts.Advisor, "generate-paths", map[string]string{
		"Hint": hint,
		"Gaps": joinOrNone(gaps),
	})
	if err != nil {
		return nil, err
	}
	prompt := llm.BuildExtractionPrompt(llm.CareerPathsSchema(), instructions, "")

	var paths []types.CareerPathCandidate
	if err := a.generateJSON(ctx, "generate paths", prompt, llm.TierAdvanced, &paths); err != nil {
		return nil, err
	}
	for i := range paths {
		paths[i].RequiredSkills = normalizeSkills(paths[i].RequiredSkills)
	}
	return paths, nil
}

// FetchJobs asks the model for job openings toward the goal
func (a *LLM) FetchJobs(ctx context.Context, careerGoal string, gaps []string) ([]types.JobCandidate, error) {
	instructions, err := prompts.Render(prompts.Advisor, "fetch-jobs", map[string]string{
		"Goal": careerGoal,
		"Gaps": joinOrNone(gaps),
	})
	if err != nil {
		return nil, err
	}
	prompt := llm.BuildExtractionPrompt(llm.JobsSchema(), instructions, "")

	var jobs []types.JobCandidate
	if err := a.generateJSON(ctx, "fetch jobs", prompt, llm.TierStandard, &jobs); err != nil {
		return nil, err
	}
	for i := range jobs {
		jobs[i].RequiredSkills = normalizeSkills(jobs[i].RequiredSkills)
	}
	return jobs, nil
}

// GeneratePlan asks the model for a free-text plan
func (a *LLM) GeneratePlan(ctx context.Context, careerGoal string, gaps []string, jobs []types.JobCandidate) (string, error) {
	prompt, err := prompts.Render(prompts.Advisor, "generate-plan", map[string]string{
		"Goal": careerGoal,
		"Gaps": joinOrNone(gaps),
		"Jobs": formatJobs(jobs),
	})
	if err != nil {
		return "", err
	}

	text, err := a.client.GenerateContent(ctx, prompt, llm.TierAdvanced)
	if err != nil {
		return "", &APICallError{Operation: "generate plan", Cause: err}
	}
	return strings.TrimSpace(text), nil
}

func (a *LLM) generateJSON(ctx context.Context, operation, prompt string, tier llm.ModelTier, out any) error {
	log.Debug().
		Str("operation", operation).
		Str("model", a.client.GetModel(tier)).
		Int("prompt_chars", len(prompt)).
		Msg("calling model")

	text, err := a.client.GenerateJSON(ctx, prompt, tier)
	if err != nil {
		return &APICallError{Operation: operation, Cause: err}
	}

	cleaned := llm.CleanJSONBlock(text)
	if err := json.Unmarshal([]byte(cleaned), out); err != nil {
		return &ParseError{Operation: operation, Response: cleaned, Cause: err}
	}
	return nil
}

// normalizeSkills canonicalizes names and drops blanks and duplicates
func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]bool, len(skills))
	for _, s := range skills {
		name := matching.NormalizeSkillName(s)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, name)
	}
	return out
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}

func formatJobs(jobs []types.JobCandidate) string {
	if len(jobs) == 0 {
		return "- none"
	}
	var sb strings.Builder
	for _, j := range jobs {
		sb.WriteString(fmt.Sprintf("- %s at %s (%d%% match)", j.Title, j.Company, j.Score))
		if len(j.MissingSkills) > 0 {
			sb.WriteString(fmt.Sprintf(", missing: %s", strings.Join(j.MissingSkills, ", ")))
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}
