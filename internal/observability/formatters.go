// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/jonathan/career-navigator/internal/matching"
	"github.com/jonathan/career-navigator/internal/pipeline"
	"github.com/jonathan/career-navigator/internal/stages"
	"github.com/jonathan/career-navigator/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, truncate(line, boxWidth-4))
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// truncate shortens s to at most n runes
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// OnProgress returns a callback printing one line per stage transition
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) OnProgress() pipeline.ProgressCallback {
	return func(e pipeline.ProgressEvent) {
		label := string(e.Stage)
		if def, ok := stages.Registry[e.Stage]; ok {
			label = def.Label
		}
		switch e.Status {
		case pipeline.StatusStarted:
			fmt.Fprintf(p.out, "→ %s...\n", label)
		case pipeline.StatusCompleted:
			fmt.Fprintf(p.out, "✓ %s: %s\n", label, e.Message)
		case pipeline.StatusDropped:
			fmt.Fprintf(p.out, "- %s: superseded\n", label)
		default:
			fmt.Fprintf(p.out, "✗ %s: %s\n", label, e.Message)
		}
	}
}

// OnStageOutput returns a callback printing each completed stage's output
func (p *Printer) OnStageOutput() pipeline.ProgressCallback {
	return func(e pipeline.ProgressEvent) {
		if profile, ok := e.Content.(types.Profile); ok && e.Status == pipeline.StatusCompleted {
			p.PrintStage(e.Stage, profile)
		}
	}
}

// PrintStage prints the part of the profile the stage produced
func (p *Printer) PrintStage(stage stages.StageID, profile types.Profile) {
	switch stage {
	case stages.Upload:
		p.PrintResume(profile.ResumeText)
	case stages.Skills:
		p.PrintSkillAnalysis(profile.SkillGaps, profile.SkillCategories)
	case stages.Paths:
		p.PrintCareerPaths(profile.CareerPaths, profile.CareerGoal)
	case stages.Jobs:
		p.PrintJobs(profile.RecommendedJobs, profile.SkillGaps)
	case stages.Plan:
		p.PrintPlan(profile.CareerPlan)
	}
}

// PrintResume outputs the first lines of the extracted resume text.
func (p *Printer) PrintResume(text *string) {
	if text == nil {
		return
	}
	lines := strings.Split(strings.TrimSpace(*text), "\n")
	count := min(len(lines), maxItemsToShow)
	content := strings.Join(lines[:count], "\n")
	if len(lines) > count {
		content += fmt.Sprintf("\n... %d more lines", len(lines)-count)
	}
	p.printBox("EXTRACTED RESUME", content)
}

// PrintSkillAnalysis outputs the gaps followed by each category's records.
func (p *Printer) PrintSkillAnalysis(gaps []string, categories []types.SkillCategory) {
	if gaps == nil && categories == nil {
		return
	}

	var sb strings.Builder
	if len(gaps) == 0 {
		sb.WriteString("No skill gaps found\n")
	} else {
		sb.WriteString("Skill gaps:\n")
		for _, gap := range gaps {
			sb.WriteString(fmt.Sprintf("  • %s\n", gap))
		}
	}

	for _, cat := range categories {
		sb.WriteString(fmt.Sprintf("\n%s:\n", cat.Name))
		for _, r := range cat.Records {
			switch {
			case r.Level != nil:
				sb.WriteString(fmt.Sprintf("  %-28s %-7s %3d%%\n", truncate(r.Name, 28), r.Status, *r.Level))
			default:
				sb.WriteString(fmt.Sprintf("  %-28s %s\n", truncate(r.Name, 28), r.Status))
			}
		}
	}

	p.printBox("SKILL GAP ANALYSIS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCareerPaths outputs ranked paths and marks the selected goal.
func (p *Printer) PrintCareerPaths(paths []types.CareerPathCandidate, goal *string) {
	if len(paths) == 0 {
		return
	}

	var sb strings.Builder
	for i, path := range paths {
		marker := " "
		if goal != nil && strings.EqualFold(*goal, path.Title) {
			marker = "*"
		}
		sb.WriteString(fmt.Sprintf("%s #%d  %s  (%d%%, %s)\n", marker, i+1, path.Title, path.Score, matching.Band(path.Score)))
		if path.Timeline != "" {
			sb.WriteString(fmt.Sprintf("     Timeline: %s\n", path.Timeline))
		}
		if len(path.MissingSkills) > 0 {
			sb.WriteString(fmt.Sprintf("     Missing: %s\n", strings.Join(path.MissingSkills, ", ")))
		}
		for j, step := range path.Steps {
			sb.WriteString(fmt.Sprintf("     %d. [%s] %s\n", j+1, step.Kind, step.Title))
		}
		if i < len(paths)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("CAREER PATHS", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintJobs outputs the top jobs with their match explanation.
func (p *Printer) PrintJobs(jobs []types.JobCandidate, gaps []string) {
	if len(jobs) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total jobs matched: %d\n\n", len(jobs)))

	count := min(len(jobs), maxItemsToShow)
	for i := 0; i < count; i++ {
		job := jobs[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, job.Title))
		sb.WriteString(fmt.Sprintf("    %s", job.Company))
		if job.Location != "" {
			sb.WriteString(fmt.Sprintf(" · %s", job.Location))
		}
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("    %s\n", matching.Explain(job.RequiredSkills, gaps)))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(jobs) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more jobs", len(jobs)-maxItemsToShow))
	}

	p.printBox("JOB MATCHES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintPlan outputs the plan, one paragraph per item.
func (p *Printer) PrintPlan(plan *string) {
	if plan == nil {
		return
	}

	var items []string
	for _, para := range strings.Split(*plan, "\n\n") {
		para = strings.Join(strings.Fields(para), " ")
		if para != "" {
			items = append(items, wrap(fmt.Sprintf("%d. %s", len(items)+1, para), boxWidth-4, "   "))
		}
	}
	p.printBox("CAREER PLAN", strings.Join(items, "\n"))
}

// wrap breaks text into lines of at most width runes, indenting continuations
func wrap(text string, width int, indent string) string {
	var lines []string
	line := ""
	for _, word := range strings.Fields(text) {
		switch {
		case line == "":
			line = word
		case len([]rune(line))+1+len([]rune(word)) <= width:
			line += " " + word
		default:
			lines = append(lines, line)
			line = indent + word
		}
	}
	if line != "" {
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
