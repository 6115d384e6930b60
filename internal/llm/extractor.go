package llm

import (
	"fmt"
	"strings"
)

// ExtractionSchema defines the JSON structure an LLM response must follow
type ExtractionSchema struct {
	Name        string        // Schema name (e.g., "SkillAnalysis")
	Description string        // Preamble describing the task
	Root        string        // "object" (default) or "array"
	Fields      []SchemaField // Expected output fields, per element for arrays
}

// SchemaField defines a single field in the extraction output
type SchemaField struct {
	Name        string // JSON field name
	Type        string // Type hint shown to the model
	Description string // Description for the model
	Required    bool   // Whether this field is required
}

// DescribeSchema renders the output contract appended to a prompt
func DescribeSchema(schema ExtractionSchema) string {
	var sb strings.Builder

	if schema.Description != "" {
		sb.WriteString(schema.Description)
		sb.WriteString("\n\n")
	}

	openCh, closeCh := "{", "}"
	if schema.Root == "array" {
		sb.WriteString("Return ONLY a valid JSON array whose elements match this exact structure:\n")
	} else {
		sb.WriteString("Return ONLY valid JSON matching this exact structure:\n")
	}
	sb.WriteString(openCh + "\n")
	for i, field := range schema.Fields {
		typeHint := field.Type
		if typeHint == "" {
			typeHint = `"string"`
		}
		requiredHint := ""
		if field.Required {
			requiredHint = " (required)"
		}
		sb.WriteString(fmt.Sprintf("  %q: %s%s", field.Name, typeHint, requiredHint))
		if field.Description != "" {
			sb.WriteString(fmt.Sprintf(" // %s", field.Description))
		}
		if i < len(schema.Fields)-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(closeCh + "\n\n")

	sb.WriteString("IMPORTANT:\n")
	sb.WriteString("- Return ONLY the JSON, no markdown, no explanation, no code blocks.\n")
	return sb.String()
}

// BuildExtractionPrompt combines instructions, the output contract, and the input text
func BuildExtractionPrompt(schema ExtractionSchema, instructions, inputText string) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimSpace(instructions))
	sb.WriteString("\n\n")
	sb.WriteString(DescribeSchema(schema))
	if inputText != "" {
		sb.WriteString("\nInput:\n\"\"\"\n")
		sb.WriteString(inputText)
		sb.WriteString("\n\"\"\"\n")
	}
	return sb.String()
}

// --- Predefined Schemas ---

// SkillAnalysisSchema describes the skill gap analysis response
func SkillAnalysisSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "SkillAnalysis",
		Fields: []SchemaField{
			{
				Name:        "gaps",
				Type:        `["string"]`,
				Description: "Skills the candidate lacks for their likely next role, most impactful first",
				Required:    true,
			},
			{
				Name:        "categories",
				Type:        `[{"name": "string", "records": [{"name": "string", "status": "strong|weak|missing", "level": 0}]}]`,
				Description: "Skills grouped by area. level is 0-100 and omitted when status is missing",
				Required:    true,
			},
		},
	}
}

// CareerPathsSchema describes the career path response
func CareerPathsSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "CareerPaths",
		Root: "array",
		Fields: []SchemaField{
			{Name: "title", Description: "Target role", Required: true},
			{Name: "timeline", Description: "Time to reach the role, e.g. '6-12 months'", Required: true},
			{Name: "description", Description: "One or two sentences on the path"},
			{
				Name:        "steps",
				Type:        `[{"title": "string", "type": "job|skill|education", "description": "string", "timeframe": "string"}]`,
				Description: "Ordered milestones",
				Required:    true,
			},
			{
				Name:        "required_skills",
				Type:        `["string"]`,
				Description: "Skills the target role requires",
				Required:    true,
			},
		},
	}
}

// JobsSchema describes the job listing response
func JobsSchema() ExtractionSchema {
	return ExtractionSchema{
		Name: "Jobs",
		Root: "array",
		Fields: []SchemaField{
			{Name: "id", Description: "Stable identifier, unique within the list"},
			{Name: "title", Required: true},
			{Name: "company", Required: true},
			{Name: "location"},
			{Name: "salary", Description: "Salary range, e.g. '$90k - $120k'"},
			{Name: "required_skills", Type: `["string"]`, Required: true},
			{Name: "description"},
		},
	}
}
