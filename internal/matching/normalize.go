package matching

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// skillAliases maps common skill name variants to canonical names
var skillAliases = map[string]string{
	"golang":              "Go",
	"go lang":             "Go",
	"javascript":          "JavaScript",
	"js":                  "JavaScript",
	"typescript":          "TypeScript",
	"ts":                  "TypeScript",
	"k8s":                 "Kubernetes",
	"kubernetes":          "Kubernetes",
	"react.js":            "React",
	"reactjs":             "React",
	"vue.js":              "Vue",
	"vuejs":               "Vue",
	"node.js":             "Node.js",
	"nodejs":              "Node.js",
	"node":                "Node.js",
	"postgres":            "PostgreSQL",
	"postgresql":          "PostgreSQL",
	"gql":                 "GraphQL",
	"graphql":             "GraphQL",
	"aws":                 "AWS",
	"amazon web services": "AWS",
	"ci/cd":               "CI/CD",
	"cicd":                "CI/CD",
}

// NormalizeSkillName normalizes a skill name to its canonical form
func NormalizeSkillName(skillName string) string {
	normalized := strings.Join(strings.Fields(skillName), " ")
	if normalized == "" {
		return ""
	}

	lower := strings.ToLower(normalized)
	if canonical, ok := skillAliases[lower]; ok {
		return canonical
	}

	// Mixed case is kept as written
	if normalized != strings.ToUpper(normalized) && normalized != strings.ToLower(normalized) {
		return normalized
	}

	// Single words in one case get a leading capital
	if !strings.Contains(normalized, " ") {
		first, size := utf8.DecodeRuneInString(normalized)
		return string(unicode.ToUpper(first)) + strings.ToLower(normalized[size:])
	}

	return normalized
}

// skillKey is the comparison key for a skill name. Two names refer to the
// same skill iff their keys are equal.
func skillKey(skillName string) string {
	return strings.ToLower(NormalizeSkillName(skillName))
}
