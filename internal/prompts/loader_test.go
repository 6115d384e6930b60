package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet_ValidPrompt(t *testing.T) {
	ClearCache()

	prompt, err := Get(Advisor, "analyze-skills")
	require.NoError(t, err)
	assert.NotEmpty(t, prompt)
	assert.Contains(t, prompt, "Missing skills have no level")
}

func TestGet_InvalidFile(t *testing.T) {
	ClearCache()

	_, err := Get("nonexistent.json", "some-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read prompt file")
}

func TestGet_InvalidKey(t *testing.T) {
	ClearCache()

	_, err := Get(Advisor, "nonexistent-key")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestMustGet_Panics(t *testing.T) {
	ClearCache()

	assert.Panics(t, func() {
		MustGet("nonexistent.json", "some-key")
	})
}

func TestMustGet_ValidPrompt(t *testing.T) {
	ClearCache()

	assert.NotPanics(t, func() {
		prompt := MustGet(Advisor, "analyze-skills")
		assert.NotEmpty(t, prompt)
	})
}

func TestFormat(t *testing.T) {
	template := "Hello {{.Name}}, welcome to {{.Company}}!"
	data := map[string]string{
		"Name":    "Alice",
		"Company": "Acme Corp",
	}

	result := Format(template, data)
	assert.Equal(t, "Hello Alice, welcome to Acme Corp!", result)
}

func TestFormat_NoPlaceholders(t *testing.T) {
	template := "No placeholders here"
	data := map[string]string{"Key": "Value"}

	result := Format(template, data)
	assert.Equal(t, template, result)
}

func TestFormat_EmptyData(t *testing.T) {
	template := "Hello {{.Name}}"
	data := map[string]string{}

	result := Format(template, data)
	assert.Equal(t, template, result) // Placeholder remains
}

func TestList(t *testing.T) {
	ClearCache()

	keys, err := List(Advisor)
	require.NoError(t, err)
	assert.Equal(t, []string{"analyze-skills", "fetch-jobs", "generate-paths", "generate-plan"}, keys)
}

func TestCaching(t *testing.T) {
	ClearCache()

	// First call loads from file
	prompt1, err := Get(Advisor, "analyze-skills")
	require.NoError(t, err)

	// Second call should use cache
	prompt2, err := Get(Advisor, "analyze-skills")
	require.NoError(t, err)

	assert.Equal(t, prompt1, prompt2)
}

func TestRender_FillsPlaceholders(t *testing.T) {
	ClearCache()

	prompt, err := Render(Advisor, "fetch-jobs", map[string]string{
		"Goal": "Frontend Specialist",
		"Gaps": "GraphQL, Docker",
	})
	require.NoError(t, err)
	assert.Contains(t, prompt, "Career goal: Frontend Specialist")
	assert.Contains(t, prompt, "Current skill gaps: GraphQL, Docker")
	assert.NotContains(t, prompt, "{{.")
}

func TestRender_FailsOnUnfilledPlaceholder(t *testing.T) {
	ClearCache()

	_, err := Render(Advisor, "generate-plan", map[string]string{"Goal": "DevOps Engineer"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "{{.Gaps}}")
	assert.Contains(t, err.Error(), "{{.Jobs}}")
}

func TestAdvisorPrompts_AllRender(t *testing.T) {
	ClearCache()

	data := map[string]string{"Hint": "h", "Gaps": "g", "Goal": "goal", "Jobs": "j"}
	keys, err := List(Advisor)
	require.NoError(t, err)
	for _, key := range keys {
		_, err := Render(Advisor, key, data)
		assert.NoError(t, err, key)
	}
}
