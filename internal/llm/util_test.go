package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanJSONBlock(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"json code block", "```json\n{\"gaps\": [\"GraphQL\"]}\n```", `{"gaps": ["GraphQL"]}`},
		{"generic code block", "```\n{\"gaps\": []}\n```", `{"gaps": []}`},
		{"code block with language", "```javascript\n[1, 2]\n```", `[1, 2]`},
		{"plain JSON", `{"key": "value"}`, `{"key": "value"}`},
		{"preamble before object", "Here is the analysis:\n{\"gaps\": [\"Docker\"]}", `{"gaps": ["Docker"]}`},
		{"preamble before array", "Here are the paths:\n[{\"title\": \"DevOps\"}]", `[{"title": "DevOps"}]`},
		{"trailing text", "{\"key\": \"value\"}\n\nLet me know if you need anything else!", `{"key": "value"}`},
		{"escaped quotes", "Result: {\"message\": \"He said \\\"hello\\\"\"}", `{"message": "He said \"hello\""}`},
		{"deeply nested", "Here: {\"a\": {\"b\": {\"c\": \"deep\"}}}", `{"a": {"b": {"c": "deep"}}}`},
		{"fenced with preamble inside", "```json\nSure! {\"plan\": \"x\"}\n```", `{"plan": "x"}`},
		{"no json", "no json here", "no json here"},
		{"unbalanced stays as is", "{\"open\": true", "{\"open\": true"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CleanJSONBlock(tt.input))
		})
	}
}

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple object", `{"key": "value"}`, `{"key": "value"}`},
		{"object with array", `{"items": [1, 2, 3]}`, `{"items": [1, 2, 3]}`},
		{"trailing text", `{"key": "value"} and more`, `{"key": "value"}`},
		{"braces inside string", `{"template": "Hello {name}!"}`, `{"template": "Hello {name}!"}`},
		{"empty input", "", ""},
		{"not starting with brace", "not json", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONObject(tt.input))
		})
	}
}

func TestExtractJSONArray(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple array", `["a", "b"]`, `["a", "b"]`},
		{"nested arrays", `[[1, 2], [3, 4]]`, `[[1, 2], [3, 4]]`},
		{"array of objects", `[{"id": 1}, {"id": 2}]`, `[{"id": 1}, {"id": 2}]`},
		{"bracket inside string", `["a]b"] tail`, `["a]b"]`},
		{"not starting with bracket", "not array", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, extractJSONArray(tt.input))
		})
	}
}
