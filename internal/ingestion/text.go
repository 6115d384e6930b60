// Package ingestion validates uploaded resumes and extracts their plain text.
package ingestion

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jonathan/career-navigator/internal/types"
)

var (
	spaceRun     = regexp.MustCompile(`\s+`)
	blankLineRun = regexp.MustCompile(`\n\n\n+`)
)

// CleanText cleans and normalizes text content while preserving structure
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u00a0", " ")

	lines := strings.Split(content, "\n")
	cleanedLines := make([]string, 0, len(lines))
	for _, line := range lines {
		cleanedLines = append(cleanedLines, cleanLine(line))
	}

	result := strings.Join(cleanedLines, "\n")
	result = blankLineRun.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine cleans a single line while preserving headings, bullets, and indentation
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	indent := len(line) - len(trimmed)
	if isBulletLine(trimmed) {
		// Resume exports often use typographic bullets
		for _, b := range []string{"• ", "· ", "▪ "} {
			if strings.HasPrefix(trimmed, b) {
				trimmed = "- " + strings.TrimPrefix(trimmed, b)
				break
			}
		}
		return strings.Repeat(" ", indent) + trimmed
	}

	return strings.Repeat(" ", indent) + spaceRun.ReplaceAllString(trimmed, " ")
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ") || strings.HasPrefix(trimmed, "· ") ||
		strings.HasPrefix(trimmed, "▪ ")
}

// ReadFile loads a resume from disk. The content type is left for the extractor to detect.
func ReadFile(path string) (types.ResumeBlob, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return types.ResumeBlob{}, fmt.Errorf("file not found: %w", err)
		}
		return types.ResumeBlob{}, fmt.Errorf("failed to read file: %w", err)
	}
	return types.ResumeBlob{Filename: filepath.Base(path), Data: content}, nil
}
