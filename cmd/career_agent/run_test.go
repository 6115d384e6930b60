package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-navigator/internal/config"
	"github.com/jonathan/career-navigator/internal/schemas"
	"github.com/jonathan/career-navigator/internal/types"
)

func writeResume(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func clearRunEnv(t *testing.T) {
	t.Helper()
	t.Setenv(config.EnvAPIKey, "")
	t.Setenv(config.EnvDatabaseURL, "")
	t.Setenv(config.EnvAMQPURL, "")
}

func TestFinalizeRunConfig_RequiresResume(t *testing.T) {
	clearRunEnv(t)
	_, err := finalizeRunConfig(config.Config{Offline: true})
	assert.ErrorContains(t, err, "--resume must be provided")
}

func TestFinalizeRunConfig_RequiresAPIKeyOnline(t *testing.T) {
	clearRunEnv(t)
	resume := writeResume(t, "resume.txt", "Jane Doe")

	_, err := finalizeRunConfig(config.Config{Resume: resume})
	assert.ErrorContains(t, err, "GEMINI_API_KEY environment variable or --api-key flag is required")

	cfg, err := finalizeRunConfig(config.Config{Resume: resume, Offline: true})
	require.NoError(t, err)
	assert.Equal(t, config.DefaultStageTimeoutSeconds, cfg.StageTimeoutSeconds)
	assert.NotNil(t, cfg.LLM)
}

func TestFinalizeRunConfig_APIKeyFromEnv(t *testing.T) {
	clearRunEnv(t)
	t.Setenv(config.EnvAPIKey, "from-env")
	resume := writeResume(t, "resume.txt", "Jane Doe")

	cfg, err := finalizeRunConfig(config.Config{Resume: resume})
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.APIKey)
}

func TestFinalizeRunConfig_MissingResumeFile(t *testing.T) {
	clearRunEnv(t)
	_, err := finalizeRunConfig(config.Config{Resume: filepath.Join(t.TempDir(), "nope.pdf"), Offline: true})
	assert.ErrorContains(t, err, "resume file not found")
}

func TestExecuteRun_Offline(t *testing.T) {
	clearRunEnv(t)
	resume := writeResume(t, "resume.txt", "Jane Doe\nReact developer.\n")
	outPath := filepath.Join(t.TempDir(), "out", "profile.json")

	cfg, err := finalizeRunConfig(config.Config{
		Resume:     resume,
		Offline:    true,
		ChosenPath: "Frontend Specialist",
		Output:     outPath,
	})
	require.NoError(t, err)

	var out bytes.Buffer
	p, err := executeRun(context.Background(), cfg, &out)
	require.NoError(t, err)

	require.NotNil(t, p.CareerGoal)
	assert.Equal(t, "Frontend Specialist", *p.CareerGoal)
	assert.Len(t, p.RecommendedJobs, 8)
	require.NotNil(t, p.CareerPlan)

	assert.Contains(t, out.String(), "CAREER PLAN")
	require.NoError(t, schemas.ValidateProfileFile(outPath))
}

func TestExecuteRun_VerbosePrintsProgress(t *testing.T) {
	clearRunEnv(t)
	resume := writeResume(t, "resume.txt", "Jane Doe\nReact developer.\n")
	cfg, err := finalizeRunConfig(config.Config{Resume: resume, Offline: true, Verbose: true})
	require.NoError(t, err)

	var out bytes.Buffer
	_, err = executeRun(context.Background(), cfg, &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "✓ Upload Resume")
	assert.Contains(t, out.String(), "✓ Career Plan")
}

func TestExecuteRun_UnsupportedResume(t *testing.T) {
	clearRunEnv(t)
	resume := writeResume(t, "resume.doc", "legacy word file")
	cfg, err := finalizeRunConfig(config.Config{Resume: resume, Offline: true})
	require.NoError(t, err)

	_, err = executeRun(context.Background(), cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "stage upload failed")
}

func TestExecuteRun_UnknownChosenPath(t *testing.T) {
	clearRunEnv(t)
	resume := writeResume(t, "resume.txt", "Jane Doe")
	cfg, err := finalizeRunConfig(config.Config{Resume: resume, Offline: true, ChosenPath: "Astronaut"})
	require.NoError(t, err)

	p, err := executeRun(context.Background(), cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "stage paths failed")
	assert.NotNil(t, p.SkillGaps, "earlier stages stay committed")
	assert.Nil(t, p.CareerPaths)
}

func TestWriteProfile_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.json")
	bad := types.Profile{RecommendedJobs: []types.JobCandidate{{ID: "j", Title: "Dev", Score: 140}}}

	err := writeProfile(path, bad)
	assert.ErrorContains(t, err, "schema validation")
	assert.NoFileExists(t, path)
}
