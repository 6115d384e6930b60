package stages

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-navigator/internal/types"
)

func TestRegistry(t *testing.T) {
	for _, id := range Order {
		def, ok := Registry[id]
		require.True(t, ok, "stage %s should be in registry", id)
		assert.Equal(t, id, def.ID)
		assert.NotEmpty(t, def.Label)
		assert.NotEmpty(t, def.Produces)
	}
	assert.Len(t, Registry, len(Order))
	assert.Empty(t, Registry[Plan].Next)
}

func TestReachable(t *testing.T) {
	tests := []struct {
		name     string
		profile  types.Profile
		expected []StageID
	}{
		{"empty profile", types.Profile{}, []StageID{Upload}},
		{"resume only", types.Profile{ResumeText: types.StringPtr("r")}, []StageID{Upload, Skills}},
		{
			"empty gaps still unlock paths",
			types.Profile{ResumeText: types.StringPtr("r"), SkillGaps: []string{}},
			[]StageID{Upload, Skills, Paths},
		},
		{
			"field presence only, no sequence",
			types.Profile{CareerGoal: types.StringPtr("goal")},
			[]StageID{Upload, Jobs},
		},
		{
			"everything set",
			types.Profile{
				ResumeText:      types.StringPtr("r"),
				SkillGaps:       []string{"GraphQL"},
				CareerGoal:      types.StringPtr("goal"),
				RecommendedJobs: []types.JobCandidate{},
				CareerPlan:      types.StringPtr("plan"),
			},
			[]StageID{Upload, Skills, Paths, Jobs, Plan},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Reachable(tt.profile))
		})
	}
}

func TestCheck_Locked(t *testing.T) {
	p := types.Profile{ResumeText: types.StringPtr("r"), SkillGaps: []string{"Docker"}}

	err := Check(p, Jobs)
	require.Error(t, err)
	var locked *StageLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, Jobs, locked.Stage)
	assert.Equal(t, types.FieldCareerGoal, locked.MissingField)
	assert.Contains(t, err.Error(), "careerGoal")

	assert.NoError(t, Check(p, Paths))
	assert.NoError(t, Check(types.Profile{}, Upload))
}

func TestCheck_UnknownStage(t *testing.T) {
	err := Check(types.Profile{}, StageID("interview"))
	var unknown *UnknownStageError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "interview", unknown.Stage)
}

func TestParse(t *testing.T) {
	id, err := Parse("jobs")
	require.NoError(t, err)
	assert.Equal(t, Jobs, id)

	_, err = Parse("JOBS")
	assert.Error(t, err)
}

func TestFurthest(t *testing.T) {
	assert.Equal(t, Upload, Furthest(types.Profile{}))
	assert.Equal(t, Paths, Furthest(types.Profile{ResumeText: types.StringPtr("r"), SkillGaps: []string{}}))
}
