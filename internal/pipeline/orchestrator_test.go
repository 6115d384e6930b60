package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-navigator/internal/profile"
	"github.com/jonathan/career-navigator/internal/stages"
	"github.com/jonathan/career-navigator/internal/types"
)

type fakeExtractor struct {
	text string
	err  error
}

func (f *fakeExtractor) ExtractResumeText(_ context.Context, _ types.ResumeBlob) (string, error) {
	return f.text, f.err
}

type blockingExtractor struct {
	text    string
	started chan struct{}
	release chan struct{}
}

func (b *blockingExtractor) ExtractResumeText(_ context.Context, _ types.ResumeBlob) (string, error) {
	close(b.started)
	<-b.release
	return b.text, nil
}

type fakeAdvisor struct {
	analyze func(ctx context.Context, resumeText string) (*types.SkillAnalysis, error)
	paths   func(ctx context.Context, hint string, gaps []string) ([]types.CareerPathCandidate, error)
	jobs    func(ctx context.Context, goal string, gaps []string) ([]types.JobCandidate, error)
	plan    func(ctx context.Context, goal string, gaps []string, jobs []types.JobCandidate) (string, error)
}

func (f *fakeAdvisor) AnalyzeSkills(ctx context.Context, resumeText string) (*types.SkillAnalysis, error) {
	return f.analyze(ctx, resumeText)
}

func (f *fakeAdvisor) GeneratePaths(ctx context.Context, hint string, gaps []string) ([]types.CareerPathCandidate, error) {
	return f.paths(ctx, hint, gaps)
}

func (f *fakeAdvisor) FetchJobs(ctx context.Context, goal string, gaps []string) ([]types.JobCandidate, error) {
	return f.jobs(ctx, goal, gaps)
}

func (f *fakeAdvisor) GeneratePlan(ctx context.Context, goal string, gaps []string, jobs []types.JobCandidate) (string, error) {
	return f.plan(ctx, goal, gaps, jobs)
}

func newFakeAdvisor() *fakeAdvisor {
	return &fakeAdvisor{
		analyze: func(context.Context, string) (*types.SkillAnalysis, error) {
			return &types.SkillAnalysis{
				Gaps: []string{"GraphQL", "Docker"},
				Categories: []types.SkillCategory{{
					Name: "Frontend",
					Records: []types.SkillRecord{
						{Name: "React", Status: types.SkillStrong, Level: types.IntPtr(90)},
						{Name: "GraphQL", Status: types.SkillMissing},
					},
				}},
			}, nil
		},
		paths: func(context.Context, string, []string) ([]types.CareerPathCandidate, error) {
			return []types.CareerPathCandidate{
				{Title: "DevOps Engineer", RequiredSkills: []string{"Docker", "AWS"}, Score: 99},
				{Title: "Frontend Specialist", RequiredSkills: []string{"React", "TypeScript"}},
				{Title: "Full Stack Developer", RequiredSkills: []string{"React", "GraphQL", "Node.js"}},
			}, nil
		},
		jobs: func(context.Context, string, []string) ([]types.JobCandidate, error) {
			return []types.JobCandidate{
				{ID: "1", Title: "Frontend Developer", Company: "TechCorp", RequiredSkills: []string{"React", "GraphQL"}},
				{ID: "2", Title: "Junior React Developer", Company: "StartupXYZ", RequiredSkills: []string{"React", "JavaScript"}},
			}, nil
		},
		plan: func(_ context.Context, goal string, _ []string, _ []types.JobCandidate) (string, error) {
			return "Plan for " + goal, nil
		},
	}
}

func newTestOrchestrator(adv *fakeAdvisor, opts ...Option) *Orchestrator {
	return New(profile.NewStore(), FromAdvisor(&fakeExtractor{text: "Jane Doe, React developer"}, adv), opts...)
}

func resumeInput() StageInput {
	return StageInput{Resume: &types.ResumeBlob{Filename: "resume.txt", Data: []byte("Jane Doe")}}
}

func TestRun_FullPipeline(t *testing.T) {
	o := newTestOrchestrator(newFakeAdvisor())

	p, err := o.Run(context.Background(), resumeInput())
	require.NoError(t, err)

	assert.Equal(t, "Jane Doe, React developer", *p.ResumeText)
	assert.Equal(t, []string{"GraphQL", "Docker"}, p.SkillGaps)
	require.Len(t, p.CareerPaths, 3)
	assert.Equal(t, "Frontend Specialist", p.CareerPaths[0].Title)
	assert.Equal(t, 100, p.CareerPaths[0].Score)
	assert.Equal(t, "Frontend Specialist", *p.CareerGoal)

	require.Len(t, p.RecommendedJobs, 2)
	assert.Equal(t, "2", p.RecommendedJobs[0].ID)
	assert.Equal(t, 100, p.RecommendedJobs[0].Score)
	assert.Equal(t, "1", p.RecommendedJobs[1].ID)
	assert.Equal(t, 50, p.RecommendedJobs[1].Score)
	assert.Equal(t, []string{"GraphQL"}, p.RecommendedJobs[1].MissingSkills)

	assert.Equal(t, "Plan for Frontend Specialist", *p.CareerPlan)
	assert.Equal(t, stages.Plan, o.Current())
}

func TestRunStage_GeneratorScoresAreIgnored(t *testing.T) {
	o := newTestOrchestrator(newFakeAdvisor())
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)
	_, err = o.RunStage(context.Background(), stages.Skills, StageInput{})
	require.NoError(t, err)

	p, err := o.RunStage(context.Background(), stages.Paths, StageInput{})
	require.NoError(t, err)
	for _, path := range p.CareerPaths {
		if path.Title == "DevOps Engineer" {
			assert.Equal(t, 50, path.Score, "generator supplied 99")
			assert.Equal(t, []string{"Docker"}, path.MissingSkills)
		}
	}
}

func TestRunStage_JobsLockedWithoutCareerGoal(t *testing.T) {
	o := newTestOrchestrator(newFakeAdvisor())

	_, err := o.RunStage(context.Background(), stages.Jobs, StageInput{})
	require.Error(t, err)

	var locked *stages.StageLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, stages.Jobs, locked.Stage)
	assert.Equal(t, types.FieldCareerGoal, locked.MissingField)
}

func TestRunStage_UnknownStage(t *testing.T) {
	o := newTestOrchestrator(newFakeAdvisor())
	_, err := o.RunStage(context.Background(), stages.StageID("interview"), StageInput{})
	var unknown *stages.UnknownStageError
	assert.True(t, errors.As(err, &unknown))
}

func TestRunStage_RerunSkillsDoesNotCascade(t *testing.T) {
	adv := newFakeAdvisor()
	o := newTestOrchestrator(adv)
	before, err := o.Run(context.Background(), resumeInput())
	require.NoError(t, err)

	adv.analyze = func(context.Context, string) (*types.SkillAnalysis, error) {
		return &types.SkillAnalysis{Gaps: []string{"Kubernetes"}}, nil
	}
	after, err := o.RunStage(context.Background(), stages.Skills, StageInput{})
	require.NoError(t, err)

	assert.Equal(t, []string{"Kubernetes"}, after.SkillGaps)
	assert.Equal(t, []types.SkillCategory{}, after.SkillCategories)
	// Downstream fields keep their stale values until their own stage re-runs.
	assert.Equal(t, before.RecommendedJobs, after.RecommendedJobs)
	assert.Equal(t, before.CareerPlan, after.CareerPlan)
	assert.Equal(t, before.CareerPaths, after.CareerPaths)
}

func TestRunStage_GeneratorErrorLeavesProfileUntouched(t *testing.T) {
	adv := newFakeAdvisor()
	adv.analyze = func(context.Context, string) (*types.SkillAnalysis, error) {
		return nil, errors.New("upstream unavailable")
	}
	o := newTestOrchestrator(adv)
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)

	_, err = o.RunStage(context.Background(), stages.Skills, StageInput{})
	var genErr *GeneratorError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, stages.Skills, genErr.Stage)
	assert.Contains(t, err.Error(), "upstream unavailable")
	assert.False(t, o.Profile().IsSet(types.FieldSkillGaps))
}

func TestRunStage_InvalidGeneratorOutput(t *testing.T) {
	adv := newFakeAdvisor()
	adv.analyze = func(context.Context, string) (*types.SkillAnalysis, error) {
		return &types.SkillAnalysis{
			Gaps: []string{"GraphQL"},
			Categories: []types.SkillCategory{{
				Name:    "Backend",
				Records: []types.SkillRecord{{Name: "GraphQL", Status: types.SkillMissing, Level: types.IntPtr(20)}},
			}},
		}, nil
	}
	o := newTestOrchestrator(adv)
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)

	_, err = o.RunStage(context.Background(), stages.Skills, StageInput{})
	var genErr *GeneratorError
	require.True(t, errors.As(err, &genErr))
	var ve *types.ValidationError
	assert.True(t, errors.As(err, &ve))
}

func TestRunStage_Timeout(t *testing.T) {
	adv := newFakeAdvisor()
	adv.analyze = func(ctx context.Context, _ string) (*types.SkillAnalysis, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	o := newTestOrchestrator(adv)
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = o.RunStage(ctx, stages.Skills, StageInput{})

	var genErr *GeneratorError
	require.True(t, errors.As(err, &genErr))
	assert.ErrorIs(t, err, ErrGeneratorTimeout)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestWithStageTimeout(t *testing.T) {
	adv := newFakeAdvisor()
	adv.analyze = func(ctx context.Context, _ string) (*types.SkillAnalysis, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	o := newTestOrchestrator(adv, WithStageTimeout(20*time.Millisecond))

	p, err := o.Run(context.Background(), resumeInput())
	assert.ErrorIs(t, err, ErrGeneratorTimeout)
	assert.ErrorContains(t, err, "stage skills failed")
	assert.NotNil(t, p.ResumeText, "upload stays merged")
	assert.Nil(t, p.SkillGaps)
}

func TestRunStage_NewInvocationCancelsPending(t *testing.T) {
	adv := newFakeAdvisor()
	started := make(chan struct{})
	var calls int
	var mu sync.Mutex
	adv.analyze = func(ctx context.Context, _ string) (*types.SkillAnalysis, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			close(started)
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &types.SkillAnalysis{Gaps: []string{"second"}}, nil
	}
	o := newTestOrchestrator(adv)
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)

	first := o.RunStageAsync(context.Background(), stages.Skills, StageInput{})
	<-started

	p, err := o.RunStage(context.Background(), stages.Skills, StageInput{})
	require.NoError(t, err)
	assert.Equal(t, []string{"second"}, p.SkillGaps)

	res := <-first
	assert.ErrorIs(t, res.Err, ErrSuperseded)
	assert.Equal(t, []string{"second"}, o.Profile().SkillGaps)
}

func TestRunStage_StaleResultIsDropped(t *testing.T) {
	adv := newFakeAdvisor()
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	adv.analyze = func(_ context.Context, _ string) (*types.SkillAnalysis, error) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 1 {
			// Ignores cancellation and finishes after the newer call.
			close(started)
			<-release
			return &types.SkillAnalysis{Gaps: []string{"first"}}, nil
		}
		return &types.SkillAnalysis{Gaps: []string{"second"}}, nil
	}
	o := newTestOrchestrator(adv)
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)

	first := o.RunStageAsync(context.Background(), stages.Skills, StageInput{})
	<-started
	_, err = o.RunStage(context.Background(), stages.Skills, StageInput{})
	require.NoError(t, err)

	close(release)
	res := <-first
	assert.ErrorIs(t, res.Err, ErrSuperseded)
	assert.Equal(t, []string{"second"}, o.Profile().SkillGaps)
}

func TestRunStage_ChosenPath(t *testing.T) {
	o := newTestOrchestrator(newFakeAdvisor())
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)
	_, err = o.RunStage(context.Background(), stages.Skills, StageInput{})
	require.NoError(t, err)

	_, err = o.RunStage(context.Background(), stages.Paths, StageInput{ChosenPath: "Data Scientist"})
	assert.ErrorIs(t, err, ErrUnknownPath)
	assert.False(t, o.Profile().IsSet(types.FieldCareerPaths))

	p, err := o.RunStage(context.Background(), stages.Paths, StageInput{ChosenPath: "devops engineer"})
	require.NoError(t, err)
	assert.Equal(t, "DevOps Engineer", *p.CareerGoal)
	assert.Equal(t, stages.Jobs, o.Current())
}

func TestRunStage_PathHintFallsBackToGoal(t *testing.T) {
	adv := newFakeAdvisor()
	var hints []string
	basePaths := adv.paths
	adv.paths = func(ctx context.Context, hint string, gaps []string) ([]types.CareerPathCandidate, error) {
		hints = append(hints, hint)
		return basePaths(ctx, hint, gaps)
	}
	o := newTestOrchestrator(adv)
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)
	_, err = o.RunStage(context.Background(), stages.Skills, StageInput{})
	require.NoError(t, err)

	_, err = o.RunStage(context.Background(), stages.Paths, StageInput{})
	require.NoError(t, err)
	_, err = o.RunStage(context.Background(), stages.Paths, StageInput{})
	require.NoError(t, err)
	_, err = o.RunStage(context.Background(), stages.Paths, StageInput{CareerGoalHint: "Platform"})
	require.NoError(t, err)

	assert.Equal(t, []string{"", "Frontend Specialist", "Platform"}, hints)
}

func TestChoosePath(t *testing.T) {
	o := newTestOrchestrator(newFakeAdvisor())
	_, err := o.ChoosePath("DevOps Engineer")
	var locked *stages.StageLockedError
	require.True(t, errors.As(err, &locked))

	_, err = o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)
	_, err = o.RunStage(context.Background(), stages.Skills, StageInput{})
	require.NoError(t, err)
	_, err = o.RunStage(context.Background(), stages.Paths, StageInput{})
	require.NoError(t, err)

	p, err := o.ChoosePath("Full Stack Developer")
	require.NoError(t, err)
	assert.Equal(t, "Full Stack Developer", *p.CareerGoal)

	_, err = o.ChoosePath("Astronaut")
	assert.ErrorIs(t, err, ErrUnknownPath)
}

func TestRunStage_PathsOlderThanChosenPathAreDropped(t *testing.T) {
	adv := newFakeAdvisor()
	var mu sync.Mutex
	var statuses []string
	o := newTestOrchestrator(adv, WithProgress(func(e ProgressEvent) {
		if e.Stage != stages.Paths {
			return
		}
		mu.Lock()
		statuses = append(statuses, e.Status)
		mu.Unlock()
	}))
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)
	_, err = o.RunStage(context.Background(), stages.Skills, StageInput{})
	require.NoError(t, err)
	_, err = o.RunStage(context.Background(), stages.Paths, StageInput{})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	adv.paths = func(context.Context, string, []string) ([]types.CareerPathCandidate, error) {
		close(started)
		<-release
		return []types.CareerPathCandidate{{Title: "Data Scientist", RequiredSkills: []string{"Python"}}}, nil
	}
	mu.Lock()
	statuses = nil
	mu.Unlock()

	pending := o.RunStageAsync(context.Background(), stages.Paths, StageInput{})
	<-started
	_, err = o.ChoosePath("Full Stack Developer")
	require.NoError(t, err)

	close(release)
	res := <-pending
	assert.ErrorIs(t, res.Err, ErrSuperseded)

	mu.Lock()
	assert.Equal(t, []string{StatusStarted, StatusDropped}, statuses)
	mu.Unlock()

	p := o.Profile()
	assert.Equal(t, "Full Stack Developer", *p.CareerGoal)
	for _, path := range p.CareerPaths {
		assert.NotEqual(t, "Data Scientist", path.Title)
	}
}

func TestRunStage_JobIDs(t *testing.T) {
	adv := newFakeAdvisor()
	adv.jobs = func(context.Context, string, []string) ([]types.JobCandidate, error) {
		return []types.JobCandidate{{Title: "Developer"}, {Title: "Engineer"}}, nil
	}
	o := newTestOrchestrator(adv)
	p, err := o.Run(context.Background(), resumeInput())
	require.NoError(t, err)
	require.Len(t, p.RecommendedJobs, 2)
	assert.NotEmpty(t, p.RecommendedJobs[0].ID)
	assert.NotEqual(t, p.RecommendedJobs[0].ID, p.RecommendedJobs[1].ID)

	adv.jobs = func(context.Context, string, []string) ([]types.JobCandidate, error) {
		return []types.JobCandidate{{ID: "x", Title: "A"}, {ID: "x", Title: "B"}}, nil
	}
	_, err = o.RunStage(context.Background(), stages.Jobs, StageInput{})
	var genErr *GeneratorError
	require.True(t, errors.As(err, &genErr))
	assert.Equal(t, stages.Jobs, genErr.Stage)
}

func TestRunStage_UploadRequiresFile(t *testing.T) {
	o := newTestOrchestrator(newFakeAdvisor())
	_, err := o.RunStage(context.Background(), stages.Upload, StageInput{})
	assert.ErrorIs(t, err, ErrMissingResume)
}

func TestRunStage_UploadWithoutFileKeepsPendingUpload(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	ext := &blockingExtractor{text: "Jane Doe, React developer", started: started, release: release}
	o := New(profile.NewStore(), FromAdvisor(ext, newFakeAdvisor()))

	first := o.RunStageAsync(context.Background(), stages.Upload, resumeInput())
	<-started

	_, err := o.RunStage(context.Background(), stages.Upload, StageInput{})
	assert.ErrorIs(t, err, ErrMissingResume)

	close(release)
	res := <-first
	require.NoError(t, res.Err)
	assert.Equal(t, "Jane Doe, React developer", *o.Profile().ResumeText)
	assert.Equal(t, stages.Skills, o.Current())
}

func TestRunStage_UploadIsIdempotent(t *testing.T) {
	o := newTestOrchestrator(newFakeAdvisor())
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)
	_, err = o.RunStage(context.Background(), stages.Upload, resumeInput())
	assert.NoError(t, err)
}

func TestRunStage_MissingGenerator(t *testing.T) {
	o := New(profile.NewStore(), Generators{Extractor: &fakeExtractor{text: "resume"}})
	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)

	_, err = o.RunStage(context.Background(), stages.Skills, StageInput{})
	assert.ErrorIs(t, err, ErrNoGenerator)
}

func TestProgressEvents(t *testing.T) {
	var events []ProgressEvent
	o := newTestOrchestrator(newFakeAdvisor(), WithProgress(func(e ProgressEvent) {
		events = append(events, e)
	}))

	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, StatusStarted, events[0].Status)
	assert.Equal(t, StatusCompleted, events[1].Status)
	assert.Equal(t, stages.Upload, events[1].Stage)
	assert.Equal(t, events[0].Epoch, events[1].Epoch)
}

func TestProgressEvents_MultipleCallbacks(t *testing.T) {
	var order []string
	o := newTestOrchestrator(newFakeAdvisor(),
		WithProgress(func(e ProgressEvent) { order = append(order, "first:"+e.Status) }),
		WithProgress(nil),
		WithProgress(func(e ProgressEvent) { order = append(order, "second:"+e.Status) }),
	)

	_, err := o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"first:started", "second:started",
		"first:completed", "second:completed",
	}, order)
}

func TestReset(t *testing.T) {
	o := newTestOrchestrator(newFakeAdvisor())
	_, err := o.Run(context.Background(), resumeInput())
	require.NoError(t, err)

	var notified []types.Profile
	o.Subscribe(func(p types.Profile) { notified = append(notified, p) })

	p := o.Reset()
	assert.Equal(t, types.Profile{}, p)
	assert.Equal(t, stages.Upload, o.Current())
	assert.Equal(t, []stages.StageID{stages.Upload}, o.ReachableStages())
	assert.Len(t, notified, 1)

	// A new resume can be uploaded after reset.
	o.gen.Extractor = &fakeExtractor{text: "another resume"}
	p, err = o.RunStage(context.Background(), stages.Upload, resumeInput())
	require.NoError(t, err)
	assert.Equal(t, "another resume", *p.ResumeText)
}

func TestStartAt(t *testing.T) {
	store := profile.NewStore()
	_, err := store.Merge(types.Patch{
		ResumeText: types.StringPtr("resume"),
		SkillGaps:  []string{"Docker"},
	})
	require.NoError(t, err)

	o := New(store, Generators{}, StartAt(stages.Paths))
	assert.Equal(t, stages.Paths, o.Current())

	// A position the profile cannot reach falls back to the furthest reachable stage.
	o = New(store, Generators{}, StartAt(stages.Plan))
	assert.Equal(t, stages.Paths, o.Current())

	o = New(store, Generators{}, StartAt("interview"))
	assert.Equal(t, stages.Upload, o.Current())
}
