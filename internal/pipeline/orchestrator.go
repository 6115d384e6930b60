// Package pipeline sequences the career-planning stages: it enforces the stage
// gate, calls the external generators, derives scores, and merges results into
// the profile store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/career-navigator/internal/matching"
	"github.com/jonathan/career-navigator/internal/profile"
	"github.com/jonathan/career-navigator/internal/ranking"
	"github.com/jonathan/career-navigator/internal/stages"
	"github.com/jonathan/career-navigator/internal/types"
)

// StageInput carries caller-supplied input for a stage
type StageInput struct {
	// Resume is required by UPLOAD
	Resume *types.ResumeBlob `json:"resume,omitempty"`
	// CareerGoalHint steers PATHS. Defaults to the current career goal.
	CareerGoalHint string `json:"career_goal_hint,omitempty"`
	// ChosenPath selects the career goal among the generated paths.
	// Defaults to the top-ranked path.
	ChosenPath string `json:"chosen_path,omitempty"`
}

// StageResult is delivered by RunStageAsync
type StageResult struct {
	Stage   stages.StageID
	Profile types.Profile
	Err     error
}

// Option configures an Orchestrator
type Option func(*Orchestrator)

// WithProgress registers a progress callback. It may be given more than once;
// callbacks run in registration order.
func WithProgress(cb ProgressCallback) Option {
	return func(o *Orchestrator) {
		if cb != nil {
			o.onProgress = append(o.onProgress, cb)
		}
	}
}

// StartAt positions the state machine at the stage. Used when a session is
// restored from a saved profile.
func StartAt(stage stages.StageID) Option {
	return func(o *Orchestrator) {
		if _, ok := stages.Registry[stage]; ok {
			o.current = stage
		}
	}
}

// WithStageTimeout bounds every generator call. Zero leaves calls bounded only
// by the caller's context.
func WithStageTimeout(d time.Duration) Option {
	return func(o *Orchestrator) { o.stageTimeout = d }
}

type invocation struct {
	epoch  uint64
	cancel context.CancelFunc
}

// Orchestrator runs stages against one profile store
type Orchestrator struct {
	store      *profile.Store
	gen        Generators
	onProgress []ProgressCallback
	// stageTimeout bounds each generator call when positive
	stageTimeout time.Duration

	epoch atomic.Uint64

	mu      sync.Mutex
	pending map[stages.StageID]*invocation
	current stages.StageID
}

// New creates an orchestrator over the store
func New(store *profile.Store, gen Generators, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:   store,
		gen:     gen,
		pending: make(map[stages.StageID]*invocation),
		current: stages.Upload,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Profile returns a snapshot of the current profile
func (o *Orchestrator) Profile() types.Profile {
	return o.store.Get()
}

// ReachableStages returns the stages the current profile unlocks
func (o *Orchestrator) ReachableStages() []stages.StageID {
	return stages.Reachable(o.store.Get())
}

// Subscribe registers a listener for profile changes
func (o *Orchestrator) Subscribe(fn profile.Listener) (unsubscribe func()) {
	return o.store.Subscribe(fn)
}

// Current returns the stage the state machine is positioned at. If direct
// profile changes have locked that stage, the furthest reachable stage is returned.
func (o *Orchestrator) Current() stages.StageID {
	o.mu.Lock()
	current := o.current
	o.mu.Unlock()

	p := o.store.Get()
	if stages.Check(p, current) != nil {
		return stages.Furthest(p)
	}
	return current
}

// Reset cancels every pending invocation and clears the profile
func (o *Orchestrator) Reset() types.Profile {
	o.mu.Lock()
	for stage, inv := range o.pending {
		inv.cancel()
		delete(o.pending, stage)
	}
	o.current = stages.Upload
	o.mu.Unlock()

	log.Info().Msg("profile reset")
	return o.store.Reset()
}

// RunStageAsync runs the stage in a goroutine and delivers the result on the
// returned channel, which is closed after one value
func (o *Orchestrator) RunStageAsync(ctx context.Context, stage stages.StageID, in StageInput) <-chan StageResult {
	out := make(chan StageResult, 1)
	go func() {
		defer close(out)
		p, err := o.RunStage(ctx, stage, in)
		out <- StageResult{Stage: stage, Profile: p, Err: err}
	}()
	return out
}

// RunStage gates, generates, scores, and merges one stage. Running a stage
// whose output is already set recomputes it; downstream fields are left as they are.
func (o *Orchestrator) RunStage(ctx context.Context, stage stages.StageID, in StageInput) (types.Profile, error) {
	if _, ok := stages.Registry[stage]; !ok {
		return o.store.Get(), &stages.UnknownStageError{Stage: string(stage)}
	}
	// Invalid input must not cancel a pending run of the same stage
	if err := checkInput(stage, in); err != nil {
		return o.store.Get(), err
	}

	// Register before snapshotting: the snapshot must include any earlier run
	// of this stage that already merged.
	epoch, callCtx, done := o.begin(ctx, stage)
	defer done()

	snapshot := o.store.Get()
	if err := stages.Check(snapshot, stage); err != nil {
		return snapshot, err
	}
	def := stages.Registry[stage]

	overwrite := false
	for _, field := range def.Produces {
		if snapshot.IsSet(field) {
			overwrite = true
		}
	}

	logger := log.With().Str("stage", string(stage)).Uint64("epoch", epoch).Logger()
	logger.Debug().Bool("overwrite", overwrite).Msg("running stage")
	o.emitProgress(stage, StatusStarted, epoch, fmt.Sprintf("Running %s", def.Label), nil)

	patch, err := o.execute(callCtx, stage, snapshot, in)
	if err == nil && o.superseded(stage, epoch) {
		err = ErrSuperseded
	}
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() == nil {
			err = ErrSuperseded
		}
		if errors.Is(err, ErrSuperseded) {
			logger.Debug().Msg("dropping superseded result")
			o.emitProgress(stage, StatusDropped, epoch, "Superseded by a newer run", nil)
			return o.store.Get(), err
		}
		logger.Warn().Err(err).Msg("stage failed")
		o.emitProgress(stage, StatusFailed, epoch, err.Error(), nil)
		return o.store.Get(), err
	}

	var discarded bool
	mergeOpts := []profile.MergeOption{profile.WithEpoch(epoch), profile.ReportDiscard(&discarded)}
	if overwrite {
		mergeOpts = append(mergeOpts, profile.WithOverwrite())
	}
	p, err := o.store.Merge(patch, mergeOpts...)
	if err != nil {
		o.emitProgress(stage, StatusFailed, epoch, err.Error(), nil)
		return p, err
	}
	if discarded {
		logger.Debug().Msg("dropping result older than a committed change")
		o.emitProgress(stage, StatusDropped, epoch, "Superseded by a newer change", nil)
		return p, ErrSuperseded
	}

	o.advance(stage)
	logger.Info().Msg("stage completed")
	o.emitProgress(stage, StatusCompleted, epoch, summarize(stage, p), p)
	return p, nil
}

// ChoosePath sets the career goal to one of the stored career paths without
// regenerating them
func (o *Orchestrator) ChoosePath(title string) (types.Profile, error) {
	snapshot := o.store.Get()
	if err := stages.Check(snapshot, stages.Paths); err != nil {
		return snapshot, err
	}
	chosen, ok := findPath(snapshot.CareerPaths, title)
	if !ok {
		return snapshot, fmt.Errorf("%w: %q", ErrUnknownPath, title)
	}

	epoch := o.epoch.Add(1)
	p, err := o.store.Merge(types.Patch{CareerGoal: types.StringPtr(chosen.Title)},
		profile.WithEpoch(epoch), profile.WithOverwrite())
	if err != nil {
		return p, err
	}
	o.advance(stages.Paths)
	return p, nil
}

// Run executes every stage in order from UPLOAD to PLAN and stops at the
// first failure. Stages completed before it stay merged.
func (o *Orchestrator) Run(ctx context.Context, in StageInput) (types.Profile, error) {
	var p types.Profile
	for _, stage := range stages.Order {
		var err error
		p, err = o.RunStage(ctx, stage, in)
		if err != nil {
			return p, fmt.Errorf("stage %s failed: %w", stage, err)
		}
	}
	return p, nil
}

// begin registers a new invocation for the stage, cancelling any pending one
func (o *Orchestrator) begin(ctx context.Context, stage stages.StageID) (uint64, context.Context, func()) {
	var (
		callCtx context.Context
		cancel  context.CancelFunc
	)
	if o.stageTimeout > 0 {
		callCtx, cancel = context.WithTimeout(ctx, o.stageTimeout)
	} else {
		callCtx, cancel = context.WithCancel(ctx)
	}

	o.mu.Lock()
	if prev, ok := o.pending[stage]; ok {
		prev.cancel()
	}
	epoch := o.epoch.Add(1)
	o.pending[stage] = &invocation{epoch: epoch, cancel: cancel}
	o.mu.Unlock()

	return epoch, callCtx, func() {
		o.mu.Lock()
		if inv, ok := o.pending[stage]; ok && inv.epoch == epoch {
			delete(o.pending, stage)
		}
		o.mu.Unlock()
		cancel()
	}
}

func (o *Orchestrator) superseded(stage stages.StageID, epoch uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	inv, ok := o.pending[stage]
	return !ok || inv.epoch != epoch
}

func (o *Orchestrator) advance(stage stages.StageID) {
	next := stages.Registry[stage].Next
	if next == "" {
		next = stage
	}
	o.mu.Lock()
	o.current = next
	o.mu.Unlock()
}

func (o *Orchestrator) execute(ctx context.Context, stage stages.StageID, snapshot types.Profile, in StageInput) (types.Patch, error) {
	switch stage {
	case stages.Upload:
		return o.runUpload(ctx, in)
	case stages.Skills:
		return o.runSkills(ctx, snapshot)
	case stages.Paths:
		return o.runPaths(ctx, snapshot, in)
	case stages.Jobs:
		return o.runJobs(ctx, snapshot)
	case stages.Plan:
		return o.runPlan(ctx, snapshot)
	default:
		return types.Patch{}, &stages.UnknownStageError{Stage: string(stage)}
	}
}

// checkInput validates the caller-supplied input for a stage
func checkInput(stage stages.StageID, in StageInput) error {
	if stage == stages.Upload && (in.Resume == nil || len(in.Resume.Data) == 0) {
		return ErrMissingResume
	}
	return nil
}

func (o *Orchestrator) runUpload(ctx context.Context, in StageInput) (types.Patch, error) {
	if err := checkInput(stages.Upload, in); err != nil {
		return types.Patch{}, err
	}
	if o.gen.Extractor == nil {
		return types.Patch{}, generatorError(stages.Upload, ErrNoGenerator)
	}
	text, err := o.gen.Extractor.ExtractResumeText(ctx, *in.Resume)
	if err != nil {
		return types.Patch{}, generatorError(stages.Upload, err)
	}
	if strings.TrimSpace(text) == "" {
		return types.Patch{}, generatorError(stages.Upload, errors.New("extracted resume text is empty"))
	}
	return types.Patch{ResumeText: types.StringPtr(text)}, nil
}

func (o *Orchestrator) runSkills(ctx context.Context, snapshot types.Profile) (types.Patch, error) {
	if o.gen.Analyzer == nil {
		return types.Patch{}, generatorError(stages.Skills, ErrNoGenerator)
	}
	analysis, err := o.gen.Analyzer.AnalyzeSkills(ctx, *snapshot.ResumeText)
	if err != nil {
		return types.Patch{}, generatorError(stages.Skills, err)
	}
	if analysis == nil {
		return types.Patch{}, generatorError(stages.Skills, errors.New("empty skill analysis"))
	}
	if err := analysis.Validate(); err != nil {
		return types.Patch{}, generatorError(stages.Skills, err)
	}

	gaps := analysis.Gaps
	if gaps == nil {
		gaps = []string{}
	}
	categories := analysis.Categories
	if categories == nil {
		categories = []types.SkillCategory{}
	}
	return types.Patch{SkillGaps: gaps, SkillCategories: categories}, nil
}

func (o *Orchestrator) runPaths(ctx context.Context, snapshot types.Profile, in StageInput) (types.Patch, error) {
	if o.gen.Paths == nil {
		return types.Patch{}, generatorError(stages.Paths, ErrNoGenerator)
	}
	hint := in.CareerGoalHint
	if hint == "" && snapshot.CareerGoal != nil {
		hint = *snapshot.CareerGoal
	}

	paths, err := o.gen.Paths.GeneratePaths(ctx, hint, snapshot.SkillGaps)
	if err != nil {
		return types.Patch{}, generatorError(stages.Paths, err)
	}
	for i := range paths {
		paths[i].Score = matching.Score(paths[i].RequiredSkills, snapshot.SkillGaps)
		paths[i].MissingSkills = matching.MissingSkills(paths[i].RequiredSkills, snapshot.SkillGaps)
	}
	if err := types.ValidatePaths(paths); err != nil {
		return types.Patch{}, generatorError(stages.Paths, err)
	}
	ranked := ranking.RankPaths(paths)

	patch := types.Patch{CareerPaths: ranked}
	switch {
	case in.ChosenPath != "":
		chosen, ok := findPath(ranked, in.ChosenPath)
		if !ok {
			return types.Patch{}, fmt.Errorf("%w: %q", ErrUnknownPath, in.ChosenPath)
		}
		patch.CareerGoal = types.StringPtr(chosen.Title)
	case len(ranked) > 0:
		patch.CareerGoal = types.StringPtr(ranked[0].Title)
	}
	return patch, nil
}

func (o *Orchestrator) runJobs(ctx context.Context, snapshot types.Profile) (types.Patch, error) {
	if o.gen.Jobs == nil {
		return types.Patch{}, generatorError(stages.Jobs, ErrNoGenerator)
	}
	jobs, err := o.gen.Jobs.FetchJobs(ctx, *snapshot.CareerGoal, snapshot.SkillGaps)
	if err != nil {
		return types.Patch{}, generatorError(stages.Jobs, err)
	}
	for i := range jobs {
		if jobs[i].ID == "" {
			jobs[i].ID = uuid.NewString()
		}
		jobs[i].Score = matching.Score(jobs[i].RequiredSkills, snapshot.SkillGaps)
		jobs[i].MissingSkills = matching.MissingSkills(jobs[i].RequiredSkills, snapshot.SkillGaps)
	}
	if err := types.ValidateJobs(jobs); err != nil {
		return types.Patch{}, generatorError(stages.Jobs, err)
	}
	return types.Patch{RecommendedJobs: ranking.RankJobs(jobs)}, nil
}

func (o *Orchestrator) runPlan(ctx context.Context, snapshot types.Profile) (types.Patch, error) {
	if o.gen.Planner == nil {
		return types.Patch{}, generatorError(stages.Plan, ErrNoGenerator)
	}
	goal := ""
	if snapshot.CareerGoal != nil {
		goal = *snapshot.CareerGoal
	}
	plan, err := o.gen.Planner.GeneratePlan(ctx, goal, snapshot.SkillGaps, snapshot.RecommendedJobs)
	if err != nil {
		return types.Patch{}, generatorError(stages.Plan, err)
	}
	if strings.TrimSpace(plan) == "" {
		return types.Patch{}, generatorError(stages.Plan, errors.New("empty career plan"))
	}
	return types.Patch{CareerPlan: types.StringPtr(plan)}, nil
}

// generatorError wraps a collaborator failure. Deadline expiry is marked with ErrGeneratorTimeout.
func generatorError(stage stages.StageID, err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", ErrGeneratorTimeout, err)
	}
	return &GeneratorError{Stage: stage, Cause: err}
}

func findPath(paths []types.CareerPathCandidate, title string) (types.CareerPathCandidate, bool) {
	for _, p := range paths {
		if strings.EqualFold(p.Title, strings.TrimSpace(title)) {
			return p, true
		}
	}
	return types.CareerPathCandidate{}, false
}

func summarize(stage stages.StageID, p types.Profile) string {
	switch stage {
	case stages.Upload:
		if p.ResumeText != nil {
			return fmt.Sprintf("Extracted %d characters of resume text", len(*p.ResumeText))
		}
	case stages.Skills:
		return fmt.Sprintf("Found %d skill gaps across %d categories", len(p.SkillGaps), len(p.SkillCategories))
	case stages.Paths:
		if p.CareerGoal != nil {
			return fmt.Sprintf("Ranked %d career paths, goal: %s", len(p.CareerPaths), *p.CareerGoal)
		}
		return fmt.Sprintf("Ranked %d career paths", len(p.CareerPaths))
	case stages.Jobs:
		return fmt.Sprintf("Matched %d jobs", len(p.RecommendedJobs))
	case stages.Plan:
		return "Generated career plan"
	}
	return ""
}
