// Package profile holds the single mutable career profile for a session and
// funnels every mutation through an atomic, epoch-aware merge.
package profile

import (
	"fmt"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/jonathan/career-navigator/internal/types"
)

// Listener is notified with a snapshot after every committed change
type Listener func(types.Profile)

// MergeOption configures a single Merge call
type MergeOption func(*mergeOptions)

type mergeOptions struct {
	overwrite bool
	epoch     uint64
	discarded *bool
}

// WithOverwrite allows the merge to replace fields that are already set.
// Used only when regenerating a stage's output.
func WithOverwrite() MergeOption {
	return func(o *mergeOptions) { o.overwrite = true }
}

// WithEpoch tags the merge with the request epoch of the generator call that
// produced it. Zero means untagged.
func WithEpoch(epoch uint64) MergeOption {
	return func(o *mergeOptions) { o.epoch = epoch }
}

// ReportDiscard sets *discarded to true when the merge is dropped because a
// newer epoch already committed one of its fields.
func ReportDiscard(discarded *bool) MergeOption {
	return func(o *mergeOptions) { o.discarded = discarded }
}

// Store owns the profile. It is safe for concurrent use.
type Store struct {
	mu        sync.Mutex
	profile   types.Profile
	epochs    map[types.ProfileField]uint64
	listeners []listenerEntry
	nextID    int
	check     func(types.Profile) error
}

type listenerEntry struct {
	id int
	fn Listener
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		epochs: make(map[types.ProfileField]uint64),
		check:  validateProfile,
	}
}

// Get returns a snapshot of the current profile
func (s *Store) Get() types.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile.Clone()
}

// Merge applies the patch as a field-wise union. Either every supplied field is
// committed or none is. Fields that are already set are rejected with a
// StaleWriteError unless WithOverwrite is given. A tagged merge older than the
// last committed epoch of any supplied field is discarded without error; use
// ReportDiscard to observe it.
func (s *Store) Merge(patch types.Patch, opts ...MergeOption) (types.Profile, error) {
	var o mergeOptions
	for _, opt := range opts {
		opt(&o)
	}

	fields := patch.Fields()

	s.mu.Lock()
	if len(fields) == 0 {
		snapshot := s.profile.Clone()
		s.mu.Unlock()
		return snapshot, nil
	}

	if o.epoch > 0 {
		for _, field := range fields {
			if last := s.epochs[field]; o.epoch < last {
				snapshot := s.profile.Clone()
				s.mu.Unlock()
				log.Debug().
					Str("field", string(field)).
					Uint64("epoch", o.epoch).
					Uint64("committed_epoch", last).
					Msg("discarding stale merge")
				if o.discarded != nil {
					*o.discarded = true
				}
				return snapshot, nil
			}
		}
	}

	if conflicts := s.conflicts(patch, fields, o.overwrite); len(conflicts) > 0 {
		snapshot := s.profile.Clone()
		s.mu.Unlock()
		err := &StaleWriteError{Fields: conflicts}
		log.Warn().Err(err).Msg("rejected merge onto set fields")
		return snapshot, err
	}

	next := s.profile.Clone()
	applyPatch(&next, patch)
	if err := s.check(next); err != nil {
		snapshot := s.profile.Clone()
		s.mu.Unlock()
		return snapshot, fmt.Errorf("merge rejected: %w", err)
	}

	s.profile = next
	if o.epoch > 0 {
		for _, field := range fields {
			s.epochs[field] = o.epoch
		}
	}
	snapshot := s.profile.Clone()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	notify(listeners, snapshot)
	return snapshot, nil
}

// Reset restores every field to unset. Epoch watermarks are kept so results
// from invocations started before the reset cannot overwrite newer ones.
func (s *Store) Reset() types.Profile {
	s.mu.Lock()
	s.profile = types.Profile{}
	snapshot := s.profile.Clone()
	listeners := slices.Clone(s.listeners)
	s.mu.Unlock()

	notify(listeners, snapshot)
	return snapshot
}

// Subscribe registers a listener and returns a function that removes it
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, listenerEntry{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.listeners = slices.DeleteFunc(s.listeners, func(e listenerEntry) bool {
				return e.id == id
			})
		})
	}
}

// conflicts returns the supplied fields that may not be written.
// ResumeText is immutable: even an overwrite must carry the same text.
func (s *Store) conflicts(patch types.Patch, fields []types.ProfileField, overwrite bool) []types.ProfileField {
	var out []types.ProfileField
	for _, field := range fields {
		if !s.profile.IsSet(field) {
			continue
		}
		if field == types.FieldResumeText {
			if *s.profile.ResumeText != *patch.ResumeText {
				out = append(out, field)
			}
			continue
		}
		if !overwrite {
			out = append(out, field)
		}
	}
	return out
}

func applyPatch(p *types.Profile, patch types.Patch) {
	patched := types.Profile{
		ResumeText:      patch.ResumeText,
		CareerGoal:      patch.CareerGoal,
		SkillGaps:       patch.SkillGaps,
		RecommendedJobs: patch.RecommendedJobs,
		CareerPlan:      patch.CareerPlan,
		SkillCategories: patch.SkillCategories,
		CareerPaths:     patch.CareerPaths,
	}.Clone()

	if patched.ResumeText != nil {
		p.ResumeText = patched.ResumeText
	}
	if patched.CareerGoal != nil {
		p.CareerGoal = patched.CareerGoal
	}
	if patched.SkillGaps != nil {
		p.SkillGaps = patched.SkillGaps
	}
	if patched.RecommendedJobs != nil {
		p.RecommendedJobs = patched.RecommendedJobs
	}
	if patched.CareerPlan != nil {
		p.CareerPlan = patched.CareerPlan
	}
	if patched.SkillCategories != nil {
		p.SkillCategories = patched.SkillCategories
	}
	if patched.CareerPaths != nil {
		p.CareerPaths = patched.CareerPaths
	}
}

func notify(listeners []listenerEntry, snapshot types.Profile) {
	for _, l := range listeners {
		l.fn(snapshot.Clone())
	}
}

// validateProfile checks every stored candidate and category
func validateProfile(p types.Profile) error {
	if err := types.ValidateJobs(p.RecommendedJobs); err != nil {
		return err
	}
	if err := types.ValidatePaths(p.CareerPaths); err != nil {
		return err
	}
	return types.ValidateCategories(p.SkillCategories)
}
