package server

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/career-navigator/internal/db"
	"github.com/jonathan/career-navigator/internal/events"
	"github.com/jonathan/career-navigator/internal/pipeline"
	"github.com/jonathan/career-navigator/internal/profile"
	"github.com/jonathan/career-navigator/internal/stages"
	"github.com/jonathan/career-navigator/internal/types"
)

// snapshotTimeout bounds each snapshot write made from a stage callback
const snapshotTimeout = 5 * time.Second

// resetStage labels the snapshot written when a session is reset
const resetStage = "reset"

// SnapshotStore persists session profiles. *db.DB implements it.
type SnapshotStore interface {
	CreateSession(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
	SaveSnapshot(ctx context.Context, sessionID uuid.UUID, stage string, p types.Profile) (int64, error)
	LatestSnapshot(ctx context.Context, sessionID uuid.UUID) (*db.Snapshot, error)
	ListSnapshots(ctx context.Context, sessionID uuid.UUID, limit int) ([]db.Snapshot, error)
	DeleteSession(ctx context.Context, sessionID uuid.UUID) error
}

// ErrSnapshotsDisabled is returned for history requests when no snapshot store is configured
var ErrSnapshotsDisabled = errors.New("snapshots are not enabled")

// EventPublisher forwards a session's updates to a broker. *events.Publisher implements it.
type EventPublisher interface {
	OnProgress() pipeline.ProgressCallback
	OnProfile() func(types.Profile)
	Close() error
}

// PublisherFactory opens a publisher for one session
type PublisherFactory func(sessionID string) (EventPublisher, error)

// Session is one user's profile and the orchestrator driving it
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	orch    *pipeline.Orchestrator
	hub     *Hub
	closers []func()
}

// Orchestrator returns the session's orchestrator
func (s *Session) Orchestrator() *pipeline.Orchestrator {
	return s.orch
}

// Hub returns the session's SSE hub
func (s *Session) Hub() *Hub {
	return s.hub
}

func (s *Session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.hub.Close()
}

// ManagerOption configures a SessionManager
type ManagerOption func(*SessionManager)

// WithSnapshots saves the profile after every completed stage and restores
// unknown sessions from their latest snapshot
func WithSnapshots(store SnapshotStore) ManagerOption {
	return func(m *SessionManager) { m.snapshots = store }
}

// WithPublishers publishes every session's updates through publishers from the factory
func WithPublishers(factory PublisherFactory) ManagerOption {
	return func(m *SessionManager) { m.publishers = factory }
}

// SessionManager owns the live sessions. It is safe for concurrent use.
type SessionManager struct {
	gen        pipeline.Generators
	snapshots  SnapshotStore
	publishers PublisherFactory
	now        func() time.Time

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewSessionManager creates a manager whose sessions share the generators
func NewSessionManager(gen pipeline.Generators, opts ...ManagerOption) *SessionManager {
	m := &SessionManager{
		gen:      gen,
		now:      time.Now,
		sessions: make(map[uuid.UUID]*Session),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create starts a new session with an empty profile
func (m *SessionManager) Create(ctx context.Context) (*Session, error) {
	id := uuid.New()
	if m.snapshots != nil {
		if _, err := m.snapshots.CreateSession(ctx, id); err != nil {
			return nil, fmt.Errorf("failed to create session: %w", err)
		}
	}

	s, err := m.open(id, profile.NewStore())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	log.Info().Str("session_id", id.String()).Msg("session created")
	return s, nil
}

// Get returns a live session, restoring it from its latest snapshot when needed
func (m *SessionManager) Get(ctx context.Context, id uuid.UUID) (*Session, error) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	m.mu.Unlock()
	if ok {
		return s, nil
	}
	if m.snapshots == nil {
		return nil, &ErrSessionNotFound{SessionID: id}
	}

	snap, err := m.snapshots.LatestSnapshot(ctx, id)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, &ErrSessionNotFound{SessionID: id}
	}
	return m.restore(id, snap.Profile)
}

func (m *SessionManager) restore(id uuid.UUID, saved types.Profile) (*Session, error) {
	store := profile.NewStore()
	if _, err := store.Merge(patchOf(saved)); err != nil {
		return nil, fmt.Errorf("failed to restore session %s: %w", id, err)
	}
	s, err := m.open(id, store, pipeline.StartAt(stages.Furthest(saved)))
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have restored it first.
	if existing, ok := m.sessions[id]; ok {
		s.close()
		return existing, nil
	}
	m.sessions[id] = s
	log.Info().Str("session_id", id.String()).Msg("session restored from snapshot")
	return s, nil
}

// open wires the store's observers: the SSE hub, snapshots and the broker
func (m *SessionManager) open(id uuid.UUID, store *profile.Store, extra ...pipeline.Option) (*Session, error) {
	s := &Session{ID: id, CreatedAt: m.now(), hub: NewHub()}
	sid := id.String()

	opts := []pipeline.Option{pipeline.WithProgress(func(e pipeline.ProgressEvent) {
		s.hub.Broadcast(events.Event{
			SessionID: sid,
			Type:      events.TypeProgress,
			Stage:     string(e.Stage),
			Status:    e.Status,
			Message:   e.Message,
			Epoch:     e.Epoch,
			Timestamp: m.now().UTC(),
		})
	})}
	s.closers = append(s.closers, store.Subscribe(func(p types.Profile) {
		s.hub.Broadcast(events.Event{SessionID: sid, Type: events.TypeProfile, Profile: &p, Timestamp: m.now().UTC()})
	}))

	if m.snapshots != nil {
		opts = append(opts, pipeline.WithProgress(m.snapshotOnComplete(id)))
		s.closers = append(s.closers, store.Subscribe(m.snapshotOnReset(id)))
	}

	if m.publishers != nil {
		pub, err := m.publishers(sid)
		if err != nil {
			s.close()
			return nil, fmt.Errorf("failed to open event publisher: %w", err)
		}
		opts = append(opts, pipeline.WithProgress(pub.OnProgress()))
		s.closers = append(s.closers,
			func() {
				if err := pub.Close(); err != nil {
					log.Warn().Err(err).Str("session_id", sid).Msg("failed to close event publisher")
				}
			},
			store.Subscribe(pub.OnProfile()),
		)
	}

	s.orch = pipeline.New(store, m.gen, append(opts, extra...)...)
	return s, nil
}

func (m *SessionManager) snapshotOnComplete(id uuid.UUID) pipeline.ProgressCallback {
	return func(e pipeline.ProgressEvent) {
		if e.Status != pipeline.StatusCompleted {
			return
		}
		p, ok := e.Content.(types.Profile)
		if !ok {
			return
		}
		m.save(id, string(e.Stage), p)
	}
}

// snapshotOnReset records resets so a restored session does not come back with cleared data
func (m *SessionManager) snapshotOnReset(id uuid.UUID) profile.Listener {
	return func(p types.Profile) {
		if p.ResumeText == nil {
			m.save(id, resetStage, p)
		}
	}
}

func (m *SessionManager) save(id uuid.UUID, stage string, p types.Profile) {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()
	if _, err := m.snapshots.SaveSnapshot(ctx, id, stage, p); err != nil {
		log.Warn().Err(err).Str("session_id", id.String()).Str("stage", stage).Msg("failed to save snapshot")
	}
}

// Delete closes a session and removes its saved snapshots. It reports
// whether the session existed, live or stored.
func (m *SessionManager) Delete(ctx context.Context, id uuid.UUID) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.close()
	}

	if m.snapshots != nil {
		if err := m.snapshots.DeleteSession(ctx, id); err != nil {
			log.Debug().Err(err).Str("session_id", id.String()).Msg("no stored session to delete")
		} else {
			ok = true
		}
	}
	return ok
}

// History returns up to limit saved snapshots of a session, oldest first
func (m *SessionManager) History(ctx context.Context, id uuid.UUID, limit int) ([]db.Snapshot, error) {
	if m.snapshots == nil {
		return nil, ErrSnapshotsDisabled
	}
	snapshots, err := m.snapshots.ListSnapshots(ctx, id, limit)
	if err != nil {
		return nil, err
	}
	if len(snapshots) == 0 {
		return nil, &ErrSessionNotFound{SessionID: id}
	}
	return snapshots, nil
}

// Len returns the number of live sessions
func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close closes every live session
func (m *SessionManager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[uuid.UUID]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

func patchOf(p types.Profile) types.Patch {
	return types.Patch{
		ResumeText:      p.ResumeText,
		CareerGoal:      p.CareerGoal,
		SkillGaps:       p.SkillGaps,
		RecommendedJobs: p.RecommendedJobs,
		CareerPlan:      p.CareerPlan,
		SkillCategories: p.SkillCategories,
		CareerPaths:     p.CareerPaths,
	}
}
