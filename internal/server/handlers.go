package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/jonathan/career-navigator/internal/ingestion"
	"github.com/jonathan/career-navigator/internal/matching"
	"github.com/jonathan/career-navigator/internal/pipeline"
	"github.com/jonathan/career-navigator/internal/ranking"
	"github.com/jonathan/career-navigator/internal/stages"
	"github.com/jonathan/career-navigator/internal/types"
)

// maxStageBody covers a base64-encoded resume at the upload limit plus the other fields
const maxStageBody = ingestion.MaxResumeBytes*4/3 + 64<<10

// keepAliveInterval is how often an idle event stream gets a comment line
const keepAliveInterval = 15 * time.Second

type createSessionResponse struct {
	SessionID uuid.UUID `json:"session_id"`
	Token     string    `json:"token"`
}

type stageView struct {
	ID        stages.StageID `json:"id"`
	Label     string         `json:"label"`
	Reachable bool           `json:"reachable"`
	Complete  bool           `json:"complete"`
}

type stagesResponse struct {
	Current stages.StageID `json:"current"`
	Stages  []stageView    `json:"stages"`
}

type stageRunResponse struct {
	Stage     stages.StageID   `json:"stage"`
	Current   stages.StageID   `json:"current"`
	Reachable []stages.StageID `json:"reachable"`
	Profile   types.Profile    `json:"profile"`
}

type chooseGoalRequest struct {
	Title string `json:"title"`
}

type jobView struct {
	types.JobCandidate
	Band        matching.MatchBand `json:"band"`
	Explanation string             `json:"explanation"`
}

type snapshotView struct {
	ID        int64            `json:"id"`
	Stage     string           `json:"stage"`
	CreatedAt time.Time        `json:"created_at"`
	Reachable []stages.StageID `json:"reachable"`
}

type jobsResponse struct {
	Jobs    []jobView `json:"jobs"`
	Total   int       `json:"total"`
	Matched int       `json:"matched"`
}

// handleHealth returns server health status
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

// handleCreateSession starts a session and issues its bearer token
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.sessions.Create(r.Context())
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	token, err := s.jwt.GenerateToken(session.ID)
	if err != nil {
		s.sessions.Delete(r.Context(), session.ID)
		s.errorFromErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, createSessionResponse{SessionID: session.ID, Token: token})
}

// handleDeleteSession closes a session and deletes its snapshots
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	if !s.sessions.Delete(r.Context(), id) {
		s.errorFromErr(w, &ErrSessionNotFound{SessionID: id})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleListStages reports every stage and whether the profile unlocks it
func (s *Server) handleListStages(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	orch := session.Orchestrator()
	p := orch.Profile()
	reachable := stages.Reachable(p)

	views := make([]stageView, 0, len(stages.Order))
	for _, id := range stages.Order {
		def := stages.Registry[id]
		complete := true
		for _, field := range def.Produces {
			complete = complete && p.IsSet(field)
		}
		views = append(views, stageView{
			ID:        id,
			Label:     def.Label,
			Reachable: slices.Contains(reachable, id),
			Complete:  complete,
		})
	}
	s.jsonResponse(w, http.StatusOK, stagesResponse{Current: orch.Current(), Stages: views})
}

// handleRunStage runs one stage. The body is a StageInput as JSON, or a
// multipart form with a "resume" file for the upload stage.
func (s *Server) handleRunStage(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	stage, err := stages.Parse(r.PathValue("stage"))
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	in, err := decodeStageInput(w, r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	ctx := r.Context()
	if s.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.stageTimeout)
		defer cancel()
	}

	orch := session.Orchestrator()
	p, err := orch.RunStage(ctx, stage, in)
	if err != nil {
		log.Warn().Err(err).Str("session_id", session.ID.String()).Str("stage", string(stage)).Msg("stage run failed")
		s.errorFromErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, stageRunResponse{
		Stage:     stage,
		Current:   orch.Current(),
		Reachable: stages.Reachable(p),
		Profile:   p,
	})
}

// handleChooseGoal picks one of the generated career paths as the goal
func (s *Server) handleChooseGoal(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	var req chooseGoalRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil {
		s.errorFromErr(w, &ErrValidation{Field: "body", Message: "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		s.errorFromErr(w, &ErrValidation{Field: "title", Message: "is required"})
		return
	}
	p, err := session.Orchestrator().ChoosePath(req.Title)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, p)
}

// handleGetProfile returns the session's profile
func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, session.Orchestrator().Profile())
}

// handleReset cancels pending stages and clears the profile
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, session.Orchestrator().Reset())
}

// handleListJobs returns the recommended jobs filtered by min_score, q and entry_level
func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	preds, err := jobFilters(r)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}

	p := session.Orchestrator().Profile()
	if err := stages.Check(p, stages.Plan); err != nil {
		s.errorFromErr(w, err)
		return
	}
	jobs := ranking.RankJobs(p.RecommendedJobs, preds...)

	views := make([]jobView, len(jobs))
	for i, job := range jobs {
		views[i] = jobView{
			JobCandidate: job,
			Band:         matching.Band(job.Score),
			Explanation:  matching.Explain(job.RequiredSkills, p.SkillGaps),
		}
	}
	s.jsonResponse(w, http.StatusOK, jobsResponse{Jobs: views, Total: len(p.RecommendedJobs), Matched: len(views)})
}

// handleHistory lists the session's saved snapshots, oldest first
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.errorFromErr(w, &ErrValidation{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = n
	}

	snapshots, err := s.sessions.History(r.Context(), id, limit)
	if err != nil {
		s.errorFromErr(w, err)
		return
	}
	views := make([]snapshotView, len(snapshots))
	for i, snap := range snapshots {
		views[i] = snapshotView{
			ID:        snap.ID,
			Stage:     snap.Stage,
			CreatedAt: snap.CreatedAt,
			Reachable: stages.Reachable(snap.Profile),
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"snapshots": views})
}

// handleEvents streams the session's progress and profile changes as SSE.
// The current profile is sent first.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	updates, cancel := session.Hub().Subscribe()
	defer cancel()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	p := session.Orchestrator().Profile()
	if err := sse.WriteEvent("profile", map[string]any{"session_id": session.ID, "profile": p}); err != nil {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if err := sse.WriteComment("keep-alive"); err != nil {
				return
			}
		case e, open := <-updates:
			if !open {
				return
			}
			if err := sse.WriteEvent(e.Type, e); err != nil {
				return
			}
		}
	}
}

func decodeStageInput(w http.ResponseWriter, r *http.Request) (pipeline.StageInput, error) {
	var in pipeline.StageInput
	r.Body = http.MaxBytesReader(w, r.Body, maxStageBody)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return decodeMultipartInput(r)
	}

	err := json.NewDecoder(r.Body).Decode(&in)
	var tooLarge *http.MaxBytesError
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return in, nil
	case errors.As(err, &tooLarge):
		return in, &ingestion.FileTooLargeError{Size: int(tooLarge.Limit) + 1, Limit: ingestion.MaxResumeBytes}
	default:
		return in, &ErrValidation{Field: "body", Message: "invalid JSON"}
	}
}

func decodeMultipartInput(r *http.Request) (pipeline.StageInput, error) {
	var in pipeline.StageInput
	if err := r.ParseMultipartForm(maxStageBody); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return in, &ingestion.FileTooLargeError{Size: int(tooLarge.Limit) + 1, Limit: ingestion.MaxResumeBytes}
		}
		return in, &ErrValidation{Field: "body", Message: "invalid multipart form"}
	}
	in.CareerGoalHint = r.FormValue("career_goal_hint")
	in.ChosenPath = r.FormValue("chosen_path")

	file, header, err := r.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) {
		return in, nil
	}
	if err != nil {
		return in, &ErrValidation{Field: "resume", Message: err.Error()}
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return in, &ErrValidation{Field: "resume", Message: err.Error()}
	}
	in.Resume = &types.ResumeBlob{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}
	return in, nil
}

func jobFilters(r *http.Request) ([]ranking.Predicate[types.JobCandidate], error) {
	q := r.URL.Query()
	var preds []ranking.Predicate[types.JobCandidate]

	if raw := q.Get("min_score"); raw != "" {
		minScore, err := strconv.Atoi(raw)
		if err != nil || minScore < 0 || minScore > 100 {
			return nil, &ErrValidation{Field: "min_score", Message: "must be an integer between 0 and 100"}
		}
		preds = append(preds, ranking.MinScore[types.JobCandidate](minScore))
	}
	if query := q.Get("q"); query != "" {
		preds = append(preds, ranking.JobSearch(query))
	}
	if raw := q.Get("entry_level"); raw != "" {
		entry, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, &ErrValidation{Field: "entry_level", Message: "must be a boolean"}
		}
		if entry {
			preds = append(preds, ranking.EntryLevel())
		}
	}
	return preds, nil
}

// sessionID parses the {id} path value
func (s *Server) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorFromErr(w, &ErrValidation{Field: "id", Message: "must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

// session resolves the {id} path value to a live session
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id, ok := s.sessionID(w, r)
	if !ok {
		return nil, false
	}
	session, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		s.errorFromErr(w, err)
		return nil, false
	}
	return session, true
}
