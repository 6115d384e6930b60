package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/career-navigator/internal/config"
	"github.com/jonathan/career-navigator/internal/db"
	"github.com/jonathan/career-navigator/internal/events"
	"github.com/jonathan/career-navigator/internal/pipeline"
	"github.com/jonathan/career-navigator/internal/server/middleware"
	"github.com/jonathan/career-navigator/internal/server/ratelimit"
)

// shutdownTimeout bounds graceful shutdown
const shutdownTimeout = 30 * time.Second

// Server represents the HTTP server
type Server struct {
	httpServer   *http.Server
	sessions     *SessionManager
	jwt          *JWTService
	rateLimiter  *ratelimit.Limiter
	stageTimeout time.Duration
	closers      []func()
}

// Config holds server configuration
type Config struct {
	Port         int
	Generators   pipeline.Generators
	JWT          *config.JWTConfig
	StageTimeout time.Duration
	// DatabaseURL enables profile snapshots when set
	DatabaseURL string
	// AMQPURL enables publishing session updates to Exchange when set
	AMQPURL  string
	Exchange string
	// RateLimit defaults to ratelimit.LoadConfig()
	RateLimit *ratelimit.Config
}

// New connects the optional backends and builds the server
func New(ctx context.Context, cfg Config) (*Server, error) {
	var (
		opts    []ManagerOption
		closers []func()
	)

	if cfg.DatabaseURL != "" {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := database.Migrate(ctx); err != nil {
			database.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		opts = append(opts, WithSnapshots(database))
		closers = append(closers, database.Close)
	}

	if cfg.AMQPURL != "" {
		exchange := cfg.Exchange
		if exchange == "" {
			exchange = events.DefaultExchange
		}
		opts = append(opts, WithPublishers(func(sessionID string) (EventPublisher, error) {
			pub, err := events.Dial(cfg.AMQPURL, exchange, sessionID)
			if err != nil {
				return nil, err
			}
			return pub, nil
		}))
	}

	return newServer(cfg, NewSessionManager(cfg.Generators, opts...), closers...)
}

func newServer(cfg Config, sessions *SessionManager, closers ...func()) (*Server, error) {
	if cfg.JWT == nil {
		return nil, fmt.Errorf("JWT configuration is required")
	}
	rl := cfg.RateLimit
	if rl == nil {
		rl = ratelimit.LoadConfig()
	}

	s := &Server{
		sessions:     sessions,
		jwt:          NewJWTService(cfg.JWT),
		rateLimiter:  ratelimit.NewLimiter(rl),
		stageTimeout: cfg.StageTimeout,
		closers:      closers,
	}

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.Handler(),
		ReadTimeout: 30 * time.Second,
		// No write timeout: stage runs wait on generators and /events streams stay open.
		IdleTimeout: 60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler with every middleware applied
func (s *Server) Handler() http.Handler {
	auth := middleware.RequireSession(s.jwt.AsTokenValidator(), "id")
	protected := func(h http.HandlerFunc) http.Handler { return auth(h) }

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /sessions", s.handleCreateSession)

	mux.Handle("DELETE /sessions/{id}", protected(s.handleDeleteSession))
	mux.Handle("GET /sessions/{id}/stages", protected(s.handleListStages))
	mux.Handle("POST /sessions/{id}/stages/{stage}", protected(s.handleRunStage))
	mux.Handle("POST /sessions/{id}/goal", protected(s.handleChooseGoal))
	mux.Handle("GET /sessions/{id}/profile", protected(s.handleGetProfile))
	mux.Handle("POST /sessions/{id}/reset", protected(s.handleReset))
	mux.Handle("GET /sessions/{id}/jobs", protected(s.handleListJobs))
	mux.Handle("GET /sessions/{id}/events", protected(s.handleEvents))
	mux.Handle("GET /sessions/{id}/snapshots", protected(s.handleHistory))

	return s.withRateLimit(s.withLogging(s.withCORS(mux)))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Str("addr", s.httpServer.Addr).Msg("server starting")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		// Close sessions first so open event streams end and Shutdown can drain.
		s.sessions.Close()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	})

	err := g.Wait()
	s.Close()
	log.Info().Msg("server stopped")
	return err
}

// Close releases the rate limiter, sessions and backends
func (s *Server) Close() {
	s.rateLimiter.Stop()
	s.sessions.Close()
	for _, c := range s.closers {
		c()
	}
	s.closers = nil
}

// withCORS adds CORS headers
func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for request logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Flush keeps event streams working through the logging middleware
func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// withLogging logs each request with its status and duration
func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		event := log.Info()
		if rec.status >= http.StatusInternalServerError {
			event = log.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// withRateLimit rejects clients over their endpoint budget with 429
func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(clientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, r, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientID identifies the client by remote IP
func clientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, r *http.Request, info ratelimit.Info) {
	response := map[string]any{
		"error":   "rate_limit_exceeded",
		"message": "Rate limit exceeded. Please try again later.",
		"limit":   info.Limit,
	}
	if !info.ResetTime.IsZero() {
		response["reset_at"] = info.ResetTime.Format(time.RFC3339)
	}
	if secs := int(info.RetryAfter.Seconds()); secs > 0 {
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}

	log.Warn().
		Str("client", clientID(r)).
		Str("path", r.URL.Path).
		Int("limit", info.Limit).
		Msg("rate limit exceeded")
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("failed to encode JSON response")
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// errorFromErr writes err with the status HTTPStatus maps it to
func (s *Server) errorFromErr(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway && status != http.StatusGatewayTimeout {
		log.Error().Err(err).Msg("internal error")
		s.errorResponse(w, status, "internal server error")
		return
	}
	s.errorResponse(w, status, err.Error())
}
