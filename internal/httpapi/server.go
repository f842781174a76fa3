package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/example/hifzbot/internal/config"
	apperr "github.com/example/hifzbot/internal/errors"
	"github.com/example/hifzbot/internal/logger"
	"github.com/example/hifzbot/internal/observability"
	"github.com/example/hifzbot/internal/review"
	"github.com/example/hifzbot/internal/session"
	sr "github.com/example/hifzbot/internal/spaced_repetition"
	"github.com/example/hifzbot/pkg/models"
)

// Reviewer is the review core as seen by the HTTP layer
type Reviewer interface {
	StartSession(ctx context.Context, userID int64, req session.Request) (*session.Session, error)
	Grade(ctx context.Context, userID int64, req review.GradeRequest, loc *time.Location) (*review.GradeResult, error)
	Stats(ctx context.Context, userID int64, loc *time.Location) models.Stats
	Reset(ctx context.Context, userID int64) error
}

type Server struct {
	cfg      config.Config
	reviewer Reviewer
	gatherer prometheus.Gatherer
	log      *logger.Logger
}

func New(cfg config.Config, reviewer Reviewer, gatherer prometheus.Gatherer, log *logger.Logger) *Server {
	if cfg.DefaultTimezone == nil {
		cfg.DefaultTimezone = time.UTC
	}
	return &Server{cfg: cfg, reviewer: reviewer, gatherer: gatherer, log: log}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler(s.gatherer).ServeHTTP(w, r)
	})

	r.Route("/v1/users/{userID}", func(r chi.Router) {
		r.Post("/sessions", s.handleStartSession)
		r.Post("/grades", s.handleGrade)
		r.Get("/stats", s.handleStats)
		r.Delete("/data", s.handleReset)
	})
	return r
}

// ListenAndServe serves the API on cfg.HTTPAddr until ctx is cancelled
func (s *Server) ListenAndServe(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("http api listening", "addr", s.cfg.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		s.log.Warn("graceful shutdown failed", "error", err)
		_ = httpServer.Close()
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

// sessionRequest leaves optional fields nil so configured defaults apply
type sessionRequest struct {
	Scope         models.Scope `json:"scope"`
	Count         *int         `json:"count"`
	ContextBefore *int         `json:"context_before"`
	ContextAfter  *int         `json:"context_after"`
	Mode          session.Mode `json:"mode"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var body sessionRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, apperr.NewInvalidRequest(fmt.Sprintf("invalid body: %v", err)))
		return
	}

	req := session.Request{
		Scope:         body.Scope,
		Count:         intOr(body.Count, s.cfg.SessionSize),
		ContextBefore: intOr(body.ContextBefore, s.cfg.ContextBefore),
		ContextAfter:  intOr(body.ContextAfter, s.cfg.ContextAfter),
		Mode:          body.Mode,
	}
	sess, err := s.reviewer.StartSession(r.Context(), userID, req)
	if err != nil {
		s.logFailure(r, "start session", userID, err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, sess)
}

type gradeRequest struct {
	Surah     int              `json:"surah"`
	Ayah      int              `json:"ayah"`
	Quality   *sr.Quality      `json:"quality"`
	ScopeKind models.ScopeKind `json:"scope_kind"`
}

func (s *Server) handleGrade(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	loc, ok := s.location(w, r)
	if !ok {
		return
	}
	var body gradeRequest
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, apperr.NewInvalidRequest(fmt.Sprintf("invalid body: %v", err)))
		return
	}
	if body.Quality == nil {
		respondError(w, apperr.NewInvalidRequest("quality is required"))
		return
	}

	item, err := s.reviewer.Grade(r.Context(), userID, review.GradeRequest{
		Key:       models.AyahKey{Surah: body.Surah, Ayah: body.Ayah},
		Quality:   *body.Quality,
		ScopeKind: body.ScopeKind,
	}, loc)
	if err != nil {
		s.logFailure(r, "grade", userID, err)
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, item)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	loc, ok := s.location(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, s.reviewer.Stats(r.Context(), userID, loc))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	if err := s.reviewer.Reset(r.Context(), userID); err != nil {
		s.logFailure(r, "reset", userID, err)
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) userID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "userID")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		respondError(w, apperr.NewInvalidRequest(fmt.Sprintf("invalid user id %q", raw)))
		return 0, false
	}
	return id, true
}

// location reads the caller's timezone from ?tz= or X-Timezone
func (s *Server) location(w http.ResponseWriter, r *http.Request) (*time.Location, bool) {
	name := strings.TrimSpace(r.URL.Query().Get("tz"))
	if name == "" {
		name = strings.TrimSpace(r.Header.Get("X-Timezone"))
	}
	if name == "" {
		return s.cfg.DefaultTimezone, true
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		respondError(w, apperr.NewInvalidRequest(fmt.Sprintf("unknown timezone %q", name)))
		return nil, false
	}
	return loc, true
}

func (s *Server) logFailure(r *http.Request, op string, userID int64, err error) {
	if apperr.StatusOf(err) < http.StatusInternalServerError {
		return
	}
	s.log.Error(op+" failed", "user_id", userID, "request_id", middleware.GetReqID(r.Context()), "error", err)
}

func intOr(v *int, fallback int) int {
	if v == nil {
		return fallback
	}
	return *v
}

type errorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error(), Code: string(apperr.CodeOf(err))}
	var appErr *apperr.AppError
	if errors.As(err, &appErr) {
		resp.Error = appErr.Message
		resp.Details = appErr.Details
	}
	respondJSON(w, apperr.StatusOf(err), resp)
}
