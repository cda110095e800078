package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"remindd/internal/constants"
	apperrors "remindd/internal/errors"
	"remindd/internal/models"
	"remindd/internal/service"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

type Server struct {
	router            *mux.Router
	logger            *logrus.Logger
	reminders         *service.ReminderService
	port              int
	confirmTimeoutSec int
	server            *http.Server
}

func NewServer(cfg *models.Config, reminders *service.ReminderService, logger *logrus.Logger) *Server {
	confirmTimeoutSec := cfg.Confirmation.TimeoutSec
	if confirmTimeoutSec <= 0 {
		confirmTimeoutSec = constants.DefaultConfirmTimeoutSec
	}

	s := &Server{
		router:            mux.NewRouter(),
		logger:            logger,
		reminders:         reminders,
		port:              cfg.Server.Port,
		confirmTimeoutSec: confirmTimeoutSec,
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.Use(s.loggingMiddleware)

	s.router.HandleFunc("/health", s.handleHealth()).Methods(http.MethodGet)
	s.router.HandleFunc("/metrics", s.handleMetrics()).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/reminders", s.handleCreateReminder()).Methods(http.MethodPost)
	api.HandleFunc("/reminders", s.handleListReminders()).Methods(http.MethodGet)
	api.HandleFunc("/reminders/{id:[0-9]+}", s.handleGetReminder()).Methods(http.MethodGet)
	api.HandleFunc("/reminders/{id:[0-9]+}/reschedule", s.handleReschedule()).Methods(http.MethodPost)
	api.HandleFunc("/reminders/{id:[0-9]+}/delete", s.handleDelete()).Methods(http.MethodPost)
	api.HandleFunc("/responses", s.handleResponse()).Methods(http.MethodPost)

	s.router.HandleFunc("/ws/responses", s.handleResponseSocket()).Methods(http.MethodGet)
}

func (s *Server) Start() error {
	s.server = s.newHTTPServer()

	s.logger.Infof("Starting server on port %d", s.port)
	return s.server.ListenAndServe()
}

func (s *Server) newHTTPServer() *http.Server {
	// The reschedule/delete handlers hold the connection open for the
	// whole confirmation window, so the write deadline must outlast it or
	// the requester never sees the timed_out/canceled outcome.
	writeTimeout := time.Duration(s.confirmTimeoutSec+constants.DefaultServerWriteTimeoutSec) * time.Second

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.router,
		ReadTimeout:  constants.DefaultServerReadTimeoutSec * time.Second,
		WriteTimeout: writeTimeout,
		IdleTimeout:  constants.DefaultServerIdleTimeoutSec * time.Second,
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.WithFields(logrus.Fields{
			service.LogFieldMethod:   r.Method,
			service.LogFieldURL:      r.URL.Path,
			service.LogFieldRemoteIP: r.RemoteAddr,
			service.LogFieldDuration: time.Since(start).Milliseconds(),
		}).Debug("Request handled")
	})
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}
}

type createReminderRequest struct {
	ScopeID   string `json:"scope_id"`
	AuthorID  string `json:"author_id"`
	TargetID  string `json:"target_id"`
	OriginRef string `json:"origin_ref"`
	Body      string `json:"body"`
	Schedule  string `json:"schedule"`
}

func (s *Server) handleCreateReminder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReminderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid request body"))
			return
		}
		if req.ScopeID == "" || req.AuthorID == "" || req.TargetID == "" {
			s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "scope_id, author_id and target_id are required"))
			return
		}

		reminder, err := s.reminders.Create(r.Context(), req.ScopeID, req.AuthorID, req.TargetID, req.OriginRef, req.Body, req.Schedule)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusCreated, reminder)
	}
}

func (s *Server) handleListReminders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scopeID := r.URL.Query().Get("scope_id")
		if scopeID == "" {
			s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "scope_id is required"))
			return
		}

		var targetID *string
		if t := r.URL.Query().Get("target_id"); t != "" {
			targetID = &t
		}

		summaries, err := s.reminders.List(r.Context(), scopeID, targetID, r.URL.Query().Get("status"))
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, summaries)
	}
}

func (s *Server) handleGetReminder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		scopeID := r.URL.Query().Get("scope_id")
		if scopeID == "" {
			s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "scope_id is required"))
			return
		}

		reminder, err := s.reminders.Get(r.Context(), scopeID, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, reminder)
	}
}

type mutationRequest struct {
	ScopeID  string `json:"scope_id"`
	ActorID  string `json:"actor_id"`
	Schedule string `json:"schedule,omitempty"`
}

type mutationResponse struct {
	Outcome service.ConfirmOutcome `json:"outcome"`
}

func (s *Server) handleReschedule() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req mutationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid request body"))
			return
		}

		outcome, err := s.reminders.Reschedule(r.Context(), req.ScopeID, req.ActorID, id, req.Schedule)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, mutationResponse{Outcome: outcome})
	}
}

func (s *Server) handleDelete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			s.writeError(w, err)
			return
		}
		var req mutationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid request body"))
			return
		}

		outcome, err := s.reminders.Delete(r.Context(), req.ScopeID, req.ActorID, id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, mutationResponse{Outcome: outcome})
	}
}

type promptResponse struct {
	Handle  string `json:"handle"`
	ActorID string `json:"actor_id"`
	Approve bool   `json:"approve"`
}

type promptResponseResult struct {
	Accepted bool `json:"accepted"`
}

func (s *Server) handleResponse() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req promptResponse
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeError(w, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid request body"))
			return
		}
		if req.Handle == "" || req.ActorID == "" {
			s.writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "handle and actor_id are required"))
			return
		}

		accepted := s.reminders.Respond(req.Handle, req.ActorID, req.Approve)
		s.writeJSON(w, http.StatusOK, promptResponseResult{Accepted: accepted})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to encode response")
	}
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := apperrors.GetCode(err)
	s.writeJSON(w, httpStatusFor(code), errorResponse{
		Code:    string(code),
		Message: apperrors.GetUserMessage(err),
	})
}

func httpStatusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeForbidden:
		return http.StatusForbidden
	case apperrors.ErrCodeInvalidSchedule, apperrors.ErrCodeParseFailure,
		apperrors.ErrCodeInvalidInput, apperrors.ErrCodeValidationFailed:
		return http.StatusBadRequest
	case apperrors.ErrCodeInvalidTransition:
		return http.StatusConflict
	case apperrors.ErrCodeDeliveryUnavailable, apperrors.ErrCodeChatAPI:
		return http.StatusBadGateway
	case apperrors.ErrCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, apperrors.Wrap(err, apperrors.ErrCodeInvalidInput, "invalid reminder id")
	}
	return id, nil
}
