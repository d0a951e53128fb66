package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"standings-backend/internal/admin"
	"standings-backend/internal/auth"
	"standings-backend/internal/models"
	"standings-backend/internal/narrative"
	"standings-backend/internal/session"
	"standings-backend/internal/standings"
)

const (
	msgAccessDenied   = "ACCESS DENIED: INVALID KEY"
	msgInvalidKey     = "Invalid Access Key"
	msgLastTournament = "Cannot delete the last tournament."
)

// statusClientClosed is recorded when the caller hangs up before a
// response is ready. Nothing reaches the client; it keeps request logs honest.
const statusClientClosed = 499

type Handler struct {
	sessions      *session.Manager
	gate          *auth.Gate
	runner        *narrative.Runner
	username      string
	sessionSecret string
	simulated     bool
	logger        *zap.Logger
	now           func() time.Time
}

// Deps wires the handler to its collaborators.
type Deps struct {
	Sessions      *session.Manager
	Gate          *auth.Gate
	Narrative     *narrative.Service
	Username      string
	SessionSecret string
	Logger        *zap.Logger
}

func New(d Deps) *Handler {
	return &Handler{
		sessions:      d.Sessions,
		gate:          d.Gate,
		runner:        narrative.NewRunner(d.Narrative),
		username:      d.Username,
		sessionSecret: d.SessionSecret,
		simulated:     d.Narrative.Simulated(),
		logger:        d.Logger,
		now:           time.Now,
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/login", h.Login)
	mux.HandleFunc("POST /api/logout", h.withSession(h.Logout))
	mux.HandleFunc("GET /api/me", h.withSession(h.GetMe))

	mux.HandleFunc("GET /api/tournaments", h.withSession(h.ListTournaments))
	mux.HandleFunc("PUT /api/tournaments/active", h.withSession(h.SelectTournament))
	mux.HandleFunc("GET /api/standings", h.withSession(h.GetStandings))
	mux.HandleFunc("POST /api/narrative", h.withSession(h.Narrative))

	mux.HandleFunc("POST /api/admin/unlock", h.withSession(h.UnlockAdmin))
	mux.HandleFunc("POST /api/admin/lock", h.withSession(h.LockAdmin))

	mux.HandleFunc("POST /api/tournaments", h.requireOperator(h.CreateTournament))
	mux.HandleFunc("DELETE /api/tournaments/{id}", h.requireOperator(h.DeleteTournament))
	mux.HandleFunc("POST /api/tournaments/{id}/teams", h.requireOperator(h.CreateTeam))
	mux.HandleFunc("PUT /api/tournaments/{id}/teams/{teamId}", h.requireOperator(h.UpdateTeam))
	mux.HandleFunc("DELETE /api/tournaments/{id}/teams/{teamId}", h.requireOperator(h.DeleteTeam))
	mux.HandleFunc("DELETE /api/tournaments/{id}/teams", h.requireOperator(h.PurgeTeams))
	mux.HandleFunc("POST /api/tournaments/{id}/stats/reset", h.requireOperator(h.ResetStats))
}

type sessionHandler func(w http.ResponseWriter, r *http.Request, s *session.Session)

// withSession resolves the session named by the auth claims.
func (h *Handler) withSession(next sessionHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := auth.GetClaims(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		s, ok := h.sessions.Get(claims.SessionID)
		if !ok {
			writeError(w, http.StatusUnauthorized, "session ended")
			return
		}
		next(w, r, s)
	}
}

// requireOperator returns 403 unless the admin console of the session has
// been unlocked.
func (h *Handler) requireOperator(next func(w http.ResponseWriter, r *http.Request, c *admin.Console)) http.HandlerFunc {
	return h.withSession(func(w http.ResponseWriter, r *http.Request, s *session.Session) {
		if !s.IsOperator() {
			writeError(w, http.StatusForbidden, "operator access required")
			return
		}
		next(w, r, admin.New(s))
	})
}

type LoginRequest struct {
	Secret string `json:"secret"`
}

type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.gate.CheckViewer(r.Context(), req.Secret); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			w.WriteHeader(statusClientClosed)
			return
		}
		h.logger.Info("viewer login refused", zap.String("remote", r.RemoteAddr))
		writeError(w, http.StatusUnauthorized, msgAccessDenied)
		return
	}

	s, err := h.sessions.Start(r.Context(), h.username)
	if err != nil {
		h.logger.Error("starting session failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	token, err := auth.GenerateToken(auth.Claims{Username: s.Username, SessionID: s.ID}, h.sessionSecret, h.now())
	if err != nil {
		h.sessions.End(s.ID)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("session started", zap.String("session", s.ID), zap.String("username", s.Username))
	writeJSON(w, http.StatusOK, LoginResponse{Token: token, Username: s.Username})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request, s *session.Session) {
	h.runner.Cancel(s.ID)
	h.sessions.End(s.ID)
	h.logger.Info("session ended", zap.String("session", s.ID))
	w.WriteHeader(http.StatusNoContent)
}

type MeResponse struct {
	Username           string `json:"username"`
	Operator           bool   `json:"operator"`
	ActiveTournamentID string `json:"activeTournamentId"`
	Recovered          bool   `json:"recovered"`
	NarrativeSimulated bool   `json:"narrativeSimulated"`
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request, s *session.Session) {
	writeJSON(w, http.StatusOK, MeResponse{
		Username:           s.Username,
		Operator:           s.IsOperator(),
		ActiveTournamentID: s.ActiveID(),
		Recovered:          s.Recovered(),
		NarrativeSimulated: h.simulated,
	})
}

type TournamentsResponse struct {
	ActiveID    string              `json:"activeId"`
	Tournaments []models.Tournament `json:"tournaments"`
}

func (h *Handler) ListTournaments(w http.ResponseWriter, r *http.Request, s *session.Session) {
	writeJSON(w, http.StatusOK, TournamentsResponse{
		ActiveID:    s.ActiveID(),
		Tournaments: s.Tournaments(),
	})
}

type SelectTournamentRequest struct {
	ID string `json:"id"`
}

func (h *Handler) SelectTournament(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req SelectTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.Select(req.ID); err != nil {
		h.writeErr(w, err)
		return
	}
	h.ListTournaments(w, r, s)
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request, s *session.Session) {
	t, err := s.Tournament(r.URL.Query().Get("tournament"))
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, standings.Build(t))
}

type NarrativeResponse struct {
	Text string `json:"text"`
}

// Narrative runs a recap for the requested (or active) tournament. A newer
// request from the same session supersedes this one.
func (h *Handler) Narrative(w http.ResponseWriter, r *http.Request, s *session.Session) {
	t, err := s.Tournament(r.URL.Query().Get("tournament"))
	if err != nil {
		h.writeErr(w, err)
		return
	}

	text, err := h.runner.Start(r.Context(), s.ID, t.Teams).Wait(r.Context())
	switch {
	case errors.Is(err, narrative.ErrStale):
		writeError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		w.WriteHeader(statusClientClosed)
		return
	}
	writeJSON(w, http.StatusOK, NarrativeResponse{Text: text})
}

type UnlockRequest struct {
	Secret string `json:"secret"`
}

func (h *Handler) UnlockAdmin(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req UnlockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.gate.CheckOperator(req.Secret); err != nil {
		writeError(w, http.StatusUnauthorized, msgInvalidKey)
		return
	}
	s.UnlockOperator()
	h.logger.Info("admin console unlocked", zap.String("session", s.ID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) LockAdmin(w http.ResponseWriter, r *http.Request, s *session.Session) {
	s.LockOperator()
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// writeErr maps domain errors onto HTTP statuses.
func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrRosterFull):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, admin.ErrLastTournament):
		writeError(w, http.StatusConflict, msgLastTournament)
	case errors.Is(err, admin.ErrConfirmationRequired):
		writeError(w, http.StatusPreconditionRequired, err.Error())
	case errors.Is(err, session.ErrUnknownTournament), errors.Is(err, admin.ErrTeamNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, admin.ErrLocked):
		writeError(w, http.StatusForbidden, err.Error())
	default:
		h.logger.Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}
