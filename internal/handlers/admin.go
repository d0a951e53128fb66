package handlers

import (
	"encoding/json"
	"net/http"

	"standings-backend/internal/admin"
)

func confirmed(r *http.Request) bool {
	return r.URL.Query().Get("confirm") == "true"
}

type CreateTournamentRequest struct {
	Name string `json:"name"`
}

func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	var req CreateTournamentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	t, err := c.CreateTournament(r.Context(), req.Name)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

func (h *Handler) DeleteTournament(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	if err := c.DeleteTournament(r.Context(), r.PathValue("id"), confirmed(r)); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) CreateTeam(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	var req admin.TeamInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	team, err := c.CreateTeam(r.Context(), r.PathValue("id"), req)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, team)
}

func (h *Handler) UpdateTeam(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	var req admin.TeamInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	team, err := c.UpdateTeam(r.Context(), r.PathValue("id"), r.PathValue("teamId"), req)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *Handler) DeleteTeam(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	if err := c.DeleteTeam(r.Context(), r.PathValue("id"), r.PathValue("teamId"), confirmed(r)); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) PurgeTeams(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	if err := c.PurgeTeams(r.Context(), r.PathValue("id"), confirmed(r)); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ResetStats(w http.ResponseWriter, r *http.Request, c *admin.Console) {
	if err := c.ResetStats(r.Context(), r.PathValue("id"), confirmed(r)); err != nil {
		h.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
