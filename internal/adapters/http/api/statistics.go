// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
)

// StatisticsHandler serves the dashboard aggregates.
type StatisticsHandler struct {
	deps StatisticsDependencies
}

// NewStatisticsHandler creates a new statistics handler.
func NewStatisticsHandler(deps StatisticsDependencies) *StatisticsHandler {
	return &StatisticsHandler{deps: deps}
}

// HandleTrainer handles GET /api/stats/trainer requests.
func (h *StatisticsHandler) HandleTrainer(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats_trainer"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	out, err := h.deps.TrainerStats(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleLearner handles GET /api/stats/learner requests.
func (h *StatisticsHandler) HandleLearner(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats_learner"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	out, err := h.deps.LearnerStats(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleAdmin handles GET /api/stats/admin requests.
func (h *StatisticsHandler) HandleAdmin(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats_admin"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out, err := h.deps.AdminStats(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGlobal handles GET /api/stats/admin/global requests.
func (h *StatisticsHandler) HandleGlobal(w http.ResponseWriter, r *http.Request) {
	const op = "api.stats_global"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	out, err := h.deps.GlobalStats(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
