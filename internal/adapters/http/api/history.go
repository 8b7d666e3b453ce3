// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/unowhq/forma/internal/domain/model"
)

const defaultHistoryLimit = 100

// HistoryHandler serves the audit trail.
type HistoryHandler struct {
	deps HistoryDependencies
}

// NewHistoryHandler creates a new history handler.
func NewHistoryHandler(deps HistoryDependencies) *HistoryHandler {
	return &HistoryHandler{deps: deps}
}

type historyEntryResponse struct {
	ID        string `json:"id"`
	Action    string `json:"action"`
	ActorID   string `json:"actor_id"`
	ActorRole string `json:"actor_role"`
	Details   string `json:"details,omitempty"`
	CreatedAt string `json:"created_at"`
}

// HandleHistory handles GET /api/history?limit=N requests.
func (h *HistoryHandler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	const op = "api.history"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	limit := defaultHistoryLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		n, err := strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
		limit = n
	}

	entries, err := h.deps.History(r.Context(), limit)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}

	out := make([]historyEntryResponse, len(entries))
	for i, e := range entries {
		out[i] = toHistoryEntryResponse(e)
	}
	writeJSON(w, http.StatusOK, out)
}

func toHistoryEntryResponse(e model.HistoryEntry) historyEntryResponse {
	return historyEntryResponse{
		ID:        e.ID,
		Action:    e.Action,
		ActorID:   e.ActorID,
		ActorRole: string(e.ActorRole),
		Details:   e.Details,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}
