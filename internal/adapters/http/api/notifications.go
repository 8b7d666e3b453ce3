// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/unowhq/forma/internal/domain/model"
)

// NotificationHandler serves in-app notifications.
type NotificationHandler struct {
	deps NotificationDependencies
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(deps NotificationDependencies) *NotificationHandler {
	return &NotificationHandler{deps: deps}
}

type notificationResponse struct {
	ID        string `json:"id"`
	RequestID string `json:"request_id,omitempty"`
	Message   string `json:"message"`
	Read      bool   `json:"read"`
	CreatedAt string `json:"created_at"`
}

func toNotificationResponse(n model.Notification) notificationResponse {
	return notificationResponse{
		ID:        n.ID,
		RequestID: n.RequestID,
		Message:   n.Message,
		Read:      n.Read,
		CreatedAt: n.CreatedAt.Format(time.RFC3339),
	}
}

// HandleList handles GET /api/notifications requests.
func (h *NotificationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	const op = "api.notifications"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	identity, _ := IdentityFrom(r.Context())
	notifications, err := h.deps.Notifications(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}

	out := make([]notificationResponse, len(notifications))
	for i, n := range notifications {
		out[i] = toNotificationResponse(n)
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleRead handles POST /api/notifications/{id}/read requests.
func (h *NotificationHandler) HandleRead(w http.ResponseWriter, r *http.Request) {
	const op = "api.read_notification"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	param := pathParam(r, "/api/notifications/")
	id, rest, found := strings.Cut(param, "/")
	if !found || rest != "read" || id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	identity, _ := IdentityFrom(r.Context())
	n, err := h.deps.MarkNotificationRead(r.Context(), identity.UserID, id)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationResponse(n))
}
