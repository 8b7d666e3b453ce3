// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/unowhq/forma/internal/domain/model"
)

// UserHandler serves the admin account-management endpoints.
type UserHandler struct {
	deps UserDependencies
}

// NewUserHandler creates a new user management handler.
func NewUserHandler(deps UserDependencies) *UserHandler {
	return &UserHandler{deps: deps}
}

// HandleLearners handles GET /api/users/learners requests.
func (h *UserHandler) HandleLearners(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, "api.list_learners", model.RoleLearner)
}

// HandleTrainers handles GET /api/users/trainers requests.
func (h *UserHandler) HandleTrainers(w http.ResponseWriter, r *http.Request) {
	h.listByRole(w, r, "api.list_trainers", model.RoleTrainer)
}

func (h *UserHandler) listByRole(w http.ResponseWriter, r *http.Request, op string, role model.Role) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	users, err := h.deps.ListUsers(r.Context(), role)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}

	out := make([]userResponse, len(users))
	for i, u := range users {
		out[i] = toUserResponse(u)
	}
	writeJSON(w, http.StatusOK, out)
}

type updateUserRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone"`
	Country string `json:"country"`
	City    string `json:"city"`
}

// HandleUser handles PUT and DELETE /api/users/{id} requests.
func (h *UserHandler) HandleUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.manage_user"

	id := pathParam(r, "/api/users/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	switch r.Method {
	case http.MethodPut:
		var req updateUserRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeDomainError(w, op, err)
			return
		}

		identity, _ := IdentityFrom(r.Context())
		u, err := h.deps.UpdateUserProfile(r.Context(), identity.UserID, model.User{
			ID:      id,
			Name:    req.Name,
			Email:   req.Email,
			Phone:   req.Phone,
			Country: req.Country,
			City:    req.City,
		})
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, toUserResponse(u))
	case http.MethodDelete:
		identity, _ := IdentityFrom(r.Context())
		if err := h.deps.DeleteUser(r.Context(), identity.UserID, id); err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		http.NotFound(w, r)
	}
}
