// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/unowhq/forma/internal/domain/model"
)

// EnrollmentHandler serves the participant request workflow.
type EnrollmentHandler struct {
	deps EnrollmentDependencies
}

// NewEnrollmentHandler creates a new enrollment handler.
func NewEnrollmentHandler(deps EnrollmentDependencies) *EnrollmentHandler {
	return &EnrollmentHandler{deps: deps}
}

type enrollmentRequestPayload struct {
	CourseID string `json:"course_id" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Phone    string `json:"phone"`
}

type enrollmentResponse struct {
	ID              string `json:"id"`
	CourseID        string `json:"course_id"`
	RequestedBy     string `json:"requested_by"`
	Email           string `json:"email"`
	Phone           string `json:"phone,omitempty"`
	Status          string `json:"status"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

func toEnrollmentResponse(r model.EnrollmentRequest) enrollmentResponse {
	return enrollmentResponse{
		ID:              r.ID,
		CourseID:        r.CourseID,
		RequestedBy:     r.RequestedBy,
		Email:           r.Email,
		Phone:           r.Phone,
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
}

// HandleRequest handles POST /api/enrollment/request requests.
func (h *EnrollmentHandler) HandleRequest(w http.ResponseWriter, r *http.Request) {
	const op = "api.request_enrollment"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	var req enrollmentRequestPayload
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, op, err)
		return
	}

	identity, _ := IdentityFrom(r.Context())
	out, err := h.deps.RequestEnrollment(r.Context(), model.EnrollmentRequest{
		CourseID:    req.CourseID,
		RequestedBy: identity.UserID,
		Email:       req.Email,
		Phone:       req.Phone,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, toEnrollmentResponse(out))
}

// HandleRequests handles GET /api/enrollment/requests requests.
func (h *EnrollmentHandler) HandleRequests(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_enrollments"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	requests, err := h.deps.EnrollmentRequests(r.Context())
	if err != nil {
		writeDomainError(w, op, err)
		return
	}

	out := make([]enrollmentResponse, len(requests))
	for i, req := range requests {
		out[i] = toEnrollmentResponse(req)
	}
	writeJSON(w, http.StatusOK, out)
}

type respondEnrollmentRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Reason string `json:"reason"`
}

// HandleRespond handles POST /api/enrollment/{id}/respond requests.
func (h *EnrollmentHandler) HandleRespond(w http.ResponseWriter, r *http.Request) {
	const op = "api.respond_enrollment"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	param := pathParam(r, "/api/enrollment/")
	requestID, rest, found := strings.Cut(param, "/")
	if !found || rest != "respond" || requestID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	var req respondEnrollmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, op, err)
		return
	}

	identity, _ := IdentityFrom(r.Context())
	out, err := h.deps.RespondEnrollment(r.Context(), identity.UserID, requestID, req.Status == string(model.EnrollmentApproved), req.Reason)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toEnrollmentResponse(out))
}
