// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/unowhq/forma/internal/domain/model"
)

// AttendanceHandler handles sign-offs and presence rulings.
type AttendanceHandler struct {
	deps AttendanceDependencies
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(deps AttendanceDependencies) *AttendanceHandler {
	return &AttendanceHandler{deps: deps}
}

type signAttendanceRequest struct {
	SessionID string `json:"session_id" validate:"required"`
}

type attendanceResponse struct {
	ID          string `json:"id"`
	SubjectID   string `json:"subject_id"`
	SessionID   string `json:"session_id"`
	Present     *bool  `json:"present"`
	SignedAt    string `json:"signed_at"`
	ValidatedAt string `json:"validated_at,omitempty"`
}

func toAttendanceResponse(a model.AttendanceRecord) attendanceResponse {
	out := attendanceResponse{
		ID:        a.ID,
		SubjectID: a.SubjectID,
		SessionID: a.SessionID,
		Present:   a.Present,
		SignedAt:  a.SignedAt.Format(time.RFC3339),
	}
	if a.ValidatedAt != nil {
		out.ValidatedAt = a.ValidatedAt.Format(time.RFC3339)
	}
	return out
}

// HandleSign handles POST /api/attendance/sign requests.
func (h *AttendanceHandler) HandleSign(w http.ResponseWriter, r *http.Request) {
	const op = "api.sign_attendance"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	var req signAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, op, err)
		return
	}

	rec, err := h.deps.SignAttendance(r.Context(), model.AttendanceRecord{
		SubjectID: identity.UserID,
		SessionID: req.SessionID,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceResponse(rec))
}

// HandleForUser handles GET /api/attendance/user requests.
func (h *AttendanceHandler) HandleForUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.attendance_user"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	records, err := h.deps.AttendanceForUser(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	out := make([]attendanceResponse, len(records))
	for i, rec := range records {
		out[i] = toAttendanceResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}

type validateAttendanceRequest struct {
	Present *bool `json:"present" validate:"required"`
}

// HandleValidate handles POST /api/attendance/{id}/validate requests.
func (h *AttendanceHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_attendance"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}

	param := pathParam(r, "/api/attendance/")
	attendanceID, rest, found := strings.Cut(param, "/")
	if !found || rest != "validate" || attendanceID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	var req validateAttendanceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, op, err)
		return
	}

	identity, _ := IdentityFrom(r.Context())
	rec, err := h.deps.ValidateAttendance(r.Context(), identity.UserID, attendanceID, *req.Present)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toAttendanceResponse(rec))
}
