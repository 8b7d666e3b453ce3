// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/unowhq/forma/internal/domain/model"
)

// ValidationHandler handles skill self-assessments.
type ValidationHandler struct {
	deps ValidationDependencies
}

// NewValidationHandler creates a new validation handler.
func NewValidationHandler(deps ValidationDependencies) *ValidationHandler {
	return &ValidationHandler{deps: deps}
}

type validationRequest struct {
	AttendanceID string             `json:"attendance_id" validate:"required"`
	SkillsBefore map[string]float64 `json:"skills_before" validate:"required,min=1"`
	SkillsAfter  map[string]float64 `json:"skills_after" validate:"required,min=1"`
}

type validationResponse struct {
	ID           string             `json:"id"`
	SubjectID    string             `json:"subject_id"`
	AttendanceID string             `json:"attendance_id"`
	CourseID     string             `json:"course_id"`
	SkillsBefore map[string]float64 `json:"skills_before"`
	SkillsAfter  map[string]float64 `json:"skills_after"`
	CreatedAt    string             `json:"created_at"`
	UpdatedAt    string             `json:"updated_at"`
}

func toValidationResponse(v model.SkillValidationRecord) validationResponse {
	return validationResponse{
		ID:           v.ID,
		SubjectID:    v.SubjectID,
		AttendanceID: v.AttendanceID,
		CourseID:     v.CourseID,
		SkillsBefore: v.SkillsBefore,
		SkillsAfter:  v.SkillsAfter,
		CreatedAt:    v.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    v.UpdatedAt.Format(time.RFC3339),
	}
}

// HandleSubmit handles POST /api/validation/submit requests.
func (h *ValidationHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_validation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	var req validationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, op, err)
		return
	}

	rec, err := h.deps.SubmitValidation(r.Context(), model.SkillValidationRecord{
		SubjectID:    identity.UserID,
		AttendanceID: req.AttendanceID,
		SkillsBefore: req.SkillsBefore,
		SkillsAfter:  req.SkillsAfter,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toValidationResponse(rec))
}

// HandleForAttendance handles GET /api/validation/attendance/{id} requests.
func (h *ValidationHandler) HandleForAttendance(w http.ResponseWriter, r *http.Request) {
	const op = "api.validation_attendance"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	attendanceID := pathParam(r, "/api/validation/attendance/")
	if attendanceID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	identity, _ := IdentityFrom(r.Context())
	rec, err := h.deps.ValidationForAttendance(r.Context(), identity.UserID, attendanceID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toValidationResponse(rec))
}

// HandleProgress handles GET /api/validation/progress requests.
func (h *ValidationHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.validation_progress"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	progress, err := h.deps.ValidationProgress(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}
