// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/unowhq/forma/internal/domain/model"
)

// FeedbackHandler handles session feedback submissions.
type FeedbackHandler struct {
	deps FeedbackDependencies
}

// NewFeedbackHandler creates a new feedback handler.
func NewFeedbackHandler(deps FeedbackDependencies) *FeedbackHandler {
	return &FeedbackHandler{deps: deps}
}

type feedbackRequest struct {
	AttendanceID string `json:"attendance_id" validate:"required"`

	Clarity              int    `json:"clarity" validate:"required"`
	Objectives           int    `json:"objectives" validate:"required"`
	Level                int    `json:"level" validate:"required"`
	Trainer              int    `json:"trainer" validate:"required"`
	Materials            int    `json:"materials" validate:"required"`
	MaterialOrganization int    `json:"materialOrganization"`
	WelcomeQuality       int    `json:"welcomeQuality"`
	PremisesComfort      int    `json:"premisesComfort"`
	GlobalRating         *int   `json:"globalRating"`
	Comments             string `json:"comments"`
}

type feedbackResponse struct {
	ID           string `json:"id"`
	SubjectID    string `json:"subject_id"`
	AttendanceID string `json:"attendance_id"`
	CourseID     string `json:"course_id"`

	Clarity              int    `json:"clarity"`
	Objectives           int    `json:"objectives"`
	Level                int    `json:"level"`
	Trainer              int    `json:"trainer"`
	Materials            int    `json:"materials"`
	MaterialOrganization int    `json:"materialOrganization"`
	WelcomeQuality       int    `json:"welcomeQuality"`
	PremisesComfort      int    `json:"premisesComfort"`
	GlobalRating         *int   `json:"globalRating"`
	Comments             string `json:"comments,omitempty"`
	CreatedAt            string `json:"created_at"`
	UpdatedAt            string `json:"updated_at"`
}

func toFeedbackResponse(f model.FeedbackRecord) feedbackResponse {
	return feedbackResponse{
		ID:                   f.ID,
		SubjectID:            f.SubjectID,
		AttendanceID:         f.AttendanceID,
		CourseID:             f.CourseID,
		Clarity:              f.Clarity,
		Objectives:           f.Objectives,
		Level:                f.Level,
		Trainer:              f.Trainer,
		Materials:            f.Materials,
		MaterialOrganization: f.MaterialOrganization,
		WelcomeQuality:       f.WelcomeQuality,
		PremisesComfort:      f.PremisesComfort,
		GlobalRating:         f.GlobalRating,
		Comments:             f.Comments,
		CreatedAt:            f.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            f.UpdatedAt.Format(time.RFC3339),
	}
}

// HandleSubmit handles POST /api/feedback/submit requests. Resubmitting
// for the same attendance overwrites the previous record.
func (h *FeedbackHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_feedback"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	var req feedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, op, err)
		return
	}

	rec, err := h.deps.SubmitFeedback(r.Context(), model.FeedbackRecord{
		SubjectID:            identity.UserID,
		AttendanceID:         req.AttendanceID,
		Clarity:              req.Clarity,
		Objectives:           req.Objectives,
		Level:                req.Level,
		Trainer:              req.Trainer,
		Materials:            req.Materials,
		MaterialOrganization: req.MaterialOrganization,
		WelcomeQuality:       req.WelcomeQuality,
		PremisesComfort:      req.PremisesComfort,
		GlobalRating:         req.GlobalRating,
		Comments:             req.Comments,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toFeedbackResponse(rec))
}

// HandleForUser handles GET /api/feedback/user requests.
func (h *FeedbackHandler) HandleForUser(w http.ResponseWriter, r *http.Request) {
	const op = "api.feedback_user"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	records, err := h.deps.FeedbackForUser(r.Context(), identity.UserID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	out := make([]feedbackResponse, len(records))
	for i, rec := range records {
		out[i] = toFeedbackResponse(rec)
	}
	writeJSON(w, http.StatusOK, out)
}
