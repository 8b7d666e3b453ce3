// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/unowhq/forma/internal/domain/model"
)

// EvaluationHandler handles trainer self-evaluations.
type EvaluationHandler struct {
	deps EvaluationDependencies
}

// NewEvaluationHandler creates a new evaluation handler.
func NewEvaluationHandler(deps EvaluationDependencies) *EvaluationHandler {
	return &EvaluationHandler{deps: deps}
}

type evaluationRequest struct {
	CourseID string `json:"course_id" validate:"required"`

	ObjectivesClarity  int `json:"objectivesClarity" validate:"required"`
	ContentMastery     int `json:"contentMastery" validate:"required"`
	PaceAdequacy       int `json:"paceAdequacy" validate:"required"`
	MethodsVariety     int `json:"methodsVariety" validate:"required"`
	ParticipantsEngage int `json:"participantsEngage" validate:"required"`
	RoomSuitability    int `json:"roomSuitability" validate:"required"`
	EquipmentAdequacy  int `json:"equipmentAdequacy" validate:"required"`
	ScheduleConvenient int `json:"scheduleConvenient" validate:"required"`
	GroupSizeAdequacy  int `json:"groupSizeAdequacy" validate:"required"`

	Adapted        bool   `json:"adapted"`
	AdaptedDetails string `json:"adaptedDetails"`
	Comments       string `json:"comments"`
}

type evaluationResponse struct {
	ID        string `json:"id"`
	TrainerID string `json:"trainer_id"`
	CourseID  string `json:"course_id"`

	ObjectivesClarity  int `json:"objectivesClarity"`
	ContentMastery     int `json:"contentMastery"`
	PaceAdequacy       int `json:"paceAdequacy"`
	MethodsVariety     int `json:"methodsVariety"`
	ParticipantsEngage int `json:"participantsEngage"`
	RoomSuitability    int `json:"roomSuitability"`
	EquipmentAdequacy  int `json:"equipmentAdequacy"`
	ScheduleConvenient int `json:"scheduleConvenient"`
	GroupSizeAdequacy  int `json:"groupSizeAdequacy"`

	Adapted        bool   `json:"adapted"`
	AdaptedDetails string `json:"adaptedDetails,omitempty"`
	Comments       string `json:"comments,omitempty"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toEvaluationResponse(e model.TrainerEvaluation) evaluationResponse {
	return evaluationResponse{
		ID:                 e.ID,
		TrainerID:          e.TrainerID,
		CourseID:           e.CourseID,
		ObjectivesClarity:  e.ObjectivesClarity,
		ContentMastery:     e.ContentMastery,
		PaceAdequacy:       e.PaceAdequacy,
		MethodsVariety:     e.MethodsVariety,
		ParticipantsEngage: e.ParticipantsEngage,
		RoomSuitability:    e.RoomSuitability,
		EquipmentAdequacy:  e.EquipmentAdequacy,
		ScheduleConvenient: e.ScheduleConvenient,
		GroupSizeAdequacy:  e.GroupSizeAdequacy,
		Adapted:            e.Adapted,
		AdaptedDetails:     e.AdaptedDetails,
		Comments:           e.Comments,
		CreatedAt:          e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          e.UpdatedAt.Format(time.RFC3339),
	}
}

type evaluationSummaryResponse struct {
	Evaluation     evaluationResponse `json:"evaluation"`
	CompositeScore float64            `json:"composite_score"`
}

// HandleSubmit handles POST /api/trainer/evaluation/submit requests.
func (h *EvaluationHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_evaluation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	identity, _ := IdentityFrom(r.Context())

	var req evaluationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, op, err)
		return
	}

	ev, err := h.deps.SubmitTrainerEvaluation(r.Context(), model.TrainerEvaluation{
		TrainerID:          identity.UserID,
		CourseID:           req.CourseID,
		ObjectivesClarity:  req.ObjectivesClarity,
		ContentMastery:     req.ContentMastery,
		PaceAdequacy:       req.PaceAdequacy,
		MethodsVariety:     req.MethodsVariety,
		ParticipantsEngage: req.ParticipantsEngage,
		RoomSuitability:    req.RoomSuitability,
		EquipmentAdequacy:  req.EquipmentAdequacy,
		ScheduleConvenient: req.ScheduleConvenient,
		GroupSizeAdequacy:  req.GroupSizeAdequacy,
		Adapted:            req.Adapted,
		AdaptedDetails:     req.AdaptedDetails,
		Comments:           req.Comments,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, toEvaluationResponse(ev))
}

// HandleGet handles GET /api/trainer/evaluation/{courseID} requests.
func (h *EvaluationHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_evaluation"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	courseID := pathParam(r, "/api/trainer/evaluation/")
	if courseID == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	identity, _ := IdentityFrom(r.Context())
	summary, err := h.deps.TrainerEvaluation(r.Context(), identity.UserID, courseID)
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluationSummaryResponse{
		Evaluation:     toEvaluationResponse(summary.Evaluation),
		CompositeScore: summary.CompositeScore,
	})
}
