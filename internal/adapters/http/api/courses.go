// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/unowhq/forma/internal/domain/model"
)

// CourseHandler handles course and session management.
type CourseHandler struct {
	deps CourseDependencies
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(deps CourseDependencies) *CourseHandler {
	return &CourseHandler{deps: deps}
}

type sectionRequest struct {
	Title string `json:"title" validate:"required"`
}

type courseRequest struct {
	Title    string           `json:"title" validate:"required"`
	Sections []sectionRequest `json:"sections" validate:"required,min=1,dive"`
}

type sectionResponse struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Position int    `json:"position"`
}

type courseResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	TrainerID string            `json:"trainer_id"`
	Sections  []sectionResponse `json:"sections"`
	CreatedAt string            `json:"created_at"`
}

func toCourseResponse(c model.Course) courseResponse {
	sections := make([]sectionResponse, len(c.Sections))
	for i, s := range c.Sections {
		sections[i] = sectionResponse{ID: s.ID, Title: s.Title, Position: s.Position}
	}
	return courseResponse{
		ID:        c.ID,
		Title:     c.Title,
		TrainerID: c.TrainerID,
		Sections:  sections,
		CreatedAt: c.CreatedAt.Format(time.RFC3339),
	}
}

// HandleCourses handles GET and POST /api/courses requests. Creation is
// restricted to trainers; every authenticated caller may list.
func (h *CourseHandler) HandleCourses(w http.ResponseWriter, r *http.Request) {
	const op = "api.courses"
	switch r.Method {
	case http.MethodGet:
		courses, err := h.deps.Courses(r.Context())
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		out := make([]courseResponse, len(courses))
		for i, c := range courses {
			out[i] = toCourseResponse(c)
		}
		writeJSON(w, http.StatusOK, out)
	case http.MethodPost:
		identity, ok := IdentityFrom(r.Context())
		if !ok || identity.Role != model.RoleTrainer {
			writeError(w, http.StatusForbidden, "forbidden", NewKind(op, ErrUnauthorized))
			return
		}

		var req courseRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
			return
		}
		if err := validate.Struct(req); err != nil {
			writeDomainError(w, op, err)
			return
		}

		sections := make([]model.Section, len(req.Sections))
		for i, s := range req.Sections {
			sections[i] = model.Section{Title: s.Title}
		}
		course, err := h.deps.CreateCourse(r.Context(), model.Course{
			Title:     req.Title,
			TrainerID: identity.UserID,
			Sections:  sections,
		})
		if err != nil {
			writeDomainError(w, op, err)
			return
		}
		writeJSON(w, http.StatusCreated, toCourseResponse(course))
	default:
		http.NotFound(w, r)
	}
}

type sessionRequest struct {
	CourseID string `json:"course_id" validate:"required"`
	StartsAt string `json:"starts_at" validate:"required"`
	EndsAt   string `json:"ends_at" validate:"required"`
}

// HandleCreateSession handles POST /api/sessions requests.
func (h *CourseHandler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_session"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req sessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := validate.Struct(req); err != nil {
		writeDomainError(w, op, err)
		return
	}
	startsAt, err := time.Parse(time.RFC3339, req.StartsAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	endsAt, err := time.Parse(time.RFC3339, req.EndsAt)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	sess, err := h.deps.CreateSession(r.Context(), model.Session{
		CourseID: req.CourseID,
		StartsAt: startsAt,
		EndsAt:   endsAt,
	})
	if err != nil {
		writeDomainError(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"id":        sess.ID,
		"course_id": sess.CourseID,
		"starts_at": sess.StartsAt.Format(time.RFC3339),
		"ends_at":   sess.EndsAt.Format(time.RFC3339),
	})
}
