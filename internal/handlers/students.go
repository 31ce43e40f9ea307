package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mahadigital/schooldesk/internal/auth"
	"github.com/mahadigital/schooldesk/internal/models"
	pkghttp "github.com/mahadigital/schooldesk/pkg/http"
)

// StudentServiceInterface defines the interface for roster logic
type StudentServiceInterface interface {
	Register(ctx context.Context, student *models.Student) (*models.Student, error)
	Get(ctx context.Context, id, schoolID string) (*models.Student, error)
	List(ctx context.Context, schoolID string) ([]*models.Student, error)
	Search(ctx context.Context, schoolID, name, standard string) ([]*models.Student, error)
}

// StudentHandler handles student roster HTTP requests
type StudentHandler struct {
	service StudentServiceInterface
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(service StudentServiceInterface) *StudentHandler {
	return &StudentHandler{service: service}
}

// RegisterStudentRequest represents the request body for student enrollment.
// Only the name is mandatory; the remaining fields are free-form register
// entries stored as given.
type RegisterStudentRequest struct {
	Name          string `json:"name" validate:"required,min=1,max=255"`
	MotherName    string `json:"mother_name"`
	MotherTongue  string `json:"mother_tongue"`
	RaceCaste     string `json:"race_caste"`
	Nationality   string `json:"nationality"`
	BirthPlace    string `json:"birth_place"`
	DateOfBirth   string `json:"date_of_birth"`
	LastSchool    string `json:"last_school"`
	DateAdmission string `json:"date_admission"`
	Standard      string `json:"standard"`
	Progress      string `json:"progress"`
	Conduct       string `json:"conduct"`
	DateLeaving   string `json:"date_leaving"`
	ReasonLeaving string `json:"reason_leaving"`
	Remark        string `json:"remark"`
}

// StudentResponse represents a student in API responses
type StudentResponse struct {
	ID            string    `json:"id"`
	SchoolID      string    `json:"school_id"`
	SchoolName    string    `json:"school_name"`
	Name          string    `json:"name"`
	MotherName    string    `json:"mother_name"`
	MotherTongue  string    `json:"mother_tongue"`
	RaceCaste     string    `json:"race_caste"`
	Nationality   string    `json:"nationality"`
	BirthPlace    string    `json:"birth_place"`
	DateOfBirth   string    `json:"date_of_birth"`
	LastSchool    string    `json:"last_school"`
	DateAdmission string    `json:"date_admission"`
	Standard      string    `json:"standard"`
	Progress      string    `json:"progress"`
	Conduct       string    `json:"conduct"`
	DateLeaving   string    `json:"date_leaving"`
	ReasonLeaving string    `json:"reason_leaving"`
	Remark        string    `json:"remark"`
	CreatedAt     time.Time `json:"created_at"`
}

func toStudentResponse(s *models.Student) StudentResponse {
	return StudentResponse{
		ID:            s.ID,
		SchoolID:      s.SchoolID,
		SchoolName:    s.SchoolName,
		Name:          s.Name,
		MotherName:    s.MotherName,
		MotherTongue:  s.MotherTongue,
		RaceCaste:     s.RaceCaste,
		Nationality:   s.Nationality,
		BirthPlace:    s.BirthPlace,
		DateOfBirth:   s.DateOfBirth,
		LastSchool:    s.LastSchool,
		DateAdmission: s.DateAdmission,
		Standard:      s.Standard,
		Progress:      s.Progress,
		Conduct:       s.Conduct,
		DateLeaving:   s.DateLeaving,
		ReasonLeaving: s.ReasonLeaving,
		Remark:        s.Remark,
		CreatedAt:     s.CreatedAt,
	}
}

func toStudentResponses(students []*models.Student) []StudentResponse {
	out := make([]StudentResponse, 0, len(students))
	for _, s := range students {
		out = append(out, toStudentResponse(s))
	}
	return out
}

// Register handles student enrollment
func (h *StudentHandler) Register(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	var req RegisterStudentRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	student := &models.Student{
		SchoolID:      session.SchoolID,
		SchoolName:    session.SchoolName,
		Name:          req.Name,
		MotherName:    req.MotherName,
		MotherTongue:  req.MotherTongue,
		RaceCaste:     req.RaceCaste,
		Nationality:   req.Nationality,
		BirthPlace:    req.BirthPlace,
		DateOfBirth:   req.DateOfBirth,
		LastSchool:    req.LastSchool,
		DateAdmission: req.DateAdmission,
		Standard:      req.Standard,
		Progress:      req.Progress,
		Conduct:       req.Conduct,
		DateLeaving:   req.DateLeaving,
		ReasonLeaving: req.ReasonLeaving,
		Remark:        req.Remark,
	}

	created, err := h.service.Register(r.Context(), student)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Student name is required")
		default:
			pkghttp.WriteInternalError(w, "Failed to register student")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, toStudentResponse(created))
}

// Get returns a single student from the authenticated school's roster.
// Students belonging to another school come back as not found.
func (h *StudentHandler) Get(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	id := chi.URLParam(r, "id")

	student, err := h.service.Get(r.Context(), id, session.SchoolID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Student not found")
		default:
			pkghttp.WriteInternalError(w, "Failed to fetch student")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toStudentResponse(student))
}

// List returns the authenticated school's roster
func (h *StudentHandler) List(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	students, err := h.service.List(r.Context(), session.SchoolID)
	if err != nil {
		pkghttp.WriteInternalError(w, "Failed to list students")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toStudentResponses(students))
}

// Search filters the roster by name substring and/or exact standard
func (h *StudentHandler) Search(w http.ResponseWriter, r *http.Request) {
	session := auth.GetSessionFromContext(r)
	if session == nil {
		pkghttp.WriteUnauthorized(w, "Authentication required")
		return
	}

	name := r.URL.Query().Get("name")
	standard := r.URL.Query().Get("standard")

	students, err := h.service.Search(r.Context(), session.SchoolID, name, standard)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrBadRequest):
			pkghttp.WriteBadRequest(w, "Provide a name or standard to search by")
		default:
			pkghttp.WriteInternalError(w, "Failed to search students")
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, toStudentResponses(students))
}
