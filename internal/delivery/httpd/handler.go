package httpd

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/RubachokBoss/faculty-evaluation/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type Services struct {
	Forms         service.FormService
	Assignments   service.AssignmentService
	Submissions   service.SubmissionService
	AcademicYears service.AcademicYearService
	Directory     service.DirectoryService
	Reports       service.ReportService
	// Ping reports database reachability for /health. Optional.
	Ping func(ctx context.Context) error
}

type Handler struct {
	formService         service.FormService
	assignmentService   service.AssignmentService
	submissionService   service.SubmissionService
	academicYearService service.AcademicYearService
	directoryService    service.DirectoryService
	reportService       service.ReportService
	ping                func(ctx context.Context) error
	auth                *Authenticator
	validate            *validator.Validate
	logger              zerolog.Logger
}

func NewHandler(services Services, auth *Authenticator, logger zerolog.Logger) *Handler {
	return &Handler{
		formService:         services.Forms,
		assignmentService:   services.Assignments,
		submissionService:   services.Submissions,
		academicYearService: services.AcademicYears,
		directoryService:    services.Directory,
		reportService:       services.Reports,
		ping:                services.Ping,
		auth:                auth,
		validate:            newValidator(),
		logger:              logger,
	}
}

func (h *Handler) RegisterRoutes(router chi.Router) {
	router.Get("/health", h.HealthCheck)

	router.Route("/api/v1", func(api chi.Router) {
		api.Use(h.auth.Middleware)

		api.Group(func(admin chi.Router) {
			admin.Use(RequireRole(RoleAdmin))

			admin.Route("/forms", func(r chi.Router) {
				r.Post("/", h.CreateForm)
				r.Get("/", h.ListForms)
				r.Get("/{id}", h.GetForm)
				r.Delete("/{id}", h.DeleteForm)
				r.Put("/{id}/status", h.UpdateFormStatus)
				r.Get("/{id}/questions", h.ListQuestions)
				r.Post("/{id}/assign", h.AssignFormToStudents)
				r.Post("/{id}/assign-classes", h.AssignFormToClasses)
				r.Get("/{id}/responses", h.GetFormResponses)
				r.Get("/{id}/summary", h.GetFormScoreSummary)
			})

			admin.Route("/academic-years", func(r chi.Router) {
				r.Get("/", h.ListAcademicYears)
				r.Post("/", h.CreateAcademicYear)
				r.Get("/current", h.GetCurrentAcademicYear)
				r.Get("/{id}", h.GetAcademicYear)
				r.Put("/{id}", h.UpdateAcademicYear)
				r.Delete("/{id}", h.DeleteAcademicYear)
				r.Put("/{id}/current", h.SetCurrentAcademicYear)
			})

			admin.Post("/students", h.CreateStudent)
			admin.Post("/faculty", h.CreateFaculty)
			admin.Get("/faculty", h.ListFaculty)
			admin.Post("/faculty/{id}/classes", h.LinkFacultyClass)
			admin.Delete("/faculty/{id}/classes/{classID}", h.UnlinkFacultyClass)
			admin.Post("/classes", h.CreateClass)
			admin.Delete("/classes/{id}", h.DeleteClass)
			admin.Post("/relationships", h.CreateRelationship)
			admin.Delete("/relationships/{id}", h.DeactivateRelationship)

			admin.Post("/reports/faculty/{id}/export", h.ExportFacultyReport)
			admin.Get("/reports/departments", h.ListDepartmentReports)
			admin.Get("/reports/dashboard", h.GetDashboardStats)
		})

		api.Group(func(r chi.Router) {
			r.Use(RequireRole(RoleAdmin, RoleFaculty))
			r.Get("/reports/faculty/{id}", h.GetFacultyReport)
			r.Get("/reports/faculty/{id}/classes", h.GetFacultyClassReport)
			r.Get("/faculty/{id}/classes", h.ListFacultyClasses)
		})

		api.Route("/me/evaluations", func(r chi.Router) {
			r.Use(RequireRole(RoleStudent))
			r.Get("/", h.ListMyEvaluations)
			r.Get("/{id}", h.GetMyEvaluation)
			r.Post("/{id}/start", h.StartMyEvaluation)
			r.Post("/{id}/submit", h.SubmitMyEvaluation)
		})
	})
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status, database := http.StatusOK, "up"
	if h.ping != nil {
		if err := h.ping(r.Context()); err != nil {
			h.logger.Warn().Err(err).Msg("Database health check failed")
			status, database = http.StatusServiceUnavailable, "down"
		}
	}

	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "faculty-evaluation",
		"database":  database,
		"timestamp": time.Now().UTC(),
	}
	if status != http.StatusOK {
		response["status"] = "unhealthy"
	}

	writeJSON(w, status, response)
}

// pathID returns the named route parameter in canonical form. A value that is
// not a UUID cannot name a stored row, so notFound is written as a 404.
func pathID(w http.ResponseWriter, r *http.Request, name string, notFound error) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		writeError(w, http.StatusNotFound, notFound.Error())
		return "", false
	}

	return id.String(), true
}

func getIntQueryParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

// getOptionalQueryParam returns nil for an absent or empty parameter.
func getOptionalQueryParam(r *http.Request, key string) *string {
	value := r.URL.Query().Get(key)
	if value == "" {
		return nil
	}
	return &value
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]interface{}{
		"error":   http.StatusText(status),
		"message": message,
	})
}

func writeSuccess(w http.ResponseWriter, data interface{}) {
	writeSuccessStatus(w, http.StatusOK, data)
}

func writeCreated(w http.ResponseWriter, data interface{}) {
	writeSuccessStatus(w, http.StatusCreated, data)
}

func writeSuccessStatus(w http.ResponseWriter, status int, data interface{}) {
	response := map[string]interface{}{
		"success": true,
		"data":    data,
	}
	writeJSON(w, status, response)
}
