package httpd

import (
	"net/http"

	"github.com/RubachokBoss/faculty-evaluation/internal/service"
)

func (h *Handler) GetFormResponses(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "id", service.ErrFormNotFound)
	if !ok {
		return
	}

	report, err := h.reportService.GetFormResponses(r.Context(), formID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, report)
}

func (h *Handler) GetFormScoreSummary(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "id", service.ErrFormNotFound)
	if !ok {
		return
	}

	summary, err := h.reportService.GetFormScoreSummary(r.Context(), formID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, summary)
}

// GetFacultyReport is open to admins and to the faculty member the report is about.
func (h *Handler) GetFacultyReport(w http.ResponseWriter, r *http.Request) {
	facultyID, ok := pathID(w, r, "id", service.ErrFacultyNotFound)
	if !ok {
		return
	}

	identity := IdentityFromContext(r.Context())
	if identity.Role == RoleFaculty && identity.UserID != facultyID {
		writeError(w, http.StatusForbidden, "Faculty may only view their own report")
		return
	}

	report, err := h.reportService.GetFacultyReport(r.Context(), facultyID, getOptionalQueryParam(r, "academic_year_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, report)
}

// GetFacultyClassReport follows the same access rule as GetFacultyReport.
func (h *Handler) GetFacultyClassReport(w http.ResponseWriter, r *http.Request) {
	facultyID, ok := pathID(w, r, "id", service.ErrFacultyNotFound)
	if !ok {
		return
	}

	identity := IdentityFromContext(r.Context())
	if identity.Role == RoleFaculty && identity.UserID != facultyID {
		writeError(w, http.StatusForbidden, "Faculty may only view their own report")
		return
	}

	reports, err := h.reportService.GetFacultyClassReport(r.Context(), facultyID, getOptionalQueryParam(r, "academic_year_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, reports)
}

func (h *Handler) ExportFacultyReport(w http.ResponseWriter, r *http.Request) {
	facultyID, ok := pathID(w, r, "id", service.ErrFacultyNotFound)
	if !ok {
		return
	}

	export, err := h.reportService.ExportFacultyReport(r.Context(), facultyID, getOptionalQueryParam(r, "academic_year_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeCreated(w, export)
}

func (h *Handler) ListDepartmentReports(w http.ResponseWriter, r *http.Request) {
	reports, err := h.reportService.ListDepartmentReports(r.Context(), getOptionalQueryParam(r, "academic_year_id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, reports)
}

func (h *Handler) GetDashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportService.GetDashboardStats(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, stats)
}
