package httpd

import (
	"net/http"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/service"
)

func (h *Handler) CreateAcademicYear(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAcademicYearRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	year, err := h.academicYearService.CreateAcademicYear(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeCreated(w, year)
}

func (h *Handler) ListAcademicYears(w http.ResponseWriter, r *http.Request) {
	years, err := h.academicYearService.ListAcademicYears(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, years)
}

func (h *Handler) GetAcademicYear(w http.ResponseWriter, r *http.Request) {
	yearID, ok := pathID(w, r, "id", service.ErrAcademicYearNotFound)
	if !ok {
		return
	}

	year, err := h.academicYearService.GetAcademicYear(r.Context(), yearID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, year)
}

func (h *Handler) GetCurrentAcademicYear(w http.ResponseWriter, r *http.Request) {
	year, err := h.academicYearService.GetCurrentAcademicYear(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, year)
}

func (h *Handler) SetCurrentAcademicYear(w http.ResponseWriter, r *http.Request) {
	yearID, ok := pathID(w, r, "id", service.ErrAcademicYearNotFound)
	if !ok {
		return
	}

	year, err := h.academicYearService.SetCurrentAcademicYear(r.Context(), yearID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, year)
}

func (h *Handler) UpdateAcademicYear(w http.ResponseWriter, r *http.Request) {
	yearID, ok := pathID(w, r, "id", service.ErrAcademicYearNotFound)
	if !ok {
		return
	}

	var req models.UpdateAcademicYearRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	year, err := h.academicYearService.UpdateAcademicYear(r.Context(), yearID, &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, year)
}

func (h *Handler) DeleteAcademicYear(w http.ResponseWriter, r *http.Request) {
	yearID, ok := pathID(w, r, "id", service.ErrAcademicYearNotFound)
	if !ok {
		return
	}

	if err := h.academicYearService.DeleteAcademicYear(r.Context(), yearID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Academic year deleted"})
}
