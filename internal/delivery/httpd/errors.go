package httpd

import (
	"errors"
	"net/http"

	"github.com/RubachokBoss/faculty-evaluation/internal/service"
)

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var noEligible *service.NoEligibleStudentsError

	switch {
	case errors.As(err, &noEligible):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":            http.StatusText(http.StatusUnprocessableEntity),
			"message":          err.Error(),
			"skipped_students": noEligible.Skipped,
		})
	case errors.Is(err, service.ErrFormNotFound),
		errors.Is(err, service.ErrFacultyNotFound),
		errors.Is(err, service.ErrAssignmentNotFound),
		errors.Is(err, service.ErrAcademicYearNotFound),
		errors.Is(err, service.ErrClassNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrRelationshipNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrFormNotActive),
		errors.Is(err, service.ErrAlreadySubmitted),
		errors.Is(err, service.ErrFormInUse),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrAlreadyExists),
		errors.Is(err, service.ErrClassInUse),
		errors.Is(err, service.ErrAcademicYearInUse):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDeadlineExpired), errors.Is(err, service.ErrNoEligibleStudents):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, service.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		h.logger.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
