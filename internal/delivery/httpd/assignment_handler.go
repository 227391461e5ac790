package httpd

import (
	"net/http"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/service"
)

func (h *Handler) AssignFormToStudents(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "id", service.ErrFormNotFound)
	if !ok {
		return
	}

	var req models.AssignFormRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}

	result, err := h.assignmentService.AssignFormToStudents(r.Context(), &models.AssignStudentsInput{
		FormID:         formID,
		FacultyID:      req.FacultyID,
		StudentIDs:     req.StudentIDs,
		AcademicYearID: req.AcademicYearID,
		Semester:       req.Semester,
		DueDate:        dueDate,
		AssignedBy:     IdentityFromContext(r.Context()).UserID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, result)
}

func (h *Handler) AssignFormToClasses(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "id", service.ErrFormNotFound)
	if !ok {
		return
	}

	var req models.AssignClassesRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	dueDate, err := parseDueDate(req.DueDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "due_date must be YYYY-MM-DD")
		return
	}

	result, err := h.assignmentService.AssignFormToClasses(r.Context(), &models.AssignClassesInput{
		FormID:         formID,
		FacultyID:      req.FacultyID,
		ClassIDs:       req.ClassIDs,
		AcademicYearID: req.AcademicYearID,
		Semester:       req.Semester,
		DueDate:        dueDate,
		AssignedBy:     IdentityFromContext(r.Context()).UserID,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, result)
}
