package httpd

import (
	"net/http"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/service"
)

// Handlers under /me/evaluations act on behalf of the authenticated student.

func (h *Handler) ListMyEvaluations(w http.ResponseWriter, r *http.Request) {
	studentID := IdentityFromContext(r.Context()).UserID

	assignments, err := h.submissionService.ListStudentAssignments(r.Context(), studentID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, assignments)
}

func (h *Handler) GetMyEvaluation(w http.ResponseWriter, r *http.Request) {
	assignmentID, ok := pathID(w, r, "id", service.ErrAssignmentNotFound)
	if !ok {
		return
	}
	studentID := IdentityFromContext(r.Context()).UserID

	view, err := h.submissionService.GetStudentAssignment(r.Context(), assignmentID, studentID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, view)
}

func (h *Handler) StartMyEvaluation(w http.ResponseWriter, r *http.Request) {
	assignmentID, ok := pathID(w, r, "id", service.ErrAssignmentNotFound)
	if !ok {
		return
	}
	studentID := IdentityFromContext(r.Context()).UserID

	assignment, err := h.submissionService.StartAssignment(r.Context(), assignmentID, studentID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, assignment)
}

func (h *Handler) SubmitMyEvaluation(w http.ResponseWriter, r *http.Request) {
	assignmentID, ok := pathID(w, r, "id", service.ErrAssignmentNotFound)
	if !ok {
		return
	}
	studentID := IdentityFromContext(r.Context()).UserID

	var req models.SubmitEvaluationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	result, err := h.submissionService.Submit(r.Context(), assignmentID, studentID, &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	h.logger.Info().
		Str("assignment_id", assignmentID).
		Str("student_id", studentID).
		Msg("Evaluation submitted")

	writeSuccess(w, result)
}
