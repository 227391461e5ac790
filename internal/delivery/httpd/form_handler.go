package httpd

import (
	"net/http"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/service"
)

func (h *Handler) CreateForm(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFormRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}
	req.CreatedBy = IdentityFromContext(r.Context()).UserID

	form, err := h.formService.CreateForm(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeCreated(w, form)
}

func (h *Handler) ListForms(w http.ResponseWriter, r *http.Request) {
	page := getIntQueryParam(r, "page", 1)
	limit := getIntQueryParam(r, "limit", 20)
	status := r.URL.Query().Get("status")

	forms, err := h.formService.ListForms(r.Context(), status, page, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, forms)
}

func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "id", service.ErrFormNotFound)
	if !ok {
		return
	}

	form, err := h.formService.GetForm(r.Context(), formID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, form)
}

func (h *Handler) DeleteForm(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "id", service.ErrFormNotFound)
	if !ok {
		return
	}

	if err := h.formService.DeleteForm(r.Context(), formID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Form deleted successfully"})
}

func (h *Handler) UpdateFormStatus(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "id", service.ErrFormNotFound)
	if !ok {
		return
	}

	var req models.UpdateFormStatusRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	form, err := h.formService.UpdateFormStatus(r.Context(), formID, req.Status)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, form)
}

func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	formID, ok := pathID(w, r, "id", service.ErrFormNotFound)
	if !ok {
		return
	}

	questions, err := h.formService.ListQuestions(r.Context(), formID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, questions)
}
