package httpd

import (
	"net/http"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/service"
)

func (h *Handler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	var req models.CreateStudentRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	student, err := h.directoryService.CreateStudent(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeCreated(w, student)
}

func (h *Handler) CreateFaculty(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFacultyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	faculty, err := h.directoryService.CreateFaculty(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeCreated(w, faculty)
}

func (h *Handler) ListFaculty(w http.ResponseWriter, r *http.Request) {
	faculty, err := h.directoryService.ListFaculty(r.Context(), r.URL.Query().Get("department"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, faculty)
}

func (h *Handler) CreateClass(w http.ResponseWriter, r *http.Request) {
	var req models.CreateClassRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	class, err := h.directoryService.CreateClass(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeCreated(w, class)
}

func (h *Handler) DeleteClass(w http.ResponseWriter, r *http.Request) {
	classID, ok := pathID(w, r, "id", service.ErrClassNotFound)
	if !ok {
		return
	}

	if err := h.directoryService.DeleteClass(r.Context(), classID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Class deleted"})
}

func (h *Handler) LinkFacultyClass(w http.ResponseWriter, r *http.Request) {
	facultyID, ok := pathID(w, r, "id", service.ErrFacultyNotFound)
	if !ok {
		return
	}

	var req models.LinkFacultyClassRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	link, created, err := h.directoryService.LinkFacultyToClass(r.Context(), facultyID, &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if created {
		writeCreated(w, link)
		return
	}
	writeSuccess(w, link)
}

func (h *Handler) UnlinkFacultyClass(w http.ResponseWriter, r *http.Request) {
	facultyID, ok := pathID(w, r, "id", service.ErrFacultyNotFound)
	if !ok {
		return
	}
	classID, ok := pathID(w, r, "classID", service.ErrClassNotFound)
	if !ok {
		return
	}

	if err := h.directoryService.UnlinkFacultyFromClass(r.Context(), facultyID, classID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Faculty unlinked from class"})
}

// ListFacultyClasses is open to admins and to the faculty member themselves.
func (h *Handler) ListFacultyClasses(w http.ResponseWriter, r *http.Request) {
	facultyID, ok := pathID(w, r, "id", service.ErrFacultyNotFound)
	if !ok {
		return
	}

	identity := IdentityFromContext(r.Context())
	if identity.Role == RoleFaculty && identity.UserID != facultyID {
		writeError(w, http.StatusForbidden, "Faculty may only view their own classes")
		return
	}

	classes, err := h.directoryService.ListFacultyClasses(r.Context(), facultyID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, classes)
}

func (h *Handler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRelationshipRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	relationship, err := h.directoryService.CreateRelationship(r.Context(), &req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeCreated(w, relationship)
}

func (h *Handler) DeactivateRelationship(w http.ResponseWriter, r *http.Request) {
	relationshipID, ok := pathID(w, r, "id", service.ErrRelationshipNotFound)
	if !ok {
		return
	}

	if err := h.directoryService.DeactivateRelationship(r.Context(), relationshipID); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	writeSuccess(w, map[string]string{"message": "Relationship deactivated"})
}
