package service

import (
	"errors"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

var (
	ErrFormNotFound         = errors.New("form not found")
	ErrFormNotActive        = errors.New("form is not open for assignment")
	ErrFormInUse            = errors.New("form has assignments")
	ErrFacultyNotFound      = errors.New("faculty not found")
	ErrAssignmentNotFound   = errors.New("evaluation not found")
	ErrAlreadySubmitted     = errors.New("evaluation already submitted")
	ErrDeadlineExpired      = errors.New("evaluation deadline has passed")
	ErrNoEligibleStudents   = errors.New("no eligible students for this faculty member")
	ErrAcademicYearNotFound = errors.New("academic year not found")
	ErrClassNotFound        = errors.New("class not found")
	ErrClassInUse           = errors.New("class has active students")
	ErrAcademicYearInUse    = errors.New("academic year is in use")
	ErrStudentNotFound      = errors.New("student not found")
	ErrRelationshipNotFound = errors.New("relationship not found")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrValidation           = errors.New("validation failed")
	ErrAlreadyExists        = errors.New("already exists")
	ErrStorageUnavailable   = errors.New("report storage is not configured")
)

// NoEligibleStudentsError carries the students that were filtered out when
// nobody was left to assign.
type NoEligibleStudentsError struct {
	Skipped []models.SkippedStudent
}

func (e *NoEligibleStudentsError) Error() string {
	return ErrNoEligibleStudents.Error()
}

func (e *NoEligibleStudentsError) Unwrap() error {
	return ErrNoEligibleStudents
}
