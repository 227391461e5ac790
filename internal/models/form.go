package models

import (
	"time"
)

type Form struct {
	ID             string    `json:"id" db:"id"`
	FormCode       string    `json:"form_code" db:"form_code"`
	Title          string    `json:"title" db:"title"`
	Description    string    `json:"description" db:"description"`
	AcademicYearID *string   `json:"academic_year_id,omitempty" db:"academic_year_id"`
	Semester       *int      `json:"semester,omitempty" db:"semester"`
	FacultyID      *string   `json:"faculty_id,omitempty" db:"faculty_id"`
	IsAnonymous    bool      `json:"is_anonymous" db:"is_anonymous"`
	Status         string    `json:"status" db:"status"` // not_started, starting, closed
	CreatedBy      string    `json:"created_by" db:"created_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

type FormWithStats struct {
	Form
	QuestionsCount   int `json:"questions_count" db:"questions_count"`
	ClassesCount     int `json:"classes_count" db:"classes_count"`
	AssignmentsCount int `json:"assignments_count" db:"assignments_count"`
}

type FormStatistics struct {
	TotalStudents    int      `json:"total_students"`
	TotalSubmissions int      `json:"total_submissions"`
	AverageScore     *float64 `json:"average_score"`
}

type FormDetails struct {
	FormWithStats
	Questions  []Question     `json:"questions"`
	Classes    []Class        `json:"assigned_classes"`
	Statistics FormStatistics `json:"statistics"`
}

type Question struct {
	ID           string    `json:"id" db:"id"`
	FormID       string    `json:"form_id" db:"form_id"`
	Text         string    `json:"question_text" db:"question_text"`
	Type         string    `json:"question_type" db:"question_type"`
	Required     bool      `json:"is_required" db:"is_required"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
}

type FormStatus string

const (
	FormStatusNotStarted FormStatus = "not_started"
	FormStatusStarting   FormStatus = "starting"
	FormStatusClosed     FormStatus = "closed"
)

func (fs FormStatus) String() string {
	return string(fs)
}

func (fs FormStatus) rank() int {
	switch fs {
	case FormStatusNotStarted:
		return 0
	case FormStatusStarting:
		return 1
	case FormStatusClosed:
		return 2
	default:
		return -1
	}
}

// Assignable reports whether assignments may still be created for a form.
func (fs FormStatus) Assignable() bool {
	return fs == FormStatusNotStarted || fs == FormStatusStarting
}

// CanTransitionTo allows forward moves only: not_started -> starting -> closed.
func (fs FormStatus) CanTransitionTo(next FormStatus) bool {
	from, to := fs.rank(), next.rank()
	return from >= 0 && to > from
}

func IsValidFormStatus(status string) bool {
	return FormStatus(status).rank() >= 0
}

type QuestionType string

const (
	QuestionTypeRating QuestionType = "rating_1_5"
	QuestionTypeText   QuestionType = "text"
	QuestionTypeYesNo  QuestionType = "yes_no"
)

func (qt QuestionType) String() string {
	return string(qt)
}

func IsValidQuestionType(t string) bool {
	switch QuestionType(t) {
	case QuestionTypeRating, QuestionTypeText, QuestionTypeYesNo:
		return true
	default:
		return false
	}
}
