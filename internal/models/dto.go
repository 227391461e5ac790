package models

import "time"

// Data Transfer Objects

type CreateQuestionRequest struct {
	Text     string `json:"text" validate:"required,max=2000"`
	Type     string `json:"type" validate:"omitempty,oneof=rating_1_5 text yes_no"`
	Required bool   `json:"required"`
}

type CreateFormRequest struct {
	Title          string                  `json:"title" validate:"required,min=3,max=255"`
	Description    string                  `json:"description" validate:"max=2000"`
	AcademicYearID *string                 `json:"academic_year_id" validate:"omitempty,uuid"`
	Semester       *int                    `json:"semester" validate:"omitempty,min=1,max=3"`
	FacultyID      *string                 `json:"faculty_id" validate:"omitempty,uuid"`
	IsAnonymous    bool                    `json:"is_anonymous"`
	Status         string                  `json:"status" validate:"omitempty,oneof=not_started starting"`
	ClassIDs       []string                `json:"class_ids" validate:"dive,uuid"`
	Questions      []CreateQuestionRequest `json:"questions" validate:"required,min=1,dive"`
	CreatedBy      string                  `json:"-"`
}

type UpdateFormStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=not_started starting closed"`
}

type AssignFormRequest struct {
	FacultyID      string   `json:"faculty_id" validate:"required,uuid"`
	StudentIDs     []string `json:"student_ids" validate:"required,min=1,dive,uuid"`
	AcademicYearID *string  `json:"academic_year_id" validate:"omitempty,uuid"`
	Semester       *int     `json:"semester" validate:"omitempty,min=1,max=3"`
	DueDate        string   `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

type AssignClassesRequest struct {
	FacultyID      string   `json:"faculty_id" validate:"required,uuid"`
	ClassIDs       []string `json:"class_ids" validate:"required,min=1,dive,uuid"`
	AcademicYearID *string  `json:"academic_year_id" validate:"omitempty,uuid"`
	Semester       *int     `json:"semester" validate:"omitempty,min=1,max=3"`
	DueDate        string   `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
}

// AssignStudentsInput is the engine-level request for AssignFormToStudents.
type AssignStudentsInput struct {
	FormID         string
	FacultyID      string
	StudentIDs     []string
	AcademicYearID *string
	Semester       *int
	DueDate        *time.Time
	AssignedBy     string
}

type AssignClassesInput struct {
	FormID         string
	FacultyID      string
	ClassIDs       []string
	AcademicYearID *string
	Semester       *int
	DueDate        *time.Time
	AssignedBy     string
}

const (
	AssignOutcomeAssigned        = "assigned"
	AssignOutcomeAlreadyAssigned = "already_assigned"

	SkipReasonNoRelationship = "no faculty relationship"
	SkipReasonNotFound       = "student not found or inactive"
	SkipReasonOtherFaculty   = "already assigned to another faculty member"
)

type AssignedStudent struct {
	StudentID    string `json:"student_id"`
	StudentName  string `json:"student_name"`
	SchoolID     string `json:"school_id"`
	AssignmentID string `json:"assignment_id"`
	Status       string `json:"status"` // assigned, already_assigned
}

type SkippedStudent struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name,omitempty"`
	SchoolID    string `json:"school_id,omitempty"`
	Reason      string `json:"reason"`
}

type FailedStudent struct {
	StudentID string `json:"student_id"`
	Error     string `json:"error"`
}

type AssignmentCounts struct {
	Requested int `json:"requested"`
	New       int `json:"new"`
	Existing  int `json:"existing"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

type AssignmentResult struct {
	FormID      string            `json:"form_id"`
	FacultyID   string            `json:"faculty_id"`
	FacultyName string            `json:"faculty_name"`
	Assigned    []AssignedStudent `json:"assignments"`
	Skipped     []SkippedStudent  `json:"skipped_students"`
	Failed      []FailedStudent   `json:"failed_students"`
	Counts      AssignmentCounts  `json:"counts"`
	Warning     string            `json:"warning,omitempty"`
}

type ResponseInput struct {
	QuestionID string `json:"question_id" validate:"required,uuid"`
	Value      string `json:"value" validate:"max=5000"`
}

type SubmitEvaluationRequest struct {
	Responses []ResponseInput `json:"responses" validate:"required,min=1,dive"`
	Feedback  *string         `json:"feedback" validate:"omitempty,max=5000"`
}

type SubmissionResult struct {
	AssignmentID      string    `json:"evaluation_id"`
	SubmittedAt       time.Time `json:"submitted_at"`
	Score             *float64  `json:"score"`
	ResponsesRecorded int       `json:"total_questions"`
}

type CreateAcademicYearRequest struct {
	YearCode  string `json:"year_code" validate:"required,max=32"`
	YearName  string `json:"year_name" validate:"required,max=255"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// UpdateAcademicYearRequest replaces the editable fields of a year. The
// current flag changes only through set-current.
type UpdateAcademicYearRequest struct {
	YearCode  string `json:"year_code" validate:"required,max=32"`
	YearName  string `json:"year_name" validate:"required,max=255"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type CreateStudentRequest struct {
	SchoolID  string  `json:"school_id" validate:"required,max=64"`
	FirstName string  `json:"first_name" validate:"required,max=255"`
	LastName  string  `json:"last_name" validate:"required,max=255"`
	Email     string  `json:"email" validate:"required,email,max=255"`
	ClassID   *string `json:"class_id" validate:"omitempty,uuid"`
}

type CreateFacultyRequest struct {
	SchoolID   string `json:"school_id" validate:"required,max=64"`
	FirstName  string `json:"first_name" validate:"required,max=255"`
	LastName   string `json:"last_name" validate:"required,max=255"`
	Email      string `json:"email" validate:"required,email,max=255"`
	Department string `json:"department" validate:"max=255"`
}

type CreateClassRequest struct {
	Name       string `json:"name" validate:"required,max=255"`
	Curriculum string `json:"curriculum" validate:"max=255"`
	Level      string `json:"level" validate:"max=64"`
	Section    string `json:"section" validate:"max=64"`
}

type LinkFacultyClassRequest struct {
	ClassID string `json:"class_id" validate:"required,uuid"`
	Subject string `json:"subject" validate:"max=255"`
}

type CreateRelationshipRequest struct {
	StudentID      string  `json:"student_id" validate:"required,uuid"`
	FacultyID      string  `json:"faculty_id" validate:"required,uuid"`
	AcademicYearID *string `json:"academic_year_id" validate:"omitempty,uuid"`
	Semester       *int    `json:"semester" validate:"omitempty,min=1,max=3"`
}

type FormsResponse struct {
	Forms []FormWithStats `json:"forms"`
	Total int             `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type ExportResponse struct {
	ObjectKey string    `json:"object_key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}
