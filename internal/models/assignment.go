package models

import (
	"time"
)

// Assignment is one student's instance of a form, targeting one faculty member.
type Assignment struct {
	ID             string     `json:"id" db:"id"`
	FormID         string     `json:"form_id" db:"form_id"`
	StudentID      string     `json:"student_id" db:"student_id"`
	FacultyID      string     `json:"faculty_id" db:"faculty_id"`
	AcademicYearID *string    `json:"academic_year_id,omitempty" db:"academic_year_id"`
	Semester       *int       `json:"semester,omitempty" db:"semester"`
	Status         string     `json:"status" db:"status"` // pending, in_progress, completed
	AssignedBy     string     `json:"assigned_by" db:"assigned_by"`
	AssignedAt     time.Time  `json:"assigned_at" db:"assigned_at"`
	DueDate        *time.Time `json:"due_date,omitempty" db:"due_date"`
	StartedAt      *time.Time `json:"started_at,omitempty" db:"started_at"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty" db:"submitted_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	Score          *float64   `json:"score" db:"score"`
	Feedback       *string    `json:"feedback,omitempty" db:"feedback"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

type AssignmentWithDetails struct {
	Assignment
	FormTitle       string `json:"form_title" db:"form_title"`
	IsAnonymous     bool   `json:"is_anonymous" db:"is_anonymous"`
	FacultyName     string `json:"faculty_name" db:"faculty_name"`
	Department      string `json:"department" db:"department"`
	StudentName     string `json:"student_name,omitempty" db:"student_name"`
	SchoolID        string `json:"school_id,omitempty" db:"school_id"`
	ClassName       string `json:"class_name,omitempty" db:"class_name"`
	EffectiveStatus string `json:"effective_status"`
}

type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusInProgress AssignmentStatus = "in_progress"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	// AssignmentStatusExpired is derived at read time and never stored.
	AssignmentStatusExpired AssignmentStatus = "expired"
)

func (as AssignmentStatus) String() string {
	return string(as)
}

// EffectiveStatus classifies an open assignment past its due date as expired.
func (a *Assignment) EffectiveStatus(now time.Time) AssignmentStatus {
	status := AssignmentStatus(a.Status)
	if status == AssignmentStatusCompleted {
		return status
	}
	if DeadlinePassed(a.DueDate, now) {
		return AssignmentStatusExpired
	}
	return status
}

// DeadlinePassed compares calendar days: a submission on the due date itself
// is still on time.
func DeadlinePassed(due *time.Time, now time.Time) bool {
	if due == nil {
		return false
	}
	return dayOf(now).After(dayOf(*due))
}

func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type Response struct {
	ID           string    `json:"id" db:"id"`
	AssignmentID string    `json:"assignment_id" db:"assignment_id"`
	QuestionID   string    `json:"question_id" db:"question_id"`
	Value        string    `json:"response_value" db:"response_value"`
	SubmittedAt  time.Time `json:"submitted_at" db:"submitted_at"`
}

type ResponseWithQuestion struct {
	Response
	QuestionText string `json:"question_text" db:"question_text"`
	QuestionType string `json:"question_type" db:"question_type"`
	DisplayOrder int    `json:"display_order" db:"display_order"`
}

// StudentAssignmentView is what a student sees when opening an evaluation.
type StudentAssignmentView struct {
	Assignment AssignmentWithDetails `json:"evaluation"`
	Questions  []Question            `json:"questions"`
	Responses  []Response            `json:"responses"`
}
