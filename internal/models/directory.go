package models

import (
	"time"
)

type Student struct {
	ID        string    `json:"id" db:"id"`
	SchoolID  string    `json:"school_id" db:"school_id"`
	FirstName string    `json:"first_name" db:"first_name"`
	LastName  string    `json:"last_name" db:"last_name"`
	Email     string    `json:"email" db:"email"`
	ClassID   *string   `json:"class_id,omitempty" db:"class_id"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (s Student) FullName() string {
	return s.FirstName + " " + s.LastName
}

type Faculty struct {
	ID         string    `json:"id" db:"id"`
	SchoolID   string    `json:"school_id" db:"school_id"`
	FirstName  string    `json:"first_name" db:"first_name"`
	LastName   string    `json:"last_name" db:"last_name"`
	Email      string    `json:"email" db:"email"`
	Department string    `json:"department" db:"department"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

func (f Faculty) FullName() string {
	return f.FirstName + " " + f.LastName
}

type Class struct {
	ID         string    `json:"id" db:"id"`
	Name       string    `json:"name" db:"name"`
	Curriculum string    `json:"curriculum" db:"curriculum"`
	Level      string    `json:"level" db:"level"`
	Section    string    `json:"section" db:"section"`
	IsActive   bool      `json:"is_active" db:"is_active"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// Relationship records that a student is taught by a faculty member,
// optionally scoped to an academic year and semester.
type Relationship struct {
	ID             string    `json:"id" db:"id"`
	StudentID      string    `json:"student_id" db:"student_id"`
	FacultyID      string    `json:"faculty_id" db:"faculty_id"`
	AcademicYearID *string   `json:"academic_year_id,omitempty" db:"academic_year_id"`
	Semester       *int      `json:"semester,omitempty" db:"semester"`
	IsActive       bool      `json:"is_active" db:"is_active"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// FacultyClass records that a faculty member teaches a class.
type FacultyClass struct {
	ID        string    `json:"id" db:"id"`
	FacultyID string    `json:"faculty_id" db:"faculty_id"`
	ClassID   string    `json:"class_id" db:"class_id"`
	Subject   string    `json:"subject" db:"subject"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// TaughtClass is a class as seen from the faculty member teaching it.
type TaughtClass struct {
	Class
	LinkID       string `json:"link_id"`
	Subject      string `json:"subject"`
	StudentCount int    `json:"student_count"`
}
