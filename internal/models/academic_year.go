package models

import "time"

type AcademicYear struct {
	ID        string    `json:"id" db:"id"`
	YearCode  string    `json:"year_code" db:"year_code"`
	YearName  string    `json:"year_name" db:"year_name"`
	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`
	Status    string    `json:"status" db:"status"` // upcoming, active, completed
	IsCurrent bool      `json:"is_current" db:"is_current"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

type AcademicYearStatus string

const (
	AcademicYearStatusUpcoming  AcademicYearStatus = "upcoming"
	AcademicYearStatusActive    AcademicYearStatus = "active"
	AcademicYearStatusCompleted AcademicYearStatus = "completed"
)

func (ys AcademicYearStatus) String() string {
	return string(ys)
}

// YearStatusFor derives a year's status from its date range relative to now.
func YearStatusFor(start, end, now time.Time) AcademicYearStatus {
	today := dayOf(now)
	switch {
	case dayOf(end).Before(today):
		return AcademicYearStatusCompleted
	case dayOf(start).After(today):
		return AcademicYearStatusUpcoming
	default:
		return AcademicYearStatusActive
	}
}
