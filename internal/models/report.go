package models

import "time"

// EvaluationRow is one assignment line of a form's responses report.
type EvaluationRow struct {
	AssignmentID string     `json:"evaluation_id"`
	StudentID    string     `json:"student_id,omitempty"`
	StudentName  string     `json:"student_name,omitempty"`
	FacultyID    string     `json:"faculty_id"`
	FacultyName  string     `json:"faculty_name"`
	ClassName    string     `json:"class_name,omitempty"`
	Status       string     `json:"evaluation_status"`
	Score        *float64   `json:"score"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

type FormScoreSummary struct {
	FormID           string   `json:"form_id"`
	OverallAverage   *float64 `json:"overall_average"`
	TotalResponses   int      `json:"total_responses"`
	TotalEvaluations int      `json:"total_evaluations"`
	TotalStudents    int      `json:"total_students"`
	ScoresReconciled int      `json:"scores_reconciled"`
}

type FormResponsesReport struct {
	Evaluations []EvaluationRow        `json:"evaluations"`
	Responses   []ResponseWithQuestion `json:"responses"`
	Statistics  FormScoreSummary       `json:"statistics"`
}

type FacultyFormScore struct {
	FormID       string   `json:"form_id"`
	FormTitle    string   `json:"form_title"`
	Assigned     int      `json:"assigned"`
	Completed    int      `json:"completed"`
	AverageScore *float64 `json:"average_score"`
}

type QuestionAverage struct {
	QuestionText string   `json:"question_text"`
	Responses    int      `json:"responses"`
	Average      *float64 `json:"average"`
}

type FacultyReport struct {
	Faculty          Faculty            `json:"faculty"`
	AcademicYearID   *string            `json:"academic_year_id,omitempty"`
	TotalAssigned    int                `json:"total_assigned"`
	Completed        int                `json:"completed"`
	Pending          int                `json:"pending"`
	Expired          int                `json:"expired"`
	AverageScore     *float64           `json:"average_score"`
	Forms            []FacultyFormScore `json:"forms"`
	QuestionAverages []QuestionAverage  `json:"question_averages"`
	ScoresReconciled int                `json:"scores_reconciled"`
}

type DepartmentReport struct {
	Department           string   `json:"department"`
	FacultyCount         int      `json:"faculty_count"`
	CompletedEvaluations int      `json:"completed_evaluations"`
	AverageScore         *float64 `json:"average_score"`
}

// ClassReport summarizes one class a faculty member teaches.
type ClassReport struct {
	ClassID              string   `json:"class_id"`
	ClassName            string   `json:"class_name"`
	Subject              string   `json:"subject"`
	StudentCount         int      `json:"student_count"`
	EvaluatedStudents    int      `json:"evaluated_students"`
	CompletedEvaluations int      `json:"completed_evaluations"`
	AverageScore         *float64 `json:"average_score"`
}

type DashboardStats struct {
	TotalForms            int `json:"total_forms"`
	ActiveForms           int `json:"active_forms"`
	AssignedClasses       int `json:"assigned_classes"`
	TotalQuestions        int `json:"total_questions"`
	PendingEvaluations    int `json:"pending_evaluations"`
	InProgressEvaluations int `json:"in_progress_evaluations"`
	CompletedEvaluations  int `json:"completed_evaluations"`
	ExpiredEvaluations    int `json:"expired_evaluations"`
}
