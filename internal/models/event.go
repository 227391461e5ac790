package models

type FormAssignedEvent struct {
	FormID         string `json:"form_id"`
	FacultyID      string `json:"faculty_id"`
	NewAssignments int    `json:"new_assignments"`
	Existing       int    `json:"existing_assignments"`
	Skipped        int    `json:"skipped"`
	Timestamp      int64  `json:"timestamp"`
}

type EvaluationSubmittedEvent struct {
	AssignmentID string   `json:"assignment_id"`
	FormID       string   `json:"form_id"`
	FacultyID    string   `json:"faculty_id"`
	StudentID    string   `json:"student_id,omitempty"`
	Score        *float64 `json:"score"`
	Timestamp    int64    `json:"timestamp"`
}
