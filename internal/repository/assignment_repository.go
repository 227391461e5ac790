package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

type AssignmentRepository interface {
	// Upsert inserts the assignment or refreshes the due date of the existing
	// (student, form) row. It fills in the stored ID and status and reports
	// whether a new row was created. An existing row for another faculty
	// member is left untouched and ErrAssignedElsewhere is returned.
	Upsert(ctx context.Context, assignment *models.Assignment) (bool, error)
	GetByID(ctx context.Context, id string) (*models.Assignment, error)
	GetWithDetails(ctx context.Context, id string) (*models.AssignmentWithDetails, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.AssignmentWithDetails, error)
	ListByForm(ctx context.Context, formID string) ([]models.AssignmentWithDetails, error)
	ListByFaculty(ctx context.Context, facultyID string, academicYearID *string) ([]models.AssignmentWithDetails, error)
	CountByForm(ctx context.Context, formID string) (int, error)
	MarkStarted(ctx context.Context, id string, at time.Time) (bool, error)
	UpdateScore(ctx context.Context, id string, score *float64) error
	ListResponses(ctx context.Context, assignmentID string) ([]models.Response, error)
	ListResponsesByForm(ctx context.Context, formID string) ([]models.ResponseWithQuestion, error)
	ListResponsesByFaculty(ctx context.Context, facultyID string, academicYearID *string) ([]models.ResponseWithQuestion, error)
	WithinTx(ctx context.Context, fn func(tx AssignmentTx) error) error
}

// AssignmentTx is the set of operations available inside a submission
// transaction. Every call shares the same row lock.
type AssignmentTx interface {
	LockForSubmit(ctx context.Context, id string) (*models.Assignment, error)
	ListQuestions(ctx context.Context, formID string) ([]models.Question, error)
	UpsertResponse(ctx context.Context, response *models.Response) error
	// ListResponses returns every stored answer of the assignment, including
	// ones saved before this transaction.
	ListResponses(ctx context.Context, assignmentID string) ([]models.ResponseWithQuestion, error)
	Complete(ctx context.Context, id string, at time.Time, score *float64, feedback *string) error
}

type assignmentRepository struct {
	*PostgresRepository
}

func NewAssignmentRepository(db *sql.DB, logger zerolog.Logger) AssignmentRepository {
	return &assignmentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const assignmentColumns = `a.id, a.form_id, a.student_id, a.faculty_id, a.academic_year_id, a.semester,
	a.status, a.assigned_by, a.assigned_at, a.due_date, a.started_at, a.submitted_at, a.completed_at,
	a.score, a.feedback, a.created_at, a.updated_at`

const assignmentDetailsQuery = `
	SELECT ` + assignmentColumns + `,
		f.title, f.is_anonymous,
		fa.first_name || ' ' || fa.last_name, fa.department,
		s.first_name || ' ' || s.last_name, s.school_id,
		COALESCE(c.name, '')
	FROM evaluation_assignments a
	JOIN evaluation_forms f ON f.id = a.form_id
	JOIN faculty fa ON fa.id = a.faculty_id
	JOIN students s ON s.id = a.student_id
	LEFT JOIN classes c ON c.id = s.class_id
`

func (r *assignmentRepository) Upsert(ctx context.Context, assignment *models.Assignment) (bool, error) {
	query := `
		INSERT INTO evaluation_assignments
			(id, form_id, student_id, faculty_id, academic_year_id, semester, status,
			 assigned_by, assigned_at, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (student_id, form_id) DO UPDATE
		SET due_date = EXCLUDED.due_date, updated_at = EXCLUDED.updated_at
		WHERE evaluation_assignments.faculty_id = EXCLUDED.faculty_id
		RETURNING id, status, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		assignment.ID,
		assignment.FormID,
		assignment.StudentID,
		assignment.FacultyID,
		assignment.AcademicYearID,
		assignment.Semester,
		assignment.Status,
		assignment.AssignedBy,
		assignment.AssignedAt,
		assignment.DueDate,
		assignment.CreatedAt,
		assignment.UpdatedAt,
	).Scan(&assignment.ID, &assignment.Status, &inserted)
	if err == sql.ErrNoRows {
		return false, ErrAssignedElsewhere
	}
	if err != nil {
		return false, translateError(err)
	}

	return inserted, nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM evaluation_assignments a WHERE a.id = $1`

	assignment, err := scanAssignment(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assignment, err
}

func (r *assignmentRepository) GetWithDetails(ctx context.Context, id string) (*models.AssignmentWithDetails, error) {
	query := assignmentDetailsQuery + ` WHERE a.id = $1`

	assignment, err := scanAssignmentWithDetails(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assignment, err
}

func (r *assignmentRepository) ListByStudent(ctx context.Context, studentID string) ([]models.AssignmentWithDetails, error) {
	query := assignmentDetailsQuery + `
		WHERE a.student_id = $1
		ORDER BY a.due_date ASC NULLS LAST, a.assigned_at DESC
	`

	return r.listWithDetails(ctx, query, studentID)
}

func (r *assignmentRepository) ListByForm(ctx context.Context, formID string) ([]models.AssignmentWithDetails, error) {
	query := assignmentDetailsQuery + `
		WHERE a.form_id = $1
		ORDER BY a.submitted_at DESC NULLS LAST, s.last_name, s.first_name
	`

	return r.listWithDetails(ctx, query, formID)
}

func (r *assignmentRepository) ListByFaculty(ctx context.Context, facultyID string, academicYearID *string) ([]models.AssignmentWithDetails, error) {
	query := assignmentDetailsQuery + `
		WHERE a.faculty_id = $1 AND ($2::uuid IS NULL OR a.academic_year_id = $2::uuid)
		ORDER BY f.created_at DESC, a.assigned_at
	`

	return r.listWithDetails(ctx, query, facultyID, academicYearID)
}

func (r *assignmentRepository) listWithDetails(ctx context.Context, query string, args ...interface{}) ([]models.AssignmentWithDetails, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var assignments []models.AssignmentWithDetails
	for rows.Next() {
		assignment, err := scanAssignmentWithDetails(rows)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, *assignment)
	}

	return assignments, rows.Err()
}

func (r *assignmentRepository) CountByForm(ctx context.Context, formID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluation_assignments WHERE form_id = $1`, formID).Scan(&count)
	return count, err
}

// MarkStarted moves a pending assignment to in_progress. It reports false
// when the assignment was not pending.
func (r *assignmentRepository) MarkStarted(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `
		UPDATE evaluation_assignments
		SET status = 'in_progress', started_at = $2, updated_at = $2
		WHERE id = $1 AND status = 'pending'
	`

	res, err := r.db.ExecContext(ctx, query, id, at)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *assignmentRepository) UpdateScore(ctx context.Context, id string, score *float64) error {
	query := `UPDATE evaluation_assignments SET score = $1, updated_at = $2 WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, score, time.Now(), id)
	return err
}

func (r *assignmentRepository) ListResponses(ctx context.Context, assignmentID string) ([]models.Response, error) {
	query := `
		SELECT r.id, r.assignment_id, r.question_id, r.response_value, r.submitted_at
		FROM evaluation_responses r
		JOIN form_questions q ON q.id = r.question_id
		WHERE r.assignment_id = $1
		ORDER BY q.display_order
	`

	rows, err := r.db.QueryContext(ctx, query, assignmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []models.Response
	for rows.Next() {
		var resp models.Response
		if err := rows.Scan(
			&resp.ID,
			&resp.AssignmentID,
			&resp.QuestionID,
			&resp.Value,
			&resp.SubmittedAt,
		); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return responses, rows.Err()
}

const responsesWithQuestionQuery = `
	SELECT r.id, r.assignment_id, r.question_id, r.response_value, r.submitted_at,
		q.question_text, q.question_type, q.display_order
	FROM evaluation_responses r
	JOIN form_questions q ON q.id = r.question_id
	JOIN evaluation_assignments a ON a.id = r.assignment_id
`

func (r *assignmentRepository) ListResponsesByForm(ctx context.Context, formID string) ([]models.ResponseWithQuestion, error) {
	query := responsesWithQuestionQuery + `
		WHERE a.form_id = $1
		ORDER BY r.assignment_id, q.display_order
	`

	return listResponsesWithQuestion(ctx, r.db, query, formID)
}

func (r *assignmentRepository) ListResponsesByFaculty(ctx context.Context, facultyID string, academicYearID *string) ([]models.ResponseWithQuestion, error) {
	query := responsesWithQuestionQuery + `
		WHERE a.faculty_id = $1 AND a.status = 'completed'
			AND ($2::uuid IS NULL OR a.academic_year_id = $2::uuid)
		ORDER BY q.display_order
	`

	return listResponsesWithQuestion(ctx, r.db, query, facultyID, academicYearID)
}

func listResponsesWithQuestion(ctx context.Context, q querier, query string, args ...interface{}) ([]models.ResponseWithQuestion, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var responses []models.ResponseWithQuestion
	for rows.Next() {
		var resp models.ResponseWithQuestion
		if err := rows.Scan(
			&resp.ID,
			&resp.AssignmentID,
			&resp.QuestionID,
			&resp.Value,
			&resp.SubmittedAt,
			&resp.QuestionText,
			&resp.QuestionType,
			&resp.DisplayOrder,
		); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	return responses, rows.Err()
}

func (r *assignmentRepository) WithinTx(ctx context.Context, fn func(tx AssignmentTx) error) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return fn(&assignmentTx{tx: tx})
	})
}

type assignmentTx struct {
	tx *sql.Tx
}

func (t *assignmentTx) LockForSubmit(ctx context.Context, id string) (*models.Assignment, error) {
	query := `SELECT ` + assignmentColumns + ` FROM evaluation_assignments a WHERE a.id = $1 FOR UPDATE`

	assignment, err := scanAssignment(t.tx.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return assignment, err
}

func (t *assignmentTx) ListQuestions(ctx context.Context, formID string) ([]models.Question, error) {
	return listQuestions(ctx, t.tx, formID)
}

func (t *assignmentTx) UpsertResponse(ctx context.Context, response *models.Response) error {
	query := `
		INSERT INTO evaluation_responses (id, assignment_id, question_id, response_value, submitted_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (assignment_id, question_id) DO UPDATE
		SET response_value = EXCLUDED.response_value, submitted_at = EXCLUDED.submitted_at
	`

	_, err := t.tx.ExecContext(ctx, query,
		response.ID,
		response.AssignmentID,
		response.QuestionID,
		response.Value,
		response.SubmittedAt,
	)

	return translateError(err)
}

func (t *assignmentTx) ListResponses(ctx context.Context, assignmentID string) ([]models.ResponseWithQuestion, error) {
	query := responsesWithQuestionQuery + `
		WHERE r.assignment_id = $1
		ORDER BY q.display_order
	`

	return listResponsesWithQuestion(ctx, t.tx, query, assignmentID)
}

func (t *assignmentTx) Complete(ctx context.Context, id string, at time.Time, score *float64, feedback *string) error {
	query := `
		UPDATE evaluation_assignments
		SET status = 'completed', submitted_at = $2, completed_at = $2, score = $3,
			feedback = COALESCE($4, feedback), updated_at = $2
		WHERE id = $1
	`

	_, err := t.tx.ExecContext(ctx, query, id, at, score, feedback)
	return err
}

func scanAssignment(row rowScanner) (*models.Assignment, error) {
	var a models.Assignment
	if err := row.Scan(assignmentDest(&a)...); err != nil {
		return nil, err
	}
	return &a, nil
}

func scanAssignmentWithDetails(row rowScanner) (*models.AssignmentWithDetails, error) {
	var a models.AssignmentWithDetails
	dest := append(assignmentDest(&a.Assignment),
		&a.FormTitle,
		&a.IsAnonymous,
		&a.FacultyName,
		&a.Department,
		&a.StudentName,
		&a.SchoolID,
		&a.ClassName,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	return &a, nil
}

// assignmentDest maps nullable columns straight onto pointer fields;
// database/sql stores NULL as a nil pointer.
func assignmentDest(a *models.Assignment) []interface{} {
	return []interface{}{
		&a.ID,
		&a.FormID,
		&a.StudentID,
		&a.FacultyID,
		&a.AcademicYearID,
		&a.Semester,
		&a.Status,
		&a.AssignedBy,
		&a.AssignedAt,
		&a.DueDate,
		&a.StartedAt,
		&a.SubmittedAt,
		&a.CompletedAt,
		&a.Score,
		&a.Feedback,
		&a.CreatedAt,
		&a.UpdatedAt,
	}
}
