package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

type FormRepository interface {
	CreateWithQuestions(ctx context.Context, form *models.Form, questions []models.Question, classIDs []string, assignedBy string) error
	GetByID(ctx context.Context, id string) (*models.Form, error)
	GetWithStats(ctx context.Context, id string) (*models.FormWithStats, error)
	List(ctx context.Context, status string, limit, offset int) ([]models.FormWithStats, int, error)
	ListQuestions(ctx context.Context, formID string) ([]models.Question, error)
	ListClasses(ctx context.Context, formID string) ([]models.Class, error)
	LinkClasses(ctx context.Context, formID string, classIDs []string, assignedBy string) error
	UpdateStatus(ctx context.Context, id, status string) error
	Delete(ctx context.Context, id string) error
}

type formRepository struct {
	*PostgresRepository
}

func NewFormRepository(db *sql.DB, logger zerolog.Logger) FormRepository {
	return &formRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const formColumns = `f.id, f.form_code, f.title, f.description, f.academic_year_id, f.semester,
	f.faculty_id, f.is_anonymous, f.status, f.created_by, f.created_at, f.updated_at`

const formStatsColumns = formColumns + `,
	(SELECT COUNT(*) FROM form_questions q WHERE q.form_id = f.id) AS questions_count,
	(SELECT COUNT(*) FROM form_classes fc WHERE fc.form_id = f.id) AS classes_count,
	(SELECT COUNT(*) FROM evaluation_assignments ea WHERE ea.form_id = f.id) AS assignments_count`

// CreateWithQuestions stores the form, its questions and class links atomically.
func (r *formRepository) CreateWithQuestions(ctx context.Context, form *models.Form, questions []models.Question, classIDs []string, assignedBy string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		query := `
			INSERT INTO evaluation_forms
				(id, form_code, title, description, academic_year_id, semester, faculty_id,
				 is_anonymous, status, created_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		`

		_, err := tx.ExecContext(ctx, query,
			form.ID,
			form.FormCode,
			form.Title,
			form.Description,
			form.AcademicYearID,
			form.Semester,
			form.FacultyID,
			form.IsAnonymous,
			form.Status,
			form.CreatedBy,
			form.CreatedAt,
			form.UpdatedAt,
		)
		if err != nil {
			return translateError(err)
		}

		questionQuery := `
			INSERT INTO form_questions
				(id, form_id, question_text, question_type, is_required, display_order, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`
		for _, q := range questions {
			if _, err := tx.ExecContext(ctx, questionQuery,
				q.ID,
				form.ID,
				q.Text,
				q.Type,
				q.Required,
				q.DisplayOrder,
				q.CreatedAt,
			); err != nil {
				return translateError(err)
			}
		}

		return linkClasses(ctx, tx, form.ID, classIDs, assignedBy)
	})
}

func linkClasses(ctx context.Context, q querier, formID string, classIDs []string, assignedBy string) error {
	query := `
		INSERT INTO form_classes (id, form_id, class_id, assigned_by, assigned_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (form_id, class_id) DO NOTHING
	`

	now := time.Now()
	for _, classID := range classIDs {
		if _, err := q.ExecContext(ctx, query, uuid.New().String(), formID, classID, assignedBy, now); err != nil {
			return translateError(err)
		}
	}

	return nil
}

func (r *formRepository) LinkClasses(ctx context.Context, formID string, classIDs []string, assignedBy string) error {
	return r.withTx(ctx, func(tx *sql.Tx) error {
		return linkClasses(ctx, tx, formID, classIDs, assignedBy)
	})
}

func (r *formRepository) GetByID(ctx context.Context, id string) (*models.Form, error) {
	query := `SELECT ` + formColumns + ` FROM evaluation_forms f WHERE f.id = $1`

	form, err := scanForm(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return form, err
}

func (r *formRepository) GetWithStats(ctx context.Context, id string) (*models.FormWithStats, error) {
	query := `SELECT ` + formStatsColumns + ` FROM evaluation_forms f WHERE f.id = $1`

	form, err := scanFormWithStats(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return form, err
}

func (r *formRepository) List(ctx context.Context, status string, limit, offset int) ([]models.FormWithStats, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM evaluation_forms WHERE ($1 = '' OR status = $1)`
	if err := r.db.QueryRowContext(ctx, countQuery, status).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT ` + formStatsColumns + `
		FROM evaluation_forms f
		WHERE ($1 = '' OR f.status = $1)
		ORDER BY f.created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, status, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var forms []models.FormWithStats
	for rows.Next() {
		form, err := scanFormWithStats(rows)
		if err != nil {
			return nil, 0, err
		}
		forms = append(forms, *form)
	}

	return forms, total, rows.Err()
}

func (r *formRepository) ListQuestions(ctx context.Context, formID string) ([]models.Question, error) {
	return listQuestions(ctx, r.db, formID)
}

func listQuestions(ctx context.Context, q querier, formID string) ([]models.Question, error) {
	query := `
		SELECT id, form_id, question_text, question_type, is_required, display_order, created_at
		FROM form_questions
		WHERE form_id = $1
		ORDER BY display_order
	`

	rows, err := q.QueryContext(ctx, query, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		var question models.Question
		if err := rows.Scan(
			&question.ID,
			&question.FormID,
			&question.Text,
			&question.Type,
			&question.Required,
			&question.DisplayOrder,
			&question.CreatedAt,
		); err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}

	return questions, rows.Err()
}

func (r *formRepository) ListClasses(ctx context.Context, formID string) ([]models.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM form_classes fc
		JOIN classes c ON c.id = fc.class_id
		WHERE fc.form_id = $1
		ORDER BY c.name
	`

	rows, err := r.db.QueryContext(ctx, query, formID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClasses(rows)
}

func (r *formRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := `UPDATE evaluation_forms SET status = $1, updated_at = $2 WHERE id = $3`

	_, err := r.db.ExecContext(ctx, query, status, time.Now(), id)
	return err
}

// Delete removes a form with its questions and class links. It fails with
// ErrReferenced while any assignment points at the form.
func (r *formRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM evaluation_forms WHERE id = $1`, id)
	return translateError(err)
}

func scanForm(row rowScanner) (*models.Form, error) {
	var (
		form     models.Form
		yearID   sql.NullString
		semester sql.NullInt64
		faculty  sql.NullString
	)

	err := row.Scan(
		&form.ID,
		&form.FormCode,
		&form.Title,
		&form.Description,
		&yearID,
		&semester,
		&faculty,
		&form.IsAnonymous,
		&form.Status,
		&form.CreatedBy,
		&form.CreatedAt,
		&form.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	form.AcademicYearID = nullString(yearID)
	form.Semester = nullInt(semester)
	form.FacultyID = nullString(faculty)
	return &form, nil
}

func scanFormWithStats(row rowScanner) (*models.FormWithStats, error) {
	var (
		form     models.FormWithStats
		yearID   sql.NullString
		semester sql.NullInt64
		faculty  sql.NullString
	)

	err := row.Scan(
		&form.ID,
		&form.FormCode,
		&form.Title,
		&form.Description,
		&yearID,
		&semester,
		&faculty,
		&form.IsAnonymous,
		&form.Status,
		&form.CreatedBy,
		&form.CreatedAt,
		&form.UpdatedAt,
		&form.QuestionsCount,
		&form.ClassesCount,
		&form.AssignmentsCount,
	)
	if err != nil {
		return nil, err
	}

	form.AcademicYearID = nullString(yearID)
	form.Semester = nullInt(semester)
	form.FacultyID = nullString(faculty)
	return &form, nil
}
