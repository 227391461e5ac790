package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

type StudentRepository interface {
	Create(ctx context.Context, student *models.Student) error
	GetByID(ctx context.Context, id string) (*models.Student, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Student, error)
	ListActiveInClasses(ctx context.Context, classIDs []string) ([]models.Student, error)
}

type studentRepository struct {
	*PostgresRepository
}

func NewStudentRepository(db *sql.DB, logger zerolog.Logger) StudentRepository {
	return &studentRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const studentColumns = `s.id, s.school_id, s.first_name, s.last_name, s.email, s.class_id, s.is_active, s.created_at, s.updated_at`

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	query := `
		INSERT INTO students (id, school_id, first_name, last_name, email, class_id, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		student.ID,
		student.SchoolID,
		student.FirstName,
		student.LastName,
		student.Email,
		student.ClassID,
		student.IsActive,
		student.CreatedAt,
		student.UpdatedAt,
	)

	return translateError(err)
}

func (r *studentRepository) GetByID(ctx context.Context, id string) (*models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.id = $1`

	student, err := scanStudent(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return student, err
}

func (r *studentRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students s WHERE s.id = ANY($1)`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStudents(rows)
}

func (r *studentRepository) ListActiveInClasses(ctx context.Context, classIDs []string) ([]models.Student, error) {
	query := `
		SELECT ` + studentColumns + `
		FROM students s
		WHERE s.class_id = ANY($1) AND s.is_active
		ORDER BY s.last_name, s.first_name
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(classIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanStudents(rows)
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanStudent(row rowScanner) (*models.Student, error) {
	var (
		student models.Student
		classID sql.NullString
	)

	err := row.Scan(
		&student.ID,
		&student.SchoolID,
		&student.FirstName,
		&student.LastName,
		&student.Email,
		&classID,
		&student.IsActive,
		&student.CreatedAt,
		&student.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	student.ClassID = nullString(classID)
	return &student, nil
}

func scanStudents(rows *sql.Rows) ([]models.Student, error) {
	var students []models.Student
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			return nil, err
		}
		students = append(students, *student)
	}

	return students, rows.Err()
}
