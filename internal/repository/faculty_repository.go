package repository

import (
	"context"
	"database/sql"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

type FacultyRepository interface {
	Create(ctx context.Context, faculty *models.Faculty) error
	GetByID(ctx context.Context, id string) (*models.Faculty, error)
	List(ctx context.Context, department string) ([]models.Faculty, error)
}

type facultyRepository struct {
	*PostgresRepository
}

func NewFacultyRepository(db *sql.DB, logger zerolog.Logger) FacultyRepository {
	return &facultyRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const facultyColumns = `id, school_id, first_name, last_name, email, department, is_active, created_at, updated_at`

func (r *facultyRepository) Create(ctx context.Context, faculty *models.Faculty) error {
	query := `
		INSERT INTO faculty (` + facultyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		faculty.ID,
		faculty.SchoolID,
		faculty.FirstName,
		faculty.LastName,
		faculty.Email,
		faculty.Department,
		faculty.IsActive,
		faculty.CreatedAt,
		faculty.UpdatedAt,
	)

	return translateError(err)
}

func (r *facultyRepository) GetByID(ctx context.Context, id string) (*models.Faculty, error) {
	query := `SELECT ` + facultyColumns + ` FROM faculty WHERE id = $1`

	faculty := &models.Faculty{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&faculty.ID,
		&faculty.SchoolID,
		&faculty.FirstName,
		&faculty.LastName,
		&faculty.Email,
		&faculty.Department,
		&faculty.IsActive,
		&faculty.CreatedAt,
		&faculty.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}

	return faculty, err
}

// List returns active faculty, optionally narrowed to one department.
func (r *facultyRepository) List(ctx context.Context, department string) ([]models.Faculty, error) {
	query := `
		SELECT ` + facultyColumns + `
		FROM faculty
		WHERE is_active AND ($1 = '' OR department = $1)
		ORDER BY department, last_name, first_name
	`

	rows, err := r.db.QueryContext(ctx, query, department)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Faculty
	for rows.Next() {
		var f models.Faculty
		if err := rows.Scan(
			&f.ID,
			&f.SchoolID,
			&f.FirstName,
			&f.LastName,
			&f.Email,
			&f.Department,
			&f.IsActive,
			&f.CreatedAt,
			&f.UpdatedAt,
		); err != nil {
			return nil, err
		}
		list = append(list, f)
	}

	return list, rows.Err()
}
