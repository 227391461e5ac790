package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

type RelationshipRepository interface {
	Create(ctx context.Context, rel *models.Relationship) error
	Deactivate(ctx context.Context, id string) (bool, error)
	FindActive(ctx context.Context, studentID, facultyID string, academicYearID *string, semester *int) (*models.Relationship, error)
	FilterRelated(ctx context.Context, facultyID string, studentIDs []string, academicYearID *string, semester *int) ([]string, error)
}

type relationshipRepository struct {
	*PostgresRepository
}

func NewRelationshipRepository(db *sql.DB, logger zerolog.Logger) RelationshipRepository {
	return &relationshipRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// A relationship without a year or semester matches any period; the period
// filters apply only when given.
const periodFilter = `
	AND ($3::uuid IS NULL OR r.academic_year_id IS NULL OR r.academic_year_id = $3::uuid)
	AND ($4::smallint IS NULL OR r.semester IS NULL OR r.semester = $4::smallint)
`

func (r *relationshipRepository) Create(ctx context.Context, rel *models.Relationship) error {
	query := `
		INSERT INTO student_faculty_relationships
			(id, student_id, faculty_id, academic_year_id, semester, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		rel.ID,
		rel.StudentID,
		rel.FacultyID,
		rel.AcademicYearID,
		rel.Semester,
		rel.IsActive,
		rel.CreatedAt,
		rel.UpdatedAt,
	)

	return translateError(err)
}

func (r *relationshipRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE student_faculty_relationships
		SET is_active = FALSE, updated_at = $2
		WHERE id = $1
	`

	res, err := r.db.ExecContext(ctx, query, id, time.Now())
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *relationshipRepository) FindActive(ctx context.Context, studentID, facultyID string, academicYearID *string, semester *int) (*models.Relationship, error) {
	query := `
		SELECT r.id, r.student_id, r.faculty_id, r.academic_year_id, r.semester, r.is_active, r.created_at, r.updated_at
		FROM student_faculty_relationships r
		WHERE r.student_id = $1 AND r.faculty_id = $2 AND r.is_active
	` + periodFilter + `
		ORDER BY r.created_at DESC
		LIMIT 1
	`

	var (
		rel      models.Relationship
		yearID   sql.NullString
		semValue sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, query, studentID, facultyID, academicYearID, semester).Scan(
		&rel.ID,
		&rel.StudentID,
		&rel.FacultyID,
		&yearID,
		&semValue,
		&rel.IsActive,
		&rel.CreatedAt,
		&rel.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rel.AcademicYearID = nullString(yearID)
	rel.Semester = nullInt(semValue)
	return &rel, nil
}

// FilterRelated returns the subset of studentIDs holding an active
// relationship with the faculty member for the given period.
func (r *relationshipRepository) FilterRelated(ctx context.Context, facultyID string, studentIDs []string, academicYearID *string, semester *int) ([]string, error) {
	query := `
		SELECT DISTINCT r.student_id
		FROM student_faculty_relationships r
		WHERE r.faculty_id = $1 AND r.student_id = ANY($2) AND r.is_active
	` + periodFilter

	rows, err := r.db.QueryContext(ctx, query, facultyID, pq.Array(studentIDs), academicYearID, semester)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var related []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		related = append(related, id)
	}

	return related, rows.Err()
}
