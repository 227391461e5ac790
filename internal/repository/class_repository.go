package repository

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

type ClassRepository interface {
	Create(ctx context.Context, class *models.Class) error
	GetByID(ctx context.Context, id string) (*models.Class, error)
	// GetByIDs returns the active classes among ids.
	GetByIDs(ctx context.Context, ids []string) ([]models.Class, error)
	// Deactivate soft-deletes an active class that has no active students.
	// It reports false when the class was left untouched.
	Deactivate(ctx context.Context, id string) (bool, error)
	// LinkFaculty records that a faculty member teaches a class, updating the
	// subject of an existing link. It reports whether a new link was created.
	LinkFaculty(ctx context.Context, link *models.FacultyClass) (bool, error)
	UnlinkFaculty(ctx context.Context, facultyID, classID string) (bool, error)
	ListByFaculty(ctx context.Context, facultyID string) ([]models.TaughtClass, error)
}

type classRepository struct {
	*PostgresRepository
}

func NewClassRepository(db *sql.DB, logger zerolog.Logger) ClassRepository {
	return &classRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const classColumns = `c.id, c.name, c.curriculum, c.level, c.section, c.is_active, c.created_at, c.updated_at`

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	query := `
		INSERT INTO classes (id, name, curriculum, level, section, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		class.ID,
		class.Name,
		class.Curriculum,
		class.Level,
		class.Section,
		class.IsActive,
		class.CreatedAt,
		class.UpdatedAt,
	)

	return translateError(err)
}

func (r *classRepository) GetByID(ctx context.Context, id string) (*models.Class, error) {
	query := `SELECT ` + classColumns + ` FROM classes c WHERE c.id = $1`

	var c models.Class
	err := r.db.QueryRowContext(ctx, query, id).Scan(classDest(&c)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &c, nil
}

func (r *classRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Class, error) {
	query := `
		SELECT ` + classColumns + `
		FROM classes c
		WHERE c.id = ANY($1) AND c.is_active
		ORDER BY c.name
	`

	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanClasses(rows)
}

func (r *classRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE classes
		SET is_active = FALSE, updated_at = NOW()
		WHERE id = $1 AND is_active
			AND NOT EXISTS (SELECT 1 FROM students s WHERE s.class_id = $1 AND s.is_active)
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *classRepository) LinkFaculty(ctx context.Context, link *models.FacultyClass) (bool, error) {
	query := `
		INSERT INTO faculty_classes (id, faculty_id, class_id, subject, created_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (faculty_id, class_id) DO UPDATE
		SET subject = EXCLUDED.subject
		RETURNING id, created_at, (xmax = 0) AS inserted
	`

	var inserted bool
	err := r.db.QueryRowContext(ctx, query,
		link.ID,
		link.FacultyID,
		link.ClassID,
		link.Subject,
		link.CreatedAt,
	).Scan(&link.ID, &link.CreatedAt, &inserted)
	if err != nil {
		return false, translateError(err)
	}

	return inserted, nil
}

func (r *classRepository) UnlinkFaculty(ctx context.Context, facultyID, classID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM faculty_classes WHERE faculty_id = $1 AND class_id = $2`, facultyID, classID)
	if err != nil {
		return false, err
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func (r *classRepository) ListByFaculty(ctx context.Context, facultyID string) ([]models.TaughtClass, error) {
	query := `
		SELECT ` + classColumns + `, fc.id, fc.subject,
			(SELECT COUNT(*) FROM students s WHERE s.class_id = c.id AND s.is_active)
		FROM faculty_classes fc
		JOIN classes c ON c.id = fc.class_id
		WHERE fc.faculty_id = $1 AND c.is_active
		ORDER BY c.level, c.section, c.name
	`

	rows, err := r.db.QueryContext(ctx, query, facultyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var classes []models.TaughtClass
	for rows.Next() {
		var tc models.TaughtClass
		dest := append(classDest(&tc.Class), &tc.LinkID, &tc.Subject, &tc.StudentCount)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		classes = append(classes, tc)
	}

	return classes, rows.Err()
}

func scanClasses(rows *sql.Rows) ([]models.Class, error) {
	var classes []models.Class
	for rows.Next() {
		var c models.Class
		if err := rows.Scan(classDest(&c)...); err != nil {
			return nil, err
		}
		classes = append(classes, c)
	}

	return classes, rows.Err()
}

func classDest(c *models.Class) []interface{} {
	return []interface{}{
		&c.ID,
		&c.Name,
		&c.Curriculum,
		&c.Level,
		&c.Section,
		&c.IsActive,
		&c.CreatedAt,
		&c.UpdatedAt,
	}
}
