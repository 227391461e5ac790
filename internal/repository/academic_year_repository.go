package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

type AcademicYearRepository interface {
	Create(ctx context.Context, year *models.AcademicYear) error
	GetByID(ctx context.Context, id string) (*models.AcademicYear, error)
	GetCurrent(ctx context.Context) (*models.AcademicYear, error)
	List(ctx context.Context) ([]models.AcademicYear, error)
	// SetCurrent makes id the only current year and recomputes the status of
	// every other year with statusFor, all in one transaction. It returns
	// nil, nil when the year does not exist.
	SetCurrent(ctx context.Context, id string, statusFor func(models.AcademicYear) models.AcademicYearStatus) (*models.AcademicYear, error)
	// Update writes the code, name, dates and status of year. It reports
	// false when the year does not exist.
	Update(ctx context.Context, year *models.AcademicYear) (bool, error)
	// Delete removes a year that is not current and that no form, assignment
	// or relationship refers to. It reports false when nothing was removed.
	Delete(ctx context.Context, id string) (bool, error)
}

type academicYearRepository struct {
	*PostgresRepository
}

func NewAcademicYearRepository(db *sql.DB, logger zerolog.Logger) AcademicYearRepository {
	return &academicYearRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

const academicYearColumns = `id, year_code, year_name, start_date, end_date, status, is_current, created_at, updated_at`

func (r *academicYearRepository) Create(ctx context.Context, year *models.AcademicYear) error {
	query := `
		INSERT INTO academic_years (` + academicYearColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		year.ID,
		year.YearCode,
		year.YearName,
		year.StartDate,
		year.EndDate,
		year.Status,
		year.IsCurrent,
		year.CreatedAt,
		year.UpdatedAt,
	)

	return translateError(err)
}

func (r *academicYearRepository) GetByID(ctx context.Context, id string) (*models.AcademicYear, error) {
	return getAcademicYear(ctx, r.db, `SELECT `+academicYearColumns+` FROM academic_years WHERE id = $1`, id)
}

func (r *academicYearRepository) GetCurrent(ctx context.Context) (*models.AcademicYear, error) {
	return getAcademicYear(ctx, r.db, `SELECT `+academicYearColumns+` FROM academic_years WHERE is_current`)
}

func getAcademicYear(ctx context.Context, q querier, query string, args ...interface{}) (*models.AcademicYear, error) {
	year, err := scanAcademicYear(q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}

	return year, err
}

func (r *academicYearRepository) List(ctx context.Context) ([]models.AcademicYear, error) {
	return listAcademicYears(ctx, r.db)
}

func listAcademicYears(ctx context.Context, q querier) ([]models.AcademicYear, error) {
	query := `SELECT ` + academicYearColumns + ` FROM academic_years ORDER BY start_date DESC`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var years []models.AcademicYear
	for rows.Next() {
		year, err := scanAcademicYear(rows)
		if err != nil {
			return nil, err
		}
		years = append(years, *year)
	}

	return years, rows.Err()
}

func (r *academicYearRepository) SetCurrent(ctx context.Context, id string, statusFor func(models.AcademicYear) models.AcademicYearStatus) (*models.AcademicYear, error) {
	var current *models.AcademicYear

	err := r.withTx(ctx, func(tx *sql.Tx) error {
		// Concurrent SetCurrent calls queue here; plain reads are not blocked.
		if _, err := tx.ExecContext(ctx, `LOCK TABLE academic_years IN SHARE ROW EXCLUSIVE MODE`); err != nil {
			return err
		}

		target, err := getAcademicYear(ctx, tx, `SELECT `+academicYearColumns+` FROM academic_years WHERE id = $1`, id)
		if err != nil || target == nil {
			return err
		}

		now := time.Now()
		if _, err := tx.ExecContext(ctx,
			`UPDATE academic_years SET is_current = FALSE, updated_at = $1 WHERE is_current`, now); err != nil {
			return err
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE academic_years SET is_current = TRUE, status = $1, updated_at = $2 WHERE id = $3`,
			models.AcademicYearStatusActive.String(), now, id); err != nil {
			return err
		}

		years, err := listAcademicYears(ctx, tx)
		if err != nil {
			return err
		}

		for _, year := range years {
			if year.ID == id {
				continue
			}
			status := statusFor(year).String()
			if status == year.Status {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`UPDATE academic_years SET status = $1, updated_at = $2 WHERE id = $3`,
				status, now, year.ID); err != nil {
				return err
			}
		}

		target.IsCurrent = true
		target.Status = models.AcademicYearStatusActive.String()
		target.UpdatedAt = now
		current = target
		return nil
	})
	if err != nil {
		return nil, err
	}

	return current, nil
}

func (r *academicYearRepository) Update(ctx context.Context, year *models.AcademicYear) (bool, error) {
	query := `
		UPDATE academic_years
		SET year_code = $1, year_name = $2, start_date = $3, end_date = $4,
			status = CASE WHEN is_current THEN status ELSE $5 END,
			updated_at = $6
		WHERE id = $7
		RETURNING status, is_current, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		year.YearCode,
		year.YearName,
		year.StartDate,
		year.EndDate,
		year.Status,
		year.UpdatedAt,
		year.ID,
	).Scan(&year.Status, &year.IsCurrent, &year.CreatedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, translateError(err)
	}

	return true, nil
}

func (r *academicYearRepository) Delete(ctx context.Context, id string) (bool, error) {
	query := `
		DELETE FROM academic_years y
		WHERE y.id = $1 AND NOT y.is_current
			AND NOT EXISTS (SELECT 1 FROM evaluation_forms f WHERE f.academic_year_id = y.id)
			AND NOT EXISTS (SELECT 1 FROM evaluation_assignments a WHERE a.academic_year_id = y.id)
			AND NOT EXISTS (SELECT 1 FROM student_faculty_relationships sr WHERE sr.academic_year_id = y.id)
	`

	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, translateError(err)
	}

	n, err := res.RowsAffected()
	return n > 0, err
}

func scanAcademicYear(row rowScanner) (*models.AcademicYear, error) {
	var year models.AcademicYear
	err := row.Scan(
		&year.ID,
		&year.YearCode,
		&year.YearName,
		&year.StartDate,
		&year.EndDate,
		&year.Status,
		&year.IsCurrent,
		&year.CreatedAt,
		&year.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &year, nil
}
