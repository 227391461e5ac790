package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
)

type ReportRepository interface {
	DashboardStats(ctx context.Context, today time.Time) (*models.DashboardStats, error)
	DepartmentReports(ctx context.Context, academicYearID *string) ([]models.DepartmentReport, error)
	FacultyClassReports(ctx context.Context, facultyID string, academicYearID *string) ([]models.ClassReport, error)
}

type reportRepository struct {
	*PostgresRepository
}

func NewReportRepository(db *sql.DB, logger zerolog.Logger) ReportRepository {
	return &reportRepository{
		PostgresRepository: NewPostgresRepository(db, logger),
	}
}

// DashboardStats counts open assignments past their due date as expired
// rather than pending or in progress.
func (r *reportRepository) DashboardStats(ctx context.Context, today time.Time) (*models.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM evaluation_forms),
			(SELECT COUNT(*) FROM evaluation_forms WHERE status = 'starting'),
			(SELECT COUNT(*) FROM form_classes),
			(SELECT COUNT(*) FROM form_questions),
			COUNT(CASE WHEN a.status = 'pending' AND (a.due_date IS NULL OR a.due_date >= $1::date) THEN 1 END),
			COUNT(CASE WHEN a.status = 'in_progress' AND (a.due_date IS NULL OR a.due_date >= $1::date) THEN 1 END),
			COUNT(CASE WHEN a.status = 'completed' THEN 1 END),
			COUNT(CASE WHEN a.status <> 'completed' AND a.due_date < $1::date THEN 1 END)
		FROM evaluation_assignments a
	`

	stats := &models.DashboardStats{}
	err := r.db.QueryRowContext(ctx, query, today.Format("2006-01-02")).Scan(
		&stats.TotalForms,
		&stats.ActiveForms,
		&stats.AssignedClasses,
		&stats.TotalQuestions,
		&stats.PendingEvaluations,
		&stats.InProgressEvaluations,
		&stats.CompletedEvaluations,
		&stats.ExpiredEvaluations,
	)
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// scoredAssignments yields every completed assignment with the score
// recomputed from its stored rating answers: the mean of the answers that are
// numbers in [1, 5], rounded to two decimals. Assignments without stored
// answers keep their stored score.
const scoredAssignments = `
	WITH ratings AS (
		SELECT r.assignment_id,
			CASE WHEN q.question_type = 'rating_1_5'
				AND btrim(r.response_value) ~ '^[0-9]+(\.[0-9]+)?$'
				THEN btrim(r.response_value)::numeric
			END AS value
		FROM evaluation_responses r
		JOIN form_questions q ON q.id = r.question_id
	),
	scored AS (
		SELECT a.id, a.faculty_id, a.student_id, a.academic_year_id,
			CASE WHEN COUNT(ra.assignment_id) > 0
				THEN ROUND(AVG(ra.value) FILTER (WHERE ra.value BETWEEN 1 AND 5), 2)
				ELSE a.score
			END AS score
		FROM evaluation_assignments a
		LEFT JOIN ratings ra ON ra.assignment_id = a.id
		WHERE a.status = 'completed'
		GROUP BY a.id
	)
`

// DepartmentReports averages the recomputed scores of completed assignments
// per department.
func (r *reportRepository) DepartmentReports(ctx context.Context, academicYearID *string) ([]models.DepartmentReport, error) {
	query := scoredAssignments + `
		SELECT
			fa.department,
			COUNT(DISTINCT fa.id),
			COUNT(s.id),
			ROUND(AVG(s.score), 2)
		FROM faculty fa
		LEFT JOIN scored s
			ON s.faculty_id = fa.id
			AND ($1::uuid IS NULL OR s.academic_year_id = $1::uuid)
		WHERE fa.is_active
		GROUP BY fa.department
		ORDER BY fa.department
	`

	rows, err := r.db.QueryContext(ctx, query, academicYearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.DepartmentReport
	for rows.Next() {
		var report models.DepartmentReport
		if err := rows.Scan(
			&report.Department,
			&report.FacultyCount,
			&report.CompletedEvaluations,
			&report.AverageScore,
		); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// FacultyClassReports summarizes each active class linked to the faculty
// member. Evaluations are attributed to a class through the student's
// current class.
func (r *reportRepository) FacultyClassReports(ctx context.Context, facultyID string, academicYearID *string) ([]models.ClassReport, error) {
	query := scoredAssignments + `
		SELECT
			c.id,
			c.name,
			fc.subject,
			COUNT(DISTINCT st.id) FILTER (WHERE st.is_active),
			COUNT(DISTINCT s.student_id),
			COUNT(s.id),
			ROUND(AVG(s.score), 2)
		FROM faculty_classes fc
		JOIN classes c ON c.id = fc.class_id
		LEFT JOIN students st ON st.class_id = c.id
		LEFT JOIN scored s
			ON s.student_id = st.id
			AND s.faculty_id = fc.faculty_id
			AND ($2::uuid IS NULL OR s.academic_year_id = $2::uuid)
		WHERE fc.faculty_id = $1 AND c.is_active
		GROUP BY fc.id, c.id
		ORDER BY c.name
	`

	rows, err := r.db.QueryContext(ctx, query, facultyID, academicYearID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []models.ClassReport
	for rows.Next() {
		var report models.ClassReport
		if err := rows.Scan(
			&report.ClassID,
			&report.ClassName,
			&report.Subject,
			&report.StudentCount,
			&report.EvaluatedStudents,
			&report.CompletedEvaluations,
			&report.AverageScore,
		); err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}
