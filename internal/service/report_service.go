package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"time"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/repository"
	"github.com/RubachokBoss/faculty-evaluation/internal/service/integration"
	"github.com/rs/zerolog"
)

type ReportService interface {
	GetFormScoreSummary(ctx context.Context, formID string) (*models.FormScoreSummary, error)
	GetFormResponses(ctx context.Context, formID string) (*models.FormResponsesReport, error)
	GetFacultyReport(ctx context.Context, facultyID string, academicYearID *string) (*models.FacultyReport, error)
	ListDepartmentReports(ctx context.Context, academicYearID *string) ([]models.DepartmentReport, error)
	GetFacultyClassReport(ctx context.Context, facultyID string, academicYearID *string) ([]models.ClassReport, error)
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	ExportFacultyReport(ctx context.Context, facultyID string, academicYearID *string) (*models.ExportResponse, error)
}

type reportService struct {
	formRepo       repository.FormRepository
	assignmentRepo repository.AssignmentRepository
	facultyRepo    repository.FacultyRepository
	reportRepo     repository.ReportRepository
	storage        integration.ReportStorage
	presignExpiry  time.Duration
	clock          Clock
	logger         zerolog.Logger
}

func NewReportService(
	formRepo repository.FormRepository,
	assignmentRepo repository.AssignmentRepository,
	facultyRepo repository.FacultyRepository,
	reportRepo repository.ReportRepository,
	storage integration.ReportStorage,
	presignExpiry time.Duration,
	clock Clock,
	logger zerolog.Logger,
) ReportService {
	if presignExpiry <= 0 {
		presignExpiry = time.Hour
	}

	return &reportService{
		formRepo:       formRepo,
		assignmentRepo: assignmentRepo,
		facultyRepo:    facultyRepo,
		reportRepo:     reportRepo,
		storage:        storage,
		presignExpiry:  presignExpiry,
		clock:          clock,
		logger:         logger,
	}
}

func (s *reportService) GetFormScoreSummary(ctx context.Context, formID string) (*models.FormScoreSummary, error) {
	report, err := s.GetFormResponses(ctx, formID)
	if err != nil {
		return nil, err
	}

	return &report.Statistics, nil
}

// GetFormResponses recomputes every answered assignment's score from its
// stored responses and writes back any stored score that disagrees.
func (s *reportService) GetFormResponses(ctx context.Context, formID string) (*models.FormResponsesReport, error) {
	form, err := s.formRepo.GetByID(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if form == nil {
		return nil, ErrFormNotFound
	}

	assignments, err := s.assignmentRepo.ListByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}

	responses, err := s.assignmentRepo.ListResponsesByForm(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}

	stats := models.FormScoreSummary{
		FormID:           formID,
		OverallAverage:   ComputeScore(ratingsOf(responses)),
		TotalResponses:   len(responses),
		TotalEvaluations: len(assignments),
		ScoresReconciled: s.reconcileScores(ctx, assignments, responses),
	}

	students := make(map[string]struct{}, len(assignments))
	rows := make([]models.EvaluationRow, 0, len(assignments))
	for _, a := range assignments {
		students[a.StudentID] = struct{}{}

		row := models.EvaluationRow{
			AssignmentID: a.ID,
			FacultyID:    a.FacultyID,
			FacultyName:  a.FacultyName,
			Status:       a.Assignment.EffectiveStatus(s.clock()).String(),
			Score:        a.Score,
			SubmittedAt:  a.SubmittedAt,
		}
		if !form.IsAnonymous {
			row.StudentID = a.StudentID
			row.StudentName = a.StudentName
			row.ClassName = a.ClassName
		}
		rows = append(rows, row)
	}
	stats.TotalStudents = len(students)

	if responses == nil {
		responses = []models.ResponseWithQuestion{}
	}

	return &models.FormResponsesReport{
		Evaluations: rows,
		Responses:   responses,
		Statistics:  stats,
	}, nil
}

func (s *reportService) GetFacultyReport(ctx context.Context, facultyID string, academicYearID *string) (*models.FacultyReport, error) {
	faculty, err := s.facultyRepo.GetByID(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get faculty: %w", err)
	}
	if faculty == nil {
		return nil, ErrFacultyNotFound
	}

	assignments, err := s.assignmentRepo.ListByFaculty(ctx, facultyID, academicYearID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}

	responses, err := s.assignmentRepo.ListResponsesByFaculty(ctx, facultyID, academicYearID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}

	report := &models.FacultyReport{
		Faculty:          *faculty,
		AcademicYearID:   academicYearID,
		TotalAssigned:    len(assignments),
		Forms:            []models.FacultyFormScore{},
		QuestionAverages: questionAverages(responses),
		ScoresReconciled: s.reconcileScores(ctx, assignments, responses),
	}

	now := s.clock()
	var allScores []float64
	formIndex := make(map[string]int)
	formScores := make(map[string][]float64)
	for _, a := range assignments {
		idx, ok := formIndex[a.FormID]
		if !ok {
			idx = len(report.Forms)
			formIndex[a.FormID] = idx
			report.Forms = append(report.Forms, models.FacultyFormScore{
				FormID:    a.FormID,
				FormTitle: a.FormTitle,
			})
		}
		report.Forms[idx].Assigned++

		switch a.Assignment.EffectiveStatus(now) {
		case models.AssignmentStatusCompleted:
			report.Completed++
			report.Forms[idx].Completed++
			if a.Score != nil {
				allScores = append(allScores, *a.Score)
				formScores[a.FormID] = append(formScores[a.FormID], *a.Score)
			}
		case models.AssignmentStatusExpired:
			report.Expired++
		default:
			report.Pending++
		}
	}

	report.AverageScore = meanOf(allScores)
	for i := range report.Forms {
		report.Forms[i].AverageScore = meanOf(formScores[report.Forms[i].FormID])
	}

	return report, nil
}

// reconcileScores replaces the score of every answered assignment with the
// one recomputed from its stored responses and writes back the scores that
// disagree. The recomputed score is kept even when the write fails. It
// returns how many stored scores were corrected.
func (s *reportService) reconcileScores(ctx context.Context, assignments []models.AssignmentWithDetails, responses []models.ResponseWithQuestion) int {
	byAssignment := make(map[string][]models.ResponseWithQuestion, len(assignments))
	for _, r := range responses {
		byAssignment[r.AssignmentID] = append(byAssignment[r.AssignmentID], r)
	}

	reconciled := 0
	for i := range assignments {
		a := &assignments[i]
		answered := byAssignment[a.ID]
		if len(answered) == 0 {
			continue
		}

		recomputed := ComputeScore(ratingsOf(answered))
		if !scoresEqual(recomputed, a.Score) {
			if err := s.assignmentRepo.UpdateScore(ctx, a.ID, recomputed); err != nil {
				s.logger.Error().Err(err).
					Str("evaluation_id", a.ID).
					Msg("Failed to store recomputed score")
			} else {
				reconciled++
			}
		}
		a.Score = recomputed
	}

	if reconciled > 0 {
		s.logger.Info().
			Int("reconciled", reconciled).
			Msg("Stale evaluation scores corrected")
	}

	return reconciled
}

// questionAverages groups rating answers by question text so that the same
// question asked on several forms is reported once.
func questionAverages(responses []models.ResponseWithQuestion) []models.QuestionAverage {
	averages := []models.QuestionAverage{}
	index := make(map[string]int)
	values := make(map[string][]string)

	for _, r := range responses {
		if r.QuestionType != models.QuestionTypeRating.String() {
			continue
		}
		if _, ok := index[r.QuestionText]; !ok {
			index[r.QuestionText] = len(averages)
			averages = append(averages, models.QuestionAverage{QuestionText: r.QuestionText})
		}
		values[r.QuestionText] = append(values[r.QuestionText], r.Value)
	}

	for i := range averages {
		ratings := values[averages[i].QuestionText]
		for _, v := range ratings {
			if _, ok := ratingValue(v); ok {
				averages[i].Responses++
			}
		}
		averages[i].Average = ComputeScore(ratings)
	}

	return averages
}

func (s *reportService) ListDepartmentReports(ctx context.Context, academicYearID *string) ([]models.DepartmentReport, error) {
	reports, err := s.reportRepo.DepartmentReports(ctx, academicYearID)
	if err != nil {
		return nil, fmt.Errorf("failed to get department reports: %w", err)
	}
	if reports == nil {
		reports = []models.DepartmentReport{}
	}

	return reports, nil
}

// GetFacultyClassReport breaks a faculty member's completed evaluations down
// by the classes they teach.
func (s *reportService) GetFacultyClassReport(ctx context.Context, facultyID string, academicYearID *string) ([]models.ClassReport, error) {
	faculty, err := s.facultyRepo.GetByID(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get faculty: %w", err)
	}
	if faculty == nil {
		return nil, ErrFacultyNotFound
	}

	reports, err := s.reportRepo.FacultyClassReports(ctx, facultyID, academicYearID)
	if err != nil {
		return nil, fmt.Errorf("failed to get class reports: %w", err)
	}
	if reports == nil {
		reports = []models.ClassReport{}
	}

	return reports, nil
}

func (s *reportService) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats, err := s.reportRepo.DashboardStats(ctx, s.clock())
	if err != nil {
		return nil, fmt.Errorf("failed to get dashboard stats: %w", err)
	}

	return stats, nil
}

// ExportFacultyReport renders the faculty report as CSV, stores it and
// returns a presigned download link.
func (s *reportService) ExportFacultyReport(ctx context.Context, facultyID string, academicYearID *string) (*models.ExportResponse, error) {
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}

	report, err := s.GetFacultyReport(ctx, facultyID, academicYearID)
	if err != nil {
		return nil, err
	}

	data, err := facultyReportCSV(report)
	if err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	now := s.clock()
	key := fmt.Sprintf("reports/faculty/%s/%s.csv", facultyID, now.Format("20060102T150405"))
	if err := s.storage.Upload(ctx, key, "text/csv", data); err != nil {
		return nil, fmt.Errorf("failed to store report: %w", err)
	}

	url, err := s.storage.PresignedURL(ctx, key, s.presignExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign report url: %w", err)
	}

	s.logger.Info().
		Str("faculty_id", facultyID).
		Str("object", key).
		Msg("Faculty report exported")

	return &models.ExportResponse{
		ObjectKey: key,
		URL:       url,
		ExpiresAt: now.Add(s.presignExpiry),
	}, nil
}

func facultyReportCSV(report *models.FacultyReport) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	records := [][]string{
		{"faculty", report.Faculty.FullName()},
		{"department", report.Faculty.Department},
		{"total_assigned", strconv.Itoa(report.TotalAssigned)},
		{"completed", strconv.Itoa(report.Completed)},
		{"pending", strconv.Itoa(report.Pending)},
		{"expired", strconv.Itoa(report.Expired)},
		{"average_score", formatScore(report.AverageScore)},
		{},
		{"form_id", "form_title", "assigned", "completed", "average_score"},
	}
	for _, f := range report.Forms {
		records = append(records, []string{
			f.FormID,
			f.FormTitle,
			strconv.Itoa(f.Assigned),
			strconv.Itoa(f.Completed),
			formatScore(f.AverageScore),
		})
	}

	records = append(records, []string{}, []string{"question", "responses", "average"})
	for _, q := range report.QuestionAverages {
		records = append(records, []string{
			q.QuestionText,
			strconv.Itoa(q.Responses),
			formatScore(q.Average),
		})
	}

	if err := w.WriteAll(records); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func formatScore(score *float64) string {
	if score == nil {
		return ""
	}
	return strconv.FormatFloat(*score, 'f', 2, 64)
}
