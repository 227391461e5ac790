package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type FormService interface {
	CreateForm(ctx context.Context, req *models.CreateFormRequest) (*models.FormDetails, error)
	GetForm(ctx context.Context, id string) (*models.FormDetails, error)
	ListForms(ctx context.Context, status string, page, limit int) (*models.FormsResponse, error)
	ListQuestions(ctx context.Context, formID string) ([]models.Question, error)
	UpdateFormStatus(ctx context.Context, id, status string) (*models.Form, error)
	DeleteForm(ctx context.Context, id string) error
}

type formService struct {
	formRepo       repository.FormRepository
	assignmentRepo repository.AssignmentRepository
	facultyRepo    repository.FacultyRepository
	classRepo      repository.ClassRepository
	yearRepo       repository.AcademicYearRepository
	clock          Clock
	logger         zerolog.Logger
}

func NewFormService(
	formRepo repository.FormRepository,
	assignmentRepo repository.AssignmentRepository,
	facultyRepo repository.FacultyRepository,
	classRepo repository.ClassRepository,
	yearRepo repository.AcademicYearRepository,
	clock Clock,
	logger zerolog.Logger,
) FormService {
	return &formService{
		formRepo:       formRepo,
		assignmentRepo: assignmentRepo,
		facultyRepo:    facultyRepo,
		classRepo:      classRepo,
		yearRepo:       yearRepo,
		clock:          clock,
		logger:         logger,
	}
}

func (s *formService) CreateForm(ctx context.Context, req *models.CreateFormRequest) (*models.FormDetails, error) {
	if len(req.Questions) == 0 {
		return nil, fmt.Errorf("%w: a form needs at least one question", ErrValidation)
	}

	if req.AcademicYearID != nil {
		year, err := s.yearRepo.GetByID(ctx, *req.AcademicYearID)
		if err != nil {
			return nil, fmt.Errorf("failed to get academic year: %w", err)
		}
		if year == nil {
			return nil, ErrAcademicYearNotFound
		}
	}

	if req.FacultyID != nil {
		faculty, err := s.facultyRepo.GetByID(ctx, *req.FacultyID)
		if err != nil {
			return nil, fmt.Errorf("failed to get faculty: %w", err)
		}
		if faculty == nil || !faculty.IsActive {
			return nil, ErrFacultyNotFound
		}
	}

	classIDs := uniqueIDs(req.ClassIDs)
	if err := s.ensureClassesExist(ctx, classIDs); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = models.FormStatusStarting.String()
	}
	if !models.IsValidFormStatus(status) {
		return nil, fmt.Errorf("%w: unknown form status %q", ErrValidation, status)
	}

	now := s.clock()
	form := &models.Form{
		ID:             uuid.New().String(),
		FormCode:       newFormCode(now.Year()),
		Title:          strings.TrimSpace(req.Title),
		Description:    req.Description,
		AcademicYearID: req.AcademicYearID,
		Semester:       req.Semester,
		FacultyID:      req.FacultyID,
		IsAnonymous:    req.IsAnonymous,
		Status:         status,
		CreatedBy:      req.CreatedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	questions := make([]models.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		qType := q.Type
		if qType == "" {
			qType = models.QuestionTypeRating.String()
		}
		if !models.IsValidQuestionType(qType) {
			return nil, fmt.Errorf("%w: unknown question type %q", ErrValidation, qType)
		}
		questions = append(questions, models.Question{
			ID:           uuid.New().String(),
			FormID:       form.ID,
			Text:         strings.TrimSpace(q.Text),
			Type:         qType,
			Required:     q.Required,
			DisplayOrder: i + 1,
			CreatedAt:    now,
		})
	}

	if err := s.formRepo.CreateWithQuestions(ctx, form, questions, classIDs, req.CreatedBy); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: form code %s", ErrAlreadyExists, form.FormCode)
		}
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	s.logger.Info().
		Str("form_id", form.ID).
		Str("form_code", form.FormCode).
		Int("questions", len(questions)).
		Int("classes", len(classIDs)).
		Msg("Evaluation form created")

	return s.GetForm(ctx, form.ID)
}

func (s *formService) ensureClassesExist(ctx context.Context, classIDs []string) error {
	if len(classIDs) == 0 {
		return nil
	}

	classes, err := s.classRepo.GetByIDs(ctx, classIDs)
	if err != nil {
		return fmt.Errorf("failed to get classes: %w", err)
	}
	if len(classes) != len(classIDs) {
		return ErrClassNotFound
	}

	return nil
}

func (s *formService) GetForm(ctx context.Context, id string) (*models.FormDetails, error) {
	form, err := s.formRepo.GetWithStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if form == nil {
		return nil, ErrFormNotFound
	}

	questions, err := s.formRepo.ListQuestions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	classes, err := s.formRepo.ListClasses(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get form classes: %w", err)
	}

	assignments, err := s.assignmentRepo.ListByForm(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignments: %w", err)
	}

	stats := models.FormStatistics{TotalStudents: len(assignments)}
	var scores []float64
	for _, a := range assignments {
		if a.Status != models.AssignmentStatusCompleted.String() {
			continue
		}
		stats.TotalSubmissions++
		if a.Score != nil {
			scores = append(scores, *a.Score)
		}
	}
	stats.AverageScore = meanOf(scores)

	return &models.FormDetails{
		FormWithStats: *form,
		Questions:     questions,
		Classes:       classes,
		Statistics:    stats,
	}, nil
}

func (s *formService) ListForms(ctx context.Context, status string, page, limit int) (*models.FormsResponse, error) {
	if status != "" && !models.IsValidFormStatus(status) {
		return nil, fmt.Errorf("%w: unknown form status %q", ErrValidation, status)
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	offset := (page - 1) * limit

	forms, total, err := s.formRepo.List(ctx, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}

	return &models.FormsResponse{
		Forms: forms,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *formService) ListQuestions(ctx context.Context, formID string) ([]models.Question, error) {
	form, err := s.formRepo.GetByID(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if form == nil {
		return nil, ErrFormNotFound
	}

	questions, err := s.formRepo.ListQuestions(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	return questions, nil
}

func (s *formService) UpdateFormStatus(ctx context.Context, id, status string) (*models.Form, error) {
	if !models.IsValidFormStatus(status) {
		return nil, fmt.Errorf("%w: unknown form status %q", ErrValidation, status)
	}

	form, err := s.formRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if form == nil {
		return nil, ErrFormNotFound
	}

	if form.Status == status {
		return form, nil
	}

	if !models.FormStatus(form.Status).CanTransitionTo(models.FormStatus(status)) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, form.Status, status)
	}

	if err := s.formRepo.UpdateStatus(ctx, id, status); err != nil {
		return nil, fmt.Errorf("failed to update form status: %w", err)
	}

	s.logger.Info().
		Str("form_id", id).
		Str("from", form.Status).
		Str("to", status).
		Msg("Form status updated")

	form.Status = status
	form.UpdatedAt = s.clock()
	return form, nil
}

func (s *formService) DeleteForm(ctx context.Context, id string) error {
	form, err := s.formRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get form: %w", err)
	}
	if form == nil {
		return ErrFormNotFound
	}

	count, err := s.assignmentRepo.CountByForm(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count assignments: %w", err)
	}
	if count > 0 {
		return ErrFormInUse
	}

	if err := s.formRepo.Delete(ctx, id); err != nil {
		// an assignment was created after the count
		if errors.Is(err, repository.ErrReferenced) {
			return ErrFormInUse
		}
		return fmt.Errorf("failed to delete form: %w", err)
	}

	s.logger.Info().Str("form_id", id).Msg("Form deleted")
	return nil
}

// newFormCode builds codes like EVAL-2025-3F9A1C.
func newFormCode(year int) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", ""))[:6]
	return fmt.Sprintf("EVAL-%d-%s", year, suffix)
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func meanOf(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	mean := roundScore(sum / float64(len(values)))
	return &mean
}
