package service

import (
	"context"
	"fmt"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/repository"
	"github.com/RubachokBoss/faculty-evaluation/internal/service/integration"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SubmissionService covers what a student does with an assigned evaluation.
type SubmissionService interface {
	ListStudentAssignments(ctx context.Context, studentID string) ([]models.AssignmentWithDetails, error)
	GetStudentAssignment(ctx context.Context, assignmentID, studentID string) (*models.StudentAssignmentView, error)
	StartAssignment(ctx context.Context, assignmentID, studentID string) (*models.Assignment, error)
	Submit(ctx context.Context, assignmentID, studentID string, req *models.SubmitEvaluationRequest) (*models.SubmissionResult, error)
}

type submissionService struct {
	assignmentRepo repository.AssignmentRepository
	formRepo       repository.FormRepository
	publisher      integration.EventPublisher
	clock          Clock
	logger         zerolog.Logger
}

func NewSubmissionService(
	assignmentRepo repository.AssignmentRepository,
	formRepo repository.FormRepository,
	publisher integration.EventPublisher,
	clock Clock,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		assignmentRepo: assignmentRepo,
		formRepo:       formRepo,
		publisher:      publisher,
		clock:          clock,
		logger:         logger,
	}
}

func (s *submissionService) ListStudentAssignments(ctx context.Context, studentID string) ([]models.AssignmentWithDetails, error) {
	assignments, err := s.assignmentRepo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list evaluations: %w", err)
	}

	now := s.clock()
	for i := range assignments {
		assignments[i].EffectiveStatus = assignments[i].Assignment.EffectiveStatus(now).String()
	}

	return assignments, nil
}

func (s *submissionService) GetStudentAssignment(ctx context.Context, assignmentID, studentID string) (*models.StudentAssignmentView, error) {
	assignment, err := s.assignmentRepo.GetWithDetails(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	if assignment == nil || assignment.StudentID != studentID {
		return nil, ErrAssignmentNotFound
	}
	assignment.EffectiveStatus = assignment.Assignment.EffectiveStatus(s.clock()).String()

	questions, err := s.formRepo.ListQuestions(ctx, assignment.FormID)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}

	responses, err := s.assignmentRepo.ListResponses(ctx, assignment.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get responses: %w", err)
	}

	return &models.StudentAssignmentView{
		Assignment: *assignment,
		Questions:  questions,
		Responses:  responses,
	}, nil
}

// StartAssignment marks a pending evaluation as opened. Starting one that is
// already in progress is a no-op.
func (s *submissionService) StartAssignment(ctx context.Context, assignmentID, studentID string) (*models.Assignment, error) {
	assignment, err := s.ownAssignment(ctx, assignmentID, studentID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	switch models.AssignmentStatus(assignment.Status) {
	case models.AssignmentStatusCompleted:
		return nil, fmt.Errorf("%w: evaluation already submitted", ErrInvalidTransition)
	case models.AssignmentStatusInProgress:
		return assignment, nil
	}

	if models.DeadlinePassed(assignment.DueDate, now) {
		return nil, ErrDeadlineExpired
	}

	started, err := s.assignmentRepo.MarkStarted(ctx, assignment.ID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to start evaluation: %w", err)
	}
	if !started {
		// lost a race with another start or a submit
		return s.ownAssignment(ctx, assignmentID, studentID)
	}

	s.logger.Info().
		Str("evaluation_id", assignment.ID).
		Str("student_id", studentID).
		Msg("Evaluation started")

	assignment.Status = models.AssignmentStatusInProgress.String()
	assignment.StartedAt = &now
	assignment.UpdatedAt = now
	return assignment, nil
}

func (s *submissionService) ownAssignment(ctx context.Context, assignmentID, studentID string) (*models.Assignment, error) {
	assignment, err := s.assignmentRepo.GetByID(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get evaluation: %w", err)
	}
	if assignment == nil || assignment.StudentID != studentID {
		return nil, ErrAssignmentNotFound
	}

	return assignment, nil
}

// Submit stores the answers and completes the evaluation in one transaction
// holding the assignment row lock. Any failure leaves nothing behind.
func (s *submissionService) Submit(ctx context.Context, assignmentID, studentID string, req *models.SubmitEvaluationRequest) (*models.SubmissionResult, error) {
	if len(req.Responses) == 0 {
		return nil, fmt.Errorf("%w: responses must not be empty", ErrValidation)
	}

	// last answer wins when a question appears twice
	order := make([]string, 0, len(req.Responses))
	answers := make(map[string]string, len(req.Responses))
	for _, r := range req.Responses {
		if _, seen := answers[r.QuestionID]; !seen {
			order = append(order, r.QuestionID)
		}
		answers[r.QuestionID] = r.Value
	}

	var (
		result   *models.SubmissionResult
		formID   string
		faculty  string
		submitAt = s.clock()
	)

	err := s.assignmentRepo.WithinTx(ctx, func(tx repository.AssignmentTx) error {
		assignment, err := tx.LockForSubmit(ctx, assignmentID)
		if err != nil {
			return fmt.Errorf("failed to lock evaluation: %w", err)
		}
		if assignment == nil || assignment.StudentID != studentID {
			return ErrAssignmentNotFound
		}
		if assignment.Status == models.AssignmentStatusCompleted.String() {
			return ErrAlreadySubmitted
		}
		if models.DeadlinePassed(assignment.DueDate, submitAt) {
			return ErrDeadlineExpired
		}

		questions, err := tx.ListQuestions(ctx, assignment.FormID)
		if err != nil {
			return fmt.Errorf("failed to get questions: %w", err)
		}

		onForm := make(map[string]struct{}, len(questions))
		for _, q := range questions {
			onForm[q.ID] = struct{}{}
		}

		for _, questionID := range order {
			if _, ok := onForm[questionID]; !ok {
				return fmt.Errorf("%w: question %s does not belong to this form", ErrValidation, questionID)
			}

			response := &models.Response{
				ID:           uuid.New().String(),
				AssignmentID: assignment.ID,
				QuestionID:   questionID,
				Value:        answers[questionID],
				SubmittedAt:  submitAt,
			}
			if err := tx.UpsertResponse(ctx, response); err != nil {
				return fmt.Errorf("failed to save response: %w", err)
			}
		}

		// Answers saved before this submission count too.
		stored, err := tx.ListResponses(ctx, assignment.ID)
		if err != nil {
			return fmt.Errorf("failed to read responses: %w", err)
		}

		score := ComputeScore(ratingsOf(stored))
		if err := tx.Complete(ctx, assignment.ID, submitAt, score, req.Feedback); err != nil {
			return fmt.Errorf("failed to complete evaluation: %w", err)
		}

		formID = assignment.FormID
		faculty = assignment.FacultyID
		result = &models.SubmissionResult{
			AssignmentID:      assignment.ID,
			SubmittedAt:       submitAt,
			Score:             score,
			ResponsesRecorded: len(order),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("evaluation_id", assignmentID).
		Str("form_id", formID).
		Int("responses", result.ResponsesRecorded).
		Msg("Evaluation submitted")

	s.publishSubmitted(ctx, result, formID, faculty, studentID)

	return result, nil
}

func (s *submissionService) publishSubmitted(ctx context.Context, result *models.SubmissionResult, formID, facultyID, studentID string) {
	if s.publisher == nil {
		return
	}

	form, err := s.formRepo.GetByID(ctx, formID)
	if err != nil {
		s.logger.Error().Err(err).Str("form_id", formID).Msg("Failed to load form for event")
		return
	}

	event := &models.EvaluationSubmittedEvent{
		AssignmentID: result.AssignmentID,
		FormID:       formID,
		FacultyID:    facultyID,
		Score:        result.Score,
		Timestamp:    result.SubmittedAt.Unix(),
	}
	// anonymous forms never reveal who answered
	if form != nil && !form.IsAnonymous {
		event.StudentID = studentID
	}

	if err := s.publisher.PublishEvaluationSubmitted(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("evaluation_id", result.AssignmentID).
			Msg("Failed to publish evaluation submitted event")
	}
}
