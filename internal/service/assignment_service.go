package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/repository"
	"github.com/RubachokBoss/faculty-evaluation/internal/service/integration"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// AssignmentService turns a form and a target audience into per-student
// assignments for one faculty member.
type AssignmentService interface {
	AssignFormToStudents(ctx context.Context, in *models.AssignStudentsInput) (*models.AssignmentResult, error)
	AssignFormToClasses(ctx context.Context, in *models.AssignClassesInput) (*models.AssignmentResult, error)
}

type assignmentService struct {
	formRepo         repository.FormRepository
	facultyRepo      repository.FacultyRepository
	studentRepo      repository.StudentRepository
	classRepo        repository.ClassRepository
	relationshipRepo repository.RelationshipRepository
	assignmentRepo   repository.AssignmentRepository
	publisher        integration.EventPublisher
	clock            Clock
	logger           zerolog.Logger
}

func NewAssignmentService(
	formRepo repository.FormRepository,
	facultyRepo repository.FacultyRepository,
	studentRepo repository.StudentRepository,
	classRepo repository.ClassRepository,
	relationshipRepo repository.RelationshipRepository,
	assignmentRepo repository.AssignmentRepository,
	publisher integration.EventPublisher,
	clock Clock,
	logger zerolog.Logger,
) AssignmentService {
	return &assignmentService{
		formRepo:         formRepo,
		facultyRepo:      facultyRepo,
		studentRepo:      studentRepo,
		classRepo:        classRepo,
		relationshipRepo: relationshipRepo,
		assignmentRepo:   assignmentRepo,
		publisher:        publisher,
		clock:            clock,
		logger:           logger,
	}
}

func (s *assignmentService) AssignFormToStudents(ctx context.Context, in *models.AssignStudentsInput) (*models.AssignmentResult, error) {
	studentIDs := uniqueIDs(in.StudentIDs)
	if len(studentIDs) == 0 {
		return nil, fmt.Errorf("%w: student_ids must not be empty", ErrValidation)
	}

	form, err := s.assignableForm(ctx, in.FormID)
	if err != nil {
		return nil, err
	}

	faculty, err := s.activeFaculty(ctx, in.FacultyID)
	if err != nil {
		return nil, err
	}

	if form.FacultyID != nil && *form.FacultyID != faculty.ID {
		return nil, fmt.Errorf("%w: form is bound to another faculty member", ErrValidation)
	}

	// The form's period applies unless the request names one.
	yearID, semester := in.AcademicYearID, in.Semester
	if yearID == nil {
		yearID = form.AcademicYearID
	}
	if semester == nil {
		semester = form.Semester
	}

	eligible, skipped, err := s.partition(ctx, faculty.ID, studentIDs, yearID, semester)
	if err != nil {
		return nil, err
	}

	if len(skipped) > 0 {
		s.logger.Warn().
			Str("form_id", form.ID).
			Str("faculty_id", faculty.ID).
			Int("skipped", len(skipped)).
			Msg("Students skipped during assignment")
	}

	if len(eligible) == 0 {
		return nil, &NoEligibleStudentsError{Skipped: skipped}
	}

	result := &models.AssignmentResult{
		FormID:      form.ID,
		FacultyID:   faculty.ID,
		FacultyName: faculty.FullName(),
		Assigned:    make([]models.AssignedStudent, 0, len(eligible)),
		Skipped:     skipped,
		Failed:      []models.FailedStudent{},
	}

	now := s.clock()
	for _, student := range eligible {
		assignment := &models.Assignment{
			ID:             uuid.New().String(),
			FormID:         form.ID,
			StudentID:      student.ID,
			FacultyID:      faculty.ID,
			AcademicYearID: yearID,
			Semester:       semester,
			Status:         models.AssignmentStatusPending.String(),
			AssignedBy:     in.AssignedBy,
			AssignedAt:     now,
			DueDate:        in.DueDate,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		inserted, err := s.assignmentRepo.Upsert(ctx, assignment)
		if errors.Is(err, repository.ErrAssignedElsewhere) {
			skipped = append(skipped, models.SkippedStudent{
				StudentID:   student.ID,
				StudentName: student.FullName(),
				SchoolID:    student.SchoolID,
				Reason:      models.SkipReasonOtherFaculty,
			})
			continue
		}
		if err != nil {
			s.logger.Error().Err(err).
				Str("form_id", form.ID).
				Str("student_id", student.ID).
				Msg("Failed to assign form to student")
			result.Failed = append(result.Failed, models.FailedStudent{
				StudentID: student.ID,
				Error:     "failed to create evaluation",
			})
			continue
		}

		outcome := models.AssignOutcomeAlreadyAssigned
		if inserted {
			outcome = models.AssignOutcomeAssigned
			result.Counts.New++
		} else {
			result.Counts.Existing++
		}

		result.Assigned = append(result.Assigned, models.AssignedStudent{
			StudentID:    student.ID,
			StudentName:  student.FullName(),
			SchoolID:     student.SchoolID,
			AssignmentID: assignment.ID,
			Status:       outcome,
		})
	}

	result.Skipped = skipped
	result.Counts.Requested = len(studentIDs)
	result.Counts.Skipped = len(skipped)
	result.Counts.Failed = len(result.Failed)
	if len(skipped) > 0 {
		result.Warning = fmt.Sprintf("%d student(s) skipped for %s, see skipped for reasons", len(skipped), faculty.FullName())
	}

	s.logger.Info().
		Str("form_id", form.ID).
		Str("faculty_id", faculty.ID).
		Int("new", result.Counts.New).
		Int("existing", result.Counts.Existing).
		Int("skipped", result.Counts.Skipped).
		Int("failed", result.Counts.Failed).
		Msg("Form assigned to students")

	s.publishAssigned(ctx, result)

	return result, nil
}

func (s *assignmentService) AssignFormToClasses(ctx context.Context, in *models.AssignClassesInput) (*models.AssignmentResult, error) {
	classIDs := uniqueIDs(in.ClassIDs)
	if len(classIDs) == 0 {
		return nil, fmt.Errorf("%w: class_ids must not be empty", ErrValidation)
	}

	if _, err := s.assignableForm(ctx, in.FormID); err != nil {
		return nil, err
	}

	classes, err := s.classRepo.GetByIDs(ctx, classIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get classes: %w", err)
	}
	if len(classes) != len(classIDs) {
		return nil, ErrClassNotFound
	}

	students, err := s.studentRepo.ListActiveInClasses(ctx, classIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get class students: %w", err)
	}
	if len(students) == 0 {
		return nil, &NoEligibleStudentsError{Skipped: []models.SkippedStudent{}}
	}

	studentIDs := make([]string, 0, len(students))
	for _, st := range students {
		studentIDs = append(studentIDs, st.ID)
	}

	result, err := s.AssignFormToStudents(ctx, &models.AssignStudentsInput{
		FormID:         in.FormID,
		FacultyID:      in.FacultyID,
		StudentIDs:     studentIDs,
		AcademicYearID: in.AcademicYearID,
		Semester:       in.Semester,
		DueDate:        in.DueDate,
		AssignedBy:     in.AssignedBy,
	})
	if err != nil {
		return nil, err
	}

	if err := s.formRepo.LinkClasses(ctx, in.FormID, classIDs, in.AssignedBy); err != nil {
		return nil, fmt.Errorf("failed to link classes to form: %w", err)
	}

	return result, nil
}

func (s *assignmentService) assignableForm(ctx context.Context, formID string) (*models.Form, error) {
	form, err := s.formRepo.GetByID(ctx, formID)
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if form == nil {
		return nil, ErrFormNotFound
	}
	if !models.FormStatus(form.Status).Assignable() {
		return nil, ErrFormNotActive
	}

	return form, nil
}

func (s *assignmentService) activeFaculty(ctx context.Context, facultyID string) (*models.Faculty, error) {
	faculty, err := s.facultyRepo.GetByID(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get faculty: %w", err)
	}
	if faculty == nil || !faculty.IsActive {
		return nil, ErrFacultyNotFound
	}

	return faculty, nil
}

// partition splits the requested students into those with an active
// relationship to the faculty member and those skipped, keeping request order.
func (s *assignmentService) partition(ctx context.Context, facultyID string, studentIDs []string, yearID *string, semester *int) ([]models.Student, []models.SkippedStudent, error) {
	students, err := s.studentRepo.GetByIDs(ctx, studentIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get students: %w", err)
	}

	byID := make(map[string]models.Student, len(students))
	for _, st := range students {
		byID[st.ID] = st
	}

	related, err := s.relationshipRepo.FilterRelated(ctx, facultyID, studentIDs, yearID, semester)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to check faculty relationships: %w", err)
	}

	relatedSet := make(map[string]struct{}, len(related))
	for _, id := range related {
		relatedSet[id] = struct{}{}
	}

	eligible := make([]models.Student, 0, len(studentIDs))
	skipped := []models.SkippedStudent{}
	for _, id := range studentIDs {
		st, ok := byID[id]
		if !ok || !st.IsActive {
			skipped = append(skipped, models.SkippedStudent{
				StudentID: id,
				Reason:    models.SkipReasonNotFound,
			})
			continue
		}

		if _, ok := relatedSet[id]; !ok {
			skipped = append(skipped, models.SkippedStudent{
				StudentID:   id,
				StudentName: st.FullName(),
				SchoolID:    st.SchoolID,
				Reason:      models.SkipReasonNoRelationship,
			})
			continue
		}

		eligible = append(eligible, st)
	}

	return eligible, skipped, nil
}

func (s *assignmentService) publishAssigned(ctx context.Context, result *models.AssignmentResult) {
	if s.publisher == nil || len(result.Assigned) == 0 {
		return
	}

	event := &models.FormAssignedEvent{
		FormID:         result.FormID,
		FacultyID:      result.FacultyID,
		NewAssignments: result.Counts.New,
		Existing:       result.Counts.Existing,
		Skipped:        result.Counts.Skipped,
		Timestamp:      s.clock().Unix(),
	}

	if err := s.publisher.PublishFormAssigned(ctx, event); err != nil {
		s.logger.Error().Err(err).
			Str("form_id", result.FormID).
			Msg("Failed to publish form assigned event")
	}
}
