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

// DirectoryService maintains the people, classes and teaching relationships
// the assignment engine draws on.
type DirectoryService interface {
	CreateStudent(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error)
	CreateFaculty(ctx context.Context, req *models.CreateFacultyRequest) (*models.Faculty, error)
	ListFaculty(ctx context.Context, department string) ([]models.Faculty, error)
	CreateClass(ctx context.Context, req *models.CreateClassRequest) (*models.Class, error)
	DeleteClass(ctx context.Context, id string) error
	LinkFacultyToClass(ctx context.Context, facultyID string, req *models.LinkFacultyClassRequest) (*models.FacultyClass, bool, error)
	UnlinkFacultyFromClass(ctx context.Context, facultyID, classID string) error
	ListFacultyClasses(ctx context.Context, facultyID string) ([]models.TaughtClass, error)
	CreateRelationship(ctx context.Context, req *models.CreateRelationshipRequest) (*models.Relationship, error)
	DeactivateRelationship(ctx context.Context, id string) error
}

type directoryService struct {
	studentRepo      repository.StudentRepository
	facultyRepo      repository.FacultyRepository
	classRepo        repository.ClassRepository
	relationshipRepo repository.RelationshipRepository
	yearRepo         repository.AcademicYearRepository
	clock            Clock
	logger           zerolog.Logger
}

func NewDirectoryService(
	studentRepo repository.StudentRepository,
	facultyRepo repository.FacultyRepository,
	classRepo repository.ClassRepository,
	relationshipRepo repository.RelationshipRepository,
	yearRepo repository.AcademicYearRepository,
	clock Clock,
	logger zerolog.Logger,
) DirectoryService {
	return &directoryService{
		studentRepo:      studentRepo,
		facultyRepo:      facultyRepo,
		classRepo:        classRepo,
		relationshipRepo: relationshipRepo,
		yearRepo:         yearRepo,
		clock:            clock,
		logger:           logger,
	}
}

func (s *directoryService) CreateStudent(ctx context.Context, req *models.CreateStudentRequest) (*models.Student, error) {
	if req.ClassID != nil {
		classes, err := s.classRepo.GetByIDs(ctx, []string{*req.ClassID})
		if err != nil {
			return nil, fmt.Errorf("failed to get class: %w", err)
		}
		if len(classes) == 0 {
			return nil, ErrClassNotFound
		}
	}

	now := s.clock()
	student := &models.Student{
		ID:        uuid.New().String(),
		SchoolID:  strings.TrimSpace(req.SchoolID),
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		ClassID:   req.ClassID,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.studentRepo.Create(ctx, student); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: student with this school id or email", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.Info().Str("student_id", student.ID).Msg("Student created")
	return student, nil
}

func (s *directoryService) CreateFaculty(ctx context.Context, req *models.CreateFacultyRequest) (*models.Faculty, error) {
	now := s.clock()
	faculty := &models.Faculty{
		ID:         uuid.New().String(),
		SchoolID:   strings.TrimSpace(req.SchoolID),
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      strings.ToLower(strings.TrimSpace(req.Email)),
		Department: strings.TrimSpace(req.Department),
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.facultyRepo.Create(ctx, faculty); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: faculty with this school id or email", ErrAlreadyExists)
		}
		return nil, fmt.Errorf("failed to create faculty: %w", err)
	}

	s.logger.Info().
		Str("faculty_id", faculty.ID).
		Str("department", faculty.Department).
		Msg("Faculty created")
	return faculty, nil
}

func (s *directoryService) ListFaculty(ctx context.Context, department string) ([]models.Faculty, error) {
	list, err := s.facultyRepo.List(ctx, strings.TrimSpace(department))
	if err != nil {
		return nil, fmt.Errorf("failed to list faculty: %w", err)
	}

	return list, nil
}

func (s *directoryService) CreateClass(ctx context.Context, req *models.CreateClassRequest) (*models.Class, error) {
	now := s.clock()
	class := &models.Class{
		ID:         uuid.New().String(),
		Name:       strings.TrimSpace(req.Name),
		Curriculum: req.Curriculum,
		Level:      req.Level,
		Section:    req.Section,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := s.classRepo.Create(ctx, class); err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	s.logger.Info().Str("class_id", class.ID).Str("name", class.Name).Msg("Class created")
	return class, nil
}

// DeleteClass soft-deletes a class. Classes that still have active students
// are refused.
func (s *directoryService) DeleteClass(ctx context.Context, id string) error {
	class, err := s.classRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get class: %w", err)
	}
	if class == nil || !class.IsActive {
		return ErrClassNotFound
	}

	deleted, err := s.classRepo.Deactivate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete class: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: %s", ErrClassInUse, class.Name)
	}

	s.logger.Info().Str("class_id", id).Str("name", class.Name).Msg("Class deleted")
	return nil
}

// LinkFacultyToClass records that a faculty member teaches a class. Linking
// again only updates the subject; the bool reports whether the link is new.
func (s *directoryService) LinkFacultyToClass(ctx context.Context, facultyID string, req *models.LinkFacultyClassRequest) (*models.FacultyClass, bool, error) {
	faculty, err := s.facultyRepo.GetByID(ctx, facultyID)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get faculty: %w", err)
	}
	if faculty == nil || !faculty.IsActive {
		return nil, false, ErrFacultyNotFound
	}

	classes, err := s.classRepo.GetByIDs(ctx, []string{req.ClassID})
	if err != nil {
		return nil, false, fmt.Errorf("failed to get class: %w", err)
	}
	if len(classes) == 0 {
		return nil, false, ErrClassNotFound
	}

	link := &models.FacultyClass{
		ID:        uuid.New().String(),
		FacultyID: facultyID,
		ClassID:   req.ClassID,
		Subject:   strings.TrimSpace(req.Subject),
		CreatedAt: s.clock(),
	}

	created, err := s.classRepo.LinkFaculty(ctx, link)
	if err != nil {
		return nil, false, fmt.Errorf("failed to link faculty to class: %w", err)
	}

	s.logger.Info().
		Str("faculty_id", facultyID).
		Str("class_id", req.ClassID).
		Bool("created", created).
		Msg("Faculty linked to class")
	return link, created, nil
}

func (s *directoryService) UnlinkFacultyFromClass(ctx context.Context, facultyID, classID string) error {
	removed, err := s.classRepo.UnlinkFaculty(ctx, facultyID, classID)
	if err != nil {
		return fmt.Errorf("failed to unlink faculty from class: %w", err)
	}
	if !removed {
		return ErrClassNotFound
	}

	s.logger.Info().Str("faculty_id", facultyID).Str("class_id", classID).Msg("Faculty unlinked from class")
	return nil
}

func (s *directoryService) ListFacultyClasses(ctx context.Context, facultyID string) ([]models.TaughtClass, error) {
	faculty, err := s.facultyRepo.GetByID(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get faculty: %w", err)
	}
	if faculty == nil {
		return nil, ErrFacultyNotFound
	}

	classes, err := s.classRepo.ListByFaculty(ctx, facultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list faculty classes: %w", err)
	}
	if classes == nil {
		classes = []models.TaughtClass{}
	}

	return classes, nil
}

func (s *directoryService) CreateRelationship(ctx context.Context, req *models.CreateRelationshipRequest) (*models.Relationship, error) {
	student, err := s.studentRepo.GetByID(ctx, req.StudentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}
	if student == nil {
		return nil, ErrStudentNotFound
	}

	faculty, err := s.facultyRepo.GetByID(ctx, req.FacultyID)
	if err != nil {
		return nil, fmt.Errorf("failed to get faculty: %w", err)
	}
	if faculty == nil {
		return nil, ErrFacultyNotFound
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

	existing, err := s.relationshipRepo.FindActive(ctx, req.StudentID, req.FacultyID, req.AcademicYearID, req.Semester)
	if err != nil {
		return nil, fmt.Errorf("failed to check relationship: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	now := s.clock()
	rel := &models.Relationship{
		ID:             uuid.New().String(),
		StudentID:      req.StudentID,
		FacultyID:      req.FacultyID,
		AcademicYearID: req.AcademicYearID,
		Semester:       req.Semester,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.relationshipRepo.Create(ctx, rel); err != nil {
		return nil, fmt.Errorf("failed to create relationship: %w", err)
	}

	s.logger.Info().
		Str("relationship_id", rel.ID).
		Str("student_id", rel.StudentID).
		Str("faculty_id", rel.FacultyID).
		Msg("Relationship created")
	return rel, nil
}

func (s *directoryService) DeactivateRelationship(ctx context.Context, id string) error {
	found, err := s.relationshipRepo.Deactivate(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to deactivate relationship: %w", err)
	}
	if !found {
		return ErrRelationshipNotFound
	}

	s.logger.Info().Str("relationship_id", id).Msg("Relationship deactivated")
	return nil
}
