package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/RubachokBoss/faculty-evaluation/internal/models"
	"github.com/RubachokBoss/faculty-evaluation/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type AcademicYearService interface {
	CreateAcademicYear(ctx context.Context, req *models.CreateAcademicYearRequest) (*models.AcademicYear, error)
	GetAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error)
	GetCurrentAcademicYear(ctx context.Context) (*models.AcademicYear, error)
	ListAcademicYears(ctx context.Context) ([]models.AcademicYear, error)
	SetCurrentAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error)
	UpdateAcademicYear(ctx context.Context, id string, req *models.UpdateAcademicYearRequest) (*models.AcademicYear, error)
	DeleteAcademicYear(ctx context.Context, id string) error
}

type academicYearService struct {
	yearRepo repository.AcademicYearRepository
	clock    Clock
	logger   zerolog.Logger
}

func NewAcademicYearService(yearRepo repository.AcademicYearRepository, clock Clock, logger zerolog.Logger) AcademicYearService {
	return &academicYearService{
		yearRepo: yearRepo,
		clock:    clock,
		logger:   logger,
	}
}

const dateLayout = "2006-01-02"

func parseYearRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := time.Parse(dateLayout, startDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid start_date", ErrValidation)
	}
	end, err := time.Parse(dateLayout, endDate)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: invalid end_date", ErrValidation)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: end_date is before start_date", ErrValidation)
	}

	return start, end, nil
}

func (s *academicYearService) CreateAcademicYear(ctx context.Context, req *models.CreateAcademicYearRequest) (*models.AcademicYear, error) {
	start, end, err := parseYearRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	year := &models.AcademicYear{
		ID:        uuid.New().String(),
		YearCode:  strings.TrimSpace(req.YearCode),
		YearName:  strings.TrimSpace(req.YearName),
		StartDate: start,
		EndDate:   end,
		Status:    models.YearStatusFor(start, end, now).String(),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.yearRepo.Create(ctx, year); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: academic year %s", ErrAlreadyExists, year.YearCode)
		}
		return nil, fmt.Errorf("failed to create academic year: %w", err)
	}

	s.logger.Info().
		Str("academic_year_id", year.ID).
		Str("year_code", year.YearCode).
		Str("status", year.Status).
		Msg("Academic year created")

	return year, nil
}

func (s *academicYearService) GetAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	year, err := s.yearRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get academic year: %w", err)
	}
	if year == nil {
		return nil, ErrAcademicYearNotFound
	}

	return year, nil
}

func (s *academicYearService) GetCurrentAcademicYear(ctx context.Context) (*models.AcademicYear, error) {
	year, err := s.yearRepo.GetCurrent(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current academic year: %w", err)
	}
	if year == nil {
		return nil, ErrAcademicYearNotFound
	}

	return year, nil
}

func (s *academicYearService) ListAcademicYears(ctx context.Context) ([]models.AcademicYear, error) {
	years, err := s.yearRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list academic years: %w", err)
	}

	return years, nil
}

// SetCurrentAcademicYear marks one year current and active and re-derives
// the status of every other year from its dates.
func (s *academicYearService) SetCurrentAcademicYear(ctx context.Context, id string) (*models.AcademicYear, error) {
	now := s.clock()
	year, err := s.yearRepo.SetCurrent(ctx, id, func(y models.AcademicYear) models.AcademicYearStatus {
		return models.YearStatusFor(y.StartDate, y.EndDate, now)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set current academic year: %w", err)
	}
	if year == nil {
		return nil, ErrAcademicYearNotFound
	}

	s.logger.Info().
		Str("academic_year_id", year.ID).
		Str("year_code", year.YearCode).
		Msg("Current academic year changed")

	return year, nil
}

// UpdateAcademicYear rewrites a year's code, name and dates. The status of a
// non-current year is re-derived from the new dates; the current year stays active.
func (s *academicYearService) UpdateAcademicYear(ctx context.Context, id string, req *models.UpdateAcademicYearRequest) (*models.AcademicYear, error) {
	start, end, err := parseYearRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	year := &models.AcademicYear{
		ID:        id,
		YearCode:  strings.TrimSpace(req.YearCode),
		YearName:  strings.TrimSpace(req.YearName),
		StartDate: start,
		EndDate:   end,
		Status:    models.YearStatusFor(start, end, now).String(),
		UpdatedAt: now,
	}

	found, err := s.yearRepo.Update(ctx, year)
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%w: academic year %s", ErrAlreadyExists, year.YearCode)
		}
		return nil, fmt.Errorf("failed to update academic year: %w", err)
	}
	if !found {
		return nil, ErrAcademicYearNotFound
	}

	s.logger.Info().
		Str("academic_year_id", year.ID).
		Str("year_code", year.YearCode).
		Str("status", year.Status).
		Msg("Academic year updated")

	return year, nil
}

// DeleteAcademicYear removes a year nothing depends on. The current year and
// years referenced by forms, assignments or relationships are refused.
func (s *academicYearService) DeleteAcademicYear(ctx context.Context, id string) error {
	year, err := s.yearRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get academic year: %w", err)
	}
	if year == nil {
		return ErrAcademicYearNotFound
	}
	if year.IsCurrent {
		return fmt.Errorf("%w: %s is the current academic year", ErrAcademicYearInUse, year.YearCode)
	}

	deleted, err := s.yearRepo.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete academic year: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: %s is referenced by evaluation data", ErrAcademicYearInUse, year.YearCode)
	}

	s.logger.Info().
		Str("academic_year_id", id).
		Str("year_code", year.YearCode).
		Msg("Academic year deleted")

	return nil
}
