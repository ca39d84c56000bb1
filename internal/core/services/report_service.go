package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// ScheduledReportService implements CRUD for report subscriptions. Only the
// owning user (or an admin) may read or modify a subscription.
type ScheduledReportService struct {
	reportRepo ports.ScheduledReportRepository
	userRepo   ports.UserRepository
}

var _ ports.ScheduledReportService = (*ScheduledReportService)(nil)

// NewScheduledReportService creates a new scheduled report service
func NewScheduledReportService(
	reportRepo ports.ScheduledReportRepository,
	userRepo ports.UserRepository,
) ports.ScheduledReportService {
	return &ScheduledReportService{
		reportRepo: reportRepo,
		userRepo:   userRepo,
	}
}

// Create validates and stores a new report subscription.
func (s *ScheduledReportService) Create(ctx context.Context, params domain.ScheduledReportParams) (*domain.ScheduledReport, error) {
	report, err := domain.NewScheduledReport(params)
	if err != nil {
		return nil, err
	}
	return s.reportRepo.Create(ctx, report)
}

// Get fetches a subscription, enforcing ownership.
func (s *ScheduledReportService) Get(ctx context.Context, id int64, actorID uuid.UUID) (*domain.ScheduledReport, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, report, actorID); err != nil {
		return nil, err
	}
	return report, nil
}

// ListForUser returns all subscriptions owned by a user.
func (s *ScheduledReportService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduledReport, error) {
	return s.reportRepo.ListByUser(ctx, userID)
}

// Update applies the non-nil fields and revalidates the subscription.
func (s *ScheduledReportService) Update(ctx context.Context, id int64, actorID uuid.UUID, params ports.UpdateScheduledReportParams) (*domain.ScheduledReport, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, report, actorID); err != nil {
		return nil, err
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, apperrors.ErrTitleRequired
		}
		report.Name = *params.Name
	}
	if params.Schedule != nil {
		if !params.Schedule.IsValid() {
			return nil, apperrors.ErrInvalidSchedule
		}
		report.Schedule = *params.Schedule
	}
	if params.Email != nil {
		if err := domain.ValidateEmail(*params.Email); err != nil {
			return nil, err
		}
		report.Email = *params.Email
	}
	if params.Parameters != nil {
		report.Parameters = *params.Parameters
	}
	if params.Active != nil {
		report.Active = *params.Active
	}

	// Parameters must still fit the report type after any change
	if err := report.Parameters.ValidateFor(report.ReportType); err != nil {
		return nil, err
	}

	return s.reportRepo.Update(ctx, report)
}

// Delete removes a subscription, enforcing ownership.
func (s *ScheduledReportService) Delete(ctx context.Context, id int64, actorID uuid.UUID) error {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, report, actorID); err != nil {
		return err
	}
	return s.reportRepo.Delete(ctx, id)
}

func (s *ScheduledReportService) authorize(ctx context.Context, report *domain.ScheduledReport, actorID uuid.UUID) error {
	if report.UserID == actorID {
		return nil
	}
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}
	return nil
}
