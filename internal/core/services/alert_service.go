package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

const defaultAlertHistoryLimit = 50

// MetricAlertService implements CRUD for threshold alerts. Only the owning
// user (or an admin) may read or modify an alert.
type MetricAlertService struct {
	alertRepo ports.MetricAlertRepository
	userRepo  ports.UserRepository
}

var _ ports.MetricAlertService = (*MetricAlertService)(nil)

// NewMetricAlertService creates a new metric alert service
func NewMetricAlertService(
	alertRepo ports.MetricAlertRepository,
	userRepo ports.UserRepository,
) ports.MetricAlertService {
	return &MetricAlertService{
		alertRepo: alertRepo,
		userRepo:  userRepo,
	}
}

// Create validates and stores a new threshold alert.
func (s *MetricAlertService) Create(ctx context.Context, params domain.MetricAlertParams) (*domain.MetricAlert, error) {
	alert, err := domain.NewMetricAlert(params)
	if err != nil {
		return nil, err
	}
	return s.alertRepo.Create(ctx, alert)
}

// Get fetches an alert, enforcing ownership.
func (s *MetricAlertService) Get(ctx context.Context, id int64, actorID uuid.UUID) (*domain.MetricAlert, error) {
	alert, err := s.alertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, alert, actorID); err != nil {
		return nil, err
	}
	return alert, nil
}

// ListForUser returns all alerts owned by a user.
func (s *MetricAlertService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.MetricAlert, error) {
	return s.alertRepo.ListByUser(ctx, userID)
}

// Update applies the non-nil fields and revalidates the alert. The metric
// type is immutable; delete and recreate to watch a different metric.
func (s *MetricAlertService) Update(ctx context.Context, id int64, actorID uuid.UUID, params ports.UpdateMetricAlertParams) (*domain.MetricAlert, error) {
	alert, err := s.alertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, alert, actorID); err != nil {
		return nil, err
	}

	if params.Name != nil {
		if *params.Name == "" {
			return nil, apperrors.ErrTitleRequired
		}
		alert.Name = *params.Name
	}
	if params.Condition != nil {
		if !params.Condition.IsValid() {
			return nil, apperrors.ErrInvalidCondition
		}
		alert.Condition = *params.Condition
	}
	if params.Threshold != nil {
		alert.Threshold = *params.Threshold
	}
	if params.Email != nil {
		if err := domain.ValidateEmail(*params.Email); err != nil {
			return nil, err
		}
		alert.Email = *params.Email
	}
	if params.Active != nil {
		alert.Active = *params.Active
	}

	return s.alertRepo.Update(ctx, alert)
}

// Delete removes an alert and its firing history, enforcing ownership.
func (s *MetricAlertService) Delete(ctx context.Context, id int64, actorID uuid.UUID) error {
	alert, err := s.alertRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorize(ctx, alert, actorID); err != nil {
		return err
	}
	return s.alertRepo.Delete(ctx, id)
}

// History returns the most recent firings of an alert.
func (s *MetricAlertService) History(ctx context.Context, alertID int64, actorID uuid.UUID, limit int) ([]*domain.AlertEvent, error) {
	alert, err := s.alertRepo.GetByID(ctx, alertID)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, alert, actorID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAlertHistoryLimit
	}
	return s.alertRepo.ListEvents(ctx, alertID, limit)
}

func (s *MetricAlertService) authorize(ctx context.Context, alert *domain.MetricAlert, actorID uuid.UUID) error {
	if alert.UserID == actorID {
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
