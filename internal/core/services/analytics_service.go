package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// AnalyticsService validates reporting queries and delegates the heavy
// lifting to the analytics repository, which computes in the database.
// Unknown enum values are rejected, never silently defaulted.
type AnalyticsService struct {
	analyticsRepo ports.AnalyticsRepository
}

var _ ports.AnalyticsService = (*AnalyticsService)(nil)

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(analyticsRepo ports.AnalyticsRepository) ports.AnalyticsService {
	return &AnalyticsService{analyticsRepo: analyticsRepo}
}

// Trends returns a bucketed time series of the requested metric.
func (s *AnalyticsService) Trends(ctx context.Context, query ports.TrendQuery) (*domain.TrendSeries, error) {
	if !query.Metric.IsValid() {
		return nil, apperrors.ErrInvalidMetric
	}
	if !query.Period.IsValid() {
		return nil, apperrors.ErrInvalidPeriod
	}
	if err := query.Range.Validate(); err != nil {
		return nil, err
	}

	return s.analyticsRepo.Trends(ctx, query)
}

// Comparison compares two reporting windows on the requested metric.
func (s *AnalyticsService) Comparison(ctx context.Context, query ports.ComparisonQuery) (*domain.PeriodComparison, error) {
	if query.Metric != "tickets" && query.Metric != "resolution_time" {
		return nil, apperrors.ErrInvalidMetric
	}
	if query.Base.Start.IsZero() || query.Base.End.IsZero() ||
		query.Current.Start.IsZero() || query.Current.End.IsZero() {
		return nil, apperrors.ErrDateRangeRequired
	}
	if err := query.Base.Validate(); err != nil {
		return nil, err
	}
	if err := query.Current.Validate(); err != nil {
		return nil, err
	}

	return s.analyticsRepo.Comparison(ctx, query)
}

// CategoryBreakdown returns per-category ticket statistics.
func (s *AnalyticsService) CategoryBreakdown(ctx context.Context, dateRange domain.DateRange, owner *uuid.UUID) ([]*domain.CategoryStats, error) {
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}
	return s.analyticsRepo.CategoryBreakdown(ctx, dateRange, owner)
}

// UserPerformance returns per-assignee resolution statistics.
func (s *AnalyticsService) UserPerformance(ctx context.Context, dateRange domain.DateRange) ([]*domain.UserPerformance, error) {
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}
	return s.analyticsRepo.UserPerformance(ctx, dateRange)
}

// EfficiencyRanking ranks assignees or categories by resolution speed or rate.
func (s *AnalyticsService) EfficiencyRanking(ctx context.Context, query ports.EfficiencyQuery) ([]*domain.EfficiencyEntry, error) {
	if !query.GroupBy.IsValid() {
		return nil, apperrors.ErrInvalidGroupBy
	}
	if !query.Metric.IsValid() {
		return nil, apperrors.ErrInvalidMetric
	}
	if err := query.Range.Validate(); err != nil {
		return nil, err
	}
	return s.analyticsRepo.EfficiencyRanking(ctx, query)
}

// WorkloadDistribution returns the active load per assignee plus creation
// volume by weekday and hour.
func (s *AnalyticsService) WorkloadDistribution(ctx context.Context, dateRange domain.DateRange) (*domain.WorkloadDistribution, error) {
	if err := dateRange.Validate(); err != nil {
		return nil, err
	}
	return s.analyticsRepo.WorkloadDistribution(ctx, dateRange)
}

// ResponseTimeStats returns time-to-first-response statistics.
func (s *AnalyticsService) ResponseTimeStats(ctx context.Context, query ports.ResponseTimeQuery) (*domain.ResponseTimeReport, error) {
	if err := query.Range.Validate(); err != nil {
		return nil, err
	}
	if query.Priority != "" && !query.Priority.IsValid() {
		return nil, apperrors.ErrInvalidPriority
	}
	return s.analyticsRepo.ResponseTimeStats(ctx, query)
}

// LiveMetric returns the current value of one alertable metric, optionally
// scoped to tickets opened by one user.
func (s *AnalyticsService) LiveMetric(ctx context.Context, metricType domain.AlertMetricType, owner *uuid.UUID) (*domain.LiveMetric, error) {
	if !metricType.IsValid() {
		return nil, apperrors.ErrInvalidMetricType
	}
	return s.analyticsRepo.LiveMetric(ctx, metricType, owner)
}

// DashboardSummary returns the aggregate snapshot behind the overview screen.
func (s *AnalyticsService) DashboardSummary(ctx context.Context, owner *uuid.UUID) (*domain.DashboardSummary, error) {
	return s.analyticsRepo.DashboardSummary(ctx, owner)
}
