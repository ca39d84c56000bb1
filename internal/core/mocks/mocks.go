package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// MockUserRepository is a mock implementation of ports.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{}
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockTicketRepository is a mock implementation of ports.TicketRepository
type MockTicketRepository struct {
	mock.Mock
}

func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{}
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	args := m.Called(ctx, ticket)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockTicketRepository) List(ctx context.Context, filter ports.TicketFilter) ([]*domain.Ticket, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Ticket), args.Error(1)
}

func (m *MockTicketRepository) Count(ctx context.Context, filter ports.TicketFilter) (int, error) {
	args := m.Called(ctx, filter)
	return args.Int(0), args.Error(1)
}

func (m *MockTicketRepository) History(ctx context.Context, ticketID uuid.UUID) ([]*domain.HistoryEntry, error) {
	args := m.Called(ctx, ticketID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HistoryEntry), args.Error(1)
}

// MockAnalyticsRepository is a mock implementation of ports.AnalyticsRepository
type MockAnalyticsRepository struct {
	mock.Mock
}

func NewMockAnalyticsRepository() *MockAnalyticsRepository {
	return &MockAnalyticsRepository{}
}

func (m *MockAnalyticsRepository) Trends(ctx context.Context, query ports.TrendQuery) (*domain.TrendSeries, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrendSeries), args.Error(1)
}

func (m *MockAnalyticsRepository) Comparison(ctx context.Context, query ports.ComparisonQuery) (*domain.PeriodComparison, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodComparison), args.Error(1)
}

func (m *MockAnalyticsRepository) CategoryBreakdown(ctx context.Context, dateRange domain.DateRange, owner *uuid.UUID) ([]*domain.CategoryStats, error) {
	args := m.Called(ctx, dateRange, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CategoryStats), args.Error(1)
}

func (m *MockAnalyticsRepository) UserPerformance(ctx context.Context, dateRange domain.DateRange) ([]*domain.UserPerformance, error) {
	args := m.Called(ctx, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UserPerformance), args.Error(1)
}

func (m *MockAnalyticsRepository) EfficiencyRanking(ctx context.Context, query ports.EfficiencyQuery) ([]*domain.EfficiencyEntry, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EfficiencyEntry), args.Error(1)
}

func (m *MockAnalyticsRepository) WorkloadDistribution(ctx context.Context, dateRange domain.DateRange) (*domain.WorkloadDistribution, error) {
	args := m.Called(ctx, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkloadDistribution), args.Error(1)
}

func (m *MockAnalyticsRepository) ResponseTimeStats(ctx context.Context, query ports.ResponseTimeQuery) (*domain.ResponseTimeReport, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResponseTimeReport), args.Error(1)
}

func (m *MockAnalyticsRepository) LiveMetric(ctx context.Context, metricType domain.AlertMetricType, owner *uuid.UUID) (*domain.LiveMetric, error) {
	args := m.Called(ctx, metricType, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LiveMetric), args.Error(1)
}

func (m *MockAnalyticsRepository) DashboardSummary(ctx context.Context, owner *uuid.UUID) (*domain.DashboardSummary, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardSummary), args.Error(1)
}

// MockAnalyticsService is a mock implementation of ports.AnalyticsService
type MockAnalyticsService struct {
	mock.Mock
}

func NewMockAnalyticsService() *MockAnalyticsService {
	return &MockAnalyticsService{}
}

func (m *MockAnalyticsService) Trends(ctx context.Context, query ports.TrendQuery) (*domain.TrendSeries, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.TrendSeries), args.Error(1)
}

func (m *MockAnalyticsService) Comparison(ctx context.Context, query ports.ComparisonQuery) (*domain.PeriodComparison, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PeriodComparison), args.Error(1)
}

func (m *MockAnalyticsService) CategoryBreakdown(ctx context.Context, dateRange domain.DateRange, owner *uuid.UUID) ([]*domain.CategoryStats, error) {
	args := m.Called(ctx, dateRange, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.CategoryStats), args.Error(1)
}

func (m *MockAnalyticsService) UserPerformance(ctx context.Context, dateRange domain.DateRange) ([]*domain.UserPerformance, error) {
	args := m.Called(ctx, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.UserPerformance), args.Error(1)
}

func (m *MockAnalyticsService) EfficiencyRanking(ctx context.Context, query ports.EfficiencyQuery) ([]*domain.EfficiencyEntry, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EfficiencyEntry), args.Error(1)
}

func (m *MockAnalyticsService) WorkloadDistribution(ctx context.Context, dateRange domain.DateRange) (*domain.WorkloadDistribution, error) {
	args := m.Called(ctx, dateRange)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WorkloadDistribution), args.Error(1)
}

func (m *MockAnalyticsService) ResponseTimeStats(ctx context.Context, query ports.ResponseTimeQuery) (*domain.ResponseTimeReport, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ResponseTimeReport), args.Error(1)
}

func (m *MockAnalyticsService) LiveMetric(ctx context.Context, metricType domain.AlertMetricType, owner *uuid.UUID) (*domain.LiveMetric, error) {
	args := m.Called(ctx, metricType, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LiveMetric), args.Error(1)
}

func (m *MockAnalyticsService) DashboardSummary(ctx context.Context, owner *uuid.UUID) (*domain.DashboardSummary, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.DashboardSummary), args.Error(1)
}

// MockScheduledReportRepository is a mock implementation of ports.ScheduledReportRepository
type MockScheduledReportRepository struct {
	mock.Mock
}

func NewMockScheduledReportRepository() *MockScheduledReportRepository {
	return &MockScheduledReportRepository{}
}

func (m *MockScheduledReportRepository) Create(ctx context.Context, report *domain.ScheduledReport) (*domain.ScheduledReport, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduledReport), args.Error(1)
}

func (m *MockScheduledReportRepository) GetByID(ctx context.Context, id int64) (*domain.ScheduledReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduledReport), args.Error(1)
}

func (m *MockScheduledReportRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduledReport, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduledReport), args.Error(1)
}

func (m *MockScheduledReportRepository) ListDue(ctx context.Context, schedule domain.Schedule) ([]*domain.ScheduledReport, error) {
	args := m.Called(ctx, schedule)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ScheduledReport), args.Error(1)
}

func (m *MockScheduledReportRepository) Update(ctx context.Context, report *domain.ScheduledReport) (*domain.ScheduledReport, error) {
	args := m.Called(ctx, report)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ScheduledReport), args.Error(1)
}

func (m *MockScheduledReportRepository) UpdateLastRun(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockScheduledReportRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockMetricAlertRepository is a mock implementation of ports.MetricAlertRepository
type MockMetricAlertRepository struct {
	mock.Mock
}

func NewMockMetricAlertRepository() *MockMetricAlertRepository {
	return &MockMetricAlertRepository{}
}

func (m *MockMetricAlertRepository) Create(ctx context.Context, alert *domain.MetricAlert) (*domain.MetricAlert, error) {
	args := m.Called(ctx, alert)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MetricAlert), args.Error(1)
}

func (m *MockMetricAlertRepository) GetByID(ctx context.Context, id int64) (*domain.MetricAlert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MetricAlert), args.Error(1)
}

func (m *MockMetricAlertRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MetricAlert, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MetricAlert), args.Error(1)
}

func (m *MockMetricAlertRepository) ListActive(ctx context.Context) ([]*domain.MetricAlert, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MetricAlert), args.Error(1)
}

func (m *MockMetricAlertRepository) Update(ctx context.Context, alert *domain.MetricAlert) (*domain.MetricAlert, error) {
	args := m.Called(ctx, alert)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MetricAlert), args.Error(1)
}

func (m *MockMetricAlertRepository) UpdateLastTriggered(ctx context.Context, id int64, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockMetricAlertRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMetricAlertRepository) RecordEvent(ctx context.Context, event *domain.AlertEvent) (*domain.AlertEvent, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AlertEvent), args.Error(1)
}

func (m *MockMetricAlertRepository) MarkEventNotified(ctx context.Context, eventID int64) error {
	args := m.Called(ctx, eventID)
	return args.Error(0)
}

func (m *MockMetricAlertRepository) ListEvents(ctx context.Context, alertID int64, limit int) ([]*domain.AlertEvent, error) {
	args := m.Called(ctx, alertID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.AlertEvent), args.Error(1)
}

// MockMailer is a mock implementation of ports.Mailer
type MockMailer struct {
	mock.Mock
}

func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) Send(ctx context.Context, msg ports.MailMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of ports.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{}
}

func (m *MockEventPublisher) Publish(event domain.Event) {
	m.Called(event)
}

// MockTransactionManager is a mock implementation of ports.TransactionManager.
// WithTransaction simply invokes the callback with the given context.
type MockTransactionManager struct {
	mock.Mock
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if err := args.Error(0); err != nil {
		return err
	}
	return fn(ctx)
}
