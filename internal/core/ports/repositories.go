package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
)

// UserRepository defines the port for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

// TicketFilter narrows a ticket listing. Nil fields are not applied.
type TicketFilter struct {
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	Category    *string
	RequesterID *uuid.UUID
	AssigneeID  *uuid.UUID
	Unassigned  bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// TicketRepository defines the port for ticket persistence. Create and
// Update also append the matching status transition to the history log.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error)
	Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter TicketFilter) ([]*domain.Ticket, error)
	Count(ctx context.Context, filter TicketFilter) (int, error)
	History(ctx context.Context, ticketID uuid.UUID) ([]*domain.HistoryEntry, error)
}

// TrendQuery selects the series of a trend request. Owner and Category
// are optional filters.
type TrendQuery struct {
	Metric   domain.TrendMetric
	Period   domain.TrendPeriod
	Range    domain.DateRange
	Owner    *uuid.UUID
	Category string
}

// ComparisonQuery selects the two windows of a comparison request.
type ComparisonQuery struct {
	Metric  string // "tickets" or "resolution_time"
	Base    domain.DateRange
	Current domain.DateRange
	Owner   *uuid.UUID
}

// EfficiencyQuery selects the grouping and ordering of a ranking request.
type EfficiencyQuery struct {
	GroupBy domain.EfficiencyGroupBy
	Metric  domain.EfficiencyMetric
	Range   domain.DateRange
}

// ResponseTimeQuery narrows the response time report. Nil/empty fields
// are not applied.
type ResponseTimeQuery struct {
	Range    domain.DateRange
	Owner    *uuid.UUID
	Category string
	Priority domain.TicketPriority
}

// AnalyticsRepository defines the port for the aggregation queries. All
// implementations compute in the database and return finished result rows.
type AnalyticsRepository interface {
	Trends(ctx context.Context, query TrendQuery) (*domain.TrendSeries, error)
	Comparison(ctx context.Context, query ComparisonQuery) (*domain.PeriodComparison, error)
	CategoryBreakdown(ctx context.Context, dateRange domain.DateRange, owner *uuid.UUID) ([]*domain.CategoryStats, error)
	UserPerformance(ctx context.Context, dateRange domain.DateRange) ([]*domain.UserPerformance, error)
	EfficiencyRanking(ctx context.Context, query EfficiencyQuery) ([]*domain.EfficiencyEntry, error)
	WorkloadDistribution(ctx context.Context, dateRange domain.DateRange) (*domain.WorkloadDistribution, error)
	ResponseTimeStats(ctx context.Context, query ResponseTimeQuery) (*domain.ResponseTimeReport, error)
	LiveMetric(ctx context.Context, metricType domain.AlertMetricType, owner *uuid.UUID) (*domain.LiveMetric, error)
	DashboardSummary(ctx context.Context, owner *uuid.UUID) (*domain.DashboardSummary, error)
}

// ScheduledReportRepository defines the port for report subscriptions.
type ScheduledReportRepository interface {
	Create(ctx context.Context, report *domain.ScheduledReport) (*domain.ScheduledReport, error)
	GetByID(ctx context.Context, id int64) (*domain.ScheduledReport, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduledReport, error)
	ListDue(ctx context.Context, schedule domain.Schedule) ([]*domain.ScheduledReport, error)
	Update(ctx context.Context, report *domain.ScheduledReport) (*domain.ScheduledReport, error)
	UpdateLastRun(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

// MetricAlertRepository defines the port for threshold alerts and their
// firing history.
type MetricAlertRepository interface {
	Create(ctx context.Context, alert *domain.MetricAlert) (*domain.MetricAlert, error)
	GetByID(ctx context.Context, id int64) (*domain.MetricAlert, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MetricAlert, error)
	ListActive(ctx context.Context) ([]*domain.MetricAlert, error)
	Update(ctx context.Context, alert *domain.MetricAlert) (*domain.MetricAlert, error)
	UpdateLastTriggered(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error

	RecordEvent(ctx context.Context, event *domain.AlertEvent) (*domain.AlertEvent, error)
	MarkEventNotified(ctx context.Context, eventID int64) error
	ListEvents(ctx context.Context, alertID int64, limit int) ([]*domain.AlertEvent, error)
}
