package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
)

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Register(ctx context.Context, fullName, email, password string) (*domain.User, error)
	Login(ctx context.Context, email, password string) (*domain.User, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

// CreateTicketParams defines the required input for creating a new ticket.
type CreateTicketParams struct {
	Title       string
	Description string
	Priority    domain.TicketPriority
	Category    string
	RequesterID uuid.UUID
}

// UpdateStatusParams defines the input for changing a ticket's status.
type UpdateStatusParams struct {
	TicketID uuid.UUID
	Status   domain.TicketStatus
	ActorID  uuid.UUID
}

// AssignTicketParams defines the input for assigning a ticket.
type AssignTicketParams struct {
	TicketID   uuid.UUID
	AssigneeID uuid.UUID
	ActorID    uuid.UUID
}

// ListTicketsParams defines the input for listing tickets.
type ListTicketsParams struct {
	ViewerID uuid.UUID
	Filter   TicketFilter
}

// TicketService defines the core business operations for managing tickets.
type TicketService interface {
	CreateTicket(ctx context.Context, params CreateTicketParams) (*domain.Ticket, error)
	GetTicket(ctx context.Context, ticketID uuid.UUID, viewerID uuid.UUID) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, params UpdateStatusParams) (*domain.Ticket, error)
	AssignTicket(ctx context.Context, params AssignTicketParams) (*domain.Ticket, error)
	ListTickets(ctx context.Context, params ListTicketsParams) ([]*domain.Ticket, error)
	GetHistory(ctx context.Context, ticketID uuid.UUID, viewerID uuid.UUID) ([]*domain.HistoryEntry, error)
	DeleteTicket(ctx context.Context, ticketID uuid.UUID, actorID uuid.UUID) error
	Shutdown()
}

// AnalyticsService defines the port for the reporting queries.
type AnalyticsService interface {
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

// UpdateScheduledReportParams defines the mutable fields of a subscription.
// Nil fields are left unchanged.
type UpdateScheduledReportParams struct {
	Name       *string
	Parameters *domain.ReportParameters
	Schedule   *domain.Schedule
	Email      *string
	Active     *bool
}

// ScheduledReportService defines the port for managing report subscriptions.
type ScheduledReportService interface {
	Create(ctx context.Context, params domain.ScheduledReportParams) (*domain.ScheduledReport, error)
	Get(ctx context.Context, id int64, actorID uuid.UUID) (*domain.ScheduledReport, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduledReport, error)
	Update(ctx context.Context, id int64, actorID uuid.UUID, params UpdateScheduledReportParams) (*domain.ScheduledReport, error)
	Delete(ctx context.Context, id int64, actorID uuid.UUID) error
}

// UpdateMetricAlertParams defines the mutable fields of an alert.
// Nil fields are left unchanged.
type UpdateMetricAlertParams struct {
	Name      *string
	Condition *domain.AlertCondition
	Threshold *float64
	Email     *string
	Active    *bool
}

// MetricAlertService defines the port for managing threshold alerts.
type MetricAlertService interface {
	Create(ctx context.Context, params domain.MetricAlertParams) (*domain.MetricAlert, error)
	Get(ctx context.Context, id int64, actorID uuid.UUID) (*domain.MetricAlert, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.MetricAlert, error)
	Update(ctx context.Context, id int64, actorID uuid.UUID, params UpdateMetricAlertParams) (*domain.MetricAlert, error)
	Delete(ctx context.Context, id int64, actorID uuid.UUID) error
	History(ctx context.Context, alertID int64, actorID uuid.UUID, limit int) ([]*domain.AlertEvent, error)
}

// Mailer defines the port for outbound email.
type Mailer interface {
	Send(ctx context.Context, msg MailMessage) error
}

// MailMessage is one outbound email, optionally with attachments.
type MailMessage struct {
	To          string
	Subject     string
	TextBody    string
	HTMLBody    string
	Attachments []MailAttachment
}

// MailAttachment is an in-memory file attached to a message.
type MailAttachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EventPublisher defines the port for broadcasting real-time events.
type EventPublisher interface {
	Publish(event domain.Event)
}

// TransactionManager defines the port for running atomic operations.
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
