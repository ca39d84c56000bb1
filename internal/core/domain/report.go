package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
)

// ReportType names one of the report queries a scheduled report can run.
type ReportType string

const (
	ReportTickets      ReportType = "tickets"
	ReportPerformance  ReportType = "performance"
	ReportCategories   ReportType = "categories"
	ReportUsers        ReportType = "users"
	ReportTrends       ReportType = "trends"
	ReportComparison   ReportType = "comparison"
	ReportEfficiency   ReportType = "efficiency"
	ReportWorkload     ReportType = "workload"
	ReportResponseTime ReportType = "response_time"
)

// IsValid reports whether the report type is one of the known values.
func (rt ReportType) IsValid() bool {
	switch rt {
	case ReportTickets, ReportPerformance, ReportCategories, ReportUsers,
		ReportTrends, ReportComparison, ReportEfficiency, ReportWorkload,
		ReportResponseTime:
		return true
	}
	return false
}

// Schedule is how often a scheduled report runs.
type Schedule string

const (
	ScheduleDaily   Schedule = "daily"
	ScheduleWeekly  Schedule = "weekly"
	ScheduleMonthly Schedule = "monthly"
)

// IsValid reports whether the schedule is one of the known values.
func (s Schedule) IsValid() bool {
	switch s {
	case ScheduleDaily, ScheduleWeekly, ScheduleMonthly:
		return true
	}
	return false
}

// TrendPeriod is the bucketing granularity for trend queries.
type TrendPeriod string

const (
	PeriodDaily   TrendPeriod = "daily"
	PeriodWeekly  TrendPeriod = "weekly"
	PeriodMonthly TrendPeriod = "monthly"
	PeriodYearly  TrendPeriod = "yearly"
)

// IsValid reports whether the trend period is one of the known values.
func (p TrendPeriod) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodYearly:
		return true
	}
	return false
}

// TrendMetric selects what a trend query counts or averages per bucket.
type TrendMetric string

const (
	MetricCreated        TrendMetric = "created"
	MetricResolved       TrendMetric = "resolved"
	MetricResponseTime   TrendMetric = "response_time"
	MetricResolutionTime TrendMetric = "resolution_time"
)

// IsValid reports whether the trend metric is one of the known values.
func (m TrendMetric) IsValid() bool {
	switch m {
	case MetricCreated, MetricResolved, MetricResponseTime, MetricResolutionTime:
		return true
	}
	return false
}

// ReportParameters carries the query arguments of a scheduled report.
// Which fields matter depends on the report type; ValidateFor checks
// the combination.
type ReportParameters struct {
	StartDate *time.Time     `json:"start_date,omitempty"`
	EndDate   *time.Time     `json:"end_date,omitempty"`
	Period    TrendPeriod    `json:"period,omitempty"`
	Metric    TrendMetric    `json:"metric,omitempty"`
	Status    TicketStatus   `json:"status,omitempty"`
	Priority  TicketPriority `json:"priority,omitempty"`
	Category  string         `json:"category,omitempty"`
	Limit     int            `json:"limit,omitempty"`
}

// ValidateFor checks that the parameters make sense for the given report
// type. Date ranges are optional everywhere except comparison reports,
// which need an explicit base range.
func (p ReportParameters) ValidateFor(rt ReportType) error {
	if !rt.IsValid() {
		return apperrors.ErrInvalidReportType
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return apperrors.ErrInvalidDateRange
	}

	switch rt {
	case ReportTickets:
		if p.Status != "" && !p.Status.IsValid() {
			return apperrors.ErrInvalidStatus
		}
		if p.Priority != "" && !p.Priority.IsValid() {
			return apperrors.ErrInvalidPriority
		}
	case ReportTrends:
		if p.Period != "" && !p.Period.IsValid() {
			return apperrors.ErrInvalidPeriod
		}
		if p.Metric != "" && !p.Metric.IsValid() {
			return apperrors.ErrInvalidMetric
		}
	case ReportComparison:
		if p.StartDate == nil || p.EndDate == nil {
			return apperrors.ErrDateRangeRequired
		}
	}
	return nil
}

// ScheduledReport is a report subscription: a report query plus a cadence
// and a delivery address.
type ScheduledReport struct {
	ID         int64
	UserID     uuid.UUID
	Name       string
	ReportType ReportType
	Parameters ReportParameters
	Schedule   Schedule
	Email      string
	Active     bool
	LastRun    *time.Time
	CreatedAt  time.Time
}

// ScheduledReportParams holds the validated input for creating a subscription.
type ScheduledReportParams struct {
	UserID     uuid.UUID
	Name       string
	ReportType ReportType
	Parameters ReportParameters
	Schedule   Schedule
	Email      string
}

// NewScheduledReport creates a valid, active report subscription.
func NewScheduledReport(params ScheduledReportParams) (*ScheduledReport, error) {
	if params.Name == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if !params.ReportType.IsValid() {
		return nil, apperrors.ErrInvalidReportType
	}
	if !params.Schedule.IsValid() {
		return nil, apperrors.ErrInvalidSchedule
	}
	if err := ValidateEmail(params.Email); err != nil {
		return nil, err
	}
	if err := params.Parameters.ValidateFor(params.ReportType); err != nil {
		return nil, err
	}

	return &ScheduledReport{
		UserID:     params.UserID,
		Name:       params.Name,
		ReportType: params.ReportType,
		Parameters: params.Parameters,
		Schedule:   params.Schedule,
		Email:      params.Email,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// MarkRun stamps the subscription after a successful delivery.
func (r *ScheduledReport) MarkRun(at time.Time) {
	t := at.UTC()
	r.LastRun = &t
}
