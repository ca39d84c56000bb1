package domain

import (
	"math"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
)

// DateRange is an inclusive reporting window. Either bound may be zero,
// meaning unbounded on that side.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Validate checks the range is well ordered.
func (r DateRange) Validate() error {
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return apperrors.ErrInvalidDateRange
	}
	return nil
}

// IsZero reports whether both bounds are unset.
func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// TrendPoint is one time bucket of a trend series. Value is a count for
// volume metrics and an average of minutes for duration metrics. Buckets
// with no tickets are absent, not zero.
type TrendPoint struct {
	Bucket string  `json:"period"`
	Value  float64 `json:"value"`
}

// TrendSeries is the result of a trend query.
type TrendSeries struct {
	Metric TrendMetric  `json:"metric"`
	Period TrendPeriod  `json:"period"`
	Points []TrendPoint `json:"data"`
}

// StatusTotals is the ticket volume of one period, split by status.
type StatusTotals struct {
	Total      int `json:"total"`
	Open       int `json:"open"`
	InProgress int `json:"in_progress"`
	Resolved   int `json:"resolved"`
}

// TicketComparison compares ticket volumes between two periods.
type TicketComparison struct {
	Base           StatusTotals `json:"period1"`
	Current        StatusTotals `json:"period2"`
	TotalChange    *float64     `json:"total_variation"`
	ResolvedChange *float64     `json:"resolved_variation"`
}

// ResolutionComparison compares average resolution minutes between two periods.
type ResolutionComparison struct {
	BaseMinutes    *float64 `json:"period1_avg_minutes"`
	CurrentMinutes *float64 `json:"period2_avg_minutes"`
	Change         *float64 `json:"variation"`
}

// PeriodComparison is the result of a two-window comparison query.
// Exactly one of Tickets or Resolution is set, matching Metric.
type PeriodComparison struct {
	Metric     string                `json:"metric"`
	Tickets    *TicketComparison     `json:"tickets,omitempty"`
	Resolution *ResolutionComparison `json:"resolution,omitempty"`
}

// PercentChange returns the relative change from base to current as a
// percentage rounded to two decimals, or nil when the base is zero.
func PercentChange(base, current float64) *float64 {
	if base == 0 {
		return nil
	}
	v := math.Round((current-base)/base*100*100) / 100
	return &v
}

// CategoryStats is the per-category slice of a breakdown query.
type CategoryStats struct {
	Category       string   `json:"category"`
	Total          int      `json:"total"`
	Open           int      `json:"open"`
	InProgress     int      `json:"in_progress"`
	Resolved       int      `json:"resolved"`
	ResolutionRate *float64 `json:"resolution_rate"`
}

// UserPerformance is one assignee's row of the performance report.
// AvgResolutionMinutes covers resolved tickets only.
type UserPerformance struct {
	UserID               uuid.UUID `json:"user_id"`
	FullName             string    `json:"full_name"`
	Assigned             int       `json:"assigned"`
	Resolved             int       `json:"resolved"`
	AvgResolutionMinutes *float64  `json:"avg_resolution_minutes"`
	ResolutionRate       *float64  `json:"resolution_rate"`
}

// EfficiencyGroupBy selects the grouping axis of an efficiency ranking.
type EfficiencyGroupBy string

const (
	EfficiencyByUser     EfficiencyGroupBy = "user"
	EfficiencyByCategory EfficiencyGroupBy = "category"
)

// IsValid reports whether the grouping is one of the known values.
func (g EfficiencyGroupBy) IsValid() bool {
	return g == EfficiencyByUser || g == EfficiencyByCategory
}

// EfficiencyMetric selects the ordering of an efficiency ranking.
type EfficiencyMetric string

const (
	EfficiencyResolutionTime EfficiencyMetric = "resolution_time"
	EfficiencyResolutionRate EfficiencyMetric = "resolution_rate"
)

// IsValid reports whether the metric is one of the known values.
func (m EfficiencyMetric) IsValid() bool {
	return m == EfficiencyResolutionTime || m == EfficiencyResolutionRate
}

// EfficiencyEntry ranks one group (assignee or category) by resolution
// speed or rate. Label is the assignee name or category.
type EfficiencyEntry struct {
	Label                string   `json:"label"`
	Total                int      `json:"total"`
	Resolved             int      `json:"resolved"`
	ResolutionRate       *float64 `json:"resolution_rate"`
	AvgResolutionMinutes *float64 `json:"avg_resolution_minutes"`
}

// UserWorkload is one assignee's share of the active ticket load.
type UserWorkload struct {
	UserID       uuid.UUID `json:"user_id"`
	FullName     string    `json:"full_name"`
	Open         int       `json:"open"`
	InProgress   int       `json:"in_progress"`
	HighPriority int       `json:"high_priority"`
	Total        int       `json:"total"`
}

// BucketCount is one slice of a grouped distribution.
type BucketCount struct {
	Label string `json:"label"`
	Count int    `json:"count"`
}

// WorkloadDistribution is the result of a workload query: the active load
// per assignee plus the unassigned backlog, and ticket creation volume by
// weekday (0=Sunday) and by hour of day.
type WorkloadDistribution struct {
	PerUser    []UserWorkload `json:"per_user"`
	Unassigned int            `json:"unassigned"`
	ByWeekday  []BucketCount  `json:"by_weekday"`
	ByHour     []BucketCount  `json:"by_hour"`
}

// TicketResponseTime is one ticket's time to first status movement.
type TicketResponseTime struct {
	TicketID uuid.UUID      `json:"ticket_id"`
	Title    string         `json:"title"`
	Priority TicketPriority `json:"priority"`
	Minutes  float64        `json:"minutes"`
}

// ResponseTimeStats summarizes time to first status change in minutes.
// Tickets still waiting for any movement are excluded.
type ResponseTimeStats struct {
	Measured   int      `json:"measured_tickets"`
	AvgMinutes *float64 `json:"avg_minutes"`
	MinMinutes *float64 `json:"min_minutes"`
	MaxMinutes *float64 `json:"max_minutes"`
}

// ResponseTimeByPriority is the response stats of one priority class.
type ResponseTimeByPriority struct {
	Priority TicketPriority `json:"priority"`
	ResponseTimeStats
}

// ResponseTimeReport is the result of a response time query.
type ResponseTimeReport struct {
	Overall    ResponseTimeStats        `json:"overall"`
	ByPriority []ResponseTimeByPriority `json:"by_priority"`
	Detail     []TicketResponseTime     `json:"detail"`
}

// LiveMetric is the current value of one alertable metric. Duration
// metrics are in minutes.
type LiveMetric struct {
	Type  AlertMetricType `json:"metric_type"`
	Value float64         `json:"value"`
}

// DashboardSummary is the aggregate snapshot behind the overview screen.
// The three average durations are expressed in days.
type DashboardSummary struct {
	Total                    int           `json:"total_tickets"`
	ResolvedToday            int           `json:"resolved_today"`
	ResolvedThisWeek         int           `json:"resolved_this_week"`
	ResolvedThisMonth        int           `json:"resolved_this_month"`
	ByStatus                 []BucketCount `json:"by_status"`
	ByPriority               []BucketCount `json:"by_priority"`
	AvgTimeToProgressDays    *float64      `json:"avg_time_to_progress_days"`
	AvgTimeToResolveDays     *float64      `json:"avg_time_to_resolve_days"`
	AvgProgressToResolveDays *float64      `json:"avg_progress_to_resolve_days"`
}
