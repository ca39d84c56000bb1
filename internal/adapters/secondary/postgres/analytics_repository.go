package postgres

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// AnalyticsRepository computes the aggregation queries in the database and
// returns finished result rows. All durations come back in minutes unless a
// field name says otherwise.
type AnalyticsRepository struct {
	pool *pgxpool.Pool
}

var _ ports.AnalyticsRepository = (*AnalyticsRepository)(nil)

func NewAnalyticsRepository(pool *pgxpool.Pool) ports.AnalyticsRepository {
	return &AnalyticsRepository{pool: pool}
}

// bucketFormat maps a trend period to its to_char bucket label format.
func bucketFormat(period domain.TrendPeriod) string {
	switch period {
	case domain.PeriodWeekly:
		return "IYYY-IW"
	case domain.PeriodMonthly:
		return "YYYY-MM"
	case domain.PeriodYearly:
		return "YYYY"
	default:
		return "YYYY-MM-DD"
	}
}

// condBuilder accumulates WHERE clauses with positional arguments.
type condBuilder struct {
	clauses []string
	args    []interface{}
}

func (b *condBuilder) add(clause string, value interface{}) {
	b.args = append(b.args, value)
	b.clauses = append(b.clauses, fmt.Sprintf(clause, len(b.args)))
}

func (b *condBuilder) where() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.clauses, " AND ")
}

func (b *condBuilder) and() string {
	if len(b.clauses) == 0 {
		return ""
	}
	return " AND " + strings.Join(b.clauses, " AND ")
}

func (b *condBuilder) addRange(column string, r domain.DateRange) {
	if !r.Start.IsZero() {
		b.add(column+" >= $%d", r.Start)
	}
	if !r.End.IsZero() {
		b.add(column+" <= $%d", r.End)
	}
}

func (b *condBuilder) addOwner(column string, owner *uuid.UUID) {
	if owner != nil {
		b.add(column+" = $%d", *owner)
	}
}

func (r *AnalyticsRepository) Trends(ctx context.Context, query ports.TrendQuery) (*domain.TrendSeries, error) {
	format := bucketFormat(query.Period)

	var b condBuilder
	b.args = append(b.args, format)
	b.addOwner("t.requester_id", query.Owner)
	if query.Category != "" {
		b.add("t.category = $%d", query.Category)
	}

	var sql string
	switch query.Metric {
	case domain.MetricResolved:
		b.addRange("t.resolved_at", query.Range)
		sql = `
SELECT to_char(t.resolved_at, $1) AS bucket, COUNT(*)::float8
FROM tickets t
WHERE t.resolved_at IS NOT NULL` + b.and() + `
GROUP BY bucket
ORDER BY bucket`
	case domain.MetricResolutionTime:
		b.addRange("t.resolved_at", query.Range)
		sql = `
SELECT to_char(t.resolved_at, $1) AS bucket,
       AVG(EXTRACT(EPOCH FROM (t.resolved_at - t.created_at)) / 60)
FROM tickets t
WHERE t.resolved_at IS NOT NULL` + b.and() + `
GROUP BY bucket
ORDER BY bucket`
	case domain.MetricResponseTime:
		b.addRange("t.created_at", query.Range)
		sql = `
SELECT to_char(t.created_at, $1) AS bucket,
       AVG(EXTRACT(EPOCH FROM (first_move.at - t.created_at)) / 60)
FROM tickets t
JOIN LATERAL (
  SELECT MIN(h.changed_at) AS at
  FROM ticket_history h
  WHERE h.ticket_id = t.id AND h.status != 'open'
) first_move ON first_move.at IS NOT NULL` + strings.Replace(b.and(), " AND ", " WHERE ", 1) + `
GROUP BY bucket
ORDER BY bucket`
	default: // created
		b.addRange("t.created_at", query.Range)
		sql = `
SELECT to_char(t.created_at, $1) AS bucket, COUNT(*)::float8
FROM tickets t` + b.where() + `
GROUP BY bucket
ORDER BY bucket`
	}

	rows, err := r.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	series := &domain.TrendSeries{
		Metric: query.Metric,
		Period: query.Period,
		Points: make([]domain.TrendPoint, 0),
	}
	for rows.Next() {
		var (
			bucket string
			value  pgtype.Float8
		)
		if err := rows.Scan(&bucket, &value); err != nil {
			return nil, err
		}
		series.Points = append(series.Points, domain.TrendPoint{
			Bucket: bucket,
			Value:  value.Float64,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return series, nil
}

func (r *AnalyticsRepository) Comparison(ctx context.Context, query ports.ComparisonQuery) (*domain.PeriodComparison, error) {
	result := &domain.PeriodComparison{Metric: query.Metric}

	if query.Metric == "resolution_time" {
		base, err := r.avgResolutionMinutes(ctx, query.Base, query.Owner)
		if err != nil {
			return nil, err
		}
		current, err := r.avgResolutionMinutes(ctx, query.Current, query.Owner)
		if err != nil {
			return nil, err
		}
		cmp := &domain.ResolutionComparison{BaseMinutes: base, CurrentMinutes: current}
		if base != nil && current != nil {
			cmp.Change = domain.PercentChange(*base, *current)
		}
		result.Resolution = cmp
		return result, nil
	}

	base, err := r.statusTotals(ctx, query.Base, query.Owner)
	if err != nil {
		return nil, err
	}
	current, err := r.statusTotals(ctx, query.Current, query.Owner)
	if err != nil {
		return nil, err
	}
	result.Tickets = &domain.TicketComparison{
		Base:           base,
		Current:        current,
		TotalChange:    domain.PercentChange(float64(base.Total), float64(current.Total)),
		ResolvedChange: domain.PercentChange(float64(base.Resolved), float64(current.Resolved)),
	}
	return result, nil
}

func (r *AnalyticsRepository) statusTotals(ctx context.Context, dateRange domain.DateRange, owner *uuid.UUID) (domain.StatusTotals, error) {
	var b condBuilder
	b.addRange("created_at", dateRange)
	b.addOwner("requester_id", owner)

	sql := `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE status = 'open'),
       COUNT(*) FILTER (WHERE status = 'in-progress'),
       COUNT(*) FILTER (WHERE status = 'resolved')
FROM tickets` + b.where()

	var totals domain.StatusTotals
	err := r.pool.QueryRow(ctx, sql, b.args...).Scan(&totals.Total, &totals.Open, &totals.InProgress, &totals.Resolved)
	return totals, err
}

func (r *AnalyticsRepository) avgResolutionMinutes(ctx context.Context, dateRange domain.DateRange, owner *uuid.UUID) (*float64, error) {
	var b condBuilder
	b.addRange("resolved_at", dateRange)
	b.addOwner("requester_id", owner)

	sql := `
SELECT AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 60)
FROM tickets
WHERE resolved_at IS NOT NULL` + b.and()

	var avg pgtype.Float8
	if err := r.pool.QueryRow(ctx, sql, b.args...).Scan(&avg); err != nil {
		return nil, err
	}
	return floatOrNil(avg), nil
}

func (r *AnalyticsRepository) CategoryBreakdown(ctx context.Context, dateRange domain.DateRange, owner *uuid.UUID) ([]*domain.CategoryStats, error) {
	var b condBuilder
	b.addRange("created_at", dateRange)
	b.addOwner("requester_id", owner)

	sql := `
SELECT COALESCE(category, 'uncategorized'),
       COUNT(*),
       COUNT(*) FILTER (WHERE status = 'open'),
       COUNT(*) FILTER (WHERE status = 'in-progress'),
       COUNT(*) FILTER (WHERE status = 'resolved')
FROM tickets` + b.where() + `
GROUP BY 1
ORDER BY COUNT(*) DESC, 1`

	rows, err := r.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]*domain.CategoryStats, 0)
	for rows.Next() {
		var s domain.CategoryStats
		if err := rows.Scan(&s.Category, &s.Total, &s.Open, &s.InProgress, &s.Resolved); err != nil {
			return nil, err
		}
		if s.Total > 0 {
			rate := roundTwo(float64(s.Resolved) / float64(s.Total) * 100)
			s.ResolutionRate = &rate
		}
		stats = append(stats, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

func (r *AnalyticsRepository) UserPerformance(ctx context.Context, dateRange domain.DateRange) ([]*domain.UserPerformance, error) {
	var b condBuilder
	b.addRange("t.created_at", dateRange)

	sql := `
SELECT u.id, u.full_name,
       COUNT(t.id),
       COUNT(t.id) FILTER (WHERE t.status = 'resolved'),
       AVG(EXTRACT(EPOCH FROM (t.resolved_at - t.created_at)) / 60)
           FILTER (WHERE t.resolved_at IS NOT NULL)
FROM users u
JOIN tickets t ON t.assignee_id = u.id` + b.and() + `
GROUP BY u.id, u.full_name
ORDER BY COUNT(t.id) DESC, u.full_name`

	rows, err := r.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]*domain.UserPerformance, 0)
	for rows.Next() {
		var (
			p   domain.UserPerformance
			avg pgtype.Float8
		)
		if err := rows.Scan(&p.UserID, &p.FullName, &p.Assigned, &p.Resolved, &avg); err != nil {
			return nil, err
		}
		p.AvgResolutionMinutes = floatOrNil(avg)
		if p.Assigned > 0 {
			rate := roundTwo(float64(p.Resolved) / float64(p.Assigned) * 100)
			p.ResolutionRate = &rate
		}
		results = append(results, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *AnalyticsRepository) EfficiencyRanking(ctx context.Context, query ports.EfficiencyQuery) ([]*domain.EfficiencyEntry, error) {
	var b condBuilder
	b.addRange("t.created_at", query.Range)

	var sql string
	if query.GroupBy == domain.EfficiencyByCategory {
		sql = `
SELECT COALESCE(t.category, 'uncategorized') AS label,
       COUNT(*),
       COUNT(*) FILTER (WHERE t.status = 'resolved'),
       AVG(EXTRACT(EPOCH FROM (t.resolved_at - t.created_at)) / 60)
           FILTER (WHERE t.resolved_at IS NOT NULL) AS avg_minutes
FROM tickets t` + b.where() + `
GROUP BY 1`
	} else {
		sql = `
SELECT u.full_name AS label,
       COUNT(t.id),
       COUNT(t.id) FILTER (WHERE t.status = 'resolved'),
       AVG(EXTRACT(EPOCH FROM (t.resolved_at - t.created_at)) / 60)
           FILTER (WHERE t.resolved_at IS NOT NULL) AS avg_minutes
FROM users u
JOIN tickets t ON t.assignee_id = u.id` + b.and() + `
GROUP BY u.id, u.full_name`
	}

	// Fast resolvers first for the time metric, high resolution rates first
	// otherwise
	if query.Metric == domain.EfficiencyResolutionTime {
		sql += `
ORDER BY avg_minutes ASC NULLS LAST, label`
	} else {
		sql += `
ORDER BY (COUNT(*) FILTER (WHERE t.status = 'resolved'))::float8 / NULLIF(COUNT(*), 0) DESC NULLS LAST, label`
	}

	rows, err := r.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.EfficiencyEntry, 0)
	for rows.Next() {
		var (
			e   domain.EfficiencyEntry
			avg pgtype.Float8
		)
		if err := rows.Scan(&e.Label, &e.Total, &e.Resolved, &avg); err != nil {
			return nil, err
		}
		e.AvgResolutionMinutes = floatOrNil(avg)
		if e.Total > 0 {
			rate := roundTwo(float64(e.Resolved) / float64(e.Total) * 100)
			e.ResolutionRate = &rate
		}
		entries = append(entries, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *AnalyticsRepository) WorkloadDistribution(ctx context.Context, dateRange domain.DateRange) (*domain.WorkloadDistribution, error) {
	dist := &domain.WorkloadDistribution{
		PerUser:   make([]domain.UserWorkload, 0),
		ByWeekday: make([]domain.BucketCount, 0),
		ByHour:    make([]domain.BucketCount, 0),
	}

	var b condBuilder
	b.addRange("t.created_at", dateRange)

	perUserSQL := `
SELECT u.id, u.full_name,
       COUNT(t.id) FILTER (WHERE t.status = 'open'),
       COUNT(t.id) FILTER (WHERE t.status = 'in-progress'),
       COUNT(t.id) FILTER (WHERE t.priority = 'high' AND t.status != 'resolved'),
       COUNT(t.id)
FROM users u
JOIN tickets t ON t.assignee_id = u.id` + b.and() + `
GROUP BY u.id, u.full_name
ORDER BY COUNT(t.id) DESC, u.full_name`

	rows, err := r.pool.Query(ctx, perUserSQL, b.args...)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var w domain.UserWorkload
		if err := rows.Scan(&w.UserID, &w.FullName, &w.Open, &w.InProgress, &w.HighPriority, &w.Total); err != nil {
			rows.Close()
			return nil, err
		}
		dist.PerUser = append(dist.PerUser, w)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var ub condBuilder
	ub.addRange("created_at", dateRange)
	unassignedSQL := `
SELECT COUNT(*)
FROM tickets
WHERE assignee_id IS NULL` + ub.and()
	if err := r.pool.QueryRow(ctx, unassignedSQL, ub.args...).Scan(&dist.Unassigned); err != nil {
		return nil, err
	}

	var wb condBuilder
	wb.addRange("created_at", dateRange)
	weekdaySQL := `
SELECT EXTRACT(DOW FROM created_at)::int, COUNT(*)
FROM tickets` + wb.where() + `
GROUP BY 1
ORDER BY 1`
	if err := r.bucketCounts(ctx, weekdaySQL, wb.args, &dist.ByWeekday); err != nil {
		return nil, err
	}

	hourSQL := `
SELECT EXTRACT(HOUR FROM created_at)::int, COUNT(*)
FROM tickets` + wb.where() + `
GROUP BY 1
ORDER BY 1`
	if err := r.bucketCounts(ctx, hourSQL, wb.args, &dist.ByHour); err != nil {
		return nil, err
	}

	return dist, nil
}

func (r *AnalyticsRepository) bucketCounts(ctx context.Context, sql string, args []interface{}, out *[]domain.BucketCount) error {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			label int
			count int
		)
		if err := rows.Scan(&label, &count); err != nil {
			return err
		}
		*out = append(*out, domain.BucketCount{Label: fmt.Sprintf("%d", label), Count: count})
	}
	return rows.Err()
}

func (r *AnalyticsRepository) ResponseTimeStats(ctx context.Context, query ports.ResponseTimeQuery) (*domain.ResponseTimeReport, error) {
	var b condBuilder
	b.addRange("t.created_at", query.Range)
	b.addOwner("t.requester_id", query.Owner)
	if query.Category != "" {
		b.add("t.category = $%d", query.Category)
	}
	if query.Priority != "" {
		b.add("t.priority = $%d", string(query.Priority))
	}

	// Response time is first movement away from 'open', measured from the
	// history log. Tickets that never moved are not counted.
	sql := `
SELECT t.id, t.title, t.priority,
       EXTRACT(EPOCH FROM (MIN(h.changed_at) - t.created_at)) / 60 AS minutes
FROM tickets t
JOIN ticket_history h ON h.ticket_id = t.id AND h.status != 'open'` + b.and() + `
GROUP BY t.id, t.title, t.priority, t.created_at
ORDER BY minutes DESC`

	rows, err := r.pool.Query(ctx, sql, b.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	report := &domain.ResponseTimeReport{
		Detail: make([]domain.TicketResponseTime, 0),
	}
	perPriority := map[domain.TicketPriority][]float64{}
	all := make([]float64, 0)

	for rows.Next() {
		var (
			rt       domain.TicketResponseTime
			priority string
		)
		if err := rows.Scan(&rt.TicketID, &rt.Title, &priority, &rt.Minutes); err != nil {
			return nil, err
		}
		rt.Minutes = roundTwo(rt.Minutes)
		rt.Priority = domain.TicketPriority(priority)
		report.Detail = append(report.Detail, rt)
		perPriority[rt.Priority] = append(perPriority[rt.Priority], rt.Minutes)
		all = append(all, rt.Minutes)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	report.Overall = summarize(all)
	for _, priority := range []domain.TicketPriority{domain.PriorityHigh, domain.PriorityMedium, domain.PriorityLow} {
		values, ok := perPriority[priority]
		if !ok {
			continue
		}
		report.ByPriority = append(report.ByPriority, domain.ResponseTimeByPriority{
			Priority:          priority,
			ResponseTimeStats: summarize(values),
		})
	}
	return report, nil
}

func summarize(values []float64) domain.ResponseTimeStats {
	stats := domain.ResponseTimeStats{Measured: len(values)}
	if len(values) == 0 {
		return stats
	}
	min, max, sum := values[0], values[0], 0.0
	for _, v := range values {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		sum += v
	}
	avg := roundTwo(sum / float64(len(values)))
	stats.AvgMinutes = &avg
	stats.MinMinutes = &min
	stats.MaxMinutes = &max
	return stats
}

func (r *AnalyticsRepository) LiveMetric(ctx context.Context, metricType domain.AlertMetricType, owner *uuid.UUID) (*domain.LiveMetric, error) {
	var b condBuilder
	b.addOwner("t.requester_id", owner)

	var sql string
	switch metricType {
	case domain.AlertOpenTickets:
		sql = `
SELECT COUNT(*)::float8
FROM tickets t
WHERE t.status != 'resolved'` + b.and()
	case domain.AlertHighPriorityTickets:
		sql = `
SELECT COUNT(*)::float8
FROM tickets t
WHERE t.priority = 'high' AND t.status != 'resolved'` + b.and()
	case domain.AlertResolutionTime:
		sql = `
SELECT COALESCE(AVG(EXTRACT(EPOCH FROM (t.resolved_at - t.created_at)) / 60), 0)
FROM tickets t
WHERE t.resolved_at IS NOT NULL` + b.and()
	case domain.AlertResponseTime:
		sql = `
SELECT COALESCE(AVG(per_ticket.minutes), 0)
FROM (
  SELECT EXTRACT(EPOCH FROM (MIN(h.changed_at) - t.created_at)) / 60 AS minutes
  FROM tickets t
  JOIN ticket_history h ON h.ticket_id = t.id AND h.status != 'open'` + strings.Replace(b.and(), " AND ", " WHERE ", 1) + `
  GROUP BY t.id, t.created_at
) per_ticket`
	default:
		return nil, fmt.Errorf("unsupported metric type %q", metricType)
	}

	var value float64
	if err := r.pool.QueryRow(ctx, sql, b.args...).Scan(&value); err != nil {
		return nil, err
	}
	return &domain.LiveMetric{Type: metricType, Value: roundTwo(value)}, nil
}

func (r *AnalyticsRepository) DashboardSummary(ctx context.Context, owner *uuid.UUID) (*domain.DashboardSummary, error) {
	summary := &domain.DashboardSummary{
		ByStatus:   make([]domain.BucketCount, 0),
		ByPriority: make([]domain.BucketCount, 0),
	}

	var b condBuilder
	b.addOwner("t.requester_id", owner)

	countsSQL := `
SELECT COUNT(*),
       COUNT(*) FILTER (WHERE t.resolved_at >= date_trunc('day', NOW())),
       COUNT(*) FILTER (WHERE t.resolved_at >= date_trunc('week', NOW())),
       COUNT(*) FILTER (WHERE t.resolved_at >= date_trunc('month', NOW()))
FROM tickets t` + b.where()

	err := r.pool.QueryRow(ctx, countsSQL, b.args...).Scan(
		&summary.Total,
		&summary.ResolvedToday,
		&summary.ResolvedThisWeek,
		&summary.ResolvedThisMonth,
	)
	if err != nil {
		return nil, err
	}

	statusSQL := `
SELECT t.status, COUNT(*)
FROM tickets t` + b.where() + `
GROUP BY t.status
ORDER BY t.status`
	if err := r.labelCounts(ctx, statusSQL, b.args, &summary.ByStatus); err != nil {
		return nil, err
	}

	prioritySQL := `
SELECT t.priority, COUNT(*)
FROM tickets t` + b.where() + `
GROUP BY t.priority
ORDER BY t.priority`
	if err := r.labelCounts(ctx, prioritySQL, b.args, &summary.ByPriority); err != nil {
		return nil, err
	}

	// Stage averages come from the history log and report in days
	stagesSQL := `
WITH first_progress AS (
  SELECT h.ticket_id, MIN(h.changed_at) AS at
  FROM ticket_history h
  WHERE h.status = 'in-progress'
  GROUP BY h.ticket_id
)
SELECT AVG(EXTRACT(EPOCH FROM (fp.at - t.created_at)) / 86400),
       AVG(EXTRACT(EPOCH FROM (t.resolved_at - t.created_at)) / 86400),
       AVG(EXTRACT(EPOCH FROM (t.resolved_at - fp.at)) / 86400)
           FILTER (WHERE t.resolved_at IS NOT NULL AND fp.at IS NOT NULL)
FROM tickets t
LEFT JOIN first_progress fp ON fp.ticket_id = t.id` + b.and()

	var toProgress, toResolve, progressToResolve pgtype.Float8
	if err := r.pool.QueryRow(ctx, stagesSQL, b.args...).Scan(&toProgress, &toResolve, &progressToResolve); err != nil {
		return nil, err
	}
	summary.AvgTimeToProgressDays = roundTwoPtr(floatOrNil(toProgress))
	summary.AvgTimeToResolveDays = roundTwoPtr(floatOrNil(toResolve))
	summary.AvgProgressToResolveDays = roundTwoPtr(floatOrNil(progressToResolve))

	return summary, nil
}

func (r *AnalyticsRepository) labelCounts(ctx context.Context, sql string, args []interface{}, out *[]domain.BucketCount) error {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var bucket domain.BucketCount
		if err := rows.Scan(&bucket.Label, &bucket.Count); err != nil {
			return err
		}
		*out = append(*out, bucket)
	}
	return rows.Err()
}

func roundTwo(v float64) float64 {
	return math.Round(v*100) / 100
}

func roundTwoPtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	value := roundTwo(*v)
	return &value
}
