package scheduler

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// reportTable is the flattened form of one report payload, ready for CSV.
type reportTable struct {
	Columns []string
	Rows    [][]string
}

func (t reportTable) renderCSV() ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(t.Columns); err != nil {
		return nil, err
	}
	for _, row := range t.Rows {
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ReportRunner generates and delivers scheduled reports. Failures are
// isolated per subscription: one broken report never blocks the rest, and
// last_run only advances after a successful delivery.
type ReportRunner struct {
	reports   ports.ScheduledReportRepository
	tickets   ports.TicketRepository
	analytics ports.AnalyticsService
	mailer    ports.Mailer
	logger    *slog.Logger
}

// NewReportRunner creates a new report runner
func NewReportRunner(
	reports ports.ScheduledReportRepository,
	tickets ports.TicketRepository,
	analytics ports.AnalyticsService,
	mailer ports.Mailer,
	logger *slog.Logger,
) *ReportRunner {
	return &ReportRunner{
		reports:   reports,
		tickets:   tickets,
		analytics: analytics,
		mailer:    mailer,
		logger:    logger,
	}
}

// RunDue generates and emails every active subscription of the given
// schedule class.
func (r *ReportRunner) RunDue(ctx context.Context, schedule domain.Schedule) error {
	due, err := r.reports.ListDue(ctx, schedule)
	if err != nil {
		return fmt.Errorf("listing due reports: %w", err)
	}

	r.logger.Info("running scheduled reports",
		slog.String("schedule", string(schedule)),
		slog.Int("count", len(due)),
	)

	for _, report := range due {
		if err := r.runOne(ctx, report); err != nil {
			r.logger.Error("scheduled report failed",
				slog.Int64("report_id", report.ID),
				slog.String("report_type", string(report.ReportType)),
				slog.String("error", err.Error()),
			)
			continue
		}
		if err := r.reports.UpdateLastRun(ctx, report.ID, time.Now().UTC()); err != nil {
			r.logger.Error("failed to record report run",
				slog.Int64("report_id", report.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

// BuildCSV generates the given report type once and renders it as CSV.
// The export endpoint shares the table builders with scheduled delivery.
func (r *ReportRunner) BuildCSV(ctx context.Context, reportType domain.ReportType, params domain.ReportParameters) ([]byte, error) {
	table, err := r.generate(ctx, &domain.ScheduledReport{ReportType: reportType, Parameters: params})
	if err != nil {
		return nil, err
	}
	return table.renderCSV()
}

func (r *ReportRunner) runOne(ctx context.Context, report *domain.ScheduledReport) error {
	table, err := r.generate(ctx, report)
	if err != nil {
		return fmt.Errorf("generating %s report: %w", report.ReportType, err)
	}

	csvData, err := table.renderCSV()
	if err != nil {
		return fmt.Errorf("rendering csv: %w", err)
	}

	now := time.Now().UTC()
	filename := fmt.Sprintf("report-%s-%s.csv", report.ReportType, now.Format("2006-01-02"))

	msg := ports.MailMessage{
		To:      report.Email,
		Subject: fmt.Sprintf("Report: %s", report.Name),
		TextBody: fmt.Sprintf(
			"The report %q is attached.\n\nType: %s\nGenerated: %s\n",
			report.Name, report.ReportType, now.Format(time.RFC1123),
		),
		HTMLBody: fmt.Sprintf(
			"<h2>Report: %s</h2><p>The generated report is attached.</p><p>Type: %s<br>Generated: %s</p>",
			report.Name, report.ReportType, now.Format(time.RFC1123),
		),
		Attachments: []ports.MailAttachment{{
			Filename:    filename,
			ContentType: "text/csv",
			Data:        csvData,
		}},
	}

	if err := r.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("sending report email: %w", err)
	}

	r.logger.Info("scheduled report delivered",
		slog.Int64("report_id", report.ID),
		slog.String("recipient", report.Email),
	)
	return nil
}

func (r *ReportRunner) generate(ctx context.Context, report *domain.ScheduledReport) (reportTable, error) {
	params := report.Parameters
	dateRange := rangeFrom(params)

	switch report.ReportType {
	case domain.ReportTickets:
		return r.ticketsTable(ctx, params)
	case domain.ReportPerformance:
		rows, err := r.analytics.UserPerformance(ctx, dateRange)
		if err != nil {
			return reportTable{}, err
		}
		return performanceTable(rows), nil
	case domain.ReportCategories:
		rows, err := r.analytics.CategoryBreakdown(ctx, dateRange, nil)
		if err != nil {
			return reportTable{}, err
		}
		return categoriesTable(rows), nil
	case domain.ReportUsers, domain.ReportWorkload:
		dist, err := r.analytics.WorkloadDistribution(ctx, dateRange)
		if err != nil {
			return reportTable{}, err
		}
		return workloadTable(dist), nil
	case domain.ReportTrends:
		// Absent parameters get explicit defaults at dispatch time
		metric := params.Metric
		if metric == "" {
			metric = domain.MetricCreated
		}
		period := params.Period
		if period == "" {
			period = domain.PeriodDaily
		}
		series, err := r.analytics.Trends(ctx, ports.TrendQuery{
			Metric: metric,
			Period: period,
			Range:  dateRange,
		})
		if err != nil {
			return reportTable{}, err
		}
		return trendsTable(series), nil
	case domain.ReportComparison:
		// Base window from parameters, compared against the preceding
		// window of equal length
		current := dateRange
		length := current.End.Sub(current.Start)
		base := domain.DateRange{Start: current.Start.Add(-length), End: current.Start}
		cmp, err := r.analytics.Comparison(ctx, ports.ComparisonQuery{
			Metric:  "tickets",
			Base:    base,
			Current: current,
		})
		if err != nil {
			return reportTable{}, err
		}
		return comparisonTable(cmp), nil
	case domain.ReportEfficiency:
		rows, err := r.analytics.EfficiencyRanking(ctx, ports.EfficiencyQuery{
			GroupBy: domain.EfficiencyByUser,
			Metric:  domain.EfficiencyResolutionRate,
			Range:   dateRange,
		})
		if err != nil {
			return reportTable{}, err
		}
		return efficiencyTable(rows), nil
	case domain.ReportResponseTime:
		rep, err := r.analytics.ResponseTimeStats(ctx, ports.ResponseTimeQuery{Range: dateRange})
		if err != nil {
			return reportTable{}, err
		}
		return responseTimeTable(rep), nil
	}

	return reportTable{}, apperrors.ErrInvalidReportType
}

func (r *ReportRunner) ticketsTable(ctx context.Context, params domain.ReportParameters) (reportTable, error) {
	filter := ports.TicketFilter{
		CreatedFrom: params.StartDate,
		CreatedTo:   params.EndDate,
	}
	if params.Status != "" {
		status := params.Status
		filter.Status = &status
	}
	if params.Priority != "" {
		priority := params.Priority
		filter.Priority = &priority
	}
	if params.Category != "" {
		category := params.Category
		filter.Category = &category
	}

	tickets, err := r.tickets.List(ctx, filter)
	if err != nil {
		return reportTable{}, err
	}

	table := reportTable{
		Columns: []string{"id", "title", "status", "priority", "category", "created_at", "resolved_at"},
	}
	for _, t := range tickets {
		resolved := ""
		if t.ResolvedAt != nil {
			resolved = t.ResolvedAt.Format(time.RFC3339)
		}
		table.Rows = append(table.Rows, []string{
			t.ID.String(), t.Title, string(t.Status), string(t.Priority),
			t.Category, t.CreatedAt.Format(time.RFC3339), resolved,
		})
	}
	return table, nil
}

func performanceTable(rows []*domain.UserPerformance) reportTable {
	table := reportTable{
		Columns: []string{"user", "assigned", "resolved", "avg_resolution_minutes", "resolution_rate"},
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{
			row.FullName,
			strconv.Itoa(row.Assigned),
			strconv.Itoa(row.Resolved),
			formatFloat(row.AvgResolutionMinutes),
			formatFloat(row.ResolutionRate),
		})
	}
	return table
}

func categoriesTable(rows []*domain.CategoryStats) reportTable {
	table := reportTable{
		Columns: []string{"category", "total", "open", "in_progress", "resolved", "resolution_rate"},
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{
			row.Category,
			strconv.Itoa(row.Total),
			strconv.Itoa(row.Open),
			strconv.Itoa(row.InProgress),
			strconv.Itoa(row.Resolved),
			formatFloat(row.ResolutionRate),
		})
	}
	return table
}

func workloadTable(dist *domain.WorkloadDistribution) reportTable {
	table := reportTable{
		Columns: []string{"user", "open", "in_progress", "high_priority", "total"},
	}
	for _, row := range dist.PerUser {
		table.Rows = append(table.Rows, []string{
			row.FullName,
			strconv.Itoa(row.Open),
			strconv.Itoa(row.InProgress),
			strconv.Itoa(row.HighPriority),
			strconv.Itoa(row.Total),
		})
	}
	table.Rows = append(table.Rows, []string{
		"(unassigned)", "", "", "", strconv.Itoa(dist.Unassigned),
	})
	return table
}

func trendsTable(series *domain.TrendSeries) reportTable {
	table := reportTable{Columns: []string{"period", "value"}}
	for _, p := range series.Points {
		table.Rows = append(table.Rows, []string{
			p.Bucket,
			strconv.FormatFloat(p.Value, 'f', 2, 64),
		})
	}
	return table
}

func comparisonTable(cmp *domain.PeriodComparison) reportTable {
	table := reportTable{Columns: []string{"metric", "period1", "period2", "variation_pct"}}
	if cmp.Tickets != nil {
		table.Rows = append(table.Rows,
			[]string{"total_tickets",
				strconv.Itoa(cmp.Tickets.Base.Total),
				strconv.Itoa(cmp.Tickets.Current.Total),
				formatFloat(cmp.Tickets.TotalChange)},
			[]string{"resolved_tickets",
				strconv.Itoa(cmp.Tickets.Base.Resolved),
				strconv.Itoa(cmp.Tickets.Current.Resolved),
				formatFloat(cmp.Tickets.ResolvedChange)},
		)
	}
	if cmp.Resolution != nil {
		table.Rows = append(table.Rows, []string{
			"avg_resolution_minutes",
			formatFloat(cmp.Resolution.BaseMinutes),
			formatFloat(cmp.Resolution.CurrentMinutes),
			formatFloat(cmp.Resolution.Change),
		})
	}
	return table
}

func efficiencyTable(rows []*domain.EfficiencyEntry) reportTable {
	table := reportTable{
		Columns: []string{"label", "total", "resolved", "resolution_rate", "avg_resolution_minutes"},
	}
	for _, row := range rows {
		table.Rows = append(table.Rows, []string{
			row.Label,
			strconv.Itoa(row.Total),
			strconv.Itoa(row.Resolved),
			formatFloat(row.ResolutionRate),
			formatFloat(row.AvgResolutionMinutes),
		})
	}
	return table
}

func responseTimeTable(rep *domain.ResponseTimeReport) reportTable {
	table := reportTable{
		Columns: []string{"scope", "measured_tickets", "avg_minutes", "min_minutes", "max_minutes"},
	}
	table.Rows = append(table.Rows, []string{
		"overall",
		strconv.Itoa(rep.Overall.Measured),
		formatFloat(rep.Overall.AvgMinutes),
		formatFloat(rep.Overall.MinMinutes),
		formatFloat(rep.Overall.MaxMinutes),
	})
	for _, p := range rep.ByPriority {
		table.Rows = append(table.Rows, []string{
			string(p.Priority),
			strconv.Itoa(p.Measured),
			formatFloat(p.AvgMinutes),
			formatFloat(p.MinMinutes),
			formatFloat(p.MaxMinutes),
		})
	}
	return table
}

func rangeFrom(params domain.ReportParameters) domain.DateRange {
	var r domain.DateRange
	if params.StartDate != nil {
		r.Start = *params.StartDate
	}
	if params.EndDate != nil {
		r.End = *params.EndDate
	}
	return r
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 2, 64)
}
