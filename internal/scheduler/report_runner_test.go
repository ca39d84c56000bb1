package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	"github.com/helpdex/helpdesk-backend/internal/core/mocks"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

type runnerFixture struct {
	reports   *mocks.MockScheduledReportRepository
	tickets   *mocks.MockTicketRepository
	analytics *mocks.MockAnalyticsService
	mailer    *mocks.MockMailer
	runner    *ReportRunner
}

func newRunnerFixture() *runnerFixture {
	f := &runnerFixture{
		reports:   mocks.NewMockScheduledReportRepository(),
		tickets:   mocks.NewMockTicketRepository(),
		analytics: mocks.NewMockAnalyticsService(),
		mailer:    mocks.NewMockMailer(),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.runner = NewReportRunner(f.reports, f.tickets, f.analytics, f.mailer, logger)
	return f
}

func floatPtr(v float64) *float64 { return &v }

func subscription(rt domain.ReportType) *domain.ScheduledReport {
	return &domain.ScheduledReport{
		ID:         42,
		UserID:     uuid.New(),
		Name:       "Weekly overview",
		ReportType: rt,
		Schedule:   domain.ScheduleWeekly,
		Email:      "ops@example.com",
		Active:     true,
	}
}

func TestReportRunner_RunDue(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers performance report and records run", func(t *testing.T) {
		f := newRunnerFixture()
		report := subscription(domain.ReportPerformance)

		f.reports.On("ListDue", ctx, domain.ScheduleWeekly).
			Return([]*domain.ScheduledReport{report}, nil)
		f.analytics.On("UserPerformance", ctx, mock.Anything).
			Return([]*domain.UserPerformance{
				{UserID: uuid.New(), FullName: "Ana Souza", Assigned: 12, Resolved: 9,
					AvgResolutionMinutes: floatPtr(310.5), ResolutionRate: floatPtr(75)},
			}, nil)
		f.mailer.On("Send", ctx, mock.MatchedBy(func(msg ports.MailMessage) bool {
			return msg.To == "ops@example.com" &&
				msg.Subject == "Report: Weekly overview" &&
				len(msg.Attachments) == 1 &&
				strings.HasPrefix(msg.Attachments[0].Filename, "report-performance-") &&
				strings.Contains(string(msg.Attachments[0].Data), "Ana Souza,12,9,310.50,75.00")
		})).Return(nil)
		f.reports.On("UpdateLastRun", ctx, int64(42), mock.AnythingOfType("time.Time")).
			Return(nil)

		err := f.runner.RunDue(ctx, domain.ScheduleWeekly)

		require.NoError(t, err)
		f.mailer.AssertExpectations(t)
		f.reports.AssertExpectations(t)
	})

	t.Run("tickets report applies parameter filters", func(t *testing.T) {
		f := newRunnerFixture()
		report := subscription(domain.ReportTickets)
		report.Parameters = domain.ReportParameters{
			Status:   domain.StatusOpen,
			Priority: domain.PriorityHigh,
			Category: "network",
		}

		f.reports.On("ListDue", ctx, domain.ScheduleWeekly).
			Return([]*domain.ScheduledReport{report}, nil)
		f.tickets.On("List", ctx, mock.MatchedBy(func(filter ports.TicketFilter) bool {
			return filter.Status != nil && *filter.Status == domain.StatusOpen &&
				filter.Priority != nil && *filter.Priority == domain.PriorityHigh &&
				filter.Category != nil && *filter.Category == "network"
		})).Return([]*domain.Ticket{}, nil)
		f.mailer.On("Send", ctx, mock.Anything).Return(nil)
		f.reports.On("UpdateLastRun", ctx, int64(42), mock.AnythingOfType("time.Time")).
			Return(nil)

		err := f.runner.RunDue(ctx, domain.ScheduleWeekly)

		require.NoError(t, err)
		f.tickets.AssertExpectations(t)
	})

	t.Run("trends report falls back to daily created series", func(t *testing.T) {
		f := newRunnerFixture()
		report := subscription(domain.ReportTrends)

		f.reports.On("ListDue", ctx, domain.ScheduleWeekly).
			Return([]*domain.ScheduledReport{report}, nil)
		f.analytics.On("Trends", ctx, mock.MatchedBy(func(q ports.TrendQuery) bool {
			return q.Metric == domain.MetricCreated && q.Period == domain.PeriodDaily
		})).Return(&domain.TrendSeries{
			Metric: domain.MetricCreated,
			Period: domain.PeriodDaily,
			Points: []domain.TrendPoint{{Bucket: "2026-08-30", Value: 7}},
		}, nil)
		f.mailer.On("Send", ctx, mock.Anything).Return(nil)
		f.reports.On("UpdateLastRun", ctx, int64(42), mock.AnythingOfType("time.Time")).
			Return(nil)

		err := f.runner.RunDue(ctx, domain.ScheduleWeekly)

		require.NoError(t, err)
		f.analytics.AssertExpectations(t)
	})

	t.Run("comparison report uses preceding window as base", func(t *testing.T) {
		f := newRunnerFixture()
		start := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		end := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
		report := subscription(domain.ReportComparison)
		report.Parameters = domain.ReportParameters{StartDate: &start, EndDate: &end}

		f.reports.On("ListDue", ctx, domain.ScheduleWeekly).
			Return([]*domain.ScheduledReport{report}, nil)
		f.analytics.On("Comparison", ctx, mock.MatchedBy(func(q ports.ComparisonQuery) bool {
			return q.Current.Start.Equal(start) && q.Current.End.Equal(end) &&
				q.Base.End.Equal(start) &&
				q.Base.Start.Equal(start.Add(-end.Sub(start)))
		})).Return(&domain.PeriodComparison{
			Metric: "tickets",
			Tickets: &domain.TicketComparison{
				Base:        domain.StatusTotals{Total: 10, Resolved: 6},
				Current:     domain.StatusTotals{Total: 15, Resolved: 12},
				TotalChange: floatPtr(50),
			},
		}, nil)
		f.mailer.On("Send", ctx, mock.Anything).Return(nil)
		f.reports.On("UpdateLastRun", ctx, int64(42), mock.AnythingOfType("time.Time")).
			Return(nil)

		err := f.runner.RunDue(ctx, domain.ScheduleWeekly)

		require.NoError(t, err)
		f.analytics.AssertExpectations(t)
	})

	t.Run("failed report does not advance last run", func(t *testing.T) {
		f := newRunnerFixture()
		report := subscription(domain.ReportCategories)

		f.reports.On("ListDue", ctx, domain.ScheduleDaily).
			Return([]*domain.ScheduledReport{report}, nil)
		f.analytics.On("CategoryBreakdown", ctx, mock.Anything, (*uuid.UUID)(nil)).
			Return(nil, errors.New("query timeout"))

		err := f.runner.RunDue(ctx, domain.ScheduleDaily)

		require.NoError(t, err)
		f.mailer.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
		f.reports.AssertNotCalled(t, "UpdateLastRun", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("send failure skips last run but other reports still deliver", func(t *testing.T) {
		f := newRunnerFixture()
		broken := subscription(domain.ReportWorkload)
		healthy := subscription(domain.ReportWorkload)
		healthy.ID = 43
		healthy.Email = "lead@example.com"

		f.reports.On("ListDue", ctx, domain.ScheduleDaily).
			Return([]*domain.ScheduledReport{broken, healthy}, nil)
		f.analytics.On("WorkloadDistribution", ctx, mock.Anything).
			Return(&domain.WorkloadDistribution{Unassigned: 3}, nil)
		f.mailer.On("Send", ctx, mock.MatchedBy(func(msg ports.MailMessage) bool {
			return msg.To == "ops@example.com"
		})).Return(errors.New("smtp unavailable"))
		f.mailer.On("Send", ctx, mock.MatchedBy(func(msg ports.MailMessage) bool {
			return msg.To == "lead@example.com"
		})).Return(nil)
		f.reports.On("UpdateLastRun", ctx, int64(43), mock.AnythingOfType("time.Time")).
			Return(nil)

		err := f.runner.RunDue(ctx, domain.ScheduleDaily)

		require.NoError(t, err)
		f.reports.AssertExpectations(t)
		f.reports.AssertNotCalled(t, "UpdateLastRun", ctx, int64(42), mock.Anything)
	})

	t.Run("listing failure is returned", func(t *testing.T) {
		f := newRunnerFixture()

		f.reports.On("ListDue", ctx, domain.ScheduleMonthly).
			Return(nil, errors.New("connection refused"))

		err := f.runner.RunDue(ctx, domain.ScheduleMonthly)

		assert.Error(t, err)
	})
}

func TestReportTable_RenderCSV(t *testing.T) {
	table := reportTable{
		Columns: []string{"category", "total"},
		Rows: [][]string{
			{"hardware", "12"},
			{"network, wifi", "4"},
		},
	}

	data, err := table.renderCSV()

	require.NoError(t, err)
	assert.Equal(t, "category,total\nhardware,12\n\"network, wifi\",4\n", string(data))
}
