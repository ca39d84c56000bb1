package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
)

func TestScheduledReportRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledReportRepository(testPool)
	user := seedUser(t, "Report Owner", domain.RoleAgent)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := repo.Create(ctx, &domain.ScheduledReport{
		UserID:     user.ID,
		Name:       "Morning trends",
		ReportType: domain.ReportTrends,
		Parameters: domain.ReportParameters{
			StartDate: &start,
			Period:    domain.PeriodDaily,
			Metric:    domain.MetricCreated,
		},
		Schedule: domain.ScheduleDaily,
		Email:    "reports@example.com",
		Active:   true,
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)
	assert.Nil(t, created.LastRun)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning trends", found.Name)
	assert.Equal(t, domain.ReportTrends, found.ReportType)
	assert.Equal(t, domain.PeriodDaily, found.Parameters.Period)
	require.NotNil(t, found.Parameters.StartDate)
	assert.True(t, found.Parameters.StartDate.Equal(start))
}

func TestScheduledReportRepository_GetByID_NotFound(t *testing.T) {
	repo := NewScheduledReportRepository(testPool)

	_, err := repo.GetByID(context.Background(), 999999)
	assert.ErrorIs(t, err, apperrors.ErrReportNotFound)
}

func TestScheduledReportRepository_ListDue(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledReportRepository(testPool)
	user := seedUser(t, "Due Owner", domain.RoleAgent)

	mkReport := func(name string, schedule domain.Schedule, active bool) *domain.ScheduledReport {
		created, err := repo.Create(ctx, &domain.ScheduledReport{
			UserID:     user.ID,
			Name:       name,
			ReportType: domain.ReportCategories,
			Schedule:   schedule,
			Email:      "due@example.com",
			Active:     active,
		})
		require.NoError(t, err)
		return created
	}

	daily := mkReport("Daily categories", domain.ScheduleDaily, true)
	mkReport("Weekly categories", domain.ScheduleWeekly, true)
	inactive := mkReport("Paused daily", domain.ScheduleDaily, false)

	due, err := repo.ListDue(ctx, domain.ScheduleDaily)
	require.NoError(t, err)

	ids := make(map[int64]bool, len(due))
	for _, report := range due {
		ids[report.ID] = true
		assert.Equal(t, domain.ScheduleDaily, report.Schedule)
		assert.True(t, report.Active)
	}
	assert.True(t, ids[daily.ID])
	assert.False(t, ids[inactive.ID])
}

func TestScheduledReportRepository_UpdateAndLastRun(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledReportRepository(testPool)
	user := seedUser(t, "Update Owner", domain.RoleAgent)

	created, err := repo.Create(ctx, &domain.ScheduledReport{
		UserID:     user.ID,
		Name:       "Before",
		ReportType: domain.ReportWorkload,
		Schedule:   domain.ScheduleWeekly,
		Email:      "before@example.com",
		Active:     true,
	})
	require.NoError(t, err)

	created.Name = "After"
	created.Email = "after@example.com"
	created.Active = false
	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "After", updated.Name)
	assert.Equal(t, "after@example.com", updated.Email)
	assert.False(t, updated.Active)

	ranAt := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.UpdateLastRun(ctx, created.ID, ranAt))

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastRun)
	assert.WithinDuration(t, ranAt, *found.LastRun, time.Second)
}

func TestScheduledReportRepository_ListByUserAndDelete(t *testing.T) {
	ctx := context.Background()
	repo := NewScheduledReportRepository(testPool)
	owner := seedUser(t, "List Owner", domain.RoleAgent)
	other := seedUser(t, "Other Owner", domain.RoleAgent)

	created, err := repo.Create(ctx, &domain.ScheduledReport{
		UserID:     owner.ID,
		Name:       "Mine",
		ReportType: domain.ReportTickets,
		Schedule:   domain.ScheduleMonthly,
		Email:      "mine@example.com",
		Active:     true,
	})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &domain.ScheduledReport{
		UserID:     other.ID,
		Name:       "Theirs",
		ReportType: domain.ReportTickets,
		Schedule:   domain.ScheduleMonthly,
		Email:      "theirs@example.com",
		Active:     true,
	})
	require.NoError(t, err)

	mine, err := repo.ListByUser(ctx, owner.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Mine", mine[0].Name)

	require.NoError(t, repo.Delete(ctx, created.ID))
	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrReportNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, created.ID), apperrors.ErrReportNotFound)
}
