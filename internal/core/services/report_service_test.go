package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/mocks"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
	"github.com/helpdex/helpdesk-backend/internal/core/services"
)

func TestScheduledReportService_Create(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		reportRepo := mocks.NewMockScheduledReportRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewScheduledReportService(reportRepo, userRepo)

		reportRepo.On("Create", ctx, mock.AnythingOfType("*domain.ScheduledReport")).
			Return(&domain.ScheduledReport{ID: 1, UserID: userID, Name: "Weekly volume"}, nil)

		report, err := svc.Create(ctx, domain.ScheduledReportParams{
			UserID:     userID,
			Name:       "Weekly volume",
			ReportType: domain.ReportTickets,
			Schedule:   domain.ScheduleWeekly,
			Email:      "ops@example.com",
		})

		require.NoError(t, err)
		assert.Equal(t, int64(1), report.ID)
		reportRepo.AssertExpectations(t)
	})

	t.Run("invalid schedule rejected", func(t *testing.T) {
		reportRepo := mocks.NewMockScheduledReportRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewScheduledReportService(reportRepo, userRepo)

		_, err := svc.Create(ctx, domain.ScheduledReportParams{
			UserID:     userID,
			Name:       "Hourly volume",
			ReportType: domain.ReportTickets,
			Schedule:   "hourly",
			Email:      "ops@example.com",
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidSchedule)
		reportRepo.AssertNotCalled(t, "Create")
	})
}

func TestScheduledReportService_Ownership(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	strangerID := uuid.New()

	stored := &domain.ScheduledReport{
		ID:         7,
		UserID:     ownerID,
		Name:       "Monthly categories",
		ReportType: domain.ReportCategories,
		Schedule:   domain.ScheduleMonthly,
		Email:      "ops@example.com",
		Active:     true,
	}

	t.Run("owner reads own subscription", func(t *testing.T) {
		reportRepo := mocks.NewMockScheduledReportRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewScheduledReportService(reportRepo, userRepo)

		reportRepo.On("GetByID", ctx, int64(7)).Return(stored, nil)

		report, err := svc.Get(ctx, 7, ownerID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), report.ID)
		userRepo.AssertNotCalled(t, "GetByID")
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		reportRepo := mocks.NewMockScheduledReportRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewScheduledReportService(reportRepo, userRepo)

		reportRepo.On("GetByID", ctx, int64(7)).Return(stored, nil)
		userRepo.On("GetByID", ctx, strangerID).Return(userWithRole(strangerID, domain.RoleUser), nil)

		report, err := svc.Get(ctx, 7, strangerID)
		assert.Nil(t, report)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("admin may read any subscription", func(t *testing.T) {
		reportRepo := mocks.NewMockScheduledReportRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewScheduledReportService(reportRepo, userRepo)

		adminID := uuid.New()
		reportRepo.On("GetByID", ctx, int64(7)).Return(stored, nil)
		userRepo.On("GetByID", ctx, adminID).Return(userWithRole(adminID, domain.RoleAdmin), nil)

		report, err := svc.Get(ctx, 7, adminID)
		require.NoError(t, err)
		assert.Equal(t, int64(7), report.ID)
	})
}

func TestScheduledReportService_Update(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	newStored := func() *domain.ScheduledReport {
		return &domain.ScheduledReport{
			ID:         3,
			UserID:     ownerID,
			Name:       "Daily trends",
			ReportType: domain.ReportTrends,
			Schedule:   domain.ScheduleDaily,
			Email:      "ops@example.com",
			Active:     true,
		}
	}

	t.Run("applies partial update", func(t *testing.T) {
		reportRepo := mocks.NewMockScheduledReportRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewScheduledReportService(reportRepo, userRepo)

		stored := newStored()
		reportRepo.On("GetByID", ctx, int64(3)).Return(stored, nil)
		reportRepo.On("Update", ctx, stored).Return(stored, nil)

		newSchedule := domain.ScheduleWeekly
		inactive := false
		report, err := svc.Update(ctx, 3, ownerID, ports.UpdateScheduledReportParams{
			Schedule: &newSchedule,
			Active:   &inactive,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.ScheduleWeekly, report.Schedule)
		assert.False(t, report.Active)
		assert.Equal(t, "Daily trends", report.Name)
	})

	t.Run("parameters revalidated against report type", func(t *testing.T) {
		reportRepo := mocks.NewMockScheduledReportRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewScheduledReportService(reportRepo, userRepo)

		reportRepo.On("GetByID", ctx, int64(3)).Return(newStored(), nil)

		badParams := domain.ReportParameters{Period: domain.TrendPeriod("hourly")}
		_, err := svc.Update(ctx, 3, ownerID, ports.UpdateScheduledReportParams{
			Parameters: &badParams,
		})

		assert.ErrorIs(t, err, apperrors.ErrInvalidPeriod)
		reportRepo.AssertNotCalled(t, "Update")
	})

	t.Run("empty name rejected", func(t *testing.T) {
		reportRepo := mocks.NewMockScheduledReportRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewScheduledReportService(reportRepo, userRepo)

		reportRepo.On("GetByID", ctx, int64(3)).Return(newStored(), nil)

		empty := ""
		_, err := svc.Update(ctx, 3, ownerID, ports.UpdateScheduledReportParams{Name: &empty})
		assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
	})
}

func TestScheduledReportService_Delete(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()

	stored := &domain.ScheduledReport{ID: 9, UserID: ownerID}

	t.Run("owner deletes", func(t *testing.T) {
		reportRepo := mocks.NewMockScheduledReportRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewScheduledReportService(reportRepo, userRepo)

		reportRepo.On("GetByID", ctx, int64(9)).Return(stored, nil)
		reportRepo.On("Delete", ctx, int64(9)).Return(nil)

		require.NoError(t, svc.Delete(ctx, 9, ownerID))
		reportRepo.AssertExpectations(t)
	})

	t.Run("missing subscription", func(t *testing.T) {
		reportRepo := mocks.NewMockScheduledReportRepository()
		userRepo := mocks.NewMockUserRepository()
		svc := services.NewScheduledReportService(reportRepo, userRepo)

		reportRepo.On("GetByID", ctx, int64(404)).Return(nil, apperrors.ErrReportNotFound)

		err := svc.Delete(ctx, 404, ownerID)
		assert.ErrorIs(t, err, apperrors.ErrReportNotFound)
	})
}
