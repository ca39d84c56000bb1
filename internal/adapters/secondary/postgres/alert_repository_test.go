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

func seedAlert(t *testing.T, mutate func(*domain.MetricAlert)) *domain.MetricAlert {
	t.Helper()
	owner := seedUser(t, "Alert Owner", domain.RoleAdmin)

	alert := &domain.MetricAlert{
		UserID:     owner.ID,
		Name:       "Backlog watch",
		MetricType: domain.AlertOpenTickets,
		Condition:  domain.ConditionGreater,
		Threshold:  25,
		Email:      "watch@example.com",
		Active:     true,
	}
	if mutate != nil {
		mutate(alert)
	}

	created, err := NewMetricAlertRepository(testPool).Create(context.Background(), alert)
	require.NoError(t, err)
	return created
}

func TestMetricAlertRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := NewMetricAlertRepository(testPool)

	created := seedAlert(t, nil)
	assert.NotZero(t, created.ID)
	assert.Nil(t, created.LastTriggered)

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Backlog watch", found.Name)
	assert.Equal(t, domain.AlertOpenTickets, found.MetricType)
	assert.Equal(t, domain.ConditionGreater, found.Condition)
	assert.Equal(t, 25.0, found.Threshold)
}

func TestMetricAlertRepository_GetByID_NotFound(t *testing.T) {
	repo := NewMetricAlertRepository(testPool)

	_, err := repo.GetByID(context.Background(), 999999)
	assert.ErrorIs(t, err, apperrors.ErrAlertNotFound)
}

func TestMetricAlertRepository_ListActive(t *testing.T) {
	ctx := context.Background()
	repo := NewMetricAlertRepository(testPool)

	active := seedAlert(t, nil)
	paused := seedAlert(t, func(alert *domain.MetricAlert) {
		alert.Name = "Paused watch"
		alert.Active = false
	})

	alerts, err := repo.ListActive(ctx)
	require.NoError(t, err)

	ids := make(map[int64]bool, len(alerts))
	for _, alert := range alerts {
		ids[alert.ID] = true
		assert.True(t, alert.Active)
	}
	assert.True(t, ids[active.ID])
	assert.False(t, ids[paused.ID])
}

func TestMetricAlertRepository_Update(t *testing.T) {
	ctx := context.Background()
	repo := NewMetricAlertRepository(testPool)

	created := seedAlert(t, nil)
	created.Name = "Tighter backlog watch"
	created.Condition = domain.ConditionGreaterEqual
	created.Threshold = 10

	updated, err := repo.Update(ctx, created)
	require.NoError(t, err)
	assert.Equal(t, "Tighter backlog watch", updated.Name)
	assert.Equal(t, domain.ConditionGreaterEqual, updated.Condition)
	assert.Equal(t, 10.0, updated.Threshold)
	// The metric type column is never touched by updates
	assert.Equal(t, domain.AlertOpenTickets, updated.MetricType)
}

func TestMetricAlertRepository_UpdateLastTriggered(t *testing.T) {
	ctx := context.Background()
	repo := NewMetricAlertRepository(testPool)

	created := seedAlert(t, nil)
	at := time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, repo.UpdateLastTriggered(ctx, created.ID, at))

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, found.LastTriggered)
	assert.WithinDuration(t, at, *found.LastTriggered, time.Second)

	assert.ErrorIs(t, repo.UpdateLastTriggered(ctx, 999999, at), apperrors.ErrAlertNotFound)
}

func TestMetricAlertRepository_Events(t *testing.T) {
	ctx := context.Background()
	repo := NewMetricAlertRepository(testPool)
	alert := seedAlert(t, nil)

	first, err := repo.RecordEvent(ctx, &domain.AlertEvent{
		AlertID:     alert.ID,
		TriggeredAt: time.Now().UTC().Add(-time.Hour),
		MetricValue: 31,
	})
	require.NoError(t, err)
	assert.NotZero(t, first.ID)
	assert.False(t, first.NotificationSent)

	second, err := repo.RecordEvent(ctx, &domain.AlertEvent{
		AlertID:     alert.ID,
		TriggeredAt: time.Now().UTC(),
		MetricValue: 44,
	})
	require.NoError(t, err)

	require.NoError(t, repo.MarkEventNotified(ctx, second.ID))

	events, err := repo.ListEvents(ctx, alert.ID, 10)
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Most recent first
	assert.Equal(t, second.ID, events[0].ID)
	assert.True(t, events[0].NotificationSent)
	assert.False(t, events[1].NotificationSent)

	limited, err := repo.ListEvents(ctx, alert.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestMetricAlertRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewMetricAlertRepository(testPool)
	alert := seedAlert(t, nil)

	_, err := repo.RecordEvent(ctx, &domain.AlertEvent{
		AlertID:     alert.ID,
		TriggeredAt: time.Now().UTC(),
		MetricValue: 99,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, alert.ID))
	_, err = repo.GetByID(ctx, alert.ID)
	assert.ErrorIs(t, err, apperrors.ErrAlertNotFound)

	// History rows cascade with the alert
	events, err := repo.ListEvents(ctx, alert.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, events)
}
