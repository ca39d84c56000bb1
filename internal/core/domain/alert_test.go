package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
)

func TestNewMetricAlert(t *testing.T) {
	valid := domain.MetricAlertParams{
		UserID:     uuid.New(),
		Name:       "Backlog too deep",
		MetricType: domain.AlertOpenTickets,
		Condition:  domain.ConditionGreater,
		Threshold:  50,
		Email:      "oncall@example.com",
	}

	t.Run("valid alert", func(t *testing.T) {
		alert, err := domain.NewMetricAlert(valid)
		require.NoError(t, err)
		assert.True(t, alert.Active)
		assert.Nil(t, alert.LastTriggered)
	})

	t.Run("missing name", func(t *testing.T) {
		params := valid
		params.Name = ""
		_, err := domain.NewMetricAlert(params)
		assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
	})

	t.Run("unknown metric type", func(t *testing.T) {
		params := valid
		params.MetricType = "cpu_load"
		_, err := domain.NewMetricAlert(params)
		assert.ErrorIs(t, err, apperrors.ErrInvalidMetricType)
	})

	t.Run("unknown condition", func(t *testing.T) {
		params := valid
		params.Condition = "!="
		_, err := domain.NewMetricAlert(params)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCondition)
	})

	t.Run("bad email", func(t *testing.T) {
		params := valid
		params.Email = "not-an-address"
		_, err := domain.NewMetricAlert(params)
		assert.ErrorIs(t, err, apperrors.ErrEmailInvalid)
	})
}

func TestMetricAlert_Evaluate(t *testing.T) {
	tests := []struct {
		name      string
		condition domain.AlertCondition
		threshold float64
		value     float64
		want      bool
	}{
		{"greater fires above", domain.ConditionGreater, 10, 11, true},
		{"greater quiet at threshold", domain.ConditionGreater, 10, 10, false},
		{"greater-equal fires at threshold", domain.ConditionGreaterEqual, 10, 10, true},
		{"greater-equal quiet below", domain.ConditionGreaterEqual, 10, 9.99, false},
		{"less fires below", domain.ConditionLess, 4, 3.5, true},
		{"less quiet at threshold", domain.ConditionLess, 4, 4, false},
		{"less-equal fires at threshold", domain.ConditionLessEqual, 4, 4, true},
		{"less-equal quiet above", domain.ConditionLessEqual, 4, 4.01, false},
		{"equal fires on exact match", domain.ConditionEqual, 0, 0, true},
		{"equal quiet otherwise", domain.ConditionEqual, 0, 0.1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := &domain.MetricAlert{Condition: tt.condition, Threshold: tt.threshold}
			assert.Equal(t, tt.want, alert.Evaluate(tt.value))
		})
	}
}

func TestMetricAlert_MarkTriggered(t *testing.T) {
	alert, err := domain.NewMetricAlert(domain.MetricAlertParams{
		UserID:     uuid.New(),
		Name:       "Slow responses",
		MetricType: domain.AlertResponseTime,
		Condition:  domain.ConditionGreaterEqual,
		Threshold:  24,
		Email:      "oncall@example.com",
	})
	require.NoError(t, err)

	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	alert.MarkTriggered(at)
	require.NotNil(t, alert.LastTriggered)
	assert.Equal(t, at, *alert.LastTriggered)
}
