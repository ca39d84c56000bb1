package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
)

// AlertMetricType names a live metric a threshold alert can watch.
type AlertMetricType string

const (
	AlertOpenTickets         AlertMetricType = "open_tickets"
	AlertHighPriorityTickets AlertMetricType = "high_priority_tickets"
	AlertResponseTime        AlertMetricType = "response_time"
	AlertResolutionTime      AlertMetricType = "resolution_time"
)

// IsValid reports whether the metric type is one of the known values.
func (m AlertMetricType) IsValid() bool {
	switch m {
	case AlertOpenTickets, AlertHighPriorityTickets, AlertResponseTime, AlertResolutionTime:
		return true
	}
	return false
}

// AlertCondition is the comparison operator of a threshold alert.
type AlertCondition string

const (
	ConditionGreater      AlertCondition = ">"
	ConditionGreaterEqual AlertCondition = ">="
	ConditionLess         AlertCondition = "<"
	ConditionLessEqual    AlertCondition = "<="
	ConditionEqual        AlertCondition = "="
)

// IsValid reports whether the condition is one of the known values.
func (c AlertCondition) IsValid() bool {
	switch c {
	case ConditionGreater, ConditionGreaterEqual, ConditionLess, ConditionLessEqual, ConditionEqual:
		return true
	}
	return false
}

// MetricAlert is a threshold rule evaluated periodically against a live
// metric value.
type MetricAlert struct {
	ID            int64
	UserID        uuid.UUID
	Name          string
	MetricType    AlertMetricType
	Condition     AlertCondition
	Threshold     float64
	Email         string
	Active        bool
	LastTriggered *time.Time
	CreatedAt     time.Time
}

// MetricAlertParams holds the validated input for creating an alert.
type MetricAlertParams struct {
	UserID     uuid.UUID
	Name       string
	MetricType AlertMetricType
	Condition  AlertCondition
	Threshold  float64
	Email      string
}

// NewMetricAlert creates a valid, active threshold alert.
func NewMetricAlert(params MetricAlertParams) (*MetricAlert, error) {
	if params.Name == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if !params.MetricType.IsValid() {
		return nil, apperrors.ErrInvalidMetricType
	}
	if !params.Condition.IsValid() {
		return nil, apperrors.ErrInvalidCondition
	}
	if err := ValidateEmail(params.Email); err != nil {
		return nil, err
	}

	return &MetricAlert{
		UserID:     params.UserID,
		Name:       params.Name,
		MetricType: params.MetricType,
		Condition:  params.Condition,
		Threshold:  params.Threshold,
		Email:      params.Email,
		Active:     true,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Evaluate reports whether the given metric value crosses the threshold.
func (a *MetricAlert) Evaluate(value float64) bool {
	switch a.Condition {
	case ConditionGreater:
		return value > a.Threshold
	case ConditionGreaterEqual:
		return value >= a.Threshold
	case ConditionLess:
		return value < a.Threshold
	case ConditionLessEqual:
		return value <= a.Threshold
	case ConditionEqual:
		return value == a.Threshold
	}
	return false
}

// MarkTriggered stamps the alert after a notification was sent.
func (a *MetricAlert) MarkTriggered(at time.Time) {
	t := at.UTC()
	a.LastTriggered = &t
}

// AlertEvent is one row of the alert firing log. NotificationSent is
// flipped to true once the email actually went out.
type AlertEvent struct {
	ID               int64
	AlertID          int64
	TriggeredAt      time.Time
	MetricValue      float64
	NotificationSent bool
}
