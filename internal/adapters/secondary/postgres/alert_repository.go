package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// MetricAlertRepository persists threshold alerts and their firing history.
type MetricAlertRepository struct {
	pool *pgxpool.Pool
}

var _ ports.MetricAlertRepository = (*MetricAlertRepository)(nil)

func NewMetricAlertRepository(pool *pgxpool.Pool) ports.MetricAlertRepository {
	return &MetricAlertRepository{pool: pool}
}

const alertColumns = `id, user_id, name, metric_type, condition, threshold, email, active, last_triggered, created_at`

func (r *MetricAlertRepository) Create(ctx context.Context, alert *domain.MetricAlert) (*domain.MetricAlert, error) {
	const query = `
INSERT INTO metric_alerts (user_id, name, metric_type, condition, threshold, email, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + alertColumns

	row := dbtx(ctx, r.pool).QueryRow(ctx, query,
		alert.UserID, alert.Name, string(alert.MetricType), string(alert.Condition),
		alert.Threshold, alert.Email, alert.Active)
	return scanAlert(row)
}

func (r *MetricAlertRepository) GetByID(ctx context.Context, id int64) (*domain.MetricAlert, error) {
	const query = `SELECT ` + alertColumns + ` FROM metric_alerts WHERE id = $1`

	alert, err := scanAlert(dbtx(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAlertNotFound
		}
		return nil, err
	}
	return alert, nil
}

func (r *MetricAlertRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MetricAlert, error) {
	const query = `
SELECT ` + alertColumns + `
FROM metric_alerts
WHERE user_id = $1
ORDER BY created_at DESC`

	return r.list(ctx, query, userID)
}

func (r *MetricAlertRepository) ListActive(ctx context.Context) ([]*domain.MetricAlert, error) {
	const query = `
SELECT ` + alertColumns + `
FROM metric_alerts
WHERE active
ORDER BY id`

	return r.list(ctx, query)
}

func (r *MetricAlertRepository) Update(ctx context.Context, alert *domain.MetricAlert) (*domain.MetricAlert, error) {
	const query = `
UPDATE metric_alerts
SET name = $2, condition = $3, threshold = $4, email = $5, active = $6
WHERE id = $1
RETURNING ` + alertColumns

	row := dbtx(ctx, r.pool).QueryRow(ctx, query,
		alert.ID, alert.Name, string(alert.Condition), alert.Threshold,
		alert.Email, alert.Active)

	updated, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrAlertNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (r *MetricAlertRepository) UpdateLastTriggered(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE metric_alerts SET last_triggered = $2 WHERE id = $1`

	tag, err := dbtx(ctx, r.pool).Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAlertNotFound
	}
	return nil
}

func (r *MetricAlertRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM metric_alerts WHERE id = $1`

	tag, err := dbtx(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrAlertNotFound
	}
	return nil
}

func (r *MetricAlertRepository) RecordEvent(ctx context.Context, event *domain.AlertEvent) (*domain.AlertEvent, error) {
	const query = `
INSERT INTO alert_history (alert_id, triggered_at, metric_value, notification_sent)
VALUES ($1, $2, $3, $4)
RETURNING id, alert_id, triggered_at, metric_value, notification_sent`

	row := dbtx(ctx, r.pool).QueryRow(ctx, query,
		event.AlertID, event.TriggeredAt, event.MetricValue, event.NotificationSent)
	return scanAlertEvent(row)
}

func (r *MetricAlertRepository) MarkEventNotified(ctx context.Context, eventID int64) error {
	const query = `UPDATE alert_history SET notification_sent = TRUE WHERE id = $1`

	tag, err := dbtx(ctx, r.pool).Exec(ctx, query, eventID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *MetricAlertRepository) ListEvents(ctx context.Context, alertID int64, limit int) ([]*domain.AlertEvent, error) {
	const query = `
SELECT id, alert_id, triggered_at, metric_value, notification_sent
FROM alert_history
WHERE alert_id = $1
ORDER BY triggered_at DESC
LIMIT $2`

	rows, err := dbtx(ctx, r.pool).Query(ctx, query, alertID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.AlertEvent, 0)
	for rows.Next() {
		event, err := scanAlertEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *MetricAlertRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.MetricAlert, error) {
	rows, err := dbtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	alerts := make([]*domain.MetricAlert, 0)
	for rows.Next() {
		alert, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, alert)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return alerts, nil
}

func scanAlert(row pgx.Row) (*domain.MetricAlert, error) {
	var (
		alert         domain.MetricAlert
		metricType    string
		condition     string
		lastTriggered pgtype.Timestamptz
		createdAt     pgtype.Timestamptz
	)
	if err := row.Scan(&alert.ID, &alert.UserID, &alert.Name, &metricType,
		&condition, &alert.Threshold, &alert.Email, &alert.Active,
		&lastTriggered, &createdAt); err != nil {
		return nil, err
	}
	alert.MetricType = domain.AlertMetricType(metricType)
	alert.Condition = domain.AlertCondition(condition)
	alert.LastTriggered = timePtr(lastTriggered)
	alert.CreatedAt = createdAt.Time
	return &alert, nil
}

func scanAlertEvent(row pgx.Row) (*domain.AlertEvent, error) {
	var (
		event       domain.AlertEvent
		triggeredAt pgtype.Timestamptz
	)
	if err := row.Scan(&event.ID, &event.AlertID, &triggeredAt,
		&event.MetricValue, &event.NotificationSent); err != nil {
		return nil, err
	}
	event.TriggeredAt = triggeredAt.Time
	return &event, nil
}
