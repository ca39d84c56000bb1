package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// AlertEvaluator checks every active metric alert against the live value of
// its metric and notifies the owner when the condition holds. Each alert is
// evaluated independently so a single failure never stops the sweep.
type AlertEvaluator struct {
	alerts    ports.MetricAlertRepository
	analytics ports.AnalyticsService
	mailer    ports.Mailer
	publisher ports.EventPublisher
	logger    *slog.Logger
}

// NewAlertEvaluator creates a new alert evaluator
func NewAlertEvaluator(
	alerts ports.MetricAlertRepository,
	analytics ports.AnalyticsService,
	mailer ports.Mailer,
	publisher ports.EventPublisher,
	logger *slog.Logger,
) *AlertEvaluator {
	return &AlertEvaluator{
		alerts:    alerts,
		analytics: analytics,
		mailer:    mailer,
		publisher: publisher,
		logger:    logger,
	}
}

// EvaluateAll runs one evaluation sweep over all active alerts.
func (e *AlertEvaluator) EvaluateAll(ctx context.Context) error {
	active, err := e.alerts.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("listing active alerts: %w", err)
	}

	e.logger.Info("evaluating metric alerts", slog.Int("count", len(active)))

	for _, alert := range active {
		if err := e.evaluateOne(ctx, alert); err != nil {
			e.logger.Error("alert evaluation failed",
				slog.Int64("alert_id", alert.ID),
				slog.String("metric_type", string(alert.MetricType)),
				slog.String("error", err.Error()),
			)
		}
	}
	return nil
}

func (e *AlertEvaluator) evaluateOne(ctx context.Context, alert *domain.MetricAlert) error {
	metric, err := e.analytics.LiveMetric(ctx, alert.MetricType, nil)
	if err != nil {
		return fmt.Errorf("computing metric: %w", err)
	}

	if !alert.Evaluate(metric.Value) {
		return nil
	}

	now := time.Now().UTC()
	event, err := e.alerts.RecordEvent(ctx, &domain.AlertEvent{
		AlertID:     alert.ID,
		TriggeredAt: now,
		MetricValue: metric.Value,
	})
	if err != nil {
		return fmt.Errorf("recording alert event: %w", err)
	}

	e.logger.Warn("metric alert triggered",
		slog.Int64("alert_id", alert.ID),
		slog.String("name", alert.Name),
		slog.Float64("value", metric.Value),
		slog.Float64("threshold", alert.Threshold),
	)

	if e.publisher != nil {
		e.publisher.Publish(domain.Event{
			Type: domain.EventAlertTriggered,
			Payload: domain.AlertTriggeredPayload{
				AlertID:     alert.ID,
				Name:        alert.Name,
				MetricType:  alert.MetricType,
				MetricValue: metric.Value,
				Threshold:   alert.Threshold,
			},
		})
	}

	if err := e.notify(ctx, alert, metric.Value, now); err != nil {
		// notification_sent stays false so the miss remains visible
		return fmt.Errorf("notifying alert: %w", err)
	}

	if err := e.alerts.MarkEventNotified(ctx, event.ID); err != nil {
		return fmt.Errorf("marking event notified: %w", err)
	}
	if err := e.alerts.UpdateLastTriggered(ctx, alert.ID, now); err != nil {
		return fmt.Errorf("updating last triggered: %w", err)
	}
	return nil
}

func (e *AlertEvaluator) notify(ctx context.Context, alert *domain.MetricAlert, value float64, at time.Time) error {
	msg := ports.MailMessage{
		To:      alert.Email,
		Subject: fmt.Sprintf("Alert: %s", alert.Name),
		TextBody: fmt.Sprintf(
			"The alert %q was triggered.\n\nMetric: %s\nCurrent value: %.2f\nCondition: %s %.2f\nTriggered at: %s\n",
			alert.Name, alert.MetricType, value, alert.Condition, alert.Threshold,
			at.Format(time.RFC1123),
		),
		HTMLBody: fmt.Sprintf(
			"<h2>Alert: %s</h2><p>Metric <strong>%s</strong> is at <strong>%.2f</strong>, which matches the condition %s %.2f.</p><p>Triggered at: %s</p>",
			alert.Name, alert.MetricType, value, alert.Condition, alert.Threshold,
			at.Format(time.RFC1123),
		),
	}
	return e.mailer.Send(ctx, msg)
}
