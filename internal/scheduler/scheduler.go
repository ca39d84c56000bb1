package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
)

const (
	dailyReportsCron   = "0 8 * * *"
	weeklyReportsCron  = "0 8 * * 1"
	monthlyReportsCron = "0 8 1 * *"
	alertsCron         = "0 * * * *"

	jobTimeout = 10 * time.Minute
)

// Scheduler owns the cron jobs that drive report delivery and alert
// evaluation.
type Scheduler struct {
	scheduler gocron.Scheduler
	runner    *ReportRunner
	evaluator *AlertEvaluator
	logger    *slog.Logger
}

// NewScheduler builds the scheduler and registers all recurring jobs.
// Cron expressions are evaluated in the given location.
func NewScheduler(runner *ReportRunner, evaluator *AlertEvaluator, loc *time.Location, logger *slog.Logger) (*Scheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	gs, err := gocron.NewScheduler(gocron.WithLocation(loc))
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	s := &Scheduler{
		scheduler: gs,
		runner:    runner,
		evaluator: evaluator,
		logger:    logger,
	}

	jobs := []struct {
		name string
		cron string
		task func(context.Context) error
	}{
		{"daily-reports", dailyReportsCron, func(ctx context.Context) error {
			return s.runner.RunDue(ctx, domain.ScheduleDaily)
		}},
		{"weekly-reports", weeklyReportsCron, func(ctx context.Context) error {
			return s.runner.RunDue(ctx, domain.ScheduleWeekly)
		}},
		{"monthly-reports", monthlyReportsCron, func(ctx context.Context) error {
			return s.runner.RunDue(ctx, domain.ScheduleMonthly)
		}},
		{"metric-alerts", alertsCron, s.evaluator.EvaluateAll},
	}

	for _, job := range jobs {
		if _, err := gs.NewJob(
			gocron.CronJob(job.cron, false),
			gocron.NewTask(s.wrap(job.name, job.task)),
			gocron.WithName(job.name),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
		); err != nil {
			return nil, fmt.Errorf("registering job %s: %w", job.name, err)
		}
	}

	return s, nil
}

// Start begins executing registered jobs in the background.
func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("scheduler started", slog.Int("jobs", len(s.scheduler.Jobs())))
}

// Shutdown stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Shutdown() error {
	s.logger.Info("scheduler shutting down")
	return s.scheduler.Shutdown()
}

func (s *Scheduler) wrap(name string, task func(context.Context) error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		if err := task(ctx); err != nil {
			s.logger.Error("scheduled job failed",
				slog.String("job", name),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.Debug("scheduled job finished",
			slog.String("job", name),
			slog.Duration("duration", time.Since(start)),
		)
	}
}
