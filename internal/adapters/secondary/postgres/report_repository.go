package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// ScheduledReportRepository persists report subscriptions. Parameters are
// stored as jsonb.
type ScheduledReportRepository struct {
	pool *pgxpool.Pool
}

var _ ports.ScheduledReportRepository = (*ScheduledReportRepository)(nil)

func NewScheduledReportRepository(pool *pgxpool.Pool) ports.ScheduledReportRepository {
	return &ScheduledReportRepository{pool: pool}
}

const reportColumns = `id, user_id, name, report_type, parameters, schedule, email, active, last_run, created_at`

func (r *ScheduledReportRepository) Create(ctx context.Context, report *domain.ScheduledReport) (*domain.ScheduledReport, error) {
	params, err := json.Marshal(report.Parameters)
	if err != nil {
		return nil, fmt.Errorf("encoding parameters: %w", err)
	}

	const query = `
INSERT INTO scheduled_reports (user_id, name, report_type, parameters, schedule, email, active)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + reportColumns

	row := dbtx(ctx, r.pool).QueryRow(ctx, query,
		report.UserID, report.Name, string(report.ReportType), params,
		string(report.Schedule), report.Email, report.Active)
	return scanReport(row)
}

func (r *ScheduledReportRepository) GetByID(ctx context.Context, id int64) (*domain.ScheduledReport, error) {
	const query = `SELECT ` + reportColumns + ` FROM scheduled_reports WHERE id = $1`

	report, err := scanReport(dbtx(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrReportNotFound
		}
		return nil, err
	}
	return report, nil
}

func (r *ScheduledReportRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.ScheduledReport, error) {
	const query = `
SELECT ` + reportColumns + `
FROM scheduled_reports
WHERE user_id = $1
ORDER BY created_at DESC`

	return r.list(ctx, query, userID)
}

func (r *ScheduledReportRepository) ListDue(ctx context.Context, schedule domain.Schedule) ([]*domain.ScheduledReport, error) {
	const query = `
SELECT ` + reportColumns + `
FROM scheduled_reports
WHERE active AND schedule = $1
ORDER BY id`

	return r.list(ctx, query, string(schedule))
}

func (r *ScheduledReportRepository) Update(ctx context.Context, report *domain.ScheduledReport) (*domain.ScheduledReport, error) {
	params, err := json.Marshal(report.Parameters)
	if err != nil {
		return nil, fmt.Errorf("encoding parameters: %w", err)
	}

	const query = `
UPDATE scheduled_reports
SET name = $2, report_type = $3, parameters = $4, schedule = $5, email = $6, active = $7
WHERE id = $1
RETURNING ` + reportColumns

	row := dbtx(ctx, r.pool).QueryRow(ctx, query,
		report.ID, report.Name, string(report.ReportType), params,
		string(report.Schedule), report.Email, report.Active)

	updated, err := scanReport(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrReportNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (r *ScheduledReportRepository) UpdateLastRun(ctx context.Context, id int64, at time.Time) error {
	const query = `UPDATE scheduled_reports SET last_run = $2 WHERE id = $1`

	tag, err := dbtx(ctx, r.pool).Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrReportNotFound
	}
	return nil
}

func (r *ScheduledReportRepository) Delete(ctx context.Context, id int64) error {
	const query = `DELETE FROM scheduled_reports WHERE id = $1`

	tag, err := dbtx(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrReportNotFound
	}
	return nil
}

func (r *ScheduledReportRepository) list(ctx context.Context, query string, args ...interface{}) ([]*domain.ScheduledReport, error) {
	rows, err := dbtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reports := make([]*domain.ScheduledReport, 0)
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return reports, nil
}

func scanReport(row pgx.Row) (*domain.ScheduledReport, error) {
	var (
		report     domain.ScheduledReport
		reportType string
		params     []byte
		schedule   string
		lastRun    pgtype.Timestamptz
		createdAt  pgtype.Timestamptz
	)
	if err := row.Scan(&report.ID, &report.UserID, &report.Name, &reportType,
		&params, &schedule, &report.Email, &report.Active, &lastRun, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(params, &report.Parameters); err != nil {
		return nil, fmt.Errorf("decoding parameters: %w", err)
	}
	report.ReportType = domain.ReportType(reportType)
	report.Schedule = domain.Schedule(schedule)
	report.LastRun = timePtr(lastRun)
	report.CreatedAt = createdAt.Time
	return &report, nil
}
