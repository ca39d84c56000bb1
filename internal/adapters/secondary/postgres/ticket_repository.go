package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// TicketRepository is the secondary adapter for ticket persistence. Writes
// that change a ticket's status also append to the history log, atomically.
type TicketRepository struct {
	pool *pgxpool.Pool
}

var _ ports.TicketRepository = (*TicketRepository)(nil)

func NewTicketRepository(pool *pgxpool.Pool) ports.TicketRepository {
	return &TicketRepository{pool: pool}
}

const ticketColumns = `id, title, description, status, priority, category,
requester_id, assignee_id, created_at, updated_at, resolved_at`

func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	var created *domain.Ticket
	err := r.inTx(ctx, func(ctx context.Context) error {
		const query = `
INSERT INTO tickets (title, description, status, priority, category, requester_id, assignee_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + ticketColumns

		row := dbtx(ctx, r.pool).QueryRow(ctx, query,
			ticket.Title,
			textOrNull(ticket.Description),
			string(ticket.Status),
			string(ticket.Priority),
			textOrNull(ticket.Category),
			ticket.RequesterID,
			uuidOrNull(ticket.AssigneeID),
		)

		var err error
		created, err = scanTicket(row)
		if err != nil {
			return err
		}
		return r.appendHistory(ctx, created.ID, created.Status, created.CreatedAt)
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (r *TicketRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`

	ticket, err := scanTicket(dbtx(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrTicketNotFound
		}
		return nil, err
	}
	return ticket, nil
}

func (r *TicketRepository) Update(ctx context.Context, ticket *domain.Ticket) (*domain.Ticket, error) {
	var updated *domain.Ticket
	err := r.inTx(ctx, func(ctx context.Context) error {
		// The old status decides whether this update appends history
		const currentQuery = `SELECT status FROM tickets WHERE id = $1 FOR UPDATE`
		var previous string
		if err := dbtx(ctx, r.pool).QueryRow(ctx, currentQuery, ticket.ID).Scan(&previous); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrTicketNotFound
			}
			return err
		}

		const query = `
UPDATE tickets
SET title = $2, description = $3, status = $4, priority = $5, category = $6,
    assignee_id = $7, updated_at = $8, resolved_at = $9
WHERE id = $1
RETURNING ` + ticketColumns

		row := dbtx(ctx, r.pool).QueryRow(ctx, query,
			ticket.ID,
			ticket.Title,
			textOrNull(ticket.Description),
			string(ticket.Status),
			string(ticket.Priority),
			textOrNull(ticket.Category),
			uuidOrNull(ticket.AssigneeID),
			ticket.UpdatedAt,
			timeOrNull(ticket.ResolvedAt),
		)

		var err error
		updated, err = scanTicket(row)
		if err != nil {
			return err
		}

		if previous != string(updated.Status) {
			return r.appendHistory(ctx, updated.ID, updated.Status, updated.UpdatedAt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (r *TicketRepository) Delete(ctx context.Context, id uuid.UUID) error {
	const query = `DELETE FROM tickets WHERE id = $1`

	tag, err := dbtx(ctx, r.pool).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrTicketNotFound
	}
	return nil
}

func (r *TicketRepository) List(ctx context.Context, filter ports.TicketFilter) ([]*domain.Ticket, error) {
	query, args := buildTicketQuery(`SELECT `+ticketColumns+` FROM tickets`, filter, true)

	rows, err := dbtx(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tickets := make([]*domain.Ticket, 0)
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *TicketRepository) Count(ctx context.Context, filter ports.TicketFilter) (int, error) {
	query, args := buildTicketQuery(`SELECT COUNT(*) FROM tickets`, filter, false)

	var count int
	if err := dbtx(ctx, r.pool).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *TicketRepository) History(ctx context.Context, ticketID uuid.UUID) ([]*domain.HistoryEntry, error) {
	const query = `
SELECT id, ticket_id, status, changed_at
FROM ticket_history
WHERE ticket_id = $1
ORDER BY changed_at, id
`

	rows, err := dbtx(ctx, r.pool).Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]*domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			entry     domain.HistoryEntry
			status    string
			changedAt pgtype.Timestamptz
		)
		if err := rows.Scan(&entry.ID, &entry.TicketID, &status, &changedAt); err != nil {
			return nil, err
		}
		entry.Status = domain.TicketStatus(status)
		entry.ChangedAt = changedAt.Time
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// inTx joins the transaction already in ctx, or opens one for the callback.
func (r *TicketRepository) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := txFromContext(ctx); ok {
		return fn(ctx)
	}
	return NewTransactionManager(r.pool).WithTransaction(ctx, fn)
}

func (r *TicketRepository) appendHistory(ctx context.Context, ticketID uuid.UUID, status domain.TicketStatus, at time.Time) error {
	const query = `INSERT INTO ticket_history (ticket_id, status, changed_at) VALUES ($1, $2, $3)`
	_, err := dbtx(ctx, r.pool).Exec(ctx, query, ticketID, string(status), at)
	return err
}

// buildTicketQuery appends the filter's WHERE clauses and, when paginated,
// ordering and LIMIT/OFFSET.
func buildTicketQuery(base string, filter ports.TicketFilter, paginated bool) (string, []interface{}) {
	var (
		clauses []string
		args    []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != nil {
		clauses = append(clauses, "status = "+arg(string(*filter.Status)))
	}
	if filter.Priority != nil {
		clauses = append(clauses, "priority = "+arg(string(*filter.Priority)))
	}
	if filter.Category != nil {
		clauses = append(clauses, "category = "+arg(*filter.Category))
	}
	if filter.RequesterID != nil {
		clauses = append(clauses, "requester_id = "+arg(*filter.RequesterID))
	}
	if filter.AssigneeID != nil {
		clauses = append(clauses, "assignee_id = "+arg(*filter.AssigneeID))
	}
	if filter.Unassigned {
		clauses = append(clauses, "assignee_id IS NULL")
	}
	if filter.CreatedFrom != nil {
		clauses = append(clauses, "created_at >= "+arg(*filter.CreatedFrom))
	}
	if filter.CreatedTo != nil {
		clauses = append(clauses, "created_at <= "+arg(*filter.CreatedTo))
	}

	query := base
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	if paginated {
		query += " ORDER BY created_at DESC"
		if filter.Limit > 0 {
			query += " LIMIT " + arg(filter.Limit)
		}
		if filter.Offset > 0 {
			query += " OFFSET " + arg(filter.Offset)
		}
	}
	return query, args
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		ticket      domain.Ticket
		description pgtype.Text
		status      string
		priority    string
		category    pgtype.Text
		assigneeID  pgtype.UUID
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
		resolvedAt  pgtype.Timestamptz
	)
	if err := row.Scan(&ticket.ID, &ticket.Title, &description, &status, &priority,
		&category, &ticket.RequesterID, &assigneeID, &createdAt, &updatedAt, &resolvedAt); err != nil {
		return nil, err
	}

	ticket.Description = textOrEmpty(description)
	ticket.Status = domain.TicketStatus(status)
	ticket.Priority = domain.TicketPriority(priority)
	ticket.Category = textOrEmpty(category)
	ticket.CreatedAt = createdAt.Time
	ticket.UpdatedAt = updatedAt.Time
	if assigneeID.Valid {
		id := uuid.UUID(assigneeID.Bytes)
		ticket.AssigneeID = &id
	}
	if resolvedAt.Valid {
		ticket.ResolvedAt = &resolvedAt.Time
	}
	return &ticket, nil
}
