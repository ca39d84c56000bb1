package domain

import (
	"time"

	"github.com/google/uuid"

	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
)

// TicketStatus represents the possible states of a ticket.
type TicketStatus string

const (
	StatusOpen       TicketStatus = "open"
	StatusInProgress TicketStatus = "in-progress"
	StatusResolved   TicketStatus = "resolved"
)

// TicketPriority represents the urgency of a ticket.
type TicketPriority string

const (
	PriorityLow    TicketPriority = "low"
	PriorityMedium TicketPriority = "medium"
	PriorityHigh   TicketPriority = "high"
)

const (
	MaxTitleLength       = 255
	MaxDescriptionLength = 10000
	MaxCategoryLength    = 100
)

// IsValid reports whether the status is one of the known values.
func (s TicketStatus) IsValid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// IsValid reports whether the priority is one of the known values.
func (p TicketPriority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Ticket is the core domain entity.
//
// Invariant: ResolvedAt is non-nil if and only if Status is resolved, and
// when set it is never before CreatedAt.
type Ticket struct {
	ID          uuid.UUID
	Title       string
	Description string
	Status      TicketStatus
	Priority    TicketPriority
	Category    string
	RequesterID uuid.UUID
	AssigneeID  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ResolvedAt  *time.Time
}

// TicketParams holds the validated input for creating a ticket.
type TicketParams struct {
	Title       string
	Description string
	Priority    TicketPriority
	Category    string
	RequesterID uuid.UUID
}

// NewTicket is a factory function to create a valid new ticket.
func NewTicket(params TicketParams) (*Ticket, error) {
	if params.Title == "" {
		return nil, apperrors.ErrTitleRequired
	}
	if len(params.Title) > MaxTitleLength {
		return nil, apperrors.ErrTitleTooLong
	}
	if len(params.Description) > MaxDescriptionLength {
		return nil, apperrors.ErrDescriptionTooLong
	}
	if params.RequesterID == uuid.Nil {
		return nil, apperrors.ErrRequesterRequired
	}

	priority := params.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.IsValid() {
		return nil, apperrors.ErrInvalidPriority
	}

	now := time.Now().UTC()
	return &Ticket{
		Title:       params.Title,
		Description: params.Description,
		Status:      StatusOpen,
		Priority:    priority,
		Category:    params.Category,
		RequesterID: params.RequesterID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// UpdateStatus moves the ticket to a new status, maintaining the resolved_at
// invariant: resolving stamps ResolvedAt, reopening clears it.
func (t *Ticket) UpdateStatus(newStatus TicketStatus) error {
	if !newStatus.IsValid() {
		return apperrors.ErrInvalidStatus
	}

	now := time.Now().UTC()

	switch {
	case newStatus == StatusResolved && t.Status != StatusResolved:
		t.ResolvedAt = &now
	case newStatus != StatusResolved:
		t.ResolvedAt = nil
	}

	t.Status = newStatus
	t.UpdatedAt = now
	return nil
}

// Assign sets or changes the assignee of the ticket.
func (t *Ticket) Assign(assigneeID uuid.UUID) error {
	if t.Status == StatusResolved {
		return apperrors.ErrInvalidStatusTransition
	}
	t.AssigneeID = &assigneeID
	t.UpdatedAt = time.Now().UTC()
	return nil
}

// IsOwnedBy reports whether the given user opened the ticket.
func (t *Ticket) IsOwnedBy(userID uuid.UUID) bool {
	return t.RequesterID == userID
}

// IsAssignedTo reports whether the given user is the current assignee.
func (t *Ticket) IsAssignedTo(userID uuid.UUID) bool {
	return t.AssigneeID != nil && *t.AssigneeID == userID
}

// HistoryEntry is one row of the append-only status transition log.
// The earliest entry for a ticket records its status at creation.
type HistoryEntry struct {
	ID        int64
	TicketID  uuid.UUID
	Status    TicketStatus
	ChangedAt time.Time
}
