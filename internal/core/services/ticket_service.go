package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
)

// TicketService implements business logic for ticket management
type TicketService struct {
	ticketRepo ports.TicketRepository
	userRepo   ports.UserRepository
	publisher  ports.EventPublisher
	wg         sync.WaitGroup
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates a new ticket service
func NewTicketService(
	ticketRepo ports.TicketRepository,
	userRepo ports.UserRepository,
	publisher ports.EventPublisher,
) ports.TicketService {
	return &TicketService{
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		publisher:  publisher,
	}
}

// CreateTicket handles the use case for submitting a new ticket
func (s *TicketService) CreateTicket(ctx context.Context, params ports.CreateTicketParams) (*domain.Ticket, error) {
	// Create domain entity with validation
	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:       params.Title,
		Description: params.Description,
		Priority:    params.Priority,
		Category:    params.Category,
		RequesterID: params.RequesterID,
	})
	if err != nil {
		return nil, err
	}

	created, err := s.ticketRepo.Create(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.publishAsync(domain.Event{
		Type:     domain.EventTicketCreated,
		Payload:  created,
		TicketID: created.ID,
	})

	return created, nil
}

// GetTicket retrieves a specific ticket with authorization
func (s *TicketService) GetTicket(ctx context.Context, ticketID uuid.UUID, viewerID uuid.UUID) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeView(ctx, ticket, viewerID); err != nil {
		return nil, err
	}
	return ticket, nil
}

// UpdateStatus changes a ticket's status with business rule enforcement
func (s *TicketService) UpdateStatus(ctx context.Context, params ports.UpdateStatusParams) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeManage(ctx, ticket, params.ActorID); err != nil {
		return nil, err
	}

	oldStatus := ticket.Status

	// Apply status change (domain maintains the resolved_at invariant)
	if err := ticket.UpdateStatus(params.Status); err != nil {
		return nil, err
	}

	updated, err := s.ticketRepo.Update(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.publishAsync(domain.Event{
		Type: domain.EventStatusUpdated,
		Payload: domain.StatusUpdatedPayload{
			TicketID:  updated.ID,
			OldStatus: oldStatus,
			NewStatus: updated.Status,
		},
		TicketID: updated.ID,
	})

	return updated, nil
}

// AssignTicket assigns a ticket to an agent
func (s *TicketService) AssignTicket(ctx context.Context, params ports.AssignTicketParams) (*domain.Ticket, error) {
	actor, err := s.userRepo.GetByID(ctx, params.ActorID)
	if err != nil {
		return nil, err
	}
	if !actor.CanManageTickets() {
		return nil, apperrors.ErrForbidden
	}

	// The assignee must be able to work tickets
	assignee, err := s.userRepo.GetByID(ctx, params.AssigneeID)
	if err != nil {
		return nil, err
	}
	if !assignee.CanManageTickets() {
		return nil, apperrors.ErrForbidden
	}

	ticket, err := s.ticketRepo.GetByID(ctx, params.TicketID)
	if err != nil {
		return nil, err
	}

	if err := ticket.Assign(params.AssigneeID); err != nil {
		return nil, err
	}

	updated, err := s.ticketRepo.Update(ctx, ticket)
	if err != nil {
		return nil, err
	}

	s.publishAsync(domain.Event{
		Type:     domain.EventTicketAssigned,
		Payload:  updated,
		TicketID: updated.ID,
	})

	return updated, nil
}

// ListTickets retrieves tickets based on user permissions
func (s *TicketService) ListTickets(ctx context.Context, params ports.ListTicketsParams) ([]*domain.Ticket, error) {
	viewer, err := s.userRepo.GetByID(ctx, params.ViewerID)
	if err != nil {
		return nil, err
	}

	filter := params.Filter
	if !viewer.CanManageTickets() {
		// Scope the query to the requesting user's own tickets
		viewerID := params.ViewerID
		filter.RequesterID = &viewerID
	}

	return s.ticketRepo.List(ctx, filter)
}

// GetHistory returns the status transition log of a ticket.
func (s *TicketService) GetHistory(ctx context.Context, ticketID uuid.UUID, viewerID uuid.UUID) ([]*domain.HistoryEntry, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, ticketID)
	if err != nil {
		return nil, err
	}

	if err := s.authorizeView(ctx, ticket, viewerID); err != nil {
		return nil, err
	}

	return s.ticketRepo.History(ctx, ticketID)
}

// DeleteTicket removes a ticket and its history. Admin only.
func (s *TicketService) DeleteTicket(ctx context.Context, ticketID uuid.UUID, actorID uuid.UUID) error {
	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return apperrors.ErrForbidden
	}

	if _, err := s.ticketRepo.GetByID(ctx, ticketID); err != nil {
		return err
	}

	return s.ticketRepo.Delete(ctx, ticketID)
}

// Shutdown waits for in-flight event publishes to finish.
func (s *TicketService) Shutdown() {
	s.wg.Wait()
}

func (s *TicketService) authorizeView(ctx context.Context, ticket *domain.Ticket, viewerID uuid.UUID) error {
	if ticket.IsOwnedBy(viewerID) || ticket.IsAssignedTo(viewerID) {
		return nil
	}

	viewer, err := s.userRepo.GetByID(ctx, viewerID)
	if err != nil {
		return err
	}
	if !viewer.CanManageTickets() {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *TicketService) authorizeManage(ctx context.Context, ticket *domain.Ticket, actorID uuid.UUID) error {
	if ticket.IsOwnedBy(actorID) || ticket.IsAssignedTo(actorID) {
		return nil
	}

	actor, err := s.userRepo.GetByID(ctx, actorID)
	if err != nil {
		return err
	}
	if !actor.CanManageTickets() {
		return apperrors.ErrForbidden
	}
	return nil
}

func (s *TicketService) publishAsync(event domain.Event) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.publisher.Publish(event)
	}()
}
