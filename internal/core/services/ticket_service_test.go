package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/mocks"
	"github.com/helpdex/helpdesk-backend/internal/core/ports"
	"github.com/helpdex/helpdesk-backend/internal/core/services"
)

type ticketServiceFixture struct {
	ticketRepo *mocks.MockTicketRepository
	userRepo   *mocks.MockUserRepository
	publisher  *mocks.MockEventPublisher
	svc        ports.TicketService
}

func newTicketServiceFixture() *ticketServiceFixture {
	ticketRepo := mocks.NewMockTicketRepository()
	userRepo := mocks.NewMockUserRepository()
	publisher := mocks.NewMockEventPublisher()
	return &ticketServiceFixture{
		ticketRepo: ticketRepo,
		userRepo:   userRepo,
		publisher:  publisher,
		svc:        services.NewTicketService(ticketRepo, userRepo, publisher),
	}
}

func userWithRole(id uuid.UUID, role domain.Role) *domain.User {
	return &domain.User{ID: id, FullName: "Test User", Email: "user@example.com", Role: role}
}

func TestTicketService_CreateTicket(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()

	t.Run("success", func(t *testing.T) {
		f := newTicketServiceFixture()

		created := &domain.Ticket{
			ID:          uuid.New(),
			Title:       "Laptop will not boot",
			Priority:    domain.PriorityMedium,
			Status:      domain.StatusOpen,
			RequesterID: userID,
		}
		f.ticketRepo.On("Create", ctx, mock.AnythingOfType("*domain.Ticket")).Return(created, nil)
		f.publisher.On("Publish", mock.AnythingOfType("domain.Event")).Return()

		ticket, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:       "Laptop will not boot",
			Priority:    domain.PriorityMedium,
			RequesterID: userID,
		})

		require.NoError(t, err)
		assert.Equal(t, created.ID, ticket.ID)
		assert.Equal(t, domain.StatusOpen, ticket.Status)

		f.svc.Shutdown()
		f.ticketRepo.AssertExpectations(t)
		f.publisher.AssertExpectations(t)
	})

	t.Run("validation error for empty title", func(t *testing.T) {
		f := newTicketServiceFixture()

		ticket, err := f.svc.CreateTicket(ctx, ports.CreateTicketParams{
			Title:       "",
			RequesterID: userID,
		})

		assert.Nil(t, ticket)
		assert.ErrorIs(t, err, apperrors.ErrTitleRequired)
		f.ticketRepo.AssertNotCalled(t, "Create")
	})
}

func TestTicketService_GetTicket(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	ticketID := uuid.New()

	ticket := &domain.Ticket{
		ID:          ticketID,
		Title:       "VPN drops every hour",
		Status:      domain.StatusOpen,
		RequesterID: ownerID,
	}

	t.Run("owner can access own ticket", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(ticket, nil)

		got, err := f.svc.GetTicket(ctx, ticketID, ownerID)
		require.NoError(t, err)
		assert.Equal(t, ticketID, got.ID)
		f.userRepo.AssertNotCalled(t, "GetByID")
	})

	t.Run("agent can access any ticket", func(t *testing.T) {
		f := newTicketServiceFixture()
		agentID := uuid.New()
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(ticket, nil)
		f.userRepo.On("GetByID", ctx, agentID).Return(userWithRole(agentID, domain.RoleAgent), nil)

		got, err := f.svc.GetTicket(ctx, ticketID, agentID)
		require.NoError(t, err)
		assert.Equal(t, ticketID, got.ID)
	})

	t.Run("unrelated user is forbidden", func(t *testing.T) {
		f := newTicketServiceFixture()
		strangerID := uuid.New()
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(ticket, nil)
		f.userRepo.On("GetByID", ctx, strangerID).Return(userWithRole(strangerID, domain.RoleUser), nil)

		got, err := f.svc.GetTicket(ctx, ticketID, strangerID)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})

	t.Run("not found bubbles up", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(nil, apperrors.ErrTicketNotFound)

		got, err := f.svc.GetTicket(ctx, ticketID, ownerID)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperrors.ErrTicketNotFound)
	})
}

func TestTicketService_UpdateStatus(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	ticketID := uuid.New()

	newOpenTicket := func() *domain.Ticket {
		return &domain.Ticket{
			ID:          ticketID,
			Title:       "Monitor flickers",
			Status:      domain.StatusOpen,
			RequesterID: ownerID,
		}
	}

	t.Run("owner resolves own ticket", func(t *testing.T) {
		f := newTicketServiceFixture()
		ticket := newOpenTicket()
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(ticket, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(ticket, nil)
		f.publisher.On("Publish", mock.AnythingOfType("domain.Event")).Return()

		updated, err := f.svc.UpdateStatus(ctx, ports.UpdateStatusParams{
			TicketID: ticketID,
			Status:   domain.StatusResolved,
			ActorID:  ownerID,
		})

		require.NoError(t, err)
		assert.Equal(t, domain.StatusResolved, updated.Status)
		assert.NotNil(t, updated.ResolvedAt)

		f.svc.Shutdown()
		f.publisher.AssertExpectations(t)
	})

	t.Run("unrelated user is forbidden", func(t *testing.T) {
		f := newTicketServiceFixture()
		strangerID := uuid.New()
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(newOpenTicket(), nil)
		f.userRepo.On("GetByID", ctx, strangerID).Return(userWithRole(strangerID, domain.RoleUser), nil)

		updated, err := f.svc.UpdateStatus(ctx, ports.UpdateStatusParams{
			TicketID: ticketID,
			Status:   domain.StatusResolved,
			ActorID:  strangerID,
		})

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		f.ticketRepo.AssertNotCalled(t, "Update")
	})

	t.Run("invalid status rejected before persisting", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(newOpenTicket(), nil)

		updated, err := f.svc.UpdateStatus(ctx, ports.UpdateStatusParams{
			TicketID: ticketID,
			Status:   domain.TicketStatus("archived"),
			ActorID:  ownerID,
		})

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
		f.ticketRepo.AssertNotCalled(t, "Update")
	})
}

func TestTicketService_AssignTicket(t *testing.T) {
	ctx := context.Background()
	ticketID := uuid.New()
	adminID := uuid.New()
	agentID := uuid.New()

	newOpenTicket := func() *domain.Ticket {
		return &domain.Ticket{
			ID:          ticketID,
			Title:       "Printer offline",
			Status:      domain.StatusOpen,
			RequesterID: uuid.New(),
		}
	}

	t.Run("admin assigns agent", func(t *testing.T) {
		f := newTicketServiceFixture()
		ticket := newOpenTicket()
		f.userRepo.On("GetByID", ctx, adminID).Return(userWithRole(adminID, domain.RoleAdmin), nil)
		f.userRepo.On("GetByID", ctx, agentID).Return(userWithRole(agentID, domain.RoleAgent), nil)
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(ticket, nil)
		f.ticketRepo.On("Update", ctx, ticket).Return(ticket, nil)
		f.publisher.On("Publish", mock.AnythingOfType("domain.Event")).Return()

		updated, err := f.svc.AssignTicket(ctx, ports.AssignTicketParams{
			TicketID:   ticketID,
			AssigneeID: agentID,
			ActorID:    adminID,
		})

		require.NoError(t, err)
		assert.True(t, updated.IsAssignedTo(agentID))
		f.svc.Shutdown()
	})

	t.Run("regular user cannot assign", func(t *testing.T) {
		f := newTicketServiceFixture()
		userID := uuid.New()
		f.userRepo.On("GetByID", ctx, userID).Return(userWithRole(userID, domain.RoleUser), nil)

		updated, err := f.svc.AssignTicket(ctx, ports.AssignTicketParams{
			TicketID:   ticketID,
			AssigneeID: agentID,
			ActorID:    userID,
		})

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		f.ticketRepo.AssertNotCalled(t, "GetByID")
	})

	t.Run("assignee must be able to work tickets", func(t *testing.T) {
		f := newTicketServiceFixture()
		plainID := uuid.New()
		f.userRepo.On("GetByID", ctx, adminID).Return(userWithRole(adminID, domain.RoleAdmin), nil)
		f.userRepo.On("GetByID", ctx, plainID).Return(userWithRole(plainID, domain.RoleUser), nil)

		updated, err := f.svc.AssignTicket(ctx, ports.AssignTicketParams{
			TicketID:   ticketID,
			AssigneeID: plainID,
			ActorID:    adminID,
		})

		assert.Nil(t, updated)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}

func TestTicketService_ListTickets(t *testing.T) {
	ctx := context.Background()

	t.Run("regular user sees only own tickets", func(t *testing.T) {
		f := newTicketServiceFixture()
		userID := uuid.New()
		f.userRepo.On("GetByID", ctx, userID).Return(userWithRole(userID, domain.RoleUser), nil)
		f.ticketRepo.On("List", ctx, mock.MatchedBy(func(filter ports.TicketFilter) bool {
			return filter.RequesterID != nil && *filter.RequesterID == userID
		})).Return([]*domain.Ticket{}, nil)

		_, err := f.svc.ListTickets(ctx, ports.ListTicketsParams{ViewerID: userID})
		require.NoError(t, err)
		f.ticketRepo.AssertExpectations(t)
	})

	t.Run("agent sees unscoped listing", func(t *testing.T) {
		f := newTicketServiceFixture()
		agentID := uuid.New()
		f.userRepo.On("GetByID", ctx, agentID).Return(userWithRole(agentID, domain.RoleAgent), nil)
		f.ticketRepo.On("List", ctx, mock.MatchedBy(func(filter ports.TicketFilter) bool {
			return filter.RequesterID == nil
		})).Return([]*domain.Ticket{}, nil)

		_, err := f.svc.ListTickets(ctx, ports.ListTicketsParams{ViewerID: agentID})
		require.NoError(t, err)
		f.ticketRepo.AssertExpectations(t)
	})
}

func TestTicketService_DeleteTicket(t *testing.T) {
	ctx := context.Background()
	ticketID := uuid.New()

	t.Run("admin deletes", func(t *testing.T) {
		f := newTicketServiceFixture()
		adminID := uuid.New()
		f.userRepo.On("GetByID", ctx, adminID).Return(userWithRole(adminID, domain.RoleAdmin), nil)
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(&domain.Ticket{ID: ticketID}, nil)
		f.ticketRepo.On("Delete", ctx, ticketID).Return(nil)

		require.NoError(t, f.svc.DeleteTicket(ctx, ticketID, adminID))
		f.ticketRepo.AssertExpectations(t)
	})

	t.Run("agent cannot delete", func(t *testing.T) {
		f := newTicketServiceFixture()
		agentID := uuid.New()
		f.userRepo.On("GetByID", ctx, agentID).Return(userWithRole(agentID, domain.RoleAgent), nil)

		err := f.svc.DeleteTicket(ctx, ticketID, agentID)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
		f.ticketRepo.AssertNotCalled(t, "Delete")
	})
}

func TestTicketService_GetHistory(t *testing.T) {
	ctx := context.Background()
	ownerID := uuid.New()
	ticketID := uuid.New()

	ticket := &domain.Ticket{ID: ticketID, RequesterID: ownerID, Status: domain.StatusInProgress}
	history := []*domain.HistoryEntry{
		{ID: 1, TicketID: ticketID, Status: domain.StatusOpen},
		{ID: 2, TicketID: ticketID, Status: domain.StatusInProgress},
	}

	t.Run("owner reads history", func(t *testing.T) {
		f := newTicketServiceFixture()
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(ticket, nil)
		f.ticketRepo.On("History", ctx, ticketID).Return(history, nil)

		got, err := f.svc.GetHistory(ctx, ticketID, ownerID)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, domain.StatusOpen, got[0].Status)
	})

	t.Run("stranger is forbidden", func(t *testing.T) {
		f := newTicketServiceFixture()
		strangerID := uuid.New()
		f.ticketRepo.On("GetByID", ctx, ticketID).Return(ticket, nil)
		f.userRepo.On("GetByID", ctx, strangerID).Return(userWithRole(strangerID, domain.RoleUser), nil)

		got, err := f.svc.GetHistory(ctx, ticketID, strangerID)
		assert.Nil(t, got)
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
}
