package domain_test

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
)

func TestTicketPriority_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		priority domain.TicketPriority
		want     bool
	}{
		{"low is valid", domain.PriorityLow, true},
		{"medium is valid", domain.PriorityMedium, true},
		{"high is valid", domain.PriorityHigh, true},
		{"empty is invalid", domain.TicketPriority(""), false},
		{"urgent is invalid", domain.TicketPriority("urgent"), false},
		{"uppercase is invalid", domain.TicketPriority("HIGH"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.priority.IsValid())
		})
	}
}

func TestTicketStatus_IsValid(t *testing.T) {
	tests := []struct {
		name   string
		status domain.TicketStatus
		want   bool
	}{
		{"open is valid", domain.StatusOpen, true},
		{"in-progress is valid", domain.StatusInProgress, true},
		{"resolved is valid", domain.StatusResolved, true},
		{"empty is invalid", domain.TicketStatus(""), false},
		{"closed is invalid", domain.TicketStatus("closed"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.status.IsValid())
		})
	}
}

func TestNewTicket(t *testing.T) {
	requesterID := uuid.New()

	tests := []struct {
		name    string
		params  domain.TicketParams
		wantErr error
	}{
		{
			name: "valid ticket",
			params: domain.TicketParams{
				Title:       "Printer not working",
				Description: "The third floor printer jams on every job",
				Priority:    domain.PriorityMedium,
				Category:    "hardware",
				RequesterID: requesterID,
			},
		},
		{
			name: "missing title",
			params: domain.TicketParams{
				Description: "no title given",
				RequesterID: requesterID,
			},
			wantErr: apperrors.ErrTitleRequired,
		},
		{
			name: "title too long",
			params: domain.TicketParams{
				Title:       strings.Repeat("x", domain.MaxTitleLength+1),
				RequesterID: requesterID,
			},
			wantErr: apperrors.ErrTitleTooLong,
		},
		{
			name: "description too long",
			params: domain.TicketParams{
				Title:       "Long description",
				Description: strings.Repeat("x", domain.MaxDescriptionLength+1),
				RequesterID: requesterID,
			},
			wantErr: apperrors.ErrDescriptionTooLong,
		},
		{
			name: "missing requester",
			params: domain.TicketParams{
				Title: "Orphan ticket",
			},
			wantErr: apperrors.ErrRequesterRequired,
		},
		{
			name: "unknown priority",
			params: domain.TicketParams{
				Title:       "Bad priority",
				Priority:    domain.TicketPriority("urgent"),
				RequesterID: requesterID,
			},
			wantErr: apperrors.ErrInvalidPriority,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket, err := domain.NewTicket(tt.params)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, ticket)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, domain.StatusOpen, ticket.Status)
			assert.Equal(t, tt.params.Priority, ticket.Priority)
			assert.Nil(t, ticket.ResolvedAt)
			assert.False(t, ticket.CreatedAt.IsZero())
		})
	}
}

func TestNewTicket_DefaultsPriorityToMedium(t *testing.T) {
	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:       "No priority given",
		RequesterID: uuid.New(),
	})
	require.NoError(t, err)
	assert.Equal(t, domain.PriorityMedium, ticket.Priority)
}

func TestTicket_UpdateStatus(t *testing.T) {
	newOpenTicket := func(t *testing.T) *domain.Ticket {
		t.Helper()
		ticket, err := domain.NewTicket(domain.TicketParams{
			Title:       "Status lifecycle",
			RequesterID: uuid.New(),
		})
		require.NoError(t, err)
		return ticket
	}

	t.Run("resolving stamps resolved_at", func(t *testing.T) {
		ticket := newOpenTicket(t)
		require.NoError(t, ticket.UpdateStatus(domain.StatusResolved))
		assert.Equal(t, domain.StatusResolved, ticket.Status)
		require.NotNil(t, ticket.ResolvedAt)
		assert.False(t, ticket.ResolvedAt.Before(ticket.CreatedAt))
	})

	t.Run("reopening clears resolved_at", func(t *testing.T) {
		ticket := newOpenTicket(t)
		require.NoError(t, ticket.UpdateStatus(domain.StatusResolved))
		require.NoError(t, ticket.UpdateStatus(domain.StatusOpen))
		assert.Equal(t, domain.StatusOpen, ticket.Status)
		assert.Nil(t, ticket.ResolvedAt)
	})

	t.Run("moving to in-progress keeps resolved_at nil", func(t *testing.T) {
		ticket := newOpenTicket(t)
		require.NoError(t, ticket.UpdateStatus(domain.StatusInProgress))
		assert.Equal(t, domain.StatusInProgress, ticket.Status)
		assert.Nil(t, ticket.ResolvedAt)
	})

	t.Run("re-resolving keeps the original timestamp", func(t *testing.T) {
		ticket := newOpenTicket(t)
		require.NoError(t, ticket.UpdateStatus(domain.StatusResolved))
		first := *ticket.ResolvedAt
		require.NoError(t, ticket.UpdateStatus(domain.StatusResolved))
		assert.Equal(t, first, *ticket.ResolvedAt)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		ticket := newOpenTicket(t)
		err := ticket.UpdateStatus(domain.TicketStatus("archived"))
		assert.ErrorIs(t, err, apperrors.ErrInvalidStatus)
		assert.Equal(t, domain.StatusOpen, ticket.Status)
	})
}

func TestTicket_Assign(t *testing.T) {
	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:       "Needs an owner",
		RequesterID: uuid.New(),
	})
	require.NoError(t, err)

	agentID := uuid.New()
	require.NoError(t, ticket.Assign(agentID))
	assert.True(t, ticket.IsAssignedTo(agentID))

	require.NoError(t, ticket.UpdateStatus(domain.StatusResolved))
	err = ticket.Assign(uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrInvalidStatusTransition)
	assert.True(t, ticket.IsAssignedTo(agentID))
}

func TestTicket_Ownership(t *testing.T) {
	requesterID := uuid.New()
	ticket, err := domain.NewTicket(domain.TicketParams{
		Title:       "Ownership check",
		RequesterID: requesterID,
	})
	require.NoError(t, err)

	assert.True(t, ticket.IsOwnedBy(requesterID))
	assert.False(t, ticket.IsOwnedBy(uuid.New()))
	assert.False(t, ticket.IsAssignedTo(requesterID))
}
