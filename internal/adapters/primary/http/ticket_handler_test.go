package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/helpdex/helpdesk-backend/internal/adapters/primary/http/middleware"
	pgadapter "github.com/helpdex/helpdesk-backend/internal/adapters/secondary/postgres"
	"github.com/helpdex/helpdesk-backend/internal/auth"
	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	"github.com/helpdex/helpdesk-backend/internal/core/services"
)

type noopPublisher struct{}

func (noopPublisher) Publish(domain.Event) {}

func newTicketRouter() (*chi.Mux, *auth.TokenManager) {
	userRepo := pgadapter.NewUserRepository(testPool)
	ticketRepo := pgadapter.NewTicketRepository(testPool)
	ticketService := services.NewTicketService(ticketRepo, userRepo, noopPublisher{})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := NewErrorHandler(logger)
	ticketHandler := NewTicketHandler(ticketService, errorHandler, logger)
	tokenManager := auth.NewTokenManager("test-secret", time.Hour)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(mw.JWTMiddleware(tokenManager))
		r.Mount("/tickets", ticketHandler.Router())
	})

	return router, tokenManager
}

// registerUser creates an account with the given role and returns a token
// for it.
func registerUser(t *testing.T, tokenManager *auth.TokenManager, role domain.Role) string {
	t.Helper()
	ctx := context.Background()

	userRepo := pgadapter.NewUserRepository(testPool)
	authService := services.NewAuthService(userRepo)

	user, err := authService.Register(ctx, "Ticket Tester", testEmail(), "Password1")
	require.NoError(t, err)

	if role != domain.RoleUser {
		_, err = testPool.Exec(ctx, `UPDATE users SET role = $1 WHERE id = $2`, string(role), user.ID)
		require.NoError(t, err)
	}

	token, err := tokenManager.GenerateToken(user.ID, string(role))
	require.NoError(t, err)
	return token
}

func doJSON(t *testing.T, router *chi.Mux, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func createTicket(t *testing.T, router *chi.Mux, token, body string) TicketDTO {
	t.Helper()
	recorder := doJSON(t, router, stdhttp.MethodPost, "/tickets", body, token)
	require.Equal(t, stdhttp.StatusCreated, recorder.Code)

	var ticket TicketDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&ticket))
	return ticket
}

func TestTicketHandler_CreateAndGet(t *testing.T) {
	router, tokenManager := newTicketRouter()
	token := registerUser(t, tokenManager, domain.RoleUser)

	ticket := createTicket(t, router, token,
		`{"title":"Printer jammed","description":"Tray 2","priority":"high","category":"hardware"}`)
	assert.Equal(t, "open", ticket.Status)
	assert.Equal(t, "high", ticket.Priority)
	assert.Equal(t, "hardware", ticket.Category)

	recorder := doJSON(t, router, stdhttp.MethodGet, "/tickets/"+ticket.ID, "", token)
	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var fetched TicketDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&fetched))
	assert.Equal(t, ticket.ID, fetched.ID)
}

func TestTicketHandler_CreateValidation(t *testing.T) {
	router, tokenManager := newTicketRouter()
	token := registerUser(t, tokenManager, domain.RoleUser)

	recorder := doJSON(t, router, stdhttp.MethodPost, "/tickets",
		`{"title":"","priority":"urgent"}`, token)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
}

func TestTicketHandler_StatusAndHistory(t *testing.T) {
	router, tokenManager := newTicketRouter()
	token := registerUser(t, tokenManager, domain.RoleUser)

	ticket := createTicket(t, router, token, `{"title":"VPN broken"}`)

	recorder := doJSON(t, router, stdhttp.MethodPatch, "/tickets/"+ticket.ID+"/status",
		`{"status":"resolved"}`, token)
	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var resolved TicketDTO
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&resolved))
	assert.Equal(t, "resolved", resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	recorder = doJSON(t, router, stdhttp.MethodGet, "/tickets/"+ticket.ID+"/history", "", token)
	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var history ListResponse[HistoryEntryDTO]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&history))
	require.Equal(t, 2, history.Count)
	assert.Equal(t, "open", history.Data[0].Status)
	assert.Equal(t, "resolved", history.Data[1].Status)
}

func TestTicketHandler_InvalidStatusRejected(t *testing.T) {
	router, tokenManager := newTicketRouter()
	token := registerUser(t, tokenManager, domain.RoleUser)

	ticket := createTicket(t, router, token, `{"title":"Screen flicker"}`)

	recorder := doJSON(t, router, stdhttp.MethodPatch, "/tickets/"+ticket.ID+"/status",
		`{"status":"closed"}`, token)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
}

func TestTicketHandler_ListScopedToRequester(t *testing.T) {
	router, tokenManager := newTicketRouter()
	token := registerUser(t, tokenManager, domain.RoleUser)
	otherToken := registerUser(t, tokenManager, domain.RoleUser)

	createTicket(t, router, token, `{"title":"Mine one"}`)
	createTicket(t, router, token, `{"title":"Mine two"}`)
	createTicket(t, router, otherToken, `{"title":"Not mine"}`)

	recorder := doJSON(t, router, stdhttp.MethodGet, "/tickets", "", token)
	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var page PaginatedResponse[TicketDTO]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&page))
	require.Len(t, page.Data, 2)
	for _, ticket := range page.Data {
		assert.Contains(t, []string{"Mine one", "Mine two"}, ticket.Title)
	}
}

func TestTicketHandler_ListFilterByPriority(t *testing.T) {
	router, tokenManager := newTicketRouter()
	token := registerUser(t, tokenManager, domain.RoleUser)

	createTicket(t, router, token, `{"title":"Low issue","priority":"low"}`)
	createTicket(t, router, token, `{"title":"High issue","priority":"high"}`)

	recorder := doJSON(t, router, stdhttp.MethodGet, "/tickets?priority=high", "", token)
	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var page PaginatedResponse[TicketDTO]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&page))
	require.Len(t, page.Data, 1)
	assert.Equal(t, "High issue", page.Data[0].Title)
}

func TestTicketHandler_DeleteRequiresAdmin(t *testing.T) {
	router, tokenManager := newTicketRouter()
	userToken := registerUser(t, tokenManager, domain.RoleUser)
	adminToken := registerUser(t, tokenManager, domain.RoleAdmin)

	ticket := createTicket(t, router, userToken, `{"title":"To be removed"}`)

	recorder := doJSON(t, router, stdhttp.MethodDelete, "/tickets/"+ticket.ID, "", userToken)
	assert.Equal(t, stdhttp.StatusForbidden, recorder.Code)

	recorder = doJSON(t, router, stdhttp.MethodDelete, "/tickets/"+ticket.ID, "", adminToken)
	require.Equal(t, stdhttp.StatusNoContent, recorder.Code)

	recorder = doJSON(t, router, stdhttp.MethodGet, "/tickets/"+ticket.ID, "", adminToken)
	assert.Equal(t, stdhttp.StatusNotFound, recorder.Code)
}

func TestTicketHandler_InvalidTicketID(t *testing.T) {
	router, tokenManager := newTicketRouter()
	token := registerUser(t, tokenManager, domain.RoleUser)

	recorder := doJSON(t, router, stdhttp.MethodGet, "/tickets/not-a-uuid", "", token)
	assert.Equal(t, stdhttp.StatusUnprocessableEntity, recorder.Code)
}

func TestTicketHandler_Unauthorized(t *testing.T) {
	router, _ := newTicketRouter()

	recorder := doJSON(t, router, stdhttp.MethodGet, "/tickets", "", "")
	assert.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
}
