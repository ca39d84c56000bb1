package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/helpdex/helpdesk-backend/internal/core/domain"
	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
	"github.com/helpdex/helpdesk-backend/internal/core/mocks"
	"github.com/helpdex/helpdesk-backend/internal/core/services"
)

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByEmail", ctx, "ada@example.com").Return(nil, apperrors.ErrUserNotFound)
		mockRepo.On("Create", ctx, mock.AnythingOfType("*domain.User")).
			Return(&domain.User{FullName: "Ada Lovelace", Email: "ada@example.com", Role: domain.RoleUser}, nil)

		user, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "Sup3rSecret")

		require.NoError(t, err)
		assert.Equal(t, "ada@example.com", user.Email)
		mockRepo.AssertExpectations(t)
	})

	t.Run("duplicate email", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByEmail", ctx, "ada@example.com").
			Return(&domain.User{Email: "ada@example.com"}, nil)

		user, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "Sup3rSecret")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrUserExists)
		mockRepo.AssertNotCalled(t, "Create")
	})

	t.Run("weak password", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByEmail", ctx, "ada@example.com").Return(nil, apperrors.ErrUserNotFound)

		user, err := svc.Register(ctx, "Ada Lovelace", "ada@example.com", "short")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrPasswordTooWeak)
		mockRepo.AssertNotCalled(t, "Create")
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()

	newStoredUser := func(t *testing.T) *domain.User {
		t.Helper()
		user, err := domain.NewUser("Ada Lovelace", "ada@example.com", "Sup3rSecret")
		require.NoError(t, err)
		return user
	}

	t.Run("success records last login", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)
		stored := newStoredUser(t)

		mockRepo.On("GetByEmail", ctx, "ada@example.com").Return(stored, nil)
		mockRepo.On("UpdateLastLogin", ctx, stored.ID, mock.AnythingOfType("time.Time")).Return(nil)

		user, err := svc.Login(ctx, "ada@example.com", "Sup3rSecret")

		require.NoError(t, err)
		assert.NotNil(t, user.LastLogin)
		mockRepo.AssertExpectations(t)
	})

	t.Run("wrong password", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByEmail", ctx, "ada@example.com").Return(newStoredUser(t), nil)

		user, err := svc.Login(ctx, "ada@example.com", "WrongPass1")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
		mockRepo.AssertNotCalled(t, "UpdateLastLogin")
	})

	t.Run("unknown email is reported as invalid credentials", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		mockRepo.On("GetByEmail", ctx, "ghost@example.com").Return(nil, apperrors.ErrUserNotFound)

		user, err := svc.Login(ctx, "ghost@example.com", "Sup3rSecret")

		assert.Nil(t, user)
		assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	})

	t.Run("missing fields", func(t *testing.T) {
		mockRepo := mocks.NewMockUserRepository()
		svc := services.NewAuthService(mockRepo)

		_, err := svc.Login(ctx, "", "Sup3rSecret")
		assert.ErrorIs(t, err, apperrors.ErrEmailRequired)

		_, err = svc.Login(ctx, "ada@example.com", "")
		assert.ErrorIs(t, err, apperrors.ErrPasswordRequired)
	})
}
