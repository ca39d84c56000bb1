package domain

import (
	"net/mail"
	"time"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/helpdex/helpdesk-backend/internal/core/errors"
)

// Role determines what a user may do across the API.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
	RoleAdmin Role = "admin"
)

// IsValid reports whether the role is one of the known values.
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

const minPasswordLength = 8

// User is a registered account.
type User struct {
	ID           uuid.UUID
	FullName     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// NewUser creates a valid user with a bcrypt hashed password.
func NewUser(fullName, email, password string) (*User, error) {
	if fullName == "" {
		return nil, apperrors.ErrFullNameRequired
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	return &User{
		FullName:     fullName,
		Email:        email,
		PasswordHash: string(hash),
		Role:         RoleUser,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// CheckPassword compares a plaintext password against the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}

// RecordLogin stamps the last successful authentication time.
func (u *User) RecordLogin() {
	now := time.Now().UTC()
	u.LastLogin = &now
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CanManageTickets reports whether the user may act on tickets they do not own.
func (u *User) CanManageTickets() bool {
	return u.Role == RoleAgent || u.Role == RoleAdmin
}

// ValidateEmail checks that the address is present and parseable.
func ValidateEmail(email string) error {
	if email == "" {
		return apperrors.ErrEmailRequired
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return apperrors.ErrEmailInvalid
	}
	return nil
}

// ValidatePassword enforces the minimum password policy: at least eight
// characters with one upper, one lower and one digit.
func ValidatePassword(password string) error {
	if password == "" {
		return apperrors.ErrPasswordRequired
	}
	if len(password) < minPasswordLength {
		return apperrors.ErrPasswordTooWeak
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return apperrors.ErrPasswordTooWeak
	}
	return nil
}
