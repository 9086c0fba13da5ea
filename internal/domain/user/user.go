// Package user contains the user aggregate for the credential store.
// A user is either local (has a password hash) or OAuth-originated (has a
// provider identity), never both.
package user

import (
	"strings"
	"time"

	"qadventure/internal/shared/biztime"
	"qadventure/internal/shared/constants"
)

// User is the credential store aggregate.
type User struct {
	id           uint
	email        string
	username     string
	passwordHash string // empty for OAuth users
	authProvider string // "email" for local users, provider name otherwise
	providerID   string // empty for local users
	createdAt    time.Time
	updatedAt    time.Time
}

// NewLocalUser creates a user that authenticates with email and password.
// passwordHash must already be a bcrypt hash; raw passwords never enter the domain.
func NewLocalUser(email, username, passwordHash string) (*User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(username) == "" {
		return nil, ErrUsernameRequired
	}
	if passwordHash == "" {
		return nil, ErrPasswordHashRequired
	}

	now := biztime.NowUTC()
	return &User{
		email:        email,
		username:     username,
		passwordHash: passwordHash,
		authProvider: constants.ProviderEmail,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// NewOAuthUser creates a user originating from an OAuth provider callback.
func NewOAuthUser(email, username, provider, providerID string) (*User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if strings.TrimSpace(username) == "" {
		return nil, ErrUsernameRequired
	}
	if provider == "" || provider == constants.ProviderEmail {
		return nil, ErrInvalidProvider
	}
	if providerID == "" {
		return nil, ErrProviderIDRequired
	}

	now := biztime.NowUTC()
	return &User{
		email:        email,
		username:     username,
		authProvider: provider,
		providerID:   providerID,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a user from persistence. It bypasses creation
// validation; the stored row is trusted.
func Reconstruct(id uint, email, username, passwordHash, authProvider, providerID string, createdAt, updatedAt time.Time) *User {
	return &User{
		id:           id,
		email:        email,
		username:     username,
		passwordHash: passwordHash,
		authProvider: authProvider,
		providerID:   providerID,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

func (u *User) ID() uint             { return u.id }
func (u *User) Email() string        { return u.email }
func (u *User) Username() string     { return u.username }
func (u *User) PasswordHash() string { return u.passwordHash }
func (u *User) AuthProvider() string { return u.authProvider }
func (u *User) ProviderID() string   { return u.providerID }
func (u *User) CreatedAt() time.Time { return u.createdAt }
func (u *User) UpdatedAt() time.Time { return u.updatedAt }

// IsLocal reports whether the user authenticates with a password.
func (u *User) IsLocal() bool {
	return u.authProvider == constants.ProviderEmail
}

// SetID assigns the database identity after insertion.
func (u *User) SetID(id uint) error {
	if u.id != 0 {
		return ErrIDAlreadySet
	}
	if id == 0 {
		return ErrInvalidID
	}
	u.id = id
	return nil
}

// ChangeUsername replaces the username, bumping updatedAt.
func (u *User) ChangeUsername(username string) error {
	if strings.TrimSpace(username) == "" {
		return ErrUsernameRequired
	}
	u.username = username
	u.updatedAt = biztime.NowUTC()
	return nil
}

// DisplayInfo returns the fields safe to expose to the client.
func (u *User) DisplayInfo() map[string]interface{} {
	return map[string]interface{}{
		"id":            u.id,
		"email":         u.email,
		"username":      u.username,
		"auth_provider": u.authProvider,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) error {
	if email == "" {
		return ErrEmailRequired
	}
	at := strings.IndexByte(email, '@')
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at+1:], ".") {
		return ErrEmailInvalid
	}
	return nil
}
