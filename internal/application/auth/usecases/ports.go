package usecases

import (
	"context"
	"strings"

	"qadventure/internal/infrastructure/auth"
	"qadventure/internal/infrastructure/cache"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) error
}

// SessionIssuer signs session tokens for authenticated users.
type SessionIssuer interface {
	Issue(userID uint, email string) (string, error)
	MaxAgeSeconds() int
}

// OAuthProviderRegistry resolves configured OAuth clients by name.
type OAuthProviderRegistry interface {
	Client(name string) (auth.OAuthClient, error)
	Providers() []string
}

// FlowStore persists pending OAuth flows keyed by state, single use.
type FlowStore interface {
	Set(ctx context.Context, state string, flow cache.PendingFlow) error
	Consume(ctx context.Context, state string) (*cache.PendingFlow, error)
}

// normalizeEmail canonicalizes an email the same way the user entity does on
// write. Every lookup must go through it, or a mixed-case login would miss
// the stored lowercase row.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
