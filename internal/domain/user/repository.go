package user

import "context"

// Repository defines the interface for user data operations. All operations
// are single-row and parameterized; uniqueness is enforced by the store's
// constraints, surfaced as conflict errors by the implementation.
type Repository interface {
	// Create inserts a new user and assigns its ID.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by internal ID. Returns nil, nil when absent.
	GetByID(ctx context.Context, id uint) (*User, error)

	// GetByEmail retrieves a user by email across all providers.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// GetByEmailAndProvider retrieves a user by (email, auth_provider).
	GetByEmailAndProvider(ctx context.Context, email, provider string) (*User, error)

	// GetByProviderIdentity retrieves a user by (auth_provider, provider_id).
	GetByProviderIdentity(ctx context.Context, provider, providerID string) (*User, error)

	// ExistsByEmailOrUsername reports whether any user holds the email or the
	// username, under any provider.
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)

	// Update persists changes to an existing user.
	Update(ctx context.Context, user *User) error
}
