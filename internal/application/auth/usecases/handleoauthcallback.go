package usecases

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"

	"qadventure/internal/domain/user"
	apperrors "qadventure/internal/shared/errors"
	"qadventure/internal/shared/logger"
)

type HandleOAuthCallbackCommand struct {
	Provider string
	Code     string
	State    string
	// CookieState is the state value pinned in the browser cookie when the
	// flow started. It must match the query parameter exactly.
	CookieState string
}

type HandleOAuthCallbackResult struct {
	User         *user.User
	SessionToken string
	IsNewUser    bool
}

// HandleOAuthCallbackUseCase completes an OAuth flow: it redeems the state,
// exchanges the code, fetches the profile, and resolves it to an account.
// An email already owned by a different provider rejects the login instead of
// merging accounts.
type HandleOAuthCallbackUseCase struct {
	userRepo      user.Repository
	registry      OAuthProviderRegistry
	flowStore     FlowStore
	sessionIssuer SessionIssuer
	logger        logger.Interface
}

func NewHandleOAuthCallbackUseCase(
	userRepo user.Repository,
	registry OAuthProviderRegistry,
	flowStore FlowStore,
	sessionIssuer SessionIssuer,
	logger logger.Interface,
) *HandleOAuthCallbackUseCase {
	return &HandleOAuthCallbackUseCase{
		userRepo:      userRepo,
		registry:      registry,
		flowStore:     flowStore,
		sessionIssuer: sessionIssuer,
		logger:        logger,
	}
}

func (uc *HandleOAuthCallbackUseCase) Execute(ctx context.Context, cmd HandleOAuthCallbackCommand) (*HandleOAuthCallbackResult, error) {
	client, err := uc.registry.Client(cmd.Provider)
	if err != nil {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown provider: %s", cmd.Provider))
	}

	// The cookie binds the flow to the browser that started it
	if cmd.CookieState == "" ||
		subtle.ConstantTimeCompare([]byte(cmd.CookieState), []byte(cmd.State)) != 1 {
		return nil, apperrors.NewInvalidStateError("state cookie missing or mismatched")
	}

	// Atomically redeem the state; replays and expired flows fail here
	flow, err := uc.flowStore.Consume(ctx, cmd.State)
	if err != nil {
		return nil, apperrors.NewInvalidStateError()
	}
	if flow.Provider != cmd.Provider {
		return nil, apperrors.NewInvalidStateError("state was issued for a different provider")
	}

	accessToken, err := client.ExchangeCode(ctx, cmd.Code, flow.CodeVerifier)
	if err != nil {
		uc.logger.Errorw("failed to exchange code", "error", err, "provider", cmd.Provider)
		return nil, apperrors.NewTokenExchangeError(cmd.Provider)
	}

	profile, err := client.FetchProfile(ctx, accessToken)
	if err != nil {
		if apperrors.IsAuthErrorType(err, apperrors.ErrorTypeMissingIdentity) {
			return nil, err
		}
		uc.logger.Errorw("failed to fetch profile", "error", err, "provider", cmd.Provider)
		return nil, apperrors.NewProfileFetchError(cmd.Provider)
	}
	if profile.ProviderID == "" || profile.Email == "" {
		return nil, apperrors.NewMissingIdentityError(cmd.Provider)
	}

	existingUser, isNewUser, err := uc.resolveAccount(ctx, cmd.Provider, profile.ProviderID, normalizeEmail(profile.Email), profile.Username)
	if err != nil {
		return nil, err
	}

	token, err := uc.sessionIssuer.Issue(existingUser.ID(), existingUser.Email())
	if err != nil {
		uc.logger.Errorw("failed to issue session token", "error", err, "user_id", existingUser.ID())
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	uc.logger.Infow("oauth login successful",
		"user_id", existingUser.ID(),
		"provider", cmd.Provider,
		"is_new_user", isNewUser)

	return &HandleOAuthCallbackResult{
		User:         existingUser,
		SessionToken: token,
		IsNewUser:    isNewUser,
	}, nil
}

// resolveAccount maps an external identity onto an account. The provider
// identity is authoritative; email is only used to detect collisions with
// accounts created under another sign-in method.
func (uc *HandleOAuthCallbackUseCase) resolveAccount(ctx context.Context, provider, providerID, email, username string) (*user.User, bool, error) {
	existing, err := uc.userRepo.GetByProviderIdentity(ctx, provider, providerID)
	if err != nil {
		uc.logger.Errorw("failed to get user by provider identity", "error", err)
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}
	if existing != nil {
		return existing, false, nil
	}

	byEmail, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		uc.logger.Errorw("failed to get user by email", "error", err)
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}
	if byEmail != nil {
		if byEmail.AuthProvider() != provider {
			// No writes happen on this path; the account stays untouched
			return nil, false, apperrors.NewProviderCollisionError(email, byEmail.AuthProvider())
		}
		// Same provider but a different subject id claiming the same email
		// should not happen; refuse rather than guess
		return nil, false, apperrors.NewConflictError("account already exists")
	}

	created, err := uc.createOAuthUser(ctx, email, username, provider, providerID)
	if err != nil {
		return nil, false, err
	}
	return created, true, nil
}

// createOAuthUser creates the account, retrying once with a random suffix if
// the derived username is already taken.
func (uc *HandleOAuthCallbackUseCase) createOAuthUser(ctx context.Context, email, username, provider, providerID string) (*user.User, error) {
	newUser, err := user.NewOAuthUser(email, username, provider, providerID)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := uc.userRepo.Create(ctx, newUser); err == nil {
		return newUser, nil
	} else if !apperrors.IsConflictError(err) {
		uc.logger.Errorw("failed to create oauth user", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	suffix := make([]byte, 3)
	if _, err := rand.Read(suffix); err != nil {
		return nil, fmt.Errorf("failed to generate username suffix: %w", err)
	}
	retryName := fmt.Sprintf("%s_%s", username, hex.EncodeToString(suffix))

	retryUser, err := user.NewOAuthUser(email, retryName, provider, providerID)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}
	if err := uc.userRepo.Create(ctx, retryUser); err != nil {
		uc.logger.Errorw("failed to create oauth user after retry", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return retryUser, nil
}
