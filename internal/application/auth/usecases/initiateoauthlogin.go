package usecases

import (
	"context"
	"fmt"

	"qadventure/internal/infrastructure/auth"
	"qadventure/internal/infrastructure/cache"
	apperrors "qadventure/internal/shared/errors"
	"qadventure/internal/shared/logger"
)

type InitiateOAuthLoginCommand struct {
	Provider string
}

// InitiateOAuthLoginResult carries everything the handler needs to start the
// flow: the redirect target plus the values to pin in transient cookies.
type InitiateOAuthLoginResult struct {
	AuthURL      string
	State        string
	CodeVerifier string
	Nonce        string
}

// InitiateOAuthLoginUseCase starts an OAuth flow: it generates the state,
// builds the provider authorization URL, and records the pending flow so the
// callback can verify and redeem it exactly once.
type InitiateOAuthLoginUseCase struct {
	registry  OAuthProviderRegistry
	flowStore FlowStore
	logger    logger.Interface
}

func NewInitiateOAuthLoginUseCase(
	registry OAuthProviderRegistry,
	flowStore FlowStore,
	logger logger.Interface,
) *InitiateOAuthLoginUseCase {
	return &InitiateOAuthLoginUseCase{
		registry:  registry,
		flowStore: flowStore,
		logger:    logger,
	}
}

func (uc *InitiateOAuthLoginUseCase) Execute(ctx context.Context, cmd InitiateOAuthLoginCommand) (*InitiateOAuthLoginResult, error) {
	client, err := uc.registry.Client(cmd.Provider)
	if err != nil {
		return nil, apperrors.NewBadRequestError(fmt.Sprintf("unknown provider: %s", cmd.Provider))
	}

	state, err := auth.GenerateState()
	if err != nil {
		uc.logger.Errorw("failed to generate state", "error", err)
		return nil, fmt.Errorf("failed to generate state: %w", err)
	}

	authURL, codeVerifier, nonce, err := client.GetAuthURL(state)
	if err != nil {
		uc.logger.Errorw("failed to build auth url", "error", err, "provider", cmd.Provider)
		return nil, fmt.Errorf("failed to build auth url: %w", err)
	}

	flow := cache.PendingFlow{
		Provider:     cmd.Provider,
		CodeVerifier: codeVerifier,
		Nonce:        nonce,
	}
	if err := uc.flowStore.Set(ctx, state, flow); err != nil {
		uc.logger.Errorw("failed to store pending flow", "error", err, "provider", cmd.Provider)
		return nil, fmt.Errorf("failed to store pending flow: %w", err)
	}

	uc.logger.Infow("oauth login initiated", "provider", cmd.Provider)

	return &InitiateOAuthLoginResult{
		AuthURL:      authURL,
		State:        state,
		CodeVerifier: codeVerifier,
		Nonce:        nonce,
	}, nil
}
