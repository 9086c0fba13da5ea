package usecases

import (
	"context"
	"fmt"

	"qadventure/internal/domain/user"
	"qadventure/internal/shared/constants"
	apperrors "qadventure/internal/shared/errors"
	"qadventure/internal/shared/logger"
)

type LoginWithPasswordCommand struct {
	Email    string
	Password string
}

type LoginWithPasswordResult struct {
	User         *user.User
	SessionToken string
}

// LoginWithPasswordUseCase authenticates a local account. Every failure
// path returns the same invalid-credentials error so responses cannot be
// used to probe which emails are registered.
type LoginWithPasswordUseCase struct {
	userRepo       user.Repository
	passwordHasher PasswordHasher
	sessionIssuer  SessionIssuer
	logger         logger.Interface
}

func NewLoginWithPasswordUseCase(
	userRepo user.Repository,
	passwordHasher PasswordHasher,
	sessionIssuer SessionIssuer,
	logger logger.Interface,
) *LoginWithPasswordUseCase {
	return &LoginWithPasswordUseCase{
		userRepo:       userRepo,
		passwordHasher: passwordHasher,
		sessionIssuer:  sessionIssuer,
		logger:         logger,
	}
}

func (uc *LoginWithPasswordUseCase) Execute(ctx context.Context, cmd LoginWithPasswordCommand) (*LoginWithPasswordResult, error) {
	existingUser, err := uc.userRepo.GetByEmailAndProvider(ctx, normalizeEmail(cmd.Email), constants.ProviderEmail)
	if err != nil {
		uc.logger.Errorw("failed to get user by email", "error", err)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	// Unknown email, OAuth-only account, or wrong password all collapse to
	// the same error
	if existingUser == nil || existingUser.PasswordHash() == "" {
		return nil, apperrors.NewInvalidCredentialsError()
	}

	if err := uc.passwordHasher.Verify(cmd.Password, existingUser.PasswordHash()); err != nil {
		return nil, apperrors.NewInvalidCredentialsError()
	}

	token, err := uc.sessionIssuer.Issue(existingUser.ID(), existingUser.Email())
	if err != nil {
		uc.logger.Errorw("failed to issue session token", "error", err, "user_id", existingUser.ID())
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	uc.logger.Infow("user logged in", "user_id", existingUser.ID())

	return &LoginWithPasswordResult{
		User:         existingUser,
		SessionToken: token,
	}, nil
}
