package usecases

import (
	"context"
	"fmt"

	"qadventure/internal/domain/user"
	apperrors "qadventure/internal/shared/errors"
	"qadventure/internal/shared/logger"
)

type RegisterUserCommand struct {
	Email    string
	Username string
	Password string
}

type RegisterUserResult struct {
	User         *user.User
	SessionToken string
}

// RegisterUserUseCase creates a local account and signs the user in.
type RegisterUserUseCase struct {
	userRepo       user.Repository
	passwordHasher PasswordHasher
	sessionIssuer  SessionIssuer
	logger         logger.Interface
}

func NewRegisterUserUseCase(
	userRepo user.Repository,
	passwordHasher PasswordHasher,
	sessionIssuer SessionIssuer,
	logger logger.Interface,
) *RegisterUserUseCase {
	return &RegisterUserUseCase{
		userRepo:       userRepo,
		passwordHasher: passwordHasher,
		sessionIssuer:  sessionIssuer,
		logger:         logger,
	}
}

func (uc *RegisterUserUseCase) Execute(ctx context.Context, cmd RegisterUserCommand) (*RegisterUserResult, error) {
	email := normalizeEmail(cmd.Email)

	exists, err := uc.userRepo.ExistsByEmailOrUsername(ctx, email, cmd.Username)
	if err != nil {
		uc.logger.Errorw("failed to check user existence", "error", err)
		return nil, fmt.Errorf("failed to check user existence: %w", err)
	}
	if exists {
		return nil, apperrors.NewConflictError("email or username already in use")
	}

	hash, err := uc.passwordHasher.Hash(cmd.Password)
	if err != nil {
		uc.logger.Errorw("failed to hash password", "error", err)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	newUser, err := user.NewLocalUser(email, cmd.Username, hash)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := uc.userRepo.Create(ctx, newUser); err != nil {
		// The existence check raced with a concurrent registration; the
		// unique constraint is the arbiter.
		if apperrors.IsConflictError(err) {
			return nil, apperrors.NewConflictError("email or username already in use")
		}
		uc.logger.Errorw("failed to create user", "error", err)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := uc.sessionIssuer.Issue(newUser.ID(), newUser.Email())
	if err != nil {
		uc.logger.Errorw("failed to issue session token", "error", err, "user_id", newUser.ID())
		return nil, fmt.Errorf("failed to issue session token: %w", err)
	}

	uc.logger.Infow("user registered", "user_id", newUser.ID())

	return &RegisterUserResult{
		User:         newUser,
		SessionToken: token,
	}, nil
}
