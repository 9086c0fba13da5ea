package usecases

import (
	"context"
	"fmt"

	"qadventure/internal/domain/user"
	apperrors "qadventure/internal/shared/errors"
	"qadventure/internal/shared/logger"
)

// GetCurrentUserUseCase loads the account behind a verified session. A
// session whose user row has disappeared counts as an invalid session.
type GetCurrentUserUseCase struct {
	userRepo user.Repository
	logger   logger.Interface
}

func NewGetCurrentUserUseCase(userRepo user.Repository, logger logger.Interface) *GetCurrentUserUseCase {
	return &GetCurrentUserUseCase{
		userRepo: userRepo,
		logger:   logger,
	}
}

func (uc *GetCurrentUserUseCase) Execute(ctx context.Context, userID uint) (*user.User, error) {
	existingUser, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		uc.logger.Errorw("failed to get user", "error", err, "user_id", userID)
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if existingUser == nil {
		return nil, apperrors.NewInvalidSessionError()
	}

	return existingUser, nil
}
