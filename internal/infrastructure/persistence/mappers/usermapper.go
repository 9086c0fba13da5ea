package mappers

import (
	"qadventure/internal/domain/user"
	"qadventure/internal/infrastructure/persistence/models"
)

// UserMapper handles the conversion between domain entities and persistence models
type UserMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.UserModel) (*user.User, error)

	// ToModel converts a domain entity to a persistence model
	ToModel(entity *user.User) (*models.UserModel, error)
}

// UserMapperImpl is the concrete implementation of UserMapper
type UserMapperImpl struct{}

// NewUserMapper creates a new user mapper
func NewUserMapper() UserMapper {
	return &UserMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity
func (m *UserMapperImpl) ToEntity(model *models.UserModel) (*user.User, error) {
	if model == nil {
		return nil, nil
	}

	var passwordHash string
	if model.PasswordHash != nil {
		passwordHash = *model.PasswordHash
	}
	var providerID string
	if model.ProviderID != nil {
		providerID = *model.ProviderID
	}

	return user.Reconstruct(
		model.ID,
		model.Email,
		model.Username,
		passwordHash,
		model.AuthProvider,
		providerID,
		model.CreatedAt,
		model.UpdatedAt,
	), nil
}

// ToModel converts a domain entity to a persistence model
func (m *UserMapperImpl) ToModel(entity *user.User) (*models.UserModel, error) {
	if entity == nil {
		return nil, nil
	}

	model := &models.UserModel{
		ID:           entity.ID(),
		Email:        entity.Email(),
		Username:     entity.Username(),
		AuthProvider: entity.AuthProvider(),
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}

	if hash := entity.PasswordHash(); hash != "" {
		model.PasswordHash = &hash
	}
	if pid := entity.ProviderID(); pid != "" {
		model.ProviderID = &pid
	}

	return model, nil
}
