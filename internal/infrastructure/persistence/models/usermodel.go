package models

import (
	"time"

	"qadventure/internal/shared/constants"
)

// UserModel represents the database persistence model for users.
// This is the anti-corruption layer between domain and database.
type UserModel struct {
	ID       uint   `gorm:"primarykey"`
	Email    string `gorm:"uniqueIndex;not null;size:255"`
	Username string `gorm:"uniqueIndex;not null;size:64"`
	// PasswordHash is NULL for OAuth-originated accounts.
	PasswordHash *string `gorm:"size:255"`
	AuthProvider string  `gorm:"not null;default:email;size:32;uniqueIndex:uk_users_provider_identity,priority:1"`
	// ProviderID is NULL for local accounts. The composite unique index keeps
	// one row per external identity while allowing many NULLs for local users.
	ProviderID *string `gorm:"size:255;uniqueIndex:uk_users_provider_identity,priority:2"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM
func (UserModel) TableName() string {
	return constants.TableUsers
}
