package user

import "errors"

var (
	ErrEmailRequired        = errors.New("email is required")
	ErrEmailInvalid         = errors.New("email is invalid")
	ErrUsernameRequired     = errors.New("username is required")
	ErrPasswordHashRequired = errors.New("password hash is required")
	ErrInvalidProvider      = errors.New("invalid auth provider")
	ErrProviderIDRequired   = errors.New("provider user id is required")
	ErrIDAlreadySet         = errors.New("user id already set")
	ErrInvalidID            = errors.New("user id must be positive")
)
