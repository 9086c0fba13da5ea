package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Authentication-specific error types
const (
	ErrorTypeInvalidCredentials ErrorType = "invalid_credentials"
	ErrorTypeInvalidSession     ErrorType = "invalid_session"
	ErrorTypeInvalidState       ErrorType = "invalid_state"
	ErrorTypeTokenExchange      ErrorType = "token_exchange_failed"
	ErrorTypeProfileFetch       ErrorType = "profile_fetch_failed"
	ErrorTypeMissingIdentity    ErrorType = "missing_provider_identity"
	ErrorTypeProviderCollision  ErrorType = "email_exists_different_provider"
)

// AuthError represents authentication-specific errors with enhanced security context
type AuthError struct {
	*AppError
	// ShouldLog determines if this error should be logged.
	// Some auth errors (like invalid credentials) are expected and don't need error-level logging.
	ShouldLog bool
	// SecurityEvent indicates if this should be tracked as a security event
	SecurityEvent bool
}

// Error implements the error interface
func (e *AuthError) Error() string {
	return e.AppError.Error()
}

// Unwrap allows errors.Is and errors.As to work correctly
func (e *AuthError) Unwrap() error {
	return e.AppError
}

// NewInvalidCredentialsError creates an error for invalid login credentials.
// The message is identical for a wrong password, an unknown email, and an
// OAuth-only account so the error text cannot be used for enumeration.
func NewInvalidCredentialsError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeInvalidCredentials,
			Message: "Invalid email or password",
			Code:    http.StatusUnauthorized,
		},
		ShouldLog:     false,
		SecurityEvent: true, // track for brute force detection
	}
}

// NewInvalidSessionError creates an error for missing, expired or tampered
// session tokens. Callers must clear the session cookie when returning it.
func NewInvalidSessionError() *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeInvalidSession,
			Message: "Invalid or expired session",
			Code:    http.StatusUnauthorized,
		},
		ShouldLog:     false,
		SecurityEvent: false,
	}
}

// NewInvalidStateError creates an error for a failed OAuth state check:
// unknown, expired, replayed, or bound to a different provider.
func NewInvalidStateError(details ...string) *AuthError {
	detail := "State parameter is unknown, expired, or already used"
	if len(details) > 0 {
		detail = details[0]
	}
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeInvalidState,
			Message: "Invalid OAuth state",
			Code:    http.StatusBadRequest,
			Details: detail,
		},
		ShouldLog:     true, // may indicate CSRF or replay
		SecurityEvent: true,
	}
}

// NewTokenExchangeError creates an error for a failed authorization-code
// exchange. The provider's raw error body must never reach the client.
func NewTokenExchangeError(provider string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeTokenExchange,
			Message: fmt.Sprintf("Failed to exchange authorization code with %s", provider),
			Code:    http.StatusBadGateway,
		},
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// NewProfileFetchError creates an error for a failed user-info request.
func NewProfileFetchError(provider string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeProfileFetch,
			Message: fmt.Sprintf("Failed to fetch user profile from %s", provider),
			Code:    http.StatusBadGateway,
		},
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// NewMissingIdentityError creates an error for an OAuth profile missing a
// usable subject id or email. We never proceed with a synthetic identity.
func NewMissingIdentityError(provider string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeMissingIdentity,
			Message: fmt.Sprintf("%s did not provide a usable identity", provider),
			Code:    http.StatusBadGateway,
		},
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// NewProviderCollisionError creates an error for an OAuth login whose email
// already belongs to an account under a different provider. The login is
// rejected rather than silently merging accounts.
func NewProviderCollisionError(email, existingProvider string) *AuthError {
	return &AuthError{
		AppError: &AppError{
			Type:    ErrorTypeProviderCollision,
			Message: "Email already registered under a different sign-in method",
			Code:    http.StatusConflict,
			Details: fmt.Sprintf("email %s is owned by provider %s", email, existingProvider),
		},
		ShouldLog:     true,
		SecurityEvent: false,
	}
}

// IsAuthError checks if the error is an AuthError (supports wrapped errors via errors.As)
func IsAuthError(err error) bool {
	var authErr *AuthError
	return stderrors.As(err, &authErr)
}

// GetAuthError extracts AuthError from error chain (supports wrapped errors via errors.As)
func GetAuthError(err error) *AuthError {
	var authErr *AuthError
	if stderrors.As(err, &authErr) {
		return authErr
	}
	return nil
}

// IsAuthErrorType reports whether err carries an AuthError of the given type.
func IsAuthErrorType(err error, t ErrorType) bool {
	authErr := GetAuthError(err)
	return authErr != nil && authErr.Type == t
}

// ShouldLogAuthError returns true if the authentication error should be logged.
// This helps reduce noise in logs from expected auth failures.
func ShouldLogAuthError(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.ShouldLog
	}
	return true
}

// IsSecurityEvent returns true if the error should be tracked as a security event
func IsSecurityEvent(err error) bool {
	if authErr := GetAuthError(err); authErr != nil {
		return authErr.SecurityEvent
	}
	return false
}
