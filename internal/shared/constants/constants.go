package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderUserAgent     = "User-Agent"

	// Content Types
	ContentTypeJSON = "application/json"
	ContentTypeForm = "application/x-www-form-urlencoded"

	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeyUserEmail = "user_email"
	ContextKeyRequestID = "request_id"

	// Auth providers
	ProviderEmail    = "email"
	ProviderGoogle   = "google"
	ProviderFacebook = "facebook"
	ProviderGitHub   = "github"

	// Cookie names. The session cookie name is part of the external
	// contract with the frontend and must stay stable.
	SessionCookie           = "qa_session"
	OAuthStateCookie        = "oauth_state"
	OAuthCodeVerifierCookie = "oauth_code_verifier"
	OAuthNonceCookie        = "oauth_nonce"

	// Database table names
	TableUsers = "users"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgValidationFailed    = "Validation failed"
	ErrMsgConflict            = "Resource already exists"
)

// OAuthProviders lists the OAuth providers this application understands.
// The set is fixed at compile time; whether a provider is usable depends
// on it having credentials in the configuration.
var OAuthProviders = []string{ProviderGoogle, ProviderFacebook, ProviderGitHub}
