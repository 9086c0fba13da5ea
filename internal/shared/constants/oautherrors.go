package constants

// OAuthErrorCode represents machine-readable OAuth error codes carried in the
// authError query parameter of the login redirect. Detailed causes are logged
// server side only; the frontend keys a human-readable message off the code.
type OAuthErrorCode string

const (
	// Provider-reported errors (from the callback query string)
	OAuthErrorAccessDenied OAuthErrorCode = "access_denied"

	// Internal errors
	OAuthErrorMissingParams OAuthErrorCode = "missing_params"
	OAuthErrorInvalidState  OAuthErrorCode = "invalid_state"
	OAuthErrorFailed        OAuthErrorCode = "oauth_failed"

	// Account-linking conflict: the email already belongs to an account under
	// a different provider. Surfaced specifically so the user can act on it.
	OAuthErrorEmailExistsDifferentProvider OAuthErrorCode = "email_exists_different_provider"
)

// OAuthErrorMessages maps error codes to user-friendly messages shown on the
// login screen.
var OAuthErrorMessages = map[OAuthErrorCode]string{
	OAuthErrorAccessDenied:                 "You denied the authorization request. Please try again if you wish to continue.",
	OAuthErrorMissingParams:                "The sign-in response was incomplete. Please try logging in again.",
	OAuthErrorInvalidState:                 "Security validation failed or the sign-in link expired. Please try again.",
	OAuthErrorFailed:                       "Failed to complete authentication. Please try again.",
	OAuthErrorEmailExistsDifferentProvider: "An account with this email already exists under a different sign-in method. Please log in with the method you originally used.",
}

// GetOAuthErrorMessage returns a user-friendly error message for a code.
func GetOAuthErrorMessage(code OAuthErrorCode) string {
	if msg, ok := OAuthErrorMessages[code]; ok {
		return msg
	}
	return "An unexpected error occurred during authentication. Please try again."
}
