package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qadventure/internal/shared/config"
	"qadventure/internal/shared/constants"
)

// transientOAuthMaxAge bounds the lifetime of the state/verifier/nonce
// cookies set while an OAuth flow is in flight.
const transientOAuthMaxAge = 300

// SetSessionCookie sets the session token as an HttpOnly cookie. The cookie
// attributes are the security boundary for authenticated requests: HttpOnly,
// Path=/, SameSite per config (Lax default), Secure when configured for TLS.
func SetSessionCookie(c *gin.Context, cookieConfig config.CookieConfig, token string, maxAge int) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(
		constants.SessionCookie,
		token,
		maxAge,
		cookieConfig.Path,
		cookieConfig.Domain,
		cookieConfig.Secure,
		true, // HttpOnly
	)
}

// ClearSessionCookie removes the session cookie. Called on logout and on any
// session verification failure so the client falls back to the logged-out state.
func ClearSessionCookie(c *gin.Context, cookieConfig config.CookieConfig) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(
		constants.SessionCookie,
		"",
		-1,
		cookieConfig.Path,
		cookieConfig.Domain,
		cookieConfig.Secure,
		true,
	)
}

// SetOAuthFlowCookies sets the transient cookies for a pending OAuth flow.
// Verifier and nonce cookies are only set when the flow uses them.
func SetOAuthFlowCookies(c *gin.Context, cookieConfig config.CookieConfig, state, codeVerifier, nonce string) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	c.SetCookie(constants.OAuthStateCookie, state, transientOAuthMaxAge,
		cookieConfig.Path, cookieConfig.Domain, cookieConfig.Secure, true)
	if codeVerifier != "" {
		c.SetCookie(constants.OAuthCodeVerifierCookie, codeVerifier, transientOAuthMaxAge,
			cookieConfig.Path, cookieConfig.Domain, cookieConfig.Secure, true)
	}
	if nonce != "" {
		c.SetCookie(constants.OAuthNonceCookie, nonce, transientOAuthMaxAge,
			cookieConfig.Path, cookieConfig.Domain, cookieConfig.Secure, true)
	}
}

// ClearOAuthFlowCookies removes the transient OAuth cookies once the callback
// has been consumed, successfully or not.
func ClearOAuthFlowCookies(c *gin.Context, cookieConfig config.CookieConfig) {
	c.SetSameSite(parseSameSite(cookieConfig.SameSite))
	for _, name := range []string{
		constants.OAuthStateCookie,
		constants.OAuthCodeVerifierCookie,
		constants.OAuthNonceCookie,
	} {
		c.SetCookie(name, "", -1, cookieConfig.Path, cookieConfig.Domain, cookieConfig.Secure, true)
	}
}

// GetTokenFromCookie retrieves a token from the named cookie, or "" if absent.
func GetTokenFromCookie(c *gin.Context, cookieName string) string {
	token, err := c.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return token
}

// parseSameSite converts string to http.SameSite
func parseSameSite(sameSite string) http.SameSite {
	switch sameSite {
	case "Strict":
		return http.SameSiteStrictMode
	case "Lax":
		return http.SameSiteLaxMode
	case "None":
		return http.SameSiteNoneMode
	default:
		return http.SameSiteLaxMode
	}
}
