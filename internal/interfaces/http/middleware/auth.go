package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"qadventure/internal/infrastructure/auth"
	sharedConfig "qadventure/internal/shared/config"
	"qadventure/internal/shared/constants"
	"qadventure/internal/shared/logger"
	"qadventure/internal/shared/utils"
)

// AuthMiddleware guards routes behind a valid session cookie. The cookie is
// the only accepted credential; there is no Authorization header fallback.
type AuthMiddleware struct {
	tokenService *auth.SessionTokenService
	cookieConfig sharedConfig.CookieConfig
	logger       logger.Interface
}

func NewAuthMiddleware(tokenService *auth.SessionTokenService, cookieConfig sharedConfig.CookieConfig, logger logger.Interface) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		cookieConfig: cookieConfig,
		logger:       logger,
	}
}

// RequireSession verifies the session cookie. Any failure clears the cookie
// so the client drops back to the logged-out state instead of retrying a
// dead token forever.
func (m *AuthMiddleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := utils.GetTokenFromCookie(c, constants.SessionCookie)
		if token == "" {
			utils.ErrorResponse(c, http.StatusUnauthorized, "missing session")
			c.Abort()
			return
		}

		claims, err := m.tokenService.Verify(token)
		if err != nil {
			m.logger.Debugw("session verification failed", "error", err)
			utils.ClearSessionCookie(c, m.cookieConfig)
			utils.ErrorResponse(c, http.StatusUnauthorized, "invalid or expired session")
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyUserID, claims.UserID)
		c.Set(constants.ContextKeyUserEmail, claims.Email)

		c.Next()
	}
}
