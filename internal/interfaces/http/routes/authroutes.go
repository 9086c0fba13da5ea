package routes

import (
	"github.com/gin-gonic/gin"

	"qadventure/internal/interfaces/http/handlers"
	"qadventure/internal/interfaces/http/middleware"
	"qadventure/internal/shared/constants"
)

// AuthRouteConfig holds dependencies for authentication routes.
type AuthRouteConfig struct {
	AuthHandler    *handlers.AuthHandler
	AuthMiddleware *middleware.AuthMiddleware
}

// SetupAuthRoutes configures authentication routes. OAuth routes are
// registered per provider from the fixed provider list rather than with a
// :provider parameter, because gin refuses to mix a wildcard segment with
// static siblings like /auth/me at the same level. Providers without
// credentials still get a route; the handler rejects them with 400.
func SetupAuthRoutes(engine *gin.Engine, cfg *AuthRouteConfig) {
	auth := engine.Group("/auth")
	{
		auth.POST("/local/register", cfg.AuthHandler.Register)
		auth.POST("/local/login", cfg.AuthHandler.Login)
		auth.POST("/logout", cfg.AuthHandler.Logout)
		auth.GET("/me", cfg.AuthMiddleware.RequireSession(), cfg.AuthHandler.GetCurrentUser)

		for _, provider := range constants.OAuthProviders {
			auth.GET("/"+provider+"/login", cfg.AuthHandler.InitiateOAuth(provider))
			auth.GET("/"+provider+"/callback", cfg.AuthHandler.HandleOAuthCallback(provider))
		}
	}
}
