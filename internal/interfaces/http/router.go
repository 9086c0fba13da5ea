package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"qadventure/internal/application/auth/usecases"
	"qadventure/internal/infrastructure/auth"
	"qadventure/internal/infrastructure/cache"
	"qadventure/internal/infrastructure/config"
	"qadventure/internal/infrastructure/repository"
	"qadventure/internal/interfaces/http/handlers"
	"qadventure/internal/interfaces/http/middleware"
	"qadventure/internal/interfaces/http/routes"
	"qadventure/internal/shared/logger"
	"qadventure/internal/shared/utils"
)

// oauthStateTTL bounds how long a pending OAuth flow stays redeemable.
const oauthStateTTL = 10 * time.Minute

// Router wires the HTTP surface together.
type Router struct {
	engine *gin.Engine
}

// NewRouter builds the gin engine with all middleware, dependencies and
// routes. The provider registry is constructed once here and never mutated;
// changing OAuth credentials requires a restart.
func NewRouter(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Router {
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	utils.RegisterValidators()

	engine := gin.New()
	engine.Use(middleware.Recovery())
	engine.Use(middleware.RequestLogger(logger.NewLogger().Named("http")))
	engine.Use(middleware.CORS([]string{cfg.Server.BaseURL}))

	log := logger.NewLogger()

	userRepo := repository.NewUserRepository(db, log.Named("repository.user"))
	passwordHasher := auth.NewBcryptPasswordHasher(cfg.Auth.Password.BcryptCost)
	sessionTokens := auth.NewSessionTokenService(cfg.Auth.Session.Secret, cfg.Auth.Session.ExpHours)
	registry := auth.NewProviderRegistry(&cfg.OAuth, cfg.Server.BaseURL)
	flowStore := cache.NewOAuthFlowStore(redisClient, "oauth:state:", oauthStateTTL)

	registerUC := usecases.NewRegisterUserUseCase(userRepo, passwordHasher, sessionTokens, log.Named("usecase.register"))
	loginUC := usecases.NewLoginWithPasswordUseCase(userRepo, passwordHasher, sessionTokens, log.Named("usecase.login"))
	getCurrentUC := usecases.NewGetCurrentUserUseCase(userRepo, log.Named("usecase.me"))
	initiateOAuthUC := usecases.NewInitiateOAuthLoginUseCase(registry, flowStore, log.Named("usecase.oauth.initiate"))
	handleOAuthUC := usecases.NewHandleOAuthCallbackUseCase(userRepo, registry, flowStore, sessionTokens, log.Named("usecase.oauth.callback"))

	authHandler := handlers.NewAuthHandler(
		registerUC,
		loginUC,
		getCurrentUC,
		initiateOAuthUC,
		handleOAuthUC,
		sessionTokens,
		cfg.Auth.Cookie,
		cfg.Server.BaseURL,
		log.Named("handler.auth"),
	)

	authMiddleware := middleware.NewAuthMiddleware(sessionTokens, cfg.Auth.Cookie, log.Named("middleware.auth"))

	routes.SetupAuthRoutes(engine, &routes.AuthRouteConfig{
		AuthHandler:    authHandler,
		AuthMiddleware: authMiddleware,
	})

	return &Router{engine: engine}
}

// Engine returns the underlying gin engine.
func (r *Router) Engine() *gin.Engine {
	return r.engine
}
