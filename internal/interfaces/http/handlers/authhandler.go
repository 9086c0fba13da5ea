package handlers

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"qadventure/internal/application/auth/usecases"
	sharedConfig "qadventure/internal/shared/config"
	"qadventure/internal/shared/constants"
	apperrors "qadventure/internal/shared/errors"
	"qadventure/internal/shared/logger"
	"qadventure/internal/shared/utils"
)

type AuthHandler struct {
	registerUseCase      *usecases.RegisterUserUseCase
	loginUseCase         *usecases.LoginWithPasswordUseCase
	getCurrentUseCase    *usecases.GetCurrentUserUseCase
	initiateOAuthUseCase *usecases.InitiateOAuthLoginUseCase
	handleOAuthUseCase   *usecases.HandleOAuthCallbackUseCase
	sessionIssuer        usecases.SessionIssuer
	cookieConfig         sharedConfig.CookieConfig
	baseURL              string
	logger               logger.Interface
}

func NewAuthHandler(
	registerUC *usecases.RegisterUserUseCase,
	loginUC *usecases.LoginWithPasswordUseCase,
	getCurrentUC *usecases.GetCurrentUserUseCase,
	initiateOAuthUC *usecases.InitiateOAuthLoginUseCase,
	handleOAuthUC *usecases.HandleOAuthCallbackUseCase,
	sessionIssuer usecases.SessionIssuer,
	cookieConfig sharedConfig.CookieConfig,
	baseURL string,
	logger logger.Interface,
) *AuthHandler {
	return &AuthHandler{
		registerUseCase:      registerUC,
		loginUseCase:         loginUC,
		getCurrentUseCase:    getCurrentUC,
		initiateOAuthUseCase: initiateOAuthUC,
		handleOAuthUseCase:   handleOAuthUC,
		sessionIssuer:        sessionIssuer,
		cookieConfig:         cookieConfig,
		baseURL:              strings.TrimRight(baseURL, "/"),
		logger:               logger,
	}
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required,username"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /auth/local/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid registration payload")
		return
	}

	cmd := usecases.RegisterUserCommand{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	}

	result, err := h.registerUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SetSessionCookie(c, h.cookieConfig, result.SessionToken, h.sessionIssuer.MaxAgeSeconds())
	utils.SuccessResponse(c, http.StatusCreated, "registration successful", gin.H{
		"user": result.User.DisplayInfo(),
	})
}

// Login handles POST /auth/local/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "invalid login payload")
		return
	}

	cmd := usecases.LoginWithPasswordCommand{
		Email:    req.Email,
		Password: req.Password,
	}

	result, err := h.loginUseCase.Execute(c.Request.Context(), cmd)
	if err != nil {
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SetSessionCookie(c, h.cookieConfig, result.SessionToken, h.sessionIssuer.MaxAgeSeconds())
	utils.SuccessResponse(c, http.StatusOK, "login successful", gin.H{
		"user": result.User.DisplayInfo(),
	})
}

// Logout handles POST /auth/logout. Sessions are signed tokens with no
// server-side row, so logout is purely clearing the cookie; it succeeds
// whether or not a valid session was presented.
func (h *AuthHandler) Logout(c *gin.Context) {
	utils.ClearSessionCookie(c, h.cookieConfig)
	utils.SuccessResponse(c, http.StatusOK, "logged out", nil)
}

// GetCurrentUser handles GET /auth/me. The auth middleware has already
// verified the session cookie and stashed the user id.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint(constants.ContextKeyUserID)

	currentUser, err := h.getCurrentUseCase.Execute(c.Request.Context(), userID)
	if err != nil {
		// The token outlived its account; clear the cookie like any other
		// invalid session
		if apperrors.IsAuthErrorType(err, apperrors.ErrorTypeInvalidSession) {
			utils.ClearSessionCookie(c, h.cookieConfig)
		}
		utils.ErrorResponseWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", gin.H{
		"user": currentUser.DisplayInfo(),
	})
}

// InitiateOAuth handles GET /auth/{provider}/login. On success the browser
// is redirected to the provider with the state pinned in transient cookies.
func (h *AuthHandler) InitiateOAuth(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := h.initiateOAuthUseCase.Execute(c.Request.Context(),
			usecases.InitiateOAuthLoginCommand{Provider: provider})
		if err != nil {
			utils.ErrorResponseWithError(c, err)
			return
		}

		utils.SetOAuthFlowCookies(c, h.cookieConfig, result.State, result.CodeVerifier, result.Nonce)
		c.Redirect(http.StatusFound, result.AuthURL)
	}
}

// HandleOAuthCallback handles GET /auth/{provider}/callback. Every outcome
// is a redirect: back into the app on success, to the login screen with an
// authError code on failure. Detailed causes stay in the server log.
func (h *AuthHandler) HandleOAuthCallback(provider string) gin.HandlerFunc {
	return func(c *gin.Context) {
		code := c.Query("code")
		state := c.Query("state")

		if errParam := c.Query("error"); errParam != "" {
			h.logger.Warnw("oauth provider returned error",
				"provider", provider,
				"error_code", errParam,
				"error_description", c.Query("error_description"))

			errCode := constants.OAuthErrorFailed
			if errParam == "access_denied" {
				errCode = constants.OAuthErrorAccessDenied
			}
			h.redirectWithOAuthError(c, errCode)
			return
		}

		if code == "" || state == "" {
			h.logger.Warnw("oauth callback missing parameters", "provider", provider)
			h.redirectWithOAuthError(c, constants.OAuthErrorMissingParams)
			return
		}

		cmd := usecases.HandleOAuthCallbackCommand{
			Provider:    provider,
			Code:        code,
			State:       state,
			CookieState: utils.GetTokenFromCookie(c, constants.OAuthStateCookie),
		}

		result, err := h.handleOAuthUseCase.Execute(c.Request.Context(), cmd)
		if err != nil {
			if apperrors.ShouldLogAuthError(err) {
				h.logger.Errorw("oauth callback failed", "error", err, "provider", provider)
			}
			h.redirectWithOAuthError(c, mapOAuthErrorCode(err))
			return
		}

		utils.ClearOAuthFlowCookies(c, h.cookieConfig)
		utils.SetSessionCookie(c, h.cookieConfig, result.SessionToken, h.sessionIssuer.MaxAgeSeconds())
		c.Redirect(http.StatusFound, h.baseURL+"/")
	}
}

// redirectWithOAuthError sends the browser back to the login screen with a
// machine-readable authError code and tears down the transient flow cookies.
func (h *AuthHandler) redirectWithOAuthError(c *gin.Context, code constants.OAuthErrorCode) {
	utils.ClearOAuthFlowCookies(c, h.cookieConfig)
	target := fmt.Sprintf("%s/login?authError=%s", h.baseURL, url.QueryEscape(string(code)))
	c.Redirect(http.StatusFound, target)
}

// mapOAuthErrorCode reduces a callback failure to the code exposed in the
// redirect. Only the provider-collision case is distinguished for the user;
// everything else collapses to generic codes.
func mapOAuthErrorCode(err error) constants.OAuthErrorCode {
	switch {
	case apperrors.IsAuthErrorType(err, apperrors.ErrorTypeProviderCollision):
		return constants.OAuthErrorEmailExistsDifferentProvider
	case apperrors.IsAuthErrorType(err, apperrors.ErrorTypeInvalidState):
		return constants.OAuthErrorInvalidState
	default:
		return constants.OAuthErrorFailed
	}
}
