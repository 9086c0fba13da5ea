package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"qadventure/internal/application/auth/usecases"
	infraauth "qadventure/internal/infrastructure/auth"
	"qadventure/internal/infrastructure/cache"
	"qadventure/internal/infrastructure/persistence/models"
	"qadventure/internal/infrastructure/repository"
	"qadventure/internal/interfaces/http/middleware"
	sharedConfig "qadventure/internal/shared/config"
	"qadventure/internal/shared/constants"
	"qadventure/internal/shared/logger"
	"qadventure/internal/shared/utils"
)

const testBaseURL = "http://localhost:8080"

// fakeOAuthClient scripts provider behavior without network calls.
type fakeOAuthClient struct {
	name       string
	profile    *infraauth.Profile
	profileErr error
}

func (f *fakeOAuthClient) Name() string { return f.name }

func (f *fakeOAuthClient) GetAuthURL(state string) (string, string, string, error) {
	return "https://provider.example.com/authorize?state=" + state, "verifier", "", nil
}

func (f *fakeOAuthClient) ExchangeCode(ctx context.Context, code, codeVerifier string) (string, error) {
	return "access-token", nil
}

func (f *fakeOAuthClient) FetchProfile(ctx context.Context, accessToken string) (*infraauth.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

type testServer struct {
	engine    *gin.Engine
	flowStore usecases.FlowStore
	tokens    *infraauth.SessionTokenService
	oauth     *fakeOAuthClient
}

func newTestServer(t *testing.T) *testServer {
	gin.SetMode(gin.TestMode)
	utils.RegisterValidators()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UserModel{}))

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	log := logger.NewLogger()
	userRepo := repository.NewUserRepository(db, log)
	hasher := infraauth.NewBcryptPasswordHasher(bcrypt.MinCost)
	tokens := infraauth.NewSessionTokenService("test-secret", 24)
	flowStore := cache.NewOAuthFlowStore(redisClient, "oauth:state:", 10*time.Minute)

	oauth := &fakeOAuthClient{name: "google", profile: &infraauth.Profile{
		Email:         "oauth-user@example.com",
		Username:      "oauthuser",
		ProviderID:    "google-sub-1",
		EmailVerified: true,
	}}
	registry := infraauth.NewProviderRegistryWithClients(oauth)

	cookieConfig := sharedConfig.CookieConfig{Path: "/", SameSite: "Lax"}

	handler := NewAuthHandler(
		usecases.NewRegisterUserUseCase(userRepo, hasher, tokens, log),
		usecases.NewLoginWithPasswordUseCase(userRepo, hasher, tokens, log),
		usecases.NewGetCurrentUserUseCase(userRepo, log),
		usecases.NewInitiateOAuthLoginUseCase(registry, flowStore, log),
		usecases.NewHandleOAuthCallbackUseCase(userRepo, registry, flowStore, tokens, log),
		tokens,
		cookieConfig,
		testBaseURL,
		log,
	)

	sessionGuard := middleware.NewAuthMiddleware(tokens, cookieConfig, log).RequireSession()

	engine := gin.New()
	auth := engine.Group("/auth")
	auth.POST("/local/register", handler.Register)
	auth.POST("/local/login", handler.Login)
	auth.POST("/logout", handler.Logout)
	auth.GET("/me", sessionGuard, handler.GetCurrentUser)
	for _, provider := range constants.OAuthProviders {
		auth.GET("/"+provider+"/login", handler.InitiateOAuth(provider))
		auth.GET("/"+provider+"/callback", handler.HandleOAuthCallback(provider))
	}

	return &testServer{engine: engine, flowStore: flowStore, tokens: tokens, oauth: oauth}
}

func (s *testServer) do(method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == constants.SessionCookie && c.Value != "" {
			return c
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestRegisterEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("successful registration returns 201 and session cookie", func(t *testing.T) {
		w := s.do("POST", "/auth/local/register",
			`{"email":"alice@example.com","username":"alice","password":"long-enough-pw"}`)
		assert.Equal(t, http.StatusCreated, w.Code)

		cookie := sessionCookie(t, w)
		assert.True(t, cookie.HttpOnly)

		claims, err := s.tokens.Verify(cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", claims.Email)
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		w := s.do("POST", "/auth/local/register",
			`{"email":"alice@example.com","username":"alice2","password":"long-enough-pw"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("validation failures return 400", func(t *testing.T) {
		payloads := map[string]string{
			"bad email":      `{"email":"not-an-email","username":"bob","password":"long-enough-pw"}`,
			"short password": `{"email":"bob@example.com","username":"bob","password":"short"}`,
			"bad username":   `{"email":"bob@example.com","username":"b!","password":"long-enough-pw"}`,
			"missing fields": `{"email":"bob@example.com"}`,
			"not json":       `this is not json`,
		}
		for name, payload := range payloads {
			t.Run(name, func(t *testing.T) {
				w := s.do("POST", "/auth/local/register", payload)
				assert.Equal(t, http.StatusBadRequest, w.Code)
			})
		}
	})
}

func TestLoginEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do("POST", "/auth/local/register",
		`{"email":"alice@example.com","username":"alice","password":"long-enough-pw"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	t.Run("valid credentials return 200 and session cookie", func(t *testing.T) {
		w := s.do("POST", "/auth/local/login",
			`{"email":"alice@example.com","password":"long-enough-pw"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		sessionCookie(t, w)
	})

	t.Run("wrong password and unknown email are indistinguishable", func(t *testing.T) {
		wWrong := s.do("POST", "/auth/local/login",
			`{"email":"alice@example.com","password":"wrong-password"}`)
		wUnknown := s.do("POST", "/auth/local/login",
			`{"email":"nobody@example.com","password":"whatever-pw"}`)

		assert.Equal(t, http.StatusUnauthorized, wWrong.Code)
		assert.Equal(t, http.StatusUnauthorized, wUnknown.Code)
		assert.JSONEq(t, wWrong.Body.String(), wUnknown.Body.String())
	})

	t.Run("malformed payload returns 400", func(t *testing.T) {
		w := s.do("POST", "/auth/local/login", `{"email":"alice@example.com"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMeEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do("POST", "/auth/local/register",
		`{"email":"alice@example.com","username":"alice","password":"long-enough-pw"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	cookie := sessionCookie(t, w)

	t.Run("valid session returns the user", func(t *testing.T) {
		w := s.do("GET", "/auth/me", "", cookie)
		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Success bool `json:"success"`
			Data    struct {
				User map[string]interface{} `json:"user"`
			} `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, "alice@example.com", resp.Data.User["email"])
		assert.Equal(t, "alice", resp.Data.User["username"])
		assert.Equal(t, "email", resp.Data.User["auth_provider"])
		assert.NotContains(t, resp.Data.User, "password_hash")
	})

	t.Run("no cookie returns 401", func(t *testing.T) {
		w := s.do("GET", "/auth/me", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("tampered cookie returns 401 and clears it", func(t *testing.T) {
		bad := &http.Cookie{Name: constants.SessionCookie, Value: cookie.Value + "x"}
		w := s.do("GET", "/auth/me", "", bad)
		assert.Equal(t, http.StatusUnauthorized, w.Code)

		var cleared bool
		for _, c := range w.Result().Cookies() {
			if c.Name == constants.SessionCookie && c.MaxAge < 0 {
				cleared = true
			}
		}
		assert.True(t, cleared, "expected the session cookie to be cleared")
	})
}

func TestLogoutEndpoint(t *testing.T) {
	s := newTestServer(t)

	w := s.do("POST", "/auth/logout", "")
	assert.Equal(t, http.StatusOK, w.Code)

	var cleared bool
	for _, c := range w.Result().Cookies() {
		if c.Name == constants.SessionCookie && c.MaxAge < 0 {
			cleared = true
		}
	}
	assert.True(t, cleared, "expected the session cookie to be cleared")
}

func TestInitiateOAuthEndpoint(t *testing.T) {
	s := newTestServer(t)

	t.Run("configured provider redirects with state cookie", func(t *testing.T) {
		w := s.do("GET", "/auth/google/login", "")
		assert.Equal(t, http.StatusFound, w.Code)

		location := w.Header().Get("Location")
		assert.Contains(t, location, "https://provider.example.com/authorize?state=")

		var stateCookie *http.Cookie
		for _, c := range w.Result().Cookies() {
			if c.Name == constants.OAuthStateCookie {
				stateCookie = c
			}
		}
		require.NotNil(t, stateCookie)
		assert.True(t, stateCookie.HttpOnly)
		assert.Contains(t, location, stateCookie.Value)
	})

	t.Run("unconfigured provider returns 400", func(t *testing.T) {
		// github is in the route table but not in the test registry
		w := s.do("GET", "/auth/github/login", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOAuthCallbackEndpoint(t *testing.T) {
	startFlow := func(t *testing.T, s *testServer) (state string, cookies []*http.Cookie) {
		w := s.do("GET", "/auth/google/login", "")
		require.Equal(t, http.StatusFound, w.Code)
		for _, c := range w.Result().Cookies() {
			if c.Value != "" {
				cookies = append(cookies, c)
			}
			if c.Name == constants.OAuthStateCookie {
				state = c.Value
			}
		}
		require.NotEmpty(t, state)
		return state, cookies
	}

	t.Run("successful callback signs the user in", func(t *testing.T) {
		s := newTestServer(t)
		state, cookies := startFlow(t, s)

		w := s.do("GET", "/auth/google/callback?code=auth-code&state="+state, "", cookies...)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testBaseURL+"/", w.Header().Get("Location"))

		cookie := sessionCookie(t, w)
		claims, err := s.tokens.Verify(cookie.Value)
		require.NoError(t, err)
		assert.Equal(t, "oauth-user@example.com", claims.Email)

		// Transient flow cookies are torn down
		for _, c := range w.Result().Cookies() {
			if c.Name == constants.OAuthStateCookie {
				assert.Negative(t, c.MaxAge)
			}
		}
	})

	t.Run("provider error redirects with access_denied", func(t *testing.T) {
		s := newTestServer(t)

		w := s.do("GET", "/auth/google/callback?error=access_denied", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testBaseURL+"/login?authError=access_denied", w.Header().Get("Location"))
	})

	t.Run("missing parameters redirect with missing_params", func(t *testing.T) {
		s := newTestServer(t)

		w := s.do("GET", "/auth/google/callback?code=only-code", "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testBaseURL+"/login?authError=missing_params", w.Header().Get("Location"))
	})

	t.Run("state without cookie redirects with invalid_state", func(t *testing.T) {
		s := newTestServer(t)
		state, _ := startFlow(t, s)

		w := s.do("GET", "/auth/google/callback?code=c&state="+state, "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testBaseURL+"/login?authError=invalid_state", w.Header().Get("Location"))
	})

	t.Run("replayed state redirects with invalid_state", func(t *testing.T) {
		s := newTestServer(t)
		state, cookies := startFlow(t, s)

		w := s.do("GET", "/auth/google/callback?code=c&state="+state, "", cookies...)
		require.Equal(t, http.StatusFound, w.Code)

		w = s.do("GET", "/auth/google/callback?code=c&state="+state, "", cookies...)
		assert.Equal(t, testBaseURL+"/login?authError=invalid_state", w.Header().Get("Location"))
	})

	t.Run("email collision redirects with email_exists_different_provider", func(t *testing.T) {
		s := newTestServer(t)

		w := s.do("POST", "/auth/local/register",
			`{"email":"oauth-user@example.com","username":"taken","password":"long-enough-pw"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		state, cookies := startFlow(t, s)
		w = s.do("GET", "/auth/google/callback?code=c&state="+state, "", cookies...)
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, testBaseURL+"/login?authError=email_exists_different_provider",
			w.Header().Get("Location"))

		// The local account is untouched and can still log in
		w = s.do("POST", "/auth/local/login",
			`{"email":"oauth-user@example.com","password":"long-enough-pw"}`)
		assert.Equal(t, http.StatusOK, w.Code)
	})
}
