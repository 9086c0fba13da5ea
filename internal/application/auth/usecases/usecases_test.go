package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	infraauth "qadventure/internal/infrastructure/auth"
	"qadventure/internal/infrastructure/cache"
	"qadventure/internal/infrastructure/persistence/models"
	"qadventure/internal/infrastructure/repository"
	"qadventure/internal/domain/user"
	apperrors "qadventure/internal/shared/errors"
	"qadventure/internal/shared/logger"
)

func setupUserRepo(t *testing.T) user.Repository {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.UserModel{}))
	return repository.NewUserRepository(db, logger.NewLogger())
}

func setupFlowStore(t *testing.T) FlowStore {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.NewOAuthFlowStore(client, "oauth:state:", 10*time.Minute)
}

// fakeOAuthClient scripts provider behavior for callback tests.
type fakeOAuthClient struct {
	name        string
	exchangeErr error
	profile     *infraauth.Profile
	profileErr  error
}

func (f *fakeOAuthClient) Name() string { return f.name }

func (f *fakeOAuthClient) GetAuthURL(state string) (string, string, string, error) {
	return "https://provider.example.com/authorize?state=" + state, "verifier", "", nil
}

func (f *fakeOAuthClient) ExchangeCode(ctx context.Context, code, codeVerifier string) (string, error) {
	if f.exchangeErr != nil {
		return "", f.exchangeErr
	}
	return "access-token", nil
}

func (f *fakeOAuthClient) FetchProfile(ctx context.Context, accessToken string) (*infraauth.Profile, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func newTestHasher() PasswordHasher {
	return infraauth.NewBcryptPasswordHasher(bcrypt.MinCost)
}

func newTestIssuer() SessionIssuer {
	return infraauth.NewSessionTokenService("test-secret", 24)
}

func TestRegisterUserUseCase(t *testing.T) {
	repo := setupUserRepo(t)
	uc := NewRegisterUserUseCase(repo, newTestHasher(), newTestIssuer(), logger.NewLogger())
	ctx := context.Background()

	t.Run("register creates user and issues session", func(t *testing.T) {
		result, err := uc.Execute(ctx, RegisterUserCommand{
			Email:    "alice@example.com",
			Username: "alice",
			Password: "s3cret-password",
		})
		require.NoError(t, err)
		assert.NotZero(t, result.User.ID())
		assert.NotEmpty(t, result.SessionToken)
		assert.True(t, result.User.IsLocal())
		assert.NotEqual(t, "s3cret-password", result.User.PasswordHash())
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		_, err := uc.Execute(ctx, RegisterUserCommand{
			Email:    "alice@example.com",
			Username: "alice2",
			Password: "another-password",
		})
		assert.True(t, apperrors.IsConflictError(err))
	})

	t.Run("duplicate username conflicts", func(t *testing.T) {
		_, err := uc.Execute(ctx, RegisterUserCommand{
			Email:    "alice2@example.com",
			Username: "alice",
			Password: "another-password",
		})
		assert.True(t, apperrors.IsConflictError(err))
	})
}

func TestLoginWithPasswordUseCase(t *testing.T) {
	repo := setupUserRepo(t)
	hasher := newTestHasher()
	issuer := newTestIssuer()
	ctx := context.Background()

	registerUC := NewRegisterUserUseCase(repo, hasher, issuer, logger.NewLogger())
	_, err := registerUC.Execute(ctx, RegisterUserCommand{
		Email:    "alice@example.com",
		Username: "alice",
		Password: "correct-password",
	})
	require.NoError(t, err)

	oauthUser, err := user.NewOAuthUser("bob@example.com", "bob", "google", "google-1")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, oauthUser))

	uc := NewLoginWithPasswordUseCase(repo, hasher, issuer, logger.NewLogger())

	t.Run("valid credentials", func(t *testing.T) {
		result, err := uc.Execute(ctx, LoginWithPasswordCommand{
			Email:    "alice@example.com",
			Password: "correct-password",
		})
		require.NoError(t, err)
		assert.NotEmpty(t, result.SessionToken)
		assert.Equal(t, "alice", result.User.Username())
	})

	t.Run("wrong password, unknown email and oauth-only account look identical", func(t *testing.T) {
		_, errWrong := uc.Execute(ctx, LoginWithPasswordCommand{
			Email:    "alice@example.com",
			Password: "wrong-password",
		})
		_, errUnknown := uc.Execute(ctx, LoginWithPasswordCommand{
			Email:    "nobody@example.com",
			Password: "whatever",
		})
		_, errOAuth := uc.Execute(ctx, LoginWithPasswordCommand{
			Email:    "bob@example.com",
			Password: "whatever",
		})

		for _, err := range []error{errWrong, errUnknown, errOAuth} {
			require.Error(t, err)
			assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeInvalidCredentials))
		}
		assert.Equal(t, errWrong.Error(), errUnknown.Error())
		assert.Equal(t, errWrong.Error(), errOAuth.Error())
	})
}

func TestGetCurrentUserUseCase(t *testing.T) {
	repo := setupUserRepo(t)
	ctx := context.Background()

	u, err := user.NewOAuthUser("alice@example.com", "alice", "google", "g-1")
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))

	uc := NewGetCurrentUserUseCase(repo, logger.NewLogger())

	t.Run("existing user", func(t *testing.T) {
		got, err := uc.Execute(ctx, u.ID())
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", got.Email())
	})

	t.Run("deleted user yields invalid session", func(t *testing.T) {
		_, err := uc.Execute(ctx, 99999)
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeInvalidSession))
	})
}

func TestInitiateOAuthLoginUseCase(t *testing.T) {
	flowStore := setupFlowStore(t)
	registry := infraauth.NewProviderRegistryWithClients(&fakeOAuthClient{name: "google"})
	uc := NewInitiateOAuthLoginUseCase(registry, flowStore, logger.NewLogger())
	ctx := context.Background()

	t.Run("initiate stores pending flow", func(t *testing.T) {
		result, err := uc.Execute(ctx, InitiateOAuthLoginCommand{Provider: "google"})
		require.NoError(t, err)
		assert.Contains(t, result.AuthURL, result.State)
		assert.NotEmpty(t, result.CodeVerifier)

		flow, err := flowStore.Consume(ctx, result.State)
		require.NoError(t, err)
		assert.Equal(t, "google", flow.Provider)
		assert.Equal(t, "verifier", flow.CodeVerifier)
	})

	t.Run("states are unique per initiation", func(t *testing.T) {
		r1, err := uc.Execute(ctx, InitiateOAuthLoginCommand{Provider: "google"})
		require.NoError(t, err)
		r2, err := uc.Execute(ctx, InitiateOAuthLoginCommand{Provider: "google"})
		require.NoError(t, err)
		assert.NotEqual(t, r1.State, r2.State)
	})

	t.Run("unknown provider rejected", func(t *testing.T) {
		_, err := uc.Execute(ctx, InitiateOAuthLoginCommand{Provider: "gitlab"})
		require.Error(t, err)
		appErr := apperrors.GetAppError(err)
		require.NotNil(t, appErr)
		assert.Equal(t, apperrors.ErrorTypeBadRequest, appErr.Type)
	})
}

type callbackFixture struct {
	repo      user.Repository
	flowStore FlowStore
	client    *fakeOAuthClient
	uc        *HandleOAuthCallbackUseCase
}

func setupCallback(t *testing.T, client *fakeOAuthClient) *callbackFixture {
	repo := setupUserRepo(t)
	flowStore := setupFlowStore(t)
	registry := infraauth.NewProviderRegistryWithClients(client)

	return &callbackFixture{
		repo:      repo,
		flowStore: flowStore,
		client:    client,
		uc:        NewHandleOAuthCallbackUseCase(repo, registry, flowStore, newTestIssuer(), logger.NewLogger()),
	}
}

func (f *callbackFixture) storeFlow(t *testing.T, state, provider string) {
	require.NoError(t, f.flowStore.Set(context.Background(), state, cache.PendingFlow{
		Provider:     provider,
		CodeVerifier: "verifier",
	}))
}

func googleProfile() *infraauth.Profile {
	return &infraauth.Profile{
		Email:         "alice@example.com",
		Username:      "alice",
		ProviderID:    "google-sub-1",
		EmailVerified: true,
	}
}

func TestHandleOAuthCallbackUseCase_NewUser(t *testing.T) {
	f := setupCallback(t, &fakeOAuthClient{name: "google", profile: googleProfile()})
	f.storeFlow(t, "state-1", "google")

	result, err := f.uc.Execute(context.Background(), HandleOAuthCallbackCommand{
		Provider:    "google",
		Code:        "auth-code",
		State:       "state-1",
		CookieState: "state-1",
	})
	require.NoError(t, err)
	assert.True(t, result.IsNewUser)
	assert.NotEmpty(t, result.SessionToken)
	assert.Equal(t, "alice@example.com", result.User.Email())
	assert.Equal(t, "google", result.User.AuthProvider())
	assert.Equal(t, "google-sub-1", result.User.ProviderID())
}

func TestHandleOAuthCallbackUseCase_ReturningUser(t *testing.T) {
	f := setupCallback(t, &fakeOAuthClient{name: "google", profile: googleProfile()})
	ctx := context.Background()

	f.storeFlow(t, "state-1", "google")
	first, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
		Provider: "google", Code: "c", State: "state-1", CookieState: "state-1",
	})
	require.NoError(t, err)

	f.storeFlow(t, "state-2", "google")
	second, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
		Provider: "google", Code: "c", State: "state-2", CookieState: "state-2",
	})
	require.NoError(t, err)
	assert.False(t, second.IsNewUser)
	assert.Equal(t, first.User.ID(), second.User.ID())
}

func TestHandleOAuthCallbackUseCase_StateChecks(t *testing.T) {
	ctx := context.Background()

	t.Run("missing cookie state", func(t *testing.T) {
		f := setupCallback(t, &fakeOAuthClient{name: "google", profile: googleProfile()})
		f.storeFlow(t, "state-1", "google")

		_, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "google", Code: "c", State: "state-1", CookieState: "",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeInvalidState))
	})

	t.Run("cookie state mismatch", func(t *testing.T) {
		f := setupCallback(t, &fakeOAuthClient{name: "google", profile: googleProfile()})
		f.storeFlow(t, "state-1", "google")

		_, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "google", Code: "c", State: "state-1", CookieState: "state-other",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeInvalidState))
	})

	t.Run("unknown state", func(t *testing.T) {
		f := setupCallback(t, &fakeOAuthClient{name: "google", profile: googleProfile()})

		_, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "google", Code: "c", State: "never-stored", CookieState: "never-stored",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeInvalidState))
	})

	t.Run("state cannot be replayed", func(t *testing.T) {
		f := setupCallback(t, &fakeOAuthClient{name: "google", profile: googleProfile()})
		f.storeFlow(t, "state-1", "google")

		cmd := HandleOAuthCallbackCommand{
			Provider: "google", Code: "c", State: "state-1", CookieState: "state-1",
		}
		_, err := f.uc.Execute(ctx, cmd)
		require.NoError(t, err)

		_, err = f.uc.Execute(ctx, cmd)
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeInvalidState))
	})

	t.Run("state bound to different provider", func(t *testing.T) {
		github := &fakeOAuthClient{name: "github", profile: googleProfile()}
		f := setupCallback(t, github)
		f.storeFlow(t, "state-1", "google")

		_, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "github", Code: "c", State: "state-1", CookieState: "state-1",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeInvalidState))
	})
}

func TestHandleOAuthCallbackUseCase_ProviderFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("token exchange failure", func(t *testing.T) {
		f := setupCallback(t, &fakeOAuthClient{name: "google", exchangeErr: errors.New("boom")})
		f.storeFlow(t, "state-1", "google")

		_, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "google", Code: "c", State: "state-1", CookieState: "state-1",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeTokenExchange))
	})

	t.Run("profile fetch failure", func(t *testing.T) {
		f := setupCallback(t, &fakeOAuthClient{name: "google", profileErr: errors.New("boom")})
		f.storeFlow(t, "state-1", "google")

		_, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "google", Code: "c", State: "state-1", CookieState: "state-1",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeProfileFetch))
	})

	t.Run("missing identity passes through", func(t *testing.T) {
		f := setupCallback(t, &fakeOAuthClient{
			name:       "github",
			profileErr: apperrors.NewMissingIdentityError("github"),
		})
		f.storeFlow(t, "state-1", "github")

		_, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "github", Code: "c", State: "state-1", CookieState: "state-1",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeMissingIdentity))
	})

	t.Run("profile without email is rejected", func(t *testing.T) {
		f := setupCallback(t, &fakeOAuthClient{name: "facebook", profile: &infraauth.Profile{
			Username:   "noemail",
			ProviderID: "fb-1",
		}})
		f.storeFlow(t, "state-1", "facebook")

		_, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "facebook", Code: "c", State: "state-1", CookieState: "state-1",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeMissingIdentity))
	})
}

func TestHandleOAuthCallbackUseCase_ProviderCollision(t *testing.T) {
	ctx := context.Background()

	t.Run("email owned by local account", func(t *testing.T) {
		f := setupCallback(t, &fakeOAuthClient{name: "google", profile: googleProfile()})

		local, err := user.NewLocalUser("alice@example.com", "alice", "$2a$12$abcdefghijklmnopqrstuv")
		require.NoError(t, err)
		require.NoError(t, f.repo.Create(ctx, local))

		f.storeFlow(t, "state-1", "google")
		_, err = f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "google", Code: "c", State: "state-1", CookieState: "state-1",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeProviderCollision))

		// The rejected login must not have touched the existing account
		unchanged, err := f.repo.GetByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, "email", unchanged.AuthProvider())
		assert.Empty(t, unchanged.ProviderID())
	})

	t.Run("email owned by another oauth provider", func(t *testing.T) {
		f := setupCallback(t, &fakeOAuthClient{name: "google", profile: googleProfile()})

		ghUser, err := user.NewOAuthUser("alice@example.com", "alice", "github", "gh-1")
		require.NoError(t, err)
		require.NoError(t, f.repo.Create(ctx, ghUser))

		f.storeFlow(t, "state-1", "google")
		_, err = f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "google", Code: "c", State: "state-1", CookieState: "state-1",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeProviderCollision))
	})
}

func TestHandleOAuthCallbackUseCase_UsernameRetry(t *testing.T) {
	ctx := context.Background()
	f := setupCallback(t, &fakeOAuthClient{name: "google", profile: googleProfile()})

	// Take the derived username with an unrelated account
	taken, err := user.NewLocalUser("other@example.com", "alice", "$2a$12$abcdefghijklmnopqrstuv")
	require.NoError(t, err)
	require.NoError(t, f.repo.Create(ctx, taken))

	f.storeFlow(t, "state-1", "google")
	result, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
		Provider: "google", Code: "c", State: "state-1", CookieState: "state-1",
	})
	require.NoError(t, err)
	assert.True(t, result.IsNewUser)
	assert.NotEqual(t, "alice", result.User.Username())
	assert.Contains(t, result.User.Username(), "alice_")
}

func TestEmailCaseFolding(t *testing.T) {
	repo := setupUserRepo(t)
	hasher := newTestHasher()
	issuer := newTestIssuer()
	ctx := context.Background()

	registerUC := NewRegisterUserUseCase(repo, hasher, issuer, logger.NewLogger())
	loginUC := NewLoginWithPasswordUseCase(repo, hasher, issuer, logger.NewLogger())

	result, err := registerUC.Execute(ctx, RegisterUserCommand{
		Email:    "Carol@Example.COM",
		Username: "carol",
		Password: "correct-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", result.User.Email())

	t.Run("login with the mixed-case email used at registration", func(t *testing.T) {
		loginResult, err := loginUC.Execute(ctx, LoginWithPasswordCommand{
			Email:    "Carol@Example.COM",
			Password: "correct-password",
		})
		require.NoError(t, err)
		assert.Equal(t, result.User.ID(), loginResult.User.ID())
	})

	t.Run("registration differing only by case conflicts", func(t *testing.T) {
		_, err := registerUC.Execute(ctx, RegisterUserCommand{
			Email:    "CAROL@example.com",
			Username: "carol2",
			Password: "another-password",
		})
		assert.True(t, apperrors.IsConflictError(err))
	})

	t.Run("oauth collision check sees the account despite profile casing", func(t *testing.T) {
		profile := googleProfile()
		profile.Email = "CAROL@Example.com"
		f := &callbackFixture{
			repo:      repo,
			flowStore: setupFlowStore(t),
			client:    &fakeOAuthClient{name: "google", profile: profile},
		}
		registry := infraauth.NewProviderRegistryWithClients(f.client)
		f.uc = NewHandleOAuthCallbackUseCase(repo, registry, f.flowStore, issuer, logger.NewLogger())

		f.storeFlow(t, "state-1", "google")
		_, err := f.uc.Execute(ctx, HandleOAuthCallbackCommand{
			Provider: "google", Code: "c", State: "state-1", CookieState: "state-1",
		})
		assert.True(t, apperrors.IsAuthErrorType(err, apperrors.ErrorTypeProviderCollision))
	})
}
