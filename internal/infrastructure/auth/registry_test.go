package auth

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"qadventure/internal/shared/config"
)

func testOAuthConfig() *config.OAuthConfig {
	return &config.OAuthConfig{
		Google:   config.OAuthProviderConfig{ClientID: "google-id", ClientSecret: "google-secret"},
		Facebook: config.OAuthProviderConfig{ClientID: "fb-id", ClientSecret: "fb-secret"},
		GitHub:   config.OAuthProviderConfig{ClientID: "gh-id", ClientSecret: "gh-secret"},
	}
}

func TestNewProviderRegistry(t *testing.T) {
	t.Run("all providers configured", func(t *testing.T) {
		registry := NewProviderRegistry(testOAuthConfig(), "https://app.example.com")
		assert.Equal(t, []string{"facebook", "github", "google"}, registry.Providers())
	})

	t.Run("unconfigured providers are skipped", func(t *testing.T) {
		cfg := testOAuthConfig()
		cfg.Facebook.ClientID = ""
		cfg.GitHub.ClientID = ""

		registry := NewProviderRegistry(cfg, "https://app.example.com")
		assert.Equal(t, []string{"google"}, registry.Providers())

		_, err := registry.Client("facebook")
		assert.Error(t, err)
	})

	t.Run("trailing slash in base url is trimmed", func(t *testing.T) {
		assert.Equal(t, "https://app.example.com/auth/google/callback",
			redirectURL("https://app.example.com", "google"))
	})
}

func TestProviderRegistry_Client(t *testing.T) {
	registry := NewProviderRegistry(testOAuthConfig(), "https://app.example.com")

	client, err := registry.Client("github")
	require.NoError(t, err)
	assert.Equal(t, "github", client.Name())

	_, err = registry.Client("gitlab")
	assert.Error(t, err)
}

func TestGoogleOAuthClient_GetAuthURL(t *testing.T) {
	registry := NewProviderRegistry(testOAuthConfig(), "https://app.example.com")
	client, err := registry.Client("google")
	require.NoError(t, err)

	authURL, verifier, nonce, err := client.GetAuthURL("test-state")
	require.NoError(t, err)
	assert.NotEmpty(t, verifier)
	assert.NotEmpty(t, nonce)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "test-state", q.Get("state"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.Equal(t, "google-id", q.Get("client_id"))
	assert.Equal(t, "https://app.example.com/auth/google/callback", q.Get("redirect_uri"))
}

func TestGitHubOAuthClient_GetAuthURL(t *testing.T) {
	registry := NewProviderRegistry(testOAuthConfig(), "https://app.example.com")
	client, err := registry.Client("github")
	require.NoError(t, err)

	authURL, verifier, nonce, err := client.GetAuthURL("gh-state")
	require.NoError(t, err)
	assert.NotEmpty(t, verifier)
	assert.Empty(t, nonce)

	parsed, err := url.Parse(authURL)
	require.NoError(t, err)
	q := parsed.Query()
	assert.Equal(t, "gh-state", q.Get("state"))
	assert.Contains(t, q.Get("scope"), "user:email")
}
