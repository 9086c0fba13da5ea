package auth

import (
	"fmt"
	"sort"
	"strings"

	"qadventure/internal/shared/config"
	"qadventure/internal/shared/constants"
)

// ProviderRegistry holds the configured OAuth clients. It is built once at
// startup from config and never mutated afterwards, so lookups need no lock.
type ProviderRegistry struct {
	clients map[string]OAuthClient
}

// NewProviderRegistry builds a registry from the OAuth config. Providers with
// no client_id are skipped; the callback redirect URI is derived from baseURL
// so it always matches what is registered with each provider.
func NewProviderRegistry(cfg *config.OAuthConfig, baseURL string) *ProviderRegistry {
	baseURL = strings.TrimRight(baseURL, "/")
	clients := make(map[string]OAuthClient)

	if cfg.Google.ClientID != "" {
		clients[constants.ProviderGoogle] = NewGoogleOAuthClient(GoogleOAuthConfig{
			ClientID:     cfg.Google.ClientID,
			ClientSecret: cfg.Google.ClientSecret,
			RedirectURL:  redirectURL(baseURL, constants.ProviderGoogle),
		})
	}

	if cfg.Facebook.ClientID != "" {
		clients[constants.ProviderFacebook] = NewFacebookOAuthClient(FacebookOAuthConfig{
			ClientID:     cfg.Facebook.ClientID,
			ClientSecret: cfg.Facebook.ClientSecret,
			RedirectURL:  redirectURL(baseURL, constants.ProviderFacebook),
		})
	}

	if cfg.GitHub.ClientID != "" {
		clients[constants.ProviderGitHub] = NewGitHubOAuthClient(GitHubOAuthConfig{
			ClientID:     cfg.GitHub.ClientID,
			ClientSecret: cfg.GitHub.ClientSecret,
			RedirectURL:  redirectURL(baseURL, constants.ProviderGitHub),
		})
	}

	return &ProviderRegistry{clients: clients}
}

// NewProviderRegistryWithClients builds a registry from explicit clients.
// Used by tests to inject fakes.
func NewProviderRegistryWithClients(clients ...OAuthClient) *ProviderRegistry {
	m := make(map[string]OAuthClient, len(clients))
	for _, c := range clients {
		m[c.Name()] = c
	}
	return &ProviderRegistry{clients: m}
}

// Client returns the client for the named provider.
func (r *ProviderRegistry) Client(name string) (OAuthClient, error) {
	client, ok := r.clients[name]
	if !ok {
		return nil, fmt.Errorf("oauth provider %q is not configured", name)
	}
	return client, nil
}

// Providers returns the configured provider names in stable order.
func (r *ProviderRegistry) Providers() []string {
	names := make([]string, 0, len(r.clients))
	for name := range r.clients {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func redirectURL(baseURL, provider string) string {
	return fmt.Sprintf("%s/auth/%s/callback", baseURL, provider)
}
