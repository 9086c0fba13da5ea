package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"qadventure/internal/shared/biztime"
	"qadventure/internal/shared/utils"
)

// httpClientTimeout bounds every outbound request to a provider API.
const httpClientTimeout = 10 * time.Second

// Profile is the provider-neutral shape of an external identity, as returned
// by FetchProfile. Email may be empty for providers that allow hiding it;
// callers decide what to do in that case.
type Profile struct {
	Email         string
	Username      string
	ProviderID    string
	EmailVerified bool
}

// OAuthClient abstracts one configured OAuth provider.
type OAuthClient interface {
	// Name returns the provider identifier ("google", "facebook", "github").
	Name() string

	// GetAuthURL builds the provider authorization URL for the given state.
	// It returns the URL plus the PKCE code verifier and nonce that must
	// round-trip through the flow; nonce is empty for non-OIDC providers.
	GetAuthURL(state string) (authURL, codeVerifier, nonce string, err error)

	// ExchangeCode redeems the authorization code for an access token.
	ExchangeCode(ctx context.Context, code, codeVerifier string) (string, error)

	// FetchProfile retrieves the normalized user profile.
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
}

// usernameFallback derives a username from whatever the provider gave us:
// display name first, then login, then the email local part, and finally a
// timestamped placeholder so registration never stalls on a blank name.
func usernameFallback(displayName, login, email string) string {
	if name := sanitizeUsername(displayName); name != "" {
		return name
	}
	if name := sanitizeUsername(login); name != "" {
		return name
	}
	if at := strings.IndexByte(email, '@'); at > 0 {
		if name := sanitizeUsername(email[:at]); name != "" {
			return name
		}
	}
	return fmt.Sprintf("user%d", biztime.NowUTC().Unix())
}

// sanitizeUsername maps an arbitrary provider string onto the allowed
// username alphabet, returning "" when nothing usable remains.
func sanitizeUsername(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}

	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.', r == '_', r == '-':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('_')
		}
	}

	out := b.String()
	if len(out) > 64 {
		out = out[:64]
	}
	if !utils.IsValidUsername(out) {
		return ""
	}
	return out
}
