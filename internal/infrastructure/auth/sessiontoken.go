package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"qadventure/internal/shared/biztime"
)

// SessionClaims are the claims carried by a session token. The token is the
// whole session: there is no server-side session row, so everything the
// middleware needs must be in here.
type SessionClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// SessionTokenService issues and verifies signed session tokens.
type SessionTokenService struct {
	secret   []byte
	expHours int
}

func NewSessionTokenService(secret string, expHours int) *SessionTokenService {
	if expHours <= 0 {
		expHours = 24
	}
	return &SessionTokenService{
		secret:   []byte(secret),
		expHours: expHours,
	}
}

// MaxAgeSeconds returns the session lifetime for the cookie Max-Age attribute.
func (s *SessionTokenService) MaxAgeSeconds() int {
	return s.expHours * 3600
}

// Issue signs a new session token for the given user.
func (s *SessionTokenService) Issue(userID uint, email string) (string, error) {
	now := biztime.NowUTC()

	claims := &SessionClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(s.expHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}

	return tokenString, nil
}

// Verify parses and validates a session token. Any failure, whether a bad
// signature, expiry, or garbage input, yields an error; callers treat all of
// them as an invalid session.
func (s *SessionTokenService) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		if claims.UserID == 0 {
			return nil, fmt.Errorf("invalid token: missing user id")
		}
		return claims, nil
	}

	return nil, fmt.Errorf("invalid token")
}
