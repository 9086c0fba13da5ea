package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"qadventure/internal/shared/biztime"
)

// PendingFlow stores the server-side half of an in-flight OAuth flow, keyed
// by the state parameter.
type PendingFlow struct {
	Provider     string    `json:"provider"`
	CodeVerifier string    `json:"code_verifier"`
	Nonce        string    `json:"nonce,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// OAuthFlowStore provides Redis-based storage for pending OAuth flows.
type OAuthFlowStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewOAuthFlowStore creates a new OAuthFlowStore instance.
// Parameters:
//   - client: Redis client instance
//   - prefix: Key prefix for namespacing (e.g., "oauth:state:")
//   - ttl: Time-to-live for state keys (recommended: 10 minutes)
func NewOAuthFlowStore(client *redis.Client, prefix string, ttl time.Duration) *OAuthFlowStore {
	return &OAuthFlowStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

// Set stores the pending flow under the state key with TTL.
func (s *OAuthFlowStore) Set(ctx context.Context, state string, flow PendingFlow) error {
	if state == "" {
		return errors.New("state cannot be empty")
	}
	if flow.Provider == "" {
		return errors.New("provider cannot be empty")
	}

	if flow.CreatedAt.IsZero() {
		flow.CreatedAt = biztime.NowUTC()
	}

	data, err := json.Marshal(flow)
	if err != nil {
		return fmt.Errorf("failed to marshal pending flow: %w", err)
	}

	key := s.buildKey(state)
	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store state in redis: %w", err)
	}

	return nil
}

// Consume verifies the state exists and retrieves the pending flow, deleting
// it in the same step. GETDEL is atomic, so a state can never be redeemed
// twice even under concurrent callbacks.
func (s *OAuthFlowStore) Consume(ctx context.Context, state string) (*PendingFlow, error) {
	if state == "" {
		return nil, errors.New("state cannot be empty")
	}

	key := s.buildKey(state)

	data, err := s.client.GetDel(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, errors.New("state not found or expired")
		}
		return nil, fmt.Errorf("failed to retrieve state from redis: %w", err)
	}

	var flow PendingFlow
	if err := json.Unmarshal([]byte(data), &flow); err != nil {
		return nil, fmt.Errorf("failed to unmarshal pending flow: %w", err)
	}

	return &flow, nil
}

// buildKey constructs the full Redis key with prefix
func (s *OAuthFlowStore) buildKey(state string) string {
	return s.prefix + state
}
