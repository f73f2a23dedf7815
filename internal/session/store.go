// Package session binds opaque tokens to user ids for a fixed lifetime.
// Every read or write of a binding goes through Store.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	keyPrefix  = "auth_"
	DefaultTTL = 24 * time.Hour
)

var (
	// ErrNoSession means the token is unknown or expired.
	ErrNoSession = errors.New("no session")
	// ErrUnavailable wraps failures of the backing store.
	ErrUnavailable = errors.New("session store unavailable")
)

type Store struct {
	kv       KV
	ttl      time.Duration
	newToken func() string
}

func NewStore(kv KV, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{kv: kv, ttl: ttl, newToken: uuid.NewString}
}

func key(token string) string { return keyPrefix + token }

// Create issues a fresh token bound to userID.
func (s *Store) Create(ctx context.Context, userID string) (string, error) {
	token := s.newToken()
	if err := s.kv.Set(ctx, key(token), userID, s.ttl); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return token, nil
}

// Resolve returns the user bound to token or ErrNoSession.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrNoSession
	}
	userID, err := s.kv.Get(ctx, key(token))
	if errors.Is(err, ErrKeyNotFound) {
		return "", ErrNoSession
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return userID, nil
}

// Invalidate drops the binding. Unknown tokens are not an error.
func (s *Store) Invalidate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.kv.Del(ctx, key(token)); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
