package session

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by KV.Get for absent or expired keys.
var ErrKeyNotFound = errors.New("key not found")

// KV is the slice of a key-value store the session store needs.
type KV interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, key string) error
}
