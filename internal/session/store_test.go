package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type brokenKV struct{}

func (brokenKV) Set(context.Context, string, string, time.Duration) error {
	return errors.New("connection refused")
}
func (brokenKV) Get(context.Context, string) (string, error) {
	return "", errors.New("connection refused")
}
func (brokenKV) Del(context.Context, string) error { return errors.New("connection refused") }

func newTestStore() (*Store, *MemoryKV, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)}
	kv := NewMemoryKV(clock.Now)
	return NewStore(kv, DefaultTTL), kv, clock
}

func TestStore_CreateResolve(t *testing.T) {
	s, kv, _ := newTestStore()
	ctx := context.Background()

	token, err := s.Create(ctx, "user-1")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	got, err := s.Resolve(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", got)

	raw, err := kv.Get(ctx, "auth_"+token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", raw)
}

func TestStore_TokensAreUnique(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	a, err := s.Create(ctx, "u")
	require.NoError(t, err)
	b, err := s.Create(ctx, "u")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestStore_Expiry(t *testing.T) {
	s, _, clock := newTestStore()
	ctx := context.Background()

	token, err := s.Create(ctx, "user-1")
	require.NoError(t, err)

	clock.Advance(DefaultTTL - time.Second)
	_, err = s.Resolve(ctx, token)
	require.NoError(t, err)

	clock.Advance(time.Second)
	_, err = s.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_Invalidate(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	token, err := s.Create(ctx, "user-1")
	require.NoError(t, err)

	require.NoError(t, s.Invalidate(ctx, token))
	_, err = s.Resolve(ctx, token)
	assert.ErrorIs(t, err, ErrNoSession)

	// second call on a gone token is fine
	require.NoError(t, s.Invalidate(ctx, token))
	require.NoError(t, s.Invalidate(ctx, "never-issued"))
}

func TestStore_UnknownAndEmptyToken(t *testing.T) {
	s, _, _ := newTestStore()
	ctx := context.Background()

	_, err := s.Resolve(ctx, "")
	assert.ErrorIs(t, err, ErrNoSession)
	_, err = s.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestStore_BackendFailureIsNotNoSession(t *testing.T) {
	s := NewStore(brokenKV{}, time.Hour)
	ctx := context.Background()

	_, err := s.Create(ctx, "u")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = s.Resolve(ctx, "tok")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.NotErrorIs(t, err, ErrNoSession)

	assert.ErrorIs(t, s.Invalidate(ctx, "tok"), ErrUnavailable)
}
