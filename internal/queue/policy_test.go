package queue

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPolicyDelay(t *testing.T) {
	p := Policy{MaxAttempts: 5, InitialBackoff: time.Second, MaxBackoff: 3 * time.Second}
	assert.Equal(t, time.Duration(0), p.Delay(0))
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 1500*time.Millisecond, p.Delay(2))
	assert.Equal(t, 2250*time.Millisecond, p.Delay(3))
	assert.Equal(t, 3*time.Second, p.Delay(4))
	assert.Equal(t, 3*time.Second, p.Delay(10))
}

func TestPolicyZeroBackoff(t *testing.T) {
	assert.Equal(t, time.Duration(0), Policy{MaxAttempts: 3}.Delay(2))
}

func TestShouldRetry(t *testing.T) {
	p := Policy{MaxAttempts: 3}
	boom := errors.New("boom")

	assert.True(t, p.ShouldRetry(&Job{Attempt: 1}, boom))
	assert.True(t, p.ShouldRetry(&Job{Attempt: 2}, boom))
	assert.False(t, p.ShouldRetry(&Job{Attempt: 3}, boom))
	assert.False(t, p.ShouldRetry(&Job{Attempt: 1}, Permanent(boom)))
	assert.False(t, p.ShouldRetry(&Job{Attempt: 1}, fmt.Errorf("wrapped: %w", Permanent(boom))))
}

func TestPermanentKeepsCause(t *testing.T) {
	boom := errors.New("boom")
	err := Permanent(boom)
	assert.True(t, IsPermanent(err))
	assert.ErrorIs(t, err, boom)
	assert.False(t, IsPermanent(boom))
	assert.False(t, IsPermanent(nil))
}
