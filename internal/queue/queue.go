// Package queue is a durable, at-least-once job queue. A job is handed to one
// worker at a time; failed jobs are retried under a bounded Policy.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindThumbnail Kind = "thumbnail"
	KindWelcome   Kind = "welcome"
)

type State string

const (
	StateEnqueued   State = "enqueued"
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	// StateFailed is final: the job will not be delivered again.
	StateFailed State = "failed"
)

var (
	ErrUnknownJob = errors.New("job is not in flight")
	ErrClosed     = errors.New("queue closed")
)

// Job is immutable once enqueued except for Attempt, State, LastError and
// AvailableAt. Attempt counts deliveries, so the first run sees Attempt == 1.
type Job struct {
	ID          string          `json:"id"`
	Kind        Kind            `json:"kind"`
	Payload     json.RawMessage `json:"payload"`
	Attempt     int             `json:"attempt"`
	State       State           `json:"state"`
	LastError   string          `json:"lastError,omitempty"`
	EnqueuedAt  time.Time       `json:"enqueuedAt"`
	AvailableAt time.Time       `json:"availableAt"`
}

// Decode unmarshals the payload into v.
func (j *Job) Decode(v any) error {
	if err := json.Unmarshal(j.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", j.Kind, err)
	}
	return nil
}

func newJob(kind Kind, payload any, now time.Time) (*Job, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", kind, err)
	}
	return &Job{
		ID:          uuid.NewString(),
		Kind:        kind,
		Payload:     b,
		State:       StateEnqueued,
		EnqueuedAt:  now,
		AvailableAt: now,
	}, nil
}

// Queue is implemented by MemoryQueue, RedisQueue and KafkaQueue.
type Queue interface {
	Enqueue(ctx context.Context, kind Kind, payload any) (*Job, error)
	// Dequeue blocks until a job is available or ctx is done.
	Dequeue(ctx context.Context) (*Job, error)
	Ack(ctx context.Context, job *Job) error
	// Fail re-enqueues the job or marks it failed, depending on the policy
	// and on whether cause is Permanent.
	Fail(ctx context.Context, job *Job, cause error) error
	Close() error
}

// settle applies the policy to a failed delivery and reports whether the
// job goes back to the queue.
func settle(p Policy, job *Job, cause error, now time.Time) bool {
	if cause != nil {
		job.LastError = cause.Error()
	}
	if p.ShouldRetry(job, cause) {
		job.State = StateEnqueued
		job.AvailableAt = now.Add(p.Delay(job.Attempt))
		return true
	}
	job.State = StateFailed
	return false
}
