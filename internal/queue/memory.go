package queue

import (
	"context"
	"sync"
	"time"
)

// MemoryQueue is a process-local queue. Jobs do not survive a restart, so it
// is meant for tests and single-process development setups.
type MemoryQueue struct {
	mu      sync.Mutex
	policy  Policy
	pending []*Job
	jobs    map[string]*Job
	wake    chan struct{}
	poll    time.Duration
	now     func() time.Time
	closed  bool
}

func NewMemoryQueue(policy Policy) *MemoryQueue {
	return &MemoryQueue{
		policy: policy,
		jobs:   make(map[string]*Job),
		wake:   make(chan struct{}, 1),
		poll:   50 * time.Millisecond,
		now:    time.Now,
	}
}

func (q *MemoryQueue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, kind Kind, payload any) (*Job, error) {
	job, err := newJob(kind, payload, q.now())
	if err != nil {
		return nil, err
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil, ErrClosed
	}
	q.jobs[job.ID] = job
	q.pending = append(q.pending, job)
	q.mu.Unlock()
	q.signal()
	cp := *job
	return &cp, nil
}

// claim pops the first available job, or reports how long until one is.
func (q *MemoryQueue) claim() (*Job, time.Duration, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil, 0, ErrClosed
	}
	now := q.now()
	wait := q.poll
	for i, job := range q.pending {
		if !job.AvailableAt.After(now) {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			job.Attempt++
			job.State = StateProcessing
			cp := *job
			return &cp, 0, nil
		}
		if d := job.AvailableAt.Sub(now); d < wait {
			wait = d
		}
	}
	return nil, wait, nil
}

func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	for {
		job, wait, err := q.claim()
		if err != nil || job != nil {
			return job, err
		}
		t := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			t.Stop()
			return nil, ctx.Err()
		case <-q.wake:
			t.Stop()
		case <-t.C:
		}
	}
}

func (q *MemoryQueue) inflight(id string) (*Job, error) {
	job, ok := q.jobs[id]
	if !ok || job.State != StateProcessing {
		return nil, ErrUnknownJob
	}
	return job, nil
}

func (q *MemoryQueue) Ack(_ context.Context, job *Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	stored, err := q.inflight(job.ID)
	if err != nil {
		return err
	}
	stored.State = StateCompleted
	job.State = StateCompleted
	return nil
}

func (q *MemoryQueue) Fail(_ context.Context, job *Job, cause error) error {
	q.mu.Lock()
	stored, err := q.inflight(job.ID)
	if err != nil {
		q.mu.Unlock()
		return err
	}
	requeue := settle(q.policy, stored, cause, q.now())
	if requeue {
		q.pending = append(q.pending, stored)
	}
	*job = *stored
	q.mu.Unlock()
	if requeue {
		q.signal()
	}
	return nil
}

// Get returns a snapshot of the job with the given id.
func (q *MemoryQueue) Get(id string) (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil, false
	}
	cp := *job
	return &cp, true
}

// Jobs returns snapshots of every job ever enqueued, in no particular order.
func (q *MemoryQueue) Jobs() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]*Job, 0, len(q.jobs))
	for _, job := range q.jobs {
		cp := *job
		out = append(out, &cp)
	}
	return out
}

func (q *MemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	return nil
}

var _ Queue = (*MemoryQueue)(nil)
