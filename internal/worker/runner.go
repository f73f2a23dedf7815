// Package worker drives job handlers off a queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fathima-sithara/files-service/internal/metrics"
	"github.com/fathima-sithara/files-service/internal/queue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errShutdown = errors.New("worker shutting down")

type Handler interface {
	Handle(ctx context.Context, job *queue.Job) error
}

type HandlerFunc func(ctx context.Context, job *queue.Job) error

func (f HandlerFunc) Handle(ctx context.Context, job *queue.Job) error { return f(ctx, job) }

// Runner pulls jobs from one queue and dispatches them by kind. Each of the
// Concurrency loops handles one job at a time.
type Runner struct {
	queue       queue.Queue
	handlers    map[queue.Kind]Handler
	concurrency int
	retryDelay  time.Duration
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

func NewRunner(q queue.Queue, concurrency int, logger *zap.Logger, m *metrics.Metrics) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Runner{
		queue:       q,
		handlers:    make(map[queue.Kind]Handler),
		concurrency: concurrency,
		retryDelay:  time.Second,
		logger:      logger,
		metrics:     m,
	}
}

// Register must be called before Run.
func (r *Runner) Register(kind queue.Kind, h Handler) {
	r.handlers[kind] = h
}

// Run blocks until ctx is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < r.concurrency; i++ {
		g.Go(func() error { return r.loop(ctx) })
	}
	return g.Wait()
}

func (r *Runner) loop(ctx context.Context) error {
	for {
		job, err := r.queue.Dequeue(ctx)
		if ctx.Err() != nil {
			if job != nil {
				r.release(ctx, job)
			}
			return nil
		}
		if errors.Is(err, queue.ErrClosed) {
			return nil
		}
		if err != nil {
			r.logger.Warn("dequeue failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(r.retryDelay):
			}
			continue
		}
		r.process(ctx, job)
	}
}

// release hands back a job claimed while shutting down. It is failed as
// retryable so another worker picks it up.
func (r *Runner) release(ctx context.Context, job *queue.Job) {
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := r.queue.Fail(settleCtx, job, errShutdown); err != nil {
		r.logger.Error("release on shutdown failed", zap.String("job_id", job.ID), zap.Error(err))
		return
	}
	r.logger.Info("job released on shutdown", zap.String("job_id", job.ID), zap.String("state", string(job.State)))
}

func (r *Runner) process(ctx context.Context, job *queue.Job) {
	log := r.logger.With(
		zap.String("job_id", job.ID),
		zap.String("kind", string(job.Kind)),
		zap.Int("attempt", job.Attempt),
	)
	start := time.Now()

	var err error
	h, ok := r.handlers[job.Kind]
	if !ok {
		err = queue.Permanent(fmt.Errorf("no handler for job kind %q", job.Kind))
	} else {
		err = h.Handle(ctx, job)
	}
	if r.metrics != nil {
		r.metrics.JobDuration.WithLabelValues(string(job.Kind)).Observe(time.Since(start).Seconds())
	}

	// settle even when shutdown cancelled the handler
	settleCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	if err == nil {
		if ackErr := r.queue.Ack(settleCtx, job); ackErr != nil {
			log.Error("ack failed", zap.Error(ackErr))
			return
		}
		r.count(job, "completed")
		log.Info("job completed", zap.Duration("took", time.Since(start)))
		return
	}

	if failErr := r.queue.Fail(settleCtx, job, err); failErr != nil {
		log.Error("fail failed", zap.Error(failErr), zap.NamedError("cause", err))
		return
	}
	if job.State == queue.StateFailed {
		r.count(job, "failed")
		log.Error("job failed", zap.Error(err), zap.Bool("permanent", queue.IsPermanent(err)))
		return
	}
	r.count(job, "retry")
	log.Warn("job will be retried", zap.Error(err), zap.Time("available_at", job.AvailableAt))
}

func (r *Runner) count(job *queue.Job, outcome string) {
	if r.metrics != nil {
		r.metrics.JobsProcessed.WithLabelValues(string(job.Kind), outcome).Inc()
	}
}
