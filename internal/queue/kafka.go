package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/segmentio/kafka-go"
)

// publishRetries bounds the extra attempts Fail makes to re-publish a job.
const publishRetries = 3

type KafkaOptions struct {
	Brokers []string
	Topic   string
	GroupID string
	// DLQTopic receives jobs that exhausted their attempts. Empty drops them.
	DLQTopic string
	Policy   Policy
}

// KafkaQueue carries jobs as JSON messages keyed by job id. Retries are
// re-published to the same topic with a later AvailableAt; the consumer
// holds a due message until that time. Offsets are committed in order, so
// at most one message is in flight per queue instance. If a failed job
// cannot be re-published, the reader is reopened so the group resumes from
// the last committed offset and the job is delivered again.
type KafkaQueue struct {
	writer *kafka.Writer
	dlq    *kafka.Writer
	reader *kafka.Reader
	rcfg   kafka.ReaderConfig
	policy Policy
	now    func() time.Time
	send   func(ctx context.Context, w *kafka.Writer, job *Job) error

	slot     chan struct{}
	mu       sync.Mutex
	inflight map[string]kafka.Message
}

func NewKafkaQueue(opts KafkaOptions) *KafkaQueue {
	rcfg := kafka.ReaderConfig{
		Brokers:  opts.Brokers,
		Topic:    opts.Topic,
		GroupID:  opts.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
	}
	q := &KafkaQueue{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(opts.Brokers...),
			Topic:        opts.Topic,
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireAll,
		},
		reader:   kafka.NewReader(rcfg),
		rcfg:     rcfg,
		policy:   opts.Policy,
		now:      time.Now,
		slot:     make(chan struct{}, 1),
		inflight: make(map[string]kafka.Message),
	}
	q.send = q.publish
	if opts.DLQTopic != "" {
		q.dlq = &kafka.Writer{
			Addr:     kafka.TCP(opts.Brokers...),
			Topic:    opts.DLQTopic,
			Balancer: &kafka.LeastBytes{},
		}
	}
	return q
}

func (q *KafkaQueue) publish(ctx context.Context, w *kafka.Writer, job *Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return w.WriteMessages(ctx, kafka.Message{Key: []byte(job.ID), Value: body, Time: q.now()})
}

func (q *KafkaQueue) Enqueue(ctx context.Context, kind Kind, payload any) (*Job, error) {
	job, err := newJob(kind, payload, q.now())
	if err != nil {
		return nil, err
	}
	if err := q.send(ctx, q.writer, job); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return job, nil
}

func (q *KafkaQueue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case q.slot <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	job, msg, err := q.fetch(ctx)
	if err != nil {
		<-q.slot
		return nil, err
	}
	q.mu.Lock()
	q.inflight[job.ID] = msg
	q.mu.Unlock()
	return job, nil
}

func (q *KafkaQueue) fetch(ctx context.Context) (*Job, kafka.Message, error) {
	for {
		msg, err := q.reader.FetchMessage(ctx)
		if err != nil {
			return nil, msg, err
		}
		var job Job
		if err := json.Unmarshal(msg.Value, &job); err != nil || job.ID == "" {
			// not a job; skip it
			if err := q.reader.CommitMessages(ctx, msg); err != nil {
				return nil, msg, err
			}
			continue
		}
		if wait := job.AvailableAt.Sub(q.now()); wait > 0 {
			t := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				t.Stop()
				return nil, msg, ctx.Err()
			case <-t.C:
			}
		}
		job.Attempt++
		job.State = StateProcessing
		return &job, msg, nil
	}
}

func (q *KafkaQueue) release(ctx context.Context, job *Job) error {
	q.mu.Lock()
	msg, ok := q.inflight[job.ID]
	delete(q.inflight, job.ID)
	q.mu.Unlock()
	if !ok {
		return ErrUnknownJob
	}
	defer func() { <-q.slot }()
	return q.reader.CommitMessages(ctx, msg)
}

func (q *KafkaQueue) Ack(ctx context.Context, job *Job) error {
	q.mu.Lock()
	_, ok := q.inflight[job.ID]
	q.mu.Unlock()
	if !ok {
		return ErrUnknownJob
	}
	job.State = StateCompleted
	return q.release(ctx, job)
}

func (q *KafkaQueue) Fail(ctx context.Context, job *Job, cause error) error {
	q.mu.Lock()
	_, ok := q.inflight[job.ID]
	q.mu.Unlock()
	if !ok {
		return ErrUnknownJob
	}
	settled := *job
	var w *kafka.Writer
	if settle(q.policy, &settled, cause, q.now()) {
		w = q.writer
	} else {
		w = q.dlq
	}
	if w != nil {
		if err := q.publishRetry(ctx, w, &settled); err != nil {
			if rerr := q.rewind(job); rerr != nil {
				err = fmt.Errorf("%w; reopen reader: %v", err, rerr)
			}
			return fmt.Errorf("fail %s: %w", job.ID, err)
		}
	}
	*job = settled
	return q.release(ctx, job)
}

func (q *KafkaQueue) publishRetry(ctx context.Context, w *kafka.Writer, job *Job) error {
	b := backoff.WithContext(backoff.WithMaxRetries(q.policy.backOff(), publishRetries), ctx)
	return backoff.Retry(func() error { return q.send(ctx, w, job) }, b)
}

// rewind gives up the in-flight message without committing it and reopens
// the reader at the group's committed offset. The slot is still held, so no
// Dequeue is using the reader.
func (q *KafkaQueue) rewind(job *Job) error {
	q.mu.Lock()
	delete(q.inflight, job.ID)
	q.mu.Unlock()
	defer func() { <-q.slot }()

	err := q.reader.Close()
	q.reader = kafka.NewReader(q.rcfg)
	return err
}

func (q *KafkaQueue) Close() error {
	werr := q.writer.Close()
	if q.dlq != nil {
		if err := q.dlq.Close(); err != nil && werr == nil {
			werr = err
		}
	}
	if err := q.reader.Close(); err != nil {
		return err
	}
	return werr
}

var _ Queue = (*KafkaQueue)(nil)
