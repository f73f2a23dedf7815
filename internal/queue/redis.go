package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// claimScript returns stale in-flight jobs to pending, then moves the oldest
// available pending job to processing. The per-job delivery counter in the
// claims hash is bumped atomically and doubles as the claim fence.
var claimScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local visibility = tonumber(ARGV[2])
local stale = redis.call('ZRANGEBYSCORE', KEYS[2], '-inf', now - visibility)
for _, id in ipairs(stale) do
  redis.call('ZREM', KEYS[2], id)
  redis.call('ZADD', KEYS[1], now, id)
end
local ids = redis.call('ZRANGEBYSCORE', KEYS[1], '-inf', now, 'LIMIT', 0, 1)
if #ids == 0 then
  return false
end
redis.call('ZREM', KEYS[1], ids[1])
redis.call('ZADD', KEYS[2], now, ids[1])
local attempt = redis.call('HINCRBY', KEYS[3], ids[1], 1)
return {ids[1], attempt}
`)

// ackScript drops a job only if the caller holds the current claim.
var ackScript = redis.NewScript(`
if redis.call('HGET', KEYS[2], ARGV[1]) ~= ARGV[2] then
  return 0
end
if redis.call('ZREM', KEYS[1], ARGV[1]) == 0 then
  return 0
end
redis.call('HDEL', KEYS[2], ARGV[1])
redis.call('HDEL', KEYS[3], ARGV[1])
return 1
`)

// failScript requeues or buries a job only if the caller holds the current
// claim. ARGV: id, attempt, body, requeue flag, available-at score.
var failScript = redis.NewScript(`
if redis.call('HGET', KEYS[2], ARGV[1]) ~= ARGV[2] then
  return 0
end
if redis.call('ZREM', KEYS[1], ARGV[1]) == 0 then
  return 0
end
if ARGV[4] == '1' then
  redis.call('HSET', KEYS[3], ARGV[1], ARGV[3])
  redis.call('ZADD', KEYS[4], ARGV[5], ARGV[1])
else
  redis.call('HDEL', KEYS[3], ARGV[1])
  redis.call('HDEL', KEYS[2], ARGV[1])
  redis.call('HSET', KEYS[5], ARGV[1], ARGV[3])
end
return 1
`)

type RedisOptions struct {
	Policy Policy
	// PollInterval is how often an idle Dequeue looks for due jobs.
	PollInterval time.Duration
	// Visibility is how long a claimed job may stay unacknowledged before
	// another worker may take it.
	Visibility time.Duration
}

// RedisQueue keeps job bodies in a hash and schedules ids in two sorted sets
// scored by unix milliseconds: pending (available at) and processing
// (claimed at). A claims hash counts deliveries per job; Ack and Fail must
// present the current count, so a worker whose claim was reclaimed after the
// visibility timeout cannot settle the job. Jobs that exhaust their attempts
// move to a dead hash.
type RedisQueue struct {
	rdb        *redis.Client
	name       string
	policy     Policy
	poll       time.Duration
	visibility time.Duration
	now        func() time.Time
}

func NewRedisQueue(rdb *redis.Client, name string, opts RedisOptions) *RedisQueue {
	if opts.PollInterval <= 0 {
		opts.PollInterval = 500 * time.Millisecond
	}
	if opts.Visibility <= 0 {
		opts.Visibility = 5 * time.Minute
	}
	return &RedisQueue{
		rdb:        rdb,
		name:       name,
		policy:     opts.Policy,
		poll:       opts.PollInterval,
		visibility: opts.Visibility,
		now:        time.Now,
	}
}

func (q *RedisQueue) key(suffix string) string {
	return "queue:" + q.name + ":" + suffix
}

func (q *RedisQueue) Enqueue(ctx context.Context, kind Kind, payload any) (*Job, error) {
	job, err := newJob(kind, payload, q.now())
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(job)
	if err != nil {
		return nil, err
	}
	_, err = q.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, q.key("jobs"), job.ID, body)
		p.ZAdd(ctx, q.key("pending"), redis.Z{Score: float64(job.AvailableAt.UnixMilli()), Member: job.ID})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", kind, err)
	}
	return job, nil
}

func (q *RedisQueue) claim(ctx context.Context) (*Job, error) {
	keys := []string{q.key("pending"), q.key("processing"), q.key("claims")}
	res, err := claimScript.Run(ctx, q.rdb, keys, q.now().UnixMilli(), q.visibility.Milliseconds()).Slice()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim: %w", err)
	}
	id, _ := res[0].(string)
	attempt, _ := res[1].(int64)

	body, err := q.rdb.HGet(ctx, q.key("jobs"), id).Bytes()
	if errors.Is(err, redis.Nil) {
		// body vanished; drop the orphaned id
		q.rdb.ZRem(ctx, q.key("processing"), id)
		q.rdb.HDel(ctx, q.key("claims"), id)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", id, err)
	}
	var job Job
	if err := json.Unmarshal(body, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	job.Attempt = int(attempt)
	job.State = StateProcessing
	if err := q.save(ctx, q.rdb, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

func (q *RedisQueue) save(ctx context.Context, c redis.Cmdable, job *Job) error {
	body, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return c.HSet(ctx, q.key("jobs"), job.ID, body).Err()
}

func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()
	for {
		job, err := q.claim(ctx)
		if err != nil || job != nil {
			return job, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (q *RedisQueue) Ack(ctx context.Context, job *Job) error {
	keys := []string{q.key("processing"), q.key("claims"), q.key("jobs")}
	ok, err := ackScript.Run(ctx, q.rdb, keys, job.ID, job.Attempt).Int()
	if err != nil {
		return fmt.Errorf("ack %s: %w", job.ID, err)
	}
	if ok == 0 {
		return ErrUnknownJob
	}
	job.State = StateCompleted
	return nil
}

func (q *RedisQueue) Fail(ctx context.Context, job *Job, cause error) error {
	settled := *job
	requeue := settle(q.policy, &settled, cause, q.now())
	body, err := json.Marshal(&settled)
	if err != nil {
		return err
	}
	flag := "0"
	if requeue {
		flag = "1"
	}
	keys := []string{q.key("processing"), q.key("claims"), q.key("jobs"), q.key("pending"), q.key("dead")}
	ok, err := failScript.Run(ctx, q.rdb, keys,
		job.ID, job.Attempt, body, flag, settled.AvailableAt.UnixMilli()).Int()
	if err != nil {
		return fmt.Errorf("fail %s: %w", job.ID, err)
	}
	if ok == 0 {
		return ErrUnknownJob
	}
	*job = settled
	return nil
}

// Dead returns jobs that exhausted their attempts.
func (q *RedisQueue) Dead(ctx context.Context) ([]*Job, error) {
	raw, err := q.rdb.HGetAll(ctx, q.key("dead")).Result()
	if err != nil {
		return nil, err
	}
	out := make([]*Job, 0, len(raw))
	for _, body := range raw {
		var job Job
		if err := json.Unmarshal([]byte(body), &job); err != nil {
			return nil, err
		}
		out = append(out, &job)
	}
	return out, nil
}

// Close does not close the shared redis client.
func (q *RedisQueue) Close() error { return nil }

var _ Queue = (*RedisQueue)(nil)
