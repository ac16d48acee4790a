package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	jobKeyPrefix = "jobs:job:"
	readyKey     = "jobs:ready"
	historyKey   = "jobs:history"
)

// Queue is the durable job store on Redis. Jobs survive process restarts;
// the ready set is scored by due time so delayed retries and recurring runs
// use the same mechanism.
type Queue struct {
	redis        *redis.Client
	historyLimit int64
}

// NewQueue creates a queue over the given Redis client. historyLimit bounds
// how many finished-run records are retained.
func NewQueue(client *redis.Client, historyLimit int) *Queue {
	if historyLimit <= 0 {
		historyLimit = 200
	}
	return &Queue{redis: client, historyLimit: int64(historyLimit)}
}

// Enqueue persists the job and marks it ready at its RunAt time.
func (q *Queue) Enqueue(ctx context.Context, j *Job) error {
	j.State = StateWaiting
	j.UpdatedAt = time.Now().UTC()
	if err := q.save(ctx, j); err != nil {
		return err
	}
	if err := q.redis.ZAdd(ctx, readyKey, redis.Z{
		Score:  float64(j.RunAt.Unix()),
		Member: j.ID,
	}).Err(); err != nil {
		return fmt.Errorf("failed to enqueue job %s: %w", j.ID, err)
	}
	return nil
}

// EnqueueIfAbsent enqueues the job only when no job with its ID exists yet.
// Recurring schedule installation goes through here so a restart does not
// reset an installed schedule. A surviving record with no ready-set entry is
// a job that was claimed and then lost to a crash before Complete or Fail
// ran; it is re-armed to run immediately, otherwise the schedule would stay
// dead forever.
func (q *Queue) EnqueueIfAbsent(ctx context.Context, j *Job) (bool, error) {
	stored, err := q.load(ctx, j.ID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return true, q.Enqueue(ctx, j)
		}
		return false, err
	}

	_, err = q.redis.ZScore(ctx, readyKey, j.ID).Result()
	if errors.Is(err, redis.Nil) {
		stored.RunAt = time.Now().UTC()
		return false, q.Enqueue(ctx, stored)
	}
	if err != nil {
		return false, fmt.Errorf("failed to check ready set for job %s: %w", j.ID, err)
	}
	return false, nil
}

// Dequeue claims one due job, or returns nil when nothing is due. Claiming
// is a ZRem race: whichever worker removes the member owns the job.
func (q *Queue) Dequeue(ctx context.Context, now time.Time) (*Job, error) {
	ids, err := q.redis.ZRangeByScore(ctx, readyKey, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   fmt.Sprintf("%d", now.Unix()),
		Count: 8,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to poll ready set: %w", err)
	}

	for _, id := range ids {
		removed, err := q.redis.ZRem(ctx, readyKey, id).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to claim job %s: %w", id, err)
		}
		if removed == 0 {
			// another worker won this one
			continue
		}

		j, err := q.load(ctx, id)
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// orphaned ready entry, drop it
				continue
			}
			return nil, err
		}

		j.State = StateActive
		j.Attempt++
		j.UpdatedAt = now.UTC()
		if err := q.save(ctx, j); err != nil {
			return nil, err
		}
		return j, nil
	}

	return nil, nil
}

// Complete marks the job's run successful. Recurring jobs re-enter the queue
// at their next interval with the attempt counter reset; one-shot jobs are
// retained only as a history record.
func (q *Queue) Complete(ctx context.Context, j *Job) error {
	now := time.Now().UTC()
	j.State = StateCompleted
	j.UpdatedAt = now
	j.LastError = ""

	if err := q.record(ctx, j, now); err != nil {
		return err
	}

	if j.Recurring() {
		j.Attempt = 0
		j.RunAt = now.Add(j.Interval)
		return q.Enqueue(ctx, j)
	}

	return q.remove(ctx, j)
}

// Fail records a failed run. Below the attempt ceiling the job re-enters the
// queue after an exponentially growing backoff. At the ceiling a one-shot
// job becomes terminally failed; a recurring job records the failure and
// waits for its next scheduled cycle, so one broken source never stops the
// recurring pipeline.
func (q *Queue) Fail(ctx context.Context, j *Job, runErr error) error {
	now := time.Now().UTC()
	j.UpdatedAt = now
	if runErr != nil {
		j.LastError = runErr.Error()
	}

	if j.Attempt < j.MaxAttempts {
		j.RunAt = now.Add(j.Backoff())
		return q.Enqueue(ctx, j)
	}

	j.State = StateFailed
	if err := q.record(ctx, j, now); err != nil {
		return err
	}

	if j.Recurring() {
		j.Attempt = 0
		j.RunAt = now.Add(j.Interval)
		return q.Enqueue(ctx, j)
	}

	return q.remove(ctx, j)
}

// Depth returns how many jobs are waiting in the ready set.
func (q *Queue) Depth(ctx context.Context) (int64, error) {
	n, err := q.redis.ZCard(ctx, readyKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to read queue depth: %w", err)
	}
	return n, nil
}

// History returns the most recent finished-run records, newest first.
func (q *Queue) History(ctx context.Context, limit int64) ([]*Job, error) {
	if limit <= 0 || limit > q.historyLimit {
		limit = q.historyLimit
	}
	raw, err := q.redis.ZRevRange(ctx, historyKey, 0, limit-1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read job history: %w", err)
	}
	out := make([]*Job, 0, len(raw))
	for _, data := range raw {
		var j Job
		if err := json.Unmarshal([]byte(data), &j); err != nil {
			continue
		}
		out = append(out, &j)
	}
	return out, nil
}

// Get loads a job by ID.
func (q *Queue) Get(ctx context.Context, id string) (*Job, error) {
	j, err := q.load(ctx, id)
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("job %s not found", id)
	}
	return j, err
}

func (q *Queue) save(ctx context.Context, j *Job) error {
	data, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to marshal job %s: %w", j.ID, err)
	}
	if err := q.redis.Set(ctx, jobKeyPrefix+j.ID, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save job %s: %w", j.ID, err)
	}
	return nil
}

func (q *Queue) load(ctx context.Context, id string) (*Job, error) {
	data, err := q.redis.Get(ctx, jobKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to load job %s: %w", id, err)
	}
	var j Job
	if err := json.Unmarshal([]byte(data), &j); err != nil {
		return nil, fmt.Errorf("failed to unmarshal job %s: %w", id, err)
	}
	return &j, nil
}

func (q *Queue) remove(ctx context.Context, j *Job) error {
	if err := q.redis.Del(ctx, jobKeyPrefix+j.ID).Err(); err != nil {
		return fmt.Errorf("failed to remove job %s: %w", j.ID, err)
	}
	return nil
}

// record appends a snapshot of the finished run to the history set and
// prunes it to the retention limit.
func (q *Queue) record(ctx context.Context, j *Job, now time.Time) error {
	snapshot, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("failed to marshal job snapshot: %w", err)
	}
	pipe := q.redis.TxPipeline()
	pipe.ZAdd(ctx, historyKey, redis.Z{
		Score:  float64(now.UnixNano()),
		Member: string(snapshot),
	})
	pipe.ZRemRangeByRank(ctx, historyKey, 0, -(q.historyLimit + 1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to record job outcome: %w", err)
	}
	return nil
}
