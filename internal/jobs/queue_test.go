package jobs

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestQueue(t *testing.T, historyLimit int) *Queue {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewQueue(client, historyLimit)
}

func TestQueue_EnqueueDequeue(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()

	j := NewJob("biblioteka-miejska", 3, time.Minute)
	require.NoError(t, q.Enqueue(ctx, j))

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)

	// not due before its RunAt
	got, err := q.Dequeue(ctx, j.RunAt.Add(-time.Minute))
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = q.Dequeue(ctx, j.RunAt.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, StateActive, got.State)
	assert.Equal(t, 1, got.Attempt)

	// claimed jobs leave the ready set
	depth, err = q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth)
}

func TestQueue_DequeueSingleWinner(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()

	j := NewJob("teatr-bajka", 3, time.Minute)
	require.NoError(t, q.Enqueue(ctx, j))

	due := j.RunAt.Add(time.Second)
	first, err := q.Dequeue(ctx, due)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := q.Dequeue(ctx, due)
	require.NoError(t, err)
	assert.Nil(t, second)
}

func TestQueue_RetryUntilTerminalFailure(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()

	j := NewJob("portal-kultury-rss", 3, time.Minute)
	require.NoError(t, q.Enqueue(ctx, j))

	runErr := errors.New("source unreachable")
	var delays []time.Duration
	attempts := 0

	for {
		// far enough ahead that every backoff has elapsed
		got, err := q.Dequeue(ctx, time.Now().Add(time.Hour))
		require.NoError(t, err)
		if got == nil {
			break
		}
		attempts++
		assert.Equal(t, attempts, got.Attempt)
		delays = append(delays, got.Backoff())
		require.NoError(t, q.Fail(ctx, got, runErr))
	}

	// exactly MaxAttempts runs, with strictly growing retry delays
	assert.Equal(t, 3, attempts)
	require.Len(t, delays, 3)
	for i := 1; i < len(delays); i++ {
		assert.Greater(t, delays[i], delays[i-1])
	}
	assert.Equal(t, time.Minute, delays[0])
	assert.Equal(t, 2*time.Minute, delays[1])
	assert.Equal(t, 4*time.Minute, delays[2])

	// terminally failed one-shot jobs are gone from the store
	_, err := q.Get(ctx, j.ID)
	assert.Error(t, err)

	history, err := q.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StateFailed, history[0].State)
	assert.Equal(t, "source unreachable", history[0].LastError)
}

func TestQueue_CompletedOneShotLeavesOnlyHistory(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()

	j := NewJob("biblioteka-miejska", 3, time.Minute)
	require.NoError(t, q.Enqueue(ctx, j))

	got, err := q.Dequeue(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NoError(t, q.Complete(ctx, got))

	_, err = q.Get(ctx, j.ID)
	assert.Error(t, err)

	history, err := q.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StateCompleted, history[0].State)

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), depth)
}

func TestQueue_RecurringReschedulesAfterCompletion(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()

	j := NewRecurringJob("biblioteka-miejska", time.Hour, 3, time.Minute)
	require.NoError(t, q.Enqueue(ctx, j))

	got, err := q.Dequeue(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Attempt)
	require.NoError(t, q.Complete(ctx, got))

	// back in the queue for the next cycle, attempt counter reset
	stored, err := q.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, StateWaiting, stored.State)
	assert.Equal(t, 0, stored.Attempt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), stored.RunAt, time.Minute)

	// not due until the interval passes
	got, err = q.Dequeue(ctx, time.Now())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = q.Dequeue(ctx, time.Now().Add(2*time.Hour))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.Attempt)
}

func TestQueue_RecurringSurvivesTerminalFailure(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()

	j := NewRecurringJob("teatr-bajka", time.Hour, 1, time.Minute)
	require.NoError(t, q.Enqueue(ctx, j))

	got, err := q.Dequeue(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, got)
	require.NoError(t, q.Fail(ctx, got, errors.New("boom")))

	// the failed cycle is recorded but the schedule stays installed
	history, err := q.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, StateFailed, history[0].State)

	stored, err := q.Get(ctx, j.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Attempt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), stored.RunAt, time.Minute)
}

func TestQueue_EnqueueIfAbsent(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()

	j := NewRecurringJob("biblioteka-miejska", time.Hour, 3, time.Minute)
	created, err := q.EnqueueIfAbsent(ctx, j)
	require.NoError(t, err)
	assert.True(t, created)

	again := NewRecurringJob("biblioteka-miejska", 30*time.Minute, 3, time.Minute)
	created, err = q.EnqueueIfAbsent(ctx, again)
	require.NoError(t, err)
	assert.False(t, created)

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), depth)
}

func TestQueue_EnqueueIfAbsentRearmsAbandonedJob(t *testing.T) {
	q := newTestQueue(t, 0)
	ctx := context.Background()

	j := NewRecurringJob("biblioteka-miejska", time.Hour, 3, time.Minute)
	created, err := q.EnqueueIfAbsent(ctx, j)
	require.NoError(t, err)
	require.True(t, created)

	// claim the job and never finish it, as a worker killed mid-run would
	claimed, err := q.Dequeue(ctx, j.RunAt.Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, claimed)

	depth, err := q.Depth(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(0), depth)

	// restart-time installation must put the surviving record back in rotation
	reinstall := NewRecurringJob("biblioteka-miejska", time.Hour, 3, time.Minute)
	created, err = q.EnqueueIfAbsent(ctx, reinstall)
	require.NoError(t, err)
	assert.False(t, created)

	got, err := q.Dequeue(ctx, time.Now().Add(time.Second))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, j.ID, got.ID)
	assert.Equal(t, StateActive, got.State)
	assert.True(t, got.Recurring())
}

func TestQueue_HistoryPrunedToLimit(t *testing.T) {
	q := newTestQueue(t, 5)
	ctx := context.Background()

	for i := 0; i < 8; i++ {
		j := NewJob(fmt.Sprintf("scraper-%d", i), 3, time.Minute)
		require.NoError(t, q.Enqueue(ctx, j))
		got, err := q.Dequeue(ctx, time.Now().Add(time.Second))
		require.NoError(t, err)
		require.NotNil(t, got)
		require.NoError(t, q.Complete(ctx, got))
	}

	history, err := q.History(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, history, 5)
	// newest first
	assert.Equal(t, "scraper-7", history[0].Scraper)
}

func TestJob_BackoffDoubles(t *testing.T) {
	j := &Job{BackoffBase: 30 * time.Second}
	j.Attempt = 1
	assert.Equal(t, 30*time.Second, j.Backoff())
	j.Attempt = 2
	assert.Equal(t, time.Minute, j.Backoff())
	j.Attempt = 3
	assert.Equal(t, 2*time.Minute, j.Backoff())
}

func TestRecurringID_Stable(t *testing.T) {
	assert.Equal(t, RecurringID("x"), RecurringID("x"))
	assert.Equal(t, "recurring:biblioteka-miejska", RecurringID("biblioteka-miejska"))
}
