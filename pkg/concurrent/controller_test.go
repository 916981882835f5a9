package concurrent

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteWithTimeoutKeepsOrder(t *testing.T) {
	c := NewConcurrencyController(2)
	boom := errors.New("boom")

	tasks := []Task[string]{
		func(ctx context.Context) (string, error) {
			time.Sleep(10 * time.Millisecond)
			return "first", nil
		},
		func(ctx context.Context) (string, error) { return "", boom },
		func(ctx context.Context) (string, error) { return "third", nil },
	}

	results, err := ExecuteWithTimeout(c, context.Background(), tasks, time.Second)
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "first", results[0].Value)
	assert.ErrorIs(t, results[1].Error, boom)
	assert.Equal(t, "third", results[2].Value)
}

func TestExecuteWithTimeoutLimitsConcurrency(t *testing.T) {
	c := NewConcurrencyController(2)
	var running, peak atomic.Int32

	tasks := make([]Task[int], 8)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (int, error) {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			return i, nil
		}
	}

	results, err := ExecuteWithTimeout(c, context.Background(), tasks, time.Second)
	require.NoError(t, err)
	assert.LessOrEqual(t, peak.Load(), int32(2))
	for i, r := range results {
		assert.Equal(t, i, r.Value)
	}
}

func TestExecuteWithTimeoutReportsLateTasks(t *testing.T) {
	c := NewConcurrencyController(4)
	tasks := []Task[string]{
		func(ctx context.Context) (string, error) { return "fast", nil },
		func(ctx context.Context) (string, error) {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			return "slow", nil
		},
	}

	results, err := ExecuteWithTimeout(c, context.Background(), tasks, 20*time.Millisecond)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, "fast", results[0].Value)
	assert.ErrorIs(t, results[1].Error, context.DeadlineExceeded)
}

func TestNewConcurrencyControllerClampsLimit(t *testing.T) {
	assert.Equal(t, 1, cap(NewConcurrencyController(0).semaphore))
	assert.Equal(t, 3, cap(NewConcurrencyController(3).semaphore))
}
