package workers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProcess_AllItemsComplete(t *testing.T) {
	pool := NewPool(PoolConfig{MaxConcurrent: 3}, zap.NewNop())

	items := make([]WorkItem[int], 10)
	for i := 0; i < 10; i++ {
		i := i
		items[i] = WorkItem[int]{
			ID: fmt.Sprintf("item-%d", i),
			Execute: func(ctx context.Context) (int, error) {
				return i * 2, nil
			},
		}
	}

	results := Process(context.Background(), pool, items, nil)
	require.Len(t, results, 10)

	byID := make(map[string]int)
	for _, r := range results {
		require.NoError(t, r.Err)
		byID[r.ID] = r.Result
	}
	for i := 0; i < 10; i++ {
		assert.Equal(t, i*2, byID[fmt.Sprintf("item-%d", i)])
	}
}

func TestProcess_EmptyItems(t *testing.T) {
	pool := NewPool(DefaultPoolConfig(), zap.NewNop())
	assert.Nil(t, Process[int](context.Background(), pool, nil, nil))
}

func TestProcess_ContinuesPastFailures(t *testing.T) {
	pool := NewPool(PoolConfig{MaxConcurrent: 2}, zap.NewNop())
	boom := errors.New("boom")

	items := []WorkItem[string]{
		{ID: "ok-1", Execute: func(ctx context.Context) (string, error) { return "a", nil }},
		{ID: "bad", Execute: func(ctx context.Context) (string, error) { return "", boom }},
		{ID: "ok-2", Execute: func(ctx context.Context) (string, error) { return "b", nil }},
	}

	results := Process(context.Background(), pool, items, nil)
	require.Len(t, results, 3)

	failures := 0
	for _, r := range results {
		if r.Err != nil {
			failures++
			assert.Equal(t, "bad", r.ID)
			assert.ErrorIs(t, r.Err, boom)
		}
	}
	assert.Equal(t, 1, failures)
}

func TestProcess_BoundsConcurrency(t *testing.T) {
	const limit = 2
	pool := NewPool(PoolConfig{MaxConcurrent: limit}, zap.NewNop())

	var current, peak int64
	var mu sync.Mutex
	gate := make(chan struct{})

	items := make([]WorkItem[struct{}], 8)
	for i := range items {
		items[i] = WorkItem[struct{}]{
			ID: fmt.Sprintf("item-%d", i),
			Execute: func(ctx context.Context) (struct{}, error) {
				n := atomic.AddInt64(&current, 1)
				mu.Lock()
				if n > peak {
					peak = n
				}
				mu.Unlock()
				<-gate
				atomic.AddInt64(&current, -1)
				return struct{}{}, nil
			},
		}
	}

	done := make(chan []WorkResult[struct{}])
	go func() {
		done <- Process(context.Background(), pool, items, nil)
	}()
	close(gate)

	results := <-done
	require.Len(t, results, 8)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peak, int64(limit))
}

func TestProcess_CanceledContextFailsPendingItems(t *testing.T) {
	pool := NewPool(PoolConfig{MaxConcurrent: 1}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	items := []WorkItem[int]{
		{ID: "a", Execute: func(ctx context.Context) (int, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return 1, nil
		}},
		{ID: "b", Execute: func(ctx context.Context) (int, error) {
			if err := ctx.Err(); err != nil {
				return 0, err
			}
			return 2, nil
		}},
	}

	results := Process(ctx, pool, items, nil)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestProcess_ReportsProgress(t *testing.T) {
	pool := NewPool(PoolConfig{MaxConcurrent: 4}, zap.NewNop())

	items := make([]WorkItem[int], 5)
	for i := range items {
		items[i] = WorkItem[int]{
			ID:      fmt.Sprintf("item-%d", i),
			Execute: func(ctx context.Context) (int, error) { return 0, nil },
		}
	}

	var calls []int
	Process(context.Background(), pool, items, func(completed, total int) {
		assert.Equal(t, 5, total)
		calls = append(calls, completed)
	})

	assert.Equal(t, []int{1, 2, 3, 4, 5}, calls)
}

func TestNewPool_DefaultsInvalidConcurrency(t *testing.T) {
	pool := NewPool(PoolConfig{MaxConcurrent: 0}, zap.NewNop())
	assert.Equal(t, 8, pool.config.MaxConcurrent)
}
