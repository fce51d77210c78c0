package utils

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func double(ctx context.Context, n int) (int, error) {
	return n * 2, nil
}

func TestNewPool(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 5, NewPool(5, double).workers)
	assert.Equal(t, 1, NewPool(0, double).workers)
	assert.Equal(t, 1, NewPool(-3, double).workers)
}

func TestPoolProcess(t *testing.T) {
	t.Parallel()

	t.Run("results keep input order", func(t *testing.T) {
		items := []int{5, 4, 3, 2, 1}

		tasks, err := NewPool(3, double).Process(context.Background(), items)

		require.NoError(t, err)
		require.Len(t, tasks, len(items))
		for i, task := range tasks {
			assert.Equal(t, i, task.Index)
			assert.Equal(t, items[i], task.Data)
			assert.Equal(t, items[i]*2, task.Result)
			assert.NoError(t, task.Err)
		}
	})

	t.Run("empty items", func(t *testing.T) {
		tasks, err := NewPool(3, double).Process(context.Background(), nil)

		require.NoError(t, err)
		assert.Empty(t, tasks)
	})

	t.Run("errors stay on their task", func(t *testing.T) {
		boom := errors.New("boom")
		worker := func(ctx context.Context, n int) (int, error) {
			if n%2 == 0 {
				return 0, boom
			}
			return n, nil
		}

		tasks, err := NewPool(2, worker).Process(context.Background(), []int{1, 2, 3, 4})

		require.NoError(t, err)
		assert.NoError(t, tasks[0].Err)
		assert.ErrorIs(t, tasks[1].Err, boom)
		assert.NoError(t, tasks[2].Err)
		assert.ErrorIs(t, tasks[3].Err, boom)
	})

	t.Run("concurrency is bounded", func(t *testing.T) {
		var running, peak int32
		worker := func(ctx context.Context, n int) (int, error) {
			cur := atomic.AddInt32(&running, 1)
			for {
				old := atomic.LoadInt32(&peak)
				if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt32(&running, -1)
			return n, nil
		}

		_, err := NewPool(2, worker).Process(context.Background(), make([]int, 10))

		require.NoError(t, err)
		assert.LessOrEqual(t, atomic.LoadInt32(&peak), int32(2))
	})

	t.Run("canceled context marks unstarted tasks", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		tasks, err := NewPool(2, double).Process(ctx, []int{1, 2, 3})

		assert.ErrorIs(t, err, context.Canceled)
		require.Len(t, tasks, 3)
		canceled := 0
		for _, task := range tasks {
			if errors.Is(task.Err, context.Canceled) {
				canceled++
			}
		}
		assert.Positive(t, canceled)
	})
}

func TestFirstError(t *testing.T) {
	first := errors.New("first")
	tasks := []*Task[int, int]{{}, {Err: first}, {Err: errors.New("second")}}

	assert.Equal(t, first, FirstError(tasks))
	assert.NoError(t, FirstError([]*Task[int, int]{{}, {}}))
}

func TestCollectErrors(t *testing.T) {
	a, b := errors.New("a"), errors.New("b")
	tasks := []*Task[int, int]{{Err: a}, {}, {Err: b}}

	assert.Equal(t, []error{a, b}, CollectErrors(tasks))
	assert.Nil(t, CollectErrors([]*Task[int, int]{{}}))
}
