package utils

import (
	"context"
	"sync"
)

// Task is one unit of work and its outcome. Index is the item's position in
// the slice handed to Process.
type Task[T, R any] struct {
	Index  int
	Data   T
	Result R
	Err    error
}

// Worker processes a single item
type Worker[T, R any] func(ctx context.Context, data T) (R, error)

// Pool runs a Worker over a slice of items with bounded concurrency
type Pool[T, R any] struct {
	workers int
	worker  Worker[T, R]
}

// NewPool creates a new worker pool. workers below 1 means 1.
func NewPool[T, R any](workers int, worker Worker[T, R]) *Pool[T, R] {
	if workers < 1 {
		workers = 1
	}
	return &Pool[T, R]{workers: workers, worker: worker}
}

// Process runs the worker over items and returns one task per item, in input
// order. Items not started before ctx is done carry ctx.Err().
func (p *Pool[T, R]) Process(ctx context.Context, items []T) ([]*Task[T, R], error) {
	tasks := make([]*Task[T, R], len(items))
	for i, item := range items {
		tasks[i] = &Task[T, R]{Index: i, Data: item}
	}
	if len(items) == 0 {
		return tasks, nil
	}

	workers := p.workers
	if workers > len(items) {
		workers = len(items)
	}

	queue := make(chan *Task[T, R])
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				task.Result, task.Err = p.worker(ctx, task.Data)
			}
		}()
	}

	submitted := 0
submit:
	for _, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break submit
		case queue <- task:
			submitted++
		}
	}
	close(queue)
	wg.Wait()

	if submitted < len(tasks) {
		for _, task := range tasks[submitted:] {
			task.Err = ctx.Err()
		}
		return tasks, ctx.Err()
	}
	return tasks, nil
}

// FirstError returns the first non-nil task error
func FirstError[T, R any](tasks []*Task[T, R]) error {
	for _, task := range tasks {
		if task.Err != nil {
			return task.Err
		}
	}
	return nil
}

// CollectErrors returns all non-nil task errors in order
func CollectErrors[T, R any](tasks []*Task[T, R]) []error {
	var result []error
	for _, task := range tasks {
		if task.Err != nil {
			result = append(result, task.Err)
		}
	}
	return result
}
