package concurrent

import (
	"context"
	"sync"
	"time"
)

// Result 泛型结果类型
type Result[T any] struct {
	Value T
	Error error
}

// Task 泛型任务类型
type Task[T any] func(ctx context.Context) (T, error)

// ConcurrencyController 并发控制器
type ConcurrencyController struct {
	semaphore chan struct{} // 信号量控制并发数
}

// NewConcurrencyController 创建并发控制器
func NewConcurrencyController(maxConcurrency int) *ConcurrencyController {
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	return &ConcurrencyController{
		semaphore: make(chan struct{}, maxConcurrency),
	}
}

// ExecuteWithTimeout runs every task under a shared deadline and returns the
// results in task order. Tasks still running when the deadline passes report
// the context error in their slot; the returned error is the deadline error.
func ExecuteWithTimeout[T any](
	c *ConcurrencyController,
	ctx context.Context,
	tasks []Task[T],
	timeout time.Duration,
) ([]Result[T], error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	results := make([]Result[T], len(tasks))
	finished := make([]bool, len(tasks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task Task[T]) {
			defer wg.Done()
			value, err := executeTask(c, timeoutCtx, task)

			mu.Lock()
			defer mu.Unlock()
			results[i] = Result[T]{Value: value, Error: err}
			finished[i] = true
		}(i, task)
	}

	// 等待所有任务完成或超时
	allDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(allDone)
	}()

	select {
	case <-allDone:
		return results, nil
	case <-timeoutCtx.Done():
	}

	mu.Lock()
	defer mu.Unlock()
	snapshot := make([]Result[T], len(tasks))
	for i := range tasks {
		if finished[i] {
			snapshot[i] = results[i]
		} else {
			snapshot[i] = Result[T]{Error: timeoutCtx.Err()}
		}
	}
	return snapshot, timeoutCtx.Err()
}

// executeTask 执行单个任务
func executeTask[T any](c *ConcurrencyController, ctx context.Context, task Task[T]) (T, error) {
	var zero T

	// 获取信号量许可
	select {
	case c.semaphore <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	defer func() { <-c.semaphore }()

	return task(ctx)
}
