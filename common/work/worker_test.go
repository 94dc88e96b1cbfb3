package work

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewWorkerPool(t *testing.T) {
	tests := []struct {
		name        string
		numWorkers  int
		queueSize   int
		expectError bool
	}{
		{"valid pool", 2, 4, false},
		{"zero workers", 0, 4, true},
		{"negative workers", -1, 4, true},
		{"negative queue size", 2, -1, true},
		{"zero queue size", 2, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := NewWorkerPool[string](tt.numWorkers, tt.queueSize)
			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
				return
			}
			if pool == nil {
				t.Error("Expected pool but got nil")
			}
		})
	}
}

func TestWorkerPoolBasicOperation(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[string](2, 4)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "test-pool")
	defer pool.Stop()

	var executedCount int64
	task, err := NewTask[string](
		func(ctx context.Context) (string, error) {
			atomic.AddInt64(&executedCount, 1)
			return "test result", nil
		},
		WithID[string]("task-1"),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.AddTask(ctx, task); err != nil {
		t.Fatal(err)
	}

	select {
	case result := <-pool.Results():
		if !result.IsSuccess() {
			t.Errorf("Task failed: %v", result.Error)
		}
		if result.Result != "test result" {
			t.Errorf("Expected 'test result', got '%s'", result.Result)
		}
		if result.TaskID != "task-1" {
			t.Errorf("Expected task id 'task-1', got '%s'", result.TaskID)
		}
		if atomic.LoadInt64(&executedCount) != 1 {
			t.Errorf("Expected 1 execution, got %d", executedCount)
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for result")
	}
}

func TestWorkerPoolConcurrencyBound(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[int](2, 8)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "bound-test-pool")

	var active, maxActive int64
	const numTasks = 6
	for i := 0; i < numTasks; i++ {
		task, err := NewTask[int](
			func(ctx context.Context) (int, error) {
				n := atomic.AddInt64(&active, 1)
				for {
					m := atomic.LoadInt64(&maxActive)
					if n <= m || atomic.CompareAndSwapInt64(&maxActive, m, n) {
						break
					}
				}
				time.Sleep(30 * time.Millisecond)
				atomic.AddInt64(&active, -1)
				return i, nil
			},
		)
		if err != nil {
			t.Fatal(err)
		}
		if err := pool.AddTask(ctx, task); err != nil {
			t.Fatal(err)
		}
	}

	for i := 0; i < numTasks; i++ {
		select {
		case result := <-pool.Results():
			if !result.IsSuccess() {
				t.Errorf("Task failed: %v", result.Error)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("Timeout waiting for results")
		}
	}
	pool.Stop()

	if got := atomic.LoadInt64(&maxActive); got > 2 {
		t.Errorf("Expected at most 2 concurrent tasks, observed %d", got)
	}
}

func TestWorkerPoolTimeout(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[string](1, 1)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "timeout-test-pool")
	defer pool.Stop()

	var handlerCalled atomic.Bool
	task, err := NewTask[string](
		func(ctx context.Context) (string, error) {
			select {
			case <-time.After(2 * time.Second):
				return "should not complete", nil
			case <-ctx.Done():
				return "", ctx.Err()
			}
		},
		WithErrorHandler[string](func(err error) { handlerCalled.Store(true) }),
		WithTimeout[string](50*time.Millisecond),
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.AddTask(ctx, task); err != nil {
		t.Fatal(err)
	}

	select {
	case result := <-pool.Results():
		if result.IsSuccess() {
			t.Error("Expected task to timeout")
		}
		if !errors.Is(result.Error, ErrTaskTimeout) {
			t.Errorf("Expected timeout error, got: %v", result.Error)
		}
		if !handlerCalled.Load() {
			t.Error("Expected error handler to be called")
		}
	case <-time.After(3 * time.Second):
		t.Error("Timeout waiting for result")
	}
}

func TestWorkerPoolStop(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[string](2, 4)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "stop-test-pool")
	pool.Stop()

	task, err := NewTask[string](
		func(ctx context.Context) (string, error) {
			return "should not execute", nil
		},
	)
	if err != nil {
		t.Fatal(err)
	}

	if err := pool.AddTask(ctx, task); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Expected ErrPoolStopped, got: %v", err)
	}
	if err := pool.AddTaskNonBlocking(task); !errors.Is(err, ErrPoolStopped) {
		t.Errorf("Expected ErrPoolStopped, got: %v", err)
	}
}

func TestAddTaskNonBlocking(t *testing.T) {
	ctx := context.Background()
	pool, err := NewWorkerPool[string](1, 1)
	if err != nil {
		t.Fatal(err)
	}

	pool.Start(ctx, "nonblocking-test-pool")
	defer pool.Stop()

	blocker, err := NewTask[string](
		func(ctx context.Context) (string, error) {
			time.Sleep(300 * time.Millisecond)
			return "blocker", nil
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	if err := pool.AddTask(ctx, blocker); err != nil {
		t.Fatal(err)
	}

	// Give the worker time to pick up the blocking task.
	time.Sleep(50 * time.Millisecond)

	queued, _ := NewTask[string](func(ctx context.Context) (string, error) { return "queued", nil })
	if err := pool.AddTaskNonBlocking(queued); err != nil {
		t.Fatal(err)
	}

	overflow, _ := NewTask[string](func(ctx context.Context) (string, error) { return "overflow", nil })
	if err := pool.AddTaskNonBlocking(overflow); !errors.Is(err, ErrQueueFull) {
		t.Errorf("Expected ErrQueueFull, got: %v", err)
	}
}
