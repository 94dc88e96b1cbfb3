package work

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

var (
	// ErrPoolStopped is returned when a task is added to a stopped pool
	ErrPoolStopped = errors.New("worker pool is stopped")

	// ErrTaskTimeout is returned when a task exceeds its timeout
	ErrTaskTimeout = errors.New("task timed out")

	// ErrQueueFull is returned by AddTaskNonBlocking when the queue is full
	ErrQueueFull = errors.New("task queue is full")
)

// Task is a unit of work executed by the pool.
type Task[T any] struct {
	id      string
	run     func(ctx context.Context) (T, error)
	onError func(error)
	timeout time.Duration
}

// TaskOption configures a Task.
type TaskOption[T any] func(*Task[T])

// WithErrorHandler sets a callback invoked when the task fails.
func WithErrorHandler[T any](fn func(error)) TaskOption[T] {
	return func(t *Task[T]) { t.onError = fn }
}

// WithTimeout bounds the task execution time. Zero means no per-task deadline.
func WithTimeout[T any](d time.Duration) TaskOption[T] {
	return func(t *Task[T]) { t.timeout = d }
}

// WithID tags the task for logging and result correlation.
func WithID[T any](id string) TaskOption[T] {
	return func(t *Task[T]) { t.id = id }
}

// NewTask creates a task from a run function.
func NewTask[T any](run func(ctx context.Context) (T, error), opts ...TaskOption[T]) (*Task[T], error) {
	if run == nil {
		return nil, errors.New("task run function cannot be nil")
	}
	t := &Task[T]{run: run}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Result is the outcome of one task.
type Result[T any] struct {
	TaskID string
	Result T
	Error  error
}

// IsSuccess reports whether the task completed without error.
func (r Result[T]) IsSuccess() bool {
	return r.Error == nil
}

// WorkerPool runs tasks on a fixed number of workers. It bounds how many
// scrape runs (each owning a browser process) execute at once.
type WorkerPool[T any] struct {
	numWorkers int
	tasks      chan *Task[T]
	results    chan Result[T]
	wg         sync.WaitGroup
	stopOnce   sync.Once
	stopped    atomic.Bool
}

// NewWorkerPool creates a pool with the given worker count and queue size.
func NewWorkerPool[T any](numWorkers, queueSize int) (*WorkerPool[T], error) {
	if numWorkers <= 0 {
		return nil, fmt.Errorf("numWorkers must be positive, got %d", numWorkers)
	}
	if queueSize < 0 {
		return nil, fmt.Errorf("queueSize cannot be negative, got %d", queueSize)
	}
	return &WorkerPool[T]{
		numWorkers: numWorkers,
		tasks:      make(chan *Task[T], queueSize),
		results:    make(chan Result[T], queueSize+numWorkers),
	}, nil
}

// Start launches the workers. The name is only used for logging.
func (p *WorkerPool[T]) Start(ctx context.Context, name string) {
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, name)
	}
	log.Debug().Str("pool", name).Int("workers", p.numWorkers).Msg("Worker pool started")
}

func (p *WorkerPool[T]) worker(ctx context.Context, name string) {
	defer p.wg.Done()
	for task := range p.tasks {
		p.execute(ctx, name, task)
	}
}

func (p *WorkerPool[T]) execute(ctx context.Context, name string, task *Task[T]) {
	taskCtx := ctx
	var cancel context.CancelFunc
	if task.timeout > 0 {
		taskCtx, cancel = context.WithTimeout(ctx, task.timeout)
		defer cancel()
	}

	value, err := task.run(taskCtx)
	if err != nil && task.timeout > 0 && errors.Is(taskCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %s", ErrTaskTimeout, err)
	}

	if err != nil {
		log.Error().Err(err).Str("pool", name).Str("task", task.id).Msg("Task failed")
		if task.onError != nil {
			task.onError(err)
		}
	}

	p.results <- Result[T]{TaskID: task.id, Result: value, Error: err}
}

// AddTask enqueues a task, blocking until there is room or the context ends.
func (p *WorkerPool[T]) AddTask(ctx context.Context, task *Task[T]) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}
	select {
	case p.tasks <- task:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AddTaskNonBlocking enqueues a task or fails immediately when the queue is full.
func (p *WorkerPool[T]) AddTaskNonBlocking(task *Task[T]) error {
	if p.stopped.Load() {
		return ErrPoolStopped
	}
	select {
	case p.tasks <- task:
		return nil
	default:
		return ErrQueueFull
	}
}

// Results exposes the outcome channel.
func (p *WorkerPool[T]) Results() <-chan Result[T] {
	return p.results
}

// Stop drains the queue, waits for in-flight tasks and closes the results channel.
func (p *WorkerPool[T]) Stop() {
	p.stopOnce.Do(func() {
		p.stopped.Store(true)
		close(p.tasks)
		p.wg.Wait()
		close(p.results)
	})
}
