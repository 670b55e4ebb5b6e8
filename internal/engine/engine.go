package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"
)

// ErrStopped is returned by Do once the engine no longer accepts tasks.
var ErrStopped = errors.New("ui context stopped")

// PanicError is returned by Do when a task panicked. The loop survives.
type PanicError struct {
	Task  string
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("task %s panicked: %v", e.Task, e.Value)
}

// Engine is the UI context task loop.
//
// Thread-safety model:
//   - Do(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
type Engine struct {
	queue  *taskQueue
	seq    atomic.Int64
	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for task diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine. Call Run to start processing tasks.
func New(opts ...Option) *Engine {
	e := &Engine{
		queue:  newTaskQueue(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run processes tasks until ctx is cancelled or Stop is called. Tasks queued
// before Stop are still executed.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Debug("ui context starting")

	for {
		if t, ok := e.queue.TryDequeue(); ok {
			e.execute(t)
			continue
		}

		select {
		case <-ctx.Done():
			e.logger.Debug("ui context stopping: context cancelled")
			e.queue.Close()
			e.drain()
			return ctx.Err()

		case <-e.queue.Wait():
			// Closed and empty: the signal channel is closed, so this case
			// keeps firing until we return.
			if e.closedAndEmpty() {
				e.logger.Debug("ui context stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns after draining queued tasks.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Seq returns the number of tasks executed so far.
func (e *Engine) Seq() int64 {
	return e.seq.Load()
}

// Do runs fn on the UI context and returns its error. If ctx ends first, Do
// returns ctx.Err(); the task still runs when its turn comes, so fn must
// not write to anything owned by the caller.
func (e *Engine) Do(ctx context.Context, name string, fn func() error) error {
	t := &task{name: name, fn: fn, done: make(chan error, 1)}
	if !e.queue.Enqueue(t) {
		return ErrStopped
	}
	select {
	case err := <-t.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call runs fn on the UI context and returns its value.
func Call[T any](ctx context.Context, e *Engine, name string, fn func() (T, error)) (T, error) {
	var out T
	err := e.Do(ctx, name, func() error {
		v, err := fn()
		out = v
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func (e *Engine) execute(t *task) {
	seq := e.seq.Add(1)
	t.done <- e.invoke(t, seq)
}

func (e *Engine) invoke(t *task, seq int64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			stack := debug.Stack()
			e.logger.Error("task panicked",
				"task", t.name,
				"seq", seq,
				"panic", r,
				"stack", string(stack),
			)
			err = &PanicError{Task: t.name, Value: r, Stack: stack}
		}
	}()
	e.logger.Debug("task start", "task", t.name, "seq", seq)
	return t.fn()
}

// drain executes tasks left in the closed queue so no caller stays blocked.
func (e *Engine) drain() {
	for {
		t, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		e.execute(t)
	}
}

func (e *Engine) closedAndEmpty() bool {
	e.queue.mu.Lock()
	defer e.queue.mu.Unlock()
	return e.queue.closed && len(e.queue.tasks) == 0
}
