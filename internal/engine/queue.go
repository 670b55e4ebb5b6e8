package engine

import "sync"

// task is one unit of work for the UI context.
type task struct {
	name string
	fn   func() error
	done chan error // buffered, size 1
}

// taskQueue is a thread-safe FIFO queue of tasks.
//
// Producers are request goroutines; the only consumer is Engine.Run. The
// signal channel lets Run wait for work and for context cancellation in the
// same select.
type taskQueue struct {
	mu     sync.Mutex
	tasks  []*task
	closed bool
	signal chan struct{} // buffered, size 1; coalesces wakeups
}

func newTaskQueue() *taskQueue {
	return &taskQueue{
		tasks:  make([]*task, 0, 16),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds a task to the back of the queue.
// Returns false if the queue is closed.
func (q *taskQueue) Enqueue(t *task) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}
	q.tasks = append(q.tasks, t)

	select {
	case q.signal <- struct{}{}:
	default:
	}
	return true
}

// TryDequeue removes and returns the front task without blocking.
func (q *taskQueue) TryDequeue() (*task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.tasks) == 0 {
		return nil, false
	}
	t := q.tasks[0]
	q.tasks[0] = nil
	if len(q.tasks) == 1 {
		q.tasks = q.tasks[:0]
	} else {
		q.tasks = q.tasks[1:]
	}
	return t, true
}

// Wait returns a channel that signals when tasks may be available. It is
// closed when the queue is closed.
func (q *taskQueue) Wait() <-chan struct{} {
	return q.signal
}

func (q *taskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Close stops accepting tasks and wakes the consumer. Tasks already queued
// are still drained by Run.
func (q *taskQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.signal)
}
