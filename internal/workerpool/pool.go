// Package workerpool runs blocking tool invocations on a small fixed set
// of workers so callers never block on subprocess completion. Cancellation
// is queue-level only: a task that has not started can be withdrawn, but a
// running subprocess is stopped solely through the process supervisor's
// termination path.
package workerpool

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
)

// Errors returned by Submit.
var (
	// ErrPoolClosed is returned when Submit is called after Shutdown.
	ErrPoolClosed = errors.New("worker pool closed")
	// ErrQueueFull is returned when the pending queue is at capacity.
	ErrQueueFull = errors.New("worker pool queue full")
)

// Task state values.
const (
	statePending int32 = iota
	stateRunning
	stateDone
	stateCanceled
)

// Task is one queued unit of work.
type Task struct {
	fn    func()
	state atomic.Int32
	done  chan struct{}
}

// Cancel withdraws the task if it has not started. It reports whether the
// withdrawal succeeded; once a worker has picked the task up, Cancel has
// no effect and returns false.
func (t *Task) Cancel() bool {
	if t.state.CompareAndSwap(statePending, stateCanceled) {
		close(t.done)
		return true
	}
	return false
}

// Wait blocks until the task finishes or is canceled.
func (t *Task) Wait() {
	<-t.done
}

// Done returns a channel closed when the task finishes or is canceled,
// for callers that need to select against it.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Canceled reports whether the task was withdrawn before starting.
func (t *Task) Canceled() bool {
	return t.state.Load() == stateCanceled
}

// Pool is a fixed-size worker pool with a bounded pending queue.
type Pool struct {
	tasks  chan *Task
	wg     sync.WaitGroup
	logger *slog.Logger

	mu     sync.Mutex
	closed bool
}

// New starts workers goroutines consuming a queue of queueSize pending
// tasks.
func New(workers, queueSize int, logger *slog.Logger) *Pool {
	if workers <= 0 {
		workers = 2
	}
	if queueSize <= 0 {
		queueSize = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Pool{
		tasks:  make(chan *Task, queueSize),
		logger: logger,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.tasks {
		if !task.state.CompareAndSwap(statePending, stateRunning) {
			continue
		}
		task.fn()
		task.state.Store(stateDone)
		close(task.done)
	}
	p.logger.Debug("worker stopped", "worker", id)
}

// Submit queues fn for execution and returns its handle. It never blocks:
// a full queue is reported as ErrQueueFull.
func (p *Pool) Submit(fn func()) (*Task, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrPoolClosed
	}

	task := &Task{fn: fn, done: make(chan struct{})}
	select {
	case p.tasks <- task:
		return task, nil
	default:
		return nil, ErrQueueFull
	}
}

// Shutdown stops accepting work and waits for in-flight tasks to finish.
// Pending tasks still in the queue are executed before the workers exit.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
