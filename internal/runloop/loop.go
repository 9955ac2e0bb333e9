// Package runloop serializes all domain execution onto one goroutine,
// standing in for the host application's single logical main thread. The
// transport layer never calls domain logic from a connection worker; it
// only enqueues tasks here.
package runloop

import (
	"errors"
	"sync"
	"time"

	"github.com/codefionn/scenelink/internal/logger"
)

// ErrStopped is returned by Schedule after the loop has been stopped.
var ErrStopped = errors.New("run loop is stopped")

// ErrQueueFull is returned by Schedule when the task queue is saturated.
var ErrQueueFull = errors.New("run loop queue is full")

// Task is a unit of work executed on the loop goroutine.
type Task func()

// Loop is a FIFO task queue consumed by a single goroutine. Tasks from any
// number of producers run strictly one at a time, in submission order per
// producer.
type Loop struct {
	tasks chan Task
	done  chan struct{}

	mu      sync.Mutex
	stopped bool

	stopOnce sync.Once
}

// New creates a loop with the given queue capacity.
func New(queueSize int) *Loop {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Loop{
		tasks: make(chan Task, queueSize),
		done:  make(chan struct{}),
	}
}

// Start spawns the consumer goroutine.
func (l *Loop) Start() {
	go l.run()
}

func (l *Loop) run() {
	defer close(l.done)

	for task := range l.tasks {
		l.invoke(task)
	}
}

// invoke runs one task; a panicking task must never kill the loop.
func (l *Loop) invoke(task Task) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Run loop task panicked: %v", r)
		}
	}()
	task()
}

// Schedule enqueues a task for execution on the loop goroutine. It never
// blocks: a saturated queue returns ErrQueueFull so a slow executor cannot
// wedge connection workers.
func (l *Loop) Schedule(task Task) error {
	l.mu.Lock()
	if l.stopped {
		l.mu.Unlock()
		return ErrStopped
	}

	select {
	case l.tasks <- task:
		l.mu.Unlock()
		return nil
	default:
		l.mu.Unlock()
		return ErrQueueFull
	}
}

// Stop rejects further tasks, lets already queued tasks drain, and waits
// for the consumer up to timeout. A wedged task must not prevent the
// caller's shutdown from completing.
func (l *Loop) Stop(timeout time.Duration) {
	l.stopOnce.Do(func() {
		l.mu.Lock()
		l.stopped = true
		close(l.tasks)
		l.mu.Unlock()

		select {
		case <-l.done:
		case <-time.After(timeout):
			logger.Warn("Run loop did not drain within %v", timeout)
		}
	})
}
