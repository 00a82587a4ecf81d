package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/giftloop/giftloop/pkg/logger"
)

const defaultBuffer = 64

// ErrQueueClosed is returned when enqueueing after Stop.
var ErrQueueClosed = errors.New("queue: closed")

// Memory is an in-process queue: a buffered channel drained by a single
// worker goroutine. Jobs run one at a time, matching the single-dispatch
// model the scheduler assumes. Only the hard time limit becomes a context
// deadline on the handler; the soft limit stays on the job so the handler
// can wind down its interruptible work and still commit a result before the
// hard limit fires.
type Memory struct {
	jobs     chan Job
	handlers map[string]Handler

	mu     sync.Mutex
	closed bool

	stop chan struct{}
	done chan struct{}
	log  *zap.Logger
}

// NewMemory builds an in-process queue with the given buffer size.
func NewMemory(buffer int) *Memory {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Memory{
		jobs:     make(chan Job, buffer),
		handlers: make(map[string]Handler),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		log:      logger.WithModule("queue"),
	}
}

// Register binds a handler to a job name. Must be called before Start.
func (m *Memory) Register(name string, handler Handler) {
	m.handlers[name] = handler
}

// Start launches the worker goroutine.
func (m *Memory) Start() {
	go m.work()
}

// Stop rejects further jobs, drains the backlog, and waits for the worker.
func (m *Memory) Stop(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	close(m.stop)
	m.mu.Unlock()

	select {
	case <-m.done:
	case <-ctx.Done():
		return ctx.Err()
	}

	// A sender that passed the closed check just before Stop may still have
	// landed a job after the worker drained; run any such stragglers here.
	for {
		select {
		case job := <-m.jobs:
			m.run(job)
		default:
			return nil
		}
	}
}

// Enqueue submits a job without blocking on execution. The send happens
// outside the mutex so a full buffer cannot stall Stop; a concurrent Stop
// unblocks the send with ErrQueueClosed instead.
func (m *Memory) Enqueue(ctx context.Context, job Job) error {
	if _, ok := m.handlers[job.Name]; !ok {
		return fmt.Errorf("queue: no handler registered for %q", job.Name)
	}

	m.mu.Lock()
	closed := m.closed
	m.mu.Unlock()
	if closed {
		return ErrQueueClosed
	}

	select {
	case m.jobs <- job:
		return nil
	case <-m.stop:
		return ErrQueueClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Memory) work() {
	defer close(m.done)

	for {
		select {
		case job := <-m.jobs:
			m.run(job)
		case <-m.stop:
			for {
				select {
				case job := <-m.jobs:
					m.run(job)
				default:
					return
				}
			}
		}
	}
}

func (m *Memory) run(job Job) {
	handler := m.handlers[job.Name]

	ctx := context.Background()
	var cancel context.CancelFunc
	if job.HardLimit > 0 {
		ctx, cancel = context.WithTimeout(ctx, job.HardLimit)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	started := time.Now()
	if err := handler(ctx, job); err != nil {
		m.log.Error("job failed",
			zap.String("job", job.Name),
			zap.String("exchange_id", job.ExchangeID),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return
	}

	m.log.Info("job finished",
		zap.String("job", job.Name),
		zap.String("exchange_id", job.ExchangeID),
		zap.Duration("elapsed", time.Since(started)))
}
