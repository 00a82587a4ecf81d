package queue

import (
	"context"
	"time"
)

// Job describes one unit of background work: a lifecycle action for a single
// exchange, bounded by the soft/hard time limits sized by the cost estimator.
type Job struct {
	Name       string
	ExchangeID string
	SoftLimit  time.Duration
	HardLimit  time.Duration
}

// Handler executes one job. The context carries the job's hard time limit as
// its deadline; the soft limit is advisory and travels on the job itself so
// a handler can bound its interruptible phase without losing the ability to
// commit results afterwards. Delivery is at-least-once: handlers rely on the
// exchange started-marker guard rather than on exactly-once dispatch.
type Handler func(ctx context.Context, job Job) error

// Queue accepts jobs for asynchronous execution.
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
}
