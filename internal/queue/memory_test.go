package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestMemoryRunsJobs(t *testing.T) {
	q := NewMemory(4)

	var mu sync.Mutex
	var seen []string
	done := make(chan struct{}, 2)

	q.Register("exchange.draw", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen = append(seen, job.ExchangeID)
		mu.Unlock()
		done <- struct{}{}
		return nil
	})
	q.Start()

	require.NoError(t, q.Enqueue(context.Background(), Job{Name: "exchange.draw", ExchangeID: "ex-1"}))
	require.NoError(t, q.Enqueue(context.Background(), Job{Name: "exchange.draw", ExchangeID: "ex-2"}))

	for i := 0; i < 2; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("job did not run")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{"ex-1", "ex-2"}, seen)

	require.NoError(t, q.Stop(context.Background()))
}

func TestMemoryRejectsUnknownJob(t *testing.T) {
	q := NewMemory(1)
	err := q.Enqueue(context.Background(), Job{Name: "exchange.unknown"})
	require.Error(t, err)
}

func TestMemoryRejectsAfterStop(t *testing.T) {
	q := NewMemory(1)
	q.Register("exchange.draw", func(ctx context.Context, job Job) error { return nil })
	q.Start()

	require.NoError(t, q.Stop(context.Background()))
	require.ErrorIs(t, q.Enqueue(context.Background(), Job{Name: "exchange.draw"}), ErrQueueClosed)
}

func TestMemoryAppliesTimeLimits(t *testing.T) {
	q := NewMemory(1)

	type observed struct {
		remaining time.Duration
		soft      time.Duration
	}
	results := make(chan observed, 1)
	q.Register("exchange.draw", func(ctx context.Context, job Job) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		results <- observed{remaining: time.Until(deadline), soft: job.SoftLimit}
		return nil
	})
	q.Start()

	require.NoError(t, q.Enqueue(context.Background(), Job{
		Name:      "exchange.draw",
		SoftLimit: 30 * time.Second,
		HardLimit: 60 * time.Second,
	}))

	select {
	case got := <-results:
		// The context deadline is the hard limit; the soft limit rides on
		// the job so the handler can commit work after it passes.
		require.LessOrEqual(t, got.remaining, 60*time.Second)
		require.Greater(t, got.remaining, 45*time.Second)
		require.Equal(t, 30*time.Second, got.soft)
	case <-time.After(2 * time.Second):
		t.Fatal("job did not run")
	}

	require.NoError(t, q.Stop(context.Background()))
}

func TestMemoryStopUnblocksFullBufferEnqueue(t *testing.T) {
	q := NewMemory(1)

	gate := make(chan struct{})
	running := make(chan struct{}, 2)
	q.Register("exchange.draw", func(ctx context.Context, job Job) error {
		running <- struct{}{}
		<-gate
		return nil
	})
	q.Start()

	// First job occupies the worker, second fills the buffer.
	require.NoError(t, q.Enqueue(context.Background(), Job{Name: "exchange.draw"}))
	select {
	case <-running:
	case <-time.After(2 * time.Second):
		t.Fatal("first job did not start")
	}
	require.NoError(t, q.Enqueue(context.Background(), Job{Name: "exchange.draw"}))

	// The third enqueue blocks on the full buffer; Stop must release it
	// rather than deadlocking behind it.
	enqueueErr := make(chan error, 1)
	go func() {
		enqueueErr <- q.Enqueue(context.Background(), Job{Name: "exchange.draw"})
	}()

	stopErr := make(chan error, 1)
	go func() {
		stopErr <- q.Stop(context.Background())
	}()

	select {
	case err := <-enqueueErr:
		require.ErrorIs(t, err, ErrQueueClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked enqueue was not released by Stop")
	}

	close(gate)
	select {
	case err := <-stopErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stop did not finish after the backlog drained")
	}
}
