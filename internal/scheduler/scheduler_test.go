package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/database/testutil"
	"github.com/giftloop/giftloop/internal/models"
	"github.com/giftloop/giftloop/internal/queue"
	"github.com/giftloop/giftloop/internal/services"
)

type recordingQueue struct {
	mu   sync.Mutex
	jobs []queue.Job
	err  error
}

func (q *recordingQueue) Enqueue(_ context.Context, job queue.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

func (q *recordingQueue) recorded() []queue.Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]queue.Job, len(q.jobs))
	copy(out, q.jobs)
	return out
}

type fixture struct {
	db        *gorm.DB
	scheduler *Scheduler
	jobs      *recordingQueue
	now       time.Time
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	exchanges, err := services.NewExchangeService(db)
	require.NoError(t, err)
	participants, err := services.NewParticipantService(db)
	require.NoError(t, err)

	jobs := &recordingQueue{}
	now := time.Date(2025, time.December, 10, 12, 0, 0, 0, time.UTC)

	opts = append([]Option{WithNow(func() time.Time { return now })}, opts...)
	s, err := New(exchanges, participants, jobs, opts...)
	require.NoError(t, err)

	return &fixture{db: db, scheduler: s, jobs: jobs, now: now}
}

// seedExchange creates an exchange whose drawn milestone sits at the given
// offset from the fixture clock, with the other milestones spread around it.
func (f *fixture) seedExchange(t *testing.T, slug string, drawnOffset time.Duration) *models.Exchange {
	t.Helper()

	drawn := f.now.Add(drawnOffset)
	exchange := &models.Exchange{
		Name:                 slug,
		Slug:                 slug,
		Confirmation:         drawn.Add(-14 * 24 * time.Hour),
		ConfirmationReminder: drawn.Add(-7 * 24 * time.Hour),
		Drawn:                drawn,
		Sent:                 drawn.Add(7 * 24 * time.Hour),
		Received:             drawn.Add(14 * 24 * time.Hour),
		SendEmails:           true,
	}
	require.NoError(t, f.db.Create(exchange).Error)
	return exchange
}

func (f *fixture) seedEligible(t *testing.T, exchangeID string, count int) {
	t.Helper()

	for i := 0; i < count; i++ {
		participant := &models.Participant{
			Email:         fmt.Sprintf("person-%d-%s@example.net", i, exchangeID[:8]),
			EmailVerified: true,
			FirstName:     fmt.Sprintf("Person%d", i),
			HasAddress:    true,
			IsActive:      true,
		}
		require.NoError(t, f.db.Create(participant).Error)
		require.NoError(t, f.db.Create(&models.Enrollment{
			ParticipantID: participant.ID,
			ExchangeID:    exchangeID,
			Confirmed:     true,
		}).Error)
	}
}

func jobNames(jobs []queue.Job) []string {
	names := make([]string, len(jobs))
	for i, job := range jobs {
		names[i] = job.Name
	}
	return names
}

func TestPollEnqueuesAllDueTransitionsInOrder(t *testing.T) {
	f := newFixture(t)

	// Every milestone is in the past, so all five transitions are due at once.
	exchange := f.seedExchange(t, "everything-due", -15*24*time.Hour)

	require.NoError(t, f.scheduler.Poll(context.Background()))

	require.Equal(t, []string{
		"exchange.confirmation",
		"exchange.confirmation_reminder",
		"exchange.draw",
		"exchange.send_reminder",
		"exchange.receive_reminder",
	}, jobNames(f.jobs.recorded()))
	for _, job := range f.jobs.recorded() {
		require.Equal(t, exchange.ID, job.ExchangeID)
	}
}

func TestPollSkipsFutureMilestones(t *testing.T) {
	f := newFixture(t)

	// Confirmation and its reminder have passed; the draw is still a week out.
	f.seedExchange(t, "mid-flight", 7*24*time.Hour)

	require.NoError(t, f.scheduler.Poll(context.Background()))

	require.Equal(t, []string{
		"exchange.confirmation",
		"exchange.confirmation_reminder",
	}, jobNames(f.jobs.recorded()))
}

func TestPollFiresEachTransitionOnce(t *testing.T) {
	f := newFixture(t)
	f.seedExchange(t, "once-only", -time.Hour)

	require.NoError(t, f.scheduler.Poll(context.Background()))
	first := len(f.jobs.recorded())
	require.Equal(t, 3, first)

	// A second poll over the same state must not re-enqueue anything.
	require.NoError(t, f.scheduler.Poll(context.Background()))
	require.Len(t, f.jobs.recorded(), first)
}

func TestPollDrawLimitsScaleWithParticipants(t *testing.T) {
	f := newFixture(t)
	exchange := f.seedExchange(t, "big-draw", -time.Minute)
	// 200 eligible people at 0.003s each over 100 attempts costs 60s, which
	// clears both the 30s soft floor and the 60s hard floor.
	f.seedEligible(t, exchange.ID, 200)

	require.NoError(t, f.scheduler.Poll(context.Background()))

	var drawJob queue.Job
	var found bool
	for _, job := range f.jobs.recorded() {
		if job.Name == "exchange.draw" {
			drawJob = job
			found = true
			break
		}
	}
	require.True(t, found)
	require.Equal(t, 60*time.Second, drawJob.SoftLimit)
	require.Equal(t, 90*time.Second, drawJob.HardLimit)
}

func TestPollEmailTransitionsUseFloorLimits(t *testing.T) {
	f := newFixture(t)
	exchange := f.seedExchange(t, "floors", -15*24*time.Hour)
	f.seedEligible(t, exchange.ID, 200)

	require.NoError(t, f.scheduler.Poll(context.Background()))

	for _, job := range f.jobs.recorded() {
		if job.Name == "exchange.draw" {
			continue
		}
		require.Equal(t, 30*time.Second, job.SoftLimit, job.Name)
		require.Equal(t, 60*time.Second, job.HardLimit, job.Name)
	}
}

func TestPollAggregatesEnqueueFailures(t *testing.T) {
	f := newFixture(t)
	f.seedExchange(t, "broken-queue", -15*24*time.Hour)
	f.jobs.err = fmt.Errorf("queue unavailable")

	err := f.scheduler.Poll(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "queue unavailable")
	require.Empty(t, f.jobs.recorded())
}

func TestPollHandlesMultipleExchanges(t *testing.T) {
	f := newFixture(t)
	a := f.seedExchange(t, "alpha", -time.Hour)
	b := f.seedExchange(t, "beta", -time.Hour)
	f.seedExchange(t, "gamma", 30*24*time.Hour)

	require.NoError(t, f.scheduler.Poll(context.Background()))

	seen := map[string]int{}
	for _, job := range f.jobs.recorded() {
		seen[job.ExchangeID]++
	}
	require.Equal(t, 3, seen[a.ID])
	require.Equal(t, 3, seen[b.ID])
	require.Len(t, seen, 2)
}
