package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/giftloop/giftloop/internal/draw"
	"github.com/giftloop/giftloop/internal/models"
	"github.com/giftloop/giftloop/internal/queue"
	"github.com/giftloop/giftloop/internal/services"
	"github.com/giftloop/giftloop/pkg/logger"
	"github.com/giftloop/giftloop/pkg/metrics"
)

const defaultPollSpec = "@every 1m"

// Scheduler polls exchange milestones and fires each lifecycle transition
// exactly once. Marking a transition started is an atomic compare-and-swap on
// the exchange row and happens before the job is enqueued, so two concurrent
// poll cycles can never both dispatch the same transition.
type Scheduler struct {
	exchanges    *services.ExchangeService
	participants *services.ParticipantService
	jobs         queue.Queue

	cron        *cron.Cron
	spec        string
	now         func() time.Time
	estimator   draw.EstimatorConfig
	maxAttempts int
	log         *zap.Logger
}

// Option customises the Scheduler.
type Option func(*Scheduler)

// WithCron injects a preconfigured cron instance, primarily for testing.
func WithCron(c *cron.Cron) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.cron = c
		}
	}
}

// WithNow overrides the clock used for due checks and started markers.
func WithNow(now func() time.Time) Option {
	return func(s *Scheduler) {
		if now != nil {
			s.now = now
		}
	}
}

// WithPollSpec overrides the cron specification for the poll cycle.
func WithPollSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

// WithEstimator overrides the draw cost model used to size job time limits.
func WithEstimator(cfg draw.EstimatorConfig) Option {
	return func(s *Scheduler) {
		s.estimator = cfg
	}
}

// WithMaxAttempts overrides the attempt budget reported to the estimator.
func WithMaxAttempts(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// New constructs a Scheduler with sensible defaults.
func New(exchanges *services.ExchangeService, participants *services.ParticipantService, jobs queue.Queue, opts ...Option) (*Scheduler, error) {
	if exchanges == nil {
		return nil, errors.New("scheduler: exchange service is required")
	}
	if participants == nil {
		return nil, errors.New("scheduler: participant service is required")
	}
	if jobs == nil {
		return nil, errors.New("scheduler: queue is required")
	}

	s := &Scheduler{
		exchanges:    exchanges,
		participants: participants,
		jobs:         jobs,
		spec:         defaultPollSpec,
		now:          time.Now,
		estimator: draw.EstimatorConfig{
			SecondsPerParticipant: 0.003,
			SoftFloor:             30 * time.Second,
			HardFloor:             60 * time.Second,
		},
		maxAttempts: draw.DefaultMaxAttempts,
		log:         logger.WithModule("scheduler"),
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.cron == nil {
		s.cron = cron.New(cron.WithLogger(cron.DiscardLogger))
	}
	return s, nil
}

// Start registers the poll job with the cron scheduler and launches it.
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if err := s.Poll(context.Background()); err != nil {
			s.log.Warn("poll cycle finished with errors", zap.Error(err))
		}
	}); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop halts the cron scheduler, waiting for a running poll to complete.
func (s *Scheduler) Stop() context.Context {
	if s.cron == nil {
		return context.Background()
	}
	return s.cron.Stop()
}

// Poll processes every due transition for every exchange, in the fixed order
// confirmation, confirmation-reminder, draw, send-reminder, receive-reminder.
// An exchange whose milestones are close together may be due for several
// transitions in one poll; all of them fire.
func (s *Scheduler) Poll(ctx context.Context) error {
	now := s.now()

	var errs error
	for _, transition := range models.Transitions() {
		due, err := s.exchanges.ScheduledFor(ctx, transition, now)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}

		for i := range due {
			if err := s.fire(ctx, &due[i], transition, now); err != nil {
				errs = multierr.Append(errs, err)
			}
		}
	}
	return errs
}

// fire claims the transition's started marker and, having won it, enqueues
// the corresponding job. Losing the marker to a concurrent poll is a silent
// skip, not an error.
func (s *Scheduler) fire(ctx context.Context, exchange *models.Exchange, transition models.Transition, now time.Time) error {
	won, err := s.exchanges.MarkStarted(ctx, exchange.ID, transition, now)
	if err != nil {
		return err
	}
	if !won {
		s.log.Debug("transition already claimed",
			zap.String("exchange", exchange.Slug),
			zap.String("transition", string(transition)))
		return nil
	}

	limits, err := s.limitsFor(ctx, exchange, transition)
	if err != nil {
		return err
	}

	job := queue.Job{
		Name:       transition.JobName(),
		ExchangeID: exchange.ID,
		SoftLimit:  limits.Soft,
		HardLimit:  limits.Hard,
	}
	if err := s.jobs.Enqueue(ctx, job); err != nil {
		return fmt.Errorf("scheduler: enqueue %s for %s: %w", transition, exchange.Slug, err)
	}

	metrics.TransitionsEnqueued.WithLabelValues(string(transition)).Inc()
	s.log.Info("transition enqueued",
		zap.String("exchange", exchange.Slug),
		zap.String("transition", string(transition)),
		zap.Duration("soft_limit", limits.Soft),
		zap.Duration("hard_limit", limits.Hard))
	return nil
}

// limitsFor sizes the job's execution bounds. Only the draw scales with
// participant count; the email transitions use the configured floors.
func (s *Scheduler) limitsFor(ctx context.Context, exchange *models.Exchange, transition models.Transition) (draw.Limits, error) {
	if transition != models.TransitionDraw {
		return draw.EstimateLimits(0, s.maxAttempts, s.estimator), nil
	}

	count, err := s.participants.CountEligibleForDraw(ctx, exchange.ID)
	if err != nil {
		return draw.Limits{}, err
	}
	return draw.EstimateLimits(int(count), s.maxAttempts, s.estimator), nil
}
