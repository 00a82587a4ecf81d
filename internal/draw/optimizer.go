package draw

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/giftloop/giftloop/internal/models"
	apperrors "github.com/giftloop/giftloop/pkg/errors"
	"github.com/giftloop/giftloop/pkg/logger"
	"github.com/giftloop/giftloop/pkg/metrics"
)

// DefaultMaxAttempts bounds the randomized search when no explicit budget is
// configured.
const DefaultMaxAttempts = 100

// ParticipantSource supplies the draw-eligible participants of an exchange.
type ParticipantSource interface {
	EligibleForDraw(ctx context.Context, exchangeID string) ([]models.Participant, error)
}

// DrawSink persists a winning assignment set atomically.
type DrawSink interface {
	BulkCreate(ctx context.Context, draws []models.Draw) error
}

// Optimizer runs the bounded randomized search for a low-scoring assignment
// and persists the winner.
type Optimizer struct {
	participants ParticipantSource
	history      HistorySource
	sink         DrawSink
	rng          *rand.Rand
	maxAttempts  int
	log          *zap.Logger
}

// OptimizerOption customises the Optimizer.
type OptimizerOption func(*Optimizer)

// WithRand injects a random source, enabling deterministic seeding in tests.
func WithRand(rng *rand.Rand) OptimizerOption {
	return func(o *Optimizer) {
		if rng != nil {
			o.rng = rng
		}
	}
}

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(n int) OptimizerOption {
	return func(o *Optimizer) {
		if n > 0 {
			o.maxAttempts = n
		}
	}
}

// NewOptimizer constructs an Optimizer over the given collaborators.
func NewOptimizer(participants ParticipantSource, history HistorySource, sink DrawSink, opts ...OptimizerOption) (*Optimizer, error) {
	if participants == nil {
		return nil, fmt.Errorf("optimizer: participant source is required")
	}
	if history == nil {
		return nil, fmt.Errorf("optimizer: history source is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("optimizer: draw sink is required")
	}

	o := &Optimizer{
		participants: participants,
		history:      history,
		sink:         sink,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		maxAttempts:  DefaultMaxAttempts,
		log:          logger.WithModule("draw"),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Run draws the exchange: it shuffles the eligible participants up to the
// attempt budget, keeps the best-scoring candidate (stable minimum, early
// exit on a perfect zero), and persists the winner in one bulk insert.
// Fewer than two eligible participants cannot form a valid assignment: zero
// participants produce an empty result, exactly one is fatal for the run.
// Exhausting the budget without a perfect score is not an error; the repeat
// pairings are tolerated and reported for operator visibility.
//
// softLimit bounds only the search loop. When it expires the best candidate
// found so far is still scored and persisted; ctx (the job's hard limit)
// governs the surrounding reads and the final insert. A non-positive
// softLimit leaves the search bounded by the attempt budget alone.
func (o *Optimizer) Run(ctx context.Context, exchange *models.Exchange, softLimit time.Duration) ([]models.Draw, error) {
	if exchange == nil {
		return nil, fmt.Errorf("optimizer: exchange is required")
	}

	participants, err := o.participants.EligibleForDraw(ctx, exchange.ID)
	if err != nil {
		return nil, fmt.Errorf("optimizer: fetch participants: %w", err)
	}

	switch len(participants) {
	case 0:
		o.log.Warn("no eligible participants, nothing to draw",
			zap.String("exchange", exchange.Slug))
		return nil, nil
	case 1:
		metrics.DrawsCompleted.WithLabelValues("failed").Inc()
		return nil, apperrors.ErrInsufficientParticipants
	}

	scorer, err := LoadScorer(ctx, o.history)
	if err != nil {
		return nil, fmt.Errorf("optimizer: load history: %w", err)
	}

	searchCtx := ctx
	if softLimit > 0 {
		var cancel context.CancelFunc
		searchCtx, cancel = context.WithTimeout(ctx, softLimit)
		defer cancel()
	}
	best, bestScore, attempts := o.search(searchCtx, participants, scorer)

	metrics.DrawAttempts.Observe(float64(attempts))
	metrics.DrawScore.Observe(float64(bestScore))

	if bestScore > 0 {
		o.log.Warn("draw finished without a perfect assignment",
			zap.String("exchange", exchange.Slug),
			zap.Int("score", bestScore),
			zap.Int("attempts", attempts))
		metrics.DrawsCompleted.WithLabelValues("imperfect").Inc()
	} else {
		o.log.Info("draw found a repeat-free assignment",
			zap.String("exchange", exchange.Slug),
			zap.Int("attempts", attempts))
		metrics.DrawsCompleted.WithLabelValues("perfect").Inc()
	}

	draws := make([]models.Draw, len(best))
	for i, a := range best {
		draws[i] = models.Draw{
			ExchangeID:  exchange.ID,
			SenderID:    a.Sender.ID,
			RecipientID: a.Recipient.ID,
		}
	}

	if err := o.sink.BulkCreate(ctx, draws); err != nil {
		metrics.DrawsCompleted.WithLabelValues("failed").Inc()
		return nil, err
	}

	return draws, nil
}

// search runs the shuffle/generate/score loop. Context cancellation (the
// job's soft time limit) stops further attempts; the best candidate found so
// far is still used. At least one attempt always runs.
func (o *Optimizer) search(ctx context.Context, participants []models.Participant, scorer *Scorer) ([]Assignment, int, int) {
	var best []Assignment
	bestScore := 0
	attempts := 0

	for attempts < o.maxAttempts {
		attempts++

		o.rng.Shuffle(len(participants), func(i, j int) {
			participants[i], participants[j] = participants[j], participants[i]
		})

		candidate := Generate(participants)
		score := scorer.Score(candidate)

		if best == nil || score < bestScore {
			best = candidate
			bestScore = score
		}
		if bestScore == 0 {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}

	return best, bestScore, attempts
}
