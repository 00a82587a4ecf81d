package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/models"
	apperrors "github.com/giftloop/giftloop/pkg/errors"
)

// upcomingBuffer keeps exchanges whose draw is imminent out of the enrollment
// surface, so nobody joins while the draw job may already be running.
const upcomingBuffer = time.Minute

// ExchangeService owns exchange lifecycle queries and the one-shot
// started-marker guard.
type ExchangeService struct {
	db *gorm.DB
}

// NewExchangeService constructs an ExchangeService using the provided database handle.
func NewExchangeService(db *gorm.DB) (*ExchangeService, error) {
	if db == nil {
		return nil, errors.New("exchange service: db is required")
	}
	return &ExchangeService{db: db}, nil
}

// Create validates and persists a new exchange.
func (s *ExchangeService) Create(ctx context.Context, exchange *models.Exchange) error {
	ctx = ensureContext(ctx)

	if exchange == nil {
		return errors.New("exchange service: exchange is required")
	}
	if strings.TrimSpace(exchange.Name) == "" {
		return apperrors.NewBadRequest("exchange name is required")
	}
	if strings.TrimSpace(exchange.Slug) == "" {
		return apperrors.NewBadRequest("exchange slug is required")
	}
	if err := exchange.Validate(); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Create(exchange).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrConflict.WithInternal(err)
		}
		return fmt.Errorf("exchange service: create: %w", err)
	}
	return nil
}

// GetBySlug returns the exchange with the given slug.
func (s *ExchangeService) GetBySlug(ctx context.Context, slug string) (*models.Exchange, error) {
	ctx = ensureContext(ctx)

	var exchange models.Exchange
	err := s.db.WithContext(ctx).Where("slug = ?", slug).First(&exchange).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("exchange service: get %q: %w", slug, err)
	}
	return &exchange, nil
}

// Get returns the exchange with the given id.
func (s *ExchangeService) Get(ctx context.Context, id string) (*models.Exchange, error) {
	ctx = ensureContext(ctx)

	var exchange models.Exchange
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&exchange).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("exchange service: get %s: %w", id, err)
	}
	return &exchange, nil
}

// List returns all exchanges ordered by their draw milestone.
func (s *ExchangeService) List(ctx context.Context) ([]models.Exchange, error) {
	ctx = ensureContext(ctx)

	var exchanges []models.Exchange
	if err := s.db.WithContext(ctx).Order("drawn ASC").Find(&exchanges).Error; err != nil {
		return nil, fmt.Errorf("exchange service: list: %w", err)
	}
	return exchanges, nil
}

// Upcoming returns exchanges whose draw milestone is strictly more than one
// minute in the future. These are the exchanges participants may still join.
func (s *ExchangeService) Upcoming(ctx context.Context, now time.Time) ([]models.Exchange, error) {
	ctx = ensureContext(ctx)

	var exchanges []models.Exchange
	err := s.db.WithContext(ctx).
		Where("drawn > ?", now.Add(upcomingBuffer)).
		Order("drawn ASC").
		Find(&exchanges).Error
	if err != nil {
		return nil, fmt.Errorf("exchange service: upcoming: %w", err)
	}
	return exchanges, nil
}

// Past returns exchanges whose received milestone has elapsed.
func (s *ExchangeService) Past(ctx context.Context, now time.Time) ([]models.Exchange, error) {
	ctx = ensureContext(ctx)

	var exchanges []models.Exchange
	err := s.db.WithContext(ctx).
		Where("received < ?", now).
		Order("received DESC").
		Find(&exchanges).Error
	if err != nil {
		return nil, fmt.Errorf("exchange service: past: %w", err)
	}
	return exchanges, nil
}

// ScheduledFor returns the exchanges due for the given transition: the
// transition's milestone has passed and its started marker is still null.
func (s *ExchangeService) ScheduledFor(ctx context.Context, transition models.Transition, now time.Time) ([]models.Exchange, error) {
	ctx = ensureContext(ctx)

	milestone := transition.MilestoneColumn()
	started := transition.StartedColumn()
	if milestone == "" || started == "" {
		return nil, fmt.Errorf("exchange service: unknown transition %q", transition)
	}

	var exchanges []models.Exchange
	err := s.db.WithContext(ctx).
		Where(fmt.Sprintf("%s < ? AND %s IS NULL", milestone, started), now).
		Order(milestone + " ASC").
		Find(&exchanges).Error
	if err != nil {
		return nil, fmt.Errorf("exchange service: scheduled for %s: %w", transition, err)
	}
	return exchanges, nil
}

// ScheduledForConfirmation lists exchanges due for confirmation emails.
func (s *ExchangeService) ScheduledForConfirmation(ctx context.Context, now time.Time) ([]models.Exchange, error) {
	return s.ScheduledFor(ctx, models.TransitionConfirmation, now)
}

// ScheduledForConfirmationReminder lists exchanges due for confirmation reminders.
func (s *ExchangeService) ScheduledForConfirmationReminder(ctx context.Context, now time.Time) ([]models.Exchange, error) {
	return s.ScheduledFor(ctx, models.TransitionConfirmationReminder, now)
}

// ScheduledForDraw lists exchanges due to be drawn.
func (s *ExchangeService) ScheduledForDraw(ctx context.Context, now time.Time) ([]models.Exchange, error) {
	return s.ScheduledFor(ctx, models.TransitionDraw, now)
}

// ScheduledForSendReminder lists exchanges due for send reminders.
func (s *ExchangeService) ScheduledForSendReminder(ctx context.Context, now time.Time) ([]models.Exchange, error) {
	return s.ScheduledFor(ctx, models.TransitionSendReminder, now)
}

// ScheduledForReceiveReminder lists exchanges due for receive reminders.
func (s *ExchangeService) ScheduledForReceiveReminder(ctx context.Context, now time.Time) ([]models.Exchange, error) {
	return s.ScheduledFor(ctx, models.TransitionReceiveReminder, now)
}

// MarkStarted sets the transition's started marker if and only if it is still
// null, in a single UPDATE. It reports whether this caller won the marker;
// a false result with nil error means another poll cycle got there first.
func (s *ExchangeService) MarkStarted(ctx context.Context, exchangeID string, transition models.Transition, now time.Time) (bool, error) {
	ctx = ensureContext(ctx)

	column := transition.StartedColumn()
	if column == "" {
		return false, fmt.Errorf("exchange service: unknown transition %q", transition)
	}

	result := s.db.WithContext(ctx).
		Model(&models.Exchange{}).
		Where(fmt.Sprintf("id = ? AND %s IS NULL", column), exchangeID).
		Update(column, now)
	if result.Error != nil {
		return false, fmt.Errorf("exchange service: mark %s started: %w", transition, result.Error)
	}

	return result.RowsAffected == 1, nil
}

// Delete removes an exchange and its dependent rows.
func (s *ExchangeService) Delete(ctx context.Context, slug string) error {
	ctx = ensureContext(ctx)

	exchange, err := s.GetBySlug(ctx, slug)
	if err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("exchange_id = ?", exchange.ID).Delete(&models.Draw{}).Error; err != nil {
			return fmt.Errorf("exchange service: delete draws: %w", err)
		}
		if err := tx.Where("exchange_id = ?", exchange.ID).Delete(&models.Enrollment{}).Error; err != nil {
			return fmt.Errorf("exchange service: delete enrollments: %w", err)
		}
		if err := tx.Delete(exchange).Error; err != nil {
			return fmt.Errorf("exchange service: delete: %w", err)
		}
		return nil
	})
}
