package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/models"
	apperrors "github.com/giftloop/giftloop/pkg/errors"
)

// DrawService persists and queries draw records.
type DrawService struct {
	db *gorm.DB
}

// NewDrawService constructs a DrawService using the provided database handle.
func NewDrawService(db *gorm.DB) (*DrawService, error) {
	if db == nil {
		return nil, errors.New("draw service: db is required")
	}
	return &DrawService{db: db}, nil
}

// BulkCreate inserts all draws in one transaction. If any per-exchange
// sender/recipient uniqueness constraint is violated the whole batch is
// rejected with ErrDrawConflict; a conflict means a concurrent draw for the
// same exchange and needs an operator, not a retry.
func (s *DrawService) BulkCreate(ctx context.Context, draws []models.Draw) error {
	ctx = ensureContext(ctx)

	if len(draws) == 0 {
		return nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&draws).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrDrawConflict.WithInternal(err)
		}
		return fmt.Errorf("draw service: bulk create: %w", err)
	}
	return nil
}

// HistoryPairs returns every (sender, recipient) pairing ever drawn, across
// all exchanges, in a single query. The result is loaded into memory so the
// optimizer can score candidates with set lookups instead of per-pair round
// trips.
func (s *DrawService) HistoryPairs(ctx context.Context) ([][2]string, error) {
	ctx = ensureContext(ctx)

	var rows []struct {
		SenderID    string
		RecipientID string
	}
	err := s.db.WithContext(ctx).
		Model(&models.Draw{}).
		Select("sender_id", "recipient_id").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("draw service: history pairs: %w", err)
	}

	pairs := make([][2]string, len(rows))
	for i, row := range rows {
		pairs[i] = [2]string{row.SenderID, row.RecipientID}
	}
	return pairs, nil
}

// ForExchange lists an exchange's draws with sender and recipient preloaded.
func (s *DrawService) ForExchange(ctx context.Context, exchangeID string) ([]models.Draw, error) {
	ctx = ensureContext(ctx)

	var draws []models.Draw
	err := s.db.WithContext(ctx).
		Preload("Sender").
		Preload("Recipient").
		Where("exchange_id = ?", exchangeID).
		Find(&draws).Error
	if err != nil {
		return nil, fmt.Errorf("draw service: for exchange: %w", err)
	}
	return draws, nil
}

// ForSender returns the draw where the participant is the sender.
func (s *DrawService) ForSender(ctx context.Context, exchangeID, participantID string) (*models.Draw, error) {
	ctx = ensureContext(ctx)

	var draw models.Draw
	err := s.db.WithContext(ctx).
		Preload("Recipient").
		Where("exchange_id = ? AND sender_id = ?", exchangeID, participantID).
		First(&draw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("draw service: for sender: %w", err)
	}
	return &draw, nil
}

// DeleteForExchange removes every draw of an exchange so it can be re-drawn.
// Administrative use only.
func (s *DrawService) DeleteForExchange(ctx context.Context, exchangeID string) (int64, error) {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Where("exchange_id = ?", exchangeID).
		Delete(&models.Draw{})
	if result.Error != nil {
		return 0, fmt.Errorf("draw service: delete for exchange: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// MarkSent records that the sender posted their gift.
func (s *DrawService) MarkSent(ctx context.Context, exchangeID, senderID string, now time.Time) error {
	return s.markMailEvent(ctx, "sent_at", "sender_id", exchangeID, senderID, now)
}

// MarkReceived records that the recipient received their gift.
func (s *DrawService) MarkReceived(ctx context.Context, exchangeID, recipientID string, now time.Time) error {
	return s.markMailEvent(ctx, "received_at", "recipient_id", exchangeID, recipientID, now)
}

func (s *DrawService) markMailEvent(ctx context.Context, column, participantColumn, exchangeID, participantID string, now time.Time) error {
	ctx = ensureContext(ctx)

	result := s.db.WithContext(ctx).
		Model(&models.Draw{}).
		Where(fmt.Sprintf("exchange_id = ? AND %s = ?", participantColumn), exchangeID, participantID).
		Update(column, now)
	if result.Error != nil {
		return fmt.Errorf("draw service: mark %s: %w", column, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
