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

// EnrollmentService manages participant membership in exchanges.
type EnrollmentService struct {
	db *gorm.DB
}

// NewEnrollmentService constructs an EnrollmentService using the provided database handle.
func NewEnrollmentService(db *gorm.DB) (*EnrollmentService, error) {
	if db == nil {
		return nil, errors.New("enrollment service: db is required")
	}
	return &EnrollmentService{db: db}, nil
}

// Join enrols a participant in an exchange. Joining after the exchange's
// confirmation reminder has already gone out auto-confirms the new enrollment;
// the participant missed the reminder, so confirmation is presumed. This is a
// business policy special case and applies only to newly created enrollments,
// never retroactively to existing unconfirmed ones. Joining an exchange twice
// is a no-op returning the existing record.
func (s *EnrollmentService) Join(ctx context.Context, participantID, exchangeID string, now time.Time) (*models.Enrollment, error) {
	ctx = ensureContext(ctx)

	var exchange models.Exchange
	err := s.db.WithContext(ctx).Where("id = ?", exchangeID).First(&exchange).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("enrollment service: load exchange: %w", err)
	}

	enrollment := models.Enrollment{
		ParticipantID: participantID,
		ExchangeID:    exchangeID,
	}
	err = s.db.WithContext(ctx).
		Where(models.Enrollment{ParticipantID: participantID, ExchangeID: exchangeID}).
		Attrs(models.Enrollment{Confirmed: now.After(exchange.ConfirmationReminder)}).
		FirstOrCreate(&enrollment).Error
	if err != nil {
		return nil, fmt.Errorf("enrollment service: join: %w", err)
	}

	return &enrollment, nil
}

// Confirm marks an enrollment as confirmed.
func (s *EnrollmentService) Confirm(ctx context.Context, participantID, exchangeID string) (*models.Enrollment, error) {
	ctx = ensureContext(ctx)

	var enrollment models.Enrollment
	err := s.db.WithContext(ctx).
		Where("participant_id = ? AND exchange_id = ?", participantID, exchangeID).
		First(&enrollment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("enrollment service: confirm: %w", err)
	}

	if enrollment.Confirmed {
		return &enrollment, nil
	}

	if err := s.db.WithContext(ctx).Model(&enrollment).Update("confirmed", true).Error; err != nil {
		return nil, fmt.Errorf("enrollment service: confirm: %w", err)
	}
	enrollment.Confirmed = true
	return &enrollment, nil
}

// ForExchange lists the enrollments of an exchange with participants preloaded.
func (s *EnrollmentService) ForExchange(ctx context.Context, exchangeID string) ([]models.Enrollment, error) {
	ctx = ensureContext(ctx)

	var enrollments []models.Enrollment
	err := s.db.WithContext(ctx).
		Preload("Participant").
		Where("exchange_id = ?", exchangeID).
		Find(&enrollments).Error
	if err != nil {
		return nil, fmt.Errorf("enrollment service: for exchange: %w", err)
	}
	return enrollments, nil
}
