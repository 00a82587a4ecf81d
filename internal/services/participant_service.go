package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/models"
	apperrors "github.com/giftloop/giftloop/pkg/errors"
)

// ParticipantService owns participant records and the draw eligibility query.
type ParticipantService struct {
	db *gorm.DB
}

// NewParticipantService constructs a ParticipantService using the provided database handle.
func NewParticipantService(db *gorm.DB) (*ParticipantService, error) {
	if db == nil {
		return nil, errors.New("participant service: db is required")
	}
	return &ParticipantService{db: db}, nil
}

// Create persists a new participant. Email and name parts are trimmed before
// the insert so whitespace-only names stay empty. The eligibility query
// compares names against the empty string and relies on that normalisation.
func (s *ParticipantService) Create(ctx context.Context, participant *models.Participant) error {
	ctx = ensureContext(ctx)

	if participant == nil {
		return errors.New("participant service: participant is required")
	}

	participant.Email = strings.ToLower(strings.TrimSpace(participant.Email))
	participant.FirstName = strings.TrimSpace(participant.FirstName)
	participant.LastName = strings.TrimSpace(participant.LastName)
	if participant.Email == "" {
		return apperrors.NewBadRequest("participant email is required")
	}

	if err := s.db.WithContext(ctx).Create(participant).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperrors.ErrConflict.WithInternal(err)
		}
		return fmt.Errorf("participant service: create: %w", err)
	}
	return nil
}

// Get returns the participant with the given id.
func (s *ParticipantService) Get(ctx context.Context, id string) (*models.Participant, error) {
	ctx = ensureContext(ctx)

	var participant models.Participant
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&participant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("participant service: get %s: %w", id, err)
	}
	return &participant, nil
}

// eligibilityScope narrows a participants query to those who can be drawn for
// the exchange: verified email, active account, at least one name part, and a
// confirmed enrollment. One joined query, no per-participant round trips.
func (s *ParticipantService) eligibilityScope(ctx context.Context, exchangeID string) *gorm.DB {
	return s.db.WithContext(ctx).
		Model(&models.Participant{}).
		Joins("JOIN enrollments ON enrollments.participant_id = participants.id").
		Where("enrollments.exchange_id = ? AND enrollments.confirmed = ?", exchangeID, true).
		Where("participants.email_verified = ?", true).
		Where("participants.is_active = ?", true).
		Where("participants.first_name <> '' OR participants.last_name <> ''")
}

// EligibleForDraw returns all participants who qualify for the exchange's draw.
func (s *ParticipantService) EligibleForDraw(ctx context.Context, exchangeID string) ([]models.Participant, error) {
	ctx = ensureContext(ctx)

	var participants []models.Participant
	if err := s.eligibilityScope(ctx, exchangeID).Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("participant service: eligible for draw: %w", err)
	}
	return participants, nil
}

// CountEligibleForDraw counts draw-eligible participants without loading them.
func (s *ParticipantService) CountEligibleForDraw(ctx context.Context, exchangeID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.eligibilityScope(ctx, exchangeID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("participant service: count eligible: %w", err)
	}
	return count, nil
}

// EnrolledIn returns every participant enrolled in the exchange, optionally
// restricted to those who have not yet confirmed.
func (s *ParticipantService) EnrolledIn(ctx context.Context, exchangeID string, onlyUnconfirmed bool) ([]models.Participant, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Model(&models.Participant{}).
		Joins("JOIN enrollments ON enrollments.participant_id = participants.id").
		Where("enrollments.exchange_id = ?", exchangeID)
	if onlyUnconfirmed {
		query = query.Where("enrollments.confirmed = ?", false)
	}

	var participants []models.Participant
	if err := query.Find(&participants).Error; err != nil {
		return nil, fmt.Errorf("participant service: enrolled in: %w", err)
	}
	return participants, nil
}
