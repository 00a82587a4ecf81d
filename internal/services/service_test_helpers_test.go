package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/giftloop/giftloop/internal/models"
)

// newTestExchange builds an exchange whose milestones straddle the given draw
// time: confirmation milestones sit before it, sent/received after.
func newTestExchange(t *testing.T, db *gorm.DB, slug string, drawn time.Time) *models.Exchange {
	t.Helper()

	exchange := &models.Exchange{
		Name:                 slug,
		Slug:                 slug,
		Confirmation:         drawn.AddDate(0, 0, -14),
		ConfirmationReminder: drawn.AddDate(0, 0, -7),
		Drawn:                drawn,
		Sent:                 drawn.AddDate(0, 0, 7),
		Received:             drawn.AddDate(0, 0, 14),
	}
	require.NoError(t, db.Create(exchange).Error)
	return exchange
}

type participantSpec struct {
	firstName string
	lastName  string
	verified  bool
	active    bool
}

func newTestParticipant(t *testing.T, db *gorm.DB, email string, spec participantSpec) *models.Participant {
	t.Helper()

	participant := &models.Participant{
		FirstName:     spec.firstName,
		LastName:      spec.lastName,
		Email:         email,
		EmailVerified: spec.verified,
		IsActive:      spec.active,
	}
	require.NoError(t, db.Create(participant).Error)
	return participant
}

func enrol(t *testing.T, db *gorm.DB, p *models.Participant, e *models.Exchange, confirmed bool) *models.Enrollment {
	t.Helper()

	enrollment := &models.Enrollment{
		ParticipantID: p.ID,
		ExchangeID:    e.ID,
		Confirmed:     confirmed,
	}
	require.NoError(t, db.Create(enrollment).Error)
	return enrollment
}

func uniqueEmail(prefix string, i int) string {
	return fmt.Sprintf("%s%d@example.com", prefix, i)
}
