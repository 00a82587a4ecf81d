package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/giftloop/giftloop/internal/database/testutil"
	apperrors "github.com/giftloop/giftloop/pkg/errors"
)

func TestJoinAutoConfirmsLateJoiners(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewEnrollmentService(db)
	require.NoError(t, err)
	ctx := context.Background()

	// "tomorrow" has already sent its confirmation reminder; joining it now
	// presumes confirmation. "day after tomorrow" has not, so the new
	// enrollment starts unconfirmed.
	tomorrow := newTestExchange(t, db, "tomorrow", testNow.AddDate(0, 0, 1))
	dayAfter := newTestExchange(t, db, "day-after-tomorrow", testNow.AddDate(0, 0, 8))
	require.True(t, testNow.After(tomorrow.ConfirmationReminder))
	require.False(t, testNow.After(dayAfter.ConfirmationReminder))

	participant := newTestParticipant(t, db, "joiner@example.com",
		participantSpec{firstName: "Joiner", verified: true, active: true})

	late, err := svc.Join(ctx, participant.ID, tomorrow.ID, testNow)
	require.NoError(t, err)
	require.True(t, late.Confirmed)

	early, err := svc.Join(ctx, participant.ID, dayAfter.ID, testNow)
	require.NoError(t, err)
	require.False(t, early.Confirmed)
}

func TestJoinNeverConfirmsRetroactively(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewEnrollmentService(db)
	require.NoError(t, err)
	ctx := context.Background()

	exchange := newTestExchange(t, db, "rejoined", testNow.AddDate(0, 0, 1))
	participant := newTestParticipant(t, db, "rejoiner@example.com",
		participantSpec{firstName: "Re", verified: true, active: true})

	// Enrolled before the reminder went out, never confirmed.
	existing := enrol(t, db, participant, exchange, false)

	// Joining again after the reminder must not flip the existing record.
	enrollment, err := svc.Join(ctx, participant.ID, exchange.ID, testNow)
	require.NoError(t, err)
	require.Equal(t, existing.ID, enrollment.ID)
	require.False(t, enrollment.Confirmed)
}

func TestJoinUnknownExchange(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewEnrollmentService(db)
	require.NoError(t, err)

	participant := newTestParticipant(t, db, "lost@example.com",
		participantSpec{firstName: "Lost", verified: true, active: true})

	_, err = svc.Join(context.Background(), participant.ID, "no-such-exchange", testNow)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestConfirm(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewEnrollmentService(db)
	require.NoError(t, err)
	ctx := context.Background()

	exchange := newTestExchange(t, db, "confirmable", testNow.AddDate(0, 0, 14))
	participant := newTestParticipant(t, db, "confirmer@example.com",
		participantSpec{firstName: "Con", verified: true, active: true})
	enrol(t, db, participant, exchange, false)

	enrollment, err := svc.Confirm(ctx, participant.ID, exchange.ID)
	require.NoError(t, err)
	require.True(t, enrollment.Confirmed)

	// Confirming twice is harmless.
	enrollment, err = svc.Confirm(ctx, participant.ID, exchange.ID)
	require.NoError(t, err)
	require.True(t, enrollment.Confirmed)

	_, err = svc.Confirm(ctx, participant.ID, "no-such-exchange")
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestForExchangePreloadsParticipants(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	svc, err := NewEnrollmentService(db)
	require.NoError(t, err)

	exchange := newTestExchange(t, db, "roster", testNow.Add(time.Hour))
	participant := newTestParticipant(t, db, "roster@example.com",
		participantSpec{firstName: "Rosta", verified: true, active: true})
	enrol(t, db, participant, exchange, true)

	enrollments, err := svc.ForExchange(context.Background(), exchange.ID)
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.NotNil(t, enrollments[0].Participant)
	require.Equal(t, participant.Email, enrollments[0].Participant.Email)
}
