package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/giftloop/giftloop/pkg/errors"
)

func milestoneExchange(offsets [5]time.Duration) Exchange {
	base := time.Date(2025, 11, 1, 12, 0, 0, 0, time.UTC)
	return Exchange{
		Name:                 "Test Exchange",
		Slug:                 "test-exchange",
		Confirmation:         base.Add(offsets[0]),
		ConfirmationReminder: base.Add(offsets[1]),
		Drawn:                base.Add(offsets[2]),
		Sent:                 base.Add(offsets[3]),
		Received:             base.Add(offsets[4]),
	}
}

func TestExchangeValidateOrdered(t *testing.T) {
	day := 24 * time.Hour
	ex := milestoneExchange([5]time.Duration{0, day, 2 * day, 3 * day, 4 * day})
	require.NoError(t, ex.Validate())
}

func TestExchangeValidateOutOfOrder(t *testing.T) {
	day := 24 * time.Hour

	cases := map[string][5]time.Duration{
		"reminder before confirmation": {day, 0, 2 * day, 3 * day, 4 * day},
		"drawn before reminder":        {0, 2 * day, day, 3 * day, 4 * day},
		"sent before drawn":            {0, day, 3 * day, 2 * day, 4 * day},
		"received before sent":         {0, day, 2 * day, 4 * day, 3 * day},
		"equal milestones":             {0, day, day, 3 * day, 4 * day},
	}

	for name, offsets := range cases {
		t.Run(name, func(t *testing.T) {
			ex := milestoneExchange(offsets)
			require.ErrorIs(t, ex.Validate(), apperrors.ErrMilestonesOutOfOrder)
		})
	}
}

func TestExchangeIsPast(t *testing.T) {
	day := 24 * time.Hour
	ex := milestoneExchange([5]time.Duration{0, day, 2 * day, 3 * day, 4 * day})

	require.False(t, ex.IsPast(ex.Received.Add(-time.Minute)))
	require.True(t, ex.IsPast(ex.Received.Add(time.Minute)))
}

func TestTransitionColumns(t *testing.T) {
	day := 24 * time.Hour
	ex := milestoneExchange([5]time.Duration{0, day, 2 * day, 3 * day, 4 * day})
	started := time.Date(2025, 11, 2, 9, 0, 0, 0, time.UTC)
	ex.DrawStartedAt = &started

	require.Equal(t, ex.Drawn, TransitionDraw.Milestone(&ex))
	require.Equal(t, &started, TransitionDraw.StartedAt(&ex))
	require.Nil(t, TransitionSendReminder.StartedAt(&ex))
	require.Equal(t, "draw_started_at", TransitionDraw.StartedColumn())
	require.Equal(t, "drawn", TransitionDraw.MilestoneColumn())
	require.Equal(t, "exchange.draw", TransitionDraw.JobName())

	require.Equal(t, []Transition{
		TransitionConfirmation,
		TransitionConfirmationReminder,
		TransitionDraw,
		TransitionSendReminder,
		TransitionReceiveReminder,
	}, Transitions())
}
