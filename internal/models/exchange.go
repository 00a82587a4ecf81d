package models

import (
	"time"

	apperrors "github.com/giftloop/giftloop/pkg/errors"
)

// Exchange is one instance of the recurring gift exchange, with its own
// milestone schedule and participant roster.
type Exchange struct {
	BaseModel

	Name string `gorm:"not null" json:"name"`
	Slug string `gorm:"uniqueIndex;not null" json:"slug"`

	// Milestones, strictly increasing in this order.
	Confirmation         time.Time `gorm:"not null" json:"confirmation"`
	ConfirmationReminder time.Time `gorm:"not null" json:"confirmation_reminder"`
	Drawn                time.Time `gorm:"not null;index" json:"drawn"`
	Sent                 time.Time `gorm:"not null" json:"sent"`
	Received             time.Time `gorm:"not null;index" json:"received"`

	// One-shot guards, null until the corresponding job has been enqueued.
	ConfirmationStartedAt         *time.Time `json:"confirmation_started_at"`
	ConfirmationReminderStartedAt *time.Time `json:"confirmation_reminder_started_at"`
	DrawStartedAt                 *time.Time `json:"draw_started_at"`
	SendReminderStartedAt         *time.Time `json:"send_reminder_started_at"`
	ReceiveReminderStartedAt      *time.Time `json:"receive_reminder_started_at"`

	SendEmails bool `gorm:"default:true" json:"send_emails"`

	Enrollments []Enrollment `gorm:"foreignKey:ExchangeID" json:"-"`
	Draws       []Draw       `gorm:"foreignKey:ExchangeID" json:"-"`
}

// Validate checks the milestone ordering invariant.
func (e *Exchange) Validate() error {
	ordered := []time.Time{e.Confirmation, e.ConfirmationReminder, e.Drawn, e.Sent, e.Received}
	for i := 1; i < len(ordered); i++ {
		if !ordered[i-1].Before(ordered[i]) {
			return apperrors.ErrMilestonesOutOfOrder
		}
	}
	return nil
}

// IsPast reports whether the exchange has finished. Derived, never stored.
func (e *Exchange) IsPast(now time.Time) bool {
	return e.Received.Before(now)
}

// Transition identifies one of the five lifecycle transitions.
type Transition string

const (
	TransitionConfirmation         Transition = "confirmation"
	TransitionConfirmationReminder Transition = "confirmation_reminder"
	TransitionDraw                 Transition = "draw"
	TransitionSendReminder         Transition = "send_reminder"
	TransitionReceiveReminder      Transition = "receive_reminder"
)

// Transitions lists all lifecycle transitions in processing order.
func Transitions() []Transition {
	return []Transition{
		TransitionConfirmation,
		TransitionConfirmationReminder,
		TransitionDraw,
		TransitionSendReminder,
		TransitionReceiveReminder,
	}
}

// Milestone returns the exchange timestamp that makes the transition due.
func (t Transition) Milestone(e *Exchange) time.Time {
	switch t {
	case TransitionConfirmation:
		return e.Confirmation
	case TransitionConfirmationReminder:
		return e.ConfirmationReminder
	case TransitionDraw:
		return e.Drawn
	case TransitionSendReminder:
		return e.Sent
	case TransitionReceiveReminder:
		return e.Received
	}
	return time.Time{}
}

// StartedAt returns the started marker for the transition.
func (t Transition) StartedAt(e *Exchange) *time.Time {
	switch t {
	case TransitionConfirmation:
		return e.ConfirmationStartedAt
	case TransitionConfirmationReminder:
		return e.ConfirmationReminderStartedAt
	case TransitionDraw:
		return e.DrawStartedAt
	case TransitionSendReminder:
		return e.SendReminderStartedAt
	case TransitionReceiveReminder:
		return e.ReceiveReminderStartedAt
	}
	return nil
}

// MilestoneColumn is the database column holding the transition's milestone.
func (t Transition) MilestoneColumn() string {
	switch t {
	case TransitionConfirmation:
		return "confirmation"
	case TransitionConfirmationReminder:
		return "confirmation_reminder"
	case TransitionDraw:
		return "drawn"
	case TransitionSendReminder:
		return "sent"
	case TransitionReceiveReminder:
		return "received"
	}
	return ""
}

// StartedColumn is the database column holding the transition's started marker.
func (t Transition) StartedColumn() string {
	switch t {
	case TransitionConfirmation:
		return "confirmation_started_at"
	case TransitionConfirmationReminder:
		return "confirmation_reminder_started_at"
	case TransitionDraw:
		return "draw_started_at"
	case TransitionSendReminder:
		return "send_reminder_started_at"
	case TransitionReceiveReminder:
		return "receive_reminder_started_at"
	}
	return ""
}

// JobName is the queue task name dispatched when the transition fires.
func (t Transition) JobName() string {
	return "exchange." + string(t)
}
