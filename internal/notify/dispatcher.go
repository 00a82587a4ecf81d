package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/giftloop/giftloop/internal/models"
	"github.com/giftloop/giftloop/pkg/logger"
	"github.com/giftloop/giftloop/pkg/mail"
	"github.com/giftloop/giftloop/pkg/metrics"
)

const dateLayout = "Monday 2 January 2006"

// Dispatcher renders and sends the plain-text lifecycle emails. Send failures
// are logged and aggregated per batch; a persisted draw is never unwound
// because its notification bounced.
type Dispatcher struct {
	mailer mail.Mailer
	log    *zap.Logger
}

// NewDispatcher constructs a Dispatcher over the given mailer.
func NewDispatcher(mailer mail.Mailer) (*Dispatcher, error) {
	if mailer == nil {
		return nil, errors.New("notify: mailer is required")
	}
	return &Dispatcher{
		mailer: mailer,
		log:    logger.WithModule("notify"),
	}, nil
}

// AssignmentEmails sends each sender their assignment after a successful
// draw. Draws must have sender and recipient preloaded. Honours the
// exchange's send-emails flag.
func (d *Dispatcher) AssignmentEmails(ctx context.Context, exchange *models.Exchange, draws []models.Draw) error {
	if !exchange.SendEmails {
		d.log.Info("assignment emails disabled for exchange", zap.String("exchange", exchange.Slug))
		return nil
	}

	var errs error
	for _, draw := range draws {
		if draw.Sender == nil || draw.Recipient == nil {
			errs = multierr.Append(errs, fmt.Errorf("notify: draw %s is missing participants", draw.ID))
			continue
		}

		msg := mail.Message{
			To:      []string{draw.Sender.Email},
			Subject: fmt.Sprintf("Your %s assignment", exchange.Name),
			Body:    assignmentBody(exchange, draw),
		}
		if err := d.send(ctx, msg); err != nil {
			metrics.AssignmentEmails.WithLabelValues("failed").Inc()
			d.log.Error("assignment email failed",
				zap.String("exchange", exchange.Slug),
				zap.String("sender_id", draw.SenderID),
				zap.Error(err))
			errs = multierr.Append(errs, err)
			continue
		}
		metrics.AssignmentEmails.WithLabelValues("sent").Inc()
	}
	return errs
}

// ConfirmationRequests asks every enrolled participant to confirm they are in.
func (d *Dispatcher) ConfirmationRequests(ctx context.Context, exchange *models.Exchange, participants []models.Participant) error {
	subject := fmt.Sprintf("Confirm your place in %s", exchange.Name)
	body := fmt.Sprintf(
		"Hello!\n\n%s draws on %s. Please confirm you still want to take part before then.\n",
		exchange.Name, exchange.Drawn.Format(dateLayout))
	return d.broadcast(ctx, exchange, participants, subject, body)
}

// ConfirmationReminders nudges participants who have not confirmed yet.
func (d *Dispatcher) ConfirmationReminders(ctx context.Context, exchange *models.Exchange, participants []models.Participant) error {
	subject := fmt.Sprintf("Last chance to confirm for %s", exchange.Name)
	body := fmt.Sprintf(
		"Hello!\n\n%s draws on %s and you haven't confirmed yet. Unconfirmed participants are left out of the draw.\n",
		exchange.Name, exchange.Drawn.Format(dateLayout))
	return d.broadcast(ctx, exchange, participants, subject, body)
}

// SendReminders nudges senders who have not posted their gift.
func (d *Dispatcher) SendReminders(ctx context.Context, exchange *models.Exchange, draws []models.Draw) error {
	var errs error
	for _, draw := range draws {
		if draw.SentAt != nil || draw.Sender == nil {
			continue
		}
		msg := mail.Message{
			To:      []string{draw.Sender.Email},
			Subject: fmt.Sprintf("Have you posted your %s gift?", exchange.Name),
			Body: fmt.Sprintf(
				"Hello %s!\n\nGifts for %s should be in the mail by %s. Once yours is on its way, mark it as sent.\n",
				draw.Sender.DisplayName(), exchange.Name, exchange.Sent.Format(dateLayout)),
		}
		errs = multierr.Append(errs, d.logged(ctx, exchange, draw.SenderID, msg))
	}
	return errs
}

// ReceiveReminders nudges recipients who have not reported their gift arriving.
func (d *Dispatcher) ReceiveReminders(ctx context.Context, exchange *models.Exchange, draws []models.Draw) error {
	var errs error
	for _, draw := range draws {
		if draw.ReceivedAt != nil || draw.Recipient == nil {
			continue
		}
		msg := mail.Message{
			To:      []string{draw.Recipient.Email},
			Subject: fmt.Sprintf("Has your %s gift arrived?", exchange.Name),
			Body: fmt.Sprintf(
				"Hello %s!\n\nGifts for %s should have arrived by %s. Once yours turns up, mark it as received.\n",
				draw.Recipient.DisplayName(), exchange.Name, exchange.Received.Format(dateLayout)),
		}
		errs = multierr.Append(errs, d.logged(ctx, exchange, draw.RecipientID, msg))
	}
	return errs
}

func (d *Dispatcher) broadcast(ctx context.Context, exchange *models.Exchange, participants []models.Participant, subject, body string) error {
	var errs error
	for _, participant := range participants {
		msg := mail.Message{
			To:      []string{participant.Email},
			Subject: subject,
			Body:    body,
		}
		errs = multierr.Append(errs, d.logged(ctx, exchange, participant.ID, msg))
	}
	return errs
}

func (d *Dispatcher) logged(ctx context.Context, exchange *models.Exchange, participantID string, msg mail.Message) error {
	if err := d.send(ctx, msg); err != nil {
		d.log.Error("email failed",
			zap.String("exchange", exchange.Slug),
			zap.String("participant_id", participantID),
			zap.Error(err))
		return err
	}
	return nil
}

// send hides the disabled-mailer case: a deployment without SMTP configured
// simply skips delivery.
func (d *Dispatcher) send(ctx context.Context, msg mail.Message) error {
	err := d.mailer.Send(ctx, msg)
	if errors.Is(err, mail.ErrSMTPDisabled) {
		d.log.Debug("smtp disabled, skipping email", zap.Strings("to", msg.To))
		return nil
	}
	return err
}

func assignmentBody(exchange *models.Exchange, draw models.Draw) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s!\n\n", draw.Sender.DisplayName())
	fmt.Fprintf(&b, "The draw for %s has happened and you're sending a gift to %s.\n\n",
		exchange.Name, draw.Recipient.DisplayName())
	fmt.Fprintf(&b, "Post your gift by %s.\n", exchange.Sent.Format(dateLayout))
	fmt.Fprintf(&b, "Gifts should arrive by %s.\n", exchange.Received.Format(dateLayout))
	return b.String()
}
