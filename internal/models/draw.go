package models

import "time"

// Draw is the persisted sender-to-recipient assignment for one participant
// within one exchange. Rows are created in bulk by the draw optimizer and are
// immutable afterwards, apart from the sent/received timestamps which the
// sender and recipient set when the parcel actually moves.
type Draw struct {
	BaseModel

	ExchangeID  string `gorm:"type:uuid;not null;uniqueIndex:idx_draws_exchange_sender;uniqueIndex:idx_draws_exchange_recipient" json:"exchange_id"`
	SenderID    string `gorm:"type:uuid;not null;uniqueIndex:idx_draws_exchange_sender" json:"sender_id"`
	RecipientID string `gorm:"type:uuid;not null;uniqueIndex:idx_draws_exchange_recipient" json:"recipient_id"`

	SentAt     *time.Time `json:"sent_at"`
	ReceivedAt *time.Time `json:"received_at"`

	Exchange  *Exchange    `gorm:"foreignKey:ExchangeID" json:"-"`
	Sender    *Participant `gorm:"foreignKey:SenderID" json:"sender,omitempty"`
	Recipient *Participant `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
}
