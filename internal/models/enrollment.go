package models

// Enrollment joins a participant to an exchange. Records are created when a
// participant elects to join and are never required to be deleted; only the
// confirmed flag changes afterwards.
type Enrollment struct {
	BaseModel

	ParticipantID string `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_participant_exchange" json:"participant_id"`
	ExchangeID    string `gorm:"type:uuid;not null;uniqueIndex:idx_enrollments_participant_exchange" json:"exchange_id"`

	Confirmed bool `gorm:"default:false" json:"confirmed"`

	Participant *Participant `gorm:"foreignKey:ParticipantID" json:"participant,omitempty"`
	Exchange    *Exchange    `gorm:"foreignKey:ExchangeID" json:"exchange,omitempty"`
}
