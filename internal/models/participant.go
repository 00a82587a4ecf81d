package models

import "strings"

// Participant is somebody who can take part in gift exchanges.
type Participant struct {
	BaseModel

	Email         string `gorm:"uniqueIndex;not null" json:"email"`
	EmailVerified bool   `gorm:"default:false" json:"email_verified"`

	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	HasAddress bool `gorm:"default:false" json:"has_address"`
	IsActive   bool `gorm:"default:true" json:"is_active"`

	Enrollments []Enrollment `gorm:"foreignKey:ParticipantID" json:"-"`
}

// FullName joins the name parts, omitting empty ones.
func (p *Participant) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// DisplayName is the full name, falling back to the email address.
func (p *Participant) DisplayName() string {
	if name := p.FullName(); name != "" {
		return name
	}
	return p.Email
}

// HasName reports whether at least one name part is present. Participants
// without any name cannot be addressed on a parcel and are never drawn.
func (p *Participant) HasName() bool {
	return strings.TrimSpace(p.FirstName) != "" || strings.TrimSpace(p.LastName) != ""
}
