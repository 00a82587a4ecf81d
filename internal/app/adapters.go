package app

import (
	"github.com/giftloop/giftloop/internal/database"
	"github.com/giftloop/giftloop/internal/draw"
	"github.com/giftloop/giftloop/pkg/mail"
)

// DatabaseSettings converts DatabaseConfig to the database package representation.
func (c DatabaseConfig) DatabaseSettings() database.Config {
	return database.Config{
		Driver:   c.Driver,
		Path:     c.Path,
		DSN:      c.DSN,
		Host:     c.Host,
		Port:     c.Port,
		Name:     c.Name,
		User:     c.Username,
		Password: c.Password,
	}
}

// EstimatorSettings converts DrawConfig to the draw package cost model.
func (c DrawConfig) EstimatorSettings() draw.EstimatorConfig {
	return draw.EstimatorConfig{
		SecondsPerParticipant: c.SecondsPerParticipant,
		SoftFloor:             c.SoftTimeLimit,
		HardFloor:             c.HardTimeLimit,
	}
}

// SMTPSettings converts EmailConfig to the mail package representation.
func (c EmailConfig) SMTPSettings() mail.SMTPSettings {
	return mail.SMTPSettings{
		Enabled:  c.SMTP.Enabled,
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		From:     c.SMTP.From,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  c.SMTP.Timeout,
	}
}
