package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join("testdata")
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Host)
	require.Equal(t, 5433, cfg.Database.Port)
	require.Equal(t, "giftloop", cfg.Database.Name)
	require.Equal(t, "gift", cfg.Database.Username)

	require.Equal(t, 250, cfg.Draw.MaxAttempts)
	require.Equal(t, 0.01, cfg.Draw.SecondsPerParticipant)
	require.Equal(t, 45*time.Second, cfg.Draw.SoftTimeLimit)
	require.Equal(t, 90*time.Second, cfg.Draw.HardTimeLimit)

	require.False(t, cfg.Scheduler.Enabled)
	require.Equal(t, "@every 30s", cfg.Scheduler.Spec)

	require.Equal(t, 128, cfg.Queue.Capacity)

	require.True(t, cfg.Email.SMTP.Enabled)
	require.Equal(t, "smtp.example.com", cfg.Email.SMTP.Host)
	require.Equal(t, 2525, cfg.Email.SMTP.Port)
	require.Equal(t, "santa@example.com", cfg.Email.SMTP.From)
	require.Equal(t, 15*time.Second, cfg.Email.SMTP.Timeout)

	require.False(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "info", cfg.Server.LogLevel)
	require.Equal(t, "sqlite", cfg.Database.Driver)

	require.Equal(t, 100, cfg.Draw.MaxAttempts)
	require.Equal(t, 0.003, cfg.Draw.SecondsPerParticipant)
	require.Equal(t, 30*time.Second, cfg.Draw.SoftTimeLimit)
	require.Equal(t, 60*time.Second, cfg.Draw.HardTimeLimit)

	require.True(t, cfg.Scheduler.Enabled)
	require.Equal(t, "@every 1m", cfg.Scheduler.Spec)
	require.Equal(t, 64, cfg.Queue.Capacity)

	require.False(t, cfg.Email.SMTP.Enabled)
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
}

func TestConfigAdapters(t *testing.T) {
	dbCfg := DatabaseConfig{
		Driver:   "mysql",
		Host:     "db",
		Port:     3306,
		Name:     "giftloop",
		Username: "u",
		Password: "p",
	}
	settings := dbCfg.DatabaseSettings()
	require.Equal(t, "mysql", settings.Driver)
	require.Equal(t, "db", settings.Host)
	require.Equal(t, 3306, settings.Port)
	require.Equal(t, "giftloop", settings.Name)
	require.Equal(t, "u", settings.User)

	drawCfg := DrawConfig{
		SecondsPerParticipant: 0.005,
		SoftTimeLimit:         20 * time.Second,
		HardTimeLimit:         40 * time.Second,
	}
	estimator := drawCfg.EstimatorSettings()
	require.Equal(t, 0.005, estimator.SecondsPerParticipant)
	require.Equal(t, 20*time.Second, estimator.SoftFloor)
	require.Equal(t, 40*time.Second, estimator.HardFloor)

	emailCfg := EmailConfig{
		SMTP: SMTPConfig{
			Enabled: true,
			Host:    "smtp.example.com",
			Port:    2525,
			From:    "santa@example.com",
			UseTLS:  true,
			Timeout: 10 * time.Second,
		},
	}
	smtp := emailCfg.SMTPSettings()
	require.True(t, smtp.Enabled)
	require.Equal(t, "smtp.example.com", smtp.Host)
	require.Equal(t, 2525, smtp.Port)
	require.Equal(t, "santa@example.com", smtp.From)
	require.Equal(t, 10*time.Second, smtp.Timeout)
}
