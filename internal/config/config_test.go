package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steadypath/steadypath/internal/config"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "steadypath.db", cfg.Database.Path)
	assert.Equal(t, 10*time.Second, cfg.Escalation.ChannelTimeout)
	assert.Equal(t, 400*time.Millisecond, cfg.Escalation.ContactStagger)
	assert.NotEmpty(t, cfg.Escalation.ExportDir)

	require.NotEmpty(t, cfg.Contacts, "a responder list must always exist")
	var primary int
	for _, c := range cfg.Contacts {
		assert.NotEmpty(t, c.PhoneNumber)
		if c.IsPrimary {
			primary++
		}
	}
	assert.Equal(t, 1, primary)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("STEADYPATH_LOG_LEVEL", "debug")
	t.Setenv("STEADYPATH_SERVER_PORT", "9999")

	cfg, err := config.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 9999, cfg.Server.Port)
}
