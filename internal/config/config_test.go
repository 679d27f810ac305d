package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewManagerDefaults(t *testing.T) {
	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, int64(16<<20), cfg.Server.MaxUploadBytes)
	assert.Equal(t, "data/allele_definitions.json", cfg.Catalog.AlleleDefinitionsPath)
	assert.Equal(t, "data/cpic_rules.json", cfg.Catalog.GuidelinesPath)
	assert.Equal(t, 1024, cfg.Session.MaxEntries)
	assert.False(t, cfg.Explain.Enabled)
	assert.True(t, cfg.RateLimit.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("PHARMAGUARD_SERVER_PORT", "9090")
	t.Setenv("PHARMAGUARD_LOGGING_LEVEL", "debug")

	manager, err := NewManager()
	require.NoError(t, err)

	cfg := manager.GetConfig()
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *Manager)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(m *Manager) {},
			wantErr: false,
		},
		{
			name:    "invalid port",
			mutate:  func(m *Manager) { m.config.Server.Port = 0 },
			wantErr: true,
		},
		{
			name:    "port out of range",
			mutate:  func(m *Manager) { m.config.Server.Port = 70000 },
			wantErr: true,
		},
		{
			name:    "zero upload limit",
			mutate:  func(m *Manager) { m.config.Server.MaxUploadBytes = 0 },
			wantErr: true,
		},
		{
			name:    "missing allele definitions path",
			mutate:  func(m *Manager) { m.config.Catalog.AlleleDefinitionsPath = "" },
			wantErr: true,
		},
		{
			name:    "missing guidelines path",
			mutate:  func(m *Manager) { m.config.Catalog.GuidelinesPath = "" },
			wantErr: true,
		},
		{
			name:    "non-positive session cache",
			mutate:  func(m *Manager) { m.config.Session.MaxEntries = 0 },
			wantErr: true,
		},
		{
			name: "explain enabled without URL",
			mutate: func(m *Manager) {
				m.config.Explain.Enabled = true
				m.config.Explain.BaseURL = ""
			},
			wantErr: true,
		},
		{
			name: "rate limit enabled with zero rate",
			mutate: func(m *Manager) {
				m.config.RateLimit.Enabled = true
				m.config.RateLimit.RequestsPerSecond = 0
			},
			wantErr: true,
		},
		{
			name:    "invalid log level",
			mutate:  func(m *Manager) { m.config.Logging.Level = "verbose" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager, err := NewManager()
			require.NoError(t, err)

			tt.mutate(manager)

			err = manager.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
