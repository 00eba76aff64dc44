package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("HOOKBIND_METADATA", "meta,plugins/**/*.hcl")
	t.Setenv("HOOKBIND_LOG_LEVEL", "DEBUG")
	t.Setenv("HOOKBIND_HEALTHCHECK_PORT", "8081")
	t.Setenv("HOOKBIND_RELAY_URL", "https://relay.test/socket.io/")

	raw, err := LoadConfig()
	require.NoError(t, err)
	cfg, err := NewConfig(raw)
	require.NoError(t, err)

	assert.Equal(t, []string{"meta", "plugins/**/*.hcl"}, cfg.MetadataPaths)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 8081, cfg.HealthcheckPort)
	assert.Equal(t, "https://relay.test/socket.io/", cfg.RelayURL)
	assert.Equal(t, "/", cfg.RelayNamespace)
}

func TestLoadConfig_BadPort(t *testing.T) {
	t.Setenv("HOOKBIND_HEALTHCHECK_PORT", "eighty")
	_, err := LoadConfig()
	require.ErrorContains(t, err, "parse env")
}

func TestNewConfig_Validation(t *testing.T) {
	testCases := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "defaults", cfg: Config{}},
		{name: "json", cfg: Config{LogFormat: "JSON", LogLevel: "warn"}},
		{name: "bad format", cfg: Config{LogFormat: "xml"}, wantErr: "invalid log format"},
		{name: "bad level", cfg: Config{LogLevel: "trace"}, wantErr: "invalid log level"},
		{name: "bad port", cfg: Config{HealthcheckPort: 70000}, wantErr: "invalid healthcheck port"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, err := NewConfig(tc.cfg)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Contains(t, []string{"text", "json"}, cfg.LogFormat)
		})
	}
}
