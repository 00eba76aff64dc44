package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/hookbind/internal/registry"
	"github.com/vk/hookbind/internal/testutil"
)

// SetupAppTest creates a new app instance for system testing with debug
// logs captured in the returned buffer.
func SetupAppTest(t *testing.T, cfg *Config, modules ...registry.Module) (*App, *testutil.SafeBuffer) {
	t.Helper()

	logBuffer := &testutil.SafeBuffer{}
	cfg.LogLevel = "debug"
	testApp, err := NewApp(context.Background(), logBuffer, cfg, modules...)
	require.NoError(t, err)
	testutil.DumpLogs(t, logBuffer)
	t.Cleanup(func() { _ = testApp.Close() })

	return testApp, logBuffer
}
