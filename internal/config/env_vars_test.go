package config_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-ctrlx-datalayer/internal/config"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := config.New()
	require.Equal(t, "192.168.1.1", c.GetHost())
	require.Equal(t, "boschrexroth", c.GetUsername())
	require.Equal(t, time.Duration(-1), c.GetRequestTimeout())
	require.True(t, c.GetAutoReconnect())
	require.True(t, c.GetInsecureTLS())
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CTRLX_HOST", "ctrlx-core.local")
	t.Setenv("CTRLX_TIMEOUT", "2500")
	t.Setenv("CTRLX_AUTO_RECONNECT", "false")
	t.Setenv("CTRLX_INSECURE_TLS", "false")

	c := config.New()
	require.Equal(t, "ctrlx-core.local", c.GetHost())
	require.Equal(t, 2500*time.Millisecond, c.GetRequestTimeout())
	require.False(t, c.GetAutoReconnect())
	require.False(t, c.GetInsecureTLS())
}

func TestUnparseableTimeoutFallsBack(t *testing.T) {
	t.Setenv("CTRLX_TIMEOUT", "soon")
	require.Equal(t, time.Duration(-1), config.New().GetRequestTimeout())
}
