package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestNewManagerAppliesDefaultsWhenFileSparse(t *testing.T) {
	path := writeConfigFile(t, "environment: staging\n")
	m, err := NewManager(path)
	require.NoError(t, err)
	defer m.Close()

	cfg := m.Current()
	assert.Equal(t, "staging", cfg.Environment)
	assert.Equal(t, uint32(10000), cfg.MarketData.DecimalFactor)
	assert.Equal(t, int64(1_000_000), cfg.Risk.InitialCapital)
	assert.Equal(t, 3, cfg.Halt.MaxRetries)
}

func TestNewManagerParsesOverrides(t *testing.T) {
	path := writeConfigFile(t, `
environment: production
risk:
  max_order_size: 250
paper:
  slippage_bps: 25
`)
	m, err := NewManager(path)
	require.NoError(t, err)
	defer m.Close()

	cfg := m.Current()
	assert.Equal(t, uint32(250), cfg.Risk.MaxOrderSize)
	assert.Equal(t, uint32(25), cfg.Paper.SlippageBps)
}

func TestOnReloadInvokesCallbackImmediately(t *testing.T) {
	path := writeConfigFile(t, "environment: dev\n")
	m, err := NewManager(path)
	require.NoError(t, err)
	defer m.Close()

	var seen *Config
	m.OnReload(func(c *Config) { seen = c })
	require.NotNil(t, seen)
	assert.Equal(t, "dev", seen.Environment)
}

func TestWatcherReloadsOnFileWrite(t *testing.T) {
	path := writeConfigFile(t, "environment: dev\n")
	m, err := NewManager(path)
	require.NoError(t, err)
	defer m.Close()

	reloaded := make(chan *Config, 1)
	m.OnReload(func(c *Config) {
		select {
		case reloaded <- c:
		default:
		}
	})
	<-reloaded // drain the immediate call

	require.NoError(t, os.WriteFile(path, []byte("environment: production\n"), 0644))

	select {
	case c := <-reloaded:
		assert.Equal(t, "production", c.Environment)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for config reload")
	}
}
