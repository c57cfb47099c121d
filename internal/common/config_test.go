package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/dtnitsch/ld-enricher/models"
)

func runWithConfig(t *testing.T, args ...string) (models.Config, error) {
	t.Helper()
	var (
		cfg     models.Config
		loadErr error
	)
	app := &cli.App{
		Name:  "test",
		Flags: append(GlobalFlags(), RunFlags()...),
		Action: func(c *cli.Context) error {
			cfg, loadErr = LoadConfig(c)
			return nil
		},
	}
	require.NoError(t, app.Run(append([]string{"test"}, args...)))
	return cfg, loadErr
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := runWithConfig(t, "--file", "x.json")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultConfig(), cfg)
}

func TestLoadConfig_FileThenFlags(t *testing.T) {
	path := filepath.Join(t.TempDir(), "enricher.yaml")
	require.NoError(t, os.WriteFile(path, []byte("data_dir: /srv/data\ntimeout_ms: 3000\ndelay_ms: 500\ncache_ttl: 1h\n"), 0o644))

	cfg, err := runWithConfig(t, "--config", path, "--file", "x.json", "--delay-ms", "0", "--no-history")
	require.NoError(t, err)
	assert.Equal(t, "/srv/data", cfg.DataDir)
	assert.Equal(t, 3000, cfg.TimeoutMs)
	assert.Equal(t, 0, cfg.DelayMs)
	assert.Equal(t, time.Hour, cfg.CacheTTL)
	assert.True(t, cfg.DisableHistory)
	assert.Empty(t, cfg.HistoryPath())
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("ENRICHER_TIMEOUT_MS", "1500")
	t.Setenv("ENRICHER_METRICS_ADDR", ":9100")

	cfg, err := runWithConfig(t, "--file", "x.json")
	require.NoError(t, err)
	assert.Equal(t, 1500, cfg.TimeoutMs)
	assert.Equal(t, ":9100", cfg.MetricsAddr)
}

func TestLoadConfig_Invalid(t *testing.T) {
	_, err := runWithConfig(t, "--file", "x.json", "--timeout-ms", "0")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timeout_ms")
}
