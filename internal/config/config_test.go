// =================================
// File: internal/config/config_test.go
// =================================
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadConfig(t *testing.T) {
	t.Run("defaults fill the gaps", func(t *testing.T) {
		path := writeConfig(t, `
authority: admin-1
fee_recipient: treasury
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "admin-1", cfg.Authority)
		require.Equal(t, "USDX", cfg.SettlementAsset)
		require.Equal(t, uint64(100), cfg.PlatformFeeBps)
		require.Equal(t, uint64(1000), cfg.HighFeeBps)
		require.Equal(t, uint64(21_000)*100_000_000, cfg.MigrationThreshold)
		require.Equal(t, 5*time.Minute, cfg.LastBuyerWait())
		require.Equal(t, ":8080", cfg.ListenAddr)
	})

	t.Run("explicit values win", func(t *testing.T) {
		path := writeConfig(t, `
authority: admin-1
fee_recipient: treasury
settlement_asset: SOLX
platform_fee_bps: 50
last_buyer_wait_seconds: 60
storage_driver: sqlite
sqlite_path: /tmp/test.db
`)
		cfg, err := LoadConfig(path)
		require.NoError(t, err)
		require.Equal(t, "SOLX", cfg.SettlementAsset)
		require.Equal(t, uint64(50), cfg.PlatformFeeBps)
		require.Equal(t, time.Minute, cfg.LastBuyerWait())
		require.Equal(t, "/tmp/test.db", cfg.SQLitePath)
	})

	t.Run("missing authority", func(t *testing.T) {
		path := writeConfig(t, `
fee_recipient: treasury
`)
		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("fee out of range", func(t *testing.T) {
		path := writeConfig(t, `
authority: admin-1
fee_recipient: treasury
high_fee_bps: 10001
`)
		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("postgres driver needs a dsn", func(t *testing.T) {
		path := writeConfig(t, `
authority: admin-1
fee_recipient: treasury
storage_driver: postgres
`)
		_, err := LoadConfig(path)
		require.Error(t, err)
	})

	t.Run("webhook must be https", func(t *testing.T) {
		path := writeConfig(t, `
authority: admin-1
fee_recipient: treasury
webhook_url: http://example.com/hook
`)
		_, err := LoadConfig(path)
		require.Error(t, err)
	})
}
