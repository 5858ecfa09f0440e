package gateway

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"tradescope/internal/config"
	"tradescope/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFromConfigFileAndCache(t *testing.T) {
	dumps := t.TempDir()
	raw := `[[0,"1","2","0.5","1.5","10",3599999],[3600000,"1.5","2","1","1.8","12",7199999]]`
	require.NoError(t, os.WriteFile(filepath.Join(dumps, "BTCUSDT_1h.json"), []byte(raw), 0o644))

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Market.Sources = []string{config.SourceFile}
	cfg.Market.FileDir = dumps
	cfg.Market.CacheDir = filepath.Join(t.TempDir(), "cache")

	m, err := NewFromConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close() })
	require.NotNil(t, m.Cache)

	series, err := m.Fetch(context.Background(), "btc/usdt", "1h", 0)
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", series.Symbol())
	assert.Equal(t, 2, series.Len())

	manifests, err := m.Cache.Manifests(context.Background())
	require.NoError(t, err)
	require.Len(t, manifests, 1)
	assert.EqualValues(t, 2, manifests[0].Rows)
}

func TestNewFromConfigRejectsUnknownSource(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Market.Sources = []string{"kraken"}
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}

func TestNewFromConfigWithoutCache(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Market.CacheDir = ""
	m, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Nil(t, m.Cache)
	assert.NoError(t, m.Close())
	var _ market.Provider = m
}
