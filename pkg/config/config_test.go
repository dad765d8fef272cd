package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	assert.Equal(t, 8000, c.Server.Port)
	assert.Equal(t, ProviderYahoo, c.MarketData.Provider)
	assert.Equal(t, 15*time.Second, c.MarketData.DefaultTimeout)
	assert.Equal(t, "info", c.Log.Level)
	assert.Equal(t, "/metrics", c.Metrics.Path)
	assert.True(t, c.Cache.Enabled)
	assert.False(t, c.Kafka.Enabled)
	assert.NoError(t, c.Validate())
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	path := writeConfig(t, `
environment: production
server:
  port: 9090
market_data:
  provider: clickhouse
  clickhouse:
    host: ch.internal
    table: bars
`)
	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "production", c.Environment)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, ProviderClickHouse, c.MarketData.Provider)
	assert.Equal(t, "ch.internal", c.MarketData.ClickHouse.Host)
	assert.Equal(t, "bars", c.MarketData.ClickHouse.Table)
	assert.Equal(t, 9000, c.MarketData.ClickHouse.Port)
	assert.Equal(t, "models/stock_model.json", c.Model.Path)
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown provider":   "market_data:\n  provider: bloomberg\n",
		"bad port":           "server:\n  port: 70000\n",
		"kafka w/o brokers":  "kafka:\n  enabled: true\n",
		"bad yaml":           "server: [",
		"unknown log format": "log:\n  format: xml\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadWithEnvOverrides(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STOCKSTATS_PORT", "8123")
	t.Setenv("MODEL_PATH", "/tmp/m.json")
	t.Setenv("KAFKA_BROKERS", "a:9092,b:9092")
	t.Setenv("KAFKA_TOPIC", "events")
	t.Setenv("LOG_LEVEL", "debug")

	c, err := LoadWithEnv("")
	require.NoError(t, err)

	assert.Equal(t, 8123, c.Server.Port)
	assert.Equal(t, "/tmp/m.json", c.Model.Path)
	assert.True(t, c.Kafka.Enabled)
	assert.Equal(t, []string{"a:9092", "b:9092"}, c.Kafka.Brokers)
	assert.Equal(t, "events", c.Kafka.Topic)
	assert.Equal(t, "debug", c.Log.Level)
}

func TestLoadWithEnvBadPort(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("STOCKSTATS_PORT", "eighty")

	_, err := LoadWithEnv("")
	assert.Error(t, err)
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent of testing.T.Chdir, Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
