package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testYAML = `
app:
  name: exchange-test
  env: test
database:
  postgres:
    host: localhost
    port: 5432
    user: postgres
    password: postgres
    dbname: exchange
    sslmode: disable
nats:
  url: nats://localhost:4222
  client_id: exchange-test
api:
  port: "8080"
  read_timeout: 10s
  write_timeout: 10s
market:
  tick_min_interval: 5s
  tick_max_interval: 30s
  max_catch_up: 120
rules:
  order_cooldown: 3s
  min_holding_period: 30s
simulation:
  cycle_spec: "@every 30s"
`

func writeTestConfig(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testYAML), 0o644))
	return path
}

func TestLoadConfigParsesDurations(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "exchange-test", cfg.App.Name)
	assert.Equal(t, 10*time.Second, cfg.API.ReadTimeout.Std())
	assert.Equal(t, 5*time.Second, cfg.Market.TickMinInterval.Std())
	assert.Equal(t, 30*time.Second, cfg.Market.TickMaxInterval.Std())
	assert.Equal(t, 3*time.Second, cfg.Rules.OrderCooldown.Std())
	assert.Equal(t, "@every 30s", cfg.Simulation.CycleSpec)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api:\n  read_timeout: banana\n"), 0o644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "banana")
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("NATS_URL", "nats://broker:4222")
	t.Setenv("API_PORT", "9090")

	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "nats://broker:4222", cfg.NATS.URL)
	assert.Equal(t, "9090", cfg.API.Port)
}

func TestGetDefaultConfigPath(t *testing.T) {
	t.Setenv("APP_ENV", "")
	assert.Equal(t, "configs/dev/app.yaml", GetDefaultConfigPath())
	t.Setenv("APP_ENV", "prod")
	assert.Equal(t, "configs/prod/app.yaml", GetDefaultConfigPath())
}
