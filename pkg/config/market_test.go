package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TycoonExchange/pkg/market"
)

func TestMarketConfigOverrides(t *testing.T) {
	cfg, err := LoadConfig(writeTestConfig(t))
	require.NoError(t, err)

	tc := cfg.TickConfig()
	assert.Equal(t, 5*time.Second, tc.MinInterval)
	assert.Equal(t, 30*time.Second, tc.MaxInterval)
	assert.Equal(t, 120, tc.MaxCatchUp)
	// 未配置的字段保持默认
	assert.Equal(t, market.DefaultTickConfig().ReversionRate, tc.ReversionRate)

	rc := cfg.RulesConfig()
	assert.Equal(t, 3*time.Second, rc.TradeCooldown)
	assert.Equal(t, 30*time.Second, rc.MinHoldingPeriod)
	assert.Equal(t, market.DefaultRulesConfig().MaxPositionPercent, rc.MaxPositionPercent)
}

func TestMarketConfigZeroValuesFallBackToDefaults(t *testing.T) {
	var cfg Config

	assert.Equal(t, market.DefaultTickConfig(), cfg.TickConfig())
	assert.Equal(t, market.DefaultRulesConfig(), cfg.RulesConfig())
	assert.Equal(t, market.DefaultEventConfig(), cfg.EventConfig())
}
