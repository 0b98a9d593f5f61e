// pkg/market/tick_test.go
package market

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TycoonExchange/pkg/model"
)

func newSystemStock(ticker string, price float64) *model.Instrument {
	return &model.Instrument{
		Ticker:        ticker,
		Name:          ticker,
		Kind:          model.InstrumentSystem,
		CurrentPrice:  price,
		PreviousClose: price,
		High24h:       price,
		Low24h:        price,
		Trend:         model.TrendNeutral,
		BasePrice:     price,
		Volatility:    0.03,
	}
}

func TestCatchUpInitializesZeroLastTick(t *testing.T) {
	engine := NewTickEngine(DefaultTickConfig())
	inst := newSystemStock("QNTM", 150)
	now := time.Date(2026, 8, 26, 12, 3, 17, 0, time.UTC)

	n := engine.CatchUp(inst, 0, nil, now)

	assert.Equal(t, 0, n)
	assert.False(t, inst.LastTickAt.IsZero())
	assert.Equal(t, 150.0, inst.CurrentPrice)
}

func TestCatchUpAppliesElapsedTicks(t *testing.T) {
	engine := NewTickEngine(DefaultTickConfig())
	inst := newSystemStock("QNTM", 150)
	avg := DefaultTickConfig().AverageInterval()
	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	inst.LastTickAt = start

	n := engine.CatchUp(inst, 0, nil, start.Add(3*avg))

	assert.Equal(t, 3, n)
	assert.Equal(t, start.Add(3*avg), inst.LastTickAt)
	assert.NotEqual(t, 150.0, inst.CurrentPrice)
}

// 同一时间区间补算两份相同标的，价格路径必须完全一致
func TestCatchUpDeterministicPath(t *testing.T) {
	engine := NewTickEngine(DefaultTickConfig())
	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	now := start.Add(10 * DefaultTickConfig().AverageInterval())

	a := newSystemStock("QNTM", 150)
	a.LastTickAt = start
	b := newSystemStock("QNTM", 150)
	b.LastTickAt = start

	engine.CatchUp(a, 0, nil, now)
	engine.CatchUp(b, 0, nil, now)

	assert.Equal(t, a.CurrentPrice, b.CurrentPrice)
	assert.Equal(t, a.Trend, b.Trend)
	assert.Equal(t, a.High24h, b.High24h)
	assert.Equal(t, a.Low24h, b.Low24h)
}

// 分段补算与一次性补算到同一时刻，结果必须一致
func TestCatchUpSplitEqualsWhole(t *testing.T) {
	engine := NewTickEngine(DefaultTickConfig())
	avg := DefaultTickConfig().AverageInterval()
	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	whole := newSystemStock("NEBU", 85)
	whole.LastTickAt = start
	engine.CatchUp(whole, 0, nil, start.Add(8*avg))

	split := newSystemStock("NEBU", 85)
	split.LastTickAt = start
	engine.CatchUp(split, 0, nil, start.Add(3*avg))
	engine.CatchUp(split, 0, nil, start.Add(8*avg))

	assert.Equal(t, whole.CurrentPrice, split.CurrentPrice)
	assert.Equal(t, whole.LastTickAt, split.LastTickAt)
}

func TestCatchUpCapsLongAbsence(t *testing.T) {
	cfg := DefaultTickConfig()
	cfg.MaxCatchUp = 10
	engine := NewTickEngine(cfg)
	avg := cfg.AverageInterval()

	inst := newSystemStock("GEOT", 32)
	inst.LastTickAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)

	n := engine.CatchUp(inst, 0, nil, now)

	assert.Equal(t, 10, n)
	// 补算起点对齐到网格，重放不会产生错位的tick时间戳
	require.False(t, inst.LastTickAt.After(now))
	assert.True(t, now.Sub(inst.LastTickAt) < avg)
}

func TestCatchUpEnforcesMinPrice(t *testing.T) {
	cfg := DefaultTickConfig()
	engine := NewTickEngine(cfg)
	inst := newSystemStock("TERA", 0.011)
	inst.BasePrice = 0.011
	inst.Volatility = 0.99
	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	inst.LastTickAt = start

	engine.CatchUp(inst, 0, nil, start.Add(50*cfg.AverageInterval()))

	assert.GreaterOrEqual(t, inst.CurrentPrice, cfg.MinPrice)
}

// 公司股的回归目标是东家净资产/除数，价格长期向它靠拢
func TestCompanyStockRevertsTowardNetWorthTarget(t *testing.T) {
	cfg := DefaultTickConfig()
	engine := NewTickEngine(cfg)
	inst := newSystemStock("ACME", 10)
	inst.Kind = model.InstrumentCompany
	inst.OwnerID = "owner-1"
	inst.BasePrice = 0
	inst.Volatility = 0.001
	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	inst.LastTickAt = start

	// 净资产100万，目标价100；起始价10远低于目标
	engine.CatchUp(inst, 1_000_000, nil, start.Add(100*cfg.AverageInterval()))

	assert.Greater(t, inst.CurrentPrice, 10.0)
}

// 负向事件在作用窗口内把价格压下去
func TestEventBiasPushesPrice(t *testing.T) {
	cfg := DefaultTickConfig()
	engine := NewTickEngine(cfg)
	start := time.Date(2026, 8, 26, 12, 0, 0, 0, time.UTC)
	end := start.Add(10 * cfg.AverageInterval())

	withEvent := newSystemStock("HELI", 45)
	withEvent.Volatility = 0.001
	withEvent.LastTickAt = start
	without := newSystemStock("HELI", 45)
	without.Volatility = 0.001
	without.LastTickAt = start

	dump := &model.MarketEvent{
		Type:        model.EventDump,
		Ticker:      "HELI",
		PriceImpact: -0.40,
		Active:      true,
		CreatedAt:   start.Add(time.Second),
		ExpiresAt:   end,
	}

	engine.CatchUp(withEvent, 0, dump, end)
	engine.CatchUp(without, 0, nil, end)

	assert.Less(t, withEvent.CurrentPrice, without.CurrentPrice)
}
