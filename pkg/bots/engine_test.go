// pkg/bots/engine_test.go
package bots

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/model"
)

func newTestEngine(store *market.MemStore, cfg Config, clock *time.Time) *Engine {
	rules := market.DefaultRulesConfig()
	ledger := market.NewLedger(market.NewRuleEngine(rules), market.NewBreaker(market.DefaultBreakerConfig(), market.NewMemHaltStore()))
	return NewEngine(store, ledger, cfg, WithClock(func() time.Time { return *clock }))
}

func systemStock(ticker string, price float64) *model.Instrument {
	return &model.Instrument{
		Ticker:        ticker,
		Name:          ticker,
		Kind:          model.InstrumentSystem,
		CurrentPrice:  price,
		BasePrice:     price,
		PreviousClose: price,
		High24h:       price,
		Low24h:        price,
		Trend:         model.TrendNeutral,
		Volatility:    0.02,
	}
}

func TestPickTargetAggressiveChasesEvents(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	e := newTestEngine(store, DefaultConfig(), &now)

	snapshots := map[string]Snapshot{
		"AAA": {Ticker: "AAA", Price: 10},
		"BBB": {Ticker: "BBB", Price: 20, Event: &model.MarketEvent{Type: model.EventPump, PriceImpact: 0.2}},
		"CCC": {Ticker: "CCC", Price: 30},
	}
	rng := market.NewTickRand("pick-test", now.Unix())

	aggr := testBot(model.StrategyNewsTrader, model.PersonalityAggressive)
	snap, ok := e.pickTarget(aggr, snapshots, rng)
	require.True(t, ok)
	assert.Equal(t, "BBB", snap.Ticker)

	// 非激进角色不追事件，但必须命中某个候选
	cons := testBot(model.StrategyMeanRev, model.PersonalityConservative)
	snap, ok = e.pickTarget(cons, snapshots, rng)
	require.True(t, ok)
	assert.Contains(t, []string{"AAA", "BBB", "CCC"}, snap.Ticker)

	_, ok = e.pickTarget(aggr, map[string]Snapshot{}, rng)
	assert.False(t, ok)
}

func TestBoostConfidence(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	e := newTestEngine(store, DefaultConfig(), &now)

	bot := testBot(model.StrategySentiment, model.PersonalityModerate)
	bot.SectorFocus = "tech"
	ev := &model.MarketEvent{Type: model.EventPump, PriceImpact: 0.2}

	// 板块契合 +0.10，事件 +0.15
	got := e.boostConfidence(0.5, bot, Snapshot{Sector: "tech", Event: ev})
	assert.InDelta(t, 0.75, got, 1e-9)

	// 板块不契合只吃事件加成
	got = e.boostConfidence(0.5, bot, Snapshot{Sector: "energy", Event: ev})
	assert.InDelta(t, 0.65, got, 1e-9)

	// 封顶
	got = e.boostConfidence(0.9, bot, Snapshot{Sector: "tech", Event: ev})
	assert.InDelta(t, 0.95, got, 1e-9)
}

func TestCollectSnapshotsRollsHistory(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.HistoryLen = 3
	e := newTestEngine(store, cfg, &now)

	inst := systemStock("QNTM", 10.00)
	require.NoError(t, store.SaveInstrument(inst))

	for i, price := range []float64{10, 11, 12, 13} {
		inst.CurrentPrice = price
		require.NoError(t, store.SaveInstrument(inst))
		snaps, err := e.collectSnapshots(now.Add(time.Duration(i) * time.Minute))
		require.NoError(t, err)
		require.Contains(t, snaps, "QNTM")
	}

	// 超出窗口的最早观测被丢弃
	assert.Equal(t, []float64{11, 12, 13}, e.history["QNTM"])
}

func TestRebalanceTakesProfitAndCutsLoss(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	cfg := DefaultConfig()
	cfg.RebalanceFrac = 1.0 // 全量处理，测试不依赖掷骰
	e := newTestEngine(store, cfg, &now)

	bot := testBot(model.StrategyWhale, model.PersonalityModerate)
	require.NoError(t, store.SaveBot(bot))

	// WIN 浮盈 +30% 应止盈，LOSS 浮亏 -30% 应止损，FLAT 留着
	for _, s := range []struct {
		ticker string
		avg    float64
		price  float64
	}{
		{"WINN", 10.00, 13.00},
		{"LOSS", 10.00, 7.00},
		{"FLAT", 10.00, 10.50},
	} {
		require.NoError(t, store.SaveInstrument(systemStock(s.ticker, s.price)))
		require.NoError(t, store.SaveHolding(&model.Holding{
			UserID: bot.ID, Ticker: s.ticker, Shares: 100,
			AvgBuyPrice:   decimal.NewFromFloat(s.avg),
			TotalInvested: decimal.NewFromFloat(s.avg * 100),
			OpenedAt:      now.Add(-24 * time.Hour),
		}))
	}

	snaps, err := e.collectSnapshots(now)
	require.NoError(t, err)
	rng := market.NewTickRand("rebalance-test", now.Unix())
	require.NoError(t, e.rebalanceBot(bot.ID, snaps, rng, now))

	h, err := store.GetHolding(bot.ID, "WINN")
	require.NoError(t, err)
	assert.Nil(t, h, "浮盈持仓应已清空")
	h, err = store.GetHolding(bot.ID, "LOSS")
	require.NoError(t, err)
	assert.Nil(t, h, "浮亏持仓应已清空")
	h, err = store.GetHolding(bot.ID, "FLAT")
	require.NoError(t, err)
	require.NotNil(t, h, "带内持仓不应被动")
	assert.Equal(t, int64(100), h.Shares)

	// 卖出回款进入机器人现金
	fresh, err := store.GetBot(bot.ID)
	require.NoError(t, err)
	expected := decimal.NewFromInt(100_000).
		Add(decimal.NewFromFloat(13.00).Mul(decimal.NewFromInt(100))).
		Add(decimal.NewFromFloat(7.00).Mul(decimal.NewFromInt(100)))
	assert.Equal(t, expected.StringFixed(2), fresh.Cash.StringFixed(2))
}

func TestRunCycleSkipsNotDueBots(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	e := newTestEngine(store, DefaultConfig(), &now)

	require.NoError(t, store.SaveInstrument(systemStock("QNTM", 10.00)))
	bot := testBot(model.StrategySentiment, model.PersonalityModerate)
	bot.TradeIntervalSec = 3600
	bot.LastTradeAt = now.Add(-time.Minute) // 未到节奏
	require.NoError(t, store.SaveBot(bot))

	require.NoError(t, e.RunCycle())

	orders, err := store.ListOrdersByUser(bot.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSeedPopulationIdempotent(t *testing.T) {
	store := market.NewMemStore()

	require.NoError(t, SeedPopulation(store))
	n, err := store.CountBots()
	require.NoError(t, err)
	assert.Equal(t, int64(len(DefaultPopulation())), n)

	// 二次播种不重复
	require.NoError(t, SeedPopulation(store))
	n, err = store.CountBots()
	require.NoError(t, err)
	assert.Equal(t, int64(len(DefaultPopulation())), n)
}
