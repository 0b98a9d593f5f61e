// pkg/bots/strategy_test.go
package bots

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TycoonExchange/pkg/model"
)

func testBot(strategy model.BotStrategy, personality model.BotPersonality) *model.TradingBot {
	return &model.TradingBot{
		ID:                 "bot1",
		Name:               "测试机器人",
		Strategy:           strategy,
		Personality:        personality,
		Cash:               decimal.NewFromInt(100_000),
		InitialCash:        decimal.NewFromInt(100_000),
		RiskTolerance:      0.5,
		TradeIntervalSec:   60,
		PositionMultiplier: 1.0,
	}
}

func testHolding(shares int64, avg float64) *model.Holding {
	return &model.Holding{
		UserID:        "bot1",
		Ticker:        "QNTM",
		Shares:        shares,
		AvgBuyPrice:   decimal.NewFromFloat(avg),
		TotalInvested: decimal.NewFromFloat(avg * float64(shares)),
	}
}

func TestPositionSize(t *testing.T) {
	bot := testBot(model.StrategySentiment, model.PersonalityModerate)
	snap := Snapshot{Price: 10.00}

	// 100000 * 0.12 * 0.5 * 1.0 / 10 = 600股
	assert.Equal(t, int64(600), positionSize(snap, decimal.NewFromInt(100_000), bot, 0.12))

	// 预算不足1股但现金够1股时买1股
	assert.Equal(t, int64(1), positionSize(snap, decimal.NewFromInt(15), bot, 0.12))

	// 现金连1股都不够
	assert.Equal(t, int64(0), positionSize(snap, decimal.NewFromInt(5), bot, 0.12))

	// 非法价格
	assert.Equal(t, int64(0), positionSize(Snapshot{Price: 0}, decimal.NewFromInt(100_000), bot, 0.12))
}

func TestSellSize(t *testing.T) {
	assert.Equal(t, int64(0), sellSize(nil, 0.5))
	assert.Equal(t, int64(50), sellSize(testHolding(100, 10), 0.5))
	// 比例折算不足1股时至少卖1股
	assert.Equal(t, int64(1), sellSize(testHolding(2, 10), 0.3))
}

func TestMarketMakerStrategy(t *testing.T) {
	bot := testBot(model.StrategyMarketMaker, model.PersonalityConservative)
	cash := decimal.NewFromInt(100_000)

	// 深度低于锚点：承接买入
	d := marketMakerStrategy(Snapshot{Price: 8.00, BasePrice: 10.00}, nil, cash, bot)
	assert.Equal(t, ActionBuy, d.Action)
	assert.Greater(t, d.Shares, int64(0))

	// 远高于锚点且有持仓：抛压卖出
	d = marketMakerStrategy(Snapshot{Price: 12.00, BasePrice: 10.00}, testHolding(100, 10), cash, bot)
	assert.Equal(t, ActionSell, d.Action)
	assert.Equal(t, int64(50), d.Shares)

	// 高于锚点但没有持仓：无货可抛
	d = marketMakerStrategy(Snapshot{Price: 12.00, BasePrice: 10.00}, nil, cash, bot)
	assert.Equal(t, ActionHold, d.Action)

	// 偏离在带内：不动
	d = marketMakerStrategy(Snapshot{Price: 10.50, BasePrice: 10.00}, testHolding(100, 10), cash, bot)
	assert.Equal(t, ActionHold, d.Action)

	// 锚点缺失
	d = marketMakerStrategy(Snapshot{Price: 10.00, BasePrice: 0}, nil, cash, bot)
	assert.Equal(t, ActionHold, d.Action)
}

func TestWhaleStrategy(t *testing.T) {
	bot := testBot(model.StrategyWhale, model.PersonalityModerate)
	cash := decimal.NewFromInt(100_000)

	d := whaleStrategy(Snapshot{Price: 10.00, ChangePercent: -6}, nil, cash, bot)
	assert.Equal(t, ActionBuy, d.Action)

	d = whaleStrategy(Snapshot{Price: 10.00, ChangePercent: 9}, testHolding(100, 8), cash, bot)
	assert.Equal(t, ActionSell, d.Action)
	assert.Equal(t, int64(80), d.Shares)

	d = whaleStrategy(Snapshot{Price: 10.00, ChangePercent: 1}, testHolding(100, 8), cash, bot)
	assert.Equal(t, ActionHold, d.Action)
}

func TestNewsTraderStrategy(t *testing.T) {
	cash := decimal.NewFromInt(100_000)
	positive := &model.MarketEvent{Type: model.EventNewsPositive, PriceImpact: 0.1}
	negative := &model.MarketEvent{Type: model.EventNewsNegative, PriceImpact: -0.1}
	snap := func(ev *model.MarketEvent) Snapshot {
		return Snapshot{Price: 10.00, Event: ev}
	}

	// 无事件即不动
	d := newsTraderStrategy(snap(nil), nil, cash, testBot(model.StrategyNewsTrader, model.PersonalityAggressive))
	assert.Equal(t, ActionHold, d.Action)

	// 激进角色顺情绪：利好买入，利空卖出
	aggr := testBot(model.StrategyNewsTrader, model.PersonalityAggressive)
	d = newsTraderStrategy(snap(positive), nil, cash, aggr)
	assert.Equal(t, ActionBuy, d.Action)
	d = newsTraderStrategy(snap(negative), testHolding(100, 10), cash, aggr)
	assert.Equal(t, ActionSell, d.Action)

	// 保守角色逆向：利空反而买
	cons := testBot(model.StrategyNewsTrader, model.PersonalityConservative)
	d = newsTraderStrategy(snap(negative), nil, cash, cons)
	assert.Equal(t, ActionBuy, d.Action)
	d = newsTraderStrategy(snap(positive), testHolding(100, 10), cash, cons)
	assert.Equal(t, ActionSell, d.Action)
}

func TestMomentumStrategy(t *testing.T) {
	bot := testBot(model.StrategyMomentum, model.PersonalityAggressive)
	cash := decimal.NewFromInt(100_000)

	// 历史不足不动
	d := momentumStrategy(Snapshot{Price: 11.00, RecentPrices: []float64{10, 10, 10}}, nil, cash, bot)
	assert.Equal(t, ActionHold, d.Action)

	// 均线10，现价11：上穿追涨
	up := []float64{10, 10, 10, 10, 10}
	d = momentumStrategy(Snapshot{Price: 11.00, RecentPrices: up}, nil, cash, bot)
	assert.Equal(t, ActionBuy, d.Action)

	// 现价9：下穿离场
	d = momentumStrategy(Snapshot{Price: 9.00, RecentPrices: up}, testHolding(100, 10), cash, bot)
	assert.Equal(t, ActionSell, d.Action)

	// 动量在带内
	d = momentumStrategy(Snapshot{Price: 10.10, RecentPrices: up}, testHolding(100, 10), cash, bot)
	assert.Equal(t, ActionHold, d.Action)
}

func TestMeanRevStrategy(t *testing.T) {
	bot := testBot(model.StrategyMeanRev, model.PersonalityConservative)
	cash := decimal.NewFromInt(100_000)

	d := meanRevStrategy(Snapshot{Price: 8.50, BasePrice: 10.00}, nil, cash, bot)
	assert.Equal(t, ActionBuy, d.Action)

	d = meanRevStrategy(Snapshot{Price: 11.50, BasePrice: 10.00}, testHolding(100, 10), cash, bot)
	assert.Equal(t, ActionSell, d.Action)

	d = meanRevStrategy(Snapshot{Price: 10.50, BasePrice: 10.00}, testHolding(100, 10), cash, bot)
	assert.Equal(t, ActionHold, d.Action)
}

func TestTrendStrategy(t *testing.T) {
	bot := testBot(model.StrategyTrend, model.PersonalityModerate)
	cash := decimal.NewFromInt(100_000)

	d := trendStrategy(Snapshot{Price: 10.00, Trend: model.TrendBullish, TrendStrength: 3}, nil, cash, bot)
	assert.Equal(t, ActionBuy, d.Action)
	assert.InDelta(t, 0.7, d.Confidence, 1e-9)

	d = trendStrategy(Snapshot{Price: 10.00, Trend: model.TrendBearish, TrendStrength: 2}, testHolding(100, 10), cash, bot)
	assert.Equal(t, ActionSell, d.Action)
	assert.Equal(t, int64(50), d.Shares)

	// 看跌但空仓
	d = trendStrategy(Snapshot{Price: 10.00, Trend: model.TrendBearish, TrendStrength: 2}, nil, cash, bot)
	assert.Equal(t, ActionHold, d.Action)

	d = trendStrategy(Snapshot{Price: 10.00, Trend: model.TrendNeutral}, testHolding(100, 10), cash, bot)
	assert.Equal(t, ActionHold, d.Action)
}

func TestVolatilityStrategy(t *testing.T) {
	bot := testBot(model.StrategyVolatility, model.PersonalityAggressive)
	cash := decimal.NewFromInt(100_000)

	// 区间宽度不足8%不动
	d := volatilityStrategy(Snapshot{Price: 10.00, High24h: 10.30, Low24h: 9.90}, nil, cash, bot)
	assert.Equal(t, ActionHold, d.Action)

	// 宽区间，贴近下沿：低吸
	d = volatilityStrategy(Snapshot{Price: 9.20, High24h: 11.00, Low24h: 9.00}, nil, cash, bot)
	assert.Equal(t, ActionBuy, d.Action)

	// 贴近上沿：高抛
	d = volatilityStrategy(Snapshot{Price: 10.80, High24h: 11.00, Low24h: 9.00}, testHolding(100, 9), cash, bot)
	assert.Equal(t, ActionSell, d.Action)
}

func TestStrategyTableCoversAllTags(t *testing.T) {
	tags := []model.BotStrategy{
		model.StrategyMarketMaker, model.StrategyWhale, model.StrategyNewsTrader,
		model.StrategySentiment, model.StrategyMomentum, model.StrategyMeanRev,
		model.StrategyContrarian, model.StrategyTrend, model.StrategyVolatility,
	}
	for _, tag := range tags {
		require.NotNil(t, StrategyFor(tag), "策略 %s 缺少实现", tag)
	}
	assert.Nil(t, StrategyFor(model.BotStrategy("unknown")))
}
