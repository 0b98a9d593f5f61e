// pkg/bots/strategy.go
package bots

import (
	movingaverage "github.com/RobinUS2/golang-moving-average"
	"github.com/shopspring/decimal"

	"TycoonExchange/pkg/model"
)

// Snapshot 候选标的的行情快照，策略函数的唯一市场输入
type Snapshot struct {
	Ticker        string
	Price         float64
	BasePrice     float64
	ChangePercent float64
	Volume24h     int64
	Trend         model.Trend
	TrendStrength int
	High24h       float64
	Low24h        float64
	IsCompany     bool
	Sector        string
	RecentPrices  []float64          // 最近若干轮观测价，先进先出
	Event         *model.MarketEvent // 作用于该标的的活跃事件，可为 nil
}

// Action 决策动作
type Action string

const (
	ActionHold Action = "hold"
	ActionBuy  Action = "buy"
	ActionSell Action = "sell"
)

// Decision 策略输出。Confidence 即执行概率（0-1），
// 引擎在此之上叠加板块契合与事件加成后掷骰执行。
type Decision struct {
	Action     Action
	Shares     int64
	Confidence float64
	Reason     string
}

var hold = Decision{Action: ActionHold}

// StrategyFunc 纯策略函数：(行情快照, 当前持仓, 现金, 角色参数) -> 决策。
// 无副作用，便于用固定输入单测。
type StrategyFunc func(snap Snapshot, holding *model.Holding, cash decimal.Decimal, bot *model.TradingBot) Decision

// strategyTable 策略标签到决策函数的映射
var strategyTable = map[model.BotStrategy]StrategyFunc{
	model.StrategyMarketMaker: marketMakerStrategy,
	model.StrategyWhale:       whaleStrategy,
	model.StrategyNewsTrader:  newsTraderStrategy,
	model.StrategySentiment:   sentimentStrategy,
	model.StrategyMomentum:    momentumStrategy,
	model.StrategyMeanRev:     meanRevStrategy,
	model.StrategyContrarian:  contrarianStrategy,
	model.StrategyTrend:       trendStrategy,
	model.StrategyVolatility:  volatilityStrategy,
}

// StrategyFor 按标签取策略函数，未知标签返回 nil
func StrategyFor(tag model.BotStrategy) StrategyFunc {
	return strategyTable[tag]
}

// positionSize 按现金、风险偏好与仓位乘数折算股数
func positionSize(snap Snapshot, cash decimal.Decimal, bot *model.TradingBot, fraction float64) int64 {
	if snap.Price <= 0 {
		return 0
	}
	available, _ := cash.Float64()
	budget := available * fraction * bot.RiskTolerance * bot.PositionMultiplier
	shares := int64(budget / snap.Price)
	if shares < 1 && available >= snap.Price {
		shares = 1
	}
	return shares
}

// sellSize 卖出股数：持仓的一个比例，至少1股
func sellSize(holding *model.Holding, fraction float64) int64 {
	if holding == nil || holding.Shares == 0 {
		return 0
	}
	shares := int64(float64(holding.Shares) * fraction)
	if shares < 1 {
		shares = 1
	}
	return shares
}

// marketMakerStrategy 做市：价格对锚点的极端偏离反向交易以平抑波动
func marketMakerStrategy(snap Snapshot, holding *model.Holding, cash decimal.Decimal, bot *model.TradingBot) Decision {
	anchor := snap.BasePrice
	if anchor <= 0 {
		return hold
	}
	deviation := (snap.Price - anchor) / anchor
	switch {
	case deviation < -0.15:
		shares := positionSize(snap, cash, bot, 0.10)
		if shares == 0 {
			return hold
		}
		return Decision{ActionBuy, shares, 0.7 + minf(-deviation, 0.25), "价格深度低于锚点，做市承接"}
	case deviation > 0.15 && holding != nil:
		return Decision{ActionSell, sellSize(holding, 0.5), 0.7 + minf(deviation, 0.25), "价格远高于锚点，做市抛压"}
	}
	return hold
}

// whaleStrategy 巨鲸：极少出手，出手即重仓
func whaleStrategy(snap Snapshot, holding *model.Holding, cash decimal.Decimal, bot *model.TradingBot) Decision {
	if snap.ChangePercent < -5 {
		shares := positionSize(snap, cash, bot, 0.50)
		if shares == 0 {
			return hold
		}
		return Decision{ActionBuy, shares, 0.6, "深跌重仓吸筹"}
	}
	if snap.ChangePercent > 8 && holding != nil {
		return Decision{ActionSell, sellSize(holding, 0.8), 0.6, "大涨巨量兑现"}
	}
	return hold
}

// newsTraderStrategy 新闻反应：激进角色顺事件情绪，保守角色逆向
func newsTraderStrategy(snap Snapshot, holding *model.Holding, cash decimal.Decimal, bot *model.TradingBot) Decision {
	if snap.Event == nil {
		return hold
	}
	positive := snap.Event.PriceImpact > 0
	follow := bot.Personality == model.PersonalityAggressive
	wantBuy := positive == follow
	if wantBuy {
		shares := positionSize(snap, cash, bot, 0.20)
		if shares == 0 {
			return hold
		}
		return Decision{ActionBuy, shares, 0.65, "事件驱动买入"}
	}
	if holding != nil {
		return Decision{ActionSell, sellSize(holding, 0.6), 0.65, "事件驱动卖出"}
	}
	return hold
}

// sentimentStrategy 情绪跟随：追随当日涨跌面
func sentimentStrategy(snap Snapshot, holding *model.Holding, cash decimal.Decimal, bot *model.TradingBot) Decision {
	switch {
	case snap.ChangePercent > 2:
		shares := positionSize(snap, cash, bot, 0.12)
		if shares == 0 {
			return hold
		}
		return Decision{ActionBuy, shares, 0.45 + minf(snap.ChangePercent/100, 0.2), "跟随市场情绪买入"}
	case snap.ChangePercent < -2 && holding != nil:
		return Decision{ActionSell, sellSize(holding, 0.4), 0.45 + minf(-snap.ChangePercent/100, 0.2), "跟随市场情绪卖出"}
	}
	return hold
}

// momentumStrategy 动量：价格穿越近期均线即追
func momentumStrategy(snap Snapshot, holding *model.Holding, cash decimal.Decimal, bot *model.TradingBot) Decision {
	if len(snap.RecentPrices) < 5 {
		return hold
	}
	ma := movingaverage.New(len(snap.RecentPrices))
	for _, p := range snap.RecentPrices {
		ma.Add(p)
	}
	avg := ma.Avg()
	if avg <= 0 {
		return hold
	}
	momentum := (snap.Price - avg) / avg
	switch {
	case momentum > 0.03:
		shares := positionSize(snap, cash, bot, 0.15)
		if shares == 0 {
			return hold
		}
		return Decision{ActionBuy, shares, 0.5 + minf(momentum*5, 0.3), "上穿均线追涨"}
	case momentum < -0.03 && holding != nil:
		return Decision{ActionSell, sellSize(holding, 0.5), 0.5 + minf(-momentum*5, 0.3), "下穿均线离场"}
	}
	return hold
}

// meanRevStrategy 均值回归：买超跌卖超涨
func meanRevStrategy(snap Snapshot, holding *model.Holding, cash decimal.Decimal, bot *model.TradingBot) Decision {
	anchor := snap.BasePrice
	if anchor <= 0 {
		return hold
	}
	deviation := (snap.Price - anchor) / anchor
	switch {
	case deviation < -0.10:
		shares := positionSize(snap, cash, bot, 0.15)
		if shares == 0 {
			return hold
		}
		return Decision{ActionBuy, shares, 0.55, "超跌回归买入"}
	case deviation > 0.10 && holding != nil:
		return Decision{ActionSell, sellSize(holding, 0.5), 0.55, "超涨回归卖出"}
	}
	return hold
}

// contrarianStrategy 逆向：与当日涨跌反着来
func contrarianStrategy(snap Snapshot, holding *model.Holding, cash decimal.Decimal, bot *model.TradingBot) Decision {
	switch {
	case snap.ChangePercent < -3:
		shares := positionSize(snap, cash, bot, 0.12)
		if shares == 0 {
			return hold
		}
		return Decision{ActionBuy, shares, 0.5, "逆势接刀"}
	case snap.ChangePercent > 3 && holding != nil:
		return Decision{ActionSell, sellSize(holding, 0.4), 0.5, "逆势兑现"}
	}
	return hold
}

// trendStrategy 趋势：跟随标的的趋势状态与强度
func trendStrategy(snap Snapshot, holding *model.Holding, cash decimal.Decimal, bot *model.TradingBot) Decision {
	switch snap.Trend {
	case model.TrendBullish:
		shares := positionSize(snap, cash, bot, 0.10+0.03*float64(snap.TrendStrength))
		if shares == 0 {
			return hold
		}
		return Decision{ActionBuy, shares, 0.4 + 0.1*float64(snap.TrendStrength), "顺势做多"}
	case model.TrendBearish:
		if holding == nil {
			return hold
		}
		return Decision{ActionSell, sellSize(holding, 0.3 + 0.1*float64(snap.TrendStrength)), 0.4 + 0.1*float64(snap.TrendStrength), "顺势减仓"}
	}
	return hold
}

// volatilityStrategy 波动：区间足够宽时低吸高抛
func volatilityStrategy(snap Snapshot, holding *model.Holding, cash decimal.Decimal, bot *model.TradingBot) Decision {
	if snap.High24h <= 0 || snap.Low24h <= 0 || snap.Price <= 0 {
		return hold
	}
	rangePct := (snap.High24h - snap.Low24h) / snap.Price
	if rangePct < 0.08 {
		return hold
	}
	mid := (snap.High24h + snap.Low24h) / 2
	switch {
	case snap.Price < mid*0.97:
		shares := positionSize(snap, cash, bot, 0.15)
		if shares == 0 {
			return hold
		}
		return Decision{ActionBuy, shares, 0.5 + minf(rangePct, 0.3), "区间下沿低吸"}
	case snap.Price > mid*1.03 && holding != nil:
		return Decision{ActionSell, sellSize(holding, 0.5), 0.5 + minf(rangePct, 0.3), "区间上沿高抛"}
	}
	return hold
}

func minf(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
