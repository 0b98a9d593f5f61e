// pkg/market/tick.go
package market

import (
	"time"

	"TycoonExchange/pkg/model"
)

// TickConfig 价格演化参数
type TickConfig struct {
	MinInterval      time.Duration // tick间隔下限
	MaxInterval      time.Duration // tick间隔上限
	MaxCatchUp       int           // 单次补算tick数上限，限制长时间缺席后的追赶成本
	ReversionRate    float64       // 均值回归强度
	TrendReroll      float64       // 每tick重掷趋势的概率
	TrendBiasRate    float64       // 趋势强度每级对价格的偏置比例
	NetWorthDivisor  float64       // 公司股目标价 = 东家净资产 / 该除数
	DefaultVolatility float64      // 未设置波动率时的兜底值
	MinPrice         float64       // 价格下限
}

// DefaultTickConfig 参考部署的默认参数
func DefaultTickConfig() TickConfig {
	return TickConfig{
		MinInterval:       5 * time.Minute,
		MaxInterval:       15 * time.Minute,
		MaxCatchUp:        50,
		ReversionRate:     0.05,
		TrendReroll:       0.30,
		TrendBiasRate:     0.002,
		NetWorthDivisor:   10000,
		DefaultVolatility: 0.03,
		MinPrice:          0.01,
	}
}

// AverageInterval 平均tick间隔，补算步长以它为准
func (c TickConfig) AverageInterval() time.Duration {
	return (c.MinInterval + c.MaxInterval) / 2
}

// TickEngine 价格tick引擎。
// 每tick的随机性由 (ticker, 绝对tick时间) 重新派生，
// 同一时间区间反复补算得到完全相同的价格路径。
type TickEngine struct {
	cfg TickConfig
}

// NewTickEngine 创建tick引擎
func NewTickEngine(cfg TickConfig) *TickEngine {
	return &TickEngine{cfg: cfg}
}

// CatchUp 把标的价格懒惰推进到 now，返回实际补算的tick数。
// ownerNetWorth 仅公司股使用（回归目标 = 净资产/除数）；
// event 为当前作用于该标的的活跃事件，可为 nil。
// 对同一标的的并发补算必须在调用方按ticker串行化。
func (e *TickEngine) CatchUp(inst *model.Instrument, ownerNetWorth float64, event *model.MarketEvent, now time.Time) int {
	avg := e.cfg.AverageInterval()
	if inst.LastTickAt.IsZero() {
		inst.LastTickAt = now.Truncate(avg)
		return 0
	}

	ticks := int(now.Sub(inst.LastTickAt) / avg)
	if ticks <= 0 {
		return 0
	}
	if ticks > e.cfg.MaxCatchUp {
		// 超长缺席：丢弃上限之外的区间，从对齐的网格点重新追赶，
		// 保证重放同一区间时tick时间戳一致
		inst.LastTickAt = now.Add(-time.Duration(e.cfg.MaxCatchUp) * avg).Truncate(avg)
		ticks = e.cfg.MaxCatchUp
	}

	for i := 0; i < ticks; i++ {
		tickAt := inst.LastTickAt.Add(avg)
		e.applyTick(inst, tickAt, ownerNetWorth, event)
		inst.LastTickAt = tickAt
	}
	return ticks
}

// applyTick 执行单个tick：趋势重掷 + 均值回归 + 噪声 + 趋势偏置 + 事件偏置
func (e *TickEngine) applyTick(inst *model.Instrument, tickAt time.Time, ownerNetWorth float64, event *model.MarketEvent) {
	rng := NewTickRand(inst.Ticker, tickAt.Unix())

	if rng.Float64() < e.cfg.TrendReroll {
		e.rerollTrend(inst, rng)
	}

	price := inst.CurrentPrice
	anchor := inst.BasePrice
	if inst.IsCompany() {
		anchor = ownerNetWorth / e.cfg.NetWorthDivisor
	}
	if anchor <= 0 {
		anchor = price
	}

	vol := inst.Volatility
	if vol <= 0 {
		vol = e.cfg.DefaultVolatility
	}

	meanReversion := -((price - anchor) / anchor) * e.cfg.ReversionRate * price
	noise := (rng.Float64()*2 - 1) * vol * price
	trendBias := float64(inst.TrendStrength) * e.cfg.TrendBiasRate * price
	if inst.Trend == model.TrendBearish {
		trendBias = -trendBias
	} else if inst.Trend == model.TrendNeutral {
		trendBias = 0
	}

	var eventBias float64
	if event != nil && event.Active && tickAt.Before(event.ExpiresAt) && tickAt.After(event.CreatedAt) {
		remaining := event.RemainingTicks(tickAt, e.cfg.AverageInterval())
		eventBias = event.PriceImpact / float64(remaining) * price
	}

	price += meanReversion + noise + trendBias + eventBias
	if price < e.cfg.MinPrice {
		price = e.cfg.MinPrice
	}

	inst.CurrentPrice = price
	inst.UpdateRange(price)
}

// rerollTrend 低概率重掷趋势与强度
func (e *TickEngine) rerollTrend(inst *model.Instrument, rng *LCG) {
	switch rng.IntN(3) {
	case 0:
		inst.Trend = model.TrendBullish
	case 1:
		inst.Trend = model.TrendBearish
	default:
		inst.Trend = model.TrendNeutral
	}
	if inst.Trend == model.TrendNeutral {
		inst.TrendStrength = 0
	} else {
		inst.TrendStrength = 1 + rng.IntN(3)
	}
}
