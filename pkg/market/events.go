// pkg/market/events.go
package market

import (
	"fmt"
	"time"

	"TycoonExchange/pkg/model"
)

// EventConfig 市场事件生成参数
type EventConfig struct {
	SpawnChance float64 // 每轮生成事件的概率
	NudgeRatio  float64 // 事件创建时立即施加的冲击占总偏置的比例
}

// DefaultEventConfig 参考部署的事件参数
func DefaultEventConfig() EventConfig {
	return EventConfig{
		SpawnChance: 0.05,
		NudgeRatio:  0.20,
	}
}

// eventSpec 某类事件的幅度与时长区间
type eventSpec struct {
	typ         model.EventType
	minImpact   float64
	maxImpact   float64
	minDuration time.Duration
	maxDuration time.Duration
	title       string
}

var eventSpecs = []eventSpec{
	{model.EventPump, 0.15, 0.50, time.Minute, 4 * time.Minute, "资金异动拉升"},
	{model.EventDump, -0.50, -0.15, 45 * time.Second, 150 * time.Second, "大额抛售砸盘"},
	{model.EventNewsPositive, 0.05, 0.20, 2 * time.Minute, 7 * time.Minute, "利好消息"},
	{model.EventNewsNegative, -0.20, -0.05, 2 * time.Minute, 7 * time.Minute, "利空消息"},
}

// EventGenerator 市场事件生成器。每轮小概率注入 pump/dump/利好/利空，
// 事件创建时立即通过一次模拟成交施加冲击，其余偏置交给tick引擎按剩余时长摊销。
type EventGenerator struct {
	cfg EventConfig
}

// NewEventGenerator 创建事件生成器
func NewEventGenerator(cfg EventConfig) *EventGenerator {
	return &EventGenerator{cfg: cfg}
}

// MaybeSpawn 以配置概率为一个没有活跃事件的标的生成事件。
// 随机性按本轮时间戳派生，便于重放。未生成时返回 (nil, nil)。
func (g *EventGenerator) MaybeSpawn(tx Tx, instruments []*model.Instrument, now time.Time) (*model.MarketEvent, error) {
	if len(instruments) == 0 {
		return nil, nil
	}
	rng := NewTickRand("market-events", now.Unix())
	if rng.Float64() >= g.cfg.SpawnChance {
		return nil, nil
	}

	target := instruments[rng.IntN(len(instruments))]
	existing, err := tx.ActiveEventForTicker(target.Ticker, now)
	if err != nil {
		return nil, Internal(err)
	}
	if existing != nil {
		return nil, nil
	}

	spec := eventSpecs[rng.IntN(len(eventSpecs))]
	impact := rng.Range(spec.minImpact, spec.maxImpact)
	duration := time.Duration(rng.Range(float64(spec.minDuration), float64(spec.maxDuration)))

	ev := &model.MarketEvent{
		Type:        spec.typ,
		Severity:    impactSeverity(impact),
		Ticker:      target.Ticker,
		Title:       fmt.Sprintf("%s：%s", target.Ticker, spec.title),
		Message:     fmt.Sprintf("%s 受%s影响，预计 %s 内价格偏移 %.1f%%", target.Name, spec.title, duration.Round(time.Second), impact*100),
		PriceImpact: impact,
		Active:      true,
		CreatedAt:   now,
		ExpiresAt:   now.Add(duration),
	}
	if err := tx.CreateEvent(ev); err != nil {
		return nil, Internal(err)
	}

	// 立即冲击：模拟一笔成交，让影响无需等下一个tick就可见
	g.applyNudge(target, impact, rng)
	if err := tx.SaveInstrument(target); err != nil {
		return nil, Internal(err)
	}
	return ev, nil
}

// applyNudge 事件创建时的即时价格冲击与成交量脉冲
func (g *EventGenerator) applyNudge(inst *model.Instrument, impact float64, rng *LCG) {
	price := inst.CurrentPrice * (1 + impact*g.cfg.NudgeRatio)
	if price < 0.01 {
		price = 0.01
	}
	inst.CurrentPrice = price
	inst.UpdateRange(price)
	inst.Volume24h += int64(rng.IntN(5000) + 1000)
}

// Sweep 停用已过期的事件（懒惰判定之外的兜底清扫）
func (g *EventGenerator) Sweep(tx Tx, now time.Time) (int64, error) {
	n, err := tx.DeactivateExpiredEvents(now)
	if err != nil {
		return 0, Internal(err)
	}
	return n, nil
}

func impactSeverity(impact float64) model.EventSeverity {
	abs := impact
	if abs < 0 {
		abs = -abs
	}
	switch {
	case abs >= 0.35:
		return model.EventSeverityCritical
	case abs >= 0.20:
		return model.EventSeverityHigh
	case abs >= 0.10:
		return model.EventSeverityMedium
	default:
		return model.EventSeverityLow
	}
}
