// pkg/market/breaker.go
package market

import (
	"fmt"
	"sync"
	"time"

	"TycoonExchange/pkg/model"
)

// MarketWideKey 全市场熔断在 HaltStore 中的键
const MarketWideKey = "*"

// HaltStore 熔断状态的键值存储，键为ticker、值为恢复时间。
// 默认实现为进程内map；多实例部署可替换为共享缓存实现，调用方无需改动。
type HaltStore interface {
	Set(ticker string, resumesAt time.Time)
	Get(ticker string, now time.Time) (time.Time, bool)
	Active(now time.Time) map[string]time.Time
}

// memHaltStore 进程内熔断存储，查询时懒惰清理过期项
type memHaltStore struct {
	mu    sync.RWMutex
	halts map[string]time.Time
}

// NewMemHaltStore 创建进程内熔断存储
func NewMemHaltStore() HaltStore {
	return &memHaltStore{halts: make(map[string]time.Time)}
}

func (s *memHaltStore) Set(ticker string, resumesAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.halts[ticker] = resumesAt
}

func (s *memHaltStore) Get(ticker string, now time.Time) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.halts[ticker]
	if !ok {
		return time.Time{}, false
	}
	if !now.Before(until) {
		delete(s.halts, ticker)
		return time.Time{}, false
	}
	return until, true
}

func (s *memHaltStore) Active(now time.Time) map[string]time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]time.Time)
	for ticker, until := range s.halts {
		if now.Before(until) {
			out[ticker] = until
		} else {
			delete(s.halts, ticker)
		}
	}
	return out
}

// breakerTier 单标的熔断档位：timeframe 内涨跌超过 movePercent 即停牌 haltFor
type breakerTier struct {
	timeframe   time.Duration // 0 表示不限时段
	movePercent float64
	haltFor     time.Duration
}

// BreakerConfig 熔断参数
type BreakerConfig struct {
	// 单标的档位：30分钟10%停5分钟、60分钟15%停15分钟、任意25%停60分钟
	Tiers []breakerTier
	// 全市场指数下跌档位：10/20/30% 对应 15分钟/1小时/24小时
	MarketDropTiers []breakerTier
	HistoryWindow   time.Duration // 价格参考点保留时长
}

// DefaultBreakerConfig 参考部署的熔断参数
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Tiers: []breakerTier{
			{timeframe: 30 * time.Minute, movePercent: 0.10, haltFor: 5 * time.Minute},
			{timeframe: 60 * time.Minute, movePercent: 0.15, haltFor: 15 * time.Minute},
			{timeframe: 0, movePercent: 0.25, haltFor: 60 * time.Minute},
		},
		MarketDropTiers: []breakerTier{
			{movePercent: 0.30, haltFor: 24 * time.Hour}, // 全天休市
			{movePercent: 0.20, haltFor: time.Hour},
			{movePercent: 0.10, haltFor: 15 * time.Minute},
		},
		HistoryWindow: 61 * time.Minute,
	}
}

type pricePoint struct {
	at    time.Time
	price float64
}

// Breaker 熔断控制器。价格参考点保存在进程内（部署限制见 DESIGN.md），
// 停牌状态走 HaltStore 接口。
type Breaker struct {
	cfg   BreakerConfig
	halts HaltStore

	mu      sync.Mutex
	history map[string][]pricePoint
}

// NewBreaker 创建熔断控制器
func NewBreaker(cfg BreakerConfig, halts HaltStore) *Breaker {
	return &Breaker{
		cfg:     cfg,
		halts:   halts,
		history: make(map[string][]pricePoint),
	}
}

// HaltedUntil 查询标的当前是否停牌（含全市场停牌），返回恢复时间
func (b *Breaker) HaltedUntil(ticker string, now time.Time) (time.Time, bool) {
	if until, ok := b.halts.Get(MarketWideKey, now); ok {
		return until, true
	}
	return b.halts.Get(ticker, now)
}

// Observe 记录一次价格观测并评估单标的熔断档位。
// 触发档位时写入停牌并返回一条 circuit_breaker 事件供落库与发布；未触发返回 nil。
// previousClose 作为"任意时段"档位的参考价。
func (b *Breaker) Observe(inst *model.Instrument, now time.Time) *model.MarketEvent {
	b.mu.Lock()
	points := b.record(inst.Ticker, inst.CurrentPrice, now)
	b.mu.Unlock()

	if _, halted := b.halts.Get(inst.Ticker, now); halted {
		return nil
	}

	for _, tier := range b.cfg.Tiers {
		ref, ok := b.referencePrice(points, inst, tier, now)
		if !ok || ref <= 0 {
			continue
		}
		move := inst.CurrentPrice/ref - 1
		if move < 0 {
			move = -move
		}
		if move >= tier.movePercent {
			resumesAt := now.Add(tier.haltFor)
			b.halts.Set(inst.Ticker, resumesAt)
			return &model.MarketEvent{
				Type:      model.EventCircuitBreaker,
				Severity:  haltSeverity(tier.haltFor),
				Ticker:    inst.Ticker,
				Title:     fmt.Sprintf("%s 触发熔断", inst.Ticker),
				Message:   fmt.Sprintf("%s 价格波动 %.1f%%，停牌至 %s", inst.Ticker, move*100, resumesAt.Format(time.RFC3339)),
				Active:    true,
				CreatedAt: now,
				ExpiresAt: resumesAt,
			}
		}
	}
	return nil
}

// ObserveIndex 评估综合指数的全市场熔断。只对下跌生效。
// dropPercent 为指数相对前收盘的跌幅（正数，0.12 表示跌12%）。
func (b *Breaker) ObserveIndex(dropPercent float64, now time.Time) *model.MarketEvent {
	if dropPercent <= 0 {
		return nil
	}
	if _, halted := b.halts.Get(MarketWideKey, now); halted {
		return nil
	}
	for _, tier := range b.cfg.MarketDropTiers {
		if dropPercent >= tier.movePercent {
			resumesAt := now.Add(tier.haltFor)
			b.halts.Set(MarketWideKey, resumesAt)
			return &model.MarketEvent{
				Type:      model.EventHalt,
				Severity:  model.EventSeverityCritical,
				Ticker:    "",
				Title:     "全市场熔断",
				Message:   fmt.Sprintf("综合指数下跌 %.1f%%，全市场停牌至 %s", dropPercent*100, resumesAt.Format(time.RFC3339)),
				Active:    true,
				CreatedAt: now,
				ExpiresAt: resumesAt,
			}
		}
	}
	return nil
}

// Status 当前停牌状态汇总
func (b *Breaker) Status(now time.Time) map[string]time.Time {
	return b.halts.Active(now)
}

// record 追加观测点并裁剪历史窗口，返回该标的的观测序列
func (b *Breaker) record(ticker string, price float64, now time.Time) []pricePoint {
	points := append(b.history[ticker], pricePoint{at: now, price: price})
	cutoff := now.Add(-b.cfg.HistoryWindow)
	for len(points) > 0 && points[0].at.Before(cutoff) {
		points = points[1:]
	}
	b.history[ticker] = points
	return points
}

// referencePrice 取档位时间窗内最早的观测价；不限时段档位用前收盘价
func (b *Breaker) referencePrice(points []pricePoint, inst *model.Instrument, tier breakerTier, now time.Time) (float64, bool) {
	if tier.timeframe == 0 {
		if inst.PreviousClose > 0 {
			return inst.PreviousClose, true
		}
		return 0, false
	}
	windowStart := now.Add(-tier.timeframe)
	for _, p := range points {
		if !p.at.Before(windowStart) {
			// 窗口内最早的点即参考价；若只有当前点则无从比较
			if p.at.Equal(now) {
				return 0, false
			}
			return p.price, true
		}
	}
	return 0, false
}

func haltSeverity(d time.Duration) model.EventSeverity {
	switch {
	case d >= time.Hour:
		return model.EventSeverityCritical
	case d >= 15*time.Minute:
		return model.EventSeverityHigh
	default:
		return model.EventSeverityMedium
	}
}
