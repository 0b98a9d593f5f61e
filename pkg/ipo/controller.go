// pkg/ipo/controller.go
package ipo

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/model"
)

// Config IPO迷你市场参数
type Config struct {
	MinNetWorth  float64       // 上市所需最低净资产
	PriceDivisor float64       // 发行价 = 净资产 / 该除数
	Duration     time.Duration // 上市窗口时长
	BasePoints   int64         // 乘数前的基础奖励
	TickInterval time.Duration // 迷你市场tick间隔
	FloorRatio   float64       // 价格下限相对发行价的比例
	CeilRatio    float64       // 价格上限相对发行价的比例
	TrendReroll  float64       // 每tick重掷趋势的概率
	Volatility   float64       // 每tick噪声幅度
	EventChance  float64       // 每tick独立事件跳变的概率
	MaxHistory   int           // 历史点保留上限
}

// DefaultConfig 参考部署的IPO参数
func DefaultConfig() Config {
	return Config{
		MinNetWorth:  100_000,
		PriceDivisor: 10_000,
		Duration:     8 * time.Hour,
		BasePoints:   1_000,
		TickInterval: 5 * time.Minute,
		FloorRatio:   0.70,
		CeilRatio:    1.50,
		TrendReroll:  0.30,
		Volatility:   0.04,
		EventChance:  0.05,
		MaxHistory:   200,
	}
}

// StatusView IPO状态视图
type StatusView struct {
	Ticker          string                `json:"ticker"`
	IPOPrice        string                `json:"ipo_price"`
	CurrentPrice    string                `json:"current_price"`
	High            string                `json:"high"`
	Low             string                `json:"low"`
	Multiplier      float64               `json:"multiplier"`
	Trend           string                `json:"trend"`
	BasePoints      int64                 `json:"base_points"`
	ProjectedPoints int64                 `json:"projected_points"`
	StartsAt        time.Time             `json:"starts_at"`
	ExpiresAt       time.Time             `json:"expires_at"`
	History         []model.IPOPricePoint `json:"history"`
}

// SaleResult 出售或撤回的结算结果
type SaleResult struct {
	Ticker     string  `json:"ticker"`
	Multiplier float64 `json:"multiplier"`
	Points     int64   `json:"points"`
	Payout     string  `json:"payout"`
}

// Controller IPO生命周期控制器：NotStarted → Active → {Sold, Cancelled, Expired}。
// 迷你市场与主市场相互独立，但共用同一条确定性tick策略：
// 随机性按 (seed, 绝对tick时间) 重新派生。
type Controller struct {
	store market.Store
	cfg   Config
	now   func() time.Time
}

// Option 控制器可选项
type Option func(*Controller)

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// NewController 创建IPO控制器
func NewController(store market.Store, cfg Config, opts ...Option) *Controller {
	c := &Controller{store: store, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Launch 启动IPO：净资产达标后按 净资产/除数 定发行价，
// 代码从用户名派生，窗口固定时长。每用户同时至多一单。
func (c *Controller) Launch(userID string) (*StatusView, error) {
	now := c.now()
	var view *StatusView
	err := c.store.WithTx(func(tx market.Tx) error {
		user, err := tx.GetUser(userID)
		if err != nil {
			return market.Internal(err)
		}
		if user == nil {
			return market.NewError(market.CodeNotFound, "用户不存在")
		}
		netWorth, _ := user.NetWorth.Float64()
		if netWorth < c.cfg.MinNetWorth {
			return market.NewError(market.CodeValidation, "净资产低于IPO门槛 %.0f", c.cfg.MinNetWorth)
		}

		existing, err := tx.GetIPOByUser(userID)
		if err != nil {
			return market.Internal(err)
		}
		if existing != nil {
			if !existing.Expired(now) {
				return market.NewError(market.CodeConflict, "已有进行中的IPO %s", existing.Ticker)
			}
			// 过期残留视为不存在，清理后允许重新上市
			if err := tx.DeleteIPOByUser(userID); err != nil {
				return market.Internal(err)
			}
		}

		price := netWorth / c.cfg.PriceDivisor
		listing := &model.IPOListing{
			UserID:       userID,
			Ticker:       DeriveTicker(user.Username),
			IPOPrice:     price,
			CurrentPrice: price,
			High:         price,
			Low:          price,
			BasePoints:   c.cfg.BasePoints,
			Trend:        model.TrendNeutral,
			History:      []model.IPOPricePoint{{At: now, Price: price}},
			Seed:         now.UnixNano() ^ int64(len(user.Username))<<32,
			LastTickAt:   now,
			StartsAt:     now,
			ExpiresAt:    now.Add(c.cfg.Duration),
		}
		if err := tx.SaveIPO(listing); err != nil {
			return market.Internal(err)
		}
		view = c.statusView(listing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// Status 查询IPO状态，返回前按主市场同款策略懒惰补算。
// 已过期的挂单视为不存在并顺手清除。
func (c *Controller) Status(userID string) (*StatusView, error) {
	now := c.now()
	var view *StatusView
	err := c.store.WithTx(func(tx market.Tx) error {
		listing, err := c.activeListing(tx, userID, now)
		if err != nil {
			return err
		}
		c.catchUp(listing, now)
		if err := tx.SaveIPO(listing); err != nil {
			return market.Internal(err)
		}
		view = c.statusView(listing)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// SellShares 出售IPO份额：按 现价/发行价 的乘数结算奖励并销毁挂单
func (c *Controller) SellShares(userID string) (*SaleResult, error) {
	now := c.now()
	var result *SaleResult
	err := c.store.WithTx(func(tx market.Tx) error {
		listing, err := c.activeListing(tx, userID, now)
		if err != nil {
			return err
		}
		c.catchUp(listing, now)

		multiplier := listing.Multiplier()
		points := int64(float64(listing.BasePoints) * multiplier)
		if err := c.settle(tx, userID, points); err != nil {
			return err
		}
		if err := tx.DeleteIPOByUser(userID); err != nil {
			return market.Internal(err)
		}
		result = &SaleResult{
			Ticker:     listing.Ticker,
			Multiplier: multiplier,
			Points:     points,
			Payout:     decimal.NewFromInt(points).StringFixed(2),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Cancel 撤回IPO：结算未加乘的基础奖励并销毁挂单
func (c *Controller) Cancel(userID string) (*SaleResult, error) {
	now := c.now()
	var result *SaleResult
	err := c.store.WithTx(func(tx market.Tx) error {
		listing, err := c.activeListing(tx, userID, now)
		if err != nil {
			return err
		}
		if err := c.settle(tx, userID, listing.BasePoints); err != nil {
			return err
		}
		if err := tx.DeleteIPOByUser(userID); err != nil {
			return market.Internal(err)
		}
		result = &SaleResult{
			Ticker:     listing.Ticker,
			Multiplier: 1,
			Points:     listing.BasePoints,
			Payout:     decimal.NewFromInt(listing.BasePoints).StringFixed(2),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// activeListing 取用户的活跃挂单；过期即删、视为不存在
func (c *Controller) activeListing(tx market.Tx, userID string, now time.Time) (*model.IPOListing, error) {
	listing, err := tx.GetIPOByUser(userID)
	if err != nil {
		return nil, market.Internal(err)
	}
	if listing == nil {
		return nil, market.NewError(market.CodeNotFound, "没有进行中的IPO")
	}
	if listing.Expired(now) {
		if err := tx.DeleteIPOByUser(userID); err != nil {
			return nil, market.Internal(err)
		}
		return nil, market.NewError(market.CodeNotFound, "IPO已过期")
	}
	return listing, nil
}

// settle 把奖励入账到用户现金
func (c *Controller) settle(tx market.Tx, userID string, points int64) error {
	user, err := tx.GetUser(userID)
	if err != nil {
		return market.Internal(err)
	}
	if user == nil {
		return market.NewError(market.CodeNotFound, "用户不存在")
	}
	user.Cash = user.Cash.Add(decimal.NewFromInt(points))
	if err := tx.SaveUser(user); err != nil {
		return market.Internal(err)
	}
	return nil
}

// catchUp 把迷你行情推进到 now（不超过到期时刻）。
// 每tick独立掷事件跳变，价格始终钳制在 [floor, ceil]×发行价。
func (c *Controller) catchUp(l *model.IPOListing, now time.Time) int {
	end := now
	if end.After(l.ExpiresAt) {
		end = l.ExpiresAt
	}
	ticks := int(end.Sub(l.LastTickAt) / c.cfg.TickInterval)
	if ticks <= 0 {
		return 0
	}

	floor := l.IPOPrice * c.cfg.FloorRatio
	ceil := l.IPOPrice * c.cfg.CeilRatio
	seedKey := fmt.Sprintf("%s#%d", l.Ticker, l.Seed)

	for i := 0; i < ticks; i++ {
		tickAt := l.LastTickAt.Add(c.cfg.TickInterval)
		rng := market.NewTickRand(seedKey, tickAt.Unix())

		if rng.Float64() < c.cfg.TrendReroll {
			switch rng.IntN(3) {
			case 0:
				l.Trend = model.TrendBullish
			case 1:
				l.Trend = model.TrendBearish
			default:
				l.Trend = model.TrendNeutral
			}
		}

		price := l.CurrentPrice
		price += (rng.Float64()*2 - 1) * c.cfg.Volatility * price
		switch l.Trend {
		case model.TrendBullish:
			price += 0.005 * price
		case model.TrendBearish:
			price -= 0.005 * price
		}

		// 迷你市场的独立事件掷骰：一次性跳变 ±3-10%
		if rng.Float64() < c.cfg.EventChance {
			jump := rng.Range(0.03, 0.10)
			if rng.IntN(2) == 0 {
				jump = -jump
			}
			price *= 1 + jump
		}

		if price < floor {
			price = floor
		}
		if price > ceil {
			price = ceil
		}

		l.CurrentPrice = price
		if price > l.High {
			l.High = price
		}
		if l.Low == 0 || price < l.Low {
			l.Low = price
		}
		l.History = append(l.History, model.IPOPricePoint{At: tickAt, Price: price})
		l.LastTickAt = tickAt
	}

	if len(l.History) > c.cfg.MaxHistory {
		l.History = l.History[len(l.History)-c.cfg.MaxHistory:]
	}
	return ticks
}

func (c *Controller) statusView(l *model.IPOListing) *StatusView {
	multiplier := l.Multiplier()
	return &StatusView{
		Ticker:          l.Ticker,
		IPOPrice:        decimal.NewFromFloat(l.IPOPrice).Round(2).StringFixed(2),
		CurrentPrice:    decimal.NewFromFloat(l.CurrentPrice).Round(2).StringFixed(2),
		High:            decimal.NewFromFloat(l.High).Round(2).StringFixed(2),
		Low:             decimal.NewFromFloat(l.Low).Round(2).StringFixed(2),
		Multiplier:      multiplier,
		Trend:           string(l.Trend),
		BasePoints:      l.BasePoints,
		ProjectedPoints: int64(float64(l.BasePoints) * multiplier),
		StartsAt:        l.StartsAt,
		ExpiresAt:       l.ExpiresAt,
		History:         l.History,
	}
}
