// pkg/market/views.go
package market

import (
	"time"

	"github.com/shopspring/decimal"

	"TycoonExchange/pkg/model"
)

// 对外视图统一用十进制字符串表示货币，避免浮点漂移。

// StockView 标的行情视图
type StockView struct {
	Ticker        string     `json:"ticker"`
	Name          string     `json:"name"`
	Kind          string     `json:"kind"`
	Price         string     `json:"price"`
	PreviousClose string     `json:"previous_close"`
	ChangePercent float64    `json:"change_percent"`
	High24h       string     `json:"high_24h"`
	Low24h        string     `json:"low_24h"`
	Volume24h     int64      `json:"volume_24h"`
	Trend         string     `json:"trend"`
	TrendStrength int        `json:"trend_strength"`
	Halted        bool       `json:"halted"`
	ResumesAt     *time.Time `json:"resumes_at,omitempty"`
	// 公司股专有
	OwnerID     string `json:"owner_id,omitempty"`
	TotalShares int64  `json:"total_shares,omitempty"`
	FloatShares int64  `json:"float_shares,omitempty"`
}

// OrderView 订单视图
type OrderView struct {
	ID        string    `json:"id"`
	Ticker    string    `json:"ticker"`
	Side      string    `json:"side"`
	Shares    int64     `json:"shares"`
	Price     string    `json:"price"`
	Total     string    `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// PositionView 单个持仓视图
type PositionView struct {
	Ticker        string  `json:"ticker"`
	Shares        int64   `json:"shares"`
	AvgBuyPrice   string  `json:"avg_buy_price"`
	TotalInvested string  `json:"total_invested"`
	CurrentPrice  string  `json:"current_price"`
	MarketValue   string  `json:"market_value"`
	UnrealizedPct float64 `json:"unrealized_pct"`
}

// PortfolioView 用户组合视图
type PortfolioView struct {
	UserID     string         `json:"user_id"`
	Cash       string         `json:"cash"`
	Positions  []PositionView `json:"positions"`
	TotalValue string         `json:"total_value"` // 现金 + 持仓市值
}

// EventView 市场事件视图
type EventView struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	Severity    string    `json:"severity"`
	Ticker      string    `json:"ticker,omitempty"`
	Title       string    `json:"title"`
	Message     string    `json:"message"`
	PriceImpact float64   `json:"price_impact"`
	CreatedAt   time.Time `json:"created_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// BreakerStatusView 熔断状态视图
type BreakerStatusView struct {
	MarketHalted    bool                 `json:"market_halted"`
	MarketResumesAt *time.Time           `json:"market_resumes_at,omitempty"`
	Instruments     map[string]time.Time `json:"instruments"`
}

func money(f float64) string {
	return decimal.NewFromFloat(f).Round(2).StringFixed(2)
}

func stockView(inst *model.Instrument, haltedUntil *time.Time) *StockView {
	v := &StockView{
		Ticker:        inst.Ticker,
		Name:          inst.Name,
		Kind:          string(inst.Kind),
		Price:         money(inst.CurrentPrice),
		PreviousClose: money(inst.PreviousClose),
		ChangePercent: inst.ChangePercent(),
		High24h:       money(inst.High24h),
		Low24h:        money(inst.Low24h),
		Volume24h:     inst.Volume24h,
		Trend:         string(inst.Trend),
		TrendStrength: inst.TrendStrength,
	}
	if haltedUntil != nil {
		v.Halted = true
		v.ResumesAt = haltedUntil
	}
	if inst.IsCompany() {
		v.OwnerID = inst.OwnerID
		v.TotalShares = inst.TotalShares
		v.FloatShares = inst.FloatShares
	}
	return v
}

func orderView(o *model.Order) *OrderView {
	return &OrderView{
		ID:        o.ID,
		Ticker:    o.Ticker,
		Side:      string(o.Side),
		Shares:    o.Shares,
		Price:     o.Price.StringFixed(2),
		Total:     o.Total.StringFixed(2),
		CreatedAt: o.CreatedAt,
	}
}

func eventView(ev *model.MarketEvent) *EventView {
	return &EventView{
		ID:          ev.ID,
		Type:        string(ev.Type),
		Severity:    string(ev.Severity),
		Ticker:      ev.Ticker,
		Title:       ev.Title,
		Message:     ev.Message,
		PriceImpact: ev.PriceImpact,
		CreatedAt:   ev.CreatedAt,
		ExpiresAt:   ev.ExpiresAt,
	}
}
