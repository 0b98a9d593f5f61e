// pkg/model/holding.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Holding 持仓记录，按 (user_id, ticker) 唯一。
// 不变式：total_invested == avg_buy_price × shares。
// 买入时按股数加权重算 avg_buy_price；卖出按比例缩减，不改均价。
// 股数归零时删除记录而不是保留零值行。
type Holding struct {
	ID            string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        string          `gorm:"type:uuid;not null;uniqueIndex:idx_user_ticker" json:"user_id"`
	Ticker        string          `gorm:"type:varchar(4);not null;uniqueIndex:idx_user_ticker" json:"ticker"`
	Shares        int64           `gorm:"not null" json:"shares"`
	AvgBuyPrice   decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"avg_buy_price"`
	TotalInvested decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"total_invested"`
	OpenedAt      time.Time       `json:"opened_at"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (h *Holding) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	return nil
}

// ApplyBuy 以价格 price 买入 shares 股，重算加权平均成本
func (h *Holding) ApplyBuy(shares int64, price decimal.Decimal) {
	cost := price.Mul(decimal.NewFromInt(shares))
	newShares := h.Shares + shares
	h.TotalInvested = h.TotalInvested.Add(cost)
	h.AvgBuyPrice = h.TotalInvested.Div(decimal.NewFromInt(newShares))
	h.Shares = newShares
}

// ApplySell 卖出 shares 股，按比例缩减投入，均价保持不变
func (h *Holding) ApplySell(shares int64) {
	remaining := h.Shares - shares
	if remaining <= 0 {
		h.Shares = 0
		h.TotalInvested = decimal.Zero
		return
	}
	h.TotalInvested = h.AvgBuyPrice.Mul(decimal.NewFromInt(remaining))
	h.Shares = remaining
}

// UnrealizedPercent 相对当前价的浮动盈亏百分比
func (h *Holding) UnrealizedPercent(currentPrice float64) float64 {
	avg, _ := h.AvgBuyPrice.Float64()
	if avg <= 0 {
		return 0
	}
	return (currentPrice - avg) / avg * 100
}
