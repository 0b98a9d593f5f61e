// pkg/model/order.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderSide 订单方向
type OrderSide string

const (
	OrderBuy  OrderSide = "buy"
	OrderSell OrderSide = "sell"
)

// Order 已成交订单的不可变记录。只追加，不更新；
// 限频与对敲检测以此为滑动窗口数据源。
type Order struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    string          `gorm:"type:uuid;not null;index:idx_order_user_time" json:"user_id"`
	Ticker    string          `gorm:"type:varchar(4);not null;index" json:"ticker"`
	Side      OrderSide       `gorm:"type:varchar(4);not null" json:"side"`
	Shares    int64           `gorm:"not null" json:"shares"`
	Price     decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"price"`
	Total     decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"total"`
	CreatedAt time.Time       `gorm:"index:idx_order_user_time" json:"created_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	return nil
}
