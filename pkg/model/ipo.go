// pkg/model/ipo.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IPOPricePoint IPO迷你行情的一个历史点
type IPOPricePoint struct {
	At    time.Time `json:"at"`
	Price float64   `json:"price"`
}

// IPOListing 玩家上市的临时迷你市场，每用户至多一条。
// 价格路径由 seed 按 (ticker, tick时间) 重派生，
// 始终被钳制在 [0.70, 1.50]×ipo_price 区间内。
// 过期未删除的记录读取时视为不存在。
type IPOListing struct {
	ID           string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       string          `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`
	Ticker       string          `gorm:"type:varchar(4);not null" json:"ticker"`
	IPOPrice     float64         `gorm:"type:decimal(16,4);not null" json:"ipo_price"`
	CurrentPrice float64         `gorm:"type:decimal(16,4);not null" json:"current_price"`
	High         float64         `gorm:"type:decimal(16,4)" json:"high"`
	Low          float64         `gorm:"type:decimal(16,4)" json:"low"`
	BasePoints   int64           `gorm:"not null" json:"base_points"`
	Trend        Trend           `gorm:"type:varchar(10);default:'neutral'" json:"trend"`
	History      []IPOPricePoint `gorm:"type:jsonb;serializer:json" json:"history"`
	Seed         int64           `gorm:"not null" json:"-"`
	LastTickAt   time.Time       `json:"last_tick_at"`
	StartsAt     time.Time       `json:"starts_at"`
	ExpiresAt    time.Time       `gorm:"index" json:"expires_at"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (l *IPOListing) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	return nil
}

// Expired 到 now 为止上市窗口是否已结束
func (l *IPOListing) Expired(now time.Time) bool {
	return !now.Before(l.ExpiresAt)
}

// Multiplier 当前价相对发行价的倍数
func (l *IPOListing) Multiplier() float64 {
	if l.IPOPrice <= 0 {
		return 1
	}
	return l.CurrentPrice / l.IPOPrice
}
