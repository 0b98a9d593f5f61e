// pkg/model/instrument.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InstrumentKind 标的类型
type InstrumentKind string

const (
	InstrumentSystem  InstrumentKind = "system"  // 系统股：算法定价，流通量视为无限
	InstrumentCompany InstrumentKind = "company" // 公司股：玩家公司发行，供给有限
)

// Trend 价格趋势
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
	TrendNeutral Trend = "neutral"
)

// Instrument 市场标的
type Instrument struct {
	ID     string         `gorm:"type:uuid;primaryKey" json:"id"`
	Ticker string         `gorm:"type:varchar(4);uniqueIndex;not null" json:"ticker"`
	Name   string         `gorm:"not null" json:"name"`
	Kind   InstrumentKind `gorm:"type:varchar(10);not null;index" json:"kind"`
	Sector string         `gorm:"type:varchar(20);index" json:"sector"`

	CurrentPrice  float64 `gorm:"type:decimal(16,4);not null" json:"current_price"`
	PreviousClose float64 `gorm:"type:decimal(16,4)" json:"previous_close"`
	High24h       float64 `gorm:"type:decimal(16,4)" json:"high_24h"`
	Low24h        float64 `gorm:"type:decimal(16,4)" json:"low_24h"`
	Volume24h     int64   `gorm:"default:0" json:"volume_24h"`

	Trend         Trend `gorm:"type:varchar(10);default:'neutral'" json:"trend"`
	TrendStrength int   `gorm:"default:0" json:"trend_strength"`

	// 系统股专用：均值回归锚点与波动率
	BasePrice  float64 `gorm:"type:decimal(16,4)" json:"base_price,omitempty"`
	Volatility float64 `gorm:"type:decimal(8,4)" json:"volatility,omitempty"`

	// 公司股专用：floatShares + 持仓股数合计 + ownerShares == totalShares 恒成立
	OwnerID     string `gorm:"type:uuid;index" json:"owner_id,omitempty"`
	TotalShares int64  `gorm:"default:0" json:"total_shares,omitempty"`
	FloatShares int64  `gorm:"default:0" json:"float_shares,omitempty"`
	OwnerShares int64  `gorm:"default:0" json:"owner_shares,omitempty"`

	// 懒惰补算的推进位置
	LastTickAt time.Time `gorm:"index" json:"last_tick_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Instrument) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.New().String()
	}
	return nil
}

// IsCompany 是否为公司股
func (i *Instrument) IsCompany() bool {
	return i.Kind == InstrumentCompany
}

// MarketCap 市值（公司股为总股本×现价，系统股无意义返回0）
func (i *Instrument) MarketCap() float64 {
	if !i.IsCompany() {
		return 0
	}
	return i.CurrentPrice * float64(i.TotalShares)
}

// ChangePercent 相对前收盘的涨跌幅（百分比）
func (i *Instrument) ChangePercent() float64 {
	if i.PreviousClose <= 0 {
		return 0
	}
	return (i.CurrentPrice - i.PreviousClose) / i.PreviousClose * 100
}

// UpdateRange 用新价更新24小时高低点
func (i *Instrument) UpdateRange(price float64) {
	if price > i.High24h {
		i.High24h = price
	}
	if i.Low24h == 0 || price < i.Low24h {
		i.Low24h = price
	}
}
