// pkg/model/dividend.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// PayoutType 分红类型
type PayoutType string

const (
	PayoutOwner       PayoutType = "owner"       // 公司股东家分红
	PayoutShareholder PayoutType = "shareholder" // 持仓股东分红
)

// DividendPayout 分红流水，不可变记录
type DividendPayout struct {
	ID         string          `gorm:"type:uuid;primaryKey" json:"id"`
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Type       PayoutType      `gorm:"type:varchar(15);not null" json:"type"`
	Ticker     string          `gorm:"type:varchar(4)" json:"ticker"`
	Shares     int64           `json:"shares"`
	Rate       float64         `gorm:"type:decimal(10,6)" json:"rate"`
	Amount     decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"amount"`
	PayoutDate time.Time       `gorm:"index" json:"payout_date"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (d *DividendPayout) BeforeCreate(tx *gorm.DB) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	return nil
}
