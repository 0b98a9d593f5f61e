// pkg/model/user.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// User 玩家账户在本核心中的视图。
// 账号注册、登录、资料等由外部系统负责；这里只关心
// 现金余额与净资产（IPO定价和公司股目标价的输入）。
type User struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string          `gorm:"uniqueIndex;not null" json:"username"`
	Nickname  string          `json:"nickname"`
	Cash      decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"cash"`
	NetWorth  decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"net_worth"`
	Status    int             `gorm:"default:1;index" json:"status"` // 1:正常 0:禁用
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`

	LastActiveAt *time.Time `json:"last_active_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	return nil
}
