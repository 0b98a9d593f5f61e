// pkg/database/event.go
package database

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"TycoonExchange/pkg/model"
)

func (t *gormTx) CreateEvent(ev *model.MarketEvent) error {
	if err := t.db.Create(ev).Error; err != nil {
		return fmt.Errorf("写入市场事件失败: %w", err)
	}
	return nil
}

func (t *gormTx) SaveEvent(ev *model.MarketEvent) error {
	if err := t.db.Save(ev).Error; err != nil {
		return fmt.Errorf("保存市场事件失败: %w", err)
	}
	return nil
}

func (t *gormTx) ListActiveEvents(now time.Time, limit int) ([]*model.MarketEvent, error) {
	var out []*model.MarketEvent
	err := t.db.Where("active = ? AND expires_at > ?", true, now).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询活跃事件失败: %w", err)
	}
	return out, nil
}

func (t *gormTx) ActiveEventForTicker(ticker string, now time.Time) (*model.MarketEvent, error) {
	var ev model.MarketEvent
	err := t.db.Where("active = ? AND ticker = ? AND expires_at > ?", true, ticker, now).
		Order("created_at DESC").
		First(&ev).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("查询标的活跃事件失败: %w", err)
	}
	return &ev, nil
}

func (t *gormTx) DeactivateExpiredEvents(now time.Time) (int64, error) {
	result := t.db.Model(&model.MarketEvent{}).
		Where("active = ? AND expires_at <= ?", true, now).
		Update("active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("清理过期事件失败: %w", result.Error)
	}
	return result.RowsAffected, nil
}
