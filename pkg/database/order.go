// pkg/database/order.go
package database

import (
	"fmt"
	"time"

	"TycoonExchange/pkg/model"
)

func (t *gormTx) CreateOrder(o *model.Order) error {
	if err := t.db.Create(o).Error; err != nil {
		return fmt.Errorf("写入订单失败: %w", err)
	}
	return nil
}

func (t *gormTx) ListOrdersByUser(userID string, limit int) ([]*model.Order, error) {
	var out []*model.Order
	err := t.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询订单历史失败: %w", err)
	}
	return out, nil
}

func (t *gormTx) ListUserOrdersSince(userID string, since time.Time) ([]*model.Order, error) {
	var out []*model.Order
	err := t.db.Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("查询时间窗口内订单失败: %w", err)
	}
	return out, nil
}
