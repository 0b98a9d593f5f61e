// pkg/database/holding.go
package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"TycoonExchange/pkg/model"
)

func (t *gormTx) GetHolding(userID, ticker string) (*model.Holding, error) {
	var h model.Holding
	err := t.db.First(&h, "user_id = ? AND ticker = ?", userID, ticker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("获取持仓失败: %w", err)
	}
	return &h, nil
}

func (t *gormTx) ListHoldingsByUser(userID string) ([]*model.Holding, error) {
	var out []*model.Holding
	if err := t.db.Where("user_id = ?", userID).Order("ticker").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("列出用户持仓失败: %w", err)
	}
	return out, nil
}

func (t *gormTx) ListHoldingsByTicker(ticker string) ([]*model.Holding, error) {
	var out []*model.Holding
	if err := t.db.Where("ticker = ?", ticker).Find(&out).Error; err != nil {
		return nil, fmt.Errorf("列出标的持仓失败: %w", err)
	}
	return out, nil
}

func (t *gormTx) SaveHolding(h *model.Holding) error {
	if err := t.db.Save(h).Error; err != nil {
		return fmt.Errorf("保存持仓失败: %w", err)
	}
	return nil
}

func (t *gormTx) DeleteHolding(userID, ticker string) error {
	if err := t.db.Where("user_id = ? AND ticker = ?", userID, ticker).
		Delete(&model.Holding{}).Error; err != nil {
		return fmt.Errorf("删除持仓失败: %w", err)
	}
	return nil
}
