// pkg/database/ipo.go
package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"TycoonExchange/pkg/model"
)

func (t *gormTx) GetIPOByUser(userID string) (*model.IPOListing, error) {
	var l model.IPOListing
	err := t.db.First(&l, "user_id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("获取IPO挂单失败: %w", err)
	}
	return &l, nil
}

func (t *gormTx) SaveIPO(l *model.IPOListing) error {
	if err := t.db.Save(l).Error; err != nil {
		return fmt.Errorf("保存IPO挂单失败: %w", err)
	}
	return nil
}

func (t *gormTx) DeleteIPOByUser(userID string) error {
	if err := t.db.Where("user_id = ?", userID).Delete(&model.IPOListing{}).Error; err != nil {
		return fmt.Errorf("删除IPO挂单失败: %w", err)
	}
	return nil
}
