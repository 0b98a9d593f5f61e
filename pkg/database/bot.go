// pkg/database/bot.go
package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"TycoonExchange/pkg/model"
)

func (t *gormTx) GetBot(id string) (*model.TradingBot, error) {
	var b model.TradingBot
	err := t.db.First(&b, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("获取机器人失败: %w", err)
	}
	return &b, nil
}

func (t *gormTx) ListBots() ([]*model.TradingBot, error) {
	var out []*model.TradingBot
	if err := t.db.Order("name").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("列出机器人失败: %w", err)
	}
	return out, nil
}

func (t *gormTx) SaveBot(b *model.TradingBot) error {
	if err := t.db.Save(b).Error; err != nil {
		return fmt.Errorf("保存机器人失败: %w", err)
	}
	return nil
}

func (t *gormTx) CountBots() (int64, error) {
	var n int64
	if err := t.db.Model(&model.TradingBot{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("统计机器人数量失败: %w", err)
	}
	return n, nil
}
