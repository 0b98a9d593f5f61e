// pkg/database/dividend.go
package database

import (
	"fmt"

	"TycoonExchange/pkg/model"
)

func (t *gormTx) CreateDividendPayout(p *model.DividendPayout) error {
	if err := t.db.Create(p).Error; err != nil {
		return fmt.Errorf("写入分红流水失败: %w", err)
	}
	return nil
}
