// pkg/database/instrument.go
package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"TycoonExchange/pkg/model"
)

func (t *gormTx) GetInstrumentByTicker(ticker string) (*model.Instrument, error) {
	var inst model.Instrument
	err := t.db.First(&inst, "ticker = ?", ticker).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("获取标的失败: %w", err)
	}
	return &inst, nil
}

func (t *gormTx) GetInstrumentByOwner(ownerID string) (*model.Instrument, error) {
	var inst model.Instrument
	err := t.db.First(&inst, "owner_id = ?", ownerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("根据股东家获取标的失败: %w", err)
	}
	return &inst, nil
}

func (t *gormTx) ListInstruments() ([]*model.Instrument, error) {
	var out []*model.Instrument
	if err := t.db.Order("ticker").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("列出标的失败: %w", err)
	}
	return out, nil
}

func (t *gormTx) ListInstrumentsByKind(kind model.InstrumentKind) ([]*model.Instrument, error) {
	var out []*model.Instrument
	if err := t.db.Where("kind = ?", kind).Order("ticker").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("按类型列出标的失败: %w", err)
	}
	return out, nil
}

func (t *gormTx) SaveInstrument(inst *model.Instrument) error {
	if err := t.db.Save(inst).Error; err != nil {
		return fmt.Errorf("保存标的失败: %w", err)
	}
	return nil
}

func (t *gormTx) DeleteInstrument(ticker string) error {
	if err := t.db.Where("ticker = ?", ticker).Delete(&model.Instrument{}).Error; err != nil {
		return fmt.Errorf("删除标的失败: %w", err)
	}
	return nil
}
