// pkg/database/user.go
package database

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"TycoonExchange/pkg/model"
)

func (t *gormTx) GetUser(id string) (*model.User, error) {
	var user model.User
	err := t.db.First(&user, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("获取用户失败: %w", err)
	}
	return &user, nil
}

func (t *gormTx) GetUserByUsername(username string) (*model.User, error) {
	var user model.User
	err := t.db.First(&user, "username = ?", username).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("根据用户名获取用户失败: %w", err)
	}
	return &user, nil
}

func (t *gormTx) SaveUser(u *model.User) error {
	if err := t.db.Save(u).Error; err != nil {
		return fmt.Errorf("保存用户失败: %w", err)
	}
	return nil
}
