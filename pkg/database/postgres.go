// pkg/database/postgres.go
package database

import (
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"TycoonExchange/pkg/config"
	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/model"
)

// Postgres 基于gorm的事务性存储，实现 market.Store。
// 资金变动全部走 WithTx，单条读写直接在连接池上执行。
type Postgres struct {
	gormTx
}

// NewPostgres 创建数据库连接并迁移表结构
func NewPostgres(cfg *config.Config) (*Postgres, error) {
	dbCfg := cfg.Database.Postgres

	// 构建连接字符串
	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		dbCfg.Host, dbCfg.Port, dbCfg.User, dbCfg.Password, dbCfg.DBName, dbCfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	// 设置连接池参数
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层连接池失败: %w", err)
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	// 迁移表结构
	if err := db.AutoMigrate(
		&model.User{},
		&model.Instrument{},
		&model.Holding{},
		&model.Order{},
		&model.MarketEvent{},
		&model.IPOListing{},
		&model.TradingBot{},
		&model.DividendPayout{},
	); err != nil {
		return nil, fmt.Errorf("迁移表结构失败: %w", err)
	}

	return &Postgres{gormTx: gormTx{db: db}}, nil
}

// Close 关闭数据库连接
func (p *Postgres) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// WithTx 在单个数据库事务内执行 fn，fn 返回错误则整体回滚
func (p *Postgres) WithTx(fn func(tx market.Tx) error) error {
	return p.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

// gormTx market.Tx 的gorm实现，db 可能是连接池也可能是进行中的事务
type gormTx struct {
	db *gorm.DB
}
