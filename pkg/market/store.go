// pkg/market/store.go
package market

import (
	"time"

	"TycoonExchange/pkg/model"
)

// Tx 一次事务作用域内的存取操作。
// 约定：单条查询未命中时返回 (nil, nil)，错误只表示存储层故障。
// 所有资金变动必须在同一事务内完成 读取-校验-写入，避免丢失更新。
type Tx interface {
	// 用户
	GetUser(id string) (*model.User, error)
	GetUserByUsername(username string) (*model.User, error)
	SaveUser(u *model.User) error

	// 标的
	GetInstrumentByTicker(ticker string) (*model.Instrument, error)
	GetInstrumentByOwner(ownerID string) (*model.Instrument, error)
	ListInstruments() ([]*model.Instrument, error)
	ListInstrumentsByKind(kind model.InstrumentKind) ([]*model.Instrument, error)
	SaveInstrument(inst *model.Instrument) error
	DeleteInstrument(ticker string) error

	// 持仓
	GetHolding(userID, ticker string) (*model.Holding, error)
	ListHoldingsByUser(userID string) ([]*model.Holding, error)
	ListHoldingsByTicker(ticker string) ([]*model.Holding, error)
	SaveHolding(h *model.Holding) error
	DeleteHolding(userID, ticker string) error

	// 订单（只追加）
	CreateOrder(o *model.Order) error
	ListOrdersByUser(userID string, limit int) ([]*model.Order, error)
	ListUserOrdersSince(userID string, since time.Time) ([]*model.Order, error)

	// 市场事件
	CreateEvent(ev *model.MarketEvent) error
	SaveEvent(ev *model.MarketEvent) error
	ListActiveEvents(now time.Time, limit int) ([]*model.MarketEvent, error)
	ActiveEventForTicker(ticker string, now time.Time) (*model.MarketEvent, error)
	DeactivateExpiredEvents(now time.Time) (int64, error)

	// IPO
	GetIPOByUser(userID string) (*model.IPOListing, error)
	SaveIPO(l *model.IPOListing) error
	DeleteIPOByUser(userID string) error

	// 机器人
	GetBot(id string) (*model.TradingBot, error)
	ListBots() ([]*model.TradingBot, error)
	SaveBot(b *model.TradingBot) error
	CountBots() (int64, error)

	// 分红流水（只追加）
	CreateDividendPayout(p *model.DividendPayout) error
}

// Store 事务性存储。WithTx 内的全部写入要么全部生效要么全部回滚。
type Store interface {
	Tx
	WithTx(fn func(tx Tx) error) error
}
