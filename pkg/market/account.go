// pkg/market/account.go
package market

import (
	"github.com/shopspring/decimal"

	"TycoonExchange/pkg/model"
)

// Account 可参与交易的现金账户。玩家和机器人共用同一套台账逻辑，
// 区别只在规则豁免（System）与持久化目标表。
type Account interface {
	AccountID() string
	Balance() decimal.Decimal
	SetBalance(d decimal.Decimal)
	System() bool
	Persist(tx Tx) error
}

// UserAccount 玩家账户适配
type UserAccount struct {
	User *model.User
}

func (a UserAccount) AccountID() string            { return a.User.ID }
func (a UserAccount) Balance() decimal.Decimal     { return a.User.Cash }
func (a UserAccount) SetBalance(d decimal.Decimal) { a.User.Cash = d }
func (a UserAccount) System() bool                 { return false }
func (a UserAccount) Persist(tx Tx) error          { return tx.SaveUser(a.User) }

// BotAccount 机器人账户适配，属于系统身份
type BotAccount struct {
	Bot *model.TradingBot
}

func (a BotAccount) AccountID() string            { return a.Bot.ID }
func (a BotAccount) Balance() decimal.Decimal     { return a.Bot.Cash }
func (a BotAccount) SetBalance(d decimal.Decimal) { a.Bot.Cash = d }
func (a BotAccount) System() bool                 { return true }
func (a BotAccount) Persist(tx Tx) error          { return tx.SaveBot(a.Bot) }
