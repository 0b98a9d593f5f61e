// pkg/market/ledger.go
package market

import (
	"time"

	"github.com/shopspring/decimal"

	"TycoonExchange/pkg/model"
)

// Ledger 订单与持仓台账。买卖都在调用方的事务作用域内执行：
// 读取余额与持仓、逐项校验、再写回，全部落在同一事务里。
// 每笔订单先过规则引擎，并在停牌期间直接拒单。
type Ledger struct {
	rules   *RuleEngine
	breaker *Breaker
}

// NewLedger 创建台账
func NewLedger(rules *RuleEngine, breaker *Breaker) *Ledger {
	return &Ledger{rules: rules, breaker: breaker}
}

// execPrice 成交价取现价四舍五入到分，货币金额从此点起走精确十进制
func execPrice(inst *model.Instrument) decimal.Decimal {
	return decimal.NewFromFloat(inst.CurrentPrice).Round(2)
}

// Buy 买入。校验通过后原子地：扣现金、合并持仓（重算加权均价）、
// 追加订单；公司股同时扣减流通股并累加成交量。
func (l *Ledger) Buy(tx Tx, acct Account, inst *model.Instrument, shares int64, now time.Time) (*model.Order, error) {
	if shares <= 0 {
		return nil, NewError(CodeValidation, "股数必须为正整数")
	}
	if until, halted := l.breaker.HaltedUntil(inst.Ticker, now); halted {
		return nil, NewError(CodeMarketHalted, "%s 停牌中，%s 恢复交易", inst.Ticker, until.Format(time.RFC3339))
	}
	if err := l.rules.CheckOrder(tx, acct, inst, model.OrderBuy, shares, now); err != nil {
		return nil, err
	}

	if inst.IsCompany() && shares > inst.FloatShares {
		return nil, NewError(CodeValidation, "%s 流通股不足：剩余 %d 股", inst.Ticker, inst.FloatShares)
	}

	price := execPrice(inst)
	cost := price.Mul(decimal.NewFromInt(shares))
	if acct.Balance().LessThan(cost) {
		return nil, NewError(CodeInsufficientFunds, "余额不足：需要 %s，持有 %s", cost.StringFixed(2), acct.Balance().StringFixed(2))
	}

	acct.SetBalance(acct.Balance().Sub(cost))

	holding, err := tx.GetHolding(acct.AccountID(), inst.Ticker)
	if err != nil {
		return nil, Internal(err)
	}
	if holding == nil {
		holding = &model.Holding{
			UserID:   acct.AccountID(),
			Ticker:   inst.Ticker,
			OpenedAt: now,
		}
	}
	holding.ApplyBuy(shares, price)
	if err := tx.SaveHolding(holding); err != nil {
		return nil, Internal(err)
	}

	if inst.IsCompany() {
		inst.FloatShares -= shares
	}
	inst.Volume24h += shares
	if err := tx.SaveInstrument(inst); err != nil {
		return nil, Internal(err)
	}

	order := &model.Order{
		UserID:    acct.AccountID(),
		Ticker:    inst.Ticker,
		Side:      model.OrderBuy,
		Shares:    shares,
		Price:     price,
		Total:     cost,
		CreatedAt: now,
	}
	if err := tx.CreateOrder(order); err != nil {
		return nil, Internal(err)
	}
	if err := acct.Persist(tx); err != nil {
		return nil, Internal(err)
	}
	return order, nil
}

// Sell 卖出。要求已有足额持仓；收现金、按比例缩减或删除持仓、
// 追加订单；公司股把股数还回流通股。
func (l *Ledger) Sell(tx Tx, acct Account, inst *model.Instrument, shares int64, now time.Time) (*model.Order, error) {
	if shares <= 0 {
		return nil, NewError(CodeValidation, "股数必须为正整数")
	}
	if until, halted := l.breaker.HaltedUntil(inst.Ticker, now); halted {
		return nil, NewError(CodeMarketHalted, "%s 停牌中，%s 恢复交易", inst.Ticker, until.Format(time.RFC3339))
	}

	holding, err := tx.GetHolding(acct.AccountID(), inst.Ticker)
	if err != nil {
		return nil, Internal(err)
	}
	if holding == nil || holding.Shares < shares {
		var held int64
		if holding != nil {
			held = holding.Shares
		}
		return nil, NewError(CodeInsufficientShares, "持仓不足：持有 %d 股，试图卖出 %d 股", held, shares)
	}

	if err := l.rules.CheckOrder(tx, acct, inst, model.OrderSell, shares, now); err != nil {
		return nil, err
	}

	price := execPrice(inst)
	proceeds := price.Mul(decimal.NewFromInt(shares))
	acct.SetBalance(acct.Balance().Add(proceeds))

	holding.ApplySell(shares)
	if holding.Shares == 0 {
		// 股数归零删除记录，不保留零值行
		if err := tx.DeleteHolding(acct.AccountID(), inst.Ticker); err != nil {
			return nil, Internal(err)
		}
	} else if err := tx.SaveHolding(holding); err != nil {
		return nil, Internal(err)
	}

	if inst.IsCompany() {
		inst.FloatShares += shares
	}
	inst.Volume24h += shares
	if err := tx.SaveInstrument(inst); err != nil {
		return nil, Internal(err)
	}

	order := &model.Order{
		UserID:    acct.AccountID(),
		Ticker:    inst.Ticker,
		Side:      model.OrderSell,
		Shares:    shares,
		Price:     price,
		Total:     proceeds,
		CreatedAt: now,
	}
	if err := tx.CreateOrder(order); err != nil {
		return nil, Internal(err)
	}
	if err := acct.Persist(tx); err != nil {
		return nil, Internal(err)
	}
	return order, nil
}
