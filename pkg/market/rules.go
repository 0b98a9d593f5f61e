// pkg/market/rules.go
package market

import (
	"time"

	"TycoonExchange/pkg/model"
)

// RulesConfig 反套利交易规则参数
type RulesConfig struct {
	MaxTradesPerMinute  int           // 滚动1分钟内的下单上限
	MaxTradesPerHour    int           // 滚动1小时内的下单上限
	TradeCooldown       time.Duration // 任意两次下单间的最小间隔
	MinHoldingPeriod    time.Duration // 开仓后禁止卖出的最短时长
	MaxPositionPercent  float64       // 持仓占有效供给的上限（0.25 = 25%）
	WashWindow          time.Duration // 对敲检测滑动窗口
	WashOppositeLimit   int           // 窗口内反向订单数达到该值即拒单
	MaxImpactPercent    float64       // 单笔名义金额占市值上限（仅公司股）
	MaxTradeShares      int64         // 单笔股数硬上限（机器人同样受限）
}

// DefaultRulesConfig 参考部署的规则参数
func DefaultRulesConfig() RulesConfig {
	return RulesConfig{
		MaxTradesPerMinute: 5,
		MaxTradesPerHour:   60,
		TradeCooldown:      3 * time.Second,
		MinHoldingPeriod:   30 * time.Second,
		MaxPositionPercent: 0.25,
		WashWindow:         5 * time.Minute,
		WashOppositeLimit:  3,
		MaxImpactPercent:   0.10,
		MaxTradeShares:     10_000_000,
	}
}

// RuleEngine 交易规则引擎。无状态，逐单比对用户近期订单与当前持仓。
// 系统/机器人身份只受单笔股数与价格冲击约束，其余检查全部豁免。
type RuleEngine struct {
	cfg RulesConfig
}

// NewRuleEngine 创建规则引擎
func NewRuleEngine(cfg RulesConfig) *RuleEngine {
	return &RuleEngine{cfg: cfg}
}

// CheckOrder 校验一笔待执行订单，违规时返回带稳定错误码的业务错误
func (r *RuleEngine) CheckOrder(tx Tx, acct Account, inst *model.Instrument, side model.OrderSide, shares int64, now time.Time) error {
	if shares > r.cfg.MaxTradeShares {
		return NewError(CodeValidation, "单笔下单不得超过 %d 股", r.cfg.MaxTradeShares)
	}
	if err := r.checkPriceImpact(inst, shares); err != nil {
		return err
	}
	if acct.System() {
		return nil
	}

	if side == model.OrderBuy && inst.IsCompany() && inst.OwnerID == acct.AccountID() {
		return NewError(CodeForbidden, "不能买入自己公司的股票")
	}

	recent, err := tx.ListUserOrdersSince(acct.AccountID(), now.Add(-time.Hour))
	if err != nil {
		return Internal(err)
	}
	if err := r.checkCadence(recent, now); err != nil {
		return err
	}
	if err := r.checkWashTrading(recent, inst.Ticker, side, now); err != nil {
		return err
	}

	if side == model.OrderBuy {
		if err := r.checkPositionCap(tx, acct, inst, shares); err != nil {
			return err
		}
	} else {
		if err := r.checkHoldingPeriod(tx, acct, inst.Ticker, now); err != nil {
			return err
		}
	}
	return nil
}

// checkCadence 冷却时间与滚动分钟/小时限频
func (r *RuleEngine) checkCadence(recent []*model.Order, now time.Time) error {
	if len(recent) == 0 {
		return nil
	}
	// recent 按时间倒序
	if now.Sub(recent[0].CreatedAt) < r.cfg.TradeCooldown {
		return NewError(CodeRateLimited, "下单过于频繁，请稍后再试")
	}
	if len(recent) >= r.cfg.MaxTradesPerHour {
		return NewError(CodeRateLimited, "已达每小时 %d 笔的交易上限", r.cfg.MaxTradesPerHour)
	}
	minuteAgo := now.Add(-time.Minute)
	inMinute := 0
	for _, o := range recent {
		if o.CreatedAt.Before(minuteAgo) {
			break
		}
		inMinute++
	}
	if inMinute >= r.cfg.MaxTradesPerMinute {
		return NewError(CodeRateLimited, "已达每分钟 %d 笔的交易上限", r.cfg.MaxTradesPerMinute)
	}
	return nil
}

// checkWashTrading 窗口内同标的反向订单达到阈值即拒单
func (r *RuleEngine) checkWashTrading(recent []*model.Order, ticker string, side model.OrderSide, now time.Time) error {
	windowStart := now.Add(-r.cfg.WashWindow)
	opposite := 0
	for _, o := range recent {
		if o.CreatedAt.Before(windowStart) {
			break
		}
		if o.Ticker == ticker && o.Side != side {
			opposite++
		}
	}
	if opposite >= r.cfg.WashOppositeLimit {
		return NewError(CodeForbidden, "检测到对敲行为：%s 在 %s 内已有 %d 笔反向订单", ticker, r.cfg.WashWindow, opposite)
	}
	return nil
}

// checkPositionCap 买入后持仓不得超过有效供给的上限。
// 系统股供给视为无限，不设上限。
func (r *RuleEngine) checkPositionCap(tx Tx, acct Account, inst *model.Instrument, shares int64) error {
	if !inst.IsCompany() || inst.TotalShares <= 0 {
		return nil
	}
	effectiveSupply := inst.TotalShares - inst.OwnerShares
	if effectiveSupply <= 0 {
		return nil
	}
	var held int64
	if h, err := tx.GetHolding(acct.AccountID(), inst.Ticker); err != nil {
		return Internal(err)
	} else if h != nil {
		held = h.Shares
	}
	if float64(held+shares) > float64(effectiveSupply)*r.cfg.MaxPositionPercent {
		return NewError(CodeForbidden, "买入后持仓将超过 %s 有效供给的 %.0f%%",
			inst.Ticker, r.cfg.MaxPositionPercent*100)
	}
	return nil
}

// checkHoldingPeriod 最短持有期内禁止卖出，阻断秒级回转
func (r *RuleEngine) checkHoldingPeriod(tx Tx, acct Account, ticker string, now time.Time) error {
	h, err := tx.GetHolding(acct.AccountID(), ticker)
	if err != nil {
		return Internal(err)
	}
	if h == nil {
		return nil // 无持仓由台账报 InsufficientShares
	}
	if now.Sub(h.OpenedAt) < r.cfg.MinHoldingPeriod {
		return NewError(CodeRateLimited, "%s 开仓后 %s 内不可卖出", ticker, r.cfg.MinHoldingPeriod)
	}
	return nil
}

// checkPriceImpact 公司股的单笔名义金额不得超过市值的一定比例
func (r *RuleEngine) checkPriceImpact(inst *model.Instrument, shares int64) error {
	if !inst.IsCompany() {
		return nil
	}
	mcap := inst.MarketCap()
	if mcap <= 0 {
		return nil
	}
	notional := inst.CurrentPrice * float64(shares)
	if notional > mcap*r.cfg.MaxImpactPercent {
		return NewError(CodeForbidden, "单笔金额超过 %s 市值的 %.0f%%", inst.Ticker, r.cfg.MaxImpactPercent*100)
	}
	return nil
}
