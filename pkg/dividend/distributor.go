// pkg/dividend/distributor.go
package dividend

import (
	"log"
	"time"

	"github.com/shopspring/decimal"

	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/model"
)

// Config 分红参数
type Config struct {
	OwnerRate     float64 // 公司股东家：净资产的日分红比例
	BaseYield     float64 // 持仓分红的基础日收益率
	MaxYield      float64 // 持仓分红的收益率上限
	ChangeBoost   float64 // 24小时正涨幅对收益率的加成系数
	DustThreshold float64 // 低于该金额的分红直接跳过，不累计
}

// DefaultConfig 参考部署的分红参数
func DefaultConfig() Config {
	return Config{
		OwnerRate:     0.001,
		BaseYield:     0.0005,
		MaxYield:      0.005,
		ChangeBoost:   0.0002,
		DustThreshold: 0.01,
	}
}

// Summary 一次分红任务的汇总
type Summary struct {
	OwnerPayouts       int             `json:"owner_payouts"`
	ShareholderPayouts int             `json:"shareholder_payouts"`
	Skipped            int             `json:"skipped"`
	TotalAmount        decimal.Decimal `json:"total_amount"`
}

// Distributor 定期分红：公司股东家按净资产比例，
// 持仓股东按 基础..上限 区间内的收益率，正涨幅加成。
type Distributor struct {
	store market.Store
	pub   market.Publisher
	cfg   Config
	now   func() time.Time
}

// Option 分发器可选项
type Option func(*Distributor)

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(d *Distributor) { d.now = now }
}

// NewDistributor 创建分红分发器
func NewDistributor(store market.Store, pub market.Publisher, cfg Config, opts ...Option) *Distributor {
	if pub == nil {
		pub = market.NopPublisher{}
	}
	d := &Distributor{store: store, pub: pub, cfg: cfg, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// ProcessDailyDividends 执行一轮分红。
// 每笔分红同时是一次现金入账和一条不可变流水；
// 低于尘埃阈值的直接跳过，不做累计。
func (d *Distributor) ProcessDailyDividends() (*Summary, error) {
	now := d.now()
	summary := &Summary{TotalAmount: decimal.Zero}
	var payouts []*model.DividendPayout

	err := d.store.WithTx(func(tx market.Tx) error {
		ownerPayouts, err := d.payOwners(tx, now, summary)
		if err != nil {
			return err
		}
		holderPayouts, err := d.payShareholders(tx, now, summary)
		if err != nil {
			return err
		}
		payouts = append(ownerPayouts, holderPayouts...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	// 提交后再发布，避免消费者看到被回滚的分红
	for _, p := range payouts {
		if err := d.pub.PublishDividend(p); err != nil {
			log.Printf("发布分红消息失败: user=%s amount=%s err=%v", p.UserID, p.Amount, err)
		}
	}
	log.Printf("分红完成: 股东家%d笔 持仓%d笔 跳过%d笔 合计%s",
		summary.OwnerPayouts, summary.ShareholderPayouts, summary.Skipped, summary.TotalAmount)
	return summary, nil
}

// payOwners 公司股东家分红：净资产代理值的固定比例
func (d *Distributor) payOwners(tx market.Tx, now time.Time, summary *Summary) ([]*model.DividendPayout, error) {
	companies, err := tx.ListInstrumentsByKind(model.InstrumentCompany)
	if err != nil {
		return nil, market.Internal(err)
	}

	var payouts []*model.DividendPayout
	for _, inst := range companies {
		owner, err := tx.GetUser(inst.OwnerID)
		if err != nil {
			return nil, market.Internal(err)
		}
		if owner == nil || owner.Status != 1 {
			continue
		}

		amount := owner.NetWorth.Mul(decimal.NewFromFloat(d.cfg.OwnerRate)).Round(2)
		if amount.LessThan(decimal.NewFromFloat(d.cfg.DustThreshold)) {
			summary.Skipped++
			continue
		}

		owner.Cash = owner.Cash.Add(amount)
		if err := tx.SaveUser(owner); err != nil {
			return nil, market.Internal(err)
		}
		payout := &model.DividendPayout{
			UserID:     owner.ID,
			Type:       model.PayoutOwner,
			Ticker:     inst.Ticker,
			Shares:     inst.OwnerShares,
			Rate:       d.cfg.OwnerRate,
			Amount:     amount,
			PayoutDate: now,
		}
		if err := tx.CreateDividendPayout(payout); err != nil {
			return nil, market.Internal(err)
		}
		payouts = append(payouts, payout)
		summary.OwnerPayouts++
		summary.TotalAmount = summary.TotalAmount.Add(amount)
	}
	return payouts, nil
}

// payShareholders 持仓分红：每个非零持仓按当日收益率计息。
// 收益率 = 基础 + 正涨幅×加成系数，封顶于上限；下跌不惩罚。
func (d *Distributor) payShareholders(tx market.Tx, now time.Time, summary *Summary) ([]*model.DividendPayout, error) {
	instruments, err := tx.ListInstruments()
	if err != nil {
		return nil, market.Internal(err)
	}

	var payouts []*model.DividendPayout
	for _, inst := range instruments {
		yield := d.yieldFor(inst)
		holdings, err := tx.ListHoldingsByTicker(inst.Ticker)
		if err != nil {
			return nil, market.Internal(err)
		}
		for _, h := range holdings {
			if h.Shares <= 0 {
				continue
			}
			value := decimal.NewFromFloat(inst.CurrentPrice).
				Mul(decimal.NewFromInt(h.Shares))
			amount := value.Mul(decimal.NewFromFloat(yield)).Round(2)
			if amount.LessThan(decimal.NewFromFloat(d.cfg.DustThreshold)) {
				summary.Skipped++
				continue
			}

			if err := d.credit(tx, h.UserID, amount); err != nil {
				return nil, err
			}
			payout := &model.DividendPayout{
				UserID:     h.UserID,
				Type:       model.PayoutShareholder,
				Ticker:     inst.Ticker,
				Shares:     h.Shares,
				Rate:       yield,
				Amount:     amount,
				PayoutDate: now,
			}
			if err := tx.CreateDividendPayout(payout); err != nil {
				return nil, market.Internal(err)
			}
			payouts = append(payouts, payout)
			summary.ShareholderPayouts++
			summary.TotalAmount = summary.TotalAmount.Add(amount)
		}
	}
	return payouts, nil
}

// yieldFor 按24小时涨幅算当日收益率，只加成不惩罚
func (d *Distributor) yieldFor(inst *model.Instrument) float64 {
	yield := d.cfg.BaseYield
	if change := inst.ChangePercent(); change > 0 {
		yield += change * d.cfg.ChangeBoost
	}
	if yield > d.cfg.MaxYield {
		yield = d.cfg.MaxYield
	}
	return yield
}

// credit 给持仓方入账，持仓方可能是玩家也可能是机器人
func (d *Distributor) credit(tx market.Tx, holderID string, amount decimal.Decimal) error {
	user, err := tx.GetUser(holderID)
	if err != nil {
		return market.Internal(err)
	}
	if user != nil {
		user.Cash = user.Cash.Add(amount)
		if err := tx.SaveUser(user); err != nil {
			return market.Internal(err)
		}
		return nil
	}

	bot, err := tx.GetBot(holderID)
	if err != nil {
		return market.Internal(err)
	}
	if bot == nil {
		// 持仓方已不存在，跳过入账但保留流水缺口在日志里
		log.Printf("分红入账失败: 持仓方不存在 id=%s amount=%s", holderID, amount)
		return nil
	}
	bot.Cash = bot.Cash.Add(amount)
	if err := tx.SaveBot(bot); err != nil {
		return market.Internal(err)
	}
	return nil
}
