// pkg/bots/engine.go
package bots

import (
	"log"
	"sort"
	"time"

	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/model"
)

// Config 机器人引擎参数
type Config struct {
	HistoryLen     int           // 每标的保留的近期观测价数量
	MaxConfidence  float64       // 加成后的执行概率上限
	SectorBoost    float64       // 板块契合的确信度加成
	EventBoost     float64       // 活跃事件的确信度加成
	RebalanceEvery time.Duration // 再平衡周期
	TakeProfitPct  float64       // 止盈阈值（0.25 = +25%）
	CutLossPct     float64       // 止损阈值（0.20 = -20%）
	RebalanceFrac  float64       // 每轮再平衡处理的持仓比例
}

// DefaultConfig 参考部署的机器人参数
func DefaultConfig() Config {
	return Config{
		HistoryLen:     20,
		MaxConfidence:  0.95,
		SectorBoost:    0.10,
		EventBoost:     0.15,
		RebalanceEvery: 10 * time.Minute,
		TakeProfitPct:  0.25,
		CutLossPct:     0.20,
		RebalanceFrac:  0.34,
	}
}

// Engine 机器人决策引擎。每轮只评估节奏已到的角色；
// 单个机器人出错只记日志跳过，绝不拖垮整轮或其他标的。
type Engine struct {
	store  market.Store
	ledger *market.Ledger
	cfg    Config
	now    func() time.Time

	// 进程内行情记忆：ticker -> 近期观测价（动量/波动策略输入）
	history       map[string][]float64
	lastRebalance time.Time
}

// Option 引擎可选项
type Option func(*Engine)

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine 创建机器人引擎
func NewEngine(store market.Store, ledger *market.Ledger, cfg Config, opts ...Option) *Engine {
	e := &Engine{
		store:   store,
		ledger:  ledger,
		cfg:     cfg,
		now:     time.Now,
		history: make(map[string][]float64),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunCycle 跑一轮机器人决策。调用方保证各轮之间不重叠。
func (e *Engine) RunCycle() error {
	now := e.now()

	snapshots, err := e.collectSnapshots(now)
	if err != nil {
		return err
	}
	if len(snapshots) == 0 {
		return nil
	}

	bots, err := e.store.ListBots()
	if err != nil {
		return market.Internal(err)
	}

	rng := market.NewTickRand("bot-cycle", now.Unix())
	for _, bot := range bots {
		if !bot.DueAt(now) {
			continue
		}
		if err := e.runBot(bot, snapshots, rng, now); err != nil {
			// 单机器人失败不影响本轮其余角色
			log.Printf("机器人 %s 本轮交易失败: %v", bot.Name, err)
		}
	}

	if now.Sub(e.lastRebalance) >= e.cfg.RebalanceEvery {
		e.lastRebalance = now
		if err := e.rebalance(bots, snapshots, rng, now); err != nil {
			log.Printf("机器人再平衡失败: %v", err)
		}
	}
	return nil
}

// collectSnapshots 采集全市场快照并滚动更新价格记忆
func (e *Engine) collectSnapshots(now time.Time) (map[string]Snapshot, error) {
	snapshots := make(map[string]Snapshot)
	err := e.store.WithTx(func(tx market.Tx) error {
		instruments, err := tx.ListInstruments()
		if err != nil {
			return market.Internal(err)
		}
		for _, inst := range instruments {
			hist := append(e.history[inst.Ticker], inst.CurrentPrice)
			if len(hist) > e.cfg.HistoryLen {
				hist = hist[len(hist)-e.cfg.HistoryLen:]
			}
			e.history[inst.Ticker] = hist

			ev, err := tx.ActiveEventForTicker(inst.Ticker, now)
			if err != nil {
				return market.Internal(err)
			}
			anchor := inst.BasePrice
			if inst.IsCompany() {
				anchor = inst.PreviousClose
			}
			snapshots[inst.Ticker] = Snapshot{
				Ticker:        inst.Ticker,
				Price:         inst.CurrentPrice,
				BasePrice:     anchor,
				ChangePercent: inst.ChangePercent(),
				Volume24h:     inst.Volume24h,
				Trend:         inst.Trend,
				TrendStrength: inst.TrendStrength,
				High24h:       inst.High24h,
				Low24h:        inst.Low24h,
				IsCompany:     inst.IsCompany(),
				Sector:        inst.Sector,
				RecentPrices:  append([]float64(nil), hist...),
				Event:         ev,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return snapshots, nil
}

// runBot 评估并（按概率）执行一个机器人的决策，独立事务
func (e *Engine) runBot(bot *model.TradingBot, snapshots map[string]Snapshot, rng *market.LCG, now time.Time) error {
	strategy := StrategyFor(bot.Strategy)
	if strategy == nil {
		log.Printf("机器人 %s 持有未知策略 %s，跳过", bot.Name, bot.Strategy)
		return nil
	}

	snap, ok := e.pickTarget(bot, snapshots, rng)
	if !ok {
		return nil
	}

	return e.store.WithTx(func(tx market.Tx) error {
		// 事务内重新读取，读取-校验-写入保持在同一作用域
		fresh, err := tx.GetBot(bot.ID)
		if err != nil {
			return market.Internal(err)
		}
		if fresh == nil {
			return nil
		}
		holding, err := tx.GetHolding(fresh.ID, snap.Ticker)
		if err != nil {
			return market.Internal(err)
		}

		decision := strategy(snap, holding, fresh.Cash, fresh)
		if decision.Action == ActionHold || decision.Shares <= 0 {
			return nil
		}

		confidence := e.boostConfidence(decision.Confidence, fresh, snap)
		if rng.Float64() >= confidence {
			return nil
		}

		inst, err := tx.GetInstrumentByTicker(snap.Ticker)
		if err != nil {
			return market.Internal(err)
		}
		if inst == nil {
			return nil
		}

		acct := market.BotAccount{Bot: fresh}
		if decision.Action == ActionBuy {
			_, err = e.ledger.Buy(tx, acct, inst, decision.Shares, now)
		} else {
			_, err = e.ledger.Sell(tx, acct, inst, decision.Shares, now)
		}
		if err != nil {
			// 停牌、供给不足等属于正常拒单，轻量记录后放行
			if market.IsCode(err, market.CodeMarketHalted) || market.IsCode(err, market.CodeValidation) ||
				market.IsCode(err, market.CodeInsufficientFunds) || market.IsCode(err, market.CodeInsufficientShares) ||
				market.IsCode(err, market.CodeForbidden) {
				log.Printf("机器人 %s 订单被拒: %v", fresh.Name, err)
				return nil
			}
			return err
		}

		fresh.LastTradeAt = now
		if err := tx.SaveBot(fresh); err != nil {
			return market.Internal(err)
		}
		log.Printf("机器人 %s %s %s %d股（%s）", fresh.Name, decision.Action, snap.Ticker, decision.Shares, decision.Reason)
		return nil
	})
}

// pickTarget 选择候选标的：激进角色优先猎取有事件的标的，
// 其次板块契合，否则随机
func (e *Engine) pickTarget(bot *model.TradingBot, snapshots map[string]Snapshot, rng *market.LCG) (Snapshot, bool) {
	tickers := make([]string, 0, len(snapshots))
	for t := range snapshots {
		tickers = append(tickers, t)
	}
	if len(tickers) == 0 {
		return Snapshot{}, false
	}
	sort.Strings(tickers)

	if bot.Personality == model.PersonalityAggressive {
		for _, t := range tickers {
			if snapshots[t].Event != nil {
				return snapshots[t], true
			}
		}
	}
	if bot.SectorFocus != "" {
		var matched []string
		for _, t := range tickers {
			if snapshots[t].Sector == bot.SectorFocus {
				matched = append(matched, t)
			}
		}
		if len(matched) > 0 && rng.Float64() < 0.7 {
			return snapshots[matched[rng.IntN(len(matched))]], true
		}
	}
	return snapshots[tickers[rng.IntN(len(tickers))]], true
}

// boostConfidence 板块契合与活跃事件抬高执行概率，封顶
func (e *Engine) boostConfidence(base float64, bot *model.TradingBot, snap Snapshot) float64 {
	c := base
	if bot.SectorFocus != "" && bot.SectorFocus == snap.Sector {
		c += e.cfg.SectorBoost
	}
	if snap.Event != nil {
		c += e.cfg.EventBoost
	}
	if c > e.cfg.MaxConfidence {
		c = e.cfg.MaxConfidence
	}
	return c
}
