// pkg/market/service.go
package market

import (
	"log"
	"regexp"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"TycoonExchange/pkg/model"
)

// Publisher 市场侧消息发布接口，由 pkg/messaging 的NATS客户端实现。
// 发布失败只记录日志，不影响交易事务。
type Publisher interface {
	PublishMarketEvent(ev *model.MarketEvent) error
	PublishOrder(o *model.Order) error
	PublishDividend(p *model.DividendPayout) error
}

// NopPublisher 空实现，测试与无NATS部署使用
type NopPublisher struct{}

func (NopPublisher) PublishMarketEvent(*model.MarketEvent) error  { return nil }
func (NopPublisher) PublishOrder(*model.Order) error              { return nil }
func (NopPublisher) PublishDividend(*model.DividendPayout) error  { return nil }

var tickerPattern = regexp.MustCompile(`^[A-Z]{3,4}$`)

// ValidTicker 校验代码为3-4位大写字母
func ValidTicker(ticker string) bool {
	return tickerPattern.MatchString(ticker)
}

// keyedMutex 按ticker串行化懒惰补算，避免重复施加tick
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

func (k *keyedMutex) get(key string) *sync.Mutex {
	k.mu.Lock()
	defer k.mu.Unlock()
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	return m
}

// Service 市场核心对外门面。HTTP层与定时驱动只经由它访问各子系统。
type Service struct {
	store   Store
	ticks   *TickEngine
	ledger  *Ledger
	rules   *RuleEngine
	breaker *Breaker
	events  *EventGenerator
	pub     Publisher
	listing ListingConfig

	tickLocks *keyedMutex
	now       func() time.Time
}

// ServiceOption Service 可选项
type ServiceOption func(*Service)

// WithClock 注入时钟，测试用
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithListingConfig 覆盖上市/退市参数
func WithListingConfig(cfg ListingConfig) ServiceOption {
	return func(s *Service) { s.listing = cfg }
}

// NewService 组装市场核心
func NewService(store Store, ticks *TickEngine, rules *RuleEngine, breaker *Breaker, events *EventGenerator, pub Publisher, opts ...ServiceOption) *Service {
	s := &Service{
		store:     store,
		ticks:     ticks,
		ledger:    NewLedger(rules, breaker),
		rules:     rules,
		breaker:   breaker,
		events:    events,
		pub:       pub,
		listing:   DefaultListingConfig(),
		tickLocks: newKeyedMutex(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Breaker 暴露熔断控制器给协作方（机器人引擎等）
func (s *Service) Breaker() *Breaker { return s.breaker }

// Ledger 暴露台账给协作方
func (s *Service) Ledger() *Ledger { return s.ledger }

// catchUp 把单个标的推进到 now 并评估熔断。按ticker加锁串行。
// 返回触发的熔断事件（可能为nil）。
func (s *Service) catchUp(tx Tx, inst *model.Instrument, now time.Time) (*model.MarketEvent, error) {
	lock := s.tickLocks.get(inst.Ticker)
	lock.Lock()
	defer lock.Unlock()

	var ownerNetWorth float64
	if inst.IsCompany() && inst.OwnerID != "" {
		owner, err := tx.GetUser(inst.OwnerID)
		if err != nil {
			return nil, Internal(err)
		}
		if owner != nil {
			ownerNetWorth, _ = owner.NetWorth.Float64()
		}
	}

	event, err := tx.ActiveEventForTicker(inst.Ticker, now)
	if err != nil {
		return nil, Internal(err)
	}

	if n := s.ticks.CatchUp(inst, ownerNetWorth, event, now); n > 0 {
		if err := tx.SaveInstrument(inst); err != nil {
			return nil, Internal(err)
		}
	}

	// 停牌窗口写入进程内 HaltStore，熔断事件随事务落库；
	// 事务回滚时事件不会保留，而停牌仍持续到恢复时间。
	haltEvent := s.breaker.Observe(inst, now)
	if haltEvent != nil {
		if err := tx.CreateEvent(haltEvent); err != nil {
			return nil, Internal(err)
		}
	}
	return haltEvent, nil
}

// GetMarketStocks 全市场行情。读取本身触发懒惰补算。
func (s *Service) GetMarketStocks() ([]*StockView, error) {
	now := s.now()
	var views []*StockView
	var haltEvents []*model.MarketEvent
	err := s.store.WithTx(func(tx Tx) error {
		instruments, err := tx.ListInstruments()
		if err != nil {
			return Internal(err)
		}
		for _, inst := range instruments {
			he, err := s.catchUp(tx, inst, now)
			if err != nil {
				return err
			}
			if he != nil {
				haltEvents = append(haltEvents, he)
			}
			views = append(views, s.viewWithHalt(inst, now))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents(haltEvents)
	return views, nil
}

// GetStockByTicker 单标的行情
func (s *Service) GetStockByTicker(ticker string) (*StockView, error) {
	if !ValidTicker(ticker) {
		return nil, NewError(CodeValidation, "无效的股票代码: %q", ticker)
	}
	now := s.now()
	var view *StockView
	var haltEvent *model.MarketEvent
	err := s.store.WithTx(func(tx Tx) error {
		inst, err := tx.GetInstrumentByTicker(ticker)
		if err != nil {
			return Internal(err)
		}
		if inst == nil {
			return NewError(CodeNotFound, "股票 %s 不存在", ticker)
		}
		haltEvent, err = s.catchUp(tx, inst, now)
		if err != nil {
			return err
		}
		view = s.viewWithHalt(inst, now)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if haltEvent != nil {
		s.publishEvents([]*model.MarketEvent{haltEvent})
	}
	return view, nil
}

// BuyShares 用户买入
func (s *Service) BuyShares(userID, ticker string, shares int64) (*OrderView, error) {
	return s.trade(userID, ticker, shares, model.OrderBuy)
}

// SellShares 用户卖出
func (s *Service) SellShares(userID, ticker string, shares int64) (*OrderView, error) {
	return s.trade(userID, ticker, shares, model.OrderSell)
}

func (s *Service) trade(userID, ticker string, shares int64, side model.OrderSide) (*OrderView, error) {
	if !ValidTicker(ticker) {
		return nil, NewError(CodeValidation, "无效的股票代码: %q", ticker)
	}
	if userID == "" {
		return nil, NewError(CodeValidation, "缺少用户ID")
	}
	now := s.now()
	var order *model.Order
	err := s.store.WithTx(func(tx Tx) error {
		user, err := tx.GetUser(userID)
		if err != nil {
			return Internal(err)
		}
		if user == nil {
			return NewError(CodeNotFound, "用户不存在")
		}
		inst, err := tx.GetInstrumentByTicker(ticker)
		if err != nil {
			return Internal(err)
		}
		if inst == nil {
			return NewError(CodeNotFound, "股票 %s 不存在", ticker)
		}
		// 成交前先把价格补算到当前时刻
		if _, err := s.catchUp(tx, inst, now); err != nil {
			return err
		}
		acct := UserAccount{User: user}
		if side == model.OrderBuy {
			order, err = s.ledger.Buy(tx, acct, inst, shares, now)
		} else {
			order, err = s.ledger.Sell(tx, acct, inst, shares, now)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.pub.PublishOrder(order); err != nil {
		log.Printf("发布订单消息失败: %v", err)
	}
	return orderView(order), nil
}

// GetPortfolio 用户持仓组合
func (s *Service) GetPortfolio(userID string) (*PortfolioView, error) {
	now := s.now()
	var view *PortfolioView
	err := s.store.WithTx(func(tx Tx) error {
		user, err := tx.GetUser(userID)
		if err != nil {
			return Internal(err)
		}
		if user == nil {
			return NewError(CodeNotFound, "用户不存在")
		}
		holdings, err := tx.ListHoldingsByUser(userID)
		if err != nil {
			return Internal(err)
		}
		view = &PortfolioView{
			UserID:    userID,
			Cash:      user.Cash.StringFixed(2),
			Positions: make([]PositionView, 0, len(holdings)),
		}
		total := user.Cash
		for _, h := range holdings {
			inst, err := tx.GetInstrumentByTicker(h.Ticker)
			if err != nil {
				return Internal(err)
			}
			price := 0.0
			if inst != nil {
				if _, err := s.catchUp(tx, inst, now); err != nil {
					return err
				}
				price = inst.CurrentPrice
			}
			mv := decimal.NewFromFloat(price).Round(2).Mul(decimal.NewFromInt(h.Shares))
			total = total.Add(mv)
			view.Positions = append(view.Positions, PositionView{
				Ticker:        h.Ticker,
				Shares:        h.Shares,
				AvgBuyPrice:   h.AvgBuyPrice.StringFixed(2),
				TotalInvested: h.TotalInvested.StringFixed(2),
				CurrentPrice:  money(price),
				MarketValue:   mv.StringFixed(2),
				UnrealizedPct: h.UnrealizedPercent(price),
			})
		}
		view.TotalValue = total.StringFixed(2)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// GetOrderHistory 用户订单历史，时间倒序
func (s *Service) GetOrderHistory(userID string, limit int) ([]*OrderView, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var views []*OrderView
	err := s.store.WithTx(func(tx Tx) error {
		orders, err := tx.ListOrdersByUser(userID, limit)
		if err != nil {
			return Internal(err)
		}
		for _, o := range orders {
			views = append(views, orderView(o))
		}
		return nil
	})
	return views, err
}

// GetActiveEvents 活跃的市场事件。过期事件读取时即被排除。
func (s *Service) GetActiveEvents(limit int) ([]*EventView, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	now := s.now()
	var views []*EventView
	err := s.store.WithTx(func(tx Tx) error {
		events, err := tx.ListActiveEvents(now, limit)
		if err != nil {
			return Internal(err)
		}
		for _, ev := range events {
			views = append(views, eventView(ev))
		}
		return nil
	})
	return views, err
}

// GetCircuitBreakerStatus 熔断状态
func (s *Service) GetCircuitBreakerStatus() *BreakerStatusView {
	now := s.now()
	active := s.breaker.Status(now)
	view := &BreakerStatusView{Instruments: make(map[string]time.Time)}
	for ticker, until := range active {
		if ticker == MarketWideKey {
			view.MarketHalted = true
			t := until
			view.MarketResumesAt = &t
			continue
		}
		view.Instruments[ticker] = until
	}
	return view
}

// RunTickAndTradeCycle 定时驱动的tick周期：补算全部标的、
// 掷事件、评估全市场熔断、清扫过期事件。机器人决策由调度器在其后单独驱动。
func (s *Service) RunTickAndTradeCycle() error {
	now := s.now()
	var published []*model.MarketEvent
	err := s.store.WithTx(func(tx Tx) error {
		instruments, err := tx.ListInstruments()
		if err != nil {
			return Internal(err)
		}
		var sumChange float64
		var systemCount int
		for _, inst := range instruments {
			he, err := s.catchUp(tx, inst, now)
			if err != nil {
				return err
			}
			if he != nil {
				published = append(published, he)
			}
			if inst.Kind == model.InstrumentSystem {
				sumChange += inst.ChangePercent()
				systemCount++
			}
		}

		// 综合指数 = 系统股涨跌幅均值，只有下跌才触发全市场熔断
		if systemCount > 0 {
			avgChange := sumChange / float64(systemCount)
			if avgChange < 0 {
				if ev := s.breaker.ObserveIndex(-avgChange/100, now); ev != nil {
					if err := tx.CreateEvent(ev); err != nil {
						return Internal(err)
					}
					published = append(published, ev)
				}
			}
		}

		if ev, err := s.events.MaybeSpawn(tx, instruments, now); err != nil {
			return err
		} else if ev != nil {
			published = append(published, ev)
		}

		if _, err := s.events.Sweep(tx, now); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publishEvents(published)
	return nil
}

// RollDailyClose 日终归档：前收盘 = 现价，重置24小时区间与成交量。
// 由每日任务在分红之后调用，分红计算依赖当日相对前收盘的涨跌。
func (s *Service) RollDailyClose() error {
	return s.store.WithTx(func(tx Tx) error {
		instruments, err := tx.ListInstruments()
		if err != nil {
			return Internal(err)
		}
		for _, inst := range instruments {
			inst.PreviousClose = inst.CurrentPrice
			inst.High24h = inst.CurrentPrice
			inst.Low24h = inst.CurrentPrice
			inst.Volume24h = 0
			if err := tx.SaveInstrument(inst); err != nil {
				return Internal(err)
			}
		}
		return nil
	})
}

func (s *Service) viewWithHalt(inst *model.Instrument, now time.Time) *StockView {
	if until, ok := s.breaker.HaltedUntil(inst.Ticker, now); ok {
		return stockView(inst, &until)
	}
	return stockView(inst, nil)
}

func (s *Service) publishEvents(events []*model.MarketEvent) {
	for _, ev := range events {
		if err := s.pub.PublishMarketEvent(ev); err != nil {
			log.Printf("发布市场事件失败: %v", err)
		}
	}
}
