// pkg/market/memstore.go
package market

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"TycoonExchange/pkg/model"
)

// MemStore 内存存储实现。单测与单机演练使用；
// 生产部署使用 pkg/database 的 PostgreSQL 实现。
// WithTx 以整库快照实现回滚：回调返回错误时恢复快照。
type MemStore struct {
	mu          sync.Mutex
	users       map[string]*model.User        // by ID
	instruments map[string]*model.Instrument  // by ticker
	holdings    map[string]*model.Holding     // by userID|ticker
	orders      []*model.Order                // 只追加
	events      map[string]*model.MarketEvent // by ID
	ipos        map[string]*model.IPOListing  // by userID
	bots        map[string]*model.TradingBot  // by ID
	payouts     []*model.DividendPayout       // 只追加
}

// NewMemStore 创建空的内存存储
func NewMemStore() *MemStore {
	return &MemStore{
		users:       make(map[string]*model.User),
		instruments: make(map[string]*model.Instrument),
		holdings:    make(map[string]*model.Holding),
		events:      make(map[string]*model.MarketEvent),
		ipos:        make(map[string]*model.IPOListing),
		bots:        make(map[string]*model.TradingBot),
	}
}

func holdingKey(userID, ticker string) string {
	return userID + "|" + ticker
}

// WithTx 在全局锁内执行回调，失败时恢复执行前的快照
func (m *MemStore) WithTx(fn func(tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn((*memTx)(m)); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type storeSnapshot struct {
	users       map[string]*model.User
	instruments map[string]*model.Instrument
	holdings    map[string]*model.Holding
	orders      []*model.Order
	events      map[string]*model.MarketEvent
	ipos        map[string]*model.IPOListing
	bots        map[string]*model.TradingBot
	payouts     []*model.DividendPayout
}

func (m *MemStore) snapshot() *storeSnapshot {
	s := &storeSnapshot{
		users:       make(map[string]*model.User, len(m.users)),
		instruments: make(map[string]*model.Instrument, len(m.instruments)),
		holdings:    make(map[string]*model.Holding, len(m.holdings)),
		orders:      append([]*model.Order(nil), m.orders...),
		events:      make(map[string]*model.MarketEvent, len(m.events)),
		ipos:        make(map[string]*model.IPOListing, len(m.ipos)),
		bots:        make(map[string]*model.TradingBot, len(m.bots)),
		payouts:     append([]*model.DividendPayout(nil), m.payouts...),
	}
	for k, v := range m.users {
		c := *v
		s.users[k] = &c
	}
	for k, v := range m.instruments {
		c := *v
		s.instruments[k] = &c
	}
	for k, v := range m.holdings {
		c := *v
		s.holdings[k] = &c
	}
	for k, v := range m.events {
		c := *v
		s.events[k] = &c
	}
	for k, v := range m.ipos {
		c := *v
		c.History = append([]model.IPOPricePoint(nil), v.History...)
		s.ipos[k] = &c
	}
	for k, v := range m.bots {
		c := *v
		s.bots[k] = &c
	}
	return s
}

func (m *MemStore) restore(s *storeSnapshot) {
	m.users = s.users
	m.instruments = s.instruments
	m.holdings = s.holdings
	m.orders = s.orders
	m.events = s.events
	m.ipos = s.ipos
	m.bots = s.bots
	m.payouts = s.payouts
}

// memTx 与 MemStore 共享底层数据，仅在 WithTx 的锁内使用
type memTx MemStore

// ----- 用户 -----

func (t *memTx) GetUser(id string) (*model.User, error) {
	u, ok := t.users[id]
	if !ok {
		return nil, nil
	}
	c := *u
	return &c, nil
}

func (t *memTx) GetUserByUsername(username string) (*model.User, error) {
	for _, u := range t.users {
		if u.Username == username {
			c := *u
			return &c, nil
		}
	}
	return nil, nil
}

func (t *memTx) SaveUser(u *model.User) error {
	if u.ID == "" {
		u.ID = uuid.New().String()
	}
	c := *u
	t.users[u.ID] = &c
	return nil
}

// ----- 标的 -----

func (t *memTx) GetInstrumentByTicker(ticker string) (*model.Instrument, error) {
	inst, ok := t.instruments[ticker]
	if !ok {
		return nil, nil
	}
	c := *inst
	return &c, nil
}

func (t *memTx) GetInstrumentByOwner(ownerID string) (*model.Instrument, error) {
	for _, inst := range t.instruments {
		if inst.OwnerID == ownerID {
			c := *inst
			return &c, nil
		}
	}
	return nil, nil
}

func (t *memTx) ListInstruments() ([]*model.Instrument, error) {
	out := make([]*model.Instrument, 0, len(t.instruments))
	for _, inst := range t.instruments {
		c := *inst
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (t *memTx) ListInstrumentsByKind(kind model.InstrumentKind) ([]*model.Instrument, error) {
	all, _ := t.ListInstruments()
	out := all[:0]
	for _, inst := range all {
		if inst.Kind == kind {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (t *memTx) SaveInstrument(inst *model.Instrument) error {
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	c := *inst
	t.instruments[inst.Ticker] = &c
	return nil
}

func (t *memTx) DeleteInstrument(ticker string) error {
	delete(t.instruments, ticker)
	return nil
}

// ----- 持仓 -----

func (t *memTx) GetHolding(userID, ticker string) (*model.Holding, error) {
	h, ok := t.holdings[holdingKey(userID, ticker)]
	if !ok {
		return nil, nil
	}
	c := *h
	return &c, nil
}

func (t *memTx) ListHoldingsByUser(userID string) ([]*model.Holding, error) {
	var out []*model.Holding
	for k, h := range t.holdings {
		if strings.HasPrefix(k, userID+"|") {
			c := *h
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ticker < out[j].Ticker })
	return out, nil
}

func (t *memTx) ListHoldingsByTicker(ticker string) ([]*model.Holding, error) {
	var out []*model.Holding
	for _, h := range t.holdings {
		if h.Ticker == ticker {
			c := *h
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (t *memTx) SaveHolding(h *model.Holding) error {
	if h.ID == "" {
		h.ID = uuid.New().String()
	}
	c := *h
	t.holdings[holdingKey(h.UserID, h.Ticker)] = &c
	return nil
}

func (t *memTx) DeleteHolding(userID, ticker string) error {
	delete(t.holdings, holdingKey(userID, ticker))
	return nil
}

// ----- 订单 -----

func (t *memTx) CreateOrder(o *model.Order) error {
	if o.ID == "" {
		o.ID = uuid.New().String()
	}
	c := *o
	t.orders = append(t.orders, &c)
	return nil
}

func (t *memTx) ListOrdersByUser(userID string, limit int) ([]*model.Order, error) {
	var out []*model.Order
	for i := len(t.orders) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if t.orders[i].UserID == userID {
			c := *t.orders[i]
			out = append(out, &c)
		}
	}
	return out, nil
}

func (t *memTx) ListUserOrdersSince(userID string, since time.Time) ([]*model.Order, error) {
	var out []*model.Order
	for i := len(t.orders) - 1; i >= 0; i-- {
		o := t.orders[i]
		if o.CreatedAt.Before(since) {
			continue
		}
		if o.UserID == userID {
			c := *o
			out = append(out, &c)
		}
	}
	return out, nil
}

// ----- 市场事件 -----

func (t *memTx) CreateEvent(ev *model.MarketEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.New().String()
	}
	c := *ev
	t.events[ev.ID] = &c
	return nil
}

func (t *memTx) SaveEvent(ev *model.MarketEvent) error {
	c := *ev
	t.events[ev.ID] = &c
	return nil
}

func (t *memTx) ListActiveEvents(now time.Time, limit int) ([]*model.MarketEvent, error) {
	var out []*model.MarketEvent
	for _, ev := range t.events {
		if ev.Active && !ev.Expired(now) {
			c := *ev
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (t *memTx) ActiveEventForTicker(ticker string, now time.Time) (*model.MarketEvent, error) {
	for _, ev := range t.events {
		if ev.Ticker == ticker && ev.Active && !ev.Expired(now) {
			c := *ev
			return &c, nil
		}
	}
	return nil, nil
}

func (t *memTx) DeactivateExpiredEvents(now time.Time) (int64, error) {
	var n int64
	for _, ev := range t.events {
		if ev.Active && ev.Expired(now) {
			ev.Active = false
			n++
		}
	}
	return n, nil
}

// ----- IPO -----

func (t *memTx) GetIPOByUser(userID string) (*model.IPOListing, error) {
	l, ok := t.ipos[userID]
	if !ok {
		return nil, nil
	}
	c := *l
	c.History = append([]model.IPOPricePoint(nil), l.History...)
	return &c, nil
}

func (t *memTx) SaveIPO(l *model.IPOListing) error {
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	c := *l
	c.History = append([]model.IPOPricePoint(nil), l.History...)
	t.ipos[l.UserID] = &c
	return nil
}

func (t *memTx) DeleteIPOByUser(userID string) error {
	delete(t.ipos, userID)
	return nil
}

// ----- 机器人 -----

func (t *memTx) GetBot(id string) (*model.TradingBot, error) {
	b, ok := t.bots[id]
	if !ok {
		return nil, nil
	}
	c := *b
	return &c, nil
}

func (t *memTx) ListBots() ([]*model.TradingBot, error) {
	out := make([]*model.TradingBot, 0, len(t.bots))
	for _, b := range t.bots {
		c := *b
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (t *memTx) SaveBot(b *model.TradingBot) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	c := *b
	t.bots[b.ID] = &c
	return nil
}

func (t *memTx) CountBots() (int64, error) {
	return int64(len(t.bots)), nil
}

// ----- 分红 -----

func (t *memTx) CreateDividendPayout(p *model.DividendPayout) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	c := *p
	t.payouts = append(t.payouts, &c)
	return nil
}

// 直接调用（非事务）时逐方法加锁后委托给 memTx

func (m *MemStore) locked(fn func(tx *memTx)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fn((*memTx)(m))
}

func (m *MemStore) GetUser(id string) (u *model.User, err error) {
	m.locked(func(tx *memTx) { u, err = tx.GetUser(id) })
	return
}

func (m *MemStore) GetUserByUsername(username string) (u *model.User, err error) {
	m.locked(func(tx *memTx) { u, err = tx.GetUserByUsername(username) })
	return
}

func (m *MemStore) SaveUser(u *model.User) (err error) {
	m.locked(func(tx *memTx) { err = tx.SaveUser(u) })
	return
}

func (m *MemStore) GetInstrumentByTicker(ticker string) (inst *model.Instrument, err error) {
	m.locked(func(tx *memTx) { inst, err = tx.GetInstrumentByTicker(ticker) })
	return
}

func (m *MemStore) GetInstrumentByOwner(ownerID string) (inst *model.Instrument, err error) {
	m.locked(func(tx *memTx) { inst, err = tx.GetInstrumentByOwner(ownerID) })
	return
}

func (m *MemStore) ListInstruments() (out []*model.Instrument, err error) {
	m.locked(func(tx *memTx) { out, err = tx.ListInstruments() })
	return
}

func (m *MemStore) ListInstrumentsByKind(kind model.InstrumentKind) (out []*model.Instrument, err error) {
	m.locked(func(tx *memTx) { out, err = tx.ListInstrumentsByKind(kind) })
	return
}

func (m *MemStore) SaveInstrument(inst *model.Instrument) (err error) {
	m.locked(func(tx *memTx) { err = tx.SaveInstrument(inst) })
	return
}

func (m *MemStore) DeleteInstrument(ticker string) (err error) {
	m.locked(func(tx *memTx) { err = tx.DeleteInstrument(ticker) })
	return
}

func (m *MemStore) GetHolding(userID, ticker string) (h *model.Holding, err error) {
	m.locked(func(tx *memTx) { h, err = tx.GetHolding(userID, ticker) })
	return
}

func (m *MemStore) ListHoldingsByUser(userID string) (out []*model.Holding, err error) {
	m.locked(func(tx *memTx) { out, err = tx.ListHoldingsByUser(userID) })
	return
}

func (m *MemStore) ListHoldingsByTicker(ticker string) (out []*model.Holding, err error) {
	m.locked(func(tx *memTx) { out, err = tx.ListHoldingsByTicker(ticker) })
	return
}

func (m *MemStore) SaveHolding(h *model.Holding) (err error) {
	m.locked(func(tx *memTx) { err = tx.SaveHolding(h) })
	return
}

func (m *MemStore) DeleteHolding(userID, ticker string) (err error) {
	m.locked(func(tx *memTx) { err = tx.DeleteHolding(userID, ticker) })
	return
}

func (m *MemStore) CreateOrder(o *model.Order) (err error) {
	m.locked(func(tx *memTx) { err = tx.CreateOrder(o) })
	return
}

func (m *MemStore) ListOrdersByUser(userID string, limit int) (out []*model.Order, err error) {
	m.locked(func(tx *memTx) { out, err = tx.ListOrdersByUser(userID, limit) })
	return
}

func (m *MemStore) ListUserOrdersSince(userID string, since time.Time) (out []*model.Order, err error) {
	m.locked(func(tx *memTx) { out, err = tx.ListUserOrdersSince(userID, since) })
	return
}

func (m *MemStore) CreateEvent(ev *model.MarketEvent) (err error) {
	m.locked(func(tx *memTx) { err = tx.CreateEvent(ev) })
	return
}

func (m *MemStore) SaveEvent(ev *model.MarketEvent) (err error) {
	m.locked(func(tx *memTx) { err = tx.SaveEvent(ev) })
	return
}

func (m *MemStore) ListActiveEvents(now time.Time, limit int) (out []*model.MarketEvent, err error) {
	m.locked(func(tx *memTx) { out, err = tx.ListActiveEvents(now, limit) })
	return
}

func (m *MemStore) ActiveEventForTicker(ticker string, now time.Time) (ev *model.MarketEvent, err error) {
	m.locked(func(tx *memTx) { ev, err = tx.ActiveEventForTicker(ticker, now) })
	return
}

func (m *MemStore) DeactivateExpiredEvents(now time.Time) (n int64, err error) {
	m.locked(func(tx *memTx) { n, err = tx.DeactivateExpiredEvents(now) })
	return
}

func (m *MemStore) GetIPOByUser(userID string) (l *model.IPOListing, err error) {
	m.locked(func(tx *memTx) { l, err = tx.GetIPOByUser(userID) })
	return
}

func (m *MemStore) SaveIPO(l *model.IPOListing) (err error) {
	m.locked(func(tx *memTx) { err = tx.SaveIPO(l) })
	return
}

func (m *MemStore) DeleteIPOByUser(userID string) (err error) {
	m.locked(func(tx *memTx) { err = tx.DeleteIPOByUser(userID) })
	return
}

func (m *MemStore) GetBot(id string) (b *model.TradingBot, err error) {
	m.locked(func(tx *memTx) { b, err = tx.GetBot(id) })
	return
}

func (m *MemStore) ListBots() (out []*model.TradingBot, err error) {
	m.locked(func(tx *memTx) { out, err = tx.ListBots() })
	return
}

func (m *MemStore) SaveBot(b *model.TradingBot) (err error) {
	m.locked(func(tx *memTx) { err = tx.SaveBot(b) })
	return
}

func (m *MemStore) CountBots() (n int64, err error) {
	m.locked(func(tx *memTx) { n, err = tx.CountBots() })
	return
}

func (m *MemStore) CreateDividendPayout(p *model.DividendPayout) (err error) {
	m.locked(func(tx *memTx) { err = tx.CreateDividendPayout(p) })
	return
}

// Payouts 返回全部分红流水（测试用）
func (m *MemStore) Payouts() []*model.DividendPayout {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.DividendPayout(nil), m.payouts...)
}
