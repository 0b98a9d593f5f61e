// pkg/dividend/distributor_test.go
package dividend

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/model"
)

func newTestDistributor(store *market.MemStore, clock *time.Time) *Distributor {
	return NewDistributor(store, nil, DefaultConfig(), WithClock(func() time.Time { return *clock }))
}

func seedUser(t *testing.T, store *market.MemStore, id string, cash, netWorth int64) *model.User {
	t.Helper()
	u := &model.User{
		ID:       id,
		Username: id,
		Cash:     decimal.NewFromInt(cash),
		NetWorth: decimal.NewFromInt(netWorth),
		Status:   1,
	}
	require.NoError(t, store.SaveUser(u))
	return u
}

func seedStock(t *testing.T, store *market.MemStore, ticker string, kind model.InstrumentKind, price, prevClose float64, ownerID string) *model.Instrument {
	t.Helper()
	inst := &model.Instrument{
		Ticker:        ticker,
		Name:          ticker,
		Kind:          kind,
		CurrentPrice:  price,
		PreviousClose: prevClose,
		OwnerID:       ownerID,
		TotalShares:   1_000_000,
		FloatShares:   1_000_000,
	}
	require.NoError(t, store.SaveInstrument(inst))
	return inst
}

func seedHolding(t *testing.T, store *market.MemStore, holderID, ticker string, shares int64) {
	t.Helper()
	require.NoError(t, store.SaveHolding(&model.Holding{
		UserID:        holderID,
		Ticker:        ticker,
		Shares:        shares,
		AvgBuyPrice:   decimal.NewFromInt(10),
		TotalInvested: decimal.NewFromInt(10 * shares),
	}))
}

func TestOwnerDividend(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	d := newTestDistributor(store, &now)

	seedUser(t, store, "owner", 1_000, 500_000)
	seedStock(t, store, "ACME", model.InstrumentCompany, 50.00, 50.00, "owner")

	summary, err := d.ProcessDailyDividends()
	require.NoError(t, err)
	assert.Equal(t, 1, summary.OwnerPayouts)

	// 500000 * 0.001 = 500
	fresh, err := store.GetUser("owner")
	require.NoError(t, err)
	assert.Equal(t, "1500.00", fresh.Cash.StringFixed(2))

	payouts := store.Payouts()
	require.Len(t, payouts, 1)
	assert.Equal(t, model.PayoutOwner, payouts[0].Type)
	assert.Equal(t, "ACME", payouts[0].Ticker)
	assert.Equal(t, "500.00", payouts[0].Amount.StringFixed(2))
}

func TestOwnerDividendSkipsDisabledOwner(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	d := newTestDistributor(store, &now)

	owner := seedUser(t, store, "owner", 0, 500_000)
	owner.Status = 0
	require.NoError(t, store.SaveUser(owner))
	seedStock(t, store, "ACME", model.InstrumentCompany, 50.00, 50.00, "owner")

	summary, err := d.ProcessDailyDividends()
	require.NoError(t, err)
	assert.Equal(t, 0, summary.OwnerPayouts)
	assert.Empty(t, store.Payouts())
}

func TestShareholderYield(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	d := newTestDistributor(store, &now)

	flat := seedStock(t, store, "FLAT", model.InstrumentSystem, 100.00, 100.00, "")
	up := seedStock(t, store, "UPUP", model.InstrumentSystem, 110.00, 100.00, "")
	down := seedStock(t, store, "DOWN", model.InstrumentSystem, 90.00, 100.00, "")

	// 无涨幅：基础收益率；+10%：0.0005+10*0.0002=0.0025；下跌不惩罚
	assert.InDelta(t, 0.0005, d.yieldFor(flat), 1e-12)
	assert.InDelta(t, 0.0025, d.yieldFor(up), 1e-12)
	assert.InDelta(t, 0.0005, d.yieldFor(down), 1e-12)

	// 涨幅夸张时封顶 0.005
	moon := seedStock(t, store, "MOON", model.InstrumentSystem, 200.00, 100.00, "")
	assert.InDelta(t, 0.005, d.yieldFor(moon), 1e-12)
}

func TestShareholderDividendCreditsHolders(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	d := newTestDistributor(store, &now)

	seedUser(t, store, "holder", 0, 0)
	bot := &model.TradingBot{ID: "bot1", Name: "bot1", Cash: decimal.NewFromInt(0)}
	require.NoError(t, store.SaveBot(bot))

	// +10% 的标的，收益率 0.0025
	seedStock(t, store, "UPUP", model.InstrumentSystem, 110.00, 100.00, "")
	seedHolding(t, store, "holder", "UPUP", 1000)
	seedHolding(t, store, "bot1", "UPUP", 400)

	summary, err := d.ProcessDailyDividends()
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ShareholderPayouts)

	// 110 * 1000 * 0.0025 = 275.00
	u, err := store.GetUser("holder")
	require.NoError(t, err)
	assert.Equal(t, "275.00", u.Cash.StringFixed(2))

	// 110 * 400 * 0.0025 = 110.00
	b, err := store.GetBot("bot1")
	require.NoError(t, err)
	assert.Equal(t, "110.00", b.Cash.StringFixed(2))

	assert.Equal(t, "385.00", summary.TotalAmount.StringFixed(2))
}

func TestDustDividendSkipped(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	d := newTestDistributor(store, &now)

	seedUser(t, store, "holder", 0, 0)
	// 1股 * 0.05 * 0.0005 = 0.000025，不足一分钱
	seedStock(t, store, "PNNY", model.InstrumentSystem, 0.05, 0.05, "")
	seedHolding(t, store, "holder", "PNNY", 1)

	summary, err := d.ProcessDailyDividends()
	require.NoError(t, err)
	assert.Equal(t, 0, summary.ShareholderPayouts)
	assert.Equal(t, 1, summary.Skipped)

	u, err := store.GetUser("holder")
	require.NoError(t, err)
	assert.True(t, u.Cash.IsZero())
	assert.Empty(t, store.Payouts())
}

func TestMissingHolderDoesNotFailRun(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC)
	d := newTestDistributor(store, &now)

	seedStock(t, store, "UPUP", model.InstrumentSystem, 100.00, 100.00, "")
	seedHolding(t, store, "ghost", "UPUP", 1000)

	summary, err := d.ProcessDailyDividends()
	require.NoError(t, err)
	// 入账失败但流水仍然记账，整轮不中断
	assert.Equal(t, 1, summary.ShareholderPayouts)
}
