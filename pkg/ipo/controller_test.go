// pkg/ipo/controller_test.go
package ipo

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/model"
)

func newTestController(store *market.MemStore, clock *time.Time) *Controller {
	return NewController(store, DefaultConfig(), WithClock(func() time.Time { return *clock }))
}

func seedUser(t *testing.T, store *market.MemStore, id, username string, netWorth int64) *model.User {
	t.Helper()
	u := &model.User{
		ID:       id,
		Username: username,
		Cash:     decimal.NewFromInt(0),
		NetWorth: decimal.NewFromInt(netWorth),
		Status:   1,
	}
	require.NoError(t, store.SaveUser(u))
	return u
}

func TestDeriveTicker(t *testing.T) {
	cases := map[string]string{
		"moneybags": "MNYB", // 辅音优先
		"aeiou":     "AEIO", // 只有元音
		"bo":        "BOX",  // 不足3位补X
		"李雷7":       "XXX",  // 无可用字母
		"Zara-99":   "ZRAA", // 忽略非字母，辅音在前
	}
	for username, want := range cases {
		assert.Equal(t, want, DeriveTicker(username), "username=%q", username)
	}
}

func TestLaunchSetsPriceFromNetWorth(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	ctrl := newTestController(store, &now)
	seedUser(t, store, "u1", "moneybags", 1_000_000)

	view, err := ctrl.Launch("u1")
	require.NoError(t, err)

	// 发行价 = 净资产 / 10000
	assert.Equal(t, "100.00", view.IPOPrice)
	assert.Equal(t, "100.00", view.CurrentPrice)
	assert.Equal(t, "MNYB", view.Ticker)
	assert.Equal(t, int64(1000), view.BasePoints)
	assert.Equal(t, now.Add(8*time.Hour), view.ExpiresAt)
	require.Len(t, view.History, 1)
}

func TestLaunchGates(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	ctrl := newTestController(store, &now)
	seedUser(t, store, "poor", "poorguy", 50_000)
	seedUser(t, store, "rich", "richguy", 500_000)

	_, err := ctrl.Launch("poor")
	assert.Equal(t, market.CodeValidation, market.ErrCode(err))

	_, err = ctrl.Launch("ghost")
	assert.Equal(t, market.CodeNotFound, market.ErrCode(err))

	_, err = ctrl.Launch("rich")
	require.NoError(t, err)
	// 进行中的IPO不允许再上
	_, err = ctrl.Launch("rich")
	assert.Equal(t, market.CodeConflict, market.ErrCode(err))
}

func TestStatusAdvancesDeterministically(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	ctrl := newTestController(store, &now)
	seedUser(t, store, "u1", "moneybags", 1_000_000)

	_, err := ctrl.Launch("u1")
	require.NoError(t, err)

	now = now.Add(30 * time.Minute) // 6个5分钟tick
	view, err := ctrl.Status("u1")
	require.NoError(t, err)
	require.Len(t, view.History, 7) // 发行点 + 6个tick

	// 价格始终在发行价的 [0.70, 1.50] 带内
	for _, p := range view.History {
		assert.GreaterOrEqual(t, p.Price, 70.0-1e-9)
		assert.LessOrEqual(t, p.Price, 150.0+1e-9)
	}

	// 重复查询不再推进
	again, err := ctrl.Status("u1")
	require.NoError(t, err)
	assert.Equal(t, view.CurrentPrice, again.CurrentPrice)
	assert.Len(t, again.History, 7)
}

func TestCatchUpStopsAtExpiry(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	ctrl := newTestController(store, &now)

	listing := &model.IPOListing{
		UserID: "u1", Ticker: "MNYB",
		IPOPrice: 100, CurrentPrice: 100, High: 100, Low: 100,
		BasePoints: 1000, Trend: model.TrendNeutral,
		History:    []model.IPOPricePoint{{At: now, Price: 100}},
		Seed:       42,
		LastTickAt: now, StartsAt: now, ExpiresAt: now.Add(time.Hour),
	}
	// 到期后很久才补算，tick只推进到到期时刻
	ticks := ctrl.catchUp(listing, now.Add(48*time.Hour))
	assert.Equal(t, 12, ticks)
	assert.Equal(t, now.Add(time.Hour), listing.LastTickAt)
}

func TestSellSharesPaysMultiplier(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	ctrl := newTestController(store, &now)
	seedUser(t, store, "u1", "moneybags", 1_000_000)

	_, err := ctrl.Launch("u1")
	require.NoError(t, err)

	now = now.Add(time.Hour)
	status, err := ctrl.Status("u1")
	require.NoError(t, err)

	result, err := ctrl.SellShares("u1")
	require.NoError(t, err)
	assert.Equal(t, "MNYB", result.Ticker)
	assert.InDelta(t, status.Multiplier, result.Multiplier, 1e-9)
	assert.Equal(t, int64(float64(1000)*result.Multiplier), result.Points)

	// 奖励入账
	fresh, err := store.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, decimal.NewFromInt(result.Points).StringFixed(2), fresh.Cash.StringFixed(2))

	// 挂单已销毁
	_, err = ctrl.Status("u1")
	assert.Equal(t, market.CodeNotFound, market.ErrCode(err))
}

func TestCancelPaysBasePoints(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	ctrl := newTestController(store, &now)
	seedUser(t, store, "u1", "moneybags", 1_000_000)

	_, err := ctrl.Launch("u1")
	require.NoError(t, err)

	result, err := ctrl.Cancel("u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), result.Points)
	assert.InDelta(t, 1.0, result.Multiplier, 1e-9)

	fresh, err := store.GetUser("u1")
	require.NoError(t, err)
	assert.Equal(t, "1000.00", fresh.Cash.StringFixed(2))
}

func TestExpiredListingReadsAsAbsent(t *testing.T) {
	store := market.NewMemStore()
	now := time.Date(2026, 8, 26, 8, 0, 0, 0, time.UTC)
	ctrl := newTestController(store, &now)
	seedUser(t, store, "u1", "moneybags", 1_000_000)

	_, err := ctrl.Launch("u1")
	require.NoError(t, err)

	// 窗口结束后状态、出售、撤回一律 NotFound
	now = now.Add(9 * time.Hour)
	_, err = ctrl.Status("u1")
	assert.Equal(t, market.CodeNotFound, market.ErrCode(err))
	_, err = ctrl.SellShares("u1")
	assert.Equal(t, market.CodeNotFound, market.ErrCode(err))
	_, err = ctrl.Cancel("u1")
	assert.Equal(t, market.CodeNotFound, market.ErrCode(err))

	// 重新上市时清掉过期残留
	_, err = ctrl.Launch("u1")
	require.NoError(t, err)
	listing, err := store.GetIPOByUser("u1")
	require.NoError(t, err)
	require.NotNil(t, listing)
	assert.False(t, listing.Expired(now))
}
