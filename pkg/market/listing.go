// pkg/market/listing.go
package market

import (
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"TycoonExchange/pkg/model"
)

// ListingConfig 公司股上市与退市参数
type ListingConfig struct {
	DefaultTotalShares int64         // 未指定时的总股本
	DefaultOwnerPct    float64       // 未指定时东家保留比例
	CompanyVolatility  float64       // 公司股默认波动率
	MinNetWorth        float64       // 上市所需最低净资产
	MinListedPrice     float64       // 周检退市的价格下限
	OwnerInactiveAfter time.Duration // 东家不活跃超过该时长即退市
}

// DefaultListingConfig 参考部署的上市参数
func DefaultListingConfig() ListingConfig {
	return ListingConfig{
		DefaultTotalShares: 1_000_000,
		DefaultOwnerPct:    0,
		CompanyVolatility:  0.05,
		MinNetWorth:        100_000,
		MinListedPrice:     1.00,
		OwnerInactiveAfter: 14 * 24 * time.Hour,
	}
}

// ListParams 上市参数
type ListParams struct {
	TotalShares int64   `json:"total_shares"`
	OwnerPct    float64 `json:"owner_pct"` // 东家保留比例，0-0.9
}

// ListPlayerStock 玩家公司上市为公司股。
// 初始价与回归目标一致：净资产 / 除数。
func (s *Service) ListPlayerStock(userID, ticker, name string, params ListParams) (*StockView, error) {
	if !ValidTicker(ticker) {
		return nil, NewError(CodeValidation, "无效的股票代码: %q，须为3-4位大写字母", ticker)
	}
	if name == "" {
		return nil, NewError(CodeValidation, "缺少公司名称")
	}
	if params.OwnerPct < 0 || params.OwnerPct > 0.9 {
		return nil, NewError(CodeValidation, "东家保留比例须在 0 到 0.9 之间")
	}
	now := s.now()
	var view *StockView
	var listed *model.MarketEvent
	err := s.store.WithTx(func(tx Tx) error {
		user, err := tx.GetUser(userID)
		if err != nil {
			return Internal(err)
		}
		if user == nil {
			return NewError(CodeNotFound, "用户不存在")
		}
		netWorth, _ := user.NetWorth.Float64()
		if netWorth < s.listing.MinNetWorth {
			return NewError(CodeValidation, "净资产低于上市门槛 %s", money(s.listing.MinNetWorth))
		}
		if existing, err := tx.GetInstrumentByOwner(userID); err != nil {
			return Internal(err)
		} else if existing != nil {
			return NewError(CodeConflict, "已有上市公司 %s，不能重复上市", existing.Ticker)
		}
		if taken, err := tx.GetInstrumentByTicker(ticker); err != nil {
			return Internal(err)
		} else if taken != nil {
			return NewError(CodeConflict, "股票代码 %s 已被占用", ticker)
		}

		totalShares := params.TotalShares
		if totalShares <= 0 {
			totalShares = s.listing.DefaultTotalShares
		}
		ownerShares := int64(float64(totalShares) * params.OwnerPct)
		price := netWorth / s.ticks.cfg.NetWorthDivisor

		inst := &model.Instrument{
			Ticker:        ticker,
			Name:          name,
			Kind:          model.InstrumentCompany,
			CurrentPrice:  price,
			PreviousClose: price,
			High24h:       price,
			Low24h:        price,
			Trend:         model.TrendNeutral,
			Volatility:    s.listing.CompanyVolatility,
			OwnerID:       userID,
			TotalShares:   totalShares,
			FloatShares:   totalShares - ownerShares,
			OwnerShares:   ownerShares,
			LastTickAt:    now.Truncate(s.ticks.cfg.AverageInterval()),
		}
		if err := tx.SaveInstrument(inst); err != nil {
			return Internal(err)
		}

		listed = &model.MarketEvent{
			Type:      model.EventNewsPositive,
			Severity:  model.EventSeverityLow,
			Ticker:    ticker,
			Title:     fmt.Sprintf("%s 挂牌上市", ticker),
			Message:   fmt.Sprintf("%s 以每股 %s 上市，流通 %d 股", name, money(price), inst.FloatShares),
			Active:    true,
			CreatedAt: now,
			ExpiresAt: now.Add(5 * time.Minute),
		}
		if err := tx.CreateEvent(listed); err != nil {
			return Internal(err)
		}
		view = stockView(inst, nil)
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.publishEvents([]*model.MarketEvent{listed})
	return view, nil
}

// DelistPlayerStock 玩家主动退市：按现价回购公众持仓后删除标的
func (s *Service) DelistPlayerStock(userID string) error {
	now := s.now()
	var delisted *model.MarketEvent
	err := s.store.WithTx(func(tx Tx) error {
		inst, err := tx.GetInstrumentByOwner(userID)
		if err != nil {
			return Internal(err)
		}
		if inst == nil {
			return NewError(CodeNotFound, "没有上市公司")
		}
		delisted, err = s.delist(tx, inst, "东家主动退市", now)
		return err
	})
	if err != nil {
		return err
	}
	s.publishEvents([]*model.MarketEvent{delisted})
	return nil
}

// RunWeeklyDelistingCheck 周检：价格跌破下限或东家长期不活跃的公司股强制退市
func (s *Service) RunWeeklyDelistingCheck() error {
	now := s.now()
	var delisted []*model.MarketEvent
	err := s.store.WithTx(func(tx Tx) error {
		companies, err := tx.ListInstrumentsByKind(model.InstrumentCompany)
		if err != nil {
			return Internal(err)
		}
		for _, inst := range companies {
			owner, err := tx.GetUser(inst.OwnerID)
			if err != nil {
				return Internal(err)
			}
			reason := ""
			switch {
			case owner == nil || owner.Status != 1:
				reason = "东家账户不可用"
			case inst.CurrentPrice < s.listing.MinListedPrice:
				reason = fmt.Sprintf("股价低于 %s", money(s.listing.MinListedPrice))
			case owner.LastActiveAt != nil && now.Sub(*owner.LastActiveAt) > s.listing.OwnerInactiveAfter:
				reason = "东家长期不活跃"
			}
			if reason == "" {
				continue
			}
			ev, err := s.delist(tx, inst, reason, now)
			if err != nil {
				return err
			}
			delisted = append(delisted, ev)
			log.Printf("周检退市: %s (%s)", inst.Ticker, reason)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publishEvents(delisted)
	return nil
}

// delist 回购全部公众持仓并删除标的。持有人可能是玩家或机器人。
func (s *Service) delist(tx Tx, inst *model.Instrument, reason string, now time.Time) (*model.MarketEvent, error) {
	price := decimal.NewFromFloat(inst.CurrentPrice).Round(2)
	holdings, err := tx.ListHoldingsByTicker(inst.Ticker)
	if err != nil {
		return nil, Internal(err)
	}
	for _, h := range holdings {
		payout := price.Mul(decimal.NewFromInt(h.Shares))
		if user, err := tx.GetUser(h.UserID); err != nil {
			return nil, Internal(err)
		} else if user != nil {
			user.Cash = user.Cash.Add(payout)
			if err := tx.SaveUser(user); err != nil {
				return nil, Internal(err)
			}
		} else if bot, err := tx.GetBot(h.UserID); err != nil {
			return nil, Internal(err)
		} else if bot != nil {
			bot.Cash = bot.Cash.Add(payout)
			if err := tx.SaveBot(bot); err != nil {
				return nil, Internal(err)
			}
		}
		if err := tx.DeleteHolding(h.UserID, h.Ticker); err != nil {
			return nil, Internal(err)
		}
	}
	if err := tx.DeleteInstrument(inst.Ticker); err != nil {
		return nil, Internal(err)
	}

	ev := &model.MarketEvent{
		Type:      model.EventNewsNegative,
		Severity:  model.EventSeverityMedium,
		Ticker:    inst.Ticker,
		Title:     fmt.Sprintf("%s 退市", inst.Ticker),
		Message:   fmt.Sprintf("%s 退市（%s），公众持仓已按 %s 回购", inst.Name, reason, price.StringFixed(2)),
		Active:    true,
		CreatedAt: now,
		ExpiresAt: now.Add(10 * time.Minute),
	}
	if err := tx.CreateEvent(ev); err != nil {
		return nil, Internal(err)
	}
	return ev, nil
}
