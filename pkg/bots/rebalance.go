// pkg/bots/rebalance.go
package bots

import (
	"log"
	"time"

	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/model"
)

// rebalance 独立于主决策循环的定期再平衡：
// 对每个机器人持仓的一部分止盈（>25%）或止损（>20%）。
func (e *Engine) rebalance(bots []*model.TradingBot, snapshots map[string]Snapshot, rng *market.LCG, now time.Time) error {
	for _, bot := range bots {
		if err := e.rebalanceBot(bot.ID, snapshots, rng, now); err != nil {
			log.Printf("机器人 %s 再平衡失败: %v", bot.Name, err)
		}
	}
	return nil
}

func (e *Engine) rebalanceBot(botID string, snapshots map[string]Snapshot, rng *market.LCG, now time.Time) error {
	return e.store.WithTx(func(tx market.Tx) error {
		bot, err := tx.GetBot(botID)
		if err != nil {
			return market.Internal(err)
		}
		if bot == nil {
			return nil
		}
		holdings, err := tx.ListHoldingsByUser(botID)
		if err != nil {
			return market.Internal(err)
		}
		for _, h := range holdings {
			// 每轮只处理一部分持仓，避免同时清仓引发的踩踏
			if rng.Float64() >= e.cfg.RebalanceFrac {
				continue
			}
			snap, ok := snapshots[h.Ticker]
			if !ok {
				continue
			}
			pnl := h.UnrealizedPercent(snap.Price) / 100
			if pnl < e.cfg.TakeProfitPct && pnl > -e.cfg.CutLossPct {
				continue
			}

			inst, err := tx.GetInstrumentByTicker(h.Ticker)
			if err != nil {
				return market.Internal(err)
			}
			if inst == nil {
				continue
			}
			if _, err := e.ledger.Sell(tx, market.BotAccount{Bot: bot}, inst, h.Shares, now); err != nil {
				if market.IsCode(err, market.CodeMarketHalted) {
					continue
				}
				return err
			}
			if pnl >= e.cfg.TakeProfitPct {
				log.Printf("机器人 %s 止盈 %s（+%.1f%%）", bot.Name, h.Ticker, pnl*100)
			} else {
				log.Printf("机器人 %s 止损 %s（%.1f%%）", bot.Name, h.Ticker, pnl*100)
			}
		}
		return tx.SaveBot(bot)
	})
}
