// pkg/bots/population.go
package bots

import (
	"log"

	"github.com/shopspring/decimal"

	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/model"
)

// DefaultPopulation 参考部署的机器人阵容。
// 做市与巨鲸资金量远大于普通角色；节奏从做市的秒级到巨鲸的小时级。
func DefaultPopulation() []*model.TradingBot {
	newBot := func(name string, strategy model.BotStrategy, personality model.BotPersonality,
		cash int64, risk float64, intervalSec int, multiplier float64, sector string) *model.TradingBot {
		return &model.TradingBot{
			Name:               name,
			Strategy:           strategy,
			Personality:        personality,
			Cash:               decimal.NewFromInt(cash),
			InitialCash:        decimal.NewFromInt(cash),
			RiskTolerance:      risk,
			TradeIntervalSec:   intervalSec,
			PositionMultiplier: multiplier,
			SectorFocus:        sector,
		}
	}
	return []*model.TradingBot{
		newBot("做市商·甲", model.StrategyMarketMaker, model.PersonalityConservative, 50_000_000, 0.3, 60, 2.0, ""),
		newBot("做市商·乙", model.StrategyMarketMaker, model.PersonalityConservative, 50_000_000, 0.3, 90, 2.0, ""),
		newBot("巨鲸", model.StrategyWhale, model.PersonalityModerate, 200_000_000, 0.8, 3600, 5.0, ""),
		newBot("快讯猎手", model.StrategyNewsTrader, model.PersonalityAggressive, 5_000_000, 0.6, 120, 1.5, ""),
		newBot("逆风船长", model.StrategyNewsTrader, model.PersonalityConservative, 5_000_000, 0.4, 300, 1.0, ""),
		newBot("情绪面", model.StrategySentiment, model.PersonalityModerate, 3_000_000, 0.5, 180, 1.0, "tech"),
		newBot("动量小子", model.StrategyMomentum, model.PersonalityAggressive, 4_000_000, 0.7, 120, 1.2, "tech"),
		newBot("回归者", model.StrategyMeanRev, model.PersonalityConservative, 4_000_000, 0.4, 240, 1.0, "energy"),
		newBot("唱反调", model.StrategyContrarian, model.PersonalityModerate, 3_000_000, 0.5, 300, 1.0, "finance"),
		newBot("趋势客", model.StrategyTrend, model.PersonalityModerate, 4_000_000, 0.5, 180, 1.1, "finance"),
		newBot("波动猎人", model.StrategyVolatility, model.PersonalityAggressive, 3_000_000, 0.6, 150, 1.3, "energy"),
	}
}

// SeedPopulation 首次启动时写入默认机器人阵容，已有数据则跳过
func SeedPopulation(store market.Store) error {
	n, err := store.CountBots()
	if err != nil {
		return market.Internal(err)
	}
	if n > 0 {
		return nil
	}
	return store.WithTx(func(tx market.Tx) error {
		for _, bot := range DefaultPopulation() {
			if err := tx.SaveBot(bot); err != nil {
				return market.Internal(err)
			}
		}
		log.Printf("已初始化 %d 个交易机器人", len(DefaultPopulation()))
		return nil
	})
}
