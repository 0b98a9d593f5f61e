// pkg/market/seed.go
package market

import (
	"log"

	"TycoonExchange/pkg/model"
)

// DefaultInstruments 参考部署的系统股阵容。
// 板块覆盖机器人的全部关注面，基准价即均值回归锚点。
func DefaultInstruments() []*model.Instrument {
	newStock := func(ticker, name, sector string, basePrice, volatility float64) *model.Instrument {
		return &model.Instrument{
			Ticker:        ticker,
			Name:          name,
			Kind:          model.InstrumentSystem,
			Sector:        sector,
			CurrentPrice:  basePrice,
			PreviousClose: basePrice,
			High24h:       basePrice,
			Low24h:        basePrice,
			Trend:         model.TrendNeutral,
			BasePrice:     basePrice,
			Volatility:    volatility,
		}
	}
	return []*model.Instrument{
		newStock("QNTM", "量子动力", "tech", 150.00, 0.04),
		newStock("NEBU", "星云计算", "tech", 85.00, 0.05),
		newStock("SYNC", "同步半导体", "tech", 220.00, 0.06),
		newStock("HELI", "日冕能源", "energy", 45.00, 0.03),
		newStock("FUSN", "聚变电力", "energy", 120.00, 0.05),
		newStock("GEOT", "地热集团", "energy", 32.00, 0.02),
		newStock("AURM", "金库控股", "finance", 95.00, 0.02),
		newStock("VLTC", "沃尔特信贷", "finance", 60.00, 0.03),
		newStock("MERC", "商旅保险", "finance", 75.00, 0.025),
		newStock("LUXE", "奢享百货", "consumer", 55.00, 0.035),
		newStock("TERA", "泰拉矿业", "materials", 28.00, 0.045),
		newStock("ORBT", "轨道物流", "industrial", 110.00, 0.04),
	}
}

// SeedInstruments 首次启动时写入系统股，已有数据则跳过
func SeedInstruments(store Store) error {
	return store.WithTx(func(tx Tx) error {
		existing, err := tx.ListInstrumentsByKind(model.InstrumentSystem)
		if err != nil {
			return Internal(err)
		}
		if len(existing) > 0 {
			return nil
		}
		seeds := DefaultInstruments()
		for _, inst := range seeds {
			if err := tx.SaveInstrument(inst); err != nil {
				return Internal(err)
			}
		}
		log.Printf("已初始化 %d 只系统股", len(seeds))
		return nil
	})
}
