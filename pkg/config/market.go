package config

import (
	"TycoonExchange/pkg/market"
)

// TickConfig 用配置文件覆盖默认tick参数，零值取默认。
// API与模拟器共用同一份转换，避免两个进程的市场参数漂移。
func (c *Config) TickConfig() market.TickConfig {
	tc := market.DefaultTickConfig()
	if c.Market.TickMinInterval > 0 {
		tc.MinInterval = c.Market.TickMinInterval.Std()
	}
	if c.Market.TickMaxInterval > 0 {
		tc.MaxInterval = c.Market.TickMaxInterval.Std()
	}
	if c.Market.MaxCatchUp > 0 {
		tc.MaxCatchUp = c.Market.MaxCatchUp
	}
	if c.Market.ReversionRate > 0 {
		tc.ReversionRate = c.Market.ReversionRate
	}
	return tc
}

// RulesConfig 用配置文件覆盖默认交易规则参数，零值取默认
func (c *Config) RulesConfig() market.RulesConfig {
	rc := market.DefaultRulesConfig()
	if c.Rules.MaxOrdersPerMinute > 0 {
		rc.MaxTradesPerMinute = c.Rules.MaxOrdersPerMinute
	}
	if c.Rules.MaxOrdersPerHour > 0 {
		rc.MaxTradesPerHour = c.Rules.MaxOrdersPerHour
	}
	if c.Rules.OrderCooldown > 0 {
		rc.TradeCooldown = c.Rules.OrderCooldown.Std()
	}
	if c.Rules.MinHoldingPeriod > 0 {
		rc.MinHoldingPeriod = c.Rules.MinHoldingPeriod.Std()
	}
	if c.Rules.PositionCapPercent > 0 {
		rc.MaxPositionPercent = c.Rules.PositionCapPercent
	}
	if c.Rules.MaxImpactPercent > 0 {
		rc.MaxImpactPercent = c.Rules.MaxImpactPercent
	}
	return rc
}

// EventConfig 用配置文件覆盖默认事件参数，零值取默认
func (c *Config) EventConfig() market.EventConfig {
	ec := market.DefaultEventConfig()
	if c.Market.EventChance > 0 {
		ec.SpawnChance = c.Market.EventChance
	}
	return ec
}
