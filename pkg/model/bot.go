// pkg/model/bot.go
package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BotStrategy 机器人策略标签，决定其决策函数
type BotStrategy string

const (
	StrategyMarketMaker BotStrategy = "market_maker" // 做市：对偏离基准价的极端行情反向交易
	StrategyWhale       BotStrategy = "whale"        // 巨鲸：低频超大单
	StrategyNewsTrader  BotStrategy = "news_trader"  // 新闻：对事件情绪顺势或逆势
	StrategySentiment   BotStrategy = "sentiment"    // 情绪：跟随整体涨跌面
	StrategyMomentum    BotStrategy = "momentum"     // 动量：追涨杀跌
	StrategyMeanRev     BotStrategy = "meanrev"      // 均值回归：买超跌卖超涨
	StrategyContrarian  BotStrategy = "contrarian"   // 逆向：与当日涨跌反向
	StrategyTrend       BotStrategy = "trend"        // 趋势：跟随标的趋势状态
	StrategyVolatility  BotStrategy = "volatility"   // 波动：高波动区间高抛低吸
)

// BotPersonality 机器人性格，影响事件追逐与确信度
type BotPersonality string

const (
	PersonalityAggressive   BotPersonality = "aggressive"
	PersonalityModerate     BotPersonality = "moderate"
	PersonalityConservative BotPersonality = "conservative"
)

// TradingBot 算法交易角色。持仓复用 Holding，user_id 即 bot ID。
// LastTradeAt 显式落库，节奏判定不依赖进程内全局计时器。
type TradingBot struct {
	ID                 string          `gorm:"type:uuid;primaryKey" json:"id"`
	Name               string          `gorm:"uniqueIndex;not null" json:"name"`
	Strategy           BotStrategy     `gorm:"type:varchar(20);not null;index" json:"strategy"`
	Personality        BotPersonality  `gorm:"type:varchar(20);not null" json:"personality"`
	Cash               decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"cash"`
	InitialCash        decimal.Decimal `gorm:"type:decimal(20,2);not null" json:"initial_cash"`
	RiskTolerance      float64         `gorm:"type:decimal(5,2)" json:"risk_tolerance"`
	TradeIntervalSec   int             `gorm:"not null" json:"trade_interval_sec"`
	PositionMultiplier float64         `gorm:"type:decimal(6,2);default:1" json:"position_multiplier"`
	SectorFocus        string          `gorm:"type:varchar(20)" json:"sector_focus"`
	LastTradeAt        time.Time       `json:"last_trade_at"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (b *TradingBot) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	return nil
}

// ProfitPercent 相对初始资金的盈亏百分比
func (b *TradingBot) ProfitPercent() float64 {
	if b.InitialCash.IsZero() {
		return 0
	}
	diff := b.Cash.Sub(b.InitialCash)
	ratio, _ := diff.Div(b.InitialCash).Float64()
	return ratio * 100
}

// DueAt 判断到 now 为止本轮是否轮到该机器人交易
func (b *TradingBot) DueAt(now time.Time) bool {
	return now.Sub(b.LastTradeAt) >= time.Duration(b.TradeIntervalSec)*time.Second
}
