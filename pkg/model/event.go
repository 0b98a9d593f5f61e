// pkg/model/event.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// EventType 市场事件类型
type EventType string

const (
	EventPump           EventType = "pump"
	EventDump           EventType = "dump"
	EventNewsPositive   EventType = "news_positive"
	EventNewsNegative   EventType = "news_negative"
	EventCircuitBreaker EventType = "circuit_breaker"
	EventHalt           EventType = "halt"
)

// EventSeverity 事件严重程度
type EventSeverity string

const (
	EventSeverityLow      EventSeverity = "low"
	EventSeverityMedium   EventSeverity = "medium"
	EventSeverityHigh     EventSeverity = "high"
	EventSeverityCritical EventSeverity = "critical"
)

// MarketEvent 有时限的市场事件。过期即失效：
// 读取时懒惰判定，另有定期清扫兜底。
type MarketEvent struct {
	ID          string        `gorm:"type:uuid;primaryKey" json:"id"`
	Type        EventType     `gorm:"type:varchar(20);not null;index" json:"type"`
	Severity    EventSeverity `gorm:"type:varchar(10);not null" json:"severity"`
	Ticker      string        `gorm:"type:varchar(4);index" json:"ticker"` // 空表示全市场
	Title       string        `gorm:"not null" json:"title"`
	Message     string        `gorm:"type:text" json:"message"`
	PriceImpact float64       `gorm:"type:decimal(8,4)" json:"price_impact"` // 总偏置幅度，负数为下压
	Active      bool          `gorm:"default:true;index" json:"active"`
	CreatedAt   time.Time     `json:"created_at"`
	ExpiresAt   time.Time     `gorm:"index" json:"expires_at"`
}

func (e *MarketEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	return nil
}

// Expired 到 now 为止事件是否已过期
func (e *MarketEvent) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// RemainingTicks 事件剩余可作用的tick数（按平均tick间隔估算）
func (e *MarketEvent) RemainingTicks(now time.Time, avgInterval time.Duration) int {
	if e.Expired(now) || avgInterval <= 0 {
		return 0
	}
	n := int(e.ExpiresAt.Sub(now) / avgInterval)
	if n < 1 {
		n = 1
	}
	return n
}
