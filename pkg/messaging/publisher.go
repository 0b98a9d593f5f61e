// pkg/messaging/publisher.go
package messaging

import (
	"fmt"

	"TycoonExchange/pkg/model"
)

// Publisher 把市场侧的领域对象发布到对应主题，实现 market.Publisher。
// 主题按事件/订单类型细分，消费方可以只订阅自己关心的子集。
type Publisher struct {
	client *NATSClient
}

// NewPublisher 创建市场消息发布器
func NewPublisher(client *NATSClient) *Publisher {
	return &Publisher{client: client}
}

// PublishMarketEvent 发布市场事件，主题按事件类型细分
func (p *Publisher) PublishMarketEvent(ev *model.MarketEvent) error {
	subject := fmt.Sprintf("market.events.%s", ev.Type)
	return p.client.Publish(subject, ev)
}

// PublishOrder 发布成交订单，主题按买卖方向细分
func (p *Publisher) PublishOrder(o *model.Order) error {
	subject := fmt.Sprintf("orders.%s", o.Side)
	return p.client.Publish(subject, o)
}

// PublishDividend 发布分红流水，主题按分红类型细分
func (p *Publisher) PublishDividend(d *model.DividendPayout) error {
	subject := fmt.Sprintf("dividends.%s", d.Type)
	return p.client.Publish(subject, d)
}
