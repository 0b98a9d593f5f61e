// pkg/messaging/nats.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSClient NATS JetStream客户端，市场侧只做发布，
// 行情、订单、分红流水供外部观察方消费
type NATSClient struct {
	conn      *nats.Conn
	jetStream jetstream.JetStream
	natsURL   string
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewNATSClient 创建新的NATS客户端
func NewNATSClient(natsURL string) (*NATSClient, error) {
	// 连接NATS
	nc, err := nats.Connect(natsURL,
		nats.ReconnectWait(2*time.Second),
		nats.MaxReconnects(-1), // 无限重连
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("NATS连接断开: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Println("NATS重新连接成功")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("连接NATS失败: %w", err)
	}

	// 创建JetStream上下文
	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("创建JetStream失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	client := &NATSClient{
		conn:      nc,
		jetStream: js,
		natsURL:   natsURL,
		ctx:       ctx,
		cancel:    cancel,
	}

	// 初始化基础Streams
	if err := client.setupStreams(); err != nil {
		log.Printf("警告: 设置Streams失败: %v", err)
	}

	return client, nil
}

// setupStreams 设置基础的Streams
func (c *NATSClient) setupStreams() error {
	streams := []jetstream.StreamConfig{
		{
			Name:        "MARKET_EVENTS",
			Subjects:    []string{"market.events.*"},
			Description: "市场事件流：拉盘/砸盘/新闻/熔断",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     50000,
			MaxBytes:    50 * 1024 * 1024,   // 50MB
			MaxAge:      7 * 24 * time.Hour, // 保留7天
		},
		{
			Name:        "ORDERS",
			Subjects:    []string{"orders.*"},
			Description: "成交订单流",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     100000,
			MaxBytes:    100 * 1024 * 1024, // 100MB
			MaxAge:      24 * time.Hour,    // 保留24小时
		},
		{
			Name:        "DIVIDENDS",
			Subjects:    []string{"dividends.*"},
			Description: "分红流水流",
			Retention:   jetstream.LimitsPolicy,
			MaxMsgs:     50000,
			MaxBytes:    50 * 1024 * 1024,   // 50MB
			MaxAge:      7 * 24 * time.Hour, // 保留7天
		},
	}

	for _, streamConfig := range streams {
		_, err := c.jetStream.CreateOrUpdateStream(c.ctx, streamConfig)
		if err != nil {
			log.Printf("创建/更新Stream %s 失败: %v", streamConfig.Name, err)
		} else {
			log.Printf("Stream %s 设置成功", streamConfig.Name)
		}
	}

	return nil
}

// Publish 发布消息到指定主题
func (c *NATSClient) Publish(subject string, data interface{}) error {
	var payload []byte
	var err error

	switch v := data.(type) {
	case []byte:
		payload = v
	case string:
		payload = []byte(v)
	default:
		payload, err = json.Marshal(data)
		if err != nil {
			return fmt.Errorf("序列化数据失败: %w", err)
		}
	}

	_, err = c.jetStream.Publish(c.ctx, subject, payload)
	if err != nil {
		return fmt.Errorf("发布消息到 %s 失败: %w", subject, err)
	}

	return nil
}

// Close 关闭连接
func (c *NATSClient) Close() error {
	log.Println("正在关闭NATS连接...")

	c.cancel()

	if c.conn != nil {
		c.conn.Close()
	}

	log.Println("NATS连接已关闭")
	return nil
}

// IsConnected 检查连接状态
func (c *NATSClient) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}
