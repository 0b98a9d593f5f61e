package main

import (
	"log"

	"TycoonExchange/pkg/api"
	"TycoonExchange/pkg/config"
	"TycoonExchange/pkg/database"
	"TycoonExchange/pkg/ipo"
	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/messaging"
	"TycoonExchange/pkg/monitor"
)

func main() {
	log.Println("启动API服务...")

	// 加载配置
	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 组件健康跟踪，异常时记录告警日志
	mon := monitor.NewMonitor(func(component, status, message string) {
		log.Printf("组件告警: %s 状态=%s %s", component, status, message)
	})

	// 连接数据库
	store, err := database.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}
	defer store.Close()
	mon.RegisterComponent("database")
	mon.UpdateStatus("database", "healthy", "")

	// 连接NATS，失败时降级为空发布器
	var pub market.Publisher = market.NopPublisher{}
	var ready func() bool
	if cfg.NATS.URL != "" {
		mon.RegisterComponent("nats")
		nc, err := messaging.NewNATSClient(cfg.NATS.URL)
		if err != nil {
			log.Printf("警告: 连接NATS失败，消息发布降级为空操作: %v", err)
			mon.UpdateStatus("nats", "degraded", "连接失败，消息发布降级为空操作")
		} else {
			defer nc.Close()
			pub = messaging.NewPublisher(nc)
			mon.UpdateStatus("nats", "healthy", "")
			// 每次就绪检查刷新NATS连接状态
			ready = func() bool {
				if nc.IsConnected() {
					mon.UpdateStatus("nats", "healthy", "")
				} else {
					mon.UpdateStatus("nats", "unhealthy", "NATS连接断开")
				}
				return true
			}
		}
	}

	// 组装市场核心
	svc := market.NewService(
		store,
		market.NewTickEngine(cfg.TickConfig()),
		market.NewRuleEngine(cfg.RulesConfig()),
		market.NewBreaker(market.DefaultBreakerConfig(), market.NewMemHaltStore()),
		market.NewEventGenerator(cfg.EventConfig()),
		pub,
	)
	ipoCtrl := ipo.NewController(store, ipo.DefaultConfig())

	// 创建API处理程序
	handlers := api.NewHandlers(svc, ipoCtrl, ready, mon)

	// 创建并启动服务器
	port := cfg.API.Port
	if port == "" {
		port = "8080"
	}
	server := api.NewServer(port, cfg.API.ReadTimeout.Std(), cfg.API.WriteTimeout.Std())
	server.SetupRoutes(handlers)
	server.Start()
}
