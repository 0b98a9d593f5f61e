package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"TycoonExchange/pkg/bots"
	"TycoonExchange/pkg/config"
	"TycoonExchange/pkg/database"
	"TycoonExchange/pkg/dividend"
	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/messaging"
	"TycoonExchange/pkg/monitor"
	"TycoonExchange/pkg/scheduler"
)

func main() {
	log.Println("启动市场模拟器...")

	// 加载配置
	cfg, err := config.LoadConfig(config.GetDefaultConfigPath())
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 连接数据库
	store, err := database.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}
	defer store.Close()

	// 连接NATS，失败时降级为空发布器
	var pub market.Publisher = market.NopPublisher{}
	if cfg.NATS.URL != "" {
		nc, err := messaging.NewNATSClient(cfg.NATS.URL)
		if err != nil {
			log.Printf("警告: 连接NATS失败，消息发布降级为空操作: %v", err)
		} else {
			defer nc.Close()
			pub = messaging.NewPublisher(nc)
		}
	}

	// 首次启动写入系统股与机器人阵容
	if err := market.SeedInstruments(store); err != nil {
		log.Fatalf("初始化系统股失败: %v", err)
	}
	if err := bots.SeedPopulation(store); err != nil {
		log.Fatalf("初始化机器人失败: %v", err)
	}

	// 组装市场核心与协作引擎
	svc := market.NewService(
		store,
		market.NewTickEngine(cfg.TickConfig()),
		market.NewRuleEngine(cfg.RulesConfig()),
		market.NewBreaker(market.DefaultBreakerConfig(), market.NewMemHaltStore()),
		market.NewEventGenerator(cfg.EventConfig()),
		pub,
	)
	botEngine := bots.NewEngine(store, svc.Ledger(), bots.DefaultConfig())
	distributor := dividend.NewDistributor(store, pub, dividend.DefaultConfig())

	// 组件健康跟踪，异常时记录告警日志
	mon := monitor.NewMonitor(func(component, status, message string) {
		log.Printf("组件告警: %s 状态=%s %s", component, status, message)
	})

	// 启动调度器
	sched := scheduler.NewScheduler(svc, botEngine, distributor, mon,
		cfg.Simulation.CycleSpec, cfg.Simulation.DividendSpec, cfg.Simulation.DelistSpec)
	if err := sched.Start(); err != nil {
		log.Fatalf("启动调度器失败: %v", err)
	}
	defer sched.Stop()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("模拟器已停止")
}
