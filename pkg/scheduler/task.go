package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"

	"TycoonExchange/pkg/bots"
	"TycoonExchange/pkg/dividend"
	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/monitor"
)

// Scheduler 市场模拟的定时驱动：
// 行情周期、每日收盘与分红、每周退市检查
type Scheduler struct {
	cron     *cron.Cron
	market   *market.Service
	bots     *bots.Engine
	dividend *dividend.Distributor
	mon      *monitor.Monitor

	cycleSpec    string
	dividendSpec string
	delistSpec   string
}

// NewScheduler 创建任务调度器。spec为空时使用默认节奏。
func NewScheduler(marketSvc *market.Service, botEngine *bots.Engine, distributor *dividend.Distributor, mon *monitor.Monitor, cycleSpec, dividendSpec, delistSpec string) *Scheduler {
	if cycleSpec == "" {
		cycleSpec = "@every 30s"
	}
	if dividendSpec == "" {
		dividendSpec = "0 0 0 * * *" // 每日零点
	}
	if delistSpec == "" {
		delistSpec = "0 0 3 * * 1" // 每周一凌晨3点
	}
	if mon != nil {
		mon.RegisterComponent("market-cycle")
		mon.RegisterComponent("bot-cycle")
		mon.RegisterComponent("daily-jobs")
	}
	return &Scheduler{
		cron:         cron.New(cron.WithSeconds()),
		market:       marketSvc,
		bots:         botEngine,
		dividend:     distributor,
		mon:          mon,
		cycleSpec:    cycleSpec,
		dividendSpec: dividendSpec,
		delistSpec:   delistSpec,
	}
}

// Start 启动调度器
func (s *Scheduler) Start() error {
	// 行情与机器人周期
	if _, err := s.cron.AddFunc(s.cycleSpec, s.runCycle); err != nil {
		return err
	}

	// 每日收盘归档与分红
	if _, err := s.cron.AddFunc(s.dividendSpec, s.runDaily); err != nil {
		return err
	}

	// 每周退市检查
	if _, err := s.cron.AddFunc(s.delistSpec, s.runWeekly); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("调度器已启动: 周期=%s 日结=%s 周检=%s", s.cycleSpec, s.dividendSpec, s.delistSpec)
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

// runCycle 行情补算与事件，然后驱动机器人决策
func (s *Scheduler) runCycle() {
	if err := s.market.RunTickAndTradeCycle(); err != nil {
		log.Printf("行情周期失败: %v", err)
		s.report("market-cycle", err)
		return
	}
	s.report("market-cycle", nil)

	err := s.bots.RunCycle()
	if err != nil {
		log.Printf("机器人周期失败: %v", err)
	}
	s.report("bot-cycle", err)
}

// runDaily 先分红再归档，分红收益率依赖归档前的24小时涨跌幅
func (s *Scheduler) runDaily() {
	var failed error
	if _, err := s.dividend.ProcessDailyDividends(); err != nil {
		log.Printf("每日分红失败: %v", err)
		failed = err
	}
	if err := s.market.RollDailyClose(); err != nil {
		log.Printf("日终归档失败: %v", err)
		failed = err
	}
	s.report("daily-jobs", failed)
}

// runWeekly 每周退市检查
func (s *Scheduler) runWeekly() {
	if err := s.market.RunWeeklyDelistingCheck(); err != nil {
		log.Printf("退市检查失败: %v", err)
	}
}

// report 上报组件健康状态
func (s *Scheduler) report(component string, err error) {
	if s.mon == nil {
		return
	}
	if err != nil {
		s.mon.UpdateStatus(component, "unhealthy", err.Error())
		return
	}
	s.mon.UpdateStatus(component, "healthy", "")
}
