package api

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

// Server API服务器
type Server struct {
	router *gin.Engine
	srv    *http.Server
}

// NewServer 创建新的API服务器。超时为零时取10秒
func NewServer(port string, readTimeout, writeTimeout time.Duration) *Server {
	router := gin.Default()

	// 设置中间件
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	return &Server{
		router: router,
		srv:    srv,
	}
}

// SetupRoutes 设置路由
func (s *Server) SetupRoutes(handlers *Handlers) {
	// 健康检查
	s.router.GET("/health", handlers.HealthCheck)
	s.router.GET("/ready", handlers.ReadinessCheck)

	// API v1 路由组
	v1 := s.router.Group("/api/v1")
	{
		// 行情接口
		v1.GET("/market/stocks", handlers.GetMarketStocks)
		v1.GET("/market/stocks/:ticker", handlers.GetStockByTicker)

		// 交易接口
		v1.POST("/market/stocks/:ticker/buy", handlers.BuyShares)
		v1.POST("/market/stocks/:ticker/sell", handlers.SellShares)

		// 持仓与订单
		v1.GET("/users/:user_id/portfolio", handlers.GetPortfolio)
		v1.GET("/users/:user_id/orders", handlers.GetOrderHistory)

		// 公司上市/退市
		v1.POST("/market/listings", handlers.ListPlayerStock)
		v1.DELETE("/users/:user_id/listing", handlers.DelistPlayerStock)

		// 市场事件与熔断
		v1.GET("/market/events", handlers.GetActiveEvents)
		v1.GET("/market/circuit-breaker", handlers.GetCircuitBreakerStatus)

		// IPO迷你市场
		v1.POST("/users/:user_id/ipo", handlers.LaunchIPO)
		v1.GET("/users/:user_id/ipo", handlers.GetIPOStatus)
		v1.POST("/users/:user_id/ipo/sell", handlers.SellIPOShares)
		v1.DELETE("/users/:user_id/ipo", handlers.CancelIPO)
	}
}

// Start 启动服务器
func (s *Server) Start() {
	// 在goroutine中启动服务器
	go func() {
		log.Printf("API服务器启动在 %s\n", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("启动服务器失败: %v\n", err)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("正在关闭服务器...")

	// 设置超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	// 优雅关闭
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Fatalf("服务器关闭失败: %v\n", err)
	}

	log.Println("服务器已关闭")
}
