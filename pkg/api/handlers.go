package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"TycoonExchange/pkg/ipo"
	"TycoonExchange/pkg/market"
	"TycoonExchange/pkg/monitor"
)

// Handlers API处理程序
type Handlers struct {
	market *market.Service
	ipo    *ipo.Controller
	ready  func() bool
	health *monitor.Monitor
}

// NewHandlers 创建新的API处理程序。
// ready 为就绪探针，通常刷新外部连接状态，可为nil；
// health 提供组件健康视图，可为nil。
func NewHandlers(marketSvc *market.Service, ipoCtrl *ipo.Controller, ready func() bool, health *monitor.Monitor) *Handlers {
	return &Handlers{
		market: marketSvc,
		ipo:    ipoCtrl,
		ready:  ready,
		health: health,
	}
}

// statusFor 领域错误码到HTTP状态码的映射
func statusFor(err error) int {
	switch market.ErrCode(err) {
	case market.CodeValidation, market.CodeInsufficientFunds, market.CodeInsufficientShares:
		return http.StatusBadRequest
	case market.CodeNotFound:
		return http.StatusNotFound
	case market.CodeForbidden:
		return http.StatusForbidden
	case market.CodeConflict:
		return http.StatusConflict
	case market.CodeRateLimited:
		return http.StatusTooManyRequests
	case market.CodeMarketHalted:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// fail 统一的错误响应
func fail(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{
		"code":  string(market.ErrCode(err)),
		"error": err.Error(),
	})
}

// HealthCheck 健康检查处理程序，附带各组件状态
func (h *Handlers) HealthCheck(c *gin.Context) {
	resp := gin.H{
		"status": "ok",
	}
	if h.health != nil {
		resp["components"] = h.health.GetAllStatus()
	}
	c.JSON(http.StatusOK, resp)
}

// ReadinessCheck 就绪检查处理程序。
// 先执行探针刷新连接状态，再要求所有已注册组件健康。
func (h *Handlers) ReadinessCheck(c *gin.Context) {
	if h.ready != nil && !h.ready() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not ready",
		})
		return
	}
	if h.health != nil && !h.health.Healthy() {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":     "not ready",
			"components": h.health.GetAllStatus(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// GetMarketStocks 全市场行情
func (h *Handlers) GetMarketStocks(c *gin.Context) {
	stocks, err := h.market.GetMarketStocks()
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": stocks,
	})
}

// GetStockByTicker 单标的行情
func (h *Handlers) GetStockByTicker(c *gin.Context) {
	stock, err := h.market.GetStockByTicker(c.Param("ticker"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": stock,
	})
}

// TradeRequest 买卖请求
type TradeRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Shares int64  `json:"shares" binding:"required"`
}

// BuyShares 买入处理程序
func (h *Handlers) BuyShares(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	order, err := h.market.BuyShares(req.UserID, c.Param("ticker"), req.Shares)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": order,
	})
}

// SellShares 卖出处理程序
func (h *Handlers) SellShares(c *gin.Context) {
	var req TradeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	order, err := h.market.SellShares(req.UserID, c.Param("ticker"), req.Shares)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": order,
	})
}

// GetPortfolio 用户持仓组合
func (h *Handlers) GetPortfolio(c *gin.Context) {
	portfolio, err := h.market.GetPortfolio(c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": portfolio,
	})
}

// GetOrderHistory 用户订单历史
func (h *Handlers) GetOrderHistory(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	orders, err := h.market.GetOrderHistory(c.Param("user_id"), limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": orders,
	})
}

// ListStockRequest 公司上市请求
type ListStockRequest struct {
	UserID      string  `json:"user_id" binding:"required"`
	Ticker      string  `json:"ticker" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	TotalShares int64   `json:"total_shares"`
	OwnerPct    float64 `json:"owner_pct"`
}

// ListPlayerStock 公司上市处理程序
func (h *Handlers) ListPlayerStock(c *gin.Context) {
	var req ListStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "无效的请求参数: " + err.Error(),
		})
		return
	}

	stock, err := h.market.ListPlayerStock(req.UserID, req.Ticker, req.Name, market.ListParams{
		TotalShares: req.TotalShares,
		OwnerPct:    req.OwnerPct,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": stock,
	})
}

// DelistPlayerStock 公司退市处理程序
func (h *Handlers) DelistPlayerStock(c *gin.Context) {
	if err := h.market.DelistPlayerStock(c.Param("user_id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "success",
	})
}

// GetActiveEvents 活跃市场事件
func (h *Handlers) GetActiveEvents(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	events, err := h.market.GetActiveEvents(limit)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": events,
	})
}

// GetCircuitBreakerStatus 熔断状态
func (h *Handlers) GetCircuitBreakerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data": h.market.GetCircuitBreakerStatus(),
	})
}

// LaunchIPO 启动IPO处理程序
func (h *Handlers) LaunchIPO(c *gin.Context) {
	status, err := h.ipo.Launch(c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": status,
	})
}

// GetIPOStatus IPO状态处理程序
func (h *Handlers) GetIPOStatus(c *gin.Context) {
	status, err := h.ipo.Status(c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": status,
	})
}

// SellIPOShares 出售IPO份额处理程序
func (h *Handlers) SellIPOShares(c *gin.Context) {
	result, err := h.ipo.SellShares(c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}

// CancelIPO 撤回IPO处理程序
func (h *Handlers) CancelIPO(c *gin.Context) {
	result, err := h.ipo.Cancel(c.Param("user_id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"data": result,
	})
}
