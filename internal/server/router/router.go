package router

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdesk/internal/config"
	"github.com/mamadbah2/farmdesk/internal/server/handlers"
	"github.com/mamadbah2/farmdesk/pkg/metrics"
)

// Dependencies groups everything the router mounts.
type Dependencies struct {
	Server      config.ServerConfig
	Gatherer    prometheus.Gatherer
	HTTPMetrics *metrics.HTTPMetrics

	Health        *handlers.HealthHandler
	FeedStock     *handlers.FeedStockHandler
	FeedUsage     *handlers.FeedUsageHandler
	FeedInventory *handlers.FeedInventoryHandler
	EggProduction *handlers.EggProductionHandler
	SalesOrders   *handlers.SalesOrderHandler
	Tasks         *handlers.TaskHandler
	Finance       *handlers.FinancialRecordHandler
	Contact       *handlers.ContactHandler
	Automation    *handlers.AutomationHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(deps Dependencies, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(requestIDMiddleware())
	r.Use(recoveryMiddleware(logger))
	r.Use(zapLoggerMiddleware(logger))
	r.Use(metricsMiddleware(deps.HTTPMetrics))
	r.Use(cors.New(corsConfig(deps.Server)))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, handlers.Envelope{Success: false, Message: "Route not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, handlers.Envelope{Success: false, Message: "Method not allowed"})
	})

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	if deps.Health != nil {
		api.GET("/health", deps.Health.Health)
	}

	// static segments are registered before /:id so gin matches them first
	if h := deps.FeedStock; h != nil {
		g := api.Group("/feed-stock")
		g.GET("", h.List)
		g.GET("/summary", h.Summary)
		g.GET("/alerts", h.Alerts)
		g.GET("/:id", h.Get)
		g.POST("", h.Upsert)
		g.PUT("/:id", h.Update)
		g.POST("/:id/deduct", h.Deduct)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.FeedUsage; h != nil {
		g := api.Group("/feed-usage")
		g.GET("", h.List)
		g.GET("/summary", h.Summary)
		g.GET("/analytics", h.Summary)
		g.GET("/export", h.Export)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.PUT("/:id/verify", h.Verify)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.FeedInventory; h != nil {
		g := api.Group("/feed-inventory")
		g.GET("", h.List)
		g.GET("/summary", h.Summary)
		g.GET("/alerts", h.Alerts)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.EggProduction; h != nil {
		g := api.Group("/egg-production")
		g.GET("", h.List)
		g.GET("/summary", h.Summary)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.SalesOrders; h != nil {
		g := api.Group("/sales-orders")
		g.GET("", h.List)
		g.GET("/summary", h.Summary)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.Tasks; h != nil {
		g := api.Group("/task-scheduling")
		g.GET("", h.List)
		g.GET("/dashboard", h.Dashboard)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.PUT("/:id/complete", h.Complete)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.Finance; h != nil {
		g := api.Group("/financial-records")
		g.GET("", h.List)
		g.GET("/summary", h.Summary)
		g.GET("/analytics", h.Summary)
		g.GET("/export", h.Export)
		g.GET("/:id", h.Get)
		g.POST("", h.Create)
		g.PUT("/:id", h.Update)
		g.DELETE("/:id", h.Delete)
	}

	if h := deps.Contact; h != nil {
		api.POST("/contact", h.Send)
		api.GET("/contact/test", h.Test)
	}

	if h := deps.Automation; h != nil {
		api.GET("/automation/status", h.Status)
		api.POST("/automation/trigger", h.Trigger)
	}

	logger.Info("router initialized", zap.Int("routes", len(r.Routes())))

	return r
}

func corsConfig(cfg config.ServerConfig) cors.Config {
	c := cors.DefaultConfig()
	c.AllowHeaders = append(c.AllowHeaders, "Authorization", requestIDHeader)
	c.ExposeHeaders = []string{requestIDHeader, "Content-Disposition"}
	if cfg.IsDevelopment() || len(cfg.CORSOrigins) == 0 {
		c.AllowAllOrigins = true
		return c
	}
	c.AllowOrigins = cfg.CORSOrigins
	c.AllowCredentials = true
	return c
}
