package main

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"orchard-service/internal/handler"
	mid "orchard-service/internal/middleware"
	"orchard-service/internal/store"
	"orchard-service/pkg/config"
	"orchard-service/pkg/database"
	"orchard-service/pkg/logger"
	"orchard-service/prometheus"
)

func main() {
	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		// Can't use structured logger yet since it's not initialized
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	logger.InitLogger(appConfig)
	log := logger.GetLogger()
	defer log.Sync()

	log.Info("Starting orchard-service",
		zap.String("environment", appConfig.Server.Env),
		zap.String("port", appConfig.Server.Port))

	// Initialize Prometheus metrics
	prometheus.InitMetrics(appConfig)
	log.Info("Prometheus metrics initialized",
		zap.String("metrics_prefix", appConfig.Metrics.Prefix))

	// Initialize database
	if err := database.InitDB(appConfig); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Wire the entity stores and handlers
	db := database.GetDB()
	trees := handler.NewTreeHandler(store.NewTreeStore(db))
	flowers := handler.NewFlowerHandler(store.NewFlowerStore(db))
	fruits := handler.NewFruitHandler(store.NewFruitStore(db))
	harvests := handler.NewHarvestHandler(store.NewHarvestStore(db))

	// Initialize Echo instance
	e := echo.New()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(mid.RequestIDMiddleware)
	e.Use(mid.MetricsMiddleware)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")

	// Tree registry routes
	api.GET("/trees", trees.List)
	api.POST("/trees", trees.Create)
	api.GET("/trees/statistics", trees.Statistics)
	api.POST("/trees/bulk-sync", trees.BulkSync)
	api.POST("/trees/check-existing", trees.CheckExisting)
	api.GET("/trees/:id", trees.Get)
	api.PUT("/trees/:id", trees.Update)
	api.DELETE("/trees/:id", trees.Delete)
	api.GET("/trees/:id/fruits", fruits.ListByTree)

	// Flower ledger routes
	api.GET("/flowers", flowers.List)
	api.POST("/flowers", flowers.Create)
	api.GET("/flowers/:id", flowers.Get)
	api.PUT("/flowers/:id", flowers.Update)
	api.DELETE("/flowers/:id", flowers.Delete)
	api.GET("/flowers/:id/fruits", fruits.ListByFlower)

	// Fruit ledger routes
	api.GET("/fruits", fruits.List)
	api.POST("/fruits", fruits.Create)
	api.POST("/fruits/sync", fruits.Sync)
	api.GET("/fruits/:id", fruits.Get)
	api.PUT("/fruits/:id", fruits.Update)
	api.DELETE("/fruits/:id", fruits.Delete)
	api.GET("/fruits/:id/harvests", harvests.ListByFruit)

	// Harvest ledger and summary routes
	api.GET("/harvests", harvests.List)
	api.POST("/harvests", harvests.Create)
	api.GET("/harvests/summary/by-fruit", harvests.SummaryByFruit)
	api.GET("/harvests/summary/monthly", harvests.MonthlySummary)
	api.GET("/harvests/:id", harvests.Get)
	api.PUT("/harvests/:id", harvests.Update)
	api.DELETE("/harvests/:id", harvests.Delete)

	// Start server
	port := appConfig.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Server error", zap.Error(err))
	}
}
