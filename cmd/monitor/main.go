package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stocksentry/stocksentry/internal/application"
	"github.com/stocksentry/stocksentry/internal/domain"
	mongoRepo "github.com/stocksentry/stocksentry/internal/infrastructure/mongodb"
	"github.com/stocksentry/stocksentry/internal/notification"
	"github.com/stocksentry/stocksentry/pkg/contracts/orders"
	"github.com/stocksentry/stocksentry/pkg/events"
	"github.com/stocksentry/stocksentry/pkg/kafka"
	"github.com/stocksentry/stocksentry/pkg/logging"
	"github.com/stocksentry/stocksentry/pkg/metrics"
	"github.com/stocksentry/stocksentry/pkg/middleware"
	"github.com/stocksentry/stocksentry/pkg/mongodb"
)

const serviceName = "stock-sentry"

func main() {
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(getEnv("LOG_LEVEL", "info"))
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting stock-sentry monitor")

	config := loadConfig()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metricsConfig := metrics.DefaultConfig(serviceName)
	m := metrics.New(metricsConfig)

	mongoClient, err := mongodb.NewClient(ctx, config.MongoDB)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to MongoDB")
		os.Exit(1)
	}
	defer mongoClient.Close(context.Background())
	logger.Info("Connected to MongoDB", "database", config.MongoDB.Database)

	stockRepo := mongoRepo.NewStockRepository(mongoClient.Database(), m)
	alertRepo := mongoRepo.NewAlertRepository(mongoClient.Database(), m)
	orderRepo := mongoRepo.NewOrderRepository(mongoClient.Database(), m)
	auditRepo := mongoRepo.NewAuditRepository(mongoClient.Database(), m)

	producer := kafka.NewCircuitBreakerProducer(
		kafka.NewInstrumentedProducer(kafka.NewProducer(config.Kafka), m, logger),
		logger,
	)
	defer producer.Close()
	logger.Info("Kafka producer initialized", "brokers", config.Kafka.Brokers)

	eventFactory := events.NewFactory(events.SourceMonitor)

	restAdapter := notification.NewRESTAdapter(config.REST, logger)
	eventAdapter := notification.NewEventAdapter(producer, eventFactory, logger)
	noopAdapter := notification.NewNoopAdapter(activeFallbackPath(config.NotificationPath), logger)
	router := notification.NewRouter(logger, noopAdapter, restAdapter, eventAdapter)

	dispatcherConfig := application.DefaultDispatcherConfig(config.NotificationPath)
	dispatcherConfig.SyncPolicy = config.SyncPolicy()
	dispatcherConfig.AsyncPolicy = config.AsyncPolicy()
	dispatcher := application.NewAlertDispatcher(alertRepo, orderRepo, auditRepo, router, dispatcherConfig, m, logger)

	validator, err := orders.NewCommandValidator()
	if err != nil {
		logger.WithError(err).Error("Failed to compile order command contract")
		os.Exit(1)
	}
	ingestor := application.NewOrderIngestor(orderRepo, auditRepo, validator, config.FacilityID, m, logger)

	monitorConfig := application.DefaultMonitorConfig(config.FacilityID, config.ProductCode)
	monitorConfig.Interval = config.EvaluationInterval
	monitorConfig.ReorderThreshold = config.ReorderThreshold
	monitor := application.NewStockMonitor(stockRepo, dispatcher, monitorConfig, m, logger)

	queries := application.NewQueryService(alertRepo, orderRepo, auditRepo, logger)

	consumer := kafka.NewInstrumentedConsumer(kafka.NewConsumer(config.Kafka, logger.Logger), m, logger)
	defer consumer.Close()
	consumer.Subscribe(kafka.Topics.OrdersInbound, events.OrderCommandSent, ingestor.HandleCommandEvent)
	go func() {
		if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Kafka consumer stopped unexpectedly")
		}
	}()
	logger.Info("Kafka consumer started", "topic", kafka.Topics.OrdersInbound)

	go func() {
		if err := monitor.Run(ctx); err != nil && ctx.Err() == nil {
			logger.WithError(err).Error("Stock monitor stopped unexpectedly")
		}
	}()

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	middleware.Setup(engine, middleware.DefaultConfig(serviceName, logger.Logger))
	engine.Use(middleware.MetricsMiddleware(m))
	engine.NoRoute(middleware.NoRoute())

	engine.GET("/health", middleware.HealthCheck(serviceName))
	engine.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return mongoClient.HealthCheck(ctx)
	}))
	engine.GET("/metrics", middleware.MetricsEndpoint(m))

	api := engine.Group("/api/v1")
	{
		api.PUT("/stock", updateStockHandler(monitor, logger))
		api.GET("/stock", getStockHandler(monitor))
		api.POST("/stock/evaluate", evaluateHandler(monitor))

		api.GET("/alerts", listAlertsHandler(queries))
		api.POST("/alerts/:id/acknowledge", acknowledgeAlertHandler(queries))
		api.POST("/alerts/:id/resolve", resolveAlertHandler(queries))

		api.POST("/orders/commands", ingestOrderHandler(ingestor, logger))
		api.GET("/orders", listOrdersHandler(queries))

		api.GET("/audit", listAuditHandler(queries))
		api.GET("/audit/comparison", comparisonHandler(queries))
	}

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      engine,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr, "notificationPath", config.NotificationPath)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Stopped")
}

// activeFallbackPath keeps the noop adapter's audit tag aligned with the
// configured path when it parses, defaulting to the synchronous tag.
func activeFallbackPath(configured string) domain.Path {
	if p, err := domain.ParsePath(configured); err == nil {
		return p
	}
	return domain.PathSync
}
