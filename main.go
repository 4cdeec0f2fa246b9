package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"restaurant-service/controllers"
	"restaurant-service/database"
	"restaurant-service/events"
	"restaurant-service/logger"
	"restaurant-service/middleware"
	"restaurant-service/models"
	aws_pkg "restaurant-service/pkg/aws"
	"restaurant-service/repository"
	"restaurant-service/routes"
	"restaurant-service/services"
	"restaurant-service/ws"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const serviceName = "restaurant-service"

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("❌ Config load failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- AWS setup (optional locally) ---
	awsCfg, awsErr := aws_pkg.LoadAWSConfig(ctx)

	var cwWriter *aws_pkg.CloudWatchLogsClient
	if cfg.CloudWatchLogs && awsErr == nil {
		cwWriter, err = aws_pkg.NewCloudWatchLogsClient(ctx, awsCfg, cfg.CloudWatchLogGroup, serviceName)
		if err != nil {
			log.Printf("⚠️ CloudWatch Logs disabled: %v", err)
			cwWriter = nil
		}
	}

	var zapLogger *zap.Logger
	if cwWriter != nil {
		zapLogger, err = logger.Initialize(cfg.Env, cwWriter)
	} else {
		zapLogger, err = logger.Initialize(cfg.Env, nil)
	}
	if err != nil {
		log.Fatalf("❌ Logger init failed: %v", err)
	}
	defer zapLogger.Sync()

	if awsErr != nil {
		zapLogger.Warn("AWS config unavailable, AWS integrations disabled", zap.Error(awsErr))
	}

	var metricsClient *aws_pkg.MetricsClient
	if awsErr == nil {
		metricsClient = aws_pkg.NewMetricsClient(awsCfg, cfg.MetricsNamespace, cfg.MetricsEnabled)
	}

	// --- Database ---
	db, err := database.ConnectPostgres(cfg.Postgres, zapLogger)
	if err != nil {
		zapLogger.Fatal("DB connection failed", zap.Error(err))
	}

	var redisClient *redis.Client
	var reportCache services.ReportCache
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			zapLogger.Warn("Redis unavailable, reports will not be cached", zap.Error(err))
		} else {
			reportCache = services.NewRedisReportCache(redisClient, cfg.ReportCacheTTL)
		}
	}

	// --- Events ---
	hub := ws.NewOrderHub()
	backend, err := buildPublisher(cfg, awsCfg, awsErr)
	if err != nil {
		zapLogger.Fatal("Events backend init failed", zap.String("backend", cfg.EventsBackend), zap.Error(err))
	}
	publisher := events.NewFanout(backend, hub)

	// --- Dependency injection ---
	policy, _ := models.NewStatusPolicy(cfg.StatusPolicy)

	orderRepo := repository.NewGormOrderRepository(db)
	customerRepo := repository.NewGormCustomerRepository(db)
	itemRepo := repository.NewGormItemRepository(db)
	reportRepo := repository.NewGormReportRepository(db)

	var catalog services.Catalog = services.NewLocalCatalog(itemRepo)
	if cfg.CatalogServiceURL != "" {
		catalog = services.NewHTTPCatalog(cfg.CatalogServiceURL)
	}

	orderService := services.NewOrderService(orderRepo, customerRepo, catalog, policy, publisher, metricsClient, zapLogger)
	reportService := services.NewReportService(reportRepo, customerRepo, itemRepo, reportCache, cfg.ReportLocation, metricsClient, zapLogger)

	orderController := controllers.NewOrderController(orderService, cfg.ReportLocation)
	reportController := controllers.NewReportController(reportService)

	// --- HTTP router ---
	limiter := middleware.NewRateLimiter(cfg.RateLimit, cfg.RateBurst, 5*time.Minute)
	defer limiter.Stop()

	r := gin.New()
	r.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		middleware.CORSMiddleware(cfg.AllowedOrigins),
		middleware.RateLimitMiddleware(limiter),
		middleware.HTTPLogging(zapLogger),
		middleware.Metrics(metricsClient, serviceName),
		middleware.Timeout(30*time.Second),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": serviceName})
	})
	routes.RegisterOrderRoutes(r, orderController, cfg.JWTSecret)
	routes.RegisterReportRoutes(r, reportController, cfg.JWTSecret)
	routes.RegisterBoardRoutes(r, hub, cfg.JWTSecret)

	// --- Run ---
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return hub.Run(gctx) })

	g.Go(func() error {
		zapLogger.Info("Restaurant Service started",
			zap.String("port", cfg.Port),
			zap.String("status_policy", policy.Name()),
			zap.String("events_backend", cfg.EventsBackend),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		zapLogger.Info("Initiating graceful shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.KitchenQueueURL != "" && awsErr == nil {
		consumer := services.NewKitchenStatusConsumer(aws_pkg.NewSQSConsumer(awsCfg, cfg.KitchenQueueURL), orderService, metricsClient)
		g.Go(func() error { return consumer.Start(gctx) })
	}

	if err := g.Wait(); err != nil {
		zapLogger.Error("Service stopped with error", zap.Error(err))
	}

	if err := publisher.Close(); err != nil {
		zapLogger.Error("Events publisher close error", zap.Error(err))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if err := database.Close(db); err != nil {
		zapLogger.Error("Database close error", zap.Error(err))
	}
	if cwWriter != nil {
		_ = cwWriter.Sync()
	}

	zapLogger.Info("Restaurant Service stopped gracefully")
}

// buildPublisher returns the outbound events backend selected by
// EVENTS_BACKEND.
func buildPublisher(cfg *Config, awsCfg aws.Config, awsErr error) (events.Publisher, error) {
	switch cfg.EventsBackend {
	case events.BackendKafka:
		return events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaOrderTopic), nil
	case events.BackendRabbitMQ:
		return events.NewRabbitMQPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange)
	case events.BackendSNS:
		if awsErr != nil || cfg.OrderEventsTopicARN == "" {
			return events.NoopPublisher{}, nil
		}
		return events.NewSNSPublisher(aws_pkg.NewSNSClient(awsCfg), cfg.OrderEventsTopicARN), nil
	default:
		return events.NoopPublisher{}, nil
	}
}
