package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cartflow/controllers"
	"cartflow/database"
	"cartflow/events"
	"cartflow/middleware"
	"cartflow/models"
	"cartflow/repository"
	"cartflow/routes"
	"cartflow/scheduler"
	"cartflow/sender"
	"cartflow/services"
	"cartflow/suppression"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	cfg, err := LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	location, err := time.LoadLocation(cfg.TimeZone)
	if err != nil {
		logger.Fatal("Invalid timezone", zap.String("timezone", cfg.TimeZone), zap.Error(err))
	}

	db, err := database.ConnectPostgres(cfg.Postgres, logger,
		&models.Product{}, &models.CartItem{}, &models.Order{}, &models.OrderItem{})
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	if cfg.SeedProducts {
		if err := database.SeedProducts(db); err != nil {
			logger.Fatal("Product seed failed", zap.Error(err))
		}
		logger.Info("Product catalog seeded")
	}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		logger.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	emailSender, err := sender.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
	if err != nil {
		logger.Fatal("Failed to configure mail transport", zap.Error(err))
	}

	// Repositories
	productRepo := repository.NewGormProductRepository(db)
	cartRepo := repository.NewGormCartRepository(db)
	orderRepo := repository.NewGormOrderRepository(db, productRepo)

	// Services
	suppressionStore := suppression.NewRedisStore(redisClient)
	notificationService, err := services.NewNotificationService(
		orderRepo, suppressionStore, emailSender,
		cfg.OperatorEmail, cfg.SuppressionTTL, location, logger,
	)
	if err != nil {
		logger.Fatal("Failed to build notification service", zap.Error(err))
	}

	var publisher services.OrderEventPublisher
	var kafkaPublisher *events.KafkaPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher = events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
		publisher = kafkaPublisher
		defer kafkaPublisher.Close()
	} else {
		logger.Warn("Kafka not configured, order events disabled")
	}

	cartService := services.NewCartService(cartRepo, productRepo, logger)
	checkoutService := services.NewCheckoutService(cartRepo, orderRepo, notificationService, publisher, logger)

	// Controllers
	productController := controllers.NewProductController(productRepo, logger)
	cartController := controllers.NewCartController(cartService)
	checkoutController := controllers.NewCheckoutController(checkoutService)
	orderController := controllers.NewOrderController(orderRepo, logger)

	// Daily digest scheduler
	schedCtx, schedCancel := context.WithCancel(context.Background())
	defer schedCancel()
	digestScheduler, err := scheduler.NewDigestScheduler(notificationService, cfg.DigestAt, location, logger)
	if err != nil {
		logger.Fatal("Failed to build digest scheduler", zap.Error(err))
	}
	digestScheduler.Start(schedCtx)

	r := gin.New()
	r.Use(gin.Recovery())

	// Structured request logging
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})

	// 30-second request timeout
	r.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	})

	r.Use(middleware.RateLimitMiddleware(rate.Every(time.Minute/100), 50))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "cartflow"})
	})

	routes.RegisterRoutes(r, productController, cartController, checkoutController, orderController)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	logger.Info("CartFlow started", zap.String("port", cfg.Port))
	<-quit
	logger.Info("Shutting down...")

	schedCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("Server exited cleanly")
}
