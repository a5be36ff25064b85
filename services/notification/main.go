package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"starcast/pkg/cache"
	"starcast/pkg/config"
	"starcast/pkg/database"
	"starcast/pkg/jwt"
	"starcast/pkg/logger"
	"starcast/pkg/middleware"
	"starcast/pkg/queue"
	notificationHTTP "starcast/services/notification/internal/controller/http"
	"starcast/services/notification/internal/repo/persistent"
	"starcast/services/notification/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	if cfg.JWTSecret == "your-secret-key-change-in-production" || cfg.JWTSecret == "" {
		panic("JWT_SECRET must be set in environment variables")
	}

	log := logger.New()
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Error("Failed to connect to database: %v", err)
		panic(err)
	}

	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		log.Error("Failed to connect to redis: %v", err)
		panic(err)
	}

	// The dispatcher is the queue's only consumer; without it the service
	// has no purpose, so rabbitmq failures are fatal here.
	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Error("Failed to connect to RabbitMQ: %v", err)
		panic(err)
	}

	jwtService := jwt.NewService(cfg.JWTSecret)
	notificationRepo := persistent.NewNotificationRepository(db)
	notificationUseCase := usecase.NewNotificationUseCase(
		notificationRepo,
		usecase.NewRedisPublisher(redisClient),
		log,
	)
	notificationHandler := notificationHTTP.NewNotificationHandler(notificationUseCase, log)

	if err := queueClient.ConsumeNotificationTasks(notificationUseCase.Dispatch); err != nil {
		log.Error("Failed to start notification consumer: %v", err)
		panic(err)
	}

	r := gin.Default()

	// CORS middleware
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://127.0.0.1:3000", "*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * 3600,
	}))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))
	api.Use(middleware.AuthMiddleware(jwtService))
	{
		api.GET("/notifications", notificationHandler.GetNotifications)
		api.GET("/notifications/unread-count", notificationHandler.GetUnreadCount)
		api.PUT("/notifications/:id/read", notificationHandler.MarkRead)
		api.PUT("/notifications/read-all", notificationHandler.MarkAllRead)
		api.DELETE("/notifications/:id", notificationHandler.DeleteNotification)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info("Notification service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down notification service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	queueClient.Close()

	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("Error closing database: %v", err)
		}
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		panic(err)
	}

	log.Info("Notification service exited")
}
