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
	sessionHTTP "starcast/services/session/internal/controller/http"
	"starcast/services/session/internal/repo/persistent"
	"starcast/services/session/internal/usecase"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "starcast/services/session/docs" // Swagger docs
)

// @title           Starcast Session Service API
// @version         1.0
// @description     Live session registry for the Starcast platform

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

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

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, booking reminders disabled: %v", err)
		queueClient = nil
	}

	jwtService := jwt.NewService(cfg.JWTSecret)
	sessionRepo := persistent.NewSessionRepository(db)
	// A typed nil must not reach the interface field; the usecase
	// nil-checks before enqueueing.
	var taskQueue usecase.TaskQueue
	if queueClient != nil {
		taskQueue = queueClient
	}
	sessionUseCase := usecase.NewSessionUseCase(sessionRepo, usecase.NewRedisPublisher(redisClient), taskQueue, log)
	sessionHandler := sessionHTTP.NewSessionHandler(sessionUseCase, log)

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

	// Swagger documentation
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimitMiddleware(redisClient, 100, time.Minute))

	// Public reads; token (when present) personalizes the flags.
	public := api.Group("")
	public.Use(middleware.OptionalAuthMiddleware(jwtService))
	{
		public.GET("/sessions", sessionHandler.ListSessions)
		public.GET("/sessions/:id", sessionHandler.GetSession)
		public.GET("/sessions/creator/:creator_id", sessionHandler.GetCreatorSessions)
	}

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.POST("/sessions", sessionHandler.CreateSession)
		protected.PUT("/sessions/:id/start", sessionHandler.StartSession)
		protected.PUT("/sessions/:id/end", sessionHandler.EndSession)
		protected.PUT("/sessions/:id/status", sessionHandler.UpdateStatus)
		protected.DELETE("/sessions/:id", sessionHandler.DeleteSession)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info("Session service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down session service...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sqlDB, err := db.DB()
	if err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Error("Error closing database: %v", err)
		}
	}

	if err := redisClient.Close(); err != nil {
		log.Error("Error closing Redis: %v", err)
	}

	if queueClient != nil {
		queueClient.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown: %v", err)
		panic(err)
	}

	log.Info("Session service exited")
}
