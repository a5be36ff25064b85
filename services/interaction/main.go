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
	interactionHTTP "starcast/services/interaction/internal/controller/http"
	"starcast/services/interaction/internal/repo/persistent"
	"starcast/services/interaction/internal/usecase"

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

	queueClient, err := queue.NewRabbitMQClient(cfg, log)
	if err != nil {
		log.Warn("RabbitMQ unavailable, notifications disabled: %v", err)
		queueClient = nil
	}

	jwtService := jwt.NewService(cfg.JWTSecret)
	interactionRepo := persistent.NewInteractionRepository(db)
	// A typed nil must not reach the interface field; the usecase
	// nil-checks before enqueueing.
	var taskQueue usecase.TaskQueue
	if queueClient != nil {
		taskQueue = queueClient
	}
	interactionUseCase := usecase.NewInteractionUseCase(
		interactionRepo,
		usecase.NewRedisPublisher(redisClient),
		taskQueue,
		log,
	)
	interactionHandler := interactionHTTP.NewInteractionHandler(interactionUseCase, log)

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

	// Public reads
	api.GET("/interactions/sessions/:session_id/comments", interactionHandler.GetComments)
	api.GET("/interactions/sessions/:session_id/gifts", interactionHandler.GetGifts)
	api.GET("/interactions/users/:user_id/followers", interactionHandler.GetFollowers)
	api.GET("/interactions/users/:user_id/following", interactionHandler.GetFollowing)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtService))
	{
		protected.POST("/interactions/sessions/:session_id/like", interactionHandler.ToggleLike)
		protected.POST("/interactions/sessions/:session_id/book", interactionHandler.ToggleBooking)
		protected.POST("/interactions/sessions/:session_id/comment", interactionHandler.AddComment)
		protected.POST("/interactions/sessions/:session_id/gift", interactionHandler.SendGift)
		protected.POST("/interactions/sessions/:session_id/join", interactionHandler.JoinSession)
		protected.POST("/interactions/sessions/:session_id/leave", interactionHandler.LeaveSession)
		protected.POST("/interactions/users/:user_id/follow", interactionHandler.ToggleFollow)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info("Interaction service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down interaction service...")

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

	log.Info("Interaction service exited")
}
