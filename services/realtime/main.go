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
	"starcast/pkg/queue"
	"starcast/services/realtime/internal/controller/ws"
	"starcast/services/realtime/internal/hub"
	"starcast/services/realtime/internal/repo/persistent"
	"starcast/services/realtime/internal/subscriber"
	"starcast/services/realtime/internal/usecase"

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

	// Redis is the delivery backbone here; without it no events reach
	// the sockets, so a connection failure is fatal.
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
	roomRepo := persistent.NewRoomRepository(db)
	// A typed nil must not reach the interface field; the usecase
	// nil-checks before enqueueing.
	var taskQueue usecase.TaskQueue
	if queueClient != nil {
		taskQueue = queueClient
	}
	realtimeUseCase := usecase.NewRealtimeUseCase(
		roomRepo,
		usecase.NewRedisPublisher(redisClient),
		taskQueue,
		log,
	)

	socketHub := hub.NewHub(log)
	wsHandler := ws.NewHandler(socketHub, realtimeUseCase, jwtService, log)

	subCtx, subCancel := context.WithCancel(context.Background())
	go subscriber.New(redisClient, socketHub, log).Start(subCtx)

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
		c.JSON(200, gin.H{
			"status":  "ok",
			"clients": socketHub.ClientCount(),
		})
	})

	r.GET("/ws", wsHandler.HandleWebSocket)

	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: r,
	}

	go func() {
		log.Info("Realtime service starting on port %s", cfg.ServerPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Failed to start server: %v", err)
			panic(err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down realtime service...")

	subCancel()

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

	log.Info("Realtime service exited")
}
