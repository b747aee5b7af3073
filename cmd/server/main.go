package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"campus-hostel-backend/internal/config"
	"campus-hostel-backend/internal/database"
	"campus-hostel-backend/internal/events"
	"campus-hostel-backend/internal/handler"
	"campus-hostel-backend/internal/middleware"
	"campus-hostel-backend/internal/repository"
	"campus-hostel-backend/internal/service"
	"campus-hostel-backend/pkg/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

func main() {
	// 1. Load configuration
	cfg := config.LoadConfig()
	log.Println("Configuration loaded successfully")

	// 2. Initialize JWT utilities with config
	utils.InitJWT(
		cfg.JWT.AccessSecret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	// 3. Initialize database connection
	db := database.Connect(cfg)

	// 4. Allocation event publisher
	var publisher events.Publisher = events.NoopPublisher{}
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher, err := events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.AllocationTopic)
		if err != nil {
			log.Printf("Warning: allocation events disabled: %v", err)
		} else {
			publisher = kafkaPublisher
			log.Printf("Publishing allocation events to %s", cfg.Kafka.AllocationTopic)
		}
	}
	defer publisher.Close()

	// 5. Initialize repositories
	userRepo := repository.NewUserRepo(db)
	auditRepo := repository.NewAuditRepo(db)
	blockRepo := repository.NewBlockRepo(db)
	roomRepo := repository.NewRoomRepo(db)
	allocationRepo := repository.NewAllocationRepo(db)

	// 6. Initialize services
	reports := service.NewReportCache(cfg.Report.CacheTTL)
	authService := service.NewAuthService(userRepo, auditRepo)
	blockService := service.NewBlockService(db, blockRepo, roomRepo, userRepo, auditRepo, reports)
	roomService := service.NewRoomService(db, roomRepo, blockRepo, allocationRepo, auditRepo, reports)
	allocationService := service.NewAllocationService(
		db, allocationRepo, roomRepo, roomService, blockRepo, userRepo, auditRepo, publisher, reports,
	)

	// 7. Setup Gin mode and router
	gin.SetMode(cfg.Server.GinMode)
	r := gin.Default()
	r.Use(middleware.CORS(cfg))

	// 8. Register handlers and routes
	handler.RegisterRoutes(r, handler.Handlers{
		Auth:        handler.NewAuthHandler(authService, cfg.Server.GinMode == gin.ReleaseMode),
		Blocks:      handler.NewBlockHandler(blockService),
		Rooms:       handler.NewRoomHandler(roomService),
		Allocations: handler.NewAllocationHandler(allocationService),
	}, middleware.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst))

	// 9. Start background session cleanup
	workerCtx, stopWorker := context.WithCancel(context.Background())
	go service.NewSessionCleanupWorker(userRepo, cfg.JWT.CleanupInterval).Start(workerCtx)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 10. Start server and wait for shutdown signal
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stopWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("Server exited")
}
