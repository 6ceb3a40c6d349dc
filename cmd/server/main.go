package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crowdsolve/internal/api"
	"crowdsolve/internal/app/service"
	"crowdsolve/internal/common/security"
	"crowdsolve/internal/domain/repository"
	"crowdsolve/internal/platform/cache"
	"crowdsolve/internal/platform/config"
	"crowdsolve/internal/platform/database"
	"crowdsolve/internal/platform/storage"
	"crowdsolve/internal/platform/tracing"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Tracing (no-op unless OTEL_EXPORTER_OTLP_ENDPOINT is set)
	shutdownTracing, err := tracing.Init(context.Background(), "crowdsolve", config.AppConfig.Environment)
	if err != nil {
		log.Fatalf("Could not initialize tracing: %v", err)
	}

	// 4. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 5. Initialize Redis (list cache)
	listCache := cache.ConnectRedis()
	defer listCache.Close()
	fmt.Println("Redis connected.")

	// 6. Initialize Object Storage
	objectStore, err := storage.NewGCSStore(context.Background(), config.AppConfig.GCSBucket, config.AppConfig.GCSCredentialFile)
	if err != nil {
		log.Fatalf("Could not initialize GCS storage: %v", err)
	}
	defer objectStore.Close()
	fmt.Println("Object storage initialized.")

	// 7. Initialize Repositories
	userRepo := repository.NewPgUserRepository(database.DB)
	problemRepo := repository.NewPgProblemRepository(database.DB)
	solutionRepo := repository.NewPgSolutionRepository(database.DB)
	voteRepo := repository.NewPgVoteRepository(database.DB)

	// 8. Initialize Services
	authService := service.NewAuthService(userRepo)
	problemService := service.NewProblemService(problemRepo, solutionRepo, listCache, config.AppConfig.CacheTTL)
	solutionService := service.NewSolutionService(solutionRepo, problemRepo, userRepo, database.DB)
	voteService := service.NewVoteService(voteRepo, solutionRepo, userRepo, database.DB)
	userService := service.NewUserService(userRepo, problemRepo, solutionRepo, objectStore)
	statsService := service.NewStatsService(userRepo, problemRepo, solutionRepo)

	// 9. Initialize Router & HTTP Server
	router := api.NewRouter(authService, problemService, solutionService, voteService, userService, statsService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 10. Graceful Shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", config.AppConfig.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not listen on %s: %v\n", config.AppConfig.APIPort, err)
		}
	}()
	log.Println("Server started successfully.")

	<-stop // Wait for interrupt signal

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Printf("Tracing shutdown failed: %v", err)
	}

	log.Println("Server stopped gracefully.")
}
