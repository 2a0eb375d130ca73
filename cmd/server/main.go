package main

import (
	"code_golf/internal/api"
	"code_golf/internal/app/service"
	"code_golf/internal/app/worker"
	"code_golf/internal/common/security"
	"code_golf/internal/domain/repository"
	"code_golf/internal/platform/config"
	"code_golf/internal/platform/database"
	"code_golf/internal/platform/grader"
	"code_golf/internal/platform/queue"
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

func main() {
	// 1. Load Configuration
	config.Load()
	fmt.Println("Configuration loaded.")

	// 2. Initialize JWT
	security.InitJWT()
	fmt.Println("JWT initialized.")

	// 3. Initialize Database
	database.Connect()
	defer database.Close()
	fmt.Println("Database connected.")

	// 4. Initialize Redis
	queue.ConnectRedis()
	defer queue.CloseRedis()
	fmt.Println("Redis connected.")

	// 5. Initialize Repositories
	accountRepo := repository.NewPgAccountRepository(database.DB)
	challengeRepo := repository.NewPgChallengeRepository(database.DB)
	solutionRepo := repository.NewPgSolutionRepository(database.DB)

	// 6. Initialize Grader client & Services
	graderClient := grader.NewClient()

	authService := service.NewAuthService(accountRepo)
	challengeService := service.NewChallengeService(challengeRepo, queue.RDB, database.DB)
	solutionService := service.NewSolutionService(solutionRepo, challengeRepo, graderClient, database.DB)
	leaderboardService := service.NewLeaderboardService(solutionRepo)
	invalidationService := service.NewInvalidationService(solutionRepo)

	// 7. Initialize Regrade Worker (as a goroutine)
	regradeWorker := worker.NewRegradeWorker(queue.RDB, solutionRepo, challengeRepo, graderClient, database.DB)
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	go regradeWorker.Start(workerCtx)
	fmt.Println("Regrade worker started.")

	// 8. Initialize Router & HTTP Server
	router := api.NewRouter(authService, challengeService, solutionService, leaderboardService, invalidationService)

	server := &http.Server{
		Addr:         ":" + config.AppConfig.APIPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 9. Graceful Shutdown
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
	workerCancel() // Signal worker to stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server and worker stopped gracefully.")
}
