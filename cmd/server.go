package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"CapIot.telemetry/internal/config"
	"CapIot.telemetry/internal/controller"
	"CapIot.telemetry/internal/repository"
	"CapIot.telemetry/internal/routes"
	"CapIot.telemetry/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	// Initialize repository, service, and controller
	repo, closeRepo, err := newRepository(cfg)
	if err != nil {
		log.Fatalf("Error initializing store: %v", err)
	}
	defer closeRepo()

	svc := service.NewTelemetryService(repo, cfg.ReadingsPath)
	ctrl := controller.NewTelemetryController(svc)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           routes.NewHandler(ctrl, cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Printf("Server running on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Error starting server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Error shutting down server: %v", err)
	}
	log.Println("Server stopped")
}

// newRepository builds the snapshot store selected by the configuration and
// a function releasing it.
func newRepository(cfg config.Config) (repository.SnapshotRepository, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendInfluxDB:
		repo := repository.NewInfluxDBRepository(cfg.InfluxDB.URL, cfg.InfluxDB.Token, cfg.InfluxDB.Org, cfg.InfluxDB.Bucket, cfg.ReadingsPath, cfg.StoreTimeout)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := repo.Ping(ctx); err != nil {
			repo.Close()
			return nil, nil, err
		}
		log.Printf("InfluxDB configured for org %s, bucket %s", cfg.InfluxDB.Org, cfg.InfluxDB.Bucket)
		return repo, repo.Close, nil
	default:
		repo := repository.NewFirebaseRepository(cfg.Firebase.DatabaseURL, cfg.Firebase.AuthToken, cfg.StoreTimeout)
		log.Printf("Firebase configured for: %s", cfg.Firebase.ProjectID)
		return repo, func() {}, nil
	}
}
