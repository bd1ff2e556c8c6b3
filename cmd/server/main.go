package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/shuoxuer/shuoxuer-website/internal/api"
	"github.com/shuoxuer/shuoxuer-website/internal/config"
	"github.com/shuoxuer/shuoxuer-website/internal/logging"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/jsonfile"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/objectstore"
	"github.com/shuoxuer/shuoxuer-website/internal/repository/redis"
)

func main() {
	// Load .env file - try multiple locations
	envPaths := []string{".env", "../.env", "../../.env"}
	envLoaded := false
	for _, p := range envPaths {
		if err := godotenv.Load(p); err == nil {
			fmt.Printf("Loaded .env from: %s\n", p)
			envLoaded = true
			break
		}
	}
	if !envLoaded {
		fmt.Println("Warning: .env file not found in any standard location")
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logCloser, err := logging.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()

	log.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Str("data_dir", cfg.Storage.DataDir).
		Msg("Starting badminton coach API server")

	// Initialize JSON store
	db, err := jsonfile.NewDB(cfg.Storage.DataDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open data dir")
	}

	// Initialize Redis
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = redis.NewClient(context.Background(), cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Msg("Redis unavailable, using in-process rate limiting and no embedding cache")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	// Initialize media storage
	mediaStore, err := objectstore.New(context.Background(), cfg.Storage.Media)
	if err != nil {
		log.Warn().Err(err).Str("backend", cfg.Storage.Media.Backend).Msg("Media storage unavailable, uploads will not be kept")
		mediaStore = nil
	}

	// Initialize router
	router := api.NewRouter(cfg, db, redisClient, mediaStore)

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server stopped")
}
