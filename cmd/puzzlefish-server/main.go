// Package main implements the puzzle server: it fetches a player's
// recent engine-analyzed games, synthesizes missed-tactic puzzles and
// serves them over a RESTful API.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"puzzlefish/cmd/puzzlefish-server/cli"
	"puzzlefish/internal/config"
	"puzzlefish/internal/http"
	"puzzlefish/internal/provider"
	"puzzlefish/internal/replay"
	"puzzlefish/internal/rules"
	"puzzlefish/internal/service"
	"puzzlefish/internal/storage"
)

const gracefulShutdownTimeout = time.Second * 5

func main() {
	// Check for CLI database commands
	if len(os.Args) > 1 && os.Args[1] == "db" {
		if err := cli.Run(os.Args[2:]); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		os.Exit(0)
	}

	// Command-line flags
	var (
		configPath = flag.String("config", "", "Path to YAML config file (optional)")
		listenAddr = flag.String("listen", "", "Listen address, overrides config")
		dev        = flag.Bool("dev", false, "Development mode (relaxed rate limits, WAL journal)")
		pidPath    = flag.String("pid", "", "Optional path to write PID file")
		pidLock    = flag.Bool("pid-lock", false, "Lock PID file to allow only one instance (requires -pid)")
	)
	flag.Parse()

	// Validate PID flags
	if *pidLock && *pidPath == "" {
		log.Fatal("Error: -pid-lock flag requires the -pid flag to be set")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *dev {
		cfg.DevMode = true
	}

	// Manage PID file if requested
	if *pidPath != "" {
		cleanup, err := managePIDFile(*pidPath, *pidLock)
		if err != nil {
			log.Fatalf("Failed to manage PID file: %v", err)
		}
		defer cleanup()
		log.Printf("PID file created at: %s (lock: %v)", *pidPath, *pidLock)
	}

	// 1. Initialize storage
	log.Printf("Initializing persistent storage at: %s", cfg.DatabasePath)
	store, err := storage.NewStore(cfg.DatabasePath, cfg.DevMode)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	if err := store.InitDB(); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("Warning: failed to close storage cleanly: %v", err)
		}
	}()

	// 2. Initialize the game source and the replayer
	source := provider.New(cfg.ProviderURL, cfg.ProviderToken, cfg.MaxGames)
	replayer := replay.New(rules.NewStandardEngine())

	// 3. Initialize the service, injecting store, source and replayer
	svc := service.New(store, source, replayer, service.Config{
		FetchTTL:         cfg.FetchTTL(),
		FetchTimeout:     cfg.FetchTimeout(),
		LinkBase:         cfg.LinkBase,
		BlunderThreshold: cfg.BlunderThreshold,
		WinningClamp:     cfg.WinningClamp,
		OwnColorOnly:     cfg.OwnColorOnly,
	})

	// 4. Initialize the Fiber app, injecting the service
	app := http.NewFiberApp(svc, cfg.DevMode)

	// Start API server in a goroutine
	go func() {
		log.Printf("Puzzle API Server starting...")
		log.Printf("API Listening on: %s", cfg.ListenAddr)
		log.Printf("API Version: v1")
		log.Printf("Game provider: %s (max %d games per fetch)", cfg.ProviderURL, cfg.MaxGames)
		if cfg.DevMode {
			log.Printf("Rate Limit: 20 requests/second per IP (DEV MODE)")
		} else {
			log.Printf("Rate Limit: 10 requests/second per IP")
		}
		log.Printf("Storage: %s", cfg.DatabasePath)
		log.Printf("API Endpoints: /api/v1/players/:userId/puzzles, /api/v1/puzzles")
		log.Printf("Health: /health")

		if err := app.Listen(cfg.ListenAddr); err != nil {
			log.Printf("API server listen error: %v", err)
		}
	}()

	// Wait for an interrupt signal to gracefully shut down
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer shutdownCancel()

	// Graceful shutdown of HTTP server with timeout
	if err = app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Wait for in-flight background fetches to drain
	if err = svc.Shutdown(gracefulShutdownTimeout); err != nil {
		log.Printf("Service shutdown error: %v", err)
	}

	log.Println("Server exited")
}
