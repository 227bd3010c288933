package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/abrezinsky/trackbet/internal/app"
	"github.com/abrezinsky/trackbet/internal/config"
	"github.com/abrezinsky/trackbet/internal/logger"
)

var (
	version = "dev"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Flag defaults come from the environment, so flags only override
	// what the caller actually passes.
	port := flag.Int("port", cfg.Port, "HTTP server port")
	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	logLevel := flag.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	maxRaces := flag.Int("races", cfg.MaxRaces, "Races per game")
	maxPlayers := flag.Int("players", cfg.MaxPlayers, "Player cap per session")
	baseURL := flag.String("baseurl", cfg.BaseURL, "Advertised base URL (auto-detected if not set)")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `TrackBet - Horse Race Betting Party Server

Usage:
  trackbet [options]

Options:
  -port int      HTTP server port (default 8081)
  -db string     SQLite database path (default "trackbet.db")
  -loglevel str  Log level: debug, info, warn, error (default "info")
  -races int     Races per game (default 4)
  -players int   Player cap per session (default 9)
  -baseurl str   Advertised base URL for join QR codes
  -version       Show version and exit
  -help          Show this help message

Examples:
  trackbet                           # Run on port 8081 with trackbet.db
  trackbet -port 8080                # Run on port 8080
  trackbet -db /data/party.db        # Use custom database path
  trackbet -races 6 -players 12      # House rules

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("trackbet %s\n", version)
		os.Exit(0)
	}

	cfg.Port = *port
	cfg.DBPath = *dbPath
	cfg.LogLevel = *logLevel
	cfg.MaxRaces = *maxRaces
	cfg.MaxPlayers = *maxPlayers
	cfg.BaseURL = *baseURL

	appLog := logger.NewWithLevel(logger.ParseLevel(cfg.LogLevel))

	a, err := app.New(appLog, cfg)
	if err != nil {
		log.Fatal("Failed to initialize application:", err)
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Run(ctx); err != nil {
		log.Fatal(err)
	}
	appLog.Info("Server stopped")
}
