// Package app wires the application together and owns the server
// lifecycle.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/abrezinsky/trackbet/internal/config"
	"github.com/abrezinsky/trackbet/internal/handlers"
	"github.com/abrezinsky/trackbet/internal/hub"
	"github.com/abrezinsky/trackbet/internal/logger"
	"github.com/abrezinsky/trackbet/internal/repository"
	"github.com/abrezinsky/trackbet/internal/session"
)

// App holds all application dependencies
type App struct {
	log      logger.Logger
	cfg      *config.Config
	handlers *handlers.Handlers
	repo     *repository.Repository
	baseURL  string
}

// New creates and initializes a new application instance
func New(log logger.Logger, cfg *config.Config) (*App, error) {
	repo, err := repository.New(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	sessions := session.NewManager(log, repo, rng, cfg.MaxRaces, cfg.MaxPlayers)

	gameHub := hub.New(log)
	sessions.SetBroadcaster(gameHub)

	baseURL := cfg.BaseURL
	if baseURL == "" || strings.Contains(baseURL, "localhost") {
		// QR codes pointing at localhost are useless to other devices
		ip := getPreferredIP(realNetworkProvider{})
		baseURL = fmt.Sprintf("http://%s:%d", ip, cfg.Port)
	}

	h := handlers.New(sessions, gameHub, log, baseURL)

	return &App{
		log:      log,
		cfg:      cfg,
		handlers: h,
		repo:     repo,
		baseURL:  baseURL,
	}, nil
}

// Router returns the configured HTTP router
func (a *App) Router() chi.Router {
	return a.handlers.Router()
}

// Run serves HTTP until ctx is cancelled, then shuts down gracefully
func (a *App) Run(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", a.cfg.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: a.Router(),
	}

	a.log.Info("Server starting", "addr", addr, "base_url", a.baseURL)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// Close releases app resources
func (a *App) Close() {
	if a.repo != nil {
		a.repo.Close()
	}
}
