package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/roomchat-server/internal/auth"
	"github.com/vovakirdan/roomchat-server/internal/config"
	"github.com/vovakirdan/roomchat-server/internal/core"
	"github.com/vovakirdan/roomchat-server/internal/store/sqlite"
	transport "github.com/vovakirdan/roomchat-server/internal/transport/http"
)

// App owns the server's long-lived components and their shutdown order.
type App struct {
	cfg    config.Config
	log    *zerolog.Logger
	store  *sqlite.SQLiteStore
	hub    *core.Hub
	server *http.Server
}

// New wires the store, auth service, hub, and HTTP server together.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	st, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	jwtCfg := &auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.TokenTTL,
	}
	authService := auth.NewService(st, jwtCfg)
	history := core.NewHistory(st, cfg.HistoryLimit, cfg.HistoryMaxLimit)
	hub := core.NewHub(st, history, logger)
	server := transport.NewServer(hub, authService, history, cfg, logger)

	return &App{
		cfg:    cfg,
		log:    logger,
		store:  st,
		hub:    hub,
		server: server,
	}, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close(context.Background())
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	a.log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	return a.close(shutdownCtx)
}

// close tears components down in dependency order. The hub goes first so that
// open WebSocket handlers return and the HTTP server can drain.
func (a *App) close(ctx context.Context) error {
	a.hub.Shutdown()

	var firstErr error
	if err := a.server.Shutdown(ctx); err != nil {
		firstErr = fmt.Errorf("shutdown server: %w", err)
	}
	if err := a.store.Close(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close store: %w", err)
	}
	return firstErr
}
