package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/tvimport/internal/catalog"
	"github.com/JonMunkholm/tvimport/internal/config"
	"github.com/JonMunkholm/tvimport/internal/web"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the read API over the catalog",
		Long: `Serve exposes the imported catalog as a JSON API under /api (guarded by
X-API-Key unless REQUIRE_API_KEY=false), plus /healthz, /readyz and /metrics.`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd, func(c *config.Config) error { return c.ValidateServer() })
	if err != nil {
		return err
	}
	if cfg.Security.RequireAPIKey && len(cfg.Security.APIKeys) == 0 {
		slog.Warn("REQUIRE_API_KEY is set but API_KEYS is empty; every /api request will be rejected")
	}

	pool, err := connect(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	server := web.NewServer(catalog.NewStore(pool), cfg.Server, cfg.Security)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
		return err
	}
	slog.Info("server stopped")
	return nil
}
