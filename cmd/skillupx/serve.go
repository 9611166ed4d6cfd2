package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/skillupx/skillupx/api"
)

const shutdownTimeout = 10 * time.Second

func newServeCmd(a *app) *cobra.Command {
	var (
		addr    string
		origins []string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		Long: `Start an HTTP server for wrapping and executing submissions.

Endpoints:
  GET  /health              Health check
  GET  /metrics             Request counters
  GET  /api/languages       Supported languages
  POST /api/names           Derive a function name from a title
  POST /api/wrap            Wrap user code into a runnable program
  GET  /api/problems        List the problem catalog
  GET  /api/problems/{id}   Show one problem
  POST /api/run             Wrap and execute
  GET  /api/ws/run          Wrap and execute, streaming results over a websocket`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = a.cfg.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			handler, cleanup, err := a.buildServer(ctx, origins)
			if err != nil {
				return err
			}
			defer cleanup()

			srv := &http.Server{
				Addr:              addr,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				a.logger.Info("skillupx listening", "addr", addr, "backend", a.cfg.Backend)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from SKILLUPX_ADDR or :8080)")
	cmd.Flags().StringSliceVar(&origins, "origin", nil, "Allowed CORS origin (repeatable, default any)")
	return cmd
}

// buildServer wires the catalog, the backend and the wrapper into the API.
// A backend that cannot start leaves the run endpoints answering 503.
func (a *app) buildServer(ctx context.Context, origins []string) (http.Handler, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, err
	}
	resolver, err := resolverFor(ctx, store)
	if err != nil {
		closeStore()
		return nil, nil, err
	}

	opts := []api.Option{
		api.WithStore(store),
		api.WithLogger(a.logger),
		api.WithRateLimit(a.cfg.RateLimit, a.cfg.RateBurst),
		api.WithMaxSourceBytes(a.cfg.MaxSourceBytes),
		api.WithLimits(a.cfg.TimeLimit, a.cfg.MemoryLimitKB),
		api.WithConcurrency(a.cfg.Concurrency),
	}
	if len(origins) > 0 {
		opts = append(opts, api.WithAllowedOrigins(origins...))
	}

	cleanup := closeStore
	r, closeRunner, err := a.newRunner(ctx)
	switch {
	case err == nil:
		opts = append(opts, api.WithRunner(r))
		cleanup = func() {
			closeRunner()
			closeStore()
		}
	case errors.Is(err, errNoBackend):
		a.logger.Info("execution disabled", "backend", a.cfg.Backend)
	default:
		a.logger.Warn("execution backend unavailable", "backend", a.cfg.Backend, "err", err)
	}

	return api.New(newWrapper(resolver), opts...).Handler(), cleanup, nil
}
