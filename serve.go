package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"namaste-memory-server/api"
	"namaste-memory-server/auth"
	"namaste-memory-server/config"
	"namaste-memory-server/loghandler"
	"namaste-memory-server/session"
	"namaste-memory-server/storage"
	"namaste-memory-server/ws"
)

var flagPort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the game server",
	Long: `Start the WebSocket game server (/ws) together with the HTTP API
(/api/catalog, /api/metrics, /healthz).

Examples:
  namaste-memory serve
  namaste-memory serve --port 9090 --config ./config.yaml`,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found; using environment variables", "tag", "main")
	}

	cfg := config.Load(flagConfigPath)
	if flagPort > 0 {
		cfg.WSPort = flagPort
	}
	slog.SetDefault(slog.New(loghandler.NewCompactHandler(os.Stdout, cfg.SlogLevel())))

	if cfg.NeonAuthBaseURL == "" {
		slog.Info("NEON_AUTH_BASE_URL is not set; auth messages and /api/metrics are rejected", "tag", "auth")
	} else {
		slog.Info("auth configured", "tag", "auth", "base_url", cfg.NeonAuthBaseURL)
	}
	slog.Info("configuration", "tag", "main",
		"reveal_ms", cfg.RevealDurationMS, "mismatch_ms", cfg.MismatchDelayMS,
		"result_ms", cfg.ResultDelayMS, "tick_ms", cfg.TickIntervalMS, "port", cfg.WSPort)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.NewStore(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Warn("telemetry disabled: could not connect to Postgres", "tag", "storage", "err", err)
		store = nil
	}
	defer store.Close()

	opts := session.Options{Config: cfg}
	var metrics api.MetricsStore
	var sink *storage.Sink
	if store != nil {
		sink = storage.NewSink(store, 0)
		go sink.Run(context.Background())
		opts.Telemetry = sink
		metrics = store
	}

	app := newApp(ctx, cfg, opts, metrics)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WSPort),
		Handler: app.handler,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "tag", "main", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
		slog.Info("shutting down", "tag", "main")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("http shutdown", "tag", "main", "err", err)
	}
	// Closing sessions queues their unfinished rounds; drain them before the deferred store.Close.
	app.sessions.CloseAll()
	sink.Close()
	drainCtx, cancelDrain := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelDrain()
	if err := sink.Wait(drainCtx); err != nil {
		slog.Warn("telemetry not fully written before shutdown", "tag", "storage", "err", err)
	}
	return nil
}

// app is the wired server: session manager, websocket hub and HTTP router.
type app struct {
	sessions *session.Manager
	hub      *ws.Hub
	handler  http.Handler
}

// newApp wires the session manager, hub and router. The hub runs until ctx is cancelled.
func newApp(ctx context.Context, cfg *config.Config, opts session.Options, metrics api.MetricsStore) *app {
	opts.Config = cfg
	sessions := session.NewManager(opts)
	validator := auth.NewValidator(cfg.NeonAuthBaseURL)

	hub := ws.NewHub(cfg, sessions, validator)
	go hub.Run(ctx)

	handler := api.NewRouter(api.NewHandler(cfg, validator, metrics, sessions), hub.ServeWS)
	return &app{sessions: sessions, hub: hub, handler: handler}
}
