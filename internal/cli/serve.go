package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"donation-flow/internal/certificate"
	"donation-flow/internal/config"
	"donation-flow/internal/donation"
	"donation-flow/internal/handler"
	"donation-flow/internal/history"
	"donation-flow/internal/logger"
	"donation-flow/internal/metrics"
	"donation-flow/internal/middleware"
	"donation-flow/internal/storage"
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides server.addr)")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the donation HTTP service",
	Long: `Start the HTTP API. OpenAPI docs are served at /docs, Prometheus
metrics at /metrics and a liveness probe at /healthz.`,
	RunE: runServe,
}

// services are the long-lived dependencies behind the router.
type services struct {
	cfg       config.Config
	log       *slog.Logger
	metrics   *metrics.Metrics
	gatherer  prometheus.Gatherer
	registry  *donation.Registry
	slots     storage.Store
	history   *history.Store
	generator certificate.Generator
	tracker   *certificate.Tracker
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		cfg.Server.Addr = addr
	}

	log, logCloser, err := logger.New(cfg.Log.LoggerConfig(), os.Stderr)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	durable, closeStore, err := openDurableStore(ctx, cfg.Storage, log)
	if err != nil {
		log.Error("failed to open history store", slog.String("error", err.Error()))
		return err
	}
	defer closeStore()

	promReg := prometheus.NewRegistry()
	promReg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(promReg)

	registry := donation.NewRegistry(log)
	m.TrackSessions(promReg, registry.Len)

	svc := services{
		cfg:       cfg,
		log:       log,
		metrics:   m,
		gatherer:  promReg,
		registry:  registry,
		slots:     m.InstrumentStore(storage.NewMemory(cfg.Storage.SessionQuota), "session"),
		history:   history.New(m.InstrumentStore(durable, "history"), log),
		generator: certificate.NewClient(cfg.Certificate.GeneratorURL, cfg.Certificate.TimeoutDuration()),
		tracker:   certificate.NewTracker(cfg.Certificate.ErrorResetDelayDuration()),
	}

	go registry.RunSweeper(ctx, cfg.Server.SweepIntervalDuration(), cfg.Server.SessionTTLDuration())

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           newRouter(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting",
			slog.String("addr", cfg.Server.Addr),
			slog.String("storage", cfg.Storage.Driver),
			slog.Bool("metrics", cfg.Metrics.Enabled),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Error("server error", slog.String("error", err.Error()))
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
		return err
	}
	log.Info("server stopped", slog.Int("open_sessions", registry.Len()))
	return nil
}

func newRouter(svc services) http.Handler {
	router := chi.NewMux()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger(svc.log))
	router.Use(middleware.Recovery(svc.log))
	router.Use(middleware.CORS(svc.cfg.Server.CORSOrigins))
	if svc.cfg.Metrics.Enabled {
		router.Use(middleware.Metrics(svc.metrics))
	}
	router.Use(chimw.Timeout(svc.cfg.Server.RequestTimeoutDuration()))

	// Health check (plain chi route, outside huma)
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	if svc.cfg.Metrics.Enabled {
		router.Handle("/metrics", promhttp.HandlerFor(svc.gatherer, promhttp.HandlerOpts{}))
	}

	// Huma API (OpenAPI 3.1)
	apiCfg := huma.DefaultConfig("Donation Flow API", "1.0.0")
	apiCfg.Info.Description = "Donation sessions, history lookup and certificate downloads."
	api := humachi.New(router, apiCfg)

	handler.NewCatalogHandler().RegisterRoutes(api)
	handler.NewSessionHandler(svc.registry, svc.slots, svc.history, svc.metrics, svc.log).RegisterRoutes(api)
	handler.NewHistoryHandler(svc.history, svc.log).RegisterRoutes(api)
	handler.NewCertificateHandler(svc.generator, svc.tracker, svc.metrics, svc.log).RegisterRoutes(api)

	return router
}
