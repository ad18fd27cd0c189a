package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arjun1665/SmartFleet/internal/api"
	"github.com/arjun1665/SmartFleet/internal/booking"
	"github.com/arjun1665/SmartFleet/internal/config"
	"github.com/arjun1665/SmartFleet/internal/orchestrator"
	"github.com/arjun1665/SmartFleet/internal/prediction"
	"github.com/arjun1665/SmartFleet/internal/rca"
	"github.com/arjun1665/SmartFleet/internal/security"
	"github.com/arjun1665/SmartFleet/internal/store"
	"github.com/arjun1665/SmartFleet/internal/tasks"
	"github.com/arjun1665/SmartFleet/pkg/eventbus"
	"github.com/arjun1665/SmartFleet/pkg/ledger"
	"github.com/arjun1665/SmartFleet/pkg/otelobs"
	"github.com/arjun1665/SmartFleet/pkg/structlog"
)

func main() {
	cfg := config.Load()
	logger := structlog.New(cfg.ServiceName, structlog.ParseLevel(cfg.LogLevel), os.Stdout)

	shutdownTracer := otelobs.InitTracer(cfg.ServiceName)
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	st, err := openStore(cfg)
	if err != nil {
		logger.Error("store open failed", structlog.Fields{"error": err.Error()})
		os.Exit(1)
	}
	defer st.Close()

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.SeedDemo(seedCtx, st, time.Now()); err != nil {
		logger.Warn("demo seed failed", structlog.Fields{"error": err.Error()})
	}
	seedCancel()

	lg, err := ledger.New(cfg.LedgerPath, cfg.ServiceName)
	if err != nil {
		logger.Warn("ledger unavailable, audit ledger disabled", structlog.Fields{
			"path":  cfg.LedgerPath,
			"error": err.Error(),
		})
		lg = nil
	}

	predictor, err := prediction.New(cfg.ModelPath, cfg.EncoderPath, logger)
	if err != nil {
		logger.Error("model load failed", structlog.Fields{"error": err.Error()})
		os.Exit(1)
	}

	dispatcher := buildDispatcher(cfg, logger)

	gate := security.NewGate(st, lg, logger)
	bm := booking.NewManager(st, st, logger)
	analyzer := rca.NewAnalyzer(st)
	orch := orchestrator.New(st, predictor, gate, bm, analyzer, dispatcher, logger, cfg.ModelPath, cfg.EncoderPath)

	server := api.NewServer(orch, gate, bm, analyzer, st, logger)
	limiter := api.NewRateLimiter(cfg.RateLimit)

	var handler http.Handler = server.Routes()
	handler = api.MetricsMiddleware(handler)
	handler = limiter.Middleware(handler)
	handler = api.AuthMiddleware(cfg.APIKey, handler)
	handler = otelobs.HTTPTraceLogMiddleware(handler)
	handler = otelobs.WrapHTTPHandler(cfg.ServiceName, handler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	go func() {
		logger.Info("listening", structlog.Fields{
			"addr":     srv.Addr,
			"store":    cfg.StoreKind,
			"degraded": predictor.Degraded(),
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", structlog.Fields{"error": err.Error()})
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down", nil)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("shutdown failed", structlog.Fields{"error": err.Error()})
	}
}

func openStore(cfg config.Config) (store.Store, error) {
	if cfg.StoreKind == "memory" {
		return store.NewMemory(), nil
	}
	return store.OpenPostgres(cfg.DatabaseURL)
}

// buildDispatcher prefers Redis; without a broker the in-process bus keeps
// task dispatch observable in development.
func buildDispatcher(cfg config.Config, logger *structlog.Logger) tasks.Dispatcher {
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPass})
		return tasks.NewRedisDispatcher(rdb)
	}
	bus := eventbus.NewBus(128)
	bus.Register(tasks.LogSubscriber{Logger: logger})
	return tasks.NewBusDispatcher(bus)
}
