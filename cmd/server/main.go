package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bazaar/cmd/server/config"
	"bazaar/internal/adapters/rest"
	"bazaar/internal/observability"
	"bazaar/internal/realtime"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func run(ctx context.Context) error {
	hub := realtime.NewHub()
	go hub.Run(ctx)

	events, cleanupEvents, err := buildEventPublisher(ctx, hub)
	if err != nil {
		return err
	}
	defer cleanupEvents()

	service, cleanupService, err := buildPurchaseService(ctx, events, log.Printf)
	if err != nil {
		return err
	}
	defer cleanupService()

	httpCfg, err := config.LoadHTTP()
	if err != nil {
		return err
	}

	if os.Getenv("APP_ENV") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	metrics := observability.NewMetrics()
	handler := rest.NewHandler(service, log.Printf)
	router := rest.NewRouter(handler, hub, metrics, rest.RouterConfig{
		RateLimitInterval: httpCfg.RateLimitInterval,
		RateLimitBurst:    httpCfg.RateLimitBurst,
	})

	obsSrv, obsErr := startObservabilityServer(metrics)
	if obsErr != nil {
		return obsErr
	}

	srv := &http.Server{
		Addr:    httpCfg.Addr,
		Handler: router,
	}

	log.Printf("API server running on %s", httpCfg.Addr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		metrics.MarkShutdown(metrics.Snapshot().InFlight)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("shutdown: %v", err)
		}
		if obsSrv != nil {
			obsCtx, obsCancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer obsCancel()
			_ = obsSrv.Shutdown(obsCtx)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func startObservabilityServer(metrics *observability.Metrics) (*http.Server, error) {
	cfg, err := config.LoadObservability()
	if err != nil {
		return nil, err
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler(metrics))

	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("observability server error: %v", err)
		}
	}()

	return srv, nil
}
