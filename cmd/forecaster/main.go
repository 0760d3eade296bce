// Command forecaster runs the hwcast Holt-Winters forecast engine.
//
// For every configured batch it periodically:
//  1. Collects each series from its adapter (Prometheus, VictoriaMetrics, HTTP)
//  2. Aligns the series on common timestamps
//  3. Fits a Holt-Winters model per series, in parallel
//  4. Forecasts the horizon with optional quantile bands
//  5. Stores the snapshot in memory or Redis
//
// HTTP API (default :8081):
//   - GET  /forecast/current?batch=<name> - latest batch snapshot
//   - POST /fit - ad-hoc fit and forecast
//   - GET  /healthz - health check
//   - GET  /metrics - Prometheus metrics
//
// A gRPC health service (default :8082) reports SERVING for a batch once its
// first forecast is stored, and for the empty service name once every batch
// has one.
//
// Usage:
//
//	forecaster -batch-file=/etc/hwcast/batches.yaml -storage=redis -redis-addr=redis:6379
//
//	ADAPTER_QUERY='sum(rate(http_requests_total[5m]))' forecaster \
//	  -batch=web -adapter=prometheus -frequency=24 -horizon=24h -step=1h
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/HatiCode/hwcast/cmd/forecaster/config"
	"github.com/HatiCode/hwcast/cmd/forecaster/logger"
	"github.com/HatiCode/hwcast/cmd/forecaster/metrics"
	"github.com/HatiCode/hwcast/cmd/forecaster/router"
	"github.com/HatiCode/hwcast/cmd/forecaster/store"
	"github.com/HatiCode/hwcast/pkg/httpx"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg, err := config.Parse(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(2)
	}

	log := logger.New(cfg)
	slog.SetDefault(log)

	batches, err := config.LoadBatches(cfg)
	if err != nil {
		log.Error("invalid batch configuration", "error", err)
		os.Exit(1)
	}

	log.Info("starting hwcast forecaster", "version", version, "batches", len(batches))

	st, err := store.New(cfg, log)
	if err != nil {
		log.Error("failed to create store", "error", err)
		os.Exit(1)
	}
	defer closeStore(st, log)

	client := httpx.NewClient(30 * time.Second)
	healthSrv := health.NewServer()
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	ready := newReadiness(len(batches), healthSrv)

	var staleAfter time.Duration
	forecasters := make([]*Forecaster, 0, len(batches))
	for _, b := range batches {
		adapterList, err := config.BuildAdapters(b, client)
		if err != nil {
			log.Error("failed to build adapters", "error", err)
			os.Exit(1)
		}
		f, err := New(b, adapterList, st, log, metrics.New(b.Name))
		if err != nil {
			log.Error("failed to create forecaster", "error", err)
			os.Exit(1)
		}
		healthSrv.SetServingStatus(b.Name, healthpb.HealthCheckResponse_NOT_SERVING)
		f.OnSuccess(ready.markReady)
		forecasters = append(forecasters, f)

		// A snapshot is stale once two intervals pass without a new one.
		staleAfter = max(staleAfter, 2*b.Interval)
	}

	mux := router.SetupRoutes(st, staleAfter, log)
	handler := httpx.Chain(mux, httpx.RecoveryMiddleware(log), httpx.LoggingMiddleware(log))
	httpServer := httpx.NewServer(cfg.Listen, handler, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, f := range forecasters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := f.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("forecast loop failed", "batch", f.Batch(), "error", err)
			}
		}()
	}

	serverErr := make(chan error, 2)
	go func() {
		serverErr <- httpServer.Start()
	}()

	var grpcServer *grpc.Server
	if cfg.GRPCListen != "" {
		ln, err := net.Listen("tcp", cfg.GRPCListen)
		if err != nil {
			log.Error("failed to listen for gRPC", "addr", cfg.GRPCListen, "error", err)
			os.Exit(1)
		}
		grpcServer = grpc.NewServer()
		healthpb.RegisterHealthServer(grpcServer, healthSrv)
		go func() {
			log.Info("gRPC health server listening", "addr", cfg.GRPCListen)
			serverErr <- grpcServer.Serve(ln)
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			log.Error("server failed", "error", err)
		}
	}

	log.Info("shutting down")
	healthSrv.Shutdown()
	cancel()
	wg.Wait()

	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
	if err := httpServer.Stop(10 * time.Second); err != nil {
		log.Error("server shutdown failed", "error", err)
		closeStore(st, log)
		os.Exit(1)
	}

	log.Info("shutdown complete")
}

func closeStore(st any, log *slog.Logger) {
	switch s := st.(type) {
	case interface{ Close() error }:
		if err := s.Close(); err != nil {
			log.Error("failed to close store", "error", err)
		}
	case interface{ Stop() }:
		s.Stop()
	}
}

// readiness flips gRPC health statuses to SERVING as batches produce their
// first snapshot.
type readiness struct {
	mu      sync.Mutex
	total   int
	ready   map[string]bool
	healthy *health.Server
}

func newReadiness(total int, hs *health.Server) *readiness {
	return &readiness{total: total, ready: make(map[string]bool), healthy: hs}
}

func (r *readiness) markReady(batch string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready[batch] {
		return
	}
	r.ready[batch] = true
	r.healthy.SetServingStatus(batch, healthpb.HealthCheckResponse_SERVING)
	if len(r.ready) == r.total {
		r.healthy.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	}
}
