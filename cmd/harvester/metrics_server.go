package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	pkgconfig "regharvest/pkg/config"
)

const (
	defaultMetricsPort   = 9090
	metricsReadTimeout   = 10 * time.Second
	metricsWriteTimeout  = 10 * time.Second
	metricsIdleTimeout   = 60 * time.Second
	metricsShutdownGrace = 5 * time.Second
)

// startMetricsServer serves the Prometheus registry on METRICS_PORT in a
// background goroutine and shuts it down when the context is cancelled. The
// health server owns the real probes; /health here just keeps scrapers and
// load balancers that only know this port happy.
func startMetricsServer(ctx context.Context, logger *slog.Logger) {
	port := pkgconfig.GetEnvInt("METRICS_PORT", defaultMetricsPort)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "ok")
	})

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  metricsReadTimeout,
		WriteTimeout: metricsWriteTimeout,
		IdleTimeout:  metricsIdleTimeout,
	}

	go func() {
		logger.Info("Metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics server failed", slog.String("error", err.Error()))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), metricsShutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Metrics server shutdown failed", slog.String("error", err.Error()))
		}
	}()
}
