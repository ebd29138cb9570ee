package main

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// serveMetrics starts a /metrics HTTP endpoint backed by reg, shutting
// down cleanly when done closes.
func serveMetrics(addr string, reg *prometheus.Registry, logger zerolog.Logger, done <-chan struct{}) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-done
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()

	logger.Info().Str("addr", addr).Msg("serving metrics")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server exited")
	}
}
