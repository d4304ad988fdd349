package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/omnidispatch/core/logger"
)

// Handler exposes g in the Prometheus text format. A nil gatherer uses the
// default registry.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// StartPromServer serves /metrics on addr until ctx is canceled.
// A dedicated ServeMux is used to avoid interfering with other handlers.
func StartPromServer(ctx context.Context, addr string, g prometheus.Gatherer, log logger.Logger) error {
	log = logger.OrNop(log)
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler(g))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("prom server shutdown: %v", err)
		}
		cancel()
	}()
	log.Infof("prometheus metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
