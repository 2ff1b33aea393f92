package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	log "github.com/sirupsen/logrus"
)

const shutdownTimeout = 5 * time.Second

// requestMiddleware counts requests served by the listener.
func requestMiddleware(m *Metrics) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			m.requestsTotal.Inc()
		})
	}
}

// Router returns the metrics routes: /metrics and /healthz.
func (m *Metrics) Router(updateGauges func()) http.Handler {
	r := chi.NewRouter()
	r.Use(requestMiddleware(m))
	r.Get("/metrics", m.Handler(updateGauges).ServeHTTP)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return r
}

// Serve runs the metrics listener on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string, updateGauges func()) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Router(updateGauges),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).Info("metrics listener starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
