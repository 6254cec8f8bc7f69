// Package httpapi exposes the keystore over HTTP/JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/coinkeeper/internal/logging"
	"github.com/dmitrijs2005/coinkeeper/internal/server/models"
	"github.com/dmitrijs2005/coinkeeper/internal/shared"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Keystore is the service the handlers call.
type Keystore interface {
	Create(ctx context.Context, email string) (*models.Record, error)
	Load(ctx context.Context, key string) (*models.Record, error)
	CheckLoad(ctx context.Context, key string) (string, error)
	Update(ctx context.Context, req shared.UpdateRequest) (string, error)
}

// NewRouter wires the keystore routes and middleware.
func NewRouter(ks Keystore, log logging.Logger, timeout time.Duration) http.Handler {
	h := &handler{ks: ks, log: log.With("module", "http")}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)
	if timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Post(shared.PathCreate, h.create)
	r.Post(shared.PathLoad, h.load)
	r.Post(shared.PathCheckLoad, h.checkLoad)
	r.Post(shared.PathUpdate, h.update)

	return r
}

func requestLogger(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			log.Info(r.Context(), "request",
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
			)
		})
	}
}
