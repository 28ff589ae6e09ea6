package main

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bookstore/internal/book"
	"bookstore/internal/httpx"
	"bookstore/internal/platform/metrics"
)

// formOverhead is the room left for text fields and multipart framing on
// top of the image cap.
const formOverhead = 1 << 20

type pinger interface {
	Ping(ctx context.Context) error
}

type routerConfig struct {
	allowedOrigins []string
	enableHSTS     bool
	maxImageBytes  int64
	rateLimiter    *httpx.RateLimitMiddleware
}

func newRouter(log *zap.Logger, bookHandler *book.HTTPHandler, ready pinger, cfg routerConfig) http.Handler {
	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := ready.Ping(ctx); err != nil {
			log.Warn("readiness check failed", zap.Error(err))
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	router.Handle("GET /metrics", metrics.Handler())

	bookHandler.Register(router)

	mws := []httpx.Middleware{
		httpx.RecoveryMiddleware(log),
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware(log),
		httpx.CORSMiddleware(cfg.allowedOrigins),
		httpx.SecurityHeadersMiddleware(cfg.enableHSTS),
	}
	if cfg.rateLimiter != nil {
		mws = append(mws, cfg.rateLimiter.Middleware)
	}
	mws = append(mws, httpx.RequestSizeLimitMiddleware(cfg.maxImageBytes+formOverhead))

	return httpx.Chain(httpx.MetricsMiddleware(router), mws...)
}
