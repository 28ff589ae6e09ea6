package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"bookstore/internal/asset"
	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/httpx"
	"bookstore/internal/platform/logger"
	"bookstore/internal/upload"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// No logger yet; fall back to a bare production one.
		zap.Must(zap.NewProduction()).Fatal("cannot load configuration", zap.Error(err))
	}

	log := logger.Must(cfg.LogLevel, cfg.IsDevelopment())
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, closeRepo := mustOpenRepository(ctx, log, cfg)
	defer closeRepo()

	store, err := asset.NewS3Store(ctx, asset.S3Config{
		Bucket:          cfg.Storage.Bucket,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		SessionToken:    cfg.Storage.SessionToken,
		CredentialsFile: cfg.Storage.CredentialsFile,
		PublicBaseURL:   cfg.Storage.PublicBaseURL,
		UsePathStyle:    cfg.Storage.UsePathStyle,
		LegacyJPGNames:  cfg.Storage.LegacyJPGNames,
	})
	if err != nil {
		log.Fatal("cannot initialise asset store", zap.Error(err))
	}

	pipeline := upload.NewPipeline(store, cfg.MaxImageBytes)
	bookService := book.NewService(repo, pipeline, log.Named("book"))
	bookHandler := book.NewHTTPHandler(bookService, log.Named("http"))

	var limiter *httpx.RateLimitMiddleware
	if cfg.RateLimitRPS > 0 {
		limiter = httpx.NewRateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustProxyHeaders)
		defer limiter.Stop()
	}

	handler := newRouter(log, bookHandler, bookService, routerConfig{
		allowedOrigins: cfg.CORSAllowedOrigins,
		enableHSTS:     cfg.EnableHSTS,
		maxImageBytes:  pipeline.MaxBytes(),
		rateLimiter:    limiter,
	})

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", cfg.Addr), zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	case <-ctx.Done():
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", zap.Error(err))
		}
	}
}

func mustOpenRepository(ctx context.Context, log *zap.Logger, cfg config.Config) (book.Repository, func()) {
	repo, closeFn, err := book.Open(ctx, cfg.DatabaseDSN, book.OpenOptions{
		Database: cfg.DatabaseName,
		Timeout:  cfg.DBTimeout,
	})
	if err != nil {
		log.Fatal("cannot open book repository", zap.String("dsn", redactDSN(cfg.DatabaseDSN)), zap.Error(err))
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := repo.Ping(pingCtx); err != nil {
		closeFn()
		log.Fatal("cannot ping database", zap.String("dsn", redactDSN(cfg.DatabaseDSN)), zap.Error(err))
	}
	log.Info("database connection OK")
	return repo, closeFn
}

func redactDSN(dsn string) string {
	const marker = "://"
	start := strings.Index(dsn, marker)
	if start < 0 {
		return dsn
	}
	start += len(marker)
	end := strings.Index(dsn[start:], "@")
	if end < 0 {
		return dsn
	}
	return dsn[:start] + "***" + dsn[start+end:]
}
