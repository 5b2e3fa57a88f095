package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/app"
	"github.com/fullfullelectronic/pos-system-macos/internal/config"
	"github.com/fullfullelectronic/pos-system-macos/internal/middleware"
	"github.com/fullfullelectronic/pos-system-macos/internal/router"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: console in dev, JSON in prod
	zerolog.TimeFieldFormat = time.RFC3339
	if cfg.Env != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Nueva(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}
	defer a.Close()

	a.IniciarWorkers(ctx)

	var limiter *middleware.RateLimiter
	if cfg.RateLimit > 0 {
		limiter = middleware.NewRateLimiter(cfg.RateLimit, time.Minute)
		go limiter.PurgarPeriodicamente(ctx, 5*time.Minute)
	}

	r := router.New(router.Deps{
		Env:         cfg.Env,
		JWTSecret:   cfg.JWTSecret,
		CORSOrigins: cfg.Origenes(),
		Servicios:   a.Servicios,
		RateLimiter: limiter,
		DB:          a.DB,
		Redis:       a.Redis,
		SMTPBreaker: a.SMTP,
	})

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().
			Str("store", cfg.StoreBackend).
			Str("lock", cfg.LockBackend).
			Msgf("ledger backend listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	// Stop workers first so no job starts while requests drain.
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
