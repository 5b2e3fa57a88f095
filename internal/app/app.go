// Package app is the composition root shared by the HTTP server and ledgerctl.
package app

import (
	"context"
	"fmt"

	"github.com/fullfullelectronic/pos-system-macos/internal/config"
	"github.com/fullfullelectronic/pos-system-macos/internal/infra"
	"github.com/fullfullelectronic/pos-system-macos/internal/lock"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository/memoria"
	"github.com/fullfullelectronic/pos-system-macos/internal/service"
	"github.com/fullfullelectronic/pos-system-macos/internal/worker"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// App holds the wired backends and services.
type App struct {
	Config    *config.Config
	DB        *gorm.DB      // nil with STORE_BACKEND=memory
	Redis     *redis.Client // nil when neither locks nor notifications need it
	SMTP      *infra.CircuitBreaker
	Repos     repository.Repositorios
	Servicios *service.Servicios
	// Dispatcher is nil when notifications are disabled.
	Dispatcher *worker.Dispatcher
}

// Nueva connects the configured backends, wires the services and seeds the
// business configuration. Close releases the connections.
func Nueva(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg, SMTP: infra.NewCircuitBreaker(infra.DefaultCBConfig())}

	switch cfg.StoreBackend {
	case "postgres":
		db, err := infra.NewDatabase(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		a.DB = db
		a.Repos = repository.NewRepositorios(db)
	default:
		log.Warn().Msg("STORE_BACKEND=memory: los datos se pierden al reiniciar")
		a.Repos = memoria.NewRepositorios(memoria.NewStore())
	}

	// Redis backs the distributed locks and the notification queue.
	necesitaRedis := cfg.LockBackend == "redis" || cfg.SMTPHost != ""
	if necesitaRedis {
		rdb, err := infra.NewRedis(cfg.RedisURL)
		switch {
		case err == nil:
			a.Redis = rdb
		case cfg.LockBackend == "redis":
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		default:
			log.Warn().Err(err).Msg("redis no disponible: notificaciones deshabilitadas")
		}
	}

	var locker lock.Locker = lock.NewLocal()
	if cfg.LockBackend == "redis" {
		locker = lock.NewRedis(a.Redis, lock.DefaultRedisOptions())
	}

	var notificador service.Notificador = service.NotificadorNulo{}
	if a.Redis != nil && cfg.SMTPHost != "" {
		a.Dispatcher = worker.NewDispatcher(a.Redis)
		notificador = a.Dispatcher
	}

	a.Servicios = service.NuevosServicios(a.Repos, locker, notificador)

	if err := a.Servicios.Configuracion.Sembrar(ctx, cfg.ConfiguracionBase()); err != nil {
		a.Close()
		return nil, fmt.Errorf("configuración inicial: %w", err)
	}
	return a, nil
}

// IniciarWorkers starts the notification pool and the reminder cron. It is a
// no-op when notifications are disabled.
func (a *App) IniciarWorkers(ctx context.Context) {
	if a.Dispatcher == nil {
		log.Info().Msg("notificaciones deshabilitadas (sin SMTP_HOST o sin redis)")
		return
	}
	pool := worker.NewPool(a.Redis, 3)
	worker.NewNotificacionWorker(infra.NewMailer(a.Config), a.SMTP, a.Config.OperatorEmail).Register(pool)
	pool.Start(ctx, a.Config.WorkerPoolSize)

	worker.StartRecordatorioCron(ctx, worker.RecordatorioCronConfig{
		Repo:       a.Repos.Conciliaciones,
		Dispatcher: a.Dispatcher,
		CB:         a.SMTP,
	})
}

func (a *App) Close() {
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.DB != nil {
		if sqlDB, err := a.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
}
