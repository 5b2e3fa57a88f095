package worker

// recordatorio_cron.go
// Background goroutine that periodically re-notifies conciliaciones still
// pending after a grace period. Skips the tick while the SMTP breaker is open.

import (
	"context"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/infra"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	recordatorioTickInterval = 15 * time.Minute
	recordatorioAntiguedad   = time.Hour
	recordatorioBatchSize    = 20
)

// RecordatorioCronConfig holds all dependencies for the reminder goroutine.
type RecordatorioCronConfig struct {
	Repo       repository.ConciliacionRepository
	Dispatcher *Dispatcher
	CB         *infra.CircuitBreaker
	Intervalo  time.Duration // default 15m
	Antiguedad time.Duration // only remind about records older than this (default 1h)
}

// StartRecordatorioCron launches the reminder loop; it stops with ctx.
func StartRecordatorioCron(ctx context.Context, cfg RecordatorioCronConfig) {
	if cfg.Intervalo <= 0 {
		cfg.Intervalo = recordatorioTickInterval
	}
	go func() {
		ticker := time.NewTicker(cfg.Intervalo)
		defer ticker.Stop()

		log.Info().Msg("recordatorio_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("recordatorio_cron: shutting down")
				return
			case <-ticker.C:
				procesarRecordatorios(ctx, cfg, time.Now())
			}
		}
	}()
}

// procesarRecordatorios enqueues one reminder per stale pending record and
// returns how many were enqueued.
func procesarRecordatorios(ctx context.Context, cfg RecordatorioCronConfig, now time.Time) int {
	// Mail server down: reminders would only land in the DLQ
	if cfg.CB != nil && cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("recordatorio_cron: circuit breaker is open, skipping tick")
		return 0
	}
	antiguedad := cfg.Antiguedad
	if antiguedad <= 0 {
		antiguedad = recordatorioAntiguedad
	}

	pendientes, err := cfg.Repo.List(ctx, model.ConciliacionPendiente)
	if err != nil {
		log.Error().Err(err).Msg("recordatorio_cron: failed to list pending conciliaciones")
		return 0
	}

	enviados := 0
	for i := range pendientes {
		c := &pendientes[i]
		if now.Sub(c.Fecha) < antiguedad {
			continue
		}
		if enviados >= recordatorioBatchSize {
			break
		}
		err := cfg.Dispatcher.enqueue(ctx, QueueNotificacion, JobConciliacion, nuevoConciliacionPayload(c, true))
		if err != nil {
			log.Error().Err(err).Str("conciliacion_id", c.ID.String()).Msg("recordatorio_cron: enqueue failed")
			continue
		}
		enviados++
	}
	if enviados > 0 {
		log.Info().Int("count", enviados).Msg("recordatorio_cron: reminders enqueued")
	}
	return enviados
}
