package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notificador delivers operator alerts out of band. Implementations must not
// block on delivery: workflows call it after their effects are final.
type Notificador interface {
	NotificarConciliacion(ctx context.Context, c *model.Conciliacion) error
	NotificarStockBajo(ctx context.Context, p *model.Producto, umbral int) error
}

// NotificadorNulo drops every notification. Used when no queue is wired.
type NotificadorNulo struct{}

func (NotificadorNulo) NotificarConciliacion(context.Context, *model.Conciliacion) error { return nil }
func (NotificadorNulo) NotificarStockBajo(context.Context, *model.Producto, int) error    { return nil }

// conciliador persists a ConsistencyError as a Conciliacion record and
// alerts the operator.
type conciliador struct {
	repo        repository.ConciliacionRepository
	notificador Notificador
}

// registrar stores ce, fills ce.ConciliacionID and returns ce as an error.
// A failure to store the record is logged; ce is still returned.
func (c *conciliador) registrar(ctx context.Context, ce *apperr.ConsistencyError, entidadID *uuid.UUID) error {
	ctx = context.WithoutCancel(ctx)
	causa := "desconocida"
	if ce.Causa != nil {
		causa = ce.Causa.Error()
	}
	rec := &model.Conciliacion{
		Operacion:  ce.Operacion,
		EntidadID:  entidadID,
		Causa:      causa,
		Aplicadas:  ce.Aplicadas,
		Pendientes: ce.Fallidas,
		Estado:     model.ConciliacionPendiente,
		Fecha:      time.Now().UTC(),
	}

	logEvt := log.Error().Str("operacion", ce.Operacion).Str("causa", causa).
		Interface("pendientes", ce.Fallidas).Interface("aplicadas", ce.Aplicadas)

	if c == nil || c.repo == nil {
		logEvt.Msg("inconsistencia sin registro de conciliación")
		return ce
	}
	if err := c.repo.Create(ctx, rec); err != nil {
		logEvt.AnErr("store_error", err).Msg("no se pudo registrar la conciliación")
		return ce
	}
	ce.ConciliacionID = rec.ID.String()
	logEvt.Str("conciliacion_id", ce.ConciliacionID).Msg("conciliación registrada")

	if c.notificador != nil {
		if err := c.notificador.NotificarConciliacion(ctx, rec); err != nil {
			log.Warn().Err(err).Str("conciliacion_id", ce.ConciliacionID).Msg("no se pudo encolar la notificación")
		}
	}
	return ce
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func parseID(campo, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validacion(fmt.Sprintf("%s inválido: %q", campo, raw))
	}
	return id, nil
}

func parseIDOpcional(campo string, raw *string) (*uuid.UUID, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	id, err := parseID(campo, *raw)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

// rangoFechas parses YYYY-MM-DD bounds; hasta is inclusive.
func rangoFechas(desde, hasta string) (repository.RangoFechas, error) {
	var r repository.RangoFechas
	if desde != "" {
		t, err := time.Parse("2006-01-02", desde)
		if err != nil {
			return r, apperr.Validacion("fecha desde inválida (YYYY-MM-DD)")
		}
		r.Desde = &t
	}
	if hasta != "" {
		t, err := time.Parse("2006-01-02", hasta)
		if err != nil {
			return r, apperr.Validacion("fecha hasta inválida (YYYY-MM-DD)")
		}
		t = t.AddDate(0, 0, 1)
		r.Hasta = &t
	}
	return r, nil
}

func idString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func formatFecha(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func totalPaginas(total int64, limit int) int {
	if limit <= 0 {
		return 1
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
