package service

import (
	"context"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"

	"github.com/rs/zerolog/log"
)

// saga records the effects a workflow has applied so far, each one paired
// with the action that undoes it.
type saga struct {
	operacion string
	pasos     []pasoSaga
}

type pasoSaga struct {
	info     model.PasoSaga
	deshacer func(ctx context.Context) error
}

func nuevaSaga(operacion string) *saga {
	return &saga{operacion: operacion}
}

// registrar must be called right after the effect described by info was applied.
func (s *saga) registrar(info model.PasoSaga, deshacer func(ctx context.Context) error) {
	s.pasos = append(s.pasos, pasoSaga{info: info, deshacer: deshacer})
}

func (s *saga) vacia() bool { return len(s.pasos) == 0 }

// compensar undoes every registered step in reverse order. Every step is
// attempted even after one fails. It returns nil when all succeeded and a
// ConsistencyError listing the effects still in place otherwise.
func (s *saga) compensar(ctx context.Context, causa error) *apperr.ConsistencyError {
	// Compensations run to completion even if the caller went away.
	ctx = context.WithoutCancel(ctx)

	var aplicadas, fallidas []model.PasoSaga
	for i := len(s.pasos) - 1; i >= 0; i-- {
		p := s.pasos[i]
		if err := p.deshacer(ctx); err != nil {
			info := p.info
			info.Error = err.Error()
			fallidas = append(fallidas, info)
			log.Error().Err(err).Str("operacion", s.operacion).Str("agregado", info.Agregado).
				Str("agregado_id", info.AgregadoID.String()).Msg("compensación fallida")
			continue
		}
		aplicadas = append(aplicadas, p.info)
	}
	s.pasos = nil

	if len(fallidas) == 0 {
		if len(aplicadas) > 0 {
			log.Warn().Err(causa).Str("operacion", s.operacion).Int("compensaciones", len(aplicadas)).
				Msg("saga abortada y compensada")
		}
		return nil
	}
	return &apperr.ConsistencyError{
		Operacion: s.operacion,
		Causa:     causa,
		Aplicadas: aplicadas,
		Fallidas:  fallidas,
	}
}
