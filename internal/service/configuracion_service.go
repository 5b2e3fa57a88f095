package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ConfiguracionService reads and updates the business configuration record.
// Workflows receive a Snapshot value; they never read the record mid-flight.
type ConfiguracionService interface {
	Snapshot(ctx context.Context) (model.Configuracion, error)
	Obtener(ctx context.Context) (*dto.ConfiguracionResponse, error)
	Actualizar(ctx context.Context, req dto.ActualizarConfiguracionRequest) (*dto.ConfiguracionResponse, error)
	// Sembrar replaces a record still at factory values with base. A record
	// already changed by an operator is left alone.
	Sembrar(ctx context.Context, base model.Configuracion) error
}

type configuracionService struct {
	repo    repository.ConfiguracionRepository
	cuentas repository.CuentaRepository
}

func NewConfiguracionService(repo repository.ConfiguracionRepository, cuentas repository.CuentaRepository) ConfiguracionService {
	return &configuracionService{repo: repo, cuentas: cuentas}
}

func (s *configuracionService) Snapshot(ctx context.Context) (model.Configuracion, error) {
	c, err := s.repo.Get(ctx)
	if err != nil {
		return model.Configuracion{}, apperr.Traducir("obtener_configuracion", err)
	}
	return *c, nil
}

func (s *configuracionService) Obtener(ctx context.Context) (*dto.ConfiguracionResponse, error) {
	c, err := s.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return configuracionToResponse(&c), nil
}

func (s *configuracionService) Actualizar(ctx context.Context, req dto.ActualizarConfiguracionRequest) (*dto.ConfiguracionResponse, error) {
	c, err := s.repo.Get(ctx)
	if err != nil {
		return nil, apperr.Traducir("actualizar_configuracion", err)
	}
	if req.IVAHabilitado != nil {
		c.IVAHabilitado = *req.IVAHabilitado
	}
	if req.IVATasa != nil {
		c.IVATasa = *req.IVATasa
	}
	if req.TipoCambio != nil {
		c.TipoCambio = *req.TipoCambio
	}
	if req.UmbralStockBajo != nil {
		c.UmbralStockBajo = *req.UmbralStockBajo
	}
	if req.NombreEmpresa != nil {
		c.NombreEmpresa = strings.TrimSpace(*req.NombreEmpresa)
	}
	if req.CUITEmpresa != nil {
		c.CUITEmpresa = strings.TrimSpace(*req.CUITEmpresa)
	}
	if req.DireccionEmpresa != nil {
		c.DireccionEmpresa = strings.TrimSpace(*req.DireccionEmpresa)
	}
	if req.CuentaPorDefectoID != nil {
		id, err := parseIDOpcional("cuenta_por_defecto_id", req.CuentaPorDefectoID)
		if err != nil {
			return nil, err
		}
		if id != nil {
			if err := s.cuentaUtilizable(ctx, *id); err != nil {
				return nil, err
			}
		}
		c.CuentaPorDefectoID = id
	}
	if err := apperr.Validacion(c.Validar()...); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, c); err != nil {
		return nil, apperr.Traducir("actualizar_configuracion", err)
	}
	log.Info().Str("iva", c.IVATasa.String()).Str("tipo_cambio", c.TipoCambio.String()).
		Bool("cuenta_por_defecto", c.CuentaPorDefectoID != nil).Msg("configuración actualizada")
	return configuracionToResponse(c), nil
}

// cuentaUtilizable requires an existing, active account for the default.
func (s *configuracionService) cuentaUtilizable(ctx context.Context, id uuid.UUID) error {
	cuenta, err := s.cuentas.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.Validacion("la cuenta por defecto no existe")
		}
		return apperr.Traducir("actualizar_configuracion", err)
	}
	if !cuenta.Activa {
		return apperr.Validacion("la cuenta por defecto está inactiva")
	}
	return nil
}

func (s *configuracionService) Sembrar(ctx context.Context, base model.Configuracion) error {
	actual, err := s.repo.Get(ctx)
	if err != nil {
		return apperr.Traducir("sembrar_configuracion", err)
	}
	if !deFabrica(actual) {
		return nil
	}
	if base.CuentaPorDefectoID != nil {
		if err := s.cuentaUtilizable(ctx, *base.CuentaPorDefectoID); err != nil {
			log.Warn().Err(err).Str("cuenta_id", base.CuentaPorDefectoID.String()).
				Msg("cuenta por defecto ignorada al sembrar la configuración")
			base.CuentaPorDefectoID = nil
		}
	}
	if base.Moneda == "" {
		base.Moneda = model.MonedaARS
	}
	if err := apperr.Validacion(base.Validar()...); err != nil {
		return err
	}
	return apperr.Traducir("sembrar_configuracion", s.repo.Save(ctx, &base))
}

func deFabrica(c *model.Configuracion) bool {
	f := model.ConfiguracionPorDefecto()
	return c.IVAHabilitado == f.IVAHabilitado &&
		c.IVATasa.Equal(f.IVATasa) &&
		c.TipoCambio.Equal(f.TipoCambio) &&
		c.UmbralStockBajo == f.UmbralStockBajo &&
		c.CuentaPorDefectoID == nil &&
		c.NombreEmpresa == ""
}

func configuracionToResponse(c *model.Configuracion) *dto.ConfiguracionResponse {
	return &dto.ConfiguracionResponse{
		IVAHabilitado:      c.IVAHabilitado,
		IVATasa:            c.IVATasa,
		TipoCambio:         c.TipoCambio,
		CuentaPorDefectoID: idString(c.CuentaPorDefectoID),
		UmbralStockBajo:    c.UmbralStockBajo,
		Moneda:             c.Moneda,
		NombreEmpresa:      c.NombreEmpresa,
		CUITEmpresa:        c.CUITEmpresa,
		DireccionEmpresa:   c.DireccionEmpresa,
	}
}

// ── Conciliaciones ────────────────────────────────────────────────────────────

// ConciliacionService exposes the records left by workflows whose
// compensation failed, so an operator can fix the data and close them.
type ConciliacionService interface {
	Listar(ctx context.Context, estado string) ([]dto.ConciliacionResponse, error)
	Obtener(ctx context.Context, id uuid.UUID) (*dto.ConciliacionResponse, error)
	Resolver(ctx context.Context, id uuid.UUID, nota string) (*dto.ConciliacionResponse, error)
}

type conciliacionService struct {
	repo repository.ConciliacionRepository
}

func NewConciliacionService(repo repository.ConciliacionRepository) ConciliacionService {
	return &conciliacionService{repo: repo}
}

func (s *conciliacionService) Listar(ctx context.Context, estado string) ([]dto.ConciliacionResponse, error) {
	switch estado {
	case "", model.ConciliacionPendiente, model.ConciliacionResuelta:
	default:
		return nil, apperr.Validacion("estado inválido: use pendiente o resuelta")
	}
	recs, err := s.repo.List(ctx, estado)
	if err != nil {
		return nil, apperr.Traducir("listar_conciliaciones", err)
	}
	out := make([]dto.ConciliacionResponse, 0, len(recs))
	for i := range recs {
		out = append(out, *conciliacionToResponse(&recs[i]))
	}
	return out, nil
}

func (s *conciliacionService) Obtener(ctx context.Context, id uuid.UUID) (*dto.ConciliacionResponse, error) {
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Traducir("obtener_conciliacion", err)
	}
	return conciliacionToResponse(c), nil
}

func (s *conciliacionService) Resolver(ctx context.Context, id uuid.UUID, nota string) (*dto.ConciliacionResponse, error) {
	nota = strings.TrimSpace(nota)
	if nota == "" {
		return nil, apperr.Validacion("la nota de resolución es requerida")
	}
	c, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Traducir("resolver_conciliacion", err)
	}
	if c.Estado == model.ConciliacionResuelta {
		return nil, apperr.Conflicto("la conciliación ya fue resuelta")
	}
	now := time.Now().UTC()
	c.Estado = model.ConciliacionResuelta
	c.Nota = nota
	c.ResueltaEn = &now
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, apperr.Traducir("resolver_conciliacion", err)
	}
	log.Info().Str("conciliacion_id", id.String()).Str("operacion", c.Operacion).Msg("conciliación resuelta")
	return conciliacionToResponse(c), nil
}

func conciliacionToResponse(c *model.Conciliacion) *dto.ConciliacionResponse {
	resp := &dto.ConciliacionResponse{
		ID:         c.ID.String(),
		Operacion:  c.Operacion,
		EntidadID:  idString(c.EntidadID),
		Causa:      c.Causa,
		Aplicadas:  pasosToResponse(c.Aplicadas),
		Pendientes: pasosToResponse(c.Pendientes),
		Estado:     c.Estado,
		Nota:       c.Nota,
		Fecha:      formatFecha(c.Fecha),
	}
	if c.ResueltaEn != nil {
		f := formatFecha(*c.ResueltaEn)
		resp.ResueltaEn = &f
	}
	return resp
}

func pasosToResponse(pasos []model.PasoSaga) []dto.PasoResponse {
	out := make([]dto.PasoResponse, 0, len(pasos))
	for _, p := range pasos {
		out = append(out, dto.PasoResponse{
			Agregado:    p.Agregado,
			AgregadoID:  p.AgregadoID.String(),
			Monto:       p.Monto,
			Cantidad:    p.Cantidad,
			Descripcion: p.Descripcion,
			Error:       p.Error,
		})
	}
	return out
}
