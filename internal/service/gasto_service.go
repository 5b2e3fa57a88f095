package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/lock"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// GastoService keeps expenses and their ledger postings in step. The posted
// account is CuentaImputadaID: the explicit account, else the default
// account at creation time, else none.
type GastoService interface {
	Crear(ctx context.Context, cfg model.Configuracion, req dto.CrearGastoRequest) (*dto.GastoResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarGastoRequest) (*dto.GastoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
	Obtener(ctx context.Context, id uuid.UUID) (*dto.GastoResponse, error)
	Listar(ctx context.Context, filter dto.GastoFilter) (*dto.GastoListResponse, error)
	Categorias(ctx context.Context) ([]string, error)
}

type gastoService struct {
	repo        repository.GastoRepository
	cuentas     CuentaService
	locker      lock.Locker
	conciliador *conciliador
}

func NewGastoService(
	repo repository.GastoRepository,
	conciliaciones repository.ConciliacionRepository,
	cuentas CuentaService,
	locker lock.Locker,
	notificador Notificador,
) GastoService {
	return &gastoService{
		repo:        repo,
		cuentas:     cuentas,
		locker:      locker,
		conciliador: &conciliador{repo: conciliaciones, notificador: notificador},
	}
}

// ── Crear ─────────────────────────────────────────────────────────────────────

func (s *gastoService) Crear(ctx context.Context, cfg model.Configuracion, req dto.CrearGastoRequest) (*dto.GastoResponse, error) {
	cuentaID, err := parseIDOpcional("cuenta_id", req.CuentaID)
	if err != nil {
		return nil, err
	}
	g := &model.Gasto{
		ID:                 uuid.New(),
		Descripcion:        strings.TrimSpace(req.Descripcion),
		Monto:              req.Monto,
		Categoria:          req.Categoria,
		Fecha:              time.Now().UTC(),
		MetodoPago:         req.MetodoPago,
		Referencia:         strings.TrimSpace(req.Referencia),
		CuentaID:           cuentaID,
		EsRecurrente:       req.EsRecurrente,
		PeriodoRecurrencia: req.PeriodoRecurrencia,
		Etiquetas:          req.Etiquetas,
		Adjuntos:           adjuntosFromRequest(req.Adjuntos),
	}
	if req.Fecha != nil {
		g.Fecha = req.Fecha.UTC()
	}
	if g.MetodoPago == "" {
		g.MetodoPago = model.PagoEfectivo
	}
	if g.Categoria == "" {
		g.Categoria = "Otros"
	}
	if err := apperr.Validacion(g.Validar()...); err != nil {
		return nil, err
	}
	switch {
	case cuentaID != nil:
		g.CuentaImputadaID = cuentaID
	case cfg.CuentaPorDefectoID != nil:
		def := *cfg.CuentaPorDefectoID
		g.CuentaImputadaID = &def
	}

	err = s.locker.WithLock(ctx, lock.Gasto(g.ID), func(ctx context.Context) error {
		if err := s.repo.Create(ctx, g); err != nil {
			return err
		}
		if g.CuentaImputadaID == nil {
			return nil
		}
		if err := s.postear(ctx, g, *g.CuentaImputadaID, g.Monto.Neg(), "Gasto: "+g.Descripcion); err != nil {
			sg := nuevaSaga("crear_gasto")
			sg.registrar(model.PasoSaga{
				Agregado:    model.AgregadoGasto,
				AgregadoID:  g.ID,
				Monto:       g.Monto,
				Descripcion: "gasto registrado sin imputación",
			}, func(ctx context.Context) error { return s.repo.Delete(ctx, g.ID) })
			if ce := sg.compensar(ctx, err); ce != nil {
				return s.conciliador.registrar(ctx, ce, &g.ID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Traducir("crear_gasto", err)
	}

	log.Info().Str("gasto_id", g.ID.String()).Str("monto", g.Monto.StringFixed(2)).Msg("gasto registrado")
	return gastoToResponse(g), nil
}

// ── Actualizar ────────────────────────────────────────────────────────────────
// Postings go first; the record is written only once the ledger agrees.

func (s *gastoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarGastoRequest) (*dto.GastoResponse, error) {
	var resp *dto.GastoResponse
	err := s.locker.WithLock(ctx, lock.Gasto(id), func(ctx context.Context) error {
		actual, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		nuevo := *actual
		if err := aplicarCambiosGasto(&nuevo, req); err != nil {
			return err
		}
		if err := apperr.Validacion(nuevo.Validar()...); err != nil {
			return err
		}

		sg := nuevaSaga("actualizar_gasto")
		if err := s.reimputar(ctx, sg, actual, &nuevo); err != nil {
			if ce := sg.compensar(ctx, err); ce != nil {
				return s.conciliador.registrar(ctx, ce, &id)
			}
			return err
		}
		if err := s.repo.Update(ctx, &nuevo); err != nil {
			if ce := sg.compensar(ctx, err); ce != nil {
				return s.conciliador.registrar(ctx, ce, &id)
			}
			return err
		}
		resp = gastoToResponse(&nuevo)
		return nil
	})
	if err != nil {
		return nil, apperr.Traducir("actualizar_gasto", err)
	}
	return resp, nil
}

func aplicarCambiosGasto(g *model.Gasto, req dto.ActualizarGastoRequest) error {
	if req.Descripcion != nil {
		g.Descripcion = strings.TrimSpace(*req.Descripcion)
	}
	if req.Monto != nil {
		g.Monto = *req.Monto
	}
	if req.Categoria != nil {
		g.Categoria = *req.Categoria
	}
	if req.Fecha != nil {
		g.Fecha = req.Fecha.UTC()
	}
	if req.MetodoPago != nil {
		g.MetodoPago = *req.MetodoPago
	}
	if req.Referencia != nil {
		g.Referencia = strings.TrimSpace(*req.Referencia)
	}
	if req.EsRecurrente != nil {
		g.EsRecurrente = *req.EsRecurrente
	}
	if req.PeriodoRecurrencia != nil {
		g.PeriodoRecurrencia = *req.PeriodoRecurrencia
	}
	if req.Etiquetas != nil {
		g.Etiquetas = req.Etiquetas
	}
	if req.CuentaID != nil {
		// "" removes the explicit account and with it the posting.
		cuentaID, err := parseIDOpcional("cuenta_id", req.CuentaID)
		if err != nil {
			return err
		}
		g.CuentaID = cuentaID
		g.CuentaImputadaID = cuentaID
	}
	return nil
}

// reimputar brings the ledger from the old expense to the new one: the
// amount difference on the same account, or a reversal plus a fresh posting
// when the account changed.
func (s *gastoService) reimputar(ctx context.Context, sg *saga, anterior, nuevo *model.Gasto) error {
	mismaCuenta := (anterior.CuentaImputadaID == nil && nuevo.CuentaImputadaID == nil) ||
		(anterior.CuentaImputadaID != nil && nuevo.CuentaImputadaID != nil && *anterior.CuentaImputadaID == *nuevo.CuentaImputadaID)

	if mismaCuenta {
		delta := nuevo.Monto.Sub(anterior.Monto)
		if nuevo.CuentaImputadaID == nil || delta.IsZero() {
			return nil
		}
		return s.postearConSaga(ctx, sg, nuevo, *nuevo.CuentaImputadaID, delta.Neg(), "Ajuste gasto: "+nuevo.Descripcion)
	}

	if anterior.CuentaImputadaID != nil {
		if err := s.postearConSaga(ctx, sg, anterior, *anterior.CuentaImputadaID, anterior.Monto, "Cambio de cuenta, reverso gasto: "+anterior.Descripcion); err != nil {
			return err
		}
	}
	if nuevo.CuentaImputadaID != nil {
		return s.postearConSaga(ctx, sg, nuevo, *nuevo.CuentaImputadaID, nuevo.Monto.Neg(), "Gasto: "+nuevo.Descripcion)
	}
	return nil
}

// ── Eliminar ──────────────────────────────────────────────────────────────────

func (s *gastoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	err := s.locker.WithLock(ctx, lock.Gasto(id), func(ctx context.Context) error {
		g, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		sg := nuevaSaga("eliminar_gasto")
		if g.CuentaImputadaID != nil {
			if err := s.postearConSaga(ctx, sg, g, *g.CuentaImputadaID, g.Monto, "Anulación gasto: "+g.Descripcion); err != nil {
				return err
			}
		}
		if err := s.repo.Delete(ctx, id); err != nil {
			if ce := sg.compensar(ctx, err); ce != nil {
				return s.conciliador.registrar(ctx, ce, &id)
			}
			return err
		}
		log.Info().Str("gasto_id", id.String()).Msg("gasto eliminado")
		return nil
	})
	return apperr.Traducir("eliminar_gasto", err)
}

// ── Posting helpers ───────────────────────────────────────────────────────────

func (s *gastoService) postear(ctx context.Context, g *model.Gasto, cuentaID uuid.UUID, monto decimal.Decimal, descripcion string) error {
	_, err := s.cuentas.AplicarCambioSaldo(ctx, CambioSaldo{
		CuentaID:    cuentaID,
		Monto:       monto,
		Descripcion: descripcion,
		Categoria:   g.Categoria,
		Entidad:     &model.EntidadRef{Tipo: model.EntidadGasto, ID: g.ID},
		Referencia:  g.Referencia,
	})
	return err
}

// postearConSaga posts and registers the inverse posting as compensation.
func (s *gastoService) postearConSaga(ctx context.Context, sg *saga, g *model.Gasto, cuentaID uuid.UUID, monto decimal.Decimal, descripcion string) error {
	if err := s.postear(ctx, g, cuentaID, monto, descripcion); err != nil {
		return err
	}
	sg.registrar(model.PasoSaga{
		Agregado:    model.AgregadoCuenta,
		AgregadoID:  cuentaID,
		Monto:       monto,
		Descripcion: descripcion,
	}, func(ctx context.Context) error {
		return s.postear(ctx, g, cuentaID, monto.Neg(), "Reverso "+descripcion)
	})
	return nil
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *gastoService) Obtener(ctx context.Context, id uuid.UUID) (*dto.GastoResponse, error) {
	g, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Traducir("obtener_gasto", err)
	}
	return gastoToResponse(g), nil
}

func (s *gastoService) Listar(ctx context.Context, filter dto.GastoFilter) (*dto.GastoListResponse, error) {
	rango, err := rangoFechas(filter.Desde, filter.Hasta)
	if err != nil {
		return nil, err
	}
	cuentaID, err := parseIDOpcional("cuenta_id", &filter.CuentaID)
	if err != nil {
		return nil, err
	}
	gastos, total, err := s.repo.List(ctx, repository.GastoFilter{
		Categoria: filter.Categoria,
		CuentaID:  cuentaID,
		Fechas:    rango,
		Page:      filter.Page,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, apperr.Traducir("listar_gastos", err)
	}
	data := make([]dto.GastoResponse, 0, len(gastos))
	for i := range gastos {
		data = append(data, *gastoToResponse(&gastos[i]))
	}
	return &dto.GastoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// Categorias merges the default categories with the ones already in use.
func (s *gastoService) Categorias(ctx context.Context) ([]string, error) {
	usadas, err := s.repo.Categorias(ctx)
	if err != nil {
		return nil, apperr.Traducir("categorias_gasto", err)
	}
	vistas := make(map[string]struct{})
	var out []string
	for _, c := range append(append([]string{}, model.CategoriasGasto...), usadas...) {
		if c == "" {
			continue
		}
		if _, ok := vistas[c]; ok {
			continue
		}
		vistas[c] = struct{}{}
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func adjuntosFromRequest(in []dto.AdjuntoRequest) []model.Adjunto {
	if len(in) == 0 {
		return nil
	}
	now := time.Now().UTC()
	out := make([]model.Adjunto, 0, len(in))
	for _, a := range in {
		out = append(out, model.Adjunto{Nombre: a.Nombre, Ruta: a.Ruta, Tamano: a.Tamano, Tipo: a.Tipo, SubidoEn: now})
	}
	return out
}

func gastoToResponse(g *model.Gasto) *dto.GastoResponse {
	resp := &dto.GastoResponse{
		ID:                 g.ID.String(),
		Descripcion:        g.Descripcion,
		Monto:              g.Monto,
		Categoria:          g.Categoria,
		Fecha:              formatFecha(g.Fecha),
		MetodoPago:         g.MetodoPago,
		Referencia:         g.Referencia,
		CuentaID:           idString(g.CuentaID),
		CuentaImputadaID:   idString(g.CuentaImputadaID),
		EsRecurrente:       g.EsRecurrente,
		PeriodoRecurrencia: g.PeriodoRecurrencia,
		Etiquetas:          g.Etiquetas,
	}
	for _, a := range g.Adjuntos {
		resp.Adjuntos = append(resp.Adjuntos, dto.AdjuntoRequest{Nombre: a.Nombre, Ruta: a.Ruta, Tamano: a.Tamano, Tipo: a.Tipo})
	}
	return resp
}
