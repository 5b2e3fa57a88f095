package service

import (
	"context"
	"errors"
	"fmt"
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

type VentaService interface {
	RegistrarVenta(ctx context.Context, cfg model.Configuracion, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error)
	AnularVenta(ctx context.Context, id uuid.UUID, motivo string) (*dto.VentaResponse, error)
	ActualizarVenta(ctx context.Context, id uuid.UUID, req dto.ActualizarVentaRequest) (*dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error)
	ListarVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error)
}

type ventaService struct {
	repo        repository.VentaRepository
	productos   repository.ProductoRepository
	clientes    repository.ClienteRepository
	inventario  InventarioService
	cuentas     CuentaService
	locker      lock.Locker
	notificador Notificador
	conciliador *conciliador
}

func NewVentaService(
	repo repository.VentaRepository,
	productos repository.ProductoRepository,
	clientes repository.ClienteRepository,
	conciliaciones repository.ConciliacionRepository,
	inventario InventarioService,
	cuentas CuentaService,
	locker lock.Locker,
	notificador Notificador,
) VentaService {
	if notificador == nil {
		notificador = NotificadorNulo{}
	}
	return &ventaService{
		repo:        repo,
		productos:   productos,
		clientes:    clientes,
		inventario:  inventario,
		cuentas:     cuentas,
		locker:      locker,
		notificador: notificador,
		conciliador: &conciliador{repo: conciliaciones, notificador: notificador},
	}
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
// Saga, all under the venta:<id> lock:
//   1. Totals + IVA from the configuration snapshot
//   2. Structural validation
//   3. Stock pre-check, no side effects
//   4. Decrement stock per item (compensable)
//   5. Normalize payments to ARS
//   6. Payments must add up to the total within model.Epsilon
//   7. Balance phase: per-payment postings, or the whole total to the default account
//   8. Persist the sale
// Any failure in 4-8 undoes the recorded steps in reverse order.

func (s *ventaService) RegistrarVenta(ctx context.Context, cfg model.Configuracion, req dto.RegistrarVentaRequest) (*dto.VentaResponse, error) {
	venta, err := s.borrador(req)
	if err != nil {
		return nil, err
	}

	var stocks map[uuid.UUID]int
	err = s.locker.WithLock(ctx, lock.Venta(venta.ID), func(ctx context.Context) error {
		// Idempotent retry with a client-supplied id
		if req.ID != nil {
			existente, err := s.repo.FindByID(ctx, venta.ID)
			if err == nil {
				venta = existente
				return nil
			}
			if !errors.Is(err, apperr.ErrNotFound) {
				return err
			}
		}
		var cerr error
		stocks, cerr = s.confirmar(ctx, cfg, venta)
		return cerr
	})
	if err != nil {
		return nil, apperr.Traducir("registrar_venta", err)
	}

	s.alertarStockBajo(ctx, cfg, venta, stocks)
	return ventaToResponse(venta), nil
}

// borrador builds the draft sale from the request. Only parsing happens here.
func (s *ventaService) borrador(req dto.RegistrarVentaRequest) (*model.Venta, error) {
	venta := &model.Venta{
		ID:     uuid.New(),
		Estado: model.VentaCompletada,
		Notas:  req.Notas,
	}
	if req.ID != nil {
		id, err := parseID("id", *req.ID)
		if err != nil {
			return nil, err
		}
		venta.ID = id
	}
	clienteID, err := parseIDOpcional("cliente_id", req.ClienteID)
	if err != nil {
		return nil, err
	}
	venta.ClienteID = clienteID

	var violaciones []string
	for i, it := range req.Items {
		pid, err := uuid.Parse(it.ProductoID)
		if err != nil {
			violaciones = append(violaciones, fmt.Sprintf("item %d: producto_id inválido", i+1))
		}
		venta.Items = append(venta.Items, model.VentaItem{
			ProductoID:     pid,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
		})
	}
	for i, p := range req.Pagos {
		cuentaID, err := parseIDOpcional("cuenta_id", p.CuentaID)
		if err != nil {
			violaciones = append(violaciones, fmt.Sprintf("pago %d: cuenta_id inválido", i+1))
		}
		moneda := p.Moneda
		if moneda == "" {
			moneda = model.MonedaARS
		}
		venta.Pagos = append(venta.Pagos, model.Pago{
			Tipo:       p.Tipo,
			Monto:      p.Monto,
			Moneda:     moneda,
			CuentaID:   cuentaID,
			Referencia: strings.TrimSpace(p.Referencia),
		})
	}
	if err := apperr.Validacion(violaciones...); err != nil {
		return nil, err
	}
	return venta, nil
}

// confirmar runs steps 1-8. It returns the stock left per product.
func (s *ventaService) confirmar(ctx context.Context, cfg model.Configuracion, venta *model.Venta) (map[uuid.UUID]int, error) {
	// 1. Totals
	venta.CalcularTotales(cfg.IVAHabilitado, cfg.IVATasa)

	// 2. Structural validation
	if err := apperr.Validacion(venta.Validar()...); err != nil {
		return nil, err
	}
	if venta.ClienteID != nil {
		cliente, err := s.clientes.FindByID(ctx, *venta.ClienteID)
		if err != nil {
			return nil, err
		}
		venta.ClienteNombre = cliente.Nombre
	}

	// 3. Stock pre-check: the same product may appear on several lines
	requerido := make(map[uuid.UUID]int)
	for _, it := range venta.Items {
		requerido[it.ProductoID] += it.Cantidad
	}
	nombres := make(map[uuid.UUID]string, len(requerido))
	for pid, cant := range requerido {
		p, err := s.productos.FindByID(ctx, pid)
		if err != nil {
			return nil, err
		}
		if p.Stock < cant {
			return nil, fmt.Errorf("%s: disponible %d, solicitado %d: %w", p.Nombre, p.Stock, cant, apperr.ErrStockInsuficiente)
		}
		nombres[pid] = p.Nombre
	}
	for i := range venta.Items {
		venta.Items[i].Nombre = nombres[venta.Items[i].ProductoID]
	}

	sg := nuevaSaga("registrar_venta")
	abortar := func(causa error) error {
		if ce := sg.compensar(ctx, causa); ce != nil {
			return s.conciliador.registrar(ctx, ce, &venta.ID)
		}
		return causa
	}

	// 4. Stock decrements, in line order
	stocks := make(map[uuid.UUID]int, len(requerido))
	for _, it := range venta.Items {
		it := it
		nuevo, err := s.inventario.AplicarDeltaStock(ctx, it.ProductoID, -it.Cantidad, "Venta", &venta.ID)
		if err != nil {
			return nil, abortar(err)
		}
		stocks[it.ProductoID] = nuevo
		sg.registrar(model.PasoSaga{
			Agregado:    model.AgregadoProducto,
			AgregadoID:  it.ProductoID,
			Cantidad:    -it.Cantidad,
			Descripcion: "descuento de stock de " + it.Nombre,
		}, func(ctx context.Context) error {
			_, err := s.inventario.AplicarDeltaStock(ctx, it.ProductoID, it.Cantidad, "Reverso de venta no confirmada", &venta.ID)
			return err
		})
	}

	// 5. Normalization
	for i := range venta.Pagos {
		venta.Pagos[i].Normalizar(cfg.TipoCambio)
	}

	// 6. Payment sum
	pagado := venta.TotalPagado()
	if pagado.Sub(venta.Total).Abs().GreaterThan(model.Epsilon) {
		return nil, abortar(apperr.Validacion(fmt.Sprintf(
			"la suma de los pagos (%s) no coincide con el total de la venta (%s)",
			pagado.StringFixed(2), venta.Total.StringFixed(2))))
	}

	// 7. Balance phase
	ticket, err := s.repo.NextTicketNumber(ctx)
	if err != nil {
		return nil, abortar(err)
	}
	venta.NumeroTicket = ticket
	if err := s.imputarPagos(ctx, cfg, venta, sg); err != nil {
		return nil, abortar(err)
	}

	// 8. Persist
	venta.Fecha = time.Now().UTC()
	if err := s.repo.Create(ctx, venta); err != nil {
		return nil, abortar(err)
	}

	log.Info().Str("venta_id", venta.ID.String()).Int("ticket", venta.NumeroTicket).
		Str("total", venta.Total.StringFixed(2)).Msg("venta registrada")
	return stocks, nil
}

// imputarPagos posts the sale to the ledger. When a default account is
// configured and some payment has no target, the whole total goes to the
// default account once and the explicit targets of the other payments are
// ignored (their Imputado stays false). Otherwise each targeted payment is
// posted to its own account.
func (s *ventaService) imputarPagos(ctx context.Context, cfg model.Configuracion, venta *model.Venta, sg *saga) error {
	entidad := &model.EntidadRef{Tipo: model.EntidadVenta, ID: venta.ID}
	descripcion := fmt.Sprintf("Venta #%d", venta.NumeroTicket)

	sinDestino := false
	for _, p := range venta.Pagos {
		if p.CuentaID == nil {
			sinDestino = true
			break
		}
	}

	if sinDestino && cfg.CuentaPorDefectoID != nil {
		cuentaID := *cfg.CuentaPorDefectoID
		if err := s.imputar(ctx, sg, cuentaID, venta.Total, descripcion, entidad); err != nil {
			return err
		}
		venta.CuentaPorDefectoID = &cuentaID
		venta.MontoPorDefecto = venta.Total
		return nil
	}

	for i := range venta.Pagos {
		p := &venta.Pagos[i]
		if p.CuentaID == nil {
			continue
		}
		desc := fmt.Sprintf("%s - pago %s", descripcion, p.Tipo)
		if err := s.imputar(ctx, sg, *p.CuentaID, p.MontoARS, desc, entidad); err != nil {
			return err
		}
		p.Imputado = true
	}
	return nil
}

func (s *ventaService) imputar(ctx context.Context, sg *saga, cuentaID uuid.UUID, monto decimal.Decimal, descripcion string, entidad *model.EntidadRef) error {
	if _, err := s.cuentas.AplicarCambioSaldo(ctx, CambioSaldo{
		CuentaID:    cuentaID,
		Monto:       monto,
		Descripcion: descripcion,
		Categoria:   "Ventas",
		Entidad:     entidad,
	}); err != nil {
		return err
	}
	sg.registrar(model.PasoSaga{
		Agregado:    model.AgregadoCuenta,
		AgregadoID:  cuentaID,
		Monto:       monto,
		Descripcion: descripcion,
	}, func(ctx context.Context) error {
		_, err := s.cuentas.AplicarCambioSaldo(ctx, CambioSaldo{
			CuentaID:    cuentaID,
			Monto:       monto.Neg(),
			Descripcion: "Reverso " + descripcion,
			Categoria:   "Ventas",
			Entidad:     entidad,
		})
		return err
	})
	return nil
}

// alertarStockBajo enqueues one alert per product left at or below the
// threshold. Failures are logged only: the sale is already committed.
func (s *ventaService) alertarStockBajo(ctx context.Context, cfg model.Configuracion, venta *model.Venta, stocks map[uuid.UUID]int) {
	for _, it := range venta.Items {
		stock, ok := stocks[it.ProductoID]
		if !ok || stock > cfg.UmbralStockBajo {
			continue
		}
		delete(stocks, it.ProductoID)
		p := &model.Producto{ID: it.ProductoID, Nombre: it.Nombre, Stock: stock}
		if err := s.notificador.NotificarStockBajo(context.WithoutCancel(ctx), p, cfg.UmbralStockBajo); err != nil {
			log.Warn().Err(err).Str("producto_id", it.ProductoID.String()).Msg("no se pudo encolar la alerta de stock bajo")
		}
	}
}

// ── AnularVenta ───────────────────────────────────────────────────────────────
// Restores stock and reverses every posting. A failed restore does not stop
// the rest: the sale ends cancelled with a partial-cancellation note and the
// leftovers go to a conciliación.

func (s *ventaService) AnularVenta(ctx context.Context, id uuid.UUID, motivo string) (*dto.VentaResponse, error) {
	motivo = strings.TrimSpace(motivo)
	if motivo == "" {
		return nil, apperr.Validacion("el motivo de anulación es requerido")
	}

	var venta *model.Venta
	err := s.locker.WithLock(ctx, lock.Venta(id), func(ctx context.Context) error {
		var err error
		venta, err = s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if venta.Estado == model.VentaCancelada {
			return apperr.Validacion("la venta ya está anulada")
		}
		return s.anular(context.WithoutCancel(ctx), venta, motivo)
	})
	if err != nil {
		return nil, apperr.Traducir("anular_venta", err)
	}
	return ventaToResponse(venta), nil
}

func (s *ventaService) anular(ctx context.Context, venta *model.Venta, motivo string) error {
	var aplicadas, fallidas []model.PasoSaga
	var causa error
	registrar := func(paso model.PasoSaga, err error) {
		if err != nil {
			if causa == nil {
				causa = err
			}
			paso.Error = err.Error()
			fallidas = append(fallidas, paso)
			return
		}
		aplicadas = append(aplicadas, paso)
	}

	descripcion := fmt.Sprintf("Anulación venta #%d: %s", venta.NumeroTicket, motivo)
	entidad := &model.EntidadRef{Tipo: model.EntidadVenta, ID: venta.ID}

	for _, it := range venta.Items {
		_, err := s.inventario.AplicarDeltaStock(ctx, it.ProductoID, it.Cantidad, descripcion, &venta.ID)
		registrar(model.PasoSaga{
			Agregado:    model.AgregadoProducto,
			AgregadoID:  it.ProductoID,
			Cantidad:    it.Cantidad,
			Descripcion: "restaurar stock de " + it.Nombre,
		}, err)
	}

	reversar := func(cuentaID uuid.UUID, monto decimal.Decimal) {
		_, err := s.cuentas.AplicarCambioSaldo(ctx, CambioSaldo{
			CuentaID:    cuentaID,
			Monto:       monto.Neg(),
			Descripcion: descripcion,
			Categoria:   "Ventas",
			Entidad:     entidad,
		})
		registrar(model.PasoSaga{
			Agregado:    model.AgregadoCuenta,
			AgregadoID:  cuentaID,
			Monto:       monto.Neg(),
			Descripcion: "reversar imputación de la venta",
		}, err)
	}
	for _, p := range venta.Pagos {
		if p.Imputado && p.CuentaID != nil {
			reversar(*p.CuentaID, p.MontoARS)
		}
	}
	if venta.CuentaPorDefectoID != nil && venta.MontoPorDefecto.IsPositive() {
		reversar(*venta.CuentaPorDefectoID, venta.MontoPorDefecto)
	}

	nota := "Anulada: " + motivo
	if len(fallidas) > 0 {
		nota += " (cancelación parcial)"
	}
	notas := agregarNota(venta.Notas, nota)
	if err := s.repo.UpdateEstado(ctx, venta.ID, model.VentaCancelada, notas); err != nil {
		registrar(model.PasoSaga{
			Agregado:    model.AgregadoVenta,
			AgregadoID:  venta.ID,
			Descripcion: "marcar la venta como anulada",
		}, err)
	} else {
		venta.Estado = model.VentaCancelada
		venta.Notas = notas
	}

	if len(fallidas) > 0 {
		ce := &apperr.ConsistencyError{
			Operacion: "anular_venta",
			Causa:     causa,
			Aplicadas: aplicadas,
			Fallidas:  fallidas,
		}
		return s.conciliador.registrar(ctx, ce, &venta.ID)
	}
	log.Info().Str("venta_id", venta.ID.String()).Int("ticket", venta.NumeroTicket).Str("motivo", motivo).Msg("venta anulada")
	return nil
}

func agregarNota(notas, nota string) string {
	if strings.TrimSpace(notas) == "" {
		return nota
	}
	return notas + "\n" + nota
}

// ── ActualizarVenta ───────────────────────────────────────────────────────────
// Only notes and the transition to cancelled; amounts, items and payments
// never change after commit.

func (s *ventaService) ActualizarVenta(ctx context.Context, id uuid.UUID, req dto.ActualizarVentaRequest) (*dto.VentaResponse, error) {
	if req.Estado != nil && *req.Estado != model.VentaCancelada {
		return nil, apperr.Validacion("solo se permite la transición a cancelled")
	}

	if req.Notas != nil {
		err := s.locker.WithLock(ctx, lock.Venta(id), func(ctx context.Context) error {
			venta, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			return s.repo.UpdateEstado(ctx, id, venta.Estado, *req.Notas)
		})
		if err != nil {
			return nil, apperr.Traducir("actualizar_venta", err)
		}
	}

	if req.Estado != nil {
		motivo := req.Motivo
		if strings.TrimSpace(motivo) == "" {
			motivo = "sin motivo informado"
		}
		return s.AnularVenta(ctx, id, motivo)
	}
	return s.ObtenerVenta(ctx, id)
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *ventaService) ObtenerVenta(ctx context.Context, id uuid.UUID) (*dto.VentaResponse, error) {
	venta, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Traducir("obtener_venta", err)
	}
	return ventaToResponse(venta), nil
}

// ListarVentas returns a paginated list of sales filtered by date, estado and customer.
func (s *ventaService) ListarVentas(ctx context.Context, filter dto.VentaFilter) (*dto.VentaListResponse, error) {
	rango, err := rangoFechas(filter.Desde, filter.Hasta)
	if err != nil {
		return nil, err
	}
	clienteID, err := parseIDOpcional("cliente_id", &filter.ClienteID)
	if err != nil {
		return nil, err
	}
	estado := filter.Estado
	if estado == "all" {
		estado = ""
	}

	ventas, total, err := s.repo.List(ctx, repository.VentaFilter{
		Fechas:    rango,
		Estado:    estado,
		ClienteID: clienteID,
		Page:      filter.Page,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, apperr.Traducir("listar_ventas", err)
	}
	data := make([]dto.VentaResponse, 0, len(ventas))
	for i := range ventas {
		data = append(data, *ventaToResponse(&ventas[i]))
	}
	return &dto.VentaListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	resp := &dto.VentaResponse{
		ID:                 v.ID.String(),
		NumeroTicket:       v.NumeroTicket,
		ClienteID:          idString(v.ClienteID),
		ClienteNombre:      v.ClienteNombre,
		Subtotal:           v.Subtotal,
		IVA:                v.IVA,
		IVATasa:            v.IVATasa,
		Total:              v.Total,
		Estado:             v.Estado,
		Notas:              v.Notas,
		CuentaPorDefectoID: idString(v.CuentaPorDefectoID),
		Fecha:              formatFecha(v.Fecha),
		Items:              make([]dto.ItemVentaResponse, 0, len(v.Items)),
		Pagos:              make([]dto.PagoResponse, 0, len(v.Pagos)),
	}
	for _, it := range v.Items {
		resp.Items = append(resp.Items, dto.ItemVentaResponse{
			ProductoID:     it.ProductoID.String(),
			Producto:       it.Nombre,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		})
	}
	for _, p := range v.Pagos {
		resp.Pagos = append(resp.Pagos, dto.PagoResponse{
			Tipo:       p.Tipo,
			Monto:      p.Monto,
			Moneda:     p.Moneda,
			TipoCambio: p.TipoCambio,
			MontoARS:   p.MontoARS,
			CuentaID:   idString(p.CuentaID),
			Referencia: p.Referencia,
			Imputado:   p.Imputado,
		})
	}
	return resp
}
