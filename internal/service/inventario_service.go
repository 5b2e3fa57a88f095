package service

import (
	"context"
	"fmt"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/lock"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// InventarioService owns product stock. AplicarDeltaStock is the only path
// that changes Producto.Stock; every change writes one MovimientoStock.
type InventarioService interface {
	// AplicarDeltaStock adds delta (signed, non-zero) to the product's stock
	// and returns the new stock.
	AplicarDeltaStock(ctx context.Context, productoID uuid.UUID, delta int, motivo string, referenciaID *uuid.UUID) (int, error)
	AjustarStock(ctx context.Context, req dto.AjusteStockRequest) (*dto.MovimientoStockResponse, error)
	ObtenerAlertas(ctx context.Context, cfg model.Configuracion) ([]dto.AlertaStockResponse, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error)
}

type inventarioService struct {
	productos   repository.ProductoRepository
	movimientos repository.MovimientoStockRepository
	locker      lock.Locker
	conciliador *conciliador
}

func NewInventarioService(
	productos repository.ProductoRepository,
	movimientos repository.MovimientoStockRepository,
	conciliaciones repository.ConciliacionRepository,
	locker lock.Locker,
	notificador Notificador,
) InventarioService {
	return &inventarioService{
		productos:   productos,
		movimientos: movimientos,
		locker:      locker,
		conciliador: &conciliador{repo: conciliaciones, notificador: notificador},
	}
}

// ── AplicarDeltaStock ─────────────────────────────────────────────────────────

func (s *inventarioService) AplicarDeltaStock(ctx context.Context, productoID uuid.UUID, delta int, motivo string, referenciaID *uuid.UUID) (int, error) {
	mov, err := s.aplicarDelta(ctx, productoID, delta, motivo, referenciaID)
	if err != nil {
		return 0, err
	}
	return mov.StockNuevo, nil
}

func (s *inventarioService) aplicarDelta(ctx context.Context, productoID uuid.UUID, delta int, motivo string, referenciaID *uuid.UUID) (*model.MovimientoStock, error) {
	if delta == 0 {
		return nil, fmt.Errorf("delta de stock 0 para el producto %s: %w", productoID, apperr.ErrCantidadInvalida)
	}

	var mov *model.MovimientoStock
	err := s.locker.WithLock(ctx, lock.Producto(productoID), func(ctx context.Context) error {
		p, err := s.productos.FindByID(ctx, productoID)
		if err != nil {
			return err
		}
		nuevo := p.Stock + delta
		if nuevo < 0 {
			return fmt.Errorf("%s: disponible %d, solicitado %d: %w", p.Nombre, p.Stock, -delta, apperr.ErrStockInsuficiente)
		}
		if err := s.productos.UpdateStock(ctx, productoID, delta); err != nil {
			return err
		}

		mov = &model.MovimientoStock{
			ProductoID:    productoID,
			Cantidad:      delta,
			StockAnterior: p.Stock,
			StockNuevo:    nuevo,
			Motivo:        motivo,
			ReferenciaID:  referenciaID,
			CreatedAt:     time.Now().UTC(),
		}
		if err := s.movimientos.Create(ctx, mov); err != nil {
			if rerr := s.productos.UpdateStock(context.WithoutCancel(ctx), productoID, -delta); rerr != nil {
				ce := &apperr.ConsistencyError{
					Operacion: "aplicar_delta_stock",
					Causa:     err,
					Fallidas: []model.PasoSaga{{
						Agregado:    model.AgregadoProducto,
						AgregadoID:  productoID,
						Cantidad:    delta,
						Descripcion: fmt.Sprintf("stock cambiado de %d a %d sin movimiento registrado", p.Stock, nuevo),
						Error:       rerr.Error(),
					}},
				}
				return s.conciliador.registrar(ctx, ce, &productoID)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Traducir("aplicar_delta_stock", err)
	}
	return mov, nil
}

// ── AjustarStock ──────────────────────────────────────────────────────────────
// Manual correction (recount, breakage). Goes through the same path as sales.

func (s *inventarioService) AjustarStock(ctx context.Context, req dto.AjusteStockRequest) (*dto.MovimientoStockResponse, error) {
	id, err := parseID("producto_id", req.ProductoID)
	if err != nil {
		return nil, err
	}
	mov, err := s.aplicarDelta(ctx, id, req.Delta, "Ajuste manual: "+req.Motivo, nil)
	if err != nil {
		return nil, err
	}
	log.Info().Str("producto_id", id.String()).Int("delta", req.Delta).Int("stock", mov.StockNuevo).Msg("ajuste de stock")
	resp := movimientoStockToResponse(mov)
	return &resp, nil
}

// ── ObtenerAlertas ────────────────────────────────────────────────────────────

func (s *inventarioService) ObtenerAlertas(ctx context.Context, cfg model.Configuracion) ([]dto.AlertaStockResponse, error) {
	productos, err := s.productos.ListStockBajo(ctx, cfg.UmbralStockBajo)
	if err != nil {
		return nil, apperr.Traducir("obtener_alertas", err)
	}
	out := make([]dto.AlertaStockResponse, 0, len(productos))
	for _, p := range productos {
		out = append(out, dto.AlertaStockResponse{
			ProductoID: p.ID.String(),
			Nombre:     p.Nombre,
			Stock:      p.Stock,
			Umbral:     cfg.UmbralStockBajo,
			Precio:     p.Precio,
		})
	}
	return out, nil
}

func (s *inventarioService) ListarMovimientos(ctx context.Context, filter dto.MovimientoStockFilter) (*dto.MovimientoStockListResponse, error) {
	productoID, err := parseIDOpcional("producto_id", &filter.ProductoID)
	if err != nil {
		return nil, err
	}
	movs, total, err := s.movimientos.List(ctx, repository.MovimientoStockFilter{
		ProductoID: productoID,
		Page:       filter.Page,
		Limit:      filter.Limit,
	})
	if err != nil {
		return nil, apperr.Traducir("listar_movimientos_stock", err)
	}
	data := make([]dto.MovimientoStockResponse, 0, len(movs))
	for i := range movs {
		data = append(data, movimientoStockToResponse(&movs[i]))
	}
	return &dto.MovimientoStockListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func movimientoStockToResponse(m *model.MovimientoStock) dto.MovimientoStockResponse {
	return dto.MovimientoStockResponse{
		ID:            m.ID.String(),
		ProductoID:    m.ProductoID.String(),
		Cantidad:      m.Cantidad,
		StockAnterior: m.StockAnterior,
		StockNuevo:    m.StockNuevo,
		Motivo:        m.Motivo,
		ReferenciaID:  idString(m.ReferenciaID),
		CreatedAt:     formatFecha(m.CreatedAt),
	}
}
