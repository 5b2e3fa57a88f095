package service

import (
	"context"
	"errors"
	"strings"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/lock"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ProductoService defines the business logic contract for products.
// Stock is not writable here: it changes through InventarioService only.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error)
	ObtenerPorBarcode(ctx context.Context, barcode string) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, id uuid.UUID) error
}

type productoService struct {
	repo        repository.ProductoRepository
	ventas      repository.VentaRepository
	movimientos repository.MovimientoStockRepository
	inventario  InventarioService
	locker      lock.Locker
}

func NewProductoService(
	repo repository.ProductoRepository,
	ventas repository.VentaRepository,
	movimientos repository.MovimientoStockRepository,
	inventario InventarioService,
	locker lock.Locker,
) ProductoService {
	return &productoService{repo: repo, ventas: ventas, movimientos: movimientos, inventario: inventario, locker: locker}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	p := &model.Producto{
		Nombre:       strings.TrimSpace(req.Nombre),
		Descripcion:  req.Descripcion,
		CodigoBarras: normalizarBarcode(req.CodigoBarras),
		Categoria:    req.Categoria,
		Precio:       req.Precio,
	}
	violaciones := p.Validar()
	if req.StockInicial < 0 {
		violaciones = append(violaciones, "el stock inicial no puede ser negativo")
	}
	if err := apperr.Validacion(violaciones...); err != nil {
		return nil, err
	}
	if err := s.unicidad(ctx, p); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, apperr.Traducir("crear_producto", err)
	}

	if req.StockInicial > 0 {
		stock, err := s.inventario.AplicarDeltaStock(ctx, p.ID, req.StockInicial, "Stock inicial", nil)
		if err != nil {
			if derr := s.repo.Delete(context.WithoutCancel(ctx), p.ID); derr != nil {
				log.Error().Err(derr).Str("producto_id", p.ID.String()).Msg("no se pudo eliminar el producto sin stock inicial")
			}
			return nil, err
		}
		p.Stock = stock
	}

	log.Info().Str("producto_id", p.ID.String()).Str("nombre", p.Nombre).Msg("producto creado")
	resp := productoToResponse(p)
	return &resp, nil
}

// unicidad rejects a name (case-insensitive) or barcode used by another product.
func (s *productoService) unicidad(ctx context.Context, p *model.Producto) error {
	otro, err := s.repo.FindByNombre(ctx, p.Nombre)
	switch {
	case err == nil && otro.ID != p.ID:
		return apperr.Conflicto("ya existe un producto llamado %q", otro.Nombre)
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return apperr.Traducir("verificar_producto", err)
	}
	if p.CodigoBarras == nil {
		return nil
	}
	otro, err = s.repo.FindByBarcode(ctx, *p.CodigoBarras)
	switch {
	case err == nil && otro.ID != p.ID:
		return apperr.Conflicto("el código de barras %s ya pertenece a %q", *p.CodigoBarras, otro.Nombre)
	case err != nil && !errors.Is(err, apperr.ErrNotFound):
		return apperr.Traducir("verificar_producto", err)
	}
	return nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Traducir("obtener_producto", err)
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) ObtenerPorBarcode(ctx context.Context, barcode string) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByBarcode(ctx, strings.TrimSpace(barcode))
	if err != nil {
		return nil, apperr.Traducir("obtener_producto", err)
	}
	resp := productoToResponse(p)
	return &resp, nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) (*dto.ProductoListResponse, error) {
	productos, total, err := s.repo.List(ctx, repository.ProductoFilter{
		Barcode:   filter.Barcode,
		Nombre:    filter.Nombre,
		Categoria: filter.Categoria,
		Page:      filter.Page,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, apperr.Traducir("listar_productos", err)
	}
	data := make([]dto.ProductoResponse, 0, len(productos))
	for i := range productos {
		data = append(data, productoToResponse(&productos[i]))
	}
	return &dto.ProductoListResponse{
		Data:       data,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: totalPaginas(total, filter.Limit),
	}, nil
}

func (s *productoService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	var resp dto.ProductoResponse
	err := s.locker.WithLock(ctx, lock.Producto(id), func(ctx context.Context) error {
		p, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if req.Nombre != nil {
			p.Nombre = strings.TrimSpace(*req.Nombre)
		}
		if req.Descripcion != nil {
			p.Descripcion = *req.Descripcion
		}
		if req.CodigoBarras != nil {
			p.CodigoBarras = normalizarBarcode(req.CodigoBarras)
		}
		if req.Categoria != nil {
			p.Categoria = *req.Categoria
		}
		if req.Precio != nil {
			p.Precio = *req.Precio
		}
		if err := apperr.Validacion(p.Validar()...); err != nil {
			return err
		}
		if err := s.unicidad(ctx, p); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, p); err != nil {
			return err
		}
		resp = productoToResponse(p)
		return nil
	})
	if err != nil {
		return nil, apperr.Traducir("actualizar_producto", err)
	}
	return &resp, nil
}

func (s *productoService) Eliminar(ctx context.Context, id uuid.UUID) error {
	err := s.locker.WithLock(ctx, lock.Producto(id), func(ctx context.Context) error {
		if _, err := s.repo.FindByID(ctx, id); err != nil {
			return err
		}
		enUso, err := s.ventas.ExistsActivaConProducto(ctx, id)
		if err != nil {
			return err
		}
		if enUso {
			return apperr.Conflicto("el producto figura en ventas no anuladas")
		}
		// A sale in progress has taken stock but is not persisted yet.
		enCurso, err := s.movimientos.ExistsSalidaAbierta(ctx, id)
		if err != nil {
			return err
		}
		if enCurso {
			return apperr.Conflicto("el producto tiene una venta en curso")
		}
		return s.repo.Delete(ctx, id)
	})
	return apperr.Traducir("eliminar_producto", err)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func normalizarBarcode(b *string) *string {
	if b == nil {
		return nil
	}
	v := strings.TrimSpace(*b)
	if v == "" {
		return nil
	}
	return &v
}

func productoToResponse(p *model.Producto) dto.ProductoResponse {
	return dto.ProductoResponse{
		ID:           p.ID.String(),
		Nombre:       p.Nombre,
		Descripcion:  p.Descripcion,
		CodigoBarras: p.CodigoBarras,
		Categoria:    p.Categoria,
		Precio:       p.Precio,
		Stock:        p.Stock,
	}
}
