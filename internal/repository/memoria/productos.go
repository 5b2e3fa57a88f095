package memoria

import (
	"context"
	"sort"
	"strings"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
)

var (
	_ repository.ProductoRepository        = (*ProductoRepo)(nil)
	_ repository.MovimientoStockRepository = (*MovimientoStockRepo)(nil)
)

// ── Productos ───────────────────────────────────────────────────────────────

type ProductoRepo struct{ s *Store }

func NewProductoRepository(s *Store) *ProductoRepo { return &ProductoRepo{s: s} }

func (r *ProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p.ID = nuevoID(p.ID)
	if _, ok := r.s.productos[p.ID]; ok {
		return apperr.Conflicto("producto %s ya existe", p.ID)
	}
	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.productos[p.ID] = copiarProducto(*p)
	return nil
}

func (r *ProductoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Producto, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.productos[id]
	if !ok {
		return nil, apperr.NotFound("producto", id)
	}
	p = copiarProducto(p)
	return &p, nil
}

func (r *ProductoRepo) FindByNombre(_ context.Context, nombre string) (*model.Producto, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.productos {
		if strings.EqualFold(p.Nombre, nombre) {
			p = copiarProducto(p)
			return &p, nil
		}
	}
	return nil, apperr.NotFound("producto", nombre)
}

func (r *ProductoRepo) FindByBarcode(_ context.Context, barcode string) (*model.Producto, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.productos {
		if p.CodigoBarras != nil && *p.CodigoBarras == barcode {
			p = copiarProducto(p)
			return &p, nil
		}
	}
	return nil, apperr.NotFound("producto", barcode)
}

func (r *ProductoRepo) List(_ context.Context, f repository.ProductoFilter) ([]model.Producto, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	nombre := strings.ToLower(f.Nombre)
	var match []model.Producto
	for _, p := range r.s.productos {
		if f.Barcode != "" && (p.CodigoBarras == nil || *p.CodigoBarras != f.Barcode) {
			continue
		}
		if nombre != "" && !strings.Contains(strings.ToLower(p.Nombre), nombre) {
			continue
		}
		if f.Categoria != "" && p.Categoria != f.Categoria {
			continue
		}
		match = append(match, copiarProducto(p))
	}
	sort.Slice(match, func(i, j int) bool { return match[i].Nombre < match[j].Nombre })
	from, to := repository.Pagina(len(match), f.Page, f.Limit)
	return match[from:to], int64(len(match)), nil
}

func (r *ProductoRepo) ListStockBajo(_ context.Context, umbral int) ([]model.Producto, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Producto
	for _, p := range r.s.productos {
		if p.Stock <= umbral {
			out = append(out, copiarProducto(p))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stock != out[j].Stock {
			return out[i].Stock < out[j].Stock
		}
		return out[i].Nombre < out[j].Nombre
	})
	return out, nil
}

func (r *ProductoRepo) Update(_ context.Context, p *model.Producto) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	actual, ok := r.s.productos[p.ID]
	if !ok {
		return apperr.NotFound("producto", p.ID)
	}
	p.Stock = actual.Stock
	p.CreatedAt = actual.CreatedAt
	p.UpdatedAt = r.s.now()
	r.s.productos[p.ID] = copiarProducto(*p)
	return nil
}

func (r *ProductoRepo) UpdateStock(_ context.Context, id uuid.UUID, delta int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.productos[id]
	if !ok {
		return apperr.NotFound("producto", id)
	}
	if p.Stock+delta < 0 {
		return apperr.ErrStockInsuficiente
	}
	p.Stock += delta
	p.UpdatedAt = r.s.now()
	r.s.productos[id] = p
	return nil
}

func (r *ProductoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.productos[id]; !ok {
		return apperr.NotFound("producto", id)
	}
	delete(r.s.productos, id)
	return nil
}

func copiarProducto(p model.Producto) model.Producto {
	p.CodigoBarras = copiarString(p.CodigoBarras)
	return p
}

// ── Movimientos de stock ────────────────────────────────────────────────────

type MovimientoStockRepo struct{ s *Store }

func NewMovimientoStockRepository(s *Store) *MovimientoStockRepo {
	return &MovimientoStockRepo{s: s}
}

func (r *MovimientoStockRepo) Create(_ context.Context, m *model.MovimientoStock) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = nuevoID(m.ID)
	m.CreatedAt = r.s.now()
	mov := *m
	mov.ReferenciaID = copiarUUID(m.ReferenciaID)
	r.s.movStock = append(r.s.movStock, mov)
	return nil
}

func (r *MovimientoStockRepo) List(_ context.Context, f repository.MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var match []model.MovimientoStock
	for i := len(r.s.movStock) - 1; i >= 0; i-- {
		m := r.s.movStock[i]
		if f.ProductoID != nil && m.ProductoID != *f.ProductoID {
			continue
		}
		if f.ReferenciaID != nil && (m.ReferenciaID == nil || *m.ReferenciaID != *f.ReferenciaID) {
			continue
		}
		m.ReferenciaID = copiarUUID(m.ReferenciaID)
		match = append(match, m)
	}
	from, to := repository.Pagina(len(match), f.Page, f.Limit)
	return match[from:to], int64(len(match)), nil
}

func (r *MovimientoStockRepo) ExistsSalidaAbierta(_ context.Context, productoID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	netos := make(map[uuid.UUID]int)
	for _, m := range r.s.movStock {
		if m.ProductoID == productoID && m.ReferenciaID != nil {
			netos[*m.ReferenciaID] += m.Cantidad
		}
	}
	for _, n := range netos {
		if n != 0 {
			return true, nil
		}
	}
	return false, nil
}
