package memoria

import (
	"context"
	"sort"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
)

var _ repository.VentaRepository = (*VentaRepo)(nil)

type VentaRepo struct{ s *Store }

func NewVentaRepository(s *Store) *VentaRepo { return &VentaRepo{s: s} }

func (r *VentaRepo) Create(_ context.Context, v *model.Venta) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v.ID = nuevoID(v.ID)
	if _, ok := r.s.ventas[v.ID]; ok {
		return apperr.Conflicto("venta %s ya existe", v.ID)
	}
	now := r.s.now()
	v.CreatedAt, v.UpdatedAt = now, now
	if v.Fecha.IsZero() {
		v.Fecha = now
	}
	for i := range v.Items {
		v.Items[i].ID = nuevoID(v.Items[i].ID)
		v.Items[i].VentaID = v.ID
	}
	for i := range v.Pagos {
		v.Pagos[i].ID = nuevoID(v.Pagos[i].ID)
		v.Pagos[i].VentaID = v.ID
	}
	r.s.ventas[v.ID] = copiarVenta(*v)
	return nil
}

func (r *VentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Venta, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	v, ok := r.s.ventas[id]
	if !ok {
		return nil, apperr.NotFound("venta", id)
	}
	v = copiarVenta(v)
	return &v, nil
}

func (r *VentaRepo) List(_ context.Context, f repository.VentaFilter) ([]model.Venta, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var match []model.Venta
	for _, v := range r.s.ventas {
		if f.Estado != "" && f.Estado != "all" && v.Estado != f.Estado {
			continue
		}
		if f.ClienteID != nil && (v.ClienteID == nil || *v.ClienteID != *f.ClienteID) {
			continue
		}
		if !f.Fechas.Incluye(v.Fecha) {
			continue
		}
		match = append(match, copiarVenta(v))
	}
	sort.Slice(match, func(i, j int) bool { return match[i].Fecha.After(match[j].Fecha) })
	from, to := repository.Pagina(len(match), f.Page, f.Limit)
	return match[from:to], int64(len(match)), nil
}

func (r *VentaRepo) UpdateEstado(_ context.Context, id uuid.UUID, estado, notas string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.ventas[id]
	if !ok {
		return apperr.NotFound("venta", id)
	}
	v.Estado = estado
	v.Notas = notas
	v.UpdatedAt = r.s.now()
	r.s.ventas[id] = v
	return nil
}

func (r *VentaRepo) NextTicketNumber(_ context.Context) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.ticket++
	return r.s.ticket, nil
}

func (r *VentaRepo) ExistsActivaConProducto(_ context.Context, productoID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.ventas {
		if v.Estado == model.VentaCancelada {
			continue
		}
		for _, it := range v.Items {
			if it.ProductoID == productoID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *VentaRepo) ExistsConCliente(_ context.Context, clienteID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, v := range r.s.ventas {
		if v.ClienteID != nil && *v.ClienteID == clienteID {
			return true, nil
		}
	}
	return false, nil
}

func copiarVenta(v model.Venta) model.Venta {
	v.ClienteID = copiarUUID(v.ClienteID)
	v.CuentaPorDefectoID = copiarUUID(v.CuentaPorDefectoID)
	v.Items = append([]model.VentaItem(nil), v.Items...)
	pagos := make([]model.Pago, len(v.Pagos))
	for i, p := range v.Pagos {
		p.CuentaID = copiarUUID(p.CuentaID)
		pagos[i] = p
	}
	v.Pagos = pagos
	return v
}
