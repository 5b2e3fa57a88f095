package memoria

import (
	"context"
	"sort"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
)

var _ repository.GastoRepository = (*GastoRepo)(nil)

type GastoRepo struct{ s *Store }

func NewGastoRepository(s *Store) *GastoRepo { return &GastoRepo{s: s} }

func (r *GastoRepo) Create(_ context.Context, g *model.Gasto) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g.ID = nuevoID(g.ID)
	if _, ok := r.s.gastos[g.ID]; ok {
		return apperr.Conflicto("gasto %s ya existe", g.ID)
	}
	now := r.s.now()
	g.CreatedAt, g.UpdatedAt = now, now
	if g.Fecha.IsZero() {
		g.Fecha = now
	}
	r.s.gastos[g.ID] = copiarGasto(*g)
	return nil
}

func (r *GastoRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Gasto, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	g, ok := r.s.gastos[id]
	if !ok {
		return nil, apperr.NotFound("gasto", id)
	}
	g = copiarGasto(g)
	return &g, nil
}

func (r *GastoRepo) List(_ context.Context, f repository.GastoFilter) ([]model.Gasto, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var match []model.Gasto
	for _, g := range r.s.gastos {
		if f.Categoria != "" && g.Categoria != f.Categoria {
			continue
		}
		if f.CuentaID != nil && (g.CuentaImputadaID == nil || *g.CuentaImputadaID != *f.CuentaID) {
			continue
		}
		if !f.Fechas.Incluye(g.Fecha) {
			continue
		}
		match = append(match, copiarGasto(g))
	}
	sort.Slice(match, func(i, j int) bool { return match[i].Fecha.After(match[j].Fecha) })
	from, to := repository.Pagina(len(match), f.Page, f.Limit)
	return match[from:to], int64(len(match)), nil
}

func (r *GastoRepo) Update(_ context.Context, g *model.Gasto) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	actual, ok := r.s.gastos[g.ID]
	if !ok {
		return apperr.NotFound("gasto", g.ID)
	}
	g.CreatedAt = actual.CreatedAt
	g.UpdatedAt = r.s.now()
	r.s.gastos[g.ID] = copiarGasto(*g)
	return nil
}

func (r *GastoRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.gastos[id]; !ok {
		return apperr.NotFound("gasto", id)
	}
	delete(r.s.gastos, id)
	return nil
}

func (r *GastoRepo) ExistsConCuenta(_ context.Context, cuentaID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, g := range r.s.gastos {
		if (g.CuentaID != nil && *g.CuentaID == cuentaID) ||
			(g.CuentaImputadaID != nil && *g.CuentaImputadaID == cuentaID) {
			return true, nil
		}
	}
	return false, nil
}

func (r *GastoRepo) Categorias(_ context.Context) ([]string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	set := map[string]struct{}{}
	for _, g := range r.s.gastos {
		if g.Categoria != "" {
			set[g.Categoria] = struct{}{}
		}
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	sort.Strings(out)
	return out, nil
}

func copiarGasto(g model.Gasto) model.Gasto {
	g.CuentaID = copiarUUID(g.CuentaID)
	g.CuentaImputadaID = copiarUUID(g.CuentaImputadaID)
	g.Etiquetas = append([]string(nil), g.Etiquetas...)
	g.Adjuntos = append([]model.Adjunto(nil), g.Adjuntos...)
	return g
}
