package memoria

import (
	"context"
	"sort"
	"strings"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	_ repository.CuentaRepository     = (*CuentaRepo)(nil)
	_ repository.MovimientoRepository = (*MovimientoRepo)(nil)
)

// ── Cuentas ─────────────────────────────────────────────────────────────────

type CuentaRepo struct{ s *Store }

func NewCuentaRepository(s *Store) *CuentaRepo { return &CuentaRepo{s: s} }

func (r *CuentaRepo) Create(_ context.Context, c *model.CuentaBancaria) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = nuevoID(c.ID)
	if _, ok := r.s.cuentas[c.ID]; ok {
		return apperr.Conflicto("cuenta %s ya existe", c.ID)
	}
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.cuentas[c.ID] = *c
	return nil
}

func (r *CuentaRepo) FindByID(_ context.Context, id uuid.UUID) (*model.CuentaBancaria, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.cuentas[id]
	if !ok {
		return nil, apperr.NotFound("cuenta", id)
	}
	return &c, nil
}

func (r *CuentaRepo) FindByNumero(_ context.Context, numero, banco string) (*model.CuentaBancaria, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.cuentas {
		if c.NumeroCuenta == numero && strings.EqualFold(c.NombreBanco, banco) {
			return &c, nil
		}
	}
	return nil, apperr.NotFound("cuenta", numero)
}

func (r *CuentaRepo) List(_ context.Context, soloActivas bool) ([]model.CuentaBancaria, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.CuentaBancaria, 0, len(r.s.cuentas))
	for _, c := range r.s.cuentas {
		if soloActivas && !c.Activa {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].NombreBanco != out[j].NombreBanco {
			return out[i].NombreBanco < out[j].NombreBanco
		}
		return out[i].NumeroCuenta < out[j].NumeroCuenta
	})
	return out, nil
}

func (r *CuentaRepo) Update(_ context.Context, c *model.CuentaBancaria) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	actual, ok := r.s.cuentas[c.ID]
	if !ok {
		return apperr.NotFound("cuenta", c.ID)
	}
	c.Saldo = actual.Saldo
	c.CreatedAt = actual.CreatedAt
	c.UpdatedAt = r.s.now()
	r.s.cuentas[c.ID] = *c
	return nil
}

func (r *CuentaRepo) UpdateSaldo(_ context.Context, id uuid.UUID, saldo decimal.Decimal) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.cuentas[id]
	if !ok {
		return apperr.NotFound("cuenta", id)
	}
	c.Saldo = saldo
	c.UpdatedAt = r.s.now()
	r.s.cuentas[id] = c
	return nil
}

func (r *CuentaRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cuentas[id]; !ok {
		return apperr.NotFound("cuenta", id)
	}
	delete(r.s.cuentas, id)
	return nil
}

// ── Movimientos ─────────────────────────────────────────────────────────────

type MovimientoRepo struct{ s *Store }

func NewMovimientoRepository(s *Store) *MovimientoRepo { return &MovimientoRepo{s: s} }

func (r *MovimientoRepo) Create(_ context.Context, m *model.MovimientoFinanciero) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	m.ID = nuevoID(m.ID)
	if m.Fecha.IsZero() {
		m.Fecha = r.s.now()
	}
	r.s.movimientos = append(r.s.movimientos, copiarMovimiento(*m))
	return nil
}

func (r *MovimientoRepo) List(_ context.Context, f repository.MovimientoFilter) ([]model.MovimientoFinanciero, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var match []model.MovimientoFinanciero
	for _, m := range r.s.movimientos {
		if f.CuentaID != nil && m.CuentaID != *f.CuentaID {
			continue
		}
		if f.Tipo != "" && m.Tipo != f.Tipo {
			continue
		}
		if f.EntidadTipo != "" && (m.EntidadTipo == nil || *m.EntidadTipo != f.EntidadTipo) {
			continue
		}
		if f.EntidadID != nil && (m.EntidadID == nil || *m.EntidadID != *f.EntidadID) {
			continue
		}
		if !f.Fechas.Incluye(m.Fecha) {
			continue
		}
		match = append(match, copiarMovimiento(m))
	}
	from, to := repository.Pagina(len(match), f.Page, f.Limit)
	return match[from:to], int64(len(match)), nil
}

func (r *MovimientoRepo) ExistsByCuenta(_ context.Context, cuentaID uuid.UUID) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, m := range r.s.movimientos {
		if m.CuentaID == cuentaID {
			return true, nil
		}
	}
	return false, nil
}

func copiarMovimiento(m model.MovimientoFinanciero) model.MovimientoFinanciero {
	m.EntidadTipo = copiarString(m.EntidadTipo)
	m.EntidadID = copiarUUID(m.EntidadID)
	m.ContraparteID = copiarUUID(m.ContraparteID)
	return m
}
