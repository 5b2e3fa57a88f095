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
	_ repository.ClienteRepository       = (*ClienteRepo)(nil)
	_ repository.ConfiguracionRepository = (*ConfiguracionRepo)(nil)
	_ repository.ConciliacionRepository  = (*ConciliacionRepo)(nil)
)

// ── Clientes ────────────────────────────────────────────────────────────────

type ClienteRepo struct{ s *Store }

func NewClienteRepository(s *Store) *ClienteRepo { return &ClienteRepo{s: s} }

func (r *ClienteRepo) Create(_ context.Context, c *model.Cliente) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = nuevoID(c.ID)
	now := r.s.now()
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.clientes[c.ID] = copiarCliente(*c)
	return nil
}

func (r *ClienteRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Cliente, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.clientes[id]
	if !ok {
		return nil, apperr.NotFound("cliente", id)
	}
	c = copiarCliente(c)
	return &c, nil
}

func (r *ClienteRepo) FindByEmail(_ context.Context, email string) (*model.Cliente, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.clientes {
		if c.Email != nil && strings.EqualFold(*c.Email, email) {
			c = copiarCliente(c)
			return &c, nil
		}
	}
	return nil, apperr.NotFound("cliente", email)
}

func (r *ClienteRepo) FindByCUIT(_ context.Context, cuit string) (*model.Cliente, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.clientes {
		if c.CUIT != nil && *c.CUIT == cuit {
			c = copiarCliente(c)
			return &c, nil
		}
	}
	return nil, apperr.NotFound("cliente", cuit)
}

func (r *ClienteRepo) List(_ context.Context, f repository.ClienteFilter) ([]model.Cliente, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	nombre := strings.ToLower(f.Nombre)
	var match []model.Cliente
	for _, c := range r.s.clientes {
		if nombre != "" && !strings.Contains(strings.ToLower(c.Nombre), nombre) {
			continue
		}
		match = append(match, copiarCliente(c))
	}
	sort.Slice(match, func(i, j int) bool { return match[i].Nombre < match[j].Nombre })
	from, to := repository.Pagina(len(match), f.Page, f.Limit)
	return match[from:to], int64(len(match)), nil
}

func (r *ClienteRepo) Update(_ context.Context, c *model.Cliente) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	actual, ok := r.s.clientes[c.ID]
	if !ok {
		return apperr.NotFound("cliente", c.ID)
	}
	c.CreatedAt = actual.CreatedAt
	c.UpdatedAt = r.s.now()
	r.s.clientes[c.ID] = copiarCliente(*c)
	return nil
}

func (r *ClienteRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clientes[id]; !ok {
		return apperr.NotFound("cliente", id)
	}
	delete(r.s.clientes, id)
	return nil
}

func copiarCliente(c model.Cliente) model.Cliente {
	c.Email = copiarString(c.Email)
	c.CUIT = copiarString(c.CUIT)
	return c
}

// ── Configuración ───────────────────────────────────────────────────────────

type ConfiguracionRepo struct{ s *Store }

func NewConfiguracionRepository(s *Store) *ConfiguracionRepo { return &ConfiguracionRepo{s: s} }

func (r *ConfiguracionRepo) Get(_ context.Context) (*model.Configuracion, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.configuracion == nil {
		c := model.ConfiguracionPorDefecto()
		r.s.configuracion = &c
	}
	c := *r.s.configuracion
	c.CuentaPorDefectoID = copiarUUID(c.CuentaPorDefectoID)
	return &c, nil
}

func (r *ConfiguracionRepo) Save(_ context.Context, c *model.Configuracion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	cp := *c
	cp.ID = 1
	cp.CuentaPorDefectoID = copiarUUID(c.CuentaPorDefectoID)
	cp.UpdatedAt = r.s.now()
	r.s.configuracion = &cp
	return nil
}

// ── Conciliaciones ──────────────────────────────────────────────────────────

type ConciliacionRepo struct{ s *Store }

func NewConciliacionRepository(s *Store) *ConciliacionRepo { return &ConciliacionRepo{s: s} }

func (r *ConciliacionRepo) Create(_ context.Context, c *model.Conciliacion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c.ID = nuevoID(c.ID)
	if c.Fecha.IsZero() {
		c.Fecha = r.s.now()
	}
	r.s.conciliaciones[c.ID] = copiarConciliacion(*c)
	return nil
}

func (r *ConciliacionRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Conciliacion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.conciliaciones[id]
	if !ok {
		return nil, apperr.NotFound("conciliación", id)
	}
	c = copiarConciliacion(c)
	return &c, nil
}

func (r *ConciliacionRepo) List(_ context.Context, estado string) ([]model.Conciliacion, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Conciliacion
	for _, c := range r.s.conciliaciones {
		if estado != "" && c.Estado != estado {
			continue
		}
		out = append(out, copiarConciliacion(c))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha.After(out[j].Fecha) })
	return out, nil
}

func (r *ConciliacionRepo) Update(_ context.Context, c *model.Conciliacion) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.conciliaciones[c.ID]; !ok {
		return apperr.NotFound("conciliación", c.ID)
	}
	r.s.conciliaciones[c.ID] = copiarConciliacion(*c)
	return nil
}

func copiarConciliacion(c model.Conciliacion) model.Conciliacion {
	c.EntidadID = copiarUUID(c.EntidadID)
	c.Aplicadas = append([]model.PasoSaga(nil), c.Aplicadas...)
	c.Pendientes = append([]model.PasoSaga(nil), c.Pendientes...)
	return c
}
