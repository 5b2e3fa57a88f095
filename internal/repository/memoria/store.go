// Package memoria implements the repository contracts over process memory.
// It is the default record store for single-machine deployments and the
// backing store of the service tests. Every read returns a copy, so callers
// can never mutate stored records without going through a repository.
package memoria

import (
	"sync"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
)

// Store holds every collection behind a single RWMutex.
type Store struct {
	mu sync.RWMutex

	cuentas        map[uuid.UUID]model.CuentaBancaria
	movimientos    []model.MovimientoFinanciero
	productos      map[uuid.UUID]model.Producto
	movStock       []model.MovimientoStock
	ventas         map[uuid.UUID]model.Venta
	ticket         int
	gastos         map[uuid.UUID]model.Gasto
	clientes       map[uuid.UUID]model.Cliente
	configuracion  *model.Configuracion
	conciliaciones map[uuid.UUID]model.Conciliacion

	now func() time.Time
}

func NewStore() *Store {
	return &Store{
		cuentas:        make(map[uuid.UUID]model.CuentaBancaria),
		productos:      make(map[uuid.UUID]model.Producto),
		ventas:         make(map[uuid.UUID]model.Venta),
		gastos:         make(map[uuid.UUID]model.Gasto),
		clientes:       make(map[uuid.UUID]model.Cliente),
		conciliaciones: make(map[uuid.UUID]model.Conciliacion),
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// NewRepositorios returns every repository backed by s.
func NewRepositorios(s *Store) repository.Repositorios {
	return repository.Repositorios{
		Cuentas:         NewCuentaRepository(s),
		Movimientos:     NewMovimientoRepository(s),
		Productos:       NewProductoRepository(s),
		MovimientoStock: NewMovimientoStockRepository(s),
		Ventas:          NewVentaRepository(s),
		Gastos:          NewGastoRepository(s),
		Clientes:        NewClienteRepository(s),
		Configuracion:   NewConfiguracionRepository(s),
		Conciliaciones:  NewConciliacionRepository(s),
	}
}

func nuevoID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}

func copiarUUID(p *uuid.UUID) *uuid.UUID {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func copiarString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
