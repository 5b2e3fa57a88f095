// Package repository holds the record store contracts consumed by the
// services and their PostgreSQL (GORM) implementations. The in-memory
// implementations live in repository/memoria.
//
// FindBy* methods return an error wrapping apperr.ErrNotFound when the
// record does not exist. List methods return every match when Limit <= 0.
package repository

import (
	"errors"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"

	"gorm.io/gorm"
)

// RangoFechas bounds a listing by date. Desde is inclusive, Hasta exclusive.
type RangoFechas struct {
	Desde *time.Time
	Hasta *time.Time
}

// Incluye reports whether t falls inside the range.
func (r RangoFechas) Incluye(t time.Time) bool {
	if r.Desde != nil && t.Before(*r.Desde) {
		return false
	}
	if r.Hasta != nil && !t.Before(*r.Hasta) {
		return false
	}
	return true
}

// Pagina returns the [from, to) slice bounds for page/limit over n items.
func Pagina(n, page, limit int) (int, int) {
	if limit <= 0 {
		return 0, n
	}
	if page < 1 {
		page = 1
	}
	from := (page - 1) * limit
	if from > n {
		from = n
	}
	to := from + limit
	if to > n {
		to = n
	}
	return from, to
}

func notFound(err error, entidad string, id any) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(entidad, id)
	}
	return err
}

func paginar(q *gorm.DB, page, limit int) *gorm.DB {
	if limit <= 0 {
		return q
	}
	if page < 1 {
		page = 1
	}
	return q.Offset((page - 1) * limit).Limit(limit)
}

func filtrarFechas(q *gorm.DB, columna string, r RangoFechas) *gorm.DB {
	if r.Desde != nil {
		q = q.Where(columna+" >= ?", *r.Desde)
	}
	if r.Hasta != nil {
		q = q.Where(columna+" < ?", *r.Hasta)
	}
	return q
}

// Repositorios bundles one implementation of every contract.
type Repositorios struct {
	Cuentas         CuentaRepository
	Movimientos     MovimientoRepository
	Productos       ProductoRepository
	MovimientoStock MovimientoStockRepository
	Ventas          VentaRepository
	Gastos          GastoRepository
	Clientes        ClienteRepository
	Configuracion   ConfiguracionRepository
	Conciliaciones  ConciliacionRepository
}

// NewRepositorios returns the PostgreSQL implementations.
func NewRepositorios(db *gorm.DB) Repositorios {
	return Repositorios{
		Cuentas:         NewCuentaRepository(db),
		Movimientos:     NewMovimientoRepository(db),
		Productos:       NewProductoRepository(db),
		MovimientoStock: NewMovimientoStockRepository(db),
		Ventas:          NewVentaRepository(db),
		Gastos:          NewGastoRepository(db),
		Clientes:        NewClienteRepository(db),
		Configuracion:   NewConfiguracionRepository(db),
		Conciliaciones:  NewConciliacionRepository(db),
	}
}
