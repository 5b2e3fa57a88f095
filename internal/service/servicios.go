package service

import (
	"github.com/fullfullelectronic/pos-system-macos/internal/lock"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"
)

// Servicios bundles every workflow wired over the same repositories, locker
// and notifier.
type Servicios struct {
	Cuentas        CuentaService
	Inventario     InventarioService
	Productos      ProductoService
	Ventas         VentaService
	Gastos         GastoService
	Transferencias TransferenciaService
	Clientes       ClienteService
	Configuracion  ConfiguracionService
	Conciliaciones ConciliacionService
}

func NuevosServicios(repos repository.Repositorios, locker lock.Locker, notificador Notificador) *Servicios {
	if notificador == nil {
		notificador = NotificadorNulo{}
	}
	s := &Servicios{}
	s.Cuentas = NewCuentaService(repos.Cuentas, repos.Movimientos, repos.Gastos, repos.Conciliaciones, locker, notificador)
	s.Inventario = NewInventarioService(repos.Productos, repos.MovimientoStock, repos.Conciliaciones, locker, notificador)
	s.Productos = NewProductoService(repos.Productos, repos.Ventas, repos.MovimientoStock, s.Inventario, locker)
	s.Ventas = NewVentaService(repos.Ventas, repos.Productos, repos.Clientes, repos.Conciliaciones, s.Inventario, s.Cuentas, locker, notificador)
	s.Gastos = NewGastoService(repos.Gastos, repos.Conciliaciones, s.Cuentas, locker, notificador)
	s.Transferencias = NewTransferenciaService(s.Cuentas)
	s.Clientes = NewClienteService(repos.Clientes, repos.Ventas)
	s.Configuracion = NewConfiguracionService(repos.Configuracion, repos.Cuentas)
	s.Conciliaciones = NewConciliacionService(repos.Conciliaciones)
	return s
}
