package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/lock"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository/memoria"
	"github.com/fullfullelectronic/pos-system-macos/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var errStore = errors.New("store no disponible")

// ── Entorno ───────────────────────────────────────────────────────────────────

type entorno struct {
	repos       repository.Repositorios
	notificador *notificadorEspia

	cuentas        service.CuentaService
	inventario     service.InventarioService
	productos      service.ProductoService
	ventas         service.VentaService
	gastos         service.GastoService
	transferencias service.TransferenciaService
	clientes       service.ClienteService
	configuracion  service.ConfiguracionService
	conciliaciones service.ConciliacionService
}

// nuevoEntorno wires every service over a fresh in-memory store. envolver
// may replace repositories with failure-injecting wrappers before wiring.
func nuevoEntorno(t *testing.T, envolver func(r *repository.Repositorios)) *entorno {
	t.Helper()
	repos := memoria.NewRepositorios(memoria.NewStore())
	if envolver != nil {
		envolver(&repos)
	}
	locker := lock.NewLocal()
	notif := &notificadorEspia{}

	e := &entorno{repos: repos, notificador: notif}
	e.cuentas = service.NewCuentaService(repos.Cuentas, repos.Movimientos, repos.Gastos, repos.Conciliaciones, locker, notif)
	e.inventario = service.NewInventarioService(repos.Productos, repos.MovimientoStock, repos.Conciliaciones, locker, notif)
	e.productos = service.NewProductoService(repos.Productos, repos.Ventas, repos.MovimientoStock, e.inventario, locker)
	e.ventas = service.NewVentaService(repos.Ventas, repos.Productos, repos.Clientes, repos.Conciliaciones, e.inventario, e.cuentas, locker, notif)
	e.gastos = service.NewGastoService(repos.Gastos, repos.Conciliaciones, e.cuentas, locker, notif)
	e.transferencias = service.NewTransferenciaService(e.cuentas)
	e.clientes = service.NewClienteService(repos.Clientes, repos.Ventas)
	e.configuracion = service.NewConfiguracionService(repos.Configuracion, repos.Cuentas)
	e.conciliaciones = service.NewConciliacionService(repos.Conciliaciones)
	return e
}

// cfgSinIVA is the configuration used by most scenarios: no IVA, no default account.
func cfgSinIVA() model.Configuracion {
	cfg := model.ConfiguracionPorDefecto()
	cfg.IVAHabilitado = false
	return cfg
}

func (e *entorno) crearCuenta(t *testing.T, numero string, saldo float64) uuid.UUID {
	t.Helper()
	resp, err := e.cuentas.Crear(context.Background(), dto.CrearCuentaRequest{
		NombreBanco:  "Banco Nación",
		NumeroCuenta: numero,
		Tipo:         model.CuentaCorriente,
		SaldoInicial: decimal.NewFromFloat(saldo),
	})
	require.NoError(t, err)
	return uuid.MustParse(resp.ID)
}

func (e *entorno) crearProducto(t *testing.T, nombre string, precio float64, stock int) uuid.UUID {
	t.Helper()
	resp, err := e.productos.Crear(context.Background(), dto.CrearProductoRequest{
		Nombre:       nombre,
		Precio:       decimal.NewFromFloat(precio),
		StockInicial: stock,
	})
	require.NoError(t, err)
	return uuid.MustParse(resp.ID)
}

func (e *entorno) saldo(t *testing.T, id uuid.UUID) decimal.Decimal {
	t.Helper()
	c, err := e.repos.Cuentas.FindByID(context.Background(), id)
	require.NoError(t, err)
	return c.Saldo
}

func (e *entorno) stock(t *testing.T, id uuid.UUID) int {
	t.Helper()
	p, err := e.repos.Productos.FindByID(context.Background(), id)
	require.NoError(t, err)
	return p.Stock
}

func (e *entorno) movimientos(t *testing.T, cuentaID uuid.UUID) []model.MovimientoFinanciero {
	t.Helper()
	movs, _, err := e.repos.Movimientos.List(context.Background(), repository.MovimientoFilter{CuentaID: &cuentaID})
	require.NoError(t, err)
	return movs
}

// requireLedgerCuadra checks that the balance equals the signed sum of the
// account's movements and that each movement's Saldo is the running total.
func (e *entorno) requireLedgerCuadra(t *testing.T, cuentaID uuid.UUID) {
	t.Helper()
	acumulado := decimal.Zero
	for _, m := range e.movimientos(t, cuentaID) {
		if m.Tipo == model.MovimientoEgreso {
			acumulado = acumulado.Sub(m.Monto)
		} else {
			acumulado = acumulado.Add(m.Monto)
		}
		require.True(t, m.Saldo.Equal(acumulado), "movimiento %s: saldo %s, acumulado %s", m.ID, m.Saldo, acumulado)
	}
	saldo := e.saldo(t, cuentaID)
	require.True(t, saldo.Equal(acumulado), "saldo %s, suma de movimientos %s", saldo, acumulado)
}

// requireStockCuadra checks that the stock equals the sum of its stock movements.
func (e *entorno) requireStockCuadra(t *testing.T, productoID uuid.UUID) {
	t.Helper()
	movs, _, err := e.repos.MovimientoStock.List(context.Background(), repository.MovimientoStockFilter{ProductoID: &productoID})
	require.NoError(t, err)
	total := 0
	for _, m := range movs {
		total += m.Cantidad
	}
	require.Equal(t, e.stock(t, productoID), total)
}

func (e *entorno) conciliacionesPendientes(t *testing.T) []model.Conciliacion {
	t.Helper()
	recs, err := e.repos.Conciliaciones.List(context.Background(), model.ConciliacionPendiente)
	require.NoError(t, err)
	return recs
}

func ventaEfectivo(productoID uuid.UUID, cantidad int, precio float64, pago float64, cuentaID *uuid.UUID) dto.RegistrarVentaRequest {
	var cuenta *string
	if cuentaID != nil {
		s := cuentaID.String()
		cuenta = &s
	}
	return dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{{
			ProductoID:     productoID.String(),
			Cantidad:       cantidad,
			PrecioUnitario: decimal.NewFromFloat(precio),
		}},
		Pagos: []dto.PagoRequest{{
			Tipo:     model.PagoEfectivo,
			Monto:    decimal.NewFromFloat(pago),
			CuentaID: cuenta,
		}},
	}
}

func ptr[T any](v T) *T { return &v }

// ── Notificador espía ─────────────────────────────────────────────────────────

type notificadorEspia struct {
	mu             sync.Mutex
	conciliaciones []model.Conciliacion
	stockBajo      []uuid.UUID
}

func (n *notificadorEspia) NotificarConciliacion(_ context.Context, c *model.Conciliacion) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.conciliaciones = append(n.conciliaciones, *c)
	return nil
}

func (n *notificadorEspia) NotificarStockBajo(_ context.Context, p *model.Producto, _ int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.stockBajo = append(n.stockBajo, p.ID)
	return nil
}

// ── Repositorios con fallas ───────────────────────────────────────────────────
// Each wrapper delegates to the real repository unless its hook returns an error.

type cuentasConFalla struct {
	repository.CuentaRepository
	updateSaldo func(id uuid.UUID, saldo decimal.Decimal) error
}

func (r *cuentasConFalla) UpdateSaldo(ctx context.Context, id uuid.UUID, saldo decimal.Decimal) error {
	if r.updateSaldo != nil {
		if err := r.updateSaldo(id, saldo); err != nil {
			return err
		}
	}
	return r.CuentaRepository.UpdateSaldo(ctx, id, saldo)
}

type productosConFalla struct {
	repository.ProductoRepository
	updateStock func(id uuid.UUID, delta int) error
}

func (r *productosConFalla) UpdateStock(ctx context.Context, id uuid.UUID, delta int) error {
	if r.updateStock != nil {
		if err := r.updateStock(id, delta); err != nil {
			return err
		}
	}
	return r.ProductoRepository.UpdateStock(ctx, id, delta)
}

type ventasConFalla struct {
	repository.VentaRepository
	create       func(v *model.Venta) error
	updateEstado func(id uuid.UUID) error
}

func (r *ventasConFalla) Create(ctx context.Context, v *model.Venta) error {
	if r.create != nil {
		if err := r.create(v); err != nil {
			return err
		}
	}
	return r.VentaRepository.Create(ctx, v)
}

func (r *ventasConFalla) UpdateEstado(ctx context.Context, id uuid.UUID, estado, notas string) error {
	if r.updateEstado != nil {
		if err := r.updateEstado(id); err != nil {
			return err
		}
	}
	return r.VentaRepository.UpdateEstado(ctx, id, estado, notas)
}

type gastosConFalla struct {
	repository.GastoRepository
	update func(g *model.Gasto) error
	delete func(id uuid.UUID) error
}

func (r *gastosConFalla) Update(ctx context.Context, g *model.Gasto) error {
	if r.update != nil {
		if err := r.update(g); err != nil {
			return err
		}
	}
	return r.GastoRepository.Update(ctx, g)
}

func (r *gastosConFalla) Delete(ctx context.Context, id uuid.UUID) error {
	if r.delete != nil {
		if err := r.delete(id); err != nil {
			return err
		}
	}
	return r.GastoRepository.Delete(ctx, id)
}

type movimientosConFalla struct {
	repository.MovimientoRepository
	create func(m *model.MovimientoFinanciero) error
}

func (r *movimientosConFalla) Create(ctx context.Context, m *model.MovimientoFinanciero) error {
	if r.create != nil {
		if err := r.create(m); err != nil {
			return err
		}
	}
	return r.MovimientoRepository.Create(ctx, m)
}
