package service_test

import (
	"context"
	"testing"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Registrar ─────────────────────────────────────────────────────────────────

func TestRegistrarVenta_ActualizaStockYSaldo(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	cuenta := e.crearCuenta(t, "0001", 1000)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	resp, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), ventaEfectivo(prod, 2, 100, 200, &cuenta))
	require.NoError(t, err)

	assert.Equal(t, model.VentaCompletada, resp.Estado)
	assert.Equal(t, 1, resp.NumeroTicket)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "Yerba 1kg", resp.Items[0].Producto)
	assert.True(t, resp.Pagos[0].Imputado)

	assert.Equal(t, 3, e.stock(t, prod))
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(1200)))

	ventaID := uuid.MustParse(resp.ID)
	movs, _, err := e.repos.Movimientos.List(ctx, repository.MovimientoFilter{EntidadTipo: model.EntidadVenta, EntidadID: &ventaID})
	require.NoError(t, err)
	require.Len(t, movs, 1)
	assert.Equal(t, model.MovimientoIngreso, movs[0].Tipo)
	assert.True(t, movs[0].Monto.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, "Ventas", movs[0].Categoria)
	assert.Equal(t, "Venta #1 - pago cash", movs[0].Descripcion)

	e.requireLedgerCuadra(t, cuenta)
	e.requireStockCuadra(t, prod)
}

func TestRegistrarVenta_PagoQueNoCubreElTotal(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	cuenta := e.crearCuenta(t, "0001", 1000)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	_, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), ventaEfectivo(prod, 2, 100, 150, &cuenta))

	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Violaciones[0], "no coincide")

	assert.Equal(t, 5, e.stock(t, prod))
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(1000)))
	_, total, err := e.repos.Ventas.List(ctx, repository.VentaFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, e.conciliacionesPendientes(t))
	e.requireStockCuadra(t, prod)
}

func TestRegistrarVenta_DiferenciaDentroDeEpsilon(t *testing.T) {
	e := nuevoEntorno(t, nil)
	cuenta := e.crearCuenta(t, "0001", 0)
	prod := e.crearProducto(t, "Galletitas", 33.33, 10)

	_, err := e.ventas.RegistrarVenta(context.Background(), cfgSinIVA(), ventaEfectivo(prod, 3, 33.33, 99.995, &cuenta))
	require.NoError(t, err)
}

func TestRegistrarVenta_StockInsuficienteNoTocaNada(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	cuenta := e.crearCuenta(t, "0001", 1000)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	_, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), ventaEfectivo(prod, 6, 100, 600, &cuenta))
	require.ErrorIs(t, err, apperr.ErrStockInsuficiente)

	assert.Equal(t, 5, e.stock(t, prod))
	assert.Len(t, e.movimientos(t, cuenta), 1, "solo el saldo inicial")
	movs, _, err := e.repos.MovimientoStock.List(ctx, repository.MovimientoStockFilter{ProductoID: &prod})
	require.NoError(t, err)
	assert.Len(t, movs, 1, "solo el stock inicial")
}

func TestRegistrarVenta_LineasRepetidasSumanCantidad(t *testing.T) {
	e := nuevoEntorno(t, nil)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	req := ventaEfectivo(prod, 3, 100, 600, nil)
	req.Items = append(req.Items, req.Items[0])

	_, err := e.ventas.RegistrarVenta(context.Background(), cfgSinIVA(), req)
	require.ErrorIs(t, err, apperr.ErrStockInsuficiente)
	assert.Equal(t, 5, e.stock(t, prod))
}

func TestRegistrarVenta_ProductoInexistente(t *testing.T) {
	e := nuevoEntorno(t, nil)

	_, err := e.ventas.RegistrarVenta(context.Background(), cfgSinIVA(), ventaEfectivo(uuid.New(), 1, 100, 100, nil))
	require.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestRegistrarVenta_ConIVA(t *testing.T) {
	e := nuevoEntorno(t, nil)
	cuenta := e.crearCuenta(t, "0001", 0)
	prod := e.crearProducto(t, "Aceite", 100, 5)

	cfg := model.ConfiguracionPorDefecto()
	resp, err := e.ventas.RegistrarVenta(context.Background(), cfg, ventaEfectivo(prod, 1, 100, 121, &cuenta))
	require.NoError(t, err)

	assert.True(t, resp.IVA.Equal(decimal.NewFromInt(21)))
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(121)))
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(121)))
}

func TestRegistrarVenta_PagoEnDolares(t *testing.T) {
	e := nuevoEntorno(t, nil)
	cuenta := e.crearCuenta(t, "0001", 0)
	prod := e.crearProducto(t, "Notebook", 700, 1)

	req := ventaEfectivo(prod, 1, 700, 2, &cuenta)
	req.Pagos[0].Moneda = model.MonedaUSD

	resp, err := e.ventas.RegistrarVenta(context.Background(), cfgSinIVA(), req)
	require.NoError(t, err)

	assert.True(t, resp.Pagos[0].MontoARS.Equal(decimal.NewFromInt(700)))
	assert.True(t, resp.Pagos[0].TipoCambio.Equal(decimal.NewFromInt(350)))
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(700)))
}

func TestRegistrarVenta_VariosPagosAVariasCuentas(t *testing.T) {
	e := nuevoEntorno(t, nil)
	caja := e.crearCuenta(t, "0001", 0)
	banco := e.crearCuenta(t, "0002", 0)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	bancoID := banco.String()
	req := ventaEfectivo(prod, 3, 100, 100, &caja)
	req.Pagos = append(req.Pagos, dto.PagoRequest{
		Tipo:       model.PagoDebito,
		Monto:      decimal.NewFromInt(200),
		CuentaID:   &bancoID,
		Referencia: "POS-4411",
	})

	_, err := e.ventas.RegistrarVenta(context.Background(), cfgSinIVA(), req)
	require.NoError(t, err)

	assert.True(t, e.saldo(t, caja).Equal(decimal.NewFromInt(100)))
	assert.True(t, e.saldo(t, banco).Equal(decimal.NewFromInt(200)))
	e.requireLedgerCuadra(t, caja)
	e.requireLedgerCuadra(t, banco)
}

func TestRegistrarVenta_CuentaPorDefectoRecibeElTotal(t *testing.T) {
	e := nuevoEntorno(t, nil)
	def := e.crearCuenta(t, "0001", 0)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	cfg := cfgSinIVA()
	cfg.CuentaPorDefectoID = &def

	resp, err := e.ventas.RegistrarVenta(context.Background(), cfg, ventaEfectivo(prod, 2, 100, 200, nil))
	require.NoError(t, err)

	require.NotNil(t, resp.CuentaPorDefectoID)
	assert.Equal(t, def.String(), *resp.CuentaPorDefectoID)
	assert.False(t, resp.Pagos[0].Imputado)
	assert.True(t, e.saldo(t, def).Equal(decimal.NewFromInt(200)))
	assert.Len(t, e.movimientos(t, def), 1)
}

func TestRegistrarVenta_SinCuentaNiDefectoNoImputa(t *testing.T) {
	e := nuevoEntorno(t, nil)
	cuenta := e.crearCuenta(t, "0001", 500)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	resp, err := e.ventas.RegistrarVenta(context.Background(), cfgSinIVA(), ventaEfectivo(prod, 1, 100, 100, nil))
	require.NoError(t, err)

	assert.False(t, resp.Pagos[0].Imputado)
	assert.Nil(t, resp.CuentaPorDefectoID)
	assert.Equal(t, 4, e.stock(t, prod))
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(500)))
}

func TestRegistrarVenta_ReintentoConMismoID(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	cuenta := e.crearCuenta(t, "0001", 0)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	req := ventaEfectivo(prod, 2, 100, 200, &cuenta)
	req.ID = ptr(uuid.NewString())

	primera, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), req)
	require.NoError(t, err)
	segunda, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), req)
	require.NoError(t, err)

	assert.Equal(t, primera.ID, segunda.ID)
	assert.Equal(t, primera.NumeroTicket, segunda.NumeroTicket)
	assert.Equal(t, 3, e.stock(t, prod))
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(200)))
}

func TestRegistrarVenta_ClienteGuardaNombre(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)
	cli, err := e.clientes.Crear(ctx, dto.CrearClienteRequest{Nombre: "Almacén Don Pepe"})
	require.NoError(t, err)

	req := ventaEfectivo(prod, 1, 100, 100, nil)
	req.ClienteID = &cli.ID
	resp, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), req)
	require.NoError(t, err)
	assert.Equal(t, "Almacén Don Pepe", resp.ClienteNombre)
}

func TestRegistrarVenta_AlertaDeStockBajo(t *testing.T) {
	e := nuevoEntorno(t, nil)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	cfg := cfgSinIVA()
	cfg.UmbralStockBajo = 3

	_, err := e.ventas.RegistrarVenta(context.Background(), cfg, ventaEfectivo(prod, 1, 100, 100, nil))
	require.NoError(t, err)
	assert.Empty(t, e.notificador.stockBajo)

	_, err = e.ventas.RegistrarVenta(context.Background(), cfg, ventaEfectivo(prod, 1, 100, 100, nil))
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{prod}, e.notificador.stockBajo)
}

// ── Compensación ──────────────────────────────────────────────────────────────

func TestRegistrarVenta_FallaAlPersistirCompensaTodo(t *testing.T) {
	e := nuevoEntorno(t, func(r *repository.Repositorios) {
		r.Ventas = &ventasConFalla{
			VentaRepository: r.Ventas,
			create:          func(*model.Venta) error { return errStore },
		}
	})
	cuenta := e.crearCuenta(t, "0001", 1000)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	_, err := e.ventas.RegistrarVenta(context.Background(), cfgSinIVA(), ventaEfectivo(prod, 2, 100, 200, &cuenta))

	require.ErrorIs(t, err, errStore)
	var in *apperr.Interno
	require.ErrorAs(t, err, &in)
	assert.Equal(t, 5, e.stock(t, prod))
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(1000)))
	assert.Empty(t, e.conciliacionesPendientes(t))
	e.requireLedgerCuadra(t, cuenta)
	e.requireStockCuadra(t, prod)
}

func TestRegistrarVenta_FallaDeStockEnLineaPosteriorRestauraLasAnteriores(t *testing.T) {
	var segundo uuid.UUID
	e := nuevoEntorno(t, func(r *repository.Repositorios) {
		r.Productos = &productosConFalla{
			ProductoRepository: r.Productos,
			updateStock: func(id uuid.UUID, delta int) error {
				if id == segundo && delta < 0 {
					return errStore
				}
				return nil
			},
		}
	})
	ctx := context.Background()
	cuenta := e.crearCuenta(t, "0001", 1000)
	primero := e.crearProducto(t, "Yerba 1kg", 100, 5)
	segundo = e.crearProducto(t, "Azúcar 1kg", 50, 5)

	req := ventaEfectivo(primero, 2, 100, 250, &cuenta)
	req.Items = append(req.Items, dto.ItemVentaRequest{
		ProductoID: segundo.String(), Cantidad: 1, PrecioUnitario: decimal.NewFromInt(50),
	})

	_, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), req)
	require.ErrorIs(t, err, errStore)

	assert.Equal(t, 5, e.stock(t, primero))
	assert.Equal(t, 5, e.stock(t, segundo))
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(1000)))
	assert.Empty(t, e.conciliacionesPendientes(t))
	_, total, err := e.repos.Ventas.List(ctx, repository.VentaFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	e.requireStockCuadra(t, primero)
	e.requireStockCuadra(t, segundo)
	e.requireLedgerCuadra(t, cuenta)
}

func TestRegistrarVenta_FallaDeImputacionRevierteLosPagosAnteriores(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	cuenta := e.crearCuenta(t, "0001", 1000)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	inexistente := uuid.New().String()
	req := ventaEfectivo(prod, 2, 100, 100, &cuenta)
	req.Pagos = append(req.Pagos, dto.PagoRequest{
		Tipo: model.PagoEfectivo, Monto: decimal.NewFromInt(100), CuentaID: &inexistente,
	})

	_, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), req)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	assert.Equal(t, 5, e.stock(t, prod))
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(1000)))
	assert.Empty(t, e.conciliacionesPendientes(t))
	e.requireStockCuadra(t, prod)
	e.requireLedgerCuadra(t, cuenta)
}

func TestRegistrarVenta_FallaDeCompensacionRegistraConciliacion(t *testing.T) {
	ventaFallo := false
	var cuentaID uuid.UUID
	e := nuevoEntorno(t, func(r *repository.Repositorios) {
		r.Ventas = &ventasConFalla{
			VentaRepository: r.Ventas,
			create: func(*model.Venta) error {
				ventaFallo = true
				return errStore
			},
		}
		r.Cuentas = &cuentasConFalla{
			CuentaRepository: r.Cuentas,
			updateSaldo: func(id uuid.UUID, _ decimal.Decimal) error {
				if ventaFallo && id == cuentaID {
					return errStore
				}
				return nil
			},
		}
	})
	cuentaID = e.crearCuenta(t, "0001", 1000)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	_, err := e.ventas.RegistrarVenta(context.Background(), cfgSinIVA(), ventaEfectivo(prod, 2, 100, 200, &cuentaID))

	var ce *apperr.ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "registrar_venta", ce.Operacion)
	require.Len(t, ce.Fallidas, 1)
	assert.Equal(t, model.AgregadoCuenta, ce.Fallidas[0].Agregado)
	assert.Equal(t, cuentaID, ce.Fallidas[0].AgregadoID)
	require.Len(t, ce.Aplicadas, 1)
	assert.Equal(t, model.AgregadoProducto, ce.Aplicadas[0].Agregado)
	assert.NotEmpty(t, ce.ConciliacionID)

	// stock came back, the posting did not
	assert.Equal(t, 5, e.stock(t, prod))
	assert.True(t, e.saldo(t, cuentaID).Equal(decimal.NewFromInt(1200)))

	pendientes := e.conciliacionesPendientes(t)
	require.Len(t, pendientes, 1)
	assert.Equal(t, ce.ConciliacionID, pendientes[0].ID.String())
	assert.Len(t, e.notificador.conciliaciones, 1)
}

// ── Anular ────────────────────────────────────────────────────────────────────

func TestAnularVenta_RestauraStockYSaldo(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	cuenta := e.crearCuenta(t, "0001", 1000)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	venta, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), ventaEfectivo(prod, 2, 100, 200, &cuenta))
	require.NoError(t, err)

	anulada, err := e.ventas.AnularVenta(ctx, uuid.MustParse(venta.ID), "cliente arrepentido")
	require.NoError(t, err)

	assert.Equal(t, model.VentaCancelada, anulada.Estado)
	assert.Equal(t, "Anulada: cliente arrepentido", anulada.Notas)
	assert.Equal(t, 5, e.stock(t, prod))
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(1000)))
	e.requireLedgerCuadra(t, cuenta)
	e.requireStockCuadra(t, prod)

	_, err = e.ventas.AnularVenta(ctx, uuid.MustParse(venta.ID), "de nuevo")
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAnularVenta_CuentaPorDefecto(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	def := e.crearCuenta(t, "0001", 0)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)
	cfg := cfgSinIVA()
	cfg.CuentaPorDefectoID = &def

	venta, err := e.ventas.RegistrarVenta(ctx, cfg, ventaEfectivo(prod, 2, 100, 200, nil))
	require.NoError(t, err)
	_, err = e.ventas.AnularVenta(ctx, uuid.MustParse(venta.ID), "error de carga")
	require.NoError(t, err)

	assert.True(t, e.saldo(t, def).IsZero())
	e.requireLedgerCuadra(t, def)
}

func TestAnularVenta_MotivoRequerido(t *testing.T) {
	e := nuevoEntorno(t, nil)

	_, err := e.ventas.AnularVenta(context.Background(), uuid.New(), "  ")
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestAnularVenta_ParcialQuedaAnuladaConConciliacion(t *testing.T) {
	fallarRestauracion := false
	e := nuevoEntorno(t, func(r *repository.Repositorios) {
		r.Productos = &productosConFalla{
			ProductoRepository: r.Productos,
			updateStock: func(_ uuid.UUID, delta int) error {
				if fallarRestauracion && delta > 0 {
					return errStore
				}
				return nil
			},
		}
	})
	ctx := context.Background()
	cuenta := e.crearCuenta(t, "0001", 1000)
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)

	venta, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), ventaEfectivo(prod, 2, 100, 200, &cuenta))
	require.NoError(t, err)

	fallarRestauracion = true
	ventaID := uuid.MustParse(venta.ID)
	_, err = e.ventas.AnularVenta(ctx, ventaID, "devolución")

	var ce *apperr.ConsistencyError
	require.ErrorAs(t, err, &ce)
	require.Len(t, ce.Fallidas, 1)
	assert.Equal(t, model.AgregadoProducto, ce.Fallidas[0].Agregado)

	// the balance reversal still ran
	assert.True(t, e.saldo(t, cuenta).Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, 3, e.stock(t, prod))

	guardada, err := e.ventas.ObtenerVenta(ctx, ventaID)
	require.NoError(t, err)
	assert.Equal(t, model.VentaCancelada, guardada.Estado)
	assert.Contains(t, guardada.Notas, "(cancelación parcial)")
	assert.Len(t, e.conciliacionesPendientes(t), 1)
}

// ── Actualizar / listar ───────────────────────────────────────────────────────

func TestActualizarVenta_SoloNotasYAnulacion(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)
	venta, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), ventaEfectivo(prod, 1, 100, 100, nil))
	require.NoError(t, err)
	id := uuid.MustParse(venta.ID)

	_, err = e.ventas.ActualizarVenta(ctx, id, dto.ActualizarVentaRequest{Estado: ptr(model.VentaCompletada)})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)

	resp, err := e.ventas.ActualizarVenta(ctx, id, dto.ActualizarVentaRequest{Notas: ptr("entregar el lunes")})
	require.NoError(t, err)
	assert.Equal(t, "entregar el lunes", resp.Notas)
	assert.Equal(t, model.VentaCompletada, resp.Estado)

	resp, err = e.ventas.ActualizarVenta(ctx, id, dto.ActualizarVentaRequest{Estado: ptr(model.VentaCancelada)})
	require.NoError(t, err)
	assert.Equal(t, model.VentaCancelada, resp.Estado)
	assert.Equal(t, 5, e.stock(t, prod))
}

func TestListarVentas_FiltraPorEstado(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	prod := e.crearProducto(t, "Yerba 1kg", 100, 5)
	v1, err := e.ventas.RegistrarVenta(ctx, cfgSinIVA(), ventaEfectivo(prod, 1, 100, 100, nil))
	require.NoError(t, err)
	_, err = e.ventas.RegistrarVenta(ctx, cfgSinIVA(), ventaEfectivo(prod, 1, 100, 100, nil))
	require.NoError(t, err)
	_, err = e.ventas.AnularVenta(ctx, uuid.MustParse(v1.ID), "prueba")
	require.NoError(t, err)

	todas, err := e.ventas.ListarVentas(ctx, dto.VentaFilter{Estado: "all", Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.EqualValues(t, 2, todas.Total)

	anuladas, err := e.ventas.ListarVentas(ctx, dto.VentaFilter{Estado: model.VentaCancelada, Page: 1, Limit: 50})
	require.NoError(t, err)
	require.Len(t, anuladas.Data, 1)
	assert.Equal(t, v1.ID, anuladas.Data[0].ID)

	_, err = e.ventas.ListarVentas(ctx, dto.VentaFilter{Desde: "ayer"})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
}
