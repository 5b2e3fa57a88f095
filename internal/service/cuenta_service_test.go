package service_test

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"
	"github.com/fullfullelectronic/pos-system-macos/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── Transferencias ────────────────────────────────────────────────────────────

func TestTransferir_MueveSaldoYVinculaMovimientos(t *testing.T) {
	e := nuevoEntorno(t, nil)
	a := e.crearCuenta(t, "0001", 1000)
	b := e.crearCuenta(t, "0002", 0)

	resp, err := e.transferencias.Transferir(context.Background(), dto.TransferenciaRequest{
		CuentaOrigenID:  a.String(),
		CuentaDestinoID: b.String(),
		Monto:           decimal.NewFromInt(300),
		Descripcion:     "fondo de caja",
	})
	require.NoError(t, err)

	assert.True(t, e.saldo(t, a).Equal(decimal.NewFromInt(700)))
	assert.True(t, e.saldo(t, b).Equal(decimal.NewFromInt(300)))

	debito, credito := resp.Debito, resp.Credito
	assert.Equal(t, model.MovimientoEgreso, debito.Tipo)
	assert.Equal(t, model.MovimientoIngreso, credito.Tipo)
	require.NotNil(t, debito.ContraparteID)
	require.NotNil(t, credito.ContraparteID)
	assert.Equal(t, credito.ID, *debito.ContraparteID)
	assert.Equal(t, debito.ID, *credito.ContraparteID)
	assert.Contains(t, debito.Descripcion, "Transferencia a Banco Nación")
	assert.Contains(t, debito.Descripcion, "fondo de caja")

	transferID := uuid.MustParse(resp.TransferenciaID)
	movs, _, err := e.repos.Movimientos.List(context.Background(), repository.MovimientoFilter{
		EntidadTipo: model.EntidadTransferencia,
		EntidadID:   &transferID,
	})
	require.NoError(t, err)
	assert.Len(t, movs, 2)

	e.requireLedgerCuadra(t, a)
	e.requireLedgerCuadra(t, b)
}

func TestTransferir_FondosInsuficientes(t *testing.T) {
	e := nuevoEntorno(t, nil)
	a := e.crearCuenta(t, "0001", 100)
	b := e.crearCuenta(t, "0002", 0)

	_, err := e.cuentas.Transferir(context.Background(), a, b, decimal.NewFromInt(300), "")
	require.ErrorIs(t, err, apperr.ErrFondosInsuficientes)
	assert.True(t, e.saldo(t, a).Equal(decimal.NewFromInt(100)))
	assert.True(t, e.saldo(t, b).IsZero())
}

func TestTransferir_Validaciones(t *testing.T) {
	e := nuevoEntorno(t, nil)
	a := e.crearCuenta(t, "0001", 100)

	cases := []struct {
		name    string
		destino uuid.UUID
		monto   decimal.Decimal
	}{
		{"misma cuenta", a, decimal.NewFromInt(10)},
		{"monto cero", uuid.New(), decimal.Zero},
		{"monto negativo", uuid.New(), decimal.NewFromInt(-5)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := e.cuentas.Transferir(context.Background(), a, tc.destino, tc.monto, "")
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}

	_, err := e.transferencias.Transferir(context.Background(), dto.TransferenciaRequest{
		CuentaOrigenID: "no-es-uuid", CuentaDestinoID: a.String(), Monto: decimal.NewFromInt(1),
	})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
}

// cuentasEspia counts the transfers that reach the ledger.
type cuentasEspia struct {
	service.CuentaService
	transferencias int
}

func (c *cuentasEspia) Transferir(ctx context.Context, origen, destino uuid.UUID, monto decimal.Decimal, descripcion string) (*service.ResultadoTransferencia, error) {
	c.transferencias++
	return c.CuentaService.Transferir(ctx, origen, destino, monto, descripcion)
}

func TestTransferencia_ValidaAntesDeDelegar(t *testing.T) {
	e := nuevoEntorno(t, nil)
	a := e.crearCuenta(t, "0001", 100)
	b := e.crearCuenta(t, "0002", 0)
	espia := &cuentasEspia{CuentaService: e.cuentas}
	svc := service.NewTransferenciaService(espia)

	cases := []struct {
		name    string
		destino uuid.UUID
		monto   decimal.Decimal
	}{
		{"misma cuenta", a, decimal.NewFromInt(10)},
		{"monto cero", b, decimal.Zero},
		{"monto negativo", b, decimal.NewFromInt(-5)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Transferir(context.Background(), dto.TransferenciaRequest{
				CuentaOrigenID: a.String(), CuentaDestinoID: tc.destino.String(), Monto: tc.monto,
			})
			var ve *apperr.ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
	assert.Zero(t, espia.transferencias)

	_, err := svc.Transferir(context.Background(), dto.TransferenciaRequest{
		CuentaOrigenID: a.String(), CuentaDestinoID: b.String(), Monto: decimal.NewFromInt(40),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, espia.transferencias)
	assert.True(t, e.saldo(t, b).Equal(decimal.NewFromInt(40)))
}

func TestTransferencia_UnaSolaLineaDeLog(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	e := nuevoEntorno(t, nil)
	a := e.crearCuenta(t, "0001", 100)
	b := e.crearCuenta(t, "0002", 0)

	_, err := e.transferencias.Transferir(context.Background(), dto.TransferenciaRequest{
		CuentaOrigenID: a.String(), CuentaDestinoID: b.String(), Monto: decimal.NewFromInt(30),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(buf.String(), "transferencia registrada"))
}

func TestTransferir_CreditoFallidoRevierteDebito(t *testing.T) {
	var destino uuid.UUID
	fallar := false
	e := nuevoEntorno(t, func(r *repository.Repositorios) {
		r.Cuentas = &cuentasConFalla{
			CuentaRepository: r.Cuentas,
			updateSaldo: func(id uuid.UUID, _ decimal.Decimal) error {
				if fallar && id == destino {
					return errStore
				}
				return nil
			},
		}
	})
	a := e.crearCuenta(t, "0001", 1000)
	destino = e.crearCuenta(t, "0002", 0)
	fallar = true

	_, err := e.cuentas.Transferir(context.Background(), a, destino, decimal.NewFromInt(300), "")
	require.ErrorIs(t, err, errStore)

	assert.True(t, e.saldo(t, a).Equal(decimal.NewFromInt(1000)))
	assert.True(t, e.saldo(t, destino).IsZero())
	movs := e.movimientos(t, a)
	require.Len(t, movs, 3, "saldo inicial, débito y reverso")
	assert.Contains(t, movs[2].Descripcion, "Reverso de transferencia fallida")
	assert.Empty(t, e.conciliacionesPendientes(t))
	e.requireLedgerCuadra(t, a)
	e.requireLedgerCuadra(t, destino)
}

func TestTransferir_ReversoFallidoRegistraConciliacion(t *testing.T) {
	var origen, destino uuid.UUID
	armado := false
	escriturasOrigen := 0
	e := nuevoEntorno(t, func(r *repository.Repositorios) {
		r.Cuentas = &cuentasConFalla{
			CuentaRepository: r.Cuentas,
			updateSaldo: func(id uuid.UUID, _ decimal.Decimal) error {
				if !armado {
					return nil
				}
				if id == destino {
					return errStore
				}
				if id == origen {
					escriturasOrigen++
					if escriturasOrigen > 1 {
						return errStore
					}
				}
				return nil
			},
		}
	})
	origen = e.crearCuenta(t, "0001", 1000)
	destino = e.crearCuenta(t, "0002", 0)
	armado = true

	_, err := e.cuentas.Transferir(context.Background(), origen, destino, decimal.NewFromInt(300), "")

	var ce *apperr.ConsistencyError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "transferir", ce.Operacion)
	require.Len(t, ce.Fallidas, 1)
	assert.Equal(t, origen, ce.Fallidas[0].AgregadoID)
	assert.True(t, e.saldo(t, origen).Equal(decimal.NewFromInt(700)))
	assert.Len(t, e.conciliacionesPendientes(t), 1)
	assert.Len(t, e.notificador.conciliaciones, 1)
}

// ── AplicarCambioSaldo ────────────────────────────────────────────────────────

func TestAplicarCambioSaldo_Reglas(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	a := e.crearCuenta(t, "0001", 100)

	_, err := e.cuentas.AplicarCambioSaldo(ctx, service.CambioSaldo{CuentaID: a, Monto: decimal.Zero})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = e.cuentas.AplicarCambioSaldo(ctx, service.CambioSaldo{CuentaID: a, Monto: decimal.NewFromInt(-101)})
	require.ErrorIs(t, err, apperr.ErrFondosInsuficientes)

	res, err := e.cuentas.AplicarCambioSaldo(ctx, service.CambioSaldo{CuentaID: a, Monto: decimal.NewFromInt(-100), Descripcion: "retiro"})
	require.NoError(t, err)
	assert.True(t, res.SaldoAnterior.Equal(decimal.NewFromInt(100)))
	assert.True(t, res.SaldoNuevo.IsZero())
	assert.Equal(t, "Egresos", res.Movimiento.Categoria)

	_, err = e.cuentas.AplicarCambioSaldo(ctx, service.CambioSaldo{CuentaID: uuid.New(), Monto: decimal.NewFromInt(1)})
	require.ErrorIs(t, err, apperr.ErrNotFound)

	e.requireLedgerCuadra(t, a)
}

func TestAplicarCambioSaldo_CuentaDeCreditoPuedeQuedarNegativa(t *testing.T) {
	e := nuevoEntorno(t, nil)
	resp, err := e.cuentas.Crear(context.Background(), dto.CrearCuentaRequest{
		NombreBanco: "Galicia", NumeroCuenta: "VISA-9", Tipo: model.CuentaCredito,
	})
	require.NoError(t, err)
	id := uuid.MustParse(resp.ID)

	_, err = e.cuentas.AplicarCambioSaldo(context.Background(), service.CambioSaldo{CuentaID: id, Monto: decimal.NewFromInt(-250)})
	require.NoError(t, err)
	assert.True(t, e.saldo(t, id).Equal(decimal.NewFromInt(-250)))
}

func TestAplicarCambioSaldo_MovimientoFallidoRestauraSaldo(t *testing.T) {
	fallar := false
	e := nuevoEntorno(t, func(r *repository.Repositorios) {
		r.Movimientos = &movimientosConFalla{
			MovimientoRepository: r.Movimientos,
			create: func(*model.MovimientoFinanciero) error {
				if fallar {
					return errStore
				}
				return nil
			},
		}
	})
	a := e.crearCuenta(t, "0001", 100)
	fallar = true

	_, err := e.cuentas.AplicarCambioSaldo(context.Background(), service.CambioSaldo{CuentaID: a, Monto: decimal.NewFromInt(50)})
	require.ErrorIs(t, err, errStore)
	assert.True(t, e.saldo(t, a).Equal(decimal.NewFromInt(100)))
	e.requireLedgerCuadra(t, a)
}

func TestAplicarCambioSaldo_Concurrente(t *testing.T) {
	e := nuevoEntorno(t, nil)
	a := e.crearCuenta(t, "0001", 0)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := e.cuentas.AplicarCambioSaldo(context.Background(), service.CambioSaldo{CuentaID: a, Monto: decimal.NewFromInt(10)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.True(t, e.saldo(t, a).Equal(decimal.NewFromInt(500)))
	e.requireLedgerCuadra(t, a)
}

// ── CRUD ──────────────────────────────────────────────────────────────────────

func TestCrearCuenta_SaldoInicialYUnicidad(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	a := e.crearCuenta(t, "12345678", 250)

	movs := e.movimientos(t, a)
	require.Len(t, movs, 1)
	assert.Equal(t, "Saldo inicial", movs[0].Descripcion)

	cuenta, err := e.cuentas.ObtenerPorID(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, "Banco Nación - ****5678", cuenta.NombreVisible)

	_, err = e.cuentas.Crear(ctx, dto.CrearCuentaRequest{
		NombreBanco: "banco nación", NumeroCuenta: "12345678", Tipo: model.CuentaAhorro,
	})
	require.ErrorIs(t, err, apperr.ErrConflicto)

	_, err = e.cuentas.Crear(ctx, dto.CrearCuentaRequest{
		NombreBanco: "Macro", NumeroCuenta: "1", Tipo: model.CuentaAhorro, SaldoInicial: decimal.NewFromInt(-1),
	})
	var ve *apperr.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestEliminarCuenta_Guardas(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	conMovs := e.crearCuenta(t, "0001", 10)
	limpia := e.crearCuenta(t, "0002", 0)
	def := e.crearCuenta(t, "0003", 0)

	cfg := cfgSinIVA()
	cfg.CuentaPorDefectoID = &def

	require.ErrorIs(t, e.cuentas.Eliminar(ctx, cfg, conMovs), apperr.ErrConflicto)
	require.ErrorIs(t, e.cuentas.Eliminar(ctx, cfg, def), apperr.ErrConflicto)
	require.NoError(t, e.cuentas.Eliminar(ctx, cfg, limpia))
	require.ErrorIs(t, e.cuentas.Eliminar(ctx, cfg, limpia), apperr.ErrNotFound)
}

func TestEliminarCuenta_ConGastos(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	a := e.crearCuenta(t, "0001", 0)
	require.NoError(t, e.repos.Gastos.Create(ctx, &model.Gasto{
		Descripcion: "Luz", Monto: decimal.NewFromInt(5), MetodoPago: model.PagoEfectivo, CuentaID: &a,
	}))

	require.ErrorIs(t, e.cuentas.Eliminar(ctx, cfgSinIVA(), a), apperr.ErrConflicto)
}

func TestResumenCuenta(t *testing.T) {
	e := nuevoEntorno(t, nil)
	ctx := context.Background()
	a := e.crearCuenta(t, "0001", 1000)
	_, err := e.cuentas.AplicarCambioSaldo(ctx, service.CambioSaldo{CuentaID: a, Monto: decimal.NewFromInt(-200), Descripcion: "pago proveedor"})
	require.NoError(t, err)

	res, err := e.cuentas.Resumen(ctx, a)
	require.NoError(t, err)
	assert.True(t, res.TotalIngresos.Equal(decimal.NewFromInt(1000)))
	assert.True(t, res.TotalEgresos.Equal(decimal.NewFromInt(200)))
	assert.EqualValues(t, 2, res.CantidadMovimientos)
	assert.True(t, res.Cuenta.Saldo.Equal(decimal.NewFromInt(800)))
}
