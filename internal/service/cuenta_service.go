package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fullfullelectronic/pos-system-macos/internal/apperr"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/lock"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CambioSaldo is one signed balance change requested from the ledger.
type CambioSaldo struct {
	CuentaID    uuid.UUID
	Monto       decimal.Decimal // positive credits, negative debits
	Descripcion string
	// Categoria defaults to "Ingresos" / "Egresos" by sign.
	Categoria  string
	Entidad    *model.EntidadRef
	Referencia string
	// MovimientoID pre-assigns the movement id (transfers link both legs).
	MovimientoID  uuid.UUID
	ContraparteID *uuid.UUID
}

// ResultadoCambioSaldo reports the balance before and after, plus the movement written.
type ResultadoCambioSaldo struct {
	SaldoAnterior decimal.Decimal
	SaldoNuevo    decimal.Decimal
	Cuenta        *model.CuentaBancaria
	Movimiento    *model.MovimientoFinanciero
}

// ResultadoTransferencia holds both legs of a transfer.
type ResultadoTransferencia struct {
	TransferenciaID uuid.UUID
	Debito          *ResultadoCambioSaldo
	Credito         *ResultadoCambioSaldo
}

// CuentaService owns account balances. AplicarCambioSaldo is the only path
// that changes CuentaBancaria.Saldo, and every change appends one movement.
type CuentaService interface {
	AplicarCambioSaldo(ctx context.Context, c CambioSaldo) (*ResultadoCambioSaldo, error)
	Transferir(ctx context.Context, origenID, destinoID uuid.UUID, monto decimal.Decimal, descripcion string) (*ResultadoTransferencia, error)

	Crear(ctx context.Context, req dto.CrearCuentaRequest) (*dto.CuentaResponse, error)
	Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCuentaRequest) (*dto.CuentaResponse, error)
	Eliminar(ctx context.Context, cfg model.Configuracion, id uuid.UUID) error
	ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CuentaResponse, error)
	Listar(ctx context.Context, soloActivas bool) ([]dto.CuentaResponse, error)
	ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error)
	Resumen(ctx context.Context, id uuid.UUID) (*dto.ResumenCuentaResponse, error)
	ResumenGeneral(ctx context.Context, cfg model.Configuracion) (*dto.ResumenCuentasResponse, error)
}

type cuentaService struct {
	cuentas     repository.CuentaRepository
	movimientos repository.MovimientoRepository
	gastos      repository.GastoRepository
	locker      lock.Locker
	conciliador *conciliador
}

func NewCuentaService(
	cuentas repository.CuentaRepository,
	movimientos repository.MovimientoRepository,
	gastos repository.GastoRepository,
	conciliaciones repository.ConciliacionRepository,
	locker lock.Locker,
	notificador Notificador,
) CuentaService {
	return &cuentaService{
		cuentas:     cuentas,
		movimientos: movimientos,
		gastos:      gastos,
		locker:      locker,
		conciliador: &conciliador{repo: conciliaciones, notificador: notificador},
	}
}

// ── AplicarCambioSaldo ────────────────────────────────────────────────────────

func (s *cuentaService) AplicarCambioSaldo(ctx context.Context, c CambioSaldo) (*ResultadoCambioSaldo, error) {
	var res *ResultadoCambioSaldo
	err := s.locker.WithLock(ctx, lock.Cuenta(c.CuentaID), func(ctx context.Context) error {
		var err error
		res, err = s.aplicar(ctx, c)
		return err
	})
	if err != nil {
		return nil, apperr.Traducir("aplicar_cambio_saldo", err)
	}
	return res, nil
}

// aplicar does the read-check-write; the caller holds the account's lock.
func (s *cuentaService) aplicar(ctx context.Context, c CambioSaldo) (*ResultadoCambioSaldo, error) {
	if c.Monto.IsZero() {
		return nil, apperr.Validacion("el monto del cambio de saldo no puede ser 0")
	}
	cuenta, err := s.cuentas.FindByID(ctx, c.CuentaID)
	if err != nil {
		return nil, err
	}

	anterior := cuenta.Saldo
	nuevo := anterior.Add(c.Monto)
	if cuenta.Tipo != model.CuentaCredito && nuevo.IsNegative() {
		return nil, fmt.Errorf("%s: saldo %s, débito %s: %w",
			cuenta.NombreVisible(), anterior.StringFixed(2), c.Monto.Abs().StringFixed(2), apperr.ErrFondosInsuficientes)
	}

	if err := s.cuentas.UpdateSaldo(ctx, cuenta.ID, nuevo); err != nil {
		return nil, err
	}

	mov := nuevoMovimiento(c, nuevo)
	if err := s.movimientos.Create(ctx, mov); err != nil {
		// Balance moved without its movement: put it back.
		if rerr := s.cuentas.UpdateSaldo(context.WithoutCancel(ctx), cuenta.ID, anterior); rerr != nil {
			ce := &apperr.ConsistencyError{
				Operacion: "aplicar_cambio_saldo",
				Causa:     err,
				Fallidas: []model.PasoSaga{{
					Agregado:    model.AgregadoCuenta,
					AgregadoID:  cuenta.ID,
					Monto:       c.Monto,
					Descripcion: fmt.Sprintf("saldo cambiado de %s a %s sin movimiento registrado", anterior.StringFixed(2), nuevo.StringFixed(2)),
					Error:       rerr.Error(),
				}},
			}
			return nil, s.conciliador.registrar(ctx, ce, &cuenta.ID)
		}
		return nil, err
	}

	cuenta.Saldo = nuevo
	return &ResultadoCambioSaldo{
		SaldoAnterior: anterior,
		SaldoNuevo:    nuevo,
		Cuenta:        cuenta,
		Movimiento:    mov,
	}, nil
}

func nuevoMovimiento(c CambioSaldo, saldo decimal.Decimal) *model.MovimientoFinanciero {
	tipo, categoria := model.MovimientoIngreso, "Ingresos"
	if c.Monto.IsNegative() {
		tipo, categoria = model.MovimientoEgreso, "Egresos"
	}
	if c.Categoria != "" {
		categoria = c.Categoria
	}
	mov := &model.MovimientoFinanciero{
		ID:            c.MovimientoID,
		Tipo:          tipo,
		Monto:         c.Monto.Abs(),
		Descripcion:   c.Descripcion,
		CuentaID:      c.CuentaID,
		ContraparteID: c.ContraparteID,
		Categoria:     categoria,
		Referencia:    c.Referencia,
		Saldo:         saldo,
		Fecha:         time.Now().UTC(),
	}
	if mov.ID == uuid.Nil {
		mov.ID = uuid.New()
	}
	if c.Entidad != nil {
		t, id := c.Entidad.Tipo, c.Entidad.ID
		mov.EntidadTipo = &t
		mov.EntidadID = &id
	}
	return mov
}

// ── Transferir ────────────────────────────────────────────────────────────────
// Debit then credit under both account locks; a failed credit reverses the debit.

func (s *cuentaService) Transferir(ctx context.Context, origenID, destinoID uuid.UUID, monto decimal.Decimal, descripcion string) (*ResultadoTransferencia, error) {
	var violaciones []string
	if origenID == destinoID {
		violaciones = append(violaciones, "la cuenta origen y la cuenta destino deben ser distintas")
	}
	if !monto.IsPositive() {
		violaciones = append(violaciones, "el monto de la transferencia debe ser mayor a 0")
	}
	if err := apperr.Validacion(violaciones...); err != nil {
		return nil, err
	}

	var res *ResultadoTransferencia
	claves := []string{lock.Cuenta(origenID), lock.Cuenta(destinoID)}
	err := lock.WithLocks(ctx, s.locker, claves, func(ctx context.Context) error {
		var err error
		res, err = s.transferir(ctx, origenID, destinoID, monto, descripcion)
		return err
	})
	if err != nil {
		return nil, apperr.Traducir("transferir", err)
	}
	return res, nil
}

func (s *cuentaService) transferir(ctx context.Context, origenID, destinoID uuid.UUID, monto decimal.Decimal, descripcion string) (*ResultadoTransferencia, error) {
	origen, err := s.cuentas.FindByID(ctx, origenID)
	if err != nil {
		return nil, err
	}
	destino, err := s.cuentas.FindByID(ctx, destinoID)
	if err != nil {
		return nil, err
	}
	if !origen.PuedeRetirar(monto) {
		return nil, fmt.Errorf("%s: saldo %s, transferencia %s: %w",
			origen.NombreVisible(), origen.Saldo.StringFixed(2), monto.StringFixed(2), apperr.ErrFondosInsuficientes)
	}

	transferID := uuid.New()
	debitoID, creditoID := uuid.New(), uuid.New()
	entidad := &model.EntidadRef{Tipo: model.EntidadTransferencia, ID: transferID}
	sg := nuevaSaga("transferir")

	debito, err := s.aplicar(ctx, CambioSaldo{
		CuentaID:      origen.ID,
		Monto:         monto.Neg(),
		Descripcion:   conDetalle("Transferencia a "+destino.NombreVisible(), descripcion),
		Categoria:     "Transferencia",
		Entidad:       entidad,
		MovimientoID:  debitoID,
		ContraparteID: &creditoID,
	})
	if err != nil {
		return nil, err
	}
	sg.registrar(model.PasoSaga{
		Agregado:    model.AgregadoCuenta,
		AgregadoID:  origen.ID,
		Monto:       monto.Neg(),
		Descripcion: "débito de transferencia " + transferID.String(),
	}, func(ctx context.Context) error {
		_, err := s.aplicar(ctx, CambioSaldo{
			CuentaID:    origen.ID,
			Monto:       monto,
			Descripcion: "Reverso de transferencia fallida a " + destino.NombreVisible(),
			Categoria:   "Transferencia",
			Entidad:     entidad,
		})
		return err
	})

	credito, err := s.aplicar(ctx, CambioSaldo{
		CuentaID:      destino.ID,
		Monto:         monto,
		Descripcion:   conDetalle("Transferencia desde "+origen.NombreVisible(), descripcion),
		Categoria:     "Transferencia",
		Entidad:       entidad,
		MovimientoID:  creditoID,
		ContraparteID: &debitoID,
	})
	if err != nil {
		if ce := sg.compensar(ctx, err); ce != nil {
			return nil, s.conciliador.registrar(ctx, ce, &transferID)
		}
		return nil, err
	}

	log.Info().Str("transferencia_id", transferID.String()).Str("origen", origen.ID.String()).
		Str("destino", destino.ID.String()).Str("monto", monto.StringFixed(2)).Msg("transferencia registrada")
	return &ResultadoTransferencia{TransferenciaID: transferID, Debito: debito, Credito: credito}, nil
}

func conDetalle(base, detalle string) string {
	if strings.TrimSpace(detalle) == "" {
		return base
	}
	return base + ": " + detalle
}

// ── CRUD ──────────────────────────────────────────────────────────────────────

func (s *cuentaService) Crear(ctx context.Context, req dto.CrearCuentaRequest) (*dto.CuentaResponse, error) {
	cuenta := &model.CuentaBancaria{
		NombreBanco:  strings.TrimSpace(req.NombreBanco),
		NumeroCuenta: strings.TrimSpace(req.NumeroCuenta),
		Tipo:         req.Tipo,
		Moneda:       req.Moneda,
		Activa:       true,
		Descripcion:  req.Descripcion,
		Contacto:     model.Contacto(req.Contacto),
	}
	if cuenta.Moneda == "" {
		cuenta.Moneda = model.MonedaARS
	}
	violaciones := cuenta.Validar()
	if req.SaldoInicial.IsNegative() && cuenta.Tipo != model.CuentaCredito {
		violaciones = append(violaciones, "solo una cuenta de crédito puede iniciar con saldo negativo")
	}
	if err := apperr.Validacion(violaciones...); err != nil {
		return nil, err
	}
	if err := s.numeroDisponible(ctx, cuenta.NumeroCuenta, cuenta.NombreBanco, uuid.Nil); err != nil {
		return nil, err
	}

	if err := s.cuentas.Create(ctx, cuenta); err != nil {
		return nil, apperr.Traducir("crear_cuenta", err)
	}

	if !req.SaldoInicial.IsZero() {
		res, err := s.AplicarCambioSaldo(ctx, CambioSaldo{
			CuentaID:    cuenta.ID,
			Monto:       req.SaldoInicial,
			Descripcion: "Saldo inicial",
			Categoria:   "Saldo inicial",
			Entidad:     &model.EntidadRef{Tipo: model.EntidadCuenta, ID: cuenta.ID},
		})
		if err != nil {
			if derr := s.cuentas.Delete(context.WithoutCancel(ctx), cuenta.ID); derr != nil {
				log.Error().Err(derr).Str("cuenta_id", cuenta.ID.String()).Msg("no se pudo eliminar la cuenta sin saldo inicial")
			}
			return nil, err
		}
		cuenta = res.Cuenta
	}

	log.Info().Str("cuenta_id", cuenta.ID.String()).Str("cuenta", cuenta.NombreVisible()).Msg("cuenta creada")
	resp := cuentaToResponse(cuenta)
	return &resp, nil
}

func (s *cuentaService) Actualizar(ctx context.Context, id uuid.UUID, req dto.ActualizarCuentaRequest) (*dto.CuentaResponse, error) {
	var resp dto.CuentaResponse
	err := s.locker.WithLock(ctx, lock.Cuenta(id), func(ctx context.Context) error {
		cuenta, err := s.cuentas.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if req.NombreBanco != nil {
			cuenta.NombreBanco = strings.TrimSpace(*req.NombreBanco)
		}
		if req.NumeroCuenta != nil {
			cuenta.NumeroCuenta = strings.TrimSpace(*req.NumeroCuenta)
		}
		if req.Tipo != nil {
			cuenta.Tipo = *req.Tipo
		}
		if req.Activa != nil {
			cuenta.Activa = *req.Activa
		}
		if req.Descripcion != nil {
			cuenta.Descripcion = *req.Descripcion
		}
		if req.Contacto != nil {
			cuenta.Contacto = model.Contacto(*req.Contacto)
		}

		violaciones := cuenta.Validar()
		if cuenta.Tipo != model.CuentaCredito && cuenta.Saldo.IsNegative() {
			violaciones = append(violaciones, "una cuenta con saldo negativo solo puede ser de crédito")
		}
		if err := apperr.Validacion(violaciones...); err != nil {
			return err
		}
		if err := s.numeroDisponible(ctx, cuenta.NumeroCuenta, cuenta.NombreBanco, cuenta.ID); err != nil {
			return err
		}
		if err := s.cuentas.Update(ctx, cuenta); err != nil {
			return err
		}
		resp = cuentaToResponse(cuenta)
		return nil
	})
	if err != nil {
		return nil, apperr.Traducir("actualizar_cuenta", err)
	}
	return &resp, nil
}

// numeroDisponible rejects a number + bank pair already used by another account.
func (s *cuentaService) numeroDisponible(ctx context.Context, numero, banco string, propia uuid.UUID) error {
	existente, err := s.cuentas.FindByNumero(ctx, numero, banco)
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return nil
	case err != nil:
		return apperr.Traducir("verificar_numero_cuenta", err)
	case existente.ID != propia:
		return apperr.Conflicto("ya existe la cuenta %s en %s", numero, banco)
	}
	return nil
}

func (s *cuentaService) Eliminar(ctx context.Context, cfg model.Configuracion, id uuid.UUID) error {
	err := s.locker.WithLock(ctx, lock.Cuenta(id), func(ctx context.Context) error {
		if _, err := s.cuentas.FindByID(ctx, id); err != nil {
			return err
		}
		if cfg.CuentaPorDefectoID != nil && *cfg.CuentaPorDefectoID == id {
			return apperr.Conflicto("la cuenta es la cuenta por defecto configurada")
		}
		tieneMovs, err := s.movimientos.ExistsByCuenta(ctx, id)
		if err != nil {
			return err
		}
		if tieneMovs {
			return apperr.Conflicto("la cuenta tiene movimientos registrados")
		}
		tieneGastos, err := s.gastos.ExistsConCuenta(ctx, id)
		if err != nil {
			return err
		}
		if tieneGastos {
			return apperr.Conflicto("la cuenta está referenciada por gastos")
		}
		return s.cuentas.Delete(ctx, id)
	})
	return apperr.Traducir("eliminar_cuenta", err)
}

func (s *cuentaService) ObtenerPorID(ctx context.Context, id uuid.UUID) (*dto.CuentaResponse, error) {
	cuenta, err := s.cuentas.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Traducir("obtener_cuenta", err)
	}
	resp := cuentaToResponse(cuenta)
	return &resp, nil
}

func (s *cuentaService) Listar(ctx context.Context, soloActivas bool) ([]dto.CuentaResponse, error) {
	cuentas, err := s.cuentas.List(ctx, soloActivas)
	if err != nil {
		return nil, apperr.Traducir("listar_cuentas", err)
	}
	out := make([]dto.CuentaResponse, 0, len(cuentas))
	for i := range cuentas {
		out = append(out, cuentaToResponse(&cuentas[i]))
	}
	return out, nil
}

// ── Movimientos y resúmenes ───────────────────────────────────────────────────

func (s *cuentaService) ListarMovimientos(ctx context.Context, filter dto.MovimientoFilter) (*dto.MovimientoListResponse, error) {
	rango, err := rangoFechas(filter.Desde, filter.Hasta)
	if err != nil {
		return nil, err
	}
	cuentaID, err := parseIDOpcional("cuenta_id", &filter.CuentaID)
	if err != nil {
		return nil, err
	}
	entidadID, err := parseIDOpcional("entidad_id", &filter.EntidadID)
	if err != nil {
		return nil, err
	}

	movs, total, err := s.movimientos.List(ctx, repository.MovimientoFilter{
		CuentaID:    cuentaID,
		Tipo:        filter.Tipo,
		EntidadTipo: filter.EntidadTipo,
		EntidadID:   entidadID,
		Fechas:      rango,
		Page:        filter.Page,
		Limit:       filter.Limit,
	})
	if err != nil {
		return nil, apperr.Traducir("listar_movimientos", err)
	}
	data := make([]dto.MovimientoResponse, 0, len(movs))
	for i := range movs {
		data = append(data, movimientoToResponse(&movs[i]))
	}
	return &dto.MovimientoListResponse{Data: data, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

const ultimosMovimientos = 10

func (s *cuentaService) Resumen(ctx context.Context, id uuid.UUID) (*dto.ResumenCuentaResponse, error) {
	cuenta, err := s.cuentas.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Traducir("resumen_cuenta", err)
	}
	movs, total, err := s.movimientos.List(ctx, repository.MovimientoFilter{CuentaID: &id})
	if err != nil {
		return nil, apperr.Traducir("resumen_cuenta", err)
	}

	resp := &dto.ResumenCuentaResponse{
		Cuenta:              cuentaToResponse(cuenta),
		TotalIngresos:       decimal.Zero,
		TotalEgresos:        decimal.Zero,
		CantidadMovimientos: total,
	}
	for i := range movs {
		if movs[i].Tipo == model.MovimientoEgreso {
			resp.TotalEgresos = resp.TotalEgresos.Add(movs[i].Monto)
		} else {
			resp.TotalIngresos = resp.TotalIngresos.Add(movs[i].Monto)
		}
	}
	// newest first
	for i := len(movs) - 1; i >= 0 && len(resp.UltimosMovimientos) < ultimosMovimientos; i-- {
		resp.UltimosMovimientos = append(resp.UltimosMovimientos, movimientoToResponse(&movs[i]))
	}
	return resp, nil
}

func (s *cuentaService) ResumenGeneral(ctx context.Context, cfg model.Configuracion) (*dto.ResumenCuentasResponse, error) {
	cuentas, err := s.cuentas.List(ctx, true)
	if err != nil {
		return nil, apperr.Traducir("resumen_cuentas", err)
	}
	resp := &dto.ResumenCuentasResponse{
		SaldoTotalARS: decimal.Zero,
		PorTipo:       make(map[string]dto.TotalPorTipo),
		Cuentas:       make([]dto.CuentaResponse, 0, len(cuentas)),
	}
	for i := range cuentas {
		c := &cuentas[i]
		saldoARS := c.Saldo
		if c.Moneda == model.MonedaUSD {
			saldoARS = c.Saldo.Mul(cfg.TipoCambio).Round(2)
		}
		resp.TotalCuentas++
		resp.SaldoTotalARS = resp.SaldoTotalARS.Add(saldoARS)
		t := resp.PorTipo[c.Tipo]
		t.Cantidad++
		t.SaldoARS = t.SaldoARS.Add(saldoARS)
		resp.PorTipo[c.Tipo] = t
		if c.Sobregirada() {
			resp.CuentasSobregiradas++
		}
		resp.Cuentas = append(resp.Cuentas, cuentaToResponse(c))
	}
	return resp, nil
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func cuentaToResponse(c *model.CuentaBancaria) dto.CuentaResponse {
	return dto.CuentaResponse{
		ID:            c.ID.String(),
		NombreBanco:   c.NombreBanco,
		NumeroCuenta:  c.NumeroCuenta,
		NombreVisible: c.NombreVisible(),
		Tipo:          c.Tipo,
		Moneda:        c.Moneda,
		Saldo:         c.Saldo,
		Activa:        c.Activa,
		Sobregirada:   c.Sobregirada(),
		Descripcion:   c.Descripcion,
		Contacto:      dto.ContactoRequest(c.Contacto),
		CreatedAt:     formatFecha(c.CreatedAt),
	}
}

func movimientoToResponse(m *model.MovimientoFinanciero) dto.MovimientoResponse {
	return dto.MovimientoResponse{
		ID:            m.ID.String(),
		Tipo:          m.Tipo,
		Monto:         m.Monto,
		Descripcion:   m.Descripcion,
		CuentaID:      m.CuentaID.String(),
		EntidadTipo:   m.EntidadTipo,
		EntidadID:     idString(m.EntidadID),
		ContraparteID: idString(m.ContraparteID),
		Categoria:     m.Categoria,
		Referencia:    m.Referencia,
		Saldo:         m.Saldo,
		Fecha:         formatFecha(m.Fecha),
	}
}
