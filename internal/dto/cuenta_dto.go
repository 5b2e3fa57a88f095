package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ContactoRequest struct {
	Telefono  string `json:"telefono"`
	Email     string `json:"email"     validate:"omitempty,email"`
	Direccion string `json:"direccion"`
}

type CrearCuentaRequest struct {
	NombreBanco  string          `json:"nombre_banco"  validate:"required,max=100"`
	NumeroCuenta string          `json:"numero_cuenta" validate:"required,max=50"`
	Tipo         string          `json:"tipo"          validate:"required,oneof=checking savings credit"`
	Moneda       string          `json:"moneda"        validate:"omitempty,oneof=ARS USD"`
	SaldoInicial decimal.Decimal `json:"saldo_inicial"`
	Descripcion  string          `json:"descripcion"   validate:"max=200"`
	Contacto     ContactoRequest `json:"contacto"`
}

// ActualizarCuentaRequest has no balance field: Saldo only changes through
// the ledger. The handler rejects bodies carrying "saldo".
type ActualizarCuentaRequest struct {
	NombreBanco  *string          `json:"nombre_banco"  validate:"omitempty,max=100"`
	NumeroCuenta *string          `json:"numero_cuenta" validate:"omitempty,max=50"`
	Tipo         *string          `json:"tipo"          validate:"omitempty,oneof=checking savings credit"`
	Activa       *bool            `json:"activa"`
	Descripcion  *string          `json:"descripcion"   validate:"omitempty,max=200"`
	Contacto     *ContactoRequest `json:"contacto"`
}

type TransferenciaRequest struct {
	CuentaOrigenID  string          `json:"cuenta_origen_id"  validate:"required,uuid"`
	CuentaDestinoID string          `json:"cuenta_destino_id" validate:"required,uuid"`
	Monto           decimal.Decimal `json:"monto"             validate:"required"`
	Descripcion     string          `json:"descripcion"       validate:"max=200"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type MovimientoFilter struct {
	CuentaID    string `form:"cuenta_id"    validate:"omitempty,uuid"`
	Tipo        string `form:"tipo"         validate:"omitempty,oneof=income expense transfer"`
	EntidadTipo string `form:"entidad_tipo" validate:"omitempty,oneof=sale expense transfer account"`
	EntidadID   string `form:"entidad_id"   validate:"omitempty,uuid"`
	Desde       string `form:"desde"` // YYYY-MM-DD
	Hasta       string `form:"hasta"` // YYYY-MM-DD, inclusive
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type CuentaResponse struct {
	ID            string          `json:"id"`
	NombreBanco   string          `json:"nombre_banco"`
	NumeroCuenta  string          `json:"numero_cuenta"`
	NombreVisible string          `json:"nombre_visible"`
	Tipo          string          `json:"tipo"`
	Moneda        string          `json:"moneda"`
	Saldo         decimal.Decimal `json:"saldo"`
	Activa        bool            `json:"activa"`
	Sobregirada   bool            `json:"sobregirada"`
	Descripcion   string          `json:"descripcion"`
	Contacto      ContactoRequest `json:"contacto"`
	CreatedAt     string          `json:"created_at"`
}

type MovimientoResponse struct {
	ID            string          `json:"id"`
	Tipo          string          `json:"tipo"`
	Monto         decimal.Decimal `json:"monto"`
	Descripcion   string          `json:"descripcion"`
	CuentaID      string          `json:"cuenta_id"`
	EntidadTipo   *string         `json:"entidad_tipo"`
	EntidadID     *string         `json:"entidad_id"`
	ContraparteID *string         `json:"contraparte_id"`
	Categoria     string          `json:"categoria"`
	Referencia    string          `json:"referencia"`
	Saldo         decimal.Decimal `json:"saldo"`
	Fecha         string          `json:"fecha"`
}

type MovimientoListResponse struct {
	Data  []MovimientoResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

type TransferenciaResponse struct {
	TransferenciaID string             `json:"transferencia_id"`
	Debito          MovimientoResponse `json:"debito"`
	Credito         MovimientoResponse `json:"credito"`
}

// ResumenCuentaResponse summarizes one account's history.
type ResumenCuentaResponse struct {
	Cuenta              CuentaResponse       `json:"cuenta"`
	TotalIngresos       decimal.Decimal      `json:"total_ingresos"`
	TotalEgresos        decimal.Decimal      `json:"total_egresos"`
	CantidadMovimientos int64                `json:"cantidad_movimientos"`
	UltimosMovimientos  []MovimientoResponse `json:"ultimos_movimientos"`
}

type TotalPorTipo struct {
	Cantidad int             `json:"cantidad"`
	SaldoARS decimal.Decimal `json:"saldo_ars"`
}

// ResumenCuentasResponse aggregates all active accounts in settlement currency.
type ResumenCuentasResponse struct {
	TotalCuentas        int                     `json:"total_cuentas"`
	SaldoTotalARS       decimal.Decimal         `json:"saldo_total_ars"`
	PorTipo             map[string]TotalPorTipo `json:"por_tipo"`
	CuentasSobregiradas int                     `json:"cuentas_sobregiradas"`
	Cuentas             []CuentaResponse        `json:"cuentas"`
}
