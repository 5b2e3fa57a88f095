package dto

import "github.com/shopspring/decimal"

// ─── Filter / List ──────────────────────────────────────────────────────────

// VentaFilter is bound from query string of GET /v1/ventas.
type VentaFilter struct {
	Desde     string `form:"desde"` // YYYY-MM-DD
	Hasta     string `form:"hasta"` // YYYY-MM-DD, inclusive
	Estado    string `form:"estado,default=all" validate:"omitempty,oneof=completed cancelled pending all"`
	ClienteID string `form:"cliente_id"         validate:"omitempty,uuid"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type VentaListResponse struct {
	Data  []VentaResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID     string          `json:"producto_id"     validate:"required,uuid"`
	Cantidad       int             `json:"cantidad"        validate:"required,min=1"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario" validate:"required,gt=0"`
}

type PagoRequest struct {
	Tipo       string          `json:"tipo"       validate:"required,oneof=cash credit debit transfer"`
	Monto      decimal.Decimal `json:"monto"      validate:"required,gt=0"`
	Moneda     string          `json:"moneda"     validate:"omitempty,oneof=ARS USD"`
	CuentaID   *string         `json:"cuenta_id"  validate:"omitempty,uuid"`
	Referencia string          `json:"referencia" validate:"max=100"`
}

type RegistrarVentaRequest struct {
	// ID lets the client retry a sale safely: a committed sale with the same
	// id is returned instead of being registered twice.
	ID        *string            `json:"id"         validate:"omitempty,uuid"`
	ClienteID *string            `json:"cliente_id" validate:"omitempty,uuid"`
	Items     []ItemVentaRequest `json:"items"      validate:"required,min=1,dive"`
	Pagos     []PagoRequest      `json:"pagos"      validate:"required,min=1,dive"`
	Notas     string             `json:"notas"      validate:"max=500"`
}

type AnularVentaRequest struct {
	Motivo string `json:"motivo" validate:"required,min=3"`
}

// ActualizarVentaRequest only reaches non-financial fields.
type ActualizarVentaRequest struct {
	Notas  *string `json:"notas"  validate:"omitempty,max=500"`
	Estado *string `json:"estado" validate:"omitempty,oneof=cancelled"`
	Motivo string  `json:"motivo"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ItemVentaResponse struct {
	ProductoID     string          `json:"producto_id"`
	Producto       string          `json:"producto"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type PagoResponse struct {
	Tipo       string          `json:"tipo"`
	Monto      decimal.Decimal `json:"monto"`
	Moneda     string          `json:"moneda"`
	TipoCambio decimal.Decimal `json:"tipo_cambio"`
	MontoARS   decimal.Decimal `json:"monto_ars"`
	CuentaID   *string         `json:"cuenta_id"`
	Referencia string          `json:"referencia"`
	Imputado   bool            `json:"imputado"`
}

type VentaResponse struct {
	ID                 string              `json:"id"`
	NumeroTicket       int                 `json:"numero_ticket"`
	ClienteID          *string             `json:"cliente_id"`
	ClienteNombre      string              `json:"cliente_nombre"`
	Items              []ItemVentaResponse `json:"items"`
	Pagos              []PagoResponse      `json:"pagos"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	IVA                decimal.Decimal     `json:"iva"`
	IVATasa            decimal.Decimal     `json:"iva_tasa"`
	Total              decimal.Decimal     `json:"total"`
	Estado             string              `json:"estado"`
	Notas              string              `json:"notas"`
	CuentaPorDefectoID *string             `json:"cuenta_por_defecto_id"`
	Fecha              string              `json:"fecha"`
}
