package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de venta.
const (
	VentaPendiente  = "pending"
	VentaCompletada = "completed"
	VentaCancelada  = "cancelled"
)

// Tipos de pago. Every type except cash requires a reference.
const (
	PagoEfectivo      = "cash"
	PagoCredito       = "credit"
	PagoDebito        = "debit"
	PagoTransferencia = "transfer"
)

// Epsilon is the tolerance used when comparing money totals.
var Epsilon = decimal.New(1, -2)

// Venta is a committed (or cancelled) sale. Items, Pagos and every amount
// are immutable once persisted; only Notas and the transition to cancelled
// may change afterwards.
type Venta struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey"`
	NumeroTicket  int        `gorm:"not null;index"`
	ClienteID     *uuid.UUID `gorm:"type:uuid;index"`
	ClienteNombre string
	Subtotal      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	IVA           decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	IVAAplicado   bool            `gorm:"not null;default:false"`
	IVATasa       decimal.Decimal `gorm:"type:decimal(5,2);not null;default:0"`
	Total         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Estado        string          `gorm:"type:varchar(20);not null;default:'completed'"`
	Notas         string
	// CuentaPorDefectoID is set when the whole total was posted to the
	// configured default account instead of per-payment targets.
	CuentaPorDefectoID *uuid.UUID      `gorm:"type:uuid"`
	MontoPorDefecto    decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Fecha              time.Time       `gorm:"not null;index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Items []VentaItem `gorm:"foreignKey:VentaID"`
	Pagos []Pago      `gorm:"foreignKey:VentaID"`
}

// VentaItem is one line item; Nombre is a snapshot of the product name.
type VentaItem struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductoID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Nombre         string          `gorm:"not null"`
	Cantidad       int             `gorm:"not null"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
}

func (VentaItem) TableName() string { return "venta_items" }

// Pago is a payment line of a sale. MontoARS is the amount normalized to
// the settlement currency.
type Pago struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	VentaID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo       string          `gorm:"type:varchar(20);not null"`
	Monto      decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Moneda     string          `gorm:"type:varchar(3);not null;default:'ARS'"`
	TipoCambio decimal.Decimal `gorm:"type:decimal(12,4);not null;default:1"`
	MontoARS   decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	CuentaID   *uuid.UUID      `gorm:"type:uuid;index"`
	Referencia string
	// Imputado is true when MontoARS was posted to CuentaID.
	Imputado bool `gorm:"not null;default:false"`
}

func (Pago) TableName() string { return "venta_pagos" }

// Normalizar fills MontoARS: USD amounts are converted with tipoCambio,
// ARS amounts pass through unchanged.
func (p *Pago) Normalizar(tipoCambio decimal.Decimal) {
	if p.Moneda == MonedaUSD {
		p.TipoCambio = tipoCambio
		p.MontoARS = p.Monto.Mul(tipoCambio).Round(2)
		return
	}
	p.TipoCambio = decimal.NewFromInt(1)
	p.MontoARS = p.Monto
}

func (p *Pago) Validar() []string {
	var v []string
	switch p.Tipo {
	case PagoEfectivo, PagoCredito, PagoDebito, PagoTransferencia:
	default:
		v = append(v, fmt.Sprintf("tipo de pago inválido: %q", p.Tipo))
	}
	if !p.Monto.IsPositive() {
		v = append(v, "el monto del pago debe ser mayor a 0")
	}
	switch p.Moneda {
	case MonedaARS, MonedaUSD:
	default:
		v = append(v, fmt.Sprintf("moneda inválida: %q", p.Moneda))
	}
	if p.Tipo != PagoEfectivo && strings.TrimSpace(p.Referencia) == "" {
		v = append(v, fmt.Sprintf("el pago con %s requiere referencia", p.Tipo))
	}
	return v
}

// CalcularTotales computes line subtotals, Subtotal, IVA and Total.
// IVA is rounded to cents.
func (v *Venta) CalcularTotales(ivaHabilitado bool, ivaTasa decimal.Decimal) {
	subtotal := decimal.Zero
	for i := range v.Items {
		it := &v.Items[i]
		it.Subtotal = it.PrecioUnitario.Mul(decimal.NewFromInt(int64(it.Cantidad)))
		subtotal = subtotal.Add(it.Subtotal)
	}
	v.Subtotal = subtotal
	v.IVAAplicado = ivaHabilitado
	if ivaHabilitado {
		v.IVATasa = ivaTasa
		v.IVA = subtotal.Mul(ivaTasa).Div(decimal.NewFromInt(100)).Round(2)
	} else {
		v.IVATasa = decimal.Zero
		v.IVA = decimal.Zero
	}
	v.Total = v.Subtotal.Add(v.IVA)
}

// TotalPagado sums the normalized payment amounts.
func (v *Venta) TotalPagado() decimal.Decimal {
	total := decimal.Zero
	for _, p := range v.Pagos {
		total = total.Add(p.MontoARS)
	}
	return total
}

// Validar checks the structure of the sale before any side effect.
func (v *Venta) Validar() []string {
	var errs []string
	if len(v.Items) == 0 {
		errs = append(errs, "la venta debe tener al menos un producto")
	}
	for i, it := range v.Items {
		if it.ProductoID == uuid.Nil {
			errs = append(errs, fmt.Sprintf("item %d: producto requerido", i+1))
		}
		if it.Cantidad <= 0 {
			errs = append(errs, fmt.Sprintf("item %d: la cantidad debe ser mayor a 0", i+1))
		}
		if !it.PrecioUnitario.IsPositive() {
			errs = append(errs, fmt.Sprintf("item %d: el precio debe ser mayor a 0", i+1))
		}
	}
	if len(v.Pagos) == 0 {
		errs = append(errs, "la venta debe tener al menos un pago")
	}
	for i := range v.Pagos {
		for _, e := range v.Pagos[i].Validar() {
			errs = append(errs, fmt.Sprintf("pago %d: %s", i+1, e))
		}
	}
	switch v.Estado {
	case VentaPendiente, VentaCompletada, VentaCancelada:
	default:
		errs = append(errs, fmt.Sprintf("estado de venta inválido: %q", v.Estado))
	}
	return errs
}
