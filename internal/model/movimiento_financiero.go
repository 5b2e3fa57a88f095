package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de movimiento financiero.
const (
	MovimientoIngreso = "income"
	MovimientoEgreso  = "expense"
	// MovimientoTransferencia is never stored as Tipo: both legs of a transfer
	// are income/expense tagged with EntidadTransferencia. Filters accept it.
	MovimientoTransferencia = "transfer"
)

// Tipos de entidad relacionada a un movimiento.
const (
	EntidadVenta         = "sale"
	EntidadGasto         = "expense"
	EntidadTransferencia = "transfer"
	EntidadCuenta        = "account"
)

// MovimientoFinanciero is an immutable entry in an account's history.
// Monto is always positive; the direction lives in Tipo. Saldo is the
// account balance right after the change this movement records.
// Movements are never modified or deleted; reversals create inverse entries.
type MovimientoFinanciero struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Tipo        string          `gorm:"type:varchar(20);not null"`
	Monto       decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Descripcion string          `gorm:"not null"`
	CuentaID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	EntidadTipo *string         `gorm:"type:varchar(20)"`
	EntidadID   *uuid.UUID      `gorm:"type:uuid;index"`
	// ContraparteID links the two legs of a transfer.
	ContraparteID *uuid.UUID      `gorm:"type:uuid"`
	Categoria     string          `gorm:"type:varchar(50)"`
	Referencia    string          `gorm:"type:varchar(100)"`
	Saldo         decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Fecha         time.Time       `gorm:"not null;index"`
}

func (MovimientoFinanciero) TableName() string { return "movimientos_financieros" }

// EntidadRef identifies the record that caused a balance change.
type EntidadRef struct {
	Tipo string
	ID   uuid.UUID
}
