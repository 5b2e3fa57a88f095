package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Estados de conciliación.
const (
	ConciliacionPendiente = "pendiente"
	ConciliacionResuelta  = "resuelta"
)

// Agregados afectados por un paso de saga.
const (
	AgregadoCuenta   = "cuenta"
	AgregadoProducto = "producto"
	AgregadoVenta    = "venta"
	AgregadoGasto    = "gasto"
)

// PasoSaga describes one applied or compensating mutation of a workflow.
type PasoSaga struct {
	Agregado    string          `json:"agregado"`
	AgregadoID  uuid.UUID       `json:"agregado_id"`
	Monto       decimal.Decimal `json:"monto"`
	Cantidad    int             `json:"cantidad,omitempty"`
	Descripcion string          `json:"descripcion"`
	Error       string          `json:"error,omitempty"`
}

// Conciliacion is the durable record of a workflow that could not undo all of
// its effects. An operator finishes it by hand and marks it resuelta.
type Conciliacion struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Operacion  string     `gorm:"type:varchar(50);not null"`
	EntidadID  *uuid.UUID `gorm:"type:uuid;index"`
	Causa      string     `gorm:"not null"`
	Aplicadas  []PasoSaga `gorm:"serializer:json"`
	Pendientes []PasoSaga `gorm:"serializer:json"`
	Estado     string     `gorm:"type:varchar(20);not null;default:'pendiente';index"`
	Nota       string
	Fecha      time.Time `gorm:"not null"`
	ResueltaEn *time.Time
}

func (Conciliacion) TableName() string { return "conciliaciones" }
