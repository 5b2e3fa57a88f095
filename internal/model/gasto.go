package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Periodos de recurrencia.
const (
	PeriodoSemanal = "weekly"
	PeriodoMensual = "monthly"
	PeriodoAnual   = "yearly"
)

// CategoriasGasto are the default expense categories offered to the operator.
var CategoriasGasto = []string{
	"Alquiler",
	"Servicios",
	"Sueldos",
	"Impuestos",
	"Mercadería",
	"Mantenimiento",
	"Publicidad",
	"Otros",
}

// Gasto is an expense. CuentaImputadaID records the account the expense was
// actually posted to (the explicit CuentaID or the default at creation time).
type Gasto struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Descripcion        string          `gorm:"type:varchar(200);not null"`
	Monto              decimal.Decimal `gorm:"type:decimal(14,2);not null"`
	Categoria          string          `gorm:"type:varchar(50);index"`
	Fecha              time.Time       `gorm:"not null;index"`
	MetodoPago         string          `gorm:"type:varchar(20);not null;default:'cash'"`
	Referencia         string
	CuentaID           *uuid.UUID `gorm:"type:uuid;index"`
	CuentaImputadaID   *uuid.UUID `gorm:"type:uuid;index"`
	EsRecurrente       bool       `gorm:"not null;default:false"`
	PeriodoRecurrencia string     `gorm:"type:varchar(10)"`
	Etiquetas          []string   `gorm:"serializer:json"`
	Adjuntos           []Adjunto  `gorm:"serializer:json"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Adjunto describes a receipt file attached to an expense.
type Adjunto struct {
	Nombre   string    `json:"nombre"`
	Ruta     string    `json:"ruta"`
	Tamano   int64     `json:"tamano"`
	Tipo     string    `json:"tipo"`
	SubidoEn time.Time `json:"subido_en"`
}

func (g *Gasto) Validar() []string {
	var v []string
	if strings.TrimSpace(g.Descripcion) == "" {
		v = append(v, "la descripción es requerida")
	} else if len(g.Descripcion) > 200 {
		v = append(v, "la descripción no puede superar 200 caracteres")
	}
	if !g.Monto.IsPositive() {
		v = append(v, "el monto debe ser mayor a 0")
	}
	if len(g.Categoria) > 50 {
		v = append(v, "la categoría no puede superar 50 caracteres")
	}
	switch g.MetodoPago {
	case PagoEfectivo:
	case PagoCredito, PagoDebito, PagoTransferencia:
		if strings.TrimSpace(g.Referencia) == "" {
			v = append(v, fmt.Sprintf("el pago con %s requiere referencia", g.MetodoPago))
		}
	default:
		v = append(v, fmt.Sprintf("método de pago inválido: %q", g.MetodoPago))
	}
	if g.EsRecurrente {
		switch g.PeriodoRecurrencia {
		case PeriodoSemanal, PeriodoMensual, PeriodoAnual:
		default:
			v = append(v, "un gasto recurrente requiere período weekly, monthly o yearly")
		}
	}
	return v
}
