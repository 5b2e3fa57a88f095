package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Configuracion is the single business configuration row (ID = 1).
// Workflows never read it directly: callers load it once and pass the value in.
type Configuracion struct {
	ID                 int             `gorm:"primaryKey"`
	IVAHabilitado      bool            `gorm:"not null;default:true"`
	IVATasa            decimal.Decimal `gorm:"type:decimal(5,2);not null;default:21"`
	TipoCambio         decimal.Decimal `gorm:"type:decimal(12,4);not null;default:350"`
	CuentaPorDefectoID *uuid.UUID      `gorm:"type:uuid"`
	UmbralStockBajo    int             `gorm:"not null;default:10"`
	Moneda             string          `gorm:"type:varchar(3);not null;default:'ARS'"`
	NombreEmpresa      string
	CUITEmpresa        string
	DireccionEmpresa   string
	UpdatedAt          time.Time
}

func (Configuracion) TableName() string { return "configuracion" }

// ConfiguracionPorDefecto returns the factory settings.
func ConfiguracionPorDefecto() Configuracion {
	return Configuracion{
		ID:              1,
		IVAHabilitado:   true,
		IVATasa:         decimal.NewFromInt(21),
		TipoCambio:      decimal.NewFromInt(350),
		UmbralStockBajo: 10,
		Moneda:          MonedaARS,
	}
}

func (c *Configuracion) Validar() []string {
	var v []string
	if c.IVATasa.IsNegative() || c.IVATasa.GreaterThan(decimal.NewFromInt(100)) {
		v = append(v, "la tasa de IVA debe estar entre 0 y 100")
	}
	if !c.TipoCambio.IsPositive() {
		v = append(v, "el tipo de cambio debe ser mayor a 0")
	}
	if c.UmbralStockBajo < 0 {
		v = append(v, "el umbral de stock bajo no puede ser negativo")
	}
	return v
}
