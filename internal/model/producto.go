package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Producto is a sellable item with an integer on-hand stock.
// Stock is written exclusively by service.InventarioService and never drops below zero.
type Producto struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre       string    `gorm:"type:varchar(100);index;not null"`
	Descripcion  string
	CodigoBarras *string         `gorm:"uniqueIndex"`
	Categoria    string          `gorm:"type:varchar(50)"`
	Precio       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Stock        int             `gorm:"not null;default:0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// StockBajo reports whether the product is at or below the alert threshold.
func (p *Producto) StockBajo(umbral int) bool {
	return p.Stock <= umbral
}

func (p *Producto) Validar() []string {
	var v []string
	if strings.TrimSpace(p.Nombre) == "" {
		v = append(v, "el nombre del producto es requerido")
	} else if len(p.Nombre) > 100 {
		v = append(v, "el nombre del producto no puede superar 100 caracteres")
	}
	if p.Precio.IsNegative() {
		v = append(v, "el precio no puede ser negativo")
	}
	if p.Stock < 0 {
		v = append(v, "el stock no puede ser negativo")
	}
	return v
}
