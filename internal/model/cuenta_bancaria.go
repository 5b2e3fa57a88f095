package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de cuenta. Only credit accounts may carry a negative balance.
const (
	CuentaCorriente = "checking"
	CuentaAhorro    = "savings"
	CuentaCredito   = "credit"
)

// Monedas soportadas. ARS is the settlement currency.
const (
	MonedaARS = "ARS"
	MonedaUSD = "USD"
)

// CuentaBancaria is a money container with a signed running balance.
// Saldo is written exclusively by the ledger (service.CuentaService); every
// change is mirrored by exactly one MovimientoFinanciero.
type CuentaBancaria struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	NombreBanco  string          `gorm:"type:varchar(100);not null"`
	NumeroCuenta string          `gorm:"type:varchar(50);not null;index"`
	Tipo         string          `gorm:"type:varchar(20);not null"`
	Moneda       string          `gorm:"type:varchar(3);not null;default:'ARS'"`
	Saldo        decimal.Decimal `gorm:"type:decimal(14,2);not null;default:0"`
	Activa       bool            `gorm:"not null;default:true"`
	Descripcion  string          `gorm:"type:varchar(200)"`
	Contacto     Contacto        `gorm:"embedded;embeddedPrefix:contacto_"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Contacto holds the bank branch contact info.
type Contacto struct {
	Telefono  string
	Email     string
	Direccion string
}

func (CuentaBancaria) TableName() string { return "cuentas_bancarias" }

// NombreVisible renders "Banco - ****1234" using the last four digits of the account number.
func (c *CuentaBancaria) NombreVisible() string {
	numero := c.NumeroCuenta
	if len(numero) > 4 {
		numero = strings.Repeat("*", len(numero)-4) + numero[len(numero)-4:]
	}
	return fmt.Sprintf("%s - %s", c.NombreBanco, numero)
}

// PuedeRetirar reports whether monto can be debited without breaking the
// non-negative balance rule of non-credit accounts.
func (c *CuentaBancaria) PuedeRetirar(monto decimal.Decimal) bool {
	if c.Tipo == CuentaCredito {
		return true
	}
	return c.Saldo.GreaterThanOrEqual(monto)
}

// Sobregirada is true for a non-credit account holding a negative balance,
// which can only happen through data imported from outside the ledger.
func (c *CuentaBancaria) Sobregirada() bool {
	return c.Tipo != CuentaCredito && c.Saldo.IsNegative()
}

// Validar returns the list of structural violations; nil means valid.
func (c *CuentaBancaria) Validar() []string {
	var v []string
	if strings.TrimSpace(c.NombreBanco) == "" {
		v = append(v, "el nombre del banco es requerido")
	} else if len(c.NombreBanco) > 100 {
		v = append(v, "el nombre del banco no puede superar 100 caracteres")
	}
	if strings.TrimSpace(c.NumeroCuenta) == "" {
		v = append(v, "el número de cuenta es requerido")
	} else if len(c.NumeroCuenta) > 50 {
		v = append(v, "el número de cuenta no puede superar 50 caracteres")
	}
	switch c.Tipo {
	case CuentaCorriente, CuentaAhorro, CuentaCredito:
	default:
		v = append(v, fmt.Sprintf("tipo de cuenta inválido: %q", c.Tipo))
	}
	switch c.Moneda {
	case MonedaARS, MonedaUSD:
	default:
		v = append(v, fmt.Sprintf("moneda inválida: %q", c.Moneda))
	}
	if len(c.Descripcion) > 200 {
		v = append(v, "la descripción no puede superar 200 caracteres")
	}
	return v
}
