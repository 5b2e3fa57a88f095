package model

import (
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var cuitRegex = regexp.MustCompile(`^\d{2}-?\d{8}-?\d$`)

// Cliente is a customer. Sales keep a weak reference to it plus a name snapshot.
type Cliente struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Nombre    string    `gorm:"type:varchar(100);not null;index"`
	Direccion string
	Telefono  string
	Email     *string `gorm:"uniqueIndex"`
	CUIT      *string `gorm:"uniqueIndex"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (c *Cliente) Validar() []string {
	var v []string
	if strings.TrimSpace(c.Nombre) == "" {
		v = append(v, "el nombre del cliente es requerido")
	} else if len(c.Nombre) > 100 {
		v = append(v, "el nombre del cliente no puede superar 100 caracteres")
	}
	if c.Email != nil && *c.Email != "" {
		if _, err := mail.ParseAddress(*c.Email); err != nil {
			v = append(v, "email inválido")
		}
	}
	if c.CUIT != nil && *c.CUIT != "" && !cuitRegex.MatchString(*c.CUIT) {
		v = append(v, "CUIT inválido")
	}
	return v
}
