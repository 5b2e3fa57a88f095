package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type AdjuntoRequest struct {
	Nombre string `json:"nombre" validate:"required"`
	Ruta   string `json:"ruta"   validate:"required"`
	Tamano int64  `json:"tamano" validate:"min=0"`
	Tipo   string `json:"tipo"`
}

type CrearGastoRequest struct {
	Descripcion        string           `json:"descripcion"         validate:"required,max=200"`
	Monto              decimal.Decimal  `json:"monto"               validate:"required,gt=0"`
	Categoria          string           `json:"categoria"           validate:"max=50"`
	Fecha              *time.Time       `json:"fecha"`
	MetodoPago         string           `json:"metodo_pago"         validate:"omitempty,oneof=cash credit debit transfer"`
	Referencia         string           `json:"referencia"          validate:"max=100"`
	CuentaID           *string          `json:"cuenta_id"           validate:"omitempty,uuid"`
	EsRecurrente       bool             `json:"es_recurrente"`
	PeriodoRecurrencia string           `json:"periodo_recurrencia" validate:"omitempty,oneof=weekly monthly yearly"`
	Etiquetas          []string         `json:"etiquetas"`
	Adjuntos           []AdjuntoRequest `json:"adjuntos"            validate:"dive"`
}

type ActualizarGastoRequest struct {
	Descripcion        *string          `json:"descripcion"         validate:"omitempty,max=200"`
	Monto              *decimal.Decimal `json:"monto"`
	Categoria          *string          `json:"categoria"           validate:"omitempty,max=50"`
	Fecha              *time.Time       `json:"fecha"`
	MetodoPago         *string          `json:"metodo_pago"         validate:"omitempty,oneof=cash credit debit transfer"`
	Referencia         *string          `json:"referencia"          validate:"omitempty,max=100"`
	CuentaID           *string          `json:"cuenta_id"           validate:"omitempty,uuid"`
	EsRecurrente       *bool            `json:"es_recurrente"`
	PeriodoRecurrencia *string          `json:"periodo_recurrencia" validate:"omitempty,oneof=weekly monthly yearly"`
	Etiquetas          []string         `json:"etiquetas"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type GastoFilter struct {
	Categoria string `form:"categoria"`
	CuentaID  string `form:"cuenta_id" validate:"omitempty,uuid"`
	Desde     string `form:"desde"`
	Hasta     string `form:"hasta"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type GastoResponse struct {
	ID                 string           `json:"id"`
	Descripcion        string           `json:"descripcion"`
	Monto              decimal.Decimal  `json:"monto"`
	Categoria          string           `json:"categoria"`
	Fecha              string           `json:"fecha"`
	MetodoPago         string           `json:"metodo_pago"`
	Referencia         string           `json:"referencia"`
	CuentaID           *string          `json:"cuenta_id"`
	CuentaImputadaID   *string          `json:"cuenta_imputada_id"`
	EsRecurrente       bool             `json:"es_recurrente"`
	PeriodoRecurrencia string           `json:"periodo_recurrencia"`
	Etiquetas          []string         `json:"etiquetas"`
	Adjuntos           []AdjuntoRequest `json:"adjuntos"`
}

type GastoListResponse struct {
	Data  []GastoResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
