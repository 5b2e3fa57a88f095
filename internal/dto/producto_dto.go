package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Nombre       string          `json:"nombre"        validate:"required,max=100"`
	Descripcion  string          `json:"descripcion"`
	CodigoBarras *string         `json:"codigo_barras" validate:"omitempty,min=4,max=32"`
	Categoria    string          `json:"categoria"     validate:"max=50"`
	Precio       decimal.Decimal `json:"precio"        validate:"min=0"`
	StockInicial int             `json:"stock_inicial" validate:"min=0"`
}

// ActualizarProductoRequest cannot touch stock; use POST /v1/inventario/ajuste.
type ActualizarProductoRequest struct {
	Nombre       *string          `json:"nombre"        validate:"omitempty,max=100"`
	Descripcion  *string          `json:"descripcion"`
	CodigoBarras *string          `json:"codigo_barras" validate:"omitempty,min=4,max=32"`
	Categoria    *string          `json:"categoria"     validate:"omitempty,max=50"`
	Precio       *decimal.Decimal `json:"precio"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductoFilter struct {
	Barcode   string `form:"barcode"`
	Nombre    string `form:"nombre"`
	Categoria string `form:"categoria"`
	Page      int    `form:"page,default=1"   validate:"min=1"`
	Limit     int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID           string          `json:"id"`
	Nombre       string          `json:"nombre"`
	Descripcion  string          `json:"descripcion"`
	CodigoBarras *string         `json:"codigo_barras"`
	Categoria    string          `json:"categoria"`
	Precio       decimal.Decimal `json:"precio"`
	Stock        int             `json:"stock"`
}

type ProductoListResponse struct {
	Data       []ProductoResponse `json:"data"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}
