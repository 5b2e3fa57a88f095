package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// AjusteStockRequest is a manual stock correction; Delta is signed.
type AjusteStockRequest struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Delta      int    `json:"delta"       validate:"required"`
	Motivo     string `json:"motivo"      validate:"required,min=3,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type AlertaStockResponse struct {
	ProductoID string          `json:"producto_id"`
	Nombre     string          `json:"nombre"`
	Stock      int             `json:"stock"`
	Umbral     int             `json:"umbral"`
	Precio     decimal.Decimal `json:"precio"`
}

// ─── Movimiento Stock ─────────────────────────────────────────────────────────

type MovimientoStockFilter struct {
	ProductoID string `form:"producto_id" validate:"omitempty,uuid"`
	Page       int    `form:"page,default=1"   validate:"min=1"`
	Limit      int    `form:"limit,default=50" validate:"min=1,max=500"`
}

type MovimientoStockResponse struct {
	ID            string  `json:"id"`
	ProductoID    string  `json:"producto_id"`
	Cantidad      int     `json:"cantidad"`
	StockAnterior int     `json:"stock_anterior"`
	StockNuevo    int     `json:"stock_nuevo"`
	Motivo        string  `json:"motivo"`
	ReferenciaID  *string `json:"referencia_id"`
	CreatedAt     string  `json:"created_at"`
}

type MovimientoStockListResponse struct {
	Data  []MovimientoStockResponse `json:"data"`
	Total int64                     `json:"total"`
	Page  int                       `json:"page"`
	Limit int                       `json:"limit"`
}
