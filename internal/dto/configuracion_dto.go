package dto

import "github.com/shopspring/decimal"

type ActualizarConfiguracionRequest struct {
	IVAHabilitado      *bool            `json:"iva_habilitado"`
	IVATasa            *decimal.Decimal `json:"iva_tasa"`
	TipoCambio         *decimal.Decimal `json:"tipo_cambio"`
	// CuentaPorDefectoID: "" clears the default account.
	CuentaPorDefectoID *string          `json:"cuenta_por_defecto_id"`
	UmbralStockBajo    *int             `json:"umbral_stock_bajo"     validate:"omitempty,min=0"`
	NombreEmpresa      *string          `json:"nombre_empresa"`
	CUITEmpresa        *string          `json:"cuit_empresa"`
	DireccionEmpresa   *string          `json:"direccion_empresa"`
}

type ConfiguracionResponse struct {
	IVAHabilitado      bool            `json:"iva_habilitado"`
	IVATasa            decimal.Decimal `json:"iva_tasa"`
	TipoCambio         decimal.Decimal `json:"tipo_cambio"`
	CuentaPorDefectoID *string         `json:"cuenta_por_defecto_id"`
	UmbralStockBajo    int             `json:"umbral_stock_bajo"`
	Moneda             string          `json:"moneda"`
	NombreEmpresa      string          `json:"nombre_empresa"`
	CUITEmpresa        string          `json:"cuit_empresa"`
	DireccionEmpresa   string          `json:"direccion_empresa"`
}

// ─── Conciliaciones ─────────────────────────────────────────────────────────

type ResolverConciliacionRequest struct {
	Nota string `json:"nota" validate:"required,min=3"`
}

type PasoResponse struct {
	Agregado    string          `json:"agregado"`
	AgregadoID  string          `json:"agregado_id"`
	Monto       decimal.Decimal `json:"monto"`
	Cantidad    int             `json:"cantidad"`
	Descripcion string          `json:"descripcion"`
	Error       string          `json:"error,omitempty"`
}

type ConciliacionResponse struct {
	ID         string         `json:"id"`
	Operacion  string         `json:"operacion"`
	EntidadID  *string        `json:"entidad_id"`
	Causa      string         `json:"causa"`
	Aplicadas  []PasoResponse `json:"aplicadas"`
	Pendientes []PasoResponse `json:"pendientes"`
	Estado     string         `json:"estado"`
	Nota       string         `json:"nota"`
	Fecha      string         `json:"fecha"`
	ResueltaEn *string        `json:"resuelta_en"`
}
