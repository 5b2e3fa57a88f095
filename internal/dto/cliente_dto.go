package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearClienteRequest struct {
	Nombre    string  `json:"nombre"    validate:"required,max=100"`
	Direccion string  `json:"direccion" validate:"max=200"`
	Telefono  string  `json:"telefono"  validate:"max=30"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	CUIT      *string `json:"cuit"`
}

type ActualizarClienteRequest struct {
	Nombre    *string `json:"nombre"    validate:"omitempty,max=100"`
	Direccion *string `json:"direccion" validate:"omitempty,max=200"`
	Telefono  *string `json:"telefono"  validate:"omitempty,max=30"`
	Email     *string `json:"email"     validate:"omitempty,email"`
	CUIT      *string `json:"cuit"`
}

type ClienteFilter struct {
	Nombre string `form:"nombre"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ClienteResponse struct {
	ID        string  `json:"id"`
	Nombre    string  `json:"nombre"`
	Direccion string  `json:"direccion"`
	Telefono  string  `json:"telefono"`
	Email     *string `json:"email"`
	CUIT      *string `json:"cuit"`
}

type ClienteListResponse struct {
	Data  []ClienteResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
