package handler

import (
	"net/http"

	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/service"

	"github.com/gin-gonic/gin"
)

type InventarioHandler struct {
	svc           service.InventarioService
	configuracion service.ConfiguracionService
}

func NewInventarioHandler(svc service.InventarioService, configuracion service.ConfiguracionService) *InventarioHandler {
	return &InventarioHandler{svc: svc, configuracion: configuracion}
}

// AjustarStock godoc
// @Summary      Ajuste manual de stock
// @Description  Delta con signo; el stock resultante nunca puede ser negativo.
// @Tags         inventario
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.AjusteStockRequest true "Ajuste"
// @Success      201  {object} dto.MovimientoStockResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/inventario/ajustes [post]
func (h *InventarioHandler) AjustarStock(c *gin.Context) {
	var req dto.AjusteStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AjustarStock(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *InventarioHandler) ObtenerAlertas(c *gin.Context) {
	cfg, err := h.configuracion.Snapshot(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	resp, err := h.svc.ObtenerAlertas(c.Request.Context(), cfg)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *InventarioHandler) ListarMovimientos(c *gin.Context) {
	var filter dto.MovimientoStockFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
