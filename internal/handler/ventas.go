package handler

import (
	"net/http"

	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/middleware"
	"github.com/fullfullelectronic/pos-system-macos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type VentasHandler struct {
	svc           service.VentaService
	configuracion service.ConfiguracionService
}

func NewVentasHandler(svc service.VentaService, configuracion service.ConfiguracionService) *VentasHandler {
	return &VentasHandler{svc: svc, configuracion: configuracion}
}

// RegistrarVenta godoc
// @Summary      Registrar una nueva venta
// @Description  Descuenta stock e imputa cada pago a su cuenta. Si un paso falla se compensan los anteriores.
// @Description  Reenviar el mismo id devuelve la venta ya registrada.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.RegistrarVentaRequest true "Detalle de la venta"
// @Success      201  {object} dto.VentaResponse
// @Failure      400  {object} apierror.ValidationError
// @Failure      422  {object} apierror.APIError
// @Failure      500  {object} apierror.ConsistencyError
// @Router       /v1/ventas [post]
func (h *VentasHandler) RegistrarVenta(c *gin.Context) {
	var req dto.RegistrarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cfg, err := h.configuracion.Snapshot(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	resp, err := h.svc.RegistrarVenta(c.Request.Context(), cfg, req)
	if err != nil {
		responderError(c, err)
		return
	}
	if claims := middleware.GetClaims(c); claims != nil {
		log.Info().Str("venta_id", resp.ID).Str("operador", claims.Operador).Msg("venta registrada por operador")
	}
	c.JSON(http.StatusCreated, resp)
}

// AnularVenta godoc
// @Summary      Anular venta
// @Description  Restaura stock y revierte los ingresos imputados. La venta queda en estado cancelled.
// @Tags         ventas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path     string                 true "UUID de la venta"
// @Param        body body     dto.AnularVentaRequest true "Motivo de anulación"
// @Success      200  {object} dto.VentaResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/ventas/{id}/anular [post]
func (h *VentasHandler) AnularVenta(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.AnularVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AnularVenta(c.Request.Context(), id, req.Motivo)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarVenta edits notes, or cancels when estado=cancelled.
func (h *VentasHandler) ActualizarVenta(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.ActualizarVentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarVenta(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *VentasHandler) ObtenerVenta(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerVenta(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarVentas godoc
// @Summary      Listar ventas
// @Description  Retorna lista paginada de ventas filtrada por fecha, estado y cliente.
// @Tags         ventas
// @Produce      json
// @Param        desde      query string false "YYYY-MM-DD"
// @Param        hasta      query string false "YYYY-MM-DD"
// @Param        estado     query string false "completed | cancelled | pending | all"
// @Param        cliente_id query string false "UUID del cliente"
// @Param        page       query int    false "Página (default 1)"
// @Param        limit      query int    false "Registros por página (default 50)"
// @Success      200        {object} dto.VentaListResponse
// @Failure      400        {object} apierror.APIError
// @Router       /v1/ventas [get]
func (h *VentasHandler) ListarVentas(c *gin.Context) {
	var filter dto.VentaFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListarVentas(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
