package handler

import (
	"net/http"

	"github.com/fullfullelectronic/pos-system-macos/internal/apierror"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/service"

	"github.com/gin-gonic/gin"
)

type ConfiguracionHandler struct {
	svc            service.ConfiguracionService
	conciliaciones service.ConciliacionService
}

func NewConfiguracionHandler(svc service.ConfiguracionService, conciliaciones service.ConciliacionService) *ConfiguracionHandler {
	return &ConfiguracionHandler{svc: svc, conciliaciones: conciliaciones}
}

func (h *ConfiguracionHandler) Obtener(c *gin.Context) {
	resp, err := h.svc.Obtener(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar configuración
// @Description  Los cambios aplican a las operaciones que empiecen después; las que están en curso usan la configuración anterior.
// @Tags         configuracion
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.ActualizarConfiguracionRequest true "Campos a modificar"
// @Success      200  {object} dto.ConfiguracionResponse
// @Router       /v1/configuracion [put]
func (h *ConfiguracionHandler) Actualizar(c *gin.Context) {
	var req dto.ActualizarConfiguracionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Conciliaciones ───────────────────────────────────────────────────────────

// ListarConciliaciones godoc
// @Summary      Listar conciliaciones
// @Tags         conciliaciones
// @Produce      json
// @Security     BearerAuth
// @Param        estado query string false "pendiente | resuelta"
// @Success      200 {array} dto.ConciliacionResponse
// @Router       /v1/conciliaciones [get]
func (h *ConfiguracionHandler) ListarConciliaciones(c *gin.Context) {
	estado := c.DefaultQuery("estado", model.ConciliacionPendiente)
	if estado == "all" {
		estado = ""
	}
	resp, err := h.conciliaciones.Listar(c.Request.Context(), estado)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ConfiguracionHandler) ObtenerConciliacion(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.conciliaciones.Obtener(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResolverConciliacion godoc
// @Summary      Resolver conciliación
// @Description  Marca la conciliación como resuelta tras la corrección manual. No modifica saldos ni stock.
// @Tags         conciliaciones
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                           true "UUID de la conciliación"
// @Param        body body dto.ResolverConciliacionRequest true "Nota de resolución"
// @Success      200  {object} dto.ConciliacionResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/conciliaciones/{id}/resolver [post]
func (h *ConfiguracionHandler) ResolverConciliacion(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.ResolverConciliacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if len(req.Nota) > 1000 {
		c.JSON(http.StatusBadRequest, apierror.New("La nota no puede superar 1000 caracteres"))
		return
	}
	resp, err := h.conciliaciones.Resolver(c.Request.Context(), id, req.Nota)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
