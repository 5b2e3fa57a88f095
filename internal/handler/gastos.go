package handler

import (
	"net/http"

	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/service"

	"github.com/gin-gonic/gin"
)

type GastosHandler struct {
	svc           service.GastoService
	configuracion service.ConfiguracionService
}

func NewGastosHandler(svc service.GastoService, configuracion service.ConfiguracionService) *GastosHandler {
	return &GastosHandler{svc: svc, configuracion: configuracion}
}

// Crear godoc
// @Summary      Registrar gasto
// @Description  Se imputa como egreso a la cuenta indicada o, si no hay, a la cuenta por defecto.
// @Tags         gastos
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearGastoRequest true "Gasto"
// @Success      201  {object} dto.GastoResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/gastos [post]
func (h *GastosHandler) Crear(c *gin.Context) {
	var req dto.CrearGastoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	cfg, err := h.configuracion.Snapshot(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), cfg, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *GastosHandler) Listar(c *gin.Context) {
	var filter dto.GastoFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Listar(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GastosHandler) Obtener(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar re-imputes the difference when the amount or the account change.
func (h *GastosHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req dto.ActualizarGastoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *GastosHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GastosHandler) Categorias(c *gin.Context) {
	resp, err := h.svc.Categorias(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
