package handler

import (
	"encoding/json"
	"net/http"

	"github.com/fullfullelectronic/pos-system-macos/internal/apierror"
	"github.com/fullfullelectronic/pos-system-macos/internal/dto"
	"github.com/fullfullelectronic/pos-system-macos/internal/model"
	"github.com/fullfullelectronic/pos-system-macos/internal/service"

	"github.com/gin-gonic/gin"
)

type CuentasHandler struct {
	svc            service.CuentaService
	transferencias service.TransferenciaService
	configuracion  service.ConfiguracionService
}

func NewCuentasHandler(svc service.CuentaService, transferencias service.TransferenciaService, configuracion service.ConfiguracionService) *CuentasHandler {
	return &CuentasHandler{svc: svc, transferencias: transferencias, configuracion: configuracion}
}

// Crear godoc
// @Summary      Crear cuenta bancaria
// @Description  El saldo inicial, si no es cero, se registra como primer movimiento.
// @Tags         cuentas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CrearCuentaRequest true "Datos de la cuenta"
// @Success      201  {object} dto.CuentaResponse
// @Failure      409  {object} apierror.APIError
// @Router       /v1/cuentas [post]
func (h *CuentasHandler) Crear(c *gin.Context) {
	var req dto.CrearCuentaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Crear(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Listar godoc
// @Summary      Listar cuentas
// @Tags         cuentas
// @Produce      json
// @Param        activas query bool false "Solo cuentas activas"
// @Success      200 {array} dto.CuentaResponse
// @Router       /v1/cuentas [get]
func (h *CuentasHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context(), c.Query("activas") == "true")
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *CuentasHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.ObtenerPorID(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Actualizar godoc
// @Summary      Actualizar cuenta
// @Description  El saldo no se puede editar: sólo cambia a través de movimientos.
// @Tags         cuentas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id   path string                      true "UUID de la cuenta"
// @Param        body body dto.ActualizarCuentaRequest true "Campos a modificar"
// @Success      200  {object} dto.CuentaResponse
// @Failure      400  {object} apierror.APIError
// @Router       /v1/cuentas/{id} [put]
func (h *CuentasHandler) Actualizar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return
	}
	var campos map[string]json.RawMessage
	if err := json.Unmarshal(raw, &campos); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return
	}
	if _, ok := campos["saldo"]; ok {
		c.JSON(http.StatusBadRequest, apierror.New("El saldo no se puede editar; registre un movimiento"))
		return
	}
	var req dto.ActualizarCuentaRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return
	}
	if !validar(c, &req) {
		return
	}

	resp, err := h.svc.Actualizar(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Eliminar godoc
// @Summary      Eliminar cuenta
// @Description  Sólo cuentas sin movimientos, sin gastos y que no sean la cuenta por defecto.
// @Tags         cuentas
// @Security     BearerAuth
// @Param        id path string true "UUID de la cuenta"
// @Success      204
// @Failure      409 {object} apierror.APIError
// @Router       /v1/cuentas/{id} [delete]
func (h *CuentasHandler) Eliminar(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	cfg, err := h.configuracion.Snapshot(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), cfg, id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CuentasHandler) Resumen(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Resumen(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ResumenGeneral returns balances per account and the consolidated total.
func (h *CuentasHandler) ResumenGeneral(c *gin.Context) {
	cfg, err := h.configuracion.Snapshot(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	resp, err := h.svc.ResumenGeneral(c.Request.Context(), cfg)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListarMovimientos godoc
// @Summary      Listar movimientos financieros
// @Tags         cuentas
// @Produce      json
// @Param        cuenta_id    query string false "UUID de la cuenta"
// @Param        tipo         query string false "income | expense | transfer (both legs of transfers)"
// @Param        entidad_tipo query string false "sale | expense | transfer | account"
// @Param        desde        query string false "YYYY-MM-DD"
// @Param        hasta        query string false "YYYY-MM-DD"
// @Success      200 {object} dto.MovimientoListResponse
// @Router       /v1/movimientos [get]
func (h *CuentasHandler) ListarMovimientos(c *gin.Context) {
	var filter dto.MovimientoFilter
	if !bindQuery(c, &filter) {
		return
	}
	if filter.Tipo == model.MovimientoTransferencia {
		filter.Tipo = ""
		filter.EntidadTipo = model.EntidadTransferencia
	}
	resp, err := h.svc.ListarMovimientos(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Transferir godoc
// @Summary      Transferir entre cuentas
// @Description  Debita el origen y acredita el destino; si el crédito falla el débito se revierte.
// @Tags         cuentas
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.TransferenciaRequest true "Transferencia"
// @Success      201  {object} dto.TransferenciaResponse
// @Failure      422  {object} apierror.APIError
// @Router       /v1/transferencias [post]
func (h *CuentasHandler) Transferir(c *gin.Context) {
	var req dto.TransferenciaRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.transferencias.Transferir(c.Request.Context(), req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
