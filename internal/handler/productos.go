package handler

import (
	"net/http"

	"stockcocina/internal/dto"
	"stockcocina/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductosHandler struct{ svc service.ProductoService }

func NewProductosHandler(svc service.ProductoService) *ProductosHandler {
	return &ProductosHandler{svc: svc}
}

func (h *ProductosHandler) Crear(c *gin.Context) {
	var req dto.CrearProductoRequest
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

func (h *ProductosHandler) Listar(c *gin.Context) {
	var filter dto.ProductoFilter
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

func (h *ProductosHandler) ObtenerPorID(c *gin.Context) {
	id, ok := paramUUID(c, "id")
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

func (h *ProductosHandler) Actualizar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarProductoRequest
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

func (h *ProductosHandler) Eliminar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FijarStock sets an absolute quantity. The write is deferred; the response
// already carries the new value.
func (h *ProductosHandler) FijarStock(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ActualizarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ActualizarStock(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

// SumarStock applies a +/- step.
func (h *ProductosHandler) SumarStock(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.SumarStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SumarStock(c.Request.Context(), id, req)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, resp)
}

func (h *ProductosHandler) Alertas(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Alertas(c.Request.Context()))
}

func (h *ProductosHandler) CandidatosPedido(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.CandidatosPedido(c.Request.Context()))
}

func (h *ProductosHandler) Pendientes(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Pendientes(c.Request.Context()))
}

func (h *ProductosHandler) Movimientos(c *gin.Context) {
	var filter dto.MovimientoStockFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Movimientos(c.Request.Context(), filter)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
