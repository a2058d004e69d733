package handler

import (
	"net/http"

	"stockcocina/internal/dto"
	"stockcocina/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RecetasHandler serves recipe rows and production for a product.
type RecetasHandler struct {
	svc       service.RecetaService
	productos service.ProductoService
}

func NewRecetasHandler(svc service.RecetaService, productos service.ProductoService) *RecetasHandler {
	return &RecetasHandler{svc: svc, productos: productos}
}

func (h *RecetasHandler) Obtener(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	ings, err := h.svc.ListarIngredientes(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, recetaResponse(id, ings))
}

func (h *RecetasHandler) CandidatosInsumo(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	candidatos := h.svc.CandidatosInsumo(id)
	out := make([]dto.ProductoResponse, 0, len(candidatos))
	for _, p := range candidatos {
		resp, err := h.productos.ObtenerPorID(c.Request.Context(), p.ID)
		if err != nil {
			continue
		}
		out = append(out, *resp)
	}
	c.JSON(http.StatusOK, out)
}

func (h *RecetasHandler) AgregarIngrediente(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.AgregarIngredienteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ings, err := h.svc.AgregarIngrediente(c.Request.Context(), id, uuid.MustParse(req.InsumoID), req.CantidadNecesaria)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recetaResponse(id, ings))
}

func (h *RecetasHandler) EliminarIngrediente(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	recetaID, ok := paramUUID(c, "receta_id")
	if !ok {
		return
	}
	ings, err := h.svc.EliminarIngrediente(c.Request.Context(), recetaID, id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, recetaResponse(id, ings))
}

func (h *RecetasHandler) Producir(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.RegistrarProduccionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	var vaciar *uuid.UUID
	if req.VaciarID != nil && *req.VaciarID != "" {
		v := uuid.MustParse(*req.VaciarID)
		vaciar = &v
	}
	res, err := h.svc.RegistrarProduccion(c.Request.Context(), id, req.Cantidad, vaciar)
	if err != nil {
		responderError(c, err)
		return
	}

	resp := dto.ProduccionResponse{Consumos: make([]dto.ConsumoResponse, 0, len(res.Consumos))}
	if p, err := h.productos.ObtenerPorID(c.Request.Context(), res.Producto.ID); err == nil {
		resp.Producto = *p
	}
	for _, cons := range res.Consumos {
		resp.Consumos = append(resp.Consumos, dto.ConsumoResponse{
			ProductoID: cons.ProductoID.String(),
			Nombre:     cons.Nombre,
			Anterior:   cons.Anterior,
			Nuevo:      cons.Nuevo,
			Vaciado:    cons.Vaciado,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func recetaResponse(productoID uuid.UUID, ings []service.IngredienteResuelto) dto.RecetaResponse {
	resp := dto.RecetaResponse{
		ProductoID:   productoID.String(),
		Ingredientes: make([]dto.IngredienteResponse, 0, len(ings)),
	}
	for _, ing := range ings {
		resp.Ingredientes = append(resp.Ingredientes, ingredienteResponse(ing))
	}
	if m, err := service.CalcularMaximo(ings); err == nil && m.Limitado {
		resp.Maximo = &m.Cantidad
		lim := ingredienteResponse(m.Limitante)
		resp.Limitante = &lim
	}
	return resp
}

func ingredienteResponse(ing service.IngredienteResuelto) dto.IngredienteResponse {
	return dto.IngredienteResponse{
		ID:                ing.RecetaID.String(),
		InsumoID:          ing.InsumoID.String(),
		Nombre:            ing.Nombre,
		Unidad:            ing.Unidad,
		CantidadNecesaria: ing.CantidadNecesaria,
		Stock:             ing.Stock,
		Encontrado:        ing.Encontrado,
	}
}
