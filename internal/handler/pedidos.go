package handler

import (
	"fmt"
	"net/http"
	"time"

	"stockcocina/internal/dto"
	"stockcocina/internal/infra"
	"stockcocina/internal/model"
	"stockcocina/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PedidosHandler struct {
	svc          service.PedidoService
	nombreCocina string
	loc          *time.Location
}

func NewPedidosHandler(svc service.PedidoService, nombreCocina string, loc *time.Location) *PedidosHandler {
	if loc == nil {
		loc = time.Local
	}
	return &PedidosHandler{svc: svc, nombreCocina: nombreCocina, loc: loc}
}

func (h *PedidosHandler) Procesar(c *gin.Context) {
	var req dto.ProcesarPedidoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	items := make([]service.ItemPedido, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, service.ItemPedido{ProductoID: uuid.MustParse(it.ProductoID), Cantidad: it.Cantidad})
	}
	res, err := h.svc.ProcesarPedido(c.Request.Context(), items)
	if err != nil {
		responderError(c, err)
		return
	}

	mensaje := fmt.Sprintf("Pedido creado con %d productos", res.Creados)
	if res.Fusionado {
		mensaje = fmt.Sprintf("Pedido de hoy actualizado: %d sumados, %d nuevos", res.Actualizados, res.Creados)
	}
	status := http.StatusCreated
	if res.Fusionado {
		status = http.StatusOK
	}
	c.JSON(status, dto.ProcesarPedidoResponse{
		Pedido:       h.pedidoResponse(res.Pedido),
		Resumen:      res.Resumen,
		Actualizados: res.Actualizados,
		Creados:      res.Creados,
		Fusionado:    res.Fusionado,
		Mensaje:      mensaje,
	})
}

func (h *PedidosHandler) Historial(c *gin.Context) {
	pedidos, err := h.svc.Historial(c.Request.Context())
	if err != nil {
		responderError(c, err)
		return
	}
	out := make([]dto.PedidoResponse, 0, len(pedidos))
	for i := range pedidos {
		out = append(out, h.pedidoResponse(&pedidos[i]))
	}
	c.JSON(http.StatusOK, out)
}

func (h *PedidosHandler) Obtener(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.pedidoResponse(p))
}

func (h *PedidosHandler) Resumen(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	texto, err := h.svc.Resumen(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ResumenResponse{Resumen: texto})
}

// DescargarPDF streams the supplier order sheet.
func (h *PedidosHandler) DescargarPDF(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.svc.Obtener(c.Request.Context(), id)
	if err != nil {
		responderError(c, err)
		return
	}
	nombre := fmt.Sprintf("pedido_%s.pdf", p.CreatedAt.In(h.loc).Format("2006-01-02"))
	c.Header("Content-Type", "application/pdf")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, nombre))
	if err := infra.EscribirPedidoPDF(c.Writer, p, h.nombreCocina, h.loc); err != nil {
		_ = c.Error(err)
	}
}

func (h *PedidosHandler) ConfirmarRecepcion(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req dto.ConfirmarRecepcionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.ConfirmarRecepcion(c.Request.Context(), id,
		parseUUIDs(req.Recibidos), parseUUIDs(req.Candidatos), req.ConfirmarTodoManana)
	if err != nil {
		responderError(c, err)
		return
	}
	resp := dto.RecepcionResponse{Entregados: res.Entregados, NoEntregados: res.NoEntregados}
	if res.PedidoManana != nil {
		s := res.PedidoManana.String()
		resp.PedidoMananaID = &s
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PedidosHandler) Borrar(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.BorrarPedido(c.Request.Context(), id); err != nil {
		responderError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *PedidosHandler) pedidoResponse(p *model.Pedido) dto.PedidoResponse {
	resp := dto.PedidoResponse{
		ID:        p.ID.String(),
		CreatedAt: p.CreatedAt.In(h.loc).Format(time.RFC3339),
		Detalles:  make([]dto.DetallePedidoResponse, 0, len(p.Detalles)),
	}
	for _, d := range p.Detalles {
		resp.Detalles = append(resp.Detalles, dto.DetallePedidoResponse{
			ID:                 d.ID.String(),
			ProductoNombre:     d.ProductoNombre,
			CantidadSolicitada: d.CantidadSolicitada,
			Recibido:           d.Recibido,
			Estado:             d.Estado,
		})
	}
	return resp
}
