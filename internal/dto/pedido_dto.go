package dto

import (
	"stockcocina/internal/model"

	"github.com/shopspring/decimal"
)

type ItemPedidoRequest struct {
	ProductoID string          `json:"producto_id" validate:"required,uuid"`
	Cantidad   decimal.Decimal `json:"cantidad"    validate:"required,gt=0"`
}

type ProcesarPedidoRequest struct {
	Items []ItemPedidoRequest `json:"items" validate:"required,min=1,dive"`
}

// ConfirmarRecepcionRequest. Recibidos are the checked lines; Candidatos the
// lines on screen (empty means every open line of the order). With nothing
// checked, ConfirmarTodoManana must be true.
type ConfirmarRecepcionRequest struct {
	Recibidos           []string `json:"recibidos"             validate:"omitempty,dive,uuid"`
	Candidatos          []string `json:"candidatos"            validate:"omitempty,dive,uuid"`
	ConfirmarTodoManana bool     `json:"confirmar_todo_manana"`
}

type DetallePedidoResponse struct {
	ID                 string         `json:"id"`
	ProductoNombre     string         `json:"producto_nombre"`
	CantidadSolicitada model.Cantidad `json:"cantidad_solicitada"`
	Recibido           bool           `json:"recibido"`
	Estado             string         `json:"estado"`
}

type PedidoResponse struct {
	ID        string                  `json:"id"`
	CreatedAt string                  `json:"created_at"`
	Detalles  []DetallePedidoResponse `json:"detalles"`
}

type ProcesarPedidoResponse struct {
	Pedido       PedidoResponse `json:"pedido"`
	Resumen      string         `json:"resumen"`
	Actualizados int            `json:"actualizados"`
	Creados      int            `json:"creados"`
	Fusionado    bool           `json:"fusionado"`
	Mensaje      string         `json:"mensaje"`
}

type RecepcionResponse struct {
	Entregados     int     `json:"entregados"`
	NoEntregados   int     `json:"no_entregados"`
	PedidoMananaID *string `json:"pedido_manana_id"`
}

type ResumenResponse struct {
	Resumen string `json:"resumen"`
}

type PendientesResponse struct {
	Pendientes map[string]decimal.Decimal `json:"pendientes"`
}
