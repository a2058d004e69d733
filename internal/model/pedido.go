package model

import (
	"time"

	"github.com/google/uuid"
)

// Estados de un detalle de pedido.
const (
	EstadoPendiente   = "pendiente"
	EstadoEntregado   = "entregado"
	EstadoNoEntregado = "no_entregado"
)

// Pedido is a daily supply order. The order whose CreatedAt falls in the
// current calendar day is the open order new requests merge into.
type Pedido struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"index;not null"`

	Detalles []DetallePedido `gorm:"foreignKey:PedidoID;constraint:OnDelete:CASCADE"`
}

func (Pedido) TableName() string { return "pedidos" }

// DetallePedido is one order line. ProductoNombre is denormalized on purpose:
// lines are matched to products by name, not by id.
type DetallePedido struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey"`
	PedidoID           uuid.UUID `gorm:"type:uuid;index;not null"`
	ProductoNombre     string    `gorm:"not null"`
	CantidadSolicitada Cantidad  `gorm:"type:text;not null"`
	Recibido           bool      `gorm:"not null;default:false;index"`
	Estado             string    `gorm:"not null;default:'pendiente'"`
}

func (DetallePedido) TableName() string { return "detalle_pedidos" }
