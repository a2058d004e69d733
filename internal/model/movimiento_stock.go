package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Tipos de movimiento de stock.
const (
	MovimientoAjusteManual    = "ajuste_manual"
	MovimientoProduccion      = "produccion"
	MovimientoConsumo         = "consumo"
	MovimientoRecepcion       = "recepcion"
	MovimientoAnulacionPedido = "anulacion_pedido"
)

// MovimientoStock registra cada cambio persistido de stock en un producto.
// Es solo informativo: ninguna regla de negocio lo consulta.
type MovimientoStock struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductoID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Tipo          string          `gorm:"not null"`
	Cantidad      decimal.Decimal `gorm:"type:decimal(14,4);not null"` // positive = entrada, negative = salida
	StockAnterior decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	StockNuevo    decimal.Decimal `gorm:"type:decimal(14,4);not null"`
	Motivo        string
	ReferenciaID  *uuid.UUID `gorm:"type:uuid"` // pedido_id or producto_id of the production
	CreatedAt     time.Time
}

// TableName overrides GORM's default pluralization (movimiento_stocks → movimientos_stock).
func (MovimientoStock) TableName() string { return "movimientos_stock" }
