package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Receta is one ingredient row of a product's recipe: CantidadNecesaria of
// Insumo is consumed per unit of the parent produced. Rows are not unique per
// (parent, insumo); duplicates are summed independently.
type Receta struct {
	ID                uuid.UUID       `gorm:"type:uuid;primaryKey"`
	ProductoPadreID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	InsumoID          uuid.UUID       `gorm:"type:uuid;index;not null"`
	CantidadNecesaria decimal.Decimal `gorm:"type:decimal(14,4);not null"`

	Insumo *Producto `gorm:"foreignKey:InsumoID"`
}

func (Receta) TableName() string { return "recetas" }
