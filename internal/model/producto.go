package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Categorias de producto.
const (
	CategoriaMateriaPrima = "materia_prima"
	CategoriaVerduras     = "verduras"
	CategoriaObjetos      = "objetos"
	CategoriaProduccion   = "produccion"
	CategoriaReceta       = "receta"
)

// Unidades de medida de un producto.
const (
	UnidadUnidad = "unidad"
	UnidadKg     = "kg"
	UnidadLitro  = "l"
)

// Producto is a stock item. When StockPadreID is set the product is a derived
// child: its Cantidad is computed from the parent on every read and the stored
// column is never authoritative.
type Producto struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Nombre           string           `gorm:"index;not null"`
	Categoria        string           `gorm:"not null;default:'materia_prima'"`
	Unidad           string           `gorm:"not null;default:'unidad'"`
	Cantidad         decimal.Decimal  `gorm:"type:decimal(14,4);not null;default:0"`
	StockMinimo      decimal.Decimal  `gorm:"type:decimal(14,4);not null;default:0"`
	AptoReceta       bool             `gorm:"not null;default:false"`
	StockPadreID     *uuid.UUID       `gorm:"type:uuid;index"`
	FactorConversion *decimal.Decimal `gorm:"type:decimal(14,4)"`
	FechaProduccion  *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName keeps the Spanish plural used by the rest of the schema.
func (Producto) TableName() string { return "productos" }

// EsDerivado reports whether the product takes its quantity from a parent.
func (p *Producto) EsDerivado() bool {
	return p.StockPadreID != nil && p.FactorConversion != nil
}

// EsContenedor reports whether children of p multiply (one parent yields N
// children) rather than divide.
func (p *Producto) EsContenedor() bool {
	return p.Unidad == UnidadUnidad
}

// AbreviaturaPedido is the unit written on order lines for this product.
func (p *Producto) AbreviaturaPedido() string {
	switch p.Unidad {
	case UnidadKg:
		return "kg"
	case UnidadLitro:
		return "l"
	default:
		return "un"
	}
}

// CategoriaValida reports whether c is one of the known categories.
func CategoriaValida(c string) bool {
	switch c {
	case CategoriaMateriaPrima, CategoriaVerduras, CategoriaObjetos, CategoriaProduccion, CategoriaReceta:
		return true
	}
	return false
}

// UnidadValida reports whether u is one of the known units.
func UnidadValida(u string) bool {
	return u == UnidadUnidad || u == UnidadKg || u == UnidadLitro
}
