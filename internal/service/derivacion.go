package service

import (
	"stockcocina/internal/model"

	"github.com/shopspring/decimal"
)

// Decimal places used by the stock arithmetic.
const (
	decimalesDerivado = 2 // displayed quantity of a linked child
	decimalesPaso     = 3 // manual steps, receipts, production output
	decimalesPadre    = 4 // parent quantity computed from a child
)

// CantidadDerivada is the effective quantity of a child linked to padre with
// the given factor. A count parent yields factor children per unit; any other
// parent is consumed factor per child. Not rounded.
func CantidadDerivada(padre *model.Producto, factor decimal.Decimal) decimal.Decimal {
	if padre.EsContenedor() {
		return padre.Cantidad.Mul(factor)
	}
	if !factor.IsPositive() {
		return decimal.Zero
	}
	return padre.Cantidad.Div(factor)
}

// EquivalenteEnPadre converts a quantity expressed in child units into parent
// units: the inverse of CantidadDerivada. It is used both for writes through a
// child and for recipe consumption of a linked ingredient. factor must be
// positive.
func EquivalenteEnPadre(padre *model.Producto, factor, cantidadHijo decimal.Decimal) decimal.Decimal {
	if padre.EsContenedor() {
		return cantidadHijo.Div(factor)
	}
	return cantidadHijo.Mul(factor)
}

func maxCero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
