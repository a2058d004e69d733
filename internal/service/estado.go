package service

import (
	"sort"
	"strings"

	"stockcocina/internal/model"

	"github.com/shopspring/decimal"
)

// Stock status of a product relative to its minimum.
const (
	EstadoCritico     = "critico"
	EstadoAdvertencia = "advertencia"
	EstadoOK          = "ok"
)

// Sort modes for product lists.
const (
	OrdenCreacion  = "creacion"
	OrdenNombre    = "nombre"
	OrdenPrioridad = "prioridad"
)

var umbralAdvertencia = decimal.NewFromFloat(1.5)

// EstadoStock classifies q against the product minimum.
func EstadoStock(p *model.Producto) string {
	switch {
	case p.Cantidad.LessThanOrEqual(p.StockMinimo):
		return EstadoCritico
	case p.Cantidad.LessThanOrEqual(p.StockMinimo.Mul(umbralAdvertencia)):
		return EstadoAdvertencia
	default:
		return EstadoOK
	}
}

// Alerta is a product that is not in the ok state.
type Alerta struct {
	Producto model.Producto
	Estado   string
}

// Alertas lists products in the critico or advertencia state, most urgent first.
func (l *Ledger) Alertas() []Alerta {
	var out []Alerta
	for _, p := range OrdenarProductos(l.Productos(), OrdenPrioridad) {
		if e := EstadoStock(&p); e != EstadoOK {
			out = append(out, Alerta{Producto: p, Estado: e})
		}
	}
	return out
}

// CandidatosPedido lists products low enough to be ordered from the
// supplier. Products made in the kitchen are never ordered.
func (l *Ledger) CandidatosPedido() []model.Producto {
	var out []model.Producto
	for _, p := range l.Productos() {
		if p.Categoria == model.CategoriaProduccion {
			continue
		}
		if p.Cantidad.LessThanOrEqual(p.StockMinimo.Mul(umbralAdvertencia)) {
			out = append(out, p)
		}
	}
	return out
}

// OrdenarProductos sorts in place and returns productos. Unknown modes keep
// creation order.
func OrdenarProductos(productos []model.Producto, modo string) []model.Producto {
	switch modo {
	case OrdenNombre:
		sort.SliceStable(productos, func(i, j int) bool {
			return strings.ToLower(productos[i].Nombre) < strings.ToLower(productos[j].Nombre)
		})
	case OrdenPrioridad:
		sort.SliceStable(productos, func(i, j int) bool {
			return prioridad(&productos[i]).LessThan(prioridad(&productos[j]))
		})
	}
	return productos
}

// prioridad is quantity over minimum; lower means more urgent.
func prioridad(p *model.Producto) decimal.Decimal {
	minimo := p.StockMinimo
	if !minimo.IsPositive() {
		minimo = decimal.NewFromInt(1)
	}
	return p.Cantidad.Div(minimo)
}
