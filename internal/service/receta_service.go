package service

import (
	"context"
	"errors"
	"fmt"

	"stockcocina/internal/model"
	"stockcocina/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// IngredienteResuelto is a recipe row joined with the ingredient's current
// state in the ledger.
type IngredienteResuelto struct {
	RecetaID          uuid.UUID
	InsumoID          uuid.UUID
	Nombre            string
	Unidad            string
	CantidadNecesaria decimal.Decimal
	Stock             decimal.Decimal
	// Encontrado is false when the ingredient product no longer exists.
	Encontrado bool
}

// Maximo is the result of CalcularMaximo.
type Maximo struct {
	Cantidad decimal.Decimal
	// Limitante is the ingredient that allows the fewest units. Zero value
	// when Limitado is false.
	Limitante IngredienteResuelto
	// Limitado is false when no ingredient constrains production.
	Limitado bool
}

// Consumo describes what a production did to one stock holder. Anterior is
// the quantity when the production started.
type Consumo struct {
	ProductoID uuid.UUID
	Nombre     string
	Anterior   decimal.Decimal
	Nuevo      decimal.Decimal
	Vaciado    bool
}

// ResultadoProduccion is returned by RegistrarProduccion.
type ResultadoProduccion struct {
	Producto model.Producto
	Consumos []Consumo
}

// RecetaService manages recipe rows and production.
type RecetaService interface {
	ListarIngredientes(ctx context.Context, productoID uuid.UUID) ([]IngredienteResuelto, error)
	CandidatosInsumo(productoID uuid.UUID) []model.Producto
	AgregarIngrediente(ctx context.Context, padreID, insumoID uuid.UUID, cantidad decimal.Decimal) ([]IngredienteResuelto, error)
	EliminarIngrediente(ctx context.Context, recetaID, padreID uuid.UUID) ([]IngredienteResuelto, error)
	Maximo(ctx context.Context, productoID uuid.UUID) (Maximo, error)
	// RegistrarProduccion adds cantidad to the product and consumes its
	// ingredients. When vaciarID names an ingredient (or the product holding
	// its stock) that holder is set to zero instead of decremented.
	RegistrarProduccion(ctx context.Context, productoID uuid.UUID, cantidad decimal.Decimal, vaciarID *uuid.UUID) (*ResultadoProduccion, error)
}

type recetaService struct {
	repo   repository.RecetaRepository
	ledger *Ledger
}

func NewRecetaService(repo repository.RecetaRepository, ledger *Ledger) RecetaService {
	return &recetaService{repo: repo, ledger: ledger}
}

func (s *recetaService) ListarIngredientes(ctx context.Context, productoID uuid.UUID) ([]IngredienteResuelto, error) {
	rows, err := s.repo.ListByPadre(ctx, productoID)
	if err != nil {
		return nil, fmt.Errorf("listar ingredientes: %w", err)
	}
	out := make([]IngredienteResuelto, 0, len(rows))
	for _, r := range rows {
		ing := IngredienteResuelto{
			RecetaID:          r.ID,
			InsumoID:          r.InsumoID,
			CantidadNecesaria: r.CantidadNecesaria,
		}
		if p, ok := s.ledger.Producto(r.InsumoID); ok {
			ing.Nombre = p.Nombre
			ing.Unidad = p.Unidad
			ing.Stock = p.Cantidad
			ing.Encontrado = true
		} else if r.Insumo != nil {
			ing.Nombre = r.Insumo.Nombre
			ing.Unidad = r.Insumo.Unidad
		}
		out = append(out, ing)
	}
	return out, nil
}

// CandidatosInsumo lists the products that may be added as ingredients of
// productoID.
func (s *recetaService) CandidatosInsumo(productoID uuid.UUID) []model.Producto {
	var out []model.Producto
	for _, p := range s.ledger.Productos() {
		if p.ID == productoID || !p.AptoReceta {
			continue
		}
		switch p.Categoria {
		case model.CategoriaMateriaPrima, model.CategoriaVerduras, model.CategoriaProduccion:
			out = append(out, p)
		}
	}
	return out
}

func (s *recetaService) AgregarIngrediente(ctx context.Context, padreID, insumoID uuid.UUID, cantidad decimal.Decimal) ([]IngredienteResuelto, error) {
	if !cantidad.IsPositive() {
		return nil, ErrCantidadInvalida
	}
	if _, ok := s.ledger.Producto(padreID); !ok {
		return nil, ErrProductoNoEncontrado
	}
	if _, ok := s.ledger.Producto(insumoID); !ok {
		return nil, ErrProductoNoEncontrado
	}
	if padreID == insumoID {
		return nil, fmt.Errorf("%w: un producto no puede ser ingrediente de sí mismo", ErrProductoInvalido)
	}

	r := &model.Receta{ProductoPadreID: padreID, InsumoID: insumoID, CantidadNecesaria: cantidad}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, fmt.Errorf("agregar ingrediente: %w", err)
	}
	return s.ListarIngredientes(ctx, padreID)
}

func (s *recetaService) EliminarIngrediente(ctx context.Context, recetaID, padreID uuid.UUID) ([]IngredienteResuelto, error) {
	if err := s.repo.Delete(ctx, recetaID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductoNoEncontrado
		}
		return nil, fmt.Errorf("eliminar ingrediente: %w", err)
	}
	return s.ListarIngredientes(ctx, padreID)
}

func (s *recetaService) Maximo(ctx context.Context, productoID uuid.UUID) (Maximo, error) {
	ings, err := s.ListarIngredientes(ctx, productoID)
	if err != nil {
		return Maximo{}, err
	}
	return CalcularMaximo(ings)
}

// CalcularMaximo returns how many whole units the ingredients allow. Rows
// with a non-positive amount per unit do not constrain. The limiting
// ingredient is the first one reaching the minimum.
func CalcularMaximo(ings []IngredienteResuelto) (Maximo, error) {
	if len(ings) == 0 {
		return Maximo{}, ErrRecetaSinIngredientes
	}
	var (
		res   Maximo
		menor decimal.Decimal
	)
	for _, ing := range ings {
		if !ing.CantidadNecesaria.IsPositive() {
			continue
		}
		posible := maxCero(ing.Stock).Div(ing.CantidadNecesaria)
		if !res.Limitado || posible.LessThan(menor) {
			menor = posible
			res.Limitante = ing
			res.Limitado = true
		}
	}
	if res.Limitado {
		res.Cantidad = menor.Floor()
	}
	return res, nil
}

// titular is the product that actually stores p's stock, plus the conversion
// from a quantity in p's units into the holder's units.
func titular(idx map[uuid.UUID]model.Producto, p model.Producto) (model.Producto, func(decimal.Decimal) decimal.Decimal) {
	identidad := func(d decimal.Decimal) decimal.Decimal { return d }
	if !p.EsDerivado() || !p.FactorConversion.IsPositive() {
		return p, identidad
	}
	padre, ok := idx[*p.StockPadreID]
	if !ok {
		return p, identidad
	}
	factor := *p.FactorConversion
	return padre, func(d decimal.Decimal) decimal.Decimal {
		return EquivalenteEnPadre(&padre, factor, d)
	}
}

func (s *recetaService) RegistrarProduccion(ctx context.Context, productoID uuid.UUID, cantidad decimal.Decimal, vaciarID *uuid.UUID) (*ResultadoProduccion, error) {
	if !cantidad.IsPositive() {
		return nil, ErrCantidadInvalida
	}
	if _, ok := s.ledger.Producto(productoID); !ok {
		return nil, ErrProductoNoEncontrado
	}
	rows, err := s.repo.ListByPadre(ctx, productoID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrProduccionFallida, err)
	}

	idx := make(map[uuid.UUID]model.Producto)
	for _, p := range s.ledger.Productos() {
		idx[p.ID] = p
	}
	producto := idx[productoID]
	motivo := fmt.Sprintf("producción de %s %s", cantidad.String(), producto.Nombre)

	// Every write is relative to the quantity the holder has when the batch
	// reaches it, so edits made meanwhile are kept. Only a drain is absolute.
	h, conv := titular(idx, producto)
	credito := Ajuste{
		ProductoID:   h.ID,
		Cantidad:     cantidad,
		Relativo:     true,
		Tipo:         model.MovimientoProduccion,
		Motivo:       motivo,
		ReferenciaID: &productoID,
	}
	if h.ID != producto.ID {
		credito.Cantidad = conv(cantidad)
		credito.Decimales = decimalesPadre
	}

	// Rows against the same holder accumulate into one consumption.
	consumos := make(map[uuid.UUID]decimal.Decimal)
	vaciados := make(map[uuid.UUID]bool)
	var orden []uuid.UUID
	for _, r := range rows {
		ins, ok := idx[r.InsumoID]
		if !ok {
			log.Warn().
				Str("receta_id", r.ID.String()).
				Str("insumo_id", r.InsumoID.String()).
				Msg("produccion: ingredient no longer exists, skipped")
			continue
		}
		h, conv := titular(idx, ins)
		if _, visto := consumos[h.ID]; !visto {
			orden = append(orden, h.ID)
			consumos[h.ID] = decimal.Zero
		}
		if vaciarID != nil && (*vaciarID == ins.ID || *vaciarID == h.ID) {
			vaciados[h.ID] = true
			continue
		}
		consumos[h.ID] = consumos[h.ID].Add(conv(r.CantidadNecesaria.Mul(cantidad)))
	}

	ajustes := make([]Ajuste, 0, len(orden)+1)
	ajustes = append(ajustes, credito)
	for _, id := range orden {
		a := Ajuste{
			ProductoID:   id,
			Tipo:         model.MovimientoConsumo,
			Motivo:       motivo,
			ReferenciaID: &productoID,
		}
		if vaciados[id] {
			a.Cantidad = decimal.Zero
		} else {
			a.Cantidad = consumos[id].Neg()
			a.Relativo = true
			a.Decimales = decimalesPadre
		}
		ajustes = append(ajustes, a)
	}

	errLote := s.ledger.AplicarLote(ctx, ajustes)
	if err := s.ledger.Cargar(ctx); err != nil {
		log.Error().Err(err).Msg("produccion: reload failed")
	}
	if errLote != nil {
		log.Error().Err(errLote).Str("producto_id", productoID.String()).Msg("produccion: partial batch")
		return nil, fmt.Errorf("%w: %w", ErrProduccionFallida, errLote)
	}

	res := &ResultadoProduccion{}
	res.Producto, _ = s.ledger.Producto(productoID)
	for _, id := range orden {
		actual, _ := s.ledger.Producto(id)
		res.Consumos = append(res.Consumos, Consumo{
			ProductoID: id,
			Nombre:     idx[id].Nombre,
			Anterior:   idx[id].Cantidad,
			Nuevo:      actual.Cantidad,
			Vaciado:    vaciados[id],
		})
	}
	log.Info().
		Str("producto", producto.Nombre).
		Str("cantidad", cantidad.String()).
		Int("consumos", len(res.Consumos)).
		Msg("produccion registrada")
	return res, nil
}
