package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stockcocina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CrearProducto validates and inserts p, then reloads the table.
func (l *Ledger) CrearProducto(ctx context.Context, p *model.Producto) (model.Producto, error) {
	if err := validarProducto(p); err != nil {
		return model.Producto{}, err
	}
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	l.mu.Lock()
	err := l.validarVinculo(p)
	l.mu.Unlock()
	if err != nil {
		return model.Producto{}, err
	}

	if err := l.repo.Create(ctx, p); err != nil {
		return model.Producto{}, fmt.Errorf("crear producto: %w", err)
	}
	if err := l.Cargar(ctx); err != nil {
		return model.Producto{}, err
	}
	creado, _ := l.Producto(p.ID)
	return creado, nil
}

// EditarProducto stores the descriptive and link fields of p. Quantity is not
// touched here; use the write API for that.
func (l *Ledger) EditarProducto(ctx context.Context, p *model.Producto) (model.Producto, error) {
	if err := validarProducto(p); err != nil {
		return model.Producto{}, err
	}
	l.mu.Lock()
	if _, ok := l.indice[p.ID]; !ok {
		l.mu.Unlock()
		return model.Producto{}, ErrProductoNoEncontrado
	}
	err := l.validarVinculo(p)
	l.mu.Unlock()
	if err != nil {
		return model.Producto{}, err
	}

	if err := l.repo.Update(ctx, p); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return model.Producto{}, ErrProductoNoEncontrado
		}
		return model.Producto{}, fmt.Errorf("editar producto: %w", err)
	}
	if err := l.Cargar(ctx); err != nil {
		return model.Producto{}, err
	}
	editado, _ := l.Producto(p.ID)
	return editado, nil
}

// BorrarProducto hard-deletes a product. Its children keep their stored
// quantity from then on; recipe rows pointing at it are left in place.
func (l *Ledger) BorrarProducto(ctx context.Context, id uuid.UUID) error {
	if _, ok := l.Producto(id); !ok {
		return ErrProductoNoEncontrado
	}
	l.prog.Cancelar(id)
	l.mu.Lock()
	delete(l.optimista, id)
	l.mu.Unlock()

	if err := l.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("borrar producto: %w", err)
	}
	return l.Cargar(ctx)
}

func validarProducto(p *model.Producto) error {
	p.Nombre = strings.TrimSpace(p.Nombre)
	switch {
	case p.Nombre == "":
		return fmt.Errorf("%w: el nombre es obligatorio", ErrProductoInvalido)
	case !model.CategoriaValida(p.Categoria):
		return fmt.Errorf("%w: categoría %q desconocida", ErrProductoInvalido, p.Categoria)
	case !model.UnidadValida(p.Unidad):
		return fmt.Errorf("%w: unidad %q desconocida", ErrProductoInvalido, p.Unidad)
	case p.Cantidad.IsNegative(), p.StockMinimo.IsNegative():
		return ErrCantidadInvalida
	}
	return nil
}

// validarVinculo enforces single-level linkage: a parent is never itself a
// child, and a product with children never gets a parent. Must be called
// with l.mu held.
func (l *Ledger) validarVinculo(p *model.Producto) error {
	if p.StockPadreID == nil && p.FactorConversion == nil {
		return nil
	}
	if p.StockPadreID == nil || p.FactorConversion == nil {
		return fmt.Errorf("%w: producto padre y factor de conversión van juntos", ErrVinculoInvalido)
	}
	if !p.FactorConversion.IsPositive() {
		return fmt.Errorf("%w: el factor de conversión debe ser positivo", ErrVinculoInvalido)
	}
	if *p.StockPadreID == p.ID {
		return fmt.Errorf("%w: un producto no puede ser su propio padre", ErrVinculoInvalido)
	}
	i, ok := l.indice[*p.StockPadreID]
	if !ok {
		return fmt.Errorf("%w: el producto padre no existe", ErrVinculoInvalido)
	}
	if l.productos[i].StockPadreID != nil {
		return fmt.Errorf("%w: %q ya deriva de otro producto", ErrVinculoInvalido, l.productos[i].Nombre)
	}
	for _, h := range l.productos {
		if h.StockPadreID != nil && *h.StockPadreID == p.ID {
			return fmt.Errorf("%w: %q tiene productos vinculados", ErrVinculoInvalido, p.Nombre)
		}
	}
	return nil
}
