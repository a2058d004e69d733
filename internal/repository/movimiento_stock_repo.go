package repository

import (
	"context"

	"stockcocina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovimientoStockFilter narrows the audit trail. ReferenciaID selects the
// movements caused by one order, or by producing one product.
type MovimientoStockFilter struct {
	ProductoID   *uuid.UUID
	ReferenciaID *uuid.UUID
	Tipo         string
	Page         int
	Limit        int
}

const (
	limiteMovimientos    = 100
	limiteMovimientosMax = 500
)

// pagina normalizes page/limit and returns the row offset.
func (f MovimientoStockFilter) pagina() (offset, limit int) {
	limit = f.Limit
	if limit < 1 || limit > limiteMovimientosMax {
		limit = limiteMovimientos
	}
	page := max(f.Page, 1)
	return (page - 1) * limit, limit
}

// MovimientoStockRepository stores the append-only stock audit trail.
type MovimientoStockRepository interface {
	Create(ctx context.Context, m *model.MovimientoStock) error
	List(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error)
}

type movimientoStockRepo struct{ db *gorm.DB }

func NewMovimientoStockRepository(db *gorm.DB) MovimientoStockRepository {
	return &movimientoStockRepo{db: db}
}

func (r *movimientoStockRepo) Create(ctx context.Context, m *model.MovimientoStock) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *movimientoStockRepo) List(ctx context.Context, filter MovimientoStockFilter) ([]model.MovimientoStock, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.MovimientoStock{}).Scopes(filtrarMovimientos(filter))

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []model.MovimientoStock{}, 0, nil
	}

	offset, limit := filter.pagina()
	var movimientos []model.MovimientoStock
	err := q.Order("created_at DESC").Offset(offset).Limit(limit).Find(&movimientos).Error
	return movimientos, total, err
}

func filtrarMovimientos(f MovimientoStockFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.ProductoID != nil {
			db = db.Where("producto_id = ?", *f.ProductoID)
		}
		if f.ReferenciaID != nil {
			db = db.Where("referencia_id = ?", *f.ReferenciaID)
		}
		if f.Tipo != "" {
			db = db.Where("tipo = ?", f.Tipo)
		}
		return db
	}
}
