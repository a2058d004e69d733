package repository

import (
	"context"

	"stockcocina/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductoRepository defines the data access contract for products.
// Services depend on this interface, not on the concrete GORM implementation,
// enabling clean unit testing via stubs.
type ProductoRepository interface {
	Create(ctx context.Context, p *model.Producto) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error)
	// List returns every product in creation order.
	List(ctx context.Context) ([]model.Producto, error)
	// Update writes the descriptive and link columns. The quantity column is
	// left alone: it only changes through UpdateCantidad.
	Update(ctx context.Context, p *model.Producto) error
	// UpdateCantidad writes only the stored quantity column.
	UpdateCantidad(ctx context.Context, id uuid.UUID, cantidad decimal.Decimal) error
	// Delete is a hard delete; recipe rows pointing at the product are left alone.
	Delete(ctx context.Context, id uuid.UUID) error
}

type productoRepo struct{ db *gorm.DB }

func NewProductoRepository(db *gorm.DB) ProductoRepository { return &productoRepo{db: db} }

func (r *productoRepo) Create(ctx context.Context, p *model.Producto) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Producto, error) {
	var p model.Producto
	err := r.db.WithContext(ctx).First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productoRepo) List(ctx context.Context) ([]model.Producto, error) {
	var productos []model.Producto
	err := r.db.WithContext(ctx).Order("created_at ASC").Find(&productos).Error
	return productos, err
}

func (r *productoRepo) Update(ctx context.Context, p *model.Producto) error {
	res := r.db.WithContext(ctx).Model(p).
		Select("nombre", "categoria", "unidad", "stock_minimo", "apto_receta",
			"stock_padre_id", "factor_conversion", "fecha_produccion", "updated_at").
		Updates(p)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productoRepo) UpdateCantidad(ctx context.Context, id uuid.UUID, cantidad decimal.Decimal) error {
	res := r.db.WithContext(ctx).Model(&model.Producto{}).Where("id = ?", id).Update("cantidad", cantidad)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.Producto{}, "id = ?", id).Error
}
