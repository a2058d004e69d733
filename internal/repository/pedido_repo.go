package repository

import (
	"context"
	"time"

	"stockcocina/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PedidoRepository covers orders and their lines.
type PedidoRepository interface {
	// Create inserts the order and, in the same call, all of its Detalles.
	Create(ctx context.Context, p *model.Pedido) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error)
	// FindByRango lists orders with created_at in [desde, hasta), oldest first.
	FindByRango(ctx context.Context, desde, hasta time.Time) ([]model.Pedido, error)
	// List returns the order history, newest first.
	List(ctx context.Context) ([]model.Pedido, error)
	// Delete removes the order and its lines.
	Delete(ctx context.Context, id uuid.UUID) error

	CreateDetalles(ctx context.Context, detalles []model.DetallePedido) error
	UpdateCantidadDetalle(ctx context.Context, id uuid.UUID, cantidad model.Cantidad) error
	UpdateEstadoDetalles(ctx context.Context, ids []uuid.UUID, recibido bool, estado string) error
	// ListDetallesPendientes returns every line with recibido = false.
	ListDetallesPendientes(ctx context.Context) ([]model.DetallePedido, error)
}

type pedidoRepo struct{ db *gorm.DB }

func NewPedidoRepository(db *gorm.DB) PedidoRepository { return &pedidoRepo{db: db} }

func (r *pedidoRepo) Create(ctx context.Context, p *model.Pedido) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *pedidoRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Pedido, error) {
	var p model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Detalles", func(db *gorm.DB) *gorm.DB { return db.Order("producto_nombre ASC") }).
		First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pedidoRepo) FindByRango(ctx context.Context, desde, hasta time.Time) ([]model.Pedido, error) {
	var pedidos []model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Detalles").
		Where("created_at >= ? AND created_at < ?", desde, hasta).
		Order("created_at ASC").
		Find(&pedidos).Error
	return pedidos, err
}

func (r *pedidoRepo) List(ctx context.Context) ([]model.Pedido, error) {
	var pedidos []model.Pedido
	err := r.db.WithContext(ctx).
		Preload("Detalles").
		Order("created_at DESC").
		Find(&pedidos).Error
	return pedidos, err
}

func (r *pedidoRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("pedido_id = ?", id).Delete(&model.DetallePedido{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&model.Pedido{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *pedidoRepo) CreateDetalles(ctx context.Context, detalles []model.DetallePedido) error {
	if len(detalles) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&detalles).Error
}

func (r *pedidoRepo) UpdateCantidadDetalle(ctx context.Context, id uuid.UUID, cantidad model.Cantidad) error {
	return r.db.WithContext(ctx).Model(&model.DetallePedido{}).
		Where("id = ?", id).
		Update("cantidad_solicitada", cantidad).Error
}

func (r *pedidoRepo) UpdateEstadoDetalles(ctx context.Context, ids []uuid.UUID, recibido bool, estado string) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(&model.DetallePedido{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"recibido": recibido,
			"estado":   estado,
		}).Error
}

func (r *pedidoRepo) ListDetallesPendientes(ctx context.Context) ([]model.DetallePedido, error) {
	var detalles []model.DetallePedido
	err := r.db.WithContext(ctx).Where("recibido = ?", false).Find(&detalles).Error
	return detalles, err
}
